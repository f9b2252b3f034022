package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"social-insight/internal/llm"
	"social-insight/internal/shared/telemetry"
)

// Analyzer turns one profile URL into Fields through a single LLM call. It keeps no state
// between calls and never retries.
type Analyzer struct {
	LLM llm.Client
	// Timeout bounds each call when positive. Zero leaves the call unbounded.
	Timeout time.Duration
}

// New constructs an Analyzer.
func New(client llm.Client, timeout time.Duration) *Analyzer {
	return &Analyzer{LLM: client, Timeout: timeout}
}

// Analyze requests and validates the analysis for url. Every failure is an *AnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, url string) (Fields, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Fields{}, &AnalysisError{URL: url, Kind: KindInvalidInput, Err: errors.New("url is required")}
	}
	if a == nil || a.LLM == nil {
		return Fields{}, &AnalysisError{URL: url, Kind: KindProvider, Err: errors.New("missing llm client")}
	}

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	platform := DetectPlatform(url)
	raw, err := a.LLM.AnalyzeProfile(ctx, llm.ProfileInput{URL: url, Platform: string(platform)})
	if err != nil {
		kind := KindProvider
		if errors.Is(err, llm.ErrEmptyResponse) {
			kind = KindEmptyResponse
		}
		return Fields{}, a.fail(ctx, url, platform, kind, err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Fields{}, a.fail(ctx, url, platform, KindEmptyResponse, llm.ErrEmptyResponse)
	}

	fields, err := parseFields(raw)
	if err != nil {
		return Fields{}, a.fail(ctx, url, platform, KindMalformed, fmt.Errorf("llm output invalid: %w", err))
	}
	return fields, nil
}

func (a *Analyzer) fail(ctx context.Context, url string, platform Platform, kind Kind, err error) *AnalysisError {
	ae := &AnalysisError{URL: url, Kind: kind, Err: err}
	telemetry.Warn("analyzer.failed", map[string]any{
		"request_id": telemetry.RequestIDFromContext(ctx),
		"url":        url,
		"platform":   string(platform),
		"kind":       string(kind),
		"error":      err,
	})
	return ae
}
