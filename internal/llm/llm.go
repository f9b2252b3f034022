package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for social profile analysis. Implementations return the raw
// JSON object produced by the model; validation happens in the caller.
type Client interface {
	AnalyzeProfile(ctx context.Context, input ProfileInput) (json.RawMessage, error)
}

// ProfileInput captures what the model needs to analyze one profile link.
type ProfileInput struct {
	URL      string
	Platform string
}

// Schema field names every provider asks the model to fill.
const (
	FieldAccountName     = "accountName"
	FieldFollowerCount   = "followerCount"
	FieldContentKeywords = "contentKeywords"
	FieldAvgViewsRecent  = "avgViewsRecent"
	FieldGenderRatio     = "genderRatio"
	FieldGenderReasoning = "genderReasoning"
)

// SchemaFields lists the required response fields in prompt order.
var SchemaFields = []string{
	FieldAccountName,
	FieldFollowerCount,
	FieldContentKeywords,
	FieldAvgViewsRecent,
	FieldGenderRatio,
	FieldGenderReasoning,
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// ErrEmptyResponse is returned by providers when the model produced no text.
var ErrEmptyResponse = errors.New("llm response empty")

// PlaceholderClient is used when no provider credentials are configured.
type PlaceholderClient struct{}

// AnalyzeProfile returns ErrNotImplemented.
func (PlaceholderClient) AnalyzeProfile(ctx context.Context, input ProfileInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, input ProfileInput) (json.RawMessage, error)

// AnalyzeProfile calls f.
func (f ClientFunc) AnalyzeProfile(ctx context.Context, input ProfileInput) (json.RawMessage, error) {
	return f(ctx, input)
}
