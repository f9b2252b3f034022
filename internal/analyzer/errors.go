package analyzer

import (
	"errors"
	"fmt"
)

// Kind classifies why an analysis failed.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindProvider      Kind = "provider_error"
	KindEmptyResponse Kind = "empty_response"
	KindMalformed     Kind = "malformed_response"
)

// ErrMalformed is wrapped by schema validation failures.
var ErrMalformed = errors.New("response does not match profile schema")

// AnalysisError is returned for every failed Analyze call.
type AnalysisError struct {
	URL  string
	Kind Kind
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("analyze %s: %s", e.URL, e.Kind)
	}
	return fmt.Sprintf("analyze %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// IsAnalysisError reports whether err is, or wraps, an *AnalysisError.
func IsAnalysisError(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae)
}
