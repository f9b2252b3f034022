package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"social-insight/internal/llm"
)

// Fallbacks used when the model leaves a field empty.
const (
	FallbackAccountName     = "Unknown"
	FallbackFollowerCount   = "N/A"
	FallbackContentKeywords = "Uncategorized"
	FallbackAvgViewsRecent  = "N/A"
	FallbackGenderRatio     = "Unknown"
	FallbackGenderReasoning = ""
)

// Fields is the structured analysis for one profile.
type Fields struct {
	AccountName     string `json:"accountName"`
	FollowerCount   string `json:"followerCount"`
	ContentKeywords string `json:"contentKeywords"`
	AvgViewsRecent  string `json:"avgViewsRecent"`
	GenderRatio     string `json:"genderRatio"`
	GenderReasoning string `json:"genderReasoning"`
}

// parseFields validates raw against the profile schema. The payload must be a JSON object and
// every schema field that is present must be a string or null; unknown fields are ignored.
// Missing, null and blank values get the fallbacks.
func parseFields(raw []byte) (Fields, error) {
	body := stripCodeFence(raw)
	if len(body) == 0 {
		return Fields{}, fmt.Errorf("%w: empty payload", ErrMalformed)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if obj == nil {
		return Fields{}, fmt.Errorf("%w: payload is null", ErrMalformed)
	}

	values := make(map[string]string, len(llm.SchemaFields))
	for _, name := range llm.SchemaFields {
		v, ok := obj[name]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return Fields{}, fmt.Errorf("%w: field %s is not a string", ErrMalformed, name)
		}
		values[name] = strings.TrimSpace(s)
	}

	return Fields{
		AccountName:     orDefault(values[llm.FieldAccountName], FallbackAccountName),
		FollowerCount:   orDefault(values[llm.FieldFollowerCount], FallbackFollowerCount),
		ContentKeywords: orDefault(values[llm.FieldContentKeywords], FallbackContentKeywords),
		AvgViewsRecent:  orDefault(values[llm.FieldAvgViewsRecent], FallbackAvgViewsRecent),
		GenderRatio:     orDefault(values[llm.FieldGenderRatio], FallbackGenderRatio),
		GenderReasoning: orDefault(values[llm.FieldGenderReasoning], FallbackGenderReasoning),
	}, nil
}

// stripCodeFence removes a surrounding ```json fence some models emit despite JSON mode.
func stripCodeFence(raw []byte) []byte {
	body := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(body, []byte("```")) {
		return body
	}
	body = bytes.TrimPrefix(body, []byte("```"))
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = bytes.TrimPrefix(body, []byte("json"))
	}
	body = bytes.TrimSuffix(bytes.TrimSpace(body), []byte("```"))
	return bytes.TrimSpace(body)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
