package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"social-insight/internal/llm"
	"social-insight/internal/shared/telemetry"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-pro-preview"

// generator is the part of genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Client with Gemini, optionally grounded with Google Search, asking
// for a JSON object that matches the profile schema.
type Client struct {
	models generator
	model  string
	search bool
}

// NewClient builds a Gemini client from an API key.
func NewClient(ctx context.Context, apiKey, model string, search bool) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newWithGenerator(gc.Models, model, search), nil
}

func newWithGenerator(models generator, model string, search bool) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{models: models, model: model, search: search}
}

// AnalyzeProfile issues one GenerateContent call and returns the response text.
func (c *Client) AnalyzeProfile(ctx context.Context, input llm.ProfileInput) (json.RawMessage, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(llm.BuildProfilePrompt(input)), c.config())
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil {
		return nil, llm.ErrEmptyResponse
	}
	c.logUsage(ctx, input, resp)

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, llm.ErrEmptyResponse
	}
	return json.RawMessage(text), nil
}

func (c *Client) config() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ProfileSchema(),
	}
	if c.search {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

// ProfileSchema is the response schema: six required string fields.
func ProfileSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(llm.SchemaFields))
	for _, field := range llm.SchemaFields {
		props[field] = &genai.Schema{Type: genai.TypeString}
	}
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         append([]string(nil), llm.SchemaFields...),
		PropertyOrdering: append([]string(nil), llm.SchemaFields...),
	}
}

func (c *Client) logUsage(ctx context.Context, input llm.ProfileInput, resp *genai.GenerateContentResponse) {
	fields := map[string]any{
		"request_id": telemetry.RequestIDFromContext(ctx),
		"provider":   "gemini",
		"model":      c.model,
		"platform":   input.Platform,
		"search":     c.search,
	}
	if u := resp.UsageMetadata; u != nil {
		fields["prompt_tokens"] = u.PromptTokenCount
		fields["completion_tokens"] = u.CandidatesTokenCount
		fields["total_tokens"] = u.TotalTokenCount
	}
	telemetry.Debug("llm.response", fields)
}

var _ llm.Client = (*Client)(nil)
