package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"social-insight/internal/llm"
)

type fakeGenerator struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestAnalyzeProfileRequestsSchemaAndSearch(t *testing.T) {
	fake := &fakeGenerator{resp: textResponse(`{"accountName":"MrBeast"}`)}
	client := newWithGenerator(fake, "", true)

	raw, err := client.AnalyzeProfile(context.Background(), llm.ProfileInput{URL: "https://www.youtube.com/@MrBeast", Platform: "YouTube"})
	require.NoError(t, err)

	assert.JSONEq(t, `{"accountName":"MrBeast"}`, string(raw))
	assert.Equal(t, DefaultModel, fake.model)
	assert.Contains(t, fake.prompt, "https://www.youtube.com/@MrBeast")
	require.NotNil(t, fake.config)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	require.Len(t, fake.config.Tools, 1)
	assert.NotNil(t, fake.config.Tools[0].GoogleSearch)
	assert.ElementsMatch(t, llm.SchemaFields, fake.config.ResponseSchema.Required)
}

func TestAnalyzeProfileWithoutSearch(t *testing.T) {
	fake := &fakeGenerator{resp: textResponse(`{}`)}
	client := newWithGenerator(fake, "gemini-2.5-flash", false)

	_, err := client.AnalyzeProfile(context.Background(), llm.ProfileInput{URL: "https://x.test"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", fake.model)
	assert.Empty(t, fake.config.Tools)
}

func TestAnalyzeProfileEmptyText(t *testing.T) {
	client := newWithGenerator(&fakeGenerator{resp: textResponse("   ")}, "", true)
	_, err := client.AnalyzeProfile(context.Background(), llm.ProfileInput{URL: "https://x.test"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)

	client = newWithGenerator(&fakeGenerator{}, "", true)
	_, err = client.AnalyzeProfile(context.Background(), llm.ProfileInput{URL: "https://x.test"})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestAnalyzeProfileWrapsProviderError(t *testing.T) {
	boom := errors.New("quota exceeded")
	client := newWithGenerator(&fakeGenerator{err: boom}, "", true)
	_, err := client.AnalyzeProfile(context.Background(), llm.ProfileInput{URL: "https://x.test"})
	assert.ErrorIs(t, err, boom)
}

func TestProfileSchemaFieldsAreStrings(t *testing.T) {
	schema := ProfileSchema()
	assert.Equal(t, genai.TypeObject, schema.Type)
	require.Len(t, schema.Properties, len(llm.SchemaFields))
	for _, field := range llm.SchemaFields {
		assert.Equal(t, genai.TypeString, schema.Properties[field].Type, field)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "", true)
	assert.Error(t, err)
}
