package agent

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiCompleter calls Google's Gemini models. Structured output uses the
// API's native JSON mode instead of prompt instructions.
type GeminiCompleter struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string, maxTokens int) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiCompleter{
		client:    client,
		model:     model,
		maxTokens: int32(maxTokens),
	}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = c.maxTokens
	}
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	if p.Output != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = geminiSchema(p.Output)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(p.User), cfg)
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	text := resp.Text()

	log.Debug().
		Str("provider", "gemini").
		Str("model", c.model).
		Int("chars", len(text)).
		Msg("completion")

	return text, nil
}

func geminiSchema(s *OutputSchema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		fs := &genai.Schema{Type: genai.TypeString, Description: f.Description}
		if f.Type == "boolean" {
			fs.Type = genai.TypeBoolean
		}
		if len(f.Enum) > 0 {
			fs.Enum = f.Enum
		}
		props[f.Name] = fs
		required = append(required, f.Name)
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}
