package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

// AnthropicCompleter calls Claude, or any provider speaking the Anthropic
// messages API when baseURL is set.
type AnthropicCompleter struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropicCompleter(apiKey, model, baseURL string, maxTokens int) *AnthropicCompleter {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicCompleter{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *AnthropicCompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	system := p.System
	if p.Output != nil {
		system = strings.TrimSpace(system + "\n\n" + p.Output.Instructions())
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(c.model)),
		MaxTokens: anthropic.F(int64(c.maxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(p.User)),
		}),
	}
	if system != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(system),
		})
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text.WriteString(b.Text)
		}
	}

	log.Debug().
		Str("provider", "anthropic").
		Str("model", c.model).
		Str("stop_reason", string(resp.StopReason)).
		Int("chars", text.Len()).
		Msg("completion")

	return text.String(), nil
}
