package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/config"
	"github.com/shopql/shopql/internal/models"
)

// Stage names double as model_list keys.
const (
	StageSQL           = "sql"
	StageNarrative     = "narrative"
	StageVisualization = "visualization"
)

// ErrNoResponse is returned when a model answers with nothing usable
var ErrNoResponse = errors.New("AI failed to generate a response.")

// Assistant performs the three model-backed pipeline stages
type Assistant struct {
	sql           Completer
	narrative     Completer
	visualization Completer
	dialect       string
}

// NewAssistant uses one completer for every stage
func NewAssistant(c Completer, dialect string) *Assistant {
	return &Assistant{sql: c, narrative: c, visualization: c, dialect: dialect}
}

// New builds an Assistant for the configured provider, one completer per
// stage so model_list can route stages to different models.
func New(ctx context.Context, cfg *config.Config) (*Assistant, error) {
	a := &Assistant{dialect: Dialect(cfg.StoreDriver)}
	for _, stage := range []struct {
		name string
		dst  *Completer
	}{
		{StageSQL, &a.sql},
		{StageNarrative, &a.narrative},
		{StageVisualization, &a.visualization},
	} {
		c, err := newCompleter(ctx, cfg, cfg.Model(stage.name))
		if err != nil {
			return nil, fmt.Errorf("%s completer: %w", stage.name, err)
		}
		*stage.dst = c
	}
	log.Info().
		Str("provider", cfg.LLMProvider).
		Str("sql_model", cfg.Model(StageSQL)).
		Str("dialect", a.dialect).
		Msg("assistant ready")
	return a, nil
}

func newCompleter(ctx context.Context, cfg *config.Config, model string) (Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return NewGeminiCompleter(ctx, cfg.GeminiAPIKey, model, cfg.LLMMaxTokens)
	case config.ProviderOpenAI:
		return NewOpenAICompleter(OpenAIConfig{
			BaseURL:   cfg.OpenAIBaseURL,
			APIKey:    cfg.OpenAIAPIKey,
			Model:     model,
			MaxTokens: cfg.LLMMaxTokens,
			Timeout:   time.Duration(cfg.PipelineTimeout) * time.Second,
		})
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic API key is required")
		}
		return NewAnthropicCompleter(cfg.AnthropicAPIKey, model, cfg.AnthropicBaseURL, cfg.LLMMaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// Dialect names the SQL flavour the generator should target for a store driver
func Dialect(driver string) string {
	switch driver {
	case config.DriverDuckDB:
		return "DuckDB"
	case config.DriverPostgres:
		return "PostgreSQL"
	case config.DriverBigQuery:
		return "BigQuery Standard SQL"
	case config.DriverElasticsearch:
		return "Elasticsearch SQL"
	default:
		return "SQLite"
	}
}

// GenerateSQL returns the model's SQL for question, uncleaned. A model that
// ignores the JSON instruction and answers with bare SQL is accepted as is.
func (a *Assistant) GenerateSQL(ctx context.Context, question, schema string) (string, error) {
	text, err := a.sql.Complete(ctx, Prompt{
		System: fmt.Sprintf(sqlSystemPrompt, a.dialect),
		User:   fmt.Sprintf(sqlUserPrompt, schema, question),
		Output: sqlOutput,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoResponse
	}

	var out struct {
		SQL string `json:"sql"`
	}
	if obj, err := extractJSONObject(text); err == nil && json.Unmarshal([]byte(obj), &out) == nil {
		return out.SQL, nil
	}
	return text, nil
}

// Narrate answers question in prose from the serialized result data
func (a *Assistant) Narrate(ctx context.Context, question, data string) (string, error) {
	text, err := a.narrative.Complete(ctx, Prompt{
		System: narrativeSystemPrompt,
		User:   fmt.Sprintf(narrativeUserPrompt, question, data),
		Output: narrativeOutput,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Response *string `json:"response"`
	}
	if obj, err := extractJSONObject(text); err == nil && json.Unmarshal([]byte(obj), &out) == nil && out.Response != nil {
		return strings.TrimSpace(*out.Response), nil
	}
	return strings.TrimSpace(text), nil
}

// AdviseVisualization asks whether data is worth charting and how
func (a *Assistant) AdviseVisualization(ctx context.Context, question, data string) (models.VisualizationAdvice, error) {
	text, err := a.visualization.Complete(ctx, Prompt{
		System: visualizationSystemPrompt,
		User:   fmt.Sprintf(visualizationUserPrompt, question, data),
		Output: visualizationOutput,
	})
	if err != nil {
		return models.VisualizationAdvice{}, err
	}

	obj, err := extractJSONObject(text)
	if err != nil {
		return models.VisualizationAdvice{}, err
	}
	var advice models.VisualizationAdvice
	if err := json.Unmarshal([]byte(obj), &advice); err != nil {
		return models.VisualizationAdvice{}, fmt.Errorf("decode visualization advice: %w", err)
	}
	if !advice.ChartType.Valid() {
		return models.VisualizationAdvice{}, fmt.Errorf("unsupported chart type %q", advice.ChartType)
	}
	return advice, nil
}
