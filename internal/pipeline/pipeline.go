package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/models"
	"github.com/shopql/shopql/internal/observability"
	"github.com/shopql/shopql/internal/schema"
	"github.com/shopql/shopql/internal/security"
	"golang.org/x/sync/errgroup"
)

// Assistant performs the model-backed stages. data arguments are results
// serialized with EncodeResult.
type Assistant interface {
	GenerateSQL(ctx context.Context, question, schema string) (string, error)
	Narrate(ctx context.Context, question, data string) (string, error)
	AdviseVisualization(ctx context.Context, question, data string) (models.VisualizationAdvice, error)
}

// Executor runs one read-only statement against the data store
type Executor interface {
	Execute(ctx context.Context, sql string) (models.QueryResult, error)
	Ping(ctx context.Context) error
}

type Options struct {
	Schema       *schema.Schema
	Validator    *security.SQLValidator
	StrictSchema bool
	Masker       *security.DataMasker
	Audit        *security.AuditLogger
	Timeout      time.Duration
}

// Pipeline turns a question into an answered, charted result
type Pipeline struct {
	assistant  Assistant
	executor   Executor
	schema     *schema.Schema
	schemaText string
	validator  *security.SQLValidator
	strict     bool
	masker     *security.DataMasker
	audit      *security.AuditLogger
	timeout    time.Duration
}

func New(assistant Assistant, executor Executor, opts Options) *Pipeline {
	s := opts.Schema
	if s == nil {
		s = schema.Default()
	}
	return &Pipeline{
		assistant:  assistant,
		executor:   executor,
		schema:     s,
		schemaText: s.Describe(),
		validator:  opts.Validator,
		strict:     opts.StrictSchema,
		masker:     opts.Masker,
		audit:      opts.Audit,
		timeout:    opts.Timeout,
	}
}

func (p *Pipeline) Schema() *schema.Schema {
	return p.schema
}

func (p *Pipeline) Executor() Executor {
	return p.executor
}

// Ask runs question through SQL generation, execution, narration and
// visualization advice. It never returns an error: fatal stage failures come
// back as the failure-shaped response.
func (p *Pipeline) Ask(ctx context.Context, question string) models.PipelineResponse {
	start := time.Now()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	logger := log.Ctx(ctx)

	resp, sql, rowCount, err := p.run(ctx, question)
	elapsed := time.Since(start)

	failedStage := ""
	if err != nil {
		var se *StageError
		if !errors.As(err, &se) {
			se = &StageError{Kind: KindExecution, Stage: StageExecute, Err: err}
		}
		failedStage = se.Stage
		observability.IncrementStageFailure(se.Stage, string(se.Kind))
		logger.Warn().
			Err(se.Err).
			Str("stage", se.Stage).
			Str("kind", string(se.Kind)).
			Dur("elapsed", elapsed).
			Msg("question failed")
		resp = failure(se.Message())
	} else {
		logger.Info().
			Int("row_count", rowCount).
			Bool("visualizable", resp.Visualization.IsVisualizable).
			Str("chart_type", string(resp.Visualization.ChartType)).
			Dur("elapsed", elapsed).
			Msg("question answered")
	}

	observability.ObserveQuestion(err != nil)
	p.audit.LogQuestion(question, sql, failedStage, rowCount, elapsed.Milliseconds())
	return resp
}

func (p *Pipeline) run(ctx context.Context, question string) (models.PipelineResponse, string, int, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.PipelineResponse{}, "", 0, &StageError{Kind: KindValidation, Stage: StageQuestion, Err: ErrEmptyQuestion}
	}

	var raw string
	err := p.timed(ctx, StageGenerateSQL, func() error {
		var err error
		raw, err = p.assistant.GenerateSQL(ctx, question, p.schemaText)
		return err
	})
	if err != nil {
		return models.PipelineResponse{}, "", 0, &StageError{Kind: KindGeneration, Stage: StageGenerateSQL, Err: err}
	}
	sql := CleanSQL(raw)
	if sql == "" {
		return models.PipelineResponse{}, "", 0, &StageError{Kind: KindGeneration, Stage: StageGenerateSQL, Err: ErrNoSQL}
	}
	log.Ctx(ctx).Debug().Str("sql", sql).Msg("generated sql")

	if err := p.validate(sql); err != nil {
		return models.PipelineResponse{}, sql, 0, &StageError{Kind: KindValidation, Stage: StageValidate, Err: err}
	}

	var result models.QueryResult
	err = p.timed(ctx, StageExecute, func() error {
		var err error
		result, err = p.executor.Execute(ctx, sql)
		return err
	})
	if err != nil {
		return models.PipelineResponse{}, sql, 0, &StageError{Kind: KindExecution, Stage: StageExecute, Err: err}
	}
	result = normalizeResult(result)
	if p.masker != nil {
		result = p.masker.MaskResult(result)
	}
	data := EncodeResult(result)

	var (
		answer string
		advice models.VisualizationAdvice
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.timed(gctx, StageNarrate, func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &StageError{Kind: KindGeneration, Stage: StageNarrate, Err: fmt.Errorf("panic: %v", r)}
				}
			}()
			answer, err = p.assistant.Narrate(gctx, question, data)
			if err != nil {
				return &StageError{Kind: KindGeneration, Stage: StageNarrate, Err: err}
			}
			answer = strings.TrimSpace(answer)
			if answer == "" {
				return &StageError{Kind: KindGeneration, Stage: StageNarrate, Err: ErrNoAnswer}
			}
			return nil
		})
	})
	if fast, ok := FastPathAdvice(data); ok {
		advice = fast
	} else {
		g.Go(func() error {
			return p.timed(gctx, StageVisualize, func() error {
				advice = p.advise(gctx, question, data)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return models.PipelineResponse{}, sql, len(result.Rows), err
	}

	return models.PipelineResponse{
		Answer:        answer,
		SQL:           sql,
		Data:          result,
		Visualization: &advice,
	}, sql, len(result.Rows), nil
}

// validate applies the pre-execution guards to generated SQL
func (p *Pipeline) validate(sql string) error {
	if err := CheckSingleStatement(sql); err != nil {
		return err
	}
	if p.validator != nil {
		if msg := p.validator.Validate(sql); msg != "" {
			return errors.New(msg)
		}
	}
	if p.strict {
		if err := p.schema.CheckReferences(sql); err != nil {
			return err
		}
	}
	return nil
}

// advise calls the visualization advisor. Errors and panics degrade to
// non-visualizable advice and never fail the request.
func (p *Pipeline) advise(ctx context.Context, question, data string) (advice models.VisualizationAdvice) {
	defer func() {
		if r := recover(); r != nil {
			advice = degrade(ctx, fmt.Errorf("panic: %v", r))
		}
	}()
	a, err := p.assistant.AdviseVisualization(ctx, question, data)
	if err != nil {
		return degrade(ctx, err)
	}
	return normalizeAdvice(a)
}

func degrade(ctx context.Context, err error) models.VisualizationAdvice {
	observability.IncrementAdvisoryDegradation()
	log.Ctx(ctx).Warn().Err(err).Msg("visualization advice degraded")
	return models.NotVisualizable(reasonFailedCheck + err.Error())
}

func (p *Pipeline) timed(ctx context.Context, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	observability.ObserveStage(stage, elapsed)
	log.Ctx(ctx).Debug().
		Str("stage", stage).
		Dur("elapsed", elapsed).
		Bool("ok", err == nil).
		Msg("stage finished")
	return err
}

func failure(message string) models.PipelineResponse {
	return models.PipelineResponse{
		Answer: "",
		SQL:    "",
		Data:   models.EmptyResult(),
		Error:  message,
	}
}
