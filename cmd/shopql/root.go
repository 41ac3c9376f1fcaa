package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/agent"
	"github.com/shopql/shopql/internal/config"
	"github.com/shopql/shopql/internal/pipeline"
	"github.com/shopql/shopql/internal/security"
	"github.com/shopql/shopql/internal/service"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "shopql",
	Short:         "Ask questions about your store's sales and ads in plain English",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogger(cfg)
		cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
		return nil
	},
}

type configKey struct{}

func configFrom(cmd *cobra.Command) *config.Config {
	return cmd.Context().Value(configKey{}).(*config.Config)
}

func init() {
	rootCmd.AddCommand(serveCmd, askCmd, seedCmd)
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	// log.Ctx falls back to the global logger outside a request
	zerolog.DefaultContextLogger = &log.Logger
}

// buildPipeline opens the configured store and wires the question pipeline
// around it. The caller owns the returned store.
func buildPipeline(ctx context.Context, cfg *config.Config) (service.Store, *pipeline.Pipeline, error) {
	store, err := service.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	assistant, err := agent.New(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("llm: %w", err)
	}

	opts := pipeline.Options{
		Schema:       service.ResolveSchema(ctx, store),
		StrictSchema: cfg.StrictSchema,
		Audit:        security.NewAuditLogger(cfg.EnableAuditLogging),
		Timeout:      time.Duration(cfg.PipelineTimeout) * time.Second,
	}
	if cfg.EnableSQLValidation {
		opts.Validator = security.NewSQLValidator()
	}
	if cfg.EnableDataMasking {
		opts.Masker = security.NewDataMasker(cfg.SensitiveColumns)
	}
	return store, pipeline.New(assistant, store, opts), nil
}
