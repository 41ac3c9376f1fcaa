package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/config"
	"github.com/shopql/shopql/internal/models"
	"github.com/shopql/shopql/internal/schema"
	"github.com/shopql/shopql/internal/security"
)

// Store is a query executor owned by the process: opened once at startup,
// shared by all requests and closed on shutdown.
type Store interface {
	Name() string
	Execute(ctx context.Context, sql string) (models.QueryResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// SchemaLoader is implemented by stores that can describe their own tables
type SchemaLoader interface {
	LoadSchema(ctx context.Context) (*schema.Schema, error)
}

// Open builds the Store selected by cfg.StoreDriver. Embedded stores are
// seeded with the demo dataset when cfg.SeedDemoData is set.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite, config.DriverDuckDB, config.DriverPostgres:
		db, err := OpenDB(ctx, DBConfig{
			Driver:          cfg.StoreDriver,
			DSN:             cfg.StoreDSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if cfg.SeedDemoData && cfg.StoreDriver != config.DriverPostgres {
			if err := Seed(ctx, db, PlaceholderFor(cfg.StoreDriver)); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("seed demo data: %w", err)
			}
		}
		log.Info().Str("driver", cfg.StoreDriver).Msg("sql store ready")
		return NewSQLService(db, cfg.StoreDriver, cfg.QueryTimeout), nil

	case config.DriverBigQuery:
		bq, err := NewBigQueryService(ctx, BigQueryConfig{
			ProjectID:       cfg.GCPProjectID,
			CredentialsFile: cfg.GoogleApplicationCredentials,
			Location:        cfg.BigQueryLocation,
			Dataset:         cfg.BigQueryDataset,
			Timeout:         cfg.QueryTimeout,
		}, security.NewCostTracker(cfg.MaxQueryBytesProcessed))
		if err != nil {
			return nil, err
		}
		log.Info().Str("project", cfg.GCPProjectID).Str("dataset", cfg.BigQueryDataset).Msg("bigquery store ready")
		return bq, nil

	case config.DriverElasticsearch:
		es, err := NewElasticsearchService(ElasticsearchConfig{
			Scheme:          cfg.ElasticsearchScheme,
			Host:            cfg.ElasticsearchHost,
			Port:            cfg.ElasticsearchPort,
			User:            cfg.ElasticsearchUser,
			Password:        cfg.ElasticsearchPassword,
			VerifyCerts:     cfg.ElasticsearchVerifyCerts,
			MaxRetries:      cfg.ElasticsearchMaxRetries,
			AllowedPatterns: cfg.ElasticsearchIndexPatterns,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("host", cfg.ElasticsearchHost).Msg("elasticsearch store ready")
		return es, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// ResolveSchema returns the store's own schema when it can describe itself
// and has tables, otherwise the default e-commerce schema.
func ResolveSchema(ctx context.Context, store Store) *schema.Schema {
	loader, ok := store.(SchemaLoader)
	if !ok {
		return schema.Default()
	}
	s, err := loader.LoadSchema(ctx)
	if err != nil || s == nil || len(s.Tables) == 0 {
		if err != nil {
			log.Warn().Err(err).Str("store", store.Name()).Msg("schema introspection failed, using default schema")
		}
		return schema.Default()
	}
	return s
}
