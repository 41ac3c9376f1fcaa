package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/models"
	_ "modernc.org/sqlite"
)

type DBConfig struct {
	Driver          string // sqlite | duckdb | postgres
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenDB opens and pings a database/sql pool for one of the embedded or
// postgres drivers.
func OpenDB(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	driverName, err := sqlDriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", cfg.Driver, err)
	}
	return db, nil
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case "sqlite":
		return "sqlite", nil
	case "duckdb":
		return "duckdb", nil
	case "postgres":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// SQLService executes statements over a database/sql pool
type SQLService struct {
	db      *sql.DB
	driver  string
	timeout time.Duration
}

func NewSQLService(db *sql.DB, driver string, timeout time.Duration) *SQLService {
	return &SQLService{db: db, driver: driver, timeout: timeout}
}

func (s *SQLService) Name() string {
	return s.driver
}

func (s *SQLService) DB() *sql.DB {
	return s.db
}

func (s *SQLService) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLService) Close() error {
	return s.db.Close()
}

// Execute runs one statement and returns rows keyed by column name, columns
// in driver order. Repeated column names get a numeric suffix.
func (s *SQLService) Execute(ctx context.Context, query string) (models.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return models.QueryResult{}, fmt.Errorf("sql is required")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return models.QueryResult{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("query columns: %w", err)
	}
	dbTypes := make([]string, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			if i < len(dbTypes) {
				dbTypes[i] = ct.DatabaseTypeName()
			}
		}
	}
	keys := uniqueColumns(columns)

	result := models.EmptyResult()
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return models.QueryResult{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]interface{}, len(keys))
		for i, key := range keys {
			row[key] = normalizeTyped(values[i], dbTypes[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return models.QueryResult{}, fmt.Errorf("iterate rows: %w", err)
	}
	if len(result.Rows) > 0 {
		result.Columns = keys
	}

	log.Debug().
		Str("driver", s.driver).
		Int("rows", len(result.Rows)).
		Dur("elapsed", time.Since(start)).
		Msg("query executed")
	return result, nil
}
