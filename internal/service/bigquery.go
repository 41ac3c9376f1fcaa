package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/models"
	"github.com/shopql/shopql/internal/schema"
	"github.com/shopql/shopql/internal/security"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQueryService executes generated SQL against a BigQuery dataset. Every
// statement is dry-run first so the cost limit applies before any bytes are
// billed.
type BigQueryService struct {
	client    *bigquery.Client
	projectID string
	location  string
	dataset   string
	costs     *security.CostTracker
	timeout   time.Duration
}

type BigQueryConfig struct {
	ProjectID       string
	CredentialsFile string
	Location        string
	Dataset         string
	Timeout         time.Duration
}

func NewBigQueryService(ctx context.Context, cfg BigQueryConfig, costs *security.CostTracker) (*BigQueryService, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery.NewClient: %w", err)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}
	if costs == nil {
		costs = security.NewCostTracker(0)
	}

	return &BigQueryService{
		client:    client,
		projectID: cfg.ProjectID,
		location:  cfg.Location,
		dataset:   cfg.Dataset,
		costs:     costs,
		timeout:   cfg.Timeout,
	}, nil
}

func (s *BigQueryService) Name() string {
	return "bigquery"
}

func (s *BigQueryService) Close() error {
	return s.client.Close()
}

// Ping runs SELECT 1
func (s *BigQueryService) Ping(ctx context.Context) error {
	job, err := s.client.Query("SELECT 1").Run(ctx)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("job wait: %w", err)
	}
	return status.Err()
}

func (s *BigQueryService) newQuery(sql string) *bigquery.Query {
	q := s.client.Query(sql)
	if s.dataset != "" {
		q.DefaultProjectID = s.projectID
		q.DefaultDatasetID = s.dataset
	}
	return q
}

// estimate dry-runs sql and returns the bytes it would process
func (s *BigQueryService) estimate(ctx context.Context, sql string) (int64, error) {
	q := s.newQuery(sql)
	q.DryRun = true
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("dry run: %w", err)
	}
	stats := job.LastStatus().Statistics
	if stats == nil {
		return 0, nil
	}
	return stats.TotalBytesProcessed, nil
}

func (s *BigQueryService) Execute(ctx context.Context, sql string) (models.QueryResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	estimated, err := s.estimate(ctx, sql)
	if err != nil {
		return models.QueryResult{}, err
	}
	if ok, msg := s.costs.CheckLimits(estimated); !ok {
		return models.QueryResult{}, errors.New(msg)
	}

	start := time.Now()
	job, err := s.newQuery(sql).Run(ctx)
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("query run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("job wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return models.QueryResult{}, fmt.Errorf("query failed: %w", err)
	}

	it, err := job.Read(ctx)
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("job read: %w", err)
	}

	result := models.EmptyResult()
	var columns []string
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return models.QueryResult{}, fmt.Errorf("read row: %w", err)
		}
		if columns == nil {
			names := make([]string, len(it.Schema))
			for i, f := range it.Schema {
				names[i] = f.Name
			}
			columns = uniqueColumns(names)
		}
		m := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if i < len(row) {
				m[col] = normalizeValue(row[i])
			}
		}
		result.Rows = append(result.Rows, m)
	}
	if len(result.Rows) > 0 {
		result.Columns = columns
	}

	var processed int64
	if st := job.LastStatus().Statistics; st != nil {
		processed = st.TotalBytesProcessed
	}
	s.costs.LogQueryCost(sql, processed, time.Since(start).Milliseconds())

	log.Debug().
		Str("job_id", job.ID()).
		Int("rows", len(result.Rows)).
		Int64("bytes_processed", processed).
		Msg("bigquery executed")
	return result, nil
}

// LoadSchema describes every table of the configured dataset
func (s *BigQueryService) LoadSchema(ctx context.Context) (*schema.Schema, error) {
	if s.dataset == "" {
		return nil, fmt.Errorf("bigquery dataset is not configured")
	}
	out := &schema.Schema{}
	it := s.client.Dataset(s.dataset).Tables(ctx)
	for {
		tbl, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		meta, err := tbl.Metadata(ctx)
		if err != nil {
			log.Warn().Err(err).Str("table", tbl.TableID).Msg("failed to get table metadata")
			continue
		}
		out.Tables = append(out.Tables, bigQueryTable(tbl.TableID, meta.Schema))
	}
	return out, nil
}

func bigQueryTable(name string, fields bigquery.Schema) schema.Table {
	t := schema.Table{Name: name}
	for _, f := range fields {
		t.Columns = append(t.Columns, schema.Column{Name: f.Name, Type: string(f.Type)})
	}
	return t
}
