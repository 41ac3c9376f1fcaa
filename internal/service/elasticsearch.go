package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/models"
	"github.com/shopql/shopql/internal/schema"
)

// ElasticsearchService executes generated SQL through the Elasticsearch SQL API
type ElasticsearchService struct {
	client          *elasticsearch.Client
	allowedPatterns []string // index patterns exposed in the schema
}

type ElasticsearchConfig struct {
	Scheme          string
	Host            string
	Port            int
	User            string
	Password        string
	VerifyCerts     bool
	MaxRetries      int
	AllowedPatterns []string
}

func NewElasticsearchService(cfg ElasticsearchConfig) (*ElasticsearchService, error) {
	addr := fmt.Sprintf("%s://%s:%d", cfg.Scheme, cfg.Host, cfg.Port)

	esCfg := elasticsearch.Config{
		Addresses:  []string{addr},
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.User != "" {
		esCfg.Username = cfg.User
		esCfg.Password = cfg.Password
	}
	if !cfg.VerifyCerts {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402 - user explicitly disabled cert verification
			},
		}
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}
	return NewElasticsearchServiceWithClient(client, cfg.AllowedPatterns), nil
}

func NewElasticsearchServiceWithClient(client *elasticsearch.Client, allowedPatterns []string) *ElasticsearchService {
	return &ElasticsearchService{client: client, allowedPatterns: allowedPatterns}
}

func (s *ElasticsearchService) Name() string {
	return "elasticsearch"
}

func (s *ElasticsearchService) Close() error {
	return nil
}

// IsIndexAllowed returns true if the index matches any of the allowed patterns.
// If no patterns are configured, all indices are allowed.
func (s *ElasticsearchService) IsIndexAllowed(index string) bool {
	if len(s.allowedPatterns) == 0 {
		return !strings.HasPrefix(index, ".")
	}
	for _, pattern := range s.allowedPatterns {
		if matched, err := filepath.Match(pattern, index); err == nil && matched {
			return true
		}
	}
	return false
}

func (s *ElasticsearchService) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping error: %s", res.Status())
	}
	return nil
}

// Execute runs sql with format=json. Trailing semicolons are removed since
// the SQL API rejects them.
func (s *ElasticsearchService) Execute(ctx context.Context, sql string) (models.QueryResult, error) {
	query := strings.TrimSpace(sql)
	for strings.HasSuffix(query, ";") {
		query = strings.TrimSpace(strings.TrimSuffix(query, ";"))
	}
	if query == "" {
		return models.QueryResult{}, fmt.Errorf("sql is required")
	}

	body, err := json.Marshal(map[string]interface{}{"query": query})
	if err != nil {
		return models.QueryResult{}, fmt.Errorf("marshal query: %w", err)
	}

	res, err := s.client.SQL.Query(
		bytes.NewReader(body),
		s.client.SQL.Query.WithContext(ctx),
		s.client.SQL.Query.WithFormat("json"),
	)
	if err != nil {
		return models.QueryResult{}, err
	}
	defer res.Body.Close()

	result, err := decodeSQLResponse(res.Body, res.IsError(), res.Status())
	if err != nil {
		return models.QueryResult{}, err
	}
	log.Debug().Int("rows", len(result.Rows)).Msg("elasticsearch sql executed")
	return result, nil
}

// LoadSchema lists the allowed indices and their columns via SHOW TABLES and
// SHOW COLUMNS.
func (s *ElasticsearchService) LoadSchema(ctx context.Context) (*schema.Schema, error) {
	tables, err := s.Execute(ctx, "SHOW TABLES")
	if err != nil {
		return nil, fmt.Errorf("show tables: %w", err)
	}
	out := &schema.Schema{}
	for _, row := range tables.Rows {
		name, _ := row["name"].(string)
		if name == "" || !s.IsIndexAllowed(name) {
			continue
		}
		cols, err := s.Execute(ctx, fmt.Sprintf(`SHOW COLUMNS IN "%s"`, name))
		if err != nil {
			log.Warn().Err(err).Str("index", name).Msg("failed to describe index")
			continue
		}
		t := schema.Table{Name: name}
		for _, c := range cols.Rows {
			colName, _ := c["column"].(string)
			colType, _ := c["type"].(string)
			if colName != "" {
				t.Columns = append(t.Columns, schema.Column{Name: colName, Type: colType})
			}
		}
		out.Tables = append(out.Tables, t)
	}
	return out, nil
}

func decodeSQLResponse(r io.Reader, isError bool, status string) (models.QueryResult, error) {
	var raw struct {
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
		Rows  [][]interface{}  `json:"rows"`
		Error *json.RawMessage `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return models.QueryResult{}, fmt.Errorf("decode response: %w", err)
	}
	if isError || raw.Error != nil {
		if raw.Error != nil {
			return models.QueryResult{}, fmt.Errorf("elasticsearch error [%s]: %s", status, esErrorReason(*raw.Error))
		}
		return models.QueryResult{}, fmt.Errorf("elasticsearch error: %s", status)
	}

	result := models.EmptyResult()
	if len(raw.Rows) == 0 {
		return result, nil
	}
	names := make([]string, len(raw.Columns))
	for i, c := range raw.Columns {
		names[i] = c.Name
	}
	result.Columns = uniqueColumns(names)
	for _, values := range raw.Rows {
		row := make(map[string]interface{}, len(result.Columns))
		for i, col := range result.Columns {
			if i < len(values) {
				row[col] = normalizeValue(values[i])
			}
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// esErrorReason pulls error.reason out of an error object, or returns it raw
func esErrorReason(raw json.RawMessage) string {
	var e struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(raw, &e); err == nil && e.Reason != "" {
		return e.Reason
	}
	return string(raw)
}
