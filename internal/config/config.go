package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Host        string `json:"host" yaml:"host"`
	Port        int    `json:"port" yaml:"port"`
	Environment string `json:"environment" yaml:"environment"`
	APIPrefix   string `json:"api_prefix" yaml:"api_prefix"`
	LogLevel    string `json:"log_level" yaml:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header" yaml:"api_key_header"`
	APIKeys      []string `json:"api_keys" yaml:"api_keys"`
	EnableAuth   bool     `json:"enable_auth" yaml:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	// Metrics
	EnableMetrics bool `json:"enable_metrics" yaml:"enable_metrics"`

	// AI / LLM
	LLMProvider      string            `json:"llm_provider" yaml:"llm_provider"` // anthropic | gemini | openai
	AnthropicAPIKey  string            `json:"anthropic_api_key" yaml:"anthropic_api_key"`
	AnthropicBaseURL string            `json:"anthropic_base_url" yaml:"anthropic_base_url"`
	GeminiAPIKey     string            `json:"gemini_api_key" yaml:"gemini_api_key"`
	OpenAIAPIKey     string            `json:"openai_api_key" yaml:"openai_api_key"`
	OpenAIBaseURL    string            `json:"openai_base_url" yaml:"openai_base_url"`
	ModelList        map[string]string `json:"model_list" yaml:"model_list"` // provider or stage -> model ID
	LLMMaxTokens     int               `json:"llm_max_tokens" yaml:"llm_max_tokens"`
	PipelineTimeout  int               `json:"pipeline_timeout" yaml:"pipeline_timeout"` // seconds

	// Data store
	StoreDriver     string        `json:"store_driver" yaml:"store_driver"`
	StoreDSN        string        `json:"store_dsn" yaml:"store_dsn"`
	SeedDemoData    bool          `json:"seed_demo_data" yaml:"seed_demo_data"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `json:"query_timeout" yaml:"query_timeout"`

	// BigQuery
	GCPProjectID                 string `json:"gcp_project_id" yaml:"gcp_project_id"`
	GoogleApplicationCredentials string `json:"google_application_credentials" yaml:"google_application_credentials"`
	BigQueryLocation             string `json:"bigquery_location" yaml:"bigquery_location"`
	BigQueryDataset              string `json:"bigquery_dataset" yaml:"bigquery_dataset"`
	MaxQueryBytesProcessed       int64  `json:"max_query_bytes_processed" yaml:"max_query_bytes_processed"`

	// Elasticsearch
	ElasticsearchHost        string `json:"elasticsearch_host" yaml:"elasticsearch_host"`
	ElasticsearchPort        int    `json:"elasticsearch_port" yaml:"elasticsearch_port"`
	ElasticsearchScheme      string `json:"elasticsearch_scheme" yaml:"elasticsearch_scheme"`
	ElasticsearchUser        string `json:"elasticsearch_user" yaml:"elasticsearch_user"`
	ElasticsearchPassword    string `json:"elasticsearch_password" yaml:"elasticsearch_password"`
	ElasticsearchVerifyCerts bool   `json:"elasticsearch_verify_certs" yaml:"elasticsearch_verify_certs"`
	ElasticsearchMaxRetries  int    `json:"elasticsearch_max_retries" yaml:"elasticsearch_max_retries"`

	ElasticsearchIndexPatterns []string `json:"elasticsearch_index_patterns" yaml:"elasticsearch_index_patterns"`

	// Guards
	StrictSchema         bool     `json:"strict_schema" yaml:"strict_schema"`
	EnableSQLValidation  bool     `json:"enable_sql_validation" yaml:"enable_sql_validation"`
	EnableQuestionChecks bool     `json:"enable_question_checks" yaml:"enable_question_checks"`
	MaxQuestionLength    int      `json:"max_question_length" yaml:"max_question_length"`
	EnableDataMasking    bool     `json:"enable_data_masking" yaml:"enable_data_masking"`
	EnablePIIDetection   bool     `json:"enable_pii_detection" yaml:"enable_pii_detection"`
	SensitiveColumns     []string `json:"sensitive_columns" yaml:"sensitive_columns"`
	PIIKeywords          []string `json:"pii_keywords" yaml:"pii_keywords"`
	EnableAuditLogging   bool     `json:"enable_audit_logging" yaml:"enable_audit_logging"`
	EnableDirectQueryAPI bool     `json:"enable_direct_query_api" yaml:"enable_direct_query_api"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                     DefaultHost,
		Port:                     DefaultPort,
		Environment:              DefaultEnvironment,
		APIPrefix:                DefaultAPIPrefix,
		LogLevel:                 DefaultLogLevel,
		CORSOrigins:              DefaultCORSOrigins,
		APIKeyHeader:             "X-API-Key",
		EnableAuth:               true,
		RateLimitPerMinute:       DefaultRateLimitPerMinute,
		EnableMetrics:            true,
		LLMProvider:              DefaultLLMProvider,
		OpenAIBaseURL:            DefaultOpenAIBaseURL,
		ModelList:                make(map[string]string),
		LLMMaxTokens:             DefaultLLMMaxTokens,
		PipelineTimeout:          DefaultPipelineTimeout,
		StoreDriver:              DefaultStoreDriver,
		StoreDSN:                 DefaultStoreDSN,
		SeedDemoData:             true,
		MaxOpenConns:             DefaultMaxOpenConns,
		MaxIdleConns:             DefaultMaxIdleConns,
		ConnMaxLifetime:          DefaultConnMaxLifetime,
		QueryTimeout:             DefaultQueryTimeout,
		BigQueryLocation:         DefaultBigQueryLocation,
		MaxQueryBytesProcessed:   DefaultMaxQueryBytesProcessed,
		ElasticsearchPort:        DefaultElasticsearchPort,
		ElasticsearchScheme:      DefaultElasticsearchScheme,
		ElasticsearchVerifyCerts: true,
		ElasticsearchMaxRetries:  DefaultElasticsearchMaxRetries,
		EnableSQLValidation:      true,
		EnableQuestionChecks:     true,
		MaxQuestionLength:        DefaultMaxQuestionLength,
		EnableDataMasking:        true,
		EnablePIIDetection:       true,
		SensitiveColumns:         DefaultSensitiveColumns,
		PIIKeywords:              DefaultPIIKeywords,
		EnableAuditLogging:       true,
	}

	// Load from JSON or YAML config file if specified
	if path := getEnv("SHOPQL_CONFIG", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderAnthropic, ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown llm_provider %q", c.LLMProvider)
	}
	switch c.StoreDriver {
	case DriverSQLite, DriverDuckDB, DriverPostgres, DriverBigQuery, DriverElasticsearch:
	default:
		return fmt.Errorf("unknown store_driver %q", c.StoreDriver)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.StoreDriver == DriverPostgres && c.StoreDSN == DefaultStoreDSN {
		return fmt.Errorf("store_dsn is required for postgres")
	}
	if c.StoreDriver == DriverBigQuery && c.GCPProjectID == "" {
		return fmt.Errorf("gcp_project_id is required for bigquery")
	}
	if c.StoreDriver == DriverElasticsearch && c.ElasticsearchHost == "" {
		return fmt.Errorf("elasticsearch_host is required for elasticsearch")
	}
	return nil
}

// Model returns the model ID for a pipeline stage, falling back to the
// provider entry of ModelList and then to the provider default.
func (c *Config) Model(stage string) string {
	if m := c.ModelList[stage]; m != "" {
		return m
	}
	if m := c.ModelList[c.LLMProvider]; m != "" {
		return m
	}
	switch c.LLMProvider {
	case ProviderGemini:
		return DefaultGeminiModel
	case ProviderOpenAI:
		return DefaultOpenAIModel
	default:
		return DefaultAnthropicModel
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("SHOPQL_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("SHOPQL_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("SHOPQL_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("SHOPQL_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("SHOPQL_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = parseBool(v)
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("SHOPQL_LLM_PROVIDER", ""); v != "" {
		cfg.LLMProvider = strings.ToLower(v)
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("GEMINI_API_KEY", ""); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := getEnv("OPENAI_API_KEY", ""); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := getEnv("OPENAI_BASE_URL", ""); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := getEnv("SHOPQL_STORE_DRIVER", ""); v != "" {
		cfg.StoreDriver = strings.ToLower(v)
	}
	if v := getEnv("SHOPQL_STORE_DSN", ""); v != "" {
		cfg.StoreDSN = v
	}
	if v := getEnv("SHOPQL_SEED_DEMO_DATA", ""); v != "" {
		cfg.SeedDemoData = parseBool(v)
	}
	if v := getEnv("SHOPQL_STRICT_SCHEMA", ""); v != "" {
		cfg.StrictSchema = parseBool(v)
	}
	if v := getEnv("SHOPQL_ENABLE_DIRECT_QUERY", ""); v != "" {
		cfg.EnableDirectQueryAPI = parseBool(v)
	}
	if v := getEnv("GCP_PROJECT_ID", ""); v != "" {
		cfg.GCPProjectID = v
	}
	if v := getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""); v != "" {
		cfg.GoogleApplicationCredentials = v
	}
	if v := getEnv("BIGQUERY_DATASET", ""); v != "" {
		cfg.BigQueryDataset = v
	}
	if v := getEnv("MAX_QUERY_BYTES_PROCESSED", ""); v != "" {
		if b, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxQueryBytesProcessed = b
		}
	}
	if v := getEnv("ELASTICSEARCH_HOST", ""); v != "" {
		cfg.ElasticsearchHost = v
	}
	if v := getEnv("ELASTICSEARCH_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.ElasticsearchPort = p
		}
	}
	if v := getEnv("ELASTICSEARCH_USER", ""); v != "" {
		cfg.ElasticsearchUser = v
	}
	if v := getEnv("ELASTICSEARCH_PASSWORD", ""); v != "" {
		cfg.ElasticsearchPassword = v
	}
	if v := getEnv("ELASTICSEARCH_INDEX_PATTERNS", ""); v != "" {
		cfg.ElasticsearchIndexPatterns = strings.Split(v, ",")
	}
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
