package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultLLMProvider     = ProviderAnthropic
	DefaultAnthropicModel  = "claude-sonnet-4-6"
	DefaultGeminiModel     = "gemini-2.0-flash"
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultOpenAIBaseURL   = "https://api.openai.com"
	DefaultLLMMaxTokens    = 1024
	DefaultPipelineTimeout = 120 // seconds

	DefaultStoreDriver     = DriverSQLite
	DefaultStoreDSN        = "file:shopql.db?_pragma=busy_timeout(5000)"
	DefaultMaxOpenConns    = 4
	DefaultMaxIdleConns    = 4
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultQueryTimeout    = 30 * time.Second

	DefaultBigQueryLocation       = "US"
	DefaultMaxQueryBytesProcessed = 10_000_000_000 // 10GB

	DefaultElasticsearchPort       = 9200
	DefaultElasticsearchScheme     = "http"
	DefaultElasticsearchMaxRetries = 3

	DefaultMaxQuestionLength = 2000

	DefaultCORSMaxAge = 300
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
)

const (
	DriverSQLite        = "sqlite"
	DriverDuckDB        = "duckdb"
	DriverPostgres      = "postgres"
	DriverBigQuery      = "bigquery"
	DriverElasticsearch = "elasticsearch"
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:9002",
}

var DefaultSensitiveColumns = []string{
	"email", "phone", "ssn", "social_security_number",
	"credit_card", "password", "secret", "token",
	"api_key", "access_key", "private_key",
}

// DefaultPIIKeywords holds unambiguous terms only. A bare "pin" would match
// product names such as "Smart Pin".
var DefaultPIIKeywords = []string{
	"password", "ssn", "social security", "credit card",
	"bank account", "pin code", "private key",
	"access token", "api key",
}
