package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SHOPQL_CONFIG", "SHOPQL_PORT", "SHOPQL_LLM_PROVIDER", "SHOPQL_STORE_DRIVER",
		"SHOPQL_STORE_DSN", "SHOPQL_API_KEYS", "ENABLE_AUTH", "GCP_PROJECT_ID",
		"ELASTICSEARCH_HOST", "SHOPQL_ENABLE_DIRECT_QUERY",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultAPIPrefix, cfg.APIPrefix)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.True(t, cfg.SeedDemoData)
	assert.True(t, cfg.EnableSQLValidation)
	assert.False(t, cfg.EnableDirectQueryAPI)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOPQL_PORT", "9090")
	t.Setenv("SHOPQL_LLM_PROVIDER", "Gemini")
	t.Setenv("SHOPQL_STORE_DRIVER", "duckdb")
	t.Setenv("SHOPQL_API_KEYS", "a,b")
	t.Setenv("ENABLE_AUTH", "1")
	t.Setenv("SHOPQL_ENABLE_DIRECT_QUERY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, DriverDuckDB, cfg.StoreDriver)
	assert.Equal(t, []string{"a", "b"}, cfg.APIKeys)
	assert.True(t, cfg.EnableAuth)
	assert.True(t, cfg.EnableDirectQueryAPI)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "shopql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 8123
llm_provider: openai
strict_schema: true
model_list:
  sql: gpt-4o
`), 0o600))
	t.Setenv("SHOPQL_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Port)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.True(t, cfg.StrictSchema)
	assert.Equal(t, "gpt-4o", cfg.Model("sql"))
	assert.Equal(t, DefaultOpenAIModel, cfg.Model("narrative"))
}

func TestLoadJSONFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "shopql.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store_driver":"elasticsearch","elasticsearch_host":"es.local"}`), 0o600))
	t.Setenv("SHOPQL_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverElasticsearch, cfg.StoreDriver)
	assert.Equal(t, "es.local", cfg.ElasticsearchHost)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHOPQL_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Port: 8000, LLMProvider: ProviderAnthropic, StoreDriver: DriverSQLite, StoreDSN: DefaultStoreDSN}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"provider", func(c *Config) { c.LLMProvider = "llama" }, `unknown llm_provider "llama"`},
		{"driver", func(c *Config) { c.StoreDriver = "oracle" }, `unknown store_driver "oracle"`},
		{"port", func(c *Config) { c.Port = 70000 }, "invalid port 70000"},
		{"postgres dsn", func(c *Config) { c.StoreDriver = DriverPostgres }, "store_dsn is required for postgres"},
		{"bigquery project", func(c *Config) { c.StoreDriver = DriverBigQuery }, "gcp_project_id is required for bigquery"},
		{"es host", func(c *Config) { c.StoreDriver = DriverElasticsearch }, "elasticsearch_host is required for elasticsearch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestModelFallback(t *testing.T) {
	c := &Config{LLMProvider: ProviderAnthropic, ModelList: map[string]string{"anthropic": "claude-x"}}
	assert.Equal(t, "claude-x", c.Model("sql"))

	c.ModelList = nil
	assert.Equal(t, DefaultAnthropicModel, c.Model("sql"))

	c.LLMProvider = ProviderGemini
	assert.Equal(t, DefaultGeminiModel, c.Model("visualization"))
}
