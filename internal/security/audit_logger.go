package security

import (
	"github.com/rs/zerolog/log"
)

// AuditLogger logs question and query events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogQuery records a direct SQL execution
func (a *AuditLogger) LogQuery(
	sql, apiKey string,
	executionTimeMs int64,
	rowCount int,
	success bool,
	errMsg string,
) {
	if a == nil || !a.enabled {
		return
	}

	evt := log.Info().
		Str("event", "query_audit").
		Str("sql_hash", shortHash(sql)).
		Str("api_key_hash", shortHash(apiKey)).
		Int64("execution_time_ms", executionTimeMs).
		Int("row_count", rowCount).
		Bool("success", success)

	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

// LogQuestion records one pass through the question pipeline. failedStage is
// empty on success.
func (a *AuditLogger) LogQuestion(
	question, generatedSQL, failedStage string,
	rowCount int,
	executionTimeMs int64,
) {
	if a == nil || !a.enabled {
		return
	}
	sqlHash := ""
	if generatedSQL != "" {
		sqlHash = shortHash(generatedSQL)
	}

	log.Info().
		Str("event", "question_audit").
		Str("question_hash", shortHash(question)).
		Str("sql_hash", sqlHash).
		Str("failed_stage", failedStage).
		Bool("success", failedStage == "").
		Int("row_count", rowCount).
		Int64("execution_time_ms", executionTimeMs).
		Msg("question audit")
}
