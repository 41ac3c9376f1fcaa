package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/middleware"
	"github.com/shopql/shopql/internal/models"
	"github.com/shopql/shopql/internal/pipeline"
	"github.com/shopql/shopql/internal/security"
)

// QueryHandler handles direct SQL query execution
type QueryHandler struct {
	executor    pipeline.Executor
	sqlVal      *security.SQLValidator
	dataMasker  *security.DataMasker
	auditLogger *security.AuditLogger
}

// NewQueryHandler builds the handler. dataMasker may be nil when masking is
// disabled.
func NewQueryHandler(
	executor pipeline.Executor,
	sqlVal *security.SQLValidator,
	dataMasker *security.DataMasker,
	auditLogger *security.AuditLogger,
) *QueryHandler {
	return &QueryHandler{
		executor:    executor,
		sqlVal:      sqlVal,
		dataMasker:  dataMasker,
		auditLogger: auditLogger,
	}
}

// Execute handles POST /api/v1/query
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	sql := pipeline.CleanSQL(req.SQL)
	if err := pipeline.CheckSingleStatement(sql); err != nil {
		models.WriteError(w, http.StatusBadRequest, "SQL validation failed: "+err.Error())
		return
	}
	if errMsg := h.sqlVal.Validate(sql); errMsg != "" {
		models.WriteError(w, http.StatusBadRequest, "SQL validation failed: "+errMsg)
		return
	}

	apiKey := middleware.APIKeyFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(req.TimeoutMs)*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := h.executor.Execute(ctx, sql)
	execMs := time.Since(start).Milliseconds()
	if err != nil {
		h.auditLogger.LogQuery(sql, apiKey, execMs, 0, false, err.Error())
		log.Ctx(r.Context()).Warn().Err(err).Int64("execution_ms", execMs).Msg("direct query failed")
		models.WriteError(w, http.StatusInternalServerError, "query execution failed: "+err.Error())
		return
	}

	if h.dataMasker != nil {
		result = h.dataMasker.MaskResult(result)
	}
	if result.Columns == nil || result.Rows == nil {
		result = models.EmptyResult()
	}

	h.auditLogger.LogQuery(sql, apiKey, execMs, len(result.Rows), true, "")

	models.WriteJSON(w, http.StatusOK, models.DirectQueryResponse{
		Status:          "success",
		Data:            result,
		RowCount:        len(result.Rows),
		ExecutionTimeMs: execMs,
	})
}
