package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/handler"
	"github.com/shopql/shopql/internal/middleware"
	"github.com/shopql/shopql/internal/security"
)

func (s *Server) setupRoutes() http.Handler {
	cfg := s.cfg

	// ─── Security ───────────────────────────────────────────────────────────────
	var questionVal *security.QuestionValidator
	if cfg.EnableQuestionChecks {
		questionVal = security.NewQuestionValidator(cfg.MaxQuestionLength)
	}
	var piiDetector *security.PIIDetector
	if cfg.EnablePIIDetection {
		piiDetector = security.NewPIIDetector(cfg.PIIKeywords)
	}
	var dataMasker *security.DataMasker
	if cfg.EnableDataMasking {
		dataMasker = security.NewDataMasker(cfg.SensitiveColumns)
	}
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)

	log.Info().
		Str("store", s.store.Name()).
		Str("llm_provider", cfg.LLMProvider).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("direct_query", cfg.EnableDirectQueryAPI).
		Bool("data_masking", cfg.EnableDataMasking).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("auth enabled but no API keys configured - API routes are open")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	askH := handler.NewAskHandler(s.pipeline, questionVal, piiDetector)
	schemaH := handler.NewSchemaHandler(s.pipeline.Schema())
	healthH := handler.NewHealthHandler(map[string]handler.HealthChecker{s.store.Name(): s.store})

	var queryH *handler.QueryHandler
	if cfg.EnableDirectQueryAPI {
		queryH = handler.NewQueryHandler(s.store, security.NewSQLValidator(), dataMasker, auditLogger)
	}

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	if cfg.EnableMetrics {
		r.Use(middleware.Metrics)
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)
	if cfg.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	s.limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	apiMiddleware := []func(http.Handler) http.Handler{s.limiter.Middleware}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		r.Use(apiMiddleware...)

		r.Post("/api/ask", askH.Ask)

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/ask", askH.Ask)
			r.Get("/questions", handler.Questions)
			r.Get("/schema", schemaH.Schema)
			r.Get("/tables", schemaH.ListTables)
			r.Get("/tables/{table}", schemaH.GetTable)
			if queryH != nil {
				r.Post("/query", queryH.Execute)
			}
		})
	})

	return r
}
