package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shopql/shopql/internal/models"
	"github.com/shopql/shopql/internal/security"
)

// MsgQuestionRequired is returned for a missing, empty or non-string question
const MsgQuestionRequired = "Question is required and must be a string."

// Asker answers a single question. *pipeline.Pipeline implements it.
type Asker interface {
	Ask(ctx context.Context, question string) models.PipelineResponse
}

// AskHandler handles POST /api/ask
type AskHandler struct {
	asker     Asker
	questions *security.QuestionValidator
	pii       *security.PIIDetector
}

// NewAskHandler builds the handler. questions and pii may be nil to skip
// those checks.
func NewAskHandler(asker Asker, questions *security.QuestionValidator, pii *security.PIIDetector) *AskHandler {
	return &AskHandler{asker: asker, questions: questions, pii: pii}
}

// Ask handles POST /api/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusInternalServerError, "Failed to process request: "+err.Error())
		return
	}

	question, ok := req.QuestionText()
	if !ok {
		models.WriteError(w, http.StatusBadRequest, MsgQuestionRequired)
		return
	}

	if h.questions != nil {
		if res := h.questions.Validate(question); !res.Valid {
			log.Ctx(r.Context()).Warn().Str("reason", res.Message).Msg("question rejected")
			models.WriteError(w, http.StatusBadRequest, res.Message)
			return
		}
	}
	if h.pii != nil {
		if found, keyword := h.pii.Detect(question); found {
			log.Ctx(r.Context()).Warn().Str("keyword", keyword).Msg("question asks for personal data")
			models.WriteError(w, http.StatusBadRequest, "question asks for personal data ("+keyword+")")
			return
		}
	}

	resp := h.asker.Ask(r.Context(), question)
	if r.Context().Err() != nil {
		// client went away; nothing to write to
		return
	}
	if resp.Failed() {
		models.WriteError(w, http.StatusInternalServerError, resp.Error)
		return
	}
	models.WriteJSON(w, http.StatusOK, resp)
}
