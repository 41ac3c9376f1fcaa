package handler

import (
	"net/http"

	"github.com/shopql/shopql/internal/models"
)

// PresetQuestions are offered to users who do not know what to ask
var PresetQuestions = []string{
	"What are my sales in the last 7 days?",
	"Calculate the RoAS (Return on Ad Spend).",
	"Which product had the highest CPC (Cost Per Click)?",
}

// Questions handles GET /api/v1/questions
func Questions(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"questions": PresetQuestions,
	})
}
