package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopql/shopql/internal/models"
	"github.com/shopql/shopql/internal/schema"
)

// SchemaHandler serves the schema registry the SQL generator is prompted with
type SchemaHandler struct {
	schema *schema.Schema
}

func NewSchemaHandler(s *schema.Schema) *SchemaHandler {
	if s == nil {
		s = schema.Default()
	}
	return &SchemaHandler{schema: s}
}

// Schema handles GET /api/v1/schema
func (h *SchemaHandler) Schema(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"description": h.schema.Describe(),
		"tables":      h.schema.Info(),
	})
}

// ListTables handles GET /api/v1/tables
func (h *SchemaHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables := h.schema.Info()
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"tables": tables,
		"count":  len(tables),
	})
}

// GetTable handles GET /api/v1/tables/{table}
func (h *SchemaHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	t, ok := h.schema.Table(name)
	if !ok {
		models.WriteError(w, http.StatusNotFound, "table not found: "+name)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"table":  schema.TableToInfo(t),
	})
}
