package pipeline

import (
	"encoding/json"

	"github.com/shopql/shopql/internal/models"
)

const (
	reasonEmptyData   = "Data is empty or not in the expected format."
	reasonUnparseable = "Failed to parse data."
	reasonFailedCheck = "Visualization check failed: "
)

// EncodeResult serializes a result the way it is shown to the models:
// {"columns":[...],"rows":[{...}]} with row keys in column order.
func EncodeResult(r models.QueryResult) string {
	b, err := json.Marshal(r)
	if err != nil {
		// only reachable with values json cannot encode (NaN, channels)
		return ""
	}
	return string(b)
}

// FastPathAdvice decides degenerate inputs without a model call. It reports
// true when data is unparseable or has no rows, along with the advice to use.
func FastPathAdvice(data string) (models.VisualizationAdvice, bool) {
	var parsed struct {
		Rows []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return models.NotVisualizable(reasonUnparseable), true
	}
	if len(parsed.Rows) == 0 {
		return models.NotVisualizable(reasonEmptyData), true
	}
	return models.VisualizationAdvice{}, false
}

// normalizeAdvice keeps chartType and isVisualizable consistent
func normalizeAdvice(a models.VisualizationAdvice) models.VisualizationAdvice {
	if !a.ChartType.Valid() {
		a.ChartType = models.ChartNone
	}
	if !a.IsVisualizable {
		a.ChartType = models.ChartNone
	}
	if a.ChartType == models.ChartNone {
		a.IsVisualizable = false
	}
	return a
}

// normalizeResult enforces the empty-result shape
func normalizeResult(r models.QueryResult) models.QueryResult {
	if len(r.Rows) == 0 {
		return models.EmptyResult()
	}
	if r.Columns == nil {
		r.Columns = []string{}
	}
	return r
}
