package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// QueryResult is the tabular output of one executed statement. Columns follow
// the key order of the first row; an empty result has both slices empty.
type QueryResult struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

// EmptyResult returns a result with non-nil empty slices so it encodes as
// {"columns":[],"rows":[]}.
func EmptyResult() QueryResult {
	return QueryResult{Columns: []string{}, Rows: []map[string]interface{}{}}
}

// MarshalJSON writes row keys in column order so the encoding is stable and
// matches what the store returned. Nil slices encode as [].
func (r QueryResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"columns":`)
	cols := r.Columns
	if cols == nil {
		cols = []string{}
	}
	colJSON, err := json.Marshal(cols)
	if err != nil {
		return nil, err
	}
	buf.Write(colJSON)
	buf.WriteString(`,"rows":[`)
	for i, row := range r.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeRow(&buf, cols, row); err != nil {
			return nil, err
		}
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

func writeRow(buf *bytes.Buffer, cols []string, row map[string]interface{}) error {
	keys := make([]string, 0, len(row))
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if _, ok := row[c]; ok && !seen[c] {
			keys = append(keys, c)
			seen[c] = true
		}
	}
	var extra []string
	for k := range row {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	keys = append(keys, extra...)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kj, err := json.Marshal(k)
		if err != nil {
			return err
		}
		vj, err := json.Marshal(row[k])
		if err != nil {
			return err
		}
		buf.Write(kj)
		buf.WriteByte(':')
		buf.Write(vj)
	}
	buf.WriteByte('}')
	return nil
}

// ChartType is the kind of chart recommended for a result
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartArea ChartType = "area"
	ChartPie  ChartType = "pie"
	ChartNone ChartType = "none"
)

// Valid reports whether c is one of the known chart kinds
func (c ChartType) Valid() bool {
	switch c {
	case ChartBar, ChartLine, ChartArea, ChartPie, ChartNone:
		return true
	}
	return false
}

// VisualizationAdvice tells the caller whether and how to chart a result
type VisualizationAdvice struct {
	IsVisualizable bool      `json:"isVisualizable"`
	ChartType      ChartType `json:"chartType"`
	ChartTitle     string    `json:"chartTitle"`
	Reasoning      string    `json:"reasoning"`
}

// NotVisualizable returns the canned advice used whenever no chart is shown
func NotVisualizable(reasoning string) VisualizationAdvice {
	return VisualizationAdvice{
		IsVisualizable: false,
		ChartType:      ChartNone,
		ChartTitle:     "",
		Reasoning:      reasoning,
	}
}

// PipelineResponse is returned by POST /api/ask.
// On success Error is empty; on failure Answer and SQL are empty and Data is
// the empty result.
type PipelineResponse struct {
	Answer        string               `json:"answer"`
	SQL           string               `json:"sql"`
	Data          QueryResult          `json:"data"`
	Visualization *VisualizationAdvice `json:"visualization,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// Failed reports whether the response carries an error
func (r PipelineResponse) Failed() bool {
	return r.Error != ""
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// DirectQueryResponse is returned by POST /api/v1/query
type DirectQueryResponse struct {
	Status          string      `json:"status"`
	Data            QueryResult `json:"data"`
	RowCount        int         `json:"row_count"`
	ExecutionTimeMs int64       `json:"execution_time_ms"`
}

// ColumnInfo describes one column of a schema table
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableInfo describes one table of the schema registry
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}
