package models

import "strings"

// AskRequest for POST /api/ask. Question is decoded loosely so that a
// non-string value can be rejected with the documented message.
type AskRequest struct {
	Question interface{} `json:"question"`
}

// QuestionText returns the trimmed question and whether it was a non-empty string
func (r *AskRequest) QuestionText() (string, bool) {
	s, ok := r.Question.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// QueryRequest for POST /api/v1/query (direct SQL)
type QueryRequest struct {
	SQL       string `json:"sql"`
	TimeoutMs int    `json:"timeout_ms"`
}

func (r *QueryRequest) SetDefaults() {
	if r.TimeoutMs == 0 {
		r.TimeoutMs = 30000
	}
	if r.TimeoutMs < 1000 {
		r.TimeoutMs = 1000
	}
	if r.TimeoutMs > 300000 {
		r.TimeoutMs = 300000
	}
}
