package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Completer sends one prompt to a language model and returns its text answer
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// Prompt is a single-turn request. When Output is set the model is asked to
// answer with one JSON object holding exactly those fields.
type Prompt struct {
	System string
	User   string
	Output *OutputSchema
}

// OutputSchema describes the JSON object a stage expects back
type OutputSchema struct {
	Fields []Field
}

type Field struct {
	Name        string
	Type        string // string | boolean
	Description string
	Enum        []string
}

// Instructions renders the schema as prompt text for providers without a
// native structured-output mode.
func (s *OutputSchema) Instructions() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object and nothing else. Fields:\n")
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "- %s (%s): %s", f.Name, f.Type, f.Description)
		if len(f.Enum) > 0 {
			fmt.Fprintf(&b, " One of: %s.", strings.Join(f.Enum, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

var errNoJSONObject = errors.New("no JSON object in model output")

// extractJSONObject returns the first balanced {...} object in text. Models
// wrap JSON in prose or markdown fences often enough that decoding the raw
// answer is not reliable.
func extractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errNoJSONObject
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errNoJSONObject
}
