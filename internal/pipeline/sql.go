package pipeline

import (
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("```(?:sql|SQL)?[ \t]*\n?")

// CleanSQL removes markdown code fences from model output and trims it
func CleanSQL(raw string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
}

// CheckSingleStatement rejects input holding more than one statement. It
// splits on ';' without parsing, so a trailing semicolon is fine but a
// semicolon inside a string literal followed by more text is rejected too.
func CheckSingleStatement(sql string) error {
	fragments := 0
	for _, part := range strings.Split(sql, ";") {
		if strings.TrimSpace(part) != "" {
			fragments++
		}
	}
	if fragments > 1 {
		return ErrMultipleStatements
	}
	return nil
}
