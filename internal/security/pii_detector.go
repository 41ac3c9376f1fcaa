package security

import (
	"regexp"
	"strings"
)

// PIIDetector checks questions for requests touching personal data.
// Keywords match on word boundaries so "pin" does not fire on "shopping".
type PIIDetector struct {
	keywords []string
	patterns []*regexp.Regexp
}

func NewPIIDetector(keywords []string) *PIIDetector {
	d := &PIIDetector{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		d.keywords = append(d.keywords, k)
		d.patterns = append(d.patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(k)+`\b`))
	}
	return d
}

// Detect returns true and the matched keyword if PII is found in text
func (d *PIIDetector) Detect(text string) (bool, string) {
	lower := strings.ToLower(text)
	for i, p := range d.patterns {
		if p.MatchString(lower) {
			return true, d.keywords[i]
		}
	}
	return false, ""
}
