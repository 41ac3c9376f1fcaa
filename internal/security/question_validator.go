package security

import (
	"fmt"
	"regexp"
	"strings"
)

const MaxQuestionLength = 2000

// injectionPatterns flag attempts to steer the model away from answering a data question
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?(the\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)new\s+context\s*:`),
	regexp.MustCompile(`(?i)change\s+context\s*:`),
	regexp.MustCompile(`(?i)instead\s+of\s+the\s+above`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+`),
	regexp.MustCompile(`(?i)system\s+prompt`),

	// statements smuggled into the question
	regexp.MustCompile(`(?i)\bdrop\s+table\b`),
	regexp.MustCompile(`(?i)\btruncate\s+table\b`),
	regexp.MustCompile(`(?i)\bdelete\s+from\b`),
	regexp.MustCompile(`(?i)\binsert\s+into\b`),
	regexp.MustCompile(`(?i)\bupdate\s+\w+\s+set\b`),
	regexp.MustCompile(`(?i)\balter\s+table\b`),

	// file access
	regexp.MustCompile(`\.\.\/`),
	regexp.MustCompile(`/etc/passwd`),
	regexp.MustCompile(`/etc/shadow`),
	regexp.MustCompile(`id_rsa`),
}

// QuestionValidator screens end-user questions before any stage runs
type QuestionValidator struct {
	maxLength int
}

func NewQuestionValidator(maxLength int) *QuestionValidator {
	if maxLength <= 0 {
		maxLength = MaxQuestionLength
	}
	return &QuestionValidator{maxLength: maxLength}
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

// Validate checks a question for length and injection patterns
func (v *QuestionValidator) Validate(question string) ValidationResult {
	if strings.TrimSpace(question) == "" {
		return ValidationResult{Valid: false, Message: "question cannot be empty"}
	}

	if len(question) > v.maxLength {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("question too long: %d chars (max %d)", len(question), v.maxLength),
		}
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(question) {
			return ValidationResult{
				Valid:   false,
				Message: "question contains a disallowed instruction",
			}
		}
	}

	return ValidationResult{Valid: true, Message: "ok"}
}
