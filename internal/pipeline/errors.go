package pipeline

import (
	"errors"
	"strings"
)

// ErrorPrefix starts every user-facing pipeline error
const ErrorPrefix = "Sorry, I couldn't process that question."

// Kind classifies fatal stage failures
type Kind string

const (
	KindGeneration Kind = "generation"
	KindValidation Kind = "validation"
	KindExecution  Kind = "execution"
)

// Stage names used in logs, metrics and audit records
const (
	StageQuestion    = "question"
	StageGenerateSQL = "generate_sql"
	StageValidate    = "validate"
	StageExecute     = "execute"
	StageNarrate     = "narrate"
	StageVisualize   = "visualize"
)

var (
	ErrEmptyQuestion      = errors.New("Question is required and must be a string.")
	ErrNoSQL              = errors.New("AI failed to generate a response.")
	ErrNoAnswer           = errors.New("Failed to generate a response.")
	ErrMultipleStatements = errors.New("Only single SQL statements are allowed.")
)

// StageError is a fatal failure of one pipeline stage
type StageError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Message renders the error for the end user: the fixed apology followed by
// the underlying cause.
func (e *StageError) Message() string {
	return UserMessage(e.Err)
}

// UserMessage prefixes err with the apology string. StageErrors contribute
// only their cause, not the stage name.
func UserMessage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		err = se.Err
	}
	cause := strings.TrimSpace(err.Error())
	if cause == "" {
		return ErrorPrefix
	}
	return ErrorPrefix + " " + cause
}
