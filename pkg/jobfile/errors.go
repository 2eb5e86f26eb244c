package jobfile

import "strings"

// Error captures a single field-level problem in a job file.
type Error struct {
	Field   string
	Message string
}

func (e Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Errors aggregates multiple job file problems.
type Errors []Error

func (errs Errors) Error() string {
	if len(errs) == 0 {
		return "job file validation failed"
	}
	messages := make([]string, len(errs))
	for i, err := range errs {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// Issues returns a copy of the underlying field errors.
func (errs Errors) Issues() []Error {
	return append([]Error(nil), errs...)
}
