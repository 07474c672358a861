package task

import (
	"fmt"

	"careerpath/pkg/prompt"
)

type Kind string

const (
	KindUpstreamError   Kind = "upstream_error"
	KindUpstreamTimeout Kind = "upstream_timeout"
	KindInvalidJSON     Kind = "invalid_json"
	KindSchemaMismatch  Kind = "schema_mismatch"
	KindInputValidation Kind = "input_validation"
)

// Error is the single error type returned by Service. Raw is set for
// invalid_json and schema_mismatch and holds the model reply verbatim.
type Error struct {
	Task       prompt.Task
	Kind       Kind
	Raw        string
	Diagnostic string
	Fields     []string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Task, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Task, e.Kind, e.Diagnostic)
}

func (e *Error) Unwrap() error {
	return e.Err
}
