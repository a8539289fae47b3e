package main

import "fmt"

// Error taxonomy. Validation errors are caught before any network call and
// surfaced inline near the triggering control. Backend errors are caught at
// the call site and surfaced as a panel-level banner with a retry action.
// Data errors are integrity faults inside the generated content; they fail
// the whole render rather than drawing a partial graph. Nothing here is ever
// fatal to the program.

// ValidationError is a pre-flight input problem (missing chat id, empty
// required field, file over quota).
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// BackendError is a non-2xx response, a malformed body, or a transport
// failure from the backend.
type BackendError struct {
	Endpoint string
	Status   int
	Msg      string
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Endpoint, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Msg)
}

// DataError is an integrity fault in generated content: missing root,
// duplicate node id, dangling nextNode reference, empty nodes array.
type DataError struct {
	Msg string
}

func (e *DataError) Error() string { return e.Msg }
