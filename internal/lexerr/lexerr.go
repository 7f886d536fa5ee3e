// Package lexerr defines the pipeline's error taxonomy, orthogonal to
// origin: Invalid, ResourceMissing, Transient, Fatal, Integrity. It unifies
// the codebase's two historical error styles (bare sentinels and a richer
// status-carrying type) into one type used across every stage.
package lexerr

import "fmt"

type Kind string

const (
	Invalid         Kind = "invalid"
	ResourceMissing Kind = "resource_missing"
	Transient       Kind = "transient"
	Fatal           Kind = "fatal"
	Integrity       Kind = "integrity"
)

// Error carries enough context for a user-visible diagnostic: pipeline
// name, stage, batch id, and the first offending item's id or cursor.
type Error struct {
	Kind     Kind
	Pipeline string
	Stage    string
	BatchID  string
	ItemRef  string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: pipeline=%s stage=%s", e.Kind, e.Pipeline, e.Stage)
	if e.BatchID != "" {
		msg += fmt.Sprintf(" batch=%s", e.BatchID)
	}
	if e.ItemRef != "" {
		msg += fmt.Sprintf(" item=%s", e.ItemRef)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, pipeline, stage string, err error) *Error {
	return &Error{Kind: kind, Pipeline: pipeline, Stage: stage, Err: err}
}

func (e *Error) WithBatch(batchID string) *Error {
	if e == nil {
		return nil
	}
	n := *e
	n.BatchID = batchID
	return &n
}

func (e *Error) WithItem(itemRef string) *Error {
	if e == nil {
		return nil
	}
	n := *e
	n.ItemRef = itemRef
	return &n
}

// IsKind reports whether err is a *Error of the given kind, unwrapping as
// needed.
func IsKind(err error, kind Kind) bool {
	var le *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			le = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return le != nil && le.Kind == kind
}
