package membership

import (
	"errors"
	"fmt"
	"strings"

	"github.com/crcportal/api/internal/model"
)

// ErrStaleVersion is returned when a change carries an expected version that
// no longer matches the roster.
var ErrStaleVersion = errors.New("roster changed since it was read")

// ValidationError is a change the caller must fix before resubmitting. No
// state was touched.
type ValidationError struct {
	Fields []model.FieldError
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []model.FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid membership change: " + strings.Join(parts, "; ")
}

// ConflictError lists students that already belong to another class. The
// roster was not changed.
type ConflictError struct {
	ClassID   string
	Conflicts []model.ConflictEntry
	// Pending is the add set that was checked.
	Pending []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d student(s) already belong to another class", len(e.Conflicts))
}

// StudentIDs returns the conflicting student ids in detection order.
func (e *ConflictError) StudentIDs() []string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, c.StudentID)
	}
	return ids
}

// Without returns the pending add set minus the conflicting students, ready
// to be resubmitted.
func (e *ConflictError) Without() []string {
	return subtract(e.Pending, e.StudentIDs())
}

// RemoteError reports a persistence failure. The optimistic change has
// already been rolled back when the caller sees it.
type RemoteError struct {
	MutationID string
	Err        error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("membership change %s rolled back: %v", e.MutationID, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func subtract(ids, drop []string) []string {
	if len(drop) == 0 {
		return append([]string(nil), ids...)
	}
	skip := make(map[string]struct{}, len(drop))
	for _, id := range drop {
		skip[id] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
