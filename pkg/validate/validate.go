// Package validate holds the field checks run before any task mutation is
// attempted. Every check is a pure function over its inputs; none of them
// touch the cache or the spreadsheet.
package validate

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/harrisonrobin/tasksheet/pkg/model"
)

const (
	// MaxNameLength is the longest task name the tasks sheet accepts,
	// in characters.
	MaxNameLength = 50
	// MaxNotesLength is the longest notes field the tasks sheet accepts,
	// in characters.
	MaxNotesLength = 250
)

// Kind identifies which constraint a value violated.
type Kind string

const (
	KindEmptyName        Kind = "empty_name"
	KindNameTooLong      Kind = "name_too_long"
	KindBadFormat        Kind = "bad_format"
	KindPastDeadline     Kind = "past_deadline"
	KindInvalidPriority  Kind = "invalid_priority"
	KindInvalidStatus    Kind = "invalid_status"
	KindNotesTooLong     Kind = "notes_too_long"
	KindUnknownReference Kind = "unknown_reference"
)

// ValidationError reports a rejected field value. It is always returned
// before the mirror or the remote store is touched, so the caller can
// safely retry with corrected input.
type ValidationError struct {
	Kind  Kind
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Name checks that a task name is non-empty after trimming and within the
// column limit.
func Name(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return &ValidationError{Kind: KindEmptyName, Field: "name", Msg: "task name must not be empty"}
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return &ValidationError{
			Kind:  KindNameTooLong,
			Field: "name",
			Msg:   fmt.Sprintf("task name must be %d characters or less", MaxNameLength),
		}
	}
	return nil
}

// Deadline parses a YYYY-MM-DD deadline and checks it is not before the
// current date. Comparison is at date granularity: a deadline of today is
// valid.
func Deadline(s string, now time.Time) (model.Date, error) {
	d, err := model.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return model.Date{}, &ValidationError{
			Kind:  KindBadFormat,
			Field: "deadline",
			Msg:   "deadline must be a date in YYYY-MM-DD format",
		}
	}
	if d.Before(model.DateOf(now).Time) {
		return model.Date{}, &ValidationError{
			Kind:  KindPastDeadline,
			Field: "deadline",
			Msg:   "deadline cannot be in the past",
		}
	}
	return d, nil
}

// Priority checks that s is one of High, Medium, Low or empty.
func Priority(s string) (model.Priority, error) {
	switch model.Priority(strings.TrimSpace(s)) {
	case model.PriorityHigh:
		return model.PriorityHigh, nil
	case model.PriorityMedium:
		return model.PriorityMedium, nil
	case model.PriorityLow:
		return model.PriorityLow, nil
	case model.PriorityNone:
		return model.PriorityNone, nil
	}
	return "", &ValidationError{
		Kind:  KindInvalidPriority,
		Field: "priority",
		Msg:   "priority must be High, Medium, Low or empty",
	}
}

// Status checks that s is one of the three task statuses.
func Status(s string) (model.Status, error) {
	switch model.Status(strings.TrimSpace(s)) {
	case model.StatusPending:
		return model.StatusPending, nil
	case model.StatusInProgress:
		return model.StatusInProgress, nil
	case model.StatusCompleted:
		return model.StatusCompleted, nil
	}
	return "", &ValidationError{
		Kind:  KindInvalidStatus,
		Field: "status",
		Msg:   "status must be Pending, In Progress or Completed",
	}
}

// Notes checks the free-text notes field against the column limit.
func Notes(s string) error {
	if utf8.RuneCountInString(s) > MaxNotesLength {
		return &ValidationError{
			Kind:  KindNotesTooLong,
			Field: "notes",
			Msg:   fmt.Sprintf("notes must be %d characters or less", MaxNotesLength),
		}
	}
	return nil
}

// Reference checks that id is present in the given identifier set. field
// names the referencing column for the error message.
func Reference(field string, id int, ids map[int]struct{}) error {
	if _, ok := ids[id]; !ok {
		return &ValidationError{
			Kind:  KindUnknownReference,
			Field: field,
			Msg:   fmt.Sprintf("no %s with id %d", field, id),
		}
	}
	return nil
}
