package scoredomain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidScore indicates a negative score delta. Running totals only grow.
	ErrInvalidScore = errors.New("invalid score value")

	// ErrMigrationAlreadyRan is returned when the legacy migration task is started twice.
	ErrMigrationAlreadyRan = errors.New("legacy score migration already ran")
)

// ValidationError reports a malformed identifier or value handed to the score update
// path. It signals a caller bug and is never retried.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DeckNotFoundError is returned when a deck name matches no catalog entry, canonical id,
// or custom deck.
type DeckNotFoundError struct {
	Name string
}

func (e *DeckNotFoundError) Error() string {
	return fmt.Sprintf("deck not found: %s", e.Name)
}

// AggregateError is the single rejection surfaced when one or more concurrent record
// updates fail. Callers must not assume the other updates were rolled back.
type AggregateError struct {
	Op  string
	Err error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("%s: score update incomplete: %v", e.Op, e.Err)
}

func (e *AggregateError) Unwrap() error { return e.Err }

// MigrationFatalError aborts the legacy score migration. Aggregate state is untrusted
// after it is returned.
type MigrationFatalError struct {
	Row int
	Err error
}

func (e *MigrationFatalError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("legacy score migration failed: %v", e.Err)
	}
	return fmt.Sprintf("legacy score migration failed at row %d: %v", e.Row, e.Err)
}

func (e *MigrationFatalError) Unwrap() error { return e.Err }
