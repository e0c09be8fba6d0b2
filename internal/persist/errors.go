package persist

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ErrBlankName is returned for a game without a usable name. Batch imports
// record it as a per-item failure and move on.
var ErrBlankName = errors.New("persist: game name is required")

// ConflictError is a unique-index violation, reported with the index and
// the column it most likely refers to.
type ConflictError struct {
	Index string `json:"index"` // e.g. "games.name"
	Field string `json:"field"` // e.g. "name"
	Err   error  `json:"-"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate value for %s (index %s)", e.Field, e.Index)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// ClassifyError turns SQLite unique and primary key violations into a
// *ConflictError. Any other error is returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return err
	}
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	if se.ExtendedCode != sqlite3.ErrConstraintUnique && se.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return err
	}
	index, field := parseConstraint(se.Error())
	return &ConflictError{Index: index, Field: field, Err: err}
}

// parseConstraint reads "UNIQUE constraint failed: games.name" style
// messages. Composite indexes list several columns; the first one is used.
func parseConstraint(msg string) (index, field string) {
	_, rest, ok := strings.Cut(msg, "failed:")
	if !ok {
		return "unknown", "unknown"
	}
	first, _, _ := strings.Cut(rest, ",")
	index = strings.TrimSpace(first)
	if index == "" {
		return "unknown", "unknown"
	}
	field = index
	if _, col, ok := strings.Cut(index, "."); ok {
		field = col
	}
	return index, field
}
