// Package refs finds or creates shared reference rows (genres, platforms).
//
// Rows are matched by name_key, the Unicode case-folded name, and never
// deleted here. The unique index on name_key is what keeps concurrent
// callers from creating duplicates; the resolver only has to
// insert-or-ignore and read back.
package refs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"commenttogame/internal/metrics"
	"commenttogame/internal/textnorm"
)

// Kind names a reference collection.
type Kind string

const (
	KindGenre    Kind = "genres"
	KindPlatform Kind = "platforms"
)

// maxAttempts bounds the insert/read-back loop when a row vanishes or a
// unique violation slips through between the two statements.
const maxAttempts = 3

var ErrUnknownKind = errors.New("refs: unknown reference kind")

// Querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Resolver struct {
	q Querier
}

// New returns a resolver running its statements on q. Pass the open
// transaction when resolving as part of a larger write.
func New(q Querier) *Resolver {
	return &Resolver{q: q}
}

func (k Kind) valid() bool {
	return k == KindGenre || k == KindPlatform
}

// ResolveOrCreate returns the id of the row named name, creating it first
// if needed.
func (r *Resolver) ResolveOrCreate(ctx context.Context, kind Kind, name string) (string, error) {
	if !kind.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("refs: blank %s name", kind)
	}

	// kind is whitelisted above, so formatting it into SQL is safe.
	insert := fmt.Sprintf(`INSERT INTO %s (id, name, name_key) VALUES (?, ?, ?) ON CONFLICT(name_key) DO NOTHING`, kind)
	lookup := fmt.Sprintf(`SELECT id FROM %s WHERE name_key = ?`, kind)
	key := textnorm.FoldKey(name)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		id := uuid.NewString()
		res, err := r.q.ExecContext(ctx, insert, id, name, key)
		if err != nil {
			if isUniqueViolation(err) {
				lastErr = err
				continue
			}
			return "", fmt.Errorf("insert %s %q: %w", kind, name, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			metrics.ReferenceRowsCreated.WithLabelValues(string(kind)).Inc()
			return id, nil
		}

		var existing string
		err = r.q.QueryRowContext(ctx, lookup, key).Scan(&existing)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("lookup %s %q: %w", kind, name, err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("resolve %s %q after %d attempts: %w", kind, name, maxAttempts, lastErr)
}

// ResolveAll resolves every name in order and returns the ids. Names that
// differ only by case resolve once.
func (r *Resolver) ResolveAll(ctx context.Context, kind Kind, names []string) ([]string, error) {
	names = textnorm.DedupeFold(names)
	ids := make([]string, 0, len(names))
	for _, n := range names {
		id, err := r.ResolveOrCreate(ctx, kind, n)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
