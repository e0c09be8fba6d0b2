package persist

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// policy decides what an update does with an incoming column value.
type policy int

const (
	insertOnly  policy = iota // written on insert, never updated
	overwrite                 // always replaced
	keepIfNull                // a NULL never replaces a stored value
	keepIfEmpty               // an empty JSON list never replaces a stored list
)

type field struct {
	col    string
	policy policy
	val    any
}

const emptyList = "[]"

// buildUpsert renders INSERT ... ON CONFLICT(key) DO UPDATE for fields.
func buildUpsert(table, key string, fields []field, returning string) (string, []any) {
	cols := make([]string, 0, len(fields))
	marks := make([]string, 0, len(fields))
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))

	for _, f := range fields {
		cols = append(cols, f.col)
		marks = append(marks, "?")
		args = append(args, f.val)

		switch f.policy {
		case overwrite:
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", f.col, f.col))
		case keepIfNull:
			sets = append(sets, fmt.Sprintf("%s = COALESCE(excluded.%s, %s.%s)", f.col, f.col, table, f.col))
		case keepIfEmpty:
			sets = append(sets, fmt.Sprintf("%s = CASE WHEN excluded.%s = '%s' THEN %s.%s ELSE excluded.%s END",
				f.col, f.col, emptyList, table, f.col, f.col))
		}
	}

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "), key, strings.Join(sets, ", "))
	if returning != "" {
		q += " RETURNING " + returning
	}
	return q, args
}

// jsonList encodes a list column. Empty and nil both become "[]".
func jsonList[T any](list []T) (string, error) {
	if len(list) == 0 {
		return emptyList, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// jsonValue encodes an optional object column; nil stays NULL.
func jsonValue[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// nullString maps "" to NULL so keepIfNull leaves stored text alone.
func nullString(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}
