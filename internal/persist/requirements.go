package persist

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"commenttogame/internal/metrics"
	"commenttogame/pkg/models"
)

const (
	tableMinRequirements = "min_requirements"
	tableRecRequirements = "rec_requirements"
)

// TextHash is the content address of a requirement block.
func TextHash(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// upsertRequirement returns the row id to store on the details record, or
// nil when in carries nothing usable.
//
// An explicit id is reused when the row exists. An unknown id is created
// only if text comes with it; if that text is already stored under
// another id, the stored row wins so each text exists once.
// Text alone is looked up by hash and inserted when new.
func upsertRequirement(ctx context.Context, tx *sql.Tx, table string, in *models.RequirementInput) (*string, error) {
	if in == nil {
		return nil, nil
	}
	text := ""
	if in.Text != nil {
		text = strings.TrimSpace(*in.Text)
	}
	id := ""
	if in.ID != nil {
		id = strings.TrimSpace(*in.ID)
	}

	if id != "" {
		var existing string
		err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE id = ?`, table), id).Scan(&existing)
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lookup %s %s: %w", table, id, err)
		}
		if text == "" {
			return nil, nil
		}
	}
	if text == "" {
		return nil, nil
	}
	if id == "" {
		id = uuid.NewString()
	}

	hash := TextHash(text)
	res, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, text, text_hash) VALUES (?, ?, ?) ON CONFLICT(text_hash) DO NOTHING`, table),
		id, text, hash)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		metrics.ReferenceRowsCreated.WithLabelValues(table).Inc()
		return &id, nil
	}

	var existing string
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE text_hash = ?`, table), hash).Scan(&existing); err != nil {
		return nil, fmt.Errorf("lookup %s by text: %w", table, err)
	}
	return &existing, nil
}
