package database

import (
	"database/sql"
	_ "embed"
	"fmt"

	"commenttogame/internal/textnorm"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is IF NOT EXISTS, so it can
// run on each start.
func Migrate(db *sql.DB) error {
	if err := addNameKeys(db); err != nil {
		return err
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// addNameKeys upgrades reference tables created before name_key existed:
// the column is added and filled from name so the unique index in the
// schema can be built.
func addNameKeys(db *sql.DB) error {
	for _, table := range []string{"genres", "platforms"} {
		var cols, hasKey int
		err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(name = 'name_key'), 0) FROM pragma_table_info(?)`, table).
			Scan(&cols, &hasKey)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		if cols == 0 || hasKey > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if err := fillNameKeys(tx, table); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upgrade %s: %w", table, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("upgrade %s: %w", table, err)
		}
	}
	return nil
}

func fillNameKeys(tx *sql.Tx, table string) error {
	if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN name_key TEXT NOT NULL DEFAULT ''`, table)); err != nil {
		return err
	}

	rows, err := tx.Query(fmt.Sprintf(`SELECT id, name FROM %s`, table))
	if err != nil {
		return err
	}
	keys := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return err
		}
		keys[id] = textnorm.FoldKey(name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	stmt, err := tx.Prepare(fmt.Sprintf(`UPDATE %s SET name_key = ? WHERE id = ?`, table))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for id, key := range keys {
		if _, err := stmt.Exec(key, id); err != nil {
			return err
		}
	}
	return nil
}
