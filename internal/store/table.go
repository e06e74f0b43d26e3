package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	// offers mirrors the accumulated set; *_fold columns hold the
	// case-folded text the search path compares against.
	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS offers (
  pos INTEGER NOT NULL,
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL,
  url TEXT NOT NULL,
  posted_date TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL,
  scraped_at TEXT NOT NULL,
  title_fold TEXT NOT NULL,
  company_fold TEXT NOT NULL,
  location_fold TEXT NOT NULL,
  description_fold TEXT NOT NULL
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_offers_pos ON offers(pos);`); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_offers_source ON offers(source);`); err != nil {
		return err
	}

	if !columnExists(tx, "offers", "description_fold") {
		if _, err := tx.Exec(`ALTER TABLE offers ADD COLUMN description_fold TEXT NOT NULL DEFAULT '';`); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func columnExists(q interface {
	QueryRow(query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRow(query, col).Scan(&one)
	return err == nil
}
