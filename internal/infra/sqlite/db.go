// Package sqlite is the persistence layer for the reward economy engine.
// Every invariant-bearing mutation (debit, collect, redeem, transition) runs
// inside a single transaction here; the app layer never composes partial
// writes across calls.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle and owns the schema.
type DB struct {
	db *sql.DB
}

// Open creates (if needed) and migrates the engine database under dir.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := filepath.Join(dir, "inkwell.db") +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc/sqlite allows one writer; a single connection serializes all
	// transactions and keeps SQLITE_BUSY out of the hot path.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.db.Close()
}

// migrate applies all schema statements. Statements are idempotent.
func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on error.
func (db *DB) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema statements. Each string is a single SQL
// statement (SQLite executes one at a time). Money columns are INTEGER paise;
// timestamps are RFC3339 TEXT.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id       TEXT PRIMARY KEY,
			balance       INTEGER NOT NULL DEFAULT 0 CHECK(balance >= 0),
			total_earned  INTEGER NOT NULL DEFAULT 0,
			total_spent   INTEGER NOT NULL DEFAULT 0,
			reward_points INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id                TEXT PRIMARY KEY,
			wallet_id         TEXT NOT NULL REFERENCES wallets(user_id),
			amount            INTEGER NOT NULL,
			kind              TEXT NOT NULL,
			related_entity_id TEXT NOT NULL DEFAULT '',
			created_at        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_wallet ON ledger_entries(wallet_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS articles (
			id                  TEXT PRIMARY KEY,
			slug                TEXT NOT NULL UNIQUE,
			author_id           TEXT NOT NULL,
			title               TEXT NOT NULL,
			description         TEXT NOT NULL DEFAULT '',
			content             TEXT NOT NULL DEFAULT '',
			word_count          INTEGER NOT NULL DEFAULT 0,
			status              TEXT NOT NULL DEFAULT 'draft',
			publish_fee_charged INTEGER NOT NULL DEFAULT 0,
			rejection_reason    TEXT,
			created_at          TEXT NOT NULL,
			updated_at          TEXT NOT NULL,
			published_at        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_author ON articles(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status)`,

		`CREATE TABLE IF NOT EXISTS promotion_requests (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			status        TEXT NOT NULL DEFAULT 'pending',
			reviewer_note TEXT NOT NULL DEFAULT '',
			requested_at  TEXT NOT NULL,
			reviewed_at   TEXT
		)`,
		// One outstanding request per user at a time.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_promotion_pending
			ON promotion_requests(user_id) WHERE status = 'pending'`,

		`CREATE TABLE IF NOT EXISTS reading_sessions (
			id                  TEXT PRIMARY KEY,
			article_id          TEXT NOT NULL,
			reader_id           TEXT NOT NULL,
			accumulated_seconds INTEGER NOT NULL DEFAULT 0,
			reward_collected    INTEGER NOT NULL DEFAULT 0,
			started_at          TEXT NOT NULL,
			updated_at          TEXT NOT NULL,
			UNIQUE(article_id, reader_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_article ON reading_sessions(article_id)`,

		`CREATE TABLE IF NOT EXISTS promo_codes (
			code         TEXT PRIMARY KEY,
			bonus_amount INTEGER NOT NULL,
			usage_limit  INTEGER NOT NULL,
			used_count   INTEGER NOT NULL DEFAULT 0 CHECK(used_count <= usage_limit),
			expiry_date  TEXT NOT NULL,
			is_active    INTEGER NOT NULL DEFAULT 1
		)`,

		`CREATE TABLE IF NOT EXISTS promo_usages (
			code    TEXT NOT NULL,
			user_id TEXT NOT NULL,
			used_at TEXT NOT NULL,
			UNIQUE(code, user_id)
		)`,

		// Keyed by referee: the bonus fires exactly once per referee, ever.
		`CREATE TABLE IF NOT EXISTS referral_bonuses (
			referee_id  TEXT PRIMARY KEY,
			referrer_id TEXT NOT NULL,
			amount      INTEGER NOT NULL,
			granted_at  TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS article_reactions (
			article_id TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE(article_id, user_id, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reactions_article ON article_reactions(article_id, kind)`,
	}
}
