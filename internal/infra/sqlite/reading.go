package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-network/inkwell/internal/domain"
)

// ─── Reading Session Operations ─────────────────────────────────────────────

// StartOrResumeSession returns the session for (article, reader), creating it
// with zero accumulated time if none exists. Idempotent: the UNIQUE pair
// constraint means re-reading always resumes, never forks a second session.
func (db *DB) StartOrResumeSession(articleID, readerID string) (*domain.ReadingSession, error) {
	ts := now()
	_, err := db.db.Exec(`
		INSERT INTO reading_sessions (id, article_id, reader_id, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(article_id, reader_id) DO NOTHING
	`, uuid.New().String(), articleID, readerID, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return db.GetSessionByPair(articleID, readerID)
}

func scanSession(row interface{ Scan(...any) error }) (*domain.ReadingSession, error) {
	var s domain.ReadingSession
	var collected int
	var started, updated string
	err := row.Scan(&s.ID, &s.ArticleID, &s.ReaderID, &s.AccumulatedSeconds, &collected, &started, &updated)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	s.RewardCollected = collected == 1
	s.StartedAt = parseTime(started)
	s.UpdatedAt = parseTime(updated)
	return &s, nil
}

const sessionColumns = `id, article_id, reader_id, accumulated_seconds, reward_collected, started_at, updated_at`

// GetSession returns a session by ID.
func (db *DB) GetSession(id string) (*domain.ReadingSession, error) {
	return scanSession(db.db.QueryRow(
		`SELECT `+sessionColumns+` FROM reading_sessions WHERE id = ?`, id))
}

// GetSessionByPair returns the session for (article, reader).
func (db *DB) GetSessionByPair(articleID, readerID string) (*domain.ReadingSession, error) {
	return scanSession(db.db.QueryRow(
		`SELECT `+sessionColumns+` FROM reading_sessions WHERE article_id = ? AND reader_id = ?`,
		articleID, readerID))
}

// AccumulateSeconds adds a (pre-clamped) heartbeat delta to a session.
// Accumulation is monotonic: deltas are never negative by the time they
// reach storage.
func (db *DB) AccumulateSeconds(sessionID string, delta int64) (*domain.ReadingSession, error) {
	res, err := db.db.Exec(`
		UPDATE reading_sessions
		SET accumulated_seconds = accumulated_seconds + ?, updated_at = ?
		WHERE id = ?
	`, delta, now(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("heartbeat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrSessionNotFound
	}
	return db.GetSession(sessionID)
}

// CollectReward flips reward_collected false→true and credits the reader in
// one transaction. The compare-and-swap on reward_collected serializes
// concurrent collectors: the loser sees AlreadyCollected and no second credit
// is ever issued.
func (db *DB) CollectReward(sessionID, readerID string, amount domain.Money, points int64, articleID string) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := db.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE reading_sessions
			SET reward_collected = 1, updated_at = ?
			WHERE id = ? AND reward_collected = 0
		`, now(), sessionID)
		if err != nil {
			return fmt.Errorf("mark collected: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrAlreadyCollected
		}

		entry, err = creditTx(tx, readerID, amount, domain.KindRewardPayout, articleID)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			UPDATE wallets SET reward_points = reward_points + ?, updated_at = ? WHERE user_id = ?
		`, points, now(), readerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ─── Article Stats Projection ───────────────────────────────────────────────

// ArticleStats derives the writer-side aggregates from reading sessions and
// reactions. Nothing here is a stored counter.
func (db *DB) ArticleStats(articleID string) (*domain.ArticleStats, error) {
	stats := &domain.ArticleStats{ArticleID: articleID}

	err := db.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(reward_collected), 0),
			COALESCE(SUM(1 - reward_collected), 0)
		FROM reading_sessions WHERE article_id = ?
	`, articleID).Scan(&stats.Readers, &stats.CollectedReads, &stats.UncollectedReads)
	if err != nil {
		return nil, err
	}

	// Points earned by readers of this article, straight from ledger truth.
	err = db.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE kind = ? AND related_entity_id = ?
	`, string(domain.KindRewardPayout), articleID).Scan(&stats.PointsEarned)
	if err != nil {
		return nil, err
	}

	err = db.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'like' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'bookmark' THEN 1 ELSE 0 END), 0)
		FROM article_reactions WHERE article_id = ?
	`, articleID).Scan(&stats.Likes, &stats.Bookmarks)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ─── Reaction Operations ────────────────────────────────────────────────────

// ToggleReaction flips a reaction and returns the authoritative new state.
// The server, not the client's optimistic flag, is the source of truth.
func (db *DB) ToggleReaction(articleID, userID string, kind domain.ReactionKind) (bool, error) {
	var active bool
	err := db.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			DELETE FROM article_reactions WHERE article_id = ? AND user_id = ? AND kind = ?
		`, articleID, userID, string(kind))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			active = false
			return nil
		}
		_, err = tx.Exec(`
			INSERT INTO article_reactions (article_id, user_id, kind, created_at)
			VALUES (?, ?, ?, ?)
		`, articleID, userID, string(kind), time.Now().UTC().Format(time.RFC3339Nano))
		active = true
		return err
	})
	return active, err
}
