package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/inkwell-network/inkwell/internal/domain"
)

// ─── Article Operations ─────────────────────────────────────────────────────

// InsertArticle persists a new draft.
func (db *DB) InsertArticle(a *domain.Article) error {
	_, err := db.db.Exec(`
		INSERT INTO articles (id, slug, author_id, title, description, content, word_count,
			status, publish_fee_charged, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, a.ID, a.Slug, a.AuthorID, a.Title, a.Description, a.Content, a.WordCount,
		string(a.Status), a.CreatedAt.Format(time.RFC3339Nano), a.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func scanArticle(row interface{ Scan(...any) error }) (*domain.Article, error) {
	var a domain.Article
	var feeCharged int
	var reason, published sql.NullString
	var created, updated string
	err := row.Scan(&a.ID, &a.Slug, &a.AuthorID, &a.Title, &a.Description, &a.Content,
		&a.WordCount, &a.Status, &feeCharged, &reason, &created, &updated, &published)
	if err == sql.ErrNoRows {
		return nil, domain.ErrArticleNotFound
	}
	if err != nil {
		return nil, err
	}
	a.PublishFeeCharged = feeCharged == 1
	a.RejectionReason = reason.String
	a.CreatedAt = parseTime(created)
	a.UpdatedAt = parseTime(updated)
	a.PublishedAt = parseTimePtr(published)
	return &a, nil
}

const articleColumns = `id, slug, author_id, title, description, content, word_count,
	status, publish_fee_charged, rejection_reason, created_at, updated_at, published_at`

// GetArticle returns an article by ID.
func (db *DB) GetArticle(id string) (*domain.Article, error) {
	return scanArticle(db.db.QueryRow(
		`SELECT `+articleColumns+` FROM articles WHERE id = ?`, id))
}

// GetArticleBySlug returns an article by slug.
func (db *DB) GetArticleBySlug(slug string) (*domain.Article, error) {
	return scanArticle(db.db.QueryRow(
		`SELECT `+articleColumns+` FROM articles WHERE slug = ?`, slug))
}

// UpdateArticleContent rewrites an article's content fields and moves it back
// to draft. Used for edits in draft and the implicit rejected→draft
// transition; the fee flag resets so the next publish request charges again.
func (db *DB) UpdateArticleContent(a *domain.Article) error {
	res, err := db.db.Exec(`
		UPDATE articles
		SET title = ?, description = ?, content = ?, word_count = ?,
			status = 'draft', publish_fee_charged = 0, rejection_reason = NULL, updated_at = ?
		WHERE id = ? AND status IN ('draft', 'rejected')
	`, a.Title, a.Description, a.Content, a.WordCount, now(), a.ID)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// RequestPublish performs the draft→pending transition: the publish fee debit
// and the status flip share one transaction. On InsufficientBalance nothing
// changes.
func (db *DB) RequestPublish(articleID, authorID string, fee domain.Money) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := db.inTx(func(tx *sql.Tx) error {
		var err error
		entry, err = debitTx(tx, authorID, fee, domain.KindPublishFee, articleID)
		if err != nil {
			return err
		}
		res, err := tx.Exec(`
			UPDATE articles
			SET status = 'pending', publish_fee_charged = 1, rejection_reason = NULL, updated_at = ?
			WHERE id = ? AND status IN ('draft', 'rejected')
		`, now(), articleID)
		if err != nil {
			return fmt.Errorf("set pending: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ApproveArticle performs the pending→published transition.
func (db *DB) ApproveArticle(articleID string) error {
	res, err := db.db.Exec(`
		UPDATE articles
		SET status = 'published', published_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, now(), now(), articleID)
	if err != nil {
		return fmt.Errorf("approve article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// RejectArticle performs the pending→rejected transition. The reason, the
// half-fee refund, and the status flip are applied together or not at all.
func (db *DB) RejectArticle(articleID, authorID, reason string, refund domain.Money) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := db.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE articles
			SET status = 'rejected', rejection_reason = ?, publish_fee_charged = 0, updated_at = ?
			WHERE id = ? AND status = 'pending'
		`, reason, now(), articleID)
		if err != nil {
			return fmt.Errorf("set rejected: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrInvalidState
		}
		entry, err = creditTx(tx, authorID, refund, domain.KindPublishRefund, articleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListArticlesByAuthor returns an author's articles, newest first.
func (db *DB) ListArticlesByAuthor(authorID string) ([]domain.Article, error) {
	rows, err := db.db.Query(
		`SELECT `+articleColumns+` FROM articles WHERE author_id = ? ORDER BY created_at DESC`,
		authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}
