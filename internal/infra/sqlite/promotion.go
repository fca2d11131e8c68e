package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-network/inkwell/internal/domain"
)

// ─── Promotion Request Operations ───────────────────────────────────────────

// CreatePromotionRequest files a writer-promotion application and debits the
// promotion fee in the same transaction. The partial unique index on pending
// requests rejects a second outstanding application.
func (db *DB) CreatePromotionRequest(userID string, fee domain.Money) (*domain.PromotionRequest, error) {
	req := &domain.PromotionRequest{
		ID:          uuid.New().String(),
		UserID:      userID,
		Status:      domain.PromotionPending,
		RequestedAt: time.Now().UTC(),
	}
	err := db.inTx(func(tx *sql.Tx) error {
		var pending int
		if err := tx.QueryRow(`
			SELECT COUNT(*) FROM promotion_requests WHERE user_id = ? AND status = 'pending'
		`, userID).Scan(&pending); err != nil {
			return err
		}
		if pending > 0 {
			return domain.ErrRequestPending
		}
		if _, err := debitTx(tx, userID, fee, domain.KindPromotionFee, req.ID); err != nil {
			return err
		}
		_, err := tx.Exec(`
			INSERT INTO promotion_requests (id, user_id, status, requested_at)
			VALUES (?, ?, 'pending', ?)
		`, req.ID, req.UserID, req.RequestedAt.Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("insert promotion request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func scanPromotionRequest(row interface{ Scan(...any) error }) (*domain.PromotionRequest, error) {
	var r domain.PromotionRequest
	var requested string
	var reviewed sql.NullString
	err := row.Scan(&r.ID, &r.UserID, &r.Status, &r.ReviewerNote, &requested, &reviewed)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	r.RequestedAt = parseTime(requested)
	r.ReviewedAt = parseTimePtr(reviewed)
	return &r, nil
}

const promotionColumns = `id, user_id, status, reviewer_note, requested_at, reviewed_at`

// GetPromotionRequest returns a request by ID.
func (db *DB) GetPromotionRequest(id string) (*domain.PromotionRequest, error) {
	return scanPromotionRequest(db.db.QueryRow(
		`SELECT `+promotionColumns+` FROM promotion_requests WHERE id = ?`, id))
}

// ReviewPromotionRequest resolves a pending request. The guard on status
// keeps a request from being reviewed twice.
func (db *DB) ReviewPromotionRequest(id string, approve bool, note string) error {
	status := string(domain.PromotionRejected)
	if approve {
		status = string(domain.PromotionApproved)
	}
	res, err := db.db.Exec(`
		UPDATE promotion_requests
		SET status = ?, reviewer_note = ?, reviewed_at = ?
		WHERE id = ? AND status = 'pending'
	`, status, note, now(), id)
	if err != nil {
		return fmt.Errorf("review promotion request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish missing from already-reviewed for the caller.
		if _, getErr := db.GetPromotionRequest(id); getErr != nil {
			return getErr
		}
		return domain.ErrRequestReviewed
	}
	return nil
}

// ListPromotionRequests returns requests filtered by status ("" for all).
func (db *DB) ListPromotionRequests(status domain.PromotionStatus) ([]domain.PromotionRequest, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotion_requests ORDER BY requested_at DESC`
	args := []any{}
	if status != "" {
		query = `SELECT ` + promotionColumns + ` FROM promotion_requests WHERE status = ? ORDER BY requested_at DESC`
		args = append(args, string(status))
	}
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.PromotionRequest
	for rows.Next() {
		r, err := scanPromotionRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, *r)
	}
	return reqs, rows.Err()
}
