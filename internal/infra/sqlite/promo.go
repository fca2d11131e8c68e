package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-network/inkwell/internal/domain"
)

// ─── Promo Code Operations ──────────────────────────────────────────────────

// InsertPromoCode creates a new promo code.
func (db *DB) InsertPromoCode(c *domain.PromoCode) error {
	active := 0
	if c.IsActive {
		active = 1
	}
	_, err := db.db.Exec(`
		INSERT INTO promo_codes (code, bonus_amount, usage_limit, used_count, expiry_date, is_active)
		VALUES (?, ?, ?, 0, ?, ?)
	`, c.Code, int64(c.BonusAmount), c.UsageLimit, c.ExpiryDate.UTC().Format(time.RFC3339Nano), active)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "constraint") {
			return domain.ErrPromoExists
		}
		return fmt.Errorf("insert promo code: %w", err)
	}
	return nil
}

func scanPromo(row interface{ Scan(...any) error }) (*domain.PromoCode, error) {
	var c domain.PromoCode
	var expiry string
	var active int
	err := row.Scan(&c.Code, &c.BonusAmount, &c.UsageLimit, &c.UsedCount, &expiry, &active)
	if err == sql.ErrNoRows {
		return nil, domain.ErrPromoInvalid
	}
	if err != nil {
		return nil, err
	}
	c.ExpiryDate = parseTime(expiry)
	c.IsActive = active == 1
	return &c, nil
}

const promoColumns = `code, bonus_amount, usage_limit, used_count, expiry_date, is_active`

// GetPromoCode returns a promo code by its code string.
func (db *DB) GetPromoCode(code string) (*domain.PromoCode, error) {
	return scanPromo(db.db.QueryRow(
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = ?`, code))
}

// ListPromoCodes returns all promo codes.
func (db *DB) ListPromoCodes() ([]domain.PromoCode, error) {
	rows, err := db.db.Query(`SELECT ` + promoColumns + ` FROM promo_codes ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []domain.PromoCode
	for rows.Next() {
		c, err := scanPromo(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *c)
	}
	return codes, rows.Err()
}

// DisablePromoCode deactivates a code. Existing usages are unaffected.
func (db *DB) DisablePromoCode(code string) error {
	res, err := db.db.Exec(`UPDATE promo_codes SET is_active = 0 WHERE code = ?`, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPromoInvalid
	}
	return nil
}

// RedeemPromo redeems a code for a user. The eligibility checks, the
// used_count increment, the usage record, and the wallet credit all share one
// transaction. The guarded UPDATE on used_count makes redemptions racing the
// last slot serialize: the loser observes LimitReached, never an overdraw.
func (db *DB) RedeemPromo(code, userID string, nowT time.Time) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := db.inTx(func(tx *sql.Tx) error {
		var bonus int64
		var limit, used int64
		var expiry string
		var active int
		err := tx.QueryRow(`
			SELECT bonus_amount, usage_limit, used_count, expiry_date, is_active
			FROM promo_codes WHERE code = ?
		`, code).Scan(&bonus, &limit, &used, &expiry, &active)
		if err == sql.ErrNoRows {
			return domain.ErrPromoInvalid
		}
		if err != nil {
			return err
		}
		if active == 0 {
			return domain.ErrPromoInvalid
		}
		if !nowT.Before(parseTime(expiry)) {
			return domain.ErrPromoExpired
		}

		var prior int
		if err := tx.QueryRow(`
			SELECT COUNT(*) FROM promo_usages WHERE code = ? AND user_id = ?
		`, code, userID).Scan(&prior); err != nil {
			return err
		}
		if prior > 0 {
			return domain.ErrPromoAlreadyUsed
		}

		res, err := tx.Exec(`
			UPDATE promo_codes SET used_count = used_count + 1
			WHERE code = ? AND used_count < usage_limit
		`, code)
		if err != nil {
			return fmt.Errorf("increment used_count: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrPromoLimitReached
		}

		if _, err := tx.Exec(`
			INSERT INTO promo_usages (code, user_id, used_at) VALUES (?, ?, ?)
		`, code, userID, nowT.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert usage: %w", err)
		}

		entry, err = creditTx(tx, userID, domain.Money(bonus), domain.KindPromoBonus, code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ─── Referral Operations ────────────────────────────────────────────────────

// GrantReferral credits the referrer's wallet once per referee. The
// referral_bonuses primary key on referee_id is the exactly-once guard;
// a repeat grant is a benign no-op reported as granted=false.
func (db *DB) GrantReferral(referrerID, refereeID string, amount domain.Money) (granted bool, entry *domain.LedgerEntry, err error) {
	err = db.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			INSERT OR IGNORE INTO referral_bonuses (referee_id, referrer_id, amount, granted_at)
			VALUES (?, ?, ?, ?)
		`, refereeID, referrerID, int64(amount), now())
		if err != nil {
			return fmt.Errorf("insert referral: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil // already granted for this referee
		}
		granted = true
		entry, err = creditTx(tx, referrerID, amount, domain.KindReferralBonus, refereeID)
		return err
	})
	if err != nil {
		return false, nil, err
	}
	return granted, entry, nil
}
