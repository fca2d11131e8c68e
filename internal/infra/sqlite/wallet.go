package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-network/inkwell/internal/domain"
)

// ─── Time Helpers ───────────────────────────────────────────────────────────

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// ─── Wallet Operations ──────────────────────────────────────────────────────

// EnsureWallet creates the wallet for a user if it does not exist and
// returns it. Wallets are created at registration and never deleted.
func (db *DB) EnsureWallet(userID string) (*domain.Wallet, error) {
	ts := now()
	_, err := db.db.Exec(`
		INSERT INTO wallets (user_id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`, userID, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}
	return db.GetWallet(userID)
}

// GetWallet returns a user's wallet.
func (db *DB) GetWallet(userID string) (*domain.Wallet, error) {
	var w domain.Wallet
	var created, updated string
	err := db.db.QueryRow(`
		SELECT user_id, balance, total_earned, total_spent, reward_points, created_at, updated_at
		FROM wallets WHERE user_id = ?
	`, userID).Scan(&w.UserID, &w.Balance, &w.TotalEarned, &w.TotalSpent, &w.RewardPoints, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	w.CreatedAt = parseTime(created)
	w.UpdatedAt = parseTime(updated)
	return &w, nil
}

// creditTx applies a credit inside an existing transaction: balance increment
// plus the paired ledger entry. earned controls whether the amount counts
// toward total_earned (payouts and bonuses do, deposits and refunds do not).
func creditTx(tx *sql.Tx, walletID string, amount domain.Money, kind domain.EntryKind, relatedID string) (*domain.LedgerEntry, error) {
	earned := int64(0)
	switch kind {
	case domain.KindRewardPayout, domain.KindPromoBonus, domain.KindReferralBonus:
		earned = int64(amount)
	}

	res, err := tx.Exec(`
		UPDATE wallets
		SET balance = balance + ?, total_earned = total_earned + ?, updated_at = ?
		WHERE user_id = ?
	`, int64(amount), earned, now(), walletID)
	if err != nil {
		return nil, fmt.Errorf("credit wallet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrWalletNotFound
	}

	return insertEntryTx(tx, walletID, amount, kind, relatedID)
}

// debitTx applies a debit inside an existing transaction. The balance check
// and decrement share the transaction, so two concurrent debits cannot both
// succeed against a balance that only covers one.
func debitTx(tx *sql.Tx, walletID string, amount domain.Money, kind domain.EntryKind, relatedID string) (*domain.LedgerEntry, error) {
	var balance int64
	err := tx.QueryRow(`SELECT balance FROM wallets WHERE user_id = ?`, walletID).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	if int64(amount) > balance {
		return nil, &domain.InsufficientBalanceError{Required: amount, Available: domain.Money(balance)}
	}

	spent := int64(0)
	switch kind {
	case domain.KindPublishFee, domain.KindPromotionFee:
		spent = int64(amount)
	}

	_, err = tx.Exec(`
		UPDATE wallets
		SET balance = balance - ?, total_spent = total_spent + ?, updated_at = ?
		WHERE user_id = ?
	`, int64(amount), spent, now(), walletID)
	if err != nil {
		return nil, fmt.Errorf("debit wallet: %w", err)
	}

	return insertEntryTx(tx, walletID, -amount, kind, relatedID)
}

// insertEntryTx appends the immutable ledger record for a mutation.
func insertEntryTx(tx *sql.Tx, walletID string, amount domain.Money, kind domain.EntryKind, relatedID string) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:              uuid.New().String(),
		WalletID:        walletID,
		Amount:          amount,
		Kind:            kind,
		RelatedEntityID: relatedID,
		CreatedAt:       time.Now().UTC(),
	}
	_, err := tx.Exec(`
		INSERT INTO ledger_entries (id, wallet_id, amount, kind, related_entity_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.WalletID, int64(entry.Amount), string(entry.Kind), entry.RelatedEntityID,
		entry.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	return entry, nil
}

// CreditWallet credits a wallet in its own transaction.
func (db *DB) CreditWallet(walletID string, amount domain.Money, kind domain.EntryKind, relatedID string) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := db.inTx(func(tx *sql.Tx) error {
		var err error
		entry, err = creditTx(tx, walletID, amount, kind, relatedID)
		return err
	})
	return entry, err
}

// DebitWallet debits a wallet in its own transaction. Returns
// InsufficientBalanceError without any state change on shortfall.
func (db *DB) DebitWallet(walletID string, amount domain.Money, kind domain.EntryKind, relatedID string) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	err := db.inTx(func(tx *sql.Tx) error {
		var err error
		entry, err = debitTx(tx, walletID, amount, kind, relatedID)
		return err
	})
	return entry, err
}

// LedgerEntries returns a wallet's entry history, newest first.
func (db *DB) LedgerEntries(walletID string, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.db.Query(`
		SELECT id, wallet_id, amount, kind, related_entity_id, created_at
		FROM ledger_entries WHERE wallet_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, walletID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var created string
		if err := rows.Scan(&e.ID, &e.WalletID, &e.Amount, &e.Kind, &e.RelatedEntityID, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ─── Reconciliation ─────────────────────────────────────────────────────────

// ReconcileRow reports one wallet whose balance disagrees with its entries.
type ReconcileRow struct {
	WalletID string
	Balance  domain.Money
	EntrySum domain.Money
}

// ReconcileWallets recomputes SUM(entries) per wallet and returns every
// wallet where it disagrees with the stored balance. An empty result means
// the reconciliation invariant holds.
func (db *DB) ReconcileWallets() ([]ReconcileRow, error) {
	rows, err := db.db.Query(`
		SELECT w.user_id, w.balance, COALESCE(SUM(e.amount), 0) AS entry_sum
		FROM wallets w
		LEFT JOIN ledger_entries e ON e.wallet_id = w.user_id
		GROUP BY w.user_id
		HAVING w.balance != entry_sum
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bad []ReconcileRow
	for rows.Next() {
		var r ReconcileRow
		if err := rows.Scan(&r.WalletID, &r.Balance, &r.EntrySum); err != nil {
			return nil, err
		}
		bad = append(bad, r)
	}
	return bad, rows.Err()
}
