package sqlite

import (
	"testing"
	"time"

	"github.com/inkwell-network/inkwell/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fundedWallet creates a wallet and seeds it via a deposit entry so
// reconciliation stays clean.
func fundedWallet(t *testing.T, db *DB, userID string, amount domain.Money) {
	t.Helper()
	if _, err := db.EnsureWallet(userID); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	if amount > 0 {
		if _, err := db.CreditWallet(userID, amount, domain.KindDeposit, ""); err != nil {
			t.Fatalf("seed wallet: %v", err)
		}
	}
}

func insertTestArticle(t *testing.T, db *DB, id, authorID string, status domain.ArticleStatus) *domain.Article {
	t.Helper()
	ts := time.Now().UTC()
	a := &domain.Article{
		ID:          id,
		Slug:        id + "-slug",
		AuthorID:    authorID,
		Title:       "A Title Long Enough",
		Description: "A description long enough to pass",
		Content:     "word",
		WordCount:   150,
		Status:      domain.StatusDraft,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := db.InsertArticle(a); err != nil {
		t.Fatalf("insert article: %v", err)
	}
	switch status {
	case domain.StatusDraft:
	case domain.StatusPending, domain.StatusPublished:
		fundedWallet(t, db, authorID, domain.Rupees(1000))
		if _, err := db.RequestPublish(a.ID, authorID, domain.Rupees(150)); err != nil {
			t.Fatalf("request publish: %v", err)
		}
		if status == domain.StatusPublished {
			if err := db.ApproveArticle(a.ID); err != nil {
				t.Fatalf("approve: %v", err)
			}
		}
	default:
		t.Fatalf("unsupported setup status %s", status)
	}
	a.Status = status
	return a
}

func mustBalance(t *testing.T, db *DB, userID string, want domain.Money) {
	t.Helper()
	w, err := db.GetWallet(userID)
	if err != nil {
		t.Fatalf("get wallet %s: %v", userID, err)
	}
	if w.Balance != want {
		t.Fatalf("balance = %s, want %s", w.Balance, want)
	}
}

func mustReconcileClean(t *testing.T, db *DB) {
	t.Helper()
	bad, err := db.ReconcileWallets()
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(bad) != 0 {
		t.Fatalf("reconcile found %d mismatched wallets: %+v", len(bad), bad)
	}
}
