package promo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

func newTestIssuer(t *testing.T) (*Issuer, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, DefaultConfig(), zerolog.Nop(), nil), db
}

func wallet(t *testing.T, db *sqlite.DB, userID string, amount domain.Money) {
	t.Helper()
	if _, err := db.EnsureWallet(userID); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	if amount > 0 {
		if _, err := db.CreditWallet(userID, amount, domain.KindDeposit, ""); err != nil {
			t.Fatalf("fund wallet: %v", err)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct{ in, want string }{
		{"welcome50", "WELCOME50"},
		{"  Welcome50  ", "WELCOME50"},
		{"WELCOME50", "WELCOME50"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateCode_Validation(t *testing.T) {
	i, _ := newTestIssuer(t)
	ctx := context.Background()
	expiry := time.Now().Add(24 * time.Hour)

	if _, err := i.CreateCode(ctx, "  ", domain.Rupees(50), 10, expiry); !errors.Is(err, domain.ErrPromoInvalid) {
		t.Errorf("blank code: got %v, want ErrPromoInvalid", err)
	}
	if _, err := i.CreateCode(ctx, "ZERO", 0, 10, expiry); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("zero bonus: got %v, want ErrInvalidAmount", err)
	}

	c, err := i.CreateCode(ctx, "welcome50", domain.Rupees(50), 10, expiry)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Code != "WELCOME50" {
		t.Errorf("code stored as %q, want canonical WELCOME50", c.Code)
	}
	if !c.IsActive {
		t.Error("new code inactive")
	}

	if _, err := i.CreateCode(ctx, "WELCOME50", domain.Rupees(50), 10, expiry); !errors.Is(err, domain.ErrPromoExists) {
		t.Errorf("duplicate: got %v, want ErrPromoExists", err)
	}
}

func TestRedeem_NormalizesCode(t *testing.T) {
	i, db := newTestIssuer(t)
	ctx := context.Background()
	wallet(t, db, "alice", 0)
	if _, err := i.CreateCode(ctx, "WELCOME50", domain.Rupees(50), 10, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("create: %v", err)
	}

	entry, err := i.Redeem(ctx, "  welcome50 ", "alice")
	if err != nil {
		t.Fatalf("redeem with messy code: %v", err)
	}
	if entry.Amount != domain.Rupees(50) {
		t.Errorf("bonus = %s, want 50.00", entry.Amount)
	}

	// Case variants count as the same code for the per-user guard.
	if _, err := i.Redeem(ctx, "Welcome50", "alice"); !errors.Is(err, domain.ErrPromoAlreadyUsed) {
		t.Errorf("variant redeem: got %v, want ErrPromoAlreadyUsed", err)
	}
}

func TestGrantReferralBonus(t *testing.T) {
	i, db := newTestIssuer(t)
	ctx := context.Background()
	wallet(t, db, "referrer", 0)

	granted, err := i.GrantReferralBonus(ctx, "referrer", "newbie")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !granted {
		t.Fatal("first grant not granted")
	}

	granted, err = i.GrantReferralBonus(ctx, "referrer", "newbie")
	if err != nil {
		t.Fatalf("repeat grant: %v", err)
	}
	if granted {
		t.Error("repeat grant credited again")
	}

	w, _ := db.GetWallet("referrer")
	if w.Balance != domain.Rupees(200) {
		t.Errorf("balance = %s, want 200.00", w.Balance)
	}
	if w.TotalEarned != domain.Rupees(200) {
		t.Errorf("total_earned = %s, want 200.00", w.TotalEarned)
	}
}

func TestPromotionFlow(t *testing.T) {
	i, db := newTestIssuer(t)
	ctx := context.Background()
	wallet(t, db, "alice", domain.Rupees(500))

	req, err := i.RequestPromotion(ctx, "alice")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	w, _ := db.GetWallet("alice")
	if w.Balance != 0 {
		t.Errorf("balance after fee = %s, want 0.00", w.Balance)
	}

	// Rejection keeps the fee.
	got, err := i.ReviewPromotion(ctx, req.ID, false, "not enough published work")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Status != domain.PromotionRejected {
		t.Errorf("status = %s, want rejected", got.Status)
	}
	w, _ = db.GetWallet("alice")
	if w.Balance != 0 {
		t.Errorf("rejection refunded the fee: %s", w.Balance)
	}

	// With the request resolved a new application is allowed, funds permitting.
	if _, err := i.RequestPromotion(ctx, "alice"); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("broke re-application: got %v, want ErrInsufficientBalance", err)
	}
}
