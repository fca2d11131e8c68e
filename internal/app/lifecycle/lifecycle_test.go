package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

func newTestController(t *testing.T) (*Controller, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, DefaultConfig(), zerolog.Nop(), nil), db
}

func fund(t *testing.T, db *sqlite.DB, userID string, amount domain.Money) {
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

// longContent returns content crossing the minimum word count.
func longContent() string {
	return strings.Repeat("word ", 120)
}

func TestCreate_Draft(t *testing.T) {
	c, _ := newTestController(t)

	a, err := c.Create(context.Background(), "alice", "My First Article", "An opening description", longContent())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Status != domain.StatusDraft {
		t.Errorf("status = %s, want draft", a.Status)
	}
	if a.WordCount != 120 {
		t.Errorf("word count = %d, want 120", a.WordCount)
	}
	if !strings.HasPrefix(a.Slug, "my-first-article-") {
		t.Errorf("slug = %q, want my-first-article- prefix", a.Slug)
	}

	// Creating a draft costs nothing and needs no wallet.
	got, err := c.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("round trip mismatch: %s vs %s", got.ID, a.ID)
	}
}

func TestRequestPublish_HappyPath(t *testing.T) {
	c, db := newTestController(t)
	fund(t, db, "alice", domain.Rupees(200))
	a, _ := c.Create(context.Background(), "alice", "A Real Article", "Long enough description", longContent())

	got, entry, err := c.RequestPublish(context.Background(), a.Slug, "alice")
	if err != nil {
		t.Fatalf("request publish: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("status = %s, want pending", got.Status)
	}
	if entry.Amount != -domain.Rupees(150) {
		t.Errorf("fee entry = %s, want -150.00", entry.Amount)
	}
	w, _ := db.GetWallet("alice")
	if w.Balance != domain.Rupees(50) {
		t.Errorf("balance = %s, want 50.00", w.Balance)
	}
}

func TestRequestPublish_InsufficientBalance(t *testing.T) {
	c, db := newTestController(t)
	fund(t, db, "alice", domain.Rupees(100)) // fee is 150
	a, _ := c.Create(context.Background(), "alice", "A Real Article", "Long enough description", longContent())

	_, _, err := c.RequestPublish(context.Background(), a.Slug, "alice")
	var ib *domain.InsufficientBalanceError
	if !errors.As(err, &ib) {
		t.Fatalf("got %v, want InsufficientBalanceError", err)
	}
	if ib.Required != domain.Rupees(150) || ib.Available != domain.Rupees(100) {
		t.Errorf("required/available = %s/%s, want 150.00/100.00", ib.Required, ib.Available)
	}

	// Nothing moved: still draft, balance intact.
	got, _ := c.Get(context.Background(), a.ID)
	if got.Status != domain.StatusDraft {
		t.Errorf("status = %s, want draft", got.Status)
	}
	w, _ := db.GetWallet("alice")
	if w.Balance != domain.Rupees(100) {
		t.Errorf("balance = %s, want 100.00", w.Balance)
	}
}

func TestRequestPublish_ContentGuards(t *testing.T) {
	c, db := newTestController(t)
	fund(t, db, "alice", domain.Rupees(500))
	ctx := context.Background()

	tests := []struct {
		name        string
		title       string
		description string
		content     string
		want        error
	}{
		{"too few words", "A Real Article", "Long enough description", "only five words right here", domain.ErrArticleTooShort},
		{"title too short", "Hey", "Long enough description", longContent(), domain.ErrTitleTooShort},
		{"description too short", "A Real Article", "short", longContent(), domain.ErrDescriptionTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := c.Create(ctx, "alice", tt.title, tt.description, tt.content)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if _, _, err := c.RequestPublish(ctx, a.Slug, "alice"); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			// Guard failures are free.
			w, _ := db.GetWallet("alice")
			if w.Balance != domain.Rupees(500) {
				t.Errorf("guard failure charged the wallet: %s", w.Balance)
			}
		})
	}
}

func TestRequestPublish_NotAuthor(t *testing.T) {
	c, db := newTestController(t)
	fund(t, db, "bob", domain.Rupees(500))
	a, _ := c.Create(context.Background(), "alice", "A Real Article", "Long enough description", longContent())

	if _, _, err := c.RequestPublish(context.Background(), a.Slug, "bob"); !errors.Is(err, domain.ErrNotAuthor) {
		t.Errorf("got %v, want ErrNotAuthor", err)
	}
}

func TestRejectThenResubmit(t *testing.T) {
	c, db := newTestController(t)
	ctx := context.Background()
	fund(t, db, "alice", domain.Rupees(400))
	a, _ := c.Create(ctx, "alice", "A Real Article", "Long enough description", longContent())

	if _, _, err := c.RequestPublish(ctx, a.Slug, "alice"); err != nil {
		t.Fatalf("request publish: %v", err)
	}

	// Reject needs a reason.
	if _, err := c.Reject(ctx, a.ID, "   "); !errors.Is(err, domain.ErrReasonRequired) {
		t.Fatalf("blank reason: got %v, want ErrReasonRequired", err)
	}

	got, err := c.Reject(ctx, a.ID, "needs work")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != domain.StatusRejected || got.RejectionReason != "needs work" {
		t.Errorf("after reject: %s %q", got.Status, got.RejectionReason)
	}
	// Half the fee came back: 400 - 150 + 75.
	w, _ := db.GetWallet("alice")
	if w.Balance != domain.Rupees(325) {
		t.Errorf("balance = %s, want 325.00", w.Balance)
	}

	// Editing the rejected article moves it back to draft, then a second
	// publish request charges the full fee again.
	if _, err := c.Update(ctx, a.ID, "alice", "A Real Article v2", "Long enough description", longContent()); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = c.Get(ctx, a.ID)
	if got.Status != domain.StatusDraft {
		t.Errorf("after edit: %s, want draft", got.Status)
	}

	if _, _, err := c.RequestPublish(ctx, a.Slug, "alice"); err != nil {
		t.Fatalf("second publish request: %v", err)
	}
	w, _ = db.GetWallet("alice")
	if w.Balance != domain.Rupees(175) {
		t.Errorf("balance = %s, want 175.00 (charged twice, refunded once)", w.Balance)
	}
}

func TestApprove(t *testing.T) {
	c, db := newTestController(t)
	ctx := context.Background()
	fund(t, db, "alice", domain.Rupees(200))
	a, _ := c.Create(ctx, "alice", "A Real Article", "Long enough description", longContent())
	if _, _, err := c.RequestPublish(ctx, a.Slug, "alice"); err != nil {
		t.Fatalf("request publish: %v", err)
	}

	got, err := c.Approve(ctx, a.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != domain.StatusPublished || got.PublishedAt == nil {
		t.Errorf("after approve: %s published_at=%v", got.Status, got.PublishedAt)
	}

	// Published articles are frozen.
	if _, err := c.Update(ctx, a.ID, "alice", "New", "Long enough description", longContent()); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("edit published: got %v, want ErrInvalidState", err)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Spaced   Out  ", "spaced-out"},
		{"Already-Hyphenated", "already-hyphenated"},
		{"Symbols!@#Between", "symbols-between"},
		{"Numbers 123 Ok", "numbers-123-ok"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
