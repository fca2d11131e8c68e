package reward

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/app/reading"
	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

func newTestCollector(t *testing.T) (*Collector, *reading.Tracker, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	tracker := reading.New(db, reading.DefaultConfig(), zerolog.Nop())
	return New(db, tracker, DefaultConfig(), zerolog.Nop(), nil), tracker, db
}

func seedPublished(t *testing.T, db *sqlite.DB, id, authorID string) {
	t.Helper()
	ts := time.Now().UTC()
	a := &domain.Article{
		ID: id, Slug: id, AuthorID: authorID,
		Title:       "A Title Long Enough",
		Description: "A description long enough",
		Content:     "words", WordCount: 150,
		Status: domain.StatusDraft, CreatedAt: ts, UpdatedAt: ts,
	}
	if err := db.InsertArticle(a); err != nil {
		t.Fatalf("insert article: %v", err)
	}
	if _, err := db.EnsureWallet(authorID); err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if _, err := db.CreditWallet(authorID, domain.Rupees(150), domain.KindDeposit, ""); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, err := db.RequestPublish(id, authorID, domain.Rupees(150)); err != nil {
		t.Fatalf("request publish: %v", err)
	}
	if err := db.ApproveArticle(id); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

// readFor accumulates seconds on a reader's session via capped heartbeats.
func readFor(t *testing.T, tracker *reading.Tracker, articleID, readerID string, seconds int64) {
	t.Helper()
	ctx := context.Background()
	s, err := tracker.StartOrResume(ctx, articleID, readerID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	for seconds > 0 {
		delta := seconds
		if delta > 5 {
			delta = 5
		}
		if _, err := tracker.Heartbeat(ctx, s.ID, delta); err != nil {
			t.Fatalf("heartbeat: %v", err)
		}
		seconds -= delta
	}
}

func TestCollect_HappyPath(t *testing.T) {
	c, tracker, db := newTestCollector(t)
	ctx := context.Background()
	seedPublished(t, db, "art-1", "author-1")
	if _, err := db.EnsureWallet("reader-1"); err != nil {
		t.Fatalf("wallet: %v", err)
	}
	readFor(t, tracker, "art-1", "reader-1", 30)

	payout, err := c.Collect(ctx, "art-1", "reader-1")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if payout.Amount != domain.Rupees(10) || payout.RewardPoints != 10 {
		t.Errorf("payout = %s / %d points, want 10.00 / 10", payout.Amount, payout.RewardPoints)
	}
	if payout.Entry.Kind != domain.KindRewardPayout {
		t.Errorf("entry kind = %s", payout.Entry.Kind)
	}

	w, _ := db.GetWallet("reader-1")
	if w.Balance != domain.Rupees(10) || w.RewardPoints != 10 {
		t.Errorf("wallet = %s / %d points", w.Balance, w.RewardPoints)
	}

	// Exactly once.
	if _, err := c.Collect(ctx, "art-1", "reader-1"); !errors.Is(err, domain.ErrAlreadyCollected) {
		t.Errorf("second collect: got %v, want ErrAlreadyCollected", err)
	}
}

func TestCollect_NotEligible(t *testing.T) {
	c, tracker, db := newTestCollector(t)
	ctx := context.Background()
	seedPublished(t, db, "art-1", "author-1")
	if _, err := db.EnsureWallet("reader-1"); err != nil {
		t.Fatalf("wallet: %v", err)
	}
	readFor(t, tracker, "art-1", "reader-1", 29)

	if _, err := c.Collect(ctx, "art-1", "reader-1"); !errors.Is(err, domain.ErrNotEligible) {
		t.Fatalf("29s: got %v, want ErrNotEligible", err)
	}

	// A failed collection leaves the session collectable.
	readFor(t, tracker, "art-1", "reader-1", 1)
	if _, err := c.Collect(ctx, "art-1", "reader-1"); err != nil {
		t.Errorf("30s after top-up: %v", err)
	}
}

func TestCollect_AuthorBlocked(t *testing.T) {
	c, _, db := newTestCollector(t)
	seedPublished(t, db, "art-1", "author-1")

	// Authors never have sessions on their own work, but the guard fires
	// before the session lookup regardless.
	if _, err := c.Collect(context.Background(), "art-1", "author-1"); !errors.Is(err, domain.ErrIsAuthor) {
		t.Errorf("got %v, want ErrIsAuthor", err)
	}
}

func TestCollect_NoSession(t *testing.T) {
	c, _, db := newTestCollector(t)
	seedPublished(t, db, "art-1", "author-1")

	if _, err := c.Collect(context.Background(), "art-1", "reader-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
	if _, err := c.Collect(context.Background(), "missing", "reader-1"); !errors.Is(err, domain.ErrArticleNotFound) {
		t.Errorf("missing article: got %v, want ErrArticleNotFound", err)
	}
}
