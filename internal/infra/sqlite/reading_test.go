package sqlite

import (
	"errors"
	"sync"
	"testing"

	"github.com/inkwell-network/inkwell/internal/domain"
)

func TestStartOrResumeSession_Idempotent(t *testing.T) {
	db := newTestDB(t)

	s1, err := db.StartOrResumeSession("art-1", "reader-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s1.AccumulatedSeconds != 0 || s1.RewardCollected {
		t.Errorf("new session not zeroed: %+v", s1)
	}

	if _, err := db.AccumulateSeconds(s1.ID, 12); err != nil {
		t.Fatalf("accumulate: %v", err)
	}

	s2, err := db.StartOrResumeSession("art-1", "reader-1")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if s2.ID != s1.ID {
		t.Errorf("resume forked a new session: %s vs %s", s2.ID, s1.ID)
	}
	if s2.AccumulatedSeconds != 12 {
		t.Errorf("resume lost accumulated time: %d", s2.AccumulatedSeconds)
	}

	// Distinct readers get distinct sessions.
	s3, err := db.StartOrResumeSession("art-1", "reader-2")
	if err != nil {
		t.Fatalf("second reader: %v", err)
	}
	if s3.ID == s1.ID {
		t.Error("sessions shared across readers")
	}
}

func TestAccumulateSeconds(t *testing.T) {
	db := newTestDB(t)
	s, _ := db.StartOrResumeSession("art-1", "reader-1")

	for _, delta := range []int64{5, 5, 3} {
		if _, err := db.AccumulateSeconds(s.ID, delta); err != nil {
			t.Fatalf("accumulate: %v", err)
		}
	}
	got, _ := db.GetSession(s.ID)
	if got.AccumulatedSeconds != 13 {
		t.Errorf("accumulated = %d, want 13", got.AccumulatedSeconds)
	}

	if _, err := db.AccumulateSeconds("missing", 5); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("missing session: got %v, want ErrSessionNotFound", err)
	}
}

func TestCollectReward_Once(t *testing.T) {
	db := newTestDB(t)
	fundedWallet(t, db, "reader-1", 0)
	s, _ := db.StartOrResumeSession("art-1", "reader-1")

	entry, err := db.CollectReward(s.ID, "reader-1", domain.Rupees(10), 10, "art-1")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if entry.Amount != domain.Rupees(10) || entry.Kind != domain.KindRewardPayout {
		t.Errorf("entry = %s %s, want 10.00 reward_payout", entry.Amount, entry.Kind)
	}

	w, _ := db.GetWallet("reader-1")
	if w.Balance != domain.Rupees(10) {
		t.Errorf("balance = %s, want 10.00", w.Balance)
	}
	if w.RewardPoints != 10 {
		t.Errorf("reward_points = %d, want 10", w.RewardPoints)
	}
	if w.TotalEarned != domain.Rupees(10) {
		t.Errorf("total_earned = %s, want 10.00", w.TotalEarned)
	}

	_, err = db.CollectReward(s.ID, "reader-1", domain.Rupees(10), 10, "art-1")
	if !errors.Is(err, domain.ErrAlreadyCollected) {
		t.Fatalf("second collect: got %v, want ErrAlreadyCollected", err)
	}
	mustBalance(t, db, "reader-1", domain.Rupees(10))
	mustReconcileClean(t, db)
}

func TestCollectReward_ConcurrentSingleWinner(t *testing.T) {
	db := newTestDB(t)
	fundedWallet(t, db, "reader-1", 0)
	s, _ := db.StartOrResumeSession("art-1", "reader-1")

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = db.CollectReward(s.ID, "reader-1", domain.Rupees(10), 10, "art-1")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrAlreadyCollected):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("%d collectors won, want exactly 1", won)
	}
	mustBalance(t, db, "reader-1", domain.Rupees(10))
	w, _ := db.GetWallet("reader-1")
	if w.RewardPoints != 10 {
		t.Errorf("reward_points = %d, want 10 (single payout)", w.RewardPoints)
	}
	mustReconcileClean(t, db)
}

func TestArticleStats(t *testing.T) {
	db := newTestDB(t)
	fundedWallet(t, db, "reader-1", 0)
	fundedWallet(t, db, "reader-2", 0)

	s1, _ := db.StartOrResumeSession("art-1", "reader-1")
	db.StartOrResumeSession("art-1", "reader-2")
	db.StartOrResumeSession("art-2", "reader-1") // other article, must not leak in

	if _, err := db.CollectReward(s1.ID, "reader-1", domain.Rupees(10), 10, "art-1"); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if _, err := db.ToggleReaction("art-1", "reader-1", domain.ReactionLike); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := db.ToggleReaction("art-1", "reader-2", domain.ReactionLike); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := db.ToggleReaction("art-1", "reader-1", domain.ReactionBookmark); err != nil {
		t.Fatalf("bookmark: %v", err)
	}

	stats, err := db.ArticleStats("art-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Readers != 2 {
		t.Errorf("readers = %d, want 2", stats.Readers)
	}
	if stats.CollectedReads != 1 || stats.UncollectedReads != 1 {
		t.Errorf("collected/uncollected = %d/%d, want 1/1", stats.CollectedReads, stats.UncollectedReads)
	}
	if stats.PointsEarned != domain.Rupees(10) {
		t.Errorf("points earned = %s, want 10.00", stats.PointsEarned)
	}
	if stats.Likes != 2 || stats.Bookmarks != 1 {
		t.Errorf("likes/bookmarks = %d/%d, want 2/1", stats.Likes, stats.Bookmarks)
	}
}

func TestToggleReaction(t *testing.T) {
	db := newTestDB(t)

	active, err := db.ToggleReaction("art-1", "reader-1", domain.ReactionLike)
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !active {
		t.Error("first toggle should activate")
	}

	active, err = db.ToggleReaction("art-1", "reader-1", domain.ReactionLike)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if active {
		t.Error("second toggle should deactivate")
	}

	// Kinds toggle independently.
	active, _ = db.ToggleReaction("art-1", "reader-1", domain.ReactionBookmark)
	if !active {
		t.Error("bookmark toggle affected by like state")
	}
}
