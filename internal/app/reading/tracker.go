// Package reading measures qualifying read time per (article, reader) pair.
// The engine trusts only incremental deltas from clients, clamped per
// heartbeat, so a reader cannot claim an hour of reading in one report.
package reading

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

// Config controls eligibility and abuse bounds.
type Config struct {
	MinReadSeconds      int64 // accumulated time required for reward eligibility
	MaxHeartbeatSeconds int64 // per-heartbeat delta clamp
}

// DefaultConfig returns the standard thresholds: 30s to qualify, deltas
// clamped to 5s per heartbeat.
func DefaultConfig() Config {
	return Config{
		MinReadSeconds:      30,
		MaxHeartbeatSeconds: 5,
	}
}

// Tracker owns reading session accumulation and eligibility.
type Tracker struct {
	db  *sqlite.DB
	cfg Config
	log zerolog.Logger
}

// New creates the tracker.
func New(db *sqlite.DB, cfg Config, log zerolog.Logger) *Tracker {
	return &Tracker{db: db, cfg: cfg, log: log.With().Str("component", "reading").Logger()}
}

// StartOrResume returns the session for (article, reader), creating one if
// this is the reader's first visit. The article must be published to start;
// an existing session survives later status changes.
func (t *Tracker) StartOrResume(ctx context.Context, articleID, readerID string) (*domain.ReadingSession, error) {
	a, err := t.db.GetArticle(articleID)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.StatusPublished {
		// Resuming an in-flight session is still allowed if the article was
		// unpublished after the reader started.
		if existing, err := t.db.GetSessionByPair(articleID, readerID); err == nil {
			return existing, nil
		}
		return nil, domain.ErrInvalidState
	}
	return t.db.StartOrResumeSession(articleID, readerID)
}

// Heartbeat reports elapsedSeconds of active reading. Deltas beyond the
// per-heartbeat cap are clamped, not rejected; negative deltas are dropped.
// Accumulation is monotonic.
func (t *Tracker) Heartbeat(ctx context.Context, sessionID string, elapsedSeconds int64) (*domain.ReadingSession, error) {
	if elapsedSeconds <= 0 {
		return t.db.GetSession(sessionID)
	}
	if elapsedSeconds > t.cfg.MaxHeartbeatSeconds {
		t.log.Debug().Str("session", sessionID).Int64("reported", elapsedSeconds).
			Int64("clamped", t.cfg.MaxHeartbeatSeconds).Msg("heartbeat clamped")
		elapsedSeconds = t.cfg.MaxHeartbeatSeconds
	}
	return t.db.AccumulateSeconds(sessionID, elapsedSeconds)
}

// IsEligible reports whether the session qualifies for a reward: enough
// accumulated time and not yet collected. Computed lazily, never by timer.
func (t *Tracker) IsEligible(ctx context.Context, sessionID string) (bool, error) {
	s, err := t.db.GetSession(sessionID)
	if err != nil {
		return false, err
	}
	return s.AccumulatedSeconds >= t.cfg.MinReadSeconds && !s.RewardCollected, nil
}

// Session returns the session for (article, reader).
func (t *Tracker) Session(ctx context.Context, articleID, readerID string) (*domain.ReadingSession, error) {
	return t.db.GetSessionByPair(articleID, readerID)
}

// MinReadSeconds exposes the eligibility threshold to collaborators.
func (t *Tracker) MinReadSeconds() int64 {
	return t.cfg.MinReadSeconds
}
