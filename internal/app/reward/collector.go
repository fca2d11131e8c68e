// Package reward pays readers from the ledger, gated by the reading tracker
// and an at-most-once collection guard. A reader can be paid for a given
// article exactly once, ever.
package reward

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/app/reading"
	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/observability"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

// Config holds the payout schedule.
type Config struct {
	Amount domain.Money // credited per qualifying read
	Points int64        // reward points added per collection
}

// DefaultConfig returns the standard payout: ₹10 and 10 points per read.
func DefaultConfig() Config {
	return Config{
		Amount: domain.Rupees(10),
		Points: 10,
	}
}

// Payout is the result of a successful collection.
type Payout struct {
	Entry        *domain.LedgerEntry `json:"entry"`
	Amount       domain.Money        `json:"amount"`
	RewardPoints int64               `json:"reward_points"`
}

// Collector orchestrates reward collection.
type Collector struct {
	db      *sqlite.DB
	tracker *reading.Tracker
	cfg     Config
	log     zerolog.Logger
	metrics *observability.Metrics
}

// New creates the collector. metrics may be nil.
func New(db *sqlite.DB, tracker *reading.Tracker, cfg Config, log zerolog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		db:      db,
		tracker: tracker,
		cfg:     cfg,
		log:     log.With().Str("component", "reward").Logger(),
		metrics: metrics,
	}
}

// Collect pays the reader for a qualifying read. Preconditions in order:
// reader is not the author, then session eligibility. The collected flag and
// the credit share one transaction, so a crash between them cannot create a
// collected-but-unpaid or paid-but-recollectable state. Collection remains
// possible after the article leaves published state.
func (c *Collector) Collect(ctx context.Context, articleID, readerID string) (*Payout, error) {
	a, err := c.db.GetArticle(articleID)
	if err != nil {
		return nil, err
	}
	if a.AuthorID == readerID {
		return nil, domain.ErrIsAuthor
	}

	s, err := c.db.GetSessionByPair(articleID, readerID)
	if err != nil {
		return nil, err
	}
	if s.RewardCollected {
		return nil, domain.ErrAlreadyCollected
	}
	if s.AccumulatedSeconds < c.tracker.MinReadSeconds() {
		return nil, domain.ErrNotEligible
	}

	entry, err := c.db.CollectReward(s.ID, readerID, c.cfg.Amount, c.cfg.Points, articleID)
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RewardsCollected.Inc()
		c.metrics.CreditsTotal.WithLabelValues(string(domain.KindRewardPayout)).Inc()
		c.metrics.CreditPaise.WithLabelValues(string(domain.KindRewardPayout)).Add(float64(c.cfg.Amount))
	}
	c.log.Info().Str("article", articleID).Str("reader", readerID).
		Stringer("amount", c.cfg.Amount).Msg("reward collected")

	return &Payout{Entry: entry, Amount: c.cfg.Amount, RewardPoints: c.cfg.Points}, nil
}
