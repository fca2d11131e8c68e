// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of the engine; it depends on nothing below it.
package domain

import (
	"strings"
	"time"
	"unicode"
)

// ─── Wallet & Ledger Types ──────────────────────────────────────────────────

// Wallet is a user's balance account. One per user, created at registration,
// mutated only by the ledger, never deleted.
type Wallet struct {
	UserID       string    `json:"user_id"`
	Balance      Money     `json:"balance"`
	TotalEarned  Money     `json:"total_earned"`
	TotalSpent   Money     `json:"total_spent"`
	RewardPoints int64     `json:"reward_points"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EntryKind is the business reason for a ledger entry.
type EntryKind string

const (
	KindDeposit       EntryKind = "deposit"
	KindWithdraw      EntryKind = "withdraw"
	KindPublishFee    EntryKind = "publish_fee"
	KindPublishRefund EntryKind = "publish_refund"
	KindPromotionFee  EntryKind = "promotion_fee"
	KindRewardPayout  EntryKind = "reward_payout"
	KindPromoBonus    EntryKind = "promo_bonus"
	KindReferralBonus EntryKind = "referral_bonus"
)

// LedgerEntry is an immutable record of one balance mutation.
// The sum of a wallet's entries must always equal its current balance.
type LedgerEntry struct {
	ID              string    `json:"id"`
	WalletID        string    `json:"wallet_id"`
	Amount          Money     `json:"amount"` // signed: credits positive, debits negative
	Kind            EntryKind `json:"kind"`
	RelatedEntityID string    `json:"related_entity_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ─── Article Types ──────────────────────────────────────────────────────────

// ArticleStatus is the publication state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPending   ArticleStatus = "pending"
	StatusPublished ArticleStatus = "published"
	StatusRejected  ArticleStatus = "rejected"
)

// Article is a piece of writing moving through the publication state machine.
type Article struct {
	ID                string        `json:"id"`
	Slug              string        `json:"slug"`
	AuthorID          string        `json:"author_id"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Content           string        `json:"content"`
	WordCount         int           `json:"word_count"`
	Status            ArticleStatus `json:"status"`
	PublishFeeCharged bool          `json:"publish_fee_charged"`
	RejectionReason   string        `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	PublishedAt       *time.Time    `json:"published_at,omitempty"`
}

// Editable reports whether content edits are legal in the current status.
// Pending and published articles are frozen.
func (a *Article) Editable() bool {
	return a.Status == StatusDraft || a.Status == StatusRejected
}

// Publication guard thresholds.
const (
	MinWordCount         = 100
	MinTitleLength       = 5
	MinDescriptionLength = 10
)

// ValidateForPublish checks the draft→pending guards.
func (a *Article) ValidateForPublish() error {
	if a.WordCount < MinWordCount {
		return ErrArticleTooShort
	}
	if len(a.Title) < MinTitleLength {
		return ErrTitleTooShort
	}
	if len(a.Description) < MinDescriptionLength {
		return ErrDescriptionTooShort
	}
	return nil
}

// CountWords counts whitespace-separated words in article content.
func CountWords(content string) int {
	return len(strings.FieldsFunc(content, unicode.IsSpace))
}

// ─── Promotion Request Types ────────────────────────────────────────────────

// PromotionStatus is the review state of a writer-promotion request.
type PromotionStatus string

const (
	PromotionPending  PromotionStatus = "pending"
	PromotionApproved PromotionStatus = "approved"
	PromotionRejected PromotionStatus = "rejected"
)

// PromotionRequest is a user's application to become a content writer.
// At most one pending request per user at a time.
type PromotionRequest struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Status       PromotionStatus `json:"status"`
	ReviewerNote string          `json:"reviewer_note,omitempty"`
	RequestedAt  time.Time       `json:"requested_at"`
	ReviewedAt   *time.Time      `json:"reviewed_at,omitempty"`
}

// ─── Reading Session Types ──────────────────────────────────────────────────

// ReadingSession tracks one reader's accumulated time on one article.
// Unique per (article, reader); re-reading resumes the same session.
// RewardCollected transitions false→true exactly once, ever.
type ReadingSession struct {
	ID                 string    `json:"id"`
	ArticleID          string    `json:"article_id"`
	ReaderID           string    `json:"reader_id"`
	AccumulatedSeconds int64     `json:"accumulated_seconds"`
	RewardCollected    bool      `json:"reward_collected"`
	StartedAt          time.Time `json:"started_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ─── Promo & Referral Types ─────────────────────────────────────────────────

// PromoCode is a one-time bonus grant subject to a usage cap.
// A code cannot be redeemed by the same user twice.
type PromoCode struct {
	Code        string    `json:"code"`
	BonusAmount Money     `json:"bonus_amount"`
	UsageLimit  int64     `json:"usage_limit"`
	UsedCount   int64     `json:"used_count"`
	ExpiryDate  time.Time `json:"expiry_date"`
	IsActive    bool      `json:"is_active"`
}

// PromoUsage records one redemption of a promo code by one user.
type PromoUsage struct {
	Code   string    `json:"code"`
	UserID string    `json:"user_id"`
	UsedAt time.Time `json:"used_at"`
}

// ReferralBonus records the one-time referral grant for a referee.
// Keyed by referee: a referee can trigger the bonus exactly once.
type ReferralBonus struct {
	RefereeID  string    `json:"referee_id"`
	ReferrerID string    `json:"referrer_id"`
	Amount     Money     `json:"amount"`
	GrantedAt  time.Time `json:"granted_at"`
}

// ─── Reaction Types ─────────────────────────────────────────────────────────

// ReactionKind is an idempotent per-user article flag.
type ReactionKind string

const (
	ReactionLike     ReactionKind = "like"
	ReactionBookmark ReactionKind = "bookmark"
)

// ─── Projection Types ───────────────────────────────────────────────────────

// ArticleStats is a read-only projection over reading sessions and reactions.
// It is derived on access, never stored, so it cannot drift from the ledger.
type ArticleStats struct {
	ArticleID        string `json:"article_id"`
	Readers          int64  `json:"readers"`
	CollectedReads   int64  `json:"collected_reads"`
	UncollectedReads int64  `json:"uncollected_reads"`
	PointsEarned     Money  `json:"points_earned"`
	Likes            int64  `json:"likes"`
	Bookmarks        int64  `json:"bookmarks"`
}
