// Package promo grants one-time credits: promo code redemptions, referral
// bonuses, and writer-promotion applications. Every grant is capped and
// race-free under concurrent redemption.
package promo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/observability"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

// Config holds the issuer's fixed amounts.
type Config struct {
	ReferralBonus domain.Money // credited to the referrer per verified referee
	PromotionFee  domain.Money // debited when filing a writer-promotion request
}

// DefaultConfig returns the standard amounts: ₹200 referral bonus, ₹500
// promotion fee.
func DefaultConfig() Config {
	return Config{
		ReferralBonus: domain.Rupees(200),
		PromotionFee:  domain.Rupees(500),
	}
}

// Issuer orchestrates promo and referral credit issuance.
type Issuer struct {
	db      *sqlite.DB
	cfg     Config
	log     zerolog.Logger
	metrics *observability.Metrics
}

// New creates the issuer. metrics may be nil.
func New(db *sqlite.DB, cfg Config, log zerolog.Logger, metrics *observability.Metrics) *Issuer {
	return &Issuer{db: db, cfg: cfg, log: log.With().Str("component", "promo").Logger(), metrics: metrics}
}

// ─── Promo Codes ────────────────────────────────────────────────────────────

// CreateCode registers a new promo code (admin tooling).
func (i *Issuer) CreateCode(ctx context.Context, code string, bonus domain.Money, usageLimit int64, expiry time.Time) (*domain.PromoCode, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrPromoInvalid
	}
	if bonus <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	c := &domain.PromoCode{
		Code:        code,
		BonusAmount: bonus,
		UsageLimit:  usageLimit,
		ExpiryDate:  expiry,
		IsActive:    true,
	}
	if err := i.db.InsertPromoCode(c); err != nil {
		return nil, err
	}
	i.log.Info().Str("code", code).Stringer("bonus", bonus).Int64("limit", usageLimit).Msg("promo code created")
	return c, nil
}

// ListCodes returns all promo codes (admin tooling).
func (i *Issuer) ListCodes(ctx context.Context) ([]domain.PromoCode, error) {
	return i.db.ListPromoCodes()
}

// DisableCode deactivates a promo code (admin tooling).
func (i *Issuer) DisableCode(ctx context.Context, code string) error {
	return i.db.DisablePromoCode(NormalizeCode(code))
}

// Redeem grants a promo bonus to a user. All checks and the credit run in
// one transaction; redemptions racing the final usage slot serialize, and
// exactly usageLimit of them ever succeed.
func (i *Issuer) Redeem(ctx context.Context, code, userID string) (*domain.LedgerEntry, error) {
	entry, err := i.db.RedeemPromo(NormalizeCode(code), userID, time.Now().UTC())
	i.observeRedemption(err)
	if err != nil {
		return nil, err
	}
	i.log.Info().Str("code", NormalizeCode(code)).Str("user", userID).
		Stringer("bonus", entry.Amount).Msg("promo redeemed")
	return entry, nil
}

func (i *Issuer) observeRedemption(err error) {
	if i.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrPromoInvalid):
		result = "invalid"
	case errors.Is(err, domain.ErrPromoExpired):
		result = "expired"
	case errors.Is(err, domain.ErrPromoLimitReached):
		result = "limit_reached"
	case errors.Is(err, domain.ErrPromoAlreadyUsed):
		result = "already_used"
	default:
		result = "error"
	}
	i.metrics.PromoRedemptions.WithLabelValues(result).Inc()
}

// NormalizeCode canonicalizes promo codes for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ─── Referrals ──────────────────────────────────────────────────────────────

// GrantReferralBonus fires once when the referee completes verification.
// Idempotent per referee: the first call credits the referrer, every later
// call is a benign no-op (granted=false, nil error).
func (i *Issuer) GrantReferralBonus(ctx context.Context, referrerID, refereeID string) (bool, error) {
	granted, _, err := i.db.GrantReferral(referrerID, refereeID, i.cfg.ReferralBonus)
	if err != nil {
		return false, err
	}
	if granted {
		i.log.Info().Str("referrer", referrerID).Str("referee", refereeID).
			Stringer("bonus", i.cfg.ReferralBonus).Msg("referral bonus granted")
	}
	return granted, nil
}

// ─── Promotion Requests ─────────────────────────────────────────────────────

// RequestPromotion files a writer-promotion application, debiting the
// promotion fee atomically with the insert. One pending request per user.
// The fee is not refunded on rejection.
func (i *Issuer) RequestPromotion(ctx context.Context, userID string) (*domain.PromotionRequest, error) {
	req, err := i.db.CreatePromotionRequest(userID, i.cfg.PromotionFee)
	if err != nil {
		return nil, err
	}
	i.log.Info().Str("user", userID).Stringer("fee", i.cfg.PromotionFee).Msg("promotion requested")
	return req, nil
}

// ReviewPromotion resolves a pending promotion request (admin only).
func (i *Issuer) ReviewPromotion(ctx context.Context, id string, approve bool, note string) (*domain.PromotionRequest, error) {
	if err := i.db.ReviewPromotionRequest(id, approve, note); err != nil {
		return nil, err
	}
	return i.db.GetPromotionRequest(id)
}

// ListPromotions returns promotion requests filtered by status ("" for all).
func (i *Issuer) ListPromotions(ctx context.Context, status domain.PromotionStatus) ([]domain.PromotionRequest, error) {
	return i.db.ListPromotionRequests(status)
}
