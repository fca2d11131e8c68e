package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency. Callers classify
// them with errors.Is; the HTTP layer maps them to status codes.

var (
	// Lookup errors
	ErrArticleNotFound = errors.New("article not found")
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrSessionNotFound = errors.New("reading session not found")
	ErrRequestNotFound = errors.New("promotion request not found")

	// Ledger errors
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Article lifecycle errors
	ErrInvalidState        = errors.New("operation not legal from current status")
	ErrArticleTooShort     = errors.New("article must be at least 100 words")
	ErrTitleTooShort       = errors.New("title must be at least 5 characters")
	ErrDescriptionTooShort = errors.New("description must be at least 10 characters")
	ErrReasonRequired      = errors.New("rejection reason must not be empty")
	ErrNotAuthor           = errors.New("only the author may modify this article")

	// Reward errors
	ErrAlreadyCollected = errors.New("reward already collected")
	ErrNotEligible      = errors.New("reading session not yet eligible")
	ErrIsAuthor         = errors.New("authors cannot collect rewards on their own articles")

	// Promo errors
	ErrPromoInvalid      = errors.New("promo code not found or inactive")
	ErrPromoExpired      = errors.New("promo code expired")
	ErrPromoLimitReached = errors.New("promo code usage limit reached")
	ErrPromoAlreadyUsed  = errors.New("promo code already redeemed by this user")
	ErrPromoExists       = errors.New("promo code already exists")

	// Promotion request errors
	ErrRequestPending  = errors.New("a promotion request is already pending")
	ErrRequestReviewed = errors.New("promotion request already reviewed")
)

// InsufficientBalanceError reports a failed debit with the amounts the caller
// needs to prompt a top-up. errors.Is(err, ErrInsufficientBalance) matches it.
type InsufficientBalanceError struct {
	Required  Money
	Available Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, available %s", e.Required, e.Available)
}

// Is makes the typed error match the ErrInsufficientBalance sentinel.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
