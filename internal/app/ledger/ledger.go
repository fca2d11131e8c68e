// Package ledger is the financial source of truth. It is the only component
// allowed to mutate wallet balances; everything above it orchestrates.
package ledger

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/observability"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

// Service exposes balance mutations and read-only wallet views.
type Service struct {
	db      *sqlite.DB
	log     zerolog.Logger
	metrics *observability.Metrics
}

// New creates the ledger service. metrics may be nil.
func New(db *sqlite.DB, log zerolog.Logger, metrics *observability.Metrics) *Service {
	return &Service{db: db, log: log.With().Str("component", "ledger").Logger(), metrics: metrics}
}

// EnsureWallet creates the wallet for a user if missing (registration hook).
func (s *Service) EnsureWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return s.db.EnsureWallet(userID)
}

// Wallet returns a user's wallet.
func (s *Service) Wallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return s.db.GetWallet(userID)
}

// History returns a wallet's ledger entries, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	return s.db.LedgerEntries(userID, limit)
}

// Credit adds funds to a wallet. Never fails except on invalid amount.
func (s *Service) Credit(ctx context.Context, walletID string, amount domain.Money, kind domain.EntryKind, relatedID string) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	entry, err := s.db.CreditWallet(walletID, amount, kind, relatedID)
	if err != nil {
		return nil, err
	}
	s.observeCredit(kind, amount)
	s.log.Info().Str("wallet", walletID).Str("kind", string(kind)).
		Stringer("amount", amount).Msg("credit")
	return entry, nil
}

// Debit removes funds from a wallet, atomically with the balance check.
// Returns InsufficientBalanceError and changes nothing on shortfall.
func (s *Service) Debit(ctx context.Context, walletID string, amount domain.Money, kind domain.EntryKind, relatedID string) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	entry, err := s.db.DebitWallet(walletID, amount, kind, relatedID)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) && s.metrics != nil {
			s.metrics.InsufficientTotal.Inc()
		}
		return nil, err
	}
	s.observeDebit(kind, amount)
	s.log.Info().Str("wallet", walletID).Str("kind", string(kind)).
		Stringer("amount", amount).Msg("debit")
	return entry, nil
}

// Deposit is the user-facing top-up operation.
func (s *Service) Deposit(ctx context.Context, userID string, amount domain.Money) (*domain.Wallet, error) {
	if _, err := s.Credit(ctx, userID, amount, domain.KindDeposit, ""); err != nil {
		return nil, err
	}
	return s.db.GetWallet(userID)
}

// Withdraw is the user-facing withdrawal operation.
func (s *Service) Withdraw(ctx context.Context, userID string, amount domain.Money) (*domain.Wallet, error) {
	if _, err := s.Debit(ctx, userID, amount, domain.KindWithdraw, ""); err != nil {
		return nil, err
	}
	return s.db.GetWallet(userID)
}

// Reconcile audits every wallet against the sum of its ledger entries.
// A non-empty result means the reconciliation invariant is broken.
func (s *Service) Reconcile(ctx context.Context) ([]sqlite.ReconcileRow, error) {
	bad, err := s.db.ReconcileWallets()
	if err != nil {
		return nil, err
	}
	if len(bad) > 0 {
		s.log.Error().Int("wallets", len(bad)).Msg("reconciliation mismatch")
	}
	return bad, nil
}

func (s *Service) observeCredit(kind domain.EntryKind, amount domain.Money) {
	if s.metrics == nil {
		return
	}
	s.metrics.CreditsTotal.WithLabelValues(string(kind)).Inc()
	s.metrics.CreditPaise.WithLabelValues(string(kind)).Add(float64(amount))
}

func (s *Service) observeDebit(kind domain.EntryKind, amount domain.Money) {
	if s.metrics == nil {
		return
	}
	s.metrics.DebitsTotal.WithLabelValues(string(kind)).Inc()
	s.metrics.DebitPaise.WithLabelValues(string(kind)).Add(float64(amount))
}
