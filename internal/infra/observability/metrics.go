// Package observability exposes Prometheus metrics for the reward economy
// engine. Counters follow the ledger taxonomy so dashboards can reconcile
// money movement against the database.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all engine collectors.
type Metrics struct {
	CreditsTotal      *prometheus.CounterVec
	DebitsTotal       *prometheus.CounterVec
	CreditPaise       *prometheus.CounterVec
	DebitPaise        *prometheus.CounterVec
	InsufficientTotal prometheus.Counter
	RewardsCollected  prometheus.Counter
	PromoRedemptions  *prometheus.CounterVec
	Transitions       *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
}

// New creates and registers the engine metrics on reg. The daemon passes the
// default registerer; tests pass a fresh registry so repeated setup does not
// collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CreditsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_ledger_credits_total",
			Help: "Ledger credit operations by kind.",
		}, []string{"kind"}),
		DebitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_ledger_debits_total",
			Help: "Ledger debit operations by kind.",
		}, []string{"kind"}),
		CreditPaise: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_ledger_credit_paise_total",
			Help: "Total paise credited by kind.",
		}, []string{"kind"}),
		DebitPaise: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_ledger_debit_paise_total",
			Help: "Total paise debited by kind.",
		}, []string{"kind"}),
		InsufficientTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_ledger_insufficient_balance_total",
			Help: "Debits rejected for insufficient balance.",
		}),
		RewardsCollected: factory.NewCounter(prometheus.CounterOpts{
			Name: "inkwell_rewards_collected_total",
			Help: "Successful reader reward collections.",
		}),
		PromoRedemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_promo_redemptions_total",
			Help: "Promo redemption attempts by result.",
		}, []string{"result"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_article_transitions_total",
			Help: "Article state machine transitions.",
		}, []string{"to"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inkwell_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}
