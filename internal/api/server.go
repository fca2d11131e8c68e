// Package api provides the HTTP server for the reward economy engine.
// Authentication is a precondition: callers arrive with a verified identity
// conveyed by X-User-ID / X-User-Role headers set by the front-end's auth
// layer, which is out of scope here.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/app/ledger"
	"github.com/inkwell-network/inkwell/internal/app/lifecycle"
	"github.com/inkwell-network/inkwell/internal/app/promo"
	"github.com/inkwell-network/inkwell/internal/app/reading"
	"github.com/inkwell-network/inkwell/internal/app/reward"
	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/observability"
)

// Server is the engine's HTTP API server.
type Server struct {
	ledger         *ledger.Service
	lifecycle      *lifecycle.Controller
	tracker        *reading.Tracker
	collector      *reward.Collector
	issuer         *promo.Issuer
	log            zerolog.Logger
	metrics        *observability.Metrics
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(l *ledger.Service, lc *lifecycle.Controller, t *reading.Tracker, c *reward.Collector, i *promo.Issuer, log zerolog.Logger) *Server {
	return &Server{
		ledger:    l,
		lifecycle: lc,
		tracker:   t,
		collector: c,
		issuer:    i,
		log:       log.With().Str("component", "api").Logger(),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics(m *observability.Metrics) {
	s.metrics = m
	s.metricsEnabled = true
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if s.metrics != nil {
		r.Use(s.durationMiddleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.identity)

		r.Route("/articles", func(r chi.Router) {
			r.Post("/", s.handleCreateArticle)
			r.Get("/{id}", s.handleGetArticle)
			r.Put("/{id}", s.handleUpdateArticle)
			r.Post("/{slug}/request-publish", s.handleRequestPublish)
			r.Post("/{id}/approve", s.requireAdmin(s.handleApprove))
			r.Post("/{id}/reject", s.requireAdmin(s.handleReject))
			r.Post("/{id}/reading/start", s.handleReadingStart)
			r.Post("/{id}/reading/heartbeat", s.handleReadingHeartbeat)
			r.Post("/{id}/collect-reward", s.handleCollectReward)
			r.Get("/{id}/stats", s.handleArticleStats)
			r.Post("/{id}/like", s.handleReaction(domain.ReactionLike))
			r.Post("/{id}/bookmark", s.handleReaction(domain.ReactionBookmark))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", s.handleGetWallet)
			r.Get("/ledger", s.handleGetLedger)
			r.Post("/deposit", s.handleDeposit)
			r.Post("/withdraw", s.handleWithdraw)
		})

		r.Route("/promo-codes", func(r chi.Router) {
			r.Post("/redeem", s.handleRedeemPromo)
		})

		r.Post("/referrals/complete", s.handleReferralComplete)

		r.Route("/promotion-requests", func(r chi.Router) {
			r.Post("/", s.handleRequestPromotion)
			r.Get("/", s.requireAdmin(s.handleListPromotions))
			r.Post("/{id}/approve", s.requireAdmin(s.handleReviewPromotion(true)))
			r.Post("/{id}/reject", s.requireAdmin(s.handleReviewPromotion(false)))
		})
	})

	return r
}

// ─── Identity ───────────────────────────────────────────────────────────────

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxRole
)

// identity extracts the verified caller identity from request headers.
// Requests without an identity are rejected before reaching any handler.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing user identity")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxRole, r.Header.Get("X-User-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxUserID).(string)
	return id
}

func role(r *http.Request) string {
	ro, _ := r.Context().Value(ctxRole).(string)
	return ro
}

// requireAdmin guards admin-only transitions.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if role(r) != "admin" {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	}
}

// durationMiddleware records request latency by route pattern.
func (s *Server) durationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		s.metrics.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps engine errors onto the HTTP taxonomy. Idempotence
// guards surface as 409, recoverable balance failures as 402, terminal promo
// outcomes as 410/409. Unexpected storage errors are 500 and logged, never
// swallowed.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error": map[string]interface{}{
				"message":   insufficient.Error(),
				"type":      "insufficient_balance",
				"required":  insufficient.Required,
				"available": insufficient.Available,
			},
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrArticleNotFound),
		errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrPromoInvalid):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrPromoExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrAlreadyCollected),
		errors.Is(err, domain.ErrPromoLimitReached),
		errors.Is(err, domain.ErrPromoAlreadyUsed),
		errors.Is(err, domain.ErrRequestPending),
		errors.Is(err, domain.ErrRequestReviewed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotEligible),
		errors.Is(err, domain.ErrIsAuthor),
		errors.Is(err, domain.ErrNotAuthor):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrArticleTooShort),
		errors.Is(err, domain.ErrTitleTooShort),
		errors.Is(err, domain.ErrDescriptionTooShort),
		errors.Is(err, domain.ErrReasonRequired),
		errors.Is(err, domain.ErrPromoExists):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
