package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-network/inkwell/internal/domain"
)

// ─── Promo & Referral Handlers ──────────────────────────────────────────────

// handleRedeemPromo redeems a promo code for the caller.
// POST /api/promo-codes/redeem
func (s *Server) handleRedeemPromo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.ledger.EnsureWallet(r.Context(), userID(r)); err != nil {
		s.writeDomainError(w, err)
		return
	}
	entry, err := s.issuer.Redeem(r.Context(), req.Code, userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bonus": entry.Amount,
		"entry": entry,
	})
}

// handleReferralComplete fires the referral bonus when a referee completes
// verification. Idempotent per referee; a repeat completion is a no-op.
// POST /api/referrals/complete
func (s *Server) handleReferralComplete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReferrerID string `json:"referrer_id"`
		RefereeID  string `json:"referee_id"`
	}
	if err := decodeBody(r, &req); err != nil || req.ReferrerID == "" || req.RefereeID == "" {
		writeError(w, http.StatusBadRequest, "referrer_id and referee_id required")
		return
	}

	if _, err := s.ledger.EnsureWallet(r.Context(), req.ReferrerID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	granted, err := s.issuer.GrantReferralBonus(r.Context(), req.ReferrerID, req.RefereeID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"granted": granted,
	})
}

// ─── Promotion Request Handlers ─────────────────────────────────────────────

// handleRequestPromotion files a writer-promotion application for the caller.
// POST /api/promotion-requests
func (s *Server) handleRequestPromotion(w http.ResponseWriter, r *http.Request) {
	req, err := s.issuer.RequestPromotion(r.Context(), userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// handleListPromotions lists promotion requests. Admin only.
// GET /api/promotion-requests?status=pending
func (s *Server) handleListPromotions(w http.ResponseWriter, r *http.Request) {
	status := domain.PromotionStatus(r.URL.Query().Get("status"))
	reqs, err := s.issuer.ListPromotions(r.Context(), status)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requests": reqs,
	})
}

// handleReviewPromotion resolves a pending promotion request. Admin only.
// POST /api/promotion-requests/{id}/approve | /reject
func (s *Server) handleReviewPromotion(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Note string `json:"note"`
		}
		// Body is optional for approvals.
		decodeBody(r, &req)

		resolved, err := s.issuer.ReviewPromotion(r.Context(), chi.URLParam(r, "id"), approve, req.Note)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resolved)
	}
}
