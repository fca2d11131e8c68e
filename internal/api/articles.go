package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkwell-network/inkwell/internal/domain"
)

// ─── Article Lifecycle Handlers ─────────────────────────────────────────────

type articleRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// handleCreateArticle saves a new draft.
// POST /api/articles
func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.lifecycle.Create(r.Context(), userID(r), req.Title, req.Description, req.Content)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// handleGetArticle returns an article.
// GET /api/articles/{id}
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := s.lifecycle.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleUpdateArticle edits a draft or rejected article. Editing a rejected
// article implicitly moves it back to draft.
// PUT /api/articles/{id}
func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.lifecycle.Update(r.Context(), chi.URLParam(r, "id"), userID(r),
		req.Title, req.Description, req.Content)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleRequestPublish triggers draft→pending with the fee debit.
// POST /api/articles/{slug}/request-publish
func (s *Server) handleRequestPublish(w http.ResponseWriter, r *http.Request) {
	a, entry, err := s.lifecycle.RequestPublish(r.Context(), chi.URLParam(r, "slug"), userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	wallet, err := s.ledger.Wallet(r.Context(), userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"article":     a,
		"fee_charged": -entry.Amount,
		"new_balance": wallet.Balance,
	})
}

// handleApprove triggers pending→published. Admin only.
// POST /api/articles/{id}/approve
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	a, err := s.lifecycle.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleReject triggers pending→rejected with the half-fee refund. Admin only.
// POST /api/articles/{id}/reject
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.lifecycle.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleArticleStats returns the derived reader/reward projection.
// GET /api/articles/{id}/stats
func (s *Server) handleArticleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.lifecycle.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleReaction toggles a like/bookmark and returns the new state. The
// server's answer is authoritative, not the client's optimistic flag.
// POST /api/articles/{id}/like | /bookmark
func (s *Server) handleReaction(kind domain.ReactionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active, err := s.lifecycle.ToggleReaction(r.Context(), chi.URLParam(r, "id"), userID(r), kind)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"kind":   kind,
			"active": active,
		})
	}
}

// ─── Reading & Reward Handlers ──────────────────────────────────────────────

// handleReadingStart starts or resumes the caller's session on an article.
// POST /api/articles/{id}/reading/start
func (s *Server) handleReadingStart(w http.ResponseWriter, r *http.Request) {
	session, err := s.tracker.StartOrResume(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleReadingHeartbeat reports elapsed reading seconds for the caller's
// session on an article.
// POST /api/articles/{id}/reading/heartbeat
func (s *Server) handleReadingHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ElapsedSeconds int64 `json:"elapsed_seconds"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := s.tracker.Session(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	session, err = s.tracker.Heartbeat(r.Context(), session.ID, req.ElapsedSeconds)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	eligible, err := s.tracker.IsEligible(r.Context(), session.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":  session,
		"eligible": eligible,
	})
}

// handleCollectReward pays the caller for a qualifying read. At most once
// per (article, reader), ever.
// POST /api/articles/{id}/collect-reward
func (s *Server) handleCollectReward(w http.ResponseWriter, r *http.Request) {
	payout, err := s.collector.Collect(r.Context(), chi.URLParam(r, "id"), userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reward_points": payout.RewardPoints,
		"amount":        payout.Amount,
	})
}
