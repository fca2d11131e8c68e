// Package lifecycle owns the article publication state machine:
//
//	draft → pending → published
//	            ↓
//	        rejected → draft (implicit, on edit)
//
// Every transition that touches money shares a transaction with the status
// flip, so a failed debit or credit never leaves a half-applied transition.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inkwell-network/inkwell/internal/domain"
	"github.com/inkwell-network/inkwell/internal/infra/observability"
	"github.com/inkwell-network/inkwell/internal/infra/sqlite"
)

// Config holds the lifecycle fee schedule.
type Config struct {
	PublishFee   domain.Money // debited on draft→pending
	RejectRefund domain.Money // credited back on pending→rejected
}

// DefaultConfig returns the standard fee schedule: ₹150 to publish,
// half (₹75) refunded on rejection.
func DefaultConfig() Config {
	return Config{
		PublishFee:   domain.Rupees(150),
		RejectRefund: domain.Rupees(75),
	}
}

// Controller orchestrates article transitions against the ledger.
type Controller struct {
	db      *sqlite.DB
	cfg     Config
	log     zerolog.Logger
	metrics *observability.Metrics
}

// New creates the lifecycle controller. metrics may be nil.
func New(db *sqlite.DB, cfg Config, log zerolog.Logger, metrics *observability.Metrics) *Controller {
	return &Controller{
		db:      db,
		cfg:     cfg,
		log:     log.With().Str("component", "lifecycle").Logger(),
		metrics: metrics,
	}
}

// Create saves a new draft for the author. No fee at this stage; the draft
// state doubles as the cheap periodic save target for clients.
func (c *Controller) Create(ctx context.Context, authorID, title, description, content string) (*domain.Article, error) {
	nowT := time.Now().UTC()
	a := &domain.Article{
		ID:          uuid.New().String(),
		Slug:        Slugify(title) + "-" + uuid.New().String()[:8],
		AuthorID:    authorID,
		Title:       title,
		Description: description,
		Content:     content,
		WordCount:   domain.CountWords(content),
		Status:      domain.StatusDraft,
		CreatedAt:   nowT,
		UpdatedAt:   nowT,
	}
	if err := c.db.InsertArticle(a); err != nil {
		return nil, err
	}
	c.log.Info().Str("article", a.ID).Str("author", authorID).Msg("draft created")
	return a, nil
}

// Get returns an article by ID.
func (c *Controller) Get(ctx context.Context, id string) (*domain.Article, error) {
	return c.db.GetArticle(id)
}

// GetBySlug returns an article by slug.
func (c *Controller) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	return c.db.GetArticleBySlug(slug)
}

// ListByAuthor returns the author's articles.
func (c *Controller) ListByAuthor(ctx context.Context, authorID string) ([]domain.Article, error) {
	return c.db.ListArticlesByAuthor(authorID)
}

// Update edits article content. Legal only in draft and rejected; editing a
// rejected article is the implicit rejected→draft transition, which resets
// the fee flag so the next publish request charges again.
func (c *Controller) Update(ctx context.Context, id, callerID, title, description, content string) (*domain.Article, error) {
	a, err := c.db.GetArticle(id)
	if err != nil {
		return nil, err
	}
	if a.AuthorID != callerID {
		return nil, domain.ErrNotAuthor
	}
	if !a.Editable() {
		return nil, domain.ErrInvalidState
	}

	a.Title = title
	a.Description = description
	a.Content = content
	a.WordCount = domain.CountWords(content)
	if err := c.db.UpdateArticleContent(a); err != nil {
		return nil, err
	}
	return c.db.GetArticle(id)
}

// RequestPublish performs draft→pending: validates the content guards, then
// debits the publish fee and flips the status in one transaction. On
// InsufficientBalance the article stays draft and the balance is untouched.
func (c *Controller) RequestPublish(ctx context.Context, slug, callerID string) (*domain.Article, *domain.LedgerEntry, error) {
	a, err := c.db.GetArticleBySlug(slug)
	if err != nil {
		return nil, nil, err
	}
	if a.AuthorID != callerID {
		return nil, nil, domain.ErrNotAuthor
	}
	if !a.Editable() {
		return nil, nil, domain.ErrInvalidState
	}
	if err := a.ValidateForPublish(); err != nil {
		return nil, nil, err
	}

	entry, err := c.db.RequestPublish(a.ID, a.AuthorID, c.cfg.PublishFee)
	if err != nil {
		return nil, nil, err
	}
	c.observe(domain.StatusPending)
	c.log.Info().Str("article", a.ID).Stringer("fee", c.cfg.PublishFee).Msg("publish requested")

	a, err = c.db.GetArticle(a.ID)
	return a, entry, err
}

// Approve performs pending→published. Admin only (enforced at the API
// boundary). No further fee.
func (c *Controller) Approve(ctx context.Context, id string) (*domain.Article, error) {
	if err := c.db.ApproveArticle(id); err != nil {
		return nil, err
	}
	c.observe(domain.StatusPublished)
	c.log.Info().Str("article", id).Msg("approved")
	return c.db.GetArticle(id)
}

// Reject performs pending→rejected with a mandatory reason. The half-fee
// refund and the rejection are applied together or not at all.
func (c *Controller) Reject(ctx context.Context, id, reason string) (*domain.Article, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.ErrReasonRequired
	}
	a, err := c.db.GetArticle(id)
	if err != nil {
		return nil, err
	}
	if _, err := c.db.RejectArticle(a.ID, a.AuthorID, reason, c.cfg.RejectRefund); err != nil {
		return nil, err
	}
	c.observe(domain.StatusRejected)
	c.log.Info().Str("article", id).Str("reason", reason).
		Stringer("refund", c.cfg.RejectRefund).Msg("rejected")
	return c.db.GetArticle(id)
}

// ToggleReaction flips a like/bookmark and returns the authoritative state.
func (c *Controller) ToggleReaction(ctx context.Context, articleID, userID string, kind domain.ReactionKind) (bool, error) {
	if _, err := c.db.GetArticle(articleID); err != nil {
		return false, err
	}
	return c.db.ToggleReaction(articleID, userID, kind)
}

// Stats returns the derived projection for an article.
func (c *Controller) Stats(ctx context.Context, articleID string) (*domain.ArticleStats, error) {
	if _, err := c.db.GetArticle(articleID); err != nil {
		return nil, err
	}
	return c.db.ArticleStats(articleID)
}

func (c *Controller) observe(to domain.ArticleStatus) {
	if c.metrics != nil {
		c.metrics.Transitions.WithLabelValues(string(to)).Inc()
	}
}

// Slugify lowercases a title and collapses non-alphanumerics to hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}
