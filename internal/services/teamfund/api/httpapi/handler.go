// Package httpapi serves the TeamFund JSON API and the donation landing
// pages.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/httpx"
	"github.com/louisbranch/teamfund/internal/platform/id"
	"github.com/louisbranch/teamfund/internal/platform/requestctx"
	"github.com/louisbranch/teamfund/internal/platform/secret"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/integration/imagegen"
	"github.com/louisbranch/teamfund/internal/services/teamfund/mail"
	"github.com/louisbranch/teamfund/internal/services/teamfund/outreach"
	"github.com/louisbranch/teamfund/internal/services/teamfund/session"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

// DefaultMaxUploadBytes bounds multipart asset uploads.
const DefaultMaxUploadBytes = 10 << 20

// SessionVerifier resolves the signed-in user of a request.
type SessionVerifier interface {
	UserFromRequest(r *http.Request) (domain.User, error)
}

// PlaceDiscoverer finds nearby businesses for a ZIP code.
type PlaceDiscoverer interface {
	Discover(ctx context.Context, zip, audience string, limit int) ([]domain.LeadDraft, error)
}

// PlaceScraper runs the maps scraper and returns raw dataset items.
type PlaceScraper interface {
	Run(ctx context.Context, overrides map[string]any) ([]gjson.Result, error)
}

// LeadResearcher asks a research model for sponsor candidates.
type LeadResearcher interface {
	ResearchLeads(ctx context.Context, sport, location string) ([]domain.LeadDraft, error)
}

// OutreachGenerator writes the email and proposal text for a lead.
type OutreachGenerator interface {
	Generate(ctx context.Context, team domain.Team, lead domain.Lead) (outreach.Content, error)
}

// MockupGenerator renders jersey mockups.
type MockupGenerator interface {
	GenerateMockup(ctx context.Context, req imagegen.MockupRequest) (imagegen.Image, error)
}

// MailAuthorizer runs the mail consent flow.
type MailAuthorizer interface {
	AuthCodeURL(state, redirectURI string) string
	Exchange(ctx context.Context, code, redirectURI string) (mail.Grant, error)
	TokenSource(ctx context.Context, grant mail.Grant) oauth2.TokenSource
}

// Mailbox is the per-user mail surface used by the handlers.
type Mailbox interface {
	ListInbox(ctx context.Context, maxResults int64, pageToken string) (mail.InboxPage, error)
	ListDrafts(ctx context.Context) ([]mail.Draft, error)
	CreateDraft(ctx context.Context, raw []byte) (string, error)
	SendDraft(ctx context.Context, draftID string) (string, error)
	SendMessage(ctx context.Context, raw []byte) (string, error)
}

// MailboxOpener builds a mailbox authorized by ts.
type MailboxOpener func(ctx context.Context, ts oauth2.TokenSource) (Mailbox, error)

// Payments creates checkouts and verifies payment webhooks.
type Payments interface {
	CreateCheckout(ctx context.Context, req domain.CheckoutRequest, origin string) (string, error)
	ParseWebhook(payload []byte, signature string) (*domain.Donation, error)
}

// Config wires the API dependencies. Optional integrations left nil answer
// with a not-configured error.
type Config struct {
	Store    storage.Store
	Sessions SessionVerifier
	// Sealer protects stored mail grants.
	Sealer secret.Sealer

	Discoverer PlaceDiscoverer
	Scraper    PlaceScraper
	Researcher LeadResearcher
	// Outreach defaults to the template generator.
	Outreach OutreachGenerator
	Mockups  MockupGenerator

	MailAuth    MailAuthorizer
	OpenMailbox MailboxOpener
	// MailRedirectURI overrides the callback derived from the request
	// origin.
	MailRedirectURI string

	Payments Payments

	MaxUploadBytes int64
	Now            func() time.Time
	NewID          func() (string, error)
}

type handlers struct {
	store          storage.Store
	sessions       SessionVerifier
	sealer         secret.Sealer
	discoverer     PlaceDiscoverer
	scraper        PlaceScraper
	researcher     LeadResearcher
	outreach       OutreachGenerator
	mockups        MockupGenerator
	mailAuth       MailAuthorizer
	openMailbox    MailboxOpener
	mailRedirect   string
	payments       Payments
	maxUploadBytes int64
	now            func() time.Time
	newID          func() (string, error)
}

// NewHandler builds the API handler wrapped in the standard middleware.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session verifier is required")
	}
	if cfg.MailAuth != nil && cfg.Sealer == nil {
		return nil, fmt.Errorf("sealer is required when mail is configured")
	}
	h := &handlers{
		store:          cfg.Store,
		sessions:       cfg.Sessions,
		sealer:         cfg.Sealer,
		discoverer:     cfg.Discoverer,
		scraper:        cfg.Scraper,
		researcher:     cfg.Researcher,
		outreach:       cfg.Outreach,
		mockups:        cfg.Mockups,
		mailAuth:       cfg.MailAuth,
		openMailbox:    cfg.OpenMailbox,
		mailRedirect:   cfg.MailRedirectURI,
		payments:       cfg.Payments,
		maxUploadBytes: cfg.MaxUploadBytes,
		now:            cfg.Now,
		newID:          cfg.NewID,
	}
	if h.outreach == nil {
		h.outreach = outreach.NewGenerator(nil)
	}
	if h.openMailbox == nil {
		h.openMailbox = func(ctx context.Context, ts oauth2.TokenSource) (Mailbox, error) {
			return mail.NewMailbox(ctx, ts)
		}
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = DefaultMaxUploadBytes
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newID == nil {
		h.newID = id.NewID
	}

	mux := http.NewServeMux()
	registerRoutes(mux, h)
	return httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.RequestLogger(),
	), nil
}

type userHandler func(w http.ResponseWriter, r *http.Request, user domain.User)

type teamHandler func(w http.ResponseWriter, r *http.Request, user domain.User, team domain.Team)

// authed resolves the session user or answers 401.
func (h *handlers) authed(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.sessions.UserFromRequest(r)
		if err != nil {
			httpx.WriteError(w, r, err, "Unauthorized")
			return
		}
		r = r.WithContext(session.WithUser(r.Context(), user))
		next(w, r, user)
	}
}

// withTeam additionally loads the caller's team or answers 404.
func (h *handlers) withTeam(next teamHandler) http.HandlerFunc {
	return h.authed(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		team, err := h.loadTeam(r.Context(), user.ID)
		if err != nil {
			httpx.WriteError(w, r, err, "Failed to load team")
			return
		}
		r = r.WithContext(requestctx.WithTeamID(r.Context(), team.ID))
		next(w, r, user, team)
	})
}

func (h *handlers) loadTeam(ctx context.Context, userID string) (domain.Team, error) {
	row, err := h.store.GetTeamByUser(ctx, userID)
	if err != nil {
		return domain.Team{}, storeError(err, apperrors.CodeTeamNotFound, "Team not found")
	}
	return storage.TeamFromRow(row), nil
}

// storeError maps storage sentinels to domain errors carrying code and
// message for the not-found case.
func storeError(err error, notFound apperrors.Code, message string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(notFound, message, err)
	case errors.Is(err, storage.ErrConflict):
		return apperrors.Wrap(apperrors.CodeInvalidInput, "Conflicting update", err)
	default:
		return err
	}
}

func notConfigured(message string) error {
	return apperrors.New(apperrors.CodeNotConfigured, message)
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if pinger, ok := h.store.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(r.Context()); err != nil {
			_ = httpx.WriteJSONError(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
