package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/httpx"
	"github.com/louisbranch/teamfund/internal/platform/timeouts"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/mail"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

const (
	gmailStateCookie = "teamfund_gmail_state"
	gmailStateMaxAge = 600
	// notAuthenticated is the error clients check before sending the user
	// back through consent.
	notAuthenticated = "not_authenticated"
)

func (h *handlers) mailRedirectURI(r *http.Request) string {
	if h.mailRedirect != "" {
		return h.mailRedirect
	}
	return httpx.Origin(r) + GmailCallback
}

func (h *handlers) handleGmailAuth(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if h.mailAuth == nil {
		httpx.WriteError(w, r, notConfigured("Gmail not configured"), "Failed to start Gmail consent")
		return
	}
	state, err := h.newID()
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to start Gmail consent")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     gmailStateCookie,
		Value:    state,
		Path:     "/api/gmail",
		MaxAge:   gmailStateMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.mailAuth.AuthCodeURL(state, h.mailRedirectURI(r)), http.StatusFound)
}

func (h *handlers) handleGmailCallback(w http.ResponseWriter, r *http.Request, user domain.User) {
	redirect := func(params url.Values) {
		http.SetCookie(w, &http.Cookie{Name: gmailStateCookie, Path: "/api/gmail", MaxAge: -1, HttpOnly: true})
		http.Redirect(w, r, EmailDashboard+"?"+params.Encode(), http.StatusFound)
	}
	failed := url.Values{"error": {"auth_failed"}}

	query := r.URL.Query()
	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		redirect(url.Values{"error": {"no_code"}})
		return
	}
	if h.mailAuth == nil {
		redirect(failed)
		return
	}
	cookie, err := r.Cookie(gmailStateCookie)
	if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(query.Get("state"))) != 1 {
		log.Printf("gmail callback state mismatch user_id=%s", user.ID)
		redirect(failed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Outbound)
	defer cancel()
	grant, err := h.mailAuth.Exchange(ctx, code, h.mailRedirectURI(r))
	if err != nil {
		log.Printf("gmail code exchange failed user_id=%s err=%v", user.ID, err)
		redirect(failed)
		return
	}
	if err := h.storeGrant(ctx, user.ID, grant); err != nil {
		log.Printf("gmail grant store failed user_id=%s err=%v", user.ID, err)
		redirect(failed)
		return
	}
	redirect(url.Values{"connected": {"true"}})
}

func (h *handlers) handleGmailStatus(w http.ResponseWriter, r *http.Request, user domain.User) {
	connected := false
	if h.mailAuth != nil {
		grant, err := h.loadGrant(r.Context(), user.ID)
		switch {
		case err == nil:
			connected = grant.Usable()
		case errors.Is(err, storage.ErrNotFound):
		default:
			log.Printf("gmail status failed user_id=%s err=%v", user.ID, err)
		}
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}

func (h *handlers) handleGmailDisconnect(w http.ResponseWriter, r *http.Request, user domain.User) {
	if err := h.store.DeleteGmailGrant(r.Context(), user.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		httpx.WriteError(w, r, err, "Failed to disconnect Gmail")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *handlers) handleGmailInbox(w http.ResponseWriter, r *http.Request, user domain.User) {
	var maxResults int64 = mail.DefaultInboxSize
	if raw := strings.TrimSpace(r.URL.Query().Get("maxResults")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Invalid maxResults")
			return
		}
		maxResults = parsed
	}
	mailbox, ok := h.mailbox(w, r, user)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Outbound)
	defer cancel()
	page, err := mailbox.ListInbox(ctx, maxResults, r.URL.Query().Get("pageToken"))
	if err != nil {
		writeMailError(w, r, err, "Failed to fetch inbox")
		return
	}
	if page.Emails == nil {
		page.Emails = []mail.Email{}
	}
	_ = httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *handlers) handleGmailDraftsList(w http.ResponseWriter, r *http.Request, user domain.User) {
	mailbox, ok := h.mailbox(w, r, user)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Outbound)
	defer cancel()
	drafts, err := mailbox.ListDrafts(ctx)
	if err != nil {
		writeMailError(w, r, err, "Failed to fetch drafts")
		return
	}
	if drafts == nil {
		drafts = []mail.Draft{}
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

type composeRequest struct {
	To            string   `json:"to"`
	Subject       string   `json:"subject"`
	Body          string   `json:"body"`
	AttachmentIDs []string `json:"attachmentIds"`
}

type sendRequest struct {
	composeRequest
	DraftID         string `json:"draftId"`
	OutreachDraftID string `json:"outreachDraftId"`
}

func (h *handlers) handleGmailDraftsCreate(w http.ResponseWriter, r *http.Request, user domain.User, team domain.Team) {
	var req composeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid draft")
		return
	}
	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Subject) == "" {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Recipient and subject are required")
		return
	}
	raw, err := h.buildMessage(r.Context(), team.ID, req, req.AttachmentIDs)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to create draft")
		return
	}
	mailbox, ok := h.mailbox(w, r, user)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Outbound)
	defer cancel()
	draftID, err := mailbox.CreateDraft(ctx, raw)
	if err != nil {
		writeMailError(w, r, err, "Failed to create draft")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"draftId": draftID,
		"message": "Draft created for " + strings.TrimSpace(req.To),
	})
}

func (h *handlers) handleGmailSend(w http.ResponseWriter, r *http.Request, user domain.User, team domain.Team) {
	var req sendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid email")
		return
	}
	ctx := r.Context()
	draftID := strings.TrimSpace(req.DraftID)

	var outreachDraft *domain.OutreachDraft
	if id := strings.TrimSpace(req.OutreachDraftID); id != "" {
		draft, err := h.loadDraft(ctx, team.ID, id)
		if err != nil {
			httpx.WriteError(w, r, err, "Failed to send email")
			return
		}
		outreachDraft = &draft
	}

	var raw []byte
	if draftID == "" {
		if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Subject) == "" {
			_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Recipient and subject are required")
			return
		}
		attachmentIDs := req.AttachmentIDs
		if len(attachmentIDs) == 0 && outreachDraft != nil {
			attachmentIDs = outreachDraft.Attachments
		}
		var err error
		raw, err = h.buildMessage(ctx, team.ID, req.composeRequest, attachmentIDs)
		if err != nil {
			httpx.WriteError(w, r, err, "Failed to send email")
			return
		}
	}

	mailbox, ok := h.mailbox(w, r, user)
	if !ok {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeouts.Outbound)
	defer cancel()
	var (
		messageID string
		message   string
		err       error
	)
	if draftID != "" {
		messageID, err = mailbox.SendDraft(sendCtx, draftID)
		message = "Draft sent successfully"
	} else {
		messageID, err = mailbox.SendMessage(sendCtx, raw)
		message = "Email sent to " + strings.TrimSpace(req.To)
	}
	if err != nil {
		writeMailError(w, r, err, "Failed to send email")
		return
	}

	if outreachDraft != nil {
		h.markSent(ctx, team.ID, *outreachDraft)
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"messageId": messageID,
		"message":   message,
	})
}

// markSent records a delivered outreach draft. The email already went out,
// so failures are logged only.
func (h *handlers) markSent(ctx context.Context, teamID string, draft domain.OutreachDraft) {
	if err := h.store.UpdateDraftStatus(ctx, teamID, draft.ID, string(domain.DraftStatusSent)); err != nil {
		log.Printf("mark draft sent failed draft_id=%s err=%v", draft.ID, err)
	}
	if _, err := h.store.UpdateLeadStatus(ctx, teamID, []string{draft.LeadID}, string(domain.LeadStatusSent)); err != nil {
		log.Printf("mark lead sent failed lead_id=%s err=%v", draft.LeadID, err)
	}
}

func (h *handlers) buildMessage(ctx context.Context, teamID string, req composeRequest, attachmentIDs []string) ([]byte, error) {
	attachments, err := h.loadAttachments(ctx, teamID, attachmentIDs)
	if err != nil {
		return nil, err
	}
	raw, err := mail.Build(mail.Message{
		To:          strings.TrimSpace(req.To),
		Subject:     req.Subject,
		HTML:        req.Body,
		Attachments: attachments,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMailInvalid, "Invalid email", err)
	}
	return raw, nil
}

// mailbox opens the caller's mailbox. It answers 401 not_authenticated and
// returns false when no usable grant exists.
func (h *handlers) mailbox(w http.ResponseWriter, r *http.Request, user domain.User) (Mailbox, bool) {
	if h.mailAuth == nil {
		httpx.WriteError(w, r, notConfigured("Gmail not configured"), "Gmail not configured")
		return nil, false
	}
	ctx := r.Context()
	grant, err := h.loadGrant(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("gmail grant load failed user_id=%s err=%v", user.ID, err)
		}
		_ = httpx.WriteJSONError(w, http.StatusUnauthorized, notAuthenticated)
		return nil, false
	}
	if !grant.Usable() {
		_ = httpx.WriteJSONError(w, http.StatusUnauthorized, notAuthenticated)
		return nil, false
	}

	refreshCtx, cancel := context.WithTimeout(ctx, timeouts.Outbound)
	token, err := h.mailAuth.TokenSource(refreshCtx, grant).Token()
	cancel()
	if err != nil {
		log.Printf("gmail token refresh failed user_id=%s err=%v", user.ID, err)
		_ = httpx.WriteJSONError(w, http.StatusUnauthorized, notAuthenticated)
		return nil, false
	}
	if token.AccessToken != grant.AccessToken {
		refreshed := mail.GrantFromToken(token)
		if refreshed.RefreshToken == "" {
			refreshed.RefreshToken = grant.RefreshToken
		}
		if err := h.storeGrant(ctx, user.ID, refreshed); err != nil {
			log.Printf("gmail grant update failed user_id=%s err=%v", user.ID, err)
		}
	}

	mailbox, err := h.openMailbox(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to open mailbox")
		return nil, false
	}
	return mailbox, true
}

func (h *handlers) loadGrant(ctx context.Context, userID string) (mail.Grant, error) {
	row, err := h.store.GetGmailGrant(ctx, userID)
	if err != nil {
		return mail.Grant{}, err
	}
	plain, err := h.sealer.Open(row.TokenCiphertext)
	if err != nil {
		return mail.Grant{}, err
	}
	return mail.UnmarshalGrant([]byte(plain))
}

func (h *handlers) storeGrant(ctx context.Context, userID string, grant mail.Grant) error {
	data, err := mail.MarshalGrant(grant)
	if err != nil {
		return err
	}
	sealed, err := h.sealer.Seal(string(data))
	if err != nil {
		return err
	}
	return h.store.PutGmailGrant(ctx, storage.GmailGrantRow{UserID: userID, TokenCiphertext: sealed})
}

// writeMailError answers 401 when the provider rejected the credential and
// 500 otherwise, with message as the body.
func writeMailError(w http.ResponseWriter, r *http.Request, err error, message string) {
	log.Printf("gmail request failed path=%s request_id=%s err=%v", r.URL.Path, r.Header.Get(httpx.RequestIDHeader), err)
	status := http.StatusInternalServerError
	if mail.IsUnauthorized(err) {
		status = http.StatusUnauthorized
	}
	_ = httpx.WriteJSONError(w, status, message)
}
