package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/louisbranch/teamfund/internal/platform/timeouts"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/mail"
)

type fakeMailAuth struct {
	exchangeErr error
	refreshed   *oauth2.Token
	refreshErr  error
	redirectURI string
	// refreshDeadline is the time left on the refresh context.
	refreshDeadline time.Duration
}

func (f *fakeMailAuth) AuthCodeURL(state, redirectURI string) string {
	f.redirectURI = redirectURI
	return "https://accounts.test/auth?state=" + url.QueryEscape(state)
}

func (f *fakeMailAuth) Exchange(_ context.Context, code, redirectURI string) (mail.Grant, error) {
	f.redirectURI = redirectURI
	if f.exchangeErr != nil {
		return mail.Grant{}, f.exchangeErr
	}
	return mail.Grant{AccessToken: "access-" + code, RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}, nil
}

func (f *fakeMailAuth) TokenSource(ctx context.Context, grant mail.Grant) oauth2.TokenSource {
	return tokenSourceFunc(func() (*oauth2.Token, error) {
		f.refreshDeadline = 0
		if deadline, ok := ctx.Deadline(); ok {
			f.refreshDeadline = time.Until(deadline)
		}
		if f.refreshErr != nil {
			return nil, f.refreshErr
		}
		if f.refreshed != nil {
			return f.refreshed, nil
		}
		return grant.Token(), nil
	})
}

type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

type fakeMailbox struct {
	token     string
	raw       []byte
	sentDraft string
	err       error
}

func (f *fakeMailbox) ListInbox(_ context.Context, maxResults int64, pageToken string) (mail.InboxPage, error) {
	if f.err != nil {
		return mail.InboxPage{}, f.err
	}
	return mail.InboxPage{
		Emails:             []mail.Email{{ID: "m1", Subject: "Re: sponsorship", From: "owner@acme.test"}},
		NextPageToken:      "next",
		ResultSizeEstimate: maxResults,
	}, nil
}

func (f *fakeMailbox) ListDrafts(context.Context) ([]mail.Draft, error) {
	return nil, f.err
}

func (f *fakeMailbox) CreateDraft(_ context.Context, raw []byte) (string, error) {
	f.raw = raw
	return "draft-1", f.err
}

func (f *fakeMailbox) SendDraft(_ context.Context, draftID string) (string, error) {
	f.sentDraft = draftID
	return "msg-draft", f.err
}

func (f *fakeMailbox) SendMessage(_ context.Context, raw []byte) (string, error) {
	f.raw = raw
	return "msg-1", f.err
}

func newMailEnv(t *testing.T) (*testEnv, *fakeMailAuth, *fakeMailbox) {
	t.Helper()
	auth := &fakeMailAuth{}
	box := &fakeMailbox{}
	env := newTestEnv(t, func(cfg *Config) {
		cfg.MailAuth = auth
		cfg.OpenMailbox = func(ctx context.Context, ts oauth2.TokenSource) (Mailbox, error) {
			token, err := ts.Token()
			if err != nil {
				return nil, err
			}
			box.token = token.AccessToken
			return box, nil
		}
	})
	return env, auth, box
}

// connect runs the consent round trip and stores a grant.
func (e *testEnv) connect() {
	e.t.Helper()
	rec := e.do(http.MethodGet, GmailAuth, nil)
	if rec.Code != http.StatusFound {
		e.t.Fatalf("auth = %d, body = %s", rec.Code, rec.Body.String())
	}
	state := rec.Result().Cookies()[0].Value

	req := httptest.NewRequest(http.MethodGet, GmailCallback+"?code=abc&state="+url.QueryEscape(state), nil)
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.AddCookie(&http.Cookie{Name: gmailStateCookie, Value: state})
	cb := httptest.NewRecorder()
	e.handler.ServeHTTP(cb, req)
	if got := cb.Header().Get("Location"); got != EmailDashboard+"?connected=true" {
		e.t.Fatalf("callback location = %q", got)
	}
}

func TestGmailConsentFlow(t *testing.T) {
	env, auth, _ := newMailEnv(t)

	rec := env.do(http.MethodGet, GmailStatus, nil)
	if rec.Body.String() != "{\"connected\":false}\n" {
		t.Fatalf("status body = %s", rec.Body.String())
	}

	rec = env.do(http.MethodGet, GmailAuth, nil)
	if rec.Code != http.StatusFound || !strings.HasPrefix(rec.Header().Get("Location"), "https://accounts.test/auth?state=") {
		t.Fatalf("auth = %d, location = %q", rec.Code, rec.Header().Get("Location"))
	}
	if auth.redirectURI != "http://example.com"+GmailCallback {
		t.Fatalf("redirect uri = %q", auth.redirectURI)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != gmailStateCookie || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	env.connect()
	rec = env.do(http.MethodGet, GmailStatus, nil)
	if rec.Body.String() != "{\"connected\":true}\n" {
		t.Fatalf("status after connect = %s", rec.Body.String())
	}

	row, err := env.store.GetGmailGrant(context.Background(), testUser.ID)
	if err != nil {
		t.Fatalf("get grant: %v", err)
	}
	if strings.Contains(row.TokenCiphertext, "access-abc") {
		t.Fatal("grant stored in plaintext")
	}

	if rec := env.do(http.MethodPost, GmailDisconnect, nil); rec.Code != http.StatusOK {
		t.Fatalf("disconnect = %d", rec.Code)
	}
	rec = env.do(http.MethodGet, GmailStatus, nil)
	if rec.Body.String() != "{\"connected\":false}\n" {
		t.Fatalf("status after disconnect = %s", rec.Body.String())
	}
}

func TestGmailCallbackFailures(t *testing.T) {
	env, auth, _ := newMailEnv(t)
	callback := func(query string, cookie string) string {
		req := httptest.NewRequest(http.MethodGet, GmailCallback+query, nil)
		req.Header.Set("Authorization", "Bearer "+env.token)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: gmailStateCookie, Value: cookie})
		}
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec.Header().Get("Location")
	}

	if got := callback("", ""); got != EmailDashboard+"?error=no_code" {
		t.Fatalf("no code location = %q", got)
	}
	if got := callback("?code=abc&state=s1", "s2"); got != EmailDashboard+"?error=auth_failed" {
		t.Fatalf("state mismatch location = %q", got)
	}
	auth.exchangeErr = errors.New("invalid_grant")
	if got := callback("?code=abc&state=s1", "s1"); got != EmailDashboard+"?error=auth_failed" {
		t.Fatalf("exchange failure location = %q", got)
	}
}

func TestGmailRequiresGrant(t *testing.T) {
	env, auth, _ := newMailEnv(t)
	env.putTeam()

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, GmailInbox},
		{http.MethodGet, GmailDrafts},
		{http.MethodPost, GmailSend},
	} {
		rec := env.do(tc.method, tc.target, map[string]string{"to": "a@b.test", "subject": "Hi", "body": "x"})
		if rec.Code != http.StatusUnauthorized || errorMessage(t, rec) != notAuthenticated {
			t.Fatalf("%s %s = %d, body = %s", tc.method, tc.target, rec.Code, rec.Body.String())
		}
	}

	env.connect()
	auth.refreshErr = &oauth2.RetrieveError{Response: &http.Response{StatusCode: http.StatusBadRequest}}
	rec := env.do(http.MethodGet, GmailInbox, nil)
	if rec.Code != http.StatusUnauthorized || errorMessage(t, rec) != notAuthenticated {
		t.Fatalf("refresh failure = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGmailInboxRefreshesGrant(t *testing.T) {
	env, auth, box := newMailEnv(t)
	env.connect()
	auth.refreshed = &oauth2.Token{AccessToken: "fresh", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}

	rec := env.do(http.MethodGet, GmailInbox+"?maxResults=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("inbox = %d, body = %s", rec.Code, rec.Body.String())
	}
	page := decode[mail.InboxPage](t, rec)
	if len(page.Emails) != 1 || page.NextPageToken != "next" || page.ResultSizeEstimate != 5 {
		t.Fatalf("page = %+v", page)
	}
	if box.token != "fresh" {
		t.Fatalf("mailbox token = %q, want fresh", box.token)
	}
	if auth.refreshDeadline <= 0 || auth.refreshDeadline > timeouts.Outbound {
		t.Fatalf("refresh deadline = %v, want within %v", auth.refreshDeadline, timeouts.Outbound)
	}

	auth.refreshed = nil
	grant, err := env.handlerGrant()
	if err != nil {
		t.Fatalf("load grant: %v", err)
	}
	if grant.AccessToken != "fresh" || grant.RefreshToken != "refresh" {
		t.Fatalf("stored grant = %+v", grant)
	}

	box.err = &googleapi.Error{Code: http.StatusUnauthorized}
	rec = env.do(http.MethodGet, GmailInbox, nil)
	if rec.Code != http.StatusUnauthorized || errorMessage(t, rec) != "Failed to fetch inbox" {
		t.Fatalf("provider 401 = %d, body = %s", rec.Code, rec.Body.String())
	}
	box.err = errors.New("backend down")
	rec = env.do(http.MethodGet, GmailDrafts, nil)
	if rec.Code != http.StatusInternalServerError || errorMessage(t, rec) != "Failed to fetch drafts" {
		t.Fatalf("provider failure = %d, body = %s", rec.Code, rec.Body.String())
	}
}

// handlerGrant opens the stored grant with the env's sealer.
func (e *testEnv) handlerGrant() (mail.Grant, error) {
	row, err := e.store.GetGmailGrant(context.Background(), testUser.ID)
	if err != nil {
		return mail.Grant{}, err
	}
	plain, err := e.sealer.Open(row.TokenCiphertext)
	if err != nil {
		return mail.Grant{}, err
	}
	return mail.UnmarshalGrant([]byte(plain))
}

func TestGmailSendMarksOutreachSent(t *testing.T) {
	env, _, box := newMailEnv(t)
	env.putTeam()
	env.connect()
	lead := env.addLeads("acme")[0]
	draft := decode[draftResponse](t, env.do(http.MethodPost, OutreachGenerate, map[string]string{"leadId": lead.ID})).Draft
	if rec := env.do(http.MethodPost, AssetsProposal, map[string]string{"draftId": draft.ID}); rec.Code != http.StatusCreated {
		t.Fatalf("proposal = %d", rec.Code)
	}

	rec := env.do(http.MethodPost, GmailSend, map[string]string{
		"to":              "owner@acme.test",
		"subject":         draft.EmailSubject,
		"body":            draft.EmailBody,
		"outreachDraftId": draft.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("send = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[map[string]any](t, rec)
	if resp["messageId"] != "msg-1" || resp["message"] != "Email sent to owner@acme.test" {
		t.Fatalf("response = %v", resp)
	}
	raw := string(box.raw)
	if !strings.Contains(raw, "multipart/mixed") || !strings.Contains(raw, "Sponsorship Proposal - Rockets x acme.html") {
		t.Fatalf("raw message missing proposal attachment:\n%s", raw)
	}

	drafts := decode[struct {
		Drafts []domain.OutreachDraft `json:"drafts"`
	}](t, env.do(http.MethodGet, Outreach, nil))
	if drafts.Drafts[0].Status != domain.DraftStatusSent {
		t.Fatalf("draft status = %s, want sent", drafts.Drafts[0].Status)
	}
	page := decode[domain.LeadPage](t, env.do(http.MethodGet, Leads, nil))
	if page.Leads[0].Status != domain.LeadStatusSent {
		t.Fatalf("lead status = %s, want sent", page.Leads[0].Status)
	}
}

func TestGmailSendDraftAndCreateDraft(t *testing.T) {
	env, _, box := newMailEnv(t)
	env.putTeam()
	env.connect()

	rec := env.do(http.MethodPost, GmailSend, map[string]string{"draftId": "d-9"})
	if rec.Code != http.StatusOK || box.sentDraft != "d-9" {
		t.Fatalf("send draft = %d, sent %q", rec.Code, box.sentDraft)
	}
	if got := decode[map[string]any](t, rec)["message"]; got != "Draft sent successfully" {
		t.Fatalf("message = %v", got)
	}

	rec = env.do(http.MethodPost, GmailDrafts, map[string]string{"to": "owner@acme.test", "subject": "Hello", "body": "<p>Hi</p>"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create draft = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[map[string]any](t, rec)
	if resp["draftId"] != "draft-1" || resp["message"] != "Draft created for owner@acme.test" {
		t.Fatalf("response = %v", resp)
	}

	rec = env.do(http.MethodPost, GmailDrafts, map[string]string{"to": "owner@acme.test\r\nBcc: x@y.test", "subject": "Hello"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("header injection = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	rec = env.do(http.MethodPost, GmailSend, map[string]any{"to": "owner@acme.test", "subject": "Hi", "attachmentIds": []string{"missing"}})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing attachment = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
