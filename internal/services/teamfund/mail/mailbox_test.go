package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type fakeGmail struct {
	t        *testing.T
	sentRaw  string
	sentID   string
	unauthed bool
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if got := r.Header.Get("Authorization"); got != "Bearer at" {
		f.t.Errorf("authorization = %q, want Bearer at", got)
	}
	if f.unauthed {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	path := strings.TrimPrefix(r.URL.Path, "/gmail/v1/users/me")
	switch {
	case r.Method == http.MethodGet && path == "/messages":
		if got := r.URL.Query().Get("labelIds"); got != "INBOX" {
			f.t.Errorf("labelIds = %q, want INBOX", got)
		}
		if got := r.URL.Query().Get("maxResults"); got != "20" {
			f.t.Errorf("maxResults = %q, want 20", got)
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"m1"}],"nextPageToken":"p2","resultSizeEstimate":42}`))
	case r.Method == http.MethodGet && path == "/messages/m1":
		writeJSON(w, map[string]any{
			"id": "m1", "threadId": "t1", "snippet": "hi", "labelIds": []string{"INBOX", "UNREAD"},
			"payload": map[string]any{
				"headers": []map[string]string{{"name": "From", "value": "shop@example.com"}, {"name": "Subject", "value": "Re: Sponsorship"}},
				"body":    map[string]string{"data": EncodeRaw([]byte("<p>Yes!</p>"))},
			},
		})
	case r.Method == http.MethodGet && path == "/drafts":
		if got := r.URL.Query().Get("maxResults"); got != "20" {
			f.t.Errorf("draft maxResults = %q, want 20", got)
		}
		_, _ = w.Write([]byte(`{"drafts":[{"id":"d1"}]}`))
	case r.Method == http.MethodGet && path == "/drafts/d1":
		writeJSON(w, map[string]any{
			"id": "d1",
			"message": map[string]any{
				"id": "m9", "snippet": "draft",
				"payload": map[string]any{
					"headers": []map[string]string{{"name": "to", "value": "shop@example.com"}},
					"body":    map[string]string{"data": EncodeRaw([]byte("draft body"))},
				},
			},
		})
	case r.Method == http.MethodPost && path == "/drafts":
		var body struct {
			Message struct {
				Raw string `json:"raw"`
			} `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.sentRaw = body.Message.Raw
		_, _ = w.Write([]byte(`{"id":"d2"}`))
	case r.Method == http.MethodPost && path == "/drafts/send":
		var body struct {
			ID string `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.sentID = body.ID
		_, _ = w.Write([]byte(`{"id":"sent-1"}`))
	case r.Method == http.MethodPost && path == "/messages/send":
		var body struct {
			Raw string `json:"raw"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.sentRaw = body.Raw
		_, _ = w.Write([]byte(`{"id":"sent-2"}`))
	default:
		f.t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

func newTestMailbox(t *testing.T, fake *fakeGmail) *Mailbox {
	t.Helper()
	fake.t = t
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	mailbox, err := NewMailbox(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "at"}), option.WithEndpoint(server.URL+"/"))
	if err != nil {
		t.Fatalf("new mailbox: %v", err)
	}
	return mailbox
}

func TestListInbox(t *testing.T) {
	mailbox := newTestMailbox(t, &fakeGmail{})
	page, err := mailbox.ListInbox(context.Background(), 0, "")
	if err != nil {
		t.Fatalf("list inbox: %v", err)
	}
	if page.NextPageToken != "p2" || page.ResultSizeEstimate != 42 {
		t.Fatalf("page = %+v", page)
	}
	if len(page.Emails) != 1 {
		t.Fatalf("emails = %d, want 1", len(page.Emails))
	}
	email := page.Emails[0]
	if email.From != "shop@example.com" || email.Subject != "Re: Sponsorship" || email.Body != "<p>Yes!</p>" {
		t.Fatalf("email = %+v", email)
	}
	if !email.IsUnread {
		t.Fatal("email not marked unread")
	}
}

func TestListDrafts(t *testing.T) {
	mailbox := newTestMailbox(t, &fakeGmail{})
	drafts, err := mailbox.ListDrafts(context.Background())
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != "d1" || drafts[0].MessageID != "m9" || drafts[0].To != "shop@example.com" || drafts[0].Body != "draft body" {
		t.Fatalf("drafts = %+v", drafts)
	}
}

func TestCreateAndSend(t *testing.T) {
	fake := &fakeGmail{}
	mailbox := newTestMailbox(t, fake)
	raw := []byte("To: a@example.com\r\n\r\nhello")

	id, err := mailbox.CreateDraft(context.Background(), raw)
	if err != nil || id != "d2" {
		t.Fatalf("create draft = %q, %v", id, err)
	}
	if fake.sentRaw != EncodeRaw(raw) {
		t.Fatalf("draft raw = %q", fake.sentRaw)
	}

	id, err = mailbox.SendDraft(context.Background(), "d2")
	if err != nil || id != "sent-1" || fake.sentID != "d2" {
		t.Fatalf("send draft = %q, %v (sent id %q)", id, err, fake.sentID)
	}

	id, err = mailbox.SendMessage(context.Background(), raw)
	if err != nil || id != "sent-2" {
		t.Fatalf("send message = %q, %v", id, err)
	}
}

func TestUnauthorizedResponse(t *testing.T) {
	mailbox := newTestMailbox(t, &fakeGmail{unauthed: true})
	_, err := mailbox.ListInbox(context.Background(), 5, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsUnauthorized(err) {
		t.Fatalf("IsUnauthorized(%v) = false, want true", err)
	}
}
