package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/louisbranch/teamfund/internal/platform/otel"
)

const (
	me = "me"
	// DefaultInboxSize is used when the caller does not ask for a page size.
	DefaultInboxSize = 20
	// MaxDrafts caps the draft listing.
	MaxDrafts = 20
)

// Email is a fetched inbox message.
type Email struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	Snippet  string   `json:"snippet"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Subject  string   `json:"subject"`
	Date     string   `json:"date"`
	Body     string   `json:"body"`
	LabelIDs []string `json:"labelIds"`
	IsUnread bool     `json:"isUnread"`
}

// InboxPage is one page of the inbox.
type InboxPage struct {
	Emails             []Email `json:"emails"`
	NextPageToken      string  `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int64   `json:"resultSizeEstimate"`
}

// Draft is a provider-side draft.
type Draft struct {
	ID        string `json:"id"`
	MessageID string `json:"messageId"`
	To        string `json:"to"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Body      string `json:"body"`
	Snippet   string `json:"snippet"`
}

// Mailbox performs Gmail calls for one user.
type Mailbox struct {
	svc *gmail.Service
}

// NewMailbox builds a mailbox authorized by ts. Extra options are appended,
// which lets tests point the service at a local endpoint.
func NewMailbox(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*Mailbox, error) {
	base := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	svc, err := gmail.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &Mailbox{svc: svc}, nil
}

// ListInbox lists one page of INBOX messages with their parsed headers and
// bodies. A maxResults <= 0 uses DefaultInboxSize.
func (m *Mailbox) ListInbox(ctx context.Context, maxResults int64, pageToken string) (InboxPage, error) {
	ctx, span := otel.Tracer("teamfund/mail").Start(ctx, "mail.ListInbox")
	defer span.End()
	if maxResults <= 0 {
		maxResults = DefaultInboxSize
	}
	call := m.svc.Users.Messages.List(me).LabelIds("INBOX").MaxResults(maxResults).Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	list, err := call.Do()
	if err != nil {
		return InboxPage{}, fmt.Errorf("list messages: %w", err)
	}

	page := InboxPage{
		Emails:             make([]Email, 0, len(list.Messages)),
		NextPageToken:      list.NextPageToken,
		ResultSizeEstimate: list.ResultSizeEstimate,
	}
	for _, ref := range list.Messages {
		msg, err := m.svc.Users.Messages.Get(me, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return InboxPage{}, fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		page.Emails = append(page.Emails, emailFromMessage(msg))
	}
	span.SetAttributes(attribute.Int("mail.messages", len(page.Emails)))
	return page, nil
}

func emailFromMessage(msg *gmail.Message) Email {
	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}
	labels := msg.LabelIds
	if labels == nil {
		labels = []string{}
	}
	return Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		From:     Header(headers, "From"),
		To:       Header(headers, "To"),
		Subject:  Header(headers, "Subject"),
		Date:     Header(headers, "Date"),
		Body:     ExtractBody(msg.Payload),
		LabelIDs: labels,
		IsUnread: slices.Contains(labels, "UNREAD"),
	}
}

// ListDrafts returns up to MaxDrafts drafts with their parsed content.
func (m *Mailbox) ListDrafts(ctx context.Context) ([]Draft, error) {
	ctx, span := otel.Tracer("teamfund/mail").Start(ctx, "mail.ListDrafts")
	defer span.End()
	list, err := m.svc.Users.Drafts.List(me).MaxResults(MaxDrafts).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	drafts := make([]Draft, 0, len(list.Drafts))
	for _, ref := range list.Drafts {
		detail, err := m.svc.Users.Drafts.Get(me, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get draft %s: %w", ref.Id, err)
		}
		draft := Draft{ID: detail.Id}
		if msg := detail.Message; msg != nil {
			var headers []*gmail.MessagePartHeader
			if msg.Payload != nil {
				headers = msg.Payload.Headers
			}
			draft.MessageID = msg.Id
			draft.To = Header(headers, "To")
			draft.From = Header(headers, "From")
			draft.Subject = Header(headers, "Subject")
			draft.Date = Header(headers, "Date")
			draft.Body = ExtractBody(msg.Payload)
			draft.Snippet = msg.Snippet
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// CreateDraft stores raw message bytes as a draft and returns its id.
func (m *Mailbox) CreateDraft(ctx context.Context, raw []byte) (string, error) {
	ctx, span := otel.Tracer("teamfund/mail").Start(ctx, "mail.CreateDraft")
	defer span.End()
	draft, err := m.svc.Users.Drafts.Create(me, &gmail.Draft{Message: &gmail.Message{Raw: EncodeRaw(raw)}}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}
	return draft.Id, nil
}

// SendDraft sends an existing draft and returns the sent message id.
func (m *Mailbox) SendDraft(ctx context.Context, draftID string) (string, error) {
	ctx, span := otel.Tracer("teamfund/mail").Start(ctx, "mail.SendDraft")
	defer span.End()
	msg, err := m.svc.Users.Drafts.Send(me, &gmail.Draft{Id: draftID}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("send draft: %w", err)
	}
	return msg.Id, nil
}

// SendMessage sends raw message bytes and returns the message id.
func (m *Mailbox) SendMessage(ctx context.Context, raw []byte) (string, error) {
	ctx, span := otel.Tracer("teamfund/mail").Start(ctx, "mail.SendMessage")
	defer span.End()
	msg, err := m.svc.Users.Messages.Send(me, &gmail.Message{Raw: EncodeRaw(raw)}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return msg.Id, nil
}

// IsUnauthorized reports whether err came from a rejected credential, either
// a 401 from the API or a failed token refresh.
func IsUnauthorized(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized
	}
	var retrieveErr *oauth2.RetrieveError
	return errors.As(err, &retrieveErr)
}
