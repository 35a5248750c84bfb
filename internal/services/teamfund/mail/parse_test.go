package mail

import (
	"testing"

	"google.golang.org/api/gmail/v1"
)

func b64(s string) *gmail.MessagePartBody {
	return &gmail.MessagePartBody{Data: EncodeRaw([]byte(s))}
}

func TestHeaderIgnoresCase(t *testing.T) {
	headers := []*gmail.MessagePartHeader{
		{Name: "subject", Value: "Hello"},
		{Name: "From", Value: "coach@example.com"},
	}
	if got := Header(headers, "Subject"); got != "Hello" {
		t.Fatalf("Subject = %q, want Hello", got)
	}
	if got := Header(headers, "FROM"); got != "coach@example.com" {
		t.Fatalf("From = %q", got)
	}
	if got := Header(headers, "Date"); got != "" {
		t.Fatalf("Date = %q, want empty", got)
	}
	if got := Header(nil, "To"); got != "" {
		t.Fatalf("nil headers = %q, want empty", got)
	}
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name string
		part *gmail.MessagePart
		want string
	}{
		{name: "nil", part: nil, want: ""},
		{name: "direct body", part: &gmail.MessagePart{Body: b64("direct")}, want: "direct"},
		{
			name: "html preferred",
			part: &gmail.MessagePart{Parts: []*gmail.MessagePart{
				{MimeType: "text/plain", Body: b64("plain")},
				{MimeType: "text/html", Body: b64("<p>html</p>")},
			}},
			want: "<p>html</p>",
		},
		{
			name: "plain fallback",
			part: &gmail.MessagePart{Parts: []*gmail.MessagePart{
				{MimeType: "text/html", Body: &gmail.MessagePartBody{}},
				{MimeType: "text/plain", Body: b64("plain")},
			}},
			want: "plain",
		},
		{
			name: "nested alternative",
			part: &gmail.MessagePart{Parts: []*gmail.MessagePart{
				{MimeType: "multipart/alternative", Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: b64("nested plain")},
					{MimeType: "text/html", Body: b64("nested html")},
				}},
				{MimeType: "application/pdf", Body: &gmail.MessagePartBody{AttachmentId: "att"}},
			}},
			want: "nested html",
		},
		{
			name: "two levels deep is ignored",
			part: &gmail.MessagePart{Parts: []*gmail.MessagePart{
				{MimeType: "multipart/mixed", Parts: []*gmail.MessagePart{
					{MimeType: "multipart/alternative", Parts: []*gmail.MessagePart{
						{MimeType: "text/plain", Body: b64("deep")},
					}},
				}},
			}},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractBody(tt.part); got != tt.want {
				t.Fatalf("ExtractBody = %q, want %q", got, tt.want)
			}
		})
	}
}
