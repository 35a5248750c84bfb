package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Attachment is a file sent with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is an outgoing HTML email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

const base64LineLen = 76

// Build renders m as raw RFC 2822 bytes with CRLF line endings. Messages with
// attachments are multipart/mixed with a multipart/alternative first part.
func Build(m Message) ([]byte, error) {
	if strings.TrimSpace(m.To) == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	for name, value := range map[string]string{"To": m.To, "Subject": m.Subject} {
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("%s header contains a line break", name)
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "To: %s\r\n", m.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", encodeSubject(m.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(m.Attachments) == 0 {
		buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		buf.WriteString(m.HTML)
		return buf.Bytes(), nil
	}

	mixed := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary())

	var alt bytes.Buffer
	alternative := multipart.NewWriter(&alt)
	if err := writeTextPart(alternative, "text/plain; charset=utf-8", PlainText(m.HTML)); err != nil {
		return nil, err
	}
	if err := writeTextPart(alternative, "text/html; charset=utf-8", m.HTML); err != nil {
		return nil, err
	}
	if err := alternative.Close(); err != nil {
		return nil, fmt.Errorf("close alternative part: %w", err)
	}
	altHeader := textproto.MIMEHeader{}
	altHeader.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", alternative.Boundary()))
	part, err := mixed.CreatePart(altHeader)
	if err != nil {
		return nil, fmt.Errorf("create alternative part: %w", err)
	}
	if _, err := part.Write(alt.Bytes()); err != nil {
		return nil, fmt.Errorf("write alternative part: %w", err)
	}

	for _, attachment := range m.Attachments {
		if err := writeAttachment(mixed, attachment); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTextPart(w *multipart.Writer, contentType, body string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create text part: %w", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return fmt.Errorf("write text part: %w", err)
	}
	return nil
}

func writeAttachment(w *multipart.Writer, a Attachment) error {
	filename := strings.TrimSpace(a.Filename)
	if filename == "" {
		filename = "attachment"
	}
	if strings.ContainsAny(filename, "\r\n") {
		return fmt.Errorf("attachment filename %q is not allowed", filename)
	}
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// FormatMediaType quotes or RFC 2231 encodes the name as needed.
	typeHeader := mime.FormatMediaType(contentType, map[string]string{"name": filename})
	if typeHeader == "" {
		return fmt.Errorf("attachment content type %q is not valid", contentType)
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", typeHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	header.Set("Content-Transfer-Encoding", "base64")
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create attachment part: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(a.Data)
	for len(encoded) > 0 {
		n := min(base64LineLen, len(encoded))
		if _, err := fmt.Fprintf(part, "%s\r\n", encoded[:n]); err != nil {
			return fmt.Errorf("write attachment: %w", err)
		}
		encoded = encoded[n:]
	}
	return nil
}

func encodeSubject(subject string) string {
	for _, r := range subject {
		if r >= 0x80 {
			return mime.QEncoding.Encode("utf-8", subject)
		}
	}
	return subject
}

// EncodeRaw encodes raw message bytes as unpadded base64url.
func EncodeRaw(raw []byte) string {
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeBase64URL decodes base64url data with or without padding.
func DecodeBase64URL(data string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", fmt.Errorf("decode base64url: %w", err)
	}
	return string(decoded), nil
}
