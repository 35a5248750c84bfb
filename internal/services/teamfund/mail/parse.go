package mail

import (
	"strings"

	"google.golang.org/api/gmail/v1"
)

// Header returns the value of the first header named name, ignoring case,
// or "" when absent.
func Header(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if header != nil && strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

// ExtractBody returns the readable body of a message payload. It prefers the
// payload's own data, then an HTML part, then a plain text part, then the
// same search one level down in nested multiparts.
func ExtractBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if body, ok := partData(part); ok {
		return body
	}
	if body, ok := preferredChild(part.Parts); ok {
		return body
	}
	for _, child := range part.Parts {
		if child == nil || len(child.Parts) == 0 {
			continue
		}
		if body, ok := preferredChild(child.Parts); ok {
			return body
		}
	}
	return ""
}

func preferredChild(parts []*gmail.MessagePart) (string, bool) {
	for _, mimeType := range []string{"text/html", "text/plain"} {
		for _, part := range parts {
			if part == nil || part.MimeType != mimeType {
				continue
			}
			// Only the first part of each type is considered.
			if body, ok := partData(part); ok {
				return body, true
			}
			break
		}
	}
	return "", false
}

func partData(part *gmail.MessagePart) (string, bool) {
	if part.Body == nil || part.Body.Data == "" {
		return "", false
	}
	body, err := DecodeBase64URL(part.Body.Data)
	if err != nil {
		return "", false
	}
	return body, true
}
