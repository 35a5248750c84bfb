package domain

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
)

// DraftStatus tracks review of an outreach draft.
type DraftStatus string

const (
	DraftStatusDraft    DraftStatus = "draft"
	DraftStatusReviewed DraftStatus = "reviewed"
	DraftStatusSent     DraftStatus = "sent"
)

// ParseDraftStatus validates a wire value.
func ParseDraftStatus(value string) (DraftStatus, error) {
	switch status := DraftStatus(strings.TrimSpace(value)); status {
	case DraftStatusDraft, DraftStatusReviewed, DraftStatusSent:
		return status, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeDraftInvalidStatus, "Invalid draft status", map[string]string{"status": value})
	}
}

// OutreachDraft is a generated email and proposal for one lead.
type OutreachDraft struct {
	ID           string      `json:"id"`
	LeadID       string      `json:"leadId"`
	EmailSubject string      `json:"emailSubject"`
	EmailBody    string      `json:"emailBody"`
	ProposalText string      `json:"proposalText"`
	Status       DraftStatus `json:"status"`
	Attachments  []string    `json:"attachments"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// DraftUpdate is a partial edit of a draft's text. Nil fields are left alone.
type DraftUpdate struct {
	EmailSubject *string `json:"emailSubject,omitempty"`
	EmailBody    *string `json:"emailBody,omitempty"`
	ProposalText *string `json:"proposalText,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u DraftUpdate) Empty() bool {
	return u.EmailSubject == nil && u.EmailBody == nil && u.ProposalText == nil
}

// Apply returns d with the update applied.
func (u DraftUpdate) Apply(d OutreachDraft) OutreachDraft {
	if u.EmailSubject != nil {
		d.EmailSubject = *u.EmailSubject
	}
	if u.EmailBody != nil {
		d.EmailBody = *u.EmailBody
	}
	if u.ProposalText != nil {
		d.ProposalText = *u.ProposalText
	}
	return d
}
