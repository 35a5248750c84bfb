package domain

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
)

// LeadStatus tracks a lead through outreach.
type LeadStatus string

const (
	LeadStatusNew      LeadStatus = "new"
	LeadStatusApproved LeadStatus = "approved"
	LeadStatusDrafted  LeadStatus = "drafted"
	LeadStatusSent     LeadStatus = "sent"
)

var leadLifecycle = []LeadStatus{LeadStatusNew, LeadStatusApproved, LeadStatusDrafted, LeadStatusSent}

// ParseLeadStatus validates a wire value.
func ParseLeadStatus(value string) (LeadStatus, error) {
	value = strings.TrimSpace(value)
	for _, status := range leadLifecycle {
		if string(status) == value {
			return status, nil
		}
	}
	return "", apperrors.WithMetadata(apperrors.CodeLeadInvalidStatus, "Invalid lead status", map[string]string{"status": value})
}

// Next returns the following lifecycle state. The final state returns false.
// Assignments are not restricted to this order.
func (s LeadStatus) Next() (LeadStatus, bool) {
	for idx, status := range leadLifecycle {
		if status == s && idx+1 < len(leadLifecycle) {
			return leadLifecycle[idx+1], true
		}
	}
	return s, false
}

// Lead is a prospective sponsor.
type Lead struct {
	ID          string     `json:"id"`
	CompanyName string     `json:"companyName"`
	Category    string     `json:"category"`
	Contact     string     `json:"contact"`
	Email       string     `json:"email"`
	Location    string     `json:"location"`
	FitReason   string     `json:"fitReason"`
	Status      LeadStatus `json:"status"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// LeadDraft is a lead that has not been stored yet.
type LeadDraft struct {
	CompanyName string     `json:"companyName"`
	Category    string     `json:"category"`
	Contact     string     `json:"contact"`
	Email       string     `json:"email"`
	Location    string     `json:"location"`
	FitReason   string     `json:"fitReason"`
	Status      LeadStatus `json:"status"`
	Notes       string     `json:"notes"`
}

// Draft returns the unsaved portion of the lead.
func (l Lead) Draft() LeadDraft {
	return LeadDraft{
		CompanyName: l.CompanyName,
		Category:    l.Category,
		Contact:     l.Contact,
		Email:       l.Email,
		Location:    l.Location,
		FitReason:   l.FitReason,
		Status:      l.Status,
		Notes:       l.Notes,
	}
}

// LeadPage is one page of leads, newest first.
type LeadPage struct {
	Leads         []Lead `json:"leads"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}
