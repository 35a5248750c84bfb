package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
)

// ToMillis converts a timestamp to the store's millisecond representation.
func ToMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

// FromMillis converts a stored millisecond value to UTC time.
func FromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

// TeamFromRow maps a stored team to the domain record.
func TeamFromRow(row TeamRow) domain.Team {
	return domain.Team{
		ID:               row.ID,
		Name:             row.Name,
		Sport:            row.Sport,
		Location:         row.Location,
		League:           row.League,
		SeasonStart:      row.SeasonStart,
		SeasonEnd:        row.SeasonEnd,
		Audience:         row.Audience,
		SponsorshipNeeds: row.SponsorshipNeeds,
		TargetAmount:     row.TargetAmount,
		ExistingSponsors: row.ExistingSponsors,
		PrimaryColor:     row.PrimaryColor,
		SecondaryColor:   row.SecondaryColor,
		LogoURL:          row.LogoURL,
	}
}

// TeamToRow maps a domain team owned by userID to a row.
func TeamToRow(team domain.Team, userID string) TeamRow {
	return TeamRow{
		ID:               team.ID,
		UserID:           userID,
		Name:             team.Name,
		Sport:            team.Sport,
		Location:         team.Location,
		League:           team.League,
		SeasonStart:      team.SeasonStart,
		SeasonEnd:        team.SeasonEnd,
		Audience:         team.Audience,
		SponsorshipNeeds: team.SponsorshipNeeds,
		TargetAmount:     team.TargetAmount,
		ExistingSponsors: team.ExistingSponsors,
		PrimaryColor:     team.PrimaryColor,
		SecondaryColor:   team.SecondaryColor,
		LogoURL:          team.LogoURL,
	}
}

// LeadFromRow maps a stored lead to the domain record. An empty status
// reads as new.
func LeadFromRow(row LeadRow) domain.Lead {
	status := domain.LeadStatus(row.Status)
	if status == "" {
		status = domain.LeadStatusNew
	}
	return domain.Lead{
		ID:          row.ID,
		CompanyName: row.CompanyName,
		Category:    row.Category,
		Contact:     row.Contact,
		Email:       row.Email,
		Location:    row.Location,
		FitReason:   row.FitReason,
		Status:      status,
		Notes:       row.Notes,
		CreatedAt:   FromMillis(row.CreatedAt),
	}
}

// LeadToRow maps an unsaved lead for teamID to a row without id or
// timestamps. An empty status is written as new.
func LeadToRow(lead domain.LeadDraft, teamID string) LeadRow {
	status := string(lead.Status)
	if status == "" {
		status = string(domain.LeadStatusNew)
	}
	return LeadRow{
		TeamID:      teamID,
		CompanyName: lead.CompanyName,
		Category:    lead.Category,
		Contact:     lead.Contact,
		Email:       lead.Email,
		Location:    lead.Location,
		FitReason:   lead.FitReason,
		Status:      status,
		Notes:       lead.Notes,
	}
}

// DraftFromRow maps a stored outreach draft to the domain record. A NULL
// attachment column reads as an empty list.
func DraftFromRow(row OutreachDraftRow) (domain.OutreachDraft, error) {
	attachments, err := decodeAttachments(row.Attachments)
	if err != nil {
		return domain.OutreachDraft{}, err
	}
	return domain.OutreachDraft{
		ID:           row.ID,
		LeadID:       row.LeadID,
		EmailSubject: row.EmailSubject,
		EmailBody:    row.EmailBody,
		ProposalText: row.ProposalText,
		Status:       domain.DraftStatus(row.Status),
		Attachments:  attachments,
		CreatedAt:    FromMillis(row.CreatedAt),
	}, nil
}

// DraftToRow maps a domain draft for teamID to a row. An empty attachment
// list is written as NULL.
func DraftToRow(draft domain.OutreachDraft, teamID string) OutreachDraftRow {
	status := string(draft.Status)
	if status == "" {
		status = string(domain.DraftStatusDraft)
	}
	return OutreachDraftRow{
		ID:           draft.ID,
		TeamID:       teamID,
		LeadID:       draft.LeadID,
		EmailSubject: draft.EmailSubject,
		EmailBody:    draft.EmailBody,
		ProposalText: draft.ProposalText,
		Status:       status,
		Attachments:  encodeAttachments(draft.Attachments),
		CreatedAt:    ToMillis(draft.CreatedAt),
	}
}

func encodeAttachments(ids []string) *string {
	if len(ids) == 0 {
		return nil
	}
	// Marshalling a string slice cannot fail.
	encoded, _ := json.Marshal(ids)
	value := string(encoded)
	return &value
}

func decodeAttachments(value *string) ([]string, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(*value), &ids); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// AssetFromRow maps a stored asset to the domain record.
func AssetFromRow(row AssetRow) domain.Asset {
	return domain.Asset{
		ID:        row.ID,
		TeamID:    row.TeamID,
		Type:      domain.AssetType(row.Type),
		Name:      row.Name,
		URL:       row.URL,
		CreatedAt: FromMillis(row.CreatedAt),
	}
}

// AssetToRow maps a domain asset to a row owned by teamID.
func AssetToRow(asset domain.Asset, teamID string) AssetRow {
	return AssetRow{
		ID:        asset.ID,
		TeamID:    teamID,
		Type:      string(asset.Type),
		Name:      asset.Name,
		URL:       asset.URL,
		CreatedAt: ToMillis(asset.CreatedAt),
	}
}

// DonationFromRow maps a stored donation to the domain record.
func DonationFromRow(row DonationRow) domain.Donation {
	return domain.Donation{
		SessionID:     row.SessionID,
		Amount:        row.Amount,
		Currency:      row.Currency,
		TeamName:      row.TeamName,
		CustomerEmail: row.CustomerEmail,
		CreatedAt:     FromMillis(row.CreatedAt),
	}
}

// DonationToRow maps a domain donation to a row.
func DonationToRow(donation domain.Donation) DonationRow {
	return DonationRow{
		SessionID:     donation.SessionID,
		Amount:        donation.Amount,
		Currency:      donation.Currency,
		TeamName:      donation.TeamName,
		CustomerEmail: donation.CustomerEmail,
		CreatedAt:     ToMillis(donation.CreatedAt),
	}
}
