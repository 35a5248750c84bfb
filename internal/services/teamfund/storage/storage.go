package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
)

// ErrNotFound indicates a requested record is missing or outside the
// caller's team.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a write collided with an existing record.
var ErrConflict = errors.New("record conflict")

// TeamStore persists the one team each user owns.
type TeamStore interface {
	GetTeamByUser(ctx context.Context, userID string) (TeamRow, error)
	// PutTeam upserts the user's team and returns the stored row.
	PutTeam(ctx context.Context, row TeamRow) (TeamRow, error)
}

// LeadStore persists sponsor leads. Every call is scoped to one team.
type LeadStore interface {
	ListLeads(ctx context.Context, teamID, filter string, pageSize int, pageToken string) (LeadPage, error)
	GetLead(ctx context.Context, teamID, leadID string) (LeadRow, error)
	InsertLeads(ctx context.Context, rows []LeadRow) error
	UpdateLeadStatus(ctx context.Context, teamID string, leadIDs []string, status string) (int64, error)
	UpdateLeadNotes(ctx context.Context, teamID, leadID, notes string) error
	DeleteLeads(ctx context.Context, teamID string, leadIDs []string) (int64, error)
}

// DraftStore persists outreach drafts. Every call is scoped to one team.
type DraftStore interface {
	ListDrafts(ctx context.Context, teamID string) ([]OutreachDraftRow, error)
	GetDraft(ctx context.Context, teamID, draftID string) (OutreachDraftRow, error)
	PutDraft(ctx context.Context, row OutreachDraftRow) error
	UpdateDraft(ctx context.Context, teamID, draftID string, update domain.DraftUpdate) (OutreachDraftRow, error)
	UpdateDraftStatus(ctx context.Context, teamID, draftID, status string) error
}

// AssetStore persists asset metadata and the object bytes behind it.
type AssetStore interface {
	ListAssets(ctx context.Context, teamID string) ([]AssetRow, error)
	GetAsset(ctx context.Context, teamID, assetID string) (AssetRow, error)
	PutAsset(ctx context.Context, row AssetRow, object *AssetObjectRow) error
	GetAssetObject(ctx context.Context, teamID, assetID string) (AssetObjectRow, error)
	DeleteAsset(ctx context.Context, teamID, assetID string) error
}

// DonationStore records completed checkouts.
type DonationStore interface {
	// PutDonation is idempotent on the checkout session id.
	PutDonation(ctx context.Context, row DonationRow) error
	ListDonationsByTeamName(ctx context.Context, teamName string) ([]DonationRow, error)
}

// GmailGrantStore persists one sealed mail grant per user.
type GmailGrantStore interface {
	PutGmailGrant(ctx context.Context, row GmailGrantRow) error
	GetGmailGrant(ctx context.Context, userID string) (GmailGrantRow, error)
	DeleteGmailGrant(ctx context.Context, userID string) error
}

// Store is the full persistence surface of the service.
type Store interface {
	TeamStore
	LeadStore
	DraftStore
	AssetStore
	DonationStore
	GmailGrantStore
}
