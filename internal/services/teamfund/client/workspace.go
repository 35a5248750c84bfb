package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
)

// ErrNoTeam is returned by workspace operations that need a team before one
// is set.
var ErrNoTeam = errors.New("team is not set")

// Snapshot is a copy of the workspace state.
type Snapshot struct {
	User        domain.User
	Team        *domain.Team
	Leads       []domain.Lead
	Drafts      []domain.OutreachDraft
	Assets      []domain.Asset
	IsOnboarded bool
}

// Workspace holds the signed-in user's team, leads, drafts and assets.
// Mutators persist through the API first and update the local copy only on
// success. It is safe for concurrent use.
type Workspace struct {
	client *Client

	mu     sync.Mutex
	loaded bool
	state  Snapshot
}

// NewWorkspace returns an empty workspace backed by client.
func NewWorkspace(client *Client) *Workspace {
	return &Workspace{client: client}
}

// Load reads the user, team and collections from the API, replacing the
// local state. Users without a team get empty collections.
func (w *Workspace) Load(ctx context.Context) error {
	if w == nil || w.client == nil {
		return errors.New("workspace client is required")
	}
	me, err := w.client.Me(ctx)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	next := Snapshot{
		User:        me.User,
		Team:        me.Team,
		IsOnboarded: me.IsOnboarded && me.Team != nil,
		Leads:       []domain.Lead{},
		Drafts:      []domain.OutreachDraft{},
		Assets:      []domain.Asset{},
	}
	if next.IsOnboarded {
		if next.Leads, err = w.client.ListAllLeads(ctx, ""); err != nil {
			return fmt.Errorf("load leads: %w", err)
		}
		if next.Drafts, err = w.client.ListDrafts(ctx); err != nil {
			return fmt.Errorf("load drafts: %w", err)
		}
		if next.Assets, err = w.client.ListAssets(ctx); err != nil {
			return fmt.Errorf("load assets: %w", err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = next
	w.loaded = true
	return nil
}

// Refresh reloads every collection.
func (w *Workspace) Refresh(ctx context.Context) error {
	return w.Load(ctx)
}

// Logout drops all local state.
func (w *Workspace) Logout() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Snapshot{}
	w.loaded = false
}

// Loaded reports whether Load has completed since the last Logout.
func (w *Workspace) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loaded
}

// Snapshot returns a copy of the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := Snapshot{
		User:        w.state.User,
		IsOnboarded: w.state.IsOnboarded,
		Leads:       slices.Clone(w.state.Leads),
		Assets:      slices.Clone(w.state.Assets),
		Drafts:      make([]domain.OutreachDraft, 0, len(w.state.Drafts)),
	}
	if w.state.Team != nil {
		team := *w.state.Team
		out.Team = &team
	}
	for _, draft := range w.state.Drafts {
		out.Drafts = append(out.Drafts, cloneDraft(draft))
	}
	return out
}

// Lead returns the lead with id.
func (w *Workspace) Lead(id string) (domain.Lead, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx := slices.IndexFunc(w.state.Leads, func(l domain.Lead) bool { return l.ID == id })
	if idx < 0 {
		return domain.Lead{}, false
	}
	return w.state.Leads[idx], true
}

// SetTeam creates or replaces the team and marks the user onboarded.
func (w *Workspace) SetTeam(ctx context.Context, team domain.Team) (domain.Team, error) {
	saved, err := w.client.PutTeam(ctx, team)
	if err != nil {
		return domain.Team{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	stored := saved
	w.state.Team = &stored
	w.state.IsOnboarded = true
	return saved, nil
}

// UpdateLeadStatus sets one lead's status.
func (w *Workspace) UpdateLeadStatus(ctx context.Context, leadID string, status domain.LeadStatus) (domain.Lead, error) {
	return w.updateLead(ctx, leadID, LeadUpdate{Status: &status})
}

// UpdateLeadNotes replaces one lead's notes.
func (w *Workspace) UpdateLeadNotes(ctx context.Context, leadID, notes string) (domain.Lead, error) {
	return w.updateLead(ctx, leadID, LeadUpdate{Notes: &notes})
}

func (w *Workspace) updateLead(ctx context.Context, leadID string, update LeadUpdate) (domain.Lead, error) {
	if err := w.requireTeam(); err != nil {
		return domain.Lead{}, err
	}
	lead, err := w.client.UpdateLead(ctx, leadID, update)
	if err != nil {
		return domain.Lead{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.replaceLead(lead)
	return lead, nil
}

// BulkUpdateLeadStatus sets status on every listed lead.
func (w *Workspace) BulkUpdateLeadStatus(ctx context.Context, leadIDs []string, status domain.LeadStatus) (int64, error) {
	if err := w.requireTeam(); err != nil {
		return 0, err
	}
	if len(leadIDs) == 0 {
		return 0, nil
	}
	updated, err := w.client.BulkUpdateLeadStatus(ctx, leadIDs, status)
	if err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for idx := range w.state.Leads {
		if slices.Contains(leadIDs, w.state.Leads[idx].ID) {
			w.state.Leads[idx].Status = status
		}
	}
	return updated, nil
}

// DeleteLeads removes leads and their drafts.
func (w *Workspace) DeleteLeads(ctx context.Context, leadIDs []string) (int64, error) {
	if err := w.requireTeam(); err != nil {
		return 0, err
	}
	if len(leadIDs) == 0 {
		return 0, nil
	}
	deleted, err := w.client.DeleteLeads(ctx, leadIDs)
	if err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Leads = slices.DeleteFunc(w.state.Leads, func(l domain.Lead) bool {
		return slices.Contains(leadIDs, l.ID)
	})
	w.state.Drafts = slices.DeleteFunc(w.state.Drafts, func(d domain.OutreachDraft) bool {
		return slices.Contains(leadIDs, d.LeadID)
	})
	return deleted, nil
}

// AddLeads stores lead drafts and prepends the stored leads.
func (w *Workspace) AddLeads(ctx context.Context, drafts []domain.LeadDraft) ([]domain.Lead, error) {
	if err := w.requireTeam(); err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return []domain.Lead{}, nil
	}
	leads, err := w.client.AddLeads(ctx, drafts)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Leads = append(slices.Clone(leads), w.state.Leads...)
	return leads, nil
}

// AddDraft stores a hand-written draft.
func (w *Workspace) AddDraft(ctx context.Context, draft domain.OutreachDraft) (domain.OutreachDraft, error) {
	if err := w.requireTeam(); err != nil {
		return domain.OutreachDraft{}, err
	}
	saved, err := w.client.CreateDraft(ctx, draft)
	if err != nil {
		return domain.OutreachDraft{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Drafts = append([]domain.OutreachDraft{cloneDraft(saved)}, w.state.Drafts...)
	return saved, nil
}

// GenerateDraft generates a draft for a lead. A lead still new or approved
// moves to drafted, matching the server.
func (w *Workspace) GenerateDraft(ctx context.Context, leadID string) (domain.OutreachDraft, error) {
	if err := w.requireTeam(); err != nil {
		return domain.OutreachDraft{}, err
	}
	draft, err := w.client.GenerateDraft(ctx, leadID)
	if err != nil {
		return domain.OutreachDraft{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Drafts = append([]domain.OutreachDraft{cloneDraft(draft)}, w.state.Drafts...)
	for idx := range w.state.Leads {
		lead := &w.state.Leads[idx]
		if lead.ID == leadID && (lead.Status == domain.LeadStatusNew || lead.Status == domain.LeadStatusApproved) {
			lead.Status = domain.LeadStatusDrafted
		}
	}
	return draft, nil
}

// UpdateDraft applies a partial text edit to a draft.
func (w *Workspace) UpdateDraft(ctx context.Context, draftID string, update domain.DraftUpdate) (domain.OutreachDraft, error) {
	if err := w.requireTeam(); err != nil {
		return domain.OutreachDraft{}, err
	}
	draft, err := w.client.UpdateDraft(ctx, draftID, update)
	if err != nil {
		return domain.OutreachDraft{}, err
	}
	w.storeDraft(draft)
	return draft, nil
}

// UpdateDraftStatus sets a draft's review status.
func (w *Workspace) UpdateDraftStatus(ctx context.Context, draftID string, status domain.DraftStatus) (domain.OutreachDraft, error) {
	if err := w.requireTeam(); err != nil {
		return domain.OutreachDraft{}, err
	}
	draft, err := w.client.UpdateDraftStatus(ctx, draftID, status)
	if err != nil {
		return domain.OutreachDraft{}, err
	}
	w.storeDraft(draft)
	return draft, nil
}

// AddAsset records an asset. An asset whose id is already known, or one the
// server already created (mockups and proposals), is stored locally without a
// remote call. Otherwise upload is sent first.
func (w *Workspace) AddAsset(ctx context.Context, asset domain.Asset, upload *Upload) (domain.Asset, error) {
	if err := w.requireTeam(); err != nil {
		return domain.Asset{}, err
	}
	if asset.ID != "" {
		w.mu.Lock()
		defer w.mu.Unlock()
		if idx := w.assetIndex(asset.ID); idx >= 0 {
			w.state.Assets[idx] = asset
		} else {
			w.state.Assets = append([]domain.Asset{asset}, w.state.Assets...)
		}
		return asset, nil
	}
	if upload == nil {
		return domain.Asset{}, errors.New("asset id or upload is required")
	}
	saved, err := w.client.UploadAsset(ctx, *upload)
	if err != nil {
		return domain.Asset{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Assets = append([]domain.Asset{saved}, w.state.Assets...)
	return saved, nil
}

// DeleteAsset removes an asset.
func (w *Workspace) DeleteAsset(ctx context.Context, assetID string) error {
	if err := w.requireTeam(); err != nil {
		return err
	}
	if err := w.client.DeleteAsset(ctx, assetID); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if idx := w.assetIndex(assetID); idx >= 0 {
		w.state.Assets = slices.Delete(w.state.Assets, idx, idx+1)
	}
	return nil
}

func (w *Workspace) requireTeam() error {
	if w == nil || w.client == nil {
		return errors.New("workspace client is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Team == nil {
		return ErrNoTeam
	}
	return nil
}

func (w *Workspace) replaceLead(lead domain.Lead) {
	for idx := range w.state.Leads {
		if w.state.Leads[idx].ID == lead.ID {
			w.state.Leads[idx] = lead
			return
		}
	}
	w.state.Leads = append([]domain.Lead{lead}, w.state.Leads...)
}

func (w *Workspace) storeDraft(draft domain.OutreachDraft) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for idx := range w.state.Drafts {
		if w.state.Drafts[idx].ID == draft.ID {
			w.state.Drafts[idx] = cloneDraft(draft)
			return
		}
	}
	w.state.Drafts = append([]domain.OutreachDraft{cloneDraft(draft)}, w.state.Drafts...)
}

func (w *Workspace) assetIndex(id string) int {
	return slices.IndexFunc(w.state.Assets, func(a domain.Asset) bool { return a.ID == id })
}

func cloneDraft(draft domain.OutreachDraft) domain.OutreachDraft {
	draft.Attachments = slices.Clone(draft.Attachments)
	return draft
}
