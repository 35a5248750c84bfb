package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/httpx"
	"github.com/louisbranch/teamfund/internal/platform/timeouts"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

func (h *handlers) handleOutreachList(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	rows, err := h.store.ListDrafts(r.Context(), team.ID)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to load drafts")
		return
	}
	drafts := make([]domain.OutreachDraft, 0, len(rows))
	for _, row := range rows {
		draft, err := storage.DraftFromRow(row)
		if err != nil {
			httpx.WriteError(w, r, err, "Failed to load drafts")
			return
		}
		drafts = append(drafts, draft)
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

type createDraftRequest struct {
	LeadID       string   `json:"leadId"`
	EmailSubject string   `json:"emailSubject"`
	EmailBody    string   `json:"emailBody"`
	ProposalText string   `json:"proposalText"`
	Status       string   `json:"status"`
	Attachments  []string `json:"attachments"`
}

func (h *handlers) handleOutreachCreate(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	var req createDraftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid draft")
		return
	}
	if strings.TrimSpace(req.LeadID) == "" {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Lead id is required")
		return
	}
	status := domain.DraftStatusDraft
	if req.Status != "" {
		parsed, err := domain.ParseDraftStatus(req.Status)
		if err != nil {
			httpx.WriteError(w, r, err, "Invalid draft status")
			return
		}
		status = parsed
	}
	draft := domain.OutreachDraft{
		LeadID:       strings.TrimSpace(req.LeadID),
		EmailSubject: req.EmailSubject,
		EmailBody:    req.EmailBody,
		ProposalText: req.ProposalText,
		Status:       status,
		Attachments:  req.Attachments,
	}
	stored, err := h.saveDraft(r.Context(), team.ID, draft)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to save draft")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, map[string]any{"draft": stored})
}

type generateDraftRequest struct {
	LeadID string `json:"leadId"`
}

func (h *handlers) handleOutreachGenerate(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	var req generateDraftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid generate request")
		return
	}
	if strings.TrimSpace(req.LeadID) == "" {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Lead id is required")
		return
	}
	ctx := r.Context()
	row, err := h.store.GetLead(ctx, team.ID, strings.TrimSpace(req.LeadID))
	if err != nil {
		httpx.WriteError(w, r, storeError(err, apperrors.CodeLeadNotFound, "Lead not found"), "Failed to load lead")
		return
	}
	lead := storage.LeadFromRow(row)

	genCtx, cancel := context.WithTimeout(ctx, timeouts.Generation)
	content, err := h.outreach.Generate(genCtx, team, lead)
	cancel()
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to generate outreach")
		return
	}
	stored, err := h.saveDraft(ctx, team.ID, domain.OutreachDraft{
		LeadID:       lead.ID,
		EmailSubject: content.EmailSubject,
		EmailBody:    content.EmailBody,
		ProposalText: content.ProposalText,
		Status:       domain.DraftStatusDraft,
	})
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to save draft")
		return
	}
	// Leads that already went out keep their status.
	if lead.Status == domain.LeadStatusNew || lead.Status == domain.LeadStatusApproved {
		if _, err := h.store.UpdateLeadStatus(ctx, team.ID, []string{lead.ID}, string(domain.LeadStatusDrafted)); err != nil {
			log.Printf("mark lead drafted failed lead_id=%s err=%v", lead.ID, err)
		}
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, map[string]any{"draft": stored})
}

type updateDraftRequest struct {
	domain.DraftUpdate
	Status *string `json:"status,omitempty"`
}

func (h *handlers) handleOutreachUpdate(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	draftID := r.PathValue("id")
	var req updateDraftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid draft update")
		return
	}
	if req.DraftUpdate.Empty() && req.Status == nil {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	ctx := r.Context()
	if req.Status != nil {
		status, err := domain.ParseDraftStatus(*req.Status)
		if err != nil {
			httpx.WriteError(w, r, err, "Invalid draft status")
			return
		}
		if err := h.store.UpdateDraftStatus(ctx, team.ID, draftID, string(status)); err != nil {
			httpx.WriteError(w, r, storeError(err, apperrors.CodeDraftNotFound, "Draft not found"), "Failed to update draft")
			return
		}
	}
	row, err := h.store.UpdateDraft(ctx, team.ID, draftID, req.DraftUpdate)
	if err != nil {
		httpx.WriteError(w, r, storeError(err, apperrors.CodeDraftNotFound, "Draft not found"), "Failed to update draft")
		return
	}
	draft, err := storage.DraftFromRow(row)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to load draft")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"draft": draft})
}

// saveDraft assigns an id and timestamps, stores draft and returns the
// stored record.
func (h *handlers) saveDraft(ctx context.Context, teamID string, draft domain.OutreachDraft) (domain.OutreachDraft, error) {
	if draft.ID == "" {
		draftID, err := h.newID()
		if err != nil {
			return domain.OutreachDraft{}, err
		}
		draft.ID = draftID
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = h.now()
	}
	if err := h.store.PutDraft(ctx, storage.DraftToRow(draft, teamID)); err != nil {
		return domain.OutreachDraft{}, storeError(err, apperrors.CodeLeadNotFound, "Lead not found")
	}
	row, err := h.store.GetDraft(ctx, teamID, draft.ID)
	if err != nil {
		return domain.OutreachDraft{}, storeError(err, apperrors.CodeDraftNotFound, "Draft not found")
	}
	return storage.DraftFromRow(row)
}

func (h *handlers) loadDraft(ctx context.Context, teamID, draftID string) (domain.OutreachDraft, error) {
	row, err := h.store.GetDraft(ctx, teamID, draftID)
	if err != nil {
		return domain.OutreachDraft{}, storeError(err, apperrors.CodeDraftNotFound, "Draft not found")
	}
	return storage.DraftFromRow(row)
}
