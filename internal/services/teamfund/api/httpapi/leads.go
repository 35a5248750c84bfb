package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/httpx"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

const (
	defaultLeadPageSize = 50
	maxLeadPageSize     = 200
	// maxLeadBatch caps one insert request.
	maxLeadBatch = 500
)

func (h *handlers) handleLeadsList(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	query := r.URL.Query()
	pageSize := defaultLeadPageSize
	if raw := strings.TrimSpace(query.Get("pageSize")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Invalid page size")
			return
		}
		pageSize = min(parsed, maxLeadPageSize)
	}
	page, err := h.store.ListLeads(r.Context(), team.ID, query.Get("filter"), pageSize, query.Get("pageToken"))
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to load leads")
		return
	}
	resp := domain.LeadPage{Leads: make([]domain.Lead, 0, len(page.Leads)), NextPageToken: page.NextPageToken}
	for _, row := range page.Leads {
		resp.Leads = append(resp.Leads, storage.LeadFromRow(row))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, resp)
}

type createLeadsRequest struct {
	Leads []domain.LeadDraft `json:"leads"`
}

func (h *handlers) handleLeadsCreate(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	var req createLeadsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid leads")
		return
	}
	if len(req.Leads) == 0 {
		_ = httpx.WriteJSON(w, http.StatusCreated, map[string]any{"leads": []domain.Lead{}})
		return
	}
	if len(req.Leads) > maxLeadBatch {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Too many leads in one request")
		return
	}

	createdAt := storage.ToMillis(h.now())
	rows := make([]storage.LeadRow, 0, len(req.Leads))
	for _, draft := range req.Leads {
		draft.CompanyName = strings.TrimSpace(draft.CompanyName)
		if draft.CompanyName == "" {
			_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Company name is required")
			return
		}
		if draft.Status != "" {
			status, err := domain.ParseLeadStatus(string(draft.Status))
			if err != nil {
				httpx.WriteError(w, r, err, "Invalid lead status")
				return
			}
			draft.Status = status
		}
		leadID, err := h.newID()
		if err != nil {
			httpx.WriteError(w, r, err, "Failed to save leads")
			return
		}
		row := storage.LeadToRow(draft, team.ID)
		row.ID = leadID
		row.CreatedAt = createdAt
		row.UpdatedAt = createdAt
		rows = append(rows, row)
	}
	if err := h.store.InsertLeads(r.Context(), rows); err != nil {
		httpx.WriteError(w, r, storeError(err, apperrors.CodeLeadNotFound, "Lead not found"), "Failed to save leads")
		return
	}
	leads := make([]domain.Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, storage.LeadFromRow(row))
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, map[string]any{"leads": leads})
}

type updateLeadRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

func (h *handlers) handleLeadUpdate(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	leadID := r.PathValue("id")
	var req updateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid lead update")
		return
	}
	if req.Status == nil && req.Notes == nil {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	ctx := r.Context()
	if req.Status != nil {
		status, err := domain.ParseLeadStatus(*req.Status)
		if err != nil {
			httpx.WriteError(w, r, err, "Invalid lead status")
			return
		}
		updated, err := h.store.UpdateLeadStatus(ctx, team.ID, []string{leadID}, string(status))
		if err != nil {
			httpx.WriteError(w, r, err, "Failed to update lead")
			return
		}
		if updated == 0 {
			httpx.WriteError(w, r, apperrors.New(apperrors.CodeLeadNotFound, "Lead not found"), "Failed to update lead")
			return
		}
	}
	if req.Notes != nil {
		if err := h.store.UpdateLeadNotes(ctx, team.ID, leadID, *req.Notes); err != nil {
			httpx.WriteError(w, r, storeError(err, apperrors.CodeLeadNotFound, "Lead not found"), "Failed to update lead")
			return
		}
	}
	row, err := h.store.GetLead(ctx, team.ID, leadID)
	if err != nil {
		httpx.WriteError(w, r, storeError(err, apperrors.CodeLeadNotFound, "Lead not found"), "Failed to load lead")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"lead": storage.LeadFromRow(row)})
}

type bulkStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

func (h *handlers) handleLeadsStatus(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	var req bulkStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid status update")
		return
	}
	status, err := domain.ParseLeadStatus(req.Status)
	if err != nil {
		httpx.WriteError(w, r, err, "Invalid lead status")
		return
	}
	updated, err := h.store.UpdateLeadStatus(r.Context(), team.ID, req.IDs, string(status))
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to update leads")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

type deleteLeadsRequest struct {
	IDs []string `json:"ids"`
}

func (h *handlers) handleLeadsDelete(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	var req deleteLeadsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid delete request")
		return
	}
	deleted, err := h.store.DeleteLeads(r.Context(), team.ID, req.IDs)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to delete leads")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
