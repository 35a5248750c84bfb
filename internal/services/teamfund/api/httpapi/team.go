package httpapi

import (
	"errors"
	"net/http"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/httpx"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

type meResponse struct {
	User        domain.User  `json:"user"`
	Team        *domain.Team `json:"team"`
	IsOnboarded bool         `json:"isOnboarded"`
}

func (h *handlers) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	resp := meResponse{User: user}
	row, err := h.store.GetTeamByUser(r.Context(), user.ID)
	switch {
	case err == nil:
		team := storage.TeamFromRow(row)
		resp.Team = &team
		resp.IsOnboarded = true
	case errors.Is(err, storage.ErrNotFound):
	default:
		httpx.WriteError(w, r, err, "Failed to load team")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) handleTeamGet(w http.ResponseWriter, r *http.Request, user domain.User) {
	team, err := h.loadTeam(r.Context(), user.ID)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to load team")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"team": team})
}

func (h *handlers) handleTeamPut(w http.ResponseWriter, r *http.Request, user domain.User) {
	var team domain.Team
	if err := httpx.DecodeJSON(r, &team); err != nil {
		httpx.WriteError(w, r, err, "Invalid team")
		return
	}
	if err := team.Validate(); err != nil {
		httpx.WriteError(w, r, err, "Invalid team")
		return
	}
	// The store keeps the existing id for the user.
	team.ID = ""
	row, err := h.store.PutTeam(r.Context(), storage.TeamToRow(team, user.ID))
	if err != nil {
		httpx.WriteError(w, r, storeError(err, apperrors.CodeTeamNotFound, "Team not found"), "Failed to save team")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"team": storage.TeamFromRow(row)})
}
