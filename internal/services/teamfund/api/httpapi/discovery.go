package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/httpx"
	"github.com/louisbranch/teamfund/internal/platform/timeouts"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/integration/llm"
	"github.com/louisbranch/teamfund/internal/services/teamfund/leadsource"
)

// maxDiscoverLimit bounds the result count a client may ask for.
const maxDiscoverLimit = 100

const (
	defaultResearchLocation = "local area"
	defaultResearchSport    = "youth sports"
)

type discoverRequest struct {
	ZipCode  string `json:"zipCode"`
	Audience string `json:"audience"`
	Limit    int    `json:"limit"`
}

func (h *handlers) handleLeadsDiscover(w http.ResponseWriter, r *http.Request, _ domain.User, _ domain.Team) {
	var req discoverRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid discovery request")
		return
	}
	if strings.TrimSpace(req.ZipCode) == "" || strings.TrimSpace(req.Audience) == "" || req.Limit <= 0 {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.Limit > maxDiscoverLimit {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Limit must be at most %d", maxDiscoverLimit))
		return
	}
	if h.discoverer == nil {
		httpx.WriteError(w, r, notConfigured("HERE API key not configured"), "Failed to discover leads")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Outbound)
	defer cancel()
	leads, err := h.discoverer.Discover(ctx, strings.TrimSpace(req.ZipCode), req.Audience, req.Limit)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to discover leads")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"leads": nonNilLeads(leads)})
}

func (h *handlers) handleLeadsApify(w http.ResponseWriter, r *http.Request, _ domain.User, _ domain.Team) {
	if h.scraper == nil {
		httpx.WriteError(w, r, notConfigured("Apify API token not configured. Add TEAMFUND_APIFY_API_TOKEN to the environment"), "Failed to fetch leads")
		return
	}
	overrides := readRunOverrides(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Scrape)
	defer cancel()
	items, err := h.scraper.Run(ctx, overrides)
	if err != nil {
		log.Printf("apify run failed request_id=%s err=%v", r.Header.Get(httpx.RequestIDHeader), err)
		_ = httpx.WriteJSONError(w, http.StatusInternalServerError, apperrors.PublicMessage(err, err.Error()))
		return
	}
	leads := nonNilLeads(leadsource.NormalizePlaces(items))
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "leads": leads, "count": len(leads)})
}

// readRunOverrides decodes an optional JSON object body. Anything else runs
// with the default input.
func readRunOverrides(r *http.Request) map[string]any {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, httpx.MaxJSONBody))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	var overrides map[string]any
	if err := json.Unmarshal(body, &overrides); err != nil {
		return nil
	}
	return overrides
}

type researchRequest struct {
	Location string `json:"location"`
	Sport    string `json:"sport"`
}

func (h *handlers) handleLeadsResearch(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	if h.researcher == nil {
		httpx.WriteError(w, r, notConfigured("Perplexity API key not configured. Add TEAMFUND_PERPLEXITY_API_KEY to the environment"), "Failed to research leads")
		return
	}
	var req researchRequest
	if r.ContentLength != 0 {
		// An unreadable body falls back to the team's values.
		_ = httpx.DecodeJSON(r, &req)
	}
	location := firstNonEmpty(req.Location, team.Location, defaultResearchLocation)
	sport := firstNonEmpty(req.Sport, team.Sport, defaultResearchSport)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Generation)
	defer cancel()
	leads, err := h.researcher.ResearchLeads(ctx, sport, location)
	if err != nil {
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			_ = httpx.WriteJSONError(w, http.StatusInternalServerError, statusErr.Error())
			return
		}
		httpx.WriteError(w, r, err, "Failed to research leads")
		return
	}
	leads = nonNilLeads(leads)
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "leads": leads, "count": len(leads)})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func nonNilLeads(leads []domain.LeadDraft) []domain.LeadDraft {
	if leads == nil {
		return []domain.LeadDraft{}
	}
	return leads
}
