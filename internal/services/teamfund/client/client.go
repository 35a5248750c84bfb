// Package client is a typed HTTP client for the TeamFund API and the
// in-memory workspace built on it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/louisbranch/teamfund/internal/services/teamfund/api/httpapi"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
)

// Config configures a client.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:8080.
	BaseURL string
	// Token is the bearer session token.
	Token      string
	HTTPClient *http.Client
}

// Client calls the TeamFund API on behalf of one session.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// APIError is a non-2xx API response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("teamfund api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("teamfund api: %s (status %d)", e.Message, e.StatusCode)
}

// IsStatus reports whether err is an API error with status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("session token is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: base, token: strings.TrimSpace(cfg.Token), http: httpClient}, nil
}

// Me describes the signed-in user.
type Me struct {
	User        domain.User  `json:"user"`
	Team        *domain.Team `json:"team"`
	IsOnboarded bool         `json:"isOnboarded"`
}

// Me returns the signed-in user and team.
func (c *Client) Me(ctx context.Context) (Me, error) {
	var out Me
	err := c.do(ctx, http.MethodGet, httpapi.Me, nil, nil, &out)
	return out, err
}

// PutTeam creates or replaces the caller's team.
func (c *Client) PutTeam(ctx context.Context, team domain.Team) (domain.Team, error) {
	var out struct {
		Team domain.Team `json:"team"`
	}
	err := c.do(ctx, http.MethodPut, httpapi.Team, nil, team, &out)
	return out.Team, err
}

// ListLeadsOptions selects a page of leads.
type ListLeadsOptions struct {
	Filter    string
	PageSize  int
	PageToken string
}

// ListLeads returns one page of leads, newest first.
func (c *Client) ListLeads(ctx context.Context, opts ListLeadsOptions) (domain.LeadPage, error) {
	query := url.Values{}
	if opts.Filter != "" {
		query.Set("filter", opts.Filter)
	}
	if opts.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.PageToken != "" {
		query.Set("pageToken", opts.PageToken)
	}
	var out domain.LeadPage
	err := c.do(ctx, http.MethodGet, httpapi.Leads, query, nil, &out)
	return out, err
}

// ListAllLeads follows page tokens until every matching lead is read.
func (c *Client) ListAllLeads(ctx context.Context, filter string) ([]domain.Lead, error) {
	leads := []domain.Lead{}
	opts := ListLeadsOptions{Filter: filter, PageSize: 200}
	for {
		page, err := c.ListLeads(ctx, opts)
		if err != nil {
			return nil, err
		}
		leads = append(leads, page.Leads...)
		if page.NextPageToken == "" {
			return leads, nil
		}
		opts.PageToken = page.NextPageToken
	}
}

// AddLeads stores lead drafts and returns the stored leads.
func (c *Client) AddLeads(ctx context.Context, drafts []domain.LeadDraft) ([]domain.Lead, error) {
	var out struct {
		Leads []domain.Lead `json:"leads"`
	}
	err := c.do(ctx, http.MethodPost, httpapi.Leads, nil, map[string]any{"leads": drafts}, &out)
	return out.Leads, err
}

// LeadUpdate is a partial lead edit.
type LeadUpdate struct {
	Status *domain.LeadStatus `json:"status,omitempty"`
	Notes  *string            `json:"notes,omitempty"`
}

// UpdateLead applies update to one lead.
func (c *Client) UpdateLead(ctx context.Context, leadID string, update LeadUpdate) (domain.Lead, error) {
	var out struct {
		Lead domain.Lead `json:"lead"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/leads/"+url.PathEscape(leadID), nil, update, &out)
	return out.Lead, err
}

// BulkUpdateLeadStatus sets status on every listed lead and returns how many
// changed.
func (c *Client) BulkUpdateLeadStatus(ctx context.Context, leadIDs []string, status domain.LeadStatus) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	err := c.do(ctx, http.MethodPost, httpapi.LeadsStatus, nil, map[string]any{"ids": leadIDs, "status": status}, &out)
	return out.Updated, err
}

// DeleteLeads removes leads and returns how many were deleted.
func (c *Client) DeleteLeads(ctx context.Context, leadIDs []string) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	err := c.do(ctx, http.MethodDelete, httpapi.Leads, nil, map[string]any{"ids": leadIDs}, &out)
	return out.Deleted, err
}

// DiscoverRequest asks for nearby businesses.
type DiscoverRequest struct {
	ZipCode  string `json:"zipCode"`
	Audience string `json:"audience"`
	Limit    int    `json:"limit"`
}

// DiscoverLeads returns unsaved leads near a ZIP code.
func (c *Client) DiscoverLeads(ctx context.Context, req DiscoverRequest) ([]domain.LeadDraft, error) {
	var out struct {
		Leads []domain.LeadDraft `json:"leads"`
	}
	err := c.do(ctx, http.MethodPost, httpapi.LeadsDiscover, nil, req, &out)
	return out.Leads, err
}

// ResearchLeads returns unsaved leads suggested by the research model.
// Empty values default to the team's sport and location.
func (c *Client) ResearchLeads(ctx context.Context, sport, location string) ([]domain.LeadDraft, error) {
	var out struct {
		Leads []domain.LeadDraft `json:"leads"`
	}
	err := c.do(ctx, http.MethodPost, httpapi.LeadsResearch, nil, map[string]string{"sport": sport, "location": location}, &out)
	return out.Leads, err
}

// ScrapeLeads runs the maps scraper with run-input overrides.
func (c *Client) ScrapeLeads(ctx context.Context, overrides map[string]any) ([]domain.LeadDraft, error) {
	if overrides == nil {
		overrides = map[string]any{}
	}
	var out struct {
		Leads []domain.LeadDraft `json:"leads"`
	}
	err := c.do(ctx, http.MethodPost, httpapi.LeadsApify, nil, overrides, &out)
	return out.Leads, err
}

// ListDrafts returns the team's outreach drafts.
func (c *Client) ListDrafts(ctx context.Context) ([]domain.OutreachDraft, error) {
	var out struct {
		Drafts []domain.OutreachDraft `json:"drafts"`
	}
	err := c.do(ctx, http.MethodGet, httpapi.Outreach, nil, nil, &out)
	return out.Drafts, err
}

// CreateDraft stores a hand-written draft.
func (c *Client) CreateDraft(ctx context.Context, draft domain.OutreachDraft) (domain.OutreachDraft, error) {
	return c.draftCall(ctx, http.MethodPost, httpapi.Outreach, draft)
}

// GenerateDraft generates and stores a draft for a lead.
func (c *Client) GenerateDraft(ctx context.Context, leadID string) (domain.OutreachDraft, error) {
	return c.draftCall(ctx, http.MethodPost, httpapi.OutreachGenerate, map[string]string{"leadId": leadID})
}

// UpdateDraft applies a partial text edit.
func (c *Client) UpdateDraft(ctx context.Context, draftID string, update domain.DraftUpdate) (domain.OutreachDraft, error) {
	return c.draftCall(ctx, http.MethodPatch, "/api/outreach/"+url.PathEscape(draftID), update)
}

// UpdateDraftStatus sets a draft's review status.
func (c *Client) UpdateDraftStatus(ctx context.Context, draftID string, status domain.DraftStatus) (domain.OutreachDraft, error) {
	return c.draftCall(ctx, http.MethodPatch, "/api/outreach/"+url.PathEscape(draftID), map[string]string{"status": string(status)})
}

func (c *Client) draftCall(ctx context.Context, method, path string, body any) (domain.OutreachDraft, error) {
	var out struct {
		Draft domain.OutreachDraft `json:"draft"`
	}
	err := c.do(ctx, method, path, nil, body, &out)
	return out.Draft, err
}

// ListAssets returns the team's assets.
func (c *Client) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	var out struct {
		Assets []domain.Asset `json:"assets"`
	}
	err := c.do(ctx, http.MethodGet, httpapi.Assets, nil, nil, &out)
	return out.Assets, err
}

// Upload is a file to store as an asset.
type Upload struct {
	Type     domain.AssetType
	Name     string
	Filename string
	Data     []byte
}

// UploadAsset stores a file as a team asset.
func (c *Client) UploadAsset(ctx context.Context, upload Upload) (domain.Asset, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("type", string(upload.Type)); err != nil {
		return domain.Asset{}, err
	}
	if upload.Name != "" {
		if err := writer.WriteField("name", upload.Name); err != nil {
			return domain.Asset{}, err
		}
	}
	part, err := writer.CreateFormFile("file", upload.Filename)
	if err != nil {
		return domain.Asset{}, err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return domain.Asset{}, err
	}
	if err := writer.Close(); err != nil {
		return domain.Asset{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, httpapi.Assets, nil, &body)
	if err != nil {
		return domain.Asset{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	var out struct {
		Asset domain.Asset `json:"asset"`
	}
	err = c.send(req, &out)
	return out.Asset, err
}

// GenerateMockup renders a jersey mockup asset.
func (c *Client) GenerateMockup(ctx context.Context, sponsorName, jerseyAssetID, logoAssetID string) (domain.Asset, error) {
	var out struct {
		Asset domain.Asset `json:"asset"`
	}
	err := c.do(ctx, http.MethodPost, httpapi.AssetsJerseyMockup, nil, map[string]string{
		"sponsorName":   sponsorName,
		"jerseyAssetId": jerseyAssetID,
		"logoAssetId":   logoAssetID,
	}, &out)
	return out.Asset, err
}

// GenerateProposal renders the proposal document of a draft.
func (c *Client) GenerateProposal(ctx context.Context, draftID string) (domain.Asset, error) {
	var out struct {
		Asset domain.Asset `json:"asset"`
	}
	err := c.do(ctx, http.MethodPost, httpapi.AssetsProposal, nil, map[string]string{"draftId": draftID}, &out)
	return out.Asset, err
}

// DeleteAsset removes an asset and its content.
func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	return c.do(ctx, http.MethodDelete, "/api/assets/"+url.PathEscape(assetID), nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, query, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL.JoinPath(path)
	target.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", req.Method, req.URL.Path, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &APIError{StatusCode: res.StatusCode, Message: gjson.GetBytes(payload, "error").String()}
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
