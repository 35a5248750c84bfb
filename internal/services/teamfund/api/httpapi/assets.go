package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/httpx"
	"github.com/louisbranch/teamfund/internal/platform/timeouts"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/integration/imagegen"
	"github.com/louisbranch/teamfund/internal/services/teamfund/mail"
	"github.com/louisbranch/teamfund/internal/services/teamfund/pages"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

// multipartOverhead leaves room for form fields around the file part.
const multipartOverhead = 1 << 20

func (h *handlers) handleAssetsList(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	rows, err := h.store.ListAssets(r.Context(), team.ID)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to load assets")
		return
	}
	assets := make([]domain.Asset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, storage.AssetFromRow(row))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

func (h *handlers) handleAssetUpload(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, r, apperrors.New(apperrors.CodeAssetTooLarge, "File is too large"), "Failed to upload asset")
			return
		}
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()
	if header.Size > h.maxUploadBytes {
		httpx.WriteError(w, r, apperrors.New(apperrors.CodeAssetTooLarge, "File is too large"), "Failed to upload asset")
		return
	}
	assetType, err := domain.ParseAssetType(r.FormValue("type"))
	if err != nil {
		httpx.WriteError(w, r, err, "Invalid asset type")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to read upload")
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = path.Base(header.Filename)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	asset, err := h.saveAsset(r.Context(), team.ID, assetType, name, domain.AssetObject{ContentType: contentType, Data: data})
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to upload asset")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, map[string]any{"asset": asset})
}

func (h *handlers) handleAssetContent(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	assetID := r.PathValue("id")
	object, err := h.store.GetAssetObject(r.Context(), team.ID, assetID)
	if err != nil {
		httpx.WriteError(w, r, storeError(err, apperrors.CodeAssetNotFound, "Asset not found"), "Failed to load asset")
		return
	}
	w.Header().Set("Content-Type", object.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(object.Data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(object.Data)
}

func (h *handlers) handleAssetDelete(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	assetID := r.PathValue("id")
	if assetID == "" {
		assetID = strings.TrimSpace(r.URL.Query().Get("id"))
	}
	if assetID == "" {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Asset id is required")
		return
	}
	if err := h.store.DeleteAsset(r.Context(), team.ID, assetID); err != nil {
		httpx.WriteError(w, r, storeError(err, apperrors.CodeAssetNotFound, "Asset not found"), "Failed to delete asset")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type jerseyMockupRequest struct {
	SponsorName   string `json:"sponsorName"`
	JerseyAssetID string `json:"jerseyAssetId"`
	LogoAssetID   string `json:"logoAssetId"`
}

func (h *handlers) handleJerseyMockup(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	if h.mockups == nil {
		httpx.WriteError(w, r, notConfigured("Image generation not configured"), "Failed to generate mockup")
		return
	}
	var req jerseyMockupRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err, "Invalid mockup request")
			return
		}
	}
	ctx := r.Context()
	mockup := imagegen.MockupRequest{
		Prompt: imagegen.BuildJerseyPrompt(imagegen.PromptParams{
			TeamName:       team.Name,
			PrimaryColor:   team.PrimaryColor,
			SecondaryColor: team.SecondaryColor,
			SponsorName:    strings.TrimSpace(req.SponsorName),
		}),
	}
	var err error
	if mockup.Jersey, err = h.referenceImage(ctx, team.ID, req.JerseyAssetID); err != nil {
		httpx.WriteError(w, r, err, "Failed to load jersey")
		return
	}
	if mockup.Logo, err = h.referenceImage(ctx, team.ID, req.LogoAssetID); err != nil {
		httpx.WriteError(w, r, err, "Failed to load logo")
		return
	}

	genCtx, cancel := context.WithTimeout(ctx, timeouts.Generation)
	image, err := h.mockups.GenerateMockup(genCtx, mockup)
	cancel()
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to generate mockup")
		return
	}
	subject := team.Name
	if sponsor := strings.TrimSpace(req.SponsorName); sponsor != "" {
		subject = sponsor
	}
	asset, err := h.saveAsset(ctx, team.ID, domain.AssetTypeJerseyMockup, "Jersey Mockup - "+subject, domain.AssetObject{
		ContentType: image.MIMEType,
		Data:        image.Data,
	})
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to save mockup")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, map[string]any{"asset": asset})
}

func (h *handlers) referenceImage(ctx context.Context, teamID, assetID string) (*imagegen.Image, error) {
	assetID = strings.TrimSpace(assetID)
	if assetID == "" {
		return nil, nil
	}
	object, err := h.store.GetAssetObject(ctx, teamID, assetID)
	if err != nil {
		return nil, storeError(err, apperrors.CodeAssetNotFound, "Asset not found")
	}
	return &imagegen.Image{MIMEType: object.ContentType, Data: object.Data}, nil
}

type proposalRequest struct {
	DraftID string `json:"draftId"`
}

func (h *handlers) handleProposal(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	var req proposalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Invalid proposal request")
		return
	}
	if strings.TrimSpace(req.DraftID) == "" {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Draft id is required")
		return
	}
	ctx := r.Context()
	draft, err := h.loadDraft(ctx, team.ID, strings.TrimSpace(req.DraftID))
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to load draft")
		return
	}
	leadRow, err := h.store.GetLead(ctx, team.ID, draft.LeadID)
	if err != nil {
		httpx.WriteError(w, r, storeError(err, apperrors.CodeLeadNotFound, "Lead not found"), "Failed to load lead")
		return
	}
	lead := storage.LeadFromRow(leadRow)
	doc, err := pages.RenderProposal(ctx, pages.ProposalInput{Team: team, Lead: lead, Draft: draft})
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to render proposal")
		return
	}
	asset, err := h.saveAsset(ctx, team.ID, domain.AssetTypeProposal, pages.ProposalTitle(team, lead), domain.AssetObject{
		ContentType: "text/html; charset=utf-8",
		Data:        doc,
	})
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to save proposal")
		return
	}

	draft.Attachments = append(draft.Attachments, asset.ID)
	if err := h.store.PutDraft(ctx, storage.DraftToRow(draft, team.ID)); err != nil {
		httpx.WriteError(w, r, storeError(err, apperrors.CodeDraftNotFound, "Draft not found"), "Failed to attach proposal")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, map[string]any{"asset": asset})
}

// saveAsset stores object as a new team asset served from the content
// route.
func (h *handlers) saveAsset(ctx context.Context, teamID string, assetType domain.AssetType, name string, object domain.AssetObject) (domain.Asset, error) {
	assetID, err := h.newID()
	if err != nil {
		return domain.Asset{}, err
	}
	asset := domain.Asset{
		ID:        assetID,
		TeamID:    teamID,
		Type:      assetType,
		Name:      name,
		URL:       AssetContentPath(assetID),
		CreatedAt: h.now(),
	}
	row := storage.AssetToRow(asset, teamID)
	if err := h.store.PutAsset(ctx, row, &storage.AssetObjectRow{
		AssetID:     assetID,
		ContentType: object.ContentType,
		Data:        object.Data,
	}); err != nil {
		return domain.Asset{}, fmt.Errorf("save asset: %w", err)
	}
	return storage.AssetFromRow(row), nil
}

// loadAttachments resolves asset ids to mail attachments.
func (h *handlers) loadAttachments(ctx context.Context, teamID string, assetIDs []string) ([]mail.Attachment, error) {
	attachments := make([]mail.Attachment, 0, len(assetIDs))
	for _, assetID := range assetIDs {
		row, err := h.store.GetAsset(ctx, teamID, assetID)
		if err != nil {
			return nil, storeError(err, apperrors.CodeAssetNotFound, "Asset not found")
		}
		object, err := h.store.GetAssetObject(ctx, teamID, assetID)
		if err != nil {
			return nil, storeError(err, apperrors.CodeAssetNotFound, "Asset not found")
		}
		attachments = append(attachments, mail.Attachment{
			Filename:    attachmentName(row.Name, object.ContentType),
			ContentType: object.ContentType,
			Data:        object.Data,
		})
	}
	return attachments, nil
}

var unsafeFilename = strings.NewReplacer("\r", " ", "\n", " ", `"`, "'", "/", "-", "\\", "-")

// attachmentName derives a header-safe file name with an extension matching
// contentType.
func attachmentName(name, contentType string) string {
	name = strings.TrimSpace(unsafeFilename.Replace(name))
	if name == "" {
		name = "attachment"
	}
	if path.Ext(name) != "" {
		return name
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return name
	}
	switch mediaType {
	case "text/html":
		return name + ".html"
	case "image/png":
		return name + ".png"
	case "image/jpeg":
		return name + ".jpg"
	case "application/pdf":
		return name + ".pdf"
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return name + exts[0]
	}
	return name
}
