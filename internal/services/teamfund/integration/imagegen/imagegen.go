// Package imagegen generates jersey sponsorship mockups with a Gemini image
// model.
package imagegen

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/louisbranch/teamfund/internal/platform/otel"
)

// DefaultModel is the Gemini image model used when none is configured.
const DefaultModel = "gemini-2.5-flash-image"

// Config configures the image client.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the Gemini API root.
	BaseURL    string
	HTTPClient *http.Client
}

// Image is an inline image payload.
type Image struct {
	MIMEType string
	Data     []byte
}

// MockupRequest describes one mockup. Jersey and Logo are optional
// reference images, sent in that order after the prompt.
type MockupRequest struct {
	Prompt string
	Jersey *Image
	Logo   *Image
}

// Client calls the image model.
type Client struct {
	model  string
	client *genai.Client
}

// NewClient builds an image client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{model: model, client: client}, nil
}

// GenerateMockup returns the first image the model produces.
func (c *Client) GenerateMockup(ctx context.Context, req MockupRequest) (Image, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Image{}, fmt.Errorf("prompt is required")
	}
	ctx, span := otel.Tracer("teamfund/imagegen").Start(ctx, "imagegen.GenerateMockup")
	defer span.End()
	span.SetAttributes(
		attribute.String("imagegen.model", c.model),
		attribute.Bool("imagegen.jersey", req.Jersey != nil),
		attribute.Bool("imagegen.logo", req.Logo != nil),
	)

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, ref := range []*Image{req.Jersey, req.Logo} {
		if ref != nil && len(ref.Data) > 0 {
			parts = append(parts, genai.NewPartFromBytes(ref.Data, ref.MIMEType))
		}
	}
	config := &genai.GenerateContentConfig{}
	config.ResponseModalities = append(config.ResponseModalities, "TEXT", "IMAGE")

	resp, err := c.client.Models.GenerateContent(ctx, c.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content")
		return Image{}, fmt.Errorf("generate mockup: %w", err)
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := part.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return Image{MIMEType: mimeType, Data: part.InlineData.Data}, nil
			}
		}
	}
	err = fmt.Errorf("model returned no image")
	span.SetStatus(codes.Error, err.Error())
	return Image{}, err
}
