// Package here discovers local businesses near a postal code with the HERE
// geocoding and search APIs.
package here

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/otel"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/leadsource"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultGeocodeURL  = "https://geocode.search.hereapi.com/v1/geocode"
	DefaultDiscoverURL = "https://discover.search.hereapi.com/v1/discover"
)

// Config configures the place search client.
type Config struct {
	APIKey      string
	GeocodeURL  string
	DiscoverURL string
	HTTPClient  *http.Client
}

// Client runs audience-driven place searches.
type Client struct {
	cfg Config
}

// NewClient builds a client, filling in defaults for empty fields.
func NewClient(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.GeocodeURL) == "" {
		cfg.GeocodeURL = DefaultGeocodeURL
	}
	if strings.TrimSpace(cfg.DiscoverURL) == "" {
		cfg.DiscoverURL = DefaultDiscoverURL
	}
	return &Client{cfg: cfg}
}

// Position is a geocoded coordinate.
type Position struct {
	Lat float64
	Lng float64
}

// MaxLimit caps the results of one Discover call.
const MaxLimit = 100

// Discover geocodes zip and searches each query of the audience around it.
// Results are deduplicated by title and capped at limit, itself capped at
// MaxLimit. Failed searches are skipped.
func (c *Client) Discover(ctx context.Context, zip, audience string, limit int) ([]domain.LeadDraft, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, apperrors.New(apperrors.CodeNotConfigured, "HERE API key not configured")
	}
	if strings.TrimSpace(zip) == "" || strings.TrimSpace(audience) == "" || limit <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "Missing required fields")
	}
	ctx, span := otel.Tracer("teamfund/here").Start(ctx, "here.Discover")
	defer span.End()
	span.SetAttributes(attribute.String("here.audience", audience), attribute.Int("here.limit", limit))

	position, err := c.Geocode(ctx, zip)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "geocode")
		return nil, err
	}

	limit = min(limit, MaxLimit)
	queries := leadsource.AudienceQueries(audience)
	perQuery := (limit + len(queries) - 1) / len(queries)
	titles := leadsource.NewTitleSet()
	collected := make([]gjson.Result, 0, min(limit, 64))
	for _, query := range queries {
		if len(collected) >= limit {
			break
		}
		items, err := c.search(ctx, position, query, perQuery)
		if err != nil {
			log.Printf("place search skipped query=%q err=%v", query, err)
			continue
		}
		for _, item := range items {
			if len(collected) >= limit {
				break
			}
			title := item.Get("title").String()
			if title == "" || !titles.Add(title) {
				continue
			}
			collected = append(collected, item)
		}
	}
	span.SetAttributes(attribute.Int("here.results", len(collected)))
	return leadsource.NormalizeHerePlaces(collected, audience, zip), nil
}

// Geocode resolves a postal code to the first matching position.
func (c *Client) Geocode(ctx context.Context, zip string) (Position, error) {
	q := url.Values{}
	q.Set("q", zip)
	q.Set("apiKey", c.cfg.APIKey)
	payload, err := c.get(ctx, c.cfg.GeocodeURL, q)
	if err != nil {
		return Position{}, apperrors.Wrap(apperrors.CodeUpstreamFailed, "Failed to geocode zip code", err)
	}
	first := gjson.GetBytes(payload, "items.0.position")
	if !first.Exists() {
		return Position{}, apperrors.New(apperrors.CodeLocationNotFound, "Could not find location for that zip code")
	}
	return Position{Lat: first.Get("lat").Float(), Lng: first.Get("lng").Float()}, nil
}

func (c *Client) search(ctx context.Context, at Position, query string, limit int) ([]gjson.Result, error) {
	q := url.Values{}
	q.Set("at", strconv.FormatFloat(at.Lat, 'f', -1, 64)+","+strconv.FormatFloat(at.Lng, 'f', -1, 64))
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("apiKey", c.cfg.APIKey)
	payload, err := c.get(ctx, c.cfg.DiscoverURL, q)
	if err != nil {
		return nil, err
	}
	return gjson.GetBytes(payload, "items").Array(), nil
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		// url.Error embeds the query, which carries the key.
		return nil, fmt.Errorf("request to %s failed", req.URL.Host)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("request status %d", res.StatusCode)
	}
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !gjson.ValidBytes(payload) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	return payload, nil
}
