// Package apify runs the Google Maps scraper actor and reads the places it
// collected.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/teamfund/internal/platform/otel"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	// DefaultBaseURL is the public Apify API root.
	DefaultBaseURL = "https://api.apify.com"
	// DefaultActorID is the Google Maps scraper actor.
	DefaultActorID = "nwua9Gu5YrADL7ZDj"

	datasetPageSize = 1000
	// waitForFinish is the longest synchronous wait the run endpoint accepts.
	waitForFinish = 60 * time.Second
)

// Config configures the scraper client.
type Config struct {
	Token      string
	ActorID    string
	BaseURL    string
	HTTPClient *http.Client
}

// Client starts actor runs and pages through their datasets.
type Client struct {
	cfg Config
}

// NewClient builds a client, filling in defaults for empty fields.
func NewClient(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(cfg.ActorID) == "" {
		cfg.ActorID = DefaultActorID
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg}
}

// DefaultRunInput returns a fresh copy of the actor input used when the
// caller supplies no overrides.
func DefaultRunInput() map[string]any {
	return map[string]any{
		"searchStringsArray":             []any{"restaurant"},
		"locationQuery":                  "New York, USA",
		"maxCrawledPlacesPerSearch":      50,
		"language":                       "en",
		"categoryFilterWords":            nil,
		"searchMatching":                 "all",
		"placeMinimumStars":              "",
		"website":                        "allPlaces",
		"skipClosedPlaces":               false,
		"scrapePlaceDetailPage":          false,
		"scrapeTableReservationProvider": false,
		"includeWebResults":              false,
		"scrapeDirectories":              false,
		"maxQuestions":                   0,
		"scrapeContacts":                 false,
		"scrapeSocialMediaProfiles": map[string]any{
			"facebooks":  false,
			"instagrams": false,
			"youtubes":   false,
			"tiktoks":    false,
			"twitters":   false,
		},
		"maximumLeadsEnrichmentRecords": 0,
		"leadsEnrichmentDepartments":    nil,
		"maxReviews":                    0,
		"reviewsStartDate":              nil,
		"reviewsSort":                   "newest",
		"reviewsFilterString":           "",
		"reviewsOrigin":                 "all",
		"scrapeReviewsPersonalData":     true,
		"maxImages":                     0,
		"scrapeImageAuthors":            false,
		"countryCode":                   nil,
		"city":                          nil,
		"state":                         nil,
		"county":                        nil,
		"postalCode":                    nil,
		"customGeolocation":             nil,
		"startUrls":                     nil,
		"placeIds":                      nil,
		"allPlacesNoSearchAction":       "",
	}
}

// MergeRunInput shallow-merges overrides over the default input.
func MergeRunInput(overrides map[string]any) map[string]any {
	input := DefaultRunInput()
	maps.Copy(input, overrides)
	return input
}

// Run starts the actor with the merged input, waits for it to finish and
// returns every item of its default dataset.
func (c *Client) Run(ctx context.Context, overrides map[string]any) ([]gjson.Result, error) {
	if strings.TrimSpace(c.cfg.Token) == "" {
		return nil, fmt.Errorf("apify token is required")
	}
	ctx, span := otel.Tracer("teamfund/apify").Start(ctx, "apify.Run")
	defer span.End()
	span.SetAttributes(attribute.String("apify.actor_id", c.cfg.ActorID))

	datasetID, err := c.startRun(ctx, MergeRunInput(overrides))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "start run")
		return nil, err
	}
	items, err := c.datasetItems(ctx, datasetID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read dataset")
		return nil, err
	}
	span.SetAttributes(attribute.Int("apify.items", len(items)))
	return items, nil
}

// actorRun is the part of an actor run object the client reads.
type actorRun struct {
	id        string
	status    string
	datasetID string
}

func parseRun(payload []byte) actorRun {
	data := gjson.GetBytes(payload, "data")
	return actorRun{
		id:        data.Get("id").String(),
		status:    data.Get("status").String(),
		datasetID: data.Get("defaultDatasetId").String(),
	}
}

// running reports whether the run has not reached a terminal status yet.
func (r actorRun) running() bool {
	return r.status == "READY" || r.status == "RUNNING"
}

func (c *Client) startRun(ctx context.Context, input map[string]any) (string, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal run input: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v2/acts/%s/runs?waitForFinish=%d", c.cfg.BaseURL, url.PathEscape(c.cfg.ActorID), int(waitForFinish/time.Second))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	payload, err := c.do(req, "run")
	if err != nil {
		return "", err
	}

	run := parseRun(payload)
	if run.running() {
		if run.id == "" {
			return "", fmt.Errorf("run response missing id")
		}
		if run, err = c.waitRun(ctx, run.id); err != nil {
			return "", err
		}
	}
	if run.status != "SUCCEEDED" {
		return "", fmt.Errorf("actor run %s finished with status %s", run.id, run.status)
	}
	if run.datasetID == "" {
		return "", fmt.Errorf("run response missing defaultDatasetId")
	}
	return run.datasetID, nil
}

// waitRun polls the run until it leaves READY/RUNNING. Each poll blocks
// upstream for up to waitForFinish, so the loop is bounded by ctx.
func (c *Client) waitRun(ctx context.Context, runID string) (actorRun, error) {
	endpoint := fmt.Sprintf("%s/v2/actor-runs/%s?waitForFinish=%d", c.cfg.BaseURL, url.PathEscape(runID), int(waitForFinish/time.Second))
	for {
		if err := ctx.Err(); err != nil {
			return actorRun{}, fmt.Errorf("wait for actor run %s: %w", runID, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return actorRun{}, fmt.Errorf("build run status request: %w", err)
		}
		payload, err := c.do(req, "run status")
		if err != nil {
			return actorRun{}, err
		}
		run := parseRun(payload)
		if run.id == "" {
			run.id = runID
		}
		if !run.running() {
			return run, nil
		}
	}
}

func (c *Client) datasetItems(ctx context.Context, datasetID string) ([]gjson.Result, error) {
	var items []gjson.Result
	for offset := 0; ; offset += datasetPageSize {
		q := url.Values{}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(datasetPageSize))
		q.Set("clean", "true")
		endpoint := fmt.Sprintf("%s/v2/datasets/%s/items?%s", c.cfg.BaseURL, url.PathEscape(datasetID), q.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build dataset request: %w", err)
		}
		payload, err := c.do(req, "dataset")
		if err != nil {
			return nil, err
		}
		parsed := gjson.ParseBytes(payload)
		if !parsed.IsArray() {
			return nil, fmt.Errorf("dataset response is not an array")
		}
		page := parsed.Array()
		items = append(items, page...)
		if len(page) < datasetPageSize {
			return items, nil
		}
	}
}

func (c *Client) do(req *http.Request, label string) ([]byte, error) {
	// The token travels only in the Authorization header.
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.cfg.Token))
	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", label, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("read %s error body: %w", label, err)
		}
		if message := gjson.GetBytes(body, "error.message").String(); message != "" {
			return nil, fmt.Errorf("%s request status %d: %s", label, res.StatusCode, message)
		}
		return nil, fmt.Errorf("%s request status %d: %s", label, res.StatusCode, strings.TrimSpace(string(body)))
	}
	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", label, err)
	}
	return payload, nil
}
