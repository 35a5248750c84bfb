package apify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func TestMergeRunInputOverridesShallowly(t *testing.T) {
	input := MergeRunInput(map[string]any{
		"locationQuery":             "Austin, USA",
		"scrapeSocialMediaProfiles": map[string]any{"facebooks": true},
	})
	if got := input["locationQuery"]; got != "Austin, USA" {
		t.Fatalf("locationQuery = %v, want Austin, USA", got)
	}
	if got := input["language"]; got != "en" {
		t.Fatalf("language = %v, want en", got)
	}
	social := input["scrapeSocialMediaProfiles"].(map[string]any)
	if _, ok := social["instagrams"]; ok {
		t.Fatalf("nested defaults kept, want replaced object")
	}
}

func TestMergeRunInputDoesNotLeakBetweenCalls(t *testing.T) {
	MergeRunInput(map[string]any{"language": "fr"})
	if got := DefaultRunInput()["language"]; got != "en" {
		t.Fatalf("default language = %v, want en", got)
	}
}

func TestRunRequiresToken(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without token")
	}
}

func TestRunReadsEveryDatasetPage(t *testing.T) {
	var runInput map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q, want Bearer tok", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/acts/"+DefaultActorID+"/runs":
			if r.URL.Query().Get("waitForFinish") == "" {
				t.Errorf("waitForFinish missing")
			}
			if err := json.NewDecoder(r.Body).Decode(&runInput); err != nil {
				t.Errorf("decode run input: %v", err)
			}
			_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"SUCCEEDED","defaultDatasetId":"ds-1"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v2/datasets/ds-1/items":
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			count := datasetPageSize
			if offset > 0 {
				count = 2
			}
			items := make([]string, 0, count)
			for i := 0; i < count; i++ {
				items = append(items, fmt.Sprintf(`{"title":"Place %d"}`, offset+i))
			}
			_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(Config{Token: "tok", BaseURL: server.URL + "/", HTTPClient: server.Client()})
	items, err := client.Run(context.Background(), map[string]any{"locationQuery": "Austin, USA"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(items) != datasetPageSize+2 {
		t.Fatalf("items = %d, want %d", len(items), datasetPageSize+2)
	}
	if got := items[len(items)-1].Get("title").String(); got != fmt.Sprintf("Place %d", datasetPageSize+1) {
		t.Fatalf("last title = %q", got)
	}
	if got := runInput["locationQuery"]; got != "Austin, USA" {
		t.Fatalf("run locationQuery = %v, want Austin, USA", got)
	}
	if got := runInput["maxCrawledPlacesPerSearch"]; got != float64(50) {
		t.Fatalf("run maxCrawledPlacesPerSearch = %v, want 50", got)
	}
}

func TestRunPollsUntilRunFinishes(t *testing.T) {
	var polls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/acts/"+DefaultActorID+"/runs":
			_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"RUNNING","defaultDatasetId":"ds-1"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v2/actor-runs/run-1":
			if got := r.URL.Query().Get("waitForFinish"); got != "60" {
				t.Errorf("waitForFinish = %q, want 60", got)
			}
			polls++
			status := "RUNNING"
			if polls > 1 {
				status = "SUCCEEDED"
			}
			_, _ = fmt.Fprintf(w, `{"data":{"id":"run-1","status":%q,"defaultDatasetId":"ds-1"}}`, status)
		case r.Method == http.MethodGet && r.URL.Path == "/v2/datasets/ds-1/items":
			_, _ = w.Write([]byte(`[{"title":"Taco Hut"}]`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(Config{Token: "tok", BaseURL: server.URL, HTTPClient: server.Client()})
	items, err := client.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if polls != 2 {
		t.Fatalf("polls = %d, want 2", polls)
	}
	if len(items) != 1 || items[0].Get("title").String() != "Taco Hut" {
		t.Fatalf("items = %v", items)
	}
}

func TestRunStopsPollingWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			cancel()
		}
		_, _ = w.Write([]byte(`{"data":{"id":"run-3","status":"READY"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{Token: "tok", BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := client.Run(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunReportsFailedRunStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"run-2","status":"FAILED","defaultDatasetId":"ds-2"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{Token: "tok", BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := client.Run(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "FAILED") {
		t.Fatalf("err = %v, want FAILED status", err)
	}
}

func TestRunSurfacesUpstreamErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"type":"token-not-valid","message":"User was not found or authentication token is not valid"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{Token: "bad", BaseURL: server.URL, HTTPClient: server.Client()})
	_, err := client.Run(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "authentication token is not valid") {
		t.Fatalf("err = %v, want upstream message", err)
	}
	if strings.Contains(err.Error(), "bad") {
		t.Fatalf("err leaks token: %v", err)
	}
}
