package httpx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/requestctx"
)

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	called := ""
	mark := func(label string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called += label
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called += "h"
		w.WriteHeader(http.StatusNoContent)
	}), mark("1"), nil, mark("2"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if called != "12h" {
		t.Fatalf("call order = %q, want %q", called, "12h")
	}
}

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestctx.RequestIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" {
		t.Fatal("expected generated request id in context")
	}
	if got := rr.Header().Get(RequestIDHeader); got != seen {
		t.Fatalf("header request id = %q, want %q", got, seen)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	h.ServeHTTP(rr, req)
	if seen != "given-id" {
		t.Fatalf("request id = %q, want %q", seen, "given-id")
	}
}

func TestRecoverPanicWritesJSON500(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	h := RecoverPanic()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/leads", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(logs.String(), "path=/api/leads") {
		t.Fatalf("expected panic log with path, got %q", logs.String())
	}
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	h := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/team", nil))
	if !strings.Contains(logs.String(), "method=POST path=/api/team status=418") {
		t.Fatalf("unexpected log line %q", logs.String())
	}
}

func TestWriteErrorMapsDomainCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "domain", err: apperrors.New(apperrors.CodeTeamNotFound, "Team not found"), wantStatus: http.StatusNotFound, wantBody: "Team not found"},
		{name: "wrapped", err: fmt.Errorf("handler: %w", apperrors.New(apperrors.CodeInvalidInput, "ids required")), wantStatus: http.StatusBadRequest, wantBody: "ids required"},
		{name: "internal", err: fmt.Errorf("sql: disk full"), wantStatus: http.StatusInternalServerError, wantBody: "Failed to save"},
	}
	log.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, "Failed to save")
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["error"] != tc.wantBody {
				t.Fatalf("error = %q, want %q", body["error"], tc.wantBody)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		IDs []string `json:"ids"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":["a","b"],"extra":true}`))
	if err := DecodeJSON(req, &target); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(target.IDs) != 2 {
		t.Fatalf("ids = %v, want 2 entries", target.IDs)
	}

	for _, body := range []string{"", "{not json"} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeJSON(req, &target)
		if apperrors.CodeOf(err) != apperrors.CodeInvalidInput {
			t.Fatalf("DecodeJSON(%q) code = %v, want %v", body, apperrors.CodeOf(err), apperrors.CodeInvalidInput)
		}
	}
}

func TestOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://teamfund.test/api/stripe/checkout", nil)
	if got := Origin(req); got != "http://teamfund.test" {
		t.Fatalf("origin = %q", got)
	}
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := Origin(req); got != "https://teamfund.test" {
		t.Fatalf("forwarded origin = %q", got)
	}
	req.Header.Set("Origin", "https://app.teamfund.test/")
	if got := Origin(req); got != "https://app.teamfund.test" {
		t.Fatalf("header origin = %q", got)
	}
}
