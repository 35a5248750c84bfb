package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Wrap(CodeLeadNotFound, "lead not found", stderrors.New("no rows"))
	if !stderrors.Is(err, New(CodeLeadNotFound, "other message")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if stderrors.Is(err, New(CodeDraftNotFound, "lead not found")) {
		t.Fatal("expected errors.Is to reject different code")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: nil, want: http.StatusOK},
		{err: New(CodeInvalidInput, "bad"), want: http.StatusBadRequest},
		{err: New(CodeMailNotConnected, "not_authenticated"), want: http.StatusUnauthorized},
		{err: fmt.Errorf("load: %w", New(CodeTeamNotFound, "Team not found")), want: http.StatusNotFound},
		{err: New(CodeUpstreamFailed, "geocode"), want: http.StatusBadGateway},
		{err: stderrors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPublicMessageHidesInternalErrors(t *testing.T) {
	if got := PublicMessage(stderrors.New("sql: connection refused"), "Failed to load leads"); got != "Failed to load leads" {
		t.Fatalf("PublicMessage = %q, want fallback", got)
	}
	wrapped := fmt.Errorf("handler: %w", New(CodeTeamNotFound, "Team not found"))
	if got := PublicMessage(wrapped, "fallback"); got != "Team not found" {
		t.Fatalf("PublicMessage = %q, want %q", got, "Team not found")
	}
}
