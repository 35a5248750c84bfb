package leadfilter

import (
	"reflect"
	"testing"
	"time"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
)

func TestParseEmpty(t *testing.T) {
	cond, err := Parse("  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cond.Empty() || len(cond.Params) != 0 {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseTranslatesExpressions(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		filter     string
		wantClause string
		wantParams []any
	}{
		{
			name:       "equality",
			filter:     `status = "approved"`,
			wantClause: "status = ?",
			wantParams: []any{"approved"},
		},
		{
			name:       "not equal",
			filter:     `category != "Restaurant"`,
			wantClause: "category != ?",
			wantParams: []any{"Restaurant"},
		},
		{
			name:       "and",
			filter:     `status = "new" AND location = "Austin, TX"`,
			wantClause: "(status = ? AND location = ?)",
			wantParams: []any{"new", "Austin, TX"},
		},
		{
			name:       "or",
			filter:     `company_name = "Acme" OR email = "hi@acme.test"`,
			wantClause: "(company_name = ? OR email = ?)",
			wantParams: []any{"Acme", "hi@acme.test"},
		},
		{
			name:       "timestamp",
			filter:     `created_at >= timestamp("2026-01-01T00:00:00Z")`,
			wantClause: "created_at >= ?",
			wantParams: []any{since.UnixMilli()},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cond, err := Parse(tc.filter)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.filter, err)
			}
			if cond.Clause != tc.wantClause {
				t.Fatalf("clause = %q, want %q", cond.Clause, tc.wantClause)
			}
			if !reflect.DeepEqual(cond.Params, tc.wantParams) {
				t.Fatalf("params = %#v, want %#v", cond.Params, tc.wantParams)
			}
		})
	}
}

func TestParseRejectsInvalidFilters(t *testing.T) {
	for _, filter := range []string{
		`owner = "x"`,
		`status = "archived"`,
		`status =`,
	} {
		_, err := Parse(filter)
		if apperrors.CodeOf(err) != apperrors.CodeLeadInvalidFilter {
			t.Fatalf("Parse(%q) code = %v, want %v", filter, apperrors.CodeOf(err), apperrors.CodeLeadInvalidFilter)
		}
	}
}
