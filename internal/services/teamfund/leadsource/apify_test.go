package leadsource

import (
	"strings"
	"testing"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/tidwall/gjson"
)

func TestNormalizePlace(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		index int
		want  domain.LeadDraft
	}{
		{
			name: "full record",
			json: `{"title":"Joe's Pizza","categories":["Pizza restaurant","Delivery"],"city":"Austin","state":"TX","country":"US","email":"joe@pizza.test","phone":"+1 512 555 0100","website":"https://www.joespizza.test/menu"}`,
			want: domain.LeadDraft{
				CompanyName: "Joe's Pizza",
				Category:    "Pizza restaurant",
				Contact:     "+1 512 555 0100",
				Email:       "joe@pizza.test",
				Location:    "Austin, TX, US",
				FitReason:   "Discovered via Apify lead search. Website: https://www.joespizza.test/menu",
				Status:      domain.LeadStatusNew,
			},
		},
		{
			name:  "website host email and fallbacks",
			json:  `{"name":"Bolt Bikes","category":"Bike shop","address":"1 Main St","phoneNumber":"555","website":"https://WWW.BoltBikes.test"}`,
			index: 3,
			want: domain.LeadDraft{
				CompanyName: "Bolt Bikes",
				Category:    "Bike shop",
				Contact:     "555",
				Email:       "contact@boltbikes.test",
				Location:    "1 Main St",
				FitReason:   "Discovered via Apify lead search. Website: https://WWW.BoltBikes.test",
				Status:      domain.LeadStatusNew,
			},
		},
		{
			name:  "placeholder email when website is not a url",
			json:  `{"title":"Corner Store","categories":[],"full_address":"2 Elm St","website":"cornerstore"}`,
			index: 1,
			want: domain.LeadDraft{
				CompanyName: "Corner Store",
				Category:    "Business",
				Contact:     "Contact",
				Email:       "lead-2@placeholder.local",
				Location:    "2 Elm St",
				FitReason:   "Discovered via Apify lead search. Website: cornerstore",
				Status:      domain.LeadStatusNew,
			},
		},
		{
			name: "bare record",
			json: `{"title":"Quiet Cafe"}`,
			want: domain.LeadDraft{
				CompanyName: "Quiet Cafe",
				Category:    "Business",
				Contact:     "Contact",
				Email:       "lead-1@placeholder.local",
				Location:    "Unknown",
				FitReason:   "Discovered via Apify lead search.",
				Status:      domain.LeadStatusNew,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizePlace(gjson.Parse(tc.json), tc.index)
			if !ok {
				t.Fatal("expected lead")
			}
			if got != tc.want {
				t.Fatalf("NormalizePlace =\n%+v\nwant\n%+v", got, tc.want)
			}
		})
	}
}

func TestNormalizePlaceSkipsUnnamed(t *testing.T) {
	for _, raw := range []string{`{}`, `{"title":""}`, `{"title":null,"name":"Unknown Business"}`} {
		if _, ok := NormalizePlace(gjson.Parse(raw), 0); ok {
			t.Fatalf("expected %s to be skipped", raw)
		}
	}
}

func TestNormalizePlaceTruncates(t *testing.T) {
	long := strings.Repeat("é", 300)
	got, ok := NormalizePlace(gjson.Parse(`{"title":"`+long+`","website":"https://x.test/`+strings.Repeat("a", 600)+`"}`), 0)
	if !ok {
		t.Fatal("expected lead")
	}
	if n := len([]rune(got.CompanyName)); n != 255 {
		t.Fatalf("company name runes = %d, want 255", n)
	}
	if n := len([]rune(got.FitReason)); n != 500 {
		t.Fatalf("fit reason runes = %d, want 500", n)
	}
}

func TestNormalizePlacesNumbersAcceptedLeads(t *testing.T) {
	items := gjson.Parse(`[{"title":"A"},{"title":"Unknown Business"},{"title":"B"}]`).Array()
	leads := NormalizePlaces(items)
	if len(leads) != 2 {
		t.Fatalf("leads = %d, want 2", len(leads))
	}
	if leads[1].Email != "lead-2@placeholder.local" {
		t.Fatalf("second email = %q, want lead-2@placeholder.local", leads[1].Email)
	}
}
