package leadsource

import (
	"fmt"
	"strings"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
)

// DefaultAudience is used when an audience has no query table entry.
const DefaultAudience = "General community"

var audienceQueries = map[string][]string{
	"Families with kids":  {"restaurants", "pizza", "ice cream", "toy stores", "family entertainment"},
	"College students":    {"cafes", "fast food", "gyms", "bookstores", "tech stores"},
	"Young professionals": {"restaurants", "bars", "gyms", "coworking spaces"},
	"General community":   {"restaurants", "auto repair", "dentists", "insurance", "retail"},
	"Senior citizens":     {"pharmacies", "restaurants", "medical offices", "grocery stores"},
}

// Audiences lists the audiences with a dedicated query table.
func Audiences() []string {
	return []string{"Families with kids", "College students", "Young professionals", "General community", "Senior citizens"}
}

// AudienceQueries returns the place search terms for an audience, falling
// back to DefaultAudience.
func AudienceQueries(audience string) []string {
	queries, ok := audienceQueries[audience]
	if !ok {
		queries = audienceQueries[DefaultAudience]
	}
	return append([]string(nil), queries...)
}

// TitleSet tracks place titles already seen, ignoring case.
type TitleSet struct {
	fold cases.Caser
	seen map[string]struct{}
}

// NewTitleSet returns an empty set.
func NewTitleSet() *TitleSet {
	return &TitleSet{fold: cases.Fold(), seen: make(map[string]struct{})}
}

// Add records title and reports whether it was new.
func (s *TitleSet) Add(title string) bool {
	key := s.fold.String(title)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Dedupe keeps the first item for each title, ignoring case, up to limit
// items. Items without a title are dropped. A limit <= 0 keeps everything.
func Dedupe(items []gjson.Result, limit int) []gjson.Result {
	titles := NewTitleSet()
	unique := make([]gjson.Result, 0, len(items))
	for _, item := range items {
		if limit > 0 && len(unique) >= limit {
			break
		}
		title := item.Get("title").String()
		if title == "" || !titles.Add(title) {
			continue
		}
		unique = append(unique, item)
	}
	return unique
}

// NormalizeHerePlaces maps place discovery items found for an audience near
// zip to leads.
func NormalizeHerePlaces(items []gjson.Result, audience, zip string) []domain.LeadDraft {
	leads := make([]domain.LeadDraft, 0, len(items))
	for _, item := range items {
		title := item.Get("title").String()
		if title == "" {
			continue
		}
		category := item.Get("categories.0.name").String()
		if category == "" {
			category = "Local Business"
		}

		parts := make([]string, 0, 2)
		for _, path := range []string{"address.city", "address.state"} {
			if value := item.Get(path).String(); value != "" {
				parts = append(parts, value)
			}
		}
		location := strings.Join(parts, ", ")
		if location == "" {
			location = item.Get("address.label").String()
		}
		if location == "" {
			location = zip
		}

		contact := ""
		if phone := item.Get("contacts.0.phone.0.value").String(); phone != "" {
			contact = "Phone: " + phone
		}

		leads = append(leads, domain.LeadDraft{
			CompanyName: title,
			Category:    category,
			Contact:     contact,
			Email:       item.Get("contacts.0.email.0.value").String(),
			Location:    location,
			FitReason:   fmt.Sprintf("Found via %s audience search in %s. Category: %s.", audience, zip, category),
			Status:      domain.LeadStatusNew,
		})
	}
	return leads
}
