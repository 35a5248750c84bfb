package leadsource

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/tidwall/gjson"
)

const unknownBusiness = "Unknown Business"

// NormalizePlace maps one scraped map-place record to a lead. index numbers
// the placeholder email used when the place has neither email nor website.
// The second result is false when the record has no usable business name.
func NormalizePlace(item gjson.Result, index int) (domain.LeadDraft, bool) {
	companyName := truncate(firstPresentOr(item, unknownBusiness, "title", "name"), maxFieldLen)
	if companyName == "" || companyName == unknownBusiness {
		return domain.LeadDraft{}, false
	}

	var category string
	if categories := item.Get("categories"); categories.IsArray() {
		category = firstPresentOr(item, "Business", "categories.0", "category")
	} else {
		category = firstPresentOr(item, "Business", "category")
	}

	website := ""
	if value := item.Get("website"); value.Type == gjson.String {
		website = value.String()
	}

	return domain.LeadDraft{
		CompanyName: companyName,
		Category:    truncate(category, maxFieldLen),
		Contact:     truncate(firstPresentOr(item, "Contact", "phone", "phoneNumber"), maxFieldLen),
		Email:       truncate(placeEmail(item, website, index), maxFieldLen),
		Location:    truncate(placeLocation(item), maxFieldLen),
		FitReason:   truncate(placeFitReason(item), maxFitReasonLen),
		Status:      domain.LeadStatusNew,
		Notes:       "",
	}, true
}

// NormalizePlaces maps a scraped dataset to leads, skipping unnamed places.
// Placeholder emails are numbered by accepted lead.
func NormalizePlaces(items []gjson.Result) []domain.LeadDraft {
	leads := make([]domain.LeadDraft, 0, len(items))
	for _, item := range items {
		lead, ok := NormalizePlace(item, len(leads))
		if !ok {
			continue
		}
		leads = append(leads, lead)
	}
	return leads
}

func placeLocation(item gjson.Result) string {
	parts := make([]string, 0, 3)
	for _, path := range []string{"city", "state", "country"} {
		if value := item.Get(path); present(value) && value.String() != "" {
			parts = append(parts, value.String())
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if address := firstPresentOr(item, "", "address", "full_address"); address != "" {
		return address
	}
	return "Unknown"
}

func placeEmail(item gjson.Result, website string, index int) string {
	if email := firstPresentOr(item, "", "email"); email != "" {
		return email
	}
	if website != "" {
		if host := websiteHost(website); host != "" {
			return "contact@" + host
		}
	}
	return fmt.Sprintf("lead-%d@placeholder.local", index+1)
}

// websiteHost returns the lowercased host of an absolute URL without a
// leading "www.", or "" when website is not an absolute URL.
func websiteHost(website string) string {
	parsed, err := url.Parse(strings.TrimSpace(website))
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

func placeFitReason(item gjson.Result) string {
	reason := "Discovered via Apify lead search."
	if website := item.Get("website"); present(website) && website.String() != "" {
		reason += " Website: " + website.String()
	}
	return reason
}
