package leadsource

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/tidwall/gjson"
)

// MaxResearchLeads caps the leads taken from one completion.
const MaxResearchLeads = 5

var (
	jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
	keyValuePattern  = regexp.MustCompile(`^(?:[-*]?\s*)?(\w+):\s*(.+)$`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// ResearchPrompt asks a search-backed model for five sponsor candidates as a
// JSON array.
func ResearchPrompt(sport, location string) string {
	return fmt.Sprintf(`You are a sponsorship research assistant. Find the top 5 potential local business sponsors for a %[1]s club in %[2]s.

For each business, provide:
- companyName: Business name
- category: Type of business (e.g. Restaurant, Retail, Services)
- contact: Contact person or role if known, otherwise "Contact"
- email: Business email if publicly available, otherwise use format contact@businessname.local
- location: City/area where they operate
- fitReason: 1-2 sentences on why they are a good sponsor fit (community visibility, audience overlap, local presence, etc.)

Return ONLY a valid JSON array of exactly 5 objects, no other text. Example format:
[{"companyName":"ABC Cafe","category":"Restaurant","contact":"Manager","email":"contact@abccafe.local","location":"%[2]s","fitReason":"Popular local spot, family-oriented clientele."}]`, sport, location)
}

// ParseCompletion extracts up to MaxResearchLeads leads from model output.
// The outermost [...] block is parsed as a JSON array of objects; when that
// text is not valid JSON the output is read as "key: value" lines instead.
func ParseCompletion(text string) []domain.LeadDraft {
	candidate := text
	if match := jsonArrayPattern.FindString(text); match != "" {
		candidate = match
	}

	var leads []domain.LeadDraft
	if gjson.Valid(candidate) {
		leads = parseCompletionJSON(gjson.Parse(candidate))
	} else {
		leads = parseCompletionLines(text)
	}
	if len(leads) > MaxResearchLeads {
		leads = leads[:MaxResearchLeads]
	}
	return leads
}

func parseCompletionJSON(parsed gjson.Result) []domain.LeadDraft {
	leads := []domain.LeadDraft{}
	if !parsed.IsArray() {
		return leads
	}
	for _, item := range parsed.Array() {
		if !item.IsObject() {
			continue
		}
		companyName := strings.TrimSpace(firstPresentOr(item, "", "companyName", "company_name", "name"))
		if companyName == "" {
			continue
		}
		email := strings.TrimSpace(firstPresentOr(item, "", "email", "contactEmail"))
		if email == "" {
			email = placeholderEmail(companyName)
		}
		leads = append(leads, domain.LeadDraft{
			CompanyName: truncate(companyName, maxFieldLen),
			Category:    orDefault(truncate(strings.TrimSpace(firstPresentOr(item, "Business", "category", "type")), maxFieldLen), "Business"),
			Contact:     orDefault(truncate(strings.TrimSpace(firstPresentOr(item, "Contact", "contact", "contactName")), maxFieldLen), "Contact"),
			Email:       truncate(email, maxFieldLen),
			Location:    orDefault(truncate(strings.TrimSpace(firstPresentOr(item, "", "location", "address", "city")), maxFieldLen), "Local"),
			FitReason:   orDefault(truncate(strings.TrimSpace(firstPresentOr(item, "", "fitReason", "fit_reason", "reason", "why")), maxFitReasonLen), "Potential local sponsor for youth sports."),
			Status:      domain.LeadStatusNew,
		})
	}
	return leads
}

// lineLead accumulates fields from "key: value" lines.
type lineLead struct {
	fields map[string]string
}

func (l *lineLead) set(field, value string) {
	if l.fields == nil {
		l.fields = make(map[string]string, 6)
	}
	l.fields[field] = value
}

func (l *lineLead) ready() bool {
	return l.fields["companyName"] != "" && len(l.fields) >= 4
}

func (l *lineLead) draft() domain.LeadDraft {
	value := func(field, fallback string) string {
		if v, ok := l.fields[field]; ok {
			return v
		}
		return fallback
	}
	companyName := l.fields["companyName"]
	return domain.LeadDraft{
		CompanyName: truncate(companyName, maxFieldLen),
		Category:    truncate(value("category", "Business"), maxFieldLen),
		Contact:     truncate(value("contact", "Contact"), maxFieldLen),
		Email:       truncate(value("email", placeholderEmail(companyName)), maxFieldLen),
		Location:    truncate(value("location", "Local"), maxFieldLen),
		FitReason:   truncate(value("fitReason", "Potential local sponsor."), maxFitReasonLen),
		Status:      domain.LeadStatusNew,
	}
}

func parseCompletionLines(text string) []domain.LeadDraft {
	leads := []domain.LeadDraft{}
	current := &lineLead{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if match := keyValuePattern.FindStringSubmatch(line); match != nil {
			if field := lineField(strings.ToLower(match[1])); field != "" {
				current.set(field, strings.TrimSpace(match[2]))
			}
		}
		if current.ready() {
			leads = append(leads, current.draft())
			current = &lineLead{}
		}
	}
	return leads
}

// lineField maps a free-form key to a lead field. Checks run in order, so
// "contactName" counts as a name.
func lineField(key string) string {
	switch {
	case strings.Contains(key, "company"), strings.Contains(key, "name"):
		return "companyName"
	case strings.Contains(key, "category"):
		return "category"
	case strings.Contains(key, "contact"):
		return "contact"
	case strings.Contains(key, "email"):
		return "email"
	case strings.Contains(key, "location"), strings.Contains(key, "address"):
		return "location"
	case strings.Contains(key, "reason"), strings.Contains(key, "fit"):
		return "fitReason"
	default:
		return ""
	}
}

func placeholderEmail(companyName string) string {
	return "contact@" + whitespace.ReplaceAllString(strings.ToLower(companyName), "") + ".local"
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
