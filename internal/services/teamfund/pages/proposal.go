package pages

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
)

// ProposalInput is the content of a sponsorship proposal document.
type ProposalInput struct {
	Team  domain.Team
	Lead  domain.Lead
	Draft domain.OutreachDraft
}

// ProposalTitle names the proposal document for lead.
func ProposalTitle(team domain.Team, lead domain.Lead) string {
	return fmt.Sprintf("Sponsorship Proposal - %s x %s", team.Name, lead.CompanyName)
}

type proposalTerm struct {
	label string
	value string
}

// proposalTerms lists the team facts shown on a proposal, skipping blanks.
func proposalTerms(in ProposalInput) []proposalTerm {
	season := ""
	if in.Team.SeasonStart != "" || in.Team.SeasonEnd != "" {
		season = strings.TrimSpace(in.Team.SeasonStart + " to " + in.Team.SeasonEnd)
	}
	all := []proposalTerm{
		{label: "Team", value: in.Team.Name},
		{label: "Sport", value: in.Team.Sport},
		{label: "Location", value: in.Team.Location},
		{label: "League", value: in.Team.League},
		{label: "Season", value: season},
		{label: "Prepared for", value: in.Lead.CompanyName},
	}
	terms := all[:0]
	for _, term := range all {
		if strings.TrimSpace(term.value) != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// proposalParagraphs splits text on blank lines; each paragraph keeps its
// line breaks.
func proposalParagraphs(text string) [][]string {
	var paragraphs [][]string
	for _, paragraph := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if paragraph = strings.TrimSpace(paragraph); paragraph != "" {
			paragraphs = append(paragraphs, strings.Split(paragraph, "\n"))
		}
	}
	return paragraphs
}

// headingStyle paints the title in the team color, falling back to a dark
// gray when the stored color is not a hex value.
func headingStyle(color string) templ.SafeCSS {
	if !isHexColor(color) {
		color = "#111827"
	}
	return templ.SafeCSS(fmt.Sprintf("color:%s;border-bottom:3px solid %s", color, color))
}

// RenderProposal renders the proposal to bytes.
func RenderProposal(ctx context.Context, in ProposalInput) ([]byte, error) {
	var buf bytes.Buffer
	if err := Proposal(in).Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("render proposal: %w", err)
	}
	return buf.Bytes(), nil
}

func isHexColor(value string) bool {
	if (len(value) != 4 && len(value) != 7) || value[0] != '#' {
		return false
	}
	for _, r := range value[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
