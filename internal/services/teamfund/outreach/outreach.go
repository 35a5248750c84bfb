// Package outreach drafts sponsorship emails and proposals for a lead.
//
// A Generator uses a chat completion backend when one is configured and a
// fixed template otherwise. Model output that cannot be read as the expected
// JSON object also falls back to the template.
package outreach

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
)

// Content is the generated text of an outreach draft.
type Content struct {
	EmailSubject string `json:"emailSubject"`
	EmailBody    string `json:"emailBody"`
	ProposalText string `json:"proposalText"`
}

// Completer sends one prompt to a chat completion backend.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Generator drafts outreach content.
type Generator struct {
	completer Completer
}

// NewGenerator returns a generator. A nil completer always uses the template.
func NewGenerator(completer Completer) *Generator {
	return &Generator{completer: completer}
}

// Generate drafts content for lead on behalf of team. Backend errors are
// returned; unreadable model output falls back to the template.
func (g *Generator) Generate(ctx context.Context, team domain.Team, lead domain.Lead) (Content, error) {
	if g == nil || g.completer == nil {
		return Template(team, lead), nil
	}
	text, err := g.completer.Complete(ctx, systemPrompt, Prompt(team, lead))
	if err != nil {
		return Content{}, err
	}
	content, ok := Parse(text)
	if !ok {
		log.Printf("outreach completion unreadable lead_id=%s, using template", lead.ID)
		return Template(team, lead), nil
	}
	return content, nil
}

const systemPrompt = "You write concise, friendly sponsorship outreach for youth sports teams. Reply with JSON only."

// Prompt describes the team and lead to the model and asks for a JSON object
// with emailSubject, emailBody and proposalText.
func Prompt(team domain.Team, lead domain.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a sponsorship outreach email and a one-page proposal from %s, a %s team in %s, to %s (%s) in %s.\n",
		team.Name, team.Sport, team.Location, lead.CompanyName, lead.Category, lead.Location)
	if lead.FitReason != "" {
		fmt.Fprintf(&b, "Why they are a good fit: %s\n", lead.FitReason)
	}
	if team.Audience != "" {
		fmt.Fprintf(&b, "Team audience: %s\n", team.Audience)
	}
	if team.SponsorshipNeeds != "" {
		fmt.Fprintf(&b, "What the team needs: %s\n", team.SponsorshipNeeds)
	}
	if team.TargetAmount > 0 {
		fmt.Fprintf(&b, "Season fundraising target: $%.0f\n", team.TargetAmount)
	}
	if team.SeasonStart != "" || team.SeasonEnd != "" {
		fmt.Fprintf(&b, "Season: %s to %s\n", team.SeasonStart, team.SeasonEnd)
	}
	if lead.Contact != "" && lead.Contact != "Contact" {
		fmt.Fprintf(&b, "Address the email to: %s\n", lead.Contact)
	}
	b.WriteString(`
The email body is HTML using only <p>, <ul>, <li> and <strong>. Keep it under 200 words.
Return ONLY a JSON object: {"emailSubject":"...","emailBody":"...","proposalText":"..."}`)
	return b.String()
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Parse reads the outermost JSON object of model output. It reports false
// when the subject or body is missing.
func Parse(text string) (Content, bool) {
	candidate := jsonObjectPattern.FindString(text)
	if candidate == "" || !gjson.Valid(candidate) {
		return Content{}, false
	}
	parsed := gjson.Parse(candidate)
	content := Content{
		EmailSubject: strings.TrimSpace(parsed.Get("emailSubject").String()),
		EmailBody:    strings.TrimSpace(parsed.Get("emailBody").String()),
		ProposalText: strings.TrimSpace(parsed.Get("proposalText").String()),
	}
	if content.EmailSubject == "" || content.EmailBody == "" {
		return Content{}, false
	}
	return content, true
}

// Template builds content without a model.
func Template(team domain.Team, lead domain.Lead) Content {
	greeting := "Hello"
	if lead.Contact != "" && lead.Contact != "Contact" && !strings.HasPrefix(lead.Contact, "Phone:") {
		greeting = "Hello " + lead.Contact
	}
	reason := strings.TrimSpace(lead.FitReason)
	if reason == "" {
		reason = fmt.Sprintf("%s is a valued part of the %s community.", lead.CompanyName, team.Location)
	}

	body := fmt.Sprintf(`<p>%s,</p>
<p>I manage %s, a %s team based in %s. We are looking for local partners for our upcoming season, and %s stood out to us.</p>
<p>%s</p>
<p>A sponsorship would put your name on our jerseys and in front of the families who come out to every game. I have attached a short proposal with the details.</p>
<p>Would you be open to a quick call this week?</p>
<p>Thank you,<br>%s</p>`,
		greeting, team.Name, team.Sport, team.Location, lead.CompanyName, reason, team.Name)

	var proposal strings.Builder
	fmt.Fprintf(&proposal, "Sponsorship Proposal: %s x %s\n\n", team.Name, lead.CompanyName)
	fmt.Fprintf(&proposal, "About us: %s is a %s team in %s", team.Name, team.Sport, team.Location)
	if team.League != "" {
		fmt.Fprintf(&proposal, " playing in %s", team.League)
	}
	proposal.WriteString(".\n")
	if team.SeasonStart != "" || team.SeasonEnd != "" {
		fmt.Fprintf(&proposal, "Season: %s to %s.\n", team.SeasonStart, team.SeasonEnd)
	}
	if team.Audience != "" {
		fmt.Fprintf(&proposal, "Audience: %s.\n", team.Audience)
	}
	if team.SponsorshipNeeds != "" {
		fmt.Fprintf(&proposal, "What your support covers: %s.\n", team.SponsorshipNeeds)
	}
	if team.TargetAmount > 0 {
		fmt.Fprintf(&proposal, "Season goal: $%.0f.\n", team.TargetAmount)
	}
	fmt.Fprintf(&proposal, "\nWhy %s: %s\n", lead.CompanyName, reason)
	proposal.WriteString("\nSponsor benefits: logo on the team jersey, recognition at home games and on team social media.")

	return Content{
		EmailSubject: fmt.Sprintf("Sponsorship Opportunity - %s x %s", team.Name, lead.CompanyName),
		EmailBody:    body,
		ProposalText: proposal.String(),
	}
}
