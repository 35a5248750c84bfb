package outreach

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
)

type fakeCompleter struct {
	text   string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

var (
	testTeam = domain.Team{Name: "Eastside Eagles", Sport: "soccer", Location: "Austin, TX", TargetAmount: 2500, SponsorshipNeeds: "jerseys and travel"}
	testLead = domain.Lead{ID: "lead-1", CompanyName: "Taco Hut", Category: "Restaurant", Contact: "Maria", Location: "Austin", FitReason: "Family favorite near the field."}
)

func TestGenerateWithoutCompleterUsesTemplate(t *testing.T) {
	content, err := NewGenerator(nil).Generate(context.Background(), testTeam, testLead)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if want := "Sponsorship Opportunity - Eastside Eagles x Taco Hut"; content.EmailSubject != want {
		t.Fatalf("subject = %q, want %q", content.EmailSubject, want)
	}
	if !strings.Contains(content.EmailBody, "Hello Maria,") {
		t.Fatalf("body missing greeting: %q", content.EmailBody)
	}
	if !strings.Contains(content.ProposalText, "Season goal: $2500.") {
		t.Fatalf("proposal missing goal: %q", content.ProposalText)
	}
}

func TestGenerateParsesModelJSON(t *testing.T) {
	completer := &fakeCompleter{text: "Sure!\n```json\n{\"emailSubject\":\"Partner with us\",\"emailBody\":\"<p>Hi</p>\",\"proposalText\":\"Plan\"}\n```"}
	content, err := NewGenerator(completer).Generate(context.Background(), testTeam, testLead)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if content.EmailSubject != "Partner with us" || content.EmailBody != "<p>Hi</p>" || content.ProposalText != "Plan" {
		t.Fatalf("content = %+v", content)
	}
	if !strings.Contains(completer.prompt, "Taco Hut") || !strings.Contains(completer.prompt, "jerseys and travel") {
		t.Fatalf("prompt missing lead or needs: %q", completer.prompt)
	}
}

func TestGenerateFallsBackOnUnreadableOutput(t *testing.T) {
	completer := &fakeCompleter{text: "I cannot help with that."}
	content, err := NewGenerator(completer).Generate(context.Background(), testTeam, testLead)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if content != Template(testTeam, testLead) {
		t.Fatalf("content = %+v, want template", content)
	}
}

func TestGenerateReturnsBackendError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("boom")}
	if _, err := NewGenerator(completer).Generate(context.Background(), testTeam, testLead); err == nil {
		t.Fatal("expected backend error")
	}
}

func TestParseRequiresSubjectAndBody(t *testing.T) {
	tests := []struct {
		text string
		ok   bool
	}{
		{text: `{"emailSubject":"S","emailBody":"B"}`, ok: true},
		{text: `{"emailSubject":"S"}`, ok: false},
		{text: `{"emailSubject":`, ok: false},
		{text: `[]`, ok: false},
	}
	for _, tt := range tests {
		if _, ok := Parse(tt.text); ok != tt.ok {
			t.Fatalf("Parse(%q) ok = %v, want %v", tt.text, ok, tt.ok)
		}
	}
}

func TestTemplateGenericGreeting(t *testing.T) {
	lead := testLead
	lead.Contact = "Phone: 555-0100"
	lead.FitReason = ""
	content := Template(testTeam, lead)
	if !strings.HasPrefix(content.EmailBody, "<p>Hello,</p>") {
		t.Fatalf("body = %q, want generic greeting", content.EmailBody)
	}
	if !strings.Contains(content.EmailBody, "valued part of the Austin, TX community") {
		t.Fatalf("body missing default reason: %q", content.EmailBody)
	}
}
