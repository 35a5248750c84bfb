package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/outreach"
)

type draftResponse struct {
	Draft domain.OutreachDraft `json:"draft"`
}

func TestOutreachGenerateUsesTemplateByDefault(t *testing.T) {
	env := newTestEnv(t, nil)
	env.putTeam()
	lead := env.addLeads("acme")[0]

	rec := env.do(http.MethodPost, OutreachGenerate, map[string]string{"leadId": lead.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	draft := decode[draftResponse](t, rec).Draft
	if draft.LeadID != lead.ID || draft.Status != domain.DraftStatusDraft {
		t.Fatalf("draft = %+v", draft)
	}
	if want := "Sponsorship Opportunity - Rockets x acme"; draft.EmailSubject != want {
		t.Fatalf("subject = %q, want %q", draft.EmailSubject, want)
	}

	page := decode[domain.LeadPage](t, env.do(http.MethodGet, Leads, nil))
	if page.Leads[0].Status != domain.LeadStatusDrafted {
		t.Fatalf("lead status = %s, want drafted", page.Leads[0].Status)
	}

	list := decode[struct {
		Drafts []domain.OutreachDraft `json:"drafts"`
	}](t, env.do(http.MethodGet, Outreach, nil))
	if len(list.Drafts) != 1 || list.Drafts[0].ID != draft.ID {
		t.Fatalf("drafts = %+v", list.Drafts)
	}
}

type fakeOutreach struct {
	content outreach.Content
	err     error
}

func (f *fakeOutreach) Generate(context.Context, domain.Team, domain.Lead) (outreach.Content, error) {
	return f.content, f.err
}

func TestOutreachGenerateWithGenerator(t *testing.T) {
	fake := &fakeOutreach{content: outreach.Content{EmailSubject: "Hello", EmailBody: "<p>Hi</p>", ProposalText: "Partner with us"}}
	env := newTestEnv(t, func(cfg *Config) { cfg.Outreach = fake })
	env.putTeam()
	lead := env.addLeads("acme")[0]

	draft := decode[draftResponse](t, env.do(http.MethodPost, OutreachGenerate, map[string]string{"leadId": lead.ID})).Draft
	if draft.EmailSubject != "Hello" || draft.ProposalText != "Partner with us" {
		t.Fatalf("draft = %+v", draft)
	}

	rec := env.do(http.MethodPost, OutreachGenerate, map[string]string{"leadId": "missing"})
	if rec.Code != http.StatusNotFound || errorMessage(t, rec) != "Lead not found" {
		t.Fatalf("missing lead = %d, body = %s", rec.Code, rec.Body.String())
	}

	fake.err = errors.New("model unavailable")
	rec = env.do(http.MethodPost, OutreachGenerate, map[string]string{"leadId": lead.ID})
	if rec.Code != http.StatusInternalServerError || errorMessage(t, rec) != "Failed to generate outreach" {
		t.Fatalf("generator failure = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestOutreachCreateAndUpdate(t *testing.T) {
	env := newTestEnv(t, nil)
	env.putTeam()
	lead := env.addLeads("acme")[0]

	rec := env.do(http.MethodPost, Outreach, map[string]any{"leadId": "missing", "emailSubject": "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown lead status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = env.do(http.MethodPost, Outreach, map[string]any{"leadId": lead.ID, "status": "approved"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = env.do(http.MethodPost, Outreach, map[string]any{"leadId": lead.ID, "emailSubject": "Hi", "emailBody": "Body"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", rec.Code, rec.Body.String())
	}
	draft := decode[draftResponse](t, rec).Draft
	if len(draft.Attachments) != 0 || draft.Attachments == nil {
		t.Fatalf("attachments = %#v, want empty list", draft.Attachments)
	}

	rec = env.do(http.MethodPatch, "/api/outreach/"+draft.ID, map[string]string{"emailSubject": "Partnership", "status": "reviewed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", rec.Code, rec.Body.String())
	}
	updated := decode[draftResponse](t, rec).Draft
	if updated.EmailSubject != "Partnership" || updated.EmailBody != "Body" || updated.Status != domain.DraftStatusReviewed {
		t.Fatalf("updated = %+v", updated)
	}

	tests := []struct {
		name   string
		target string
		body   any
		want   int
	}{
		{name: "empty", target: "/api/outreach/" + draft.ID, body: map[string]string{}, want: http.StatusBadRequest},
		{name: "bad status", target: "/api/outreach/" + draft.ID, body: map[string]string{"status": "approved"}, want: http.StatusBadRequest},
		{name: "missing", target: "/api/outreach/missing", body: map[string]string{"emailBody": "x"}, want: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rec := env.do(http.MethodPatch, tc.target, tc.body); rec.Code != tc.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestOutreachIsTeamScoped(t *testing.T) {
	env := newTestEnv(t, nil)
	env.putTeam()
	lead := env.addLeads("acme")[0]
	draft := decode[draftResponse](t, env.do(http.MethodPost, OutreachGenerate, map[string]string{"leadId": lead.ID})).Draft

	other, err := env.verifier.Sign(domain.User{ID: "user-2", Email: "other@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	env.token = other
	env.putTeam()
	rec := env.do(http.MethodPatch, "/api/outreach/"+draft.ID, map[string]string{"emailBody": "hijack"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-team update status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if body := rec.Body.String(); strings.Contains(body, "hijack") {
		t.Fatalf("unexpected body %s", body)
	}
}
