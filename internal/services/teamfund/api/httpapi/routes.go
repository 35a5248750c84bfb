package httpapi

import (
	"net/http"
	"net/url"
)

// Route patterns served by the API.
const (
	Health = "/healthz"

	Me   = "/api/me"
	Team = "/api/team"

	Leads         = "/api/leads"
	LeadItem      = "/api/leads/{id}"
	LeadsStatus   = "/api/leads/status"
	LeadsDiscover = "/api/leads/discover"
	LeadsApify    = "/api/leads/apify"
	LeadsResearch = "/api/leads/research"

	Outreach         = "/api/outreach"
	OutreachGenerate = "/api/outreach/generate"
	OutreachItem     = "/api/outreach/{id}"

	Assets             = "/api/assets"
	AssetsJerseyMockup = "/api/assets/jersey-mockup"
	AssetsProposal     = "/api/assets/proposal"
	AssetItem          = "/api/assets/{id}"
	AssetContent       = "/api/assets/{id}/content"

	GmailAuth       = "/api/gmail/auth"
	GmailCallback   = "/api/gmail/callback"
	GmailStatus     = "/api/gmail/status"
	GmailDisconnect = "/api/gmail/disconnect"
	GmailInbox      = "/api/gmail/inbox"
	GmailDrafts     = "/api/gmail/drafts"
	GmailSend       = "/api/gmail/send"

	StripeCheckout = "/api/stripe/checkout"
	StripeWebhook  = "/api/stripe/webhook"
	Donations      = "/api/donations"

	DonateSuccess = "/donate/success"
	DonateCancel  = "/donate/cancel"

	// EmailDashboard is where the mail consent flow lands.
	EmailDashboard = "/dashboard/email"
)

// AssetContentPath returns the content URL of an asset.
func AssetContentPath(assetID string) string {
	return "/api/assets/" + url.PathEscape(assetID) + "/content"
}

func registerRoutes(mux *http.ServeMux, h *handlers) {
	mux.HandleFunc(http.MethodGet+" "+Health, h.handleHealth)

	mux.HandleFunc(http.MethodGet+" "+Me, h.authed(h.handleMe))
	mux.HandleFunc(http.MethodGet+" "+Team, h.authed(h.handleTeamGet))
	mux.HandleFunc(http.MethodPut+" "+Team, h.authed(h.handleTeamPut))

	mux.HandleFunc(http.MethodGet+" "+Leads, h.withTeam(h.handleLeadsList))
	mux.HandleFunc(http.MethodPost+" "+Leads, h.withTeam(h.handleLeadsCreate))
	mux.HandleFunc(http.MethodDelete+" "+Leads, h.withTeam(h.handleLeadsDelete))
	mux.HandleFunc(http.MethodPatch+" "+LeadItem, h.withTeam(h.handleLeadUpdate))
	mux.HandleFunc(http.MethodPost+" "+LeadsStatus, h.withTeam(h.handleLeadsStatus))
	mux.HandleFunc(http.MethodPost+" "+LeadsDiscover, h.withTeam(h.handleLeadsDiscover))
	mux.HandleFunc(http.MethodPost+" "+LeadsApify, h.withTeam(h.handleLeadsApify))
	mux.HandleFunc(http.MethodPost+" "+LeadsResearch, h.withTeam(h.handleLeadsResearch))

	mux.HandleFunc(http.MethodGet+" "+Outreach, h.withTeam(h.handleOutreachList))
	mux.HandleFunc(http.MethodPost+" "+Outreach, h.withTeam(h.handleOutreachCreate))
	mux.HandleFunc(http.MethodPost+" "+OutreachGenerate, h.withTeam(h.handleOutreachGenerate))
	mux.HandleFunc(http.MethodPatch+" "+OutreachItem, h.withTeam(h.handleOutreachUpdate))

	mux.HandleFunc(http.MethodGet+" "+Assets, h.withTeam(h.handleAssetsList))
	mux.HandleFunc(http.MethodPost+" "+Assets, h.withTeam(h.handleAssetUpload))
	mux.HandleFunc(http.MethodDelete+" "+Assets, h.withTeam(h.handleAssetDelete))
	mux.HandleFunc(http.MethodPost+" "+AssetsJerseyMockup, h.withTeam(h.handleJerseyMockup))
	mux.HandleFunc(http.MethodPost+" "+AssetsProposal, h.withTeam(h.handleProposal))
	mux.HandleFunc(http.MethodGet+" "+AssetContent, h.withTeam(h.handleAssetContent))
	mux.HandleFunc(http.MethodDelete+" "+AssetItem, h.withTeam(h.handleAssetDelete))

	mux.HandleFunc(http.MethodGet+" "+GmailAuth, h.authed(h.handleGmailAuth))
	mux.HandleFunc(http.MethodGet+" "+GmailCallback, h.authed(h.handleGmailCallback))
	mux.HandleFunc(http.MethodGet+" "+GmailStatus, h.authed(h.handleGmailStatus))
	mux.HandleFunc(http.MethodPost+" "+GmailDisconnect, h.authed(h.handleGmailDisconnect))
	mux.HandleFunc(http.MethodGet+" "+GmailInbox, h.authed(h.handleGmailInbox))
	mux.HandleFunc(http.MethodGet+" "+GmailDrafts, h.authed(h.handleGmailDraftsList))
	mux.HandleFunc(http.MethodPost+" "+GmailDrafts, h.withTeam(h.handleGmailDraftsCreate))
	mux.HandleFunc(http.MethodPost+" "+GmailSend, h.withTeam(h.handleGmailSend))

	mux.HandleFunc(http.MethodPost+" "+StripeCheckout, h.handleStripeCheckout)
	mux.HandleFunc(http.MethodPost+" "+StripeWebhook, h.handleStripeWebhook)
	mux.HandleFunc(http.MethodGet+" "+Donations, h.withTeam(h.handleDonationsList))

	mux.HandleFunc(http.MethodGet+" "+DonateSuccess, h.handleDonateSuccess)
	mux.HandleFunc(http.MethodGet+" "+DonateCancel, h.handleDonateCancel)
}
