package httpapi

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/httpx"
	"github.com/louisbranch/teamfund/internal/platform/timeouts"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/pages"
	"github.com/louisbranch/teamfund/internal/services/teamfund/payments"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

// maxWebhookBody bounds webhook payloads.
const maxWebhookBody = 64 << 10

func (h *handlers) handleStripeCheckout(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		httpx.WriteError(w, r, notConfigured("Stripe not configured"), "Failed to create checkout session")
		return
	}
	var req domain.CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err, "Failed to create checkout session")
		return
	}
	req.TeamName = strings.TrimSpace(req.TeamName)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Outbound)
	defer cancel()
	checkoutURL, err := h.payments.CreateCheckout(ctx, req, httpx.Origin(r))
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodePaymentInvalidAmount {
			httpx.WriteError(w, r, err, "Amount must be at least $1")
			return
		}
		log.Printf("checkout failed team=%q err=%v", req.TeamName, err)
		_ = httpx.WriteJSONError(w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"url": checkoutURL})
}

func (h *handlers) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.payments == nil {
		httpx.WriteError(w, r, notConfigured("Stripe not configured"), "Webhook handler failed")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		_ = httpx.WriteJSONError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	donation, err := h.payments.ParseWebhook(payload, r.Header.Get(payments.SignatureHeader))
	if err != nil {
		httpx.WriteError(w, r, err, "Webhook handler failed")
		return
	}
	if donation != nil {
		if err := h.store.PutDonation(r.Context(), storage.DonationToRow(*donation)); err != nil {
			httpx.WriteError(w, r, err, "Webhook handler failed")
			return
		}
		log.Printf("donation received session_id=%s amount=%s team=%q",
			donation.SessionID, payments.FormatAmount(donation.Amount, donation.Currency), donation.TeamName)
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}

type donationsResponse struct {
	Donations      []domain.Donation `json:"donations"`
	Total          float64           `json:"total"`
	TotalFormatted string            `json:"totalFormatted"`
}

func (h *handlers) handleDonationsList(w http.ResponseWriter, r *http.Request, _ domain.User, team domain.Team) {
	rows, err := h.store.ListDonationsByTeamName(r.Context(), team.Name)
	if err != nil {
		httpx.WriteError(w, r, err, "Failed to load donations")
		return
	}
	resp := donationsResponse{Donations: make([]domain.Donation, 0, len(rows))}
	for _, row := range rows {
		donation := storage.DonationFromRow(row)
		resp.Donations = append(resp.Donations, donation)
		resp.Total += donation.Amount
	}
	resp.TotalFormatted = payments.FormatAmount(resp.Total, "USD")
	_ = httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) handleDonateSuccess(w http.ResponseWriter, r *http.Request) {
	if err := pages.Write(w, r, http.StatusOK, pages.DonateSuccess(r.URL.Query().Get("session_id"))); err != nil {
		log.Printf("render donate success failed err=%v", err)
	}
}

func (h *handlers) handleDonateCancel(w http.ResponseWriter, r *http.Request) {
	if err := pages.Write(w, r, http.StatusOK, pages.DonateCancel()); err != nil {
		log.Printf("render donate cancel failed err=%v", err)
	}
}
