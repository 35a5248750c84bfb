package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/louisbranch/teamfund/internal/services/teamfund/payments"
)

const testWebhookSecret = "whsec_test"

type fakeSessions struct {
	params *stripe.CheckoutSessionParams
	err    error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.test/cs_1"}, nil
}

func newPaymentsEnv(t *testing.T) (*testEnv, *fakeSessions) {
	t.Helper()
	sessions := &fakeSessions{}
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Payments = payments.NewServiceWithCreator(sessions, testWebhookSecret)
	})
	return env, sessions
}

func postPublic(env *testEnv, target string, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	for key, values := range header {
		req.Header[key] = values
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestStripeCheckout(t *testing.T) {
	env, sessions := newPaymentsEnv(t)
	header := http.Header{"Origin": {"https://teamfund.test"}}

	rec := postPublic(env, StripeCheckout, `{"amount": 25, "teamName": " Rockets "}`, header)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := decode[map[string]string](t, rec)["url"]; got != "https://checkout.test/cs_1" {
		t.Fatalf("url = %q", got)
	}
	if got := *sessions.params.SuccessURL; !strings.HasPrefix(got, "https://teamfund.test/donate/success") {
		t.Fatalf("success url = %q", got)
	}
	if got := sessions.params.Metadata["teamName"]; got != "Rockets" {
		t.Fatalf("team metadata = %q", got)
	}

	rec = postPublic(env, StripeCheckout, `{"amount": 0.5, "teamName": "Rockets"}`, header)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "Amount must be at least $1" {
		t.Fatalf("small amount = %d, body = %s", rec.Code, rec.Body.String())
	}

	sessions.err = errors.New("card network down")
	rec = postPublic(env, StripeCheckout, `{"amount": 10, "teamName": "Rockets"}`, header)
	if rec.Code != http.StatusInternalServerError || errorMessage(t, rec) != "Failed to create checkout session" {
		t.Fatalf("stripe failure = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestStripeNotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := postPublic(env, StripeCheckout, `{"amount": 10}`, nil)
	if rec.Code != http.StatusInternalServerError || errorMessage(t, rec) != "Stripe not configured" {
		t.Fatalf("checkout = %d, body = %s", rec.Code, rec.Body.String())
	}
}

const completedCheckout = `{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "api_version": "2020-08-27",
  "data": {"object": {
    "id": "cs_test_1",
    "object": "checkout.session",
    "amount_total": 5000,
    "currency": "usd",
    "created": 1760000000,
    "metadata": {"teamName": "Rockets"},
    "customer_details": {"email": "fan@example.com"}
  }}
}`

func signedHeader(payload string) http.Header {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: []byte(payload), Secret: testWebhookSecret})
	return http.Header{"Stripe-Signature": {signed.Header}}
}

func TestStripeWebhookRecordsDonation(t *testing.T) {
	env, _ := newPaymentsEnv(t)

	rec := postPublic(env, StripeWebhook, completedCheckout, nil)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "Missing stripe-signature header" {
		t.Fatalf("unsigned = %d, body = %s", rec.Code, rec.Body.String())
	}
	rec = postPublic(env, StripeWebhook, completedCheckout, http.Header{"Stripe-Signature": {"t=1,v1=bad"}})
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "Invalid signature" {
		t.Fatalf("bad signature = %d, body = %s", rec.Code, rec.Body.String())
	}

	for range 2 {
		rec = postPublic(env, StripeWebhook, completedCheckout, signedHeader(completedCheckout))
		if rec.Code != http.StatusOK || rec.Body.String() != "{\"received\":true}\n" {
			t.Fatalf("webhook = %d, body = %s", rec.Code, rec.Body.String())
		}
	}

	env.putTeam()
	rec = env.do(http.MethodGet, Donations, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("donations = %d, body = %s", rec.Code, rec.Body.String())
	}
	resp := decode[donationsResponse](t, rec)
	if len(resp.Donations) != 1 || resp.Total != 50 || resp.TotalFormatted != "$50.00" {
		t.Fatalf("donations = %+v", resp)
	}
	if email := resp.Donations[0].CustomerEmail; email == nil || *email != "fan@example.com" {
		t.Fatalf("customer email = %v", email)
	}
}

func TestStripeWebhookIgnoresOtherEvents(t *testing.T) {
	env, _ := newPaymentsEnv(t)
	payload := `{"id":"evt_2","object":"event","type":"payment_intent.created","api_version":"2020-08-27","data":{"object":{}}}`
	rec := postPublic(env, StripeWebhook, payload, signedHeader(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook = %d, body = %s", rec.Code, rec.Body.String())
	}
	rows, err := env.store.ListDonationsByTeamName(context.Background(), "Rockets")
	if err != nil {
		t.Fatalf("list donations: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("donations = %+v", rows)
	}
}

func TestDonatePages(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, tc := range []struct{ target, want string }{
		{target: DonateSuccess + "?session_id=cs_%3Cb%3E", want: "cs_&lt;b&gt;"},
		{target: DonateCancel, want: "Donation Cancelled"},
	} {
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))
		if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte(tc.want)) {
			t.Fatalf("GET %s = %d, body = %s", tc.target, rec.Code, rec.Body.String())
		}
	}
}

var _ Payments = (*payments.Service)(nil)
