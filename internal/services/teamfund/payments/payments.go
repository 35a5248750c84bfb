// Package payments creates hosted donation checkouts and reads the payment
// webhook.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
	"github.com/louisbranch/teamfund/internal/platform/otel"
	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

// SessionCreator creates checkout sessions. *session.Client satisfies it.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Config configures the payment processor.
type Config struct {
	SecretKey     string
	WebhookSecret string
	// Backend overrides the API backend, for tests.
	Backend stripe.Backend
}

// Service wraps checkout creation and webhook verification.
type Service struct {
	sessions      SessionCreator
	webhookSecret string
	now           func() time.Time
}

// NewService builds a service from cfg.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	backend := cfg.Backend
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return NewServiceWithCreator(&session.Client{B: backend, Key: cfg.SecretKey}, cfg.WebhookSecret), nil
}

// NewServiceWithCreator builds a service around an existing creator.
func NewServiceWithCreator(sessions SessionCreator, webhookSecret string) *Service {
	return &Service{sessions: sessions, webhookSecret: webhookSecret, now: time.Now}
}

// CreateCheckout opens a one-item USD checkout for a donation and returns
// the hosted page URL. origin is the scheme and host the payer returns to.
func (s *Service) CreateCheckout(ctx context.Context, req domain.CheckoutRequest, origin string) (string, error) {
	if math.IsNaN(req.Amount) || req.Amount < 1 {
		return "", apperrors.New(apperrors.CodePaymentInvalidAmount, "Amount must be at least $1")
	}
	ctx, span := otel.Tracer("teamfund/payments").Start(ctx, "payments.CreateCheckout")
	defer span.End()
	span.SetAttributes(attribute.Float64("payments.amount", req.Amount))

	origin = strings.TrimRight(origin, "/")
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyUSD)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Donation to " + req.TeamName),
				},
				UnitAmount: stripe.Int64(Cents(req.Amount)),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(origin + "/donate/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(origin + "/donate/cancel"),
	}
	params.Context = ctx
	params.AddMetadata("teamName", req.TeamName)
	params.AddMetadata("donationAmount", strconv.FormatFloat(req.Amount, 'f', -1, 64))

	checkout, err := s.sessions.New(params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create session")
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return checkout.URL, nil
}

// Cents converts a dollar amount to the smallest currency unit.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ParseWebhook verifies payload against its signature header. Completed
// checkouts yield a donation; other event types return nil.
func (s *Service) ParseWebhook(payload []byte, signature string) (*domain.Donation, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, apperrors.New(apperrors.CodePaymentInvalidSignature, "Missing stripe-signature header")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePaymentInvalidSignature, "Invalid signature", err)
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("event %s has no data", event.ID)
	}

	var checkout stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &checkout); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	donation := &domain.Donation{
		SessionID: checkout.ID,
		Amount:    float64(checkout.AmountTotal) / 100,
		Currency:  normalizeCurrency(string(checkout.Currency)),
		TeamName:  checkout.Metadata["teamName"],
		CreatedAt: s.now().UTC(),
	}
	if checkout.Created > 0 {
		donation.CreatedAt = time.Unix(checkout.Created, 0).UTC()
	}
	if details := checkout.CustomerDetails; details != nil && details.Email != "" {
		email := details.Email
		donation.CustomerEmail = &email
	}
	return donation, nil
}

// normalizeCurrency upper-cases a valid ISO 4217 code and falls back to USD.
func normalizeCurrency(code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.USD.String()
	}
	return unit.String()
}

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with grouping and two decimals, prefixed
// with the currency code unless it is USD.
func FormatAmount(amount float64, code string) string {
	code = normalizeCurrency(code)
	formatted := printer.Sprintf("%.2f", amount)
	if code == currency.USD.String() {
		return "$" + formatted
	}
	return code + " " + formatted
}
