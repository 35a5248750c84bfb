package domain

import "time"

// Donation is a completed checkout recorded from the payment webhook.
type Donation struct {
	SessionID     string    `json:"sessionId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	TeamName      string    `json:"teamName"`
	CustomerEmail *string   `json:"customerEmail"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CheckoutRequest asks for a hosted donation checkout.
type CheckoutRequest struct {
	Amount   float64 `json:"amount"`
	TeamName string  `json:"teamName"`
}
