// Package pages renders the few server-side HTML documents: the donation
// landing pages and printable sponsorship proposals.
package pages

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"
)

type link struct {
	href    string
	label   string
	primary bool
}

// DonateSuccess thanks the donor. The session id is shown when present.
func DonateSuccess(sessionID string) templ.Component {
	var details []string
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		details = append(details, "Transaction ID: "+sessionID)
	}
	return card("Thank You!", "Your donation has been received successfully.", details, []link{
		{href: "/", label: "Return to Home", primary: true},
		{href: "/donate", label: "Make Another Donation"},
	})
}

// DonateCancel reports an abandoned checkout.
func DonateCancel() templ.Component {
	return card("Donation Cancelled", "Your donation was not processed. No charges were made.", nil, []link{
		{href: "/donate", label: "Try Again", primary: true},
		{href: "/", label: "Return to Home"},
	})
}

// Write renders component fully before writing, so render errors still
// produce a clean 500.
func Write(w http.ResponseWriter, r *http.Request, status int, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
