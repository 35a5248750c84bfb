package domain

import (
	"strings"

	apperrors "github.com/louisbranch/teamfund/internal/platform/errors"
)

// User is the authenticated account behind a request.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// Team is the single sports team a user manages.
type Team struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Sport            string  `json:"sport"`
	Location         string  `json:"location"`
	League           string  `json:"league"`
	SeasonStart      string  `json:"seasonStart"`
	SeasonEnd        string  `json:"seasonEnd"`
	Audience         string  `json:"audience"`
	SponsorshipNeeds string  `json:"sponsorshipNeeds"`
	TargetAmount     float64 `json:"targetAmount"`
	ExistingSponsors string  `json:"existingSponsors"`
	PrimaryColor     string  `json:"primaryColor"`
	SecondaryColor   string  `json:"secondaryColor"`
	LogoURL          string  `json:"logoUrl"`
}

// Validate checks the fields onboarding requires.
func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return apperrors.New(apperrors.CodeTeamNameEmpty, "Team name is required")
	}
	if strings.TrimSpace(t.Sport) == "" {
		return apperrors.WithMetadata(apperrors.CodeTeamInvalidField, "Sport is required", map[string]string{"field": "sport"})
	}
	if strings.TrimSpace(t.Location) == "" {
		return apperrors.WithMetadata(apperrors.CodeTeamInvalidField, "Location is required", map[string]string{"field": "location"})
	}
	if t.TargetAmount < 0 {
		return apperrors.WithMetadata(apperrors.CodeTeamInvalidField, "Target amount must not be negative", map[string]string{"field": "targetAmount"})
	}
	return nil
}
