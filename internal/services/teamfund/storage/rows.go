package storage

// TeamRow is a row of the teams table.
type TeamRow struct {
	ID               string
	UserID           string
	Name             string
	Sport            string
	Location         string
	League           string
	SeasonStart      string
	SeasonEnd        string
	Audience         string
	SponsorshipNeeds string
	TargetAmount     float64
	ExistingSponsors string
	PrimaryColor     string
	SecondaryColor   string
	LogoURL          string
	CreatedAt        int64
	UpdatedAt        int64
}

// LeadRow is a row of the leads table.
type LeadRow struct {
	ID          string
	TeamID      string
	CompanyName string
	Category    string
	Contact     string
	Email       string
	Location    string
	FitReason   string
	Status      string
	Notes       string
	CreatedAt   int64
	UpdatedAt   int64
}

// LeadPage is a page of lead rows, newest first.
type LeadPage struct {
	Leads         []LeadRow
	NextPageToken string
}

// OutreachDraftRow is a row of the outreach_drafts table. Attachments holds
// a JSON array of asset ids and may be NULL.
type OutreachDraftRow struct {
	ID           string
	TeamID       string
	LeadID       string
	EmailSubject string
	EmailBody    string
	ProposalText string
	Status       string
	Attachments  *string
	CreatedAt    int64
	UpdatedAt    int64
}

// AssetRow is a row of the assets table.
type AssetRow struct {
	ID        string
	TeamID    string
	Type      string
	Name      string
	URL       string
	CreatedAt int64
}

// AssetObjectRow is the stored content of an asset.
type AssetObjectRow struct {
	AssetID     string
	ContentType string
	Data        []byte
}

// DonationRow is a row of the donations table.
type DonationRow struct {
	SessionID     string
	Amount        float64
	Currency      string
	TeamName      string
	CustomerEmail *string
	CreatedAt     int64
}

// GmailGrantRow stores a sealed OAuth token for one user.
type GmailGrantRow struct {
	UserID string
	// TokenCiphertext holds sealed token JSON only.
	TokenCiphertext string
	CreatedAt       int64
	UpdatedAt       int64
}
