package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

// PutDonation records a completed checkout. Replayed webhook deliveries for
// the same session are ignored.
func (s *Store) PutDonation(ctx context.Context, row storage.DonationRow) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("session id", row.SessionID); err != nil {
		return err
	}
	if row.CreatedAt == 0 {
		row.CreatedAt = s.nowMillis()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO donations (session_id, amount, currency, team_name, customer_email, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO NOTHING
`,
		row.SessionID,
		row.Amount,
		row.Currency,
		row.TeamName,
		row.CustomerEmail,
		row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("put donation: %w", err)
	}
	return nil
}

// ListDonationsByTeamName returns donations for a team name, newest first.
func (s *Store) ListDonationsByTeamName(ctx context.Context, teamName string) ([]storage.DonationRow, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := required("team name", teamName); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT session_id, amount, currency, team_name, customer_email, created_at
FROM donations
WHERE team_name = ?
ORDER BY created_at DESC, session_id DESC
`, teamName)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	donations := make([]storage.DonationRow, 0)
	for rows.Next() {
		var row storage.DonationRow
		if err := rows.Scan(&row.SessionID, &row.Amount, &row.Currency, &row.TeamName, &row.CustomerEmail, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		donations = append(donations, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return donations, nil
}
