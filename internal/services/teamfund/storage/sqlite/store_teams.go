package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/teamfund/internal/platform/id"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

const teamColumns = `id, user_id, name, sport, location, league, season_start, season_end, audience,
	sponsorship_needs, target_amount, existing_sponsors, primary_color, secondary_color, logo_url,
	created_at, updated_at`

// GetTeamByUser returns the team owned by userID.
func (s *Store) GetTeamByUser(ctx context.Context, userID string) (storage.TeamRow, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TeamRow{}, err
	}
	if err := required("user id", userID); err != nil {
		return storage.TeamRow{}, err
	}

	row, err := scanTeamRow(s.sqlDB.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE user_id = ?`, userID))
	if err != nil {
		if notFound(err) {
			return storage.TeamRow{}, storage.ErrNotFound
		}
		return storage.TeamRow{}, fmt.Errorf("get team: %w", err)
	}
	return row, nil
}

// PutTeam upserts the user's team. A user's existing team is replaced in
// place and keeps its id; a user without a team gets a fresh id unless the
// row carries one.
func (s *Store) PutTeam(ctx context.Context, row storage.TeamRow) (storage.TeamRow, error) {
	if err := s.ready(ctx); err != nil {
		return storage.TeamRow{}, err
	}
	if err := required("user id", row.UserID); err != nil {
		return storage.TeamRow{}, err
	}
	if err := required("team name", row.Name); err != nil {
		return storage.TeamRow{}, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.TeamRow{}, fmt.Errorf("begin put team: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanTeamRow(tx.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE user_id = ?`, row.UserID))
	switch {
	case err == nil:
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	case notFound(err):
		if row.ID == "" {
			teamID, err := id.NewID()
			if err != nil {
				return storage.TeamRow{}, err
			}
			row.ID = teamID
		}
		row.CreatedAt = s.nowMillis()
	default:
		return storage.TeamRow{}, fmt.Errorf("load team: %w", err)
	}
	row.UpdatedAt = s.nowMillis()

	_, err = tx.ExecContext(ctx, `
INSERT INTO teams (`+teamColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	sport = excluded.sport,
	location = excluded.location,
	league = excluded.league,
	season_start = excluded.season_start,
	season_end = excluded.season_end,
	audience = excluded.audience,
	sponsorship_needs = excluded.sponsorship_needs,
	target_amount = excluded.target_amount,
	existing_sponsors = excluded.existing_sponsors,
	primary_color = excluded.primary_color,
	secondary_color = excluded.secondary_color,
	logo_url = excluded.logo_url,
	updated_at = excluded.updated_at
WHERE teams.user_id = excluded.user_id
`,
		row.ID,
		row.UserID,
		row.Name,
		row.Sport,
		row.Location,
		row.League,
		row.SeasonStart,
		row.SeasonEnd,
		row.Audience,
		row.SponsorshipNeeds,
		row.TargetAmount,
		row.ExistingSponsors,
		row.PrimaryColor,
		row.SecondaryColor,
		row.LogoURL,
		row.CreatedAt,
		row.UpdatedAt,
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.TeamRow{}, fmt.Errorf("put team: %w", storage.ErrConflict)
		}
		return storage.TeamRow{}, fmt.Errorf("put team: %w", err)
	}
	stored, err := scanTeamRow(tx.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE user_id = ?`, row.UserID))
	if err != nil {
		if notFound(err) {
			// The id belongs to another user's team.
			return storage.TeamRow{}, fmt.Errorf("put team: %w", storage.ErrConflict)
		}
		return storage.TeamRow{}, fmt.Errorf("reload team: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.TeamRow{}, fmt.Errorf("commit put team: %w", err)
	}
	return stored, nil
}

func scanTeamRow(scanner interface{ Scan(...any) error }) (storage.TeamRow, error) {
	var row storage.TeamRow
	err := scanner.Scan(
		&row.ID,
		&row.UserID,
		&row.Name,
		&row.Sport,
		&row.Location,
		&row.League,
		&row.SeasonStart,
		&row.SeasonEnd,
		&row.Audience,
		&row.SponsorshipNeeds,
		&row.TargetAmount,
		&row.ExistingSponsors,
		&row.PrimaryColor,
		&row.SecondaryColor,
		&row.LogoURL,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	return row, err
}
