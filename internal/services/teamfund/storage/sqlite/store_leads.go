package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/teamfund/internal/services/teamfund/leadfilter"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

const leadColumns = `id, team_id, company_name, category, contact, email, location, fit_reason, status, notes, created_at, updated_at`

// ListLeads returns a page of the team's leads, newest first. filter is an
// AIP-160 expression; pageToken is the id of the last lead of the previous
// page.
func (s *Store) ListLeads(ctx context.Context, teamID, filter string, pageSize int, pageToken string) (storage.LeadPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.LeadPage{}, err
	}
	if err := required("team id", teamID); err != nil {
		return storage.LeadPage{}, err
	}
	if pageSize <= 0 {
		return storage.LeadPage{}, fmt.Errorf("page size must be greater than zero")
	}
	cond, err := leadfilter.Parse(filter)
	if err != nil {
		return storage.LeadPage{}, err
	}

	var query strings.Builder
	query.WriteString(`SELECT ` + leadColumns + ` FROM leads WHERE team_id = ?`)
	args := []any{teamID}
	if !cond.Empty() {
		query.WriteString(` AND ` + cond.Clause)
		args = append(args, cond.Params...)
	}
	if token := strings.TrimSpace(pageToken); token != "" {
		query.WriteString(` AND (created_at, id) < (SELECT created_at, id FROM leads WHERE team_id = ? AND id = ?)`)
		args = append(args, teamID, token)
	}
	query.WriteString(` ORDER BY created_at DESC, id DESC LIMIT ?`)
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return storage.LeadPage{}, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	page := storage.LeadPage{Leads: make([]storage.LeadRow, 0, pageSize)}
	for rows.Next() {
		row, err := scanLeadRow(rows)
		if err != nil {
			return storage.LeadPage{}, fmt.Errorf("scan lead: %w", err)
		}
		page.Leads = append(page.Leads, row)
	}
	if err := rows.Err(); err != nil {
		return storage.LeadPage{}, fmt.Errorf("list leads: %w", err)
	}
	if len(page.Leads) > pageSize {
		page.NextPageToken = page.Leads[pageSize-1].ID
		page.Leads = page.Leads[:pageSize]
	}
	return page, nil
}

// GetLead fetches one of the team's leads.
func (s *Store) GetLead(ctx context.Context, teamID, leadID string) (storage.LeadRow, error) {
	if err := s.ready(ctx); err != nil {
		return storage.LeadRow{}, err
	}
	if err := required("team id", teamID); err != nil {
		return storage.LeadRow{}, err
	}
	if err := required("lead id", leadID); err != nil {
		return storage.LeadRow{}, err
	}

	row, err := scanLeadRow(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE team_id = ? AND id = ?`, teamID, leadID))
	if err != nil {
		if notFound(err) {
			return storage.LeadRow{}, storage.ErrNotFound
		}
		return storage.LeadRow{}, fmt.Errorf("get lead: %w", err)
	}
	return row, nil
}

// InsertLeads stores a batch of leads in one transaction. Rows without
// timestamps are stamped with the current time.
func (s *Store) InsertLeads(ctx context.Context, rows []storage.LeadRow) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if err := required("lead id", row.ID); err != nil {
			return err
		}
		if err := required("team id", row.TeamID); err != nil {
			return err
		}
		if err := required("company name", row.CompanyName); err != nil {
			return err
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert leads: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert leads: %w", err)
	}
	defer stmt.Close()

	now := s.nowMillis()
	for _, row := range rows {
		createdAt := row.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}
		updatedAt := row.UpdatedAt
		if updatedAt == 0 {
			updatedAt = createdAt
		}
		status := row.Status
		if status == "" {
			status = "new"
		}
		if _, err := stmt.ExecContext(ctx,
			row.ID,
			row.TeamID,
			row.CompanyName,
			row.Category,
			row.Contact,
			row.Email,
			row.Location,
			row.FitReason,
			status,
			row.Notes,
			createdAt,
			updatedAt,
		); err != nil {
			if isConstraintError(err) {
				return fmt.Errorf("insert lead %s: %w", row.ID, storage.ErrConflict)
			}
			return fmt.Errorf("insert lead %s: %w", row.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert leads: %w", err)
	}
	return nil
}

// UpdateLeadStatus sets status on the listed team leads and returns the
// number of leads changed.
func (s *Store) UpdateLeadStatus(ctx context.Context, teamID string, leadIDs []string, status string) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if err := required("team id", teamID); err != nil {
		return 0, err
	}
	if err := required("status", status); err != nil {
		return 0, err
	}
	if len(leadIDs) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(leadIDs)+3)
	args = append(args, status, s.nowMillis(), teamID)
	for _, leadID := range leadIDs {
		args = append(args, leadID)
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE leads SET status = ?, updated_at = ? WHERE team_id = ? AND id IN (`+placeholders(len(leadIDs))+`)`,
		args...,
	)
	if err != nil {
		if isConstraintError(err) {
			return 0, fmt.Errorf("update lead status: %w", storage.ErrConflict)
		}
		return 0, fmt.Errorf("update lead status: %w", err)
	}
	return result.RowsAffected()
}

// UpdateLeadNotes replaces the notes of one team lead.
func (s *Store) UpdateLeadNotes(ctx context.Context, teamID, leadID, notes string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("team id", teamID); err != nil {
		return err
	}
	if err := required("lead id", leadID); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE leads SET notes = ?, updated_at = ? WHERE team_id = ? AND id = ?`,
		notes, s.nowMillis(), teamID, leadID,
	)
	if err != nil {
		return fmt.Errorf("update lead notes: %w", err)
	}
	return affectedOrNotFound(result)
}

// DeleteLeads removes the listed team leads and their drafts. An empty id
// list is a no-op.
func (s *Store) DeleteLeads(ctx context.Context, teamID string, leadIDs []string) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if err := required("team id", teamID); err != nil {
		return 0, err
	}
	if len(leadIDs) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(leadIDs)+1)
	args = append(args, teamID)
	for _, leadID := range leadIDs {
		args = append(args, leadID)
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM leads WHERE team_id = ? AND id IN (`+placeholders(len(leadIDs))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete leads: %w", err)
	}
	return result.RowsAffected()
}

func scanLeadRow(scanner interface{ Scan(...any) error }) (storage.LeadRow, error) {
	var row storage.LeadRow
	err := scanner.Scan(
		&row.ID,
		&row.TeamID,
		&row.CompanyName,
		&row.Category,
		&row.Contact,
		&row.Email,
		&row.Location,
		&row.FitReason,
		&row.Status,
		&row.Notes,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	return row, err
}
