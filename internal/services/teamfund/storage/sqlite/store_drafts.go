package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/teamfund/internal/services/teamfund/domain"
	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

const draftColumns = `id, team_id, lead_id, email_subject, email_body, proposal_text, status, attachments, created_at, updated_at`

// ListDrafts returns the team's outreach drafts, newest first.
func (s *Store) ListDrafts(ctx context.Context, teamID string) ([]storage.OutreachDraftRow, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if err := required("team id", teamID); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+draftColumns+` FROM outreach_drafts WHERE team_id = ? ORDER BY created_at DESC, id DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	drafts := make([]storage.OutreachDraftRow, 0)
	for rows.Next() {
		row, err := scanDraftRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return drafts, nil
}

// GetDraft fetches one of the team's drafts.
func (s *Store) GetDraft(ctx context.Context, teamID, draftID string) (storage.OutreachDraftRow, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OutreachDraftRow{}, err
	}
	if err := required("team id", teamID); err != nil {
		return storage.OutreachDraftRow{}, err
	}
	if err := required("draft id", draftID); err != nil {
		return storage.OutreachDraftRow{}, err
	}

	row, err := scanDraftRow(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+draftColumns+` FROM outreach_drafts WHERE team_id = ? AND id = ?`, teamID, draftID))
	if err != nil {
		if notFound(err) {
			return storage.OutreachDraftRow{}, storage.ErrNotFound
		}
		return storage.OutreachDraftRow{}, fmt.Errorf("get draft: %w", err)
	}
	return row, nil
}

// PutDraft upserts a draft. The referenced lead must belong to the same
// team.
func (s *Store) PutDraft(ctx context.Context, row storage.OutreachDraftRow) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("draft id", row.ID); err != nil {
		return err
	}
	if err := required("team id", row.TeamID); err != nil {
		return err
	}
	if err := required("lead id", row.LeadID); err != nil {
		return err
	}
	if row.Status == "" {
		row.Status = string(domain.DraftStatusDraft)
	}

	var leadExists int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM leads WHERE team_id = ? AND id = ?`, row.TeamID, row.LeadID).Scan(&leadExists)
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("draft lead %s: %w", row.LeadID, storage.ErrNotFound)
		}
		return fmt.Errorf("check draft lead: %w", err)
	}

	now := s.nowMillis()
	if row.CreatedAt == 0 {
		row.CreatedAt = now
	}
	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO outreach_drafts (`+draftColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	lead_id = excluded.lead_id,
	email_subject = excluded.email_subject,
	email_body = excluded.email_body,
	proposal_text = excluded.proposal_text,
	status = excluded.status,
	attachments = excluded.attachments,
	updated_at = excluded.updated_at
WHERE outreach_drafts.team_id = excluded.team_id
`,
		row.ID,
		row.TeamID,
		row.LeadID,
		row.EmailSubject,
		row.EmailBody,
		row.ProposalText,
		row.Status,
		row.Attachments,
		row.CreatedAt,
		now,
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("put draft: %w", storage.ErrConflict)
		}
		return fmt.Errorf("put draft: %w", err)
	}
	// Zero rows means the id exists under another team.
	if err := affectedOrNotFound(result); err != nil {
		return fmt.Errorf("put draft: %w", storage.ErrConflict)
	}
	return nil
}

// UpdateDraft applies a partial text update and returns the stored draft.
// An empty update returns the draft unchanged.
func (s *Store) UpdateDraft(ctx context.Context, teamID, draftID string, update domain.DraftUpdate) (storage.OutreachDraftRow, error) {
	if err := s.ready(ctx); err != nil {
		return storage.OutreachDraftRow{}, err
	}
	if update.Empty() {
		return s.GetDraft(ctx, teamID, draftID)
	}
	if err := required("team id", teamID); err != nil {
		return storage.OutreachDraftRow{}, err
	}
	if err := required("draft id", draftID); err != nil {
		return storage.OutreachDraftRow{}, err
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 6)
	if update.EmailSubject != nil {
		sets = append(sets, "email_subject = ?")
		args = append(args, *update.EmailSubject)
	}
	if update.EmailBody != nil {
		sets = append(sets, "email_body = ?")
		args = append(args, *update.EmailBody)
	}
	if update.ProposalText != nil {
		sets = append(sets, "proposal_text = ?")
		args = append(args, *update.ProposalText)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.nowMillis(), teamID, draftID)

	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE outreach_drafts SET `+strings.Join(sets, ", ")+` WHERE team_id = ? AND id = ?`, args...)
	if err != nil {
		return storage.OutreachDraftRow{}, fmt.Errorf("update draft: %w", err)
	}
	if err := affectedOrNotFound(result); err != nil {
		return storage.OutreachDraftRow{}, err
	}
	return s.GetDraft(ctx, teamID, draftID)
}

// UpdateDraftStatus sets the review status of one team draft.
func (s *Store) UpdateDraftStatus(ctx context.Context, teamID, draftID, status string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("team id", teamID); err != nil {
		return err
	}
	if err := required("draft id", draftID); err != nil {
		return err
	}
	if err := required("status", status); err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE outreach_drafts SET status = ?, updated_at = ? WHERE team_id = ? AND id = ?`,
		status, s.nowMillis(), teamID, draftID,
	)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("update draft status: %w", storage.ErrConflict)
		}
		return fmt.Errorf("update draft status: %w", err)
	}
	return affectedOrNotFound(result)
}

func scanDraftRow(scanner interface{ Scan(...any) error }) (storage.OutreachDraftRow, error) {
	var row storage.OutreachDraftRow
	err := scanner.Scan(
		&row.ID,
		&row.TeamID,
		&row.LeadID,
		&row.EmailSubject,
		&row.EmailBody,
		&row.ProposalText,
		&row.Status,
		&row.Attachments,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	return row, err
}
