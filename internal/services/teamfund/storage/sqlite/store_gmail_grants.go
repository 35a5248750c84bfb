package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/teamfund/internal/services/teamfund/storage"
)

// PutGmailGrant upserts the sealed mail grant of one user.
func (s *Store) PutGmailGrant(ctx context.Context, row storage.GmailGrantRow) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("user id", row.UserID); err != nil {
		return err
	}
	// TokenCiphertext is sealed by the caller; plaintext never reaches here.
	if strings.TrimSpace(row.TokenCiphertext) == "" {
		return fmt.Errorf("token ciphertext is required")
	}
	now := s.nowMillis()

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO gmail_grants (user_id, token_ciphertext, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	token_ciphertext = excluded.token_ciphertext,
	updated_at = excluded.updated_at
`, row.UserID, row.TokenCiphertext, now, now)
	if err != nil {
		return fmt.Errorf("put gmail grant: %w", err)
	}
	return nil
}

// GetGmailGrant returns the sealed mail grant of one user.
func (s *Store) GetGmailGrant(ctx context.Context, userID string) (storage.GmailGrantRow, error) {
	if err := s.ready(ctx); err != nil {
		return storage.GmailGrantRow{}, err
	}
	if err := required("user id", userID); err != nil {
		return storage.GmailGrantRow{}, err
	}

	var row storage.GmailGrantRow
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT user_id, token_ciphertext, created_at, updated_at FROM gmail_grants WHERE user_id = ?`, userID,
	).Scan(&row.UserID, &row.TokenCiphertext, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if notFound(err) {
			return storage.GmailGrantRow{}, storage.ErrNotFound
		}
		return storage.GmailGrantRow{}, fmt.Errorf("get gmail grant: %w", err)
	}
	return row, nil
}

// DeleteGmailGrant drops the mail grant of one user. Deleting a missing
// grant succeeds.
func (s *Store) DeleteGmailGrant(ctx context.Context, userID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := required("user id", userID); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM gmail_grants WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete gmail grant: %w", err)
	}
	return nil
}
