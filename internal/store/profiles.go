package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const profileColumns = `id, account_id, email, COALESCE(vapi_assistant_id, ''), created_at, updated_at`

func scanProfile(row *sql.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.AccountID, &p.Email, &p.VapiAssistantID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}

// ProfileByAssistantID resolves the owning account of a vendor assistant.
// This is the webhook's identity lookup; ErrNotFound means the assistant id
// is not linked to any account.
func (s *Store) ProfileByAssistantID(ctx context.Context, assistantID string) (Profile, error) {
	if assistantID == "" {
		return Profile{}, ErrInvalidArgument
	}
	const q = `
SELECT ` + profileColumns + `
FROM profiles
WHERE vapi_assistant_id = $1
`
	return scanProfile(s.db.QueryRowContext(ctx, q, assistantID))
}

func (s *Store) Profile(ctx context.Context, id string) (Profile, error) {
	const q = `
SELECT ` + profileColumns + `
FROM profiles
WHERE id = $1
`
	return scanProfile(s.db.QueryRowContext(ctx, q, id))
}

func (s *Store) ProfileByEmail(ctx context.Context, email string) (Profile, error) {
	const q = `
SELECT ` + profileColumns + `
FROM profiles
WHERE email = $1
`
	return scanProfile(s.db.QueryRowContext(ctx, q, email))
}

// CreateProfile registers an account. AccountID defaults to a fresh id when
// the caller does not bring one.
func (s *Store) CreateProfile(ctx context.Context, p Profile) (Profile, error) {
	if p.Email == "" {
		return Profile{}, ErrInvalidArgument
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.AccountID == "" {
		p.AccountID = uuid.NewString()
	}
	now := s.clock().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	const q = `
INSERT INTO profiles (id, account_id, email, vapi_assistant_id, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
`
	if _, err := s.db.ExecContext(ctx, q, p.ID, p.AccountID, p.Email, p.VapiAssistantID, p.CreatedAt, p.UpdatedAt); err != nil {
		return Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return p, nil
}

// LinkAssistant points a profile at its vendor assistant id.
func (s *Store) LinkAssistant(ctx context.Context, profileID, assistantID string) error {
	const q = `
UPDATE profiles
SET vapi_assistant_id = NULLIF($2, ''), updated_at = $3
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, profileID, assistantID, s.clock().UTC())
	if err != nil {
		return fmt.Errorf("link assistant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
