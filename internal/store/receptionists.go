package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"receptionist-platform/pkg/utils"

	"github.com/google/uuid"
)

const receptionistColumns = `id, user_id, name, COALESCE(phone_number, ''), status,
	COALESCE(vapi_assistant_id, ''), COALESCE(vapi_phone_number_id, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceptionist(row rowScanner) (Receptionist, error) {
	var r Receptionist
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.PhoneNumber, &r.Status,
		&r.VapiAssistantID, &r.VapiPhoneNumberID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Receptionist{}, ErrNotFound
	}
	if err != nil {
		return Receptionist{}, fmt.Errorf("scan receptionist: %w", err)
	}
	return r, nil
}

// GetOrCreateReceptionist returns the account's receptionist, creating it on
// first use with the stock name and active status. Runs in a transaction so
// two concurrent webhook deliveries for a brand-new account cannot both
// insert.
func (s *Store) GetOrCreateReceptionist(ctx context.Context, userID string) (Receptionist, error) {
	if userID == "" {
		return Receptionist{}, ErrInvalidArgument
	}
	var out Receptionist
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
SELECT ` + receptionistColumns + `
FROM receptionists
WHERE user_id = $1
ORDER BY created_at
LIMIT 1
FOR UPDATE
`
		r, err := scanReceptionist(tx.QueryRowContext(ctx, q, userID))
		if err == nil {
			out = r
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		now := s.clock().UTC()
		out = Receptionist{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      "AI Receptionist",
			Status:    ReceptionistActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		const ins = `
INSERT INTO receptionists (id, user_id, name, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
		if _, err := tx.ExecContext(ctx, ins, out.ID, out.UserID, out.Name, out.Status, now, now); err != nil {
			return fmt.Errorf("insert receptionist: %w", err)
		}
		return nil
	})
	if err != nil {
		return Receptionist{}, err
	}
	return out, nil
}

func (s *Store) Receptionist(ctx context.Context, id string) (Receptionist, error) {
	const q = `
SELECT ` + receptionistColumns + `
FROM receptionists
WHERE id = $1
`
	return scanReceptionist(s.db.QueryRowContext(ctx, q, id))
}

// Receptionists lists an account's receptionists newest-first.
func (s *Store) Receptionists(ctx context.Context, userID string) ([]Receptionist, error) {
	const q = `
SELECT ` + receptionistColumns + `
FROM receptionists
WHERE user_id = $1
ORDER BY created_at DESC
`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list receptionists: %w", err)
	}
	defer rows.Close()

	out := []Receptionist{}
	for rows.Next() {
		r, err := scanReceptionist(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CreateReceptionist(ctx context.Context, r Receptionist) (Receptionist, error) {
	if r.UserID == "" {
		return Receptionist{}, ErrInvalidArgument
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Name == "" {
		r.Name = "AI Receptionist"
	}
	if r.Status == "" {
		r.Status = ReceptionistInactive
	}
	now := s.clock().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	const q = `
INSERT INTO receptionists (id, user_id, name, phone_number, status, vapi_assistant_id, vapi_phone_number_id, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
`
	if _, err := s.db.ExecContext(ctx, q, r.ID, r.UserID, r.Name, r.PhoneNumber, r.Status,
		r.VapiAssistantID, r.VapiPhoneNumberID, r.CreatedAt, r.UpdatedAt); err != nil {
		return Receptionist{}, fmt.Errorf("insert receptionist: %w", err)
	}
	return r, nil
}

// ReceptionistUpdate carries the mutable fields; nil pointers are not
// written.
type ReceptionistUpdate struct {
	Name              *string             `json:"name,omitempty"`
	PhoneNumber       *string             `json:"phone_number,omitempty"`
	Status            *ReceptionistStatus `json:"status,omitempty"`
	VapiAssistantID   *string             `json:"vapi_assistant_id,omitempty"`
	VapiPhoneNumberID *string             `json:"vapi_phone_number_id,omitempty"`
}

func (s *Store) UpdateReceptionist(ctx context.Context, id string, upd ReceptionistUpdate) (Receptionist, error) {
	const q = `
UPDATE receptionists
SET name                 = COALESCE($2, name),
    phone_number         = COALESCE($3, phone_number),
    status               = COALESCE($4, status),
    vapi_assistant_id    = COALESCE($5, vapi_assistant_id),
    vapi_phone_number_id = COALESCE($6, vapi_phone_number_id),
    updated_at           = $7
WHERE id = $1
RETURNING ` + receptionistColumns + `
`
	return scanReceptionist(s.db.QueryRowContext(ctx, q, id,
		upd.Name, upd.PhoneNumber, upd.Status, upd.VapiAssistantID, upd.VapiPhoneNumberID,
		s.clock().UTC()))
}

func (s *Store) DeleteReceptionist(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM receptionists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete receptionist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
