package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"receptionist-platform/internal/callrecord"

	"github.com/google/uuid"
)

const callColumns = `id, receptionist_id, vapi_call_id, caller_number, timestamp,
	duration_seconds, minutes_billed, cost, label, COALESCE(transcript, ''), metadata, created_at, updated_at`

func scanCall(row rowScanner) (Call, error) {
	var c Call
	var metadata []byte
	err := row.Scan(&c.ID, &c.ReceptionistID, &c.VendorCallID, &c.CallerNumber, &c.Timestamp,
		&c.DurationSeconds, &c.MinutesBilled, &c.Cost, &c.Label, &c.Transcript, &metadata,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	if err != nil {
		return Call{}, fmt.Errorf("scan call: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
			return Call{}, fmt.Errorf("decode call metadata: %w", err)
		}
	}
	return c, nil
}

// UpsertIngestedCall writes a normalized record for a receptionist in one
// statement. The unique index on (receptionist_id, vapi_call_id) turns a
// duplicate webhook delivery into an update of the existing row, so two
// simultaneous deliveries of the same call can never produce two rows.
func (s *Store) UpsertIngestedCall(ctx context.Context, receptionistID string, rec callrecord.Record) (Call, error) {
	if receptionistID == "" || rec.VendorCallID == "" {
		return Call{}, ErrInvalidArgument
	}
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return Call{}, fmt.Errorf("encode call metadata: %w", err)
	}

	now := s.clock().UTC()
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = now
	}

	const q = `
INSERT INTO calls (id, receptionist_id, vapi_call_id, caller_number, timestamp,
	duration_seconds, minutes_billed, cost, label, transcript, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $12)
ON CONFLICT (receptionist_id, vapi_call_id) DO UPDATE SET
	caller_number    = EXCLUDED.caller_number,
	timestamp        = EXCLUDED.timestamp,
	duration_seconds = EXCLUDED.duration_seconds,
	minutes_billed   = EXCLUDED.minutes_billed,
	cost             = EXCLUDED.cost,
	label            = EXCLUDED.label,
	transcript       = EXCLUDED.transcript,
	metadata         = EXCLUDED.metadata,
	updated_at       = EXCLUDED.updated_at
RETURNING ` + callColumns + `
`
	return scanCall(s.db.QueryRowContext(ctx, q,
		uuid.NewString(), receptionistID, rec.VendorCallID, rec.CallerNumber, ts,
		rec.DurationSeconds, rec.MinutesBilled, rec.Cost, rec.Label, rec.Transcript, metadata, now))
}

// UpdateTranscriptByVendorID sets only the transcript of an already-ingested
// call. ErrNotFound means the end-of-call event has not arrived yet; callers
// drop the transcript rather than buffering it.
func (s *Store) UpdateTranscriptByVendorID(ctx context.Context, receptionistID, vendorCallID, transcript string) error {
	const q = `
UPDATE calls
SET transcript = $3, updated_at = $4
WHERE receptionist_id = $1 AND vapi_call_id = $2
`
	res, err := s.db.ExecContext(ctx, q, receptionistID, vendorCallID, transcript, s.clock().UTC())
	if err != nil {
		return fmt.Errorf("update transcript: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CallFilter narrows Calls listings. Zero values mean "any".
type CallFilter struct {
	ReceptionistID string
	Label          callrecord.Label
	Since          time.Time
	Until          time.Time
}

// Calls lists rows newest-first for one account, optionally narrowed.
// Scoping by user id keeps one tenant from reading another's calls.
func (s *Store) Calls(ctx context.Context, userID string, f CallFilter) ([]Call, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE receptionist_id IN (SELECT id FROM receptionists WHERE user_id = $1)
  AND ($2::text IS NULL OR receptionist_id::text = $2)
  AND ($3::text IS NULL OR label = $3)
  AND ($4::timestamptz IS NULL OR timestamp >= $4)
  AND ($5::timestamptz IS NULL OR timestamp <= $5)
ORDER BY timestamp DESC
`
	rows, err := s.db.QueryContext(ctx, q, userID, nullString(f.ReceptionistID), nullString(string(f.Label)),
		nullTime(f.Since), nullTime(f.Until))
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	out := []Call{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CallForUser fetches one call, enforcing account ownership.
func (s *Store) CallForUser(ctx context.Context, userID, callID string) (Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE id = $2
  AND receptionist_id IN (SELECT id FROM receptionists WHERE user_id = $1)
`
	return scanCall(s.db.QueryRowContext(ctx, q, userID, callID))
}

// CallUpdate carries the client-mutable fields; nil pointers are not written.
type CallUpdate struct {
	Label      *callrecord.Label `json:"label,omitempty"`
	Transcript *string           `json:"transcript,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
}

func (s *Store) UpdateCall(ctx context.Context, userID, callID string, upd CallUpdate) (Call, error) {
	if upd.Label != nil && !upd.Label.Valid() {
		return Call{}, ErrInvalidArgument
	}
	var metadata []byte
	if upd.Metadata != nil {
		var err error
		if metadata, err = json.Marshal(upd.Metadata); err != nil {
			return Call{}, fmt.Errorf("encode call metadata: %w", err)
		}
	}
	const q = `
UPDATE calls
SET label      = COALESCE($3, label),
    transcript = COALESCE($4, transcript),
    metadata   = COALESCE($5, metadata),
    updated_at = $6
WHERE id = $2
  AND receptionist_id IN (SELECT id FROM receptionists WHERE user_id = $1)
RETURNING ` + callColumns + `
`
	return scanCall(s.db.QueryRowContext(ctx, q, userID, callID,
		upd.Label, upd.Transcript, metadata, s.clock().UTC()))
}

func (s *Store) DeleteCall(ctx context.Context, userID, callID string) error {
	const q = `
DELETE FROM calls
WHERE id = $2
  AND receptionist_id IN (SELECT id FROM receptionists WHERE user_id = $1)
`
	res, err := s.db.ExecContext(ctx, q, userID, callID)
	if err != nil {
		return fmt.Errorf("delete call: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
