package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo appends audit events to Postgres.
//
// NOTE: This repository assumes the following table exists:
//
//	audit_events (
//	    id UUID PRIMARY KEY,
//	    user_id UUID NOT NULL,
//	    type TEXT NOT NULL,
//	    webhook_event TEXT,
//	    receptionist_id UUID,
//	    vendor_call_id TEXT,
//	    call_id UUID,
//	    message TEXT,
//	    metadata JSONB,
//	    created_at TIMESTAMPTZ NOT NULL
//	)
//
// with an INSERT-only policy.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO audit_events
    (id, user_id, type, webhook_event, receptionist_id, vendor_call_id, call_id, message, metadata, created_at)
VALUES
    ($1, $2, $3, NULLIF($4, ''), NULLIF($5, '')::uuid, NULLIF($6, ''), NULLIF($7, '')::uuid, NULLIF($8, ''), NULLIF($9, '')::jsonb, $10)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, e.UserID, string(e.Type), e.WebhookEvent,
		e.ReceptionistID, e.VendorCallID, e.CallID,
		e.Message, e.Metadata, e.CreatedAt,
	)
	return err
}
