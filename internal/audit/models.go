package audit

import "time"

// Event is an immutable, append-only ingestion log record.
//
// Invariants:
// - Events are never updated or deleted.
// - user_id is required for tenancy isolation.
// - Appends are best-effort; do not block webhook handling on audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`

	// Type indicates the business category of the record.
	Type EventType `json:"type" db:"type"`

	// WebhookEvent is the vendor event name that triggered the record
	// (end-of-call-report, transcript, ...), when applicable.
	WebhookEvent string `json:"webhook_event,omitempty" db:"webhook_event"`

	// Target identifiers (optional, depending on the event type).
	ReceptionistID string `json:"receptionist_id,omitempty" db:"receptionist_id"`
	VendorCallID   string `json:"vendor_call_id,omitempty" db:"vendor_call_id"`
	CallID         string `json:"call_id,omitempty" db:"call_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeIngestion        EventType = "call_ingested"
	EventTypeTranscriptUpdate EventType = "transcript_updated"
	EventTypeCallChange       EventType = "call_changed"
)
