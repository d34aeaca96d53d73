package store

import (
	"time"

	"receptionist-platform/internal/callrecord"
)

// Profile is one user account. VapiAssistantID links the account to its
// vendor assistant; webhook deliveries resolve ownership through it, so the
// link is 1:1; a shared assistant id across accounts is unsupported.
type Profile struct {
	ID              string    `json:"id" db:"id"`
	AccountID       string    `json:"account_id" db:"account_id"`
	Email           string    `json:"email" db:"email"`
	VapiAssistantID string    `json:"vapi_assistant_id,omitempty" db:"vapi_assistant_id"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type ReceptionistStatus string

const (
	ReceptionistActive   ReceptionistStatus = "active"
	ReceptionistInactive ReceptionistStatus = "inactive"
)

// Receptionist is the per-account virtual receptionist. Ingestion creates at
// most one per account lazily; the API allows more.
type Receptionist struct {
	ID                string             `json:"id" db:"id"`
	UserID            string             `json:"user_id" db:"user_id"`
	Name              string             `json:"name" db:"name"`
	PhoneNumber       string             `json:"phone_number,omitempty" db:"phone_number"`
	Status            ReceptionistStatus `json:"status" db:"status"`
	VapiAssistantID   string             `json:"vapi_assistant_id,omitempty" db:"vapi_assistant_id"`
	VapiPhoneNumberID string             `json:"vapi_phone_number_id,omitempty" db:"vapi_phone_number_id"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
}

// Call is one persisted call row. VendorCallID pairs with ReceptionistID as
// the ingestion upsert key: (receptionist_id, vapi_call_id) is unique, which
// is what makes duplicate webhook deliveries converge on one row.
type Call struct {
	ID              string           `json:"id" db:"id"`
	ReceptionistID  string           `json:"receptionist_id" db:"receptionist_id"`
	VendorCallID    string           `json:"vapi_call_id,omitempty" db:"vapi_call_id"`
	CallerNumber    string           `json:"caller_number" db:"caller_number"`
	Timestamp       time.Time        `json:"timestamp" db:"timestamp"`
	DurationSeconds int              `json:"duration_seconds" db:"duration_seconds"`
	MinutesBilled   float64          `json:"minutes_billed" db:"minutes_billed"`
	Cost            float64          `json:"cost" db:"cost"`
	Label           callrecord.Label `json:"label" db:"label"`
	Transcript      string           `json:"transcript,omitempty" db:"transcript"`
	Metadata        map[string]any   `json:"metadata" db:"metadata"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

// UserMetrics mirrors the get_user_metrics SQL function's row.
type UserMetrics struct {
	TotalMinutesUsed float64    `json:"total_minutes_used"`
	TotalCost        float64    `json:"total_cost"`
	CostPerMinute    float64    `json:"cost_per_minute"`
	TotalCalls       int        `json:"total_calls"`
	LastUpdated      *time.Time `json:"last_updated,omitempty"`
}

// ReceptionistMetrics mirrors the get_receptionist_metrics SQL function's row.
type ReceptionistMetrics struct {
	MinutesUsed   float64 `json:"minutes_used"`
	TotalCost     float64 `json:"total_cost"`
	CostPerMinute float64 `json:"cost_per_minute"`
	CallsHandled  int     `json:"calls_handled"`
}
