package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// SummaryRequest requests aggregated call figures.
// Tenancy isolation: UserID is required; ReceptionistID narrows further.

type SummaryRequest struct {
	UserID         string    `json:"user_id"`
	Range          TimeRange `json:"range"`
	ReceptionistID string    `json:"receptionist_id,omitempty"`
}

type CallsSummary struct {
	UserID         string `json:"user_id"`
	ReceptionistID string `json:"receptionist_id,omitempty"`

	TotalCalls int `json:"total_calls"`

	LeadCalls        int `json:"lead_calls"`
	SpamCalls        int `json:"spam_calls"`
	AppointmentCalls int `json:"appointment_calls"`
	OtherCalls       int `json:"other_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	TotalMinutesBilled float64 `json:"total_minutes_billed"`
	TotalCost          float64 `json:"total_cost"`
	CostPerMinute      float64 `json:"cost_per_minute"`

	RecordedCalls int `json:"recorded_calls"`
}
