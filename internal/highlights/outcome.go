package highlights

import (
	"strings"

	"receptionist-platform/internal/vapi"
)

type OutcomeType string

const (
	OutcomeLead        OutcomeType = "lead"
	OutcomeTest        OutcomeType = "test"
	OutcomeAppointment OutcomeType = "appointment"
	OutcomeMissed      OutcomeType = "missed"
	OutcomeOther       OutcomeType = "other"
)

// Outcome is the human-facing reading of a call: a category, its display
// label, and an icon hint for the client.
type Outcome struct {
	Type  OutcomeType `json:"type"`
	Label string      `json:"label"`
	Icon  string      `json:"icon"`
}

// labelOutcomes maps a stored label straight to a display outcome. A stored
// "spam" is deliberately shown as Other: the figure is tracked internally
// but never surfaced to the end user. That is an intentional product
// decision, not a mapping bug.
var labelOutcomes = map[string]Outcome{
	"lead":        {OutcomeLead, "Lead", "account-check"},
	"spam":        {OutcomeOther, "Other", "phone"},
	"appointment": {OutcomeAppointment, "Appointment", "calendar-check"},
	"other":       {OutcomeOther, "Other", "phone"},
}

// ClassifyOutcome decides the displayed outcome for a call. The rule order
// is load-bearing and checked first-match-wins:
//
//  1. test language anywhere → Test
//  2. explicit failed evaluation → Missed/Hang-up
//  3. appointment intent or scheduling language → Appointment
//  4. stored lead label or explicit successful evaluation → Lead
//  5. stored label mapped directly (spam displays as Other)
//
// A test call therefore outranks a failed evaluation, and an appointment
// outranks the lead label.
func ClassifyOutcome(label string, success vapi.TriState, transcript, summary string) Outcome {
	lowerTranscript := strings.ToLower(transcript)
	lowerSummary := strings.ToLower(summary)

	if strings.Contains(lowerTranscript, "test") || strings.Contains(lowerSummary, "test") {
		return Outcome{OutcomeTest, "Test Call", "test-tube"}
	}

	if success.False() {
		return Outcome{OutcomeMissed, "Missed / Hang-up", "phone-hangup"}
	}

	h := Extract(transcript, summary, "")
	if h.Intent == IntentAppointment ||
		strings.Contains(lowerTranscript, "schedule") ||
		strings.Contains(lowerTranscript, "appointment") ||
		strings.Contains(lowerSummary, "schedule") {
		return Outcome{OutcomeAppointment, "Appointment Scheduled", "calendar-check"}
	}

	if label == "lead" || success.True() {
		return Outcome{OutcomeLead, "Lead", "account-check"}
	}

	if out, ok := labelOutcomes[label]; ok {
		return out
	}
	return Outcome{OutcomeOther, "Other", "phone"}
}
