package callrecord

import "time"

// Label is the stored outcome of a call. The set is closed: the calls table
// constrains the column to exactly these four values.
type Label string

const (
	LabelLead        Label = "lead"
	LabelSpam        Label = "spam"
	LabelAppointment Label = "appointment"
	LabelOther       Label = "other"
)

// Valid reports whether l is one of the four stored labels.
func (l Label) Valid() bool {
	switch l {
	case LabelLead, LabelSpam, LabelAppointment, LabelOther:
		return true
	}
	return false
}

// Record is the normalized shape of one handled call, mirroring a row of the
// calls table minus the identifiers the store assigns.
//
// CallerNumber is never empty: when the vendor payload carries no number the
// field holds the literal "Unknown". Timestamp is the call start and is left
// zero when the payload has no usable start time; the store substitutes the
// insert time for zero values so normalization stays a pure function.
type Record struct {
	VendorCallID    string
	CallerNumber    string
	Timestamp       time.Time
	DurationSeconds int
	MinutesBilled   float64
	Cost            float64
	Label           Label
	Transcript      string
	Metadata        map[string]any
}

// UnknownCaller is the sentinel stored when no caller number is available.
// The column is NOT NULL, so absence is encoded as this literal.
const UnknownCaller = "Unknown"
