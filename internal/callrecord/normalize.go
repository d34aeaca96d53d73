package callrecord

import (
	"context"
	"math"
	"strings"
	"time"

	"receptionist-platform/internal/billing"
	"receptionist-platform/internal/vapi"
)

// AssistantResolver fetches an assistant by vendor id. The normalizer uses it
// only when the call carries an assistant id but no embedded assistant object.
type AssistantResolver interface {
	GetAssistant(ctx context.Context, id string) (*vapi.Assistant, error)
}

// Hints carries envelope-level figures a webhook delivery reports alongside
// the call object. Zero values mean "not reported" and the normalizer derives
// the figure itself.
type Hints struct {
	DurationSeconds float64
	DurationMinutes float64
}

// Normalizer converts vendor call objects into Records. The zero value works;
// Assistants is optional and only enables the lazy assistant-info lookup.
type Normalizer struct {
	Assistants AssistantResolver
}

// Record normalizes one vendor call. It never fails: every malformed or
// missing sub-object degrades to a default (0, empty, "Unknown") so one bad
// field cannot sink the record. Called twice on the same input it produces
// identical output.
func (n *Normalizer) Record(ctx context.Context, call *vapi.Call, hints Hints) Record {
	if call == nil {
		call = &vapi.Call{}
	}

	started := parseVendorTime(call.StartedAt)
	duration := durationSeconds(call, hints)
	transcript := transcriptText(call)
	summary := summaryText(call)
	cost := totalCost(call)

	return Record{
		VendorCallID:    call.ID,
		CallerNumber:    callerNumber(call),
		Timestamp:       started,
		DurationSeconds: duration,
		MinutesBilled:   minutesBilled(duration, hints),
		Cost:            billing.RoundCost(cost),
		Label:           labelFor(successEvaluation(call), transcript, summary),
		Transcript:      transcript,
		Metadata:        n.metadata(ctx, call, started, cost),
	}
}

// Normalize is the dependency-free form used on the read-from-vendor path,
// where no assistant lookup is wanted.
func Normalize(call *vapi.Call) Record {
	var n Normalizer
	return n.Record(context.Background(), call, Hints{})
}

func durationSeconds(call *vapi.Call, hints Hints) int {
	if hints.DurationSeconds > 0 {
		return int(math.Floor(hints.DurationSeconds))
	}
	start := parseVendorTime(call.StartedAt)
	end := parseVendorTime(call.EndedAt)
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Second)
}

func minutesBilled(durationSeconds int, hints Hints) float64 {
	if hints.DurationMinutes > 0 {
		return math.Round(hints.DurationMinutes*100) / 100
	}
	return billing.MinutesBilled(durationSeconds)
}

func callerNumber(call *vapi.Call) string {
	if call.Customer != nil && call.Customer.Number != "" {
		return call.Customer.Number
	}
	if call.PhoneNumber != nil && call.PhoneNumber.Number != "" {
		return call.PhoneNumber.Number
	}
	return UnknownCaller
}

// totalCost prefers the vendor's total, then the breakdown's components, then
// the per-item costs list.
func totalCost(call *vapi.Call) float64 {
	if call.Cost > 0 {
		return call.Cost
	}
	if bd := call.CostBreakdown; bd != nil {
		if bd.Total > 0 {
			return bd.Total
		}
		sum := coalesce(bd.STT, 0) + coalesce(bd.LLM, bd.Model) +
			coalesce(bd.TTS, bd.Voice) + bd.Vapi + coalesce(bd.Transport, bd.Telephony)
		if sum > 0 {
			return sum
		}
	}
	var sum float64
	for _, item := range call.Costs {
		sum += item.Cost
	}
	return sum
}

// RecordingURL resolves the recording location in fixed priority order:
// artifact combined/mono recording, artifact-level URL fields, then the
// legacy top-level field.
func RecordingURL(call *vapi.Call) string {
	if art := call.Artifact; art != nil {
		if rec := art.Recording; rec != nil {
			if rec.CombinedURL != "" {
				return rec.CombinedURL
			}
			if rec.Mono != nil && rec.Mono.CombinedURL != "" {
				return rec.Mono.CombinedURL
			}
			if rec.StereoURL != "" {
				return rec.StereoURL
			}
		}
		if art.RecordingURL != "" {
			return art.RecordingURL
		}
		if art.StereoRecordingURL != "" {
			return art.StereoRecordingURL
		}
	}
	return call.RecordingURL
}

func transcriptText(call *vapi.Call) string {
	if call.Artifact != nil && call.Artifact.Transcript != "" {
		return call.Artifact.Transcript
	}
	if call.Transcript != "" {
		return call.Transcript
	}
	msgs := artifactMessages(call)
	if len(msgs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, m := range msgs {
		if m.Message == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		role := m.Role
		if role == "" {
			role = "unknown"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(m.Message)
	}
	return b.String()
}

func summaryText(call *vapi.Call) string {
	if call.Analysis != nil && call.Analysis.Summary != "" {
		return call.Analysis.Summary
	}
	if call.Artifact != nil {
		return call.Artifact.Summary
	}
	return ""
}

func successEvaluation(call *vapi.Call) vapi.TriState {
	if call.Analysis == nil {
		return vapi.TriUnknown()
	}
	return call.Analysis.SuccessEvaluation
}

// labelFor implements the stored-label policy: calls the vendor evaluated as
// unsuccessful are stored as spam unless the conversation looks like a test
// call; test calls and everything else are stored as other. The label "lead"
// and "appointment" come from later, explicit reclassification, never from
// ingestion.
func labelFor(success vapi.TriState, transcript, summary string) Label {
	if isTestCall(transcript, summary) {
		return LabelOther
	}
	if success.False() {
		return LabelSpam
	}
	return LabelOther
}

func isTestCall(transcript, summary string) bool {
	return strings.Contains(strings.ToLower(transcript), "test") ||
		strings.Contains(strings.ToLower(summary), "test")
}

func artifactMessages(call *vapi.Call) []vapi.Message {
	if call.Artifact != nil && len(call.Artifact.Messages) > 0 {
		return call.Artifact.Messages
	}
	return call.Messages
}

func parseVendorTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func coalesce(primary, fallback float64) float64 {
	if primary != 0 {
		return primary
	}
	return fallback
}
