package webhook

import (
	"encoding/json"
	"errors"
	"sort"

	"receptionist-platform/internal/callrecord"
	"receptionist-platform/internal/vapi"
)

// Vendor event names. Only call-related events carry enough identity to act
// on; every other event is acknowledged without processing.
const (
	EventEndOfCallReport    = "end-of-call-report"
	EventCallEnd            = "call-end"
	EventHang               = "hang"
	EventTranscript         = "transcript"
	EventTranscriptFinal    = `transcript[transcriptType="final"]`
	EventConversationUpdate = "conversation-update"
)

// RequiresIdentifiers reports whether an event must carry assistant and call
// ids to be processed.
func RequiresIdentifiers(event string) bool {
	switch event {
	case EventEndOfCallReport, EventCallEnd, EventHang,
		EventTranscript, EventTranscriptFinal, EventConversationUpdate:
		return true
	}
	return false
}

// IsReport reports whether the event carries a finished call to ingest.
func IsReport(event string) bool {
	return event == EventEndOfCallReport || event == EventCallEnd || event == EventHang
}

// IsTranscript reports whether the event carries live transcript text for a
// call that may already be stored.
func IsTranscript(event string) bool {
	return event == EventTranscript || event == EventTranscriptFinal || event == EventConversationUpdate
}

var ErrInvalidPayload = errors.New("webhook: invalid JSON payload")

// Envelope is a parsed webhook delivery. The vendor moves identity and call
// fields around depending on the event type, so every accessor walks a
// documented priority chain instead of trusting a single location.
type Envelope struct {
	Type       string
	Assistant  *vapi.Assistant
	Call       *vapi.Call
	Transcript string
	Message    *messageBody

	// Oldest payload shape keeps call timing and cost at the root.
	StartedAt   string
	EndedAt     string
	EndedReason string
	Cost        float64

	keys []string
}

// messageBody is the "message" sub-object of a delivery. Report events spread
// call fields across message.call and the message itself.
type messageBody struct {
	Type        string `json:"type"`
	AssistantID string `json:"assistantId"`
	CallID      string `json:"callId"`

	Call               *vapi.Call      `json:"call"`
	Assistant          *vapi.Assistant `json:"assistant"`
	AssistantOverrides *vapi.Assistant `json:"assistantOverrides"`
	Customer           *vapi.Customer  `json:"customer"`
	PhoneNumberID      string          `json:"phoneNumberId"`

	StartedAt       string  `json:"startedAt"`
	EndedAt         string  `json:"endedAt"`
	EndedReason     string  `json:"endedReason"`
	DurationSeconds float64 `json:"durationSeconds"`
	DurationMinutes float64 `json:"durationMinutes"`
	DurationMs      float64 `json:"durationMs"`

	Cost          float64             `json:"cost"`
	CostBreakdown *vapi.CostBreakdown `json:"costBreakdown"`
	Costs         []vapi.CostItem     `json:"costs"`

	Analysis     *vapi.Analysis `json:"analysis"`
	Artifact     *vapi.Artifact `json:"artifact"`
	Messages     []vapi.Message `json:"messages"`
	RecordingURL string         `json:"recordingUrl"`
	Summary      string         `json:"summary"`
	Transcript   string         `json:"transcript"`
	Content      string         `json:"content"`
}

// Parse decodes a delivery body. Top-level keys are decoded individually so
// one malformed sub-object reads as absent instead of rejecting the whole
// delivery; only bodies that are not JSON objects fail.
func Parse(body []byte) (*Envelope, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, ErrInvalidPayload
	}

	env := &Envelope{}
	for k := range raw {
		env.keys = append(env.keys, k)
	}
	sort.Strings(env.keys)

	decodeFields(raw, map[string]any{
		"type":        &env.Type,
		"assistant":   &env.Assistant,
		"call":        &env.Call,
		"transcript":  &env.Transcript,
		"startedAt":   &env.StartedAt,
		"endedAt":     &env.EndedAt,
		"endedReason": &env.EndedReason,
		"cost":        &env.Cost,
	})
	if b, ok := raw["message"]; ok {
		env.Message = parseMessage(b)
	}
	return env, nil
}

func parseMessage(b []byte) *messageBody {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	m := &messageBody{}
	decodeFields(raw, map[string]any{
		"type":               &m.Type,
		"assistantId":        &m.AssistantID,
		"callId":             &m.CallID,
		"call":               &m.Call,
		"assistant":          &m.Assistant,
		"assistantOverrides": &m.AssistantOverrides,
		"customer":           &m.Customer,
		"phoneNumberId":      &m.PhoneNumberID,
		"startedAt":          &m.StartedAt,
		"endedAt":            &m.EndedAt,
		"endedReason":        &m.EndedReason,
		"durationSeconds":    &m.DurationSeconds,
		"durationMinutes":    &m.DurationMinutes,
		"durationMs":         &m.DurationMs,
		"cost":               &m.Cost,
		"costBreakdown":      &m.CostBreakdown,
		"costs":              &m.Costs,
		"analysis":           &m.Analysis,
		"artifact":           &m.Artifact,
		"messages":           &m.Messages,
		"recordingUrl":       &m.RecordingURL,
		"summary":            &m.Summary,
		"transcript":         &m.Transcript,
		"content":            &m.Content,
	})
	return m
}

func decodeFields(raw map[string]json.RawMessage, fields map[string]any) {
	for k, dst := range fields {
		if b, ok := raw[k]; ok {
			_ = json.Unmarshal(b, dst)
		}
	}
}

// PayloadKeys returns the sorted top-level keys, for diagnostic responses.
func (e *Envelope) PayloadKeys() []string { return e.keys }

// EventType resolves the event name: message.type, then top-level type.
func (e *Envelope) EventType() string {
	if e.Message != nil && e.Message.Type != "" {
		return e.Message.Type
	}
	if e.Type != "" {
		return e.Type
	}
	return "unknown"
}

// AssistantID resolves the assistant id. Transcript events carry it under
// message.call.assistantId rather than at the root.
func (e *Envelope) AssistantID() string {
	if e.Assistant != nil && e.Assistant.ID != "" {
		return e.Assistant.ID
	}
	if e.Message != nil {
		if e.Message.AssistantID != "" {
			return e.Message.AssistantID
		}
		if e.Message.Call != nil && e.Message.Call.AssistantID != "" {
			return e.Message.Call.AssistantID
		}
	}
	if e.Call != nil {
		return e.Call.AssistantID
	}
	return ""
}

// CallID resolves the vendor call id: message.call.id, top-level call.id,
// then message.callId.
func (e *Envelope) CallID() string {
	if e.Message != nil && e.Message.Call != nil && e.Message.Call.ID != "" {
		return e.Message.Call.ID
	}
	if e.Call != nil && e.Call.ID != "" {
		return e.Call.ID
	}
	if e.Message != nil {
		return e.Message.CallID
	}
	return ""
}

// Hints returns the envelope-level duration figures, when reported. Older
// payloads report durationMs instead of durationSeconds.
func (e *Envelope) Hints() callrecord.Hints {
	if e.Message == nil {
		return callrecord.Hints{}
	}
	h := callrecord.Hints{
		DurationSeconds: e.Message.DurationSeconds,
		DurationMinutes: e.Message.DurationMinutes,
	}
	if h.DurationSeconds == 0 && e.Message.DurationMs > 0 {
		h.DurationSeconds = e.Message.DurationMs / 1000
	}
	return h
}

// TranscriptText resolves live transcript text: message.artifact.transcript,
// message.transcript, top-level transcript, then message.content.
func (e *Envelope) TranscriptText() string {
	if e.Message != nil {
		if e.Message.Artifact != nil && e.Message.Artifact.Transcript != "" {
			return e.Message.Artifact.Transcript
		}
		if e.Message.Transcript != "" {
			return e.Message.Transcript
		}
	}
	if e.Transcript != "" {
		return e.Transcript
	}
	if e.Message != nil {
		return e.Message.Content
	}
	return ""
}

// CallData assembles the call object a report delivery describes. Merging is
// field by field: message.call wins, the top-level call fills its gaps, then
// message-level fields and finally the root-level timing/cost fields cover
// the older payload shapes. A nested call must never mask data that only the
// top-level call carries.
func (e *Envelope) CallData() *vapi.Call {
	out := &vapi.Call{}
	if e.Message != nil && e.Message.Call != nil {
		*out = *e.Message.Call
	}
	if e.Call != nil {
		fillCall(out, e.Call)
	}

	if m := e.Message; m != nil {
		fillCall(out, &vapi.Call{
			StartedAt:          m.StartedAt,
			EndedAt:            m.EndedAt,
			EndedReason:        m.EndedReason,
			Cost:               m.Cost,
			CostBreakdown:      m.CostBreakdown,
			Costs:              m.Costs,
			Analysis:           m.Analysis,
			Artifact:           m.Artifact,
			Messages:           m.Messages,
			RecordingURL:       m.RecordingURL,
			Transcript:         m.Transcript,
			Customer:           m.Customer,
			PhoneNumberID:      m.PhoneNumberID,
			Assistant:          m.Assistant,
			AssistantOverrides: m.AssistantOverrides,
		})
		if m.Summary != "" {
			if out.Analysis == nil {
				out.Analysis = &vapi.Analysis{Summary: m.Summary}
			} else if out.Analysis.Summary == "" {
				a := *out.Analysis
				a.Summary = m.Summary
				out.Analysis = &a
			}
		}
	}

	fillCall(out, &vapi.Call{
		StartedAt:   e.StartedAt,
		EndedAt:     e.EndedAt,
		EndedReason: e.EndedReason,
		Cost:        e.Cost,
	})

	if out.ID == "" {
		out.ID = e.CallID()
	}
	if out.AssistantID == "" {
		out.AssistantID = e.AssistantID()
	}
	return out
}

// fillCall copies from src every field dst is missing. dst keeps what it has.
func fillCall(dst, src *vapi.Call) {
	if dst.ID == "" {
		dst.ID = src.ID
	}
	if dst.OrgID == "" {
		dst.OrgID = src.OrgID
	}
	if dst.CreatedAt == "" {
		dst.CreatedAt = src.CreatedAt
	}
	if dst.UpdatedAt == "" {
		dst.UpdatedAt = src.UpdatedAt
	}
	if dst.Type == "" {
		dst.Type = src.Type
	}
	if dst.Status == "" {
		dst.Status = src.Status
	}
	if dst.StartedAt == "" {
		dst.StartedAt = src.StartedAt
	}
	if dst.EndedAt == "" {
		dst.EndedAt = src.EndedAt
	}
	if dst.EndedReason == "" {
		dst.EndedReason = src.EndedReason
	}
	if dst.Cost == 0 {
		dst.Cost = src.Cost
	}
	if dst.CostBreakdown == nil {
		dst.CostBreakdown = src.CostBreakdown
	}
	if len(dst.Costs) == 0 {
		dst.Costs = src.Costs
	}
	if dst.Analysis == nil {
		dst.Analysis = src.Analysis
	}
	if dst.Artifact == nil {
		dst.Artifact = src.Artifact
	}
	if len(dst.Messages) == 0 {
		dst.Messages = src.Messages
	}
	if dst.AssistantID == "" {
		dst.AssistantID = src.AssistantID
	}
	if dst.Assistant == nil {
		dst.Assistant = src.Assistant
	}
	if dst.AssistantOverrides == nil {
		dst.AssistantOverrides = src.AssistantOverrides
	}
	if dst.PhoneNumberID == "" {
		dst.PhoneNumberID = src.PhoneNumberID
	}
	if dst.PhoneNumber == nil {
		dst.PhoneNumber = src.PhoneNumber
	}
	if dst.Customer == nil {
		dst.Customer = src.Customer
	}
	if dst.RecordingURL == "" {
		dst.RecordingURL = src.RecordingURL
	}
	if dst.Transcript == "" {
		dst.Transcript = src.Transcript
	}
	if dst.Metadata == nil {
		dst.Metadata = src.Metadata
	}
}
