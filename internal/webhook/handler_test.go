package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"receptionist-platform/internal/audit"
	"receptionist-platform/internal/callrecord"
	"receptionist-platform/internal/store"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.POST("/webhooks/vapi", h.Handle)
	return r
}

func post(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/vapi", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

const reportBody = `{
  "message": {
    "type": "end-of-call-report",
    "durationSeconds": 125,
    "call": {
      "id": "vapi-call-1",
      "assistantId": "asst-1",
      "startedAt": "2026-03-01T10:00:00Z",
      "endedAt": "2026-03-01T10:02:05Z",
      "customer": {"number": "+15551234567"},
      "cost": 0.08
    },
    "analysis": {"summary": "Caller asked about roof repair.", "successEvaluation": true},
    "artifact": {"transcript": "User: I need my roof fixed."}
  }
}`

func TestHandle_EndOfCallReportIngestsCall(t *testing.T) {
	mem := store.NewMemory()
	p := mem.SeedProfile(store.Profile{Email: "owner@example.com", VapiAssistantID: "asst-1"})
	repo := audit.NewMemoryRepo()
	h := &Handler{Store: mem, Normalizer: &callrecord.Normalizer{}, Audit: audit.NewService(repo)}

	w := post(t, newTestRouter(h), reportBody)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if resp["success"] != true || resp["callId"] != "vapi-call-1" {
		t.Fatalf("unexpected response: %v", resp)
	}

	calls, err := mem.Calls(context.Background(), p.ID, store.CallFilter{})
	if err != nil {
		t.Fatalf("Calls: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 stored call, got %d", len(calls))
	}
	got := calls[0]
	if got.VendorCallID != "vapi-call-1" {
		t.Errorf("VendorCallID = %q", got.VendorCallID)
	}
	if got.CallerNumber != "+15551234567" {
		t.Errorf("CallerNumber = %q", got.CallerNumber)
	}
	if got.DurationSeconds != 125 {
		t.Errorf("DurationSeconds = %d, want 125", got.DurationSeconds)
	}
	if got.MinutesBilled != 2.09 {
		t.Errorf("MinutesBilled = %v, want 2.09", got.MinutesBilled)
	}
	if got.Label != callrecord.LabelOther {
		t.Errorf("Label = %q, want other", got.Label)
	}
	if got.Transcript != "User: I need my roof fixed." {
		t.Errorf("Transcript = %q", got.Transcript)
	}

	evs := repo.Events()
	if len(evs) != 1 || evs[0].Type != audit.EventTypeIngestion {
		t.Fatalf("expected one ingestion audit event, got %+v", evs)
	}
}

func TestHandle_DuplicateDeliveryConvergesOnOneRow(t *testing.T) {
	mem := store.NewMemory()
	p := mem.SeedProfile(store.Profile{VapiAssistantID: "asst-1"})
	h := &Handler{Store: mem, Normalizer: &callrecord.Normalizer{}}
	r := newTestRouter(h)

	for i := 0; i < 2; i++ {
		if w := post(t, r, reportBody); w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d", i, w.Code)
		}
	}

	calls, _ := mem.Calls(context.Background(), p.ID, store.CallFilter{})
	if len(calls) != 1 {
		t.Fatalf("expected 1 stored call after duplicate delivery, got %d", len(calls))
	}
}

func TestHandle_MissingAssistantID(t *testing.T) {
	mem := store.NewMemory()
	p := mem.SeedProfile(store.Profile{VapiAssistantID: "asst-1"})
	h := &Handler{Store: mem, Normalizer: &callrecord.Normalizer{}}

	body := `{"message": {"type": "end-of-call-report", "call": {"id": "vapi-call-9"}}}`
	w := post(t, newTestRouter(h), body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeBody(t, w)
	if resp["eventType"] != "end-of-call-report" {
		t.Errorf("eventType = %v", resp["eventType"])
	}
	if _, ok := resp["payloadKeys"]; !ok {
		t.Errorf("expected payloadKeys in diagnostic body: %v", resp)
	}

	calls, _ := mem.Calls(context.Background(), p.ID, store.CallFilter{})
	if len(calls) != 0 {
		t.Fatalf("expected no stored calls, got %d", len(calls))
	}
}

func TestHandle_MissingCallID(t *testing.T) {
	h := &Handler{Store: store.NewMemory(), Normalizer: &callrecord.Normalizer{}}
	body := `{"message": {"type": "hang", "assistantId": "asst-1"}}`
	w := post(t, newTestRouter(h), body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decodeBody(t, w)
	if resp["error"] != "no call ID in webhook" {
		t.Errorf("error = %v", resp["error"])
	}
}

func TestHandle_UnknownAssistant(t *testing.T) {
	h := &Handler{Store: store.NewMemory(), Normalizer: &callrecord.Normalizer{}}
	w := post(t, newTestRouter(h), reportBody)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	resp := decodeBody(t, w)
	if resp["assistantId"] != "asst-1" {
		t.Errorf("assistantId = %v", resp["assistantId"])
	}
}

func TestHandle_NonActionableEventAcked(t *testing.T) {
	// No profile seeded: the ack must happen before any lookup.
	h := &Handler{Store: store.NewMemory(), Normalizer: &callrecord.Normalizer{}}
	body := `{"message": {"type": "assistant.started"}}`
	w := post(t, newTestRouter(h), body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	resp := decodeBody(t, w)
	if resp["success"] != true || resp["message"] == nil {
		t.Fatalf("unexpected response: %v", resp)
	}
}

func TestHandle_InvalidJSON(t *testing.T) {
	h := &Handler{Store: store.NewMemory(), Normalizer: &callrecord.Normalizer{}}
	w := post(t, newTestRouter(h), `{"message": `)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandle_TranscriptBeforeReportIsDropped(t *testing.T) {
	mem := store.NewMemory()
	p := mem.SeedProfile(store.Profile{VapiAssistantID: "asst-1"})
	h := &Handler{Store: mem, Normalizer: &callrecord.Normalizer{}}
	r := newTestRouter(h)

	transcriptBody := `{
      "message": {
        "type": "conversation-update",
        "call": {"id": "vapi-call-1", "assistantId": "asst-1"},
        "artifact": {"transcript": "User: hello?"}
      }
    }`

	// No stored call yet: the fragment is dropped, still acked.
	if w := post(t, r, transcriptBody); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	calls, _ := mem.Calls(context.Background(), p.ID, store.CallFilter{})
	if len(calls) != 0 {
		t.Fatalf("expected no stored calls, got %d", len(calls))
	}

	if w := post(t, r, reportBody); w.Code != http.StatusOK {
		t.Fatalf("report status = %d", w.Code)
	}
	if w := post(t, r, transcriptBody); w.Code != http.StatusOK {
		t.Fatalf("transcript status = %d", w.Code)
	}
	calls, _ = mem.Calls(context.Background(), p.ID, store.CallFilter{})
	if len(calls) != 1 {
		t.Fatalf("expected 1 stored call, got %d", len(calls))
	}
	if calls[0].Transcript != "User: hello?" {
		t.Errorf("Transcript = %q, want live update applied", calls[0].Transcript)
	}
}

func TestParse_IdentifierPriority(t *testing.T) {
	body := []byte(`{
      "assistant": {"id": "root-asst"},
      "call": {"id": "root-call", "assistantId": "call-asst"},
      "message": {
        "type": "transcript",
        "callId": "msg-call-id",
        "call": {"id": "nested-call", "assistantId": "nested-asst"}
      }
    }`)
	env, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := env.EventType(); got != "transcript" {
		t.Errorf("EventType = %q", got)
	}
	if got := env.AssistantID(); got != "root-asst" {
		t.Errorf("AssistantID = %q, want root assistant preferred", got)
	}
	if got := env.CallID(); got != "nested-call" {
		t.Errorf("CallID = %q, want message.call.id preferred", got)
	}
}

func TestParse_FallbackIdentifiers(t *testing.T) {
	body := []byte(`{"message": {"type": "transcript", "callId": "msg-call-id", "assistantId": "msg-asst"}}`)
	env, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := env.AssistantID(); got != "msg-asst" {
		t.Errorf("AssistantID = %q", got)
	}
	if got := env.CallID(); got != "msg-call-id" {
		t.Errorf("CallID = %q", got)
	}
}

func TestParse_MalformedSubObjectReadsAsAbsent(t *testing.T) {
	body := []byte(`{"message": {"type": "end-of-call-report", "call": {"id": "c1"}, "costBreakdown": "oops"}}`)
	env, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if env.Message == nil || env.Message.CostBreakdown != nil {
		t.Fatalf("expected malformed costBreakdown to read as absent")
	}
	if env.CallID() != "c1" {
		t.Errorf("CallID = %q", env.CallID())
	}
}

func TestEnvelope_CallDataMergesMessageFields(t *testing.T) {
	body := []byte(`{
      "message": {
        "type": "end-of-call-report",
        "durationSeconds": 42,
        "endedReason": "customer-ended-call",
        "cost": 0.05,
        "summary": "Short call.",
        "call": {"id": "c1", "assistantId": "a1", "startedAt": "2026-03-01T10:00:00Z"}
      }
    }`)
	env, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	call := env.CallData()
	if call.ID != "c1" || call.StartedAt != "2026-03-01T10:00:00Z" {
		t.Fatalf("nested call fields lost: %+v", call)
	}
	if call.EndedReason != "customer-ended-call" {
		t.Errorf("EndedReason = %q, want message-level fill", call.EndedReason)
	}
	if call.Cost != 0.05 {
		t.Errorf("Cost = %v", call.Cost)
	}
	if call.Analysis == nil || call.Analysis.Summary != "Short call." {
		t.Errorf("summary not lifted into analysis: %+v", call.Analysis)
	}
	if h := env.Hints(); h.DurationSeconds != 42 {
		t.Errorf("Hints.DurationSeconds = %v", h.DurationSeconds)
	}
}

func TestEnvelope_CallDataKeepsTopLevelCallFields(t *testing.T) {
	// Some deliveries split the call across both locations: identity sits in
	// message.call while customer and cost details only exist at the root.
	body := []byte(`{
      "call": {
        "customer": {"number": "+15551234567"},
        "costBreakdown": {"stt": 0.01, "llm": 0.02, "tts": 0.01, "vapi": 0.01}
      },
      "message": {
        "type": "end-of-call-report",
        "call": {"id": "c1", "assistantId": "a1"}
      }
    }`)
	env, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	call := env.CallData()
	if call.ID != "c1" || call.AssistantID != "a1" {
		t.Fatalf("nested identity lost: %+v", call)
	}
	if call.Customer == nil || call.Customer.Number != "+15551234567" {
		t.Fatalf("top-level customer lost: %+v", call.Customer)
	}
	if call.CostBreakdown == nil || call.CostBreakdown.LLM != 0.02 {
		t.Fatalf("top-level costBreakdown lost: %+v", call.CostBreakdown)
	}
}

func TestEnvelope_RootLevelFallbacks(t *testing.T) {
	body := []byte(`{
      "startedAt": "2026-03-01T10:00:00Z",
      "endedAt": "2026-03-01T10:01:00Z",
      "endedReason": "customer-ended-call",
      "cost": 0.07,
      "message": {
        "type": "end-of-call-report",
        "durationMs": 60000,
        "call": {"id": "c1", "assistantId": "a1"}
      }
    }`)
	env, err := Parse(body)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	call := env.CallData()
	if call.StartedAt != "2026-03-01T10:00:00Z" || call.EndedAt != "2026-03-01T10:01:00Z" {
		t.Fatalf("root timing lost: %+v", call)
	}
	if call.EndedReason != "customer-ended-call" || call.Cost != 0.07 {
		t.Fatalf("root endedReason/cost lost: %+v", call)
	}
	if h := env.Hints(); h.DurationSeconds != 60 {
		t.Errorf("Hints.DurationSeconds = %v, want durationMs/1000", h.DurationSeconds)
	}
}
