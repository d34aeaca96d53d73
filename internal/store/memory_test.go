package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"receptionist-platform/internal/callrecord"
)

func seedAccount(t *testing.T, m *Memory, assistantID string) (Profile, Receptionist) {
	t.Helper()
	p := m.SeedProfile(Profile{Email: "owner@example.com", VapiAssistantID: assistantID})
	r, err := m.GetOrCreateReceptionist(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get or create receptionist: %v", err)
	}
	return p, r
}

func TestMemory_GetOrCreateReceptionistIsStable(t *testing.T) {
	m := NewMemory()
	p := m.SeedProfile(Profile{Email: "a@example.com"})

	first, err := m.GetOrCreateReceptionist(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "AI Receptionist" || first.Status != ReceptionistActive {
		t.Fatalf("defaults wrong: %+v", first)
	}
	second, err := m.GetOrCreateReceptionist(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("second call created a new receptionist")
	}
}

func TestMemory_UpsertIngestedCallDeduplicates(t *testing.T) {
	m := NewMemory()
	_, r := seedAccount(t, m, "asst-1")
	ctx := context.Background()

	rec := callrecord.Record{
		VendorCallID: "call-1",
		CallerNumber: "+1555",
		Label:        callrecord.LabelOther,
		Cost:         0.05,
	}
	if _, err := m.UpsertIngestedCall(ctx, r.ID, rec); err != nil {
		t.Fatal(err)
	}

	rec.Cost = 0.09
	rec.Transcript = "final transcript"
	updated, err := m.UpsertIngestedCall(ctx, r.ID, rec)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Cost != 0.09 || updated.Transcript != "final transcript" {
		t.Fatalf("second delivery's data must win: %+v", updated)
	}
	if len(m.calls) != 1 {
		t.Fatalf("duplicate delivery produced %d rows, want 1", len(m.calls))
	}
}

func TestMemory_UpsertRequiresIdentity(t *testing.T) {
	m := NewMemory()
	if _, err := m.UpsertIngestedCall(context.Background(), "", callrecord.Record{VendorCallID: "x"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	if _, err := m.UpsertIngestedCall(context.Background(), "r", callrecord.Record{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
}

func TestMemory_TranscriptUpdateRequiresExistingRow(t *testing.T) {
	m := NewMemory()
	_, r := seedAccount(t, m, "asst-1")
	ctx := context.Background()

	err := m.UpdateTranscriptByVendorID(ctx, r.ID, "call-1", "early transcript")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("transcript before end-of-call must be ErrNotFound, got %v", err)
	}

	if _, err := m.UpsertIngestedCall(ctx, r.ID, callrecord.Record{VendorCallID: "call-1", CallerNumber: "Unknown", Label: callrecord.LabelOther}); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateTranscriptByVendorID(ctx, r.ID, "call-1", "full transcript"); err != nil {
		t.Fatal(err)
	}
}

func TestMemory_CallsScopedToOwner(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	pa, ra := seedAccount(t, m, "asst-a")
	pb, rb := seedAccount(t, m, "asst-b")

	callA, _ := m.UpsertIngestedCall(ctx, ra.ID, callrecord.Record{VendorCallID: "a1", CallerNumber: "Unknown", Label: callrecord.LabelLead})
	m.UpsertIngestedCall(ctx, rb.ID, callrecord.Record{VendorCallID: "b1", CallerNumber: "Unknown", Label: callrecord.LabelOther})

	calls, err := m.Calls(ctx, pa.ID, CallFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 1 || calls[0].VendorCallID != "a1" {
		t.Fatalf("tenant scoping broken: %+v", calls)
	}

	if _, err := m.CallForUser(ctx, pb.ID, callA.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant read must be ErrNotFound, got %v", err)
	}
	if err := m.DeleteCall(ctx, pb.ID, callA.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant delete must be ErrNotFound, got %v", err)
	}
}

func TestMemory_CallFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	p, r := seedAccount(t, m, "asst-1")

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	m.UpsertIngestedCall(ctx, r.ID, callrecord.Record{VendorCallID: "c1", CallerNumber: "Unknown", Label: callrecord.LabelLead, Timestamp: old})
	m.UpsertIngestedCall(ctx, r.ID, callrecord.Record{VendorCallID: "c2", CallerNumber: "Unknown", Label: callrecord.LabelSpam, Timestamp: recent})

	byLabel, _ := m.Calls(ctx, p.ID, CallFilter{Label: callrecord.LabelSpam})
	if len(byLabel) != 1 || byLabel[0].VendorCallID != "c2" {
		t.Fatalf("label filter: %+v", byLabel)
	}
	since, _ := m.Calls(ctx, p.ID, CallFilter{Since: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)})
	if len(since) != 1 || since[0].VendorCallID != "c2" {
		t.Fatalf("since filter: %+v", since)
	}
	all, _ := m.Calls(ctx, p.ID, CallFilter{})
	if len(all) != 2 || all[0].VendorCallID != "c2" {
		t.Fatalf("listing must be newest-first: %+v", all)
	}
}

func TestMemory_UpdateCallValidatesLabel(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	p, r := seedAccount(t, m, "asst-1")
	c, _ := m.UpsertIngestedCall(ctx, r.ID, callrecord.Record{VendorCallID: "c1", CallerNumber: "Unknown", Label: callrecord.LabelOther})

	bad := callrecord.Label("banana")
	if _, err := m.UpdateCall(ctx, p.ID, c.ID, CallUpdate{Label: &bad}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v", err)
	}
	good := callrecord.LabelAppointment
	updated, err := m.UpdateCall(ctx, p.ID, c.ID, CallUpdate{Label: &good})
	if err != nil || updated.Label != callrecord.LabelAppointment {
		t.Fatalf("update: %v %+v", err, updated)
	}
}

func TestMemory_Metrics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	p, r := seedAccount(t, m, "asst-1")
	m.UpsertIngestedCall(ctx, r.ID, callrecord.Record{VendorCallID: "c1", CallerNumber: "Unknown", Label: callrecord.LabelLead, MinutesBilled: 2, Cost: 0.25})
	m.UpsertIngestedCall(ctx, r.ID, callrecord.Record{VendorCallID: "c2", CallerNumber: "Unknown", Label: callrecord.LabelOther, MinutesBilled: 3, Cost: 0.5})

	um, err := m.UserMetrics(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if um.TotalCalls != 2 || um.TotalMinutesUsed != 5 || um.TotalCost != 0.75 {
		t.Fatalf("user metrics: %+v", um)
	}
	if um.CostPerMinute != 0.15 {
		t.Fatalf("cost per minute = %v", um.CostPerMinute)
	}

	rm, err := m.ReceptionistMetrics(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rm.CallsHandled != 2 || rm.MinutesUsed != 5 {
		t.Fatalf("receptionist metrics: %+v", rm)
	}
}
