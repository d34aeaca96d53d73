package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"receptionist-platform/internal/callrecord"

	"github.com/google/uuid"
)

// Memory is an in-memory stand-in for Store used by tests. It mirrors the
// Postgres semantics that matter: the (receptionist_id, vapi_call_id)
// uniqueness of ingested calls, ownership scoping, and ErrNotFound.
type Memory struct {
	mu            sync.Mutex
	profiles      map[string]Profile
	receptionists map[string]Receptionist
	calls         map[string]Call
	clock         func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		profiles:      map[string]Profile{},
		receptionists: map[string]Receptionist{},
		calls:         map[string]Call{},
		clock:         time.Now,
	}
}

// SeedProfile registers an account directly, bypassing validation.
func (m *Memory) SeedProfile(p Profile) Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.profiles[p.ID] = p
	return p
}

func (m *Memory) CreateProfile(ctx context.Context, p Profile) (Profile, error) {
	if p.Email == "" {
		return Profile{}, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.AccountID == "" {
		p.AccountID = uuid.NewString()
	}
	now := m.clock().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.profiles[p.ID] = p
	return p, nil
}

func (m *Memory) LinkAssistant(ctx context.Context, profileID, assistantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[profileID]
	if !ok {
		return ErrNotFound
	}
	p.VapiAssistantID = assistantID
	p.UpdatedAt = m.clock().UTC()
	m.profiles[profileID] = p
	return nil
}

func (m *Memory) ProfileByAssistantID(ctx context.Context, assistantID string) (Profile, error) {
	if assistantID == "" {
		return Profile{}, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.VapiAssistantID == assistantID {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (m *Memory) Profile(ctx context.Context, id string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[id]; ok {
		return p, nil
	}
	return Profile{}, ErrNotFound
}

func (m *Memory) ProfileByEmail(ctx context.Context, email string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return Profile{}, ErrNotFound
}

func (m *Memory) GetOrCreateReceptionist(ctx context.Context, userID string) (Receptionist, error) {
	if userID == "" {
		return Receptionist{}, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var existing []Receptionist
	for _, r := range m.receptionists {
		if r.UserID == userID {
			existing = append(existing, r)
		}
	}
	if len(existing) > 0 {
		sort.Slice(existing, func(i, j int) bool { return existing[i].CreatedAt.Before(existing[j].CreatedAt) })
		return existing[0], nil
	}
	now := m.clock().UTC()
	r := Receptionist{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      "AI Receptionist",
		Status:    ReceptionistActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.receptionists[r.ID] = r
	return r, nil
}

func (m *Memory) Receptionist(ctx context.Context, id string) (Receptionist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.receptionists[id]; ok {
		return r, nil
	}
	return Receptionist{}, ErrNotFound
}

func (m *Memory) Receptionists(ctx context.Context, userID string) ([]Receptionist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Receptionist{}
	for _, r := range m.receptionists {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateReceptionist(ctx context.Context, r Receptionist) (Receptionist, error) {
	if r.UserID == "" {
		return Receptionist{}, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Name == "" {
		r.Name = "AI Receptionist"
	}
	if r.Status == "" {
		r.Status = ReceptionistInactive
	}
	now := m.clock().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	m.receptionists[r.ID] = r
	return r, nil
}

func (m *Memory) UpdateReceptionist(ctx context.Context, id string, upd ReceptionistUpdate) (Receptionist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receptionists[id]
	if !ok {
		return Receptionist{}, ErrNotFound
	}
	if upd.Name != nil {
		r.Name = *upd.Name
	}
	if upd.PhoneNumber != nil {
		r.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Status != nil {
		r.Status = *upd.Status
	}
	if upd.VapiAssistantID != nil {
		r.VapiAssistantID = *upd.VapiAssistantID
	}
	if upd.VapiPhoneNumberID != nil {
		r.VapiPhoneNumberID = *upd.VapiPhoneNumberID
	}
	r.UpdatedAt = m.clock().UTC()
	m.receptionists[id] = r
	return r, nil
}

func (m *Memory) DeleteReceptionist(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.receptionists[id]; !ok {
		return ErrNotFound
	}
	delete(m.receptionists, id)
	return nil
}

func (m *Memory) UpsertIngestedCall(ctx context.Context, receptionistID string, rec callrecord.Record) (Call, error) {
	if receptionistID == "" || rec.VendorCallID == "" {
		return Call{}, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock().UTC()
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = now
	}

	for id, c := range m.calls {
		if c.ReceptionistID == receptionistID && c.VendorCallID == rec.VendorCallID {
			c.CallerNumber = rec.CallerNumber
			c.Timestamp = ts
			c.DurationSeconds = rec.DurationSeconds
			c.MinutesBilled = rec.MinutesBilled
			c.Cost = rec.Cost
			c.Label = rec.Label
			c.Transcript = rec.Transcript
			c.Metadata = rec.Metadata
			c.UpdatedAt = now
			m.calls[id] = c
			return c, nil
		}
	}

	c := Call{
		ID:              uuid.NewString(),
		ReceptionistID:  receptionistID,
		VendorCallID:    rec.VendorCallID,
		CallerNumber:    rec.CallerNumber,
		Timestamp:       ts,
		DurationSeconds: rec.DurationSeconds,
		MinutesBilled:   rec.MinutesBilled,
		Cost:            rec.Cost,
		Label:           rec.Label,
		Transcript:      rec.Transcript,
		Metadata:        rec.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.calls[c.ID] = c
	return c, nil
}

func (m *Memory) UpdateTranscriptByVendorID(ctx context.Context, receptionistID, vendorCallID, transcript string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.calls {
		if c.ReceptionistID == receptionistID && c.VendorCallID == vendorCallID {
			c.Transcript = transcript
			c.UpdatedAt = m.clock().UTC()
			m.calls[id] = c
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) Calls(ctx context.Context, userID string, f CallFilter) ([]Call, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := m.ownedReceptionists(userID)
	out := []Call{}
	for _, c := range m.calls {
		if _, ok := owned[c.ReceptionistID]; !ok {
			continue
		}
		if f.ReceptionistID != "" && c.ReceptionistID != f.ReceptionistID {
			continue
		}
		if f.Label != "" && c.Label != f.Label {
			continue
		}
		if !f.Since.IsZero() && c.Timestamp.Before(f.Since) {
			continue
		}
		if !f.Until.IsZero() && c.Timestamp.After(f.Until) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (m *Memory) CallForUser(ctx context.Context, userID, callID string) (Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[callID]
	if !ok {
		return Call{}, ErrNotFound
	}
	if _, owned := m.ownedReceptionists(userID)[c.ReceptionistID]; !owned {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (m *Memory) UpdateCall(ctx context.Context, userID, callID string, upd CallUpdate) (Call, error) {
	if upd.Label != nil && !upd.Label.Valid() {
		return Call{}, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[callID]
	if !ok {
		return Call{}, ErrNotFound
	}
	if _, owned := m.ownedReceptionists(userID)[c.ReceptionistID]; !owned {
		return Call{}, ErrNotFound
	}
	if upd.Label != nil {
		c.Label = *upd.Label
	}
	if upd.Transcript != nil {
		c.Transcript = *upd.Transcript
	}
	if upd.Metadata != nil {
		c.Metadata = upd.Metadata
	}
	c.UpdatedAt = m.clock().UTC()
	m.calls[callID] = c
	return c, nil
}

func (m *Memory) DeleteCall(ctx context.Context, userID, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[callID]
	if !ok {
		return ErrNotFound
	}
	if _, owned := m.ownedReceptionists(userID)[c.ReceptionistID]; !owned {
		return ErrNotFound
	}
	delete(m.calls, callID)
	return nil
}

// UserMetrics derives the aggregate figures from the stored calls the same
// way the SQL function does.
func (m *Memory) UserMetrics(ctx context.Context, userID string) (UserMetrics, error) {
	calls, err := m.Calls(ctx, userID, CallFilter{})
	if err != nil {
		return UserMetrics{}, err
	}
	var out UserMetrics
	for _, c := range calls {
		out.TotalMinutesUsed += c.MinutesBilled
		out.TotalCost += c.Cost
		out.TotalCalls++
		if out.LastUpdated == nil || c.UpdatedAt.After(*out.LastUpdated) {
			t := c.UpdatedAt
			out.LastUpdated = &t
		}
	}
	if out.TotalMinutesUsed > 0 {
		out.CostPerMinute = out.TotalCost / out.TotalMinutesUsed
	}
	return out, nil
}

func (m *Memory) ReceptionistMetrics(ctx context.Context, receptionistID string) (ReceptionistMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out ReceptionistMetrics
	for _, c := range m.calls {
		if c.ReceptionistID != receptionistID {
			continue
		}
		out.MinutesUsed += c.MinutesBilled
		out.TotalCost += c.Cost
		out.CallsHandled++
	}
	if out.MinutesUsed > 0 {
		out.CostPerMinute = out.TotalCost / out.MinutesUsed
	}
	return out, nil
}

func (m *Memory) ownedReceptionists(userID string) map[string]struct{} {
	owned := map[string]struct{}{}
	for _, r := range m.receptionists {
		if r.UserID == userID {
			owned[r.ID] = struct{}{}
		}
	}
	return owned
}
