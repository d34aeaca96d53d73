package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal ingestion audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.UserID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogIngestion records a call ingested from a webhook delivery.
func (s *Service) LogIngestion(ctx context.Context, userID, webhookEvent, receptionistID, vendorCallID, callID string) error {
	return s.Append(ctx, Event{
		UserID:         userID,
		Type:           EventTypeIngestion,
		WebhookEvent:   webhookEvent,
		ReceptionistID: receptionistID,
		VendorCallID:   vendorCallID,
		CallID:         callID,
		Message:        "call record upserted",
	})
}

// LogTranscriptUpdate records a live transcript applied to a stored call.
func (s *Service) LogTranscriptUpdate(ctx context.Context, userID, webhookEvent, receptionistID, vendorCallID string) error {
	return s.Append(ctx, Event{
		UserID:         userID,
		Type:           EventTypeTranscriptUpdate,
		WebhookEvent:   webhookEvent,
		ReceptionistID: receptionistID,
		VendorCallID:   vendorCallID,
		Message:        "transcript updated",
	})
}

// LogCallChange records a user-initiated mutation of a stored call.
func (s *Service) LogCallChange(ctx context.Context, userID, callID, message string) error {
	return s.Append(ctx, Event{
		UserID:  userID,
		Type:    EventTypeCallChange,
		CallID:  callID,
		Message: message,
	})
}
