package reporting

import (
	"context"
	"errors"
	"math"

	"receptionist-platform/internal/callrecord"
	"receptionist-platform/internal/store"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// CallSource abstracts data access for reporting.
//
// IMPORTANT:
// - Implementations must enforce per-account filtering.
// - Both *store.Store and *store.Memory satisfy it.

type CallSource interface {
	Calls(ctx context.Context, userID string, f store.CallFilter) ([]store.Call, error)
}

type Service struct {
	src CallSource
}

func NewService(src CallSource) *Service { return &Service{src: src} }

func (s *Service) list(ctx context.Context, req SummaryRequest) ([]store.Call, error) {
	if req.UserID == "" {
		return nil, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return nil, ErrInvalidRequest
	}
	if s.src == nil {
		return nil, errors.New("reporting: call source not configured")
	}
	return s.src.Calls(ctx, req.UserID, store.CallFilter{
		ReceptionistID: req.ReceptionistID,
		Since:          req.Range.From,
		Until:          req.Range.To,
	})
}

// Summary aggregates the dashboard figures for one account and range:
// call volume, outcome mix, duration, billed minutes and cost.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (CallsSummary, error) {
	rows, err := s.list(ctx, req)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{UserID: req.UserID, ReceptionistID: req.ReceptionistID}
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		out.TotalMinutesBilled += c.MinutesBilled
		out.TotalCost += c.Cost
		if url, _ := c.Metadata["recording_url"].(string); url != "" {
			out.RecordedCalls++
		}
		switch c.Label {
		case callrecord.LabelLead:
			out.LeadCalls++
		case callrecord.LabelSpam:
			out.SpamCalls++
		case callrecord.LabelAppointment:
			out.AppointmentCalls++
		default:
			out.OtherCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	out.TotalMinutesBilled = round2(out.TotalMinutesBilled)
	out.TotalCost = round4(out.TotalCost)
	if out.TotalMinutesBilled > 0 {
		out.CostPerMinute = round4(out.TotalCost / out.TotalMinutesBilled)
	}
	return out, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
