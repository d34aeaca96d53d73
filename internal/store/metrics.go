package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Aggregate usage figures live in two SQL functions so the numbers stay
// consistent with what the database bills against, regardless of which
// client asks.

func (s *Store) UserMetrics(ctx context.Context, userID string) (UserMetrics, error) {
	if userID == "" {
		return UserMetrics{}, ErrInvalidArgument
	}
	const q = `
SELECT total_minutes_used, total_cost, cost_per_minute, total_calls, last_updated
FROM get_user_metrics($1)
`
	var m UserMetrics
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, q, userID).Scan(
		&m.TotalMinutesUsed, &m.TotalCost, &m.CostPerMinute, &m.TotalCalls, &last)
	if errors.Is(err, sql.ErrNoRows) {
		// A user with no calls yet has all-zero metrics, not an error.
		return UserMetrics{}, nil
	}
	if err != nil {
		return UserMetrics{}, fmt.Errorf("user metrics: %w", err)
	}
	if last.Valid {
		m.LastUpdated = &last.Time
	}
	return m, nil
}

func (s *Store) ReceptionistMetrics(ctx context.Context, receptionistID string) (ReceptionistMetrics, error) {
	if receptionistID == "" {
		return ReceptionistMetrics{}, ErrInvalidArgument
	}
	const q = `
SELECT minutes_used, total_cost, cost_per_minute, calls_handled
FROM get_receptionist_metrics($1)
`
	var m ReceptionistMetrics
	err := s.db.QueryRowContext(ctx, q, receptionistID).Scan(
		&m.MinutesUsed, &m.TotalCost, &m.CostPerMinute, &m.CallsHandled)
	if errors.Is(err, sql.ErrNoRows) {
		return ReceptionistMetrics{}, nil
	}
	if err != nil {
		return ReceptionistMetrics{}, fmt.Errorf("receptionist metrics: %w", err)
	}
	return m, nil
}
