// Package store holds the Postgres repositories for profiles,
// receptionists and calls, plus the aggregate-metrics SQL functions.
package store

import (
	"database/sql"
	"errors"
	"time"
)

// NOTE: This package assumes the following schema exists. All id columns
// (profiles.id, receptionists.id, calls.id and the foreign keys between
// them) are uuid; filter parameters are compared through ::text casts so the
// queries also run against text id columns.
// - profiles (vapi_assistant_id UNIQUE)
// - receptionists
// - calls, with UNIQUE (receptionist_id, vapi_call_id)
// - SQL functions get_user_metrics(uuid), get_receptionist_metrics(uuid)
//
// The calls uniqueness constraint is what makes webhook ingestion
// idempotent; without it duplicate deliveries race into duplicate rows.

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Store wraps the shared connection pool. All queries are tenant-scoped:
// call rows hang off a receptionist, receptionists off a user profile.
type Store struct {
	db *sql.DB
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, clock: time.Now}
}
