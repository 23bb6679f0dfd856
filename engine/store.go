package engine

import "context"

// =============================================================================
// STORE - Persistence port
// =============================================================================

// Store persists schedules. The engine itself is pure; persistence is a
// collaborator implemented by store/sqlite (production) and engine/store
// (in-memory, for tests and dev).
//
// SaveSchedule enforces optimistic concurrency: a new schedule must carry
// Version 1, an update must carry exactly storedVersion+1. Anything else
// fails with a ConcurrencyConflictError, and the caller must reload.
//
// Reset drops every stored schedule. It exists for demo-scenario loading
// and tests; production callers never reset.
type Store interface {
	SaveSchedule(ctx context.Context, s *Schedule) error
	GetSchedule(ctx context.Context, id ScheduleID) (*Schedule, error)
	ListSchedules(ctx context.Context) ([]*Schedule, error)
	Reset(ctx context.Context) error
}
