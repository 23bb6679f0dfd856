// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/finance-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	schedules map[engine.ScheduleID]*engine.Schedule
}

func NewMemory() *Memory {
	return &Memory{schedules: make(map[engine.ScheduleID]*engine.Schedule)}
}

// SaveSchedule stores a deep copy, enforcing the version ladder.
func (m *Memory) SaveSchedule(_ context.Context, s *engine.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.schedules[s.ID]
	if !ok {
		if s.Version != 1 {
			return &engine.ConcurrencyConflictError{ScheduleID: s.ID, ExpectedVersion: 1, ActualVersion: s.Version}
		}
	} else if s.Version != existing.Version+1 {
		return &engine.ConcurrencyConflictError{ScheduleID: s.ID, ExpectedVersion: existing.Version + 1, ActualVersion: s.Version}
	}

	m.schedules[s.ID] = s.Clone()
	return nil
}

func (m *Memory) GetSchedule(_ context.Context, id engine.ScheduleID) (*engine.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.schedules[id]
	if !ok {
		return nil, engine.ErrScheduleNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) ListSchedules(_ context.Context) ([]*engine.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*engine.Schedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Reset drops all stored schedules.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.schedules = make(map[engine.ScheduleID]*engine.Schedule)
	return nil
}
