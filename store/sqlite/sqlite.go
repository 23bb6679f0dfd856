/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:
  Persists schedules and their entries. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

OPTIMISTIC CONCURRENCY:
  SaveSchedule enforces the version ladder inside one transaction: a new
  schedule must carry Version 1; an update must carry exactly
  storedVersion+1. A stale version fails with ConcurrencyConflictError
  and writes nothing.

KEY TABLES:
  schedules:        One row per schedule (basis serialized as JSON)
  schedule_entries: One row per period, replaced wholesale on update

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, a single writer at a time, better crash
  recovery.

USAGE:
  store, err := sqlite.New("./data/finance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: interface definition
  - engine/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/finance-engine/engine"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset drops every stored schedule. Demo-scenario loading only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM schedule_entries; DELETE FROM schedules;`)
	return err
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		currency TEXT NOT NULL,
		version INTEGER NOT NULL,
		status_state TEXT NOT NULL,
		status_reason TEXT,
		status_date TEXT,
		gain_loss TEXT,
		basis_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schedule_entries (
		schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		period_index INTEGER NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		day_count INTEGER NOT NULL,
		opening_balance TEXT NOT NULL,
		accrued_amount TEXT NOT NULL,
		principal_component TEXT NOT NULL,
		payment TEXT NOT NULL,
		closing_balance TEXT NOT NULL,
		is_actual INTEGER NOT NULL DEFAULT 0,
		rebased INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (schedule_id, period_index)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_schedule
		ON schedule_entries(schedule_id, period_index);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE - Version-gated write
// =============================================================================

func (s *Store) SaveSchedule(ctx context.Context, sched *engine.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var storedVersion int
	err = tx.QueryRowContext(ctx, `SELECT version FROM schedules WHERE id = ?`, string(sched.ID)).Scan(&storedVersion)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if sched.Version != 1 {
			return &engine.ConcurrencyConflictError{ScheduleID: sched.ID, ExpectedVersion: 1, ActualVersion: sched.Version}
		}
	case err != nil:
		return err
	default:
		if sched.Version != storedVersion+1 {
			return &engine.ConcurrencyConflictError{ScheduleID: sched.ID, ExpectedVersion: storedVersion + 1, ActualVersion: sched.Version}
		}
	}

	basisJSON, err := engine.EncodeBasis(sched.Basis)
	if err != nil {
		return fmt.Errorf("failed to encode basis: %w", err)
	}

	var statusDate, gainLoss sql.NullString
	if sched.Status.EffectiveDate != nil {
		statusDate = sql.NullString{String: sched.Status.EffectiveDate.String(), Valid: true}
	}
	if sched.GainLoss != nil {
		gainLoss = sql.NullString{String: sched.GainLoss.String(), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO schedules (id, kind, currency, version, status_state, status_reason, status_date, gain_loss, basis_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			status_state = excluded.status_state,
			status_reason = excluded.status_reason,
			status_date = excluded.status_date,
			gain_loss = excluded.gain_loss,
			basis_json = excluded.basis_json`,
		string(sched.ID), string(sched.Kind), sched.Currency, sched.Version,
		string(sched.Status.State), sched.Status.Reason, statusDate, gainLoss, string(basisJSON))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE schedule_id = ?`, string(sched.ID)); err != nil {
		return err
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO schedule_entries
			(schedule_id, period_index, period_start, period_end, day_count,
			 opening_balance, accrued_amount, principal_component, payment, closing_balance,
			 is_actual, rebased)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insert.Close()

	for _, e := range sched.Entries {
		_, err := insert.ExecContext(ctx,
			string(sched.ID), e.PeriodIndex, e.PeriodStart.String(), e.PeriodEnd.String(), e.DayCount,
			e.OpeningBalance.String(), e.AccruedAmount.String(), e.PrincipalComponent.String(),
			e.Payment.String(), e.ClosingBalance.String(),
			boolToInt(e.IsActual), boolToInt(e.Rebased))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// =============================================================================
// READ
// =============================================================================

func (s *Store) GetSchedule(ctx context.Context, id engine.ScheduleID) (*engine.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, currency, version, status_state, status_reason, status_date, gain_loss, basis_json
		FROM schedules WHERE id = ?`, string(id))

	sched, err := scanSchedule(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadEntries(ctx, sched); err != nil {
		return nil, err
	}
	return sched, nil
}

func (s *Store) ListSchedules(ctx context.Context) ([]*engine.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, currency, version, status_state, status_reason, status_date, gain_loss, basis_json
		FROM schedules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engine.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sched := range out {
		if err := s.loadEntries(ctx, sched); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*engine.Schedule, error) {
	var (
		id, kind, currency, statusState string
		statusReason                    sql.NullString
		statusDate, gainLoss            sql.NullString
		version                         int
		basisJSON                       string
	)
	err := row.Scan(&id, &kind, &currency, &version, &statusState, &statusReason, &statusDate, &gainLoss, &basisJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}

	basis, err := engine.DecodeBasis(engine.ScheduleKind(kind), []byte(basisJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to decode basis: %w", err)
	}

	sched := &engine.Schedule{
		ID:       engine.ScheduleID(id),
		Kind:     engine.ScheduleKind(kind),
		Currency: currency,
		Basis:    basis,
		Version:  version,
		Status:   engine.Status{State: engine.StatusState(statusState), Reason: statusReason.String},
	}
	if statusDate.Valid {
		tp, err := engine.ParseTimePoint(statusDate.String)
		if err != nil {
			return nil, err
		}
		sched.Status.EffectiveDate = &tp
	}
	if gainLoss.Valid {
		gl, err := decimal.NewFromString(gainLoss.String)
		if err != nil {
			return nil, err
		}
		sched.GainLoss = &gl
	}
	return sched, nil
}

func (s *Store) loadEntries(ctx context.Context, sched *engine.Schedule) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT period_index, period_start, period_end, day_count,
		       opening_balance, accrued_amount, principal_component, payment, closing_balance,
		       is_actual, rebased
		FROM schedule_entries WHERE schedule_id = ? ORDER BY period_index`, string(sched.ID))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e                  engine.ScheduleEntry
			start, end         string
			opening, accrued   string
			principal, payment string
			closing            string
			isActual, rebased  int
		)
		err := rows.Scan(&e.PeriodIndex, &start, &end, &e.DayCount,
			&opening, &accrued, &principal, &payment, &closing, &isActual, &rebased)
		if err != nil {
			return err
		}
		if e.PeriodStart, err = engine.ParseTimePoint(start); err != nil {
			return err
		}
		if e.PeriodEnd, err = engine.ParseTimePoint(end); err != nil {
			return err
		}
		if e.OpeningBalance, err = decimal.NewFromString(opening); err != nil {
			return err
		}
		if e.AccruedAmount, err = decimal.NewFromString(accrued); err != nil {
			return err
		}
		if e.PrincipalComponent, err = decimal.NewFromString(principal); err != nil {
			return err
		}
		if e.Payment, err = decimal.NewFromString(payment); err != nil {
			return err
		}
		if e.ClosingBalance, err = decimal.NewFromString(closing); err != nil {
			return err
		}
		e.IsActual = isActual != 0
		e.Rebased = rebased != 0
		sched.Entries = append(sched.Entries, e)
	}
	return rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
