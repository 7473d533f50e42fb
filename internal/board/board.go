// Package board tracks the workflow task state of the selected service date
// and keeps it in sync with the server.
package board

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/pkg/telemetry"
)

type Trigger string

const (
	TriggerPoll    Trigger = "poll"
	TriggerVisible Trigger = "visible"
	TriggerFocus   Trigger = "focus"
	TriggerManual  Trigger = "manual"
	TriggerDate    Trigger = "date"
	TriggerAction  Trigger = "action"
)

// Board owns the Store of the currently selected service date. Selecting a
// new date replaces the store wholesale; reads that finish after the date
// changed are discarded.
type Board struct {
	catalog *catalog.Catalog
	sources Sources
	rules   []DerivedRule
	now     func() time.Time

	mu    sync.RWMutex
	store *Store
}

type Option func(*Board)

func WithDerivedRules(rules []DerivedRule) Option {
	return func(b *Board) {
		b.rules = rules
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Board) {
		b.now = now
	}
}

func New(c *catalog.Catalog, sources Sources, opts ...Option) *Board {
	b := &Board{
		catalog: c,
		sources: sources,
		rules:   DefaultDerivedRules(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) Catalog() *catalog.Catalog {
	return b.catalog
}

// Store returns the store of the selected date, or nil before SelectDate.
func (b *Board) Store() *Store {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.store
}

func (b *Board) current() (*Store, error) {
	if s := b.Store(); s != nil {
		return s, nil
	}
	return nil, ErrNoDateSelected
}

// Date returns the selected service date, or "" before SelectDate.
func (b *Board) Date() string {
	if s := b.Store(); s != nil {
		return s.Date()
	}
	return ""
}

func (b *Board) isCurrent(date string) bool {
	return b.Date() == date
}

// SelectDate replaces the store with an empty one for date and loads it.
func (b *Board) SelectDate(ctx context.Context, date string) error {
	store := NewStore(b.catalog, date)
	store.now = b.now
	b.mu.Lock()
	b.store = store
	b.mu.Unlock()
	slog.Debug("selected service date", "date", date)
	return b.Refresh(ctx, TriggerDate)
}

// GetStatus reports the status of taskID on date. Dates other than the
// selected one hold no state and read as Pending.
func (b *Board) GetStatus(date, taskID string) Status {
	store := b.Store()
	if store == nil || store.Date() != date {
		return StatusPending
	}
	return store.GetStatus(taskID)
}

// Refresh re-reads the whole selected date and reconciles every task that
// has no action in flight.
func (b *Board) Refresh(ctx context.Context, trigger Trigger) error {
	store, err := b.current()
	if err != nil {
		return err
	}
	date := store.Date()

	read, err := b.read(ctx, date)
	if err != nil {
		telemetry.BoardRefreshesTotal.WithLabelValues(string(trigger), "error").Inc()
		slog.Warn("failed to refresh service date", "date", date, "trigger", trigger, "error", err)
		return newPersistenceError("refresh", err)
	}

	store = b.Store()
	if store == nil || store.Date() != date {
		telemetry.BoardStaleResponsesTotal.Inc()
		slog.Debug("discarding stale refresh", "date", date, "trigger", trigger)
		return nil
	}
	derived := store.ApplyServer(read, nil, b.rules)
	b.recordDerived(date, derived)
	telemetry.BoardRefreshesTotal.WithLabelValues(string(trigger), "ok").Inc()
	slog.Debug("refreshed service date", "date", date, "trigger", trigger, "tasks", len(read.ingest.tasks))
	return nil
}

// reconcile overwrites only ids from a fresh read, then reruns derived
// status for the whole date.
func (b *Board) reconcile(ctx context.Context, date string, ids ...catalog.TaskID) error {
	read, err := b.read(ctx, date)
	if err != nil {
		return newPersistenceError("reconcile", err)
	}
	store := b.Store()
	if store == nil || store.Date() != date {
		telemetry.BoardStaleResponsesTotal.Inc()
		return nil
	}
	b.recordDerived(date, store.ApplyServer(read, ids, b.rules))
	return nil
}

func (b *Board) recordDerived(date string, ids []catalog.TaskID) {
	for _, id := range ids {
		telemetry.BoardDerivedCompletionsTotal.WithLabelValues(string(id)).Inc()
		slog.Info("task completed from collaborator evidence", "date", date, "task_id", id)
	}
}
