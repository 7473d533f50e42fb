package board

import (
	"maps"
	"sync"
	"time"

	"github.com/kazz187/serviceboard/internal/catalog"
)

// Store owns the Snapshot of one service date. Readers always see a
// complete snapshot; writers swap in the result of a transition.
type Store struct {
	catalog *catalog.Catalog
	now     func() time.Time

	mu   sync.RWMutex
	snap *Snapshot
}

func NewStore(c *catalog.Catalog, date string) *Store {
	return &Store{
		catalog: c,
		now:     time.Now,
		snap:    newSnapshot(c, date),
	}
}

func (s *Store) Date() string {
	return s.Snapshot().Date()
}

func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) apply(fn func(*Snapshot) *Snapshot) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = fn(s.snap)
	return s.snap
}

// GetStatus answers for any spelling of a task id. Unknown ids are Pending.
func (s *Store) GetStatus(taskID string) Status {
	id, ok := s.catalog.Canonical(taskID)
	if !ok {
		return StatusPending
	}
	return s.Snapshot().status(id)
}

// Get returns the effective record for any spelling of a task id.
func (s *Store) Get(taskID string) (TaskInstance, bool) {
	id, ok := s.catalog.Canonical(taskID)
	if !ok {
		return TaskInstance{}, false
	}
	return s.Snapshot().Instance(id)
}

type SetOption func(*TaskInstance)

func WithDocumentLink(link string) SetOption {
	return func(in *TaskInstance) {
		in.DocumentLink = link
	}
}

func WithAssignedTo(role catalog.RoleID) SetOption {
	return func(in *TaskInstance) {
		in.AssignedTo = role
	}
}

func WithPayload(payload map[string]any) SetOption {
	return func(in *TaskInstance) {
		in.Payload = maps.Clone(payload)
	}
}

// SetStatus overwrites the record of the canonical task, stamping the write
// time and actor. Authorization is the caller's concern.
func (s *Store) SetStatus(taskID string, status Status, actor catalog.RoleID, opts ...SetOption) (TaskInstance, Reconciliation, error) {
	id, ok := s.catalog.Canonical(taskID)
	if !ok {
		return TaskInstance{}, Reconciliation{}, newUnknownTask(taskID)
	}
	in := TaskInstance{
		Status:    ParseStatus(string(status)),
		UpdatedAt: s.now(),
		UpdatedBy: actor,
	}
	for _, opt := range opts {
		opt(&in)
	}
	var marker Reconciliation
	s.apply(func(snap *Snapshot) *Snapshot {
		next, m := snap.withInstance(id, in)
		marker = m
		return next
	})
	return in, marker, nil
}

// DeleteTask removes the record; reads fall back to Pending afterwards.
func (s *Store) DeleteTask(taskID string) (Reconciliation, error) {
	id, ok := s.catalog.Canonical(taskID)
	if !ok {
		return Reconciliation{}, newUnknownTask(taskID)
	}
	var marker Reconciliation
	s.apply(func(snap *Snapshot) *Snapshot {
		next, m := snap.withoutInstance(id)
		marker = m
		return next
	})
	return marker, nil
}

// SetLocalQR moves the fast QR-code value without touching the map.
func (s *Store) SetLocalQR(status Status) Reconciliation {
	var marker Reconciliation
	s.apply(func(snap *Snapshot) *Snapshot {
		next, m := snap.withLocalQR(status)
		marker = m
		return next
	})
	return marker
}

// ApplyServer ingests a raw server read. only limits the overwrite to the
// listed tasks; nil replaces the whole map. Derived completions are
// recomputed for the whole date either way.
func (s *Store) ApplyServer(read *serverRead, only []catalog.TaskID, rules []DerivedRule) []catalog.TaskID {
	var derived []catalog.TaskID
	s.apply(func(snap *Snapshot) *Snapshot {
		e := read.mergeEvidence(snap.evidence)
		next := snap.withServerState(read.ingest.tasks, read.musicLinks, e, only, s.now())
		if only == nil {
			next.conflicts = read.ingest.conflicts
		}
		next, derived = applyDerived(s.catalog, next, rules, e)
		return next
	})
	return derived
}

func (s *Store) markError(id catalog.TaskID, msg string) {
	s.apply(func(snap *Snapshot) *Snapshot {
		return snap.withError(id, msg)
	})
}

func (s *Store) begin(id catalog.TaskID) {
	s.apply(func(snap *Snapshot) *Snapshot {
		return snap.withInflight(id, 1)
	})
}

func (s *Store) end(id catalog.TaskID) {
	s.apply(func(snap *Snapshot) *Snapshot {
		return snap.withInflight(id, -1)
	})
}
