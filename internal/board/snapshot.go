package board

import (
	"maps"
	"slices"
	"time"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
)

const payloadMusicLinks = "musicLinks"

// Reconciliation marks tasks whose local value awaits confirmation from the
// server. A transition returns one alongside the new snapshot.
type Reconciliation struct {
	Date  string
	Tasks []catalog.TaskID
}

// Snapshot is the immutable board state of one service date. Every
// transition returns a new Snapshot and leaves the receiver untouched.
type Snapshot struct {
	date      string
	qrTask    catalog.TaskID
	musicTask catalog.TaskID

	tasks   map[catalog.TaskID]TaskInstance
	derived map[catalog.TaskID]TaskInstance
	// qrLocal is the fast local status of the QR-code task.
	qrLocal Status

	musicLinks   []apiv1.MusicLink
	evidence     Evidence
	conflicts    []Conflict
	unreconciled map[catalog.TaskID]struct{}
	errors       map[catalog.TaskID]string
	inflight     map[catalog.TaskID]int
	refreshedAt  time.Time
}

func newSnapshot(c *catalog.Catalog, date string) *Snapshot {
	s := &Snapshot{
		date:         date,
		qrTask:       c.QRCodeTask,
		qrLocal:      StatusPending,
		tasks:        make(map[catalog.TaskID]TaskInstance),
		derived:      make(map[catalog.TaskID]TaskInstance),
		unreconciled: make(map[catalog.TaskID]struct{}),
		errors:       make(map[catalog.TaskID]string),
		inflight:     make(map[catalog.TaskID]int),
	}
	if _, ok := c.Task(string(catalog.TaskMusic)); ok {
		s.musicTask = catalog.TaskMusic
	}
	return s
}

func (s *Snapshot) clone() *Snapshot {
	next := *s
	next.tasks = make(map[catalog.TaskID]TaskInstance, len(s.tasks))
	for id, in := range s.tasks {
		next.tasks[id] = in.clone()
	}
	next.derived = maps.Clone(s.derived)
	next.musicLinks = slices.Clone(s.musicLinks)
	next.conflicts = slices.Clone(s.conflicts)
	next.unreconciled = maps.Clone(s.unreconciled)
	next.errors = maps.Clone(s.errors)
	next.inflight = maps.Clone(s.inflight)
	return &next
}

func (s *Snapshot) Date() string {
	return s.date
}

func (s *Snapshot) RefreshedAt() time.Time {
	return s.refreshedAt
}

func (s *Snapshot) Evidence() Evidence {
	return s.evidence
}

// Conflicts returns the alias conflicts found by the last full refresh.
func (s *Snapshot) Conflicts() []Conflict {
	return slices.Clone(s.conflicts)
}

func (s *Snapshot) MusicLinks() []apiv1.MusicLink {
	return slices.Clone(s.musicLinks)
}

// Instance returns the effective record for a canonical id. A derived
// completion shadows a stored record that is not yet Completed.
func (s *Snapshot) Instance(id catalog.TaskID) (TaskInstance, bool) {
	stored, hasStored := s.tasks[id]
	if d, ok := s.derived[id]; ok && (!hasStored || stored.Status != StatusCompleted) {
		return d.clone(), true
	}
	if hasStored {
		return stored.clone(), true
	}
	return TaskInstance{}, false
}

// mapStatus resolves the status from stored and derived records only.
func (s *Snapshot) mapStatus(id catalog.TaskID) Status {
	if d, ok := s.derived[id]; ok && d.Status == StatusCompleted {
		return StatusCompleted
	}
	if in, ok := s.tasks[id]; ok {
		return in.Status
	}
	return StatusPending
}

// status is what readers see: the QR-code task answers from its fast local
// value, every other task from the map.
func (s *Snapshot) status(id catalog.TaskID) Status {
	if s.qrTask != "" && id == s.qrTask {
		return s.qrLocal
	}
	return s.mapStatus(id)
}

func (s *Snapshot) Unreconciled(id catalog.TaskID) bool {
	_, ok := s.unreconciled[id]
	return ok
}

// Error returns the message of the last failed action on id.
func (s *Snapshot) Error(id catalog.TaskID) string {
	return s.errors[id]
}

func (s *Snapshot) InFlight(id catalog.TaskID) bool {
	return s.inflight[id] > 0
}

func (s *Snapshot) marker(ids ...catalog.TaskID) Reconciliation {
	return Reconciliation{Date: s.date, Tasks: ids}
}

// withInstance writes in as the stored record of id.
func (s *Snapshot) withInstance(id catalog.TaskID, in TaskInstance) (*Snapshot, Reconciliation) {
	next := s.clone()
	next.tasks[id] = in.clone()
	if id == next.qrTask {
		next.qrLocal = in.Status
	}
	next.mergeMusicLinks()
	next.unreconciled[id] = struct{}{}
	delete(next.errors, id)
	return next, next.marker(id)
}

// withoutInstance removes id entirely, including any derived completion.
func (s *Snapshot) withoutInstance(id catalog.TaskID) (*Snapshot, Reconciliation) {
	next := s.clone()
	delete(next.tasks, id)
	delete(next.derived, id)
	if id == next.qrTask {
		next.qrLocal = StatusPending
	}
	next.unreconciled[id] = struct{}{}
	delete(next.errors, id)
	return next, next.marker(id)
}

// withLocalQR moves only the fast local QR-code value.
func (s *Snapshot) withLocalQR(status Status) (*Snapshot, Reconciliation) {
	next := s.clone()
	next.qrLocal = status
	next.unreconciled[next.qrTask] = struct{}{}
	return next, next.marker(next.qrTask)
}

func (s *Snapshot) withError(id catalog.TaskID, msg string) *Snapshot {
	next := s.clone()
	next.errors[id] = msg
	next.unreconciled[id] = struct{}{}
	return next
}

func (s *Snapshot) withInflight(id catalog.TaskID, delta int) *Snapshot {
	next := s.clone()
	n := next.inflight[id] + delta
	if n <= 0 {
		delete(next.inflight, id)
	} else {
		next.inflight[id] = n
	}
	return next
}

// withServerState reconciles against an authoritative server read. A nil
// only replaces every task not currently in flight; otherwise just the
// listed tasks are overwritten.
func (s *Snapshot) withServerState(server map[catalog.TaskID]TaskInstance, links []apiv1.MusicLink, e Evidence, only []catalog.TaskID, now time.Time) *Snapshot {
	next := s.clone()
	if only == nil {
		tasks := make(map[catalog.TaskID]TaskInstance, len(server))
		for id, in := range server {
			if next.inflight[id] > 0 {
				continue
			}
			tasks[id] = in.clone()
		}
		for id := range next.inflight {
			if local, ok := s.tasks[id]; ok {
				tasks[id] = local.clone()
			}
		}
		next.tasks = tasks
		for id := range next.unreconciled {
			if next.inflight[id] == 0 {
				delete(next.unreconciled, id)
				delete(next.errors, id)
			}
		}
		if next.qrTask != "" && next.inflight[next.qrTask] == 0 {
			next.qrLocal = next.mapStatus(next.qrTask)
		}
		next.refreshedAt = now
	} else {
		for _, id := range only {
			if in, ok := server[id]; ok {
				next.tasks[id] = in.clone()
			} else {
				delete(next.tasks, id)
			}
			delete(next.unreconciled, id)
			delete(next.errors, id)
			if id == next.qrTask {
				next.qrLocal = next.mapStatus(id)
			}
		}
	}
	if links != nil {
		next.musicLinks = slices.Clone(links)
	}
	next.evidence = e
	next.mergeMusicLinks()
	return next
}

// mergeMusicLinks copies the collaborator link list into the music record.
func (s *Snapshot) mergeMusicLinks() {
	if s.musicTask == "" || len(s.musicLinks) == 0 {
		return
	}
	in, ok := s.tasks[s.musicTask]
	if !ok {
		return
	}
	if in.Payload == nil {
		in.Payload = make(map[string]any, 1)
	}
	in.Payload[payloadMusicLinks] = slices.Clone(s.musicLinks)
	s.tasks[s.musicTask] = in
}
