package board

import (
	"context"
	"errors"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/pkg/cerr"
)

var errOffline = errors.New("connection refused")

var serverNow = time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)

type fakeTaskStore struct {
	mu        sync.Mutex
	tasks     map[string]map[string]apiv1.TaskInstanceSnapshot
	getErr    error
	updateErr error
	deleteErr error
	updates   []*apiv1.UpdateTaskStatusRequest
	deletes   []string
	block     map[string]chan struct{}
	reads     atomic.Int32
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks: make(map[string]map[string]apiv1.TaskInstanceSnapshot),
		block: make(map[string]chan struct{}),
	}
}

func (f *fakeTaskStore) put(date, id string, snap apiv1.TaskInstanceSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tasks[date] == nil {
		f.tasks[date] = make(map[string]apiv1.TaskInstanceSnapshot)
	}
	f.tasks[date][id] = snap
}

func (f *fakeTaskStore) setErrors(get, update, del error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr, f.updateErr, f.deleteErr = get, update, del
}

func (f *fakeTaskStore) GetWorkflowTasks(ctx context.Context, date string) (map[string]apiv1.TaskInstanceSnapshot, error) {
	f.reads.Add(1)
	f.mu.Lock()
	gate := f.block[date]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return maps.Clone(f.tasks[date]), nil
}

func (f *fakeTaskStore) UpdateTaskStatus(_ context.Context, req *apiv1.UpdateTaskStatusRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.tasks[req.Date] == nil {
		f.tasks[req.Date] = make(map[string]apiv1.TaskInstanceSnapshot)
	}
	f.tasks[req.Date][req.TaskID] = apiv1.TaskInstanceSnapshot{
		Status:       req.Status,
		DocumentLink: req.DocumentLink,
		AssignedTo:   req.AssignedTo,
		Payload:      req.Payload,
		UpdatedAt:    serverNow,
		UpdatedBy:    req.UpdatedBy,
	}
	return nil
}

func (f *fakeTaskStore) DeleteWorkflowTask(_ context.Context, date, taskID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, taskID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.tasks[date][taskID]; !ok {
		return cerr.NewError(cerr.NotFound, "workflow task not found", nil)
	}
	delete(f.tasks[date], taskID)
	return nil
}

func (f *fakeTaskStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type fakeLyrics struct {
	mu     sync.Mutex
	lyrics map[string][]apiv1.Lyric
	err    error
}

func (f *fakeLyrics) GetLyricsByDate(_ context.Context, date string) ([]apiv1.Lyric, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.lyrics[date], nil
}

func (f *fakeLyrics) set(date string, lyrics []apiv1.Lyric, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lyrics == nil {
		f.lyrics = make(map[string][]apiv1.Lyric)
	}
	f.lyrics[date] = lyrics
	f.err = err
}

type fakeSermons struct {
	sermons map[string]*apiv1.Sermon
}

func (f *fakeSermons) GetSermonByDate(_ context.Context, date string) (*apiv1.Sermon, error) {
	return f.sermons[date], nil
}

type fakeMusicLinks struct {
	links map[string][]apiv1.MusicLink
}

func (f *fakeMusicLinks) GetMusicLinks(_ context.Context, date string) ([]apiv1.MusicLink, error) {
	return f.links[date], nil
}

type fakeTicker struct {
	d       time.Duration
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

type fakeTickers struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeTickers) factory(d time.Duration) Ticker {
	t := &fakeTicker{d: d, ch: make(chan time.Time, 1)}
	f.mu.Lock()
	f.tickers = append(f.tickers, t)
	f.mu.Unlock()
	return t
}

func (f *fakeTickers) all() []*fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeTicker(nil), f.tickers...)
}

func (f *fakeTickers) last() *fakeTicker {
	all := f.all()
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

type fakeRefresher struct {
	mu       sync.Mutex
	triggers []Trigger
}

func (f *fakeRefresher) Refresh(_ context.Context, trigger Trigger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	return nil
}

func (f *fakeRefresher) seen() []Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Trigger(nil), f.triggers...)
}
