package board

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultVisibleInterval = 10 * time.Second
	DefaultHiddenInterval  = 30 * time.Second
)

type State int

const (
	StateStopped State = iota
	StateActivePoll
	StateBackgroundPoll
)

func (s State) String() string {
	switch s {
	case StateActivePoll:
		return "active-poll"
	case StateBackgroundPoll:
		return "background-poll"
	default:
		return "stopped"
	}
}

// Refresher is what the scheduler drives; *Board implements it.
type Refresher interface {
	Refresh(ctx context.Context, trigger Trigger) error
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type schedulerEvent int

const (
	eventVisible schedulerEvent = iota
	eventHidden
	eventFocus
	eventRefreshNow
)

// Scheduler polls the Refresher on one of two cadences. Each state owns a
// single live ticker, which is always stopped before the next one starts
// and when the scheduler stops.
type Scheduler struct {
	refresher       Refresher
	visibleInterval time.Duration
	hiddenInterval  time.Duration
	newTicker       TickerFactory
	startVisible    bool
	events          chan schedulerEvent

	mu      sync.Mutex
	state   State
	running bool
	stopped bool
	cancel  context.CancelFunc
}

type SchedulerOption func(*Scheduler)

func WithIntervals(visible, hidden time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if visible > 0 {
			s.visibleInterval = visible
		}
		if hidden > 0 {
			s.hiddenInterval = hidden
		}
	}
}

func WithTickerFactory(f TickerFactory) SchedulerOption {
	return func(s *Scheduler) {
		s.newTicker = f
	}
}

// WithStartHidden starts the scheduler in background polling.
func WithStartHidden() SchedulerOption {
	return func(s *Scheduler) {
		s.startVisible = false
	}
}

func NewScheduler(r Refresher, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		refresher:       r,
		visibleInterval: DefaultVisibleInterval,
		hiddenInterval:  DefaultHiddenInterval,
		newTicker:       newTimeTicker,
		startVisible:    true,
		events:          make(chan schedulerEvent, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Scheduler) interval(state State) time.Duration {
	if state == StateBackgroundPoll {
		return s.hiddenInterval
	}
	return s.visibleInterval
}

// Run drives the state machine until ctx is done or Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := StateActivePoll
	if !s.startVisible {
		state = StateBackgroundPoll
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler is already running")
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.cancel = cancel
	s.state = state
	s.mu.Unlock()

	ticker := s.newTicker(s.interval(state))
	defer func() {
		ticker.Stop()
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.state = StateStopped
		s.mu.Unlock()
	}()

	slog.Debug("sync scheduler started", "state", state)
	for {
		select {
		case <-ctx.Done():
			slog.Debug("sync scheduler stopped")
			return nil
		case <-ticker.C():
			s.refresh(ctx, TriggerPoll)
		case ev := <-s.events:
			switch ev {
			case eventVisible:
				if state != StateBackgroundPoll {
					continue
				}
				ticker.Stop()
				state = StateActivePoll
				ticker = s.newTicker(s.interval(state))
				s.setState(state)
				s.refresh(ctx, TriggerVisible)
			case eventHidden:
				if state != StateActivePoll {
					continue
				}
				ticker.Stop()
				state = StateBackgroundPoll
				ticker = s.newTicker(s.interval(state))
				s.setState(state)
			case eventFocus:
				s.refresh(ctx, TriggerFocus)
			case eventRefreshNow:
				s.refresh(ctx, TriggerManual)
			}
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context, trigger Trigger) {
	if err := s.refresher.Refresh(ctx, trigger); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("scheduled refresh failed", "trigger", trigger, "error", err)
	}
}

func (s *Scheduler) send(ev schedulerEvent) {
	select {
	case s.events <- ev:
	default:
		slog.Warn("sync scheduler event queue full, dropping event", "event", ev)
	}
}

// SetVisible switches cadence. Becoming visible also refreshes once.
func (s *Scheduler) SetVisible(visible bool) {
	if visible {
		s.send(eventVisible)
	} else {
		s.send(eventHidden)
	}
}

// Focus refreshes once without changing cadence.
func (s *Scheduler) Focus() {
	s.send(eventFocus)
}

// RefreshNow refreshes once without touching the running ticker.
func (s *Scheduler) RefreshNow() {
	s.send(eventRefreshNow)
}

// Stop cancels the running loop and its ticker. A Run that has not started
// yet returns at once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}
