package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runningScheduler struct {
	sched     *Scheduler
	refresher *fakeRefresher
	tickers   *fakeTickers
	done      chan error
}

func startScheduler(t *testing.T, opts ...SchedulerOption) *runningScheduler {
	t.Helper()
	rs := &runningScheduler{
		refresher: &fakeRefresher{},
		tickers:   &fakeTickers{},
		done:      make(chan error, 1),
	}
	opts = append([]SchedulerOption{WithTickerFactory(rs.tickers.factory)}, opts...)
	rs.sched = NewScheduler(rs.refresher, opts...)
	go func() {
		rs.done <- rs.sched.Run(context.Background())
	}()
	require.Eventually(t, func() bool { return rs.tickers.last() != nil }, time.Second, time.Millisecond)
	t.Cleanup(func() {
		rs.sched.Stop()
	})
	return rs
}

func (rs *runningScheduler) waitTriggers(t *testing.T, want ...Trigger) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(rs.refresher.seen()) >= len(want)
	}, time.Second, time.Millisecond)
	assert.Equal(t, want, rs.refresher.seen())
}

func TestScheduler_StartsInActivePoll(t *testing.T) {
	rs := startScheduler(t)
	assert.Equal(t, StateActivePoll, rs.sched.State())
	assert.Equal(t, DefaultVisibleInterval, rs.tickers.last().d)
	assert.Empty(t, rs.refresher.seen())
}

func TestScheduler_TickRefreshes(t *testing.T) {
	rs := startScheduler(t)
	rs.tickers.last().ch <- time.Now()
	rs.waitTriggers(t, TriggerPoll)
}

func TestScheduler_VisibilityTransitions(t *testing.T) {
	rs := startScheduler(t, WithIntervals(10*time.Millisecond, 30*time.Millisecond))

	rs.sched.SetVisible(false)
	require.Eventually(t, func() bool { return rs.sched.State() == StateBackgroundPoll }, time.Second, time.Millisecond)
	tickers := rs.tickers.all()
	require.Len(t, tickers, 2)
	assert.True(t, tickers[0].stopped.Load())
	assert.Equal(t, 30*time.Millisecond, tickers[1].d)
	assert.Empty(t, rs.refresher.seen(), "hiding does not refresh")

	// Hiding twice keeps the running ticker.
	rs.sched.SetVisible(false)
	rs.sched.SetVisible(true)
	rs.waitTriggers(t, TriggerVisible)
	assert.Equal(t, StateActivePoll, rs.sched.State())
	tickers = rs.tickers.all()
	require.Len(t, tickers, 3)
	assert.True(t, tickers[1].stopped.Load())
	assert.Equal(t, 10*time.Millisecond, tickers[2].d)
}

func TestScheduler_FocusAndManualKeepCadence(t *testing.T) {
	rs := startScheduler(t)

	rs.sched.Focus()
	rs.sched.RefreshNow()
	rs.waitTriggers(t, TriggerFocus, TriggerManual)

	assert.Len(t, rs.tickers.all(), 1)
	assert.False(t, rs.tickers.last().stopped.Load())
	assert.Equal(t, StateActivePoll, rs.sched.State())
}

func TestScheduler_StopClearsTicker(t *testing.T) {
	rs := startScheduler(t, WithStartHidden())
	assert.Equal(t, StateBackgroundPoll, rs.sched.State())
	assert.Equal(t, DefaultHiddenInterval, rs.tickers.last().d)

	rs.sched.Stop()
	select {
	case err := <-rs.done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	for _, tk := range rs.tickers.all() {
		assert.True(t, tk.stopped.Load())
	}
	assert.Equal(t, StateStopped, rs.sched.State())
}

func TestScheduler_StopBeforeRun(t *testing.T) {
	refresher := &fakeRefresher{}
	tickers := &fakeTickers{}
	sched := NewScheduler(refresher, WithTickerFactory(tickers.factory))
	sched.Stop()

	done := make(chan error, 1)
	go func() {
		done <- sched.Run(context.Background())
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler ran after Stop")
	}
	assert.Empty(t, tickers.all())
	assert.Empty(t, refresher.seen())
	assert.Equal(t, StateStopped, sched.State())
}

func TestScheduler_RunTwice(t *testing.T) {
	rs := startScheduler(t)
	err := rs.sched.Run(context.Background())
	assert.Error(t, err)
}

func TestScheduler_DrivesBoard(t *testing.T) {
	tb := newTestBoard(t)
	require.NoError(t, tb.board.SelectDate(context.Background(), testDate))
	reads := tb.tasks.reads.Load()

	tickers := &fakeTickers{}
	sched := NewScheduler(tb.board, WithTickerFactory(tickers.factory))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sched.Run(ctx)
	}()
	require.Eventually(t, func() bool { return tickers.last() != nil }, time.Second, time.Millisecond)

	sched.RefreshNow()
	require.Eventually(t, func() bool { return tb.tasks.reads.Load() > reads }, time.Second, time.Millisecond)

	cancel()
	<-done
	assert.True(t, tickers.last().stopped.Load())
}
