package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/sheetboard/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	updates chan Update
}

func newRecorder() *recorder {
	return &recorder{updates: make(chan Update, 16)}
}

func (r *recorder) record(u Update) {
	r.updates <- u
}

func (r *recorder) next(t *testing.T) Update {
	t.Helper()
	select {
	case u := <-r.updates:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func (r *recorder) none(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case u := <-r.updates:
		t.Fatalf("unexpected update %+v", u)
	case <-time.After(wait):
	}
}

func runPoller(t *testing.T, p *Poller) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestPoller_LoadsImmediately(t *testing.T) {
	rec := newRecorder()
	snap := &pipeline.Snapshot{Origin: pipeline.OriginRemote}
	p := NewPoller(func(context.Context) (*pipeline.Snapshot, error) {
		return snap, nil
	}, time.Hour, rec.record, quietLogger())

	runPoller(t, p)

	u := rec.next(t)
	assert.Equal(t, uint64(1), u.Seq)
	assert.Same(t, snap, u.Snapshot)
	assert.NoError(t, u.Err)
}

func TestPoller_Ticks(t *testing.T) {
	rec := newRecorder()
	p := NewPoller(func(context.Context) (*pipeline.Snapshot, error) {
		return &pipeline.Snapshot{}, nil
	}, 10*time.Millisecond, rec.record, quietLogger())

	runPoller(t, p)

	first := rec.next(t)
	second := rec.next(t)
	assert.Less(t, first.Seq, second.Seq)
}

func TestPoller_RefreshCancelsInFlight(t *testing.T) {
	rec := newRecorder()
	firstCancelled := make(chan struct{})

	var mu sync.Mutex
	calls := 0
	p := NewPoller(func(ctx context.Context) (*pipeline.Snapshot, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n == 1 {
			<-ctx.Done()
			close(firstCancelled)
			return nil, ctx.Err()
		}
		return &pipeline.Snapshot{Skipped: n}, nil
	}, time.Hour, rec.record, quietLogger())

	runPoller(t, p)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, time.Millisecond)

	p.Refresh()

	select {
	case <-firstCancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("first load was not cancelled")
	}

	u := rec.next(t)
	assert.Equal(t, uint64(2), u.Seq)
	assert.Equal(t, 2, u.Snapshot.Skipped)
	rec.none(t, 50*time.Millisecond)
}

func TestPoller_DropsStaleResult(t *testing.T) {
	rec := newRecorder()
	release := make(chan struct{})
	stale := &pipeline.Snapshot{Skipped: 1}
	fresh := &pipeline.Snapshot{Skipped: 2}

	var mu sync.Mutex
	calls := 0
	p := NewPoller(func(context.Context) (*pipeline.Snapshot, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n == 1 {
			// Ignores cancellation, like a slow HTTP call.
			<-release
			return stale, nil
		}
		return fresh, nil
	}, time.Hour, rec.record, quietLogger())

	runPoller(t, p)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, time.Millisecond)

	p.Refresh()
	assert.Same(t, fresh, rec.next(t).Snapshot)

	close(release)
	rec.none(t, 50*time.Millisecond)
}

func TestPoller_StopsOnCancel(t *testing.T) {
	p := NewPoller(func(ctx context.Context) (*pipeline.Snapshot, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, time.Hour, func(Update) {}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}
