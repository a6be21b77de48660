package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/sheetboard/internal/pipeline"
)

// LoadFunc produces a fresh snapshot.
type LoadFunc func(ctx context.Context) (*pipeline.Snapshot, error)

// Update is the outcome of one poll.
type Update struct {
	Snapshot *pipeline.Snapshot
	Err      error
	Seq      uint64
}

// Poller loads a snapshot immediately and then on every tick. Starting a
// load cancels the one still in flight, and a result that arrives after a
// newer load has started is dropped, so updates are delivered in order.
type Poller struct {
	load     LoadFunc
	onUpdate func(Update)
	logger   *slog.Logger
	refresh  chan struct{}
	interval time.Duration
}

// NewPoller creates a poller. onUpdate is called from the Run goroutine.
func NewPoller(load LoadFunc, interval time.Duration, onUpdate func(Update), logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		load:     load,
		onUpdate: onUpdate,
		logger:   logger,
		interval: interval,
		refresh:  make(chan struct{}, 1),
	}
}

// Refresh asks for a load now. Requests made while one is pending collapse
// into one.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	results := make(chan Update)
	var (
		wg     sync.WaitGroup
		seq    uint64
		cancel context.CancelFunc = func() {}
	)
	defer func() {
		cancel()
		wg.Wait()
	}()

	start := func() {
		cancel()
		seq++
		var loadCtx context.Context
		loadCtx, cancel = context.WithCancel(ctx)

		wg.Add(1)
		go func(ctx context.Context, n uint64) {
			defer wg.Done()
			snap, err := p.load(ctx)
			select {
			case results <- Update{Seq: n, Snapshot: snap, Err: err}:
			case <-ctx.Done():
			}
		}(loadCtx, seq)
	}

	start()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start()
		case <-p.refresh:
			start()
		case u := <-results:
			if u.Seq != seq {
				p.logger.Debug("dropping stale poll result", "seq", u.Seq, "current", seq)
				continue
			}
			if u.Err != nil {
				p.logger.Warn("poll failed", "error", u.Err)
			}
			p.onUpdate(u)
		}
	}
}
