package server

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/sheetboard/internal/common"
	"github.com/Veraticus/sheetboard/internal/feed"
	"github.com/Veraticus/sheetboard/internal/pipeline"
)

// Board is the latest state of one dashboard.
type Board struct {
	UpdatedAt time.Time
	Pipeline  *pipeline.Pipeline
	Snapshot  *pipeline.Snapshot
	Err       error
}

// Registry keeps the most recent snapshot of every served dashboard.
// Pollers write to it; request handlers read from it.
type Registry struct {
	boards map[string]*Board
	now    func() time.Time
	mu     sync.RWMutex
}

// NewRegistry creates a registry for the given pipelines.
func NewRegistry(pipelines ...*pipeline.Pipeline) *Registry {
	r := &Registry{
		boards: make(map[string]*Board, len(pipelines)),
		now:    time.Now,
	}
	for _, p := range pipelines {
		r.boards[p.Dashboard().Name] = &Board{Pipeline: p}
	}
	return r
}

// Names returns the registered dashboard names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.boards))
	for name := range r.boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a copy of a dashboard's state.
func (r *Registry) Get(name string) (Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.boards[name]
	if !ok {
		return Board{}, common.ErrUnknownDashboard
	}
	return *b, nil
}

// Update records a poll result. A failed poll keeps the previous snapshot.
func (r *Registry) Update(name string, u feed.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.boards[name]
	if !ok {
		return
	}
	b.Err = u.Err
	b.UpdatedAt = r.now()
	if u.Err == nil && u.Snapshot != nil {
		b.Snapshot = u.Snapshot
	}
}

// Watch polls one loader into the registry until ctx is done.
func (r *Registry) Watch(ctx context.Context, loader *feed.Loader, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	name := loader.Pipeline().Dashboard().Name
	logger = logger.With("dashboard", name)

	poller := feed.NewPoller(loader.Load, interval, func(u feed.Update) {
		if u.Err == nil && u.Snapshot != nil {
			logger.Debug("dashboard refreshed", "rows", len(u.Snapshot.Rows), "origin", u.Snapshot.Origin)
		}
		r.Update(name, u)
	}, logger)
	poller.Run(ctx)
}
