package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/five82/dbspctl/dbsp"
	"github.com/five82/dbspctl/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// Source is the read side of the server the dashboard needs. *dbsp.Connection
// satisfies it.
type Source interface {
	ListProjects(ctx context.Context) ([]dbsp.ProjectDescr, error)
	ListPipelines(ctx context.Context, id dbsp.ProjectID) ([]dbsp.PipelineDescr, error)
}

// Poller refreshes a state.Store from a Source. After a failed poll the next
// one is delayed by calculateBackoff.
type Poller struct {
	store    *state.Store
	source   Source
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewPoller returns a poller. A nil clock or logger uses the real clock and a
// discarding logger.
func NewPoller(store *state.Store, source Source, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{store: store, source: source, interval: interval, clock: clock, logger: logger}
}

// Start launches the polling goroutine. It waits one interval before its first
// poll; callers that want data up front call Refresh first. The returned
// channel is closed once it exits after ctx is cancelled.
func (p *Poller) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			wait := calculateBackoff(p.store.Snapshot().ConsecutiveFailures, p.interval)
			select {
			case <-ctx.Done():
				return
			case <-p.clock.After(wait):
			}
			_ = p.Refresh(ctx)
		}
	}()
	return done
}

// Refresh performs one poll and records the outcome in the store.
func (p *Poller) Refresh(ctx context.Context) error {
	views, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		p.store.Update(nil, err)
		p.logger.Warn("dashboard poll failed", slog.String("error", err.Error()))
		return err
	}
	p.store.Update(views, nil)
	return nil
}

func (p *Poller) fetch(ctx context.Context) ([]state.ProjectView, error) {
	projects, err := p.source.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ProjectID < projects[j].ProjectID })

	views := make([]state.ProjectView, 0, len(projects))
	for _, descr := range projects {
		view := state.ProjectView{Project: descr}
		view.Status, view.StatusErr = descr.CompileStatus()
		pipelines, err := p.source.ListPipelines(ctx, descr.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("list pipelines for project %d: %w", descr.ProjectID, err)
		}
		view.Pipelines = pipelines
		views = append(views, view)
	}
	return views, nil
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
