package dbsp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Project is a handle on a SQL program stored on the server. The version is
// only ever advanced by the server; the handle records the latest version it
// has observed.
type Project struct {
	ID   ProjectID
	Name string

	conn *Connection

	mu      sync.Mutex
	version Version
}

// Version returns the last version observed from the server.
func (p *Project) Version() Version {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

func (p *Project) observe(v Version) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.version = v
}

// Status fetches the current compilation status. Every call is a round trip.
func (p *Project) Status(ctx context.Context) (CompileStatus, error) {
	var resp projectStatusResponse
	if err := p.conn.call(ctx, "project status", http.MethodGet, projectPath(p.ID), nil, &resp); err != nil {
		return CompileStatus{}, err
	}
	p.observe(resp.Version)
	return ParseCompileStatus(resp.Status)
}

// Compile queues the project for compilation and blocks until the server
// reports a terminal status, timeout elapses, or ctx is cancelled. A timeout
// of zero or less waits indefinitely.
//
// SqlError and RustError surface as *CompilationError without further
// polling; an expired timeout surfaces as *TimeoutError and leaves the server
// job running.
func (p *Project) Compile(ctx context.Context, timeout time.Duration) error {
	version := p.Version()
	req := compileProjectRequest{ProjectID: p.ID, Version: version}
	if err := p.conn.call(ctx, "compile project", http.MethodPost, "/v0/projects/compile", req, nil); err != nil {
		return err
	}

	logger := p.conn.logger.With(slog.Int64("project_id", int64(p.ID)), slog.Int64("version", int64(version)))
	logger.Info("compilation queued")

	clock := p.conn.clock
	start := clock.Now()
	// One deadline covers status round trips and poll waits alike, so a slow
	// server cannot stretch the wait past timeout.
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = clockwork.WithTimeout(ctx, clock, timeout)
		defer cancel()
	}
	timedOut := func() error {
		return &TimeoutError{Elapsed: clock.Since(start), Limit: timeout}
	}

	for {
		status, err := p.Status(waitCtx)
		if err != nil {
			if ctx.Err() == nil && waitCtx.Err() != nil {
				return timedOut()
			}
			return err
		}

		switch status.Kind {
		case StatusSuccess:
			logger.Info("compilation succeeded", slog.Duration("elapsed", clock.Since(start)))
			return nil
		case StatusSQLError:
			return &CompilationError{Kind: CompileSQLError, Detail: status.Detail}
		case StatusRustError:
			return &CompilationError{Kind: CompileRustError, Detail: status.Detail}
		case StatusPending, StatusCompiling:
		default:
			return &ProtocolError{Op: "compile project", Value: status.Kind.String()}
		}

		wait := p.conn.pollInterval
		if timeout > 0 {
			remaining := timeout - clock.Since(start)
			if remaining <= 0 {
				return timedOut()
			}
			if remaining < wait {
				wait = remaining
			}
		}

		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return err
			}
			return timedOut()
		case <-clock.After(wait):
		}
		if timeout > 0 && clock.Since(start) >= timeout {
			return timedOut()
		}
	}
}

// Update replaces the project's SQL source. The server assigns a new version,
// which invalidates any previous compilation.
func (p *Project) Update(ctx context.Context, sql string) error {
	var resp updateProjectResponse
	req := updateProjectRequest{ProjectID: p.ID, Name: p.Name, Code: &sql}
	if err := p.conn.call(ctx, "update project", http.MethodPatch, "/v0/projects", req, &resp); err != nil {
		return err
	}
	p.observe(resp.Version)
	return nil
}

// Code returns the SQL source stored on the server.
func (p *Project) Code(ctx context.Context) (string, error) {
	var resp projectCodeResponse
	if err := p.conn.call(ctx, "project code", http.MethodGet, projectPath(p.ID)+"/code", nil, &resp); err != nil {
		return "", err
	}
	p.observe(resp.Version)
	return resp.Code, nil
}

// CancelCompile asks the server to drop a queued or running compilation.
func (p *Project) CancelCompile(ctx context.Context) error {
	req := compileProjectRequest{ProjectID: p.ID, Version: p.Version()}
	return p.conn.call(ctx, "cancel compilation", http.MethodPost, "/v0/projects/cancel", req, nil)
}

// Delete removes the project. The server refuses while any of its pipelines
// are still running.
func (p *Project) Delete(ctx context.Context) error {
	return p.conn.call(ctx, "delete project", http.MethodDelete, projectPath(p.ID), nil, nil)
}

// Configs lists the configs published for this project.
func (p *Project) Configs(ctx context.Context) ([]ConfigDescr, error) {
	return p.conn.ListConfigs(ctx, p.ID)
}

// NewConfig starts an empty endpoint configuration for this project.
func (p *Project) NewConfig(name string, workers int) (*ProjectConfig, error) {
	if name == "" {
		return nil, fmt.Errorf("new config: name is required")
	}
	if workers <= 0 {
		return nil, fmt.Errorf("new config: workers must be positive, got %d", workers)
	}
	return &ProjectConfig{
		project: p,
		name:    name,
		workers: workers,
		inputs:  make(map[string]EndpointConfig),
		outputs: make(map[string]EndpointConfig),
	}, nil
}
