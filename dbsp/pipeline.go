package dbsp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// PipelineState is the client's last known view of a pipeline's lifecycle.
type PipelineState int

const (
	// StateUnknown follows a failed lifecycle call, or a handle obtained via
	// Connection.AttachPipeline. The server is the only authority.
	StateUnknown PipelineState = iota
	// StateStarting is never visible to callers: construction issues the
	// start call before returning.
	StateStarting
	StateRunning
	// StatePaused has no exposed way back to StateRunning. Whether the server
	// supports resuming a paused pipeline is unconfirmed, so the only exits
	// are Shutdown and Delete.
	StatePaused
	StateTerminated
	StateDeleted
)

func (s PipelineState) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateTerminated:
		return "Terminated"
	case StateDeleted:
		return "Deleted"
	default:
		return fmt.Sprintf("PipelineState(%d)", int(s))
	}
}

type lifecycleOp string

const (
	opPause    lifecycleOp = "pause"
	opShutdown lifecycleOp = "shutdown"
	opDelete   lifecycleOp = "delete"
)

// allowed reports whether op may be issued from s. StateUnknown defers every
// decision to the server.
func (s PipelineState) allowed(op lifecycleOp) bool {
	switch s {
	case StateUnknown:
		return true
	case StateDeleted:
		return false
	}
	switch op {
	case opPause:
		return s == StateRunning
	case opShutdown:
		return s == StateRunning || s == StatePaused
	case opDelete:
		return true
	}
	return false
}

// Pipeline is a running execution instance on the server.
type Pipeline struct {
	ID   PipelineID
	Port uint16

	conn *Connection

	mu    sync.Mutex
	state PipelineState
}

// newPipeline starts the pipeline before returning it, so construction is a
// network call and may fail. If start fails the pipeline is shut down and
// deleted on a best-effort basis so that no unstarted record is left behind.
func newPipeline(ctx context.Context, conn *Connection, id PipelineID, port uint16) (*Pipeline, error) {
	p := &Pipeline{ID: id, Port: port, conn: conn, state: StateStarting}
	if err := conn.call(ctx, "start pipeline", http.MethodPost, pipelinePath(id)+"/start", nil, nil); err != nil {
		p.discard(ctx)
		return nil, err
	}
	p.setState(StateRunning)
	conn.logger.Info("pipeline started", slog.Int64("pipeline_id", int64(id)))
	return p, nil
}

func (p *Pipeline) discard(ctx context.Context) {
	logger := p.conn.logger.With(slog.Int64("pipeline_id", int64(p.ID)))
	if err := p.shutdown(ctx); err != nil {
		logger.Warn("cleanup shutdown failed", slog.String("error", err.Error()))
	}
	if err := p.delete(ctx); err != nil {
		logger.Warn("cleanup delete failed", slog.String("error", err.Error()))
	}
}

// State returns the last known lifecycle state.
func (p *Pipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s PipelineState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = s
}

func (p *Pipeline) transition(ctx context.Context, op lifecycleOp, target PipelineState, call func(context.Context) error) error {
	current := p.State()
	if !current.allowed(op) {
		return fmt.Errorf("%s pipeline %d from %s: %w", op, p.ID, current, ErrInvalidTransition)
	}
	if err := call(ctx); err != nil {
		p.setState(StateUnknown)
		return err
	}
	p.setState(target)
	p.conn.logger.Info("pipeline "+string(op),
		slog.Int64("pipeline_id", int64(p.ID)),
		slog.String("state", target.String()),
	)
	return nil
}

// Pause moves a running pipeline to StatePaused.
func (p *Pipeline) Pause(ctx context.Context) error {
	return p.transition(ctx, opPause, StatePaused, func(ctx context.Context) error {
		return p.conn.call(ctx, "pause pipeline", http.MethodPost, pipelinePath(p.ID)+"/pause", nil, nil)
	})
}

// Shutdown terminates the pipeline. The server keeps its record until Delete.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	return p.transition(ctx, opShutdown, StateTerminated, p.shutdown)
}

// Delete removes the pipeline record from the server.
func (p *Pipeline) Delete(ctx context.Context) error {
	return p.transition(ctx, opDelete, StateDeleted, p.delete)
}

// Teardown shuts the pipeline down and then deletes it, stopping at the
// first failure. A pipeline that is already terminated is only deleted.
func (p *Pipeline) Teardown(ctx context.Context) error {
	if p.State() != StateTerminated {
		if err := p.Shutdown(ctx); err != nil {
			return err
		}
	}
	return p.Delete(ctx)
}

func (p *Pipeline) shutdown(ctx context.Context) error {
	req := shutdownPipelineRequest{PipelineID: p.ID}
	return p.conn.call(ctx, "shutdown pipeline", http.MethodPost, "/v0/pipelines/shutdown", req, nil)
}

func (p *Pipeline) delete(ctx context.Context) error {
	return p.conn.call(ctx, "delete pipeline", http.MethodDelete, pipelinePath(p.ID), nil, nil)
}

// Status returns the server's status document for the pipeline.
func (p *Pipeline) Status(ctx context.Context) (map[string]any, error) {
	return p.document(ctx, "pipeline status", "/status")
}

// Metadata returns the server's metadata document for the pipeline.
func (p *Pipeline) Metadata(ctx context.Context) (map[string]any, error) {
	return p.document(ctx, "pipeline metadata", "/metadata")
}

func (p *Pipeline) document(ctx context.Context, op, suffix string) (map[string]any, error) {
	var doc map[string]any
	if err := p.conn.call(ctx, op, http.MethodGet, pipelinePath(p.ID)+suffix, nil, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// IsInvalidTransition reports whether err came from the local transition guard.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
