package app

import (
	"context"

	"github.com/five82/dbspctl/dbsp"
)

// pipelineActions applies dashboard key presses to pipelines on the server.
type pipelineActions struct {
	conn *dbsp.Connection
}

func (a pipelineActions) Pause(ctx context.Context, id dbsp.PipelineID) error {
	return a.conn.AttachPipeline(id).Pause(ctx)
}

func (a pipelineActions) Shutdown(ctx context.Context, id dbsp.PipelineID) error {
	return a.conn.AttachPipeline(id).Shutdown(ctx)
}

func (a pipelineActions) Teardown(ctx context.Context, id dbsp.PipelineID) error {
	return a.conn.AttachPipeline(id).Teardown(ctx)
}
