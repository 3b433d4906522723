package dbsp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Connection is a session with one server. It is immutable after Open and
// may be shared by any number of Project and Pipeline handles.
type Connection struct {
	baseURL        *url.URL
	http           *http.Client
	requestTimeout time.Duration
	clock          clockwork.Clock
	pollInterval   time.Duration
	logger         *slog.Logger
	userAgent      string
}

// Open resolves address and checks the server is reachable by listing
// projects. If that fails it returns a *ConnectionError and no connection.
func Open(ctx context.Context, address string, opts ...Option) (*Connection, error) {
	base, err := parseBaseURL(address)
	if err != nil {
		return nil, &ConnectionError{Address: address, Err: err}
	}

	c := &Connection{
		baseURL:        base,
		requestTimeout: defaultRequestTimeout,
		clock:          clockwork.NewRealClock(),
		pollInterval:   DefaultPollInterval,
		logger:         slog.New(slog.DiscardHandler),
		userAgent:      defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.requestTimeout}
	}

	if _, err := c.ListProjects(ctx); err != nil {
		return nil, &ConnectionError{Address: base.String(), Err: err}
	}
	c.logger.Info("connected to server", slog.String("address", base.String()))
	return c, nil
}

// Address returns the normalised base URL of the server.
func (c *Connection) Address() string {
	return c.baseURL.String()
}

// ListProjects returns every project known to the server.
func (c *Connection) ListProjects(ctx context.Context) ([]ProjectDescr, error) {
	var projects []ProjectDescr
	if err := c.call(ctx, "list projects", http.MethodGet, "/v0/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// NewProject creates a project from SQL source and returns a handle seeded
// with the id and version assigned by the server.
func (c *Connection) NewProject(ctx context.Context, name, sql string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create project: name is required")
	}
	var resp newProjectResponse
	req := newProjectRequest{Name: name, Code: sql}
	if err := c.call(ctx, "create project", http.MethodPost, "/v0/projects", req, &resp); err != nil {
		return nil, err
	}
	c.logger.Info("project created",
		slog.Int64("project_id", int64(resp.ProjectID)),
		slog.Int64("version", int64(resp.Version)),
	)
	return &Project{ID: resp.ProjectID, Name: name, version: resp.Version, conn: c}, nil
}

// OpenProject returns a handle for an existing project.
func (c *Connection) OpenProject(ctx context.Context, id ProjectID) (*Project, error) {
	var resp projectStatusResponse
	if err := c.call(ctx, "open project", http.MethodGet, projectPath(id), nil, &resp); err != nil {
		return nil, err
	}
	return &Project{ID: id, Name: resp.Name, version: resp.Version, conn: c}, nil
}

// ListPipelines returns the pipelines the server has recorded for a project.
func (c *Connection) ListPipelines(ctx context.Context, id ProjectID) ([]PipelineDescr, error) {
	var pipelines []PipelineDescr
	path := projectPath(id) + "/pipelines"
	if err := c.call(ctx, "list pipelines", http.MethodGet, path, nil, &pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

// ListConfigs returns the configs published for a project.
func (c *Connection) ListConfigs(ctx context.Context, id ProjectID) ([]ConfigDescr, error) {
	var configs []ConfigDescr
	path := projectPath(id) + "/configs"
	if err := c.call(ctx, "list configs", http.MethodGet, path, nil, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// AttachPipeline returns a handle for a pipeline created elsewhere. Unlike
// pipelines returned by ProjectConfig.Run it issues no start call, and its
// state is StateUnknown until a lifecycle call succeeds.
func (c *Connection) AttachPipeline(id PipelineID) *Pipeline {
	return &Pipeline{ID: id, conn: c, state: StateUnknown}
}

func projectPath(id ProjectID) string {
	return fmt.Sprintf("/v0/projects/%d", id)
}

func pipelinePath(id PipelineID) string {
	return fmt.Sprintf("/v0/pipelines/%d", id)
}
