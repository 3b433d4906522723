package dbsp

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Descriptor names a transport or format and carries its settings. The
// client never inspects Config; it is forwarded to the server as is.
type Descriptor struct {
	Name   string         `yaml:"name" toml:"name"`
	Config map[string]any `yaml:"config,omitempty" toml:"config,omitempty"`
}

// EndpointConfig pairs a transport with a format for one input or output.
// Stream names the table or view the endpoint is bound to.
type EndpointConfig struct {
	Stream    string     `yaml:"stream,omitempty" toml:"stream,omitempty"`
	Transport Descriptor `yaml:"transport" toml:"transport"`
	Format    Descriptor `yaml:"format" toml:"format"`
}

// PipelineDocument is the configuration document stored on the server.
type PipelineDocument struct {
	Workers int                       `yaml:"workers"`
	Inputs  map[string]EndpointConfig `yaml:"inputs"`
	Outputs map[string]EndpointConfig `yaml:"outputs"`
}

// ProjectConfig accumulates endpoints for a project and publishes them as a
// pipeline. The first Run creates the remote config; later runs update it in
// place, so one ProjectConfig maps to one config id on the server.
type ProjectConfig struct {
	project *Project
	name    string
	workers int

	mu            sync.Mutex
	inputs        map[string]EndpointConfig
	outputs       map[string]EndpointConfig
	configID      ConfigID
	configVersion Version
	published     bool
}

// Name returns the config name sent to the server.
func (pc *ProjectConfig) Name() string { return pc.name }

// AddInput registers an input endpoint. Names must be unique among inputs.
func (pc *ProjectConfig) AddInput(name string, endpoint EndpointConfig) error {
	return pc.add("input", pc.inputs, name, endpoint)
}

// AddOutput registers an output endpoint. Names must be unique among outputs.
func (pc *ProjectConfig) AddOutput(name string, endpoint EndpointConfig) error {
	return pc.add("output", pc.outputs, name, endpoint)
}

func (pc *ProjectConfig) add(kind string, into map[string]EndpointConfig, name string, endpoint EndpointConfig) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("add %s: name is required", kind)
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if _, exists := into[name]; exists {
		return fmt.Errorf("add %s %q: %w", kind, name, ErrDuplicateEndpoint)
	}
	into[name] = endpoint
	return nil
}

// Document returns a copy of the accumulated configuration.
func (pc *ProjectConfig) Document() PipelineDocument {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return PipelineDocument{
		Workers: pc.workers,
		Inputs:  maps.Clone(pc.inputs),
		Outputs: maps.Clone(pc.outputs),
	}
}

// Render serialises the configuration document as YAML.
func (pc *ProjectConfig) Render() (string, error) {
	out, err := yaml.Marshal(pc.Document())
	if err != nil {
		return "", fmt.Errorf("render config: %w", err)
	}
	return string(out), nil
}

// RemoteID reports the id and version of the published config, if any.
func (pc *ProjectConfig) RemoteID() (ConfigID, Version, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.configID, pc.configVersion, pc.published
}

// Restore binds the config to a remote config published by an earlier
// session so that the next Run updates it instead of creating a new one.
func (pc *ProjectConfig) Restore(id ConfigID, version Version) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.configID = id
	pc.configVersion = version
	pc.published = true
}

// Run publishes the configuration and starts a pipeline from it. The project
// must already have compiled successfully; the server rejects the pipeline
// otherwise.
func (pc *ProjectConfig) Run(ctx context.Context) (*Pipeline, error) {
	rendered, err := pc.Render()
	if err != nil {
		return nil, err
	}
	if err := pc.publish(ctx, rendered); err != nil {
		return nil, err
	}

	configID, configVersion, _ := pc.RemoteID()
	conn := pc.project.conn
	req := newPipelineRequest{
		ProjectID:      pc.project.ID,
		ProjectVersion: pc.project.Version(),
		ConfigID:       configID,
		ConfigVersion:  configVersion,
	}
	var resp newPipelineResponse
	if err := conn.call(ctx, "create pipeline", http.MethodPost, "/v0/pipelines", req, &resp); err != nil {
		return nil, err
	}
	conn.logger.Info("pipeline created",
		slog.Int64("pipeline_id", int64(resp.PipelineID)),
		slog.Int64("project_id", int64(pc.project.ID)),
		slog.Int64("config_id", int64(configID)),
		slog.Int64("config_version", int64(configVersion)),
	)
	return newPipeline(ctx, conn, resp.PipelineID, resp.Port)
}

func (pc *ProjectConfig) publish(ctx context.Context, rendered string) error {
	conn := pc.project.conn
	id, _, published := pc.RemoteID()

	if !published {
		var resp newConfigResponse
		req := newConfigRequest{ProjectID: pc.project.ID, Name: pc.name, Config: rendered}
		if err := conn.call(ctx, "create config", http.MethodPost, "/v0/configs", req, &resp); err != nil {
			return err
		}
		pc.Restore(resp.ConfigID, resp.Version)
		return nil
	}

	var resp updateConfigResponse
	req := updateConfigRequest{ConfigID: id, Name: pc.name, Config: &rendered}
	if err := conn.call(ctx, "update config", http.MethodPatch, "/v0/configs", req, &resp); err != nil {
		return err
	}
	pc.Restore(id, resp.Version)
	return nil
}

// Delete removes the published config from the server.
func (pc *ProjectConfig) Delete(ctx context.Context) error {
	id, _, published := pc.RemoteID()
	if !published {
		return ErrNoRemoteConfig
	}
	path := fmt.Sprintf("/v0/configs/%d", id)
	if err := pc.project.conn.call(ctx, "delete config", http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.configID = 0
	pc.configVersion = 0
	pc.published = false
	return nil
}
