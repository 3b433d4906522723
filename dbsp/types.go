package dbsp

import "encoding/json"

// ProjectID identifies a project on the server.
type ProjectID int64

// ConfigID identifies a stored pipeline configuration.
type ConfigID int64

// PipelineID identifies a pipeline instance.
type PipelineID int64

// Version is the server-assigned revision of a project or config.
type Version int64

// ProjectDescr mirrors one entry of GET /v0/projects.
type ProjectDescr struct {
	ProjectID ProjectID       `json:"project_id"`
	Name      string          `json:"name"`
	Version   Version         `json:"version"`
	Status    json.RawMessage `json:"status,omitempty"`
}

// CompileStatus decodes the raw status carried by the descriptor.
func (d ProjectDescr) CompileStatus() (CompileStatus, error) {
	return ParseCompileStatus(d.Status)
}

// PipelineDescr mirrors one entry of GET /v0/projects/{id}/pipelines.
type PipelineDescr struct {
	PipelineID     PipelineID `json:"pipeline_id"`
	ProjectID      ProjectID  `json:"project_id"`
	ProjectVersion Version    `json:"project_version"`
	Port           uint16     `json:"port"`
	Killed         bool       `json:"killed"`
	Created        string     `json:"created"`
}

// ConfigDescr mirrors one entry of GET /v0/projects/{id}/configs. Config is
// the YAML document as last published.
type ConfigDescr struct {
	ConfigID  ConfigID  `json:"config_id"`
	ProjectID ProjectID `json:"project_id"`
	Version   Version   `json:"version"`
	Name      string    `json:"name"`
	Config    string    `json:"config"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type newProjectRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type newProjectResponse struct {
	ProjectID ProjectID `json:"project_id"`
	Version   Version   `json:"version"`
}

type updateProjectRequest struct {
	ProjectID ProjectID `json:"project_id"`
	Name      string    `json:"name"`
	Code      *string   `json:"code,omitempty"`
}

type updateProjectResponse struct {
	Version Version `json:"version"`
}

type projectStatusResponse struct {
	ProjectID ProjectID       `json:"project_id"`
	Name      string          `json:"name"`
	Version   Version         `json:"version"`
	Status    json.RawMessage `json:"status"`
}

type projectCodeResponse struct {
	Version Version `json:"version"`
	Code    string  `json:"code"`
}

type compileProjectRequest struct {
	ProjectID ProjectID `json:"project_id"`
	Version   Version   `json:"version"`
}

type newConfigRequest struct {
	ProjectID ProjectID `json:"project_id"`
	Name      string    `json:"name"`
	Config    string    `json:"config"`
}

type newConfigResponse struct {
	ConfigID ConfigID `json:"config_id"`
	Version  Version  `json:"version"`
}

type updateConfigRequest struct {
	ConfigID ConfigID `json:"config_id"`
	Name     string   `json:"name"`
	Config   *string  `json:"config,omitempty"`
}

type updateConfigResponse struct {
	Version Version `json:"version"`
}

type newPipelineRequest struct {
	ProjectID      ProjectID `json:"project_id"`
	ProjectVersion Version   `json:"project_version"`
	ConfigID       ConfigID  `json:"config_id"`
	ConfigVersion  Version   `json:"config_version"`
}

type newPipelineResponse struct {
	PipelineID PipelineID `json:"pipeline_id"`
	Port       uint16     `json:"port"`
}

type shutdownPipelineRequest struct {
	PipelineID PipelineID `json:"pipeline_id"`
}
