package config

import (
	"fmt"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/dbspctl/dbsp"
)

// PipelineFile is the endpoints file consumed by `dbspctl run`.
//
//	name = "bids-config"
//	workers = 4
//
//	[inputs.bids]
//	stream = "BID"
//	transport = { name = "kafka", config = { "bootstrap.servers" = "localhost:9092", topics = ["bids"] } }
//	format = { name = "csv" }
type PipelineFile struct {
	Name    string                         `toml:"name"`
	Workers int                            `toml:"workers"`
	Inputs  map[string]dbsp.EndpointConfig `toml:"inputs"`
	Outputs map[string]dbsp.EndpointConfig `toml:"outputs"`
}

const defaultWorkers = 1

// LoadPipelineFile reads and validates a pipeline endpoints file. Descriptor
// configs are passed through unchanged.
func LoadPipelineFile(path string) (PipelineFile, error) {
	resolved, err := expandPath(path)
	if err != nil {
		return PipelineFile{}, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return PipelineFile{}, fmt.Errorf("read pipeline file: %w", err)
	}

	var pf PipelineFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return PipelineFile{}, fmt.Errorf("parse pipeline file: %w", err)
	}
	pf.Name = strings.TrimSpace(pf.Name)
	if pf.Workers == 0 {
		pf.Workers = defaultWorkers
	}
	if pf.Workers < 0 {
		return PipelineFile{}, fmt.Errorf("parse pipeline file: workers must be positive, got %d", pf.Workers)
	}
	for name, ep := range pf.Inputs {
		if strings.TrimSpace(ep.Transport.Name) == "" {
			return PipelineFile{}, fmt.Errorf("parse pipeline file: input %q has no transport name", name)
		}
	}
	for name, ep := range pf.Outputs {
		if strings.TrimSpace(ep.Transport.Name) == "" {
			return PipelineFile{}, fmt.Errorf("parse pipeline file: output %q has no transport name", name)
		}
	}
	return pf, nil
}

// EndpointAdder is satisfied by *dbsp.ProjectConfig.
type EndpointAdder interface {
	AddInput(name string, ep dbsp.EndpointConfig) error
	AddOutput(name string, ep dbsp.EndpointConfig) error
}

// Apply adds every endpoint in pf to cfg, stopping at the first rejection.
func (pf PipelineFile) Apply(cfg EndpointAdder) error {
	for name, ep := range pf.Inputs {
		if err := cfg.AddInput(name, ep); err != nil {
			return err
		}
	}
	for name, ep := range pf.Outputs {
		if err := cfg.AddOutput(name, ep); err != nil {
			return err
		}
	}
	return nil
}
