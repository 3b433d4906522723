// Package workspace remembers which remote config each project/config name
// pair was published as, so repeated `dbspctl run` invocations update the
// same config instead of creating a new one each time.
// The record is stored in ~/.local/share/dbspctl/workspace.toml.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/dbspctl/dbsp"
)

// Entry is one published config.
type Entry struct {
	ProjectID     int64  `toml:"project_id"`
	ConfigName    string `toml:"config_name"`
	ConfigID      int64  `toml:"config_id"`
	ConfigVersion int64  `toml:"config_version"`
	PipelineID    int64  `toml:"pipeline_id,omitempty"`
}

// Workspace is the persisted set of entries.
type Workspace struct {
	Configs []Entry `toml:"configs"`
}

const defaultWorkspacePath = "~/.local/share/dbspctl/workspace.toml"

// DefaultPath returns the default workspace file path.
func DefaultPath() string {
	return defaultWorkspacePath
}

// Load reads the workspace at path. A missing or unreadable file yields an
// empty workspace; the worst outcome is a fresh remote config.
func Load(path string) (Workspace, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Workspace{}, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Workspace{}, nil
		}
		return Workspace{}, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Workspace{}, nil // Graceful degradation
	}

	var ws Workspace
	if err := toml.Unmarshal(bytes, &ws); err != nil {
		return Workspace{}, nil // Graceful degradation
	}
	return ws, nil
}

// Save writes the workspace to path, creating directories as needed.
func Save(path string, ws Workspace) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create workspace dir: %w", err)
	}

	sort.Slice(ws.Configs, func(i, j int) bool {
		a, b := ws.Configs[i], ws.Configs[j]
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		return a.ConfigName < b.ConfigName
	})

	bytes, err := toml.Marshal(ws)
	if err != nil {
		return fmt.Errorf("marshal workspace: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write workspace: %w", err)
	}
	return nil
}

// Lookup returns the entry for a project and config name.
func (w Workspace) Lookup(project dbsp.ProjectID, configName string) (Entry, bool) {
	name := strings.TrimSpace(configName)
	for _, e := range w.Configs {
		if e.ProjectID == int64(project) && e.ConfigName == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Record stores or replaces the entry for the config's project and name.
func (w *Workspace) Record(e Entry) {
	e.ConfigName = strings.TrimSpace(e.ConfigName)
	for i, existing := range w.Configs {
		if existing.ProjectID == e.ProjectID && existing.ConfigName == e.ConfigName {
			w.Configs[i] = e
			return
		}
	}
	w.Configs = append(w.Configs, e)
}

// Forget drops the entry for a project and config name, if any.
func (w *Workspace) Forget(project dbsp.ProjectID, configName string) {
	name := strings.TrimSpace(configName)
	kept := w.Configs[:0]
	for _, e := range w.Configs {
		if e.ProjectID == int64(project) && e.ConfigName == name {
			continue
		}
		kept = append(kept, e)
	}
	w.Configs = kept
}

// Restore seeds cfg with a previously recorded remote identity.
func (w Workspace) Restore(project dbsp.ProjectID, cfg *dbsp.ProjectConfig) bool {
	e, ok := w.Lookup(project, cfg.Name())
	if !ok {
		return false
	}
	cfg.Restore(dbsp.ConfigID(e.ConfigID), dbsp.Version(e.ConfigVersion))
	return true
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultWorkspacePath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
