package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeAPI answers the pipeline server routes the CLI touches. Handlers in
// overrides replace the default answer for one route. Config 4 is listed
// once it has been created.
type fakeAPI struct {
	srv *httptest.Server

	mu        sync.Mutex
	calls     []string
	overrides map[string]http.HandlerFunc
	configVer int
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{overrides: make(map[string]http.HandlerFunc)}
	api.srv = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.srv.Close)
	return api
}

func (a *fakeAPI) override(route string, h http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.overrides[route] = h
}

func (a *fakeAPI) count(route string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c == route {
			n++
		}
	}
	return n
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	route := r.Method + " " + r.URL.Path

	a.mu.Lock()
	a.calls = append(a.calls, route)
	h, ok := a.overrides[route]
	a.mu.Unlock()
	if ok {
		h(w, r)
		return
	}

	switch route {
	case "GET /v0/projects":
		writeTestJSON(w, []map[string]any{
			{"project_id": 2, "name": "nexmark", "version": 3, "status": map[string]string{"SqlError": "line 1: bad\nline 2: worse"}},
			{"project_id": 1, "name": "bids", "version": 1, "status": "Success"},
		})
	case "GET /v0/projects/1":
		writeTestJSON(w, map[string]any{"project_id": 1, "name": "bids", "version": 1, "status": "Success"})
	case "GET /v0/projects/1/pipelines":
		writeTestJSON(w, []map[string]any{
			{"pipeline_id": 9, "project_id": 1, "project_version": 1, "port": 9009, "killed": true},
			{"pipeline_id": 5, "project_id": 1, "project_version": 1, "port": 9005},
		})
	case "GET /v0/projects/1/configs":
		a.mu.Lock()
		v := a.configVer
		a.mu.Unlock()
		configs := []map[string]any{}
		if v > 0 {
			configs = append(configs, map[string]any{
				"config_id": 4, "project_id": 1, "version": v, "name": "bids-config", "config": "workers: 2\n",
			})
		}
		writeTestJSON(w, configs)
	case "POST /v0/configs":
		a.mu.Lock()
		a.configVer = 1
		a.mu.Unlock()
		writeTestJSON(w, map[string]any{"config_id": 4, "version": 1})
	case "PATCH /v0/configs":
		a.mu.Lock()
		a.configVer++
		v := a.configVer
		a.mu.Unlock()
		writeTestJSON(w, map[string]any{"version": v})
	case "POST /v0/pipelines":
		writeTestJSON(w, map[string]any{"pipeline_id": 5, "port": 9005})
	case "GET /v0/pipelines/5/status":
		writeTestJSON(w, map[string]any{"total_input_records": 12})
	case "POST /v0/pipelines/5/start", "POST /v0/pipelines/5/pause",
		"POST /v0/pipelines/shutdown", "DELETE /v0/pipelines/5":
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type cliEnv struct {
	api           *fakeAPI
	configPath    string
	workspacePath string
	baseDir       string
}

func setupCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", base)
	t.Setenv("DBSPCTL_SERVER", "")

	api := newFakeAPI(t)
	env := &cliEnv{
		api:           api,
		configPath:    filepath.Join(base, "config.toml"),
		workspacePath: filepath.Join(base, "workspace.toml"),
		baseDir:       base,
	}
	body := fmt.Sprintf("server = %q\nlog_dir = %q\nworkspace = %q\nlog_level = \"error\"\n",
		api.srv.URL, filepath.Join(base, "logs"), env.workspacePath)
	if err := os.WriteFile(env.configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliEnv) writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := e.runWithContext(t, args...)
	return out, err
}

func (e *cliEnv) runWithContext(t *testing.T, args ...string) (string, *commandContext, error) {
	t.Helper()
	cmd, cmdCtx := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := executeCommand(context.Background(), cmd, cmdCtx)
	return out.String(), cmdCtx, err
}
