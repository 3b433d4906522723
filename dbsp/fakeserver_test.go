package dbsp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const (
	testProjectID  ProjectID  = 7
	testConfigID   ConfigID   = 11
	testPipelineID PipelineID = 21
)

type recordedCall struct {
	Method string
	Path   string
	Body   []byte
}

// fakeServer scripts the subset of the REST surface the client uses. Routes
// listed in failures answer with the given status and body instead.
type fakeServer struct {
	t   *testing.T
	srv *httptest.Server

	mu            sync.Mutex
	calls         []recordedCall
	statuses      []string
	statusIdx     int
	projectVer    Version
	configVersion Version
	failures      map[string]failure
	handlers      map[string]http.HandlerFunc
}

type failure struct {
	status int
	body   string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{
		t:          t,
		statuses:   []string{`"None"`},
		projectVer: 1,
		failures:   make(map[string]failure),
		handlers:   make(map[string]http.HandlerFunc),
	}
	fs.srv = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) URL() string { return fs.srv.URL }

// scriptStatuses sets the sequence returned by the project status route. The
// last entry repeats once the sequence is exhausted.
func (fs *fakeServer) scriptStatuses(raw ...string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.statuses = raw
	fs.statusIdx = 0
}

func (fs *fakeServer) fail(route string, status int, body string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failures[route] = failure{status: status, body: body}
}

// handle replaces the answer for route with h.
func (fs *fakeServer) handle(route string, h http.HandlerFunc) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.handlers[route] = h
}

func (fs *fakeServer) callsTo(route string) []recordedCall {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []recordedCall
	for _, c := range fs.calls {
		if c.Method+" "+c.Path == route {
			out = append(out, c)
		}
	}
	return out
}

func (fs *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	route := r.Method + " " + r.URL.Path

	fs.mu.Lock()
	fs.calls = append(fs.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Body: body})
	fail, failing := fs.failures[route]
	custom, hasCustom := fs.handlers[route]
	fs.mu.Unlock()

	if hasCustom {
		custom(w, r)
		return
	}

	if failing {
		w.WriteHeader(fail.status)
		_, _ = w.Write([]byte(fail.body))
		return
	}

	switch route {
	case "GET /v0/projects":
		fs.writeJSON(w, []ProjectDescr{{ProjectID: testProjectID, Name: "bids", Version: 1, Status: json.RawMessage(`"Success"`)}})
	case "POST /v0/projects":
		fs.writeJSON(w, newProjectResponse{ProjectID: testProjectID, Version: 1})
	case "PATCH /v0/projects":
		fs.mu.Lock()
		fs.projectVer++
		v := fs.projectVer
		fs.mu.Unlock()
		fs.writeJSON(w, updateProjectResponse{Version: v})
	case "GET /v0/projects/7":
		fs.writeJSON(w, projectStatusResponse{ProjectID: testProjectID, Name: "bids", Version: fs.version(), Status: json.RawMessage(fs.nextStatus())})
	case "GET /v0/projects/7/code":
		fs.writeJSON(w, projectCodeResponse{Version: fs.version(), Code: "create table bar(name string);"})
	case "GET /v0/projects/7/pipelines":
		fs.writeJSON(w, []PipelineDescr{{PipelineID: testPipelineID, ProjectID: testProjectID, ProjectVersion: 1, Port: 9000}})
	case "GET /v0/projects/7/configs":
		fs.writeJSON(w, []ConfigDescr{{ConfigID: testConfigID, ProjectID: testProjectID, Version: 2, Name: "bids-config", Config: "workers: 1\n"}})
	case "POST /v0/configs":
		fs.mu.Lock()
		fs.configVersion = 1
		fs.mu.Unlock()
		fs.writeJSON(w, newConfigResponse{ConfigID: testConfigID, Version: 1})
	case "PATCH /v0/configs":
		fs.mu.Lock()
		fs.configVersion++
		v := fs.configVersion
		fs.mu.Unlock()
		fs.writeJSON(w, updateConfigResponse{Version: v})
	case "POST /v0/pipelines":
		fs.writeJSON(w, newPipelineResponse{PipelineID: testPipelineID, Port: 9000})
	case "GET /v0/pipelines/21/status":
		fs.writeJSON(w, map[string]any{"state": "running", "total_input_records": 42})
	case "GET /v0/pipelines/21/metadata":
		fs.writeJSON(w, map[string]any{"project_id": 7, "code": "create table bar(name string);"})
	case "POST /v0/projects/compile",
		"POST /v0/projects/cancel",
		"DELETE /v0/projects/7",
		"DELETE /v0/configs/11",
		"POST /v0/pipelines/21/start",
		"POST /v0/pipelines/21/pause",
		"POST /v0/pipelines/shutdown",
		"DELETE /v0/pipelines/21":
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (fs *fakeServer) version() Version {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.projectVer
}

func (fs *fakeServer) nextStatus() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	raw := fs.statuses[fs.statusIdx]
	if fs.statusIdx < len(fs.statuses)-1 {
		fs.statusIdx++
	}
	return raw
}

func (fs *fakeServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fs.t.Errorf("encode response: %v", err)
	}
}

// openTestConnection connects to fs with a fake clock.
func openTestConnection(t *testing.T, fs *fakeServer) (*Connection, *clockwork.FakeClock) {
	t.Helper()
	clk := clockwork.NewFakeClock()
	conn, err := Open(context.Background(), fs.URL(), WithClock(clk), WithPollInterval(500*time.Millisecond))
	require.NoError(t, err)
	return conn, clk
}

// driveClock advances clk by step each time a bounded compile parks on its
// poll timer. While parked it holds two timers, the overall deadline and the
// poll wait; during a status round trip only the deadline is pending, so the
// clock never moves under an in-flight request. The returned function stops
// the driver.
func driveClock(clk *clockwork.FakeClock, step time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := clk.BlockUntilContext(ctx, 2); err != nil {
				return
			}
			clk.Advance(step)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
