package dbsp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestProject(t *testing.T) (*fakeServer, *Project, func(time.Duration) func()) {
	t.Helper()
	fs := newFakeServer(t)
	conn, clk := openTestConnection(t, fs)
	project, err := conn.NewProject(context.Background(), "bids", "create table bar(name string);")
	require.NoError(t, err)
	return fs, project, func(step time.Duration) func() { return driveClock(clk, step) }
}

func TestProject_CompileWaitsForSuccess(t *testing.T) {
	t.Parallel()

	fs := newFakeServer(t)
	conn, clk := openTestConnection(t, fs)
	project, err := conn.NewProject(context.Background(), "bids", "create table bar(name string);")
	require.NoError(t, err)

	fs.scriptStatuses(`"Pending"`, `"Compiling"`, `"Compiling"`, `"Success"`)
	poll := 500 * time.Millisecond
	stop := driveClock(clk, poll)
	defer stop()

	start := clk.Now()
	require.NoError(t, project.Compile(context.Background(), 10*time.Second))
	elapsed := clk.Since(start)

	polls := len(fs.callsTo("GET /v0/projects/7"))
	require.GreaterOrEqual(t, polls, 3)
	require.Equal(t, 4, polls)
	require.GreaterOrEqual(t, elapsed, 2*poll)
	require.Less(t, elapsed, 10*time.Second)

	compiles := fs.callsTo("POST /v0/projects/compile")
	require.Len(t, compiles, 1)
	var req compileProjectRequest
	require.NoError(t, json.Unmarshal(compiles[0].Body, &req))
	require.Equal(t, testProjectID, req.ProjectID)
	require.Equal(t, Version(1), req.Version)
}

func TestProject_CompileTimesOut(t *testing.T) {
	t.Parallel()

	fs, project, drive := newTestProject(t)
	fs.scriptStatuses(`"Pending"`, `"Compiling"`)
	stop := drive(500 * time.Millisecond)
	defer stop()

	err := project.Compile(context.Background(), 2*time.Second)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, 2*time.Second, timeoutErr.Limit)
	require.Equal(t, 2*time.Second, timeoutErr.Elapsed)
}

func TestProject_CompileTimeoutClampsFinalWait(t *testing.T) {
	t.Parallel()

	fs, project, drive := newTestProject(t)
	fs.scriptStatuses(`"Compiling"`)
	// Advance in small steps so a clamped wait is not overshot.
	stop := drive(50 * time.Millisecond)
	defer stop()

	err := project.Compile(context.Background(), 1200*time.Millisecond)
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.GreaterOrEqual(t, timeoutErr.Elapsed, 1200*time.Millisecond)
	require.Less(t, timeoutErr.Elapsed, 1300*time.Millisecond)
}

func TestProject_CompileDeadlineBoundsSlowStatus(t *testing.T) {
	t.Parallel()

	fs := newFakeServer(t)
	conn, clk := openTestConnection(t, fs)
	project, err := conn.NewProject(context.Background(), "bids", "create table bar(name string);")
	require.NoError(t, err)

	entered := make(chan struct{}, 1)
	fs.handle("GET /v0/projects/7", func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		select {
		case <-r.Context().Done():
			return
		case <-time.After(5 * time.Second):
		}
		fs.writeJSON(w, projectStatusResponse{ProjectID: testProjectID, Name: "bids", Version: 1, Status: json.RawMessage(`"Compiling"`)})
	})

	errCh := make(chan error, 1)
	go func() { errCh <- project.Compile(context.Background(), 200*time.Millisecond) }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("status request never reached the server")
	}
	// Only the compile deadline is pending while the request is in flight.
	require.NoError(t, clk.BlockUntilContext(context.Background(), 1))
	clk.Advance(200 * time.Millisecond)

	select {
	case err := <-errCh:
		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		require.Equal(t, 200*time.Millisecond, timeoutErr.Limit)
		require.Equal(t, 200*time.Millisecond, timeoutErr.Elapsed)
		var srvErr *ServerError
		require.False(t, errors.As(err, &srvErr))
	case <-time.After(2 * time.Second):
		t.Fatal("Compile did not return at the deadline")
	}
}

func TestProject_CompileSQLErrorStopsPolling(t *testing.T) {
	t.Parallel()

	fs, project, drive := newTestProject(t)
	fs.scriptStatuses(`{"SqlError":"syntax error near X"}`, `"Success"`)
	stop := drive(500 * time.Millisecond)
	defer stop()

	err := project.Compile(context.Background(), 0)
	var compileErr *CompilationError
	require.ErrorAs(t, err, &compileErr)
	require.Equal(t, CompileSQLError, compileErr.Kind)
	require.Equal(t, "syntax error near X", compileErr.Detail)
	require.Len(t, fs.callsTo("GET /v0/projects/7"), 1)
}

func TestProject_CompileRustError(t *testing.T) {
	t.Parallel()

	fs, project, drive := newTestProject(t)
	fs.scriptStatuses(`"Pending"`, `{"RustError":"error[E0308]: mismatched types"}`)
	stop := drive(500 * time.Millisecond)
	defer stop()

	err := project.Compile(context.Background(), time.Minute)
	var compileErr *CompilationError
	require.ErrorAs(t, err, &compileErr)
	require.Equal(t, CompileRustError, compileErr.Kind)
	require.Contains(t, compileErr.Error(), "mismatched types")
	require.Len(t, fs.callsTo("GET /v0/projects/7"), 2)
}

func TestProject_CompileUnknownStatusIsProtocolError(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{`"Exploded"`, `"None"`, `{"LinkerError":"boom"}`, `42`} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			fs, project, drive := newTestProject(t)
			fs.scriptStatuses(raw)
			stop := drive(500 * time.Millisecond)
			defer stop()

			err := project.Compile(context.Background(), time.Minute)
			var protoErr *ProtocolError
			require.ErrorAs(t, err, &protoErr)
		})
	}
}

func TestProject_CompileRejectedBeforePolling(t *testing.T) {
	t.Parallel()

	fs, project, _ := newTestProject(t)
	fs.fail("POST /v0/projects/compile", 409, `{"message":"stale version"}`)

	err := project.Compile(context.Background(), time.Minute)
	var srvErr *ServerError
	require.ErrorAs(t, err, &srvErr)
	require.Equal(t, 409, srvErr.Status)
	require.Equal(t, "stale version", srvErr.Message)
	require.Empty(t, fs.callsTo("GET /v0/projects/7"))
}

func TestProject_CompileHonoursContextCancel(t *testing.T) {
	t.Parallel()

	fs, project, _ := newTestProject(t)
	fs.scriptStatuses(`"Compiling"`)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- project.Compile(ctx, 0) }()

	// Wait until the first status poll happened, then cancel.
	require.Eventually(t, func() bool {
		return len(fs.callsTo("GET /v0/projects/7")) > 0
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Compile did not return after cancel")
	}
}

func TestProject_StatusObservesVersion(t *testing.T) {
	t.Parallel()

	fs, project, _ := newTestProject(t)
	fs.scriptStatuses(`"Success"`)

	require.NoError(t, project.Update(context.Background(), "create table baz(id int);"))
	require.Equal(t, Version(2), project.Version())

	status, err := project.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status.Kind)
	require.Equal(t, Version(2), project.Version())

	updates := fs.callsTo("PATCH /v0/projects")
	require.Len(t, updates, 1)
	var req updateProjectRequest
	require.NoError(t, json.Unmarshal(updates[0].Body, &req))
	require.NotNil(t, req.Code)
	require.Equal(t, "create table baz(id int);", *req.Code)
}

func TestProject_CodeCancelDelete(t *testing.T) {
	t.Parallel()

	fs, project, _ := newTestProject(t)
	ctx := context.Background()

	code, err := project.Code(ctx)
	require.NoError(t, err)
	require.Equal(t, "create table bar(name string);", code)

	require.NoError(t, project.CancelCompile(ctx))
	require.Len(t, fs.callsTo("POST /v0/projects/cancel"), 1)

	require.NoError(t, project.Delete(ctx))
	require.Len(t, fs.callsTo("DELETE /v0/projects/7"), 1)
}

func TestProject_NewConfigValidates(t *testing.T) {
	t.Parallel()

	_, project, _ := newTestProject(t)

	_, err := project.NewConfig("", 1)
	require.Error(t, err)
	_, err = project.NewConfig("cfg", 0)
	require.Error(t, err)

	cfg, err := project.NewConfig("cfg", 2)
	require.NoError(t, err)
	require.Equal(t, "cfg", cfg.Name())
	require.Equal(t, 2, cfg.Document().Workers)
}
