// Package app runs the `dbspctl watch` dashboard.
//
// # Overview
//
// Run wires a dbsp.Connection into a state.Store through a background Poller
// and hands the store to the ui package. It is the only place in the
// repository that starts a goroutine; the dbsp library itself never does.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> state.Store{}       Shared snapshot
//	       ├─────> Poller.Refresh()    Populate before the first frame
//	       ├─────> Poller.Start()      Background updates
//	       └─────> ui.Run()            Dashboard (blocks)
//
//	Poller loop:
//	  ListProjects → CompileStatus per project → ListPipelines per project
//	  → store.Update() → wait
//
// # Polling Behavior
//
// The poller waits PollEvery (default 2s) between polls. After consecutive
// failures the wait doubles per failure, capped at 30 seconds, and returns to
// the base interval after the next success. Waiting goes through a
// clockwork.Clock so tests drive the loop with a fake clock.
//
// Poll failures are logged and recorded in the store; they never stop the
// dashboard. The dashboard's pipeline actions (pause, shutdown, teardown)
// go through dbsp.Connection.AttachPipeline.
package app
