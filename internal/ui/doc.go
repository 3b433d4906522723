// Package ui implements the `dbspctl watch` dashboard with bubbletea.
//
// # Layout
//
//	┌ header: server, project/compile/failure counts, last refresh ┐
//	│ Projects table   (ID, name, version, compile status, detail) │
//	│ Pipelines table  (pipelines of the selected project)         │
//	│ last action result                                           │
//	│ tail of the dbspctl log file                                 │
//	└ key help                                                     ┘
//
// The model never talks to the server for reads. It re-reads the
// state.Store snapshot on every tick; internal/app keeps the store fresh.
// Pipeline actions (p pause, s shutdown, D teardown) apply to the selected
// row of the pipelines table and run as tea.Cmds through the Actions
// interface, so the update loop never blocks on the network.
//
// # Themes
//
// Dracula and Slate are built in; T cycles between them. Compile statuses
// and pipeline states are coloured through Theme.StatusColors, keyed by the
// lower-cased label.
//
// # Header
//
// The header is drawn on a surface helper so spaces keep the surface colour
// between separately styled words.
package ui
