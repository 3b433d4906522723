// Package state holds the dashboard's view of the server behind a mutex.
//
// The poller in internal/app writes with Update; the UI reads with Snapshot.
// Snapshots are deep enough copies that the UI can sort or mutate them
// freely. A failed poll keeps the last good project list and bumps
// ConsecutiveFailures; two in a row mark the server offline.
package state
