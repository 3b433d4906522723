package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/dbspctl/dbsp"
)

// ProjectView is one project row with its compile status and pipelines.
type ProjectView struct {
	Project   dbsp.ProjectDescr
	Status    dbsp.CompileStatus
	StatusErr error
	Pipelines []dbsp.PipelineDescr
}

// PipelineCount returns the number of pipelines that are not killed.
func (v ProjectView) PipelineCount() int {
	n := 0
	for _, p := range v.Pipelines {
		if !p.Killed {
			n++
		}
	}
	return n
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Server              string
	Projects            []ProjectView
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the server has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SetServer records the address shown in the dashboard header.
func (s *Store) SetServer(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Server = addr
}

// Update replaces the stored projects. When err is non-nil the previous data
// is kept but the error is recorded for visibility.
func (s *Store) Update(projects []ProjectView, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Projects = cloneProjects(projects)
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Projects = cloneProjects(s.snapshot.Projects)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneProjects(items []ProjectView) []ProjectView {
	if len(items) == 0 {
		return nil
	}
	dup := make([]ProjectView, len(items))
	copy(dup, items)
	for i := range dup {
		if len(items[i].Pipelines) > 0 {
			dup[i].Pipelines = append([]dbsp.PipelineDescr(nil), items[i].Pipelines...)
		}
	}
	return dup
}
