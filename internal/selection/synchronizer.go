// Package selection keeps the selected project file consistent with the
// navigational location.
package selection

import (
	"sync"

	"github.com/billie-coop/sift/internal/projectstore"
)

// ChangeKind says what a Sync did to the selection.
type ChangeKind int

const (
	// Unchanged means the selection is the same file (or still none).
	Unchanged ChangeKind = iota
	// Selected means a different file is now selected.
	Selected
	// Cleared means a previously selected file is no longer selected.
	Cleared
)

func (k ChangeKind) String() string {
	switch k {
	case Selected:
		return "selected"
	case Cleared:
		return "cleared"
	default:
		return "unchanged"
	}
}

// State is the resolved selection. Path is empty when no file is selected.
type State struct {
	ProjectID int
	Path      string
}

// HasFile reports whether a file is selected.
func (s State) HasFile() bool {
	return s.Path != ""
}

// Change is the result of a Sync.
type Change struct {
	Kind  ChangeKind
	File  projectstore.File // set when Kind == Selected
	State State
}

// Synchronizer derives the selection from (project, path parameter).
//
// It recomputes only when one of the two inputs changes, and reports a
// change only when the resolved file differs by value. Passing a freshly
// fetched *Project with the same files therefore never re-triggers.
type Synchronizer struct {
	mu        sync.Mutex
	synced    bool
	project   *projectstore.Project
	projectID int
	path      string
	file      *projectstore.File
}

// NewSynchronizer creates an empty synchronizer.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// Sync resolves path against project. An unmatched path, or a nil project,
// resolves to "no file selected".
func (s *Synchronizer) Sync(project *projectstore.Project, path string) Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	projectID := 0
	if project != nil {
		projectID = project.ID
	}

	if s.synced && project == s.project && projectID == s.projectID && path == s.path {
		return Change{Kind: Unchanged, State: s.stateLocked()}
	}
	s.synced = true
	s.project = project
	s.projectID = projectID
	s.path = path

	file, found := project.FindFile(path)
	if !found || path == "" {
		if s.file == nil {
			return Change{Kind: Unchanged, State: s.stateLocked()}
		}
		s.file = nil
		return Change{Kind: Cleared, State: s.stateLocked()}
	}

	if s.file != nil && *s.file == file {
		return Change{Kind: Unchanged, State: s.stateLocked()}
	}
	s.file = &file
	return Change{Kind: Selected, File: file, State: s.stateLocked()}
}

// File returns the selected file, if any.
func (s *Synchronizer) File() (projectstore.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return projectstore.File{}, false
	}
	return *s.file, true
}

// Reset forgets inputs and selection.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = false
	s.project = nil
	s.projectID = 0
	s.path = ""
	s.file = nil
}

func (s *Synchronizer) stateLocked() State {
	state := State{ProjectID: s.projectID}
	if s.file != nil {
		state.Path = s.file.Path
	}
	return state
}
