package session

import (
	"github.com/billie-coop/sift/internal/analyzer"
	"github.com/billie-coop/sift/internal/projectstore"
)

// Mode says which kind of view a session backs.
type Mode int

const (
	// ModeSandbox sessions analyze free-text edits.
	ModeSandbox Mode = iota
	// ModeProject sessions analyze the selected file of a stored project.
	ModeProject
)

func (m Mode) String() string {
	if m == ModeProject {
		return "project"
	}
	return "sandbox"
}

// State is the observable phase of a session.
type State int

const (
	Idle State = iota
	PendingDebounce
	RequestInFlight
	ResultShown
	// ResultStale is transient and never appears in a Snapshot. Stale
	// responses are reported through events.AnalysisDroppedEvent instead.
	ResultStale
	Failed
	// AuthRequired is terminal: the credential was rejected and the user has
	// to authenticate again.
	AuthRequired
)

func (s State) String() string {
	switch s {
	case PendingDebounce:
		return "pending"
	case RequestInFlight:
		return "analyzing"
	case ResultShown:
		return "result"
	case ResultStale:
		return "stale"
	case Failed:
		return "failed"
	case AuthRequired:
		return "auth-required"
	default:
		return "idle"
	}
}

// Settled reports whether nothing is scheduled or outstanding.
func (s State) Settled() bool {
	return s != PendingDebounce && s != RequestInFlight
}

// FailureMessage is shown for any accepted request error.
const FailureMessage = "Analysis failed. Edit the code or analyze again to retry."

// AuthMessage is shown when the credential is rejected.
const AuthMessage = "Your session has expired. Please log in again."

// Snapshot is a consistent copy of everything a view needs to draw a session.
type Snapshot struct {
	ID      string
	Mode    Mode
	State   State
	Kind    analyzer.Kind
	Content string // sandbox text

	Result  *analyzer.Result
	Err     error
	Message string
	Seq     uint64 // ticket of the displayed outcome

	Project  *projectstore.Project
	Selected *projectstore.File // nil when no file is selected
	Loading  bool
	Closed   bool
}

// SelectedUnit returns the unit being analyzed, if any.
func (s Snapshot) SelectedUnit() (analyzer.CodeUnit, bool) {
	switch {
	case s.Mode == ModeSandbox && !analyzer.SandboxUnit(s.Kind, s.Content).IsBlank():
		return analyzer.SandboxUnit(s.Kind, s.Content), true
	case s.Selected != nil:
		return s.Selected.Unit(), true
	}
	return analyzer.CodeUnit{}, false
}

// StatePayload is the payload of events.SessionStateEvent.
type StatePayload struct {
	Snapshot Snapshot
}
