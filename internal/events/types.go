// Package events carries session and UI notifications between the
// orchestration core and whatever presents it.
package events

// EventType identifies the type of event
type EventType string

// Wildcard subscribes to every event type.
const Wildcard EventType = "*"

const (
	// Session events
	SessionStateEvent    EventType = "session.state"
	SessionClosedEvent   EventType = "session.closed"
	AnalysisDroppedEvent EventType = "analysis.dropped"

	// Auth events
	AuthRequiredEvent EventType = "auth.required"
	AuthChangedEvent  EventType = "auth.changed"

	// Project events
	ProjectLoadedEvent EventType = "project.loaded"

	// Selection events
	SelectionChangedEvent EventType = "selection.changed"
	SelectionClearedEvent EventType = "selection.cleared"

	// UI events
	StatusMessageEvent EventType = "ui.status"
)

// Event represents an event in the system
type Event struct {
	Type    EventType
	Payload any
}

// Event payload types

// AnalysisDroppedPayload reports a response that lost to a newer request.
type AnalysisDroppedPayload struct {
	SessionID string
	Seq       uint64
	Latest    uint64
}

// AuthRequiredPayload asks the app to route the user to authentication.
type AuthRequiredPayload struct {
	SessionID string
	Reason    string
}

// AuthChangedPayload is published on login and logout.
type AuthChangedPayload struct {
	LoggedIn bool
	Username string
}

type ProjectLoadedPayload struct {
	SessionID string
	ProjectID int
	Name      string
	FileCount int
}

// SelectionPayload is used by both selection events. Path is empty on clear.
type SelectionPayload struct {
	SessionID string
	ProjectID int
	Path      string
}

type SessionClosedPayload struct {
	SessionID string
}

type StatusMessagePayload struct {
	Message string
	Type    string // "info", "warning", "error", "success"
}
