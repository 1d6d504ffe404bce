package core

import (
	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/billie-coop/sift/internal/selection"
)

// Component is the base interface for all TUI components
type Component interface {
	Init() tea.Cmd
	Update(tea.Msg) (tea.Model, tea.Cmd)
	View() string
}

// Sizeable components can be resized
type Sizeable interface {
	SetSize(width, height int) tea.Cmd
}

// Screen is what a route renders. The root model owns exactly one at a time
// and calls Close before replacing it.
type Screen interface {
	Component
	Sizeable

	// Location is where the screen currently is. It can change without a
	// new screen, e.g. selecting another file in a project.
	Location() selection.Location

	// Title is shown in the status bar.
	Title() string

	// Capturing reports whether keys should go to a text field before the
	// root model's global bindings.
	Capturing() bool

	Close()
}
