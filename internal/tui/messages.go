package tui

import (
	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/billie-coop/sift/internal/projectstore"
	"github.com/billie-coop/sift/internal/selection"
)

// navigateMsg asks the root model to show another location.
type navigateMsg struct {
	loc selection.Location
}

// Navigate returns a command that moves the app to loc.
func Navigate(loc selection.Location) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{loc: loc}
	}
}

// loadedMsg reports that a project session finished loading.
type loadedMsg struct {
	sessionID string
	err       error
}

type projectsMsg struct {
	projects []projectstore.Project
	err      error
}

type projectCreatedMsg struct {
	project *projectstore.Project
	err     error
}

type projectDeletedMsg struct {
	id  int
	err error
}

type authResultMsg struct {
	err error
}
