package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/sift/internal/app"
	"github.com/billie-coop/sift/internal/selection"
	"github.com/billie-coop/sift/internal/tui/styles"
)

type menuItem struct {
	label   string
	binding key.Binding
	action  func() tea.Cmd
}

// homeScreen is the landing menu.
type homeScreen struct {
	app    *app.App
	keys   KeyMap
	cursor int
}

func newHomeScreen(a *app.App, keys KeyMap) *homeScreen {
	return &homeScreen{app: a, keys: keys}
}

func (h *homeScreen) items() []menuItem {
	items := []menuItem{
		{"Sandbox", h.keys.Sandbox, func() tea.Cmd {
			return Navigate(selection.Location{Route: selection.RouteSandbox})
		}},
		{"Projects", h.keys.Projects, func() tea.Cmd {
			return Navigate(selection.Location{Route: selection.RouteProjects})
		}},
	}
	if h.app.AuthService.LoggedIn() {
		items = append(items, menuItem{"Log out", h.keys.Logout, func() tea.Cmd {
			h.app.AuthService.Logout()
			return nil
		}})
	} else {
		items = append(items, menuItem{"Log in", h.keys.Login, func() tea.Cmd {
			return Navigate(selection.Location{Route: selection.RouteAuth})
		}})
	}
	return items
}

func (h *homeScreen) Init() tea.Cmd { return nil }

func (h *homeScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return h, nil
	}

	items := h.items()
	switch {
	case key.Matches(keyMsg, h.keys.Up):
		if h.cursor > 0 {
			h.cursor--
		}
		return h, nil
	case key.Matches(keyMsg, h.keys.Down):
		if h.cursor < len(items)-1 {
			h.cursor++
		}
		return h, nil
	case key.Matches(keyMsg, h.keys.Open):
		if h.cursor < len(items) {
			return h, items[h.cursor].action()
		}
	case keyMsg.String() == "q":
		return h, tea.Quit
	}

	for _, item := range items {
		if key.Matches(keyMsg, item.binding) {
			return h, item.action()
		}
	}
	return h, nil
}

func (h *homeScreen) SetSize(width, height int) tea.Cmd { return nil }

func (h *homeScreen) View() string {
	st := styles.CurrentTheme().S()
	items := h.items()
	h.cursor = min(h.cursor, len(items)-1)

	var menu strings.Builder
	for i, item := range items {
		line := item.label + st.Subtle.Render("  "+item.binding.Help().Key)
		if i == h.cursor {
			line = st.Selected.Render("▸ "+item.label) + st.Subtle.Render("  "+item.binding.Help().Key)
		} else {
			line = "  " + line
		}
		menu.WriteString(line + "\n")
	}

	who := st.Muted.Render("Not logged in")
	if h.app.AuthService.LoggedIn() {
		name := h.app.AuthService.Username()
		if name == "" {
			name = "unknown user"
		}
		who = st.Text.Render("Logged in as " + name)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		st.Title.Render("sift"),
		st.Subtitle.Render("code analysis while you type"),
		"",
		who,
		"",
		strings.TrimSuffix(menu.String(), "\n"),
		"",
		st.Help.Render(helpLine(h.keys.Up, h.keys.Down, h.keys.Open, h.keys.Quit)),
	)
}

func (h *homeScreen) Location() selection.Location { return selection.Home }

func (h *homeScreen) Title() string { return "Home" }

func (h *homeScreen) Capturing() bool { return false }

func (h *homeScreen) Close() {}
