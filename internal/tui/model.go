package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/billie-coop/sift/internal/app"
	"github.com/billie-coop/sift/internal/events"
	"github.com/billie-coop/sift/internal/selection"
	"github.com/billie-coop/sift/internal/session"
	"github.com/billie-coop/sift/internal/tui/components/core"
	"github.com/billie-coop/sift/internal/tui/components/status"
	"github.com/billie-coop/sift/internal/tui/styles"
)

const statusHeight = 1

// Model is the root Bubble Tea model. It owns one screen per route and
// closes it on navigation, which ends the screen's analysis session.
type Model struct {
	width  int
	height int

	// Components
	screen    core.Screen
	statusBar *status.Component
	renders   *styles.MarkdownCache
	keys      KeyMap

	// Event system
	eventSub <-chan events.Event

	// App holds all business logic
	app   *app.App
	start selection.Location

	// authNotice is shown on the next auth screen, e.g. why the user was sent there.
	authNotice string
}

// New creates the root model. The first screen opens in Init.
func New(a *app.App, start selection.Location) (*Model, error) {
	styles.SetDefaultManager(styles.NewManager(a.Config.Get().Theme))

	renders, err := styles.NewMarkdownCache(styles.DefaultRenderCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}

	return &Model{
		statusBar: status.New(),
		renders:   renders,
		keys:      DefaultKeyMap(),
		eventSub:  a.EventBroker.Subscribe(),
		app:       a,
		start:     start,
	}, nil
}

// Init opens the start location and starts listening to the broker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.open(m.start),
		m.listenForEvents(),
		m.statusBar.ShowInfo("Welcome to sift"),
	)
}

// Update handles all TUI updates and routes to the current screen
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case events.Event:
		cmds = append(cmds, m.handleEvent(msg), m.listenForEvents())

	case navigateMsg:
		return m, m.open(msg.loc)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		cmds = append(cmds, m.statusBar.SetSize(m.width, statusHeight))
		if m.screen != nil {
			cmds = append(cmds, m.screen.SetSize(m.width, m.height-statusHeight))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.closeScreen()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back) && m.screen != nil && !m.screen.Capturing():
			return m, m.open(parent(m.screen.Location()))
		}
	}

	if _, ok := msg.(tea.KeyPressMsg); !ok {
		_, cmd := m.statusBar.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.screen != nil {
		_, cmd := m.screen.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View renders the current screen above the status bar
func (m *Model) View() tea.View {
	if m.width == 0 || m.height == 0 || m.screen == nil {
		return tea.NewView("Initializing...")
	}

	m.statusBar.SetLeftContent(fmt.Sprintf("%s · %s", m.screen.Title(), m.screen.Location()))
	body := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height - statusHeight).
		MaxHeight(m.height - statusHeight).
		Render(m.screen.View())

	return tea.NewView(lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar.View()))
}

// Location reports where the app currently is.
func (m *Model) Location() selection.Location {
	if m.screen == nil {
		return m.start
	}
	return m.screen.Location()
}

// open swaps the current screen for one showing loc. A file change inside
// the open project reuses its session so the selection synchronizer sees it.
func (m *Model) open(loc selection.Location) tea.Cmd {
	if needsLogin(loc) && m.app.AuthService.Expired() {
		logx.Infof("token expired, sending %s to authorization", loc)
		m.authNotice = session.AuthMessage
		m.app.AuthService.Logout()
		loc = selection.Location{Route: selection.RouteAuth}
	}
	if ps, ok := m.screen.(*projectScreen); ok && loc.Route == selection.RouteProject && loc.ProjectID == ps.projectID {
		return ps.selectPath(loc.FilePath)
	}

	next, err := m.newScreen(loc)
	if err != nil {
		logx.Errorf("failed to open %s: %v", loc, err)
		if m.screen != nil {
			return m.statusBar.ShowError(fmt.Sprintf("Cannot open %s", loc))
		}
		next, _ = m.newScreen(selection.Home)
	}

	m.closeScreen()
	m.screen = next
	logx.Infof("navigated to %s", loc)

	cmds := []tea.Cmd{m.screen.Init()}
	if m.width > 0 {
		cmds = append(cmds, m.screen.SetSize(m.width, m.height-statusHeight))
	}
	return tea.Batch(cmds...)
}

func (m *Model) newScreen(loc selection.Location) (core.Screen, error) {
	switch loc.Route {
	case selection.RouteSandbox:
		return newSandboxScreen(m.app, m.renders, m.keys)
	case selection.RouteProjects:
		return newProjectsScreen(m.app, m.keys), nil
	case selection.RouteProject:
		return newProjectScreen(m.app, m.renders, m.keys, loc)
	case selection.RouteAuth, selection.RouteRegister:
		notice := m.authNotice
		m.authNotice = ""
		return newAuthScreen(m.app, m.keys, loc.Route == selection.RouteRegister, notice), nil
	default:
		return newHomeScreen(m.app, m.keys), nil
	}
}

func (m *Model) closeScreen() {
	if m.screen != nil {
		m.screen.Close()
	}
}

// needsLogin reports whether loc only works with a valid token.
func needsLogin(loc selection.Location) bool {
	return loc.Route == selection.RouteProjects || loc.Route == selection.RouteProject
}

// parent is where esc goes from loc.
func parent(loc selection.Location) selection.Location {
	if loc.Route == selection.RouteProject {
		return selection.Location{Route: selection.RouteProjects}
	}
	return selection.Home
}

// listenForEvents creates a command that waits for events
func (m *Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.eventSub
		if !ok {
			return nil
		}
		return event
	}
}

func (m *Model) handleEvent(event events.Event) tea.Cmd {
	switch event.Type {
	case events.StatusMessageEvent:
		if payload, ok := event.Payload.(events.StatusMessagePayload); ok {
			return m.statusBar.SetMessage(payload.Message, status.ParseType(payload.Type))
		}

	case events.AuthRequiredEvent:
		payload, _ := event.Payload.(events.AuthRequiredPayload)
		if _, onAuth := m.screen.(*authScreen); onAuth {
			return nil
		}
		m.authNotice = payload.Reason
		if m.app.AuthService.LoggedIn() {
			m.app.AuthService.Logout()
		}
		return Navigate(selection.Location{Route: selection.RouteAuth})

	case events.AuthChangedEvent:
		if payload, ok := event.Payload.(events.AuthChangedPayload); ok && payload.LoggedIn {
			return m.statusBar.SetMessage("Logged in as "+payload.Username, status.Success)
		}
		return m.statusBar.ShowInfo("Logged out")

	case events.AnalysisDroppedEvent:
		if payload, ok := event.Payload.(events.AnalysisDroppedPayload); ok {
			logx.Debugf("session %s dropped response %d (latest %d)", payload.SessionID, payload.Seq, payload.Latest)
		}
	}
	return nil
}
