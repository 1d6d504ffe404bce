package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/textarea"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/billie-coop/sift/internal/app"
	"github.com/billie-coop/sift/internal/events"
	"github.com/billie-coop/sift/internal/selection"
	"github.com/billie-coop/sift/internal/session"
	"github.com/billie-coop/sift/internal/tui/styles"
)

// sandboxScreen is a free-text editor analyzed as the user types.
type sandboxScreen struct {
	app     *app.App
	session *session.Controller
	renders *styles.MarkdownCache
	keys    KeyMap

	editor  textarea.Model
	spinner spinner.Model
	snap    session.Snapshot

	width  int
	height int
}

func newSandboxScreen(a *app.App, renders *styles.MarkdownCache, keys KeyMap) (*sandboxScreen, error) {
	c, err := a.Sessions.OpenSandbox()
	if err != nil {
		return nil, err
	}

	ta := textarea.New()
	ta.Placeholder = "Paste or type code..."
	ta.ShowLineNumbers = true
	ta.CharLimit = 0

	return &sandboxScreen{
		app:     a,
		session: c,
		renders: renders,
		keys:    keys,
		editor:  ta,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		snap:    c.Snapshot(),
	}, nil
}

func (s *sandboxScreen) Init() tea.Cmd {
	return s.editor.Focus()
}

func (s *sandboxScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case events.Event:
		return s, s.handleEvent(msg)

	case spinner.TickMsg:
		if !s.busy() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, s.keys.Back):
			return s, Navigate(selection.Home)
		case key.Matches(msg, s.keys.CycleKind):
			return s, s.report(s.session.OnAnalyzerKindChange(s.session.Snapshot().Kind.Next()))
		case key.Matches(msg, s.keys.Analyze):
			return s, s.report(s.session.Analyze())
		}
	}

	before := s.editor.Value()
	var cmd tea.Cmd
	s.editor, cmd = s.editor.Update(msg)
	if after := s.editor.Value(); after != before {
		return s, tea.Batch(cmd, s.report(s.session.OnEdit(after)))
	}
	return s, cmd
}

func (s *sandboxScreen) handleEvent(event events.Event) tea.Cmd {
	if event.Type != events.SessionStateEvent {
		return nil
	}
	payload, ok := event.Payload.(session.StatePayload)
	if !ok || payload.Snapshot.ID != s.session.ID() {
		return nil
	}
	wasBusy := s.busy()
	s.snap = payload.Snapshot
	if s.busy() && !wasBusy {
		return s.spinner.Tick
	}
	return nil
}

// report turns an entry-point error into a status line. Auth errors are
// left to the auth.required event.
func (s *sandboxScreen) report(err error) tea.Cmd {
	switch {
	case err == nil, errors.Is(err, session.ErrAuthRequired):
		return nil
	case errors.Is(err, session.ErrNothingToAnalyze):
		s.app.Notify("Nothing to analyze yet", "info")
	default:
		logx.Errorf("sandbox: %v", err)
		s.app.Notify(err.Error(), "error")
	}
	return nil
}

func (s *sandboxScreen) busy() bool {
	return s.snap.State == session.RequestInFlight
}

func (s *sandboxScreen) SetSize(width, height int) tea.Cmd {
	s.width = width
	s.height = height
	editorWidth, _ := s.panes()
	// header, help and pane borders
	s.editor.SetWidth(editorWidth - 2)
	s.editor.SetHeight(max(height-5, 3))
	return nil
}

// panes splits the width between editor and result.
func (s *sandboxScreen) panes() (int, int) {
	editor := s.width / 2
	return editor, s.width - editor
}

func (s *sandboxScreen) View() string {
	if s.width == 0 {
		return ""
	}
	st := styles.CurrentTheme().S()
	editorWidth, resultWidth := s.panes()
	paneHeight := max(s.height-3, 3)

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		st.Title.Render("Sandbox "),
		st.Badge.Render(s.snap.Kind.Label()),
	)

	editor := st.PaneFocused.
		Width(editorWidth - 2).
		Height(paneHeight).
		Render(s.editor.View())
	result := st.Pane.
		Width(resultWidth - 2).
		Height(paneHeight).
		MaxHeight(paneHeight + 2).
		Render(renderResult(s.renders, s.snap, resultWidth-4, s.spinner.View(), "Start typing to analyze."))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, editor, result),
		st.Help.Render(helpLine(s.keys.CycleKind, s.keys.Analyze, s.keys.Back, s.keys.Quit)),
	)
}

func (s *sandboxScreen) Location() selection.Location {
	return selection.Location{Route: selection.RouteSandbox}
}

func (s *sandboxScreen) Title() string {
	return s.snap.State.String()
}

func (s *sandboxScreen) Capturing() bool { return true }

func (s *sandboxScreen) Close() {
	s.app.Sessions.Close(s.session.ID())
}
