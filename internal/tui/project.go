package tui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/billie-coop/sift/internal/app"
	"github.com/billie-coop/sift/internal/events"
	"github.com/billie-coop/sift/internal/remote"
	"github.com/billie-coop/sift/internal/selection"
	"github.com/billie-coop/sift/internal/session"
	"github.com/billie-coop/sift/internal/tui/styles"
)

const fileListWidth = 32

// projectScreen shows a stored project: its files, the selected file's code
// and the analysis of that file. The route's file parameter drives the
// selection; moving the cursor alone does not.
type projectScreen struct {
	app       *app.App
	session   *session.Controller
	renders   *styles.MarkdownCache
	keys      KeyMap
	projectID int

	// path is the route's file parameter, which may not match any file.
	path   string
	cursor int

	spinner spinner.Model
	results viewport.Model
	snap    session.Snapshot

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

func newProjectScreen(a *app.App, renders *styles.MarkdownCache, keys KeyMap, loc selection.Location) (*projectScreen, error) {
	c, err := a.Sessions.OpenProject(loc.ProjectID, loc.FilePath)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &projectScreen{
		app:       a,
		session:   c,
		renders:   renders,
		keys:      keys,
		projectID: loc.ProjectID,
		path:      loc.FilePath,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		results:   viewport.New(),
		snap:      c.Snapshot(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (p *projectScreen) Init() tea.Cmd {
	return tea.Batch(p.load(), p.spinner.Tick)
}

// load fetches the project off the UI goroutine.
func (p *projectScreen) load() tea.Cmd {
	id := p.session.ID()
	return func() tea.Msg {
		return loadedMsg{sessionID: id, err: p.session.Load(p.ctx)}
	}
}

// selectPath follows a route change inside this project.
func (p *projectScreen) selectPath(path string) tea.Cmd {
	p.path = path
	if err := p.session.OnSelect(path); err != nil && !errors.Is(err, session.ErrAuthRequired) {
		logx.Errorf("project %d: select %q: %v", p.projectID, path, err)
	}
	p.snap = p.session.Snapshot()
	p.syncCursor()
	return nil
}

func (p *projectScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case events.Event:
		return p, p.handleEvent(msg)

	case loadedMsg:
		if msg.sessionID != p.session.ID() {
			return p, nil
		}
		p.snap = p.session.Snapshot()
		p.syncCursor()
		switch {
		case msg.err == nil:
			return p, p.spinner.Tick
		case remote.IsAuth(msg.err), errors.Is(msg.err, session.ErrAuthRequired),
			errors.Is(msg.err, session.ErrClosed), errors.Is(msg.err, context.Canceled):
			return p, nil
		case remote.StatusOf(msg.err) == http.StatusNotFound:
			p.app.Notify(fmt.Sprintf("Project %d not found", p.projectID), "error")
		default:
			p.app.Notify("Failed to load project", "error")
		}
		return p, nil

	case spinner.TickMsg:
		if !p.busy() {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd

	case tea.KeyPressMsg:
		files := p.snap.Project.Paths()
		switch {
		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(files)-1 {
				p.cursor++
			}
		case key.Matches(msg, p.keys.Open):
			if p.cursor < len(files) {
				return p, Navigate(selection.ProjectLocation(p.projectID, files[p.cursor]))
			}
		case key.Matches(msg, p.keys.CycleKind):
			return p, p.report(p.session.OnAnalyzerKindChange(p.session.Snapshot().Kind.Next()))
		case key.Matches(msg, p.keys.Analyze):
			return p, p.report(p.session.Analyze())
		case key.Matches(msg, p.keys.Reload):
			return p, tea.Batch(p.load(), p.spinner.Tick)
		case key.Matches(msg, p.keys.PageUp):
			p.results.ViewUp()
		case key.Matches(msg, p.keys.PageDown):
			p.results.ViewDown()
		}
	}
	return p, nil
}

func (p *projectScreen) handleEvent(event events.Event) tea.Cmd {
	if event.Type != events.SessionStateEvent {
		return nil
	}
	payload, ok := event.Payload.(session.StatePayload)
	if !ok || payload.Snapshot.ID != p.session.ID() {
		return nil
	}
	wasBusy := p.busy()
	if selectedPath(payload.Snapshot) != selectedPath(p.snap) {
		p.results.GotoTop()
	}
	p.snap = payload.Snapshot
	p.syncCursor()
	if p.busy() && !wasBusy {
		return p.spinner.Tick
	}
	return nil
}

func (p *projectScreen) report(err error) tea.Cmd {
	switch {
	case err == nil, errors.Is(err, session.ErrAuthRequired):
	case errors.Is(err, session.ErrNothingToAnalyze):
		p.app.Notify("Select a file to analyze", "info")
	default:
		logx.Errorf("project %d: %v", p.projectID, err)
		p.app.Notify(err.Error(), "error")
	}
	return nil
}

// syncCursor puts the cursor on the selected file.
func (p *projectScreen) syncCursor() {
	if p.snap.Selected == nil {
		return
	}
	for i, path := range p.snap.Project.Paths() {
		if path == p.snap.Selected.Path {
			p.cursor = i
			return
		}
	}
}

func selectedPath(snap session.Snapshot) string {
	if snap.Selected == nil {
		return ""
	}
	return snap.Selected.Path
}

func (p *projectScreen) busy() bool {
	return p.snap.Loading || p.snap.State == session.RequestInFlight
}

func (p *projectScreen) SetSize(width, height int) tea.Cmd {
	p.width = width
	p.height = height
	_, mainWidth, codeHeight, paneHeight := p.layout()
	p.results = viewport.New(
		viewport.WithWidth(mainWidth-4),
		viewport.WithHeight(paneHeight-codeHeight),
	)
	return nil
}

// layout returns the file list and main column widths, the code pane height
// and the total pane height.
func (p *projectScreen) layout() (listWidth, mainWidth, codeHeight, paneHeight int) {
	paneHeight = max(p.height-3, 4)
	listWidth = min(fileListWidth, p.width/3)
	mainWidth = p.width - listWidth
	codeHeight = paneHeight / 2
	return listWidth, mainWidth, codeHeight, paneHeight
}

func (p *projectScreen) View() string {
	if p.width == 0 {
		return ""
	}
	st := styles.CurrentTheme().S()
	listWidth, mainWidth, codeHeight, paneHeight := p.layout()

	title := fmt.Sprintf("Project %d", p.projectID)
	if p.snap.Project != nil {
		title = p.snap.Project.Name
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		st.Title.Render(title+" "),
		st.Badge.Render(p.snap.Kind.Label()),
	)

	list := st.PaneFocused.
		Width(listWidth - 2).
		Height(paneHeight).
		Render(p.fileList(listWidth - 2))

	code := st.Pane.
		Width(mainWidth - 2).
		Height(codeHeight - 2).
		MaxHeight(codeHeight).
		Render(p.code(mainWidth-4, codeHeight-2))
	p.results.SetContent(renderResult(p.renders, p.snap, mainWidth-4, p.spinner.View(), "Select a file to analyze."))
	result := st.Pane.
		Width(mainWidth - 2).
		Height(paneHeight - codeHeight).
		MaxHeight(paneHeight - codeHeight + 2).
		Render(p.results.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, list, lipgloss.JoinVertical(lipgloss.Left, code, result)),
		st.Help.Render(helpLine(p.keys.Up, p.keys.Down, p.keys.Open, p.keys.CycleKind, p.keys.Analyze, p.keys.Reload, p.keys.PageDown, p.keys.Back)),
	)
}

func (p *projectScreen) fileList(width int) string {
	st := styles.CurrentTheme().S()
	if p.snap.Project == nil {
		if p.snap.Loading {
			return st.Muted.Render(p.spinner.View() + " Loading...")
		}
		return st.Muted.Render("No project loaded.")
	}
	paths := p.snap.Project.Paths()
	if len(paths) == 0 {
		return st.Muted.Render("No files.")
	}

	var b strings.Builder
	for i, path := range paths {
		line := ansi.Truncate(path, width-2, "…")
		switch {
		case p.snap.Selected != nil && p.snap.Selected.Path == path:
			line = st.Selected.Render("▸ " + line)
		case i == p.cursor:
			line = st.Text.Render("› " + line)
		default:
			line = st.Muted.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (p *projectScreen) code(width, height int) string {
	st := styles.CurrentTheme().S()
	if p.snap.Selected == nil {
		return st.Muted.Render("No file selected.")
	}
	lines := strings.Split(p.snap.Selected.Content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	gutter := len(fmt.Sprint(len(lines)))
	var b strings.Builder
	for i, line := range lines {
		no := st.CodeLineNo.Render(fmt.Sprintf("%*d ", gutter, i+1))
		b.WriteString(no + ansi.Truncate(line, width-gutter-1, "…") + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (p *projectScreen) Location() selection.Location {
	return selection.ProjectLocation(p.projectID, p.path)
}

func (p *projectScreen) Title() string {
	if p.snap.Loading {
		return "Loading"
	}
	return p.snap.State.String()
}

func (p *projectScreen) Capturing() bool { return false }

func (p *projectScreen) Close() {
	p.cancel()
	p.app.Sessions.Close(p.session.ID())
}
