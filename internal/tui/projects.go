package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/billie-coop/sift/internal/app"
	"github.com/billie-coop/sift/internal/projectstore"
	"github.com/billie-coop/sift/internal/remote"
	"github.com/billie-coop/sift/internal/selection"
	"github.com/billie-coop/sift/internal/tui/styles"
)

// projectsScreen lists the user's projects and creates or deletes them.
type projectsScreen struct {
	app  *app.App
	keys KeyMap

	projects []projectstore.Project
	cursor   int
	loading  bool
	err      error

	naming   bool
	name     textinput.Model
	deleting bool

	width  int
	height int
}

func newProjectsScreen(a *app.App, keys KeyMap) *projectsScreen {
	ti := textinput.New()
	ti.Placeholder = "project name"
	ti.Prompt = "Name: "
	ti.CharLimit = 100

	return &projectsScreen{
		app:     a,
		keys:    keys,
		name:    ti,
		loading: true,
	}
}

func (p *projectsScreen) Init() tea.Cmd {
	return p.fetch()
}

func (p *projectsScreen) fetch() tea.Cmd {
	p.loading = true
	svc := p.app.ProjectService
	return func() tea.Msg {
		projects, err := svc.List(context.Background())
		return projectsMsg{projects: projects, err: err}
	}
}

func (p *projectsScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case projectsMsg:
		p.loading = false
		p.err = msg.err
		if msg.err == nil {
			p.projects = msg.projects
			p.cursor = min(p.cursor, max(len(p.projects)-1, 0))
		}
		return p, nil

	case projectCreatedMsg:
		if msg.err != nil {
			return p, p.fail("Failed to create project", msg.err)
		}
		return p, Navigate(selection.ProjectLocation(msg.project.ID, ""))

	case projectDeletedMsg:
		if msg.err != nil {
			return p, p.fail("Failed to delete project", msg.err)
		}
		return p, p.fetch()

	case tea.KeyPressMsg:
		if p.naming {
			return p, p.updateNaming(msg)
		}
		if p.deleting {
			p.deleting = false
			if key.Matches(msg, p.keys.Confirm) {
				return p, p.delete()
			}
			return p, nil
		}

		switch {
		case key.Matches(msg, p.keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, p.keys.Down):
			if p.cursor < len(p.projects)-1 {
				p.cursor++
			}
		case key.Matches(msg, p.keys.Open):
			if project, ok := p.selected(); ok {
				return p, Navigate(selection.ProjectLocation(project.ID, ""))
			}
		case key.Matches(msg, p.keys.New):
			p.naming = true
			p.name.Reset()
			return p, p.name.Focus()
		case key.Matches(msg, p.keys.Delete):
			_, p.deleting = p.selected()
		case key.Matches(msg, p.keys.Reload):
			return p, p.fetch()
		}
	}
	return p, nil
}

func (p *projectsScreen) updateNaming(msg tea.KeyPressMsg) tea.Cmd {
	switch {
	case key.Matches(msg, p.keys.Back):
		p.naming = false
		p.name.Blur()
		return nil
	case key.Matches(msg, p.keys.Open):
		name := strings.TrimSpace(p.name.Value())
		if name == "" {
			return nil
		}
		p.naming = false
		p.name.Blur()
		svc := p.app.ProjectService
		return func() tea.Msg {
			project, err := svc.Create(context.Background(), name)
			return projectCreatedMsg{project: project, err: err}
		}
	}
	var cmd tea.Cmd
	p.name, cmd = p.name.Update(msg)
	return cmd
}

func (p *projectsScreen) delete() tea.Cmd {
	project, ok := p.selected()
	if !ok {
		return nil
	}
	svc := p.app.ProjectService
	return func() tea.Msg {
		return projectDeletedMsg{id: project.ID, err: svc.Delete(context.Background(), project.ID)}
	}
}

// fail reports err unless it is an auth failure, which the auth.required
// event already handles.
func (p *projectsScreen) fail(what string, err error) tea.Cmd {
	if !remote.IsAuth(err) {
		p.app.Notify(fmt.Sprintf("%s: %v", what, err), "error")
	}
	return nil
}

func (p *projectsScreen) selected() (projectstore.Project, bool) {
	if p.cursor < 0 || p.cursor >= len(p.projects) {
		return projectstore.Project{}, false
	}
	return p.projects[p.cursor], true
}

func (p *projectsScreen) SetSize(width, height int) tea.Cmd {
	p.width = width
	p.height = height
	return nil
}

func (p *projectsScreen) View() string {
	st := styles.CurrentTheme().S()
	var body strings.Builder

	switch {
	case p.loading && len(p.projects) == 0:
		body.WriteString(st.Muted.Render("Loading projects..."))
	case p.err != nil && len(p.projects) == 0:
		body.WriteString(st.Error.Render("Could not load projects."))
	case len(p.projects) == 0:
		body.WriteString(st.Muted.Render("No projects yet. Press n to create one."))
	default:
		for i, project := range p.projects {
			line := fmt.Sprintf("%-4d %s", project.ID, project.Name)
			if !project.CreatedAt.IsZero() {
				line += st.Subtle.Render("  " + project.CreatedAt.Format("2006-01-02"))
			}
			if i == p.cursor {
				line = st.Selected.Render("▸ " + line)
			} else {
				line = "  " + line
			}
			body.WriteString(line + "\n")
		}
	}

	footer := st.Help.Render(helpLine(p.keys.Up, p.keys.Down, p.keys.Open, p.keys.New, p.keys.Delete, p.keys.Reload, p.keys.Back))
	switch {
	case p.naming:
		footer = p.name.View() + "\n" + st.Help.Render("enter create · esc cancel")
	case p.deleting:
		project, _ := p.selected()
		footer = st.Warning.Render(fmt.Sprintf("Delete %q? (y/n)", project.Name))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		st.Title.Render("Projects"),
		"",
		strings.TrimSuffix(body.String(), "\n"),
		"",
		footer,
	)
}

func (p *projectsScreen) Location() selection.Location {
	return selection.Location{Route: selection.RouteProjects}
}

func (p *projectsScreen) Title() string {
	return fmt.Sprintf("%d projects", len(p.projects))
}

func (p *projectsScreen) Capturing() bool { return p.naming || p.deleting }

func (p *projectsScreen) Close() {}
