package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/v2/key"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/billie-coop/sift/internal/app"
	"github.com/billie-coop/sift/internal/remote"
	"github.com/billie-coop/sift/internal/selection"
	"github.com/billie-coop/sift/internal/tui/styles"
)

// authScreen logs in or registers. Either way the issued token lands in the
// app credential and the user continues to the projects list.
type authScreen struct {
	app  *app.App
	keys KeyMap

	register bool
	fields   [2]textinput.Model
	focus    int
	busy     bool
	notice   string
	err      string
}

func newAuthScreen(a *app.App, keys KeyMap, register bool, notice string) *authScreen {
	user := textinput.New()
	user.Prompt = "Username: "
	user.CharLimit = 64

	pass := textinput.New()
	pass.Prompt = "Password: "
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 128

	return &authScreen{
		app:      a,
		keys:     keys,
		register: register,
		fields:   [2]textinput.Model{user, pass},
		notice:   notice,
	}
}

func (s *authScreen) Init() tea.Cmd {
	return s.fields[0].Focus()
}

func (s *authScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case authResultMsg:
		s.busy = false
		if msg.err != nil {
			s.err = describeAuthError(msg.err, s.register)
			return s, nil
		}
		return s, Navigate(selection.Location{Route: selection.RouteProjects})

	case tea.KeyPressMsg:
		if s.busy {
			return s, nil
		}
		switch {
		case key.Matches(msg, s.keys.Back):
			return s, Navigate(selection.Home)
		case key.Matches(msg, s.keys.ToggleMode):
			s.register = !s.register
			s.err = ""
			return s, nil
		case key.Matches(msg, s.keys.NextField):
			return s, s.setFocus(s.focus + 1)
		case key.Matches(msg, s.keys.PrevField):
			return s, s.setFocus(s.focus - 1)
		case key.Matches(msg, s.keys.Open):
			if s.focus == 0 {
				return s, s.setFocus(1)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *authScreen) setFocus(i int) tea.Cmd {
	s.focus = (i + len(s.fields)) % len(s.fields)
	for j := range s.fields {
		if j != s.focus {
			s.fields[j].Blur()
		}
	}
	return s.fields[s.focus].Focus()
}

func (s *authScreen) submit() tea.Cmd {
	username := strings.TrimSpace(s.fields[0].Value())
	password := s.fields[1].Value()
	if username == "" || password == "" {
		s.err = "Username and password are required."
		return nil
	}

	s.busy = true
	s.err = ""
	auth := s.app.AuthService
	register := s.register
	return func() tea.Msg {
		ctx := context.Background()
		if register {
			return authResultMsg{err: auth.Register(ctx, username, password)}
		}
		return authResultMsg{err: auth.Login(ctx, username, password)}
	}
}

func describeAuthError(err error, register bool) string {
	var reqErr *remote.RequestError
	switch {
	case remote.IsAuth(err):
		return "Invalid username or password."
	case errors.As(err, &reqErr) && reqErr.Message != "":
		return reqErr.Message
	case register:
		logx.Errorf("registration failed: %v", err)
		return "Registration failed."
	default:
		logx.Errorf("login failed: %v", err)
		return "Login failed."
	}
}

func (s *authScreen) SetSize(width, height int) tea.Cmd {
	return nil
}

func (s *authScreen) View() string {
	st := styles.CurrentTheme().S()
	title := "Log in"
	if s.register {
		title = "Register"
	}

	lines := []string{st.Title.Render(title), ""}
	if s.notice != "" {
		lines = append(lines, st.Warning.Render(s.notice), "")
	}
	lines = append(lines, s.fields[0].View(), s.fields[1].View(), "")
	switch {
	case s.busy:
		lines = append(lines, st.Muted.Render("Signing in..."))
	case s.err != "":
		lines = append(lines, st.Error.Render(s.err))
	}
	lines = append(lines, "", st.Help.Render(helpLine(s.keys.NextField, s.keys.Open, s.keys.ToggleMode, s.keys.Back)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (s *authScreen) Location() selection.Location {
	if s.register {
		return selection.Location{Route: selection.RouteRegister}
	}
	return selection.Location{Route: selection.RouteAuth}
}

func (s *authScreen) Title() string {
	if s.app.AuthService.LoggedIn() {
		return "Signed in as " + s.app.AuthService.Username()
	}
	return "Signed out"
}

func (s *authScreen) Capturing() bool { return true }

func (s *authScreen) Close() {}
