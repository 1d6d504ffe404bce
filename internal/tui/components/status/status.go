package status

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/billie-coop/sift/internal/tui/styles"
)

// MessageType represents the type of status message
type MessageType int

const (
	Info MessageType = iota
	Warning
	Error
	Success
)

// ParseType maps the broker's string kinds ("info", "warning", "error",
// "success") onto MessageType.
func ParseType(kind string) MessageType {
	switch kind {
	case "warning":
		return Warning
	case "error":
		return Error
	case "success":
		return Success
	default:
		return Info
	}
}

// StatusMessage represents a status bar message
type StatusMessage struct {
	Content   string
	Type      MessageType
	Timestamp time.Time
}

// Component is a one-line bar: location and session state on the left,
// a temporary message on the right.
type Component struct {
	message     *StatusMessage
	width       int
	leftContent string

	clearAfter time.Duration
	now        func() time.Time
}

// New creates a new status bar component
func New() *Component {
	return &Component{
		clearAfter: 5 * time.Second,
		now:        time.Now,
	}
}

// SetMessage sets a status message with the given type
func (c *Component) SetMessage(content string, msgType MessageType) tea.Cmd {
	stamp := c.now()
	c.message = &StatusMessage{
		Content:   content,
		Type:      msgType,
		Timestamp: stamp,
	}

	return tea.Tick(c.clearAfter, func(time.Time) tea.Msg {
		return clearMessageMsg{timestamp: stamp}
	})
}

// ShowInfo shows an info message
func (c *Component) ShowInfo(message string) tea.Cmd {
	return c.SetMessage(message, Info)
}

// ShowError shows an error message
func (c *Component) ShowError(message string) tea.Cmd {
	return c.SetMessage(message, Error)
}

// Message returns the visible message, if any.
func (c *Component) Message() (StatusMessage, bool) {
	if c.message == nil {
		return StatusMessage{}, false
	}
	return *c.message, true
}

// SetLeftContent sets the left side content
func (c *Component) SetLeftContent(content string) {
	c.leftContent = content
}

// SetSize implements core.Sizeable
func (c *Component) SetSize(width, height int) tea.Cmd {
	c.width = width
	return nil
}

type clearMessageMsg struct {
	timestamp time.Time
}

func (c *Component) Init() tea.Cmd {
	return nil
}

func (c *Component) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(clearMessageMsg); ok {
		// Only clear if this is for the current message
		if c.message != nil && msg.timestamp.Equal(c.message.Timestamp) {
			c.message = nil
		}
	}
	return c, nil
}

func (c *Component) View() string {
	if c.width == 0 {
		return ""
	}

	available := c.width - 2 // padding
	left := c.leftContent
	right := c.formatMessage()

	if lipgloss.Width(left)+lipgloss.Width(right)+1 > available {
		right = ansi.Truncate(right, available/2, "…")
		left = ansi.Truncate(left, available-lipgloss.Width(right)-1, "…")
	}

	content := left
	if right != "" {
		gap := available - lipgloss.Width(left) - lipgloss.Width(right)
		if gap < 1 {
			gap = 1
		}
		content += strings.Repeat(" ", gap) + right
	}

	return styles.CurrentTheme().S().StatusBar.Width(c.width).Render(content)
}

func (c *Component) formatMessage() string {
	if c.message == nil {
		return ""
	}

	s := styles.CurrentTheme().S()
	switch c.message.Type {
	case Success:
		return s.Success.Render("✓ " + c.message.Content)
	case Warning:
		return s.Warning.Render("⚠ " + c.message.Content)
	case Error:
		return s.Error.Render("✗ " + c.message.Content)
	default:
		return c.message.Content
	}
}
