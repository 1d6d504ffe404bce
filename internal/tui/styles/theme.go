package styles

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/charmbracelet/lipgloss/v2"
)

// Semantic color names for consistency
type Theme struct {
	Name   string
	IsDark bool

	// Brand colors
	Primary   color.Color
	Secondary color.Color
	Accent    color.Color

	// Background colors
	BgBase   color.Color
	BgSubtle color.Color

	// Foreground colors
	FgBase     color.Color
	FgMuted    color.Color
	FgSubtle   color.Color
	FgInverted color.Color

	// Border colors
	Border      color.Color
	BorderFocus color.Color

	// Semantic colors
	Success color.Color
	Error   color.Color
	Warning color.Color
	Info    color.Color

	styles *Styles
}

type Styles struct {
	Base     lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Text     lipgloss.Style
	Muted    lipgloss.Style
	Subtle   lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Component styles
	Selected    lipgloss.Style
	Badge       lipgloss.Style
	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	StatusBar   lipgloss.Style
	Help        lipgloss.Style
	CodeLineNo  lipgloss.Style
}

func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = t.buildStyles()
	}
	return t.styles
}

// MarkdownStyle names the glamour standard style matching the theme.
func (t *Theme) MarkdownStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().
		Foreground(t.FgBase)

	return &Styles{
		Base: base,

		Title: base.
			Foreground(t.Accent).
			Bold(true),

		Subtitle: base.
			Foreground(t.Secondary).
			Bold(true),

		Text:   base,
		Muted:  base.Foreground(t.FgMuted),
		Subtle: base.Foreground(t.FgSubtle),

		Success: base.Foreground(t.Success),
		Error:   base.Foreground(t.Error),
		Warning: base.Foreground(t.Warning),
		Info:    base.Foreground(t.Info),

		Selected: base.
			Background(t.Primary).
			Foreground(t.FgInverted).
			Bold(true),

		Badge: base.
			Background(t.BgSubtle).
			Foreground(t.Accent).
			Padding(0, 1),

		Pane: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		PaneFocused: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus),

		StatusBar: base.
			Background(t.BgSubtle).
			Foreground(t.FgBase).
			Padding(0, 1),

		Help: base.Foreground(t.FgSubtle),

		CodeLineNo: base.Foreground(t.FgSubtle),
	}
}

// NewSiftTheme is the default dark theme.
func NewSiftTheme() *Theme {
	return &Theme{
		Name:   "default",
		IsDark: true,

		Primary:   ParseHex("#2E86AB"),
		Secondary: ParseHex("#A3D9FF"),
		Accent:    ParseHex("#F6AE2D"),

		BgBase:   ParseHex("#1B1F24"),
		BgSubtle: ParseHex("#2A3038"),

		FgBase:     ParseHex("#E8ECEF"),
		FgMuted:    ParseHex("#A0A7AF"),
		FgSubtle:   ParseHex("#6C7580"),
		FgInverted: ParseHex("#101214"),

		Border:      ParseHex("#3E4651"),
		BorderFocus: ParseHex("#F6AE2D"),

		Success: ParseHex("#3DCC91"),
		Error:   ParseHex("#E5484D"),
		Warning: ParseHex("#F6AE2D"),
		Info:    ParseHex("#5EB3F6"),
	}
}

// NewLightTheme is for light terminals.
func NewLightTheme() *Theme {
	return &Theme{
		Name:   "light",
		IsDark: false,

		Primary:   ParseHex("#1D6FA3"),
		Secondary: ParseHex("#3A506B"),
		Accent:    ParseHex("#B5651D"),

		BgBase:   ParseHex("#FAFAFA"),
		BgSubtle: ParseHex("#E6E8EB"),

		FgBase:     ParseHex("#1B1F24"),
		FgMuted:    ParseHex("#4A525C"),
		FgSubtle:   ParseHex("#7A838D"),
		FgInverted: ParseHex("#FFFFFF"),

		Border:      ParseHex("#C4C9CF"),
		BorderFocus: ParseHex("#B5651D"),

		Success: ParseHex("#1E8E5A"),
		Error:   ParseHex("#C62828"),
		Warning: ParseHex("#B5651D"),
		Info:    ParseHex("#1D6FA3"),
	}
}

// Manager handles theme switching and registration
type Manager struct {
	mu      sync.RWMutex
	themes  map[string]*Theme
	current *Theme
}

var (
	defaultMu      sync.Mutex
	defaultManager *Manager
)

func SetDefaultManager(m *Manager) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultManager = m
}

func DefaultManager() *Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultManager == nil {
		defaultManager = NewManager("default")
	}
	return defaultManager
}

func CurrentTheme() *Theme {
	return DefaultManager().Current()
}

// NewManager registers the built-in themes and selects defaultTheme, falling
// back to "default" for unknown names.
func NewManager(defaultTheme string) *Manager {
	m := &Manager{
		themes: make(map[string]*Theme),
	}
	m.Register(NewSiftTheme())
	m.Register(NewLightTheme())

	m.current = m.themes[defaultTheme]
	if m.current == nil {
		m.current = m.themes["default"]
	}
	return m
}

func (m *Manager) Register(theme *Theme) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.themes[theme.Name] = theme
}

func (m *Manager) Current() *Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// ParseHex converts hex string to color
func ParseHex(hex string) color.Color {
	var r, g, b uint8
	_, _ = fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
