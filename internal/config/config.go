package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/billie-coop/sift/internal/analyzer"
)

// Environment variables read on Load.
const (
	EnvHome     = "SIFT_HOME"
	EnvAPIURL   = "SIFT_API_URL"
	EnvAnalyzer = "SIFT_ANALYZER"
	EnvToken    = "SIFT_TOKEN"
)

// ErrUnknownKey is returned by Set and Value for keys that do not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Config represents the sift configuration
type Config struct {
	// Remote settings
	APIURL                string `json:"api_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	Workers               int    `json:"workers"`

	// Analysis settings
	DefaultAnalyzer string `json:"default_analyzer"`
	DebounceMS      int    `json:"debounce_ms"`

	// UI preferences
	Theme    string `json:"theme"`
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level"`

	// Written by login and logout.
	Token string `json:"token,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		APIURL:                "http://localhost:8080",
		RequestTimeoutSeconds: 30,
		Workers:               8,
		DefaultAnalyzer:       string(analyzer.Python),
		DebounceMS:            1000,
		Theme:                 "default",
		LogLevel:              "info",
	}
}

// Kind returns the default analyzer, falling back to python.
func (c *Config) Kind() analyzer.Kind {
	if k, err := analyzer.ParseKind(c.DefaultAnalyzer); err == nil {
		return k
	}
	return analyzer.Python
}

// QuietPeriod is the debounce window for sandbox edits.
func (c *Config) QuietPeriod() time.Duration {
	if c.DebounceMS <= 0 {
		return time.Second
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// RequestTimeout bounds a single outbound call.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Manager handles configuration loading and saving
type Manager struct {
	dir        string
	configPath string
	envFiles   []string

	mu     sync.RWMutex
	config *Config // as stored on disk, before env expansion and overrides
}

// DefaultDir returns $SIFT_HOME, or ~/.sift.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".sift"), nil
}

// NewManager creates a new configuration manager rooted at dir.
// envFiles are dotenv files loaded before env overrides; none means ".env".
func NewManager(dir string, envFiles ...string) *Manager {
	return &Manager{
		dir:        dir,
		configPath: filepath.Join(dir, "config.json"),
		envFiles:   envFiles,
		config:     DefaultConfig(),
	}
}

// Dir returns the data directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the config file path.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk, creating defaults if needed
func (m *Manager) Load() error {
	// Missing dotenv files are normal.
	_ = godotenv.Load(m.envFiles...)

	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", m.dir, err)
	}

	if err := m.ensureGitignore(); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		return m.Save()
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}

	m.mu.Lock()
	m.config = config
	m.mu.Unlock()
	return nil
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.config, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may hold a token.
	if err := os.WriteFile(m.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the effective configuration: file values with $VAR expansion,
// then SIFT_* environment overrides.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	config := *m.config
	m.mu.RUnlock()

	config.APIURL = expandString(config.APIURL)
	config.DefaultAnalyzer = expandString(config.DefaultAnalyzer)
	config.Theme = expandString(config.Theme)
	config.Token = expandString(config.Token)

	if v := os.Getenv(EnvAPIURL); v != "" {
		config.APIURL = v
	}
	if v := os.Getenv(EnvAnalyzer); v != "" {
		config.DefaultAnalyzer = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		config.Token = v
	}
	return &config
}

// Keys lists the settable keys.
func Keys() []string {
	return []string{"api_url", "default_analyzer", "debounce_ms", "request_timeout_seconds", "workers", "theme", "debug", "log_level"}
}

// Value returns the stored (unexpanded) value of key.
func (m *Manager) Value(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch key {
	case "api_url":
		return m.config.APIURL, nil
	case "default_analyzer":
		return m.config.DefaultAnalyzer, nil
	case "debounce_ms":
		return strconv.Itoa(m.config.DebounceMS), nil
	case "request_timeout_seconds":
		return strconv.Itoa(m.config.RequestTimeoutSeconds), nil
	case "workers":
		return strconv.Itoa(m.config.Workers), nil
	case "theme":
		return m.config.Theme, nil
	case "debug":
		return strconv.FormatBool(m.config.Debug), nil
	case "log_level":
		return m.config.LogLevel, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

// Set updates a configuration value and saves
func (m *Manager) Set(key, value string) error {
	value = strings.TrimSpace(value)

	m.mu.Lock()
	switch key {
	case "api_url":
		if err := validateURL(value); err != nil {
			m.mu.Unlock()
			return err
		}
		m.config.APIURL = value
	case "default_analyzer":
		kind, err := analyzer.ParseKind(value)
		if err != nil {
			m.mu.Unlock()
			return err
		}
		m.config.DefaultAnalyzer = string(kind)
	case "debounce_ms", "request_timeout_seconds", "workers":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			m.mu.Unlock()
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		switch key {
		case "debounce_ms":
			m.config.DebounceMS = n
		case "request_timeout_seconds":
			m.config.RequestTimeoutSeconds = n
		default:
			m.config.Workers = n
		}
	case "theme":
		m.config.Theme = value
	case "debug":
		m.config.Debug = value == "true"
	case "log_level":
		switch value {
		case "debug", "info", "error", "severe":
		default:
			m.mu.Unlock()
			return fmt.Errorf("log_level must be one of debug, info, error, severe, got %q", value)
		}
		m.config.LogLevel = value
	default:
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	m.mu.Unlock()

	return m.Save()
}

// SetToken stores the login token; an empty token logs out.
func (m *Manager) SetToken(token string) error {
	m.mu.Lock()
	m.config.Token = token
	m.mu.Unlock()
	return m.Save()
}

func validateURL(value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", value)
	}
	return nil
}

// ensureGitignore creates a .gitignore next to the config so the data
// directory never leaks a token into version control.
func (m *Manager) ensureGitignore() error {
	gitignorePath := filepath.Join(m.dir, ".gitignore")

	if _, err := os.Stat(gitignorePath); !os.IsNotExist(err) {
		return nil // Already exists
	}

	gitignoreContent := `# sift data directory .gitignore
#
# config.json may contain your login token, so nothing here is committed.
*
!.gitignore
`

	return os.WriteFile(gitignorePath, []byte(gitignoreContent), 0o644)
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandString expands environment variables in a string
// Supports $VAR and ${VAR} syntax
func expandString(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		// Return original if env var not found
		return match
	})
}
