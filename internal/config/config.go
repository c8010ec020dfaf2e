// Package config handles configuration loading, validation, and management for imebridge.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"imebridge/internal/engine"
	"imebridge/internal/key"
	"imebridge/internal/keytable"
	"imebridge/internal/logging"
	"imebridge/internal/ui"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete front end configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// UI configures the candidate window.
	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`

	// Keys configures the key table.
	Keys KeysConfig `toml:"keys" json:"keys" yaml:"keys"`

	// Engine configures the dictionary engine.
	Engine EngineConfig `toml:"engine" json:"engine" yaml:"engine"`

	// Terminal configures the terminal front end.
	Terminal TerminalConfig `toml:"terminal" json:"terminal" yaml:"terminal"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// UIConfig holds candidate window settings.
type UIConfig struct {
	// Style is "horizontal" or "vertical".
	Style string `toml:"style" json:"style" yaml:"style"`

	// Indices names the glyph set for candidate numbers (see ui.IndexStyles).
	Indices string `toml:"indices" json:"indices" yaml:"indices"`

	// Left and Right mark a previous or next page.
	Left  string `toml:"left" json:"left" yaml:"left"`
	Right string `toml:"right" json:"right" yaml:"right"`

	// LeftSep and RightSep bracket the highlighted candidate.
	LeftSep  string `toml:"left_sep" json:"left_sep" yaml:"left_sep"`
	RightSep string `toml:"right_sep" json:"right_sep" yaml:"right_sep"`

	// Cursor marks the cursor inside the preedit.
	Cursor string `toml:"cursor" json:"cursor" yaml:"cursor"`
}

// KeysConfig holds key table settings.
type KeysConfig struct {
	// TablePath is an optional key table JSON file replacing the built-in one.
	TablePath string `toml:"table_path" json:"table_path" yaml:"table_path"`
}

// EngineConfig holds dictionary engine settings.
type EngineConfig struct {
	// Dictionaries are YAML word lists, one schema each. Relative paths are
	// searched in the config dir and the data dirs. Empty selects the demo.
	Dictionaries []string `toml:"dictionaries" json:"dictionaries" yaml:"dictionaries"`

	// PageSize overrides the dictionaries' page size. Zero keeps theirs.
	PageSize int `toml:"page_size" json:"page_size" yaml:"page_size"`

	// SharedDataDir and UserDataDir are the Rime data directories. Empty
	// values are discovered.
	SharedDataDir string `toml:"shared_data_dir" json:"shared_data_dir" yaml:"shared_data_dir"`
	UserDataDir   string `toml:"user_data_dir" json:"user_data_dir" yaml:"user_data_dir"`
}

// TerminalConfig holds terminal front end settings.
type TerminalConfig struct {
	// Toggle is the chord switching the input method on and off, as
	// space-separated tokens.
	Toggle string `toml:"toggle_chord" json:"toggle_chord" yaml:"toggle_chord"`

	// Prompt is printed before the edited line.
	Prompt string `toml:"prompt" json:"prompt" yaml:"prompt"`

	// EscapeTimeoutMs is how long a lone ESC waits for the rest of a sequence.
	EscapeTimeoutMs int `toml:"escape_timeout_ms" json:"escape_timeout_ms" yaml:"escape_timeout_ms"`

	// StartEnabled turns the input method on at startup.
	StartEnabled bool `toml:"start_enabled" json:"start_enabled" yaml:"start_enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file", "both" or "discard".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when Output writes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// MaxAgeDays is the maximum age of rotated log files.
	MaxAgeDays int `toml:"max_age_days" json:"max_age_days" yaml:"max_age_days"`

	// Compress gzips rotated log files.
	Compress bool `toml:"compress" json:"compress" yaml:"compress"`

	// RedactInput hides typed text in log records.
	RedactInput bool `toml:"redact_input" json:"redact_input" yaml:"redact_input"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	g := ui.DefaultGlyphs()
	return &Config{
		Version: Version,
		UI: UIConfig{
			Style:    ui.Horizontal.String(),
			Indices:  "circle",
			Left:     g.Left,
			Right:    g.Right,
			LeftSep:  g.LeftSep,
			RightSep: g.RightSep,
			Cursor:   g.Cursor,
		},
		Engine: EngineConfig{
			Dictionaries: []string{},
		},
		Terminal: TerminalConfig{
			Toggle:          "c-space",
			Prompt:          "> ",
			EscapeTimeoutMs: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			// The terminal front end owns stderr while it draws.
			Output:      "file",
			FilePath:    logging.DefaultLogPath(),
			MaxSizeMB:   10,
			MaxBackups:  3,
			MaxAgeDays:  30,
			Compress:    true,
			RedactInput: true,
		},
	}
}

// ConfigDir returns the configuration directory.
// IMEBRIDGE_CONFIG_DIR overrides the platform default.
func ConfigDir() string {
	if dir := os.Getenv("IMEBRIDGE_CONFIG_DIR"); dir != "" {
		return dir
	}
	return PlatformConfigDir()
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads configuration from path, or the default path when empty.
// A missing file yields the defaults. Environment overrides are applied.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = DefaultConfig()
	} else if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// UI overrides
	if v := os.Getenv("IMEBRIDGE_UI_STYLE"); v != "" {
		c.UI.Style = v
	}
	if v := os.Getenv("IMEBRIDGE_UI_INDICES"); v != "" {
		c.UI.Indices = v
	}

	// Key table override
	if v := os.Getenv("IMEBRIDGE_KEY_TABLE"); v != "" {
		c.Keys.TablePath = v
	}

	// Engine overrides
	if v := os.Getenv("IMEBRIDGE_DICTIONARIES"); v != "" {
		c.Engine.Dictionaries = filepath.SplitList(v)
	}
	if v := os.Getenv("IMEBRIDGE_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.PageSize = n
		}
	}

	// Terminal overrides
	if v := os.Getenv("IMEBRIDGE_TOGGLE"); v != "" {
		c.Terminal.Toggle = v
	}

	// Logging overrides
	if v := os.Getenv("IMEBRIDGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IMEBRIDGE_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Config{
		Version:  c.Version,
		UI:       c.UI,
		Keys:     c.Keys,
		Engine:   c.Engine,
		Terminal: c.Terminal,
		Logging:  c.Logging,
	}
	clone.Engine.Dictionaries = append([]string{}, c.Engine.Dictionaries...)
	return clone
}

// RenderStyle parses the configured window layout.
func (u UIConfig) RenderStyle() (ui.Style, error) {
	return ui.ParseStyle(u.Style)
}

// Glyphs builds the renderer decorations.
func (u UIConfig) Glyphs() (ui.Glyphs, error) {
	indices, err := ui.LookupIndices(u.Indices)
	if err != nil {
		return ui.Glyphs{}, err
	}
	return ui.Glyphs{
		Indices:  indices,
		Left:     u.Left,
		Right:    u.Right,
		LeftSep:  u.LeftSep,
		RightSep: u.RightSep,
		Cursor:   u.Cursor,
	}, nil
}

// Renderer builds the configured candidate window renderer.
func (u UIConfig) Renderer() (ui.Renderer, error) {
	style, err := u.RenderStyle()
	if err != nil {
		return nil, err
	}
	g, err := u.Glyphs()
	if err != nil {
		return nil, err
	}
	return ui.New(style, g), nil
}

// Translator loads the configured key table, or returns the built-in
// translator when no table is set.
func (k KeysConfig) Translator() (*key.Translator, error) {
	if k.TablePath == "" {
		return key.Default(), nil
	}
	table, err := keytable.LoadFile(expandPath(k.TablePath))
	if err != nil {
		return nil, err
	}
	return key.NewTranslator(table)
}

// DataDirs returns the directories searched for relative dictionary paths,
// most specific first.
func (e EngineConfig) DataDirs() []string {
	user := e.UserDataDir
	if user == "" {
		user = engine.UserDataDir()
	}
	shared := e.SharedDataDir
	if shared == "" {
		shared = engine.SharedDataDir()
	}

	var dirs []string
	for _, d := range []string{ConfigDir(), PlatformDataDir(), expandPath(user), expandPath(shared)} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// ResolveDictionary finds a dictionary file. Absolute and home-relative
// paths must exist as given; others are looked up in DataDirs.
func (e EngineConfig) ResolveDictionary(name string) (string, error) {
	path := expandPath(name)
	if filepath.IsAbs(path) {
		if !isFile(path) {
			return "", fmt.Errorf("dictionary %q not found", name)
		}
		return path, nil
	}
	for _, dir := range e.DataDirs() {
		if candidate := filepath.Join(dir, path); isFile(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("dictionary %q not found in %s", name, strings.Join(e.DataDirs(), ", "))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// NewSession loads the configured dictionaries into a dictionary engine.
func (e EngineConfig) NewSession() (*engine.Dict, error) {
	dicts := make([]*engine.Dictionary, 0, len(e.Dictionaries))
	for _, name := range e.Dictionaries {
		path, err := e.ResolveDictionary(name)
		if err != nil {
			return nil, err
		}
		d, err := engine.LoadDictionaryFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		dicts = append(dicts, d)
	}
	if len(dicts) == 0 {
		dicts = append(dicts, engine.DemoDictionary())
	}

	s, err := engine.NewDict(dicts...)
	if err != nil {
		return nil, err
	}
	s.SetPageSize(e.PageSize)
	return s, nil
}

// ToggleChord returns the configured toggle chord.
func (t TerminalConfig) ToggleChord() key.Chord {
	return key.Chord(strings.Fields(t.Toggle))
}

// EscapeTimeout returns the ESC wait as a duration.
func (t TerminalConfig) EscapeTimeout() time.Duration {
	return time.Duration(t.EscapeTimeoutMs) * time.Millisecond
}

// LoggerConfig converts the settings for logging.New.
func (l LoggingConfig) LoggerConfig(component string) (*logging.Config, error) {
	level, err := logging.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(l.Format)
	if err != nil {
		return nil, err
	}
	return &logging.Config{
		Level:       level,
		Format:      format,
		Output:      l.Output,
		FilePath:    expandPath(l.FilePath),
		MaxSize:     int64(l.MaxSizeMB),
		MaxAge:      l.MaxAgeDays,
		MaxBackups:  l.MaxBackups,
		Compress:    l.Compress,
		RedactInput: l.RedactInput,
		Component:   component,
	}, nil
}
