package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"imebridge/internal/ui"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
	Warning bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// IsWarning returns true if this is a non-fatal validation issue.
func (e *ValidationError) IsWarning() bool {
	return e.Warning
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is lets errors.Is match ErrInvalidConfig.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig && e.HasErrors()
}

// Warnings returns only warning-level validation errors.
func (e ValidationErrors) Warnings() ValidationErrors {
	var warnings ValidationErrors
	for _, err := range e {
		if err.IsWarning() {
			warnings = append(warnings, err)
		}
	}
	return warnings
}

// Errors returns only error-level validation errors.
func (e ValidationErrors) Errors() ValidationErrors {
	var errs ValidationErrors
	for _, err := range e {
		if !err.IsWarning() {
			errs = append(errs, err)
		}
	}
	return errs
}

// HasErrors returns true if there are any non-warning errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e.Errors()) > 0
}

// Check returns every finding, warnings included.
func Check(c *Config) ValidationErrors {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateUI(&c.UI)...)
	errs = append(errs, validateKeys(&c.Keys)...)
	errs = append(errs, validateEngine(&c.Engine)...)
	errs = append(errs, validateTerminal(&c.Terminal, &c.Keys)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	return errs
}

// ValidateConfig returns the error-level findings of Check, or nil.
// Warnings alone do not fail validation.
func ValidateConfig(c *Config) error {
	if errs := Check(c).Errors(); len(errs) > 0 {
		return errs
	}
	return nil
}

func validateUI(u *UIConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := u.RenderStyle(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "ui.style",
			Message: fmt.Sprintf("invalid style: %s (valid: horizontal, vertical)", u.Style),
		})
	}

	if _, err := ui.LookupIndices(u.Indices); err != nil {
		errs = append(errs, ValidationError{
			Field: "ui.indices",
			Message: fmt.Sprintf("unknown index glyphs: %s (valid: %s)",
				u.Indices, strings.Join(ui.IndexStyleNames(), ", ")),
		})
	}

	return errs
}

func validateKeys(k *KeysConfig) ValidationErrors {
	var errs ValidationErrors

	if k.TablePath == "" {
		return errs
	}
	if _, err := k.Translator(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "keys.table_path",
			Message: err.Error(),
		})
	}

	return errs
}

func validateEngine(e *EngineConfig) ValidationErrors {
	var errs ValidationErrors

	if e.PageSize < 0 || e.PageSize > 10 {
		errs = append(errs, *RangeError("engine.page_size", 0, 10))
	}

	for i, name := range e.Dictionaries {
		field := fmt.Sprintf("engine.dictionaries[%d]", i)
		if strings.TrimSpace(name) == "" {
			errs = append(errs, *RequiredFieldError(field))
			continue
		}
		if _, err := e.ResolveDictionary(name); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error()})
		}
	}

	for field, dir := range map[string]string{
		"engine.shared_data_dir": e.SharedDataDir,
		"engine.user_data_dir":   e.UserDataDir,
	} {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(expandPath(dir)); err != nil || !info.IsDir() {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("directory does not exist: %s", dir),
				Warning: true,
			})
		}
	}

	return errs
}

func validateTerminal(t *TerminalConfig, k *KeysConfig) ValidationErrors {
	var errs ValidationErrors

	chord := t.ToggleChord()
	if len(chord) == 0 {
		errs = append(errs, *RequiredFieldError("terminal.toggle_chord"))
	} else if tr, err := k.Translator(); err == nil {
		if _, err := tr.Encode(chord); err != nil {
			errs = append(errs, ValidationError{
				Field:   "terminal.toggle_chord",
				Message: fmt.Sprintf("%q: %v", t.Toggle, err),
			})
		}
	}

	if t.EscapeTimeoutMs < 1 || t.EscapeTimeoutMs > 1000 {
		errs = append(errs, *RangeError("terminal.escape_timeout_ms", 1, 1000))
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
		// Valid formats
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr", "discard":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: fmt.Sprintf("file path is required when output is '%s'", l.Output),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both, discard)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
