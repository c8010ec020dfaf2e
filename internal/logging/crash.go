package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"
)

// CrashReport represents information about a crash.
type CrashReport struct {
	Timestamp    time.Time         `json:"timestamp"`
	Version      string            `json:"version"`
	GoVersion    string            `json:"go_version"`
	GOOS         string            `json:"goos"`
	GOARCH       string            `json:"goarch"`
	NumGoroutine int               `json:"num_goroutine"`
	PanicValue   string            `json:"panic_value"`
	StackTrace   string            `json:"stack_trace"`
	Component    string            `json:"component,omitempty"`
	Context      map[string]string `json:"context,omitempty"`
}

// CrashHandlerConfig configures the crash handler.
type CrashHandlerConfig struct {
	// CrashDir is the directory to write crash dumps.
	CrashDir string

	// Version is the application version.
	Version string

	// Component is the component name.
	Component string

	// OnCrash runs before the report is printed. Terminal front ends use it
	// to leave raw mode.
	OnCrash func(CrashReport)

	// Stderr receives the human-readable summary. Defaults to os.Stderr.
	Stderr io.Writer
}

// CrashHandler handles panic recovery and crash reporting.
type CrashHandler struct {
	mu        sync.Mutex
	crashDir  string
	version   string
	component string
	onCrash   func(CrashReport)
	stderr    io.Writer
}

// DefaultCrashDir returns the platform-specific default crash directory.
func DefaultCrashDir() string {
	return filepath.Join(filepath.Dir(DefaultLogPath()), "crashes")
}

// NewCrashHandler creates a new CrashHandler.
func NewCrashHandler(cfg *CrashHandlerConfig) *CrashHandler {
	if cfg == nil {
		cfg = &CrashHandlerConfig{}
	}
	h := &CrashHandler{
		crashDir:  cfg.CrashDir,
		version:   cfg.Version,
		component: cfg.Component,
		onCrash:   cfg.OnCrash,
		stderr:    cfg.Stderr,
	}
	if h.crashDir == "" {
		h.crashDir = DefaultCrashDir()
	}
	if h.stderr == nil {
		h.stderr = os.Stderr
	}
	return h
}

// Dir returns the directory crash dumps are written to.
func (h *CrashHandler) Dir() string {
	return h.crashDir
}

// SetOnCrash replaces the crash callback.
func (h *CrashHandler) SetOnCrash(fn func(CrashReport)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCrash = fn
}

// Recover runs fn and reports a panic instead of letting it unwind further.
// It returns true when fn panicked.
func (h *CrashHandler) Recover(fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			h.HandlePanic(r, nil)
			panicked = true
		}
	}()
	fn()
	return false
}

// RecoverGoroutine is deferred at the start of goroutines.
// Usage: go func() { defer h.RecoverGoroutine(); ... }()
func (h *CrashHandler) RecoverGoroutine() {
	if r := recover(); r != nil {
		h.HandlePanic(r, map[string]string{"type": "goroutine"})
	}
}

// HandlePanic writes a crash report for panicValue and returns its path.
func (h *CrashHandler) HandlePanic(panicValue interface{}, context map[string]string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	report := CrashReport{
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		GoVersion:    runtime.Version(),
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		NumGoroutine: runtime.NumGoroutine(),
		PanicValue:   fmt.Sprintf("%v", panicValue),
		StackTrace:   string(debug.Stack()),
		Component:    h.component,
		Context:      context,
	}

	if h.onCrash != nil {
		h.onCrash(report)
	}

	path, err := h.writeCrashDump(report)
	fmt.Fprintf(h.stderr, "\n=== CRASH REPORT ===\n")
	fmt.Fprintf(h.stderr, "Time: %s\n", report.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(h.stderr, "Panic: %s\n", report.PanicValue)
	fmt.Fprintf(h.stderr, "Stack trace:\n%s\n", report.StackTrace)
	if err != nil {
		fmt.Fprintf(h.stderr, "Crash dump not written: %v\n", err)
		return ""
	}
	fmt.Fprintf(h.stderr, "Crash dump written to: %s\n", path)
	return path
}

func (h *CrashHandler) writeCrashDump(report CrashReport) (string, error) {
	if err := os.MkdirAll(h.crashDir, 0o750); err != nil {
		return "", fmt.Errorf("create crash dir: %w", err)
	}
	name := fmt.Sprintf("crash-%s-%s.json",
		report.Component, report.Timestamp.Format("20060102-150405.000000"))
	path := filepath.Join(h.crashDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// Reports returns the stored crash reports, oldest first.
func (h *CrashHandler) Reports() ([]CrashReport, error) {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return nil, err
	}

	reports := make([]CrashReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var report CrashReport
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.Before(reports[j].Timestamp)
	})
	return reports, nil
}

// CleanupOldCrashReports removes crash reports older than maxAge.
func (h *CrashHandler) CleanupOldCrashReports(maxAge time.Duration) error {
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(file)
		}
	}
	return nil
}
