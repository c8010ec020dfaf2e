package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "imebridge"

// PlatformDataDir returns the platform-specific data directory, where user
// dictionaries live.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/imebridge/
//   - Linux:   $XDG_DATA_HOME/imebridge/ or ~/.local/share/imebridge/
//   - Windows: %APPDATA%\imebridge\
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSAppDir()
	case "windows":
		return windowsAppDir()
	default:
		return xdgDir("XDG_DATA_HOME", ".local", "share")
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/imebridge/
//   - Linux:   $XDG_CONFIG_HOME/imebridge/ or ~/.config/imebridge/
//   - Windows: %APPDATA%\imebridge\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSAppDir() // macOS uses same dir for config and data
	case "windows":
		return windowsAppDir()
	default:
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

func macOSAppDir() string {
	return filepath.Join(homeDir(), "Library", "Application Support", appName)
}

func windowsAppDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName)
	}
	return filepath.Join(homeDir(), "AppData", "Roaming", appName)
}

// xdgDir follows the XDG Base Directory Specification: $env, or the
// fallback under $HOME.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(append(append([]string{homeDir()}, fallback...), appName)...)
}

// SupportedConfigFormats returns the list of supported config file formats.
func SupportedConfigFormats() []string {
	return []string{
		"toml",
		"json",
		"yaml",
		"yml",
	}
}

// FindConfigFile searches for a config file in standard locations.
// Returns the path to the first found config file, or empty string if none found.
func FindConfigFile() string {
	// Search order:
	// 1. Current directory
	// 2. Config directory
	for _, dir := range []string{".", ConfigDir()} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, appName+"."+ext)
			if dir != "." {
				path = filepath.Join(dir, "config."+ext)
			}
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}
