package engine

import (
	"os"
	"path/filepath"
)

// SharedDataDir finds the system-wide Rime data directory, or returns "".
// Candidates are derived from $PREFIX, or from the directory holding $SHELL's bin.
func SharedDataDir() string {
	prefix := os.Getenv("PREFIX")
	if prefix == "" {
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
		prefix = filepath.Dir(filepath.Dir(shell))
	}
	return firstDir([]string{
		filepath.Join(prefix, "share"),
		filepath.Join(prefix, "usr/share"),
		"/run/current-system/sw",
		"/sdcard",
	}, "rime-data")
}

// UserDataDir finds the per-user Rime directory shared with other front ends, or returns "".
func UserDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return firstDir([]string{
		filepath.Join(home, ".config", "ibus"),
		filepath.Join(home, ".local", "share", "fcitx5"),
		filepath.Join(home, ".config", "fcitx"),
		"/sdcard",
	}, "rime")
}

func firstDir(prefixes []string, leaf string) string {
	for _, p := range prefixes {
		dir := filepath.Join(p, leaf)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}
