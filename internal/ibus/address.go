package ibus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoAddress is returned when the IBus bus address cannot be found.
var ErrNoAddress = errors.New("ibus address not found")

// Address returns the address of the IBus daemon's private bus: $IBUS_ADDRESS
// when set, otherwise the most recently written file under
// $XDG_CONFIG_HOME/ibus/bus.
func Address() (string, error) {
	if addr := os.Getenv("IBUS_ADDRESS"); addr != "" {
		return addr, nil
	}

	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return addressFromDir(filepath.Join(dir, "ibus", "bus"))
}

func addressFromDir(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoAddress, err)
	}

	var newest string
	var newestMod int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest, newestMod = e.Name(), mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoAddress, dir)
	}

	f, err := os.Open(filepath.Join(dir, newest))
	if err != nil {
		return "", err
	}
	defer f.Close()
	return parseAddressFile(f)
}

// parseAddressFile reads the IBUS_ADDRESS entry of an ibus bus file.
func parseAddressFile(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if addr, ok := strings.CutPrefix(line, "IBUS_ADDRESS="); ok && addr != "" {
			return addr, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", ErrNoAddress
}
