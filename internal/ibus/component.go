package ibus

import (
	"encoding/xml"
	"os"
	"path/filepath"
)

// Component is the IBus component description ibus-daemon reads to find and
// launch the engine.
type Component struct {
	XMLName     xml.Name     `xml:"component"`
	Name        string       `xml:"name"`
	Description string       `xml:"description"`
	Exec        string       `xml:"exec"`
	Version     string       `xml:"version"`
	Author      string       `xml:"author"`
	License     string       `xml:"license"`
	TextDomain  string       `xml:"textdomain"`
	Engines     []EngineDesc `xml:"engines>engine"`
}

// EngineDesc describes one engine of a component.
type EngineDesc struct {
	Name        string `xml:"name"`
	Language    string `xml:"language"`
	License     string `xml:"license"`
	Author      string `xml:"author"`
	Layout      string `xml:"layout"`
	LongName    string `xml:"longname"`
	Description string `xml:"description"`
	Rank        int    `xml:"rank"`
	Symbol      string `xml:"symbol"`
}

// DefaultComponent describes the engine launched from execPath.
func DefaultComponent(execPath string) Component {
	return Component{
		Name:        BusName,
		Description: "Input method bridge",
		Exec:        execPath + " --ibus",
		Version:     EngineVersion,
		Author:      "imebridge",
		License:     "MIT",
		TextDomain:  EngineName,
		Engines: []EngineDesc{{
			Name:        EngineName,
			Language:    "zh",
			License:     "MIT",
			Author:      "imebridge",
			Layout:      "us",
			LongName:    "imebridge",
			Description: "Input method bridge",
			Rank:        0,
			Symbol:      "中",
		}},
	}
}

// Marshal renders the component file.
func (c Component) Marshal() ([]byte, error) {
	out, err := xml.MarshalIndent(c, "", "    ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// ComponentPath is where a per-user component file is installed.
func ComponentPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "ibus", "component", EngineName+".xml"), nil
}

// Install writes the component file for execPath.
func Install(execPath string) (string, error) {
	path, err := ComponentPath()
	if err != nil {
		return "", err
	}
	data, err := DefaultComponent(execPath).Marshal()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0644)
}

// Uninstall removes the component file.
func Uninstall() error {
	path, err := ComponentPath()
	if err != nil {
		return err
	}
	return os.Remove(path)
}
