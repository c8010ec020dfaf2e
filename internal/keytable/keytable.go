// Package keytable holds the key symbol table shared by every key translation in imebridge.
//
// The table maps canonical key names (the engine vocabulary: "Escape", "Page_Up", "a")
// to X11-style key codes and back. It also carries the configuration that the translator
// needs: alternate spellings, bracketed chord aliases, the ordered modifier list that
// defines mask bits, modifier prefix letters, ANSI templates and host token overrides.
//
// A table is built once from a JSON document that is validated against an embedded
// JSON Schema, and is read-only afterwards. Default returns the embedded table.
package keytable

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Code identifies a key in the engine vocabulary.
type Code uint32

// unicodeOffset marks keysyms that carry a Unicode code point above Latin-1.
const unicodeOffset Code = 0x01000000

var (
	// ErrUnknownKeyName is returned when a name is absent from the table.
	ErrUnknownKeyName = errors.New("unknown key name")
	// ErrUnsupportedModifier is returned for modifier names or prefixes the table does not configure.
	ErrUnsupportedModifier = errors.New("unsupported modifier")
	// ErrInvalidTable is returned when a table document fails validation.
	ErrInvalidTable = errors.New("invalid key table")
)

//go:embed assets/keys.json
var defaultTableJSON []byte

//go:embed assets/keys.schema.json
var tableSchemaJSON []byte

const schemaURL = "keys.schema.json"

// document is the on-disk shape of a key table.
type document struct {
	Keys          map[string]uint32 `json:"keys"`
	Names         map[string]string `json:"names"`
	Aliases       map[string]string `json:"aliases"`
	Modifiers     []string          `json:"modifiers"`
	ANSIModifiers []string          `json:"ansi_modifiers"`
	Prefixes      map[string]string `json:"prefixes"`
	Templates     map[string]string `json:"templates"`
	HostNames     map[string]string `json:"host_names"`
}

// Table is an immutable key symbol table.
type Table struct {
	codes  map[string]Code
	names  map[Code]string
	folded map[string]Code

	aliases   map[string]string
	templates map[string]string
	hostNames map[string]string

	modifiers []string
	modMasks  map[string]Mask
	ansi      []Mask
	prefixes  map[string]Mask

	sortedCodes     []Code
	sortedTemplates []string
}

var (
	defaultTable *Table
	defaultOnce  sync.Once

	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Default returns the table built from the embedded key data.
// It panics if the embedded data is corrupt, which only a broken build can cause.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(defaultTableJSON))
		if err != nil {
			panic(fmt.Sprintf("keytable: embedded table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// LoadFile reads a key table document from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key table: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads, validates and indexes a key table document.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read key table: %w", err)
	}
	if err := validate(data); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidTable, err)
	}
	return build(&doc)
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(tableSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

func validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile key table schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if err := s.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	return nil
}

func build(doc *document) (*Table, error) {
	t := &Table{
		codes:     make(map[string]Code, len(doc.Keys)),
		names:     make(map[Code]string, len(doc.Keys)),
		folded:    make(map[string]Code),
		aliases:   make(map[string]string, len(doc.Aliases)),
		templates: make(map[string]string, len(doc.Templates)),
		hostNames: make(map[string]string, len(doc.HostNames)),
		modifiers: append([]string(nil), doc.Modifiers...),
		modMasks:  make(map[string]Mask),
		prefixes:  make(map[string]Mask, len(doc.Prefixes)),
	}

	for name, v := range doc.Keys {
		code := Code(v)
		if prev, ok := t.names[code]; ok {
			return nil, fmt.Errorf("%w: code %#x named both %q and %q", ErrInvalidTable, code, prev, name)
		}
		t.codes[name] = code
		t.names[code] = name
		if utf8.RuneCountInString(name) > 1 {
			lower := strings.ToLower(name)
			if _, ok := t.folded[lower]; ok {
				return nil, fmt.Errorf("%w: names collide ignoring case: %q", ErrInvalidTable, name)
			}
			t.folded[lower] = code
		}
	}

	for spelling, canonical := range doc.Names {
		code, ok := t.codes[canonical]
		if !ok {
			return nil, fmt.Errorf("%w: spelling %q refers to unknown key %q", ErrInvalidTable, spelling, canonical)
		}
		if _, ok := t.folded[spelling]; ok {
			return nil, fmt.Errorf("%w: spelling %q shadows a canonical name", ErrInvalidTable, spelling)
		}
		t.folded[spelling] = code
	}

	for from, to := range doc.Aliases {
		t.aliases[strings.ToLower(from)] = to
	}

	for i, name := range doc.Modifiers {
		if name == "" {
			continue
		}
		if _, ok := t.modMasks[name]; ok {
			return nil, fmt.Errorf("%w: duplicate modifier %q", ErrInvalidTable, name)
		}
		t.modMasks[name] = Mask(1) << uint(i)
	}
	for _, name := range doc.ANSIModifiers {
		m, ok := t.modMasks[name]
		if !ok {
			return nil, fmt.Errorf("%w: ANSI modifier %q is not a configured modifier", ErrInvalidTable, name)
		}
		t.ansi = append(t.ansi, m)
	}
	for letter, name := range doc.Prefixes {
		m, ok := t.modMasks[name]
		if !ok {
			return nil, fmt.Errorf("%w: prefix %q refers to unknown modifier %q", ErrInvalidTable, letter, name)
		}
		t.prefixes[letter] = m
	}

	for name, tmpl := range doc.Templates {
		if _, ok := t.codes[name]; !ok {
			return nil, fmt.Errorf("%w: template for unknown key %q", ErrInvalidTable, name)
		}
		t.templates[name] = tmpl
		t.sortedTemplates = append(t.sortedTemplates, name)
	}
	sort.Strings(t.sortedTemplates)

	for name, host := range doc.HostNames {
		if _, ok := t.codes[name]; !ok {
			return nil, fmt.Errorf("%w: host name for unknown key %q", ErrInvalidTable, name)
		}
		t.hostNames[name] = host
	}

	t.sortedCodes = make([]Code, 0, len(t.names))
	for code := range t.names {
		t.sortedCodes = append(t.sortedCodes, code)
	}
	sort.Slice(t.sortedCodes, func(i, j int) bool { return t.sortedCodes[i] < t.sortedCodes[j] })

	return t, nil
}

// CodeFor returns the code of a canonical name. Alternate spellings and
// multi-character names are also matched case-insensitively.
func (t *Table) CodeFor(name string) (Code, error) {
	if code, ok := t.codes[name]; ok {
		return code, nil
	}
	if utf8.RuneCountInString(name) > 1 {
		if code, ok := t.folded[strings.ToLower(name)]; ok {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKeyName, name)
}

// NameFor returns the canonical name of code. Codes outside the table that
// carry a printable character are named by that character.
func (t *Table) NameFor(code Code) (string, bool) {
	if name, ok := t.names[code]; ok {
		return name, true
	}
	if r, ok := codeRune(code); ok {
		return string(r), true
	}
	return "", false
}

// RuneCode returns the code of a single printable character.
func (t *Table) RuneCode(r rune) (Code, bool) {
	if code, ok := t.codes[string(r)]; ok {
		return code, true
	}
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return 0, false
	}
	if r < 0x100 {
		return Code(r), true
	}
	return unicodeOffset | Code(r), true
}

func codeRune(code Code) (rune, bool) {
	var r rune
	switch {
	case code >= 0x20 && code < 0x100:
		r = rune(code)
	case code&0xff000000 == unicodeOffset:
		r = rune(code &^ unicodeOffset)
	default:
		return 0, false
	}
	if !unicode.IsPrint(r) {
		return 0, false
	}
	return r, true
}

// ResolveAlias returns the replacement for a bracketed alias such as "<CR>",
// matched case-insensitively, or name unchanged.
func (t *Table) ResolveAlias(name string) string {
	if to, ok := t.aliases[strings.ToLower(name)]; ok {
		return to
	}
	return name
}

// Template returns the ANSI template owned by a canonical name.
// Templates contain a single "{}" placeholder for the modifier parameter.
func (t *Table) Template(name string) (string, bool) {
	tmpl, ok := t.templates[name]
	return tmpl, ok
}

// MatchTemplate finds the key whose template produces s and returns the text
// that filled the placeholder.
func (t *Table) MatchTemplate(s string) (name, param string, ok bool) {
	for _, name := range t.sortedTemplates {
		prefix, suffix, _ := strings.Cut(t.templates[name], "{}")
		if len(s) < len(prefix)+len(suffix) {
			continue
		}
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, suffix) {
			return name, s[len(prefix) : len(s)-len(suffix)], true
		}
	}
	return "", "", false
}

// HostName converts a canonical name to the host token vocabulary:
// single characters are kept, configured overrides apply, anything else is lower-cased.
func (t *Table) HostName(canonical string) string {
	if utf8.RuneCountInString(canonical) == 1 {
		return canonical
	}
	if host, ok := t.hostNames[canonical]; ok {
		return host
	}
	return strings.ToLower(canonical)
}

// Codes returns every code in the table in ascending order.
func (t *Table) Codes() []Code {
	return append([]Code(nil), t.sortedCodes...)
}
