// imebridgectl is the inspection CLI for imebridge key tables, chords and
// candidate window rendering.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"imebridge/internal/config"
	"imebridge/internal/engine"
	"imebridge/internal/key"
	"imebridge/internal/keytable"
)

var (
	configPath = flag.String("config", "", "path to config file")
	styleFlag  = flag.String("style", "", "candidate window style for render (horizontal, vertical)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]

	var err error
	switch cmd {
	case "encode":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: imebridgectl encode <token> [token...]")
			os.Exit(1)
		}
		err = cmdEncode(os.Stdout, translator(), key.Chord(args))
	case "vim":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: imebridgectl vim <name>")
			os.Exit(1)
		}
		err = cmdVim(os.Stdout, translator(), args[0])
	case "decode":
		if len(args) < 1 || len(args) > 2 {
			fmt.Fprintln(os.Stderr, "Usage: imebridgectl decode <code|name> [mask|Shift+Control...]")
			os.Exit(1)
		}
		mask := "0"
		if len(args) == 2 {
			mask = args[1]
		}
		err = cmdDecode(os.Stdout, translator(), args[0], mask)
	case "render":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "Usage: imebridgectl [-style vertical] render <context.json|->")
			os.Exit(1)
		}
		err = cmdRender(os.Stdout, loadConfig(), args[0])
	case "chords":
		err = cmdChords(os.Stdout, translator())
	case "keys":
		err = cmdKeys(os.Stdout, translator())
	case "config":
		sub := "show"
		if len(args) > 0 {
			sub = args[0]
		}
		err = cmdConfig(os.Stdout, sub)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `imebridgectl - Inspection utility for imebridge

Usage: imebridgectl [options] <command> [args]

Commands:
  encode <token...>        Translate a host chord into a key event
  vim <name>               Translate vim key notation into a key event
  decode <code> [mask]     Translate a key event into a host chord
  render <context.json>    Draw an engine context as a candidate window ('-' reads stdin)
  chords                   List the chords a host must bind
  keys                     List the key table
  config [show|validate|init|path]
                           Inspect or create the config file
  help                     Show this help message

Options:
  -config <path>  Path to config file (default: ~/.config/imebridge/config.toml)
  -style <style>  Candidate window style for render`)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *styleFlag != "" {
		cfg.UI.Style = *styleFlag
	}
	return cfg
}

func translator() *key.Translator {
	tr, err := loadConfig().Keys.Translator()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading key table: %v\n", err)
		os.Exit(1)
	}
	return tr
}

// describe prints an event as its code, canonical name and modifiers.
func describe(w io.Writer, tbl *keytable.Table, ev key.Event) {
	name, ok := tbl.NameFor(ev.Code)
	if !ok {
		name = "?"
	}
	mods := strings.Join(tbl.ModifierNames(ev.Mask), "+")
	if mods == "" {
		mods = "none"
	}
	fmt.Fprintf(w, "code:  %#x (%d)\n", uint32(ev.Code), uint32(ev.Code))
	fmt.Fprintf(w, "name:  %s\n", name)
	fmt.Fprintf(w, "mask:  %#x (%s)\n", uint32(ev.Mask), mods)
}

func cmdEncode(w io.Writer, tr *key.Translator, chord key.Chord) error {
	ev, err := tr.Encode(chord)
	if err != nil {
		return err
	}
	describe(w, tr.Table(), ev)
	return nil
}

func cmdVim(w io.Writer, tr *key.Translator, name string) error {
	ev, err := tr.ParseVim(name)
	if err != nil {
		return err
	}
	describe(w, tr.Table(), ev)
	return nil
}

func cmdDecode(w io.Writer, tr *key.Translator, codeArg, maskArg string) error {
	tbl := tr.Table()
	code, err := parseCode(tbl, codeArg)
	if err != nil {
		return err
	}
	mask, err := parseMask(tbl, maskArg)
	if err != nil {
		return err
	}

	chord, err := tr.Decode(key.Event{Code: code, Mask: mask})
	if err != nil {
		return err
	}
	quoted := make([]string, len(chord))
	for i, tok := range chord {
		quoted[i] = strconv.Quote(tok)
	}
	fmt.Fprintln(w, strings.Join(quoted, " "))
	return nil
}

// parseCode accepts a number (decimal or 0x hex), a key name or a character.
func parseCode(tbl *keytable.Table, s string) (keytable.Code, error) {
	if n, err := strconv.ParseUint(s, 0, 32); err == nil && len(s) > 1 {
		return keytable.Code(n), nil
	}
	if code, err := tbl.CodeFor(s); err == nil {
		return code, nil
	}
	if r := []rune(s); len(r) == 1 {
		if code, ok := tbl.RuneCode(r[0]); ok {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", keytable.ErrUnknownKeyName, s)
}

// parseMask accepts a number or modifier names joined by '+' or '|'.
func parseMask(tbl *keytable.Table, s string) (keytable.Mask, error) {
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		return keytable.Mask(n), nil
	}
	var mask keytable.Mask
	for _, name := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == '|' }) {
		m, err := tbl.Modifier(strings.TrimSpace(name))
		if err != nil {
			return 0, err
		}
		mask |= m
	}
	return mask, nil
}

func cmdRender(w io.Writer, cfg *config.Config, path string) error {
	r, err := cfg.UI.Renderer()
	if err != nil {
		return err
	}

	var ctx *engine.Context
	if path == "-" {
		ctx, err = engine.ReadContext(os.Stdin)
	} else {
		ctx, err = engine.ReadContextFile(path)
	}
	if err != nil {
		return err
	}

	o := r.Render(ctx)
	if o.Empty() {
		return errors.New("nothing to draw")
	}
	for _, line := range o.Lines {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "(col %d, width %d)\n", o.Col, o.Width())
	return nil
}

func cmdChords(w io.Writer, tr *key.Translator) error {
	for _, c := range tr.BindableChords() {
		fmt.Fprintln(w, c.String())
	}
	return nil
}

func cmdKeys(w io.Writer, tr *key.Translator) error {
	tbl := tr.Table()
	for _, code := range tbl.Codes() {
		name, _ := tbl.NameFor(code)
		fmt.Fprintf(w, "0x%06x\t%s\t%s\n", uint32(code), name, tbl.HostName(name))
	}
	return nil
}

func cmdConfig(w io.Writer, sub string) error {
	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	switch sub {
	case "path":
		fmt.Fprintln(w, path)
	case "show":
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		data, err := config.Encode(cfg, ".toml")
		if err != nil {
			return err
		}
		w.Write(data)
	case "validate":
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		findings := config.Check(cfg)
		for _, f := range findings.Warnings() {
			fmt.Fprintf(w, "warning: %s\n", f.Error())
		}
		for _, f := range findings.Errors() {
			fmt.Fprintf(w, "error: %s\n", f.Error())
		}
		if findings.HasErrors() {
			return config.ErrInvalidConfig
		}
		fmt.Fprintf(w, "%s: OK\n", path)
	case "init":
		_, created, err := config.LoadOrCreate(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(w, "Created %s\n", path)
		} else {
			fmt.Fprintf(w, "%s already exists\n", path)
		}
	default:
		return fmt.Errorf("unknown config command: %s", sub)
	}
	return nil
}
