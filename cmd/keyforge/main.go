// Package main is the entry point for the keyforge preset compiler.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/keyforge/internal/bindings"
	"github.com/dshills/keyforge/internal/loader"
	"github.com/dshills/keyforge/internal/preset"
	"github.com/dshills/keyforge/internal/store"
	"github.com/dshills/keyforge/internal/watcher"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	OutPath   string
	StorePath string
	Watch     bool
	LogLevel  string
	Preset    string
}

func run() int {
	opts := parseFlags()
	logger := newLogger(opts.LogLevel)

	// Open the store first so a bad path fails before any work
	var st store.Store
	if opts.StorePath != "" {
		var err error
		st, err = store.NewSQLite(opts.StorePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open store: %v\n", err)
			return 1
		}
		defer st.Close()
	}

	if err := compile(opts, logger, st); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if !opts.Watch {
		return 0
	}

	w, err := watcher.New(opts.Preset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to watch %s: %v\n", opts.Preset, err)
		return 1
	}
	defer w.Close()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("watching preset", "path", w.Path())
	for {
		select {
		case <-signals:
			return 0
		case <-w.Events():
			// A failed recompile leaves the last output in place and
			// keeps watching; the author is likely mid-edit.
			if err := compile(opts, logger, st); err != nil {
				logger.Error("recompile failed", "error", err)
			}
		case err, ok := <-w.Errors():
			if !ok {
				return 0
			}
			logger.Error("watch error", "error", err)
		}
	}
}

// compile runs one load, upgrade, parse, compile, output pass.
func compile(opts options, logger *slog.Logger, st store.Store) error {
	file, err := loader.New().Load(opts.Preset)
	if err != nil {
		return err
	}

	if st != nil {
		cached, err := st.Get(file.Name)
		if err != nil {
			return fmt.Errorf("reading store: %w", err)
		}
		if cached != nil && cached.Checksum == file.Checksum {
			logger.Info("source unchanged, reusing stored table",
				"preset", file.Name, "bindings", len(cached.Table.Bindings))
			return writeOutput(opts.OutPath, file, cached.Table, cached.Problems)
		}
	}

	doc := file.Doc
	if preset.NeedsUpgrade(doc) {
		doc, _ = preset.Upgrade(doc)
		logger.Info("upgraded legacy preset", "preset", file.Name)
	}

	var probs preset.Problems
	spec, err := preset.Parse(doc, &probs)
	if err != nil {
		return err
	}

	table, err := bindings.New().Compile(spec, &probs)
	if err != nil {
		return err
	}

	problems := probs.List()
	for _, p := range problems {
		logger.Warn("compile problem", "preset", file.Name, "detail", p)
	}
	logger.Info("compiled preset",
		"preset", file.Name,
		"bindings", len(table.Bindings),
		"prefixes", len(table.PrefixCodes),
		"problems", len(problems))

	if err := writeOutput(opts.OutPath, file, table, problems); err != nil {
		return err
	}

	if st != nil {
		if err := st.Put(store.NewEntry(file.Name, file.Checksum, table, problems)); err != nil {
			return fmt.Errorf("storing compiled table: %w", err)
		}
	}

	return nil
}

// output is the JSON document written for one compiled preset.
type output struct {
	Name        string             `json:"name"`
	Checksum    string             `json:"checksum"`
	Bindings    []bindings.Binding `json:"bindings"`
	PrefixCodes []string           `json:"prefixCodes"`
	Problems    []string           `json:"problems"`
}

func writeOutput(path string, file *loader.File, table *bindings.Table, problems []string) error {
	if problems == nil {
		problems = []string{}
	}
	doc := output{
		Name:        file.Name,
		Checksum:    file.Checksum,
		Bindings:    table.Bindings,
		PrefixCodes: table.PrefixCodes,
		Problems:    problems,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// newLogger builds the process logger. parseFlags has already validated
// the level string, which follows slog.Level.UnmarshalText.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	_ = l.UnmarshalText([]byte(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.OutPath, "out", "", "Write the compiled table to this file (default stdout)")
	flag.StringVar(&opts.OutPath, "o", "", "Write the compiled table to this file (shorthand)")
	flag.StringVar(&opts.StorePath, "store", "", "SQLite store path; unchanged sources reuse the stored table")
	flag.BoolVar(&opts.Watch, "watch", false, "Recompile whenever the preset changes")
	flag.BoolVar(&opts.Watch, "w", false, "Recompile whenever the preset changes (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Keyforge - modal keybinding preset compiler\n\n")
		fmt.Fprintf(os.Stderr, "Usage: keyforge [options] <preset.toml>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  keyforge vim.toml                  Compile to stdout\n")
		fmt.Fprintf(os.Stderr, "  keyforge -o vim.json vim.toml      Compile to a file\n")
		fmt.Fprintf(os.Stderr, "  keyforge -store keys.db vim.toml   Compile and persist\n")
		fmt.Fprintf(os.Stderr, "  keyforge -w -o vim.json vim.toml   Recompile on change\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Keyforge %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	opts.Preset = flag.Arg(0)

	return opts
}
