// =============================================================================
// export-config - Main Entry Point
// =============================================================================
//
// Generates the configuration lookup tables the desktop application ships
// with, by reading its UI description sources at build time.
//
// THE PIPELINE:
//   1. Startup script extractor discovers configurations, pages and modules
//   2. Form splitter isolates each form's equation and callback scripts
//   3. Equation analyzer (tree-sitter) and callback analyzer collect
//      output variables and invoked compute modules
//   4. Aggregator folds form results into one record per configuration
//   5. CUE validates the fact tables, OPA runs the consistency rules
//   6. Tables are emitted as a Python module (or JSON / YAML)
//
// WHEN A TABLE LOOKS WRONG:
//   Start at the beginning of the pipeline, not the end!
//   Startup parse warnings → form regions (form-dump) → policy findings
// =============================================================================

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/robert-at-pretension-io/export-config/internal/config"
	"github.com/robert-at-pretension-io/export-config/internal/exporter"
	"github.com/robert-at-pretension-io/export-config/internal/ssc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

const usage = `Usage: export-config [command] [options] <startup-script>

Commands:
  init              Create an export_config.json configuration file
  <startup-script>  Generate lookup tables from the startup script

Options:
  -c, --config      Use this config file instead of searching for one
  -o, --output      Write tables to a file (default: stdout)
  -f, --format      Output format: python, json, yaml
  --ui-path         Form directory (relative to the startup script)
  --only            Comma-separated configuration names to export
  --ssc-version     Version string for the generated header
  --timing          Write JSONL timing events to a file
  --env             Load environment overrides from a .env file
  -v, --verbose     Enable debug logging
  -h, --help        Show this help message

Configuration:
  export-config looks for configuration in:
    1. ./export_config.json
    2. ./.export_config.json
    3. <startup dir>/export_config.json
    4. ~/.config/export_config/config.json

  Run 'export-config init' to create a default configuration file.`

type options struct {
	configPath string
	output     string
	format     string
	uiPath     string
	only       string
	sscVersion string
	timing     string
	envFile    string
	verbose    bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdin, stdout, stderr)
	}

	fs := flag.NewFlagSet("export-config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "")
	fs.StringVar(&opts.configPath, "c", "", "")
	fs.StringVar(&opts.output, "output", "", "")
	fs.StringVar(&opts.output, "o", "", "")
	fs.StringVar(&opts.format, "format", "", "")
	fs.StringVar(&opts.format, "f", "", "")
	fs.StringVar(&opts.uiPath, "ui-path", "", "")
	fs.StringVar(&opts.only, "only", "", "")
	fs.StringVar(&opts.sscVersion, "ssc-version", "", "")
	fs.StringVar(&opts.timing, "timing", "", "")
	fs.StringVar(&opts.envFile, "env", "", "")
	fs.BoolVar(&opts.verbose, "verbose", false, "")
	fs.BoolVar(&opts.verbose, "v", false, "")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, usage)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, usage)
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, usage)
		return 1
	}
	startupPath := fs.Arg(0)

	logger := newLogger(stderr, opts.verbose)

	if opts.envFile != "" {
		config.LoadDotEnv(opts.envFile)
	} else {
		config.LoadDotEnv()
	}

	cfg, err := loadConfig(opts, startupPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	var only []string
	if opts.only != "" {
		for _, name := range strings.Split(opts.only, ",") {
			if name = strings.TrimSpace(name); name != "" {
				only = append(only, name)
			}
		}
	}

	var out bytes.Buffer
	err = exporter.Export(ctx, &out, exporter.Options{
		StartupPath: startupPath,
		Config:      cfg,
		Only:        only,
		TimingPath:  opts.timing,
		Logger:      logger,
		Version:     ssc.FromConfig(cfg),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.output == "" {
		if _, err := out.WriteTo(stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if err := os.WriteFile(opts.output, out.Bytes(), 0o644); err != nil {
		fmt.Fprintf(stderr, "Error writing %s: %v\n", opts.output, err)
		return 1
	}
	logger.Info("tables written", "path", opts.output)
	return 0
}

// loadConfig resolves the config file, then layers environment and flag
// overrides on top. Flags win over the environment.
func loadConfig(opts options, startupPath string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(startupPath)
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if opts.uiPath != "" {
		cfg.UIPath = opts.uiPath
	}
	if opts.format != "" {
		cfg.Output.Format = strings.ToLower(opts.format)
	}
	if opts.sscVersion != "" {
		cfg.SSCVersion = opts.sscVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runInit(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	configPath := config.FileName
	if len(args) > 0 {
		configPath = args[0]
	}

	if _, err := os.Stat(configPath); err == nil {
		if f, ok := stdin.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			fmt.Fprintf(stderr, "Error: %s already exists\n", configPath)
			return 1
		}
		fmt.Fprintf(stdout, "Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Fscanln(stdin, &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(stdout, "Aborted.")
			return 0
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(stderr, "Error creating config: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Created %s\n", configPath)
	fmt.Fprintln(stdout, "\nEdit this file to configure:")
	fmt.Fprintln(stdout, "  - Form directory and extension")
	fmt.Fprintln(stdout, "  - Output format and configuration filter")
	fmt.Fprintln(stdout, "  - Consistency rule severities")
	return 0
}
