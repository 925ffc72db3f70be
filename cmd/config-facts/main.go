package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/robert-at-pretension-io/export-config/internal/config"
	"github.com/robert-at-pretension-io/export-config/internal/exporter"
	"github.com/robert-at-pretension-io/export-config/internal/facts"
	"github.com/robert-at-pretension-io/export-config/internal/validator"
)

const usage = "Usage: config-facts [--config file] [--only a,b] [--output file] [--delta-from prev.json --delta-out delta.json] <startup-script>"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("config-facts", flag.ContinueOnError)
	fs.SetOutput(stderr)
	output := fs.String("output", "", "write facts JSON to file (default: stdout)")
	fs.StringVar(output, "o", "", "write facts JSON to file (shorthand)")
	configPath := fs.String("config", "", "config file (default: search like export-config)")
	only := fs.String("only", "", "comma-separated configurations to dump")
	deltaFrom := fs.String("delta-from", "", "previous facts JSON to compute delta from")
	deltaOut := fs.String("delta-out", "", "write delta JSON to file (requires --delta-from)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, usage)
		return 1
	}
	if (*deltaFrom == "") != (*deltaOut == "") {
		fmt.Fprintln(stderr, "Error: --delta-from and --delta-out must be used together")
		return 1
	}

	path := fs.Arg(0)
	config.LoadDotEnv()
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	cfg.ApplyEnv()

	// Consistency findings do not stop a fact dump; only hard failures do.
	cfg.Lint.Rules = map[string]string{}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	result, err := exporter.Run(ctx, exporter.Options{
		StartupPath: path,
		Config:      cfg,
		Only:        splitNames(*only),
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	tables := result.Tables

	if *output != "" {
		if err := writeJSON(*output, tables); err != nil {
			fmt.Fprintf(stderr, "Error writing facts: %v\n", err)
			return 1
		}
	} else {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tables); err != nil {
			fmt.Fprintf(stderr, "Error encoding facts: %v\n", err)
			return 1
		}
	}

	if *deltaFrom != "" {
		prev, err := readTables(*deltaFrom)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading delta-from: %v\n", err)
			return 1
		}
		delta := facts.ComputeDelta(prev, tables)
		if names := splitNames(*only); len(names) > 0 {
			scope := make(map[string]bool, len(names))
			for _, n := range names {
				scope[n] = true
			}
			delta = facts.FilterDeltaByConfigs(delta, scope)
		}
		if err := writeJSON(*deltaOut, delta); err != nil {
			fmt.Fprintf(stderr, "Error writing delta: %v\n", err)
			return 1
		}
	}
	return 0
}

func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// readTables loads a previous snapshot, rejecting files that do not match the
// fact table schema.
func readTables(path string) (facts.Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return facts.Tables{}, err
	}
	v, err := validator.NewFactsValidator()
	if err != nil {
		return facts.Tables{}, err
	}
	if err := v.ValidateJSON(data); err != nil {
		return facts.Tables{}, fmt.Errorf("%s: %w", path, err)
	}

	var tables facts.Tables
	if err := json.Unmarshal(data, &tables); err != nil {
		return facts.Tables{}, err
	}
	return tables, nil
}

func writeJSON(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
