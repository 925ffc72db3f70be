// Package exporter runs the whole export pipeline: parse the startup script,
// analyze every referenced form, build and check the fact tables, then emit.
package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/robert-at-pretension-io/export-config/internal/aggregator"
	"github.com/robert-at-pretension-io/export-config/internal/config"
	"github.com/robert-at-pretension-io/export-config/internal/emit"
	"github.com/robert-at-pretension-io/export-config/internal/facts"
	"github.com/robert-at-pretension-io/export-config/internal/policy"
	"github.com/robert-at-pretension-io/export-config/internal/ssc"
	"github.com/robert-at-pretension-io/export-config/internal/startup"
	"github.com/robert-at-pretension-io/export-config/internal/validator"
)

// ErrPolicy is returned when a consistency rule with error severity fires.
var ErrPolicy = errors.New("consistency check failed")

// Options configures one export run.
type Options struct {
	StartupPath string
	Config      *config.Config

	// Only overrides the configuration filter from Config.
	Only []string

	// TimingPath receives JSONL timing events when non-empty.
	TimingPath string

	Logger  *slog.Logger
	Version ssc.VersionSource
	Now     func() time.Time
}

// Result is everything a successful run produced.
type Result struct {
	Configurations []startup.Configuration
	ParseErrors    []startup.ParseError
	Records        []aggregator.Record
	Tables         facts.Tables
	Policy         *policy.Result
}

// Run executes the pipeline up to, but not including, emission.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if len(opts.Only) > 0 {
		scoped := *cfg
		scoped.Configurations = opts.Only
		cfg = &scoped
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	text, err := os.ReadFile(opts.StartupPath)
	if err != nil {
		return nil, fmt.Errorf("reading startup script: %w", err)
	}

	ext := startup.New()
	configs, parseErrs := ext.LoadStartupScript(string(text))
	for _, pe := range parseErrs {
		logger.Warn("startup script", "file", opts.StartupPath, "line", pe.Line, "error", pe.Message, "statement", pe.Statement)
	}
	logger.Info("startup script loaded", "configurations", len(configs), "parse_errors", len(parseErrs))

	selected, err := selectConfigurations(configs, cfg)
	if err != nil {
		return nil, err
	}

	agg, err := aggregator.New(cfg, cfg.ResolveUIDir(opts.StartupPath))
	if err != nil {
		return nil, err
	}
	agg.Logger = logger
	agg.TimingPath = opts.TimingPath
	if cfg.CacheEnabled() {
		agg.CacheDir = cfg.ResolveCacheDir(opts.StartupPath)
	}
	logger.Debug("analyzing forms", "ui_dir", agg.UIDir, "configurations", len(selected))

	records, err := agg.Run(ctx, selected)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(selected))
	for _, c := range selected {
		names[c.Name] = true
	}
	tables := facts.FilterTablesByConfigs(facts.BuildTables(configs, records), names)

	fv, err := validator.NewFactsValidator()
	if err != nil {
		return nil, fmt.Errorf("init facts validator: %w", err)
	}
	if err := fv.Validate(tables); err != nil {
		return nil, fmt.Errorf("fact tables: %w", err)
	}

	engine, err := policy.New(cfg.Lint.PolicyDir)
	if err != nil {
		return nil, fmt.Errorf("init policy engine: %w", err)
	}
	pr, err := engine.Evaluate(ctx, policy.BuildInput(tables, cfg.Lint.Rules))
	if err != nil {
		return nil, err
	}
	logViolations(logger, pr.Violations)

	result := &Result{
		Configurations: selected,
		ParseErrors:    parseErrs,
		Records:        records,
		Tables:         tables,
		Policy:         pr,
	}
	if pr.HasErrors() {
		return result, fmt.Errorf("%w: %d error(s)", ErrPolicy, pr.Summary.Errors)
	}
	return result, nil
}

// Export runs the pipeline and writes the rendered tables to w. Nothing is
// written unless every stage succeeded.
func Export(ctx context.Context, w io.Writer, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	result, err := Run(ctx, opts)
	if err != nil {
		return err
	}

	version := opts.Version
	if version == nil {
		version = ssc.FromConfig(cfg)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	header := emit.Header{SSCVersion: version.Version(), Date: now()}

	var buf bytes.Buffer
	if err := emit.Write(&buf, cfg.Output.Format, result.Tables, header); err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}

// selectConfigurations applies the configuration filter. Naming a
// configuration the startup script never declares is an error.
func selectConfigurations(configs []startup.Configuration, cfg *config.Config) ([]startup.Configuration, error) {
	declared := make(map[string]bool, len(configs))
	for _, c := range configs {
		declared[c.Name] = true
	}
	for _, n := range cfg.Configurations {
		if !declared[n] {
			return nil, fmt.Errorf("unknown configuration %q", n)
		}
	}
	out := make([]startup.Configuration, 0, len(configs))
	for _, c := range configs {
		if cfg.WantsConfiguration(c.Name) {
			out = append(out, c)
		}
	}
	return out, nil
}

func logViolations(logger *slog.Logger, violations []policy.Violation) {
	for _, v := range violations {
		attrs := []any{"rule", v.Rule, "configuration", v.Configuration}
		if v.Form != "" {
			attrs = append(attrs, "form", v.Form)
		}
		switch v.Severity {
		case "error":
			logger.Error(v.Message, attrs...)
		case "warning":
			logger.Warn(v.Message, attrs...)
		default:
			logger.Info(v.Message, attrs...)
		}
	}
}
