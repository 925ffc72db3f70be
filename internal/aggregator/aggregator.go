// Package aggregator drives form analysis for every configuration declared
// by the startup script and folds the results into per-configuration records.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/robert-at-pretension-io/export-config/internal/config"
	"github.com/robert-at-pretension-io/export-config/internal/extractor"
	"github.com/robert-at-pretension-io/export-config/internal/startup"
)

// FormExtractor abstracts form analysis for caching tests
type FormExtractor interface {
	Extract(form, path string) (extractor.FormScripts, error)
}

// Aggregator resolves form names to files under UIDir and analyzes them,
// reusing results for forms shared between configurations.
type Aggregator struct {
	// Config supplies form resolution and analysis options
	Config *config.Config

	// UIDir is the directory holding form files
	UIDir string

	// CacheDir is the on-disk cache location, used when the config enables it
	CacheDir string

	// TimingPath receives JSONL timing events when non-empty
	TimingPath string

	Logger *slog.Logger

	memo   *lru.Cache[string, extractor.FormScripts]
	disk   *formCache
	timing *timingRecorder

	// Optional extractor factory (for tests)
	extractorFactory func() FormExtractor

	// Optional cache version override (for tests)
	cacheVersionOverride *cacheVersions
}

// New creates an Aggregator reading forms from uiDir.
func New(cfg *config.Config, uiDir string) (*Aggregator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	size := cfg.Analysis.MemoryCacheSize
	if size <= 0 {
		size = config.DefaultConfig().Analysis.MemoryCacheSize
	}
	memo, err := lru.New[string, extractor.FormScripts](size)
	if err != nil {
		return nil, fmt.Errorf("form cache: %w", err)
	}
	return &Aggregator{
		Config: cfg,
		UIDir:  uiDir,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		memo:   memo,
	}, nil
}

func (a *Aggregator) newExtractor() FormExtractor {
	if a.extractorFactory != nil {
		return a.extractorFactory()
	}
	return extractor.New()
}

// ExtractScriptsToRecord analyzes form and stores its equation outputs and
// callback modules in rec. It refuses to touch a record that already holds
// the form and reports ErrDuplicatePopulation instead.
func (a *Aggregator) ExtractScriptsToRecord(form string, rec *Record) error {
	if rec.Has(form) {
		return fmt.Errorf("%w: %s in %s", ErrDuplicatePopulation, form, rec.Configuration)
	}
	scripts, err := a.analyze(form)
	if err != nil {
		return err
	}
	rec.put(form, scripts.EqnOutputs, scripts.CallbackModules)
	return nil
}

// Run aggregates every configuration in order. Common forms already in a
// record are reused; an exclusive form seen twice within one configuration is
// an error. The first failure aborts the run.
func (a *Aggregator) Run(ctx context.Context, configs []startup.Configuration) ([]Record, error) {
	runStart := time.Now()
	a.timing = newTimingRecorder(runStart, a.resolveTimingPath())
	defer a.timing.Close()
	if err := a.timing.Err(); err != nil {
		a.Logger.Warn("timing output disabled", "error", err)
	}

	if err := a.openDiskCache(); err != nil {
		a.Logger.Warn("form cache disabled", "dir", a.CacheDir, "error", err)
		a.disk = nil
	}

	a.prewarm(ctx, distinctForms(configs))

	foldStart := time.Now()
	records := make([]Record, 0, len(configs))
	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			a.timing.RecordStage("aggregate", foldStart, "canceled")
			return nil, err
		}
		rec, err := a.aggregateConfiguration(cfg)
		if err != nil {
			a.timing.RecordStage("aggregate", foldStart, "error")
			return nil, err
		}
		a.Logger.Debug("configuration aggregated", "configuration", cfg.Name, "forms", len(rec.Forms))
		records = append(records, *rec)
	}
	a.timing.RecordStage("aggregate", foldStart, "ok")

	if a.disk != nil {
		if err := a.disk.Save(); err != nil {
			a.Logger.Warn("saving form cache", "error", err)
		}
	}
	a.timing.RecordStage("total", runStart, "ok")
	return records, nil
}

func (a *Aggregator) aggregateConfiguration(cfg startup.Configuration) (*Record, error) {
	rec := NewRecord(cfg.Name)
	for _, page := range cfg.Pages {
		for _, form := range page.CommonForms {
			if rec.Has(form) {
				continue
			}
			if err := a.ExtractScriptsToRecord(form, rec); err != nil {
				return nil, fmt.Errorf("configuration %s: %w", cfg.Name, err)
			}
		}
		for _, form := range page.ExclusiveForms {
			if err := a.ExtractScriptsToRecord(form, rec); err != nil {
				return nil, fmt.Errorf("configuration %s: %w", cfg.Name, err)
			}
		}
	}
	return rec, nil
}

func (a *Aggregator) openDiskCache() error {
	if a.disk != nil || !a.Config.CacheEnabled() || a.CacheDir == "" {
		return nil
	}
	versions := defaultCacheVersions()
	if a.cacheVersionOverride != nil {
		versions = *a.cacheVersionOverride
	}
	c := newFormCache(a.CacheDir, versions)
	if err := c.Load(); err != nil {
		return err
	}
	a.disk = c
	return nil
}

// prewarm analyzes distinct forms concurrently so the ordered fold mostly hits
// the memory cache. Failures are dropped here; the fold reports them in order.
func (a *Aggregator) prewarm(ctx context.Context, forms []string) {
	limit := a.Config.Analysis.MaxParallelForms
	if limit <= 1 || len(forms) < 2 {
		return
	}
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, form := range forms {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			_, _ = a.analyze(form)
			return nil
		})
	}
	_ = g.Wait()
	a.timing.RecordStage("prewarm", start, "ok")
}

func (a *Aggregator) analyze(form string) (extractor.FormScripts, error) {
	if scripts, ok := a.memo.Get(form); ok {
		return scripts, nil
	}

	start := time.Now()
	path := a.Config.FormPath(a.UIDir, form)

	var hash string
	if a.disk != nil {
		h, err := hashFile(path)
		if err != nil {
			a.timing.RecordForm("analyze", form, "error", start)
			return extractor.FormScripts{}, formError(form, path, err)
		}
		hash = h
		if scripts, ok := a.disk.Get(path, hash); ok {
			a.memo.Add(form, scripts)
			a.timing.RecordForm("analyze", form, "cached", start)
			return scripts, nil
		}
	}

	scripts, err := a.newExtractor().Extract(form, path)
	if err != nil {
		a.timing.RecordForm("analyze", form, "error", start)
		return extractor.FormScripts{}, formError(form, path, err)
	}
	for _, d := range scripts.Diagnostics {
		a.Logger.Debug("form diagnostic", "form", form, "detail", d)
	}

	if a.disk != nil {
		a.disk.Put(path, hash, scripts)
	}
	a.memo.Add(form, scripts)
	a.timing.RecordForm("analyze", form, "ok", start)
	return scripts, nil
}

func formError(form, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s (%s)", ErrFormNotFound, form, path)
	}
	return fmt.Errorf("analyzing form %s: %w", form, err)
}

func distinctForms(configs []startup.Configuration) []string {
	seen := make(map[string]bool)
	var forms []string
	for _, cfg := range configs {
		for _, page := range cfg.Pages {
			for _, form := range page.Forms() {
				if !seen[form] {
					seen[form] = true
					forms = append(forms, form)
				}
			}
		}
	}
	return forms
}
