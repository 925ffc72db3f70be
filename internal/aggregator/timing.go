package aggregator

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/robert-at-pretension-io/export-config/internal/config"
)

// timingRecorder writes one JSON line per stage or form through a slog JSON
// handler. Offsets are milliseconds since the start of the run.
type timingRecorder struct {
	start  time.Time
	file   *os.File
	logger *slog.Logger
	err    error
}

func newTimingRecorder(start time.Time, path string) *timingRecorder {
	tr := &timingRecorder{start: start}
	if path == "" {
		return tr
	}
	f, err := os.Create(path)
	if err != nil {
		tr.err = err
		return tr
	}
	tr.file = f
	tr.logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey) {
				return slog.Attr{}
			}
			return a
		},
	}))
	return tr
}

func (tr *timingRecorder) Err() error {
	if tr == nil {
		return nil
	}
	return tr.err
}

func (tr *timingRecorder) Close() {
	if tr == nil || tr.file == nil {
		return
	}
	_ = tr.file.Close()
	tr.file = nil
	tr.logger = nil
}

func (tr *timingRecorder) record(kind, phase, form, status string, start time.Time) {
	if tr == nil || tr.logger == nil {
		return
	}
	startMS := durationToMS(start.Sub(tr.start))
	durationMS := durationToMS(time.Since(start))
	attrs := []slog.Attr{
		slog.String("phase", phase),
		slog.String("kind", kind),
	}
	if form != "" {
		attrs = append(attrs, slog.String("form", form))
	}
	attrs = append(attrs,
		slog.String("status", status),
		slog.Float64("start_ms", startMS),
		slog.Float64("duration_ms", durationMS),
		slog.Float64("end_ms", startMS+durationMS),
	)
	tr.logger.LogAttrs(context.Background(), slog.LevelInfo, kind+" "+phase, attrs...)
}

func (tr *timingRecorder) RecordStage(phase string, start time.Time, status string) {
	tr.record("stage", phase, "", status, start)
}

func (tr *timingRecorder) RecordForm(phase, form, status string, start time.Time) {
	tr.record("form", phase, form, status, start)
}

func durationToMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000_000.0
}

func (a *Aggregator) resolveTimingPath() string {
	if envPath := os.Getenv(config.EnvTiming); envPath != "" {
		return envPath
	}
	return a.TimingPath
}
