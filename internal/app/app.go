package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/specialistvlad/modelopt/internal/analysis"
	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/ctxlog"
	"github.com/specialistvlad/modelopt/internal/emit"
	"github.com/specialistvlad/modelopt/internal/irwriter"
	"github.com/specialistvlad/modelopt/internal/pipeline"
	"github.com/specialistvlad/modelopt/internal/telemetry"
	"github.com/specialistvlad/modelopt/internal/theme"
)

// App encapsulates one conversion run: its options, logger and the
// collaborators that build and write the network.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	opts     *config.Options
	theme    theme.Theme
	analysis *analysis.Results

	pipeline  pipeline.Pipeline
	emitter   emit.Emitter
	telemetry telemetry.Sender
	now       func() time.Time
}

// NewApp is the constructor for the driver. It returns a fully initialized
// App with its own isolated logger writing to outW. Telemetry is enabled
// only when opts carries a telemetry URL.
func NewApp(outW io.Writer, opts *config.Options) *App {
	logger := newLogger(opts.LogLevel, opts.LogFormat, opts.Silent, outW)
	logger.Debug("Logger configured successfully.")

	results := &analysis.Results{}
	a := &App{
		outW:     outW,
		logger:   logger,
		opts:     opts,
		theme:    theme.New(outW, !opts.NoColor),
		analysis: results,
		pipeline: pipeline.NewUnified(results),
		emitter:  irwriter.New(),
		now:      time.Now,
	}
	if opts.TelemetryURL != "" {
		a.telemetry = telemetry.New(opts.TelemetryURL)
	}
	return a
}

// Options returns the run's options. This is primarily for testing.
func (a *App) Options() *config.Options {
	return a.opts
}

// Context returns ctx carrying the app logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
