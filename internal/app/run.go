package app

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/specialistvlad/modelopt/internal/emit"
	"github.com/specialistvlad/modelopt/internal/extensions"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/moerr"
	"github.com/specialistvlad/modelopt/internal/registry"
	"github.com/specialistvlad/modelopt/internal/telemetry"
	"github.com/specialistvlad/modelopt/internal/validate"
	"github.com/specialistvlad/modelopt/internal/version"
)

// Run converts the model described by the options. It returns the emission
// status and the first error met; errors are left for Main to classify.
func (a *App) Run(ctx context.Context) (int, error) {
	ctx = a.Context(ctx)
	o := a.opts
	start := a.now()
	a.logger.Debug("App.Run method started.")

	fw, err := framework.Detect(o.Sources())
	if err != nil {
		return 1, err
	}
	o.Resolved.Framework = fw

	before, after := validate.SplitAfter(validate.Checks(), validate.SummaryCheck)
	if err := validate.RunChecks(ctx, o, fw, before); err != nil {
		return 1, err
	}
	if !o.Silent {
		printSummary(a.outW, a.theme, o)
	}
	if err := validate.RunChecks(ctx, o, fw, after); err != nil {
		return 1, err
	}
	a.logger.Debug("Options resolved.", "options", spew.Sdump(o))

	reg := registry.New()
	if err := extensions.Load(ctx, reg, fw, o.Resolved.ExtensionDirs); err != nil {
		return 1, moerr.WithStack(err)
	}
	a.logger.Debug("Extensions loaded.", "count", reg.Len())

	g, err := a.pipeline.Convert(ctx, o, reg)
	if err != nil {
		return 1, moerr.WithStack(err)
	}

	code, err := emit.EmitIR(ctx, g, o, a.emitter, a.outW)
	if err != nil {
		return 1, moerr.WithStack(err)
	}
	if code != 0 {
		return code, nil
	}

	elapsed := a.now().Sub(start)
	fmt.Fprintln(a.outW, a.theme.SuccessLine(fmt.Sprintf("Total execution time: %.2f seconds. ", elapsed.Seconds())))
	if mb, ok := peakMemoryMB(); ok {
		fmt.Fprintln(a.outW, a.theme.SuccessLine(fmt.Sprintf("Memory consumed: %d MB. ", mb)))
	}
	a.logger.Debug("App.Run method finished.")
	return 0, nil
}

// Main runs the conversion and turns any failure, panics included, into a
// logged report and exit status 1.
func (a *App) Main(ctx context.Context) (code int) {
	ctx = a.Context(ctx)
	status := "failure"
	defer func() {
		if r := recover(); r != nil {
			a.report(moerr.FromPanic(r))
			code = 1
		}
		a.sendTelemetry(ctx, status)
	}()

	code, err := a.Run(ctx)
	if err != nil {
		a.report(err)
		return 1
	}
	if code == 0 {
		status = "success"
	}
	return code
}

// report logs err according to its kind.
func (a *App) report(err error) {
	switch moerr.Classify(err) {
	case moerr.KindFileNotFound:
		a.logger.Error(fmt.Sprintf("File %s was not found", moerr.MissingPath(err)))
	case moerr.KindConfiguration:
		for _, m := range a.analysis.Messages() {
			a.logger.Error(m, attrAnalysisInfo, true)
		}
		a.logger.Error(err.Error())
	case moerr.KindFramework:
		a.logger.Error(err.Error(), attrFrameworkError, true)
	default:
		for _, line := range []string{
			"-------------------------------------------------",
			"----------------- INTERNAL ERROR ----------------",
			"Unexpected exception happened.",
			"Please contact Model Optimizer developers and forward the following information:",
			err.Error(),
			moerr.Trace(err),
			"---------------- END OF BUG REPORT --------------",
			"-------------------------------------------------",
		} {
			a.logger.Error(line)
		}
		return
	}
	a.logger.Debug(moerr.Trace(err))
}

func (a *App) sendTelemetry(ctx context.Context, status string) {
	if a.telemetry == nil {
		return
	}
	telemetry.Report(ctx, a.telemetry, telemetry.Event{
		Framework: a.opts.Resolved.Framework.String(),
		IRVersion: emit.IRVersion(a.opts),
		Status:    status,
		Version:   version.String(),
	})
}
