// Package emit finalizes a converted graph and hands it to the IR writer.
package emit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/ctxlog"
	"github.com/specialistvlad/modelopt/internal/finalize"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/graph"
	"github.com/specialistvlad/modelopt/internal/irwriter"
	"github.com/specialistvlad/modelopt/internal/theme"
)

// Emitter serializes a finalized graph.
type Emitter interface {
	Emit(ctx context.Context, g *graph.Graph, req irwriter.Request) (irwriter.Result, error)
}

// IRVersion is the IR version the options select.
func IRVersion(o *config.Options) int {
	if o.GenerateExperimentalIRV10 {
		return 10
	}
	return 7
}

// EmitIR prepares g for serialization, emits it and prints the success
// banner to out. It returns 0 on success.
func EmitIR(ctx context.Context, g *graph.Graph, o *config.Options, emitter Emitter, out io.Writer) (int, error) {
	logger := ctxlog.FromContext(ctx)

	if err := finalize.NormalizeTI(g); err != nil {
		return 1, err
	}
	if err := graph.ForGraphAndEachSubGraphRecursively(g, finalize.RemoveConstOps); err != nil {
		return 1, err
	}
	if err := graph.ForGraphAndEachSubGraphRecursively(g, finalize.CreateConstNodesReplacement); err != nil {
		return 1, err
	}
	if !o.GenerateExperimentalIRV10 {
		// Bodies first, then every level again including the top graph.
		if err := graph.ForEachSubGraphRecursively(g, finalize.RemoveOutputOps); err != nil {
			return 1, err
		}
		if err := graph.ForGraphAndEachSubGraphRecursively(g, finalize.RemoveOutputOps); err != nil {
			return 1, err
		}
	}

	version := IRVersion(o)
	req := irwriter.Request{
		DataType:   o.Resolved.DataType,
		OutputDir:  o.OutputDir,
		ModelName:  o.ModelName,
		MeanData:   g.MeanData,
		InputNames: g.InputNames,
		Meta:       o.Meta(),
		IRVersion:  version,
	}
	res, err := emitter.Emit(ctx, g, req)
	if err != nil {
		return 1, err
	}
	logger.Debug("IR emitted.", "xml", res.XMLPath, "bin", res.BinPath, "ir_version", version)

	if o.Resolved.Framework == framework.TF && o.TensorflowCustomOperationsConfigUpdate != "" {
		return 0, nil
	}
	dir := o.OutputDir
	if dir == "." {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	th := theme.New(out, !o.NoColor)
	fmt.Fprintln(out)
	fmt.Fprintln(out, th.SuccessLine(fmt.Sprintf("Generated IR version %d model.", version)))
	fmt.Fprintln(out, th.SuccessLine("XML file: "+filepath.Join(dir, o.ModelName+".xml")))
	fmt.Fprintln(out, th.SuccessLine("BIN file: "+filepath.Join(dir, o.ModelName+".bin")))
	return 0, nil
}
