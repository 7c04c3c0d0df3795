// Package irwriter serializes a finalized graph into the intermediate
// representation: an XML topology file and a binary weights file.
package irwriter

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/modelopt/internal/ctxlog"
	"github.com/specialistvlad/modelopt/internal/graph"
)

// Request describes what to write and where.
type Request struct {
	// DataType is the floating point precision of the IR, FP32 or FP16.
	DataType   string
	OutputDir  string
	ModelName  string
	MeanData   []graph.MeanData
	InputNames []string
	// Meta is the run metadata from config.Options.Meta.
	Meta      map[string]string
	IRVersion int
}

// Result names the written files.
type Result struct {
	XMLPath string
	BinPath string
}

// Writer writes IR files to disk.
type Writer struct {
	// RunID produces the run identifier recorded in the meta data.
	RunID func() string
}

// New returns a Writer stamping runs with random UUIDs.
func New() *Writer {
	return &Writer{RunID: NewRunID}
}

// Emit writes <ModelName>.xml and <ModelName>.bin into OutputDir.
func (w *Writer) Emit(ctx context.Context, g *graph.Graph, req Request) (Result, error) {
	logger := ctxlog.FromContext(ctx)

	if req.ModelName == "" {
		return Result{}, fmt.Errorf("model name is empty")
	}
	dataType := req.DataType
	if dataType == "" {
		dataType = "FP32"
	}
	irVersion := req.IRVersion
	if irVersion == 0 {
		irVersion = 10
	}

	for _, name := range req.InputNames {
		if _, ok := g.Node(name); !ok {
			return Result{}, fmt.Errorf("input %s is missing from the graph", name)
		}
	}

	res := Result{
		XMLPath: filepath.Join(req.OutputDir, req.ModelName+".xml"),
		BinPath: filepath.Join(req.OutputDir, req.ModelName+".bin"),
	}
	weights := NewWeights(res.BinPath)
	b := &builder{irVersion: irVersion, dataType: dataType, weights: weights}

	layers, edges, _, err := b.build(g)
	if err != nil {
		return Result{}, err
	}
	net := xmlNet{
		Name:       req.ModelName,
		Version:    irVersion,
		Layers:     layers,
		Edges:      edges,
		PreProcess: preProcess(req.MeanData, dataType),
	}
	if req.Meta != nil {
		runID := ""
		if w.RunID != nil {
			runID = w.RunID()
		}
		net.Meta = metaData(req.Meta, runID)
	}

	if err := weights.Close(); err != nil {
		return Result{}, err
	}
	if err := writeXML(res.XMLPath, &net); err != nil {
		return Result{}, err
	}
	logger.Debug("IR written.", "xml", res.XMLPath, "bin", res.BinPath, "layers", len(layers), "weights_bytes", weights.Size())
	return res, nil
}

func writeXML(path string, net *xmlNet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create xml file: %w", err)
	}
	bw := bufio.NewWriter(f)
	if _, err := bw.WriteString(xml.Header); err != nil {
		f.Close()
		return err
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", "\t")
	if err := enc.Encode(net); err != nil {
		f.Close()
		return fmt.Errorf("encode xml: %w", err)
	}
	if err := bw.WriteByte('\n'); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
