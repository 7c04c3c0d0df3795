package framework

import (
	"path/filepath"
	"strings"

	"github.com/specialistvlad/modelopt/internal/moerr"
)

// Sources is the subset of the configuration bundle the detector looks at.
type Sources struct {
	// Framework is the explicit --framework value, possibly empty.
	Framework           string
	InputModel          string
	InputProto          string
	InputSymbol         string
	PretrainedModelName string
	SavedModelDir       string
	InputMetaGraph      string
}

// byExtension maps model file extensions to the framework that produces them.
var byExtension = map[string]Framework{
	".caffemodel": Caffe,
	".pb":         TF,
	".pbtxt":      TF,
	".params":     MXNet,
	".nnet":       Kaldi,
	".mdl":        Kaldi,
	".onnx":       ONNX,
}

// GuessByExtension deduces the framework from a model file name.
func GuessByExtension(path string) (Framework, bool) {
	f, ok := byExtension[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// Detect selects exactly one framework. An explicit name wins; otherwise
// every framework-specific source option votes, and anything other than a
// single candidate is a configuration error.
func Detect(src Sources) (Framework, error) {
	const op = "framework.detect"

	if src.Framework != "" {
		f, ok := Parse(src.Framework)
		if !ok {
			return Unknown, moerr.Configf(op,
				"Framework %s is not a valid target. Please use --framework with one from the list: %s."+moerr.FAQ(15),
				src.Framework, ValidNames())
		}
		return f, nil
	}

	candidates := make(map[Framework]struct{})
	if src.SavedModelDir != "" || src.InputMetaGraph != "" {
		candidates[TF] = struct{}{}
	}
	if src.InputSymbol != "" || src.PretrainedModelName != "" {
		candidates[MXNet] = struct{}{}
	}
	if src.InputProto != "" {
		candidates[Caffe] = struct{}{}
	}
	if src.InputModel != "" {
		if f, ok := GuessByExtension(src.InputModel); ok {
			candidates[f] = struct{}{}
		}
	}

	switch len(candidates) {
	case 1:
		return sorted(candidates)[0], nil
	case 0:
		if src.InputModel == "" {
			return Unknown, moerr.Configf(op,
				"Framework can not be deduced: no model source was given. Use --framework with one from the list: %s."+moerr.FAQ(15),
				ValidNames())
		}
		return Unknown, moerr.Configf(op,
			"Framework name can not be deduced from the given options: --input_model=%s. Use --framework with one from the list: %s."+moerr.FAQ(15),
			src.InputModel, ValidNames())
	default:
		found := sorted(candidates)
		ns := make([]string, 0, len(found))
		for _, f := range found {
			ns = append(ns, f.String())
		}
		return Unknown, moerr.Configf(op,
			"Options select more than one framework (%s). Use --framework with one from the list: %s."+moerr.FAQ(15),
			strings.Join(ns, ", "), ValidNames())
	}
}
