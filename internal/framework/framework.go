// Package framework identifies which source ecosystem a model comes from.
//
// The set of frameworks is closed. Every framework-specific branch elsewhere
// in the driver switches on a Framework value selected once here, instead of
// re-deriving it from the options.
package framework

import (
	"fmt"
	"sort"
	"strings"
)

// Framework is one of the supported source frameworks.
type Framework int

const (
	Unknown Framework = iota
	Caffe
	TF
	MXNet
	Kaldi
	ONNX
)

// All lists the valid frameworks in the order they are presented to users.
var All = []Framework{Caffe, TF, MXNet, Kaldi, ONNX}

var names = map[Framework]string{
	Caffe: "caffe",
	TF:    "tf",
	MXNet: "mxnet",
	Kaldi: "kaldi",
	ONNX:  "onnx",
}

// String returns the command-line name of the framework.
func (f Framework) String() string {
	if n, ok := names[f]; ok {
		return n
	}
	return "unknown"
}

// Title is the human-readable name used in summaries.
func (f Framework) Title() string {
	switch f {
	case Caffe:
		return "Caffe"
	case TF:
		return "TensorFlow"
	case MXNet:
		return "MXNet"
	case Kaldi:
		return "Kaldi"
	case ONNX:
		return "ONNX"
	default:
		return "Unknown"
	}
}

// Parse resolves a command-line framework name.
func Parse(name string) (Framework, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range names {
		if n == name {
			return f, true
		}
	}
	return Unknown, false
}

// ValidNames returns the comma-separated list of accepted names.
func ValidNames() string {
	out := make([]string, 0, len(All))
	for _, f := range All {
		out = append(out, f.String())
	}
	return strings.Join(out, ", ")
}

// MarshalText lets a Framework round-trip through yaml and flag values.
func (f Framework) MarshalText() ([]byte, error) {
	if f == Unknown {
		return []byte(""), nil
	}
	return []byte(f.String()), nil
}

// UnmarshalText accepts any name Parse accepts, plus the empty string.
func (f *Framework) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*f = Unknown
		return nil
	}
	parsed, ok := Parse(string(b))
	if !ok {
		return fmt.Errorf("unknown framework %q, expected one of: %s", string(b), ValidNames())
	}
	*f = parsed
	return nil
}

func sorted(set map[Framework]struct{}) []Framework {
	out := make([]Framework, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
