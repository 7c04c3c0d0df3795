package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/moerr"
)

// inputDataTypes maps every accepted spelling of an input data type to its
// canonical IR name.
var inputDataTypes = map[string]string{
	"float": "FP32", "FP32": "FP32", "f32": "FP32",
	"half": "FP16", "FP16": "FP16", "f16": "FP16",
	"FP64": "FP64", "f64": "FP64",
	"I8": "I8", "i8": "I8", "int8": "I8",
	"I16": "I16", "i16": "I16",
	"I32": "I32", "i32": "I32", "int32": "I32",
	"I64": "I64", "i64": "I64", "int64": "I64",
	"U8": "U8", "u8": "U8", "uint8": "U8",
	"U16": "U16", "u16": "U16",
	"U1": "U1", "u1": "U1",
	"BOOL": "BOOL", "bool": "BOOL", "boolean": "BOOL",
}

var (
	inputTypeRe  = regexp.MustCompile(`\{([^{}]*)\}`)
	inputShapeRe = regexp.MustCompile(`\[([^\[\]]*)\]`)
)

// SplitInputs splits a comma-separated --input value, ignoring commas that
// appear inside square or curly brackets.
func SplitInputs(s string) []string {
	if s == "" {
		return nil
	}
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '[', '{':
			depth++
		case ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// ParseInputValue parses a single `name{type}[shape]->value` entry.
func ParseInputValue(entry string) (config.InputSpec, error) {
	const op = "validate.input"

	var spec config.InputSpec
	head := entry
	if i := strings.Index(entry, "->"); i >= 0 {
		head = entry[:i]
		spec.Value = strings.TrimSpace(entry[i+2:])
		spec.Frozen = true
		if spec.Value == "" {
			return spec, moerr.Configf(op, "Input %q has an empty freezing value after \"->\".", entry)
		}
	}

	nameEnd := len(head)
	if i := strings.IndexAny(head, "[{"); i >= 0 {
		nameEnd = i
	}
	spec.Name = strings.TrimSpace(head[:nameEnd])
	if spec.Name == "" {
		return spec, moerr.Configf(op, "Input %q does not specify a name.", entry)
	}

	if m := inputTypeRe.FindStringSubmatch(head); m != nil {
		dt, ok := inputDataTypes[strings.TrimSpace(m[1])]
		if !ok {
			return spec, moerr.Configf(op, "Unexpected data type %q specified for input %q.", m[1], spec.Name)
		}
		spec.DataType = dt
	}

	if m := inputShapeRe.FindStringSubmatch(head); m != nil {
		shape, err := parseDims(strings.Fields(m[1]))
		if err != nil {
			return spec, moerr.WrapConfigf(err, op, "Input shape \"%s\" cannot be parsed. "+moerr.FAQ(57), m[0])
		}
		spec.Shape = shape
	}
	return spec, nil
}

// ParseInputs parses every entry of a --input value.
func ParseInputs(s string) ([]config.InputSpec, error) {
	entries := SplitInputs(s)
	if len(entries) == 0 {
		return nil, nil
	}
	specs := make([]config.InputSpec, 0, len(entries))
	for _, e := range entries {
		spec, err := ParseInputValue(e)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// parseDims converts dimension tokens. -1 marks a dynamic dimension.
func parseDims(tokens []string) ([]int64, error) {
	dims := make([]int64, 0, len(tokens))
	for _, t := range tokens {
		d, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, err
		}
		if d < -1 {
			return nil, strconv.ErrRange
		}
		dims = append(dims, d)
	}
	return dims, nil
}
