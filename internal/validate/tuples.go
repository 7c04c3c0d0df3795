package validate

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/moerr"
)

var (
	offsetsRe    = regexp.MustCompile(`^\s*[(\[]\s*(-?[0-9]+)\s*,\s*(-?[0-9]+)\s*[)\]]\s*$`)
	tupleValueRe = regexp.MustCompile(`[(\[]([0-9., -]+)[)\]]`)
)

// ParseMeanFileOffsets parses the `(x,y)` value of --mean_file_offsets.
// Both offsets must be non-negative.
func ParseMeanFileOffsets(s string) ([]int, error) {
	const op = "validate.mean_file_offsets"

	m := offsetsRe.FindStringSubmatch(s)
	if m == nil {
		return nil, moerr.Configf(op, "Values \"%s\" cannot be parsed. Specify --mean_file_offsets as two integers in format '(x,y)'. "+moerr.FAQ(59), s)
	}
	offsets := make([]int, 0, 2)
	for _, v := range m[1:] {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, moerr.WrapConfigf(err, op, "Values \"%s\" cannot be parsed. "+moerr.FAQ(59), s)
		}
		if n < 0 {
			return nil, moerr.Configf(op, "Negative value specified for --mean_file_offsets option. Please specify positive integer values in format '(x,y)'. "+moerr.FAQ(18))
		}
		offsets = append(offsets, n)
	}
	return offsets, nil
}

// TuplePairs is a parsed --mean_values or --scale_values option. Values are
// either all named or all positional.
type TuplePairs struct {
	Names  []string
	Named  map[string][]float64
	Values [][]float64
}

// Len returns the number of tuples.
func (t TuplePairs) Len() int {
	if t.Named != nil {
		return len(t.Names)
	}
	return len(t.Values)
}

func (t TuplePairs) isNamed() bool { return t.Named != nil }

const tuplePairsHint = "Mean/scale values should consist of name and values specified in round or square brackets " +
	"separated by comma, e.g. data(1,2,3),info[2,3,4],egg[255] or data(1,2,3). Or just plain set of " +
	"values without names: (1,2,3),(2,3,4) or [1,2,3],[2,3,4]."

// ParseTuplePairs parses `name(1,2,3),other[4,5,6]` or `(1,2,3),(4,5,6)`.
// Mixing named and unnamed tuples is an error.
func ParseTuplePairs(s string) (TuplePairs, error) {
	const op = "validate.tuple_pairs"

	var res TuplePairs
	if s == "" {
		return res, nil
	}
	matches := tupleValueRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return res, moerr.Configf(op, tuplePairsHint+" Got: %s."+moerr.FAQ(101), s)
	}

	nameStart := 0
	named := false
	for i, m := range matches {
		name := ""
		if m[0] > nameStart {
			name = strings.TrimSpace(s[nameStart:m[0]])
		}
		nameStart = m[1] + 1

		if i > 0 && named != (name != "") {
			return TuplePairs{}, moerr.Configf(op, tuplePairsHint+" Got: %s."+moerr.FAQ(101), s)
		}
		named = name != ""

		values, err := parseFloats(s[m[2]:m[3]])
		if err != nil {
			return TuplePairs{}, moerr.WrapConfigf(err, op, tuplePairsHint+" Got: %s."+moerr.FAQ(101), s)
		}
		if named {
			if res.Named == nil {
				res.Named = map[string][]float64{}
			}
			if _, dup := res.Named[name]; !dup {
				res.Names = append(res.Names, name)
			}
			res.Named[name] = values
		} else {
			res.Values = append(res.Values, values)
		}
	}
	return res, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// MeanScaleDictionary merges parsed mean and scale values with the input
// names given in --input. Without --input, named values define the inputs
// themselves.
func MeanScaleDictionary(means, scales TuplePairs, inputs []string) (config.MeanScale, error) {
	const op = "validate.mean_scale"

	var res config.MeanScale
	if means.Len() == 0 && scales.Len() == 0 {
		return res, nil
	}
	if means.Len() > 0 && scales.Len() > 0 && means.isNamed() != scales.isNamed() {
		return res, moerr.Configf(op, tuplePairsHint+moerr.FAQ(101))
	}

	if means.isNamed() || scales.isNamed() {
		if len(inputs) == 0 {
			inputs = slices.Clone(means.Names)
			for _, n := range scales.Names {
				if !slices.Contains(inputs, n) {
					inputs = append(inputs, n)
				}
			}
		}
		known := make(map[string]bool, len(inputs))
		for _, n := range inputs {
			known[n] = true
		}
		res.ByInput = map[string]config.MeanScaleValues{}
		for _, n := range scales.Names {
			if !known[n] {
				return config.MeanScale{}, moerr.Configf(op, "Input with name %s wasn't found!", n)
			}
			res.ByInput[n] = config.MeanScaleValues{Scale: scales.Named[n]}
		}
		for _, n := range means.Names {
			if !known[n] {
				return config.MeanScale{}, moerr.Configf(op, "Input with name %s wasn't found!", n)
			}
			v := res.ByInput[n]
			v.Mean = means.Named[n]
			res.ByInput[n] = v
		}
		return res, nil
	}

	if len(inputs) == 0 {
		n := max(len(means.Values), len(scales.Values))
		res.Unnamed = make([]config.MeanScaleValues, n)
		for i := range res.Unnamed {
			if i < len(means.Values) {
				res.Unnamed[i].Mean = means.Values[i]
			}
			if i < len(scales.Values) {
				res.Unnamed[i].Scale = scales.Values[i]
			}
		}
		return res, nil
	}

	if means.Len() > 0 && means.Len() != len(inputs) {
		return res, moerr.Configf(op, "Numbers of inputs and mean values do not match. "+moerr.FAQ(61))
	}
	if scales.Len() > 0 && scales.Len() != len(inputs) {
		return res, moerr.Configf(op, "Numbers of inputs and scale values do not match. "+moerr.FAQ(62))
	}
	res.ByInput = make(map[string]config.MeanScaleValues, len(inputs))
	for i, n := range inputs {
		var v config.MeanScaleValues
		if means.Len() > 0 {
			v.Mean = means.Values[i]
		}
		if scales.Len() > 0 {
			v.Scale = scales.Values[i]
		}
		res.ByInput[n] = v
	}
	return res, nil
}

// FreezePlaceholderValues collects the constant values inputs are frozen
// to, from both --freeze_placeholder_with_value and `name->value` entries
// of --input. It also returns the input names in --input order.
func FreezePlaceholderValues(inputs []config.InputSpec, freeze string) (map[string]string, []string, error) {
	const op = "validate.freeze_placeholders"

	values := map[string]string{}
	set := func(name, value string) error {
		if old, ok := values[name]; ok && old != value {
			return moerr.Configf(op, "Overriding replacement value of the placeholder with name '%s': old value = %s, new value = %s.",
				name, old, value)
		}
		values[name] = value
		return nil
	}

	if freeze != "" {
		for _, pair := range strings.Split(freeze, ",") {
			parts := strings.Split(pair, "->")
			if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
				return nil, nil, moerr.Configf(op, "Wrong replacement syntax %q. Use --freeze_placeholder_with_value \"node1_name->value1,node2_name->value2\".", pair)
			}
			if err := set(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])); err != nil {
				return nil, nil, err
			}
		}
	}

	var names []string
	for _, in := range inputs {
		names = append(names, in.Name)
		if !in.Frozen {
			continue
		}
		if err := set(in.Name, in.Value); err != nil {
			return nil, nil, err
		}
	}
	return values, names, nil
}
