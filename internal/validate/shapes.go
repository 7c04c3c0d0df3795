package validate

import (
	"regexp"
	"strings"

	"github.com/specialistvlad/modelopt/internal/config"
	"github.com/specialistvlad/modelopt/internal/moerr"
)

const (
	dimRe   = `([0-9 ]+|-1)`
	tupleRe = `((\(` + dimRe + `(,` + dimRe + `)*\))|(\[` + dimRe + `(,` + dimRe + `)*\]))`
)

var (
	inputShapeFullRe = regexp.MustCompile(`^` + tupleRe + `(\s*,\s*` + tupleRe + `)*$`)
	inputShapeItemRe = regexp.MustCompile(`[(\[]([0-9, -]+)[)\]]`)
)

// Placeholders is the outcome of combining --input, --input_shape and
// --batch.
type Placeholders struct {
	// Shapes maps input names to shapes. A nil shape means the input was
	// named without one.
	Shapes map[string][]int64
	// Unnamed is the single shape given without an input name.
	Unnamed   []int64
	DataTypes map[string]string
}

// ParseInputShapes parses the --input_shape value into one shape per tuple.
func ParseInputShapes(s string) ([][]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !inputShapeFullRe.MatchString(s) {
		return nil, moerr.Configf("validate.input_shape", "Input shape \"%s\" cannot be parsed. "+moerr.FAQ(57), s)
	}
	var shapes [][]int64
	for _, m := range inputShapeItemRe.FindAllStringSubmatch(s, -1) {
		dims, err := parseDims(strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ' ' }))
		if err != nil {
			return nil, moerr.WrapConfigf(err, "validate.input_shape", "Input shape \"%s\" cannot be parsed. "+moerr.FAQ(57), s)
		}
		shapes = append(shapes, dims)
	}
	return shapes, nil
}

// ResolvePlaceholders merges parsed --input entries with --input_shape and
// --batch. Shapes may come from exactly one of --input and --input_shape.
func ResolvePlaceholders(inputs []config.InputSpec, inputShape string, batch int) (Placeholders, error) {
	const op = "validate.placeholders"

	p := Placeholders{
		Shapes:    map[string][]int64{},
		DataTypes: map[string]string{},
	}
	if batch < 0 {
		return p, moerr.Configf(op, "Batch value %d is not a positive integer. Specify a positive value for --batch.", batch)
	}

	shapeInInput := false
	for _, in := range inputs {
		if in.Shape != nil {
			shapeInInput = true
		}
		if in.DataType != "" {
			p.DataTypes[in.Name] = in.DataType
		}
	}
	if shapeInInput && strings.TrimSpace(inputShape) != "" {
		return p, moerr.Configf(op, "Shapes are specified using both --input and --input_shape command-line parameters, but only one parameter is allowed.")
	}
	if shapeInInput && batch != 0 {
		return p, moerr.Configf(op, "Shapes are specified using both --input and --batch command-line parameters, but only one parameter is allowed.")
	}

	if shapeInInput {
		for _, in := range inputs {
			p.Shapes[in.Name] = in.Shape
		}
		return p, nil
	}

	shapes, err := ParseInputShapes(inputShape)
	if err != nil {
		return p, err
	}
	if len(shapes) == 0 {
		for _, in := range inputs {
			p.Shapes[in.Name] = nil
		}
		return p, nil
	}

	if len(inputs) == 0 {
		if len(shapes) > 1 {
			return p, moerr.Configf(op, "Please provide input layer names for input layer shapes. "+moerr.FAQ(58))
		}
		p.Unnamed = shapes[0]
		return p, nil
	}
	if len(inputs) != len(shapes) {
		return p, moerr.Configf(op, "Please provide each input layers with an input layer shape (%d inputs, %d shapes). "+moerr.FAQ(58),
			len(inputs), len(shapes))
	}
	for i, in := range inputs {
		p.Shapes[in.Name] = shapes[i]
	}
	return p, nil
}
