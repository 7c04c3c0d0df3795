package registry

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/specialistvlad/modelopt/internal/ctxlog"
)

// attrFields indexes the `cty`-tagged fields of an attribute struct.
func attrFields(t reflect.Type) map[string]reflect.StructField {
	fields := make(map[string]reflect.StructField)
	if t == nil || t.Kind() != reflect.Struct {
		return fields
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.Split(field.Tag.Get("cty"), ",")[0]
		if name != "" && name != "-" {
			fields[name] = field
		}
	}
	return fields
}

// Validate performs a strict parity check between extension attributes and
// the Go attribute structs of their operations.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.order {
		e := r.extensions[name]
		if e.Op == "" {
			continue
		}
		t, ok := r.ops[e.Op]
		if !ok {
			errs = append(errs, fmt.Sprintf("extension '%s' (%s): unknown operation '%s'", e.Name, e.Source, e.Op))
			continue
		}
		fields := attrFields(t)

		keys := make([]string, 0, len(e.Attrs))
		for k := range e.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			field, ok := fields[k]
			if !ok {
				errs = append(errs, fmt.Sprintf("extension '%s': operation '%s' has no attribute '%s'", e.Name, e.Op, k))
				continue
			}
			want, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("extension '%s', attribute '%s': could not imply cty type from Go field type %s: %v", e.Name, k, field.Type, err))
				continue
			}
			if _, err := convert.Convert(e.Attrs[k], want); err != nil {
				errs = append(errs, fmt.Sprintf("extension '%s', attribute '%s': type mismatch. Operation '%s' requires '%s' but manifest provides '%s'",
					e.Name, k, e.Op, want.FriendlyName(), e.Attrs[k].Type().FriendlyName()))
			}
		}
		logger.Debug("Extension validated.", "extension", e.Name, "op", e.Op)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// DecodeAttrs copies the extension attributes into the fields of target,
// which must point to the attribute struct of the extension's operation.
// Fields without a matching attribute are left untouched.
func DecodeAttrs(e *Extension, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode attrs of '%s': target must be a pointer to struct, got %T", e.Name, target)
	}
	for name, field := range attrFields(v.Elem().Type()) {
		val, ok := e.Attrs[name]
		if !ok || val.IsNull() {
			continue
		}
		ptr := v.Elem().FieldByIndex(field.Index).Addr().Interface()
		if err := gocty.FromCtyValue(val, ptr); err != nil {
			return fmt.Errorf("decode attribute '%s' of '%s': %w", name, e.Name, err)
		}
	}
	return nil
}

// StringAttrs builds an attribute map from plain strings, for compiled-in
// extensions.
func StringAttrs(kv map[string]string) map[string]cty.Value {
	out := make(map[string]cty.Value, len(kv))
	for k, v := range kv {
		out[k] = cty.StringVal(v)
	}
	return out
}
