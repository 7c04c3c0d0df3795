// Package extensions selects and loads the extensions of a conversion run.
//
// Which front classes a framework supports is fixed by a dispatch table.
// Middle and back classes are generic and always loaded.
package extensions

import (
	"context"
	"fmt"

	"github.com/specialistvlad/modelopt/internal/ctxlog"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/registry"
	"github.com/specialistvlad/modelopt/modules/core"
	"github.com/specialistvlad/modelopt/modules/frontend"
)

// FrontClasses lists the front extension classes a framework accepts.
type FrontClasses func() []registry.Class

func classes(cs ...registry.Class) FrontClasses {
	return func() []registry.Class { return cs }
}

var dispatch = map[framework.Framework]FrontClasses{
	framework.Caffe: classes(registry.ClassFrontExtractor, registry.ClassFrontReplacement, registry.ClassOp),
	framework.TF:    classes(registry.ClassFrontExtractor, registry.ClassFrontReplacement, registry.ClassOp),
	framework.MXNet: classes(registry.ClassFrontExtractor, registry.ClassFrontReplacement, registry.ClassOp),
	framework.Kaldi: classes(registry.ClassFrontExtractor, registry.ClassFrontReplacement),
	framework.ONNX:  classes(registry.ClassFrontExtractor, registry.ClassFrontReplacement, registry.ClassOp),
}

// Lookup returns the front classes of fw.
func Lookup(fw framework.Framework) (FrontClasses, bool) {
	fc, ok := dispatch[fw]
	return fc, ok
}

// Load registers the built-in extensions and those found under dirs for fw.
func Load(ctx context.Context, reg *registry.Registry, fw framework.Framework, dirs []string) error {
	lookup, ok := Lookup(fw)
	if !ok {
		return fmt.Errorf("no extension dispatch entry for framework %s", fw)
	}
	return LoadDirs(ctx, reg, fw, dirs, lookup)
}

// LoadDirs registers the generic and framework built-ins, then every
// manifest under dirs whose class is generic or accepted by lookup. The
// filled registry is validated before returning.
func LoadDirs(ctx context.Context, reg *registry.Registry, fw framework.Framework, dirs []string, lookup FrontClasses) error {
	logger := ctxlog.FromContext(ctx)

	allowed := make(map[registry.Class]bool)
	for _, c := range lookup() {
		allowed[c] = true
	}
	allow := func(c registry.Class) bool { return c.Generic() || allowed[c] }

	reg.Register(&core.Module{}, frontend.New(fw))
	logger.Debug("Built-in extensions registered.", "framework", fw.String(), "count", reg.Len())

	for _, dir := range dirs {
		n, err := reg.LoadManifestsRecursively(ctx, dir, fw, allow)
		if err != nil {
			return err
		}
		logger.Debug("Extensions loaded from directory.", "path", dir, "count", n)
	}

	if err := reg.Validate(ctx); err != nil {
		return err
	}
	logger.Debug("Extension registry ready.", "extensions", reg.Len())
	return nil
}
