package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/modelopt/internal/ctxlog"
	"github.com/specialistvlad/modelopt/internal/framework"
	"github.com/specialistvlad/modelopt/internal/fsutil"
)

// manifestRootSchema defines the top-level structure of a manifest, one or
// more 'extension' blocks.
type manifestRootSchema struct {
	Extensions []*hclExtension `hcl:"extension,block"`
}

type hclExtension struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

var extensionBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "class", Required: true},
		{Name: "op"},
		{Name: "framework"},
		{Name: "enabled"},
		{Name: "priority"},
		{Name: "description"},
		{Name: "attrs"},
	},
}

// ParseManifest decodes every extension block of an HCL manifest.
func ParseManifest(file *hcl.File, path string) ([]*Extension, hcl.Diagnostics) {
	var allDiags hcl.Diagnostics
	if file == nil {
		return nil, append(allDiags, &hcl.Diagnostic{Severity: hcl.DiagError, Summary: "HCL file is nil"})
	}

	root := &manifestRootSchema{}
	diags := gohcl.DecodeBody(file.Body, nil, root)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, allDiags
	}

	out := make([]*Extension, 0, len(root.Extensions))
	for _, block := range root.Extensions {
		content, contentDiags := block.Body.Content(extensionBodySchema)
		allDiags = append(allDiags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		e := &Extension{Name: block.Name, Enabled: true, Source: path}

		var className string
		allDiags = append(allDiags, gohcl.DecodeExpression(content.Attributes["class"].Expr, nil, &className)...)
		class, err := ParseClass(className)
		if err != nil {
			allDiags = append(allDiags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid extension class",
				Detail:   err.Error(),
				Subject:  content.Attributes["class"].Range.Ptr(),
			})
			continue
		}
		e.Class = class

		if attr, ok := content.Attributes["op"]; ok {
			allDiags = append(allDiags, gohcl.DecodeExpression(attr.Expr, nil, &e.Op)...)
		}
		if attr, ok := content.Attributes["enabled"]; ok {
			allDiags = append(allDiags, gohcl.DecodeExpression(attr.Expr, nil, &e.Enabled)...)
		}
		if attr, ok := content.Attributes["priority"]; ok {
			allDiags = append(allDiags, gohcl.DecodeExpression(attr.Expr, nil, &e.Priority)...)
		}
		if attr, ok := content.Attributes["framework"]; ok {
			var name string
			allDiags = append(allDiags, gohcl.DecodeExpression(attr.Expr, nil, &name)...)
			fw, ok := framework.Parse(name)
			if !ok {
				allDiags = append(allDiags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid framework",
					Detail:   fmt.Sprintf("Extension '%s' targets unknown framework %q.", e.Name, name),
					Subject:  attr.Range.Ptr(),
				})
				continue
			}
			e.Framework = fw
		}
		if attr, ok := content.Attributes["attrs"]; ok {
			attrs, attrDiags := decodeAttrs(attr)
			allDiags = append(allDiags, attrDiags...)
			e.Attrs = attrs
		}
		out = append(out, e)
	}

	if allDiags.HasErrors() {
		return nil, allDiags
	}
	return out, allDiags
}

func decodeAttrs(attr *hcl.Attribute) (map[string]cty.Value, hcl.Diagnostics) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, diags
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid attrs",
			Detail:   fmt.Sprintf("attrs must be an object, got %s.", val.Type().FriendlyName()),
			Subject:  attr.Range.Ptr(),
		})
	}
	out := make(map[string]cty.Value)
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		out[k.AsString()] = v
	}
	return out, diags
}

// LoadManifestsRecursively registers the extensions declared in every .hcl
// manifest under dir. Extensions whose class allow rejects, or that target
// another framework, are skipped. It returns the number registered.
func (r *Registry) LoadManifestsRecursively(ctx context.Context, dir string, fw framework.Framework, allow func(Class) bool) (int, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading extension manifests.", "path", dir)

	paths, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		logger.Warn("No .hcl extension manifests found in path", "path", dir)
		return 0, nil
	}

	parser := hclparse.NewParser()
	loaded := 0
	for _, path := range paths {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return loaded, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}
		exts, diags := ParseManifest(file, path)
		if diags.HasErrors() {
			return loaded, fmt.Errorf("failed to process extension manifest %s: %w", path, diags)
		}
		for _, e := range exts {
			if !allow(e.Class) {
				logger.Debug("Extension class not supported for framework, skipped.", "extension", e.Name, "class", e.Class.String(), "framework", fw.String())
				continue
			}
			if e.Framework != framework.Unknown && e.Framework != fw {
				logger.Debug("Extension targets another framework, skipped.", "extension", e.Name, "target", e.Framework.String())
				continue
			}
			if err := r.AddExtension(e); err != nil {
				return loaded, err
			}
			loaded++
		}
		logger.Debug("Successfully loaded extensions from HCL file", "file", path)
	}
	return loaded, nil
}
