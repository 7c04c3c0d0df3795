package registry

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/modelopt/internal/framework"
)

// Class is the stage an extension plugs into.
type Class int

const (
	ClassFrontExtractor Class = iota + 1
	ClassFrontReplacement
	ClassMiddleReplacement
	ClassBackReplacement
	ClassOp
)

var classNames = map[Class]string{
	ClassFrontExtractor:    "front_extractor",
	ClassFrontReplacement:  "front_replacement",
	ClassMiddleReplacement: "middle_replacement",
	ClassBackReplacement:   "back_replacement",
	ClassOp:                "op",
}

func (c Class) String() string {
	if n, ok := classNames[c]; ok {
		return n
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// ParseClass maps a manifest class name onto a Class.
func ParseClass(s string) (Class, error) {
	for c, n := range classNames {
		if n == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown extension class %q", s)
}

// Generic reports whether the class is framework independent.
func (c Class) Generic() bool {
	return c == ClassMiddleReplacement || c == ClassBackReplacement
}

// SourceBuiltin marks extensions compiled into the binary.
const SourceBuiltin = "builtin"

// Extension is one registered transformation or operation.
type Extension struct {
	Name  string
	Class Class
	// Framework restricts a front extension to one framework. Unknown means
	// any.
	Framework framework.Framework
	// Op is the operation the extension produces.
	Op       string
	Enabled  bool
	Priority int
	Attrs    map[string]cty.Value
	// Source is SourceBuiltin or the manifest path.
	Source string
}

// Module is the interface that all compiled-in extension sets implement to
// be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered operations and extensions for a single
// application instance.
type Registry struct {
	ops        map[string]reflect.Type
	extensions map[string]*Extension
	order      []string
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		ops:        make(map[string]reflect.Type),
		extensions: make(map[string]*Extension),
	}
}

// RegisterOp declares an operation. attrs is a struct value, or nil, whose
// `cty`-tagged fields list the attributes the operation accepts.
func (r *Registry) RegisterOp(op string, attrs any) {
	if _, exists := r.ops[op]; exists {
		panic(fmt.Sprintf("operation '%s' already registered", op))
	}
	var t reflect.Type
	if attrs != nil {
		t = reflect.TypeOf(attrs)
	}
	slog.Debug("Registering operation.", "op", op)
	r.ops[op] = t
}

// HasOp reports whether op was registered.
func (r *Registry) HasOp(op string) bool {
	_, ok := r.ops[op]
	return ok
}

// RegisterExtension registers a compiled-in extension. Duplicates are a
// programming error.
func (r *Registry) RegisterExtension(e *Extension) {
	if e.Source == "" {
		e.Source = SourceBuiltin
	}
	if err := r.AddExtension(e); err != nil {
		panic(err.Error())
	}
}

// AddExtension registers an extension loaded at run time.
func (r *Registry) AddExtension(e *Extension) error {
	if prev, exists := r.extensions[e.Name]; exists {
		return fmt.Errorf("extension '%s' from %s already registered by %s", e.Name, e.Source, prev.Source)
	}
	slog.Debug("Registering extension.", "name", e.Name, "class", e.Class.String(), "source", e.Source)
	r.extensions[e.Name] = e
	r.order = append(r.order, e.Name)
	return nil
}

// Extension looks up an extension by name.
func (r *Registry) Extension(name string) (*Extension, bool) {
	e, ok := r.extensions[name]
	return e, ok
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int { return len(r.extensions) }

// Extensions returns the enabled extensions of one class, highest priority
// first and by name within a priority.
func (r *Registry) Extensions(class Class) []*Extension {
	var out []*Extension
	for _, name := range r.order {
		e := r.extensions[name]
		if e.Class == class && e.Enabled {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Register runs every module against r.
func (r *Registry) Register(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}
