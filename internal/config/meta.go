package config

import (
	"sort"
	"strings"
)

// Meta returns the run metadata recorded in the IR: every raw option that
// holds a value, plus the sorted list of unset options under "unset".
func (o *Options) Meta() map[string]string {
	meta := make(map[string]string)
	var unset []string
	for _, name := range Names() {
		if !o.IsSet(name) {
			unset = append(unset, name)
			continue
		}
		v, _ := o.Lookup(name)
		meta[name] = render(v)
	}
	// k points to a built-in file by default; record it symbolically.
	if o.K == DefaultCustomLayersMapping() {
		meta["k"] = "DIR"
	}
	sort.Strings(unset)
	meta["unset"] = "[" + strings.Join(unset, ", ") + "]"
	return meta
}
