package harness

import (
	"sort"

	"github.com/wippyai/wasm-test/component"
)

// Export is one top-level export of a component.
type Export struct {
	Signature *component.Signature // nil unless Sort is a function
	Name      string
	Sort      component.Sort
}

// IsFunc reports whether the export is a function.
func (e Export) IsFunc() bool {
	return e.Sort == component.SortFunc && e.Signature != nil
}

// ListExports returns the component's exports sorted by name.
func ListExports(ct *component.ComponentType) []Export {
	out := make([]Export, 0, len(ct.Exports))
	for _, item := range ct.Exports {
		out = append(out, Export{Name: item.Name, Sort: item.Sort, Signature: item.Func})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
