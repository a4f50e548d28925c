package component

// Component holds the decoded structure of a WebAssembly component
type Component struct {
	CoreModules    [][]byte
	CoreInstances  []CoreInstance
	CoreFuncs      []CoreFuncEntry
	Funcs          []FuncEntry
	Instances      []InstanceEntry
	Types          []Type
	Imports        []Import
	Exports        []Export
	CustomSections []CustomSection
}

// CoreInstanceKind distinguishes the two core instance forms.
type CoreInstanceKind int

const (
	CoreInstanceInstantiate CoreInstanceKind = iota // instantiate a core module
	CoreInstanceFromExports                         // bundle existing core items
)

// CoreInstance is an entry in the core instance index space.
type CoreInstance struct {
	Args        []CoreInstantiateArg
	Exports     []CoreInlineExport
	Kind        CoreInstanceKind
	ModuleIndex uint32
}

// CoreInstantiateArg satisfies one import module name with a core instance.
type CoreInstantiateArg struct {
	Name          string
	InstanceIndex uint32
}

// CoreInlineExport names one core item in a from-exports instance.
type CoreInlineExport struct {
	Name  string
	Sort  CoreSort
	Index uint32
}

// CoreFuncKind identifies how a core function was defined.
type CoreFuncKind int

const (
	CoreFuncAliasExport  CoreFuncKind = iota // alias of a core instance export
	CoreFuncCanonLower                       // canon lower
	CoreFuncResourceNew                      // canon resource.new
	CoreFuncResourceDrop                     // canon resource.drop
	CoreFuncResourceRep                      // canon resource.rep
)

// CoreFuncEntry describes a core function in the core func index space
type CoreFuncEntry struct {
	ExportName  string
	Options     CanonOptions
	Kind        CoreFuncKind
	InstanceIdx uint32
	FuncIndex   uint32 // lowered component func, or resource type index
}

// FuncKind identifies how a component function was defined.
type FuncKind int

const (
	FuncImport      FuncKind = iota // imported directly
	FuncAliasExport                 // alias of a component instance export
	FuncCanonLift                   // canon lift of a core function
	FuncExport                      // re-export of another component function
)

// FuncEntry describes a function in the component function index space
type FuncEntry struct {
	Name        string
	Options     CanonOptions
	Kind        FuncKind
	InstanceIdx uint32
	CoreFuncIdx uint32
	FuncIdx     uint32
	TypeIdx     uint32
	HasType     bool
}

// InstanceKind identifies how a component instance entered the index space.
type InstanceKind int

const (
	InstanceImport      InstanceKind = iota // imported
	InstanceAliasExport                     // alias of another instance's export
	InstanceExport                          // re-export
)

// InstanceEntry describes an entry in the component instance index space
type InstanceEntry struct {
	Name        string
	Kind        InstanceKind
	InstanceIdx uint32
	TypeIdx     uint32
	HasType     bool
}

// CanonOptions holds canonical ABI options of a lift or lower.
type CanonOptions struct {
	Memory         *uint32
	Realloc        *uint32
	PostReturn     *uint32
	Callback       *uint32
	StringEncoding byte
	Async          bool
}

// Import is a component-level import
type Import struct {
	Name string
	Desc ExternDesc
}

// Export is a component-level export
type Export struct {
	Desc  *ExternDesc
	Name  string
	Sort  Sort
	Index uint32
}

// CustomSection holds a named custom section's data.
type CustomSection struct {
	Name string
	Data []byte
}

// CoreFunc returns the core function at idx.
func (c *Component) CoreFunc(idx uint32) (CoreFuncEntry, bool) {
	if int(idx) >= len(c.CoreFuncs) {
		return CoreFuncEntry{}, false
	}
	return c.CoreFuncs[idx], true
}

// Func returns the component function at idx.
func (c *Component) Func(idx uint32) (FuncEntry, bool) {
	if int(idx) >= len(c.Funcs) {
		return FuncEntry{}, false
	}
	return c.Funcs[idx], true
}

// ExportByName looks up a top-level export.
func (c *Component) ExportByName(name string) (Export, bool) {
	for _, e := range c.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// ResolveFunc follows re-exports until it reaches the defining function entry.
func (c *Component) ResolveFunc(idx uint32) (FuncEntry, bool) {
	for range len(c.Funcs) + 1 {
		f, ok := c.Func(idx)
		if !ok {
			return FuncEntry{}, false
		}
		if f.Kind != FuncExport {
			return f, true
		}
		idx = f.FuncIdx
	}
	return FuncEntry{}, false
}
