package component

import "github.com/wippyai/wasm-test/internal/binary"

// Builder assembles a component binary. Consecutive items of the same
// section kind share one section. Every method that defines an item returns
// its index in the corresponding index space.
type Builder struct {
	out       *binary.Writer
	section   byte
	items     *binary.Writer
	count     uint32
	open      bool
	modules   uint32
	coreInsts uint32
	coreFuncs uint32
	funcs     uint32
	instances uint32
	types     uint32
}

// NewBuilder creates an empty component builder.
func NewBuilder() *Builder {
	out := binary.NewWriter()
	out.WriteBytes(Preamble)
	return &Builder{out: out}
}

func (b *Builder) item(section byte) *binary.Writer {
	if !b.open || b.section != section || section == SectionCoreModule || section == SectionCustom {
		b.flush()
		b.section = section
		b.items = binary.NewWriter()
		b.count = 0
		b.open = true
	}
	b.count++
	return b.items
}

func (b *Builder) flush() {
	if !b.open {
		return
	}
	payload := binary.NewWriter()
	if b.section != SectionCoreModule && b.section != SectionCustom {
		payload.WriteU32(b.count)
	}
	payload.WriteBytes(b.items.Bytes())
	b.out.WriteSection(b.section, payload.Bytes())
	b.open = false
}

// Bytes finishes the component and returns its encoding.
func (b *Builder) Bytes() []byte {
	b.flush()
	return b.out.Bytes()
}

// CoreModule embeds a core module binary.
func (b *Builder) CoreModule(module []byte) uint32 {
	b.item(SectionCoreModule).WriteBytes(module)
	b.modules++
	return b.modules - 1
}

// Custom adds a custom section.
func (b *Builder) Custom(name string, data []byte) {
	w := b.item(SectionCustom)
	w.WriteName(name)
	w.WriteBytes(data)
}

// CoreInstantiate instantiates a core module with named instance arguments.
func (b *Builder) CoreInstantiate(module uint32, args ...CoreInstantiateArg) uint32 {
	w := b.item(SectionCoreInstance)
	w.Byte(coreInstanceInstantiate)
	w.WriteU32(module)
	w.WriteU32(uint32(len(args)))
	for _, a := range args {
		w.WriteName(a.Name)
		w.Byte(byte(CoreSortInstance))
		w.WriteU32(a.InstanceIndex)
	}
	b.coreInsts++
	return b.coreInsts - 1
}

// CoreFromExports bundles existing core items into a new core instance.
func (b *Builder) CoreFromExports(exports ...CoreInlineExport) uint32 {
	w := b.item(SectionCoreInstance)
	w.Byte(coreInstanceFromExports)
	w.WriteU32(uint32(len(exports)))
	for _, e := range exports {
		w.WriteName(e.Name)
		w.Byte(byte(e.Sort))
		w.WriteU32(e.Index)
	}
	b.coreInsts++
	return b.coreInsts - 1
}

// AliasCoreFunc aliases a function export of a core instance.
func (b *Builder) AliasCoreFunc(instance uint32, name string) uint32 {
	w := b.item(SectionAlias)
	w.Byte(byte(SortCore))
	w.Byte(byte(CoreSortFunc))
	w.Byte(aliasCoreInstanceExport)
	w.WriteU32(instance)
	w.WriteName(name)
	b.coreFuncs++
	return b.coreFuncs - 1
}

// AliasFunc aliases a function export of a component instance.
func (b *Builder) AliasFunc(instance uint32, name string) uint32 {
	w := b.item(SectionAlias)
	w.Byte(byte(SortFunc))
	w.Byte(aliasInstanceExport)
	w.WriteU32(instance)
	w.WriteName(name)
	b.funcs++
	return b.funcs - 1
}

// FuncType defines a function type with primitive parameters and at most one result.
func (b *Builder) FuncType(ft *FuncType) uint32 {
	w := b.item(SectionType)
	writeFuncType(w, ft)
	b.types++
	return b.types - 1
}

// InstanceType defines an instance type exporting the given functions. Each
// function's type is declared inside the instance type.
func (b *Builder) InstanceType(funcs []NamedFuncType) uint32 {
	w := b.item(SectionType)
	w.Byte(typeInstance)
	w.WriteU32(uint32(2 * len(funcs)))
	for i, f := range funcs {
		w.Byte(declType)
		writeFuncType(w, f.Type)
		w.Byte(declExport)
		w.Byte(0x00)
		w.WriteName(f.Name)
		w.Byte(byte(SortFunc))
		w.WriteU32(uint32(i))
	}
	b.types++
	return b.types - 1
}

// NamedFuncType pairs an export name with its function type.
type NamedFuncType struct {
	Type *FuncType
	Name string
}

// ImportInstance imports a component instance of the given type.
func (b *Builder) ImportInstance(name string, typeIdx uint32) uint32 {
	w := b.item(SectionImport)
	w.Byte(0x00)
	w.WriteName(name)
	w.Byte(byte(SortInstance))
	w.WriteU32(typeIdx)
	b.instances++
	return b.instances - 1
}

// CanonLower lowers a component function into a core function.
func (b *Builder) CanonLower(funcIdx uint32) uint32 {
	w := b.item(SectionCanon)
	w.Byte(canonLower)
	w.Byte(0x00)
	w.WriteU32(funcIdx)
	w.WriteU32(0)
	b.coreFuncs++
	return b.coreFuncs - 1
}

// CanonLift lifts a core function into a component function of the given type.
func (b *Builder) CanonLift(coreFunc, typeIdx uint32) uint32 {
	w := b.item(SectionCanon)
	w.Byte(canonLift)
	w.Byte(0x00)
	w.WriteU32(coreFunc)
	w.WriteU32(0)
	w.WriteU32(typeIdx)
	b.funcs++
	return b.funcs - 1
}

// ExportFunc exports a component function, ascribing typeIdx when non-nil.
func (b *Builder) ExportFunc(name string, funcIdx uint32, typeIdx *uint32) uint32 {
	w := b.item(SectionExport)
	w.Byte(0x00)
	w.WriteName(name)
	w.Byte(byte(SortFunc))
	w.WriteU32(funcIdx)
	if typeIdx == nil {
		w.Byte(0x00)
	} else {
		w.Byte(0x01)
		w.Byte(byte(SortFunc))
		w.WriteU32(*typeIdx)
	}
	b.funcs++
	return b.funcs - 1
}

func writeFuncType(w *binary.Writer, ft *FuncType) {
	w.Byte(typeFunc)
	w.WriteU32(uint32(len(ft.Params)))
	for _, p := range ft.Params {
		w.WriteName(p.Name)
		writeValType(w, p.Type)
	}
	if len(ft.Results) == 1 {
		w.Byte(0x00)
		writeValType(w, ft.Results[0])
	} else {
		w.Byte(0x01)
		w.WriteU32(0)
	}
}

func writeValType(w *binary.Writer, vt ValType) {
	switch t := vt.(type) {
	case PrimValType:
		w.Byte(byte(t.Type))
	case TypeIndexRef:
		w.WriteS64(int64(t.Index))
	default:
		panic("component: only primitive and indexed value types can be encoded")
	}
}
