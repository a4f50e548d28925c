package component

// Type is an entry in a component type index space.
type Type interface {
	isType()
}

// ValType is a component value type: a primitive, a reference to a defined
// type, or an inline defined value type.
type ValType interface {
	Type
	isValType()
}

// PrimValType is a primitive value type.
type PrimValType struct {
	Type PrimType
}

// TypeIndexRef refers to a type by index in the enclosing type index space.
type TypeIndexRef struct {
	Index uint32
}

// Field is a named record field.
type Field struct {
	Type ValType
	Name string
}

// RecordType is record { fields }.
type RecordType struct {
	Fields []Field
}

// Case is a variant case with an optional payload.
type Case struct {
	Type ValType
	Name string
}

// VariantType is variant { cases }.
type VariantType struct {
	Cases []Case
}

// ListType is list<T>.
type ListType struct {
	ElemType ValType
}

// TupleType is tuple<T...>.
type TupleType struct {
	Types []ValType
}

// FlagsType is flags { names }.
type FlagsType struct {
	Names []string
}

// EnumType is enum { cases }.
type EnumType struct {
	Cases []string
}

// OptionType is option<T>.
type OptionType struct {
	Type ValType
}

// ResultType is result<OK, Err> with either side optional.
type ResultType struct {
	OK  ValType
	Err ValType
}

// OwnType is own<resource>.
type OwnType struct {
	TypeIndex uint32
}

// BorrowType is borrow<resource>.
type BorrowType struct {
	TypeIndex uint32
}

// Param is a named function parameter.
type Param struct {
	Type ValType
	Name string
}

// FuncType is a component function signature. Results hold zero or one
// unnamed value type, or several legacy named results.
type FuncType struct {
	Params  []Param
	Results []ValType
}

// IsNullary reports whether the function takes no arguments and returns nothing.
func (f *FuncType) IsNullary() bool {
	return len(f.Params) == 0 && len(f.Results) == 0
}

// ExternDesc describes the type of an import or export.
type ExternDesc struct {
	Sort    Sort
	TypeIdx uint32
	// SubResource marks a type export bounded by (sub resource).
	SubResource bool
}

// ExternDecl is a named extern inside an instance type.
type ExternDecl struct {
	Name string
	Desc ExternDesc
}

// InstanceType is an instance type with its own local type index space.
type InstanceType struct {
	Types   []Type
	Exports []ExternDecl
}

// Export looks up an export declaration by name.
func (it *InstanceType) Export(name string) (ExternDecl, bool) {
	for _, e := range it.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return ExternDecl{}, false
}

// ResourceType is a resource type definition.
type ResourceType struct {
	Dtor *uint32
}

// OuterTypeRef is a type aliased from an enclosing scope.
type OuterTypeRef struct {
	Count uint32
	Index uint32
}

// ExportedType is a type brought into scope by a type export or import.
type ExportedType struct {
	Bound ExternDesc
}

func (PrimValType) isType() {}
func (TypeIndexRef) isType() {}
func (RecordType) isType() {}
func (VariantType) isType() {}
func (ListType) isType() {}
func (TupleType) isType() {}
func (FlagsType) isType() {}
func (EnumType) isType() {}
func (OptionType) isType() {}
func (ResultType) isType() {}
func (OwnType) isType() {}
func (BorrowType) isType() {}
func (*FuncType) isType() {}
func (*InstanceType) isType() {}
func (ResourceType) isType() {}
func (OuterTypeRef) isType() {}
func (ExportedType) isType() {}

func (PrimValType) isValType() {}
func (TypeIndexRef) isValType() {}
func (RecordType) isValType() {}
func (VariantType) isValType() {}
func (ListType) isValType() {}
func (TupleType) isValType() {}
func (FlagsType) isValType() {}
func (EnumType) isValType() {}
func (OptionType) isValType() {}
func (ResultType) isValType() {}
func (OwnType) isValType() {}
func (BorrowType) isValType() {}
