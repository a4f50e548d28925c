package component

import (
	"fmt"

	"go.bytecodealliance.org/wit"
)

// TypeResolver converts component binary types to wit.Type. Scopes form a
// stack: index 0 is the component, later entries are nested instance types.
type TypeResolver struct {
	scopes [][]Type
}

// NewTypeResolver creates a resolver over a component's type index space.
func NewTypeResolver(types []Type) *TypeResolver {
	return &TypeResolver{scopes: [][]Type{types}}
}

// Nested returns a resolver for the local type space of an instance type.
func (r *TypeResolver) Nested(types []Type) *TypeResolver {
	scopes := make([][]Type, len(r.scopes), len(r.scopes)+1)
	copy(scopes, r.scopes)
	return &TypeResolver{scopes: append(scopes, types)}
}

func (r *TypeResolver) current() []Type {
	return r.scopes[len(r.scopes)-1]
}

// Lookup returns the type at idx in the innermost scope, following aliases.
func (r *TypeResolver) Lookup(idx uint32) (Type, *TypeResolver, error) {
	res := r
	for depth := 0; depth < 64; depth++ {
		types := res.current()
		if int(idx) >= len(types) {
			return nil, nil, fmt.Errorf("type index out of range: %d >= %d", idx, len(types))
		}
		switch t := types[idx].(type) {
		case TypeIndexRef:
			idx = t.Index
		case OuterTypeRef:
			if int(t.Count) >= len(res.scopes) {
				return nil, nil, fmt.Errorf("outer alias count %d exceeds nesting", t.Count)
			}
			res = &TypeResolver{scopes: res.scopes[:len(res.scopes)-int(t.Count)]}
			idx = t.Index
		default:
			return t, res, nil
		}
	}
	return nil, nil, fmt.Errorf("type alias chain too deep at index %d", idx)
}

// FuncType returns the function type at idx.
func (r *TypeResolver) FuncType(idx uint32) (*FuncType, *TypeResolver, error) {
	t, res, err := r.Lookup(idx)
	if err != nil {
		return nil, nil, err
	}
	ft, ok := t.(*FuncType)
	if !ok {
		return nil, nil, fmt.Errorf("type %d is %T, not a function type", idx, t)
	}
	return ft, res, nil
}

// InstanceType returns the instance type at idx.
func (r *TypeResolver) InstanceType(idx uint32) (*InstanceType, *TypeResolver, error) {
	t, res, err := r.Lookup(idx)
	if err != nil {
		return nil, nil, err
	}
	it, ok := t.(*InstanceType)
	if !ok {
		return nil, nil, fmt.Errorf("type %d is %T, not an instance type", idx, t)
	}
	return it, res, nil
}

// Resolve converts a ValType to wit.Type
func (r *TypeResolver) Resolve(vt ValType) (wit.Type, error) {
	switch t := vt.(type) {
	case nil:
		return nil, nil
	case PrimValType:
		return resolvePrimitive(t.Type)
	case TypeIndexRef:
		def, res, err := r.Lookup(t.Index)
		if err != nil {
			return nil, err
		}
		switch d := def.(type) {
		case ValType:
			return res.Resolve(d)
		case ResourceType, ExportedType:
			// Resource handles are u32 at the canonical ABI level
			return wit.U32{}, nil
		default:
			return nil, fmt.Errorf("type %d (%T) is not a value type", t.Index, def)
		}
	case RecordType:
		fields := make([]wit.Field, len(t.Fields))
		for i, f := range t.Fields {
			ft, err := r.Resolve(f.Type)
			if err != nil {
				return nil, fmt.Errorf("record field %q: %w", f.Name, err)
			}
			fields[i] = wit.Field{Name: f.Name, Type: ft}
		}
		return &wit.TypeDef{Kind: &wit.Record{Fields: fields}}, nil
	case VariantType:
		cases := make([]wit.Case, len(t.Cases))
		for i, c := range t.Cases {
			ct, err := r.Resolve(c.Type)
			if err != nil {
				return nil, fmt.Errorf("variant case %q: %w", c.Name, err)
			}
			cases[i] = wit.Case{Name: c.Name, Type: ct}
		}
		return &wit.TypeDef{Kind: &wit.Variant{Cases: cases}}, nil
	case ListType:
		elem, err := r.Resolve(t.ElemType)
		if err != nil {
			return nil, fmt.Errorf("list element: %w", err)
		}
		return &wit.TypeDef{Kind: &wit.List{Type: elem}}, nil
	case TupleType:
		types := make([]wit.Type, len(t.Types))
		for i, elem := range t.Types {
			et, err := r.Resolve(elem)
			if err != nil {
				return nil, fmt.Errorf("tuple element %d: %w", i, err)
			}
			types[i] = et
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil
	case FlagsType:
		flags := make([]wit.Flag, len(t.Names))
		for i, name := range t.Names {
			flags[i] = wit.Flag{Name: name}
		}
		return &wit.TypeDef{Kind: &wit.Flags{Flags: flags}}, nil
	case EnumType:
		cases := make([]wit.EnumCase, len(t.Cases))
		for i, name := range t.Cases {
			cases[i] = wit.EnumCase{Name: name}
		}
		return &wit.TypeDef{Kind: &wit.Enum{Cases: cases}}, nil
	case OptionType:
		inner, err := r.Resolve(t.Type)
		if err != nil {
			return nil, fmt.Errorf("option type: %w", err)
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: inner}}, nil
	case ResultType:
		ok, err := r.Resolve(t.OK)
		if err != nil {
			return nil, fmt.Errorf("result ok: %w", err)
		}
		e, err := r.Resolve(t.Err)
		if err != nil {
			return nil, fmt.Errorf("result err: %w", err)
		}
		return &wit.TypeDef{Kind: &wit.Result{OK: ok, Err: e}}, nil
	case OwnType, BorrowType:
		// Own and borrow handles are u32 at the canonical ABI level
		return wit.U32{}, nil
	default:
		return nil, fmt.Errorf("unsupported component val type: %T", vt)
	}
}

func resolvePrimitive(p PrimType) (wit.Type, error) {
	switch p {
	case PrimBool:
		return wit.Bool{}, nil
	case PrimS8:
		return wit.S8{}, nil
	case PrimU8:
		return wit.U8{}, nil
	case PrimS16:
		return wit.S16{}, nil
	case PrimU16:
		return wit.U16{}, nil
	case PrimS32:
		return wit.S32{}, nil
	case PrimU32:
		return wit.U32{}, nil
	case PrimS64:
		return wit.S64{}, nil
	case PrimU64:
		return wit.U64{}, nil
	case PrimF32:
		return wit.F32{}, nil
	case PrimF64:
		return wit.F64{}, nil
	case PrimChar:
		return wit.Char{}, nil
	case PrimString:
		return wit.String{}, nil
	default:
		return nil, fmt.Errorf("unknown primitive type: 0x%02x", byte(p))
	}
}
