package component

import (
	"fmt"

	"github.com/wippyai/wasm-test/errors"
	"github.com/wippyai/wasm-test/internal/binary"
)

func readDefType(r *binary.Reader) (Type, error) {
	b, err := r.PeekByte()
	if err != nil {
		return nil, err
	}
	switch b {
	case typeFunc:
		r.ReadByte()
		return readFuncType(r)
	case typeInstance:
		r.ReadByte()
		return readInstanceType(r)
	case typeResource:
		r.ReadByte()
		return readResourceType(r)
	case typeComponent:
		return nil, errors.Unsupported(errors.PhaseDecode, "component types")
	default:
		return readValType(r)
	}
}

func readFuncType(r *binary.Reader) (*FuncType, error) {
	ft := &FuncType{}
	err := vec(r, func(r *binary.Reader) error {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		t, err := readValType(r)
		if err != nil {
			return err
		}
		ft.Params = append(ft.Params, Param{Name: name, Type: t})
		return nil
	})
	if err != nil {
		return nil, err
	}

	form, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch form {
	case 0x00:
		t, err := readValType(r)
		if err != nil {
			return nil, err
		}
		ft.Results = []ValType{t}
	case 0x01:
		// Named result list; the current encoding always has length zero.
		err = vec(r, func(r *binary.Reader) error {
			if _, err := r.ReadName(); err != nil {
				return err
			}
			t, err := readValType(r)
			if err != nil {
				return err
			}
			ft.Results = append(ft.Results, t)
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown result list form 0x%02x", form)
	}
	return ft, nil
}

func readInstanceType(r *binary.Reader) (*InstanceType, error) {
	it := &InstanceType{}
	err := vec(r, func(r *binary.Reader) error {
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch kind {
		case declType:
			t, err := readDefType(r)
			if err != nil {
				return err
			}
			it.Types = append(it.Types, t)
		case declAlias:
			sort, _, err := readSort(r)
			if err != nil {
				return err
			}
			target, err := r.ReadByte()
			if err != nil {
				return err
			}
			if target != aliasOuter {
				return fmt.Errorf("instance type alias target 0x%02x", target)
			}
			count, err := r.ReadU32()
			if err != nil {
				return err
			}
			idx, err := r.ReadU32()
			if err != nil {
				return err
			}
			if sort == SortType {
				it.Types = append(it.Types, OuterTypeRef{Count: count, Index: idx})
			}
		case declExport:
			name, err := readExternName(r)
			if err != nil {
				return err
			}
			desc, err := readExternDesc(r)
			if err != nil {
				return err
			}
			if desc.Sort == SortType {
				it.Types = append(it.Types, ExportedType{Bound: desc})
			}
			it.Exports = append(it.Exports, ExternDecl{Name: name, Desc: desc})
		case declCoreType:
			return errors.Unsupported(errors.PhaseDecode, "core type declaration in instance type")
		default:
			return fmt.Errorf("unknown instance declaration 0x%02x", kind)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

func readResourceType(r *binary.Reader) (Type, error) {
	rep, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if rep != byte(wasmI32) {
		return nil, fmt.Errorf("resource representation 0x%02x is not i32", rep)
	}
	var rt ResourceType
	has, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if has == 0x01 {
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		rt.Dtor = &idx
	}
	return rt, nil
}

// wasmI32 is the only resource representation.
const wasmI32 = 0x7F

// readValType reads a valtype: a primitive, a type index encoded as s33, or
// an inline defined value type when used as a deftype.
func readValType(r *binary.Reader) (ValType, error) {
	b, err := r.PeekByte()
	if err != nil {
		return nil, err
	}
	if isPrim(b) {
		r.ReadByte()
		return PrimValType{Type: PrimType(b)}, nil
	}
	switch b {
	case typeRecord, typeVariant, typeList, typeTuple, typeFlags, typeEnum,
		typeOption, typeResult, typeOwn, typeBorrow:
		r.ReadByte()
		return readDefValType(r, b)
	}
	v, err := r.ReadS64()
	if err != nil {
		return nil, err
	}
	if v < 0 || v > 0xFFFFFFFF {
		return nil, fmt.Errorf("unsupported value type 0x%02x", b)
	}
	return TypeIndexRef{Index: uint32(v)}, nil
}

func readOptionalValType(r *binary.Reader) (ValType, error) {
	has, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch has {
	case 0x00:
		return nil, nil
	case 0x01:
		return readValType(r)
	default:
		return nil, fmt.Errorf("invalid optional flag 0x%02x", has)
	}
}

func readDefValType(r *binary.Reader, tag byte) (ValType, error) {
	switch tag {
	case typeRecord:
		var rec RecordType
		err := vec(r, func(r *binary.Reader) error {
			name, err := r.ReadName()
			if err != nil {
				return err
			}
			t, err := readValType(r)
			if err != nil {
				return err
			}
			rec.Fields = append(rec.Fields, Field{Name: name, Type: t})
			return nil
		})
		return rec, err
	case typeVariant:
		var v VariantType
		err := vec(r, func(r *binary.Reader) error {
			name, err := r.ReadName()
			if err != nil {
				return err
			}
			t, err := readOptionalValType(r)
			if err != nil {
				return err
			}
			if _, err := r.ReadByte(); err != nil { // refines, always 0x00
				return err
			}
			v.Cases = append(v.Cases, Case{Name: name, Type: t})
			return nil
		})
		return v, err
	case typeList:
		t, err := readValType(r)
		return ListType{ElemType: t}, err
	case typeTuple:
		var tt TupleType
		err := vec(r, func(r *binary.Reader) error {
			t, err := readValType(r)
			tt.Types = append(tt.Types, t)
			return err
		})
		return tt, err
	case typeFlags:
		var f FlagsType
		err := vec(r, func(r *binary.Reader) error {
			name, err := r.ReadName()
			f.Names = append(f.Names, name)
			return err
		})
		return f, err
	case typeEnum:
		var e EnumType
		err := vec(r, func(r *binary.Reader) error {
			name, err := r.ReadName()
			e.Cases = append(e.Cases, name)
			return err
		})
		return e, err
	case typeOption:
		t, err := readValType(r)
		return OptionType{Type: t}, err
	case typeResult:
		ok, err := readOptionalValType(r)
		if err != nil {
			return nil, err
		}
		e, err := readOptionalValType(r)
		return ResultType{OK: ok, Err: e}, err
	case typeOwn:
		idx, err := r.ReadU32()
		return OwnType{TypeIndex: idx}, err
	default:
		idx, err := r.ReadU32()
		return BorrowType{TypeIndex: idx}, err
	}
}
