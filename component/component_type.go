package component

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"
)

// ComponentType is the static interface of a component: what it imports and
// exports, with signatures. It is derived once from a decoded component.
type ComponentType struct {
	Imports []ExternItem
	Exports []ExternItem
}

// ExternItem is a named import or export.
type ExternItem struct {
	Func     *Signature   // set for functions
	Name     string
	Instance []ExternItem // exports of an instance, set for instances
	Sort     Sort
}

// NamedType is a named function parameter.
type NamedType struct {
	Type wit.Type
	Name string
}

// Signature is a function signature resolved to wit types.
type Signature struct {
	Params  []NamedType
	Results []wit.Type
}

// IsNullary reports whether the signature takes no arguments and returns nothing.
func (s *Signature) IsNullary() bool {
	return len(s.Params) == 0 && len(s.Results) == 0
}

// String renders the signature as "func(a: u32) -> s32".
func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString("func(")
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(TypeName(p.Type))
	}
	b.WriteByte(')')
	switch len(s.Results) {
	case 0:
	case 1:
		b.WriteString(" -> ")
		b.WriteString(TypeName(s.Results[0]))
	default:
		b.WriteString(" -> (")
		for i, r := range s.Results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(TypeName(r))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// TypeName returns the WIT spelling of a resolved type.
func TypeName(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.U8:
		return "u8"
	case wit.S16:
		return "s16"
	case wit.U16:
		return "u16"
	case wit.S32:
		return "s32"
	case wit.U32:
		return "u32"
	case wit.S64:
		return "s64"
	case wit.U64:
		return "u64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		switch k := v.Kind.(type) {
		case *wit.Record:
			return "record"
		case *wit.Variant:
			return "variant"
		case *wit.Enum:
			return "enum"
		case *wit.Flags:
			return "flags"
		case *wit.List:
			return "list<" + TypeName(k.Type) + ">"
		case *wit.Option:
			return "option<" + TypeName(k.Type) + ">"
		case *wit.Tuple:
			parts := make([]string, len(k.Types))
			for i, e := range k.Types {
				parts[i] = TypeName(e)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		case *wit.Result:
			switch {
			case k.OK == nil && k.Err == nil:
				return "result"
			case k.Err == nil:
				return "result<" + TypeName(k.OK) + ">"
			case k.OK == nil:
				return "result<_, " + TypeName(k.Err) + ">"
			default:
				return "result<" + TypeName(k.OK) + ", " + TypeName(k.Err) + ">"
			}
		}
	}
	return fmt.Sprintf("%T", t)
}

// ComponentType derives the static interface of c.
func (c *Component) ComponentType() (*ComponentType, error) {
	res := NewTypeResolver(c.Types)
	ct := &ComponentType{}

	for _, imp := range c.Imports {
		item, err := c.describe(res, imp.Name, imp.Desc)
		if err != nil {
			return nil, fmt.Errorf("import %q: %w", imp.Name, err)
		}
		ct.Imports = append(ct.Imports, item)
	}

	for _, exp := range c.Exports {
		item := ExternItem{Name: exp.Name, Sort: exp.Sort}
		var err error
		switch {
		case exp.Desc != nil:
			item, err = c.describe(res, exp.Name, *exp.Desc)
		case exp.Sort == SortFunc:
			item.Func, err = c.funcSignature(res, exp.Index)
		case exp.Sort == SortInstance:
			var it *InstanceType
			var nested *TypeResolver
			if it, nested, err = c.instanceType(res, exp.Index); err == nil {
				item.Instance, err = c.instanceItems(nested, it)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", exp.Name, err)
		}
		ct.Exports = append(ct.Exports, item)
	}

	return ct, nil
}

func (c *Component) describe(res *TypeResolver, name string, desc ExternDesc) (ExternItem, error) {
	item := ExternItem{Name: name, Sort: desc.Sort}
	switch desc.Sort {
	case SortFunc:
		ft, fres, err := res.FuncType(desc.TypeIdx)
		if err != nil {
			return item, err
		}
		item.Func, err = signature(fres, ft)
		return item, err
	case SortInstance:
		it, ires, err := res.InstanceType(desc.TypeIdx)
		if err != nil {
			return item, err
		}
		item.Instance, err = c.instanceItems(ires.Nested(it.Types), it)
		return item, err
	}
	return item, nil
}

func (c *Component) instanceItems(res *TypeResolver, it *InstanceType) ([]ExternItem, error) {
	items := make([]ExternItem, 0, len(it.Exports))
	for _, decl := range it.Exports {
		item, err := c.describe(res, decl.Name, decl.Desc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", decl.Name, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func signature(res *TypeResolver, ft *FuncType) (*Signature, error) {
	sig := &Signature{}
	for _, p := range ft.Params {
		t, err := res.Resolve(p.Type)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", p.Name, err)
		}
		sig.Params = append(sig.Params, NamedType{Name: p.Name, Type: t})
	}
	for i, r := range ft.Results {
		t, err := res.Resolve(r)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		sig.Results = append(sig.Results, t)
	}
	return sig, nil
}

// funcSignature resolves the signature of the component function at idx.
func (c *Component) funcSignature(res *TypeResolver, idx uint32) (*Signature, error) {
	f, ok := c.Func(idx)
	if !ok {
		return nil, fmt.Errorf("func index %d out of range", idx)
	}
	if f.Kind == FuncExport && !f.HasType {
		return c.funcSignature(res, f.FuncIdx)
	}
	if f.HasType {
		ft, fres, err := res.FuncType(f.TypeIdx)
		if err != nil {
			return nil, err
		}
		return signature(fres, ft)
	}

	// Alias of an instance export: the type lives in the instance type.
	it, ires, err := c.instanceType(res, f.InstanceIdx)
	if err != nil {
		return nil, err
	}
	decl, ok := it.Export(f.Name)
	if !ok || decl.Desc.Sort != SortFunc {
		return nil, fmt.Errorf("instance %d has no function export %q", f.InstanceIdx, f.Name)
	}
	ft, fres, err := ires.FuncType(decl.Desc.TypeIdx)
	if err != nil {
		return nil, err
	}
	return signature(fres, ft)
}

// instanceType returns the instance type of the component instance at idx
// together with a resolver scoped to its local types.
func (c *Component) instanceType(res *TypeResolver, idx uint32) (*InstanceType, *TypeResolver, error) {
	for range len(c.Instances) + 1 {
		if int(idx) >= len(c.Instances) {
			return nil, nil, fmt.Errorf("instance index %d out of range", idx)
		}
		inst := c.Instances[idx]
		switch inst.Kind {
		case InstanceImport:
			it, ires, err := res.InstanceType(inst.TypeIdx)
			if err != nil {
				return nil, nil, err
			}
			return it, ires.Nested(it.Types), nil
		case InstanceExport:
			idx = inst.InstanceIdx
		case InstanceAliasExport:
			parent, pres, err := c.instanceType(res, inst.InstanceIdx)
			if err != nil {
				return nil, nil, err
			}
			decl, ok := parent.Export(inst.Name)
			if !ok || decl.Desc.Sort != SortInstance {
				return nil, nil, fmt.Errorf("instance %d has no instance export %q", inst.InstanceIdx, inst.Name)
			}
			it, ires, err := pres.InstanceType(decl.Desc.TypeIdx)
			if err != nil {
				return nil, nil, err
			}
			return it, ires.Nested(it.Types), nil
		}
	}
	return nil, nil, fmt.Errorf("instance export cycle at %d", idx)
}
