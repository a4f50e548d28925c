package component

import (
	"bytes"
	"fmt"

	"github.com/wippyai/wasm-test/errors"
	"github.com/wippyai/wasm-test/internal/binary"
)

// Decode parses a component binary and builds its index spaces.
func Decode(data []byte) (*Component, error) {
	if len(data) < len(Preamble) || !bytes.Equal(data[:4], Preamble[:4]) {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "not a wasm binary")
	}
	if !bytes.Equal(data[4:8], Preamble[4:8]) {
		return nil, errors.InvalidData(errors.PhaseDecode, nil,
			fmt.Sprintf("unsupported component version/layer % x", data[4:8]))
	}

	d := &decoder{c: &Component{}}
	r := binary.NewReader(data[len(Preamble):])

	for !r.EOF() {
		id, err := r.ReadByte()
		if err != nil {
			return nil, d.wrap("section header", err)
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, d.wrap("section size", err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, d.wrap("section data", err)
		}
		if err := d.section(id, binary.NewReader(payload)); err != nil {
			return nil, err
		}
	}

	return d.c, nil
}

type decoder struct {
	c *Component
}

func (d *decoder) wrap(where string, err error) error {
	if err == nil {
		return nil
	}
	var structured *errors.Error
	if errors.As(err, &structured) {
		return err
	}
	return errors.New(errors.PhaseDecode, errors.KindInvalidData).
		Path(where).
		Cause(err).
		Build()
}

func (d *decoder) section(id byte, r *binary.Reader) error {
	var err error
	switch id {
	case SectionCustom:
		var name string
		if name, err = r.ReadName(); err == nil {
			d.c.CustomSections = append(d.c.CustomSections, CustomSection{Name: name, Data: r.ReadRemaining()})
		}
		return d.wrap("custom section", err)
	case SectionCoreModule:
		d.c.CoreModules = append(d.c.CoreModules, r.ReadRemaining())
		return nil
	case SectionCoreType:
		// Core types only describe core module imports, which are not supported.
		return nil
	case SectionCoreInstance:
		err = vec(r, d.coreInstance)
	case SectionAlias:
		err = vec(r, d.alias)
	case SectionType:
		err = vec(r, func(r *binary.Reader) error {
			t, err := readDefType(r)
			if err != nil {
				return err
			}
			d.c.Types = append(d.c.Types, t)
			return nil
		})
	case SectionCanon:
		err = vec(r, d.canon)
	case SectionImport:
		err = vec(r, d.importItem)
	case SectionExport:
		err = vec(r, d.exportItem)
	case SectionComponent, SectionInstance, SectionStart:
		return errors.Unsupported(errors.PhaseDecode, fmt.Sprintf("component section %d", id))
	default:
		return errors.InvalidData(errors.PhaseDecode, nil, fmt.Sprintf("unknown section id %d", id))
	}
	if err != nil {
		return d.wrap(fmt.Sprintf("section %d", id), err)
	}
	if !r.EOF() {
		return errors.InvalidData(errors.PhaseDecode, []string{fmt.Sprintf("section %d", id)},
			fmt.Sprintf("%d trailing bytes", r.Len()))
	}
	return nil
}

func vec(r *binary.Reader, item func(*binary.Reader) error) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := item(r); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (d *decoder) coreInstance(r *binary.Reader) error {
	form, err := r.ReadByte()
	if err != nil {
		return err
	}
	var inst CoreInstance
	switch form {
	case coreInstanceInstantiate:
		inst.Kind = CoreInstanceInstantiate
		if inst.ModuleIndex, err = r.ReadU32(); err != nil {
			return err
		}
		if int(inst.ModuleIndex) >= len(d.c.CoreModules) {
			return errors.OutOfBounds(errors.PhaseDecode, []string{"core module"}, int(inst.ModuleIndex), len(d.c.CoreModules))
		}
		err = vec(r, func(r *binary.Reader) error {
			name, err := r.ReadName()
			if err != nil {
				return err
			}
			sort, err := r.ReadByte()
			if err != nil {
				return err
			}
			if CoreSort(sort) != CoreSortInstance {
				return fmt.Errorf("instantiate arg %q: sort 0x%02x is not instance", name, sort)
			}
			idx, err := r.ReadU32()
			if err != nil {
				return err
			}
			if int(idx) >= len(d.c.CoreInstances) {
				return errors.OutOfBounds(errors.PhaseDecode, []string{"core instance"}, int(idx), len(d.c.CoreInstances))
			}
			inst.Args = append(inst.Args, CoreInstantiateArg{Name: name, InstanceIndex: idx})
			return nil
		})
	case coreInstanceFromExports:
		inst.Kind = CoreInstanceFromExports
		err = vec(r, func(r *binary.Reader) error {
			name, err := r.ReadName()
			if err != nil {
				return err
			}
			sort, err := r.ReadByte()
			if err != nil {
				return err
			}
			idx, err := r.ReadU32()
			if err != nil {
				return err
			}
			inst.Exports = append(inst.Exports, CoreInlineExport{Name: name, Sort: CoreSort(sort), Index: idx})
			return nil
		})
	default:
		return fmt.Errorf("unknown core instance form 0x%02x", form)
	}
	if err != nil {
		return err
	}
	d.c.CoreInstances = append(d.c.CoreInstances, inst)
	return nil
}

// readSort reads a sort, returning isCore and the core sort when the prefix is 0x00.
func readSort(r *binary.Reader) (Sort, CoreSort, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	if Sort(b) != SortCore {
		return Sort(b), 0, nil
	}
	cs, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}
	return SortCore, CoreSort(cs), nil
}

func (d *decoder) alias(r *binary.Reader) error {
	sort, coreSort, err := readSort(r)
	if err != nil {
		return err
	}
	target, err := r.ReadByte()
	if err != nil {
		return err
	}

	switch target {
	case aliasInstanceExport:
		inst, err := r.ReadU32()
		if err != nil {
			return err
		}
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		if int(inst) >= len(d.c.Instances) {
			return errors.OutOfBounds(errors.PhaseDecode, []string{"instance"}, int(inst), len(d.c.Instances))
		}
		switch sort {
		case SortFunc:
			d.c.Funcs = append(d.c.Funcs, FuncEntry{Kind: FuncAliasExport, InstanceIdx: inst, Name: name})
		case SortInstance:
			d.c.Instances = append(d.c.Instances, InstanceEntry{Kind: InstanceAliasExport, InstanceIdx: inst, Name: name})
		case SortType:
			d.c.Types = append(d.c.Types, ExportedType{Bound: ExternDesc{Sort: SortType}})
		}
	case aliasCoreInstanceExport:
		inst, err := r.ReadU32()
		if err != nil {
			return err
		}
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		if int(inst) >= len(d.c.CoreInstances) {
			return errors.OutOfBounds(errors.PhaseDecode, []string{"core instance"}, int(inst), len(d.c.CoreInstances))
		}
		if sort == SortCore && coreSort == CoreSortFunc {
			d.c.CoreFuncs = append(d.c.CoreFuncs, CoreFuncEntry{Kind: CoreFuncAliasExport, InstanceIdx: inst, ExportName: name})
		}
	case aliasOuter:
		count, err := r.ReadU32()
		if err != nil {
			return err
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		if sort == SortType {
			d.c.Types = append(d.c.Types, OuterTypeRef{Count: count, Index: idx})
		}
	default:
		return fmt.Errorf("unknown alias target 0x%02x", target)
	}
	return nil
}

func readCanonOptions(r *binary.Reader) (CanonOptions, error) {
	var opts CanonOptions
	err := vec(r, func(r *binary.Reader) error {
		opt, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch opt {
		case optUTF8, optUTF16, optLatin1:
			opts.StringEncoding = opt
		case optAsync:
			opts.Async = true
		case optMemory, optRealloc, optPostReturn, optCallback:
			idx, err := r.ReadU32()
			if err != nil {
				return err
			}
			switch opt {
			case optMemory:
				opts.Memory = &idx
			case optRealloc:
				opts.Realloc = &idx
			case optPostReturn:
				opts.PostReturn = &idx
			default:
				opts.Callback = &idx
			}
		default:
			return fmt.Errorf("unknown canon option 0x%02x", opt)
		}
		return nil
	})
	return opts, err
}

func (d *decoder) canon(r *binary.Reader) error {
	kind, err := r.ReadByte()
	if err != nil {
		return err
	}
	switch kind {
	case canonLift:
		if _, err := r.ReadByte(); err != nil { // 0x00 func sort marker
			return err
		}
		coreIdx, err := r.ReadU32()
		if err != nil {
			return err
		}
		if int(coreIdx) >= len(d.c.CoreFuncs) {
			return errors.OutOfBounds(errors.PhaseDecode, []string{"core func"}, int(coreIdx), len(d.c.CoreFuncs))
		}
		opts, err := readCanonOptions(r)
		if err != nil {
			return err
		}
		typeIdx, err := r.ReadU32()
		if err != nil {
			return err
		}
		d.c.Funcs = append(d.c.Funcs, FuncEntry{
			Kind:        FuncCanonLift,
			CoreFuncIdx: coreIdx,
			TypeIdx:     typeIdx,
			HasType:     true,
			Options:     opts,
		})
	case canonLower:
		if _, err := r.ReadByte(); err != nil {
			return err
		}
		funcIdx, err := r.ReadU32()
		if err != nil {
			return err
		}
		if int(funcIdx) >= len(d.c.Funcs) {
			return errors.OutOfBounds(errors.PhaseDecode, []string{"func"}, int(funcIdx), len(d.c.Funcs))
		}
		opts, err := readCanonOptions(r)
		if err != nil {
			return err
		}
		d.c.CoreFuncs = append(d.c.CoreFuncs, CoreFuncEntry{Kind: CoreFuncCanonLower, FuncIndex: funcIdx, Options: opts})
	case canonResourceNew, canonResourceDrop, canonResourceRep:
		rt, err := r.ReadU32()
		if err != nil {
			return err
		}
		k := CoreFuncResourceNew + CoreFuncKind(kind-canonResourceNew)
		d.c.CoreFuncs = append(d.c.CoreFuncs, CoreFuncEntry{Kind: k, FuncIndex: rt})
	default:
		return errors.Unsupported(errors.PhaseDecode, fmt.Sprintf("canon function 0x%02x", kind))
	}
	return nil
}

// readExternName reads importname' / exportname', dropping any version suffix.
func readExternName(r *binary.Reader) (string, error) {
	form, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	name, err := r.ReadName()
	if err != nil {
		return "", err
	}
	switch form {
	case 0x00:
	case 0x01:
		if _, err := r.ReadName(); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown extern name form 0x%02x", form)
	}
	return name, nil
}

func readExternDesc(r *binary.Reader) (ExternDesc, error) {
	b, err := r.ReadByte()
	if err != nil {
		return ExternDesc{}, err
	}
	desc := ExternDesc{Sort: Sort(b)}
	switch desc.Sort {
	case SortCore:
		if m, err := r.ReadByte(); err != nil {
			return desc, err
		} else if CoreSort(m) != CoreSortModule {
			return desc, fmt.Errorf("core extern 0x%02x is not a module", m)
		}
		desc.TypeIdx, err = r.ReadU32()
	case SortFunc, SortComponent, SortInstance:
		desc.TypeIdx, err = r.ReadU32()
	case SortValue:
		if _, err = r.ReadByte(); err == nil {
			desc.TypeIdx, err = r.ReadU32()
		}
	case SortType:
		var bound byte
		if bound, err = r.ReadByte(); err != nil {
			return desc, err
		}
		switch bound {
		case 0x00:
			desc.TypeIdx, err = r.ReadU32()
		case 0x01:
			desc.SubResource = true
		default:
			err = fmt.Errorf("unknown type bound 0x%02x", bound)
		}
	default:
		err = fmt.Errorf("unknown extern sort 0x%02x", b)
	}
	return desc, err
}

func (d *decoder) importItem(r *binary.Reader) error {
	name, err := readExternName(r)
	if err != nil {
		return err
	}
	desc, err := readExternDesc(r)
	if err != nil {
		return err
	}
	switch desc.Sort {
	case SortFunc:
		d.c.Funcs = append(d.c.Funcs, FuncEntry{Kind: FuncImport, Name: name, TypeIdx: desc.TypeIdx, HasType: true})
	case SortInstance:
		d.c.Instances = append(d.c.Instances, InstanceEntry{Kind: InstanceImport, Name: name, TypeIdx: desc.TypeIdx, HasType: true})
	case SortType:
		d.c.Types = append(d.c.Types, ExportedType{Bound: desc})
	default:
		return errors.Unsupported(errors.PhaseDecode, fmt.Sprintf("import %q of sort %s", name, desc.Sort))
	}
	d.c.Imports = append(d.c.Imports, Import{Name: name, Desc: desc})
	return nil
}

func (d *decoder) exportItem(r *binary.Reader) error {
	name, err := readExternName(r)
	if err != nil {
		return err
	}
	sort, coreSort, err := readSort(r)
	if err != nil {
		return err
	}
	idx, err := r.ReadU32()
	if err != nil {
		return err
	}
	exp := Export{Name: name, Sort: sort, Index: idx}

	hasDesc, err := r.ReadByte()
	if err != nil {
		return err
	}
	switch hasDesc {
	case 0x00:
	case 0x01:
		desc, err := readExternDesc(r)
		if err != nil {
			return err
		}
		exp.Desc = &desc
	default:
		return fmt.Errorf("export %q: invalid type ascription flag 0x%02x", name, hasDesc)
	}

	switch sort {
	case SortFunc:
		if int(idx) >= len(d.c.Funcs) {
			return errors.OutOfBounds(errors.PhaseDecode, []string{"export", name}, int(idx), len(d.c.Funcs))
		}
		entry := FuncEntry{Kind: FuncExport, Name: name, FuncIdx: idx}
		if exp.Desc != nil {
			entry.TypeIdx, entry.HasType = exp.Desc.TypeIdx, true
		}
		d.c.Funcs = append(d.c.Funcs, entry)
	case SortInstance:
		d.c.Instances = append(d.c.Instances, InstanceEntry{Kind: InstanceExport, Name: name, InstanceIdx: idx})
	case SortType:
		d.c.Types = append(d.c.Types, TypeIndexRef{Index: idx})
	case SortCore:
		if coreSort != CoreSortModule {
			return fmt.Errorf("export %q: core sort 0x%02x cannot be exported", name, coreSort)
		}
	}
	d.c.Exports = append(d.c.Exports, exp)
	return nil
}
