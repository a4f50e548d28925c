package wasm

import "github.com/wippyai/wasm-test/internal/binary"

// Instruction represents a single WebAssembly instruction
type Instruction struct {
	Imm    any
	Opcode byte
}

// BlockImm holds the block type for block, loop and if.
type BlockImm struct {
	Type int32
}

// BranchImm holds the label index for br and br_if.
type BranchImm struct {
	LabelIdx uint32
}

// CallImm holds the function index for call.
type CallImm struct {
	FuncIdx uint32
}

// CallIndirectImm holds type and table indices for call_indirect.
type CallIndirectImm struct {
	TypeIdx  uint32
	TableIdx uint32
}

// LocalImm holds the local index for local.get and local.set.
type LocalImm struct {
	LocalIdx uint32
}

// GlobalImm holds the global index for global.get and global.set.
type GlobalImm struct {
	GlobalIdx uint32
}

// MemoryImm holds memory access parameters for loads and stores.
type MemoryImm struct {
	Offset uint32
	Align  uint32
}

// I32Imm holds the constant value for i32.const.
type I32Imm struct {
	Value int32
}

// I64Imm holds the constant value for i64.const.
type I64Imm struct {
	Value int64
}

// Op returns an instruction without immediates.
func Op(opcode byte) Instruction { return Instruction{Opcode: opcode} }

// End returns the end instruction.
func End() Instruction { return Op(OpEnd) }

// Unreachable returns the unreachable instruction.
func Unreachable() Instruction { return Op(OpUnreachable) }

// LocalGet returns local.get idx.
func LocalGet(idx uint32) Instruction {
	return Instruction{Opcode: OpLocalGet, Imm: LocalImm{LocalIdx: idx}}
}

// GlobalGet returns global.get idx.
func GlobalGet(idx uint32) Instruction {
	return Instruction{Opcode: OpGlobalGet, Imm: GlobalImm{GlobalIdx: idx}}
}

// GlobalSet returns global.set idx.
func GlobalSet(idx uint32) Instruction {
	return Instruction{Opcode: OpGlobalSet, Imm: GlobalImm{GlobalIdx: idx}}
}

// I32Const returns i32.const v.
func I32Const(v int32) Instruction {
	return Instruction{Opcode: OpI32Const, Imm: I32Imm{Value: v}}
}

// I64Const returns i64.const v.
func I64Const(v int64) Instruction {
	return Instruction{Opcode: OpI64Const, Imm: I64Imm{Value: v}}
}

// Call returns call idx.
func Call(idx uint32) Instruction {
	return Instruction{Opcode: OpCall, Imm: CallImm{FuncIdx: idx}}
}

// CallIndirect returns call_indirect with the given type on table 0.
func CallIndirect(typeIdx uint32) Instruction {
	return Instruction{Opcode: OpCallIndirect, Imm: CallIndirectImm{TypeIdx: typeIdx}}
}

// If returns an if block with no result.
func If() Instruction {
	return Instruction{Opcode: OpIf, Imm: BlockImm{Type: BlockTypeVoid}}
}

// I32Store returns i32.store with natural alignment.
func I32Store(offset uint32) Instruction {
	return Instruction{Opcode: OpI32Store, Imm: MemoryImm{Offset: offset, Align: 2}}
}

// I32Load returns i32.load with natural alignment.
func I32Load(offset uint32) Instruction {
	return Instruction{Opcode: OpI32Load, Imm: MemoryImm{Offset: offset, Align: 2}}
}

// EncodeInstructions encodes instructions to bytecode
func EncodeInstructions(instrs ...Instruction) []byte {
	w := binary.NewWriter()
	for _, in := range instrs {
		encodeInstruction(w, in)
	}
	return w.Bytes()
}

func encodeInstruction(w *binary.Writer, in Instruction) {
	w.Byte(in.Opcode)
	switch imm := in.Imm.(type) {
	case nil:
	case BlockImm:
		w.WriteS32(imm.Type)
	case BranchImm:
		w.WriteU32(imm.LabelIdx)
	case CallImm:
		w.WriteU32(imm.FuncIdx)
	case CallIndirectImm:
		w.WriteU32(imm.TypeIdx)
		w.WriteU32(imm.TableIdx)
	case LocalImm:
		w.WriteU32(imm.LocalIdx)
	case GlobalImm:
		w.WriteU32(imm.GlobalIdx)
	case MemoryImm:
		w.WriteU32(imm.Align)
		w.WriteU32(imm.Offset)
	case I32Imm:
		w.WriteS32(imm.Value)
	case I64Imm:
		w.WriteS64(imm.Value)
	}
}
