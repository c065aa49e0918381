package gas

// Opcode is a raw WASM instruction byte, as parsed by wasmhost's module
// decoder.
type Opcode uint8

// Gas cost classes for the WASM opcode schedule (spec §4.1), ported
// opcode-by-opcode from original_source/src/gas/constants.rs's
// wasm_opcode_gas_schedule rather than approximated: constants are free,
// br/br_table/return/call/call_indirect, br_if, drop/select/register/
// memory-access ops are a few gas each, division/remainder costs 80,
// clz (but not ctz or popcnt, which fall to the default) costs 105, and
// everything else legal costs 1. Disallowed classes (float, SIMD, thread/atomic) have
// no entry here — wasmhost's validator rejects them before this table
// is ever consulted.
const (
	costConst     uint64 = 0
	costDrop      uint64 = 2
	costSelect    uint64 = 3
	costFlow2     uint64 = 2
	costBrIf      uint64 = 3
	costRegister  uint64 = 3
	costMemAccess uint64 = 3
	costIntegerOp uint64 = 1
	costShiftRot  uint64 = 2
	costMul       uint64 = 3
	costDivRem    uint64 = 80
	costClz       uint64 = 105
	costCast      uint64 = 3
	costDefault   uint64 = 1
)

// Numeric instruction opcodes this schedule prices specially; every
// other legal opcode falls through to costDefault. Values follow the
// WASM binary format (the MVP opcode table).
const (
	opI32Const Opcode = 0x41
	opI64Const Opcode = 0x42

	opDrop   Opcode = 0x1a
	opSelect Opcode = 0x1b

	opBr           Opcode = 0x0c
	opBrTable      Opcode = 0x0e
	opReturn       Opcode = 0x0f
	opCall         Opcode = 0x10
	opCallIndirect Opcode = 0x11
	opBrIf         Opcode = 0x0d

	opGlobalGet Opcode = 0x23
	opGlobalSet Opcode = 0x24
	opLocalGet  Opcode = 0x20
	opLocalSet  Opcode = 0x21

	opI32Add  Opcode = 0x6a
	opI32Sub  Opcode = 0x6b
	opI32Mul  Opcode = 0x6c
	opI32DivS Opcode = 0x6d
	opI32DivU Opcode = 0x6e
	opI32RemS Opcode = 0x6f
	opI32RemU Opcode = 0x70
	opI32Clz  Opcode = 0x67

	opI32Shl  Opcode = 0x74
	opI32ShrS Opcode = 0x75
	opI32ShrU Opcode = 0x76
	opI32Rotl Opcode = 0x77
	opI32Rotr Opcode = 0x78

	opI64Add  Opcode = 0x7c
	opI64Sub  Opcode = 0x7d
	opI64Mul  Opcode = 0x7e
	opI64DivS Opcode = 0x7f
	opI64DivU Opcode = 0x80
	opI64RemS Opcode = 0x81
	opI64RemU Opcode = 0x82
	opI64Clz  Opcode = 0x79

	opI64Shl  Opcode = 0x86
	opI64ShrS Opcode = 0x87
	opI64ShrU Opcode = 0x88
	opI64Rotl Opcode = 0x89
	opI64Rotr Opcode = 0x8a

	opI32WrapI64    Opcode = 0xa7
	opI64ExtendI32S Opcode = 0xac
	opI64ExtendI32U Opcode = 0xad
)

// OpcodeCost returns the gas cost of executing one instance of op.
func OpcodeCost(op Opcode) uint64 {
	switch {
	case op == opI32Const || op == opI64Const:
		return costConst
	case op == opDrop:
		return costDrop
	case op == opSelect:
		return costSelect
	case op == opBrIf:
		return costBrIf
	case op == opBr || op == opBrTable || op == opReturn || op == opCall || op == opCallIndirect:
		return costFlow2
	case op == opGlobalGet || op == opGlobalSet || op == opLocalGet || op == opLocalSet:
		return costRegister
	case op >= 0x28 && op <= 0x3e: // i32/i64 load and store family
		return costMemAccess
	case op == opI32Clz || op == opI64Clz:
		return costClz
	case op == opI32DivS || op == opI32DivU || op == opI32RemS || op == opI32RemU ||
		op == opI64DivS || op == opI64DivU || op == opI64RemS || op == opI64RemU:
		return costDivRem
	case op == opI32Mul || op == opI64Mul:
		return costMul
	case op == opI32Shl || op == opI32ShrS || op == opI32ShrU || op == opI32Rotl || op == opI32Rotr ||
		op == opI64Shl || op == opI64ShrS || op == opI64ShrU || op == opI64Rotl || op == opI64Rotr:
		return costShiftRot
	case op == opI32Add || op == opI32Sub || op == opI64Add || op == opI64Sub:
		return costIntegerOp
	case op == opI32WrapI64 || op == opI64ExtendI32S || op == opI64ExtendI32U:
		return costCast
	default:
		return costDefault
	}
}
