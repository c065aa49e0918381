package wasmhost

// Opcode bytes this sandbox explicitly rejects at compile time: any
// floating-point instruction (0x43/0x44 consts, f32/f64 loads and
// stores, the f32/f64 comparison, arithmetic, and conversion ranges, and
// the reinterpret opcodes that cross the int/float boundary; the integer
// i32.wrap_i64 and i64.extend_i32 opcodes in that range stay allowed),
// the SIMD prefix (0xFD), and the
// thread/atomic prefix (0xFE). Everything else — including the
// bulk-memory and exception-handling prefixes/opcodes — is permitted
// (spec §4.6).
const (
	opF32Const byte = 0x43
	opF64Const byte = 0x44

	opSimdPrefix   byte = 0xfd
	opAtomicPrefix byte = 0xfe
)

func isDisallowedOpcode(op byte) bool {
	switch {
	case op == opF32Const || op == opF64Const:
		return true
	case op >= 0x5b && op <= 0x66: // f32/f64 comparisons
		return true
	case op >= 0x8b && op <= 0xa6: // f32/f64 arithmetic
		return true
	case op == 0x2a || op == 0x2b || op == 0x38 || op == 0x39: // f32/f64 load/store
		return true
	case op >= 0xa8 && op <= 0xbf && op != 0xac && op != 0xad: // truncation/conversion/reinterpret touching float
		return true
	case op == opSimdPrefix || op == opAtomicPrefix:
		return true
	default:
		return false
	}
}

// leb128ImmediateOps have a single unsigned-LEB128 immediate following
// the opcode byte (local/global index, call target, const value, ...).
var leb128ImmediateOps = map[byte]bool{
	0x0c: true, // br
	0x0d: true, // br_if
	0x10: true, // call
	0x20: true, // local.get
	0x21: true, // local.set
	0x22: true, // local.tee
	0x23: true, // global.get
	0x24: true, // global.set
	0x41: true, // i32.const
	0x42: true, // i64.const
}

// twoLeb128ImmediateOps (memarg: align, offset) cover the memory
// load/store family.
var twoLeb128ImmediateOps = map[byte]bool{}

func init() {
	for op := byte(0x28); op <= 0x3e; op++ {
		twoLeb128ImmediateOps[op] = true
	}
}

// oneByteImmediateOps have a single fixed reserved/blocktype byte.
var oneByteImmediateOps = map[byte]bool{
	0x02: true, // block
	0x03: true, // loop
	0x04: true, // if
	0x3f: true, // memory.size
	0x40: true, // memory.grow
}

// fourByteImmediateOps have a 4-byte immediate (f32.const would be one,
// but it is rejected before reaching here; reserved for symmetry).
var fourByteImmediateOps = map[byte]bool{}

// validateOpcodes walks one function body, rejecting any disallowed
// opcode and skipping over the immediate bytes of every opcode it
// recognizes. Opcodes outside this engine's known immediate shapes are
// assumed to carry none, matching the interpreter's own coverage.
func validateOpcodes(body []byte) error {
	i := 0
	// Skip the local-declarations vector preceding the instruction
	// stream: count, then (count, valtype) pairs.
	if len(body) > 0 {
		declCount, n, err := decodeLEB128(body)
		if err != nil {
			return ErrBadSection
		}
		i = n
		for d := uint32(0); d < declCount && i < len(body); d++ {
			_, n3, err := decodeLEB128(body[i:])
			if err != nil {
				return ErrBadSection
			}
			i += n3 + 1 // count + one valtype byte
		}
	}

	for i < len(body) {
		op := body[i]
		i++
		if isDisallowedOpcode(op) {
			return ErrDisallowedOp
		}
		switch {
		case leb128ImmediateOps[op]:
			_, n, err := decodeLEB128(body[min(i, len(body)):])
			if err != nil {
				return nil // malformed trailing immediate; interpreter will trap at runtime
			}
			i += n
		case twoLeb128ImmediateOps[op]:
			_, n, err := decodeLEB128(body[min(i, len(body)):])
			if err != nil {
				return nil
			}
			i += n
			_, n2, err := decodeLEB128(body[min(i, len(body)):])
			if err != nil {
				return nil
			}
			i += n2
		case oneByteImmediateOps[op]:
			i++
		case fourByteImmediateOps[op]:
			i += 4
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
