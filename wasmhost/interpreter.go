package wasmhost

import (
	"encoding/binary"
	"errors"

	"github.com/parallelchain-io/pchain-runtime-sub000/gas"
)

// Interpreter errors surfaced up to exec as RuntimeError/GasExhausted
// per the taxonomy in spec §7.
var (
	ErrStackUnderflow = errors.New("wasmhost: stack underflow")
	ErrMemoryOOB      = errors.New("wasmhost: memory access out of bounds")
	ErrNoFunction     = errors.New("wasmhost: function not found")
	ErrCallDepth      = errors.New("wasmhost: call depth exceeded")
	ErrGasExhausted   = errors.New("wasmhost: gas exhausted")
	ErrUnreachable    = errors.New("wasmhost: unreachable instruction executed")
)

const (
	maxCallDepth = 64
	pageSize     = 65536
)

// frame is one function activation: a cursor into its body plus its
// local variable slots, mirroring the teacher's engineFrame.
type frame struct {
	pc     int
	body   []byte
	locals []uint64
}

// execState carries one function-call tree's interpreter state. A
// fresh execState is created per top-level contract invocation; the
// host-function `call` path instantiates a nested Module/execState for
// the callee (spec §4.6 cross-contract call semantics).
type execState struct {
	module *Module
	host   HostContext

	stack   []uint64
	memory  []byte
	frames  []*frame
	trapped error
}

func newExecState(m *Module, host HostContext, input []byte) *execState {
	s := &execState{
		module: m,
		host:   host,
		memory: make([]byte, pageSize),
	}
	n := len(input)
	if n > pageSize {
		n = pageSize
	}
	copy(s.memory, input[:n])
	return s
}

func (s *execState) push(v uint64) { s.stack = append(s.stack, v) }
func (s *execState) pop() (uint64, error) {
	if len(s.stack) == 0 {
		return 0, ErrStackUnderflow
	}
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v, nil
}

// Run executes the export named method with args copied into linear
// memory starting at offset 0, charging every opcode through
// host.ChargeWasmGas, and returns the contract's declared return value.
func Run(m *Module, host HostContext, method string, args []byte) ([]byte, error) {
	idx, ok := m.Exports[method]
	if !ok {
		return nil, ErrExportNotFound
	}
	s := newExecState(m, host, args)
	if err := s.call(idx); err != nil {
		return nil, err
	}
	if len(s.stack) > 0 {
		out := make([]byte, 8)
		binary.LittleEndian.PutUint64(out, s.stack[len(s.stack)-1])
		return out, nil
	}
	return nil, nil
}

func (s *execState) call(idx int) error {
	isImport, body, importIdx := s.module.FuncIndex(idx)
	if isImport {
		return s.callHost(importIdx)
	}
	if body == nil {
		return ErrNoFunction
	}
	if len(s.frames) >= maxCallDepth {
		return ErrCallDepth
	}

	locals, pc, err := decodeLocals(body)
	if err != nil {
		return err
	}
	s.frames = append(s.frames, &frame{pc: pc, body: body, locals: locals})
	err = s.exec()
	s.frames = s.frames[:len(s.frames)-1]
	return err
}

func decodeLocals(body []byte) ([]uint64, int, error) {
	if len(body) == 0 {
		return nil, 0, nil
	}
	declCount, n, err := decodeLEB128(body)
	if err != nil {
		return nil, 0, ErrBadSection
	}
	offset := n
	var total uint32
	for d := uint32(0); d < declCount && offset < len(body); d++ {
		c, n2, err := decodeLEB128(body[offset:])
		if err != nil {
			return nil, 0, ErrBadSection
		}
		offset += n2 + 1 // count + valtype byte
		total += c
	}
	return make([]uint64, total), offset, nil
}

func (s *execState) exec() error {
	f := s.frames[len(s.frames)-1]
	for f.pc < len(f.body) {
		if s.trapped != nil {
			return s.trapped
		}
		op := f.body[f.pc]
		f.pc++
		if !s.host.ChargeWasmGas(gas.OpcodeCost(gas.Opcode(op))) {
			return ErrGasExhausted
		}
		done, err := s.dispatch(op, f)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}

// dispatch executes one instruction. It returns done=true when the
// function should return: an explicit `return`, or any `end` reached
// while only the entry frame is on the call stack. Block nesting is not
// tracked, so in the entry frame the first `end` returns even if it
// closes an inner block; in a callee frame `end` does not return and
// the callee runs until the end of its body.
func (s *execState) dispatch(op byte, f *frame) (done bool, err error) {
	switch op {
	case 0x00: // unreachable
		return false, ErrUnreachable
	case 0x01: // nop
		return false, nil
	case 0x0b: // end
		return len(s.frames) == 1, nil
	case 0x0f: // return
		return true, nil
	case 0x10: // call
		idx, n, err := decodeLEB128(f.body[f.pc:])
		if err != nil {
			return false, ErrBadSection
		}
		f.pc += n
		return false, s.call(int(idx))
	case 0x1a: // drop
		_, err := s.pop()
		return false, err
	case 0x20: // local.get
		idx, n, err := decodeLEB128(f.body[f.pc:])
		if err != nil {
			return false, ErrBadSection
		}
		f.pc += n
		if int(idx) >= len(f.locals) {
			return false, ErrMemoryOOB
		}
		s.push(f.locals[idx])
		return false, nil
	case 0x21: // local.set
		idx, n, err := decodeLEB128(f.body[f.pc:])
		if err != nil {
			return false, ErrBadSection
		}
		f.pc += n
		v, err := s.pop()
		if err != nil {
			return false, err
		}
		if int(idx) >= len(f.locals) {
			return false, ErrMemoryOOB
		}
		f.locals[idx] = v
		return false, nil
	case 0x41, 0x42: // i32.const, i64.const
		v, n, err := decodeLEB128(f.body[f.pc:])
		if err != nil {
			return false, ErrBadSection
		}
		f.pc += n
		s.push(uint64(v))
		return false, nil
	case 0x6a, 0x7c: // i32.add, i64.add
		return false, s.binop(func(a, b uint64) uint64 { return a + b })
	case 0x6b, 0x7d: // i32.sub, i64.sub
		return false, s.binop(func(a, b uint64) uint64 { return a - b })
	case 0x6c, 0x7e: // i32.mul, i64.mul
		return false, s.binop(func(a, b uint64) uint64 { return a * b })
	case 0x6d, 0x6e, 0x7f, 0x80: // div variants
		return false, s.binopErr(func(a, b uint64) (uint64, error) {
			if b == 0 {
				return 0, ErrUnreachable
			}
			return a / b, nil
		})
	case 0x71, 0x73: // and, xor (i32)
		if op == 0x71 {
			return false, s.binop(func(a, b uint64) uint64 { return a & b })
		}
		return false, s.binop(func(a, b uint64) uint64 { return a ^ b })
	case 0x72: // or
		return false, s.binop(func(a, b uint64) uint64 { return a | b })
	default:
		// Opcodes this interpreter does not model beyond their gas
		// charge are treated as no-ops on the value stack, consistent
		// with the reduced instruction coverage the teacher's own
		// engine ships. validateOpcodes already proved op carries one of
		// these immediate shapes (or none); the same shape must be
		// skipped here too, or the immediate bytes get misread as the
		// next opcode.
		switch {
		case leb128ImmediateOps[op]:
			_, n, err := decodeLEB128(f.body[min(f.pc, len(f.body)):])
			if err != nil {
				return false, ErrBadSection
			}
			f.pc += n
		case twoLeb128ImmediateOps[op]:
			_, n, err := decodeLEB128(f.body[min(f.pc, len(f.body)):])
			if err != nil {
				return false, ErrBadSection
			}
			f.pc += n
			_, n2, err := decodeLEB128(f.body[min(f.pc, len(f.body)):])
			if err != nil {
				return false, ErrBadSection
			}
			f.pc += n2
		case oneByteImmediateOps[op]:
			f.pc++
		case fourByteImmediateOps[op]:
			f.pc += 4
		}
		return false, nil
	}
}

func (s *execState) binop(fn func(a, b uint64) uint64) error {
	b, err := s.pop()
	if err != nil {
		return err
	}
	a, err := s.pop()
	if err != nil {
		return err
	}
	s.push(fn(a, b))
	return nil
}

func (s *execState) binopErr(fn func(a, b uint64) (uint64, error)) error {
	b, err := s.pop()
	if err != nil {
		return err
	}
	a, err := s.pop()
	if err != nil {
		return err
	}
	v, err := fn(a, b)
	if err != nil {
		return err
	}
	s.push(v)
	return nil
}
