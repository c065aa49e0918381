package gas

import "testing"

func TestOpcodeCostTable(t *testing.T) {
	cases := []struct {
		name string
		op   Opcode
		want uint64
	}{
		{"i32.const", opI32Const, 0},
		{"i64.const", opI64Const, 0},
		{"drop", opDrop, 2},
		{"select", opSelect, 3},
		{"br_if", opBrIf, 3},
		{"call", opCall, 2},
		{"local.get", opLocalGet, 3},
		{"global.set", opGlobalSet, 3},
		{"i32.load", 0x28, 3},
		{"i64.store", 0x37, 3},
		{"i32.clz", opI32Clz, 105},
		{"i64.clz", opI64Clz, 105},
		// ctz is not priced specially, unlike clz: it falls to the
		// default cost of 1.
		{"i32.ctz", 0x68, 1},
		{"i64.ctz", 0x7a, 1},
		{"i32.div_s", opI32DivS, 80},
		{"i64.rem_u", opI64RemU, 80},
		{"i32.mul", opI32Mul, 3},
		{"i64.mul", opI64Mul, 3},
		{"i32.shl", opI32Shl, 2},
		{"i64.rotr", opI64Rotr, 2},
		{"i32.add", opI32Add, 1},
		{"i64.sub", opI64Sub, 1},
		{"i32.wrap_i64", opI32WrapI64, 3},
		{"unrecognized falls through", 0x99, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := OpcodeCost(c.op); got != c.want {
				t.Fatalf("OpcodeCost(%#x) = %d, want %d", c.op, got, c.want)
			}
		})
	}
}
