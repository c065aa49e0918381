package types

import (
	"math"

	"github.com/holiman/uint256"
)

// SaturatingAdd returns a+b, clamped to math.MaxUint64 on overflow
// rather than wrapping (spec §4.5 "credit recipient with saturating
// add"). Two uint64 operands can never overflow uint256.Int's 256-bit
// range, so AddOverflow never reports one; the sum is instead compared
// against the 64-bit bound directly, the same way SafeAdd does.
func SaturatingAdd(a, b uint64) uint64 {
	x, y := uint256.NewInt(a), uint256.NewInt(b)
	var sum uint256.Int
	sum.AddOverflow(x, y)
	if sum.Gt(uint256.NewInt(math.MaxUint64)) {
		return math.MaxUint64
	}
	return sum.Uint64()
}

// CheckedSub returns a-b and ok=true, or ok=false if b > a (an
// underflow the protocol must reject rather than wrap around, e.g.
// debiting a balance once it has already been validated as sufficient).
func CheckedSub(a, b uint64) (uint64, bool) {
	x, y := uint256.NewInt(a), uint256.NewInt(b)
	var diff uint256.Int
	if diff.SubOverflow(x, y) {
		return 0, false
	}
	return diff.Uint64(), true
}
