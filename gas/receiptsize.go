package gas

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// Minimum on-wire sizes (bytes) of a receipt and a command receipt for
// each encoding version, used to compute the transaction inclusion
// cost before any command has actually run (spec §4.1). Ported from
// original_source/src/gas/constants.rs rather than invented: the V1
// format carries every field uniformly (so every command receipt costs
// the same minimum, 17 bytes), while V2 charges less for the common
// case and more only for the commands whose receipt carries the
// extended withdraw/stake/unstake fields.
const (
	minReceiptSizeV1 = 4
	minReceiptSizeV2 = 13

	minCommandReceiptSizeV1         = 17
	minCommandReceiptSizeV2Basic    = 9
	minCommandReceiptSizeV2Extended = 17
)

// MinimumCommandReceiptSize returns the smallest possible encoded size
// of a receipt for a command of the given kind, under the given
// schedule version.
func MinimumCommandReceiptSize(kind types.CommandKind, v Version) int {
	if v == V1 {
		return minCommandReceiptSizeV1
	}
	if kind.HasExtendedReceiptFields() {
		return minCommandReceiptSizeV2Extended
	}
	return minCommandReceiptSizeV2Basic
}

// MinimumReceiptListSize returns the smallest possible encoded size of
// the full receipt list a transaction with the given command kinds
// could produce: the version's base receipt size plus one minimum-sized
// command receipt per command.
func MinimumReceiptListSize(kinds []types.CommandKind, v Version) int {
	total := minReceiptSizeV1
	if v == V2 {
		total = minReceiptSizeV2
	}
	for _, k := range kinds {
		total += MinimumCommandReceiptSize(k, v)
	}
	return total
}
