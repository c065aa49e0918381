package types

// Transaction is the input to one call of Transition. Hash and Signature
// are opaque identifiers; the engine never verifies them (spec §1, §3 —
// signature verification is an external collaborator's responsibility).
type Transaction struct {
	Signer            Address
	Nonce             uint64
	Hash              Hash32
	Signature         Signature64
	GasLimit          uint64
	MaxBaseFeePerGas   uint64
	PriorityFeePerGas  uint64
	Commands          []Command
}

// BlockParameters carries the per-block context the engine needs but does
// not itself produce (spec §3).
type BlockParameters struct {
	Height              uint64
	PrevBlockHash       Hash32
	BaseFeePerGas       uint64
	Timestamp           uint64
	RandomBytes         []byte
	ProposerAddress     Address
	TreasuryAddress     Address
	ViewNumber          uint64
	ValidatorPerformance *ValidatorPerformance
}

// ValidatorPerformance reports how many blocks each validator proposed in
// the epoch now ending, used by the staking reward formula (spec §4.7).
type ValidatorPerformance struct {
	BlocksPerEpoch uint32
	Stats          map[Address]uint32 // blocks proposed
}
