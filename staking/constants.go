// Package staking implements the Pool/Deposit/Stake data model and the
// nvp/vp/pvp validator-set rotation algorithm (spec §4.7), grounded on
// the teacher's own staking-transaction tests
// (_examples/original_source/src/transactions/execute.rs) for the
// shape of the pool/deposit/stake invariants being enforced, since the
// teacher repo itself (an execution-layer EVM client) has no staking
// concept of its own to imitate directly — the network protocol rules
// come from original_source, the package layout and error-handling
// idiom from the teacher.
package staking

// Protocol-wide limits. The original Rust implementation receives these
// as const generic parameters at the call site (see
// NetworkAccountSized<S, MAX_VALIDATOR_SET_SIZE, MAX_STAKES_PER_POOL> in
// original_source/src/transactions/execute.rs); the concrete values are
// defined in a sibling crate not present in the retrieved source, so the
// values below are a documented implementation choice (open question,
// spec §9) rather than a literal carry-over.
const (
	MaxValidatorSetSize = 64
	MaxStakesPerPool    = 32
)

// Reward schedule for NextEpoch (spec §4.7 step 1). Like the limits
// above, the original protocol's concrete yield and epoch-length
// constants live outside the retrieved source; these are a documented
// choice, not a literal carry-over.
const (
	AnnualYieldPct  = 8
	EpochsPerYear   = 365
)
