package exec

import (
	"github.com/parallelchain-io/pchain-runtime-sub000/meter"
	"github.com/parallelchain-io/pchain-runtime-sub000/staking"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

// meteredStakingStorage adapts a GasMeter into staking.Storage, scoped
// to NetworkAddress's own contract-storage keyspace so every staking
// command pays storage gas exactly like a WASM contract's get/set
// would. Charge failures are swallowed into the zero value on read and
// silently dropped on write; the executor that drove the command
// already observed ok=false from the underlying meter call and aborts
// the command before any caller can rely on the result.
type meteredStakingStorage struct {
	meter   *meter.GasMeter
	ok      bool
}

func newMeteredStakingStorage(m *meter.GasMeter) *meteredStakingStorage {
	return &meteredStakingStorage{meter: m, ok: true}
}

// NewStakingStorage exposes the metered NetworkAddress-scoped staking
// storage adapter to the pipeline package, which drives the NextEpoch
// rotation (spec §4.7) directly rather than through Dispatch.
func NewStakingStorage(m *meter.GasMeter) staking.Storage {
	return newMeteredStakingStorage(m)
}

func (s *meteredStakingStorage) Get(key []byte) ([]byte, bool) {
	v, found, ok := GetContractStorage(s.meter, types.NetworkAddress, key)
	if !ok {
		s.ok = false
		return nil, false
	}
	return v, found
}

func (s *meteredStakingStorage) Set(key, value []byte) {
	if !SetContractStorage(s.meter, types.NetworkAddress, key, value) {
		s.ok = false
	}
}

// Ok reports whether every Get/Set since construction succeeded
// without exhausting the meter's gas budget.
func (s *meteredStakingStorage) Ok() bool { return s.ok }
