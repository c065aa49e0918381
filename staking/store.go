package staking

import (
	"github.com/parallelchain-io/pchain-runtime-sub000/codec"
	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

// Storage is the narrow key-value surface StakingEngine needs against
// NetworkAddress's storage mapping (spec §6 "NetworkAddress storage
// layout"). Callers satisfy it with a meter.GasMeter adapter in both
// uses: ordinary staking commands run it over the transaction's meter
// and pay storage gas like any other command; the NextEpoch rotation
// runs it over a meter with an unbounded limit, so the rotation is never
// cut short for gas (spec §4.4 "Gas is not metered the same way").
type Storage interface {
	Get(key []byte) ([]byte, bool)
	Set(key []byte, value []byte)
}

// Sub-keyspace discriminants within NetworkAddress storage (spec §6).
const (
	subPool byte = iota
	subDeposit
	subNVP
	subVP
	subPVP
	subEpoch
)

func poolKey(operator types.Address) []byte {
	return append([]byte{subPool}, operator.Bytes()...)
}

func depositKey(k DepositKey) []byte {
	out := make([]byte, 0, 1+2*types.AddressLength)
	out = append(out, subDeposit)
	out = append(out, k.Operator.Bytes()...)
	out = append(out, k.Owner.Bytes()...)
	return out
}

func nvpKey() []byte  { return []byte{subNVP} }
func vpKey() []byte   { return []byte{subVP} }
func pvpKey() []byte  { return []byte{subPVP} }
func epochKey() []byte { return []byte{subEpoch} }

// Store reads and writes the staking data model through a Storage,
// encoding/decoding with the engine's own codec package rather than a
// bespoke format (spec §6).
type Store struct {
	s Storage
}

func NewStore(s Storage) *Store { return &Store{s: s} }

// GetPool returns the pool registered to operator, or ok=false if none
// exists.
func (st *Store) GetPool(operator types.Address) (*Pool, bool) {
	buf, ok := st.s.Get(poolKey(operator))
	if !ok {
		return nil, false
	}
	p, err := decodePool(buf)
	if err != nil {
		return nil, false
	}
	return p, true
}

// PutPool persists p under its own operator key.
func (st *Store) PutPool(p *Pool) {
	st.s.Set(poolKey(p.Operator), encodePool(p))
}

// DeletePool removes operator's pool object (spec §4.5 DeletePool: the
// pool object is deleted but stakes/deposits referencing it are not
// cascaded).
func (st *Store) DeletePool(operator types.Address) {
	st.s.Set(poolKey(operator), nil)
}

// GetDeposit returns the deposit at k, or ok=false if none exists.
func (st *Store) GetDeposit(k DepositKey) (*Deposit, bool) {
	buf, ok := st.s.Get(depositKey(k))
	if !ok {
		return nil, false
	}
	d, err := decodeDeposit(buf)
	if err != nil {
		return nil, false
	}
	d.Operator = k.Operator
	d.Owner = k.Owner
	return d, true
}

// PutDeposit persists d, or deletes it if its balance has reached zero
// (spec §3 Deposit invariant: a zero-balance deposit must not exist).
func (st *Store) PutDeposit(d *Deposit) {
	if d.Balance == 0 {
		st.DeleteDeposit(DepositKey{Operator: d.Operator, Owner: d.Owner})
		return
	}
	st.s.Set(depositKey(DepositKey{Operator: d.Operator, Owner: d.Owner}), encodeDeposit(d))
}

// DeleteDeposit removes the deposit at k.
func (st *Store) DeleteDeposit(k DepositKey) {
	st.s.Set(depositKey(k), nil)
}

// LoadNVP returns the current next-validator-pool set, creating an
// empty one if none has been persisted yet.
func (st *Store) LoadNVP() *ValidatorSet {
	buf, ok := st.s.Get(nvpKey())
	vs := NewValidatorSet(MaxValidatorSetSize)
	if !ok {
		return vs
	}
	entries, err := decodePoolPowers(buf)
	if err != nil {
		return vs
	}
	for _, e := range entries {
		vs.Insert(e.Operator, e.Power)
	}
	return vs
}

// SaveNVP persists vs in its entirety. nvp is small (capped at
// MaxValidatorSetSize) so a whole-set rewrite on every change is cheap
// and keeps the on-disk representation always-consistent, avoiding a
// partial-update journal of its own.
func (st *Store) SaveNVP(vs *ValidatorSet) {
	st.s.Set(nvpKey(), encodePoolPowers(vs.Entries()))
}

// LoadVP returns the current committee snapshot.
func (st *Store) LoadVP() Snapshot {
	return st.loadSnapshot(vpKey())
}

// SaveVP persists the current committee snapshot.
func (st *Store) SaveVP(s Snapshot) { st.s.Set(vpKey(), encodePoolPowers([]PoolPower(s))) }

// LoadPVP returns the previous-epoch committee snapshot.
func (st *Store) LoadPVP() Snapshot {
	return st.loadSnapshot(pvpKey())
}

// SavePVP persists the previous-epoch committee snapshot.
func (st *Store) SavePVP(s Snapshot) { st.s.Set(pvpKey(), encodePoolPowers([]PoolPower(s))) }

func (st *Store) loadSnapshot(key []byte) Snapshot {
	buf, ok := st.s.Get(key)
	if !ok {
		return nil
	}
	entries, err := decodePoolPowers(buf)
	if err != nil {
		return nil
	}
	return Snapshot(entries)
}

// CurrentEpoch returns the epoch counter stored under NetworkAddress,
// defaulting to 0 before the first NextEpoch.
func (st *Store) CurrentEpoch() uint64 {
	buf, ok := st.s.Get(epochKey())
	if !ok || len(buf) != 8 {
		return 0
	}
	r := codec.NewReader(buf)
	v, err := r.Uint64()
	if err != nil {
		return 0
	}
	return v
}

// SetEpoch persists the epoch counter.
func (st *Store) SetEpoch(epoch uint64) {
	w := codec.NewWriter()
	w.PutUint64(epoch)
	st.s.Set(epochKey(), w.Bytes())
}

// --- encoding ---

func encodePool(p *Pool) []byte {
	w := codec.NewWriter()
	codec.PutAddress(w, p.Operator)
	w.PutUint8(p.CommissionRate)
	w.PutUint64(p.Power)
	w.PutBool(p.OperatorStake != nil)
	if p.OperatorStake != nil {
		w.PutUint64(p.OperatorStake.Power)
	}
	w.PutUint32(uint32(len(p.DelegatedStakes)))
	for _, s := range p.DelegatedStakes {
		codec.PutAddress(w, s.Owner)
		w.PutUint64(s.Power)
	}
	return w.Bytes()
}

func decodePool(buf []byte) (*Pool, error) {
	r := codec.NewReader(buf)
	operator, err := codec.GetAddress(r)
	if err != nil {
		return nil, err
	}
	rate, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	power, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	hasOperatorStake, err := r.Bool()
	if err != nil {
		return nil, err
	}
	p := &Pool{Operator: operator, CommissionRate: rate, Power: power}
	if hasOperatorStake {
		opPower, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		p.OperatorStake = &Stake{Owner: operator, Power: opPower}
	}
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		owner, err := codec.GetAddress(r)
		if err != nil {
			return nil, err
		}
		sp, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		p.DelegatedStakes = append(p.DelegatedStakes, Stake{Owner: owner, Power: sp})
	}
	return p, nil
}

func encodeDeposit(d *Deposit) []byte {
	w := codec.NewWriter()
	w.PutUint64(d.Balance)
	w.PutBool(d.AutoStakeRewards)
	return w.Bytes()
}

func decodeDeposit(buf []byte) (*Deposit, error) {
	r := codec.NewReader(buf)
	balance, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	autoStake, err := r.Bool()
	if err != nil {
		return nil, err
	}
	return &Deposit{Balance: balance, AutoStakeRewards: autoStake}, nil
}

func encodePoolPowers(entries []PoolPower) []byte {
	w := codec.NewWriter()
	w.PutUint32(uint32(len(entries)))
	for _, e := range entries {
		codec.PutAddress(w, e.Operator)
		w.PutUint64(e.Power)
	}
	return w.Bytes()
}

func decodePoolPowers(buf []byte) ([]PoolPower, error) {
	r := codec.NewReader(buf)
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	out := make([]PoolPower, 0, n)
	for i := uint32(0); i < n; i++ {
		addr, err := codec.GetAddress(r)
		if err != nil {
			return nil, err
		}
		power, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		out = append(out, PoolPower{Operator: addr, Power: power})
	}
	return out, nil
}
