package state

import "github.com/parallelchain-io/pchain-runtime-sub000/types"

// Logical key-space discriminants. Every WorldStateCache entry the spec
// enumerates (Balance, Nonce, ContractCode, CbiVersion, Storage) is
// flattened to a single byte-string key by prefixing a one-byte kind
// discriminant ahead of the address, so that two different logical
// spaces for the same address never collide inside the flat MPTHandle
// keyspace (spec §3 "WorldStateCache entries").
const (
	keyKindBalance byte = iota
	keyKindNonce
	keyKindContractCode
	keyKindCbiVersion
	keyKindStorage
)

// BalanceKey returns the logical key for addr's balance.
func BalanceKey(addr types.Address) []byte {
	return append([]byte{keyKindBalance}, addr.Bytes()...)
}

// NonceKey returns the logical key for addr's nonce.
func NonceKey(addr types.Address) []byte {
	return append([]byte{keyKindNonce}, addr.Bytes()...)
}

// ContractCodeKey returns the logical key for addr's deployed bytecode.
func ContractCodeKey(addr types.Address) []byte {
	return append([]byte{keyKindContractCode}, addr.Bytes()...)
}

// CbiVersionKey returns the logical key for addr's CBI version.
func CbiVersionKey(addr types.Address) []byte {
	return append([]byte{keyKindCbiVersion}, addr.Bytes()...)
}

// StorageKey returns the logical key for one entry of addr's own
// contract storage mapping, keyed by the contract-supplied appKey.
func StorageKey(addr types.Address, appKey []byte) []byte {
	k := make([]byte, 0, 1+types.AddressLength+len(appKey))
	k = append(k, keyKindStorage)
	k = append(k, addr.Bytes()...)
	k = append(k, appKey...)
	return k
}
