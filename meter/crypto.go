package meter

import (
	"crypto/ed25519"
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // ripemd160 is part of the host-function ABI, not a choice of this engine
	"golang.org/x/crypto/sha3"

	"github.com/parallelchain-io/pchain-runtime-sub000/gas"
)

// HashSha256 charges and computes the sha256 digest of msg, exposed to
// contracts via the `sha256` host function (spec §4.1, §4.6).
func (m *GasMeter) HashSha256(msg []byte) ([32]byte, ChargeResult) {
	if m.Charge(gas.HashCost(len(msg))) == ChargeExhausted {
		return [32]byte{}, ChargeExhausted
	}
	return sha256.Sum256(msg), ChargeOk
}

// HashKeccak charges and computes the keccak256 digest of msg for the
// `keccak256` host function. Contract address derivation does not use
// it: that is sha256(signer || nonce_le) (spec §6).
func (m *GasMeter) HashKeccak(msg []byte) ([32]byte, ChargeResult) {
	if m.Charge(gas.HashCost(len(msg))) == ChargeExhausted {
		return [32]byte{}, ChargeExhausted
	}
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(msg)
	h.Sum(out[:0])
	return out, ChargeOk
}

// HashRipemd charges and computes the ripemd160 digest of msg.
func (m *GasMeter) HashRipemd(msg []byte) ([20]byte, ChargeResult) {
	if m.Charge(gas.HashCost(len(msg))) == ChargeExhausted {
		return [20]byte{}, ChargeExhausted
	}
	var out [20]byte
	h := ripemd160.New()
	h.Write(msg)
	h.Sum(out[:0])
	return out, ChargeOk
}

// VerifyEd25519 charges and verifies an ed25519 signature over msg.
// No ecosystem ed25519 implementation appears anywhere in the
// retrieved example pack, so this uses the standard library's
// crypto/ed25519 (see DESIGN.md).
func (m *GasMeter) VerifyEd25519(pubKey, msg, sig []byte) (bool, ChargeResult) {
	if m.Charge(gas.Ed25519VerifyCost(len(msg))) == ChargeExhausted {
		return false, ChargeExhausted
	}
	if len(pubKey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false, ChargeOk
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), msg, sig), ChargeOk
}
