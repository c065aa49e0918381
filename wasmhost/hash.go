package wasmhost

import (
	"crypto/sha256"

	"github.com/parallelchain-io/pchain-runtime-sub000/types"
)

func sha256Sum(data []byte) types.Hash32 {
	return sha256.Sum256(data)
}
