package crypto

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ModuleDigest is the keccak256 digest used to derive module account addresses.
func ModuleDigest(name string) common.Hash {
	return crypto.Keccak256Hash([]byte("module/"), []byte(name))
}

// Keccak256Hash hashes the concatenation of data.
func Keccak256Hash(data ...[]byte) common.Hash {
	return crypto.Keccak256Hash(data...)
}
