package minter

import "passage/core/types"

var (
	memberPrefix = []byte("minter/member/")
	mintedPrefix = []byte("minter/minted/")
)

const memberCounter = "minter/members"

// MemberKey is minter/member/<addr>.
func MemberKey(addr types.Address) []byte {
	return append(append([]byte(nil), memberPrefix...), addr[:]...)
}

// MintedKey is minter/minted/<addr>, the number of tokens addr minted.
func MintedKey(addr types.Address) []byte {
	return append(append([]byte(nil), mintedPrefix...), addr[:]...)
}
