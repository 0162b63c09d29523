package nft

import (
	"encoding/binary"

	"passage/core/types"
)

var (
	tokenPrefix   = []byte("nft/token/")
	ownerPrefix   = []byte("nft/owner/")
	supplyKey     = []byte("nft/supply")
	collectionKey = []byte("nft/collection")
)

// TokenKey is nft/token/<id:8 bytes big endian>.
func TokenKey(id uint64) []byte {
	buf := make([]byte, 0, len(tokenPrefix)+8)
	buf = append(buf, tokenPrefix...)
	return binary.BigEndian.AppendUint64(buf, id)
}

func ownerIndexPrefix(owner types.Address) []byte {
	buf := make([]byte, 0, len(ownerPrefix)+len(owner)+1)
	buf = append(buf, ownerPrefix...)
	buf = append(buf, owner[:]...)
	return append(buf, '/')
}

// OwnerIndexKey is nft/owner/<owner>/<id>.
func OwnerIndexKey(owner types.Address, id uint64) []byte {
	return binary.BigEndian.AppendUint64(ownerIndexPrefix(owner), id)
}
