package market

import (
	"encoding/binary"

	"passage/core/types"
)

var (
	askPrefix           = []byte("market/ask/")
	bidPrefix           = []byte("market/bid/")
	bidderIndexPrefix   = []byte("market/bidder/")
	collectionBidPrefix = []byte("market/cbid/")
	escrowPrefix        = []byte("market/escrow/")
	auctionPrefix       = []byte("market/auction/")
)

func appendID(buf []byte, id uint64) []byte { return binary.BigEndian.AppendUint64(buf, id) }

// AskKey is market/ask/<token>.
func AskKey(tokenID uint64) []byte {
	return appendID(append([]byte(nil), askPrefix...), tokenID)
}

func tokenBidPrefix(tokenID uint64) []byte {
	return append(appendID(append([]byte(nil), bidPrefix...), tokenID), '/')
}

// BidKey is market/bid/<token>/<bidder>.
func BidKey(tokenID uint64, bidder types.Address) []byte {
	return append(tokenBidPrefix(tokenID), bidder[:]...)
}

func bidderPrefix(bidder types.Address) []byte {
	return append(append(append([]byte(nil), bidderIndexPrefix...), bidder[:]...), '/')
}

// BidderIndexKey is market/bidder/<bidder>/<token>.
func BidderIndexKey(bidder types.Address, tokenID uint64) []byte {
	return appendID(bidderPrefix(bidder), tokenID)
}

// CollectionBidKey is market/cbid/<bidder>.
func CollectionBidKey(bidder types.Address) []byte {
	return append(append([]byte(nil), collectionBidPrefix...), bidder[:]...)
}

// EscrowKey is market/escrow/<bidder>.
func EscrowKey(bidder types.Address) []byte {
	return append(append([]byte(nil), escrowPrefix...), bidder[:]...)
}

// AuctionKey is market/auction/<token>.
func AuctionKey(tokenID uint64) []byte {
	return appendID(append([]byte(nil), auctionPrefix...), tokenID)
}
