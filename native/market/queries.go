package market

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"

	"passage/core/types"
)

// Ask returns the live ask of tokenID, or nil. Queries never write, so a stale
// or expired ask is filtered rather than removed.
func (e *Engine) Ask(tokenID uint64) (*Ask, error) {
	if e.state == nil {
		return nil, errNilState
	}
	ask, err := e.loadAsk(tokenID)
	if err != nil || ask == nil {
		return nil, err
	}
	if !ask.IsLive(e.now()) {
		return nil, nil
	}
	if e.nft != nil {
		owner, err := e.nft.OwnerOf(tokenID)
		if err != nil {
			return nil, err
		}
		if owner != ask.Seller {
			return nil, nil
		}
	}
	return ask, nil
}

// Asks lists live asks in token order starting after startAfter.
func (e *Engine) Asks(startAfter uint64, limit uint32) ([]*Ask, error) {
	if e.state == nil {
		return nil, errNilState
	}
	pageSize := types.PageLimit(limit)
	var ids []uint64
	err := e.state.KVIterate(askPrefix, func(key, _ []byte) (bool, error) {
		if id := binary.BigEndian.Uint64(key[len(askPrefix):]); id > startAfter {
			ids = append(ids, id)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Ask, 0, pageSize)
	for _, id := range ids {
		ask, err := e.Ask(id)
		if err != nil {
			return nil, err
		}
		if ask == nil {
			continue
		}
		out = append(out, ask)
		if len(out) == pageSize {
			break
		}
	}
	return out, nil
}

// Bid returns the live bid of bidder on tokenID, or nil.
func (e *Engine) Bid(tokenID uint64, bidder types.Address) (*Bid, error) {
	if e.state == nil {
		return nil, errNilState
	}
	bid, err := e.loadBid(tokenID, bidder)
	if err != nil || bid == nil || !bid.IsLive(e.now()) {
		return nil, err
	}
	return bid, nil
}

// Bids lists live bids on tokenID in bidder order starting after startAfter.
func (e *Engine) Bids(tokenID uint64, startAfter types.Address, limit uint32) ([]*Bid, error) {
	if e.state == nil {
		return nil, errNilState
	}
	return e.scanBids(tokenID, startAfter, types.PageLimit(limit), true)
}

// scanBids walks the bids on tokenID. A zero limit returns every match.
func (e *Engine) scanBids(tokenID uint64, startAfter types.Address, limit int, liveOnly bool) ([]*Bid, error) {
	prefix := tokenBidPrefix(tokenID)
	now := e.now()
	var out []*Bid
	err := e.state.KVIterate(prefix, func(key, value []byte) (bool, error) {
		if !startAfter.IsZero() && bytes.Compare(key[len(prefix):], startAfter[:]) <= 0 {
			return true, nil
		}
		bid := new(Bid)
		if err := rlp.DecodeBytes(value, bid); err != nil {
			return false, err
		}
		if liveOnly && !bid.IsLive(now) {
			return true, nil
		}
		out = append(out, bid)
		return limit == 0 || len(out) < limit, nil
	})
	return out, err
}

// BidsByBidder lists the live bids of bidder in token order starting after
// startAfter.
func (e *Engine) BidsByBidder(bidder types.Address, startAfter uint64, limit uint32) ([]*Bid, error) {
	if e.state == nil {
		return nil, errNilState
	}
	pageSize := types.PageLimit(limit)
	prefix := bidderPrefix(bidder)
	var ids []uint64
	err := e.state.KVIterate(prefix, func(key, _ []byte) (bool, error) {
		if id := binary.BigEndian.Uint64(key[len(prefix):]); id > startAfter {
			ids = append(ids, id)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Bid, 0, pageSize)
	for _, id := range ids {
		bid, err := e.Bid(id, bidder)
		if err != nil {
			return nil, err
		}
		if bid == nil {
			continue
		}
		out = append(out, bid)
		if len(out) == pageSize {
			break
		}
	}
	return out, nil
}

// CollectionBid returns the live collection bid of bidder, or nil.
func (e *Engine) CollectionBid(bidder types.Address) (*CollectionBid, error) {
	if e.state == nil {
		return nil, errNilState
	}
	cbid, err := e.loadCollectionBid(bidder)
	if err != nil || cbid == nil || !cbid.IsLive(e.now()) {
		return nil, err
	}
	return cbid, nil
}

// CollectionBids lists live collection bids in bidder order.
func (e *Engine) CollectionBids(startAfter types.Address, limit uint32) ([]*CollectionBid, error) {
	if e.state == nil {
		return nil, errNilState
	}
	return e.scanCollectionBids(startAfter, types.PageLimit(limit), true)
}

func (e *Engine) scanCollectionBids(startAfter types.Address, limit int, liveOnly bool) ([]*CollectionBid, error) {
	now := e.now()
	var out []*CollectionBid
	err := e.state.KVIterate(collectionBidPrefix, func(key, value []byte) (bool, error) {
		if !startAfter.IsZero() && bytes.Compare(key[len(collectionBidPrefix):], startAfter[:]) <= 0 {
			return true, nil
		}
		cbid := new(CollectionBid)
		if err := rlp.DecodeBytes(value, cbid); err != nil {
			return false, err
		}
		if liveOnly && !cbid.IsLive(now) {
			return true, nil
		}
		out = append(out, cbid)
		return limit == 0 || len(out) < limit, nil
	})
	return out, err
}
