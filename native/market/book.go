package market

import (
	"fmt"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/types"
	"passage/native/bank"
)

// ListOptions carries the optional Ask fields.
type ListOptions struct {
	FundsRecipient types.Address
	ReserveFor     types.Address
	AllowList      []types.Address
}

func (e *Engine) loadAsk(tokenID uint64) (*Ask, error) {
	ask := new(Ask)
	ok, err := e.state.KVGet(AskKey(tokenID), ask)
	if err != nil || !ok {
		return nil, err
	}
	return ask, nil
}

// liveAsk returns the active ask of tokenID. An expired ask, or one whose
// seller no longer holds the token, is removed and reported as absent. The
// removal commits only if the surrounding call succeeds.
func (e *Engine) liveAsk(tokenID uint64) (*Ask, error) {
	ask, err := e.loadAsk(tokenID)
	if err != nil || ask == nil {
		return nil, err
	}
	if !ask.IsLive(e.now()) {
		return nil, e.removeAsk(ask, EventTypeAskExpired)
	}
	owner, err := e.nft.OwnerOf(tokenID)
	if err != nil {
		return nil, err
	}
	if owner != ask.Seller {
		return nil, e.removeAsk(ask, EventTypeAskRemoved)
	}
	return ask, nil
}

func (e *Engine) removeAsk(ask *Ask, eventType string) error {
	if err := e.state.KVDelete(AskKey(ask.TokenID)); err != nil {
		return err
	}
	e.emit(events.New(eventType, map[string]string{
		"tokenId": events.FormatUint(ask.TokenID),
		"seller":  ask.Seller.String(),
	}))
	return nil
}

// List creates an ask for tokenID. The seller must hold the token and no live
// ask may exist.
func (e *Engine) List(seller types.Address, tokenID uint64, price types.Coin, expiresAt uint64, opts ListOptions) (*Ask, error) {
	if err := e.mutating(); err != nil {
		return nil, err
	}
	p, err := e.Params()
	if err != nil {
		return nil, err
	}
	owner, err := e.nft.OwnerOf(tokenID)
	if err != nil {
		return nil, err
	}
	if owner != seller {
		return nil, fmt.Errorf("market: list token %d: %w", tokenID, perrors.ErrNotOwner)
	}
	existing, err := e.liveAsk(tokenID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("market: token %d: %w", tokenID, perrors.ErrAlreadyListed)
	}
	if err := p.checkPrice(price); err != nil {
		return nil, err
	}
	now := e.now()
	if err := p.AskExpiry.Check(expiresAt, now); err != nil {
		return nil, err
	}
	ask := &Ask{
		TokenID:        tokenID,
		Seller:         seller,
		Price:          types.Coin{Denom: types.NormalizeDenom(price.Denom), Amount: price.Clone().Amount},
		FundsRecipient: opts.FundsRecipient,
		ReserveFor:     opts.ReserveFor,
		AllowList:      append([]types.Address(nil), opts.AllowList...),
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
	}
	if err := e.state.KVPut(AskKey(tokenID), ask); err != nil {
		return nil, err
	}
	e.emit(events.New(EventTypeAskCreated, map[string]string{
		"tokenId":   events.FormatUint(tokenID),
		"seller":    seller.String(),
		"price":     ask.Price.String(),
		"expiresAt": events.FormatUint(expiresAt),
	}))
	return ask, nil
}

// CancelListing removes the seller's live ask.
func (e *Engine) CancelListing(seller types.Address, tokenID uint64) error {
	if err := e.mutating(); err != nil {
		return err
	}
	ask, err := e.liveAsk(tokenID)
	if err != nil {
		return err
	}
	if ask == nil {
		return fmt.Errorf("market: token %d: %w", tokenID, perrors.ErrNoActiveAsk)
	}
	if ask.Seller != seller {
		return fmt.Errorf("market: token %d: %w", tokenID, perrors.ErrNotSeller)
	}
	return e.removeAsk(ask, EventTypeAskCancelled)
}

func (e *Engine) loadBid(tokenID uint64, bidder types.Address) (*Bid, error) {
	bid := new(Bid)
	ok, err := e.state.KVGet(BidKey(tokenID, bidder), bid)
	if err != nil || !ok {
		return nil, err
	}
	return bid, nil
}

// removeBid refunds the bid's escrow to the bidder and deletes the record.
func (e *Engine) removeBid(bid *Bid, eventType string) error {
	if err := e.refund(bid.Bidder, bid.Price); err != nil {
		return err
	}
	if err := e.deleteBid(bid); err != nil {
		return err
	}
	e.emit(events.New(eventType, map[string]string{
		"tokenId": events.FormatUint(bid.TokenID),
		"bidder":  bid.Bidder.String(),
		"price":   bid.Price.String(),
	}))
	return nil
}

func (e *Engine) deleteBid(bid *Bid) error {
	if err := e.state.KVDelete(BidKey(bid.TokenID, bid.Bidder)); err != nil {
		return err
	}
	return e.state.KVDelete(BidderIndexKey(bid.Bidder, bid.TokenID))
}

// PlaceBid escrows price from the attached funds and records the bid. The
// attached amount of the marketplace denom must equal price.
func (e *Engine) PlaceBid(bidder types.Address, tokenID uint64, price types.Coin, expiresAt uint64, payment *bank.Payment) (*Bid, error) {
	if err := e.mutating(); err != nil {
		return nil, err
	}
	p, err := e.Params()
	if err != nil {
		return nil, err
	}
	if err := p.checkPrice(price); err != nil {
		return nil, err
	}
	if _, err := e.nft.OwnerOf(tokenID); err != nil {
		return nil, err
	}
	if err := e.checkAuctionBid(bidder, tokenID, price); err != nil {
		return nil, err
	}
	existing, err := e.loadBid(tokenID, bidder)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if existing != nil {
		if existing.IsLive(now) {
			return nil, fmt.Errorf("market: token %d bidder %s: %w", tokenID, bidder, perrors.ErrDuplicateBid)
		}
		if err := e.removeBid(existing, EventTypeBidExpired); err != nil {
			return nil, err
		}
	}
	if err := p.BidExpiry.Check(expiresAt, now); err != nil {
		return nil, err
	}
	if attached := payment.Amount(price.Denom); attached.Cmp(price.Amount) != 0 {
		return nil, fmt.Errorf("market: attached %s, bid %s: %w", attached, price, perrors.ErrInsufficientPayment)
	}
	if err := payment.Take(price); err != nil {
		return nil, err
	}
	bid := &Bid{
		TokenID:   tokenID,
		Bidder:    bidder,
		Price:     types.Coin{Denom: types.NormalizeDenom(price.Denom), Amount: price.Clone().Amount},
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := e.lockFunds(bidder, payment.Holder, bid.Price); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(BidKey(tokenID, bidder), bid); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(BidderIndexKey(bidder, tokenID), true); err != nil {
		return nil, err
	}
	e.emit(events.New(EventTypeBidPlaced, map[string]string{
		"tokenId":   events.FormatUint(tokenID),
		"bidder":    bidder.String(),
		"price":     bid.Price.String(),
		"expiresAt": events.FormatUint(expiresAt),
	}))
	return bid, nil
}

// CancelBid refunds and removes the bidder's bid. An expired bid is cleaned up
// the same way and reported as expired.
func (e *Engine) CancelBid(bidder types.Address, tokenID uint64) error {
	if err := e.mutating(); err != nil {
		return err
	}
	bid, err := e.loadBid(tokenID, bidder)
	if err != nil {
		return err
	}
	if bid == nil {
		return fmt.Errorf("market: token %d bidder %s: %w", tokenID, bidder, perrors.ErrNoActiveBid)
	}
	if !bid.IsLive(e.now()) {
		return e.removeBid(bid, EventTypeBidExpired)
	}
	return e.removeBid(bid, EventTypeBidCancelled)
}

// SweepResult counts the records removed by SweepExpired.
type SweepResult struct {
	Asks           int `json:"asks"`
	Bids           int `json:"bids"`
	CollectionBids int `json:"collectionBids"`
}

// SweepExpired refunds every expired bid on tokenID, drops its expired ask and
// refunds expired collection bids. Admin or operator only.
func (e *Engine) SweepExpired(caller types.Address, tokenID uint64) (SweepResult, error) {
	var result SweepResult
	if err := e.ready(); err != nil {
		return result, err
	}
	if err := e.access.RequireOperator(caller); err != nil {
		return result, err
	}
	now := e.now()
	ask, err := e.loadAsk(tokenID)
	if err != nil {
		return result, err
	}
	if ask != nil && !ask.IsLive(now) {
		if err := e.removeAsk(ask, EventTypeAskExpired); err != nil {
			return result, err
		}
		result.Asks++
	}
	bids, err := e.scanBids(tokenID, types.Address{}, 0, false)
	if err != nil {
		return result, err
	}
	for _, bid := range bids {
		if bid.IsLive(now) {
			continue
		}
		if err := e.removeBid(bid, EventTypeBidExpired); err != nil {
			return result, err
		}
		result.Bids++
	}
	cbids, err := e.scanCollectionBids(types.Address{}, 0, false)
	if err != nil {
		return result, err
	}
	for _, cbid := range cbids {
		if cbid.IsLive(now) {
			continue
		}
		if err := e.removeCollectionBid(cbid, EventTypeCollectionBidExpired); err != nil {
			return result, err
		}
		result.CollectionBids++
	}
	return result, nil
}
