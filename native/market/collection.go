package market

import (
	"fmt"
	"math/big"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/types"
	"passage/native/bank"
)

func (e *Engine) loadCollectionBid(bidder types.Address) (*CollectionBid, error) {
	cbid := new(CollectionBid)
	ok, err := e.state.KVGet(CollectionBidKey(bidder), cbid)
	if err != nil || !ok {
		return nil, err
	}
	return cbid, nil
}

func (e *Engine) removeCollectionBid(cbid *CollectionBid, eventType string) error {
	refund := types.Coin{Denom: cbid.Price.Denom, Amount: cbid.Escrowed()}
	if err := e.refund(cbid.Bidder, refund); err != nil {
		return err
	}
	if err := e.state.KVDelete(CollectionBidKey(cbid.Bidder)); err != nil {
		return err
	}
	e.emit(events.New(eventType, map[string]string{
		"bidder": cbid.Bidder.String(),
		"units":  events.FormatUint(uint64(cbid.Units)),
		"price":  cbid.Price.String(),
	}))
	return nil
}

// PlaceCollectionBid escrows units*price and offers price for any token of
// the collection. A previous collection bid of the bidder is refunded and
// replaced.
func (e *Engine) PlaceCollectionBid(bidder types.Address, units uint32, price types.Coin, expiresAt uint64, payment *bank.Payment) (*CollectionBid, error) {
	if err := e.mutating(); err != nil {
		return nil, err
	}
	if units == 0 {
		return nil, fmt.Errorf("market: collection bid units: %w", perrors.ErrZeroAmount)
	}
	p, err := e.Params()
	if err != nil {
		return nil, err
	}
	if err := p.checkPrice(price); err != nil {
		return nil, err
	}
	now := e.now()
	if err := p.BidExpiry.Check(expiresAt, now); err != nil {
		return nil, err
	}
	cbid := &CollectionBid{
		Bidder:    bidder,
		Units:     units,
		Price:     types.Coin{Denom: types.NormalizeDenom(price.Denom), Amount: price.Clone().Amount},
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	total := types.Coin{Denom: cbid.Price.Denom, Amount: cbid.Escrowed()}
	if attached := payment.Amount(total.Denom); attached.Cmp(total.Amount) != 0 {
		return nil, fmt.Errorf("market: attached %s, collection bid needs %s: %w", attached, total, perrors.ErrInsufficientPayment)
	}
	previous, err := e.loadCollectionBid(bidder)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		eventType := EventTypeCollectionBidCancelled
		if !previous.IsLive(now) {
			eventType = EventTypeCollectionBidExpired
		}
		if err := e.removeCollectionBid(previous, eventType); err != nil {
			return nil, err
		}
	}
	if err := payment.Take(total); err != nil {
		return nil, err
	}
	if err := e.lockFunds(bidder, payment.Holder, total); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(CollectionBidKey(bidder), cbid); err != nil {
		return nil, err
	}
	e.emit(events.New(EventTypeCollectionBidPlaced, map[string]string{
		"bidder":    bidder.String(),
		"units":     events.FormatUint(uint64(units)),
		"price":     cbid.Price.String(),
		"expiresAt": events.FormatUint(expiresAt),
	}))
	return cbid, nil
}

// CancelCollectionBid refunds and removes the bidder's collection bid.
func (e *Engine) CancelCollectionBid(bidder types.Address) error {
	if err := e.mutating(); err != nil {
		return err
	}
	cbid, err := e.loadCollectionBid(bidder)
	if err != nil {
		return err
	}
	if cbid == nil {
		return fmt.Errorf("market: collection bid of %s: %w", bidder, perrors.ErrNoActiveBid)
	}
	eventType := EventTypeCollectionBidCancelled
	if !cbid.IsLive(e.now()) {
		eventType = EventTypeCollectionBidExpired
	}
	return e.removeCollectionBid(cbid, eventType)
}

// AcceptCollectionBid sells tokenID to bidder for one unit of the collection
// bid. The remaining units stay escrowed.
func (e *Engine) AcceptCollectionBid(seller types.Address, tokenID uint64, bidder types.Address) (*Settlement, error) {
	if err := e.mutating(); err != nil {
		return nil, err
	}
	owner, err := e.nft.OwnerOf(tokenID)
	if err != nil {
		return nil, err
	}
	if owner != seller {
		return nil, fmt.Errorf("market: accept collection bid on token %d: %w", tokenID, perrors.ErrNotOwner)
	}
	cbid, err := e.loadCollectionBid(bidder)
	if err != nil {
		return nil, err
	}
	if cbid == nil {
		return nil, fmt.Errorf("market: collection bid of %s: %w", bidder, perrors.ErrNoActiveBid)
	}
	if !cbid.IsLive(e.now()) {
		return nil, fmt.Errorf("market: collection bid of %s: %w", bidder, perrors.ErrExpired)
	}
	if bidder == seller {
		return nil, fmt.Errorf("market: seller cannot accept own collection bid: %w", perrors.ErrNotEligible)
	}
	ask, err := e.loadAsk(tokenID)
	if err != nil {
		return nil, err
	}
	if err := e.debitEscrow(bidder, cbid.Price.Amount); err != nil {
		return nil, err
	}
	cbid.Units--
	if cbid.Units == 0 {
		err = e.state.KVDelete(CollectionBidKey(bidder))
	} else {
		err = e.state.KVPut(CollectionBidKey(bidder), cbid)
	}
	if err != nil {
		return nil, err
	}
	price := types.Coin{Denom: cbid.Price.Denom, Amount: new(big.Int).Set(cbid.Price.Amount)}
	s, err := e.newSettlement(SaleKindAcceptCollectionBid, tokenID, seller, bidder, price, EscrowAccount(), ask)
	if err != nil {
		return nil, err
	}
	if ask != nil && (ask.Seller != seller || !ask.IsLive(e.now())) {
		s.ProceedsTo = seller
	}
	if err := e.applySettlement(s); err != nil {
		return nil, err
	}
	return s, nil
}
