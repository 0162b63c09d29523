package market

import (
	"fmt"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/types"
	"passage/native/bank"
	"passage/native/fees"
)

// Settlement is the plan of one sale: the ownership change, the records it
// clears and the payouts it makes. It is computed in full before anything is
// written, then applied to the caller's unit of work; a failure while applying
// (a rejected transfer, say) aborts the call and the unit of work is dropped.
type Settlement struct {
	Kind       string
	TokenID    uint64
	Seller     types.Address
	Buyer      types.Address
	Price      types.Coin
	Source     types.Address
	ProceedsTo types.Address
	// Holder owns the token before the sale when it is not the seller, as
	// with auctions in market custody.
	Holder     types.Address
	Split      fees.Split
	ClearAsk   *Ask
}

// newSettlement prices the sale against the stored fee schedule.
func (e *Engine) newSettlement(kind string, tokenID uint64, seller, buyer types.Address, price types.Coin, source types.Address, ask *Ask) (*Settlement, error) {
	schedule, err := fees.LoadSchedule(e.params)
	if err != nil {
		return nil, err
	}
	split, err := schedule.Split(price.Amount)
	if err != nil {
		return nil, err
	}
	s := &Settlement{
		Kind:       kind,
		TokenID:    tokenID,
		Seller:     seller,
		Buyer:      buyer,
		Price:      price,
		Source:     source,
		ProceedsTo: seller,
		Split:      split,
		ClearAsk:   ask,
	}
	if ask != nil {
		s.ProceedsTo = ask.ProceedsTo()
	}
	return s, nil
}

func (e *Engine) applySettlement(s *Settlement) error {
	if s.ClearAsk != nil {
		if err := e.state.KVDelete(AskKey(s.TokenID)); err != nil {
			return err
		}
	}
	from := s.Seller
	if !s.Holder.IsZero() {
		from = s.Holder
	}
	if err := e.nft.Transfer(s.TokenID, from, s.Buyer); err != nil {
		return err
	}
	if err := fees.Disburse(e.bank, s.Source, s.Price.Denom, s.Split, s.ProceedsTo, "sale"); err != nil {
		return err
	}
	e.emit(events.New(EventTypeSale, map[string]string{
		"kind":        s.Kind,
		"tokenId":     events.FormatUint(s.TokenID),
		"seller":      s.Seller.String(),
		"buyer":       s.Buyer.String(),
		"price":       s.Price.String(),
		"marketplace": events.FormatAmount(s.Split.Share(fees.LabelMarketplace)),
		"royalty":     events.FormatAmount(s.Split.Share(fees.LabelRoyalty)),
		"proceeds":    events.FormatAmount(s.Split.Remainder),
		"proceedsTo":  s.ProceedsTo.String(),
	}))
	return nil
}

// Buy fills the live ask on tokenID. The attached amount of the ask's denom
// must equal the ask price exactly.
func (e *Engine) Buy(buyer types.Address, tokenID uint64, payment *bank.Payment) (*Settlement, error) {
	if err := e.mutating(); err != nil {
		return nil, err
	}
	ask, err := e.loadAsk(tokenID)
	if err != nil {
		return nil, err
	}
	if ask == nil {
		return nil, fmt.Errorf("market: token %d: %w", tokenID, perrors.ErrNoActiveAsk)
	}
	if !ask.IsLive(e.now()) {
		return nil, fmt.Errorf("market: ask on token %d: %w", tokenID, perrors.ErrExpired)
	}
	owner, err := e.nft.OwnerOf(tokenID)
	if err != nil {
		return nil, err
	}
	if owner != ask.Seller {
		return nil, fmt.Errorf("market: token %d: %w", tokenID, perrors.ErrNoActiveAsk)
	}
	if !ask.Eligible(buyer) {
		return nil, fmt.Errorf("market: %s on token %d: %w", buyer, tokenID, perrors.ErrNotEligible)
	}
	if attached := payment.Amount(ask.Price.Denom); attached.Cmp(ask.Price.Amount) != 0 {
		return nil, fmt.Errorf("market: attached %s, ask %s: %w", attached, ask.Price, perrors.ErrPriceMismatch)
	}
	if err := payment.Take(ask.Price); err != nil {
		return nil, err
	}
	s, err := e.newSettlement(SaleKindBuy, tokenID, ask.Seller, buyer, ask.Price, payment.Holder, ask)
	if err != nil {
		return nil, err
	}
	if err := e.applySettlement(s); err != nil {
		return nil, err
	}
	return s, nil
}

// AcceptBid sells tokenID to bidder out of the bid's escrow. The bid and any
// ask on the token are removed; other bids stay live.
func (e *Engine) AcceptBid(seller types.Address, tokenID uint64, bidder types.Address) (*Settlement, error) {
	if err := e.mutating(); err != nil {
		return nil, err
	}
	owner, err := e.nft.OwnerOf(tokenID)
	if err != nil {
		return nil, err
	}
	if owner != seller {
		return nil, fmt.Errorf("market: accept bid on token %d: %w", tokenID, perrors.ErrNotOwner)
	}
	bid, err := e.loadBid(tokenID, bidder)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, fmt.Errorf("market: token %d bidder %s: %w", tokenID, bidder, perrors.ErrNoActiveBid)
	}
	if !bid.IsLive(e.now()) {
		return nil, fmt.Errorf("market: bid on token %d: %w", tokenID, perrors.ErrExpired)
	}
	if bidder == seller {
		return nil, fmt.Errorf("market: seller cannot accept own bid: %w", perrors.ErrNotEligible)
	}
	ask, err := e.loadAsk(tokenID)
	if err != nil {
		return nil, err
	}
	if err := e.debitEscrow(bidder, bid.Price.Amount); err != nil {
		return nil, err
	}
	if err := e.deleteBid(bid); err != nil {
		return nil, err
	}
	s, err := e.newSettlement(SaleKindAcceptBid, tokenID, seller, bidder, bid.Price, EscrowAccount(), ask)
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
