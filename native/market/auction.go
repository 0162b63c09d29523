package market

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/types"
)

// AuctionOptions carries the optional Auction fields.
type AuctionOptions struct {
	ReservePrice   *types.Coin
	FundsRecipient types.Address
}

func (e *Engine) loadAuction(tokenID uint64) (*Auction, error) {
	auction := new(Auction)
	ok, err := e.state.KVGet(AuctionKey(tokenID), auction)
	if err != nil || !ok {
		return nil, err
	}
	return auction, nil
}

// PlaceAuction moves tokenID into market custody and opens it for bids at or
// above startingPrice until expiresAt.
func (e *Engine) PlaceAuction(seller types.Address, tokenID uint64, startingPrice types.Coin, expiresAt uint64, opts AuctionOptions) (*Auction, error) {
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
		return nil, fmt.Errorf("market: auction token %d: %w", tokenID, perrors.ErrNotOwner)
	}
	existing, err := e.loadAuction(tokenID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("market: token %d already auctioned: %w", tokenID, perrors.ErrAlreadyListed)
	}
	ask, err := e.liveAsk(tokenID)
	if err != nil {
		return nil, err
	}
	if ask != nil {
		return nil, fmt.Errorf("market: token %d: %w", tokenID, perrors.ErrAlreadyListed)
	}
	now := e.now()
	if err := p.AuctionExpiry.Check(expiresAt, now); err != nil {
		return nil, err
	}
	if err := p.checkPrice(startingPrice); err != nil {
		return nil, err
	}
	auction := &Auction{
		TokenID:        tokenID,
		Seller:         seller,
		StartingPrice:  types.Coin{Denom: types.NormalizeDenom(startingPrice.Denom), Amount: startingPrice.Clone().Amount},
		ReservePrice:   types.Coin{Denom: types.NormalizeDenom(p.Denom), Amount: big.NewInt(0)},
		FundsRecipient: opts.FundsRecipient,
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
	}
	if reserve := opts.ReservePrice; reserve != nil {
		if err := p.checkPrice(*reserve); err != nil {
			return nil, err
		}
		if reserve.Amount.Cmp(startingPrice.Amount) < 0 {
			return nil, fmt.Errorf("%w: reserve %s below starting price %s", perrors.ErrInvalidConfig, reserve, startingPrice)
		}
		auction.ReservePrice = types.Coin{Denom: types.NormalizeDenom(reserve.Denom), Amount: reserve.Clone().Amount}
	}
	if err := e.nft.Transfer(tokenID, seller, EscrowAccount()); err != nil {
		return nil, err
	}
	if err := e.state.KVPut(AuctionKey(tokenID), auction); err != nil {
		return nil, err
	}
	e.emit(events.New(EventTypeAuctionCreated, map[string]string{
		"tokenId":       events.FormatUint(tokenID),
		"seller":        seller.String(),
		"startingPrice": auction.StartingPrice.String(),
		"reservePrice":  auction.ReservePrice.String(),
		"expiresAt":     events.FormatUint(expiresAt),
	}))
	return auction, nil
}

// highestBid returns the best live bid on the auctioned token that meets the
// starting price. Ties go to the earlier bid.
func (e *Engine) highestBid(auction *Auction) (*Bid, error) {
	bids, err := e.scanBids(auction.TokenID, types.Address{}, 0, true)
	if err != nil {
		return nil, err
	}
	var best *Bid
	for _, bid := range bids {
		if bid.Bidder == auction.Seller || bid.Price.Amount.Cmp(auction.StartingPrice.Amount) < 0 {
			continue
		}
		if best == nil {
			best = bid
			continue
		}
		cmp := bid.Price.Amount.Cmp(best.Price.Amount)
		if cmp > 0 || (cmp == 0 && bid.CreatedAt < best.CreatedAt) {
			best = bid
		}
	}
	return best, nil
}

// CloseAuction ends the seller's auction on tokenID. With acceptHighest the
// token sells to the highest live bid out of its escrow; otherwise, or when no
// live bid exists, the token returns to the seller. Once the highest bid meets
// the reserve the seller must accept it. Closing is allowed after ExpiresAt so
// custody can always be released. Other bids stay live.
func (e *Engine) CloseAuction(seller types.Address, tokenID uint64, acceptHighest bool) (*Settlement, error) {
	if err := e.mutating(); err != nil {
		return nil, err
	}
	auction, err := e.loadAuction(tokenID)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, fmt.Errorf("market: token %d: %w", tokenID, perrors.ErrNoActiveAuction)
	}
	if auction.Seller != seller {
		return nil, fmt.Errorf("market: auction on token %d: %w", tokenID, perrors.ErrNotSeller)
	}
	best, err := e.highestBid(auction)
	if err != nil {
		return nil, err
	}
	if best != nil && !acceptHighest && auction.ReserveMet(best.Price) {
		return nil, fmt.Errorf("market: bid %s on token %d: %w", best.Price, tokenID, perrors.ErrReserveMet)
	}
	if err := e.state.KVDelete(AuctionKey(tokenID)); err != nil {
		return nil, err
	}

	var s *Settlement
	if best != nil && acceptHighest {
		if err := e.debitEscrow(best.Bidder, best.Price.Amount); err != nil {
			return nil, err
		}
		if err := e.deleteBid(best); err != nil {
			return nil, err
		}
		s, err = e.newSettlement(SaleKindAuction, tokenID, seller, best.Bidder, best.Price, EscrowAccount(), nil)
		if err != nil {
			return nil, err
		}
		s.ProceedsTo = auction.ProceedsTo()
		s.Holder = EscrowAccount()
		if err := e.applySettlement(s); err != nil {
			return nil, err
		}
	} else if err := e.nft.Transfer(tokenID, EscrowAccount(), seller); err != nil {
		return nil, err
	}
	e.emit(events.New(EventTypeAuctionClosed, map[string]string{
		"tokenId": events.FormatUint(tokenID),
		"seller":  seller.String(),
		"isSale":  strconv.FormatBool(s != nil),
	}))
	return s, nil
}

// Auction returns the open auction on tokenID, or nil. An auction past its
// expiry is still returned: the token stays in custody until it is closed.
func (e *Engine) Auction(tokenID uint64) (*Auction, error) {
	if e.state == nil {
		return nil, errNilState
	}
	return e.loadAuction(tokenID)
}

// Auctions lists open auctions in token order starting after startAfter.
func (e *Engine) Auctions(startAfter uint64, limit uint32) ([]*Auction, error) {
	if e.state == nil {
		return nil, errNilState
	}
	pageSize := types.PageLimit(limit)
	var ids []uint64
	err := e.state.KVIterate(auctionPrefix, func(key, _ []byte) (bool, error) {
		if id := binary.BigEndian.Uint64(key[len(auctionPrefix):]); id > startAfter {
			ids = append(ids, id)
		}
		return len(ids) < pageSize, nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Auction, 0, len(ids))
	for _, id := range ids {
		auction, err := e.loadAuction(id)
		if err != nil {
			return nil, err
		}
		if auction != nil {
			out = append(out, auction)
		}
	}
	return out, nil
}

// checkAuctionBid applies the auction rules to a bid on tokenID, if the token
// is auctioned.
func (e *Engine) checkAuctionBid(bidder types.Address, tokenID uint64, price types.Coin) error {
	auction, err := e.loadAuction(tokenID)
	if err != nil || auction == nil {
		return err
	}
	if bidder == auction.Seller {
		return fmt.Errorf("market: seller cannot bid on own auction: %w", perrors.ErrNotEligible)
	}
	if !auction.IsLive(e.now()) {
		return fmt.Errorf("market: auction on token %d: %w", tokenID, perrors.ErrExpired)
	}
	if price.Amount.Cmp(auction.StartingPrice.Amount) < 0 {
		return fmt.Errorf("market: bid %s below starting price %s: %w", price, auction.StartingPrice, perrors.ErrPriceTooLow)
	}
	return nil
}
