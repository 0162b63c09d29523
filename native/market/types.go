package market

import (
	"fmt"
	"math/big"

	perrors "passage/core/errors"
	"passage/core/types"
)

// Ask is a seller's standing offer to sell one token at a fixed price.
type Ask struct {
	TokenID        uint64          `json:"tokenId"`
	Seller         types.Address   `json:"seller"`
	Price          types.Coin      `json:"price"`
	FundsRecipient types.Address   `json:"fundsRecipient"`
	ReserveFor     types.Address   `json:"reserveFor"`
	AllowList      []types.Address `json:"allowList"`
	ExpiresAt      uint64          `json:"expiresAt"`
	CreatedAt      uint64          `json:"createdAt"`
}

// IsLive reports whether the ask has not yet expired at now.
func (a *Ask) IsLive(now uint64) bool { return a != nil && IsLive(a.ExpiresAt, now) }

// ProceedsTo returns the account paid the seller's share.
func (a *Ask) ProceedsTo() types.Address {
	if !a.FundsRecipient.IsZero() {
		return a.FundsRecipient
	}
	return a.Seller
}

// Eligible reports whether buyer may fill the ask.
func (a *Ask) Eligible(buyer types.Address) bool {
	if buyer == a.Seller {
		return false
	}
	if !a.ReserveFor.IsZero() && buyer != a.ReserveFor {
		return false
	}
	if len(a.AllowList) > 0 && !types.ContainsAddress(a.AllowList, buyer) {
		return false
	}
	return true
}

// Bid is a buyer's escrow-backed offer on one token.
type Bid struct {
	TokenID   uint64        `json:"tokenId"`
	Bidder    types.Address `json:"bidder"`
	Price     types.Coin    `json:"price"`
	ExpiresAt uint64        `json:"expiresAt"`
	CreatedAt uint64        `json:"createdAt"`
}

// IsLive reports whether the bid has not yet expired at now.
func (b *Bid) IsLive(now uint64) bool { return b != nil && IsLive(b.ExpiresAt, now) }

// CollectionBid offers Price for each of Units tokens of the collection.
type CollectionBid struct {
	Bidder    types.Address `json:"bidder"`
	Units     uint32        `json:"units"`
	Price     types.Coin    `json:"price"`
	ExpiresAt uint64        `json:"expiresAt"`
	CreatedAt uint64        `json:"createdAt"`
}

// IsLive reports whether the collection bid has not yet expired at now.
func (c *CollectionBid) IsLive(now uint64) bool { return c != nil && IsLive(c.ExpiresAt, now) }

// Escrowed is the amount held for the collection bid: Units * Price.
func (c *CollectionBid) Escrowed() *big.Int {
	return new(big.Int).Mul(c.Price.Clone().Amount, new(big.Int).SetUint64(uint64(c.Units)))
}

// Auction holds a token in market custody while bids come in. Bidding closes
// at ExpiresAt; the seller settles or withdraws with CloseAuction. A zero
// ReservePrice means no reserve.
type Auction struct {
	TokenID        uint64        `json:"tokenId"`
	Seller         types.Address `json:"seller"`
	StartingPrice  types.Coin    `json:"startingPrice"`
	ReservePrice   types.Coin    `json:"reservePrice"`
	FundsRecipient types.Address `json:"fundsRecipient"`
	ExpiresAt      uint64        `json:"expiresAt"`
	CreatedAt      uint64        `json:"createdAt"`
}

// IsLive reports whether the auction still accepts bids at now.
func (a *Auction) IsLive(now uint64) bool { return a != nil && IsLive(a.ExpiresAt, now) }

// ProceedsTo returns the account paid the seller's share.
func (a *Auction) ProceedsTo() types.Address {
	if !a.FundsRecipient.IsZero() {
		return a.FundsRecipient
	}
	return a.Seller
}

// ReserveMet reports whether price reaches the reserve. Without a reserve it
// is never met.
func (a *Auction) ReserveMet(price types.Coin) bool {
	return !a.ReservePrice.IsZero() && price.Clone().Amount.Cmp(a.ReservePrice.Amount) >= 0
}

// IsLive is the single expiration predicate: an entity expiring at expiresAt
// is live strictly before that block time.
func IsLive(expiresAt, now uint64) bool { return now < expiresAt }

// ExpiryRange bounds how far in the future an expiration may be set, in
// seconds from the current block time. A zero Max is unbounded.
type ExpiryRange struct {
	Min uint64 `json:"min" yaml:"min"`
	Max uint64 `json:"max" yaml:"max"`
}

// Check validates expiresAt against now.
func (r ExpiryRange) Check(expiresAt, now uint64) error {
	if expiresAt <= now {
		return fmt.Errorf("market: expiration %d not after %d: %w", expiresAt, now, perrors.ErrExpired)
	}
	ttl := expiresAt - now
	if ttl < r.Min || (r.Max > 0 && ttl > r.Max) {
		return fmt.Errorf("market: ttl %ds outside [%d, %d]: %w", ttl, r.Min, r.Max, perrors.ErrInvalidExpiry)
	}
	return nil
}

// Params are the admin-controlled marketplace parameters.
type Params struct {
	Denom         string      `json:"denom" yaml:"denom"`
	MinPrice      types.Coin  `json:"minPrice" yaml:"min_price"`
	AskExpiry     ExpiryRange `json:"askExpiry" yaml:"ask_expiry"`
	BidExpiry     ExpiryRange `json:"bidExpiry" yaml:"bid_expiry"`
	AuctionExpiry ExpiryRange `json:"auctionExpiry" yaml:"auction_expiry"`
}

// Validate checks denominations and expiry ranges.
func (p Params) Validate() error {
	if types.NormalizeDenom(p.Denom) == "" {
		return fmt.Errorf("%w: marketplace denom required", perrors.ErrInvalidConfig)
	}
	if !p.MinPrice.IsZero() && types.NormalizeDenom(p.MinPrice.Denom) != types.NormalizeDenom(p.Denom) {
		return fmt.Errorf("%w: min price denom must be %s", perrors.ErrInvalidConfig, p.Denom)
	}
	for name, r := range map[string]ExpiryRange{"ask": p.AskExpiry, "bid": p.BidExpiry, "auction": p.AuctionExpiry} {
		if r.Max > 0 && r.Min > r.Max {
			return fmt.Errorf("%w: %s expiry min above max", perrors.ErrInvalidConfig, name)
		}
	}
	return nil
}

// checkPrice validates a price against the marketplace denom and minimum.
func (p Params) checkPrice(price types.Coin) error {
	if !price.IsPositive() {
		return fmt.Errorf("market: %w", perrors.ErrZeroAmount)
	}
	if types.NormalizeDenom(price.Denom) != types.NormalizeDenom(p.Denom) {
		return fmt.Errorf("market: price denom %q, want %q: %w", price.Denom, p.Denom, perrors.ErrPriceMismatch)
	}
	if !p.MinPrice.IsZero() && price.Amount.Cmp(p.MinPrice.Amount) < 0 {
		return fmt.Errorf("market: price %s below %s: %w", price, p.MinPrice, perrors.ErrPriceTooLow)
	}
	return nil
}
