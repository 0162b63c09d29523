package contract

import (
	"encoding/hex"

	"passage/core/events"
	"passage/core/types"
	"passage/native/fees"
	"passage/native/market"
	"passage/native/nft"
)

// TokenView is the JSON rendering of a token.
type TokenView struct {
	ID           uint64          `json:"id"`
	Collection   types.Address   `json:"collection"`
	Owner        types.Address   `json:"owner"`
	URI          string          `json:"uri"`
	MetadataHash string          `json:"metadataHash"`
	Attributes   []nft.Attribute `json:"attributes"`
	MintedAt     uint64          `json:"mintedAt"`
}

func newTokenView(token *nft.Token) *TokenView {
	if token == nil {
		return nil
	}
	attrs := token.Attributes
	if attrs == nil {
		attrs = []nft.Attribute{}
	}
	return &TokenView{
		ID:           token.ID,
		Collection:   token.Collection,
		Owner:        token.Owner,
		URI:          token.URI,
		MetadataHash: "0x" + hex.EncodeToString(token.MetadataHash[:]),
		Attributes:   attrs,
		MintedAt:     token.MintedAt,
	}
}

// AuctionClosedView reports an auction closed without a sale; the token went
// back to the seller.
type AuctionClosedView struct {
	TokenID uint64 `json:"tokenId"`
	Sold    bool   `json:"sold"`
}

// SaleView summarises a settled sale.
type SaleView struct {
	Kind        string        `json:"kind"`
	TokenID     uint64        `json:"tokenId"`
	Seller      types.Address `json:"seller"`
	Buyer       types.Address `json:"buyer"`
	Price       types.Coin    `json:"price"`
	ProceedsTo  types.Address `json:"proceedsTo"`
	Marketplace string        `json:"marketplaceFee"`
	Royalty     string        `json:"royalty"`
	Proceeds    string        `json:"proceeds"`
}

func newSaleView(s *market.Settlement) *SaleView {
	if s == nil {
		return nil
	}
	return &SaleView{
		Kind:        s.Kind,
		TokenID:     s.TokenID,
		Seller:      s.Seller,
		Buyer:       s.Buyer,
		Price:       s.Price,
		ProceedsTo:  s.ProceedsTo,
		Marketplace: events.FormatAmount(s.Split.Share(fees.LabelMarketplace)),
		Royalty:     events.FormatAmount(s.Split.Share(fees.LabelRoyalty)),
		Proceeds:    events.FormatAmount(s.Split.Remainder),
	}
}
