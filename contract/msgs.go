package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	perrors "passage/core/errors"
	"passage/core/types"
	"passage/native/fees"
	"passage/native/market"
	"passage/native/minter"
	"passage/native/nft"
)

// Balance funds an account at instantiation through the bank stand-in.
type Balance struct {
	Address types.Address `json:"address" yaml:"address"`
	Coins   types.Coins   `json:"coins" yaml:"coins"`
}

// InstantiateMsg sets up the collection, access control, mint config, fee
// schedule and marketplace parameters in one unit of work.
type InstantiateMsg struct {
	Name      string          `json:"name" yaml:"name"`
	Symbol    string          `json:"symbol" yaml:"symbol"`
	BaseURI   string          `json:"baseUri" yaml:"base_uri"`
	Creator   types.Address   `json:"creator" yaml:"creator"`
	Admin     types.Address   `json:"admin" yaml:"admin"`
	Operators []types.Address `json:"operators,omitempty" yaml:"operators"`
	Mint      minter.Config   `json:"mint" yaml:"mint"`
	Fees      fees.Schedule   `json:"fees" yaml:"fees"`
	Market    market.Params   `json:"market" yaml:"market"`
	Members   []types.Address `json:"members,omitempty" yaml:"members"`
	Balances  []Balance       `json:"balances,omitempty" yaml:"balances"`
}

// MigrateMsg upgrades the stored contract version and optionally changes the
// mint cap.
type MigrateMsg struct {
	Version           string  `json:"version"`
	NumMintableTokens *uint64 `json:"numMintableTokens,omitempty"`
}

type Empty struct{}

type MintMsg struct {
	Proof []common.Hash `json:"proof,omitempty"`
}

type ListMsg struct {
	TokenID        uint64          `json:"tokenId"`
	Price          types.Coin      `json:"price"`
	ExpiresAt      uint64          `json:"expiresAt"`
	FundsRecipient types.Address   `json:"fundsRecipient,omitempty"`
	ReserveFor     types.Address   `json:"reserveFor,omitempty"`
	AllowList      []types.Address `json:"allowList,omitempty"`
}

type TokenMsg struct {
	TokenID uint64 `json:"tokenId"`
}

type PlaceBidMsg struct {
	TokenID   uint64     `json:"tokenId"`
	Price     types.Coin `json:"price"`
	ExpiresAt uint64     `json:"expiresAt"`
}

type AcceptBidMsg struct {
	TokenID uint64        `json:"tokenId"`
	Bidder  types.Address `json:"bidder"`
}

type TransferAdminMsg struct {
	Admin types.Address `json:"admin"`
}

type OperatorsMsg struct {
	Operators []types.Address `json:"operators"`
}

type MembersMsg struct {
	Members []types.Address `json:"members"`
}

type PlaceCollectionBidMsg struct {
	Units     uint32     `json:"units"`
	Price     types.Coin `json:"price"`
	ExpiresAt uint64     `json:"expiresAt"`
}

type SetAuctionMsg struct {
	TokenID        uint64        `json:"tokenId"`
	StartingPrice  types.Coin    `json:"startingPrice"`
	ReservePrice   *types.Coin   `json:"reservePrice,omitempty"`
	FundsRecipient types.Address `json:"fundsRecipient,omitempty"`
	ExpiresAt      uint64        `json:"expiresAt"`
}

type CloseAuctionMsg struct {
	TokenID          uint64 `json:"tokenId"`
	AcceptHighestBid bool   `json:"acceptHighestBid"`
}

type TransferNftMsg struct {
	TokenID   uint64        `json:"tokenId"`
	Recipient types.Address `json:"recipient"`
}

type SetAttributesMsg struct {
	TokenID    uint64          `json:"tokenId"`
	Attributes []nft.Attribute `json:"attributes"`
}

// ExecuteMsg is a JSON union: exactly one field is set, e.g.
// {"mint":{"proof":[]}} or {"buy":{"tokenId":1}}.
type ExecuteMsg struct {
	Mint                *MintMsg               `json:"mint,omitempty"`
	UpdateMintConfig    *minter.Config         `json:"update_mint_config,omitempty"`
	List                *ListMsg               `json:"list,omitempty"`
	CancelListing       *TokenMsg              `json:"cancel_listing,omitempty"`
	PlaceBid            *PlaceBidMsg           `json:"place_bid,omitempty"`
	CancelBid           *TokenMsg              `json:"cancel_bid,omitempty"`
	Buy                 *TokenMsg              `json:"buy,omitempty"`
	AcceptBid           *AcceptBidMsg          `json:"accept_bid,omitempty"`
	UpdateFeeSchedule   *fees.Schedule         `json:"update_fee_schedule,omitempty"`
	Pause               *Empty                 `json:"pause,omitempty"`
	Unpause             *Empty                 `json:"unpause,omitempty"`
	TransferAdmin       *TransferAdminMsg      `json:"transfer_admin,omitempty"`
	UpdateOperators     *OperatorsMsg          `json:"update_operators,omitempty"`
	AddMembers          *MembersMsg            `json:"add_members,omitempty"`
	RemoveMembers       *MembersMsg            `json:"remove_members,omitempty"`
	UpdateParams        *market.Params         `json:"update_params,omitempty"`
	PlaceCollectionBid  *PlaceCollectionBidMsg `json:"place_collection_bid,omitempty"`
	CancelCollectionBid *Empty                 `json:"cancel_collection_bid,omitempty"`
	AcceptCollectionBid *AcceptBidMsg          `json:"accept_collection_bid,omitempty"`
	TransferNft         *TransferNftMsg        `json:"transfer_nft,omitempty"`
	SetAttributes       *SetAttributesMsg      `json:"set_attributes,omitempty"`
	SweepExpired        *TokenMsg              `json:"sweep_expired,omitempty"`
	SetAuction          *SetAuctionMsg         `json:"set_auction,omitempty"`
	CloseAuction        *CloseAuctionMsg       `json:"close_auction,omitempty"`
}

// Kind returns the JSON name of the single variant set on m.
func (m ExecuteMsg) Kind() (string, error) {
	return single("execute", []variant{
		{"mint", m.Mint != nil},
		{"update_mint_config", m.UpdateMintConfig != nil},
		{"list", m.List != nil},
		{"cancel_listing", m.CancelListing != nil},
		{"place_bid", m.PlaceBid != nil},
		{"cancel_bid", m.CancelBid != nil},
		{"buy", m.Buy != nil},
		{"accept_bid", m.AcceptBid != nil},
		{"update_fee_schedule", m.UpdateFeeSchedule != nil},
		{"pause", m.Pause != nil},
		{"unpause", m.Unpause != nil},
		{"transfer_admin", m.TransferAdmin != nil},
		{"update_operators", m.UpdateOperators != nil},
		{"add_members", m.AddMembers != nil},
		{"remove_members", m.RemoveMembers != nil},
		{"update_params", m.UpdateParams != nil},
		{"place_collection_bid", m.PlaceCollectionBid != nil},
		{"cancel_collection_bid", m.CancelCollectionBid != nil},
		{"accept_collection_bid", m.AcceptCollectionBid != nil},
		{"transfer_nft", m.TransferNft != nil},
		{"set_attributes", m.SetAttributes != nil},
		{"sweep_expired", m.SweepExpired != nil},
		{"set_auction", m.SetAuction != nil},
		{"close_auction", m.CloseAuction != nil},
	})
}

type PageMsg struct {
	StartAfter uint64 `json:"startAfter,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

type OwnerTokensMsg struct {
	Owner      types.Address `json:"owner"`
	StartAfter uint64        `json:"startAfter,omitempty"`
	Limit      uint32        `json:"limit,omitempty"`
}

type BidsMsg struct {
	TokenID    uint64        `json:"tokenId"`
	StartAfter types.Address `json:"startAfter,omitempty"`
	Limit      uint32        `json:"limit,omitempty"`
}

type BidderMsg struct {
	Bidder     types.Address `json:"bidder"`
	StartAfter uint64        `json:"startAfter,omitempty"`
	Limit      uint32        `json:"limit,omitempty"`
}

type AddressPageMsg struct {
	StartAfter types.Address `json:"startAfter,omitempty"`
	Limit      uint32        `json:"limit,omitempty"`
}

type AddressMsg struct {
	Address types.Address `json:"address"`
}

type BalanceMsg struct {
	Address types.Address `json:"address"`
	Denom   string        `json:"denom,omitempty"`
}

// QueryMsg is the read-only JSON union.
type QueryMsg struct {
	ContractInfo   *Empty          `json:"contract_info,omitempty"`
	Collection     *Empty          `json:"collection,omitempty"`
	Token          *TokenMsg       `json:"token,omitempty"`
	AllTokens      *PageMsg        `json:"all_tokens,omitempty"`
	OwnerTokens    *OwnerTokensMsg `json:"owner_tokens,omitempty"`
	Supply         *Empty          `json:"supply,omitempty"`
	Ask            *TokenMsg       `json:"ask,omitempty"`
	Asks           *PageMsg        `json:"asks,omitempty"`
	Bid            *AcceptBidMsg   `json:"bid,omitempty"`
	Bids           *BidsMsg        `json:"bids,omitempty"`
	BidsByBidder   *BidderMsg      `json:"bids_by_bidder,omitempty"`
	CollectionBid  *AddressMsg     `json:"collection_bid,omitempty"`
	CollectionBids *AddressPageMsg `json:"collection_bids,omitempty"`
	Escrow         *AddressMsg     `json:"escrow,omitempty"`
	MintConfig     *Empty          `json:"mint_config,omitempty"`
	MintedBy       *AddressMsg     `json:"minted_by,omitempty"`
	Members        *AddressPageMsg `json:"members,omitempty"`
	HasMember      *AddressMsg     `json:"has_member,omitempty"`
	FeeSchedule    *Empty          `json:"fee_schedule,omitempty"`
	AdminConfig    *Empty          `json:"admin_config,omitempty"`
	MarketParams   *Empty          `json:"market_params,omitempty"`
	Balance        *BalanceMsg     `json:"balance,omitempty"`
	Auction        *TokenMsg       `json:"auction,omitempty"`
	Auctions       *PageMsg        `json:"auctions,omitempty"`
}

// Kind returns the JSON name of the single variant set on m.
func (m QueryMsg) Kind() (string, error) {
	return single("query", []variant{
		{"contract_info", m.ContractInfo != nil},
		{"collection", m.Collection != nil},
		{"token", m.Token != nil},
		{"all_tokens", m.AllTokens != nil},
		{"owner_tokens", m.OwnerTokens != nil},
		{"supply", m.Supply != nil},
		{"ask", m.Ask != nil},
		{"asks", m.Asks != nil},
		{"bid", m.Bid != nil},
		{"bids", m.Bids != nil},
		{"bids_by_bidder", m.BidsByBidder != nil},
		{"collection_bid", m.CollectionBid != nil},
		{"collection_bids", m.CollectionBids != nil},
		{"escrow", m.Escrow != nil},
		{"mint_config", m.MintConfig != nil},
		{"minted_by", m.MintedBy != nil},
		{"members", m.Members != nil},
		{"has_member", m.HasMember != nil},
		{"fee_schedule", m.FeeSchedule != nil},
		{"admin_config", m.AdminConfig != nil},
		{"market_params", m.MarketParams != nil},
		{"balance", m.Balance != nil},
		{"auction", m.Auction != nil},
		{"auctions", m.Auctions != nil},
	})
}

type variant struct {
	name string
	set  bool
}

func single(union string, variants []variant) (string, error) {
	kind := ""
	for _, v := range variants {
		if !v.set {
			continue
		}
		if kind != "" {
			return "", fmt.Errorf("%s message sets both %q and %q: %w", union, kind, v.name, perrors.ErrUnknownMessage)
		}
		kind = v.name
	}
	if kind == "" {
		return "", fmt.Errorf("empty %s message: %w", union, perrors.ErrUnknownMessage)
	}
	return kind, nil
}
