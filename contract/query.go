package contract

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	perrors "passage/core/errors"
	"passage/core/types"
	"passage/native/fees"
	"passage/native/market"
	"passage/native/minter"
	"passage/native/params"
	"passage/observability"
)

// EscrowView reports the escrow ledger entry of a bidder.
type EscrowView struct {
	Bidder types.Address `json:"bidder"`
	Amount types.Coin    `json:"amount"`
}

// SupplyView reports minted supply against the cap.
type SupplyView struct {
	Minted            uint64 `json:"minted"`
	MaxMintableTokens uint64 `json:"maxMintableTokens"`
}

// MembersView pages the whitelist.
type MembersView struct {
	Members []types.Address `json:"members"`
	Count   uint64          `json:"count"`
}

// Query answers a read-only request against committed state. Expired and
// stale records are filtered, never removed.
func (c *Contract) Query(ctx context.Context, env types.Env, msg QueryMsg) (json.RawMessage, error) {
	kind, err := msg.Kind()
	if err != nil {
		observability.Contract().ObserveQuery("unknown", err)
		return nil, err
	}
	_, span := c.tracer.Start(ctx, "contract.query", trace.WithAttributes(attribute.String("passage.query", kind)))
	defer span.End()

	c.mu.Lock()
	u := c.begin(env)
	result, err := c.query(u, msg)
	u.tx.Discard()
	c.mu.Unlock()

	observability.Contract().ObserveQuery(kind, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return json.Marshal(result)
}

func (c *Contract) query(u *unit, msg QueryMsg) (interface{}, error) {
	switch {
	case msg.ContractInfo != nil:
		info, ok, err := loadInfo(u.mgr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: contract not instantiated", perrors.ErrInvalidConfig)
		}
		return info, nil
	case msg.Collection != nil:
		return c.nft.Collection()
	case msg.Token != nil:
		token, err := c.nft.Token(msg.Token.TokenID)
		if err != nil {
			return nil, err
		}
		return newTokenView(token), nil
	case msg.AllTokens != nil:
		tokens, err := c.nft.AllTokens(msg.AllTokens.StartAfter, msg.AllTokens.Limit)
		if err != nil {
			return nil, err
		}
		views := make([]*TokenView, 0, len(tokens))
		for _, token := range tokens {
			views = append(views, newTokenView(token))
		}
		return views, nil
	case msg.OwnerTokens != nil:
		m := msg.OwnerTokens
		ids, err := c.nft.TokensByOwner(m.Owner, m.StartAfter, m.Limit)
		if ids == nil {
			ids = []uint64{}
		}
		return ids, err
	case msg.Supply != nil:
		minted, err := c.nft.Supply()
		if err != nil {
			return nil, err
		}
		cfg, err := c.minter.Config()
		if err != nil {
			return nil, err
		}
		return SupplyView{Minted: minted, MaxMintableTokens: cfg.MaxMintableTokens}, nil
	case msg.Ask != nil:
		return c.market.Ask(msg.Ask.TokenID)
	case msg.Auction != nil:
		return c.market.Auction(msg.Auction.TokenID)
	case msg.Auctions != nil:
		return c.market.Auctions(msg.Auctions.StartAfter, msg.Auctions.Limit)
	case msg.Asks != nil:
		return c.market.Asks(msg.Asks.StartAfter, msg.Asks.Limit)
	case msg.Bid != nil:
		return c.market.Bid(msg.Bid.TokenID, msg.Bid.Bidder)
	case msg.Bids != nil:
		m := msg.Bids
		return c.market.Bids(m.TokenID, m.StartAfter, m.Limit)
	case msg.BidsByBidder != nil:
		m := msg.BidsByBidder
		return c.market.BidsByBidder(m.Bidder, m.StartAfter, m.Limit)
	case msg.CollectionBid != nil:
		return c.market.CollectionBid(msg.CollectionBid.Address)
	case msg.CollectionBids != nil:
		m := msg.CollectionBids
		return c.market.CollectionBids(m.StartAfter, m.Limit)
	case msg.Escrow != nil:
		p, err := c.market.Params()
		if err != nil {
			return nil, err
		}
		amount, err := c.market.Escrowed(msg.Escrow.Address)
		if err != nil {
			return nil, err
		}
		return EscrowView{Bidder: msg.Escrow.Address, Amount: types.Coin{Denom: p.Denom, Amount: amount}}, nil
	case msg.MintConfig != nil:
		return c.minter.Config()
	case msg.MintedBy != nil:
		return c.minter.MintedBy(msg.MintedBy.Address)
	case msg.Members != nil:
		members, err := c.minter.Members(msg.Members.StartAfter, msg.Members.Limit)
		if err != nil {
			return nil, err
		}
		count, err := c.minter.MemberCount()
		if err != nil {
			return nil, err
		}
		if members == nil {
			members = []types.Address{}
		}
		return MembersView{Members: members, Count: count}, nil
	case msg.HasMember != nil:
		return c.minter.HasMember(msg.HasMember.Address)
	case msg.FeeSchedule != nil:
		return fees.LoadSchedule(params.NewStore(u.mgr))
	case msg.AdminConfig != nil:
		return c.admin.Config()
	case msg.MarketParams != nil:
		return c.market.Params()
	case msg.Balance != nil:
		denom := msg.Balance.Denom
		if denom == "" {
			return c.bank.Balances(msg.Balance.Address)
		}
		amount, err := c.bank.Balance(msg.Balance.Address, denom)
		if err != nil {
			return nil, err
		}
		return types.Coin{Denom: types.NormalizeDenom(denom), Amount: amount}, nil
	}
	return nil, perrors.ErrUnknownMessage
}

// MintConfig is a typed shortcut used by the gateway.
func (c *Contract) MintConfig(ctx context.Context, env types.Env) (minter.Config, error) {
	var cfg minter.Config
	raw, err := c.Query(ctx, env, QueryMsg{MintConfig: &Empty{}})
	if err != nil {
		return cfg, err
	}
	err = json.Unmarshal(raw, &cfg)
	return cfg, err
}

// LiveAsk is a typed shortcut used by the gateway. A nil ask means none is live.
func (c *Contract) LiveAsk(ctx context.Context, env types.Env, tokenID uint64) (*market.Ask, error) {
	raw, err := c.Query(ctx, env, QueryMsg{Ask: &TokenMsg{TokenID: tokenID}})
	if err != nil {
		return nil, err
	}
	var ask *market.Ask
	err = json.Unmarshal(raw, &ask)
	return ask, err
}
