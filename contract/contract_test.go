package contract

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	perrors "passage/core/errors"
	"passage/core/types"
	"passage/native/fees"
	"passage/native/market"
	"passage/native/minter"
	"passage/storage"
)

const denom = "ustars"

var (
	adminAddr = types.Address{0xad}
	operator  = types.Address{0x0b}
	treasury  = types.Address{0x77}
	creator   = types.Address{0xc0}
	recipient = types.Address{0x9e}
	alice     = types.Address{0xa1}
	bob       = types.Address{0xb0}
	carol     = types.Address{0xcc}
)

type fixture struct {
	t        *testing.T
	contract *Contract
	env      types.Env
}

func instantiateMsg(maxTokens uint64) InstantiateMsg {
	funded := func(addr types.Address) Balance {
		return Balance{Address: addr, Coins: types.NewCoins(types.NewCoin(denom, 1_000))}
	}
	return InstantiateMsg{
		Name:      "Passage",
		Symbol:    "PSG",
		BaseURI:   "ipfs://collection",
		Creator:   creator,
		Admin:     adminAddr,
		Operators: []types.Address{operator},
		Mint: minter.Config{
			MaxMintableTokens: maxTokens,
			UnitPrice:         types.NewCoin(denom, 100),
			Phase:             minter.PhasePublic,
			PaymentRecipient:  recipient,
		},
		Fees: fees.Schedule{Shares: []fees.Share{
			{Recipient: treasury, Bps: 250, Label: fees.LabelMarketplace},
			{Recipient: creator, Bps: 500, Label: fees.LabelRoyalty},
		}},
		Market:   market.Params{Denom: denom},
		Balances: []Balance{funded(alice), funded(bob), funded(carol)},
	}
}

func newFixture(t *testing.T, maxTokens uint64, opts ...Option) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	f := &fixture{
		t:        t,
		contract: New(db, opts...),
		env:      types.Env{Block: types.BlockInfo{Height: 1, Time: 1_000, ChainID: "passage-test"}},
	}
	_, err := f.contract.Instantiate(context.Background(), f.env, types.MessageInfo{Sender: adminAddr}, instantiateMsg(maxTokens))
	require.NoError(t, err)
	return f
}

func (f *fixture) exec(sender types.Address, funds int64, raw string) (*Response, error) {
	f.t.Helper()
	msg, err := ParseExecuteMsg([]byte(raw))
	require.NoError(f.t, err)
	info := types.MessageInfo{Sender: sender}
	if funds > 0 {
		info.Funds = types.NewCoins(types.NewCoin(denom, funds))
	}
	return f.contract.Execute(context.Background(), f.env, info, msg)
}

func (f *fixture) query(raw string, out interface{}) {
	f.t.Helper()
	msg, err := ParseQueryMsg([]byte(raw))
	require.NoError(f.t, err)
	data, err := f.contract.Query(context.Background(), f.env, msg)
	require.NoError(f.t, err)
	require.NoError(f.t, json.Unmarshal(data, out))
}

func (f *fixture) balance(addr types.Address) int64 {
	f.t.Helper()
	var coin types.Coin
	f.query(`{"balance":{"address":"`+addr.String()+`","denom":"ustars"}}`, &coin)
	return coin.Amount.Int64()
}

func (f *fixture) owner(tokenID uint64) types.Address {
	f.t.Helper()
	msg := QueryMsg{Token: &TokenMsg{TokenID: tokenID}}
	data, err := f.contract.Query(context.Background(), f.env, msg)
	require.NoError(f.t, err)
	var view TokenView
	require.NoError(f.t, json.Unmarshal(data, &view))
	return view.Owner
}

func TestInstantiateOnce(t *testing.T) {
	f := newFixture(t, 10)

	var info Info
	f.query(`{"contract_info":{}}`, &info)
	require.Equal(t, ContractName, info.Name)
	require.Equal(t, ContractVersion, info.Version)

	_, err := f.contract.Instantiate(context.Background(), f.env, types.MessageInfo{Sender: adminAddr}, instantiateMsg(10))
	require.ErrorIs(t, err, perrors.ErrInvalidConfig)
}

func TestMintSplitsPaymentAndRefundsExcess(t *testing.T) {
	f := newFixture(t, 2)

	resp, err := f.exec(alice, 150, `{"mint":{}}`)
	require.NoError(t, err)
	require.Equal(t, "mint", resp.Kind)
	require.NotEmpty(t, resp.RequestID)

	var token TokenView
	require.NoError(t, json.Unmarshal(resp.Data, &token))
	require.Equal(t, uint64(1), token.ID)
	require.Equal(t, alice, token.Owner)
	require.Equal(t, "ipfs://collection/1", token.URI)

	require.Equal(t, int64(900), f.balance(alice))
	require.Equal(t, int64(2), f.balance(treasury))
	require.Equal(t, int64(5), f.balance(creator))
	require.Equal(t, int64(93), f.balance(recipient))

	reasons := make([]string, 0, len(resp.Transfers))
	for _, transfer := range resp.Transfers {
		reasons = append(reasons, transfer.Reason)
	}
	require.Equal(t, []string{"attach", "mint/marketplace", "mint/royalty", "mint", "refund"}, reasons)
}

func TestMintCapRollsBackAttachedFunds(t *testing.T) {
	f := newFixture(t, 2)
	_, err := f.exec(alice, 100, `{"mint":{}}`)
	require.NoError(t, err)
	_, err = f.exec(bob, 100, `{"mint":{}}`)
	require.NoError(t, err)

	_, err = f.exec(carol, 100, `{"mint":{}}`)
	require.ErrorIs(t, err, perrors.ErrSupplyExhausted)
	require.Equal(t, "SupplyExhausted", perrors.Kind(err))
	require.Equal(t, int64(1_000), f.balance(carol))

	var supply SupplyView
	f.query(`{"supply":{}}`, &supply)
	require.Equal(t, SupplyView{Minted: 2, MaxMintableTokens: 2}, supply)
}

func TestMarketplaceRoundTrip(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.exec(carol, 100, `{"mint":{}}`)
	require.NoError(t, err)

	_, err = f.exec(carol, 0, `{"list":{"tokenId":1,"price":{"denom":"ustars","amount":"100"},"expiresAt":2000}}`)
	require.NoError(t, err)
	_, err = f.exec(alice, 90, `{"place_bid":{"tokenId":1,"price":{"denom":"ustars","amount":"90"},"expiresAt":2000}}`)
	require.NoError(t, err)

	resp, err := f.exec(bob, 100, `{"buy":{"tokenId":1}}`)
	require.NoError(t, err)
	var sale SaleView
	require.NoError(t, json.Unmarshal(resp.Data, &sale))
	require.Equal(t, market.SaleKindBuy, sale.Kind)
	require.Equal(t, "2", sale.Marketplace)
	require.Equal(t, "5", sale.Royalty)
	require.Equal(t, "93", sale.Proceeds)
	require.Len(t, resp.EventsOfType(market.EventTypeSale), 1)

	require.Equal(t, bob, f.owner(1))
	var ask *market.Ask
	f.query(`{"ask":{"tokenId":1}}`, &ask)
	require.Nil(t, ask)

	var bids []*market.Bid
	f.query(`{"bids":{"tokenId":1}}`, &bids)
	require.Len(t, bids, 1)
	require.Equal(t, alice, bids[0].Bidder)

	var escrow EscrowView
	f.query(`{"escrow":{"address":"`+alice.String()+`"}}`, &escrow)
	require.Equal(t, int64(90), escrow.Amount.Amount.Int64())

	_, err = f.exec(alice, 0, `{"cancel_bid":{"tokenId":1}}`)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), f.balance(alice))
}

func TestAuctionRoundTrip(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.exec(carol, 100, `{"mint":{}}`)
	require.NoError(t, err)

	_, err = f.exec(carol, 0, `{"set_auction":{"tokenId":1,"startingPrice":{"denom":"ustars","amount":"100"},"expiresAt":2000}}`)
	require.NoError(t, err)
	require.Equal(t, market.EscrowAccount(), f.owner(1))

	var auction *market.Auction
	f.query(`{"auction":{"tokenId":1}}`, &auction)
	require.NotNil(t, auction)
	require.Equal(t, carol, auction.Seller)

	_, err = f.exec(alice, 150, `{"place_bid":{"tokenId":1,"price":{"denom":"ustars","amount":"150"},"expiresAt":2000}}`)
	require.NoError(t, err)

	resp, err := f.exec(carol, 0, `{"close_auction":{"tokenId":1,"acceptHighestBid":true}}`)
	require.NoError(t, err)
	var sale SaleView
	require.NoError(t, json.Unmarshal(resp.Data, &sale))
	require.Equal(t, market.SaleKindAuction, sale.Kind)
	require.Equal(t, alice, f.owner(1))
	require.Equal(t, int64(850), f.balance(alice))

	var auctions []*market.Auction
	f.query(`{"auctions":{}}`, &auctions)
	require.Empty(t, auctions)

	_, err = f.exec(carol, 0, `{"close_auction":{"tokenId":1}}`)
	require.ErrorIs(t, err, perrors.ErrNoActiveAuction)
}

func TestBlockedFeeRecipientRollsBackSale(t *testing.T) {
	payee := types.Address{0x99}
	f := newFixture(t, 5, WithBlockedRecipients([]types.Address{payee}))
	_, err := f.exec(carol, 100, `{"mint":{}}`)
	require.NoError(t, err)

	_, err = f.exec(carol, 0, `{"list":{"tokenId":1,"price":{"denom":"ustars","amount":"100"},"expiresAt":2000,"fundsRecipient":"`+payee.String()+`"}}`)
	require.NoError(t, err)
	_, err = f.exec(alice, 90, `{"place_bid":{"tokenId":1,"price":{"denom":"ustars","amount":"90"},"expiresAt":2000}}`)
	require.NoError(t, err)

	_, err = f.exec(bob, 100, `{"buy":{"tokenId":1}}`)
	require.ErrorIs(t, err, perrors.ErrTransferRejected)
	_, err = f.exec(carol, 0, `{"accept_bid":{"tokenId":1,"bidder":"`+alice.String()+`"}}`)
	require.ErrorIs(t, err, perrors.ErrTransferRejected)

	require.Equal(t, carol, f.owner(1))
	require.Equal(t, int64(1_000), f.balance(bob))
	require.Equal(t, int64(910), f.balance(alice))
	var ask *market.Ask
	f.query(`{"ask":{"tokenId":1}}`, &ask)
	require.NotNil(t, ask)
	var bid *market.Bid
	f.query(`{"bid":{"tokenId":1,"bidder":"`+alice.String()+`"}}`, &bid)
	require.NotNil(t, bid)
}

func TestPauseBlocksUserEntryPoints(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.exec(alice, 100, `{"mint":{}}`)
	require.NoError(t, err)

	_, err = f.exec(alice, 0, `{"pause":{}}`)
	require.ErrorIs(t, err, perrors.ErrUnauthorized)
	_, err = f.exec(adminAddr, 0, `{"pause":{}}`)
	require.NoError(t, err)

	_, err = f.exec(bob, 100, `{"mint":{}}`)
	require.ErrorIs(t, err, perrors.ErrContractPaused)
	_, err = f.exec(alice, 0, `{"transfer_nft":{"tokenId":1,"recipient":"`+bob.String()+`"}}`)
	require.ErrorIs(t, err, perrors.ErrContractPaused)

	_, err = f.exec(adminAddr, 0, `{"unpause":{}}`)
	require.NoError(t, err)
	_, err = f.exec(alice, 0, `{"transfer_nft":{"tokenId":1,"recipient":"`+bob.String()+`"}}`)
	require.NoError(t, err)
	require.Equal(t, bob, f.owner(1))
}

func TestFeeScheduleIsAdminOnly(t *testing.T) {
	f := newFixture(t, 5)
	update := `{"update_fee_schedule":{"shares":[{"recipient":"` + treasury.String() + `","bps":300,"label":"marketplace"}]}}`
	_, err := f.exec(alice, 0, update)
	require.ErrorIs(t, err, perrors.ErrUnauthorized)
	_, err = f.exec(adminAddr, 0, update)
	require.NoError(t, err)

	var schedule fees.Schedule
	f.query(`{"fee_schedule":{}}`, &schedule)
	require.Equal(t, uint64(300), schedule.TotalBps())

	tooMuch := `{"update_fee_schedule":{"shares":[{"recipient":"` + treasury.String() + `","bps":10001}]}}`
	_, err = f.exec(adminAddr, 0, tooMuch)
	require.ErrorIs(t, err, perrors.ErrInvalidConfig)
}

func TestMigrate(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.exec(alice, 100, `{"mint":{}}`)
	require.NoError(t, err)
	_, err = f.exec(bob, 100, `{"mint":{}}`)
	require.NoError(t, err)
	_, err = f.exec(alice, 0, `{"list":{"tokenId":1,"price":{"denom":"ustars","amount":"100"},"expiresAt":2000}}`)
	require.NoError(t, err)

	ctx := context.Background()
	admin := types.MessageInfo{Sender: adminAddr}
	cap3 := uint64(3)
	cap1 := uint64(1)

	_, err = f.contract.Migrate(ctx, f.env, types.MessageInfo{Sender: alice}, MigrateMsg{Version: "1.1.0"})
	require.ErrorIs(t, err, perrors.ErrUnauthorized)
	_, err = f.contract.Migrate(ctx, f.env, admin, MigrateMsg{Version: "0.9.0"})
	require.ErrorIs(t, err, perrors.ErrVersionDowngrade)
	_, err = f.contract.Migrate(ctx, f.env, admin, MigrateMsg{Version: "1.1.0", NumMintableTokens: &cap1})
	require.ErrorIs(t, err, perrors.ErrInvalidConfig)

	for i := 0; i < 2; i++ {
		_, err = f.contract.Migrate(ctx, f.env, admin, MigrateMsg{Version: "1.1.0", NumMintableTokens: &cap3})
		require.NoErrorf(t, err, "application %d", i)
	}

	var info Info
	f.query(`{"contract_info":{}}`, &info)
	require.Equal(t, "1.1.0", info.Version)
	var supply SupplyView
	f.query(`{"supply":{}}`, &supply)
	require.Equal(t, SupplyView{Minted: 2, MaxMintableTokens: 3}, supply)
	var ask *market.Ask
	f.query(`{"ask":{"tokenId":1}}`, &ask)
	require.NotNil(t, ask, "migration leaves asks untouched")
	require.Equal(t, alice, f.owner(1))
}

func TestParseRejectsMalformedMessages(t *testing.T) {
	_, err := ParseExecuteMsg([]byte(`{"burn":{"tokenId":1}}`))
	require.ErrorIs(t, err, perrors.ErrUnknownMessage)
	_, err = ParseExecuteMsg([]byte(`{"buy":{"tokenId":1},"cancel_bid":{"tokenId":1}}`))
	require.ErrorIs(t, err, perrors.ErrUnknownMessage)
	_, err = ParseExecuteMsg([]byte(`{}`))
	require.ErrorIs(t, err, perrors.ErrUnknownMessage)
	_, err = ParseQueryMsg([]byte(`{"supply":{}}`))
	require.NoError(t, err)
}

func TestQueryUnknownToken(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.contract.Query(context.Background(), f.env, QueryMsg{Token: &TokenMsg{TokenID: 9}})
	require.ErrorIs(t, err, perrors.ErrTokenNotFound)
}
