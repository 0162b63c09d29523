package market

import (
	"testing"

	"github.com/stretchr/testify/require"

	perrors "passage/core/errors"
	"passage/core/state"
	"passage/core/types"
	"passage/native/bank"
)

func TestBuyLeavesOtherBidsRefundable(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.list(1, 100, h.now+100, ListOptions{}))
	require.NoError(t, h.placeBid(buyerA, 1, 90, h.now+100))

	h.rec.Reset()
	require.NoError(t, h.buy(buyerB, 1, 100))

	require.Equal(t, buyerB, h.owner(1))
	require.Nil(t, h.ask(1))
	require.Equal(t, int64(900), h.balance(buyerB))
	require.Equal(t, int64(2), h.balance(treasury))
	require.Equal(t, int64(5), h.balance(creator))
	require.Equal(t, int64(1_093), h.balance(seller))
	require.Contains(t, h.eventTypes(), EventTypeSale)

	bid := h.bid(1, buyerA)
	require.NotNil(t, bid, "other bids survive a buy")
	require.Equal(t, int64(90), h.escrowed(buyerA))
	h.checkEscrowInvariant()

	require.NoError(t, h.run(func(*state.Manager) error { return h.market.CancelBid(buyerA, 1) }))
	require.Equal(t, int64(1_000), h.balance(buyerA))
	h.checkEscrowInvariant()
}

func TestBuyRequiresExactPayment(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.list(1, 100, h.now+100, ListOptions{}))

	require.ErrorIs(t, h.buy(buyerB, 1, 99), perrors.ErrPriceMismatch)
	require.ErrorIs(t, h.buy(buyerB, 1, 101), perrors.ErrPriceMismatch)
	require.Equal(t, int64(1_000), h.balance(buyerB))
	require.Equal(t, seller, h.owner(1))

	require.ErrorIs(t, h.buy(buyerB, 2, 100), perrors.ErrNoActiveAsk)
	require.ErrorIs(t, h.buy(seller, 1, 100), perrors.ErrNotEligible)
}

func TestBuyHonoursReserveAndAllowList(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.list(1, 100, h.now+100, ListOptions{ReserveFor: buyerC}))
	require.NoError(t, h.list(2, 100, h.now+100, ListOptions{AllowList: []types.Address{buyerA, buyerC}}))

	require.ErrorIs(t, h.buy(buyerB, 1, 100), perrors.ErrNotEligible)
	require.NoError(t, h.buy(buyerC, 1, 100))

	require.ErrorIs(t, h.buy(buyerB, 2, 100), perrors.ErrNotEligible)
	require.NoError(t, h.buy(buyerA, 2, 100))
	require.Equal(t, buyerA, h.owner(2))
}

func TestBuyPaysFundsRecipient(t *testing.T) {
	h := newHarness(t)
	payee := types.Address{0x99}
	require.NoError(t, h.list(1, 1_000, h.now+100, ListOptions{FundsRecipient: payee}))

	require.NoError(t, h.run(func(*state.Manager) error { return h.bank.Mint(buyerB, types.NewCoin(denom, 1_000)) }))
	require.NoError(t, h.buy(buyerB, 1, 1_000))
	require.Equal(t, int64(25), h.balance(treasury))
	require.Equal(t, int64(50), h.balance(creator))
	require.Equal(t, int64(925), h.balance(payee))
	require.Equal(t, int64(1_000), h.balance(seller))
}

func TestAcceptBid(t *testing.T) {
	h := newHarness(t)
	payee := types.Address{0x99}
	require.NoError(t, h.list(2, 150, h.now+100, ListOptions{FundsRecipient: payee}))
	require.NoError(t, h.placeBid(buyerA, 2, 90, h.now+100))
	require.NoError(t, h.placeBid(buyerC, 2, 80, h.now+100))

	err := h.acceptBid(buyerB, 2, buyerA)
	require.ErrorIs(t, err, perrors.ErrNotOwner)
	require.ErrorIs(t, h.acceptBid(seller, 2, buyerB), perrors.ErrNoActiveBid)

	var settlement *Settlement
	require.NoError(t, h.run(func(*state.Manager) error {
		var err error
		settlement, err = h.market.AcceptBid(seller, 2, buyerA)
		return err
	}))
	require.Equal(t, SaleKindAcceptBid, settlement.Kind)
	require.Equal(t, payee, settlement.ProceedsTo)

	require.Equal(t, buyerA, h.owner(2))
	require.Nil(t, h.ask(2), "accepting a bid removes the ask")
	require.Nil(t, h.bid(2, buyerA))
	require.Equal(t, int64(910), h.balance(buyerA))
	require.Equal(t, int64(2), h.balance(treasury))
	require.Equal(t, int64(4), h.balance(creator))
	require.Equal(t, int64(84), h.balance(payee))

	require.NotNil(t, h.bid(2, buyerC))
	require.Equal(t, int64(80), h.escrowed(buyerC))
	require.Zero(t, h.escrowed(buyerA))
	h.checkEscrowInvariant()
}

func TestAcceptBidWithoutAskPaysSeller(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.placeBid(buyerA, 3, 200, h.now+100))
	require.NoError(t, h.acceptBid(seller, 3, buyerA))
	require.Equal(t, int64(1_185), h.balance(seller))
	require.Equal(t, int64(5), h.balance(treasury))
	require.Equal(t, int64(10), h.balance(creator))
	h.checkEscrowInvariant()
}

func TestAcceptExpiredBidFails(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.placeBid(buyerA, 1, 90, h.now+10))
	h.now += 10

	require.ErrorIs(t, h.acceptBid(seller, 1, buyerA), perrors.ErrExpired)
	require.Equal(t, seller, h.owner(1))
	require.NotNil(t, h.bid(1, buyerA))
	require.Equal(t, int64(90), h.escrowed(buyerA))
	h.checkEscrowInvariant()
}

func TestRejectedPayoutRollsBackSale(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.list(1, 100, h.now+100, ListOptions{}))
	require.NoError(t, h.placeBid(buyerA, 1, 90, h.now+100))
	h.bank.SetBlocked([]types.Address{creator})

	require.ErrorIs(t, h.buy(buyerB, 1, 100), perrors.ErrTransferRejected)
	require.Equal(t, seller, h.owner(1))
	require.NotNil(t, h.ask(1))
	require.Equal(t, int64(1_000), h.balance(buyerB))

	require.ErrorIs(t, h.acceptBid(seller, 1, buyerA), perrors.ErrTransferRejected)
	require.Equal(t, seller, h.owner(1))
	require.NotNil(t, h.ask(1))
	require.NotNil(t, h.bid(1, buyerA))
	require.Equal(t, int64(90), h.escrowed(buyerA))
	require.Equal(t, int64(910), h.balance(buyerA))
	h.checkEscrowInvariant()

	h.bank.SetBlocked(nil)
	require.NoError(t, h.buy(buyerB, 1, 100))
}

func TestEscrowMatchesBidsAcrossOperations(t *testing.T) {
	h := newHarness(t)
	steps := []func() error{
		func() error { return h.placeBid(buyerA, 1, 90, h.now+100) },
		func() error { return h.placeBid(buyerA, 2, 40, h.now+100) },
		func() error { return h.placeBid(buyerB, 1, 70, h.now+100) },
		func() error {
			return h.pay(buyerC, 150, func(p *bank.Payment) error {
				_, err := h.market.PlaceCollectionBid(buyerC, 3, types.NewCoin(denom, 50), h.now+100, p)
				return err
			})
		},
		func() error { return h.acceptBid(seller, 1, buyerB) },
		func() error {
			return h.run(func(*state.Manager) error {
				_, err := h.market.AcceptCollectionBid(seller, 2, buyerC)
				return err
			})
		},
		func() error { return h.run(func(*state.Manager) error { return h.market.CancelBid(buyerA, 2) }) },
		func() error { return h.run(func(*state.Manager) error { return h.market.CancelCollectionBid(buyerC) }) },
		func() error { return h.run(func(*state.Manager) error { return h.market.CancelBid(buyerA, 1) }) },
	}
	for i, step := range steps {
		require.NoErrorf(t, step(), "step %d", i)
		h.checkEscrowInvariant()
	}
	require.Zero(t, h.balance(EscrowAccount()))
	require.Equal(t, int64(1_000), h.balance(buyerA))
}
