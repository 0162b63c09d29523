package market

import (
	"math/big"
	"testing"

	"passage/core/events"
	"passage/core/state"
	"passage/core/types"
	"passage/native/admin"
	"passage/native/bank"
	"passage/native/fees"
	"passage/native/nft"
	"passage/native/params"
	"passage/storage"
)

const denom = "ustars"

var (
	adminAddr    = types.Address{0xad}
	operatorAddr = types.Address{0x0b}
	treasury     = types.Address{0x77}
	creator      = types.Address{0xc0}
	seller       = types.Address{0x5e}
	buyerA       = types.Address{0xa1}
	buyerB       = types.Address{0xb0}
	buyerC       = types.Address{0xcc}
	contract     = types.ModuleAddress("contract")
)

// harness runs every call in its own unit of work, committing on success and
// discarding on failure, the way the contract router does.
type harness struct {
	t      *testing.T
	db     storage.Database
	now    uint64
	admin  *admin.Engine
	nft    *nft.Engine
	bank   *bank.Keeper
	market *Engine
	rec    *events.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	h := &harness{
		t:      t,
		db:     db,
		now:    1_000,
		admin:  admin.NewEngine(),
		nft:    nft.NewEngine(),
		bank:   bank.NewKeeper(),
		market: NewEngine(),
		rec:    events.NewRecorder(),
	}
	clock := func() uint64 { return h.now }
	h.nft.SetNowFunc(clock)
	h.market.SetNowFunc(clock)
	h.market.SetNFT(h.nft)
	h.market.SetBank(h.bank)
	h.market.SetAccess(h.admin)
	h.market.SetPauses(h.admin)
	h.market.SetEmitter(h.rec)
	h.bank.SetEmitter(h.rec)

	err := h.run(func(mgr *state.Manager) error {
		if err := h.admin.Init(admin.Config{Admin: adminAddr, Operators: []types.Address{operatorAddr}}); err != nil {
			return err
		}
		if err := h.nft.SetCollection(nft.Collection{Address: contract, Name: "Passage", Symbol: "PSG", Creator: creator}); err != nil {
			return err
		}
		for i := 0; i < 3; i++ {
			if _, err := h.nft.MintNext(seller, "", nil, 100); err != nil {
				return err
			}
		}
		for _, addr := range []types.Address{buyerA, buyerB, buyerC, seller} {
			if err := h.bank.Mint(addr, types.NewCoin(denom, 1_000)); err != nil {
				return err
			}
		}
		if err := fees.SaveSchedule(params.NewStore(mgr), fees.Schedule{Shares: []fees.Share{
			{Recipient: treasury, Bps: 250, Label: fees.LabelMarketplace},
			{Recipient: creator, Bps: 500, Label: fees.LabelRoyalty},
		}}); err != nil {
			return err
		}
		return h.market.Init(Params{Denom: denom})
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	h.rec.Reset()
	return h
}

func (h *harness) bind(mgr *state.Manager) {
	h.admin.SetState(mgr)
	h.nft.SetState(mgr)
	h.bank.SetState(mgr)
	h.market.SetState(mgr)
}

func (h *harness) run(fn func(mgr *state.Manager) error) error {
	tx := state.NewTx(h.db)
	mgr := state.NewManager(tx)
	h.bind(mgr)
	if err := fn(mgr); err != nil {
		tx.Discard()
		return err
	}
	_, err := tx.Commit()
	return err
}

// pay runs fn with amount of the marketplace denom attached by caller.
func (h *harness) pay(caller types.Address, amount int64, fn func(p *bank.Payment) error) error {
	return h.run(func(*state.Manager) error {
		funds := types.NewCoins(types.NewCoin(denom, amount))
		if err := h.bank.SendCoins(caller, contract, funds, "attach"); err != nil {
			return err
		}
		payment := bank.NewPayment(caller, contract, funds)
		if err := fn(payment); err != nil {
			return err
		}
		return payment.Settle(h.bank)
	})
}

func (h *harness) view(fn func() error) {
	h.t.Helper()
	tx := state.NewTx(h.db)
	defer tx.Discard()
	h.bind(state.NewManager(tx))
	if err := fn(); err != nil {
		h.t.Fatalf("view: %v", err)
	}
}

func (h *harness) balance(addr types.Address) int64 {
	h.t.Helper()
	var out int64
	h.view(func() error {
		amount, err := h.bank.Balance(addr, denom)
		out = amount.Int64()
		return err
	})
	return out
}

func (h *harness) owner(tokenID uint64) types.Address {
	h.t.Helper()
	var out types.Address
	h.view(func() error {
		var err error
		out, err = h.nft.OwnerOf(tokenID)
		return err
	})
	return out
}

func (h *harness) ask(tokenID uint64) *Ask {
	h.t.Helper()
	var out *Ask
	h.view(func() error {
		var err error
		out, err = h.market.Ask(tokenID)
		return err
	})
	return out
}

func (h *harness) bid(tokenID uint64, bidder types.Address) *Bid {
	h.t.Helper()
	var out *Bid
	h.view(func() error {
		var err error
		out, err = h.market.loadBid(tokenID, bidder)
		return err
	})
	return out
}

func (h *harness) escrowed(bidder types.Address) int64 {
	h.t.Helper()
	var out int64
	h.view(func() error {
		amount, err := h.market.Escrowed(bidder)
		out = amount.Int64()
		return err
	})
	return out
}

func (h *harness) list(tokenID uint64, price int64, expiresAt uint64, opts ListOptions) error {
	return h.run(func(*state.Manager) error {
		_, err := h.market.List(seller, tokenID, types.NewCoin(denom, price), expiresAt, opts)
		return err
	})
}

func (h *harness) placeBid(bidder types.Address, tokenID uint64, price int64, expiresAt uint64) error {
	return h.pay(bidder, price, func(p *bank.Payment) error {
		_, err := h.market.PlaceBid(bidder, tokenID, types.NewCoin(denom, price), expiresAt, p)
		return err
	})
}

func (h *harness) buy(buyer types.Address, tokenID uint64, attached int64) error {
	return h.pay(buyer, attached, func(p *bank.Payment) error {
		_, err := h.market.Buy(buyer, tokenID, p)
		return err
	})
}

func (h *harness) acceptBid(caller types.Address, tokenID uint64, bidder types.Address) error {
	return h.run(func(*state.Manager) error {
		_, err := h.market.AcceptBid(caller, tokenID, bidder)
		return err
	})
}

// checkEscrowInvariant asserts that every bidder's escrow equals the sum of its
// stored bids and collection bid, and that the escrow account holds the total.
func (h *harness) checkEscrowInvariant() {
	h.t.Helper()
	h.view(func() error {
		expected := make(map[types.Address]*big.Int)
		add := func(addr types.Address, amount *big.Int) {
			if expected[addr] == nil {
				expected[addr] = new(big.Int)
			}
			expected[addr].Add(expected[addr], amount)
		}
		for tokenID := uint64(1); tokenID <= 3; tokenID++ {
			bids, err := h.market.scanBids(tokenID, types.Address{}, 0, false)
			if err != nil {
				return err
			}
			for _, bid := range bids {
				add(bid.Bidder, bid.Price.Amount)
			}
		}
		cbids, err := h.market.scanCollectionBids(types.Address{}, 0, false)
		if err != nil {
			return err
		}
		for _, cbid := range cbids {
			add(cbid.Bidder, cbid.Escrowed())
		}
		ledger, err := h.market.EscrowLedger()
		if err != nil {
			return err
		}
		total := new(big.Int)
		if len(ledger) != len(expected) {
			h.t.Fatalf("escrow ledger has %d entries, bids imply %d", len(ledger), len(expected))
		}
		for _, entry := range ledger {
			want := expected[entry.Bidder]
			if want == nil || want.Cmp(entry.Amount) != 0 {
				h.t.Fatalf("escrow of %s = %s, bids sum to %v", entry.Bidder, entry.Amount, want)
			}
			total.Add(total, entry.Amount)
		}
		held, err := h.bank.Balance(EscrowAccount(), denom)
		if err != nil {
			return err
		}
		if held.Cmp(total) != 0 {
			h.t.Fatalf("escrow account holds %s, ledger totals %s", held, total)
		}
		return nil
	})
}

func (h *harness) eventTypes() []string {
	var out []string
	for _, evt := range h.rec.Events() {
		out = append(out, evt.Type)
	}
	return out
}
