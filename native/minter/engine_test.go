package minter

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	perrors "passage/core/errors"
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
	adminAddr = types.Address{0xad}
	treasury  = types.Address{0x77}
	creator   = types.Address{0xc0}
	recipient = types.Address{0x9e}
	alice     = types.Address{0xa1}
	bob       = types.Address{0xb0}
	contract  = types.ModuleAddress("contract")
)

type harness struct {
	engine *Engine
	nft    *nft.Engine
	bank   *bank.Keeper
	admin  *admin.Engine
	mgr    *state.Manager
	now    uint64
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	mgr := state.NewManager(state.NewTx(db))
	h := &harness{mgr: mgr, now: 1_000}

	h.admin = admin.NewEngine()
	h.admin.SetState(mgr)
	if err := h.admin.Init(admin.Config{Admin: adminAddr}); err != nil {
		t.Fatalf("admin init: %v", err)
	}
	h.nft = nft.NewEngine()
	h.nft.SetState(mgr)
	if err := h.nft.SetCollection(nft.Collection{Address: contract, Name: "Passage", Symbol: "PSG", BaseURI: "ipfs://base"}); err != nil {
		t.Fatalf("collection: %v", err)
	}
	h.bank = bank.NewKeeper()
	h.bank.SetState(mgr)

	h.engine = NewEngine()
	h.engine.SetState(mgr)
	h.engine.SetNFT(h.nft)
	h.engine.SetBank(h.bank)
	h.engine.SetAdmin(h.admin)
	h.engine.SetPauses(h.admin)
	h.engine.SetNowFunc(func() uint64 { return h.now })
	if err := h.engine.Init(cfg); err != nil {
		t.Fatalf("minter init: %v", err)
	}
	for _, addr := range []types.Address{alice, bob} {
		if err := h.bank.Mint(addr, types.NewCoin(denom, 10_000)); err != nil {
			t.Fatalf("fund: %v", err)
		}
	}
	return h
}

func publicConfig(maxTokens uint64) Config {
	return Config{
		MaxMintableTokens: maxTokens,
		UnitPrice:         types.NewCoin(denom, 100),
		Phase:             PhasePublic,
		PaymentRecipient:  recipient,
	}
}

// mint mirrors the contract router: attach funds, run, refund leftovers.
func (h *harness) mint(caller types.Address, attached int64, proof []common.Hash) (*nft.Token, error) {
	funds := types.NewCoins(types.NewCoin(denom, attached))
	if err := h.bank.SendCoins(caller, contract, funds, "attach"); err != nil {
		return nil, err
	}
	payment := bank.NewPayment(caller, contract, funds)
	token, err := h.engine.Mint(caller, payment, proof)
	if err != nil {
		return nil, err
	}
	return token, payment.Settle(h.bank)
}

func (h *harness) balance(t *testing.T, addr types.Address) int64 {
	t.Helper()
	amount, err := h.bank.Balance(addr, denom)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return amount.Int64()
}

func TestMintRespectsCap(t *testing.T) {
	h := newHarness(t, publicConfig(2))

	for want := uint64(1); want <= 2; want++ {
		token, err := h.mint(alice, 100, nil)
		if err != nil {
			t.Fatalf("mint %d: %v", want, err)
		}
		if token.ID != want {
			t.Fatalf("token id = %d, want %d", token.ID, want)
		}
	}
	if _, err := h.mint(bob, 100, nil); !errors.Is(err, perrors.ErrSupplyExhausted) {
		t.Fatalf("expected supply exhausted, got %v", err)
	}
	supply, err := h.nft.Supply()
	if err != nil || supply != 2 {
		t.Fatalf("supply = %d err=%v", supply, err)
	}
}

func TestMintSplitsPaymentAndRefundsOverpayment(t *testing.T) {
	h := newHarness(t, publicConfig(10))
	err := fees.SaveSchedule(params.NewStore(h.mgr), fees.Schedule{Shares: []fees.Share{
		{Recipient: treasury, Bps: 250, Label: fees.LabelMarketplace},
		{Recipient: creator, Bps: 500, Label: fees.LabelRoyalty},
	}})
	if err != nil {
		t.Fatalf("save schedule: %v", err)
	}

	if _, err := h.mint(alice, 120, nil); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := h.balance(t, treasury); got != 2 {
		t.Fatalf("treasury = %d, want 2", got)
	}
	if got := h.balance(t, creator); got != 5 {
		t.Fatalf("creator = %d, want 5", got)
	}
	if got := h.balance(t, recipient); got != 93 {
		t.Fatalf("recipient = %d, want 93", got)
	}
	if got := h.balance(t, alice); got != 9_900 {
		t.Fatalf("alice = %d, want 9900", got)
	}
	if got := h.balance(t, contract); got != 0 {
		t.Fatalf("contract should hold nothing, has %d", got)
	}
	minted, err := h.engine.MintedBy(alice)
	if err != nil || minted != 1 {
		t.Fatalf("minted = %d err=%v", minted, err)
	}
}

func TestMintInsufficientPayment(t *testing.T) {
	h := newHarness(t, publicConfig(10))
	if _, err := h.mint(alice, 99, nil); !errors.Is(err, perrors.ErrInsufficientPayment) {
		t.Fatalf("expected insufficient payment, got %v", err)
	}
	supply, _ := h.nft.Supply()
	if supply != 0 {
		t.Fatalf("failed mint must not advance supply, got %d", supply)
	}
}

func TestMintPhases(t *testing.T) {
	cfg := publicConfig(10)
	cfg.Phase = PhaseClosed
	h := newHarness(t, cfg)
	if _, err := h.mint(alice, 100, nil); !errors.Is(err, perrors.ErrPhaseClosed) {
		t.Fatalf("closed phase: expected phase closed, got %v", err)
	}

	whitelisted := []types.Address{bob, {0x01}, {0x02}}
	cfg.Phase = PhaseWhitelist
	cfg.WhitelistRoot = MerkleRoot(whitelisted)
	if err := h.engine.UpdateConfig(adminAddr, cfg); err != nil {
		t.Fatalf("update config: %v", err)
	}
	if _, err := h.mint(alice, 100, nil); !errors.Is(err, perrors.ErrPhaseClosed) {
		t.Fatalf("non-member: expected phase closed, got %v", err)
	}
	if _, err := h.mint(alice, 100, MerkleProof(whitelisted, 0)); !errors.Is(err, perrors.ErrPhaseClosed) {
		t.Fatalf("borrowed proof: expected phase closed, got %v", err)
	}
	if _, err := h.mint(bob, 100, MerkleProof(whitelisted, 0)); err != nil {
		t.Fatalf("merkle member mint: %v", err)
	}
	if err := h.engine.AddMembers(adminAddr, []types.Address{alice}); err != nil {
		t.Fatalf("add members: %v", err)
	}
	if _, err := h.mint(alice, 100, nil); err != nil {
		t.Fatalf("set member mint: %v", err)
	}
}

func TestMintSingleMemberWhitelist(t *testing.T) {
	cfg := publicConfig(10)
	cfg.Phase = PhaseWhitelist
	cfg.WhitelistRoot = MerkleRoot([]types.Address{alice})
	h := newHarness(t, cfg)

	if _, err := h.mint(bob, 100, nil); !errors.Is(err, perrors.ErrPhaseClosed) {
		t.Fatalf("non-member: expected phase closed, got %v", err)
	}
	if _, err := h.mint(alice, 100, []common.Hash{}); err != nil {
		t.Fatalf("sole member with empty proof: %v", err)
	}
}

func TestMintWindowAndPerAddressLimit(t *testing.T) {
	cfg := publicConfig(10)
	cfg.StartTime = 2_000
	cfg.EndTime = 3_000
	cfg.PerAddressLimit = 1
	h := newHarness(t, cfg)

	if _, err := h.mint(alice, 100, nil); !errors.Is(err, perrors.ErrPhaseClosed) {
		t.Fatalf("before start: expected phase closed, got %v", err)
	}
	h.now = 2_000
	if _, err := h.mint(alice, 100, nil); err != nil {
		t.Fatalf("in window: %v", err)
	}
	if _, err := h.mint(alice, 100, nil); !errors.Is(err, perrors.ErrPerAddressLimit) {
		t.Fatalf("expected per address limit, got %v", err)
	}
	h.now = 3_000
	if _, err := h.mint(bob, 100, nil); !errors.Is(err, perrors.ErrPhaseClosed) {
		t.Fatalf("after end: expected phase closed, got %v", err)
	}
}

func TestMintWhilePaused(t *testing.T) {
	h := newHarness(t, publicConfig(10))
	if err := h.admin.Pause(adminAddr); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := h.mint(alice, 100, nil); !errors.Is(err, perrors.ErrContractPaused) {
		t.Fatalf("expected paused, got %v", err)
	}
}

func TestUpdateConfigAccessAndBounds(t *testing.T) {
	h := newHarness(t, publicConfig(3))
	if _, err := h.mint(alice, 100, nil); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := h.mint(alice, 100, nil); err != nil {
		t.Fatalf("mint: %v", err)
	}

	next := publicConfig(50)
	if err := h.engine.UpdateConfig(alice, next); !errors.Is(err, perrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	cfg, err := h.engine.Config()
	if err != nil || cfg.MaxMintableTokens != 3 {
		t.Fatalf("config changed by non-admin: %+v err=%v", cfg, err)
	}

	if err := h.engine.UpdateConfig(adminAddr, publicConfig(1)); !errors.Is(err, perrors.ErrInvalidConfig) {
		t.Fatalf("expected invalid config when shrinking below supply, got %v", err)
	}
	if err := h.engine.UpdateConfig(adminAddr, publicConfig(2)); err != nil {
		t.Fatalf("cap equal to supply should be accepted: %v", err)
	}
	bad := publicConfig(10)
	bad.StartTime, bad.EndTime = 5, 5
	if err := h.engine.UpdateConfig(adminAddr, bad); !errors.Is(err, perrors.ErrInvalidConfig) {
		t.Fatalf("expected invalid window, got %v", err)
	}
}

func TestMembers(t *testing.T) {
	cfg := publicConfig(10)
	cfg.MemberLimit = 3
	h := newHarness(t, cfg)

	members := []types.Address{{0x03}, {0x01}, {0x02}}
	if err := h.engine.AddMembers(alice, members); !errors.Is(err, perrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := h.engine.AddMembers(adminAddr, members); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := h.engine.AddMembers(adminAddr, []types.Address{{0x01}}); !errors.Is(err, perrors.ErrDuplicateMember) {
		t.Fatalf("expected duplicate member, got %v", err)
	}
	if err := h.engine.AddMembers(adminAddr, []types.Address{{0x04}}); !errors.Is(err, perrors.ErrMembersExceeded) {
		t.Fatalf("expected members exceeded, got %v", err)
	}

	page, err := h.engine.Members(types.Address{}, 2)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(page) != 2 || page[0] != (types.Address{0x01}) || page[1] != (types.Address{0x02}) {
		t.Fatalf("unexpected first page %v", page)
	}
	rest, err := h.engine.Members(page[1], 0)
	if err != nil || len(rest) != 1 || rest[0] != (types.Address{0x03}) {
		t.Fatalf("unexpected second page %v err=%v", rest, err)
	}

	if err := h.engine.RemoveMembers(adminAddr, []types.Address{{0x09}}); !errors.Is(err, perrors.ErrMemberNotFound) {
		t.Fatalf("expected member not found, got %v", err)
	}
	if err := h.engine.RemoveMembers(adminAddr, []types.Address{{0x02}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	count, err := h.engine.MemberCount()
	if err != nil || count != 2 {
		t.Fatalf("member count = %d err=%v", count, err)
	}

	shrunk := cfg
	shrunk.MemberLimit = 1
	if err := h.engine.UpdateConfig(adminAddr, shrunk); !errors.Is(err, perrors.ErrInvalidConfig) {
		t.Fatalf("expected invalid config for limit below member count, got %v", err)
	}
	shrunk.MemberLimit = 2
	if err := h.engine.UpdateConfig(adminAddr, shrunk); err != nil {
		t.Fatalf("limit equal to member count should be accepted: %v", err)
	}
}

func TestMerkleProofs(t *testing.T) {
	addrs := make([]types.Address, 5)
	for i := range addrs {
		addrs[i] = types.Address{byte(i + 1), 0xee}
	}
	root := MerkleRoot(addrs)
	for i, addr := range addrs {
		if !VerifyProof(root, addr, MerkleProof(addrs, i)) {
			t.Fatalf("proof %d does not verify", i)
		}
	}
	if VerifyProof(root, types.Address{0xff}, MerkleProof(addrs, 0)) {
		t.Fatalf("foreign address verified")
	}
	if MerkleRoot(nil) != (common.Hash{}) {
		t.Fatalf("empty tree should have zero root")
	}
	if single := MerkleRoot(addrs[:1]); single != LeafHash(addrs[0]) {
		t.Fatalf("single leaf root mismatch")
	}
	if proof := MerkleProof(addrs[:1], 0); len(proof) != 0 || !VerifyProof(MerkleRoot(addrs[:1]), addrs[0], proof) {
		t.Fatalf("single leaf proof should be empty and verify, got %d siblings", len(proof))
	}
}
