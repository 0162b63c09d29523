package minter

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/types"
	"passage/native/bank"
	nativecommon "passage/native/common"
	"passage/native/fees"
	"passage/native/nft"
	"passage/native/params"
)

// ModuleName identifies the minter in events and pause checks.
const ModuleName = "minter"

var (
	errNilState   = errors.New("minter engine: state not configured")
	errNilNFT     = errors.New("minter engine: metadata store not configured")
	errNilBank    = errors.New("minter engine: bank not configured")
	errNilAdmin   = errors.New("minter engine: access control not configured")
	errNoConfig   = errors.New("minter engine: mint config missing")
	errNilPayment = errors.New("minter engine: payment not provided")
)

type engineState interface {
	params.StoreState
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVIterate(prefix []byte, fn func(key, value []byte) (bool, error)) error
	Counter(name string) (uint64, error)
	SetCounter(name string, value uint64) error
}

type adminView interface {
	RequireAdmin(caller types.Address) error
}

// Engine enforces the mint cap, phase gating and payment collection.
type Engine struct {
	state   engineState
	params  *params.Store
	nft     *nft.Engine
	bank    *bank.Keeper
	admin   adminView
	pauses  nativecommon.PauseView
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine creates a minter engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) {
	e.state = state
	e.params = params.NewStore(state)
}

func (e *Engine) SetNFT(store *nft.Engine) { e.nft = store }
func (e *Engine) SetBank(keeper *bank.Keeper) { e.bank = keeper }
func (e *Engine) SetAdmin(admin adminView) { e.admin = admin }
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }
func (e *Engine) SetNowFunc(now func() uint64) { e.nowFn = now }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) now() uint64 {
	if e.nowFn == nil {
		return 0
	}
	return e.nowFn()
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

func (e *Engine) ready() error {
	switch {
	case e.state == nil:
		return errNilState
	case e.nft == nil:
		return errNilNFT
	case e.bank == nil:
		return errNilBank
	case e.admin == nil:
		return errNilAdmin
	}
	return nil
}

// Init stores the initial config without an admin check.
func (e *Engine) Init(cfg Config) error {
	if err := e.ready(); err != nil {
		return err
	}
	cfg.UnitPrice.Denom = types.NormalizeDenom(cfg.UnitPrice.Denom)
	supply, err := e.nft.Supply()
	if err != nil {
		return err
	}
	if err := cfg.Validate(supply); err != nil {
		return err
	}
	return e.params.Save(params.ParamsKeyMinter, cfg)
}

// Config loads the mint configuration.
func (e *Engine) Config() (Config, error) {
	if e.state == nil {
		return Config{}, errNilState
	}
	var cfg Config
	ok, err := e.params.Load(params.ParamsKeyMinter, &cfg)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, errNoConfig
	}
	return cfg, nil
}

// UpdateConfig replaces the mint configuration. Admin only; the new cap may
// not drop below the minted supply.
func (e *Engine) UpdateConfig(caller types.Address, cfg Config) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.admin.RequireAdmin(caller); err != nil {
		return err
	}
	members, err := e.MemberCount()
	if err != nil {
		return err
	}
	if cfg.MemberLimit != 0 && uint64(cfg.MemberLimit) < members {
		return fmt.Errorf("%w: member limit %d below current %d members", perrors.ErrInvalidConfig, cfg.MemberLimit, members)
	}
	if err := e.Init(cfg); err != nil {
		return err
	}
	e.emit(events.New(EventTypeConfigUpdated, map[string]string{
		"maxMintableTokens": events.FormatUint(cfg.MaxMintableTokens),
		"unitPrice":         cfg.UnitPrice.String(),
		"phase":             string(cfg.Phase),
	}))
	return nil
}

// SetMaxMintable changes only the cap. Used by migrations.
func (e *Engine) SetMaxMintable(maxTokens uint64) error {
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	cfg.MaxMintableTokens = maxTokens
	return e.Init(cfg)
}

// Mint issues the next token to caller. The supply check, the phase gate, the
// payment and the token creation run inside the caller's unit of work; any
// failure leaves no trace.
func (e *Engine) Mint(caller types.Address, payment *bank.Payment, proof []common.Hash) (*nft.Token, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errNilPayment
	}
	if err := nativecommon.Guard(e.pauses, ModuleName); err != nil {
		return nil, err
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	supply, err := e.nft.Supply()
	if err != nil {
		return nil, err
	}
	if supply >= cfg.MaxMintableTokens {
		return nil, fmt.Errorf("minter: %w", perrors.ErrSupplyExhausted)
	}
	if err := e.checkPhase(cfg, caller, proof); err != nil {
		return nil, err
	}
	minted, err := e.MintedBy(caller)
	if err != nil {
		return nil, err
	}
	if cfg.PerAddressLimit > 0 && minted >= uint64(cfg.PerAddressLimit) {
		return nil, fmt.Errorf("minter: %s minted %d: %w", caller, minted, perrors.ErrPerAddressLimit)
	}
	if err := payment.Take(cfg.UnitPrice); err != nil {
		return nil, fmt.Errorf("minter: %w", err)
	}

	token, err := e.nft.MintNext(caller, "", nil, cfg.MaxMintableTokens)
	if err != nil {
		return nil, err
	}
	if err := e.state.KVPut(MintedKey(caller), minted+1); err != nil {
		return nil, err
	}
	if cfg.UnitPrice.IsPositive() {
		schedule, err := fees.LoadSchedule(e.params)
		if err != nil {
			return nil, err
		}
		split, err := schedule.Split(cfg.UnitPrice.Amount)
		if err != nil {
			return nil, err
		}
		if err := fees.Disburse(e.bank, payment.Holder, cfg.UnitPrice.Denom, split, cfg.PaymentRecipient, "mint"); err != nil {
			return nil, err
		}
	}
	e.emit(events.New(EventTypeMinted, map[string]string{
		"tokenId": events.FormatUint(token.ID),
		"minter":  caller.String(),
		"price":   cfg.UnitPrice.String(),
		"phase":   string(cfg.Phase),
	}))
	return token, nil
}

func (e *Engine) checkPhase(cfg Config, caller types.Address, proof []common.Hash) error {
	if cfg.Phase == PhaseClosed || !cfg.InWindow(e.now()) {
		return fmt.Errorf("minter: %w", perrors.ErrPhaseClosed)
	}
	if cfg.Phase == PhasePublic {
		return nil
	}
	member, err := e.HasMember(caller)
	if err != nil {
		return err
	}
	if member {
		return nil
	}
	if cfg.HasRoot() && VerifyProof(cfg.WhitelistRoot, caller, proof) {
		return nil
	}
	return fmt.Errorf("minter: %s not whitelisted: %w", caller, perrors.ErrPhaseClosed)
}

// MintedBy returns the number of tokens addr minted.
func (e *Engine) MintedBy(addr types.Address) (uint64, error) {
	if e.state == nil {
		return 0, errNilState
	}
	var minted uint64
	if _, err := e.state.KVGet(MintedKey(addr), &minted); err != nil {
		return 0, err
	}
	return minted, nil
}
