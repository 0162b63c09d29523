package market

import (
	"errors"

	"passage/core/events"
	"passage/core/types"
	"passage/native/bank"
	nativecommon "passage/native/common"
	"passage/native/nft"
	"passage/native/params"
)

// ModuleName identifies the marketplace in events and pause checks.
const ModuleName = "market"

var (
	errNilState = errors.New("market engine: state not configured")
	errNilNFT   = errors.New("market engine: metadata store not configured")
	errNilBank  = errors.New("market engine: bank not configured")
	errNilAdmin = errors.New("market engine: access control not configured")
	errNoParams = errors.New("market engine: params missing")
)

type engineState interface {
	params.StoreState
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVIterate(prefix []byte, fn func(key, value []byte) (bool, error)) error
}

type accessView interface {
	RequireAdmin(caller types.Address) error
	RequireOperator(caller types.Address) error
}

// Engine runs the listing book and the settlement engine over the caller's
// unit of work.
type Engine struct {
	state   engineState
	params  *params.Store
	nft     *nft.Engine
	bank    *bank.Keeper
	access  accessView
	pauses  nativecommon.PauseView
	emitter events.Emitter
	nowFn   func() uint64
}

// NewEngine creates a marketplace engine with a no-op emitter.
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
func (e *Engine) SetAccess(access accessView) { e.access = access }
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
	case e.access == nil:
		return errNilAdmin
	}
	return nil
}

// mutating runs the readiness and pause checks shared by every non-admin
// entry point.
func (e *Engine) mutating() error {
	if err := e.ready(); err != nil {
		return err
	}
	return nativecommon.Guard(e.pauses, ModuleName)
}

// EscrowAccount is the module account physically holding bid funds.
func EscrowAccount() types.Address { return bank.ModuleAccount(bank.ModuleMarketEscrow) }

// Init stores the initial marketplace parameters.
func (e *Engine) Init(p Params) error {
	if e.state == nil {
		return errNilState
	}
	p.Denom = types.NormalizeDenom(p.Denom)
	if err := p.Validate(); err != nil {
		return err
	}
	return e.params.Save(params.ParamsKeyMarket, p)
}

// Params loads the marketplace parameters.
func (e *Engine) Params() (Params, error) {
	if e.state == nil {
		return Params{}, errNilState
	}
	var p Params
	ok, err := e.params.Load(params.ParamsKeyMarket, &p)
	if err != nil {
		return Params{}, err
	}
	if !ok {
		return Params{}, errNoParams
	}
	return p, nil
}

// UpdateParams replaces the marketplace parameters. Admin or operator only.
func (e *Engine) UpdateParams(caller types.Address, p Params) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.access.RequireOperator(caller); err != nil {
		return err
	}
	if err := e.Init(p); err != nil {
		return err
	}
	e.emit(events.New(EventTypeParamsUpdated, map[string]string{
		"denom":    types.NormalizeDenom(p.Denom),
		"minPrice": events.FormatAmount(p.MinPrice.Amount),
	}))
	return nil
}
