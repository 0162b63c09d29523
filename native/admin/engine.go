package admin

import (
	"errors"
	"fmt"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/types"
	"passage/native/params"
)

// ModuleName identifies the admin module in pause checks and events.
const ModuleName = "admin"

const (
	EventTypePaused           = "admin.paused"
	EventTypeUnpaused         = "admin.unpaused"
	EventTypeAdminTransferred = "admin.transferred"
	EventTypeOperatorsUpdated = "admin.operators_updated"
)

var errNilState = errors.New("admin engine: state not configured")

// Config is the singleton access-control record.
type Config struct {
	Admin     types.Address   `json:"admin"`
	Operators []types.Address `json:"operators,omitempty"`
	Paused    bool            `json:"paused"`
}

// Validate rejects a missing admin and duplicate operators.
func (c Config) Validate() error {
	if c.Admin.IsZero() {
		return fmt.Errorf("%w: admin must be set", perrors.ErrInvalidConfig)
	}
	seen := make(map[types.Address]struct{}, len(c.Operators))
	for _, op := range c.Operators {
		if op.IsZero() {
			return fmt.Errorf("%w: operator must be set", perrors.ErrInvalidConfig)
		}
		if _, dup := seen[op]; dup {
			return fmt.Errorf("%w: duplicate operator %s", perrors.ErrInvalidConfig, op)
		}
		seen[op] = struct{}{}
	}
	return nil
}

// Engine guards privileged entry points and owns the pause switch.
type Engine struct {
	params  *params.Store
	emitter events.Emitter
}

// NewEngine creates an admin engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the parameter backend used by the engine.
func (e *Engine) SetState(state params.StoreState) { e.params = params.NewStore(state) }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

// Init stores the initial access-control record.
func (e *Engine) Init(cfg Config) error {
	if e.params == nil {
		return errNilState
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return e.params.Save(params.ParamsKeyAdmin, cfg)
}

// Config loads the access-control record.
func (e *Engine) Config() (Config, error) {
	if e.params == nil {
		return Config{}, errNilState
	}
	var cfg Config
	ok, err := e.params.Load(params.ParamsKeyAdmin, &cfg)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, fmt.Errorf("%w: admin config missing", perrors.ErrInvalidConfig)
	}
	return cfg, nil
}

// RequireAdmin fails with ErrUnauthorized unless caller is the admin.
func (e *Engine) RequireAdmin(caller types.Address) error {
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	if caller.IsZero() || caller != cfg.Admin {
		return fmt.Errorf("admin: %w", perrors.ErrUnauthorized)
	}
	return nil
}

// RequireOperator accepts the admin or any configured operator.
func (e *Engine) RequireOperator(caller types.Address) error {
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	if caller.IsZero() {
		return fmt.Errorf("operator: %w", perrors.ErrUnauthorized)
	}
	if caller == cfg.Admin || types.ContainsAddress(cfg.Operators, caller) {
		return nil
	}
	return fmt.Errorf("operator: %w", perrors.ErrUnauthorized)
}

// IsPaused implements common.PauseView. The pause switch covers every module.
func (e *Engine) IsPaused(string) (bool, error) {
	cfg, err := e.Config()
	if err != nil {
		return false, err
	}
	return cfg.Paused, nil
}

// Pause stops all non-admin mutating entry points. Pausing twice is a no-op.
func (e *Engine) Pause(caller types.Address) error {
	return e.setPaused(caller, true)
}

// Unpause re-enables mutating entry points.
func (e *Engine) Unpause(caller types.Address) error {
	return e.setPaused(caller, false)
}

func (e *Engine) setPaused(caller types.Address, paused bool) error {
	if err := e.RequireAdmin(caller); err != nil {
		return err
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	if cfg.Paused == paused {
		return nil
	}
	cfg.Paused = paused
	if err := e.params.Save(params.ParamsKeyAdmin, cfg); err != nil {
		return err
	}
	eventType := EventTypeUnpaused
	if paused {
		eventType = EventTypePaused
	}
	e.emit(events.New(eventType, map[string]string{"by": caller.String()}))
	return nil
}

// TransferAdmin hands the admin role to next.
func (e *Engine) TransferAdmin(caller, next types.Address) error {
	if err := e.RequireAdmin(caller); err != nil {
		return err
	}
	if next.IsZero() {
		return fmt.Errorf("%w: new admin must be set", perrors.ErrInvalidConfig)
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	cfg.Admin = next
	if err := e.params.Save(params.ParamsKeyAdmin, cfg); err != nil {
		return err
	}
	e.emit(events.New(EventTypeAdminTransferred, map[string]string{
		"previous": caller.String(),
		"admin":    next.String(),
	}))
	return nil
}

// SetOperators replaces the operator set.
func (e *Engine) SetOperators(caller types.Address, operators []types.Address) error {
	if err := e.RequireAdmin(caller); err != nil {
		return err
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	cfg.Operators = append([]types.Address(nil), operators...)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := e.params.Save(params.ParamsKeyAdmin, cfg); err != nil {
		return err
	}
	e.emit(events.New(EventTypeOperatorsUpdated, map[string]string{
		"count": events.FormatUint(uint64(len(cfg.Operators))),
	}))
	return nil
}
