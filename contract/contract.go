package contract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/mod/semver"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/state"
	"passage/core/types"
	"passage/native/admin"
	"passage/native/bank"
	"passage/native/fees"
	"passage/native/market"
	"passage/native/minter"
	"passage/native/nft"
	"passage/native/params"
	"passage/observability/otel"
	"passage/storage"
)

const (
	// ContractName is recorded in contract_info at instantiation.
	ContractName = "crates.io:passage-marketplace"
	// ContractVersion is the version written by Instantiate.
	ContractVersion = "1.0.0"

	EventTypeInstantiated = "contract.instantiated"
	EventTypeMigrated     = "contract.migrated"
)

var contractInfoKey = []byte("contract_info")

// DefaultAddress is the contract account used when the environment does not
// name one.
var DefaultAddress = types.ModuleAddress("passage")

// Info is the stored contract identity.
type Info struct {
	Name    string        `json:"name"`
	Version string        `json:"version"`
	Address types.Address `json:"address"`
}

// Contract routes entry points to the native engines. Every call runs in its
// own state.Tx: a successful call commits its write set, a failing one leaves
// the database untouched. Calls are serialised.
type Contract struct {
	db     storage.Database
	mu     sync.Mutex
	logger *slog.Logger
	tracer trace.Tracer

	admin  *admin.Engine
	nft    *nft.Engine
	bank   *bank.Keeper
	minter *minter.Engine
	market *market.Engine
}

// Option customises a Contract.
type Option func(*Contract)

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Contract) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBlockedRecipients makes every transfer to addrs fail.
func WithBlockedRecipients(addrs []types.Address) Option {
	return func(c *Contract) { c.bank.SetBlocked(addrs) }
}

// New wires the engines over db.
func New(db storage.Database, opts ...Option) *Contract {
	c := &Contract{
		db:     db,
		logger: slog.Default(),
		tracer: otel.Tracer("contract"),
		admin:  admin.NewEngine(),
		nft:    nft.NewEngine(),
		bank:   bank.NewKeeper(),
		minter: minter.NewEngine(),
		market: market.NewEngine(),
	}
	c.minter.SetNFT(c.nft)
	c.minter.SetBank(c.bank)
	c.minter.SetAdmin(c.admin)
	c.minter.SetPauses(c.admin)
	c.market.SetNFT(c.nft)
	c.market.SetBank(c.bank)
	c.market.SetAccess(c.admin)
	c.market.SetPauses(c.admin)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// unit is one call's view of state.
type unit struct {
	tx       *state.Tx
	mgr      *state.Manager
	recorder *events.Recorder
	ledger   *transferLog
	hooks    []func()
}

// onCommit schedules fn to run only if the unit commits.
func (u *unit) onCommit(fn func()) { u.hooks = append(u.hooks, fn) }

// begin opens a unit of work and points every engine at it. Callers hold mu.
func (c *Contract) begin(env types.Env) *unit {
	tx := state.NewTx(c.db)
	u := &unit{
		tx:       tx,
		mgr:      state.NewManager(tx),
		recorder: events.NewRecorder(),
		ledger:   &transferLog{},
	}
	emitter := events.Fanout{u.recorder, u.ledger}
	now := env.Now()
	clock := func() uint64 { return now }

	c.admin.SetState(u.mgr)
	c.admin.SetEmitter(emitter)
	c.nft.SetState(u.mgr)
	c.nft.SetEmitter(emitter)
	c.nft.SetNowFunc(clock)
	c.bank.SetState(u.mgr)
	c.bank.SetEmitter(emitter)
	c.minter.SetState(u.mgr)
	c.minter.SetEmitter(emitter)
	c.minter.SetNowFunc(clock)
	c.market.SetState(u.mgr)
	c.market.SetEmitter(emitter)
	c.market.SetNowFunc(clock)
	return u
}

// finish commits the unit when err is nil and discards it otherwise.
func (u *unit) finish(err error) (*Response, error) {
	if err != nil {
		u.tx.Discard()
		return nil, err
	}
	digest, err := u.tx.Commit()
	if err != nil {
		return nil, err
	}
	for _, hook := range u.hooks {
		hook()
	}
	return &Response{
		Events:    u.recorder.Events(),
		Transfers: u.ledger.entries,
		Changeset: digest,
	}, nil
}

func contractAddress(env types.Env) types.Address {
	if env.Contract.IsZero() {
		return DefaultAddress
	}
	return env.Contract
}

func loadInfo(mgr *state.Manager) (Info, bool, error) {
	var stored Info
	ok, err := mgr.KVGet(contractInfoKey, &stored)
	if err != nil || !ok {
		return Info{}, false, err
	}
	return stored, true, nil
}

func saveInfo(mgr *state.Manager, info Info) error {
	return mgr.KVPut(contractInfoKey, info)
}

// Instantiate performs one-time setup. A second call fails with
// ErrInvalidConfig.
func (c *Contract) Instantiate(ctx context.Context, env types.Env, info types.MessageInfo, msg InstantiateMsg) (*Response, error) {
	_, span := c.tracer.Start(ctx, "contract.instantiate",
		trace.WithAttributes(attribute.String("passage.sender", info.Sender.String())))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()
	u := c.begin(env)
	resp, err := u.finish(c.instantiate(u, env, msg))
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("instantiate rejected", slog.String("error", err.Error()))
		return nil, err
	}
	c.logger.Info("contract instantiated",
		slog.String("component", "contract"),
		slog.String("name", strings.TrimSpace(msg.Name)),
		slog.String("admin", msg.Admin.String()))
	return resp, nil
}

func (c *Contract) instantiate(u *unit, env types.Env, msg InstantiateMsg) error {
	if _, exists, err := loadInfo(u.mgr); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("%w: contract already instantiated", perrors.ErrInvalidConfig)
	}
	if err := state.EnsureStateVersion(u.mgr, false); err != nil {
		return err
	}
	address := contractAddress(env)
	if err := saveInfo(u.mgr, Info{Name: ContractName, Version: ContractVersion, Address: address}); err != nil {
		return err
	}
	if err := c.admin.Init(admin.Config{Admin: msg.Admin, Operators: msg.Operators}); err != nil {
		return err
	}
	creator := msg.Creator
	if creator.IsZero() {
		creator = msg.Admin
	}
	if err := c.nft.SetCollection(nft.Collection{
		Address: address,
		Name:    strings.TrimSpace(msg.Name),
		Symbol:  strings.TrimSpace(msg.Symbol),
		Creator: creator,
		BaseURI: strings.TrimSpace(msg.BaseURI),
	}); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrInvalidConfig, err)
	}
	if err := c.minter.Init(msg.Mint); err != nil {
		return err
	}
	if err := fees.SaveSchedule(params.NewStore(u.mgr), msg.Fees); err != nil {
		return err
	}
	if err := c.market.Init(msg.Market); err != nil {
		return err
	}
	if len(msg.Members) > 0 {
		if err := c.minter.AddMembers(msg.Admin, msg.Members); err != nil {
			return err
		}
	}
	for _, balance := range msg.Balances {
		for _, coin := range balance.Coins {
			if err := c.bank.Mint(balance.Address, coin); err != nil {
				return err
			}
		}
	}
	u.recorder.Emit(events.Wrap(events.New(EventTypeInstantiated, map[string]string{
		"name":    ContractName,
		"version": ContractVersion,
		"address": address.String(),
	})))
	return nil
}

// Migrate upgrades the stored version. Admin only. Downgrades are rejected;
// re-applying the current version is allowed so an interrupted upgrade can be
// retried. Tokens, asks, bids and escrow are never rewritten.
func (c *Contract) Migrate(ctx context.Context, env types.Env, info types.MessageInfo, msg MigrateMsg) (*Response, error) {
	_, span := c.tracer.Start(ctx, "contract.migrate",
		trace.WithAttributes(attribute.String("passage.version", msg.Version)))
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()
	u := c.begin(env)
	resp, err := u.finish(c.migrate(u, info.Sender, msg))
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("migrate rejected", slog.String("error", err.Error()), slog.String("version", msg.Version))
		return nil, err
	}
	c.logger.Info("contract migrated", slog.String("component", "contract"), slog.String("version", msg.Version))
	return resp, nil
}

func canonicalVersion(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("%w: invalid version %q", perrors.ErrInvalidConfig, raw)
	}
	return v, nil
}

func (c *Contract) migrate(u *unit, sender types.Address, msg MigrateMsg) error {
	stored, ok, err := loadInfo(u.mgr)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: contract not instantiated", perrors.ErrInvalidConfig)
	}
	if err := c.admin.RequireAdmin(sender); err != nil {
		return err
	}
	next, err := canonicalVersion(msg.Version)
	if err != nil {
		return err
	}
	current, err := canonicalVersion(stored.Version)
	if err != nil {
		return err
	}
	if semver.Compare(next, current) < 0 {
		return fmt.Errorf("contract at %s, migrate to %s: %w", stored.Version, msg.Version, perrors.ErrVersionDowngrade)
	}
	if err := state.EnsureStateVersion(u.mgr, true); err != nil {
		return err
	}
	if msg.NumMintableTokens != nil {
		if err := c.minter.SetMaxMintable(*msg.NumMintableTokens); err != nil {
			return err
		}
	}
	stored.Version = strings.TrimPrefix(next, "v")
	if err := saveInfo(u.mgr, stored); err != nil {
		return err
	}
	attrs := map[string]string{"from": strings.TrimPrefix(current, "v"), "to": stored.Version}
	if msg.NumMintableTokens != nil {
		attrs["maxMintableTokens"] = events.FormatUint(*msg.NumMintableTokens)
	}
	u.recorder.Emit(events.Wrap(events.New(EventTypeMigrated, attrs)))
	return nil
}
