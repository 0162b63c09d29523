package bank

import (
	"errors"
	"fmt"
	"math/big"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/types"
)

var errNilState = errors.New("bank: state not configured")

var (
	balancePrefix = []byte("bank/balance/")
	supplyPrefix  = []byte("bank/supply/")
)

// Module account names.
const (
	ModuleMarketEscrow = "market_escrow"
	ModuleMinter       = "minter"
)

type bankState interface {
	BigGet(key []byte) (*big.Int, error)
	BigPut(key []byte, value *big.Int) error
	KVIterate(prefix []byte, fn func(key, value []byte) (bool, error)) error
}

// BalanceKey is bank/balance/<addr>/<denom>.
func BalanceKey(addr types.Address, denom string) []byte {
	denom = types.NormalizeDenom(denom)
	buf := make([]byte, 0, len(balancePrefix)+len(addr)+1+len(denom))
	buf = append(buf, balancePrefix...)
	buf = append(buf, addr[:]...)
	buf = append(buf, '/')
	return append(buf, denom...)
}

func supplyKey(denom string) []byte {
	return append(append([]byte(nil), supplyPrefix...), types.NormalizeDenom(denom)...)
}

// Keeper tracks fungible balances on behalf of the host chain. Every movement
// is written through the caller's unit of work, so a failed call leaves no
// balance change behind.
type Keeper struct {
	state   bankState
	emitter events.Emitter
	blocked map[types.Address]struct{}
}

// NewKeeper creates a keeper with a no-op emitter.
func NewKeeper() *Keeper {
	return &Keeper{emitter: events.NoopEmitter{}, blocked: make(map[types.Address]struct{})}
}

// SetState configures the state backend.
func (k *Keeper) SetState(state bankState) { k.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (k *Keeper) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		k.emitter = events.NoopEmitter{}
		return
	}
	k.emitter = emitter
}

// SetBlocked replaces the set of addresses that refuse incoming transfers.
func (k *Keeper) SetBlocked(addrs []types.Address) {
	k.blocked = make(map[types.Address]struct{}, len(addrs))
	for _, addr := range addrs {
		k.blocked[addr] = struct{}{}
	}
}

// IsBlocked reports whether addr refuses incoming transfers.
func (k *Keeper) IsBlocked(addr types.Address) bool {
	_, ok := k.blocked[addr]
	return ok
}

// ModuleAccount returns the deterministic address of a module account.
func ModuleAccount(name string) types.Address { return types.ModuleAddress(name) }

// Balance returns the balance of addr in denom.
func (k *Keeper) Balance(addr types.Address, denom string) (*big.Int, error) {
	if k.state == nil {
		return nil, errNilState
	}
	return k.state.BigGet(BalanceKey(addr, denom))
}

// Balances lists every non-zero balance of addr.
func (k *Keeper) Balances(addr types.Address) (types.Coins, error) {
	if k.state == nil {
		return nil, errNilState
	}
	prefix := append(append([]byte(nil), balancePrefix...), addr[:]...)
	prefix = append(prefix, '/')
	var coins types.Coins
	err := k.state.KVIterate(prefix, func(key, _ []byte) (bool, error) {
		denom := string(key[len(prefix):])
		amount, err := k.state.BigGet(key)
		if err != nil {
			return false, err
		}
		coins = append(coins, types.Coin{Denom: denom, Amount: amount})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return types.NewCoins(coins...), nil
}

// Supply returns the total minted amount of denom.
func (k *Keeper) Supply(denom string) (*big.Int, error) {
	if k.state == nil {
		return nil, errNilState
	}
	return k.state.BigGet(supplyKey(denom))
}

// Mint credits new funds to addr. Used for genesis allocations.
func (k *Keeper) Mint(to types.Address, coin types.Coin) error {
	if k.state == nil {
		return errNilState
	}
	if err := coin.Validate(); err != nil {
		return err
	}
	if !coin.IsPositive() {
		return perrors.ErrZeroAmount
	}
	if err := k.credit(to, coin); err != nil {
		return err
	}
	total, err := k.state.BigGet(supplyKey(coin.Denom))
	if err != nil {
		return err
	}
	total.Add(total, coin.Amount)
	if err := k.state.BigPut(supplyKey(coin.Denom), total); err != nil {
		return err
	}
	k.emitter.Emit(events.TokenSupply{Denom: coin.Denom, Total: total, Delta: coin.Clone().Amount, Reason: events.SupplyReasonMint})
	return nil
}

// Send moves coin from one account to another. Zero amounts are a no-op.
func (k *Keeper) Send(from, to types.Address, coin types.Coin, reason string) error {
	if k.state == nil {
		return errNilState
	}
	if err := coin.Validate(); err != nil {
		return err
	}
	if coin.IsZero() {
		return nil
	}
	if k.IsBlocked(to) {
		return fmt.Errorf("bank: send to %s: %w", to, perrors.ErrTransferRejected)
	}
	if from == to {
		return nil
	}
	balance, err := k.state.BigGet(BalanceKey(from, coin.Denom))
	if err != nil {
		return err
	}
	if balance.Cmp(coin.Amount) < 0 {
		return fmt.Errorf("bank: %s has %s%s, needs %s: %w", from, balance, coin.Denom, coin.Amount, perrors.ErrInsufficientFund)
	}
	balance.Sub(balance, coin.Amount)
	if err := k.state.BigPut(BalanceKey(from, coin.Denom), balance); err != nil {
		return err
	}
	if err := k.credit(to, coin); err != nil {
		return err
	}
	k.emitter.Emit(events.Transfer{Denom: coin.Denom, From: from, To: to, Amount: coin.Clone().Amount, Reason: reason})
	return nil
}

// SendCoins moves every coin in coins from one account to another.
func (k *Keeper) SendCoins(from, to types.Address, coins types.Coins, reason string) error {
	for _, coin := range coins {
		if err := k.Send(from, to, coin, reason); err != nil {
			return err
		}
	}
	return nil
}

func (k *Keeper) credit(to types.Address, coin types.Coin) error {
	balance, err := k.state.BigGet(BalanceKey(to, coin.Denom))
	if err != nil {
		return err
	}
	balance.Add(balance, coin.Amount)
	return k.state.BigPut(BalanceKey(to, coin.Denom), balance)
}
