package bank

import (
	"fmt"
	"math/big"

	perrors "passage/core/errors"
	"passage/core/types"
)

// Payment tracks the funds attached to one call after they were moved into the
// contract account. Handlers Take what they consume; whatever remains is
// refunded to the payer when the call succeeds.
type Payment struct {
	Payer     types.Address
	Holder    types.Address
	remaining map[string]*big.Int
}

// NewPayment wraps funds held by holder on behalf of payer.
func NewPayment(payer, holder types.Address, funds types.Coins) *Payment {
	p := &Payment{Payer: payer, Holder: holder, remaining: make(map[string]*big.Int)}
	for _, coin := range types.NewCoins(funds...) {
		p.remaining[coin.Denom] = new(big.Int).Set(coin.Amount)
	}
	return p
}

// Amount returns the untaken amount of denom.
func (p *Payment) Amount(denom string) *big.Int {
	if p == nil {
		return big.NewInt(0)
	}
	if amount, ok := p.remaining[types.NormalizeDenom(denom)]; ok {
		return new(big.Int).Set(amount)
	}
	return big.NewInt(0)
}

// Take consumes coin from the attached funds.
func (p *Payment) Take(coin types.Coin) error {
	if coin.IsZero() {
		return nil
	}
	available := p.Amount(coin.Denom)
	if available.Cmp(coin.Amount) < 0 {
		return fmt.Errorf("attached %s%s, need %s: %w", available, coin.Denom, coin, perrors.ErrInsufficientPayment)
	}
	p.remaining[types.NormalizeDenom(coin.Denom)] = available.Sub(available, coin.Amount)
	return nil
}

// Remaining lists the untaken funds.
func (p *Payment) Remaining() types.Coins {
	if p == nil {
		return nil
	}
	coins := make([]types.Coin, 0, len(p.remaining))
	for denom, amount := range p.remaining {
		coins = append(coins, types.Coin{Denom: denom, Amount: new(big.Int).Set(amount)})
	}
	return types.NewCoins(coins...)
}

// Settle refunds the untaken funds to the payer.
func (p *Payment) Settle(k *Keeper) error {
	if p == nil {
		return nil
	}
	return k.SendCoins(p.Holder, p.Payer, p.Remaining(), "refund")
}
