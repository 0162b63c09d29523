package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Coin is an amount of a single denomination expressed in base units.
type Coin struct {
	Denom  string
	Amount *big.Int
}

// NewCoin builds a coin from an int64 amount, mostly for tests and defaults.
func NewCoin(denom string, amount int64) Coin {
	return Coin{Denom: NormalizeDenom(denom), Amount: big.NewInt(amount)}
}

// NormalizeDenom canonicalises denominations for comparisons and keys.
func NormalizeDenom(denom string) string {
	return strings.ToLower(strings.TrimSpace(denom))
}

// Clone returns a deep copy with a non-nil amount.
func (c Coin) Clone() Coin {
	clone := Coin{Denom: c.Denom, Amount: big.NewInt(0)}
	if c.Amount != nil {
		clone.Amount = new(big.Int).Set(c.Amount)
	}
	return clone
}

// IsZero reports whether the amount is zero or unset.
func (c Coin) IsZero() bool { return c.Amount == nil || c.Amount.Sign() == 0 }

// IsPositive reports whether the amount is strictly positive.
func (c Coin) IsPositive() bool { return c.Amount != nil && c.Amount.Sign() > 0 }

// Equal compares denomination and amount.
func (c Coin) Equal(other Coin) bool {
	if NormalizeDenom(c.Denom) != NormalizeDenom(other.Denom) {
		return false
	}
	return c.Clone().Amount.Cmp(other.Clone().Amount) == 0
}

// Validate rejects empty denominations and negative amounts.
func (c Coin) Validate() error {
	if NormalizeDenom(c.Denom) == "" {
		return fmt.Errorf("coin denom must not be empty")
	}
	if c.Amount != nil && c.Amount.Sign() < 0 {
		return fmt.Errorf("coin amount must be non-negative")
	}
	return nil
}

func (c Coin) String() string {
	return c.Clone().Amount.String() + NormalizeDenom(c.Denom)
}

type coinJSON struct {
	Denom  string `json:"denom" yaml:"denom"`
	Amount string `json:"amount" yaml:"amount"`
}

// MarshalJSON renders the amount as a decimal string so large values survive
// JSON number handling in clients.
func (c Coin) MarshalJSON() ([]byte, error) {
	return json.Marshal(coinJSON{Denom: NormalizeDenom(c.Denom), Amount: c.Clone().Amount.String()})
}

func (c *Coin) UnmarshalJSON(data []byte) error {
	var raw coinJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return c.fromRaw(raw)
}

func (c Coin) MarshalYAML() (interface{}, error) {
	return coinJSON{Denom: NormalizeDenom(c.Denom), Amount: c.Clone().Amount.String()}, nil
}

func (c *Coin) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw coinJSON
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return c.fromRaw(raw)
}

func (c *Coin) fromRaw(raw coinJSON) error {
	amount := big.NewInt(0)
	if trimmed := strings.TrimSpace(raw.Amount); trimmed != "" {
		if _, ok := amount.SetString(trimmed, 10); !ok {
			return fmt.Errorf("invalid coin amount %q", raw.Amount)
		}
	}
	c.Denom = NormalizeDenom(raw.Denom)
	c.Amount = amount
	return nil
}

// Coins is a list of coins with at most one entry per denomination.
type Coins []Coin

// NewCoins merges duplicate denominations and drops zero entries.
func NewCoins(coins ...Coin) Coins {
	totals := make(map[string]*big.Int)
	for _, coin := range coins {
		if coin.IsZero() {
			continue
		}
		denom := NormalizeDenom(coin.Denom)
		if _, ok := totals[denom]; !ok {
			totals[denom] = big.NewInt(0)
		}
		totals[denom].Add(totals[denom], coin.Amount)
	}
	out := make(Coins, 0, len(totals))
	for denom, amount := range totals {
		out = append(out, Coin{Denom: denom, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Denom < out[j].Denom })
	return out
}

// AmountOf returns the amount for denom, or zero.
func (cs Coins) AmountOf(denom string) *big.Int {
	normalized := NormalizeDenom(denom)
	total := big.NewInt(0)
	for _, coin := range cs {
		if NormalizeDenom(coin.Denom) == normalized && coin.Amount != nil {
			total.Add(total, coin.Amount)
		}
	}
	return total
}

// Validate checks every entry.
func (cs Coins) Validate() error {
	for _, coin := range cs {
		if err := coin.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// OnlyDenom reports whether every non-zero coin uses denom.
func (cs Coins) OnlyDenom(denom string) bool {
	normalized := NormalizeDenom(denom)
	for _, coin := range cs {
		if coin.IsZero() {
			continue
		}
		if NormalizeDenom(coin.Denom) != normalized {
			return false
		}
	}
	return true
}

func (cs Coins) String() string {
	parts := make([]string, 0, len(cs))
	for _, coin := range cs {
		parts = append(parts, coin.String())
	}
	return strings.Join(parts, ",")
}
