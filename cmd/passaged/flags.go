package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"passage/core/types"
)

// envFlags carry the block context for one-shot commands.
type envFlags struct {
	Time   int64
	Height uint64
}

func (f envFlags) env(chainID string, contractAddr types.Address) types.Env {
	now := f.Time
	if now <= 0 {
		now = time.Now().Unix()
	}
	return types.Env{
		Block:    types.BlockInfo{Height: f.Height, Time: uint64(now), ChainID: chainID},
		Contract: contractAddr,
	}
}

// parseFunds accepts a comma separated list such as "100ustars,5uatom".
func parseFunds(raw string) (types.Coins, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var coins []types.Coin
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		split := 0
		for split < len(part) && part[split] >= '0' && part[split] <= '9' {
			split++
		}
		if split == 0 || split == len(part) {
			return nil, fmt.Errorf("invalid coin %q: want <amount><denom>", part)
		}
		amount, ok := new(big.Int).SetString(part[:split], 10)
		if !ok {
			return nil, fmt.Errorf("invalid coin amount %q", part[:split])
		}
		coins = append(coins, types.Coin{Denom: types.NormalizeDenom(part[split:]), Amount: amount})
	}
	return types.NewCoins(coins...), nil
}

func parseSender(raw string) (types.Address, error) {
	if strings.TrimSpace(raw) == "" {
		return types.Address{}, fmt.Errorf("--sender is required")
	}
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return types.Address{}, fmt.Errorf("--sender: %w", err)
	}
	return addr, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
