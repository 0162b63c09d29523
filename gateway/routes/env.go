package routes

import (
	"sync/atomic"
	"time"

	"passage/core/types"
)

// EnvSource stamps gateway calls with a block context. The gateway is its own
// host, so every call gets the next height and the wall clock in seconds.
type EnvSource struct {
	chainID  string
	contract types.Address
	height   atomic.Uint64
	now      func() time.Time
}

func NewEnvSource(chainID string, contract types.Address, now func() time.Time) *EnvSource {
	if now == nil {
		now = time.Now
	}
	return &EnvSource{chainID: chainID, contract: contract, now: now}
}

// Next returns the environment for a state-changing call.
func (s *EnvSource) Next() types.Env {
	return s.env(s.height.Add(1))
}

// Current returns the environment for a read.
func (s *EnvSource) Current() types.Env {
	return s.env(s.height.Load())
}

func (s *EnvSource) env(height uint64) types.Env {
	return types.Env{
		Block: types.BlockInfo{
			Height:  height,
			Time:    uint64(s.now().Unix()),
			ChainID: s.chainID,
		},
		Contract: s.contract,
	}
}
