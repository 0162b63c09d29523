package config

import (
	"fmt"
	"strings"

	"passage/core/types"
	"passage/crypto"
	"passage/storage"
)

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" && c.Backend != storage.BackendMemory {
		return fmt.Errorf("config: DataDir required for backend %q", c.Backend)
	}
	// Addresses are encoded with a fixed human-readable part.
	if c.AddressPrefix != string(crypto.PassagePrefix) {
		return fmt.Errorf("config: AddressPrefix must be %q", crypto.PassagePrefix)
	}
	switch c.Backend {
	case storage.BackendMemory, storage.BackendLevelDB, storage.BackendBadger, storage.BackendBolt:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Backend)
	}
	if c.ContractAddress != "" {
		if _, err := types.ParseAddress(c.ContractAddress); err != nil {
			return fmt.Errorf("config: ContractAddress: %w", err)
		}
	}
	if _, err := c.Blocked(); err != nil {
		return err
	}
	if c.Gateway.RateLimitPerSecond < 0 || c.Gateway.RateLimitBurst < 0 {
		return fmt.Errorf("gateway: rate limits must be non-negative")
	}
	if c.Gateway.RateLimitPerSecond > 0 && c.Gateway.RateLimitBurst == 0 {
		return fmt.Errorf("gateway: RateLimitBurst required when RateLimitPerSecond is set")
	}
	if c.Gateway.JWT.Enable && strings.TrimSpace(c.Gateway.JWT.SecretEnv) == "" {
		return fmt.Errorf("gateway.jwt: SecretEnv required when enabled")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0, 1]")
	}
	return nil
}

// Blocked parses BlockedRecipients.
func (c *Config) Blocked() ([]types.Address, error) {
	out := make([]types.Address, 0, len(c.BlockedRecipients))
	for _, raw := range c.BlockedRecipients {
		addr, err := types.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("config: BlockedRecipients %q: %w", raw, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

// Contract returns the configured contract address, or the zero address.
func (c *Config) Contract() types.Address {
	addr, err := types.ParseAddress(c.ContractAddress)
	if err != nil {
		return types.Address{}
	}
	return addr
}
