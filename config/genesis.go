package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"passage/contract"
)

// Genesis is the YAML document used by `passaged init` to instantiate the
// contract on a fresh data directory.
type Genesis struct {
	ChainID  string                  `yaml:"chain_id"`
	Time     uint64                  `yaml:"genesis_time"`
	Contract contract.InstantiateMsg `yaml:"contract"`
}

// LoadGenesis reads and decodes a genesis file. Unknown fields are rejected so
// typos surface instead of silently defaulting.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGenesis(data)
}

// ParseGenesis decodes a genesis document.
func ParseGenesis(data []byte) (*Genesis, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var gen Genesis
	if err := dec.Decode(&gen); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	if gen.Contract.Admin.IsZero() {
		return nil, fmt.Errorf("genesis: contract.admin required")
	}
	return &gen, nil
}

// WriteGenesis encodes gen to path.
func WriteGenesis(path string, gen *Genesis) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(gen); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
