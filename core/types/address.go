package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"passage/crypto"
)

// Address identifies an account on the host chain. The zero value denotes
// "no address" wherever an address is optional.
type Address [crypto.AddressLength]byte

// BytesToAddress copies b into an Address. It fails unless b is exactly 20 bytes.
func BytesToAddress(b []byte) (Address, error) {
	var addr Address
	if len(b) != len(addr) {
		return addr, fmt.Errorf("address must be %d bytes, got %d", len(addr), len(b))
	}
	copy(addr[:], b)
	return addr, nil
}

// ParseAddress decodes a bech32 account address carrying the passage prefix.
func ParseAddress(s string) (Address, error) {
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(s))
	if err != nil {
		return Address{}, err
	}
	if decoded.Prefix() != crypto.PassagePrefix {
		return Address{}, fmt.Errorf("unexpected address prefix %q", decoded.Prefix())
	}
	return BytesToAddress(decoded.Bytes())
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// ModuleAddress derives the deterministic account owned by a native module.
func ModuleAddress(name string) Address {
	var addr Address
	digest := crypto.ModuleDigest(name)
	copy(addr[:], digest[len(digest)-len(addr):])
	return addr
}

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) Bytes() []byte { return append([]byte(nil), a[:]...) }

func (a Address) Equal(other Address) bool { return bytes.Equal(a[:], other[:]) }

func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	return crypto.NewAddress(crypto.PassagePrefix, a[:]).String()
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalYAML renders the bech32 form in genesis files.
func (a Address) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// UnmarshalYAML accepts the bech32 form in genesis files.
func (a *Address) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ContainsAddress reports whether addr is present in list.
func ContainsAddress(list []Address, addr Address) bool {
	for _, candidate := range list {
		if candidate == addr {
			return true
		}
	}
	return false
}
