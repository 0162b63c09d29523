package events

import (
	"math/big"
	"strconv"

	"passage/core/types"
)

// FormatAmount renders a possibly nil amount as a decimal string.
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// FormatUint renders counters and timestamps.
func FormatUint(v uint64) string { return strconv.FormatUint(v, 10) }

// FormatAddress renders an address attribute, leaving the zero address empty.
func FormatAddress(addr types.Address) string { return addr.String() }

// New builds an event with the provided attributes, skipping empty values.
func New(eventType string, attrs map[string]string) *types.Event {
	clean := make(map[string]string, len(attrs))
	for key, value := range attrs {
		if value == "" {
			continue
		}
		clean[key] = value
	}
	return &types.Event{Type: eventType, Attributes: clean}
}
