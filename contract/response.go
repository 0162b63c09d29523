package contract

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"passage/core/events"
	"passage/core/types"
)

// Transfer is one committed fund movement.
type Transfer struct {
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Coin   types.Coin    `json:"coin"`
	Reason string        `json:"reason,omitempty"`
}

// Response is returned for every committed call.
type Response struct {
	RequestID string          `json:"requestId,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Events    []*types.Event  `json:"events"`
	Transfers []Transfer      `json:"transfers"`
	Data      json.RawMessage `json:"data,omitempty"`
	Changeset common.Hash     `json:"changeset"`
}

// EventsOfType filters the response events.
func (r *Response) EventsOfType(eventType string) []*types.Event {
	if r == nil {
		return nil
	}
	var out []*types.Event
	for _, evt := range r.Events {
		if evt != nil && evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

// transferLog collects bank transfers in emission order.
type transferLog struct {
	entries []Transfer
}

func (l *transferLog) Emit(evt events.Event) {
	transfer, ok := evt.(events.Transfer)
	if !ok {
		return
	}
	l.entries = append(l.entries, Transfer{
		From:   transfer.From,
		To:     transfer.To,
		Coin:   types.Coin{Denom: transfer.Denom, Amount: transfer.Amount},
		Reason: transfer.Reason,
	})
}
