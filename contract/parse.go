package contract

import (
	"bytes"
	"encoding/json"
	"fmt"

	perrors "passage/core/errors"
)

func decodeStrict(data []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", perrors.ErrUnknownMessage, err)
	}
	return nil
}

// ParseExecuteMsg decodes a JSON execute message, rejecting unknown variants
// and fields.
func ParseExecuteMsg(data []byte) (ExecuteMsg, error) {
	var msg ExecuteMsg
	if err := decodeStrict(data, &msg); err != nil {
		return ExecuteMsg{}, err
	}
	if _, err := msg.Kind(); err != nil {
		return ExecuteMsg{}, err
	}
	return msg, nil
}

// ParseQueryMsg decodes a JSON query message.
func ParseQueryMsg(data []byte) (QueryMsg, error) {
	var msg QueryMsg
	if err := decodeStrict(data, &msg); err != nil {
		return QueryMsg{}, err
	}
	if _, err := msg.Kind(); err != nil {
		return QueryMsg{}, err
	}
	return msg, nil
}
