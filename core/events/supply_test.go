package events

import (
	"math/big"
	"testing"

	"passage/core/types"
)

func TestTokenSupplyEvent(t *testing.T) {
	evt := TokenSupply{
		Denom:  " USTARS ",
		Total:  big.NewInt(5000),
		Delta:  big.NewInt(250),
		Reason: SupplyReasonMint,
	}.Event()
	if evt == nil {
		t.Fatalf("expected event")
	}
	if evt.Type != TypeTokenSupply {
		t.Fatalf("unexpected type: %s", evt.Type)
	}
	if evt.Attributes["denom"] != "ustars" {
		t.Fatalf("unexpected denom attr: %s", evt.Attributes["denom"])
	}
	if evt.Attributes["total"] != "5000" || evt.Attributes["delta"] != "250" {
		t.Fatalf("unexpected attrs: %+v", evt.Attributes)
	}
	if evt.Attributes["reason"] != SupplyReasonMint {
		t.Fatalf("unexpected reason: %s", evt.Attributes["reason"])
	}
}

func TestTransferEventSkipsZeroAddress(t *testing.T) {
	to := types.Address{0x01}
	evt := Transfer{Denom: "ustars", To: to, Amount: big.NewInt(7)}.Event()
	if _, ok := evt.Attributes["from"]; ok {
		t.Fatalf("zero sender should be omitted: %+v", evt.Attributes)
	}
	if evt.Attributes["to"] != to.String() || evt.Attributes["amount"] != "7" {
		t.Fatalf("unexpected attrs: %+v", evt.Attributes)
	}
}

func TestRecorderKeepsOrderAndPayloads(t *testing.T) {
	rec := NewRecorder()
	rec.Emit(Wrap(New("a", map[string]string{"k": "v"})))
	rec.Emit(TokenSupply{Denom: "x", Total: big.NewInt(1)})
	rec.Emit(nil)

	got := rec.Events()
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != "a" || got[0].Attributes["k"] != "v" {
		t.Fatalf("unexpected first event: %+v", got[0])
	}
	if got[1].Type != TypeTokenSupply {
		t.Fatalf("unexpected second event: %+v", got[1])
	}

	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Fatalf("reset should clear events")
	}
}

func TestFanoutForwardsToAll(t *testing.T) {
	first, second := NewRecorder(), NewRecorder()
	Fanout{first, nil, second}.Emit(Wrap(New("x", nil)))
	if len(first.Events()) != 1 || len(second.Events()) != 1 {
		t.Fatalf("fanout did not reach every emitter")
	}
}
