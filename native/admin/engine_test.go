package admin

import (
	"errors"
	"testing"

	"passage/core/events"
	perrors "passage/core/errors"
	"passage/core/state"
	"passage/core/types"
	"passage/native/common"
	"passage/storage"
)

var (
	adminAddr    = types.Address{0xad}
	operatorAddr = types.Address{0x0b}
	strangerAddr = types.Address{0x51}
)

func newTestEngine(t *testing.T) (*Engine, *events.Recorder) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	engine := NewEngine()
	engine.SetState(state.NewManager(state.NewTx(db)))
	rec := events.NewRecorder()
	engine.SetEmitter(rec)
	if err := engine.Init(Config{Admin: adminAddr, Operators: []types.Address{operatorAddr}}); err != nil {
		t.Fatalf("init: %v", err)
	}
	return engine, rec
}

func TestInitRejectsMissingAdmin(t *testing.T) {
	db := storage.NewMemDB()
	defer db.Close()
	engine := NewEngine()
	engine.SetState(state.NewManager(state.NewTx(db)))
	if err := engine.Init(Config{}); !errors.Is(err, perrors.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestRoles(t *testing.T) {
	engine, _ := newTestEngine(t)

	if err := engine.RequireAdmin(adminAddr); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if err := engine.RequireAdmin(operatorAddr); !errors.Is(err, perrors.ErrUnauthorized) {
		t.Fatalf("operator should not be admin: %v", err)
	}
	if err := engine.RequireOperator(operatorAddr); err != nil {
		t.Fatalf("operator rejected: %v", err)
	}
	if err := engine.RequireOperator(adminAddr); err != nil {
		t.Fatalf("admin should pass operator check: %v", err)
	}
	if err := engine.RequireOperator(strangerAddr); !errors.Is(err, perrors.ErrUnauthorized) {
		t.Fatalf("stranger should be rejected: %v", err)
	}
}

func TestPauseFlow(t *testing.T) {
	engine, rec := newTestEngine(t)

	if err := engine.Pause(strangerAddr); !errors.Is(err, perrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized pause, got %v", err)
	}
	if err := engine.Pause(adminAddr); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := common.Guard(engine, "market"); !errors.Is(err, perrors.ErrContractPaused) {
		t.Fatalf("guard should fail while paused: %v", err)
	}
	if err := engine.Pause(adminAddr); err != nil {
		t.Fatalf("second pause should be a no-op: %v", err)
	}
	if err := engine.Unpause(adminAddr); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if err := common.Guard(engine, "market"); err != nil {
		t.Fatalf("guard after unpause: %v", err)
	}

	got := rec.Events()
	if len(got) != 2 || got[0].Type != EventTypePaused || got[1].Type != EventTypeUnpaused {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestTransferAdmin(t *testing.T) {
	engine, _ := newTestEngine(t)

	if err := engine.TransferAdmin(adminAddr, types.Address{}); !errors.Is(err, perrors.ErrInvalidConfig) {
		t.Fatalf("expected invalid config for zero admin, got %v", err)
	}
	if err := engine.TransferAdmin(adminAddr, strangerAddr); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := engine.RequireAdmin(adminAddr); !errors.Is(err, perrors.ErrUnauthorized) {
		t.Fatalf("previous admin should lose the role: %v", err)
	}
	if err := engine.RequireAdmin(strangerAddr); err != nil {
		t.Fatalf("new admin rejected: %v", err)
	}
}

func TestSetOperatorsRejectsDuplicates(t *testing.T) {
	engine, _ := newTestEngine(t)
	err := engine.SetOperators(adminAddr, []types.Address{strangerAddr, strangerAddr})
	if !errors.Is(err, perrors.ErrInvalidConfig) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
	if err := engine.SetOperators(adminAddr, []types.Address{strangerAddr}); err != nil {
		t.Fatalf("set operators: %v", err)
	}
	if err := engine.RequireOperator(operatorAddr); !errors.Is(err, perrors.ErrUnauthorized) {
		t.Fatalf("replaced operator should be rejected: %v", err)
	}
}
