package common

import (
	"errors"
	"testing"

	perrors "passage/core/errors"
)

type pauseStub map[string]bool

func (p pauseStub) IsPaused(module string) (bool, error) { return p[module], nil }

type failingPauses struct{}

func (failingPauses) IsPaused(string) (bool, error) { return false, errors.New("boom") }

func TestGuard(t *testing.T) {
	pauses := pauseStub{"market": true}
	if err := Guard(pauses, "market"); !errors.Is(err, perrors.ErrContractPaused) {
		t.Fatalf("expected paused error, got %v", err)
	}
	if err := Guard(pauses, "minter"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Guard(nil, "market"); err != nil {
		t.Fatalf("nil view should not block: %v", err)
	}
	if err := Guard(failingPauses{}, "market"); err == nil || errors.Is(err, perrors.ErrContractPaused) {
		t.Fatalf("expected read failure, got %v", err)
	}
}
