package common

import (
	"fmt"

	perrors "passage/core/errors"
)

// ErrModulePaused is returned when a mutating entry point runs while the
// contract is paused.
var ErrModulePaused = perrors.ErrContractPaused

// PauseView reports whether a module currently rejects mutating calls.
type PauseView interface {
	IsPaused(module string) (bool, error)
}

// Guard fails with ErrModulePaused when p reports module as paused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	paused, err := p.IsPaused(module)
	if err != nil {
		return err
	}
	if paused {
		return fmt.Errorf("%s: %w", module, ErrModulePaused)
	}
	return nil
}
