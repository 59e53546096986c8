// Package schema validates result bus events before they leave the process.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"voice-session-orchestrator/internal/models"
)

var (
	ErrMissingTarget = errors.New("event has no target")
	ErrEmptyPayload  = errors.New("event has no payload")
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks the envelope invariants: exactly one known target, a
// payload matching it, and a marshalable body.
func (v *Validator) Validate(ev models.Event) error {
	switch ev.Target {
	case models.TargetProducts, models.TargetOrders, models.TargetOther:
	case "":
		return ErrMissingTarget
	default:
		return fmt.Errorf("unknown event target %q", ev.Target)
	}

	if ev.Product == nil && ev.Order == nil {
		return ErrEmptyPayload
	}

	if _, err := json.Marshal(ev); err != nil {
		return fmt.Errorf("event not marshalable: %w", err)
	}
	return nil
}
