package services

import (
	"fmt"

	"govpay/domain/entities"
)

// requireSystem gates administrator-only operations on the engine account.
func requireSystem(actor, system string) error {
	if actor == system {
		return nil
	}
	return fmt.Errorf("%w: requires authority from %s, got %s", entities.ErrUnauthorized, system, actor)
}

// requireEither accepts authority from the named principal or the engine
// account itself.
func requireEither(actor, principal, system string) error {
	if actor == principal || actor == system {
		return nil
	}
	return fmt.Errorf("%w: must have authority from %s or %s, got %s", entities.ErrUnauthorized, principal, system, actor)
}
