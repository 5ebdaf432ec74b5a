// Package backenderrors has the error types raised by tier backends.
//
// They unwrap to the sentinels in pkg/domain/errors, so callers match them
// with errors.Is and never need to know which backing store misbehaved.
package backenderrors

import (
	"fmt"

	"github.com/strataml/strata/pkg/domain"
	domerr "github.com/strataml/strata/pkg/domain/errors"
)

// no payload stored for the entity in this backend.
type Missing struct {
	Tier     domain.Tier
	EntityID string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("no payload for %s in %s backend", m.EntityID, m.Tier)
}

func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// the backing store could not be reached or failed the operation.
type Unavailable struct {
	Tier     domain.Tier
	EntityID string
	Cause    error
}

var _ error = Unavailable{}

func (u Unavailable) Error() string {
	if u.EntityID == "" {
		return fmt.Sprintf("%s backend unavailable: %v", u.Tier, u.Cause)
	}
	return fmt.Sprintf("%s backend unavailable (entity %s): %v", u.Tier, u.EntityID, u.Cause)
}

func (u Unavailable) Unwrap() error {
	return domerr.ErrUnavailable
}
