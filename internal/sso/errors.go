package sso

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRequiresLink means the profile's phone matched an existing local
	// account that never linked this provider. Auto-linking here would let a
	// guessed or leaked phone number take over the account, so the caller
	// must authenticate locally and link explicitly.
	ErrRequiresLink = errors.New("existing account requires explicit link")

	// ErrInactiveAccount means the resolved user is withdrawn or otherwise
	// not in a loginable state.
	ErrInactiveAccount = errors.New("account inactive")
)

// SuspendedError blocks a login and carries the authoritative suspension
// row's details for the caller.
type SuspendedError struct {
	Reason    string
	Deadline  time.Time
	Permanent bool
}

func (e *SuspendedError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("account suspended permanently: %s", e.Reason)
	}
	return fmt.Sprintf("account suspended until %s: %s", e.Deadline.Format(time.RFC3339), e.Reason)
}
