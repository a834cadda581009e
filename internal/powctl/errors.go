package powctl

import "errors"

// Error kinds returned by the generic and charger APIs. Bus failures are not
// translated: they reach the caller as the bus driver returned them.
var (
	ErrInvalidArgument   = errors.New("powctl: invalid argument")
	ErrNotAvailable      = errors.New("powctl: not available")
	ErrAlreadyRegistered = errors.New("powctl: already registered")
	ErrNotFound          = errors.New("powctl: not found")
)
