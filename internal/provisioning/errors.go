package provisioning

import "errors"

// Domain errors for provisioning.
var (
	// ErrNotProvisioned is returned when no credentials file exists.
	ErrNotProvisioned = errors.New("provisioning: not provisioned")

	// ErrInvalidCredentials is returned when the file exists but is unusable.
	ErrInvalidCredentials = errors.New("provisioning: invalid credentials")
)
