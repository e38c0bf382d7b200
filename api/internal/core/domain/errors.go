package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain lifecycle and selection flows.
// Handlers map these onto HTTP status codes in exactly one place.
var (
	ErrInvalidDomain       = errors.New("invalid domain name")
	ErrDomainExists        = errors.New("domain already registered")
	ErrDomainLimitExceeded = errors.New("domain limit reached")
	ErrForbidden           = errors.New("forbidden")
	ErrNotConfigured       = errors.New("domain is not fully configured")
	ErrCannotDeleteDefault = errors.New("the default domain cannot be deleted")
	ErrDomainInUse         = errors.New("domain is still selected by users")
	ErrNotFound            = errors.New("not found")
)

// ProviderError carries a provider-side failure verbatim to the caller.
// The orchestrator never retries these automatically; a transient fault
// retried blindly risks double-creating external resources.
type ProviderError struct {
	Op      string // e.g. "register_hostname"
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed: %s", e.Op, e.Message)
}
