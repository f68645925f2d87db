package provider

import (
	"github.com/albator-sec/albator/internal/operation"
)

// Provider supplies the operation catalog for one hardening domain. The
// engine depends only on this interface; the domain-specific probe and
// mutation logic lives entirely behind it.
type Provider interface {
	// Name returns the domain namespace, e.g. "firewall". It doubles as the
	// CLI argument selecting this provider.
	Name() string

	// Description returns a one-line summary for CLI listings.
	Description() string

	// Operations returns the static catalog in application order. The
	// returned slice is rebuilt per call; callers must not assume shared
	// state.
	Operations() []operation.Operation

	// RequiredTools lists external binaries the provider's handlers invoke.
	// Preflight refuses the run when one is missing.
	RequiredTools() []string
}
