package main

import (
	"github.com/albator-sec/albator/internal/provider"
	"github.com/albator-sec/albator/internal/providers/appsecurity"
	"github.com/albator-sec/albator/internal/providers/encryption"
	"github.com/albator-sec/albator/internal/providers/firewall"
	"github.com/albator-sec/albator/internal/providers/privacy"
)

// registerProviders wires every built-in operation provider into the
// registry used by the CLI binary.
func registerProviders(reg *provider.Registry) error {
	providers := []provider.Provider{
		firewall.New(),
		privacy.New(),
		encryption.New(),
		appsecurity.New(),
	}

	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}
