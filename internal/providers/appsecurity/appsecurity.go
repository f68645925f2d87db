// Package appsecurity provides the application-security hardening catalog:
// Gatekeeper, quarantine, and automatic update checks.
package appsecurity

import (
	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/provider"
	"github.com/albator-sec/albator/internal/providers/sysutil"
)

const domain = "appsecurity"

type appSecurityProvider struct{}

// New creates the application-security provider.
func New() provider.Provider {
	return &appSecurityProvider{}
}

var _ provider.Provider = (*appSecurityProvider)(nil)

func (p *appSecurityProvider) Name() string {
	return domain
}

func (p *appSecurityProvider) Description() string {
	return "Application security policy: Gatekeeper, quarantine, update checks."
}

func (p *appSecurityProvider) RequiredTools() []string {
	return []string{"spctl", "defaults"}
}

func (p *appSecurityProvider) Operations() []operation.Operation {
	return []operation.Operation{
		{
			ID:          "appsecurity.gatekeeper",
			Description: "Enable Gatekeeper code-signing assessment",
			Domain:      domain,
			Target:      sysutil.ValueOn,
			Handler: &sysutil.OnOffCommand{
				ProbeCmd: []string{"spctl", "--status"},
				OnCmd:    []string{"spctl", "--master-enable"},
				OffCmd:   []string{"spctl", "--master-disable"},
				Desired:  sysutil.ValueOn,
				Sudo:     true,
			},
		},
		{
			ID:          "appsecurity.quarantine",
			Description: "Keep download quarantine enabled",
			Domain:      domain,
			Target:      "1",
			Handler: &sysutil.DefaultsSetting{
				Domain:     "com.apple.LaunchServices",
				Key:        "LSQuarantine",
				DesiredRaw: "1",
				WriteFlag:  "-bool",
				WriteValue: "true",
			},
		},
		{
			ID:          "appsecurity.auto_update_check",
			Description: "Enable automatic software update checks",
			Domain:      domain,
			Target:      "1",
			Handler: &sysutil.DefaultsSetting{
				Domain:     "/Library/Preferences/com.apple.SoftwareUpdate",
				Key:        "AutomaticCheckEnabled",
				DesiredRaw: "1",
				WriteFlag:  "-bool",
				WriteValue: "true",
				Sudo:       true,
			},
		},
	}
}
