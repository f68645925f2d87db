// Package firewall provides the application-firewall hardening catalog.
package firewall

import (
	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/provider"
	"github.com/albator-sec/albator/internal/providers/sysutil"
)

const (
	domain         = "firewall"
	socketfilterfw = "/usr/libexec/ApplicationFirewall/socketfilterfw"
)

type firewallProvider struct{}

// New creates the firewall provider.
func New() provider.Provider {
	return &firewallProvider{}
}

var _ provider.Provider = (*firewallProvider)(nil)

func (p *firewallProvider) Name() string {
	return domain
}

func (p *firewallProvider) Description() string {
	return "Application firewall posture: global state, stealth mode, logging."
}

func (p *firewallProvider) RequiredTools() []string {
	return []string{socketfilterfw}
}

func (p *firewallProvider) Operations() []operation.Operation {
	return []operation.Operation{
		{
			ID:          "firewall.global_state",
			Description: "Enable the application firewall",
			Domain:      domain,
			Target:      sysutil.ValueOn,
			Handler: &sysutil.OnOffCommand{
				ProbeCmd: []string{socketfilterfw, "--getglobalstate"},
				OnCmd:    []string{socketfilterfw, "--setglobalstate", "on"},
				OffCmd:   []string{socketfilterfw, "--setglobalstate", "off"},
				Desired:  sysutil.ValueOn,
				Sudo:     true,
			},
		},
		{
			ID:          "firewall.stealth_mode",
			Description: "Enable stealth mode (drop unsolicited probes)",
			Domain:      domain,
			Target:      sysutil.ValueOn,
			Handler: &sysutil.OnOffCommand{
				ProbeCmd: []string{socketfilterfw, "--getstealthmode"},
				OnCmd:    []string{socketfilterfw, "--setstealthmode", "on"},
				OffCmd:   []string{socketfilterfw, "--setstealthmode", "off"},
				Desired:  sysutil.ValueOn,
				Sudo:     true,
			},
		},
		{
			ID:          "firewall.logging_mode",
			Description: "Enable firewall connection logging",
			Domain:      domain,
			Target:      sysutil.ValueOn,
			Handler: &sysutil.OnOffCommand{
				ProbeCmd: []string{socketfilterfw, "--getloggingmode"},
				OnCmd:    []string{socketfilterfw, "--setloggingmode", "on"},
				OffCmd:   []string{socketfilterfw, "--setloggingmode", "off"},
				Desired:  sysutil.ValueOn,
				Sudo:     true,
			},
		},
	}
}
