// Package encryption provides the disk-encryption hardening catalog.
package encryption

import (
	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/provider"
	"github.com/albator-sec/albator/internal/providers/sysutil"
)

const domain = "encryption"

type encryptionProvider struct{}

// New creates the encryption provider.
func New() provider.Provider {
	return &encryptionProvider{}
}

var _ provider.Provider = (*encryptionProvider)(nil)

func (p *encryptionProvider) Name() string {
	return domain
}

func (p *encryptionProvider) Description() string {
	return "Disk encryption: FileVault state and standby key protection."
}

func (p *encryptionProvider) RequiredTools() []string {
	return []string{"fdesetup", "pmset"}
}

func (p *encryptionProvider) Operations() []operation.Operation {
	return []operation.Operation{
		{
			ID:          "encryption.filevault",
			Description: "Enable FileVault full-disk encryption",
			Domain:      domain,
			Target:      sysutil.ValueOn,
			Handler: &sysutil.OnOffCommand{
				ProbeCmd: []string{"fdesetup", "status"},
				// Deferred enablement: the encryption actually starts at the
				// next login, which keeps the run non-interactive.
				OnCmd:   []string{"fdesetup", "enable", "-defer", "/var/db/albator-filevault.plist", "-forceatlogin", "0", "-dontaskatlogout"},
				OffCmd:  []string{"fdesetup", "disable"},
				Desired: sysutil.ValueOn,
				Sudo:    true,
			},
		},
		{
			ID:          "encryption.destroy_fv_key_on_standby",
			Description: "Destroy FileVault key when entering standby",
			Domain:      domain,
			Target:      "1",
			Handler: &sysutil.DefaultsSetting{
				Domain:     "/Library/Preferences/com.apple.PowerManagement",
				Key:        "DestroyFVKeyOnStandby",
				DesiredRaw: "1",
				WriteFlag:  "-bool",
				WriteValue: "true",
				Sudo:       true,
			},
		},
	}
}
