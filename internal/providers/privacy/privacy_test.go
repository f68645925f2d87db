package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albator-sec/albator/internal/provider"
	"github.com/albator-sec/albator/internal/providers/sysutil"
)

func TestCatalogRegistersCleanly(t *testing.T) {
	reg := provider.NewRegistry(nil)
	require.NoError(t, reg.Register(New()))
}

func TestRemoteLoginTargetsOff(t *testing.T) {
	reg := provider.NewRegistry(nil)
	require.NoError(t, reg.Register(New()))

	op, err := reg.FindOperation("privacy", "privacy.remote_login")
	require.NoError(t, err)
	assert.Equal(t, sysutil.ValueOff, op.Target)

	handler, ok := op.Handler.(*sysutil.OnOffCommand)
	require.True(t, ok)
	assert.Equal(t, sysutil.ValueOff, handler.Desired)
	assert.True(t, handler.Sudo)
}

func TestCatalogOperations(t *testing.T) {
	ops := New().Operations()
	require.Len(t, ops, 4)
	for _, op := range ops {
		assert.Equal(t, "privacy", op.Domain)
		assert.NotEmpty(t, op.Target)
		assert.NotNil(t, op.Handler)
	}
}

func TestPersonalizedAdsUsesDefaults(t *testing.T) {
	ops := New().Operations()
	handler, ok := ops[0].Handler.(*sysutil.DefaultsSetting)
	require.True(t, ok)
	assert.Equal(t, "com.apple.AdLib", handler.Domain)
	assert.Equal(t, "0", handler.DesiredRaw)
}
