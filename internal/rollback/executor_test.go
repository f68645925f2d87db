package rollback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albator-sec/albator/internal/ledger"
	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/provider"
)

type fakeSystem struct {
	values       map[string]string
	restoreOrder []string
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{values: make(map[string]string)}
}

type restoreHandler struct {
	sys         *fakeSystem
	key         string
	opID        string
	failRestore bool
}

func (h *restoreHandler) Probe(ctx context.Context) (operation.ProbeResult, error) {
	value, ok := h.sys.values[h.key]
	if !ok {
		return operation.ProbeResult{State: operation.StateNonCompliant, RawValue: operation.ValueNotSet}, nil
	}
	return operation.ProbeResult{State: operation.StateNonCompliant, RawValue: value}, nil
}

func (h *restoreHandler) Apply(ctx context.Context) error { return nil }

func (h *restoreHandler) Restore(ctx context.Context, prior string) error {
	h.sys.restoreOrder = append(h.sys.restoreOrder, h.opID)
	if h.failRestore {
		return fmt.Errorf("restore command failed")
	}
	if prior == operation.ValueNotSet {
		delete(h.sys.values, h.key)
		return nil
	}
	h.sys.values[h.key] = prior
	return nil
}

func (h *restoreHandler) Plan() string { return "restore " + h.key }

type fakeProvider struct {
	name string
	ops  []operation.Operation
}

func (p *fakeProvider) Name() string                      { return p.name }
func (p *fakeProvider) Description() string               { return "test provider" }
func (p *fakeProvider) RequiredTools() []string           { return nil }
func (p *fakeProvider) Operations() []operation.Operation { return p.ops }

func testOp(sys *fakeSystem, id, key string, fail bool) operation.Operation {
	return operation.Operation{
		ID:          id,
		Description: "operation " + id,
		Domain:      "testdomain",
		Target:      "off",
		Handler:     &restoreHandler{sys: sys, key: key, opID: id, failRestore: fail},
	}
}

func writeLedger(t *testing.T, changes ...operation.ChangeRecord) string {
	t.Helper()
	led := ledger.New("testdomain", time.Now().Add(-time.Minute))
	for _, change := range changes {
		led.Append(change)
	}
	path, err := led.Finalize(t.TempDir())
	require.NoError(t, err)
	return path
}

func change(id, prior string) operation.ChangeRecord {
	return operation.ChangeRecord{
		OperationID:   id,
		Description:   "operation " + id,
		Domain:        "testdomain",
		AppliedAt:     time.Now(),
		PriorRawValue: prior,
		NewRawValue:   "off",
	}
}

func registryWith(t *testing.T, ops ...operation.Operation) *provider.Registry {
	t.Helper()
	reg := provider.NewRegistry(nil)
	require.NoError(t, reg.Register(&fakeProvider{name: "testdomain", ops: ops}))
	return reg
}

func TestExecuteUnwindsInReverseOrder(t *testing.T) {
	sys := newFakeSystem()
	sys.values["a"] = "off"
	sys.values["b"] = "off"
	sys.values["c"] = "off"
	reg := registryWith(t,
		testOp(sys, "testdomain.a", "a", false),
		testOp(sys, "testdomain.b", "b", false),
		testOp(sys, "testdomain.c", "c", false),
	)
	path := writeLedger(t,
		change("testdomain.a", "on"),
		change("testdomain.b", "on"),
		change("testdomain.c", "on"),
	)

	summary, err := NewExecutor(reg, nil, 0).Execute(context.Background(), path, false)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Restored)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.ExitCode())
	assert.Equal(t, []string{"testdomain.c", "testdomain.b", "testdomain.a"}, sys.restoreOrder)
	assert.Equal(t, "on", sys.values["a"])
}

func TestExecuteRestoresNotSetByUnsetting(t *testing.T) {
	sys := newFakeSystem()
	sys.values["ads"] = "0"
	reg := registryWith(t, testOp(sys, "testdomain.ads", "ads", false))
	path := writeLedger(t, change("testdomain.ads", operation.ValueNotSet))

	summary, err := NewExecutor(reg, nil, 0).Execute(context.Background(), path, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Restored)
	_, exists := sys.values["ads"]
	assert.False(t, exists, "NOT_SET prior value must unset the key")
}

func TestExecuteContinuesAfterEntryFailure(t *testing.T) {
	sys := newFakeSystem()
	sys.values["a"] = "off"
	sys.values["b"] = "off"
	reg := registryWith(t,
		testOp(sys, "testdomain.a", "a", false),
		testOp(sys, "testdomain.b", "b", true),
	)
	path := writeLedger(t,
		change("testdomain.a", "on"),
		change("testdomain.b", "on"),
	)

	summary, err := NewExecutor(reg, nil, 0).Execute(context.Background(), path, false)
	require.NoError(t, err)

	// b unwinds first and fails; a must still be restored.
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Restored)
	assert.Equal(t, 1, summary.ExitCode())
	assert.Equal(t, "on", sys.values["a"])
}

func TestExecuteResolvesEntryWithoutDomain(t *testing.T) {
	sys := newFakeSystem()
	sys.values["a"] = "off"
	reg := registryWith(t, testOp(sys, "testdomain.a", "a", false))
	path := writeLedger(t, operation.ChangeRecord{
		OperationID:   "testdomain.a",
		AppliedAt:     time.Now(),
		PriorRawValue: "on",
		NewRawValue:   "off",
	})

	summary, err := NewExecutor(reg, nil, 0).Execute(context.Background(), path, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Restored)
	assert.Equal(t, "on", sys.values["a"], "a minimal ledger entry must still restore")
}

func TestExecuteFailsEntryWithMissingCapability(t *testing.T) {
	sys := newFakeSystem()
	reg := registryWith(t, testOp(sys, "testdomain.known", "known", false))
	path := writeLedger(t, change("testdomain.unknown", "on"))

	summary, err := NewExecutor(reg, nil, 0).Execute(context.Background(), path, false)
	require.NoError(t, err)

	require.Len(t, summary.Entries, 1)
	assert.Equal(t, EntryFailed, summary.Entries[0].Status)
	assert.Contains(t, summary.Entries[0].Message, "no provider capability")
}

// noEffectHandler reports success from Restore without changing anything,
// so the re-verify probe still sees the applied value.
type noEffectHandler struct {
	restoreHandler
}

func (h *noEffectHandler) Restore(ctx context.Context, prior string) error {
	h.sys.restoreOrder = append(h.sys.restoreOrder, h.opID)
	return nil
}

func TestExecuteFailsOnReVerifyMismatch(t *testing.T) {
	sys := newFakeSystem()
	sys.values["a"] = "off"
	op := testOp(sys, "testdomain.a", "a", false)
	op.Handler = &noEffectHandler{restoreHandler{sys: sys, key: "a", opID: "testdomain.a"}}
	reg := registryWith(t, op)
	path := writeLedger(t, change("testdomain.a", "on"))

	summary, err := NewExecutor(reg, nil, 0).Execute(context.Background(), path, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Entries, 1)
	assert.Equal(t, EntryFailed, summary.Entries[0].Status)
	assert.Contains(t, summary.Entries[0].Message, "re-verify mismatch")
}

func TestExecuteDryRunPlansOnly(t *testing.T) {
	sys := newFakeSystem()
	sys.values["a"] = "off"
	reg := registryWith(t, testOp(sys, "testdomain.a", "a", false))
	path := writeLedger(t,
		change("testdomain.a", "on"),
	)

	summary, err := NewExecutor(reg, nil, 0).Execute(context.Background(), path, true)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Planned)
	assert.Equal(t, 0, summary.Restored)
	assert.Empty(t, sys.restoreOrder, "dry-run must not call Restore")
	assert.Equal(t, "off", sys.values["a"], "dry-run must not mutate state")
	assert.Equal(t, 0, summary.ExitCode())
}

func TestExecuteMissingLedger(t *testing.T) {
	reg := registryWith(t, testOp(newFakeSystem(), "testdomain.a", "a", false))
	_, err := NewExecutor(reg, nil, 0).Execute(context.Background(), filepath.Join(t.TempDir(), "ledger.json"), false)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestSummaryRender(t *testing.T) {
	summary := &Summary{
		ScriptName: "firewall",
		Total:      2,
		Restored:   1,
		Failed:     1,
		Entries: []EntryResult{
			{OperationID: "firewall.stealth_mode", Status: EntryRestored, Message: `restored "off"`},
			{OperationID: "firewall.global_state", Status: EntryFailed, Message: "restore failed: boom"},
		},
	}
	out := summary.Render()
	assert.Contains(t, out, "Albator rollback")
	assert.Contains(t, out, "firewall.stealth_mode")
	assert.Contains(t, out, "restored: 1, planned: 0, failed: 1 (of 2)")
}
