package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albator-sec/albator/internal/backup"
	"github.com/albator-sec/albator/internal/ledger"
	"github.com/albator-sec/albator/internal/operation"
	albatorerrors "github.com/albator-sec/albator/pkg/errors"
)

// fakeSystem is an in-memory stand-in for the host settings a provider
// would mutate.
type fakeSystem struct {
	values  map[string]string
	applies int
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{values: make(map[string]string)}
}

type fakeHandler struct {
	sys     *fakeSystem
	key     string
	desired string
	// applyNoEffect simulates a tool that reports success while the
	// setting silently fails to take effect.
	applyNoEffect bool
	failApply     bool
	failProbes    int
}

func (h *fakeHandler) Probe(ctx context.Context) (operation.ProbeResult, error) {
	if h.failProbes > 0 {
		h.failProbes--
		return operation.ProbeResult{State: operation.StateUnknown}, fmt.Errorf("tool unavailable")
	}
	value, ok := h.sys.values[h.key]
	if !ok {
		return operation.ProbeResult{State: operation.StateNonCompliant, RawValue: operation.ValueNotSet}, nil
	}
	state := operation.StateNonCompliant
	if value == h.desired {
		state = operation.StateCompliant
	}
	return operation.ProbeResult{State: state, RawValue: value}, nil
}

func (h *fakeHandler) Apply(ctx context.Context) error {
	h.sys.applies++
	if h.failApply {
		return fmt.Errorf("mutation command failed")
	}
	if !h.applyNoEffect {
		h.sys.values[h.key] = h.desired
	}
	return nil
}

func (h *fakeHandler) Restore(ctx context.Context, prior string) error {
	if prior == operation.ValueNotSet {
		delete(h.sys.values, h.key)
		return nil
	}
	h.sys.values[h.key] = prior
	return nil
}

func (h *fakeHandler) Plan() string {
	return fmt.Sprintf("set %s=%s", h.key, h.desired)
}

type fakeProvider struct {
	name string
	ops  []operation.Operation
}

func (p *fakeProvider) Name() string                      { return p.name }
func (p *fakeProvider) Description() string               { return "test provider" }
func (p *fakeProvider) RequiredTools() []string           { return nil }
func (p *fakeProvider) Operations() []operation.Operation { return p.ops }

func singleOpProvider(sys *fakeSystem, handler *fakeHandler) *fakeProvider {
	return &fakeProvider{
		name: "testdomain",
		ops: []operation.Operation{{
			ID:          "testdomain.remote_login",
			Description: "disable remote login",
			Domain:      "testdomain",
			Target:      handler.desired,
			Handler:     handler,
		}},
	}
}

func runContext(t *testing.T, prov *fakeProvider, dryRun bool) *RunContext {
	t.Helper()
	return &RunContext{
		Provider:  prov,
		StateRoot: t.TempDir(),
		DryRun:    dryRun,
	}
}

func findRunDir(t *testing.T, stateRoot string) string {
	t.Helper()
	entries, err := os.ReadDir(stateRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return filepath.Join(stateRoot, entries[0].Name())
}

func TestRunAppliesBacksUpAndVerifies(t *testing.T) {
	sys := newFakeSystem()
	sys.values["remote_login"] = "on"
	handler := &fakeHandler{sys: sys, key: "remote_login", desired: "off"}
	rc := runContext(t, singleOpProvider(sys, handler), false)

	summary, err := Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ChangeCount)
	assert.Equal(t, 0, summary.NoopCount)
	assert.Equal(t, 0, summary.ErrorCount)
	assert.Equal(t, 0, summary.ExitCode())
	assert.Equal(t, "off", sys.values["remote_login"])

	runDir := findRunDir(t, rc.StateRoot)

	store, err := backup.NewStore(filepath.Join(runDir, "backups"))
	require.NoError(t, err)
	rec, err := store.Read("testdomain.remote_login")
	require.NoError(t, err)
	assert.Equal(t, "on", rec.PriorRawValue)

	file, err := ledger.Load(summary.LedgerPath)
	require.NoError(t, err)
	require.Len(t, file.Changes, 1)
	change := file.Changes[0]
	assert.Equal(t, "on", change.PriorRawValue)
	assert.Equal(t, "off", change.NewRawValue)
	assert.False(t, rec.Timestamp.After(change.AppliedAt), "backup must precede apply")
}

func TestRunIdempotence(t *testing.T) {
	sys := newFakeSystem()
	sys.values["remote_login"] = "on"
	handler := &fakeHandler{sys: sys, key: "remote_login", desired: "off"}
	prov := singleOpProvider(sys, handler)

	first, err := Run(context.Background(), runContext(t, prov, false))
	require.NoError(t, err)
	require.Equal(t, 1, first.ChangeCount)

	second, err := Run(context.Background(), runContext(t, prov, false))
	require.NoError(t, err)
	assert.Equal(t, 0, second.ChangeCount)
	assert.Equal(t, 1, second.NoopCount)
	assert.Equal(t, 10, second.ExitCode())
}

func TestRunDryRunPurity(t *testing.T) {
	sys := newFakeSystem()
	sys.values["remote_login"] = "on"
	handler := &fakeHandler{sys: sys, key: "remote_login", desired: "off"}
	rc := runContext(t, singleOpProvider(sys, handler), true)

	summary, err := Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PlannedCount)
	assert.Equal(t, 0, summary.ChangeCount)
	assert.Equal(t, 10, summary.ExitCode())
	assert.Equal(t, 0, sys.applies, "dry-run must never call the mutation")
	assert.Equal(t, "on", sys.values["remote_login"])
	assert.Empty(t, summary.LedgerPath)

	require.Len(t, summary.Results, 1)
	planned := summary.Results[0].Planned
	require.NotNil(t, planned)
	assert.Equal(t, "set remote_login=off", planned.WouldExecute)

	// No state-dir artifacts at all.
	entries, err := os.ReadDir(rc.StateRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunApplyFailureCounted(t *testing.T) {
	sys := newFakeSystem()
	sys.values["remote_login"] = "on"
	handler := &fakeHandler{sys: sys, key: "remote_login", desired: "off", failApply: true}
	rc := runContext(t, singleOpProvider(sys, handler), false)

	summary, err := Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ErrorCount)
	assert.Equal(t, 0, summary.ChangeCount)
	assert.Equal(t, 1, summary.ExitCode())

	var applyErr *albatorerrors.ApplyError
	require.True(t, errors.As(summary.Results[0].Err, &applyErr))

	file, err := ledger.Load(summary.LedgerPath)
	require.NoError(t, err)
	assert.Empty(t, file.Changes, "failed apply must not produce a change record")
}

func TestRunVerificationMismatchIsAnError(t *testing.T) {
	sys := newFakeSystem()
	sys.values["remote_login"] = "on"
	handler := &fakeHandler{sys: sys, key: "remote_login", desired: "off", applyNoEffect: true}
	rc := runContext(t, singleOpProvider(sys, handler), false)

	summary, err := Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ErrorCount)
	assert.Equal(t, 0, summary.ChangeCount)
	assert.Equal(t, 1, summary.ExitCode())

	var mismatch *albatorerrors.VerificationMismatchError
	require.True(t, errors.As(summary.Results[0].Err, &mismatch))
	assert.Equal(t, "off", mismatch.Expected)
	assert.Equal(t, "on", mismatch.Actual)

	file, err := ledger.Load(summary.LedgerPath)
	require.NoError(t, err)
	assert.Empty(t, file.Changes)
}

func TestRunUnknownProbeIsFlaggedButApplied(t *testing.T) {
	sys := newFakeSystem()
	sys.values["remote_login"] = "on"
	// The first probe fails; the verification re-probe succeeds.
	handler := &fakeHandler{sys: sys, key: "remote_login", desired: "off", failProbes: 1}
	rc := runContext(t, singleOpProvider(sys, handler), false)

	summary, err := Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ChangeCount)
	assert.Equal(t, 1, summary.FlaggedCount)
	require.Len(t, summary.Results, 1)
	assert.True(t, summary.Results[0].Flagged)
	assert.Equal(t, "off", sys.values["remote_login"])

	// The prior value was unreadable, so the backup records the sentinel.
	runDir := findRunDir(t, rc.StateRoot)
	store, err := backup.NewStore(filepath.Join(runDir, "backups"))
	require.NoError(t, err)
	rec, err := store.Read("testdomain.remote_login")
	require.NoError(t, err)
	assert.Equal(t, operation.ValueNotSet, rec.PriorRawValue)
}

func TestRunAbsentValueBackedUpAsNotSet(t *testing.T) {
	sys := newFakeSystem()
	handler := &fakeHandler{sys: sys, key: "quarantine", desired: "1"}
	prov := &fakeProvider{
		name: "testdomain",
		ops: []operation.Operation{{
			ID:          "testdomain.quarantine",
			Description: "enable quarantine",
			Domain:      "testdomain",
			Target:      "1",
			Handler:     handler,
		}},
	}
	rc := runContext(t, prov, false)

	summary, err := Run(context.Background(), rc)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ChangeCount)

	file, err := ledger.Load(summary.LedgerPath)
	require.NoError(t, err)
	require.Len(t, file.Changes, 1)
	assert.Equal(t, operation.ValueNotSet, file.Changes[0].PriorRawValue)
}

func TestRunContinuesAfterFailure(t *testing.T) {
	sys := newFakeSystem()
	sys.values["a"] = "on"
	sys.values["b"] = "on"
	failing := &fakeHandler{sys: sys, key: "a", desired: "off", failApply: true}
	working := &fakeHandler{sys: sys, key: "b", desired: "off"}
	prov := &fakeProvider{
		name: "testdomain",
		ops: []operation.Operation{
			{ID: "testdomain.a", Description: "a", Domain: "testdomain", Target: "off", Handler: failing},
			{ID: "testdomain.b", Description: "b", Domain: "testdomain", Target: "off", Handler: working},
		},
	}
	rc := runContext(t, prov, false)

	summary, err := Run(context.Background(), rc)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ErrorCount)
	assert.Equal(t, 1, summary.ChangeCount)
	assert.Equal(t, "off", sys.values["b"], "later operations must still run")
	assert.Equal(t, 1, summary.ExitCode())
}

func TestRunEmitsResults(t *testing.T) {
	sys := newFakeSystem()
	sys.values["remote_login"] = "off"
	handler := &fakeHandler{sys: sys, key: "remote_login", desired: "off"}
	rc := runContext(t, singleOpProvider(sys, handler), false)

	var seen []operation.Result
	rc.OnResult = func(res operation.Result) { seen = append(seen, res) }

	_, err := Run(context.Background(), rc)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, operation.OutcomeNoop, seen[0].Outcome)
}

func TestRunCancellationStopsRemainingOperations(t *testing.T) {
	sys := newFakeSystem()
	sys.values["a"] = "on"
	sys.values["b"] = "on"
	prov := &fakeProvider{
		name: "testdomain",
		ops: []operation.Operation{
			{ID: "testdomain.a", Description: "a", Domain: "testdomain", Target: "off",
				Handler: &fakeHandler{sys: sys, key: "a", desired: "off"}},
			{ID: "testdomain.b", Description: "b", Domain: "testdomain", Target: "off",
				Handler: &fakeHandler{sys: sys, key: "b", desired: "off"}},
		},
	}
	rc := runContext(t, prov, false)

	// Cancel as soon as the first result lands, the way a user interrupt
	// arrives while later operations are still pending.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rc.OnResult = func(operation.Result) { cancel() }

	summary, err := Run(ctx, rc)
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, "off", sys.values["a"])
	assert.Equal(t, "on", sys.values["b"], "operations after the interrupt must not run")
	assert.Empty(t, summary.LedgerPath, "an interrupted run finalizes no ledger")
}

func TestRunInterruptedProducesNoLedger(t *testing.T) {
	sys := newFakeSystem()
	sys.values["remote_login"] = "on"
	handler := &fakeHandler{sys: sys, key: "remote_login", desired: "off"}
	rc := runContext(t, singleOpProvider(sys, handler), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := Run(ctx, rc)
	require.NoError(t, err)
	assert.Empty(t, summary.LedgerPath, "an interrupted run has no valid ledger")
	assert.Empty(t, summary.Results)
}
