// Package ledger records every change a run actually made, in application
// order, and finalizes the record to a single JSON file. The finalized file
// is the sole contract between a hardening run and the rollback executor.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/albator-sec/albator/internal/operation"
)

// FileName is the ledger file name inside a run directory. The directory
// itself is namespaced by script name and timestamp, so concurrent domain
// runs never collide.
const FileName = "ledger.json"

// File is the on-disk ledger format. Changes appear in the chronological
// order they were applied; consumers must unwind them in reverse.
type File struct {
	ScriptName string                   `json:"script_name"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Changes    []operation.ChangeRecord `json:"changes"`
}

// Ledger accumulates change records in memory during a run and writes them
// out once at the end.
type Ledger struct {
	scriptName string
	startedAt  time.Time
	changes    []operation.ChangeRecord
	finalized  bool
}

// New creates a ledger for one run.
func New(scriptName string, startedAt time.Time) *Ledger {
	return &Ledger{
		scriptName: scriptName,
		startedAt:  startedAt,
	}
}

// Append adds a change record. Appending after Finalize is a programming
// error and panics rather than silently widening a sealed ledger.
func (l *Ledger) Append(rec operation.ChangeRecord) {
	if l.finalized {
		panic("ledger: append after finalize")
	}
	l.changes = append(l.changes, rec)
}

// Len returns the number of recorded changes.
func (l *Ledger) Len() int {
	return len(l.changes)
}

// Changes returns a copy of the recorded changes in application order.
func (l *Ledger) Changes() []operation.ChangeRecord {
	out := make([]operation.ChangeRecord, len(l.changes))
	copy(out, l.changes)
	return out
}

// Finalize writes the ledger atomically (write-to-temp-then-rename) into
// dir and seals it. An interrupted run therefore leaves either a complete
// ledger or none at all, never a half-written one.
func (l *Ledger) Finalize(dir string) (string, error) {
	if l.finalized {
		return "", fmt.Errorf("ledger already finalized")
	}

	file := File{
		ScriptName: l.scriptName,
		StartedAt:  l.startedAt,
		FinishedAt: time.Now(),
		Changes:    l.changes,
	}
	if file.Changes == nil {
		file.Changes = []operation.ChangeRecord{}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal ledger: %w", err)
	}

	path := filepath.Join(dir, FileName)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write temporary ledger: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename temporary ledger: %w", err)
	}

	l.finalized = true
	return path, nil
}

// Load reads a finalized ledger. It stays deliberately tolerant: any ledger
// whose entries carry an operation id is accepted, regardless of which
// provider version produced it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}

	for i, change := range file.Changes {
		if change.OperationID == "" {
			return nil, fmt.Errorf("ledger %s: entry %d has no operation_id", path, i)
		}
	}

	return &file, nil
}
