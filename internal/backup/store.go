// Package backup persists the pre-change value of every setting before it
// is mutated. The engine's key invariant, no Apply without a durable backup,
// rests on Write completing (and syncing) first.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/albator-sec/albator/internal/operation"
)

// Store writes one BackupRecord file per operation into a per-run directory.
type Store struct {
	dir string
}

// NewStore creates the backup directory for a run.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// Write persists a record and syncs it to disk before returning. The file
// path is derived from the operation id, which the provider registry has
// already constrained to a filesystem-safe pattern.
func (s *Store) Write(rec operation.BackupRecord) (string, error) {
	if rec.OperationID == "" {
		return "", fmt.Errorf("backup record has no operation id")
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup record: %w", err)
	}

	path := s.recordPath(rec.OperationID)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write backup file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", fmt.Errorf("sync backup file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close backup file: %w", err)
	}

	return path, nil
}

// Read loads the record for one operation.
func (s *Store) Read(operationID string) (operation.BackupRecord, error) {
	var rec operation.BackupRecord

	data, err := os.ReadFile(s.recordPath(operationID))
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parse backup record: %w", err)
	}
	return rec, nil
}

// List returns all records in the store, sorted by operation id.
func (s *Store) List() ([]operation.BackupRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	records := make([]operation.BackupRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var rec operation.BackupRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("parse backup record %s: %w", entry.Name(), err)
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].OperationID < records[j].OperationID })
	return records, nil
}

func (s *Store) recordPath(operationID string) string {
	return filepath.Join(s.dir, operationID+".json")
}
