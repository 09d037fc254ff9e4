package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diogosflorencio/vida-plus/internal/repository"
)

// Snapshot is the combined persisted state of both stores. It is a local
// persistence layout, not a wire format: JSON, ordered, keyed by id.
type Snapshot struct {
	Consultations repository.ConsultationSnapshot `json:"consultations"`
	Records       repository.RecordSnapshot       `json:"records"`
}

// TakeSnapshot captures both stores.
func TakeSnapshot(ctx context.Context, consultations *ConsultationStore, records *RecordStore) (*Snapshot, error) {
	cs, err := consultations.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot consultations: %w", err)
	}
	rs, err := records.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot records: %w", err)
	}
	return &Snapshot{Consultations: cs, Records: rs}, nil
}

// RestoreSnapshot replaces both stores' state with the snapshot's.
func RestoreSnapshot(ctx context.Context, snap *Snapshot, consultations *ConsultationStore, records *RecordStore) error {
	if err := consultations.Restore(ctx, snap.Consultations); err != nil {
		return fmt.Errorf("failed to restore consultations: %w", err)
	}
	if err := records.Restore(ctx, snap.Records); err != nil {
		return fmt.Errorf("failed to restore records: %w", err)
	}
	return nil
}

// SaveSnapshot writes the snapshot to path, creating parent directories.
// The write goes through a temp file and rename so a crash never leaves a
// truncated snapshot behind.
func SaveSnapshot(snap *Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot from path. A missing file is not an error;
// it returns an empty snapshot, the state of a first run.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
