package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"pulselog/internal/model"
	"pulselog/pkg/logger"
	"pulselog/pkg/metrics"
)

// snapshot is the on-disk representation of the store: one JSON object
// mapping collection name to its records, in insertion order. There is no
// versioning field; schema changes require a manual migration.
type snapshot struct {
	Patients  []model.Patient  `json:"patients"`
	Samples   []model.Sample   `json:"samples"`
	AuditLogs []model.AuditLog `json:"auditLogs"`
}

// Open loads the snapshot at path into a fresh store. A missing file yields
// an empty store and writes an initial empty snapshot. An unreadable or
// corrupt file is an error: starting empty over existing data would look
// like silent data loss.
func Open(path string) (*Store, error) {
	s := New(path)

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Sugar.Infof("Snapshot file not found, creating new one at %s", path)
		if err := s.Flush(); err != nil {
			return nil, err
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if err := s.Patients.Replace(snap.Patients); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	if err := s.Samples.Replace(snap.Samples); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	if err := s.AuditLogs.Replace(snap.AuditLogs); err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", path, err)
	}

	logger.Sugar.Infof("Snapshot loaded from %s - patients: %d, samples: %d, auditLogs: %d",
		path, s.Patients.Len(), s.Samples.Len(), s.AuditLogs.Len())
	return s, nil
}

// Flush serializes a point-in-time copy of the store and atomically replaces
// the snapshot file. The copy is taken under the collection locks; encoding
// and the file write happen outside them.
func (s *Store) Flush() error {
	snap := snapshot{
		Patients:  s.Patients.List(),
		Samples:   s.Samples.List(),
		AuditLogs: s.AuditLogs.List(),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		metrics.SnapshotFlushes.WithLabelValues("error").Inc()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		metrics.SnapshotFlushes.WithLabelValues("error").Inc()
		return err
	}
	metrics.SnapshotFlushes.WithLabelValues("ok").Inc()
	return nil
}

// AutoFlush writes the snapshot every interval until ctx is cancelled.
// A failed flush is logged and retried unconditionally on the next tick;
// it never takes the process down.
func (s *Store) AutoFlush(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				logger.Sugar.Errorf("Failed to save snapshot: %v", err)
			}
		}
	}
}

// writeFileAtomic writes data to a temporary file in the target directory,
// syncs it, then renames it over path so a crash mid-write can never leave a
// half-written snapshot behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
