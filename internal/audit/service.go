// Package audit counts how often each patient's data is read. Auditing is
// best-effort: failures are logged and never surfaced to the request that
// triggered the read.
package audit

import (
	"sync"
	"time"

	"pulselog/internal/model"
	"pulselog/internal/storage"
	"pulselog/pkg/logger"
	"pulselog/pkg/metrics"
)

type Service struct {
	store *storage.Store

	// Serializes read-modify-replace cycles so concurrent requests cannot
	// lose increments between the read and the write-back.
	mu sync.Mutex
}

func NewService(store *storage.Store) *Service {
	return &Service{store: store}
}

// Record increments the access counter matching kind for every given patient
// id, creating the patient's audit record on first access and refreshing its
// last-access timestamp. Duplicate ids in a batch count once per occurrence;
// de-duplication, where wanted, is the caller's job.
func (s *Service) Record(patientIDs []string, kind model.AccessKind) {
	if len(patientIDs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logs := s.store.AuditLogs.List()
	byID := make(map[string]int, len(logs))
	for i, entry := range logs {
		byID[entry.PatientID] = i
	}

	now := time.Now().UTC()
	for _, id := range patientIDs {
		if id == "" {
			continue
		}
		idx, ok := byID[id]
		if !ok {
			byID[id] = len(logs)
			logs = append(logs, model.AuditLog{PatientID: id})
			idx = byID[id]
		}
		switch kind {
		case model.AccessPatient:
			logs[idx].PatientAccessCount++
		case model.AccessSample:
			logs[idx].SampleAccessCount++
		}
		logs[idx].LastAccessTimestamp = now
		metrics.RecordAccesses.WithLabelValues(string(kind)).Inc()
		logger.Sugar.Debugf("Incremented %s access counter for patient %q", kind, id)
	}

	if err := s.store.AuditLogs.Replace(logs); err != nil {
		logger.Sugar.Errorf("Failed to record %s access for %v: %v", kind, patientIDs, err)
	}
}

// Summary is one row of the per-patient access report.
type Summary struct {
	PatientID          string `json:"patientId"`
	PatientAccessCount int64  `json:"patientAccessCount"`
	SampleAccessCount  int64  `json:"sampleAccessCount"`
}

// Summaries reports the access counts for every patient that has ever been
// read, in first-access order.
func (s *Service) Summaries() []Summary {
	logs := s.store.AuditLogs.List()
	out := make([]Summary, 0, len(logs))
	for _, entry := range logs {
		out = append(out, Summary{
			PatientID:          entry.PatientID,
			PatientAccessCount: entry.PatientAccessCount,
			SampleAccessCount:  entry.SampleAccessCount,
		})
	}
	return out
}
