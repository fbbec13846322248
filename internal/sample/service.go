// Package sample manages heart-rate sample records: creation, filtered and
// paginated queries, and per-patient aggregate analytics.
package sample

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"pulselog/internal/audit"
	"pulselog/internal/model"
	"pulselog/internal/patient"
	"pulselog/internal/storage"
	"pulselog/pkg/logger"
	"pulselog/pkg/pagination"
)

// Publisher pushes newly created samples to live subscribers. A nil publisher
// disables the feed.
type Publisher interface {
	PublishSample(model.Sample)
}

type Service struct {
	store    *storage.Store
	audit    *audit.Service
	patients *patient.Service
	pub      Publisher
}

func NewService(store *storage.Store, auditService *audit.Service, patients *patient.Service, pub Publisher) *Service {
	return &Service{store: store, audit: auditService, patients: patients, pub: pub}
}

// Create stores a new sample under a generated id. The referenced patient
// must exist; the existence check counts a patient access like any other
// patient read.
func (s *Service) Create(smp model.Sample) (model.Sample, error) {
	if _, err := s.patients.FindOne(smp.PatientID); err != nil {
		return model.Sample{}, err
	}

	smp.ID = uuid.NewString()
	if err := s.store.Samples.Add(smp); err != nil {
		return model.Sample{}, err
	}
	if s.pub != nil {
		s.pub.PublishSample(smp)
	}
	logger.Sugar.Debugf("Created sample %q for patient %q", smp.ID, smp.PatientID)
	return smp, nil
}

// Filter selects samples. Unset predicates pass everything through; the
// timestamp and heart-rate ranges are inclusive on both ends.
type Filter struct {
	PatientID    string
	Start        *time.Time
	End          *time.Time
	MinHeartRate *float64
	MaxHeartRate *float64
}

func (f Filter) matches(smp model.Sample) bool {
	if f.PatientID != "" && smp.PatientID != f.PatientID {
		return false
	}
	if f.Start != nil && smp.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && smp.Timestamp.After(*f.End) {
		return false
	}
	if f.MinHeartRate != nil && smp.HeartRate < *f.MinHeartRate {
		return false
	}
	if f.MaxHeartRate != nil && smp.HeartRate > *f.MaxHeartRate {
		return false
	}
	return true
}

func (s *Service) filtered(f Filter) []model.Sample {
	all := s.store.Samples.List()
	out := make([]model.Sample, 0, len(all))
	for _, smp := range all {
		if f.matches(smp) {
			out = append(out, smp)
		}
	}
	return out
}

// List returns one page of matching samples in insertion order and counts a
// sample access for each distinct patient id on the page.
func (s *Service) List(f Filter, params pagination.Params) (pagination.Result[model.Sample], error) {
	page, err := pagination.Paginate(s.filtered(f), params)
	if err != nil {
		return pagination.Result[model.Sample]{}, err
	}

	seen := make(map[string]struct{}, len(page.Items))
	ids := make([]string, 0, len(page.Items))
	for _, smp := range page.Items {
		if _, ok := seen[smp.PatientID]; ok {
			continue
		}
		seen[smp.PatientID] = struct{}{}
		ids = append(ids, smp.PatientID)
	}
	s.audit.Record(ids, model.AccessSample)

	return page, nil
}

// Aggregation names a statistic computed over a patient's heart rates.
type Aggregation string

const (
	AggregationAvg Aggregation = "avg"
	AggregationMin Aggregation = "min"
	AggregationMax Aggregation = "max"
)

// Valid reports whether a is a known aggregation.
func (a Aggregation) Valid() bool {
	switch a {
	case AggregationAvg, AggregationMin, AggregationMax:
		return true
	}
	return false
}

// AnalyticsRequest asks for statistics over the samples in [Start, End],
// optionally restricted to a single patient.
type AnalyticsRequest struct {
	PatientID    string
	Start        time.Time
	End          time.Time
	Aggregations []Aggregation
}

// AnalyticsResult carries the requested statistics for one patient. Only the
// requested fields are set.
type AnalyticsResult struct {
	PatientID string   `json:"patientId"`
	Avg       *float64 `json:"avg,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// Analytics groups the matching samples by patient, in first-seen order, and
// computes the requested statistics per group. When the request names a
// patient that does not exist the whole request fails with
// storage.ErrNotFound.
func (s *Service) Analytics(req AnalyticsRequest) ([]AnalyticsResult, error) {
	if req.PatientID != "" {
		if _, ok := s.store.Patients.Get(req.PatientID); !ok {
			return nil, fmt.Errorf("patient %q: %w", req.PatientID, storage.ErrNotFound)
		}
	}

	samples := s.filtered(Filter{PatientID: req.PatientID, Start: &req.Start, End: &req.End})

	order := make([]string, 0, len(samples))
	groups := make(map[string][]float64, len(samples))
	for _, smp := range samples {
		if _, ok := groups[smp.PatientID]; !ok {
			order = append(order, smp.PatientID)
		}
		groups[smp.PatientID] = append(groups[smp.PatientID], smp.HeartRate)
	}
	s.audit.Record(order, model.AccessSample)

	results := make([]AnalyticsResult, 0, len(order))
	for _, id := range order {
		rates := groups[id]
		res := AnalyticsResult{PatientID: id}
		for _, agg := range req.Aggregations {
			switch agg {
			case AggregationAvg:
				v := average(rates)
				res.Avg = &v
			case AggregationMin:
				v := minimum(rates)
				res.Min = &v
			case AggregationMax:
				v := maximum(rates)
				res.Max = &v
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// average rounds to two decimals, half away from zero.
func average(rates []float64) float64 {
	if len(rates) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rates {
		sum += r
	}
	return math.Round(sum/float64(len(rates))*100) / 100
}

func minimum(rates []float64) float64 {
	if len(rates) == 0 {
		return 0
	}
	min := rates[0]
	for _, r := range rates[1:] {
		if r < min {
			min = r
		}
	}
	return min
}

func maximum(rates []float64) float64 {
	if len(rates) == 0 {
		return 0
	}
	max := rates[0]
	for _, r := range rates[1:] {
		if r > max {
			max = r
		}
	}
	return max
}
