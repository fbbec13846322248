// Package patient manages patient records: creation, lookup, partial update
// and deletion, with every read counted by the audit service.
package patient

import (
	"errors"
	"fmt"

	"pulselog/internal/audit"
	"pulselog/internal/model"
	"pulselog/internal/storage"
	"pulselog/pkg/logger"
	"pulselog/pkg/pagination"
)

// ErrHasSamples rejects deletion of a patient that samples still reference.
// Cascading would silently destroy sample history.
var ErrHasSamples = errors.New("patient still referenced by samples")

type Service struct {
	store *storage.Store
	audit *audit.Service
}

func NewService(store *storage.Store, auditService *audit.Service) *Service {
	return &Service{store: store, audit: auditService}
}

// Create stores a new patient. The id is caller-supplied; a duplicate fails
// with storage.ErrDuplicateID.
func (s *Service) Create(p model.Patient) (model.Patient, error) {
	if err := s.store.Patients.Add(p); err != nil {
		return model.Patient{}, err
	}
	logger.Sugar.Infof("Created patient %q", p.ID)
	return p, nil
}

// List returns one page of patients in insertion order and counts a patient
// access for every id on the page.
func (s *Service) List(params pagination.Params) (pagination.Result[model.Patient], error) {
	page, err := pagination.Paginate(s.store.Patients.List(), params)
	if err != nil {
		return pagination.Result[model.Patient]{}, err
	}

	ids := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		ids = append(ids, p.ID)
	}
	s.audit.Record(ids, model.AccessPatient)

	logger.Sugar.Debugf("Retrieved %d patients for page %d", len(page.Items), params.Page)
	return page, nil
}

// FindOne returns the patient with the given id. The access is counted
// before the lookup, so reads of unknown patients are audited too.
func (s *Service) FindOne(id string) (model.Patient, error) {
	s.audit.Record([]string{id}, model.AccessPatient)

	p, ok := s.store.Patients.Get(id)
	if !ok {
		return model.Patient{}, fmt.Errorf("patient %q: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

// UpdateRequest is a partial update; nil fields are left unchanged. A non-nil
// ID is rejected: the record id is immutable.
type UpdateRequest struct {
	ID     *string       `json:"id"`
	Name   *string       `json:"name"`
	Age    *int          `json:"age"`
	Gender *model.Gender `json:"gender"`
}

// Update merges the supplied fields into the stored patient and returns the
// merged record.
func (s *Service) Update(id string, patch UpdateRequest) (model.Patient, error) {
	if patch.ID != nil {
		return model.Patient{}, fmt.Errorf("patient %q: %w", id, storage.ErrInvalidUpdate)
	}
	return s.store.Patients.Update(id, func(p *model.Patient) error {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Age != nil {
			p.Age = *patch.Age
		}
		if patch.Gender != nil {
			p.Gender = *patch.Gender
		}
		return nil
	})
}

// Delete removes a patient. It fails with ErrHasSamples while any sample
// references the patient and with storage.ErrNotFound when the id is absent.
func (s *Service) Delete(id string) error {
	for _, smp := range s.store.Samples.List() {
		if smp.PatientID == id {
			return fmt.Errorf("patient %q still referenced by sample %q: %w", id, smp.ID, ErrHasSamples)
		}
	}
	if !s.store.Patients.Delete(id) {
		return fmt.Errorf("patient %q: %w", id, storage.ErrNotFound)
	}
	logger.Sugar.Infof("Deleted patient %q", id)
	return nil
}
