package patient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pulselog/internal/model"
	"pulselog/internal/storage"
	"pulselog/pkg/httpx"
	"pulselog/pkg/logger"
	"pulselog/pkg/pagination"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

// CreateRequest is the creation payload. Age is a pointer so a missing field
// can be told apart from a legitimate age of zero.
type CreateRequest struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Age    *int         `json:"age"`
	Gender model.Gender `json:"gender"`
}

func (req CreateRequest) validate() error {
	if req.ID == "" {
		return errors.New("id is required")
	}
	if req.Name == "" {
		return errors.New("name is required")
	}
	if req.Age == nil {
		return errors.New("age is required")
	}
	if *req.Age < 0 || *req.Age > 120 {
		return errors.New("age must be between 0 and 120")
	}
	if !req.Gender.Valid() {
		return errors.New("gender must be one of male, female, other")
	}
	return nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	created, err := h.Service.Create(model.Patient{
		ID:     req.ID,
		Name:   req.Name,
		Age:    *req.Age,
		Gender: req.Gender,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateID) {
			httpx.Error(w, r, http.StatusBadRequest, "Bad Request",
				fmt.Sprintf("Patient with ID '%s' already exists", req.ID))
			return
		}
		logger.Sugar.Errorf("Failed to create patient: %v", err)
		httpx.Error(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to create patient")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.ParseQuery(r.URL.Query())
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	page, err := h.Service.List(params)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidLimit) {
			httpx.Error(w, r, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		logger.Sugar.Errorf("Failed to list patients: %v", err)
		httpx.Error(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to list patients")
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := h.Service.FindOne(id)
	if err != nil {
		httpx.Error(w, r, http.StatusNotFound, "Not Found",
			fmt.Sprintf("Patient with ID '%s' not found", id))
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if patch.Age != nil && (*patch.Age < 0 || *patch.Age > 120) {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", "age must be between 0 and 120")
		return
	}
	if patch.Gender != nil && !patch.Gender.Valid() {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", "gender must be one of male, female, other")
		return
	}

	updated, err := h.Service.Update(id, patch)
	switch {
	case errors.Is(err, storage.ErrInvalidUpdate):
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", "Updates must not contain the id field")
	case errors.Is(err, storage.ErrNotFound):
		httpx.Error(w, r, http.StatusNotFound, "Not Found",
			fmt.Sprintf("Patient with ID '%s' not found", id))
	case err != nil:
		logger.Sugar.Errorf("Failed to update patient %q: %v", id, err)
		httpx.Error(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to update patient")
	default:
		httpx.JSON(w, http.StatusOK, updated)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.Service.Delete(id)
	switch {
	case errors.Is(err, ErrHasSamples):
		httpx.Error(w, r, http.StatusConflict, "Conflict",
			fmt.Sprintf("Patient with ID '%s' still has samples", id))
	case errors.Is(err, storage.ErrNotFound):
		httpx.Error(w, r, http.StatusNotFound, "Not Found",
			fmt.Sprintf("Patient with ID '%s' not found", id))
	case err != nil:
		logger.Sugar.Errorf("Failed to delete patient %q: %v", id, err)
		httpx.Error(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to delete patient")
	default:
		w.WriteHeader(http.StatusOK)
	}
}
