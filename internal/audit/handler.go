package audit

import (
	"net/http"

	"pulselog/pkg/httpx"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

// Patients returns the per-patient access counts.
func (h *Handler) Patients(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.Service.Summaries())
}
