package sample

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

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

// CreateRequest is the creation payload. HeartRate is a pointer so a missing
// field can be told apart from a rate of zero.
type CreateRequest struct {
	PatientID string   `json:"patientId"`
	Timestamp string   `json:"timestamp"`
	HeartRate *float64 `json:"heartRate"`
}

func (req CreateRequest) validate() (time.Time, error) {
	if req.PatientID == "" {
		return time.Time{}, errors.New("patientId is required")
	}
	if req.Timestamp == "" {
		return time.Time{}, errors.New("timestamp is required")
	}
	ts, err := time.Parse(time.RFC3339, req.Timestamp)
	if err != nil {
		return time.Time{}, errors.New("timestamp must be an RFC 3339 date string")
	}
	if req.HeartRate == nil {
		return time.Time{}, errors.New("heartRate is required")
	}
	if *req.HeartRate < 0 || *req.HeartRate > 300 {
		return time.Time{}, errors.New("heartRate must be between 0 and 300")
	}
	return ts, nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	ts, err := req.validate()
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	created, err := h.Service.Create(model.Sample{
		PatientID: req.PatientID,
		Timestamp: ts,
		HeartRate: *req.HeartRate,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.Error(w, r, http.StatusNotFound, "Not Found",
				fmt.Sprintf("Patient with ID '%s' not found", req.PatientID))
			return
		}
		logger.Sugar.Errorf("Failed to create sample: %v", err)
		httpx.Error(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to create sample")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{PatientID: q.Get("patientId")}

	if raw := q.Get("startTimestamp"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Filter{}, errors.New("startTimestamp must be an RFC 3339 date string")
		}
		f.Start = &ts
	}
	if raw := q.Get("endTimestamp"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return Filter{}, errors.New("endTimestamp must be an RFC 3339 date string")
		}
		f.End = &ts
	}
	if raw := q.Get("minHeartrate"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return Filter{}, errors.New("minHeartrate must be a non-negative number")
		}
		f.MinHeartRate = &v
	}
	if raw := q.Get("maxHeartrate"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v > 300 {
			return Filter{}, errors.New("maxHeartrate must be a number no greater than 300")
		}
		f.MaxHeartRate = &v
	}
	return f, nil
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	params, err := pagination.ParseQuery(r.URL.Query())
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	page, err := h.Service.List(f, params)
	if err != nil {
		logger.Sugar.Errorf("Failed to list samples: %v", err)
		httpx.Error(w, r, http.StatusInternalServerError, "Internal Server Error", "Failed to list samples")
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// AnalyticsPayload is the request body of the analytics endpoint. Heart rate
// is the only supported measurement.
type AnalyticsPayload struct {
	MeasurementType  string        `json:"measurementType"`
	AggregationTypes []Aggregation `json:"aggregationTypes"`
	StartTime        string        `json:"startTime"`
	EndTime          string        `json:"endTime"`
	PatientID        string        `json:"patientId"`
}

func (p AnalyticsPayload) validate() (start, end time.Time, err error) {
	if p.MeasurementType != "heartRate" {
		return start, end, errors.New("measurementType must be heartRate")
	}
	if len(p.AggregationTypes) == 0 {
		return start, end, errors.New("aggregationTypes must not be empty")
	}
	for _, agg := range p.AggregationTypes {
		if !agg.Valid() {
			return start, end, fmt.Errorf("unknown aggregation type %q", agg)
		}
	}
	start, err = time.Parse(time.RFC3339, p.StartTime)
	if err != nil {
		return start, end, errors.New("startTime must be an RFC 3339 date string")
	}
	end, err = time.Parse(time.RFC3339, p.EndTime)
	if err != nil {
		return start, end, errors.New("endTime must be an RFC 3339 date string")
	}
	return start, end, nil
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	var payload AnalyticsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	start, end, err := payload.validate()
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	results, err := h.Service.Analytics(AnalyticsRequest{
		PatientID:    payload.PatientID,
		Start:        start,
		End:          end,
		Aggregations: payload.AggregationTypes,
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		httpx.Error(w, r, http.StatusNotFound, "Not Found",
			fmt.Sprintf("Patient with ID '%s' not found", payload.PatientID))
	case err != nil:
		logger.Sugar.Errorf("Failed to compute analytics: %v", err)
		httpx.Error(w, r, http.StatusBadRequest, "Bad Request", "Invalid analytics request")
	default:
		httpx.JSON(w, http.StatusOK, results)
	}
}
