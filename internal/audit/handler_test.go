package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulselog/internal/model"
	"pulselog/internal/storage"
)

func TestPatientsEndpoint(t *testing.T) {
	store := storage.New(filepath.Join(t.TempDir(), "database.json"))
	svc := NewService(store)
	handler := NewHandler(svc)

	svc.Record([]string{"p1", "p2"}, model.AccessPatient)
	svc.Record([]string{"p1"}, model.AccessSample)

	rec := httptest.NewRecorder()
	handler.Patients(rec, httptest.NewRequest(http.MethodPost, "/api/audit/patients", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, Summary{PatientID: "p1", PatientAccessCount: 1, SampleAccessCount: 1}, summaries[0])
	assert.Equal(t, Summary{PatientID: "p2", PatientAccessCount: 1}, summaries[1])
}

func TestPatientsEndpointEmpty(t *testing.T) {
	store := storage.New(filepath.Join(t.TempDir(), "database.json"))
	handler := NewHandler(NewService(store))

	rec := httptest.NewRecorder()
	handler.Patients(rec, httptest.NewRequest(http.MethodPost, "/api/audit/patients", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
