package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulselog/config"
	"pulselog/internal/model"
	"pulselog/internal/storage"
	"pulselog/socket"
)

func newRouterServer(t *testing.T) (*httptest.Server, *storage.Store, *socket.Hub) {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "database.json"))
	hub := socket.NewHub(store)
	go hub.Run()

	server := httptest.NewServer(Setup(config.Config{}, store, hub))
	t.Cleanup(server.Close)
	return server, store, hub
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// The feed must survive the full middleware chain: the tracker's response
// wrapper has to keep the connection hijackable for the upgrade.
func TestWebSocketThroughRouter(t *testing.T) {
	server, store, hub := newRouterServer(t)
	require.NoError(t, store.Patients.Add(model.Patient{ID: "p1", Name: "Ada", Age: 36, Gender: model.GenderFemale}))

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/ws?patientId=p1", nil)
	require.NoError(t, err, "handshake through the middleware chain failed")
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.Subscribers("p1") == 1
	}, time.Second, 10*time.Millisecond)

	hub.PublishSample(model.Sample{ID: "s1", PatientID: "p1", HeartRate: 72})

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, p, err := conn.ReadMessage()
	require.NoError(t, err)
	var got model.Sample
	require.NoError(t, json.Unmarshal(p, &got))
	assert.Equal(t, "s1", got.ID)
}

func TestPatientUpdateRoute(t *testing.T) {
	server, store, _ := newRouterServer(t)
	require.NoError(t, store.Patients.Add(model.Patient{ID: "p1", Name: "Ada", Age: 36, Gender: model.GenderFemale}))

	resp := doJSON(t, http.MethodPut, server.URL+"/api/patients/p1", `{"age":37}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Patient
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 37, got.Age)
}

func TestAuditRoute(t *testing.T) {
	server, store, _ := newRouterServer(t)
	require.NoError(t, store.Patients.Add(model.Patient{ID: "p1", Name: "Ada", Age: 36, Gender: model.GenderFemale}))

	resp := doJSON(t, http.MethodGet, server.URL+"/api/patients/p1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/audit/patients", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summaries []struct {
		PatientID          string `json:"patientId"`
		PatientAccessCount int64  `json:"patientAccessCount"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "p1", summaries[0].PatientID)
	assert.Equal(t, int64(1), summaries[0].PatientAccessCount)
}

func TestHealthzRoute(t *testing.T) {
	server, _, _ := newRouterServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
