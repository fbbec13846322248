package router

import (
	"net/http"

	"pulselog/config"
	"pulselog/internal/audit"
	"pulselog/internal/patient"
	"pulselog/internal/sample"
	"pulselog/internal/storage"
	"pulselog/middleware"
	"pulselog/pkg/metrics"
	"pulselog/socket"
)

// Setup wires the services to their routes and wraps the mux with the
// middleware chain. Authentication covers the API and the WebSocket feed;
// /metrics and /healthz stay open for scrapers and probes.
func Setup(cfg config.Config, store *storage.Store, hub *socket.Hub) http.Handler {
	mux := http.NewServeMux()

	auditService := audit.NewService(store)
	patientService := patient.NewService(store, auditService)
	sampleService := sample.NewService(store, auditService, patientService, hub)

	patientHandler := patient.NewHandler(patientService)
	sampleHandler := sample.NewHandler(sampleService)
	auditHandler := audit.NewHandler(auditService)

	auth := middleware.Auth(cfg.JWTSecret)

	mux.Handle("POST /api/patients", auth(http.HandlerFunc(patientHandler.Create)))
	mux.Handle("GET /api/patients", auth(http.HandlerFunc(patientHandler.List)))
	mux.Handle("GET /api/patients/{id}", auth(http.HandlerFunc(patientHandler.Get)))
	mux.Handle("PUT /api/patients/{id}", auth(http.HandlerFunc(patientHandler.Update)))
	mux.Handle("DELETE /api/patients/{id}", auth(http.HandlerFunc(patientHandler.Delete)))

	mux.Handle("POST /api/samples", auth(http.HandlerFunc(sampleHandler.Create)))
	mux.Handle("GET /api/samples", auth(http.HandlerFunc(sampleHandler.List)))
	mux.Handle("POST /api/samples/analytics", auth(http.HandlerFunc(sampleHandler.Analytics)))

	mux.Handle("POST /api/audit/patients", auth(http.HandlerFunc(auditHandler.Patients)))

	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r)
	})
	mux.Handle("GET /ws", auth(wsHandler))

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return middleware.CORS(middleware.Tracker(mux))
}
