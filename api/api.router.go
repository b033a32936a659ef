package api

import (
	"net/http"

	"github.com/Sakhawat2/Datawarehouse/api/middleware"
	"github.com/Sakhawat2/Datawarehouse/api/resources"
	_ "github.com/Sakhawat2/Datawarehouse/docs"
	"github.com/Sakhawat2/Datawarehouse/internal/monitoring"
	"github.com/Sakhawat2/Datawarehouse/internal/warehouse"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router    *mux.Router
	auth      middleware.Authenticator
	monitor   *monitoring.Service
	resources *resources.Resources
}

// NewRouter wires the HTTP routes. monitor may be nil.
func NewRouter(svc *warehouse.Warehouse, auth middleware.Authenticator, monitor *monitoring.Service, maxUploadSize int64) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      auth,
		monitor:   monitor,
		resources: resources.NewResources(svc, monitor, maxUploadSize),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	if r.monitor != nil {
		r.router.Use(r.monitor.Middleware)
		r.router.Handle(r.monitor.MetricsPath(), r.monitor.Handler()).Methods(http.MethodGet)
	}
	r.router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(r.auth.Authenticate)

	// Sensors
	sensors := protected.PathPrefix("/sensors").Subrouter()
	sensors.HandleFunc("", r.resources.Sensors.ListSensors).Methods(http.MethodGet)
	sensors.HandleFunc("/stats", r.resources.Sensors.SensorStats).Methods(http.MethodGet)
	sensors.HandleFunc("/{id}", r.resources.Sensors.GetSensor).Methods(http.MethodGet)
	sensors.HandleFunc("/{id}/readings", r.resources.Sensors.ClearSensor).Methods(http.MethodDelete)

	// Readings
	readings := protected.PathPrefix("/readings").Subrouter()
	readings.HandleFunc("", r.resources.Readings.ListReadings).Methods(http.MethodGet)
	readings.HandleFunc("", r.resources.Readings.SubmitReading).Methods(http.MethodPost)
	readings.HandleFunc("", r.resources.Readings.PruneReadings).Methods(http.MethodDelete)
	readings.HandleFunc("/{id:[0-9]+}", r.resources.Readings.GetReading).Methods(http.MethodGet)
	readings.HandleFunc("/{id:[0-9]+}", r.resources.Readings.CorrectReading).Methods(http.MethodPut)
	readings.HandleFunc("/{id:[0-9]+}", r.resources.Readings.DeleteReading).Methods(http.MethodDelete)

	protected.HandleFunc("/query", r.resources.Readings.Query).Methods(http.MethodGet)
	protected.HandleFunc("/export", r.resources.Readings.Export).Methods(http.MethodGet)

	// Files
	files := protected.PathPrefix("/files").Subrouter()
	files.HandleFunc("", r.resources.Files.ListFiles).Methods(http.MethodGet)
	files.HandleFunc("", r.resources.Files.UploadFile).Methods(http.MethodPost)
	files.HandleFunc("/usage", r.resources.Files.StorageUsage).Methods(http.MethodGet)
	files.HandleFunc("/{id}", r.resources.Files.GetFile).Methods(http.MethodGet)
	files.HandleFunc("/{id}", r.resources.Files.DeleteFile).Methods(http.MethodDelete)

	// Owners
	owners := protected.PathPrefix("/owners").Subrouter()
	owners.Use(middleware.RequireAdmin)
	owners.HandleFunc("/{id}", r.resources.Owners.DeleteOwner).Methods(http.MethodDelete)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
