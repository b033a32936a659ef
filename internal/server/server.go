// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sakhawat2/Datawarehouse/api"
	"github.com/Sakhawat2/Datawarehouse/api/middleware"
	"github.com/Sakhawat2/Datawarehouse/internal/cleanup"
	"github.com/Sakhawat2/Datawarehouse/internal/config"
	"github.com/Sakhawat2/Datawarehouse/internal/monitoring"
	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	deps       *Dependencies
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Init opens the stores and builds the HTTP handler.
func (s *Server) Init(ctx context.Context) error {
	deps, err := Open(ctx, s.config)
	if err != nil {
		return err
	}
	s.deps = deps
	s.monitoring = monitoring.NewService(monitoring.Config{
		MetricsPath: s.config.Monitoring.MetricsPath,
	})

	auth, err := middleware.New(s.config.Auth)
	if err != nil {
		deps.Close()
		return err
	}

	// Set up cleanup event handlers
	s.setupCleanupHandlers()

	router := api.NewRouter(deps.Warehouse, auth, s.monitoring, s.config.BlobStore.MaxFileSize)
	s.srv.Handler = s.wrap(router)
	return nil
}

// Handler is the fully wrapped HTTP handler. Init must have run.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start begins listening for requests
func (s *Server) Start() error {
	if err := s.Init(context.Background()); err != nil {
		return err
	}
	defer s.deps.Close()

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// wrap adds recovery, CORS and access logging around h.
func (s *Server) wrap(h http.Handler) http.Handler {
	origins := s.config.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.ExposedHeaders([]string{"Content-Disposition"}),
		handlers.MaxAge(int((12 * time.Hour).Seconds())),
	)(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	return handlers.CombinedLoggingHandler(os.Stdout, h)
}

func (s *Server) setupCleanupHandlers() {
	events := map[string]string{
		cleanup.EventOwnerDeleted:   "owner_id",
		cleanup.EventSensorDeleted:  "sensor_name",
		cleanup.EventSensorCleared:  "sensor_id",
		cleanup.EventFileDeleted:    "file_id",
		cleanup.EventReadingsPruned: "cutoff",
	}
	for event, label := range events {
		s.deps.Warehouse.Cleanup.OnCleanup(event, func(id string) {
			nuts.L.Infof("[Cleanup] %s: %s", event, id)
			s.monitoring.RecordEvent(event, map[string]string{label: id})
		})
	}
}
