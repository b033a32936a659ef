package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sakhawat2/Datawarehouse/api/middleware"
	"github.com/Sakhawat2/Datawarehouse/internal/config"
	"github.com/Sakhawat2/Datawarehouse/internal/database"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "server-test-secret-0123456789abcdef"

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
			AllowedOrigins:  []string{"https://dashboard.example.com"},
		},
		Database: config.DatabaseConfig{
			Driver:      database.DriverSQLite,
			SQLite:      config.SQLiteConfig{Path: filepath.Join(dir, "server.db"), BusyTimeout: time.Second},
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{Mode: "jwt", JWTSecret: testSecret, AdminRole: "admin"},
		BlobStore: config.BlobStoreConfig{
			Driver:      "local",
			BasePath:    filepath.Join(dir, "files"),
			MaxFileSize: 1 << 20,
		},
	}
}

func adminToken(t *testing.T) string {
	claims := middleware.Claims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestServerHandler(t *testing.T) {
	s := New(testConfig(t))
	require.NoError(t, s.Init(context.Background()))
	defer s.deps.Close()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/owners/u1", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestServerCORSPreflight(t *testing.T) {
	s := New(testConfig(t))
	require.NoError(t, s.Init(context.Background()))
	defer s.deps.Close()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/readings", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://dashboard.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenRejectsUnknownDrivers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"
	_, err := Open(context.Background(), cfg)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.BlobStore.Driver = "ftp"
	_, err = Open(context.Background(), cfg)
	assert.Error(t, err)
}

func TestInitRejectsUnknownAuthMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Mode = "basic"
	err := New(cfg).Init(context.Background())
	assert.Error(t, err)
}
