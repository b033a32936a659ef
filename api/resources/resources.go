// FilePath: api/resources/resources.go
package resources

import (
	"net/http"
	"strconv"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/monitoring"
	"github.com/Sakhawat2/Datawarehouse/internal/warehouse"
	"github.com/goccy/go-json"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// Resources holds all HTTP resource handlers
type Resources struct {
	Sensors  *SensorHandlers
	Readings *ReadingHandlers
	Files    *FileHandlers
	Owners   *OwnerHandlers
	svc      *warehouse.Warehouse
}

// NewResources creates a new Resources instance. monitor may be nil.
func NewResources(svc *warehouse.Warehouse, monitor *monitoring.Service, maxUploadSize int64) *Resources {
	return &Resources{
		Sensors:  &SensorHandlers{warehouse: svc},
		Readings: &ReadingHandlers{warehouse: svc, monitor: monitor},
		Files:    &FileHandlers{warehouse: svc, maxUploadSize: maxUploadSize},
		Owners:   &OwnerHandlers{warehouse: svc},
		svc:      svc,
	}
}

// @Summary Health check
// @Description Reports whether the warehouse can reach its store
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 500 {object} errors.APIError
// @Router /health [get]
func (r *Resources) HealthCheck(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Health(req.Context()); err != nil {
		respondWithError(w, err, nuts.NID("req", 12))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": nuts.GetVersion(),
	})
}

// Helper functions

func principal(r *http.Request) (models.Principal, *errors.APIError) {
	p, ok := access.PrincipalFrom(r.Context())
	if !ok {
		return models.Principal{}, errors.NewAuthError("not authenticated", nil)
	}
	return p, nil
}

func decodeQuery(r *http.Request, dst interface{}) *errors.APIError {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return errors.NewValidationError("invalid query parameters", err)
	}
	return nil
}

func decodeJSON(r *http.Request, dst interface{}) *errors.APIError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.NewValidationError("invalid request body", err)
	}
	return nil
}

func parseID(raw string) (int64, *errors.APIError) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewValidationError("id must be a positive integer", err)
	}
	return id, nil
}

// respondWithError renders err with its status. Anything that is not an
// APIError is reported as an internal error.
func respondWithError(w http.ResponseWriter, err error, requestID string) {
	apiErr, ok := errors.As(err)
	if !ok {
		apiErr = errors.NewInternalError("internal server error", err)
	}
	apiErr.WithRequestID(requestID)

	if apiErr.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", apiErr.Error())
	} else {
		nuts.L.Warnf("[API] %s", apiErr.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code)
	json.NewEncoder(w).Encode(apiErr)
}

// respondWithJSON encodes payload before writing the status, so an
// unencodable payload becomes a 500 instead of a truncated success.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		respondWithError(w, errors.NewInternalError("failed to encode response", err), nuts.NID("req", 12))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n'))
}
