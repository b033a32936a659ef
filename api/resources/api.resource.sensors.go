package resources

import (
	"net/http"

	"github.com/Sakhawat2/Datawarehouse/internal/warehouse"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// SensorHandlers encapsulates the sensor-related HTTP handlers
type SensorHandlers struct {
	warehouse *warehouse.Warehouse
}

// @Summary List sensors
// @Description Lists the sensors visible to the caller, ordered by name
// @Tags sensors
// @Produce json
// @Success 200 {array} models.Sensor
// @Failure 401 {object} errors.APIError
// @Router /sensors [get]
// @Security BearerAuth
func (h *SensorHandlers) ListSensors(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	sensors, err := h.warehouse.ListSensors(r.Context(), p)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, sensors)
}

// @Summary Get a sensor
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Success 200 {object} models.Sensor
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id} [get]
// @Security BearerAuth
func (h *SensorHandlers) GetSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	sensor, err := h.warehouse.GetSensor(r.Context(), p, mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, sensor)
}

// @Summary Sensor statistics
// @Description Reading count and first/last reading time per visible sensor
// @Tags sensors
// @Produce json
// @Success 200 {array} models.SensorStats
// @Router /sensors/stats [get]
// @Security BearerAuth
func (h *SensorHandlers) SensorStats(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	stats, err := h.warehouse.SensorStats(r.Context(), p)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// @Summary Delete all readings of a sensor
// @Tags sensors
// @Produce json
// @Param id path string true "Sensor ID"
// @Success 200 {object} map[string]int64
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /sensors/{id}/readings [delete]
// @Security BearerAuth
func (h *SensorHandlers) ClearSensor(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	deleted, err := h.warehouse.ClearSensor(r.Context(), p, mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
