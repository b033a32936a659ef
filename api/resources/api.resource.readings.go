package resources

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/monitoring"
	"github.com/Sakhawat2/Datawarehouse/internal/warehouse"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// ReadingHandlers encapsulates the reading, query and export handlers
type ReadingHandlers struct {
	warehouse *warehouse.Warehouse
	monitor   *monitoring.Service
}

// @Summary Submit a reading
// @Description Stores a reading for the named sensor, creating the sensor on first use
// @Tags readings
// @Accept json
// @Produce json
// @Param reading body models.ReadingSubmission true "Reading"
// @Success 201 {object} models.Reading
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /readings [post]
// @Security BearerAuth
func (h *ReadingHandlers) SubmitReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	var sub models.ReadingSubmission
	if apiErr := decodeJSON(r, &sub); apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	reading, err := h.warehouse.SubmitReading(r.Context(), p, sub)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	if h.monitor != nil {
		h.monitor.RecordReadings(1)
	}
	respondWithJSON(w, http.StatusCreated, reading)
}

// @Summary List readings
// @Description Pages through visible readings ordered by start time
// @Tags readings
// @Produce json
// @Param sensor_id query []string false "Sensor IDs"
// @Param start query string false "Window start (RFC 3339)"
// @Param end query string false "Window end (RFC 3339)"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (max 1000)"
// @Success 200 {object} models.ReadingPage
// @Failure 400 {object} errors.APIError
// @Router /readings [get]
// @Security BearerAuth
func (h *ReadingHandlers) ListReadings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	var params models.ReadingListParams
	if apiErr := decodeQuery(r, &params); apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	page, err := h.warehouse.ListReadings(r.Context(), p, params)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

// @Summary Get a reading
// @Tags readings
// @Produce json
// @Param id path int true "Reading ID"
// @Success 200 {object} models.Reading
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /readings/{id} [get]
// @Security BearerAuth
func (h *ReadingHandlers) GetReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}
	id, apiErr := parseID(mux.Vars(r)["id"])
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	reading, err := h.warehouse.GetReading(r.Context(), p, id)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, reading)
}

// @Summary Correct a reading
// @Description Replaces value and unit of a reading
// @Tags readings
// @Accept json
// @Produce json
// @Param id path int true "Reading ID"
// @Param correction body models.ReadingCorrection true "New value and unit"
// @Success 200 {object} models.Reading
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /readings/{id} [put]
// @Security BearerAuth
func (h *ReadingHandlers) CorrectReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}
	id, apiErr := parseID(mux.Vars(r)["id"])
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	var correction models.ReadingCorrection
	if apiErr := decodeJSON(r, &correction); apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	reading, err := h.warehouse.CorrectReading(r.Context(), p, id, correction)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, reading)
}

// @Summary Delete a reading
// @Tags readings
// @Param id path int true "Reading ID"
// @Success 204 "No Content"
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /readings/{id} [delete]
// @Security BearerAuth
func (h *ReadingHandlers) DeleteReading(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}
	id, apiErr := parseID(mux.Vars(r)["id"])
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	if err := h.warehouse.DeleteReading(r.Context(), p, id); err != nil {
		respondWithError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Prune readings
// @Description Deletes visible readings that ended before the cutoff
// @Tags readings
// @Produce json
// @Param before query string true "Cutoff (RFC 3339)"
// @Success 200 {object} map[string]int64
// @Failure 400 {object} errors.APIError
// @Router /readings [delete]
// @Security BearerAuth
func (h *ReadingHandlers) PruneReadings(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	var params models.PruneParams
	if apiErr := decodeQuery(r, &params); apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	deleted, err := h.warehouse.Prune(r.Context(), p, params)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// @Summary Query readings
// @Description Raw readings, or means per minute, hour or day bucket
// @Tags readings
// @Produce json
// @Param sensor_id query []string true "Sensor IDs"
// @Param start query string true "Window start (RFC 3339)"
// @Param end query string true "Window end (RFC 3339)"
// @Param bucket query string false "minute, hour or day"
// @Success 200 {array} models.Sample
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /query [get]
// @Security BearerAuth
func (h *ReadingHandlers) Query(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	var params models.QueryParams
	if apiErr := decodeQuery(r, &params); apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	samples, err := h.warehouse.Query(r.Context(), p, params)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, samples)
}

// @Summary Export readings
// @Description CSV for one sensor, ZIP of CSVs for several
// @Tags readings
// @Produce text/csv
// @Produce application/zip
// @Param sensor_id query []string true "Sensor IDs"
// @Param start query string true "Window start (RFC 3339)"
// @Param end query string true "Window end (RFC 3339)"
// @Success 200 {file} file
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /export [get]
// @Security BearerAuth
func (h *ReadingHandlers) Export(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	var params models.ExportParams
	if apiErr := decodeQuery(r, &params); apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	payload, err := h.warehouse.Export(r.Context(), p, params)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	if h.monitor != nil {
		h.monitor.RecordExport(payload.ContentType, len(payload.Body))
	}

	w.Header().Set("Content-Type", payload.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payload.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(payload.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload.Body); err != nil {
		nuts.L.Errorf("[ReadingHandler] Failed to write export %s: %v", payload.Filename, err)
	}
}
