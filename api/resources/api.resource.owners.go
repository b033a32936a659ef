package resources

import (
	"net/http"

	"github.com/Sakhawat2/Datawarehouse/internal/warehouse"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

// OwnerHandlers encapsulates owner administration
type OwnerHandlers struct {
	warehouse *warehouse.Warehouse
}

// @Summary Delete an owner's data
// @Description Removes all readings, sensors and files of an owner
// @Tags owners
// @Produce json
// @Param id path string true "Owner ID"
// @Success 200 {object} models.OwnerPurge
// @Failure 403 {object} errors.APIError
// @Router /owners/{id} [delete]
// @Security BearerAuth
func (h *OwnerHandlers) DeleteOwner(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	purge, err := h.warehouse.DeleteOwner(r.Context(), p, mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, purge)
}
