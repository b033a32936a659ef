package resources

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/warehouse"
	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"
)

const multipartMemory = 8 << 20

// FileHandlers encapsulates the file-related HTTP handlers
type FileHandlers struct {
	warehouse     *warehouse.Warehouse
	maxUploadSize int64
}

// @Summary Upload a file
// @Description Upload a video or generic file owned by the caller
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param kind formData string true "video or file"
// @Param file formData file true "File to upload"
// @Success 201 {object} models.FileAsset
// @Failure 400 {object} errors.APIError
// @Failure 413 {object} errors.APIError
// @Router /files [post]
// @Security BearerAuth
func (h *FileHandlers) UploadFile(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondWithError(w, errors.NewValidationError("invalid multipart form", err), requestID)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid file upload", err), requestID)
		return
	}
	defer file.Close()

	asset, err := h.warehouse.UploadFile(r.Context(), p, warehouse.FileUpload{
		Kind:        models.FileKind(r.FormValue("kind")),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusCreated, asset)
}

// @Summary List files
// @Tags files
// @Produce json
// @Param kind query string false "video or file"
// @Success 200 {array} models.FileAsset
// @Router /files [get]
// @Security BearerAuth
func (h *FileHandlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	var params models.FileListParams
	if apiErr := decodeQuery(r, &params); apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	files, err := h.warehouse.ListFiles(r.Context(), p, params)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, files)
}

// @Summary Download a file
// @Tags files
// @Produce application/octet-stream
// @Param id path string true "File ID"
// @Success 200 {file} file
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /files/{id} [get]
// @Security BearerAuth
func (h *FileHandlers) GetFile(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}
	fileID := mux.Vars(r)["id"]

	asset, body, err := h.warehouse.OpenFile(r.Context(), p, fileID)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	defer body.Close()

	contentType := asset.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", asset.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(asset.Size, 10))

	if _, err := io.Copy(w, body); err != nil {
		nuts.L.Errorf("[FileHandler] Failed to stream file %s: %v", fileID, err)
	}
}

// @Summary Delete a file
// @Tags files
// @Param id path string true "File ID"
// @Success 204 "No Content"
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /files/{id} [delete]
// @Security BearerAuth
func (h *FileHandlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	if err := h.warehouse.DeleteFile(r.Context(), p, mux.Vars(r)["id"]); err != nil {
		respondWithError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Storage usage
// @Description File count and bytes per kind over the visible files
// @Tags files
// @Produce json
// @Success 200 {array} models.StorageUsage
// @Router /files/usage [get]
// @Security BearerAuth
func (h *FileHandlers) StorageUsage(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	p, apiErr := principal(r)
	if apiErr != nil {
		respondWithError(w, apiErr, requestID)
		return
	}

	usage, err := h.warehouse.StorageUsage(r.Context(), p)
	if err != nil {
		respondWithError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, usage)
}
