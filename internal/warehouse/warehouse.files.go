package warehouse

import (
	"context"
	"io"
	"strings"

	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/repository/files"
	"github.com/Sakhawat2/Datawarehouse/internal/validation"
	"github.com/google/uuid"
	nuts "github.com/vaudience/go-nuts"
)

// FileUpload is an incoming file. Size is the declared length of Body.
type FileUpload struct {
	Kind        models.FileKind
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadFile stores the blob of an upload and then its metadata. The blob is
// removed again when the metadata cannot be written.
func (w *Warehouse) UploadFile(ctx context.Context, p models.Principal, in FileUpload) (*models.FileAsset, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, errors.NewValidationError("files need an owner", nil)
	}
	if !in.Kind.Valid() {
		return nil, errors.NewValidationError("kind must be one of video, file", nil)
	}
	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		return nil, errors.NewValidationError("filename is required", nil)
	}
	if in.Size <= 0 {
		return nil, errors.NewValidationError("file is empty", nil)
	}
	if err := w.policy.Check(in.Size, in.ContentType); err != nil {
		return nil, err
	}

	now := w.now()
	asset := &models.FileAsset{
		ID:          uuid.New().String(),
		OwnerID:     p.ID,
		Kind:        in.Kind,
		Filename:    filename,
		ContentType: in.ContentType,
		Size:        in.Size,
		CreatedAt:   now,
	}
	asset.StorageKey = files.ObjectKey(asset.OwnerID, asset.Kind, asset.ID, filename, now)

	if err := w.blobs.Put(ctx, asset.StorageKey, in.Body, in.Size, in.ContentType); err != nil {
		return nil, err
	}
	if err := w.files.Create(ctx, scope, asset); err != nil {
		if derr := w.blobs.Delete(ctx, asset.StorageKey); derr != nil {
			nuts.L.Warnf("[Warehouse] Failed to remove orphaned blob %s: %v", asset.StorageKey, derr)
		}
		return nil, err
	}

	nuts.L.Infof("[Warehouse] Stored %s %s (%d bytes) for %s", asset.Kind, asset.ID, asset.Size, asset.OwnerID)
	return asset, nil
}

// ListFiles returns the visible files, newest first.
func (w *Warehouse) ListFiles(ctx context.Context, p models.Principal, params models.FileListParams) ([]*models.FileAsset, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(params); err != nil {
		return nil, err
	}
	return w.files.List(ctx, scope, models.FileKind(params.Kind))
}

// OpenFile returns the metadata and contents of a visible file. The caller
// closes the reader.
func (w *Warehouse) OpenFile(ctx context.Context, p models.Principal, id string) (*models.FileAsset, io.ReadCloser, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, nil, err
	}
	asset, err := w.files.Get(ctx, scope, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := w.blobs.Open(ctx, asset.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return asset, body, nil
}

// DeleteFile removes the metadata and then the blob of a file.
func (w *Warehouse) DeleteFile(ctx context.Context, p models.Principal, id string) error {
	scope, err := scopeOf(p)
	if err != nil {
		return err
	}
	asset, err := w.files.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := w.files.Delete(ctx, scope, id); err != nil {
		return err
	}
	if err := w.blobs.Delete(ctx, asset.StorageKey); err != nil {
		nuts.L.Warnf("[Warehouse] Failed to delete blob %s of file %s: %v", asset.StorageKey, id, err)
	}
	return nil
}

// StorageUsage totals the visible files per kind.
func (w *Warehouse) StorageUsage(ctx context.Context, p models.Principal) ([]models.StorageUsage, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	return w.files.Usage(ctx, scope)
}
