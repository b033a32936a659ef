// FilePath: internal/repository/sqlstore/sqlstore.file.go
package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/database"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
)

const fileColumns = `id, owner_id, kind, filename, content_type, size, storage_key, created_at`

type FileRepo struct {
	BaseRepo
}

func NewFileRepository(db database.DB) *FileRepo {
	return &FileRepo{BaseRepo: BaseRepo{db: db}}
}

func (r *FileRepo) Create(ctx context.Context, scope access.Scope, file *models.FileAsset) error {
	if !file.Kind.Valid() {
		return errors.NewValidationError("unknown file kind", nil)
	}
	if !scope.Allows(models.OwnerRef(file.OwnerID)) {
		return errors.NewAuthorizationError("cannot store files for another owner", nil)
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO file_assets (id, owner_id, kind, filename, content_type, size, storage_key, created_at)
		VALUES (:id, :owner_id, :kind, :filename, :content_type, :size, :storage_key, :created_at)`

	if _, err := r.x().NamedExecContext(ctx, query, file); err != nil {
		return storeError("failed to create file record", err)
	}
	return nil
}

func (r *FileRepo) Get(ctx context.Context, scope access.Scope, id string) (*models.FileAsset, error) {
	file := &models.FileAsset{}
	query := `SELECT ` + fileColumns + ` FROM file_assets WHERE id = ?`

	err := r.x().GetContext(ctx, file, r.rebind(query), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("file not found", err)
		}
		return nil, storeError("failed to get file", err)
	}
	if !scope.Allows(models.OwnerRef(file.OwnerID)) {
		return nil, errors.NewAuthorizationError("file belongs to another owner", nil)
	}
	file.CreatedAt = file.CreatedAt.UTC()
	return file, nil
}

// List returns visible files, newest first, optionally of one kind.
func (r *FileRepo) List(ctx context.Context, scope access.Scope, kind models.FileKind) ([]*models.FileAsset, error) {
	pred, args := scope.Predicate("owner_id")
	conds := []string{pred}
	if kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, kind)
	}
	query := `SELECT ` + fileColumns + ` FROM file_assets` + where(conds) + ` ORDER BY created_at DESC, id`

	files := []*models.FileAsset{}
	if err := r.x().SelectContext(ctx, &files, r.rebind(query), args...); err != nil {
		return nil, storeError("failed to list files", err)
	}
	for _, f := range files {
		f.CreatedAt = f.CreatedAt.UTC()
	}
	return files, nil
}

func (r *FileRepo) Delete(ctx context.Context, scope access.Scope, id string) error {
	if _, err := r.Get(ctx, scope, id); err != nil {
		return err
	}

	pred, args := scope.Predicate("owner_id")
	query := `DELETE FROM file_assets WHERE id = ? AND ` + pred
	result, err := r.x().ExecContext(ctx, r.rebind(query), append([]interface{}{id}, args...)...)
	if err != nil {
		return storeError("failed to delete file record", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("file not found", nil)
	}
	return nil
}

// Usage totals count and bytes per kind over the visible files.
func (r *FileRepo) Usage(ctx context.Context, scope access.Scope) ([]models.StorageUsage, error) {
	pred, args := scope.Predicate("owner_id")
	query := `
		SELECT kind, COUNT(*) AS file_count, COALESCE(SUM(size), 0) AS total_bytes
		FROM file_assets
		WHERE ` + pred + `
		GROUP BY kind
		ORDER BY kind`

	usage := []models.StorageUsage{}
	if err := r.x().SelectContext(ctx, &usage, r.rebind(query), args...); err != nil {
		return nil, storeError("failed to compute storage usage", err)
	}
	return usage, nil
}
