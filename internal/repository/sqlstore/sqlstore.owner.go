package sqlstore

import (
	"context"

	"github.com/Sakhawat2/Datawarehouse/internal/database"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/jmoiron/sqlx"
	nuts "github.com/vaudience/go-nuts"
)

type OwnerRepo struct {
	BaseRepo
}

func NewOwnerRepository(db database.DB) *OwnerRepo {
	return &OwnerRepo{BaseRepo: BaseRepo{db: db}}
}

// PurgeOwner deletes the readings, sensors and file records of an owner in
// one transaction. Blob contents are left to the caller, which gets the
// removed file records back.
func (r *OwnerRepo) PurgeOwner(ctx context.Context, ownerID string) (*models.OwnerPurge, error) {
	if ownerID == "" {
		return nil, errors.NewValidationError("owner id is required", nil)
	}

	purge := &models.OwnerPurge{OwnerID: ownerID, SensorNames: []string{}, Files: []*models.FileAsset{}}
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.SelectContext(ctx, &purge.SensorNames,
			r.rebind(`SELECT name FROM sensors WHERE owner_id = ? ORDER BY name`), ownerID)
		if err != nil {
			return storeError("failed to list owner sensors", err)
		}

		err = tx.SelectContext(ctx, &purge.Files,
			r.rebind(`SELECT `+fileColumns+` FROM file_assets WHERE owner_id = ?`), ownerID)
		if err != nil {
			return storeError("failed to list owner files", err)
		}

		// readings of the owner's sensors go too, whoever wrote them
		result, err := tx.ExecContext(ctx, r.rebind(`
			DELETE FROM sensor_readings
			WHERE owner_id = ? OR sensor_id IN (SELECT id FROM sensors WHERE owner_id = ?)`),
			ownerID, ownerID)
		if err != nil {
			return storeError("failed to delete owner readings", err)
		}
		if purge.Readings, err = result.RowsAffected(); err != nil {
			return errors.NewDatabaseError("failed to get rows affected", err)
		}

		if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM sensors WHERE owner_id = ?`), ownerID); err != nil {
			return storeError("failed to delete owner sensors", err)
		}
		if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM file_assets WHERE owner_id = ?`), ownerID); err != nil {
			return storeError("failed to delete owner files", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	nuts.L.Infof("[OwnerRepo] Purged owner %s: %d readings, %d sensors, %d files",
		ownerID, purge.Readings, len(purge.SensorNames), len(purge.Files))
	return purge, nil
}
