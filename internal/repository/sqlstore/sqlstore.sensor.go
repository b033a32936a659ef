// FilePath: internal/repository/sqlstore/sqlstore.sensor.go
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
	"github.com/google/uuid"
	nuts "github.com/vaudience/go-nuts"
)

const sensorColumns = `id, name, owner_id, created_at`

type SensorRepo struct {
	BaseRepo
}

func NewSensorRepository(db database.DB) *SensorRepo {
	return &SensorRepo{BaseRepo: BaseRepo{db: db}}
}

// GetOrCreate returns the sensor identified by (name, ownerID), creating it
// when absent. Concurrent callers converge on one row through the unique
// (name, owner) index. If the winning row is not visible yet a ConflictError
// is returned and the caller may retry.
func (r *SensorRepo) GetOrCreate(ctx context.Context, scope access.Scope, name string, ownerID *string) (*models.Sensor, error) {
	if name == "" {
		return nil, errors.NewValidationError("sensor name is required", nil)
	}
	if !scope.Allows(ownerID) {
		return nil, errors.NewAuthorizationError("cannot create sensors for another owner", nil)
	}

	sensor, err := r.findByName(ctx, name, ownerID)
	if err == nil {
		return sensor, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	candidate := &models.Sensor{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	query := `
		INSERT INTO sensors (id, name, owner_id, created_at)
		VALUES (:id, :name, :owner_id, :created_at)
		ON CONFLICT DO NOTHING`

	result, err := r.x().NamedExecContext(ctx, query, candidate)
	if err != nil {
		return nil, storeError("failed to create sensor", err)
	}
	rows, err := result.RowsAffected()
	switch {
	case err != nil:
		nuts.L.Warnf("[SensorRepo] Rows affected unavailable for sensor %s: %v", candidate.Name, err)
	case rows == 1:
		nuts.L.Infof("[SensorRepo] Created sensor %s (%s)", candidate.Name, candidate.ID)
	}

	sensor, err = r.findByName(ctx, name, ownerID)
	if errors.IsNotFound(err) {
		return nil, errors.NewConflictError("sensor was created concurrently and is not visible yet", err)
	}
	return sensor, err
}

func (r *SensorRepo) findByName(ctx context.Context, name string, ownerID *string) (*models.Sensor, error) {
	ownerKey := ""
	if ownerID != nil {
		ownerKey = *ownerID
	}

	sensor := &models.Sensor{}
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE name = ? AND COALESCE(owner_id, '') = ?`
	err := r.x().GetContext(ctx, sensor, r.rebind(query), name, ownerKey)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, storeError("failed to get sensor", err)
	}
	sensor.CreatedAt = sensor.CreatedAt.UTC()
	return sensor, nil
}

// Get returns a sensor by id. A sensor outside the scope is reported as an
// authorization failure, a missing one as not found.
func (r *SensorRepo) Get(ctx context.Context, scope access.Scope, id string) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE id = ?`

	err := r.x().GetContext(ctx, sensor, r.rebind(query), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, storeError("failed to get sensor", err)
	}
	if !scope.Allows(sensor.OwnerID) {
		return nil, errors.NewAuthorizationError("sensor belongs to another owner", nil)
	}
	sensor.CreatedAt = sensor.CreatedAt.UTC()
	return sensor, nil
}

func (r *SensorRepo) List(ctx context.Context, scope access.Scope) ([]*models.Sensor, error) {
	pred, args := scope.Predicate("owner_id")
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE ` + pred + ` ORDER BY name, id`

	sensors := []*models.Sensor{}
	if err := r.x().SelectContext(ctx, &sensors, r.rebind(query), args...); err != nil {
		return nil, storeError("failed to list sensors", err)
	}
	for _, s := range sensors {
		s.CreatedAt = s.CreatedAt.UTC()
	}
	return sensors, nil
}

type sensorStatsRow struct {
	SensorID     string   `db:"sensor_id"`
	Name         string   `db:"name"`
	OwnerID      *string  `db:"owner_id"`
	ReadingCount int64    `db:"reading_count"`
	FirstReading nullTime `db:"first_reading"`
	LastReading  nullTime `db:"last_reading"`
}

// Stats returns reading counts and first/last reading times per visible sensor.
func (r *SensorRepo) Stats(ctx context.Context, scope access.Scope) ([]*models.SensorStats, error) {
	pred, args := scope.Predicate("s.owner_id")
	query := `
		SELECT s.id AS sensor_id, s.name, s.owner_id,
			COUNT(sr.id) AS reading_count,
			MIN(sr.start_ts) AS first_reading,
			MAX(sr.start_ts) AS last_reading
		FROM sensors s
		LEFT JOIN sensor_readings sr ON sr.sensor_id = s.id
		WHERE ` + pred + `
		GROUP BY s.id, s.name, s.owner_id
		ORDER BY s.name, s.id`

	rows := []sensorStatsRow{}
	if err := r.x().SelectContext(ctx, &rows, r.rebind(query), args...); err != nil {
		return nil, storeError("failed to compute sensor stats", err)
	}

	stats := make([]*models.SensorStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, &models.SensorStats{
			SensorID:     row.SensorID,
			Name:         row.Name,
			OwnerID:      row.OwnerID,
			ReadingCount: row.ReadingCount,
			FirstReading: row.FirstReading.ptr(),
			LastReading:  row.LastReading.ptr(),
		})
	}
	return stats, nil
}
