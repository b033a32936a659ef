// FilePath: internal/repository/sqlstore/sqlstore.reading.go
package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"math"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/database"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/repository"
	"github.com/jmoiron/sqlx"
	nuts "github.com/vaudience/go-nuts"
)

const readingColumns = `id, sensor_id, owner_id, start_ts, end_ts, value, unit, created_at`

type ReadingRepo struct {
	BaseRepo
}

func NewReadingRepository(db database.DB) *ReadingRepo {
	return &ReadingRepo{BaseRepo: BaseRepo{db: db}}
}

func normalizeReading(r *models.Reading) {
	r.Start = r.Start.UTC()
	r.End = utcPtr(r.End)
	r.CreatedAt = r.CreatedAt.UTC()
}

// Insert stores a reading. The owner is copied from the sensor row.
func (r *ReadingRepo) Insert(ctx context.Context, scope access.Scope, in models.ReadingInput) (*models.Reading, error) {
	if in.Start.IsZero() {
		return nil, errors.NewValidationError("start time is required", nil)
	}
	if in.End != nil && in.End.Before(in.Start) {
		return nil, errors.NewValidationError("end time must not be before start time", nil)
	}
	if err := checkFinite(in.Value); err != nil {
		return nil, err
	}

	var ownerID *string
	err := r.x().GetContext(ctx, &ownerID, r.rebind(`SELECT owner_id FROM sensors WHERE id = ?`), in.SensorID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, storeError("failed to look up sensor", err)
	}
	if !scope.Allows(ownerID) {
		return nil, errors.NewAuthorizationError("sensor belongs to another owner", nil)
	}

	reading := &models.Reading{
		SensorID:  in.SensorID,
		OwnerID:   ownerID,
		Start:     in.Start.UTC(),
		End:       utcPtr(in.End),
		Value:     in.Value,
		Unit:      in.Unit,
		CreatedAt: time.Now().UTC(),
	}
	query := `
		INSERT INTO sensor_readings (sensor_id, owner_id, start_ts, end_ts, value, unit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err = r.x().GetContext(ctx, &reading.ID, r.rebind(query),
		reading.SensorID, reading.OwnerID, reading.Start, reading.End,
		reading.Value, reading.Unit, reading.CreatedAt)
	if err != nil {
		return nil, storeError("failed to insert reading", err)
	}
	return reading, nil
}

// Get returns one reading, NotFound if absent and Authorization if foreign.
func (r *ReadingRepo) Get(ctx context.Context, scope access.Scope, id int64) (*models.Reading, error) {
	reading := &models.Reading{}
	query := `SELECT ` + readingColumns + ` FROM sensor_readings WHERE id = ?`

	err := r.x().GetContext(ctx, reading, r.rebind(query), id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("reading not found", err)
		}
		return nil, storeError("failed to get reading", err)
	}
	if !scope.Allows(reading.OwnerID) {
		return nil, errors.NewAuthorizationError("reading belongs to another owner", nil)
	}
	normalizeReading(reading)
	return reading, nil
}

// Update changes value and unit of a reading; nothing else is mutable.
func (r *ReadingRepo) Update(ctx context.Context, scope access.Scope, id int64, value float64, unit string) (*models.Reading, error) {
	if err := checkFinite(value); err != nil {
		return nil, err
	}

	reading, err := r.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	pred, args := scope.Predicate("owner_id")
	query := `UPDATE sensor_readings SET value = ?, unit = ? WHERE id = ? AND ` + pred
	result, err := r.x().ExecContext(ctx, r.rebind(query), append([]interface{}{value, unit, id}, args...)...)
	if err != nil {
		return nil, storeError("failed to update reading", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return nil, errors.NewNotFoundError("reading not found", nil)
	}

	reading.Value = value
	reading.Unit = unit
	return reading, nil
}

func (r *ReadingRepo) Delete(ctx context.Context, scope access.Scope, id int64) error {
	if _, err := r.Get(ctx, scope, id); err != nil {
		return err
	}

	pred, args := scope.Predicate("owner_id")
	query := `DELETE FROM sensor_readings WHERE id = ? AND ` + pred
	result, err := r.x().ExecContext(ctx, r.rebind(query), append([]interface{}{id}, args...)...)
	if err != nil {
		return storeError("failed to delete reading", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}
	if rows == 0 {
		return errors.NewNotFoundError("reading not found", nil)
	}
	return nil
}

// DeleteBefore removes every visible reading that ended before cutoff.
// Readings without an end time count as ending at their start.
func (r *ReadingRepo) DeleteBefore(ctx context.Context, scope access.Scope, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, errors.NewValidationError("cutoff is required", nil)
	}

	pred, args := scope.Predicate("owner_id")
	query := `DELETE FROM sensor_readings WHERE COALESCE(end_ts, start_ts) < ? AND ` + pred

	var deleted int64
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, r.rebind(query), append([]interface{}{cutoff.UTC()}, args...)...)
		if err != nil {
			return storeError("failed to delete old readings", err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return errors.NewDatabaseError("failed to get rows affected", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	nuts.L.Infof("[ReadingRepo] Deleted %d readings before %s", deleted, cutoff.UTC().Format(time.RFC3339))
	return deleted, nil
}

// DeleteBySensor removes all visible readings of one sensor.
func (r *ReadingRepo) DeleteBySensor(ctx context.Context, scope access.Scope, sensorID string) (int64, error) {
	var ownerID *string
	err := r.x().GetContext(ctx, &ownerID, r.rebind(`SELECT owner_id FROM sensors WHERE id = ?`), sensorID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, errors.NewNotFoundError("sensor not found", err)
		}
		return 0, storeError("failed to look up sensor", err)
	}
	if !scope.Allows(ownerID) {
		return 0, errors.NewAuthorizationError("sensor belongs to another owner", nil)
	}

	pred, args := scope.Predicate("owner_id")
	query := `DELETE FROM sensor_readings WHERE sensor_id = ? AND ` + pred

	var deleted int64
	err = r.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, r.rebind(query), append([]interface{}{sensorID}, args...)...)
		if err != nil {
			return storeError("failed to delete sensor readings", err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return errors.NewDatabaseError("failed to get rows affected", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	nuts.L.Infof("[ReadingRepo] Deleted %d readings of sensor %s", deleted, sensorID)
	return deleted, nil
}

// Scan streams the readings matching filter in (start, id) order. No
// SensorIDs means every visible sensor; a zero Start or End leaves that side
// of the window open. fn must not call back into the store: on SQLite the
// scan holds the only connection.
func (r *ReadingRepo) Scan(ctx context.Context, scope access.Scope, filter repository.ScanFilter, fn func(*models.Reading) error) error {
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return errors.NewValidationError("end time must not be before start time", nil)
	}

	conds := []string{}
	args := []interface{}{}
	if len(filter.SensorIDs) > 0 {
		conds = append(conds, "sensor_id IN (?)")
		args = append(args, filter.SensorIDs)
	}
	if !filter.Start.IsZero() {
		conds = append(conds, "start_ts >= ?")
		args = append(args, filter.Start.UTC())
	}
	if !filter.End.IsZero() {
		conds = append(conds, "COALESCE(end_ts, start_ts) <= ?")
		args = append(args, filter.End.UTC())
	}
	if filter.After != nil {
		after := filter.After.Start.UTC()
		conds = append(conds, "(start_ts > ? OR (start_ts = ? AND id > ?))")
		args = append(args, after, after, filter.After.ID)
	}
	pred, predArgs := scope.Predicate("owner_id")
	conds = append(conds, pred)
	args = append(args, predArgs...)

	query := `SELECT ` + readingColumns + ` FROM sensor_readings` + where(conds) + ` ORDER BY start_ts, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if len(filter.SensorIDs) > 0 {
		var err error
		query, args, err = sqlx.In(query, args...)
		if err != nil {
			return errors.NewInternalError("failed to expand sensor ids", err)
		}
	}

	rows, err := r.x().QueryxContext(ctx, r.rebind(query), args...)
	if err != nil {
		return storeError("failed to scan readings", err)
	}
	defer rows.Close()

	for rows.Next() {
		reading := &models.Reading{}
		if err := rows.StructScan(reading); err != nil {
			return storeError("failed to read reading row", err)
		}
		normalizeReading(reading)
		if err := fn(reading); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return storeError("failed to scan readings", err)
	}
	return nil
}

// checkFinite rejects values that cannot be rendered as JSON numbers.
func checkFinite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.NewValidationError("value must be a finite number", nil)
	}
	return nil
}
