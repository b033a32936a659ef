package warehouse

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/export"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/repository"
	"github.com/Sakhawat2/Datawarehouse/internal/validation"
	nuts "github.com/vaudience/go-nuts"
)

// SubmitReading stores a reading for the sensor named in sub, creating the
// sensor under the principal's id on first use.
func (w *Warehouse) SubmitReading(ctx context.Context, p models.Principal, sub models.ReadingSubmission) (*models.Reading, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(sub); err != nil {
		return nil, err
	}
	start, end, err := parseWindow(sub.Start, sub.End)
	if err != nil {
		return nil, err
	}

	sensor, err := w.sensors.Resolve(ctx, scope, sub.SensorName, models.OwnerRef(p.ID))
	if err != nil {
		return nil, err
	}
	in := models.ReadingInput{SensorID: sensor.ID, Start: start, Value: *sub.Value, Unit: sub.Unit}
	if !end.IsZero() {
		in.End = &end
	}
	return w.readings.Insert(ctx, scope, in)
}

// GetReading returns one visible reading.
func (w *Warehouse) GetReading(ctx context.Context, p models.Principal, id int64) (*models.Reading, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	return w.readings.Get(ctx, scope, id)
}

// CorrectReading replaces the value and unit of a reading.
func (w *Warehouse) CorrectReading(ctx context.Context, p models.Principal, id int64, c models.ReadingCorrection) (*models.Reading, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(c); err != nil {
		return nil, err
	}
	return w.readings.Update(ctx, scope, id, *c.Value, c.Unit)
}

// DeleteReading removes one reading.
func (w *Warehouse) DeleteReading(ctx context.Context, p models.Principal, id int64) error {
	scope, err := scopeOf(p)
	if err != nil {
		return err
	}
	return w.readings.Delete(ctx, scope, id)
}

// ListReadings pages through the visible readings in (start, id) order.
func (w *Warehouse) ListReadings(ctx context.Context, p models.Principal, params models.ReadingListParams) (*models.ReadingPage, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	params.SensorIDs = models.SplitIDs(params.SensorIDs)
	if err := validation.ValidateStruct(params); err != nil {
		return nil, err
	}
	start, end, err := parseWindow(params.Start, params.End)
	if err != nil {
		return nil, err
	}
	if len(params.SensorIDs) > 0 {
		if _, err := w.sensors.ResolveIDs(ctx, scope, params.SensorIDs); err != nil {
			return nil, err
		}
	}

	filter := repository.ScanFilter{SensorIDs: params.SensorIDs, Start: start, End: end}
	if params.Cursor != "" {
		cursor, err := repository.DecodeCursor(params.Cursor)
		if err != nil {
			return nil, errors.NewValidationError("invalid cursor", err)
		}
		filter.After = &cursor
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	filter.Limit = limit + 1

	page := &models.ReadingPage{Readings: []models.Reading{}}
	err = w.readings.Scan(ctx, scope, filter, func(r *models.Reading) error {
		page.Readings = append(page.Readings, *r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(page.Readings) > limit {
		page.Readings = page.Readings[:limit]
		last := page.Readings[limit-1]
		page.NextCursor = repository.Cursor{Start: last.Start, ID: last.ID}.Encode()
	}
	return page, nil
}

// Query returns raw or resampled readings of a sensor set.
func (w *Warehouse) Query(ctx context.Context, p models.Principal, params models.QueryParams) ([]models.Sample, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	params.SensorIDs = models.SplitIDs(params.SensorIDs)
	if err := validation.ValidateStruct(params); err != nil {
		return nil, err
	}
	start, end, err := parseWindow(params.Start, params.End)
	if err != nil {
		return nil, err
	}
	return w.engine.Query(ctx, scope, models.ReadingQuery{
		SensorIDs: params.SensorIDs,
		Start:     start,
		End:       end,
		Bucket:    models.Bucket(params.Bucket),
	})
}

// Export renders the readings of each requested sensor as CSV, or as a ZIP of
// CSVs when more than one sensor has data in the window.
func (w *Warehouse) Export(ctx context.Context, p models.Principal, params models.ExportParams) (*export.Payload, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	params.SensorIDs = models.SplitIDs(params.SensorIDs)
	if err := validation.ValidateStruct(params); err != nil {
		return nil, err
	}
	start, end, err := parseWindow(params.Start, params.End)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, errors.NewValidationError("end must not be before start", nil)
	}
	if w.maxExportWindow > 0 && end.Sub(start) > w.maxExportWindow {
		return nil, errors.NewValidationError(fmt.Sprintf("export window must not exceed %s", w.maxExportWindow), nil)
	}

	sensors, err := w.sensors.ResolveIDs(ctx, scope, params.SensorIDs)
	if err != nil {
		return nil, err
	}

	groups := make([]export.Group, 0, len(sensors))
	for _, sensor := range sensors {
		group := export.Group{SensorName: sensor.Name}
		filter := repository.ScanFilter{SensorIDs: []string{sensor.ID}, Start: start, End: end}
		err := w.readings.Scan(ctx, scope, filter, func(r *models.Reading) error {
			group.Readings = append(group.Readings, r)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(group.Readings) > 0 {
			groups = append(groups, group)
		}
	}
	if len(groups) == 0 {
		return nil, errors.NewNotFoundError("no data found in this range", nil)
	}
	return export.Encode(groups, w.now())
}

// Prune deletes the visible readings that ended before params.Before.
func (w *Warehouse) Prune(ctx context.Context, p models.Principal, params models.PruneParams) (int64, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return 0, err
	}
	if err := validation.ValidateStruct(params); err != nil {
		return 0, err
	}
	cutoff, err := models.ParseInstant(params.Before)
	if err != nil {
		return 0, errors.NewValidationError(err.Error(), err)
	}
	return w.Cleanup.PruneBefore(ctx, scope, cutoff)
}

// ClearSensor deletes every reading of one sensor.
func (w *Warehouse) ClearSensor(ctx context.Context, p models.Principal, sensorID string) (int64, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return 0, err
	}
	return w.Cleanup.ClearSensor(ctx, scope, sensorID)
}

// ImportResult counts what an import stored.
type ImportResult struct {
	Readings int `json:"readings"`
	Sensors  int `json:"sensors"`
}

// Import reads CSV in the export format and stores every row for ownerID,
// creating sensors as needed. Rows stored before a failing row are kept.
func (w *Warehouse) Import(ctx context.Context, ownerID string, r io.Reader) (*ImportResult, error) {
	if ownerID == "" {
		return nil, errors.NewValidationError("owner id is required", nil)
	}
	scope := access.AdminScope()
	owner := models.OwnerRef(ownerID)
	sensorIDs := map[string]string{}
	result := &ImportResult{}

	err := export.Decode(r, func(row export.Row) error {
		id, ok := sensorIDs[row.SensorName]
		if !ok {
			sensor, err := w.sensors.Resolve(ctx, scope, row.SensorName, owner)
			if err != nil {
				return err
			}
			id = sensor.ID
			sensorIDs[row.SensorName] = id
			result.Sensors++
		}

		_, err := w.readings.Insert(ctx, scope, models.ReadingInput{
			SensorID: id,
			Start:    row.Start,
			End:      row.End,
			Value:    row.Value,
			Unit:     row.Unit,
		})
		if err != nil {
			if apiErr, ok := errors.As(err); ok && apiErr.Type == errors.ErrorTypeValidation {
				return errors.NewValidationError(fmt.Sprintf("line %d: %s", row.Line, apiErr.Message), err)
			}
			return err
		}
		result.Readings++
		return nil
	})
	nuts.L.Infof("[Warehouse] Imported %d readings into %d sensors for owner %s", result.Readings, result.Sensors, ownerID)
	return result, err
}

// parseWindow parses optional boundary instants; absent ones are zero.
func parseWindow(startRaw, endRaw string) (time.Time, time.Time, error) {
	var start, end time.Time
	if startRaw != "" {
		t, err := models.ParseInstant(startRaw)
		if err != nil {
			return start, end, errors.NewValidationError(err.Error(), err)
		}
		start = t
	}
	if endRaw != "" {
		t, err := models.ParseInstant(endRaw)
		if err != nil {
			return start, end, errors.NewValidationError(err.Error(), err)
		}
		end = t
	}
	return start, end, nil
}
