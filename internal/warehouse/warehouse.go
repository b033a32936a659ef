// Package warehouse is the service layer of the data warehouse. It turns the
// authenticated principal into an access scope and drives the stores, the
// sensor registry, the resample engine and the export encoder.
package warehouse

import (
	"context"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/cleanup"
	"github.com/Sakhawat2/Datawarehouse/internal/database"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/registry"
	"github.com/Sakhawat2/Datawarehouse/internal/repository"
	"github.com/Sakhawat2/Datawarehouse/internal/repository/files"
	"github.com/Sakhawat2/Datawarehouse/internal/resample"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// Stores are the persistence dependencies of the warehouse. Cache is optional.
type Stores struct {
	DB       database.DB
	Sensors  repository.SensorRepository
	Readings repository.ReadingRepository
	Files    repository.FileRepository
	Owners   repository.OwnerRepository
	Blobs    repository.BlobStore
	Cache    repository.SensorCache
}

// Options tune request limits.
type Options struct {
	Policy          files.Policy
	MaxExportWindow time.Duration
}

// Warehouse contains all repositories and service-wide dependencies
type Warehouse struct {
	db       database.DB
	readings repository.ReadingRepository
	files    repository.FileRepository
	blobs    repository.BlobStore
	sensors  *registry.Registry
	engine   *resample.Engine
	Cleanup  *cleanup.CleanupService

	policy          files.Policy
	maxExportWindow time.Duration
	now             func() time.Time
}

// New creates a new Warehouse instance
func New(stores Stores, opts Options) *Warehouse {
	var sensors *registry.Registry
	if stores.Sensors != nil {
		sensors = registry.New(stores.Sensors, stores.Cache)
	}
	w := &Warehouse{
		db:              stores.DB,
		readings:        stores.Readings,
		files:           stores.Files,
		blobs:           stores.Blobs,
		sensors:         sensors,
		policy:          opts.Policy,
		maxExportWindow: opts.MaxExportWindow,
		now:             func() time.Time { return time.Now().UTC() },
	}
	if sensors != nil {
		w.engine = resample.New(stores.Readings, sensors)
		w.Cleanup = cleanup.New(stores.Owners, stores.Readings, stores.Blobs, sensors)
	}
	return w
}

// Validate checks if all required repositories are initialized
func (w *Warehouse) Validate() error {
	if w.db == nil {
		return ErrMissingRepository("db")
	}
	if w.sensors == nil {
		return ErrMissingRepository("sensors")
	}
	if w.readings == nil {
		return ErrMissingRepository("readings")
	}
	if w.files == nil {
		return ErrMissingRepository("files")
	}
	if w.blobs == nil {
		return ErrMissingRepository("blobs")
	}
	return nil
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}

// Health pings the relational store.
func (w *Warehouse) Health(ctx context.Context) error {
	if err := w.db.Ping(ctx); err != nil {
		return errors.NewDatabaseError("database unreachable", err)
	}
	return nil
}

// scopeOf derives the access scope of p. A non-admin without an id cannot be
// scoped to anything.
func scopeOf(p models.Principal) (access.Scope, error) {
	if !p.IsAdmin && p.ID == "" {
		return access.Scope{}, errors.NewAuthError("principal has no identity", nil)
	}
	return access.ScopeFor(p), nil
}

// ListSensors returns the visible sensors ordered by name.
func (w *Warehouse) ListSensors(ctx context.Context, p models.Principal) ([]*models.Sensor, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	return w.sensors.List(ctx, scope)
}

// GetSensor returns one visible sensor.
func (w *Warehouse) GetSensor(ctx context.Context, p models.Principal, id string) (*models.Sensor, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	return w.sensors.Get(ctx, scope, id)
}

// SensorStats returns reading counts and first/last reading time per sensor.
func (w *Warehouse) SensorStats(ctx context.Context, p models.Principal) ([]*models.SensorStats, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	return w.sensors.Stats(ctx, scope)
}

// DeleteOwner removes all data of an owner. Admin only.
func (w *Warehouse) DeleteOwner(ctx context.Context, p models.Principal, ownerID string) (*models.OwnerPurge, error) {
	scope, err := scopeOf(p)
	if err != nil {
		return nil, err
	}
	return w.Cleanup.DeleteOwner(ctx, scope, ownerID)
}
