// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"io"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/access"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
)

// ScanFilter selects readings of SensorIDs whose interval lies inside
// [Start, End]. After and Limit page through the result in scan order.
type ScanFilter struct {
	SensorIDs []string
	Start     time.Time
	End       time.Time
	After     *Cursor
	Limit     int
}

// SensorRepository maps (name, owner) to stable sensor ids
type SensorRepository interface {
	GetOrCreate(ctx context.Context, scope access.Scope, name string, ownerID *string) (*models.Sensor, error)
	Get(ctx context.Context, scope access.Scope, id string) (*models.Sensor, error)
	List(ctx context.Context, scope access.Scope) ([]*models.Sensor, error)
	Stats(ctx context.Context, scope access.Scope) ([]*models.SensorStats, error)
}

// ReadingRepository is the durable store of sensor readings
type ReadingRepository interface {
	Insert(ctx context.Context, scope access.Scope, in models.ReadingInput) (*models.Reading, error)
	Get(ctx context.Context, scope access.Scope, id int64) (*models.Reading, error)
	Update(ctx context.Context, scope access.Scope, id int64, value float64, unit string) (*models.Reading, error)
	Delete(ctx context.Context, scope access.Scope, id int64) error
	DeleteBefore(ctx context.Context, scope access.Scope, cutoff time.Time) (int64, error)
	DeleteBySensor(ctx context.Context, scope access.Scope, sensorID string) (int64, error)
	// Scan streams matching readings ordered by (start, id) into fn. An error
	// returned by fn stops the scan and is returned unchanged.
	Scan(ctx context.Context, scope access.Scope, filter ScanFilter, fn func(*models.Reading) error) error
}

// FileRepository holds file asset metadata
type FileRepository interface {
	Create(ctx context.Context, scope access.Scope, file *models.FileAsset) error
	Get(ctx context.Context, scope access.Scope, id string) (*models.FileAsset, error)
	List(ctx context.Context, scope access.Scope, kind models.FileKind) ([]*models.FileAsset, error)
	Delete(ctx context.Context, scope access.Scope, id string) error
	Usage(ctx context.Context, scope access.Scope) ([]models.StorageUsage, error)
}

// OwnerRepository removes everything an owner has in one transaction
type OwnerRepository interface {
	PurgeOwner(ctx context.Context, ownerID string) (*models.OwnerPurge, error)
}

// BlobStore keeps file contents addressed by key
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// SensorCache is a read-through cache of (owner, name) to sensor lookups
type SensorCache interface {
	Get(ctx context.Context, ownerID *string, name string) (*models.Sensor, bool)
	Set(ctx context.Context, sensor *models.Sensor)
	EvictOwner(ctx context.Context, ownerID string) error
}
