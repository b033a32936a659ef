package server

import (
	"context"
	"fmt"

	"github.com/Sakhawat2/Datawarehouse/internal/config"
	"github.com/Sakhawat2/Datawarehouse/internal/database"
	"github.com/Sakhawat2/Datawarehouse/internal/repository"
	"github.com/Sakhawat2/Datawarehouse/internal/repository/cache"
	"github.com/Sakhawat2/Datawarehouse/internal/repository/files"
	"github.com/Sakhawat2/Datawarehouse/internal/repository/sqlstore"
	"github.com/Sakhawat2/Datawarehouse/internal/warehouse"
	nuts "github.com/vaudience/go-nuts"
)

// Dependencies are the opened stores behind a warehouse. The CLI jobs use
// them without the HTTP layer.
type Dependencies struct {
	DB        database.DB
	Cache     *cache.RedisSensorCache
	Warehouse *warehouse.Warehouse
}

// Open connects every configured store and assembles the warehouse.
func Open(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		nuts.L.Infof("[Server] Applied %d migrations", applied)
	}

	deps := &Dependencies{DB: db}

	var sensorCache repository.SensorCache
	if cfg.Redis.Enabled {
		c, err := cache.NewRedisSensorCache(ctx, cfg.Redis)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.Cache = c
		sensorCache = c
	}

	blobs, err := files.New(ctx, cfg.BlobStore)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	deps.Warehouse = warehouse.New(warehouse.Stores{
		DB:       db,
		Sensors:  sqlstore.NewSensorRepository(db),
		Readings: sqlstore.NewReadingRepository(db),
		Files:    sqlstore.NewFileRepository(db),
		Owners:   sqlstore.NewOwnerRepository(db),
		Blobs:    blobs,
		Cache:    sensorCache,
	}, warehouse.Options{
		Policy: files.Policy{
			MaxFileSize:      cfg.BlobStore.MaxFileSize,
			AllowedMimeTypes: cfg.BlobStore.AllowedMimeTypes,
		},
		MaxExportWindow: cfg.Export.MaxWindow,
	})
	if err := deps.Warehouse.Validate(); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

// Close releases the cache client and the database pool.
func (d *Dependencies) Close() error {
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			nuts.L.Warnf("[Server] Failed to close redis client: %v", err)
		}
	}
	return d.DB.Close()
}
