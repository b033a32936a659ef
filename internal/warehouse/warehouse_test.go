package warehouse

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/config"
	"github.com/Sakhawat2/Datawarehouse/internal/database"
	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/export"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/Sakhawat2/Datawarehouse/internal/repository/files"
	"github.com/Sakhawat2/Datawarehouse/internal/repository/sqlstore"
	"github.com/stretchr/testify/suite"
)

type WarehouseSuite struct {
	suite.Suite
	ctx context.Context
	db  database.DB
	w   *Warehouse

	admin models.Principal
	u1    models.Principal
	u2    models.Principal
}

func TestWarehouseSuite(t *testing.T) {
	suite.Run(t, new(WarehouseSuite))
}

func (s *WarehouseSuite) SetupTest() {
	s.ctx = context.Background()
	dir := s.T().TempDir()

	db, err := database.NewSQLiteDB(config.SQLiteConfig{
		Path:        filepath.Join(dir, "warehouse.db"),
		BusyTimeout: 5 * time.Second,
	})
	s.Require().NoError(err)
	_, err = database.Migrate(s.ctx, db)
	s.Require().NoError(err)

	blobs, err := files.NewLocalStore(filepath.Join(dir, "files"))
	s.Require().NoError(err)

	s.db = db
	s.w = New(Stores{
		DB:       db,
		Sensors:  sqlstore.NewSensorRepository(db),
		Readings: sqlstore.NewReadingRepository(db),
		Files:    sqlstore.NewFileRepository(db),
		Owners:   sqlstore.NewOwnerRepository(db),
		Blobs:    blobs,
	}, Options{
		Policy:          files.Policy{MaxFileSize: 1024},
		MaxExportWindow: 31 * 24 * time.Hour,
	})
	s.w.now = func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) }

	s.admin = models.Principal{ID: "root", IsAdmin: true}
	s.u1 = models.Principal{ID: "u1", Name: "User One"}
	s.u2 = models.Principal{ID: "u2", Name: "User Two"}
}

func (s *WarehouseSuite) TearDownTest() {
	s.db.Close()
}

func float(v float64) *float64 { return &v }

func (s *WarehouseSuite) submit(p models.Principal, sensor, start string, value float64) *models.Reading {
	r, err := s.w.SubmitReading(s.ctx, p, models.ReadingSubmission{
		SensorName: sensor, Start: start, Value: float(value), Unit: "C",
	})
	s.Require().NoError(err)
	return r
}

func (s *WarehouseSuite) TestValidate() {
	s.NoError(s.w.Validate())
	s.Error(New(Stores{}, Options{}).Validate())
}

func (s *WarehouseSuite) TestHealth() {
	s.NoError(s.w.Health(s.ctx))
}

func (s *WarehouseSuite) TestSubmitAndQueryEndToEnd() {
	r := s.submit(s.u1, "S1", "2024-01-01T00:00:00Z", 5.0)
	s.Equal("u1", *r.OwnerID)
	s.Nil(r.End)

	params := models.QueryParams{
		SensorIDs: []string{r.SensorID},
		Start:     "2024-01-01T00:00:00Z",
		End:       "2024-01-01T01:00:00Z",
	}
	samples, err := s.w.Query(s.ctx, s.u1, params)
	s.Require().NoError(err)
	s.Require().Len(samples, 1)
	s.Equal(5.0, samples[0].Value)
	s.Equal("C", samples[0].Unit)
	s.True(samples[0].Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, err = s.w.Query(s.ctx, s.u2, params)
	s.True(errors.IsAuthorization(err))

	samples, err = s.w.Query(s.ctx, s.admin, params)
	s.Require().NoError(err)
	s.Len(samples, 1)
}

func (s *WarehouseSuite) TestSubmitReusesSensor() {
	a := s.submit(s.u1, "TempA", "2024-01-01T00:00:00Z", 1)
	b := s.submit(s.u1, "TempA", "2024-01-01T00:05:00+01:00", 2)
	c := s.submit(s.u2, "TempA", "2024-01-01T00:00:00Z", 3)

	s.Equal(a.SensorID, b.SensorID)
	s.NotEqual(a.SensorID, c.SensorID)
	s.True(b.Start.Equal(time.Date(2023, 12, 31, 23, 5, 0, 0, time.UTC)))

	sensors, err := s.w.ListSensors(s.ctx, s.u1)
	s.Require().NoError(err)
	s.Len(sensors, 1)

	sensors, err = s.w.ListSensors(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Len(sensors, 2)
}

func (s *WarehouseSuite) TestSubmitValidation() {
	cases := []models.ReadingSubmission{
		{Start: "2024-01-01T00:00:00Z", Value: float(1)},
		{SensorName: "x", Start: "2024-01-01 00:00:00", Value: float(1)},
		{SensorName: "x", Start: "2024-01-01T00:00:00Z"},
		{SensorName: "x", Start: "2024-01-01T00:00:00Z", End: "2023-01-01T00:00:00Z", Value: float(1)},
	}
	for _, sub := range cases {
		_, err := s.w.SubmitReading(s.ctx, s.u1, sub)
		s.True(errors.IsValidation(err), "%+v: %v", sub, err)
	}

	_, err := s.w.SubmitReading(s.ctx, models.Principal{}, cases[0])
	s.Error(err)
}

func (s *WarehouseSuite) TestCorrectAndDeleteReading() {
	r := s.submit(s.u1, "S1", "2024-01-01T00:00:00Z", 5)

	_, err := s.w.CorrectReading(s.ctx, s.u2, r.ID, models.ReadingCorrection{Value: float(6)})
	s.True(errors.IsAuthorization(err))

	updated, err := s.w.CorrectReading(s.ctx, s.u1, r.ID, models.ReadingCorrection{Value: float(6), Unit: "F"})
	s.Require().NoError(err)
	s.Equal(6.0, updated.Value)
	s.Equal("F", updated.Unit)

	_, err = s.w.CorrectReading(s.ctx, s.u1, r.ID, models.ReadingCorrection{})
	s.True(errors.IsValidation(err))

	s.True(errors.IsAuthorization(s.w.DeleteReading(s.ctx, s.u2, r.ID)))
	s.NoError(s.w.DeleteReading(s.ctx, s.admin, r.ID))
	s.True(errors.IsNotFound(s.w.DeleteReading(s.ctx, s.u1, r.ID)))

	_, err = s.w.GetReading(s.ctx, s.u1, r.ID)
	s.True(errors.IsNotFound(err))
}

func (s *WarehouseSuite) TestHourlyQuery() {
	r := s.submit(s.u1, "S1", "2024-01-01T10:00:00Z", 10)
	s.submit(s.u1, "S1", "2024-01-01T10:20:00Z", 20)
	s.submit(s.u1, "S1", "2024-01-01T10:40:00Z", 30)

	samples, err := s.w.Query(s.ctx, s.u1, models.QueryParams{
		SensorIDs: []string{r.SensorID},
		Start:     "2024-01-01T10:00:00Z",
		End:       "2024-01-01T11:00:00Z",
		Bucket:    "hour",
	})
	s.Require().NoError(err)
	s.Require().Len(samples, 1)
	s.Equal(20.0, samples[0].Value)
	s.Equal(3, samples[0].Count)

	_, err = s.w.Query(s.ctx, s.u1, models.QueryParams{
		SensorIDs: []string{r.SensorID}, Start: "2024-01-01T10:00:00Z", End: "2024-01-01T11:00:00Z", Bucket: "week",
	})
	s.True(errors.IsValidation(err))

	_, err = s.w.Query(s.ctx, s.u1, models.QueryParams{
		SensorIDs: []string{"unknown"}, Start: "2024-01-01T10:00:00Z", End: "2024-01-01T11:00:00Z",
	})
	s.True(errors.IsNotFound(err))
}

func (s *WarehouseSuite) TestListReadingsPages() {
	for i := 0; i < 5; i++ {
		start := time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC).Format(time.RFC3339)
		s.submit(s.u1, "S1", start, float64(i))
	}
	s.submit(s.u2, "S2", "2024-01-01T00:00:00Z", 99)

	var values []float64
	cursor := ""
	pages := 0
	for {
		page, err := s.w.ListReadings(s.ctx, s.u1, models.ReadingListParams{Cursor: cursor, Limit: 2})
		s.Require().NoError(err)
		pages++
		for _, r := range page.Readings {
			values = append(values, r.Value)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	s.Equal([]float64{0, 1, 2, 3, 4}, values)
	s.Equal(3, pages)

	_, err := s.w.ListReadings(s.ctx, s.u1, models.ReadingListParams{Cursor: "%%%"})
	s.True(errors.IsValidation(err))
}

func (s *WarehouseSuite) TestExportSingleAndMany() {
	a := s.submit(s.u1, "A", "2024-01-01T00:00:00Z", 1)
	s.submit(s.u1, "A", "2024-01-01T00:01:00Z", 2)
	s.submit(s.u1, "A", "2024-01-01T00:02:00Z", 3)
	b := s.submit(s.u1, "B", "2024-01-01T00:00:00Z", 4)

	p, err := s.w.Export(s.ctx, s.u1, models.ExportParams{
		SensorIDs: []string{a.SensorID}, Start: "2024-01-01T00:00:00Z", End: "2024-01-02T00:00:00Z",
	})
	s.Require().NoError(err)
	s.Equal(export.ContentTypeCSV, p.ContentType)
	s.Equal("A_export_20240201_120000.csv", p.Filename)
	s.Equal(4, strings.Count(string(p.Body), "\n"))

	p, err = s.w.Export(s.ctx, s.u1, models.ExportParams{
		SensorIDs: []string{a.SensorID + "," + b.SensorID}, Start: "2024-01-01T00:00:00Z", End: "2024-01-02T00:00:00Z",
	})
	s.Require().NoError(err)
	s.Equal(export.ContentTypeZIP, p.ContentType)

	_, err = s.w.Export(s.ctx, s.u1, models.ExportParams{
		SensorIDs: []string{a.SensorID}, Start: "2025-01-01T00:00:00Z", End: "2025-01-02T00:00:00Z",
	})
	s.True(errors.IsNotFound(err))

	_, err = s.w.Export(s.ctx, s.u2, models.ExportParams{
		SensorIDs: []string{a.SensorID}, Start: "2024-01-01T00:00:00Z", End: "2024-01-02T00:00:00Z",
	})
	s.True(errors.IsAuthorization(err))

	_, err = s.w.Export(s.ctx, s.u1, models.ExportParams{
		SensorIDs: []string{a.SensorID}, Start: "2023-01-01T00:00:00Z", End: "2024-01-02T00:00:00Z",
	})
	s.True(errors.IsValidation(err))
}

func (s *WarehouseSuite) TestPruneAndClear() {
	old := s.submit(s.u1, "S1", "2023-06-01T00:00:00Z", 1)
	s.submit(s.u1, "S1", "2024-06-01T00:00:00Z", 2)
	s.submit(s.u2, "S2", "2023-06-01T00:00:00Z", 3)

	n, err := s.w.Prune(s.ctx, s.u1, models.PruneParams{Before: "2024-01-01T00:00:00Z"})
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	n, err = s.w.Prune(s.ctx, s.u1, models.PruneParams{Before: "2024-01-01T00:00:00Z"})
	s.Require().NoError(err)
	s.Equal(int64(0), n)

	_, err = s.w.Prune(s.ctx, s.u1, models.PruneParams{})
	s.True(errors.IsValidation(err))

	_, err = s.w.ClearSensor(s.ctx, s.u2, old.SensorID)
	s.True(errors.IsAuthorization(err))

	n, err = s.w.ClearSensor(s.ctx, s.u1, old.SensorID)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	stats, err := s.w.SensorStats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Len(stats, 2)
}

func (s *WarehouseSuite) TestImport() {
	csv := "Sensor Name,Start Time,End Time,Value,Unit\n" +
		"temp,2024-01-01 00:00:00,2024-01-01 00:01:00,1.5,C\n" +
		"temp,2024-01-01 00:01:00,,2.5,C\n" +
		"hum,2024-01-01 00:00:00,,40,%\n"

	result, err := s.w.Import(s.ctx, "u1", strings.NewReader(csv))
	s.Require().NoError(err)
	s.Equal(3, result.Readings)
	s.Equal(2, result.Sensors)

	sensors, err := s.w.ListSensors(s.ctx, s.u1)
	s.Require().NoError(err)
	s.Require().Len(sensors, 2)
	s.Equal("hum", sensors[0].Name)

	result, err = s.w.Import(s.ctx, "u1", strings.NewReader(csv+"temp,bad,,1,C\n"))
	s.True(errors.IsValidation(err))
	s.Equal(3, result.Readings)

	_, err = s.w.Import(s.ctx, "", strings.NewReader(csv))
	s.True(errors.IsValidation(err))
}

func (s *WarehouseSuite) upload(p models.Principal, name, body string) *models.FileAsset {
	asset, err := s.w.UploadFile(s.ctx, p, FileUpload{
		Kind: models.FileKindFile, Filename: name, ContentType: "text/plain",
		Size: int64(len(body)), Body: strings.NewReader(body),
	})
	s.Require().NoError(err)
	return asset
}

func (s *WarehouseSuite) TestFileLifecycle() {
	asset := s.upload(s.u1, "notes.txt", "hello")
	s.Equal("u1", asset.OwnerID)
	s.Contains(asset.StorageKey, "u1/file/")

	_, _, err := s.w.OpenFile(s.ctx, s.u2, asset.ID)
	s.True(errors.IsAuthorization(err))

	got, body, err := s.w.OpenFile(s.ctx, s.u1, asset.ID)
	s.Require().NoError(err)
	data, err := io.ReadAll(body)
	body.Close()
	s.Require().NoError(err)
	s.Equal("hello", string(data))
	s.Equal("notes.txt", got.Filename)

	list, err := s.w.ListFiles(s.ctx, s.u1, models.FileListParams{Kind: "file"})
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.w.ListFiles(s.ctx, s.u1, models.FileListParams{Kind: "image"})
	s.True(errors.IsValidation(err))

	usage, err := s.w.StorageUsage(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Require().Len(usage, 1)
	s.Equal(int64(5), usage[0].Bytes)

	s.True(errors.IsAuthorization(s.w.DeleteFile(s.ctx, s.u2, asset.ID)))
	s.NoError(s.w.DeleteFile(s.ctx, s.u1, asset.ID))
	_, _, err = s.w.OpenFile(s.ctx, s.u1, asset.ID)
	s.True(errors.IsNotFound(err))
}

func (s *WarehouseSuite) TestUploadRejected() {
	_, err := s.w.UploadFile(s.ctx, s.u1, FileUpload{
		Kind: models.FileKindVideo, Filename: "big.mp4", Size: 4096, Body: bytes.NewReader(make([]byte, 4096)),
	})
	s.True(errors.IsValidation(err))

	_, err = s.w.UploadFile(s.ctx, s.u1, FileUpload{Kind: "image", Filename: "a.png", Size: 1, Body: strings.NewReader("a")})
	s.True(errors.IsValidation(err))

	_, err = s.w.UploadFile(s.ctx, s.u1, FileUpload{Kind: models.FileKindFile, Filename: "a.txt", Size: 10, Body: strings.NewReader("a")})
	s.True(errors.IsValidation(err))

	list, err := s.w.ListFiles(s.ctx, s.admin, models.FileListParams{})
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *WarehouseSuite) TestDeleteOwner() {
	s.submit(s.u1, "S1", "2024-01-01T00:00:00Z", 1)
	s.submit(s.u2, "S2", "2024-01-01T00:00:00Z", 2)
	asset := s.upload(s.u1, "a.txt", "abc")

	_, err := s.w.DeleteOwner(s.ctx, s.u1, "u1")
	s.True(errors.IsAuthorization(err))

	purge, err := s.w.DeleteOwner(s.ctx, s.admin, "u1")
	s.Require().NoError(err)
	s.Equal(int64(1), purge.Readings)
	s.Equal([]string{"S1"}, purge.SensorNames)
	s.Require().Len(purge.Files, 1)
	s.Equal(asset.ID, purge.Files[0].ID)

	sensors, err := s.w.ListSensors(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Require().Len(sensors, 1)
	s.Equal("S2", sensors[0].Name)
}
