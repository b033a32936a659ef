package export

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

func readings(values ...float64) []*models.Reading {
	out := []*models.Reading{}
	for i, v := range values {
		start := time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC)
		end := start.Add(time.Minute)
		out = append(out, &models.Reading{ID: int64(i + 1), Start: start, End: &end, Value: v, Unit: "C"})
	}
	return out
}

func TestEncodeSingleGroupAsCSV(t *testing.T) {
	p, err := Encode([]Group{{SensorName: "temp", Readings: readings(1.5, 2, 3)}}, now)
	require.NoError(t, err)

	assert.Equal(t, "temp_export_20240304_050607.csv", p.Filename)
	assert.Equal(t, ContentTypeCSV, p.ContentType)

	lines := strings.Split(strings.TrimRight(string(p.Body), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Sensor Name,Start Time,End Time,Value,Unit", lines[0])
	assert.Equal(t, "temp,2024-01-01 00:00:00,2024-01-01 00:01:00,1.5,C", lines[1])
	assert.Equal(t, "temp,2024-01-01 00:02:00,2024-01-01 00:03:00,3,C", lines[3])
}

func TestEncodeManyGroupsAsZip(t *testing.T) {
	p, err := Encode([]Group{
		{SensorName: "a", Readings: readings(1)},
		{SensorName: "b", Readings: readings(2, 3)},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "sensors_export_20240304_050607.zip", p.Filename)
	assert.Equal(t, ContentTypeZIP, p.ContentType)

	zr, err := zip.NewReader(bytes.NewReader(p.Body), int64(len(p.Body)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.csv", zr.File[0].Name)
	assert.Equal(t, "b.csv", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(body), "\n"))
}

func TestEncodeDuplicateNames(t *testing.T) {
	p, err := Encode([]Group{
		{SensorName: "temp"}, {SensorName: "temp"}, {SensorName: "a/b"}, {SensorName: "temp_2"},
	}, now)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(p.Body), int64(len(p.Body)))
	require.NoError(t, err)
	names := []string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"temp.csv", "temp_2.csv", "a_b.csv", "temp_2_2.csv"}, names)
}

func TestEncodeNothing(t *testing.T) {
	_, err := Encode(nil, now)
	assert.True(t, errors.IsValidation(err))
}

func TestEncodeOpenEnd(t *testing.T) {
	r := &models.Reading{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("X", 7200)), Value: 0.1}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Group{SensorName: "t", Readings: []*models.Reading{r}}))
	assert.Contains(t, buf.String(), "t,2023-12-31 22:00:00,,0.1,\n")
}

func TestDecodeRoundTrip(t *testing.T) {
	p, err := Encode([]Group{{SensorName: "temp", Readings: readings(1.25, -4)}}, now)
	require.NoError(t, err)

	var rows []Row
	require.NoError(t, Decode(bytes.NewReader(p.Body), func(r Row) error {
		rows = append(rows, r)
		return nil
	}))
	require.Len(t, rows, 2)
	assert.Equal(t, "temp", rows[0].SensorName)
	assert.Equal(t, 1.25, rows[0].Value)
	assert.Equal(t, -4.0, rows[1].Value)
	assert.True(t, rows[1].Start.Equal(time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)))
	require.NotNil(t, rows[1].End)
	assert.Equal(t, 3, rows[1].Line)
}

func TestDecodeErrors(t *testing.T) {
	noop := func(Row) error { return nil }
	cases := map[string]string{
		"empty":      "",
		"header":     "a,b,c,d,e\n",
		"start":      "Sensor Name,Start Time,End Time,Value,Unit\nt,yesterday,,1,C\n",
		"value":      "Sensor Name,Start Time,End Time,Value,Unit\nt,2024-01-01 00:00:00,,abc,C\n",
		"end":        "Sensor Name,Start Time,End Time,Value,Unit\nt,2024-01-01 00:00:00,2023-01-01 00:00:00,1,C\n",
		"fields":     "Sensor Name,Start Time,End Time,Value,Unit\nt,2024-01-01 00:00:00\n",
		"empty name": "Sensor Name,Start Time,End Time,Value,Unit\n ,2024-01-01 00:00:00,,1,C\n",
		"nan":        "Sensor Name,Start Time,End Time,Value,Unit\nt,2024-01-01 00:00:00,,NaN,C\n",
		"inf":        "Sensor Name,Start Time,End Time,Value,Unit\nt,2024-01-01 00:00:00,,Inf,C\n",
		"-inf":       "Sensor Name,Start Time,End Time,Value,Unit\nt,2024-01-01 00:00:00,,-Inf,C\n",
	}
	for name, input := range cases {
		err := Decode(strings.NewReader(input), noop)
		assert.True(t, errors.IsValidation(err), name)
	}
}

func TestDecodeHeaderWithBOM(t *testing.T) {
	input := "\ufeffSensor Name,Start Time,End Time,Value,Unit\nt,2024-01-01 00:00:00,,1.5,C\n"

	var rows []Row
	require.NoError(t, Decode(strings.NewReader(input), func(r Row) error {
		rows = append(rows, r)
		return nil
	}))
	require.Len(t, rows, 1)
	assert.Equal(t, "t", rows[0].SensorName)
	assert.Equal(t, 1.5, rows[0].Value)
	assert.Nil(t, rows[0].End)
}
