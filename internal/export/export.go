// Package export renders readings as downloadable CSV files, zipped when
// more than one sensor is exported, and reads that CSV format back.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/errors"
	"github.com/Sakhawat2/Datawarehouse/internal/models"
)

const (
	TimeLayout     = "2006-01-02 15:04:05"
	fileTimeLayout = "20060102_150405"

	ContentTypeCSV = "text/csv"
	ContentTypeZIP = "application/zip"
)

// Header is the first row of every exported CSV.
var Header = []string{"Sensor Name", "Start Time", "End Time", "Value", "Unit"}

// Group is the readings of one sensor.
type Group struct {
	SensorName string
	Readings   []*models.Reading
}

// Payload is an encoded export ready to be sent.
type Payload struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Encode renders one group as CSV and several as a ZIP of CSVs. now stamps
// the file name.
func Encode(groups []Group, now time.Time) (*Payload, error) {
	stamp := now.UTC().Format(fileTimeLayout)

	switch len(groups) {
	case 0:
		return nil, errors.NewValidationError("nothing to export", nil)
	case 1:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, groups[0]); err != nil {
			return nil, err
		}
		return &Payload{
			Filename:    fmt.Sprintf("%s_export_%s.csv", safeName(groups[0].SensorName), stamp),
			ContentType: ContentTypeCSV,
			Body:        buf.Bytes(),
		}, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	taken := map[string]bool{}
	for _, g := range groups {
		w, err := zw.Create(entryName(g.SensorName, taken))
		if err != nil {
			return nil, errors.NewInternalError("failed to add zip entry", err)
		}
		if err := WriteCSV(w, g); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.NewInternalError("failed to finish zip archive", err)
	}

	return &Payload{
		Filename:    fmt.Sprintf("sensors_export_%s.zip", stamp),
		ContentType: ContentTypeZIP,
		Body:        buf.Bytes(),
	}, nil
}

// WriteCSV writes the header and one row per reading.
func WriteCSV(w io.Writer, g Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.NewInternalError("failed to write csv", err)
	}
	for _, r := range g.Readings {
		end := ""
		if r.End != nil {
			end = r.End.UTC().Format(TimeLayout)
		}
		row := []string{
			g.SensorName,
			r.Start.UTC().Format(TimeLayout),
			end,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			r.Unit,
		}
		if err := cw.Write(row); err != nil {
			return errors.NewInternalError("failed to write csv", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.NewInternalError("failed to write csv", err)
	}
	return nil
}

// safeName keeps a sensor name usable as a file name.
func safeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "sensor"
	}
	return name
}

// entryName returns a unique "<name>.csv" within one archive, suffixing
// repeated names with _2, _3 and so on.
func entryName(sensorName string, taken map[string]bool) string {
	base := safeName(sensorName)
	name := base
	for n := 2; taken[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	taken[name] = true
	return name + ".csv"
}
