package export

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Sakhawat2/Datawarehouse/internal/errors"
)

// Row is one decoded line of an exported CSV.
type Row struct {
	Line       int
	SensorName string
	Start      time.Time
	End        *time.Time
	Value      float64
	Unit       string
}

// Decode reads CSV in the export format and calls fn per data row. Times are
// read as UTC. A malformed row stops decoding with a validation error naming
// its line.
func Decode(r io.Reader, fn func(Row) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.NewValidationError("csv is empty", nil)
		}
		return errors.NewValidationError("failed to read csv header", err)
	}
	for i, h := range Header {
		if strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")) != h {
			return errors.NewValidationError(fmt.Sprintf("unexpected csv header %q", strings.Join(header, ",")), nil)
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.NewValidationError(fmt.Sprintf("line %d: malformed csv", line), err)
		}

		row, err := parseRow(line, rec)
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

func parseRow(line int, rec []string) (Row, error) {
	invalid := func(msg string, err error) (Row, error) {
		return Row{}, errors.NewValidationError(fmt.Sprintf("line %d: %s", line, msg), err)
	}

	row := Row{Line: line, SensorName: strings.TrimSpace(rec[0]), Unit: rec[4]}
	if row.SensorName == "" {
		return invalid("sensor name is empty", nil)
	}

	start, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(rec[1]), time.UTC)
	if err != nil {
		return invalid("invalid start time", err)
	}
	row.Start = start

	if s := strings.TrimSpace(rec[2]); s != "" {
		end, err := time.ParseInLocation(TimeLayout, s, time.UTC)
		if err != nil {
			return invalid("invalid end time", err)
		}
		if end.Before(start) {
			return invalid("end time before start time", nil)
		}
		row.End = &end
	}

	row.Value, err = strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
	if err != nil {
		return invalid("invalid value", err)
	}
	if math.IsNaN(row.Value) || math.IsInf(row.Value, 0) {
		return invalid("value must be a finite number", nil)
	}
	return row, nil
}
