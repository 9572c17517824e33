package metro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cubny/metro/internal/haversine"
)

// dataset columns
const (
	ColumnID        = "Station ID"
	ColumnName      = "Station Name"
	ColumnDistance  = "Distance from Start (km)"
	ColumnLine      = "Line"
	ColumnOpened    = "Opening Date"
	ColumnLayout    = "Station Layout"
	ColumnLatitude  = "Latitude"
	ColumnLongitude = "Longitude"
)

// Columns lists the dataset columns in file order
var Columns = []string{
	ColumnID, ColumnName, ColumnDistance, ColumnLine,
	ColumnOpened, ColumnLayout, ColumnLatitude, ColumnLongitude,
}

var requiredColumns = []string{ColumnName, ColumnLine, ColumnLatitude, ColumnLongitude}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006", "2006/01/02"}

// Station is one row of the dataset
type Station struct {
	ID                int
	Name              string
	Line              string
	Layout            string
	DistanceFromStart float64
	Opened            time.Time
	Lat, Long         float64
}

// Point returns the geo coordinates of the station
func (s Station) Point() haversine.Point {
	return haversine.Point{Lat: s.Lat, Long: s.Long}
}

// Valid reports whether the station coordinates are within the geographic bounds
func (s Station) Valid() bool {
	return haversine.Valid(s.Point())
}

// Distance returns the haversine distance in kilometers from the given station
func (s Station) Distance(from Station) float64 {
	return haversine.Distance(from.Point(), s.Point())
}

// header maps column names to their index in a record
type header map[string]int

func newHeader(record Line) (header, error) {
	h := make(header, len(record))
	for i, name := range record {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := h[name]; !ok {
			h[name] = i
		}
	}

	var missing []string
	for _, column := range requiredColumns {
		if _, ok := h[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header is missing columns: %s", strings.Join(missing, ", "))
	}

	return h, nil
}

func (h header) field(record Line, column string) string {
	i, ok := h[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseStation builds a Station out of a record, it never fails on a bad value:
// coordinates that do not parse become NaN and get the station flagged invalid,
// other fields fall back to their zero value. The names of the columns which
// were empty or did not parse are returned alongside.
func parseStation(h header, record Line) (Station, []string) {
	var (
		s       Station
		missing []string
		err     error
	)
	miss := func(column string) {
		missing = append(missing, column)
	}

	if s.Name = h.field(record, ColumnName); s.Name == "" {
		miss(ColumnName)
	}
	if s.Line = h.field(record, ColumnLine); s.Line == "" {
		miss(ColumnLine)
	}
	if s.Layout = h.field(record, ColumnLayout); s.Layout == "" {
		miss(ColumnLayout)
	}
	if s.ID, err = strconv.Atoi(h.field(record, ColumnID)); err != nil {
		miss(ColumnID)
	}
	if s.DistanceFromStart, err = parseFloat(h.field(record, ColumnDistance)); err != nil {
		s.DistanceFromStart = 0
		miss(ColumnDistance)
	}
	if s.Opened, err = parseDate(h.field(record, ColumnOpened)); err != nil {
		miss(ColumnOpened)
	}
	if s.Lat, err = parseFloat(h.field(record, ColumnLatitude)); err != nil {
		s.Lat = math.NaN()
		miss(ColumnLatitude)
	}
	if s.Long, err = parseFloat(h.field(record, ColumnLongitude)); err != nil {
		s.Long = math.NaN()
		miss(ColumnLongitude)
	}

	return s, missing
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", raw)
	}
	return v, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown date format %q", raw)
}
