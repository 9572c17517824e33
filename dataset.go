package metro

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/cubny/metro/internal/pipeline"
)

// Dataset is the read-only store of stations loaded once at start up.
// A station name identifies a station: lookups resolve to the first row carrying
// the name, later rows with the same name (interchanges listed once per line)
// only show up in per-line views. Accessors return copies and the Dataset is safe
// for concurrent use.
type Dataset struct {
	rows    []Station
	index   map[string]int
	unique  []int
	lines   map[string][]int
	counts  map[string]int
	missing map[string]int
}

// row is a parsed record travelling through the load pipeline
type row struct {
	station Station
	missing []string
}

// LoadDataset reads a CSV dataset whose first record is the header
func LoadDataset(ctx context.Context, r io.Reader) (*Dataset, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := csv.NewReader(r)
	in.FieldsPerRecord = -1
	first, err := in.Read()
	switch {
	case err == io.EOF:
		return nil, errors.New("dataset is empty")
	case err != nil:
		return nil, fmt.Errorf("read header: %w", err)
	}
	h, err := newHeader(first)
	if err != nil {
		return nil, err
	}

	d := &Dataset{
		index:   make(map[string]int),
		lines:   make(map[string][]int),
		counts:  make(map[string]int),
		missing: make(map[string]int, len(Columns)),
	}
	for _, column := range Columns {
		d.missing[column] = 0
	}

	rowc, errc := pipeline.Generate(ctx, streamFromCSV(in, h))
	if err := pipeline.Sink(ctx, rowc, d.add); err != nil {
		return nil, err
	}
	for err := range errc {
		switch {
		case err == io.EOF:
		case err != nil:
			return nil, fmt.Errorf("read dataset: %w", err)
		}
	}

	if len(d.rows) == 0 {
		return nil, errors.New("dataset has no stations")
	}

	return d, nil
}

// streamFromCSV returns a pipeline.GenerateFunc that reads one station at a time from a csv.Reader
func streamFromCSV(in *csv.Reader, h header) pipeline.GenerateFunc[row] {
	return func() (row, error) {
		record, err := in.Read()
		if err != nil {
			return row{}, err
		}
		station, missing := parseStation(h, record)
		return row{station: station, missing: missing}, nil
	}
}

// add is the sink of the load pipeline
func (d *Dataset) add(r row) error {
	for _, column := range r.missing {
		d.missing[column]++
	}
	if r.station.Name == "" {
		return nil
	}

	i := len(d.rows)
	d.rows = append(d.rows, r.station)
	d.lines[r.station.Line] = append(d.lines[r.station.Line], i)
	d.counts[r.station.Name]++
	if _, ok := d.index[r.station.Name]; !ok {
		d.index[r.station.Name] = i
		d.unique = append(d.unique, i)
	}
	return nil
}

// Station looks up a station by name
func (d *Dataset) Station(name string) (Station, bool) {
	i, ok := d.index[name]
	if !ok {
		return Station{}, false
	}
	return d.rows[i], true
}

// Stations returns one station per name in file order
func (d *Dataset) Stations() []Station {
	return d.pick(d.unique)
}

// Rows returns every row of the dataset in file order
func (d *Dataset) Rows() []Station {
	return append([]Station(nil), d.rows...)
}

// Len returns the number of rows
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Line returns the rows of a line in file order
func (d *Dataset) Line(name string) []Station {
	return d.pick(d.lines[name])
}

// Lines returns the line names sorted
func (d *Dataset) Lines() []string {
	lines := make([]string, 0, len(d.lines))
	for line := range d.lines {
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return lines
}

// Invalid returns the rows whose coordinates are out of bounds or missing
func (d *Dataset) Invalid() []Station {
	var invalid []Station
	for _, s := range d.rows {
		if !s.Valid() {
			invalid = append(invalid, s)
		}
	}
	return invalid
}

// Duplicates returns the sorted names carried by more than one row
func (d *Dataset) Duplicates() []string {
	var names []string
	for name, count := range d.counts {
		if count > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Missing returns the number of empty or unparseable values per column
func (d *Dataset) Missing() map[string]int {
	missing := make(map[string]int, len(d.missing))
	for column, count := range d.missing {
		missing[column] = count
	}
	return missing
}

func (d *Dataset) pick(indices []int) []Station {
	stations := make([]Station, 0, len(indices))
	for _, i := range indices {
		stations = append(stations, d.rows[i])
	}
	return stations
}
