package metro

import (
	"context"
	"io"
	"runtime"
	"sort"

	"github.com/cubny/metro/internal/pipeline"
)

// LineSummary holds the figures of one line
type LineSummary struct {
	Line     string  `json:"line"`
	Stations int     `json:"stations"`
	LengthKm float64 `json:"lengthKm"`
	// AvgSpacingKm is LengthKm spread over the gaps between stations, 0 for single station lines
	AvgSpacingKm float64 `json:"avgSpacingKm"`
	// PathKm sums the great-circle distance between consecutive valid stations
	PathKm float64 `json:"pathKm"`
}

// YearCount is the number of stations opened in a year
type YearCount struct {
	Year     int `json:"year"`
	Stations int `json:"stations"`
}

// LayoutCount is the number of stations built with a layout
type LayoutCount struct {
	Layout   string `json:"layout"`
	Stations int    `json:"stations"`
}

// DataQuality describes the gaps of a dataset
type DataQuality struct {
	Rows       int            `json:"rows"`
	Stations   int            `json:"stations"`
	Missing    map[string]int `json:"missing"`
	Duplicates []string       `json:"duplicates"`
	Invalid    []string       `json:"invalid"`
}

// LineSummaries summarizes every line of the dataset, lines with the most
// stations first and ties broken by line name
func LineSummaries(ctx context.Context, d *Dataset) ([]LineSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rows := d.Rows()
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Line != rows[j].Line {
			return rows[i].Line < rows[j].Line
		}
		return rows[i].DistanceFromStart < rows[j].DistanceFromStart
	})

	linec, errc1 := pipeline.Group(ctx, pipeline.FromSlice(ctx, rows), sameLine)
	outc, errc2 := pipeline.WorkerPool(ctx, runtime.NumCPU(), linec, summarizeLine)

	var summaries []LineSummary
	err := pipeline.Sink(ctx, outc, func(s LineSummary) error {
		summaries = append(summaries, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for err := range pipeline.MergeErrors(ctx, errc1, errc2) {
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Stations != summaries[j].Stations {
			return summaries[i].Stations > summaries[j].Stations
		}
		return summaries[i].Line < summaries[j].Line
	})
	return summaries, nil
}

// sameLine is a pipeline.BelongFunc that groups stations by line
func sameLine(s Station, group []Station) (bool, error) {
	return s.Line == group[0].Line, nil
}

// summarizeLine is a pipeline.WorkerFunc that runs the path pipeline of one line
func summarizeLine(ctx context.Context, stations []Station, outc chan<- LineSummary) error {
	summary := LineSummary{
		Line:     stations[0].Line,
		Stations: len(stations),
	}
	for _, s := range stations {
		if s.DistanceFromStart > summary.LengthKm {
			summary.LengthKm = s.DistanceFromStart
		}
	}
	if len(stations) > 1 {
		summary.AvgSpacingKm = summary.LengthKm / float64(len(stations)-1)
	}

	pathKm, err := linePath(ctx, stations)
	if err != nil {
		return err
	}
	summary.PathKm = pathKm

	select {
	case <-ctx.Done():
		return ctx.Err()
	case outc <- summary:
	}
	return nil
}

// linePath reduces consecutive stations into segments and sums their length,
// stations with invalid coordinates are passed over
func linePath(ctx context.Context, stations []Station) (float64, error) {
	i := 0
	stationc, errc1 := pipeline.Generate(ctx, func() (Station, error) {
		if i >= len(stations) {
			return Station{}, io.EOF
		}
		s := stations[i]
		i++
		if !s.Valid() {
			return Station{}, pipeline.ErrSkip
		}
		return s, nil
	})
	segmentc, errc2 := pipeline.Reduce(ctx, stationc, func(prev, next Station) (float64, error) {
		return next.Distance(prev), nil
	})

	total := 0.0
	err := pipeline.Sink(ctx, segmentc, func(km float64) error {
		total += km
		return nil
	})
	if err != nil {
		return 0, err
	}

	for err := range pipeline.MergeErrors(ctx, errc1, errc2) {
		switch {
		case err == io.EOF:
		case err != nil:
			return 0, err
		}
	}
	return total, nil
}

// OpeningYears counts the stations opened each year in ascending year order,
// rows without an opening date are left out
func OpeningYears(d *Dataset) []YearCount {
	counts := make(map[int]int)
	for _, s := range d.Rows() {
		if s.Opened.IsZero() {
			continue
		}
		counts[s.Opened.Year()]++
	}

	years := make([]YearCount, 0, len(counts))
	for year, count := range counts {
		years = append(years, YearCount{Year: year, Stations: count})
	}
	sort.Slice(years, func(i, j int) bool {
		return years[i].Year < years[j].Year
	})
	return years
}

// Layouts counts the stations per layout, most common first and ties broken by name
func Layouts(d *Dataset) []LayoutCount {
	counts := make(map[string]int)
	for _, s := range d.Rows() {
		if s.Layout == "" {
			continue
		}
		counts[s.Layout]++
	}

	layouts := make([]LayoutCount, 0, len(counts))
	for layout, count := range counts {
		layouts = append(layouts, LayoutCount{Layout: layout, Stations: count})
	}
	sort.Slice(layouts, func(i, j int) bool {
		if layouts[i].Stations != layouts[j].Stations {
			return layouts[i].Stations > layouts[j].Stations
		}
		return layouts[i].Layout < layouts[j].Layout
	})
	return layouts
}

// Quality reports missing values, duplicate names and stations that cannot be priced
func Quality(d *Dataset) DataQuality {
	q := DataQuality{
		Rows:       d.Len(),
		Stations:   len(d.unique),
		Missing:    d.Missing(),
		Duplicates: d.Duplicates(),
		Invalid:    []string{},
	}
	if q.Duplicates == nil {
		q.Duplicates = []string{}
	}
	for _, s := range d.Invalid() {
		q.Invalid = append(q.Invalid, s.Name)
	}
	return q
}
