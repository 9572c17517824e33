package metro

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cubny/metro/internal/pipeline"
)

// estimator takes a reader stream of station name pairs and streams out the
// distance and fare of each journey into the writer stream
type estimator struct {
	reader  io.Reader
	writer  io.Writer
	conf    *Config
	dataset *Dataset
	calc    *Calculator
}

// estimate is the result of one journey request, failures end up in notice
type estimate struct {
	from, to string
	journey  Journey
	notice   string
}

// NewEstimator creates an estimator resolving journeys against the dataset
func NewEstimator(in io.Reader, out io.Writer, dataset *Dataset, config *Config) (*estimator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if dataset == nil {
		return nil, errors.New("dataset is required")
	}

	return &estimator{
		reader:  in,
		writer:  out,
		conf:    config,
		dataset: dataset,
		calc:    NewCalculator(config.tariff()),
	}, nil
}

// Run runs the estimator pipeline
func (e *estimator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := csv.NewReader(e.reader)
	in.FieldsPerRecord = -1
	linec, errc1 := pipeline.Generate(ctx, e.streamFromCSV(in))
	outc, errc2 := pipeline.WorkerPool(ctx, e.conf.Concurrency, linec, e.estimateJourney)
	if err := e.sinkCSV(ctx, outc); err != nil {
		return err
	}

	errm := pipeline.MergeErrors(ctx, errc1, errc2)
	for err := range errm {
		switch {
		case err == io.EOF:
		case err != nil:
			return err
		}
	}

	return nil
}

// streamFromCSV returns a pipeline.GenerateFunc that reads one line at a time from a csv.Reader,
// blank lines and a leading "from,to" header are skipped
func (e *estimator) streamFromCSV(in *csv.Reader) pipeline.GenerateFunc[Line] {
	first := true
	return func() (Line, error) {
		record, err := in.Read()
		if err != nil {
			return nil, err
		}
		isHeader := first && len(record) >= 2 && strings.TrimSpace(record[0]) == "from" && strings.TrimSpace(record[1]) == "to"
		first = false
		if isHeader || len(record) == 0 || (len(record) == 1 && record[0] == "") {
			return nil, pipeline.ErrSkip
		}
		return Line(record), nil
	}
}

// estimateJourney is a pipeline.WorkerFunc that resolves the journey of one line
func (e *estimator) estimateJourney(ctx context.Context, line Line, outc chan<- estimate) error {
	est := estimate{from: strings.TrimSpace(line[0])}
	if len(line) < 2 {
		est.notice = "expected two stations"
	} else {
		est.to = strings.TrimSpace(line[1])
		j, err := e.calc.Between(e.dataset, est.from, est.to, e.conf.Fares)
		if err != nil {
			est.notice = err.Error()
		}
		est.journey = j
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case outc <- est:
	}
	return nil
}

// sinkCSVRecord writes an estimate record to csv.Writer
func (e *estimator) sinkCSVRecord(w *csv.Writer) pipeline.EachFunc[estimate] {
	return func(est estimate) error {
		record := Line{est.from, est.to, "", "", est.notice}
		if est.notice == "" {
			record[2] = strconv.FormatFloat(est.journey.DistanceKm, 'f', 2, 64)
			if est.journey.Priced {
				record[3] = strconv.Itoa(est.journey.Fare)
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write estimate: %w", err)
		}
		return nil
	}
}

// sinkCSV writes all estimates to the estimator writer in CSV format
func (e *estimator) sinkCSV(ctx context.Context, outc <-chan estimate) error {
	output := csv.NewWriter(e.writer)
	if err := output.Write(Line{"from", "to", "distance_km", "fare", "notice"}); err != nil {
		return err
	}
	err := pipeline.Sink(ctx, outc, e.sinkCSVRecord(output))
	if err != nil {
		return err
	}

	output.Flush()
	if err := output.Error(); err != nil {
		return err
	}

	return nil
}
