/*
	Package metro loads a static dataset of metro stations and answers two questions
	about any pair of them: how far apart they are as the crow flies, and what the
	journey costs under a tiered distance fare table. Stations with coordinates outside
	the geographic bounds are kept in the dataset but never priced.
*/
package metro

import (
	"errors"

	"github.com/cubny/metro/internal/tariff"
)

// Line is a csv record
type Line []string

var (
	// ErrSameStation is returned when both ends of a journey are the same station
	ErrSameStation = errors.New("select two different stations")
	// ErrInvalidCoordinates is returned when a station lies outside the geographic bounds
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrUnknownStation is returned when a station name is not in the dataset
	ErrUnknownStation = errors.New("unknown station")
)

// Config configures the batch estimator
type Config struct {
	Concurrency int
	// Fares enables fare resolution next to the distance
	Fares bool
	// Tariff defaults to tariff.Default when nil
	Tariff *tariff.Table
}

func (c Config) Validate() error {
	if c.Concurrency <= 0 {
		return errors.New("concurrency should be greater than 0")
	}
	if c.Tariff != nil {
		return c.Tariff.Validate()
	}

	return nil
}

func (c Config) tariff() tariff.Table {
	if c.Tariff == nil {
		return tariff.Default
	}
	return *c.Tariff
}
