package metro

import (
	"fmt"

	"github.com/cubny/metro/internal/haversine"
	"github.com/cubny/metro/internal/tariff"
)

// Journey is the straight line between two stations
type Journey struct {
	From, To   string
	DistanceKm float64
	// Fare is only set when Priced is true
	Fare   int
	Priced bool
}

// Calculator resolves journeys between stations. It holds no mutable state
// and is safe for concurrent use.
type Calculator struct {
	distance func(from, to haversine.Point) float64
	fare     func(km float64) int
}

// NewCalculator creates a Calculator pricing journeys with the given table
func NewCalculator(table tariff.Table) *Calculator {
	return &Calculator{
		distance: haversine.Distance,
		fare:     table.Resolve,
	}
}

// Journey computes the distance between two stations and, when withFare is set,
// its fare. Selecting the same station twice returns ErrSameStation before any coordinate
// is looked at. A station outside the geographic bounds returns ErrInvalidCoordinates
// wrapped with the station name.
func (c *Calculator) Journey(from, to Station, withFare bool) (Journey, error) {
	if from.Name == to.Name {
		return Journey{}, ErrSameStation
	}
	for _, s := range []Station{from, to} {
		if !s.Valid() {
			return Journey{}, fmt.Errorf("%w: %s", ErrInvalidCoordinates, s.Name)
		}
	}

	j := Journey{
		From:       from.Name,
		To:         to.Name,
		DistanceKm: c.distance(from.Point(), to.Point()),
	}
	if withFare {
		j.Fare, j.Priced = c.fare(j.DistanceKm), true
	}

	return j, nil
}

// Between resolves a journey between two stations of the dataset by name
func (c *Calculator) Between(d *Dataset, from, to string, withFare bool) (Journey, error) {
	if from == to {
		return Journey{}, ErrSameStation
	}
	origin, ok := d.Station(from)
	if !ok {
		return Journey{}, fmt.Errorf("%w: %s", ErrUnknownStation, from)
	}
	destination, ok := d.Station(to)
	if !ok {
		return Journey{}, fmt.Errorf("%w: %s", ErrUnknownStation, to)
	}

	return c.Journey(origin, destination, withFare)
}
