package metro

import (
	"sync"
	"testing"

	"github.com/cubny/metro/internal/haversine"
	"github.com/cubny/metro/internal/tariff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	rohiniWest = Station{Name: "Rohini West", Line: "Red line", Lat: 28.7041, Long: 77.1025}
	rajivChowk = Station{Name: "Rajiv Chowk", Line: "Blue line", Lat: 28.6328, Long: 77.2197}
	broken     = Station{Name: "Broken Station", Line: "Red line", Lat: 95, Long: 77.1}
	london     = Station{Name: "London", Lat: 51.5074, Long: -0.1278}
	newYork    = Station{Name: "New York", Lat: 40.7128, Long: -74.0060}
)

// spyCalculator counts the calls to the distance and fare functions
type spyCalculator struct {
	*Calculator
	distanceCalls, fareCalls int
}

func newSpyCalculator() *spyCalculator {
	spy := &spyCalculator{}
	spy.Calculator = &Calculator{
		distance: func(from, to haversine.Point) float64 {
			spy.distanceCalls++
			return haversine.Distance(from, to)
		},
		fare: func(km float64) int {
			spy.fareCalls++
			return tariff.Default.Resolve(km)
		},
	}
	return spy
}

func TestCalculator_Journey(t *testing.T) {
	tests := []struct {
		name     string
		from, to Station
		withFare bool
		check    func(j Journey, err error, spy *spyCalculator)
	}{
		{
			name: "distance only",
			from: rohiniWest,
			to:   rajivChowk,
			check: func(j Journey, err error, spy *spyCalculator) {
				require.NoError(t, err)
				assert.Equal(t, "Rohini West", j.From)
				assert.Equal(t, "Rajiv Chowk", j.To)
				assert.InDelta(t, 13.914130, j.DistanceKm, 1e-5)
				assert.False(t, j.Priced)
				assert.Equal(t, 0, j.Fare)
				assert.Equal(t, 0, spy.fareCalls)
			},
		},
		{
			name:     "priced",
			from:     rohiniWest,
			to:       rajivChowk,
			withFare: true,
			check: func(j Journey, err error, spy *spyCalculator) {
				require.NoError(t, err)
				assert.True(t, j.Priced)
				assert.Equal(t, 70, j.Fare)
			},
		},
		{
			name:     "priced across the ocean",
			from:     london,
			to:       newYork,
			withFare: true,
			check: func(j Journey, err error, spy *spyCalculator) {
				require.NoError(t, err)
				assert.InDelta(t, 5570.22, j.DistanceKm, 0.01)
				assert.Equal(t, 320, j.Fare)
			},
		},
		{
			name:     "same station does not reach the distance function",
			from:     rajivChowk,
			to:       rajivChowk,
			withFare: true,
			check: func(j Journey, err error, spy *spyCalculator) {
				assert.ErrorIs(t, err, ErrSameStation)
				assert.Equal(t, 0, spy.distanceCalls)
				assert.Equal(t, 0, spy.fareCalls)
			},
		},
		{
			name:     "same invalid station is reported as the same station",
			from:     broken,
			to:       broken,
			withFare: true,
			check: func(j Journey, err error, spy *spyCalculator) {
				assert.ErrorIs(t, err, ErrSameStation)
			},
		},
		{
			name:     "invalid latitude does not reach the fare function",
			from:     rohiniWest,
			to:       broken,
			withFare: true,
			check: func(j Journey, err error, spy *spyCalculator) {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				assert.Contains(t, err.Error(), "Broken Station")
				assert.Equal(t, Journey{}, j)
				assert.Equal(t, 0, spy.distanceCalls)
				assert.Equal(t, 0, spy.fareCalls)
			},
		},
		{
			name: "invalid origin",
			from: broken,
			to:   rohiniWest,
			check: func(j Journey, err error, spy *spyCalculator) {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				assert.Equal(t, 0, spy.distanceCalls)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			spy := newSpyCalculator()
			j, err := spy.Journey(test.from, test.to, test.withFare)
			test.check(j, err, spy)
		})
	}
}

func TestCalculator_Journey_Symmetric(t *testing.T) {
	c := NewCalculator(tariff.Default)

	there, err := c.Journey(rohiniWest, rajivChowk, true)
	require.NoError(t, err)
	back, err := c.Journey(rajivChowk, rohiniWest, true)
	require.NoError(t, err)

	assert.InDelta(t, there.DistanceKm, back.DistanceKm, 1e-9)
	assert.Equal(t, there.Fare, back.Fare)
}

func TestCalculator_Between(t *testing.T) {
	d := loadTestDataset(t)
	c := NewCalculator(tariff.Default)

	tests := []struct {
		name     string
		from, to string
		check    func(j Journey, err error)
	}{
		{
			name: "ok",
			from: "Rohini West",
			to:   "Rajiv Chowk",
			check: func(j Journey, err error) {
				require.NoError(t, err)
				assert.InDelta(t, 13.914130, j.DistanceKm, 1e-5)
				assert.Equal(t, 70, j.Fare)
			},
		},
		{
			name: "same name",
			from: "Rajiv Chowk",
			to:   "Rajiv Chowk",
			check: func(j Journey, err error) {
				assert.ErrorIs(t, err, ErrSameStation)
			},
		},
		{
			name: "unknown origin",
			from: "Atlantis",
			to:   "Rajiv Chowk",
			check: func(j Journey, err error) {
				assert.ErrorIs(t, err, ErrUnknownStation)
				assert.Contains(t, err.Error(), "Atlantis")
			},
		},
		{
			name: "unknown destination",
			from: "Rajiv Chowk",
			to:   "Atlantis",
			check: func(j Journey, err error) {
				assert.ErrorIs(t, err, ErrUnknownStation)
			},
		},
		{
			name: "invalid station",
			from: "Rajiv Chowk",
			to:   "Broken Station",
			check: func(j Journey, err error) {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.check(c.Between(d, test.from, test.to, true))
		})
	}
}

func TestCalculator_Concurrent(t *testing.T) {
	d := loadTestDataset(t)
	c := NewCalculator(tariff.Default)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j, err := c.Between(d, "Dwarka Mor", "Hauz Khas", true)
			assert.NoError(t, err)
			assert.InDelta(t, 18.919134, j.DistanceKm, 1e-5)
		}()
	}
	wg.Wait()
}

func BenchmarkCalculator_Journey(b *testing.B) {
	c := NewCalculator(tariff.Default)
	for n := 0; n < b.N; n++ {
		_, _ = c.Journey(rohiniWest, rajivChowk, true)
	}
}
