package haversine

import "math"

// EarthRadius is the mean earth radius in kilometers
const EarthRadius = 6371.0

// Point is a geographic position in degrees
type Point struct {
	Lat, Long float64
}

// Valid reports whether the point lies within the geographic bounds,
// boundaries included. NaN fails every comparison and is rejected.
func Valid(p Point) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Long >= -180 && p.Long <= 180
}

// Distance calculates the great-circle distance in kilometers between two points
// on a sphere of EarthRadius. It does not check the bounds of its inputs,
// callers validate them with Valid first.
func Distance(from, to Point) float64 {
	latFrom := radians(from.Lat)
	latTo := radians(to.Lat)
	deltaLat := latTo - latFrom
	deltaLon := radians(to.Long) - radians(from.Long)

	sinLat := math.Sin(deltaLat / 2)
	sinLon := math.Sin(deltaLon / 2)
	h := sinLat*sinLat + math.Cos(latFrom)*math.Cos(latTo)*sinLon*sinLon
	// rounding may push h just past 1 for antipodal points
	h = math.Max(0, math.Min(1, h))

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadius * c
}

func radians(deg float64) float64 {
	return deg * (math.Pi / 180)
}
