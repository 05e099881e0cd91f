package geogrid

import (
	"errors"
	"math"
)

// Default grid geometry, matching the reference extraction run.
const (
	DefaultRadiusKm  = 20.0
	DefaultSpacingKm = 1.0
)

// maxGridLatitude bounds usable center latitudes. Beyond it cos(lat) is
// small enough that the longitude span of a 20km grid exceeds whole
// degrees of the globe and the lattice degenerates.
const maxGridLatitude = 89.9

// Geometry validation errors. Use errors.Is to test for them.
var (
	// ErrCoordinateRange reports a center latitude/longitude outside
	// [-90,90] x [-180,180], or a NaN/Inf coordinate.
	ErrCoordinateRange = errors.New("geogrid: coordinate out of range")

	// ErrDegenerateLatitude reports a center too close to a pole for the
	// cosine-scaled longitude step to be meaningful.
	ErrDegenerateLatitude = errors.New("geogrid: latitude too close to a pole")

	// ErrBadGeometry reports a negative radius or non-positive spacing.
	ErrBadGeometry = errors.New("geogrid: radius must be >= 0 and spacing > 0")
)

// GridPoint is one lattice point that survived the radius filter.
type GridPoint struct {
	Lat        float64 // degrees
	Lon        float64 // degrees
	DistanceKm float64 // great-circle distance from the grid center
}

// Grid enumerates lattice points within a radius of a center coordinate.
// The zero value is not useful; construct with NewGrid.
type Grid struct {
	RadiusKm  float64
	SpacingKm float64
}

// GridOption is a functional option for configuring a Grid.
type GridOption func(*Grid)

// WithRadius sets the grid radius in kilometers.
func WithRadius(km float64) GridOption {
	return func(g *Grid) {
		g.RadiusKm = km
	}
}

// WithSpacing sets the spacing between lattice points in kilometers.
func WithSpacing(km float64) GridOption {
	return func(g *Grid) {
		g.SpacingKm = km
	}
}

// NewGrid returns a Grid with the default 20km radius / 1km spacing,
// adjusted by any options.
func NewGrid(opts ...GridOption) Grid {
	g := Grid{RadiusKm: DefaultRadiusKm, SpacingKm: DefaultSpacingKm}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}

// EstimatePointsPerCity returns the expected lattice size pi*(R/S)^2 for a
// filled circle of radius R sampled every S kilometers. Used for progress
// reporting and slice preallocation, not for correctness.
func (g Grid) EstimatePointsPerCity() int {
	r := g.RadiusKm / g.SpacingKm
	// Non-finite geometry is rejected by validate; the estimate must not
	// turn it into a bogus (possibly negative) allocation size first.
	if g.SpacingKm <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return int(math.Pi * r * r)
}

func (g Grid) validate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return ErrCoordinateRange
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ErrCoordinateRange
	}
	if math.Abs(lat) > maxGridLatitude {
		return ErrDegenerateLatitude
	}
	if math.IsNaN(g.RadiusKm) || math.IsInf(g.RadiusKm, 0) || g.RadiusKm < 0 {
		return ErrBadGeometry
	}
	if math.IsNaN(g.SpacingKm) || math.IsInf(g.SpacingKm, 0) || g.SpacingKm <= 0 {
		return ErrBadGeometry
	}
	return nil
}

// stepCount returns the number of lattice steps needed to cross a span of
// 2*radiusDeg at stepDeg per step. The explicit integer count makes the
// lattice deterministic across platforms; accumulating floats until a
// "current <= max" condition fails would make the final row/column depend
// on rounding error.
func stepCount(radiusDeg, stepDeg float64) int {
	if radiusDeg == 0 {
		return 0
	}
	return int(math.Ceil(2 * radiusDeg / stepDeg))
}

// Points enumerates all lattice points within RadiusKm of the center.
//
// The lattice starts at the lower-left corner of the bounding box
// (center - radius on both axes) and advances in SpacingKm increments,
// latitude-major, longitude-minor, both ascending. Each candidate is kept
// iff its great-circle distance from the center is within the radius; the
// box is a superset, the haversine filter is the precise circular boundary.
//
// A zero radius yields exactly the center point with distance 0.
func (g Grid) Points(lat, lon float64) ([]GridPoint, error) {
	if err := g.validate(lat, lon); err != nil {
		return nil, err
	}

	latStep := g.SpacingKm / KmPerDegreeLat
	lonStep := g.SpacingKm / kmPerDegreeLon(lat)
	latRadiusDeg := g.RadiusKm / KmPerDegreeLat
	lonRadiusDeg := g.RadiusKm / kmPerDegreeLon(lat)

	minLat := lat - latRadiusDeg
	minLon := lon - lonRadiusDeg
	latSteps := stepCount(latRadiusDeg, latStep)
	lonSteps := stepCount(lonRadiusDeg, lonStep)

	points := make([]GridPoint, 0, g.EstimatePointsPerCity())
	for i := 0; i <= latSteps; i++ {
		pLat := minLat + float64(i)*latStep
		for j := 0; j <= lonSteps; j++ {
			pLon := minLon + float64(j)*lonStep
			d := Haversine(lat, lon, pLat, pLon)
			if d <= g.RadiusKm {
				points = append(points, GridPoint{Lat: pLat, Lon: pLon, DistanceKm: d})
			}
		}
	}
	return points, nil
}
