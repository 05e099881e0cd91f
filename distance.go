// Package geogrid generates dense coordinate grids around world cities.
//
// It loads the Geonames cities15000 dataset (populated places with 15,000+
// inhabitants), enumerates a regular lattice of points within a fixed radius
// of each city center, annotates every point with its great-circle distance
// from the center, and flattens the result into one table for export.
package geogrid

import "math"

// EarthRadiusKm is the mean sphere radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// KmPerDegreeLat is the approximate surface distance covered by one degree
// of latitude. It is a deliberate constant approximation rather than a
// geodesic model: together with kmPerDegreeLon it is the single source of
// degree/km conversion, so a higher-fidelity model can be swapped in
// without touching the grid filtering logic.
const KmPerDegreeLat = 111.0

// kmPerDegreeLon returns the approximate surface distance covered by one
// degree of longitude at the given latitude. Shrinks toward zero at the
// poles, which is why Grid rejects near-polar centers.
func kmPerDegreeLon(latDeg float64) float64 {
	return KmPerDegreeLat * math.Cos(latDeg*math.Pi/180)
}

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees, on a sphere of radius EarthRadiusKm.
//
// The result is symmetric in its arguments and zero when the points
// coincide. Antipodal points are not special-cased; at the scales this
// package works with (tens of kilometers) the formula is well conditioned.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	lat1 *= degToRad
	lon1 *= degToRad
	lat2 *= degToRad
	lon2 *= degToRad

	sinLat := math.Sin((lat2 - lat1) / 2)
	sinLon := math.Sin((lon2 - lon1) / 2)

	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusKm * c
}
