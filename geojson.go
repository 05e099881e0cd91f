package geogrid

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// WriteGeoJSON writes rows as a GeoJSON FeatureCollection with one Point
// feature per row. Geometry is [lon, lat] per RFC 7946; the row's city
// metadata and distance ride along as feature properties. Feature order
// follows row order.
func WriteGeoJSON(w io.Writer, rows []OutputRow) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range rows {
		f := geojson.NewFeature(orb.Point{r.PointLon, r.PointLat})
		f.Properties = geojson.Properties{
			"city_id":     r.CityID,
			"city_name":   r.CityName,
			"country":     r.Country,
			"population":  r.Population,
			"city_lat":    r.CityLat,
			"city_lon":    r.CityLon,
			"distance_km": r.DistanceKm,
		}
		fc.Append(f)
	}

	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return fmt.Errorf("encoding GeoJSON: %w", err)
	}
	return nil
}
