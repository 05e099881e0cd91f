package geogrid

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader matches the reference extraction tool's output schema exactly.
var csvHeader = []string{
	"city_id", "city_name", "country", "population",
	"city_lat", "city_lon", "point_lat", "point_lon", "distance_km",
}

// formatCoord renders a float with the minimum digits that round-trip
// exactly, so no precision is lost beyond float64 itself.
func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteCSV writes rows as comma-separated values with a header row,
// preserving row order. Integers are written as integers, coordinates and
// distances as round-tripping floats.
func WriteCSV(w io.Writer, rows []OutputRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	record := make([]string, len(csvHeader))
	for _, r := range rows {
		record[0] = strconv.Itoa(r.CityID)
		record[1] = r.CityName
		record[2] = r.Country
		record[3] = strconv.Itoa(r.Population)
		record[4] = formatCoord(r.CityLat)
		record[5] = formatCoord(r.CityLon)
		record[6] = formatCoord(r.PointLat)
		record[7] = formatCoord(r.PointLon)
		record[8] = formatCoord(r.DistanceKm)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
