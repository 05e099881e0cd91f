package geogrid

import (
	"context"
	"errors"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// OutputRow is the denormalized join of one city and one of its grid
// points. Rows are emitted per city in catalog order, and per point in the
// grid's latitude-major scan order.
type OutputRow struct {
	CityID     int
	CityName   string
	Country    string
	Population int
	CityLat    float64
	CityLon    float64
	PointLat   float64
	PointLon   float64
	DistanceKm float64
}

// expandCity generates the grid for one city and stamps the city's
// metadata onto every point.
func expandCity(city City, grid Grid) ([]OutputRow, error) {
	points, err := grid.Points(city.Lat, city.Lon)
	if err != nil {
		return nil, err
	}

	rows := make([]OutputRow, len(points))
	for i, p := range points {
		rows[i] = OutputRow{
			CityID:     city.GeonameID,
			CityName:   city.Name,
			Country:    city.Country,
			Population: city.Population,
			CityLat:    city.Lat,
			CityLon:    city.Lon,
			PointLat:   p.Lat,
			PointLon:   p.Lon,
			DistanceKm: p.DistanceKm,
		}
	}
	return rows, nil
}

// Expand generates the grid for every city in catalog order and flattens
// the results into one row sequence. Cities whose centers fail geometry
// validation (near-polar or out-of-range coordinates) are logged and
// skipped rather than aborting the run; a misconfigured grid
// (ErrBadGeometry) fails the whole run since it would skip every city the
// same way. Overlapping grids from nearby cities are kept as independent
// point sets.
func Expand(ctx context.Context, catalog Catalog, grid Grid) ([]OutputRow, error) {
	rows := make([]OutputRow, 0, len(catalog)*grid.EstimatePointsPerCity())
	for _, city := range catalog {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cityRows, err := expandCity(city, grid)
		if errors.Is(err, ErrBadGeometry) {
			return nil, err
		}
		if err != nil {
			log.Printf("warning: skipping city %q (geonameid %d): %v", city.Name, city.GeonameID, err)
			continue
		}
		rows = append(rows, cityRows...)
	}
	return rows, nil
}

// ExpandParallel is Expand with per-city work fanned out across workers.
// Cities share no mutable state, so each worker fills its own slot of a
// pre-sized table and the slots are concatenated in catalog order
// afterward; the output is identical to Expand's. workers <= 0 means one
// worker per CPU.
func ExpandParallel(ctx context.Context, catalog Catalog, grid Grid, workers int) ([]OutputRow, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers == 1 {
		return Expand(ctx, catalog, grid)
	}

	perCity := make([][]OutputRow, len(catalog))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, city := range catalog {
		i, city := i, city
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cityRows, err := expandCity(city, grid)
			if errors.Is(err, ErrBadGeometry) {
				return err
			}
			if err != nil {
				log.Printf("warning: skipping city %q (geonameid %d): %v", city.Name, city.GeonameID, err)
				return nil
			}
			perCity[i] = cityRows
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, cityRows := range perCity {
		total += len(cityRows)
	}
	rows := make([]OutputRow, 0, total)
	for _, cityRows := range perCity {
		rows = append(rows, cityRows...)
	}
	return rows, nil
}
