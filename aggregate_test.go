package geogrid

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestExpandStampsCityMetadata(t *testing.T) {
	catalog := Catalog{
		{GeonameID: 42, Name: "Testville", Country: "TT", Lat: 40.0, Lon: -75.0, Population: 123456},
	}
	grid := NewGrid(WithRadius(2), WithSpacing(1))

	rows, err := Expand(context.Background(), catalog, grid)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 {
		t.Fatal("no rows produced")
	}

	points, err := grid.Points(40.0, -75.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != len(points) {
		t.Fatalf("got %d rows, want %d (one per grid point)", len(rows), len(points))
	}

	for i, r := range rows {
		if r.CityID != 42 || r.CityName != "Testville" || r.Country != "TT" || r.Population != 123456 {
			t.Fatalf("row %d metadata = %+v", i, r)
		}
		if r.CityLat != 40.0 || r.CityLon != -75.0 {
			t.Fatalf("row %d center = (%v, %v)", i, r.CityLat, r.CityLon)
		}
		if r.PointLat != points[i].Lat || r.PointLon != points[i].Lon || r.DistanceKm != points[i].DistanceKm {
			t.Fatalf("row %d point does not match grid scan order", i)
		}
	}
}

// Two cities at identical coordinates must produce identical point sets,
// differing only in the stamped metadata.
func TestExpandIdenticalCenters(t *testing.T) {
	catalog := Catalog{
		{GeonameID: 1, Name: "Upper", Country: "AA", Lat: 48.85, Lon: 2.35, Population: 900000},
		{GeonameID: 2, Name: "Lower", Country: "BB", Lat: 48.85, Lon: 2.35, Population: 100},
	}
	grid := NewGrid(WithRadius(3), WithSpacing(1))

	rows, err := Expand(context.Background(), catalog, grid)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) == 0 || len(rows)%2 != 0 {
		t.Fatalf("got %d rows, want an even split between two cities", len(rows))
	}

	half := len(rows) / 2
	first, second := rows[:half], rows[half:]
	for i := range first {
		if first[i].CityID != 1 || second[i].CityID != 2 {
			t.Fatalf("row partition broken at %d: %d / %d", i, first[i].CityID, second[i].CityID)
		}
		if first[i].PointLat != second[i].PointLat ||
			first[i].PointLon != second[i].PointLon ||
			first[i].DistanceKm != second[i].DistanceKm {
			t.Fatalf("point %d differs between identical centers", i)
		}
	}
}

func TestExpandSkipsDegenerateCities(t *testing.T) {
	catalog := Catalog{
		{GeonameID: 1, Name: "Good", Country: "AA", Lat: 10, Lon: 10, Population: 50000},
		{GeonameID: 2, Name: "NorthPoleStation", Country: "XX", Lat: 90, Lon: 0, Population: 20000},
		{GeonameID: 3, Name: "AlsoGood", Country: "BB", Lat: -10, Lon: -10, Population: 40000},
	}
	grid := NewGrid(WithRadius(1), WithSpacing(1))

	rows, err := Expand(context.Background(), catalog, grid)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[int]bool{}
	for _, r := range rows {
		seen[r.CityID] = true
	}
	if seen[2] {
		t.Error("degenerate city should have been skipped")
	}
	if !seen[1] || !seen[3] {
		t.Errorf("valid cities missing from output: %v", seen)
	}
}

// A misconfigured grid must fail the whole run, not degrade into one
// skip-warning per city and an empty result.
func TestExpandBadGeometryFailsFast(t *testing.T) {
	grids := []Grid{
		NewGrid(WithSpacing(0)),
		NewGrid(WithRadius(math.Inf(1))),
	}
	for _, grid := range grids {
		if _, err := Expand(context.Background(), testCatalog(), grid); !errors.Is(err, ErrBadGeometry) {
			t.Errorf("Expand error = %v, want ErrBadGeometry", err)
		}
		if _, err := ExpandParallel(context.Background(), testCatalog(), grid, 4); !errors.Is(err, ErrBadGeometry) {
			t.Errorf("ExpandParallel error = %v, want ErrBadGeometry", err)
		}
	}
}

func TestExpandCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Expand(ctx, testCatalog(), NewGrid()); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestExpandParallelMatchesSerial(t *testing.T) {
	catalog := Catalog{
		{GeonameID: 1, Name: "A", Country: "AA", Lat: 40.0, Lon: -75.0, Population: 500000},
		{GeonameID: 2, Name: "B", Country: "BB", Lat: 48.85, Lon: 2.35, Population: 400000},
		{GeonameID: 3, Name: "C", Country: "CC", Lat: -33.87, Lon: 151.21, Population: 300000},
		{GeonameID: 4, Name: "D", Country: "DD", Lat: 90, Lon: 0, Population: 200000}, // skipped in both
		{GeonameID: 5, Name: "E", Country: "EE", Lat: 60.0, Lon: 24.94, Population: 100000},
	}
	grid := NewGrid(WithRadius(5), WithSpacing(1))

	serial, err := Expand(context.Background(), catalog, grid)
	if err != nil {
		t.Fatal(err)
	}

	for _, workers := range []int{0, 1, 2, 8} {
		parallel, err := ExpandParallel(context.Background(), catalog, grid, workers)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if !reflect.DeepEqual(serial, parallel) {
			t.Fatalf("workers=%d: parallel output differs from serial", workers)
		}
	}
}
