package geogrid

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// citiesURL is the Geonames dump of populated places with 15,000+ people.
const citiesURL = "https://download.geonames.org/export/dump/cities15000.zip"

const (
	citiesArchive = "cities15000.zip"
	catalogCache  = "catalog.dmp"
)

// Column positions in the 19-column tab-separated Geonames schema.
const (
	colGeonameID  = 0
	colName       = 1
	colLat        = 4
	colLon        = 5
	colCountry    = 8
	colPopulation = 14
	colCount      = 19
)

// LoaderConfig contains configuration for catalog loading.
type LoaderConfig struct {
	DataDir  string // Directory for the downloaded archive (default "./geogrid-data")
	CacheDir string // Directory for the parsed catalog cache (default "./geogrid-cache")
}

// LoaderOption is a functional option for configuring the catalog loader.
type LoaderOption func(*LoaderConfig)

// WithDataDir sets the directory for downloaded data files.
func WithDataDir(dir string) LoaderOption {
	return func(c *LoaderConfig) {
		c.DataDir = dir
	}
}

// WithCacheDir sets the directory for the parsed catalog cache.
func WithCacheDir(dir string) LoaderOption {
	return func(c *LoaderConfig) {
		c.CacheDir = dir
	}
}

func defaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		DataDir:  "./geogrid-data",
		CacheDir: "./geogrid-cache",
	}
}

// downloadMu protects the archive download from concurrent LoadCatalog
// calls writing the same file.
var downloadMu sync.Mutex

// httpClient is a shared HTTP client with a timeout sized for the ~10MB dump.
var httpClient = &http.Client{
	Timeout: 120 * time.Second,
}

// LoadCatalog returns the cities15000 catalog, sorted by descending
// population. The archive is downloaded on first use and the parsed catalog
// is cached as a gob dump; delete the cache file to force a re-parse after
// fetching a fresh dump.
func LoadCatalog(ctx context.Context, opts ...LoaderOption) (Catalog, error) {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	cachePath := filepath.Join(cfg.CacheDir, catalogCache)
	if c, err := loadCachedCatalog(cachePath); err == nil && len(c) > 0 {
		return c, nil
	}

	archive := filepath.Join(cfg.DataDir, citiesArchive)
	if err := downloadArchive(ctx, citiesURL, archive); err != nil {
		return nil, fmt.Errorf("downloading city data: %w", err)
	}

	c, err := parseCitiesArchive(archive)
	if err != nil {
		return nil, fmt.Errorf("parsing city data: %w", err)
	}
	c.sortByPopulation()

	if err := storeCachedCatalog(cachePath, c); err != nil {
		log.Printf("warning: failed to store catalog cache: %v", err)
	}
	return c, nil
}

// downloadArchive fetches url to path unless the file already exists.
func downloadArchive(ctx context.Context, url, path string) error {
	downloadMu.Lock()
	defer downloadMu.Unlock()

	// 0755 rather than world-writable: in shared environments other users
	// must not be able to swap the data file out from under us.
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Re-check existence inside the lock (another goroutine may have
	// finished the download while we waited).
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP GET %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}

	// Track success so the deferred cleanup can remove partial files on
	// error, while Close errors on the success path are still surfaced.
	success := false
	defer func() {
		out.Close()
		if !success {
			os.Remove(path) // best-effort cleanup of partial file
		}
	}()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing file %s: %w", path, err)
	}
	success = true
	return nil
}

// parseCitiesArchive streams the TSV rows straight out of the zip archive.
// Nothing is extracted to disk.
func parseCitiesArchive(path string) (Catalog, error) {
	rz, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip file: %w", err)
	}
	defer rz.Close()

	var c Catalog
	for _, f := range rz.File {
		c, err = parseZipEntry(f, c)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// parseZipEntry reads one file entry from the archive. Extracted to avoid
// defer-in-loop on the entry readers.
func parseZipEntry(f *zip.File, c Catalog) (Catalog, error) {
	fi, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s in zip: %w", f.Name, err)
	}
	defer fi.Close()
	return parseCityRows(fi, c)
}

// parseCityRows parses tab-separated Geonames rows, appending valid cities
// to c. Rows with the wrong column count, an empty name, or an unparseable
// id, coordinate or population are dropped; they never reach the grid
// pipeline.
func parseCityRows(r io.Reader, c Catalog) (Catalog, error) {
	scanner := bufio.NewScanner(r)
	// The alternatenames column can make rows much longer than the default
	// 64KB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		fields := strings.SplitN(scanner.Text(), "\t", colCount)
		if len(fields) != colCount {
			continue
		}

		id, errID := strconv.Atoi(fields[colGeonameID])
		lat, errLat := strconv.ParseFloat(fields[colLat], 64)
		lon, errLon := strconv.ParseFloat(fields[colLon], 64)
		pop, errPop := strconv.Atoi(fields[colPopulation])
		if errID != nil || errLat != nil || errLon != nil || errPop != nil {
			continue
		}

		name := strings.TrimSpace(fields[colName])
		if name == "" {
			continue
		}

		c = append(c, City{
			GeonameID:  id,
			Name:       name,
			Country:    fields[colCountry],
			Lat:        lat,
			Lon:        lon,
			Population: pop,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning city rows: %w", err)
	}
	return c, nil
}

func loadCachedCatalog(path string) (Catalog, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var c Catalog
	if err := gob.NewDecoder(fh).Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding catalog cache: %w", err)
	}
	return c, nil
}

func storeCachedCatalog(path string, c Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	b := new(bytes.Buffer)
	if err := gob.NewEncoder(b).Encode(c); err != nil {
		return fmt.Errorf("encoding catalog cache: %w", err)
	}
	return os.WriteFile(path, b.Bytes(), 0644)
}
