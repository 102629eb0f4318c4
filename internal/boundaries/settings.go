package boundaries

import (
	"os"
	"strconv"
)

// Settings holds the runtime tunables for the API and tile renderer.
type Settings struct {
	// MaxGeoListResults caps how many boundaries a geo list endpoint will
	// serialize as GeoJSON. Above the cap only the plain JSON list is
	// offered.
	MaxGeoListResults int

	// SimpleShapeTolerance is the simplification tolerance (in degrees)
	// the importer used for simple_shape. Tiles whose pixel width exceeds
	// it can be drawn from the simplified column.
	SimpleShapeTolerance float64

	// TileCacheMaxAge is the Cache-Control max-age for tile responses,
	// in seconds.
	TileCacheMaxAge int

	// TileRateLimit is the per-IP request rate allowed on the tile
	// endpoint, in requests per second. Burst is twice the rate.
	TileRateLimit float64
}

// DefaultSettings are the production defaults.
var DefaultSettings = Settings{
	MaxGeoListResults:    350,
	SimpleShapeTolerance: 0.0002,
	TileCacheMaxAge:      60 * 60 * 24 * 3,
	TileRateLimit:        25,
}

// LoadFromEnv loads settings from environment variables, falling back to
// DefaultSettings for anything unset or unparsable.
//
// Environment variables:
//   - MAX_GEO_LIST_RESULTS
//   - SIMPLE_SHAPE_TOLERANCE
//   - TILE_CACHE_MAX_AGE (seconds)
//   - TILE_RATE_LIMIT (requests/second per client IP)
func LoadFromEnv() Settings {
	s := DefaultSettings

	if v, err := strconv.Atoi(os.Getenv("MAX_GEO_LIST_RESULTS")); err == nil && v > 0 {
		s.MaxGeoListResults = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("SIMPLE_SHAPE_TOLERANCE"), 64); err == nil && v > 0 {
		s.SimpleShapeTolerance = v
	}
	if v, err := strconv.Atoi(os.Getenv("TILE_CACHE_MAX_AGE")); err == nil && v >= 0 {
		s.TileCacheMaxAge = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("TILE_RATE_LIMIT"), 64); err == nil && v > 0 {
		s.TileRateLimit = v
	}

	return s
}
