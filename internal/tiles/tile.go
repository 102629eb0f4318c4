package tiles

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Supported output spatial references. The database stores WGS84; web
// mercator output goes through orb's spherical-mercator projection.
const (
	SRSWebMercator = 3857
	SRSWGS84       = 4326
)

// Params are the validated tile request parameters.
type Params struct {
	Size int // 256, 512 or 1024
	SRS  int
	X    int
	Y    int
	Zoom int
}

// AllowedSize reports whether size is a servable tile edge length.
func AllowedSize(size int) bool {
	return size == 256 || size == 512 || size == 1024
}

// AllowedSRS reports whether srs is a supported output projection.
func AllowedSRS(srs int) bool {
	return srs == SRSWebMercator || srs == SRSWGS84
}

// worldHalfWidth is the x coordinate of (180°, 0°) in the output SRS.
// The tile grid is a square of twice this width centred on the origin,
// so the 4326 pyramid spans ±180 on both axes.
func worldHalfWidth(srs int) float64 {
	if srs == SRSWebMercator {
		return project.WGS84.ToMercator(orb.Point{180, 0})[0]
	}
	return 180
}

// Bound returns the tile's bounding box in the output SRS. Tile y grows
// southward from the top of the world square.
func (p Params) Bound() orb.Bound {
	half := worldHalfWidth(p.SRS)
	tileSize := 2 * half / math.Pow(2, float64(p.Zoom))

	left := -half + tileSize*float64(p.X)
	top := half - tileSize*float64(p.Y)

	return orb.Bound{
		Min: orb.Point{left, top - tileSize},
		Max: orb.Point{left + tileSize, top},
	}
}

// toWGS84 converts a bound in the output SRS back to the database SRS.
func toWGS84(b orb.Bound, srs int) orb.Bound {
	if srs != SRSWebMercator {
		return b
	}
	return orb.Bound{
		Min: project.Mercator.ToWGS84(b.Min),
		Max: project.Mercator.ToWGS84(b.Max),
	}
}

// fromWGS84 projects a database-SRS geometry into the output SRS.
func fromWGS84(g orb.Geometry, srs int) orb.Geometry {
	if srs != SRSWebMercator {
		return g
	}
	return project.Geometry(g, project.WGS84.ToMercator)
}

func pointFromWGS84(p orb.Point, srs int) orb.Point {
	if srs != SRSWebMercator {
		return p
	}
	return project.WGS84.ToMercator(p)
}

// viewport converts output-SRS world coordinates to tile pixel
// coordinates, y flipped so north is up.
type viewport struct {
	bound orb.Bound
	size  int
	sx    float64
	sy    float64
}

func newViewport(b orb.Bound, size int) viewport {
	return viewport{
		bound: b,
		size:  size,
		sx:    float64(size) / (b.Max[0] - b.Min[0]),
		sy:    float64(size) / (b.Max[1] - b.Min[1]),
	}
}

func (v viewport) pixel(p orb.Point) (x, y float64) {
	x = (p[0] - v.bound.Min[0]) * v.sx
	y = float64(v.size-1) - (p[1]-v.bound.Min[1])*v.sy
	return x, y
}
