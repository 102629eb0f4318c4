package tiles

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// pointOnSurface returns a point guaranteed to lie inside the geometry,
// used as a label anchor when no label point is stored. It scans a
// horizontal line through the centroid latitude and takes the midpoint
// of the widest interior span; holes fall out of the even-odd pairing.
func pointOnSurface(g orb.Geometry) (orb.Point, bool) {
	polys := collectPolygons(g)
	if len(polys) == 0 {
		return orb.Point{}, false
	}

	centroid, _ := planar.CentroidArea(g)

	if pt, ok := widestSpanMidpoint(polys, centroid[1]); ok {
		return pt, true
	}

	// The scanline can slip between vertices on degenerate geometry;
	// nudge it and retry once.
	b := g.Bound()
	nudge := (b.Max[1] - b.Min[1]) * 1e-7
	if pt, ok := widestSpanMidpoint(polys, centroid[1]+nudge); ok {
		return pt, true
	}

	if polygonsContain(polys, centroid) {
		return centroid, true
	}
	return orb.Point{}, false
}

func collectPolygons(g orb.Geometry) []orb.Polygon {
	switch v := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{v}
	case orb.MultiPolygon:
		return []orb.Polygon(v)
	case orb.Collection:
		var out []orb.Polygon
		for _, m := range v {
			out = append(out, collectPolygons(m)...)
		}
		return out
	default:
		return nil
	}
}

func polygonsContain(polys []orb.Polygon, pt orb.Point) bool {
	for _, p := range polys {
		if planar.PolygonContains(p, pt) {
			return true
		}
	}
	return false
}

// widestSpanMidpoint intersects the horizontal line at y with every ring
// edge, sorts the crossings, pairs them into interior spans and returns
// the midpoint of the widest span.
func widestSpanMidpoint(polys []orb.Polygon, y float64) (orb.Point, bool) {
	var xs []float64
	for _, poly := range polys {
		for _, ring := range poly {
			for i := 0; i+1 < len(ring); i++ {
				p1, p2 := ring[i], ring[i+1]
				if (p1[1] > y) == (p2[1] > y) {
					continue
				}
				t := (y - p1[1]) / (p2[1] - p1[1])
				xs = append(xs, p1[0]+t*(p2[0]-p1[0]))
			}
		}
	}
	if len(xs) < 2 {
		return orb.Point{}, false
	}
	sort.Float64s(xs)

	bestWidth := 0.0
	var best orb.Point
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > bestWidth {
			bestWidth = w
			best = orb.Point{(xs[i] + xs[i+1]) / 2, y}
		}
	}
	if bestWidth == 0 {
		return orb.Point{}, false
	}
	return best, true
}
