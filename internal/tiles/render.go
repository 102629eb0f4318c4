package tiles

import (
	"bytes"
	"context"
	"image/color"
	"log"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fagan2888/represent-boundaries/internal/boundaries"
)

// Renderer rasterizes boundary polygons into map tiles.
type Renderer struct {
	Store Store

	// Tolerance is the importer's simplification tolerance; tiles coarser
	// than it are drawn from the pre-simplified geometry column.
	Tolerance float64
}

type drawShape struct {
	boundary TileBoundary
	shape    orb.MultiPolygon // in the output SRS
	extDim   float64          // max extent dimension, database SRS units
}

// Render draws one tile and returns it PNG-encoded. An empty tile (no
// intersecting boundaries) renders as a 1x1 transparent PNG.
func (rd *Renderer) Render(ctx context.Context, setSlug, boundarySlug string, p Params) ([]byte, error) {
	boundOut := p.Bound()
	boundDB := toWGS84(boundOut, p.SRS)
	size := float64(p.Size)

	// Width of one pixel in database units. Halved because simplification
	// below half-pixel detail is invisible anyway.
	pixelWidth := (boundDB.Max[0] - boundDB.Min[0]) / size / 2

	bs, err := rd.Store.TileBoundaries(ctx, setSlug, boundarySlug, boundDB, pixelWidth > rd.Tolerance)
	if err != nil {
		return nil, err
	}
	if len(bs) == 0 {
		return TransparentPNG()
	}

	// Simplify to visible detail, drop sub-pixel shapes, project to the
	// output SRS.
	simplifier := simplify.DouglasPeucker(pixelWidth)
	var shapes []drawShape
	for _, b := range bs {
		if len(b.Shape) == 0 {
			continue
		}
		mp := asMultiPolygon(simplifier.Simplify(b.Shape.Clone()))
		if mp == nil {
			continue
		}

		extent := mp.Bound()
		extDim := extent.Max[0] - extent.Min[0]
		if d := extent.Max[1] - extent.Min[1]; d > extDim {
			extDim = d
		}
		if extDim < pixelWidth {
			continue
		}

		out := asMultiPolygon(fromWGS84(mp, p.SRS))
		if out == nil {
			continue
		}
		shapes = append(shapes, drawShape{boundary: b, shape: out, extDim: extDim})
	}
	if len(shapes) == 0 {
		return TransparentPNG()
	}

	vp := newViewport(boundOut, p.Size)
	dc := gg.NewContext(p.Size, p.Size)

	rd.drawFills(dc, vp, shapes, size)
	rd.drawOutlines(dc, vp, shapes, pixelWidth)
	rd.drawLabels(dc, vp, shapes, boundOut, p, pixelWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (rd *Renderer) drawFills(dc *gg.Context, vp viewport, shapes []drawShape, size float64) {
	for _, ds := range shapes {
		fill, ok := ds.boundary.Color.Fill()
		if !ok {
			continue
		}
		for _, polygon := range ds.shape {
			for _, ring := range polygon {
				switch {
				case fill.Solid != nil:
					c := fill.Solid
					dc.SetRGBA(c.R/255, c.G/255, c.B/255, c.A/255)
				case fill.Stripe != nil:
					dc.SetFillStyle(stripeGradient(fill.Stripe, size))
				}
				tracePath(dc, vp, ring)
				dc.Fill()
			}
		}
	}
}

func (rd *Renderer) drawOutlines(dc *gg.Context, vp viewport, shapes []drawShape, pixelWidth float64) {
	for _, ds := range shapes {
		if ds.extDim < pixelWidth*3 {
			continue
		}
		for _, polygon := range ds.shape {
			for _, ring := range polygon {
				tracePath(dc, vp, ring)
				if ds.extDim < pixelWidth*60 {
					dc.SetLineWidth(1)
				} else {
					dc.SetLineWidth(2.5)
				}
				dc.SetRGBA(0.3, 0.3, 0.3, 0.75)
				dc.Stroke()
			}
		}
	}
}

func (rd *Renderer) drawLabels(dc *gg.Context, vp viewport, shapes []drawShape, boundOut orb.Bound, p Params, pixelWidth float64) {
	size := float64(p.Size)
	boxArea := (boundOut.Max[0] - boundOut.Min[0]) * (boundOut.Max[1] - boundOut.Min[1])

	for _, ds := range shapes {
		if ds.extDim < pixelWidth*20 {
			continue
		}

		var pt orb.Point
		if lp := ds.boundary.LabelPoint; lp != nil {
			pt = pointFromWGS84(*lp, p.SRS)
		} else {
			clipped := clip.Geometry(boundOut, ds.shape)
			if clipped == nil {
				continue
			}
			anchor, ok := pointOnSurface(clipped)
			if !ok {
				// Bad geometry of some sort; settle for the tile centre
				// when it at least falls inside the shape.
				anchor = boundOut.Center()
				if !planar.MultiPolygonContains(ds.shape, anchor) {
					continue
				}
			}
			pt = anchor
		}

		if !boundOut.Contains(pt) {
			// The stored label point belongs to another tile. When the
			// shape occupies most of this tile, re-anchor locally so big
			// regions stay labelled on every tile.
			clipped := clip.Geometry(boundOut, ds.shape)
			if clipped == nil || planar.Area(clipped) < boxArea/3 {
				continue
			}
			anchor, ok := pointOnSurface(clipped)
			if !ok {
				continue
			}
			pt = anchor
		}

		px, py := vp.pixel(pt)

		face := labelFace(12)
		if ds.extDim > size*pixelWidth {
			face = labelFace(18)
		}
		if face == nil {
			return
		}
		dc.SetFontFace(face)

		name := ds.boundary.Name
		tw, th := dc.MeasureString(name)

		// Rough fit against the rendered extent, and a hard fit against
		// the tile: the plate and shadow must stay fully inside.
		budget := ds.extDim / pixelWidth / 5
		if tw >= budget || th >= budget {
			continue
		}
		if !labelFits(px, py, tw, th, size) {
			continue
		}

		// Background plate.
		dc.SetRGBA(0, 0, 0, 0.55)
		dc.DrawRectangle(px-tw/2-4, py-th-4, tw+9, th+8)
		dc.Fill()

		// Drop shadow, offset past the plate's right and bottom edges.
		dc.SetRGBA(0, 0, 0, 0.3)
		dc.DrawRectangle(px-tw/2-4, py-th-4, tw+11, th+10)
		dc.Fill()

		dc.SetRGBA(1, 1, 1, 1)
		dc.DrawString(name, px-tw/2, py)
	}
}

// labelFits reports whether a label of measured size (tw, th) anchored at
// pixel (px, py) keeps its plate and shadow inside the tile.
func labelFits(px, py, tw, th, size float64) bool {
	return px-tw/2-4 > 0 &&
		py-th-4 > 0 &&
		px+tw/2+7 < size &&
		py+6 < size
}

func tracePath(dc *gg.Context, vp viewport, ring orb.Ring) {
	dc.NewSubPath()
	for i, pt := range ring {
		x, y := vp.pixel(pt)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}

// stripeGradient builds the two-colour striped fill: a repeating run of
// color1 with a 4px band of color2 every 32px across the tile diagonal.
func stripeGradient(s *boundaries.StripeFill, size float64) gg.Gradient {
	grad := gg.NewLinearGradient(0, 0, size, size)
	c1 := color.NRGBA{R: uint8(s.Color1.R), G: uint8(s.Color1.G), B: uint8(s.Color1.B), A: 76}
	c2 := color.NRGBA{R: uint8(s.Color2.R), G: uint8(s.Color2.G), B: uint8(s.Color2.B), A: 102}
	for x := 0.0; x < size; x += 32 {
		grad.AddColorStop(x/size, c1)
		grad.AddColorStop((x+28)/size, c1)
		grad.AddColorStop((x+28)/size, c2)
		grad.AddColorStop((x+32)/size, c2)
	}
	return grad
}

func asMultiPolygon(g orb.Geometry) orb.MultiPolygon {
	switch v := g.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{v}
	case orb.MultiPolygon:
		return v
	default:
		return nil
	}
}

var (
	fontOnce sync.Once
	faces    map[float64]font.Face
)

// labelFace returns a cached Go Regular face at the given point size.
func labelFace(size float64) font.Face {
	fontOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			// goregular.TTF is embedded and always parses; keep the
			// renderer usable if that ever changes.
			log.Printf("[tiles] parse label font: %v", err)
			faces = map[float64]font.Face{}
			return
		}
		faces = map[float64]font.Face{
			12: truetype.NewFace(f, &truetype.Options{Size: 12}),
			18: truetype.NewFace(f, &truetype.Options{Size: 18}),
		}
	})
	return faces[size]
}

// TransparentPNG returns the 1x1 transparent placeholder served for
// tiles no boundary intersects.
func TransparentPNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := gg.NewContext(1, 1).EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
