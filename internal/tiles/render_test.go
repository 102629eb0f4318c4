package tiles

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fagan2888/represent-boundaries/internal/boundaries"
)

// mockTileStore returns its fixed boundaries for any bbox.
type mockTileStore struct {
	boundaries []TileBoundary

	lastSimplified bool
}

func (m *mockTileStore) TileBoundaries(_ context.Context, _, _ string, _ orb.Bound, simplified bool) ([]TileBoundary, error) {
	m.lastSimplified = simplified
	return m.boundaries, nil
}

func worldBoundary(name string, color string) TileBoundary {
	return TileBoundary{
		Name:  name,
		Color: boundaries.ColorSpec(color),
		Shape: orb.MultiPolygon{
			{{{-179, -80}, {179, -80}, {179, 80}, {-179, 80}, {-179, -80}}},
		},
	}
}

func decodePNG(t *testing.T, data []byte) (width, height int, alphaAt func(x, y int) uint32) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b := img.Bounds()
	return b.Dx(), b.Dy(), func(x, y int) uint32 {
		_, _, _, a := img.At(x, y).RGBA()
		return a
	}
}

func TestRender_EmptyTile(t *testing.T) {
	rd := &Renderer{Store: &mockTileStore{}, Tolerance: 0.0002}

	data, err := rd.Render(context.Background(), "wards", "", Params{Size: 256, SRS: SRSWebMercator})
	require.NoError(t, err)

	w, h, alphaAt := decodePNG(t, data)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.Zero(t, alphaAt(0, 0))
}

func TestRender_SolidFill(t *testing.T) {
	store := &mockTileStore{boundaries: []TileBoundary{worldBoundary("World", `[255, 0, 0, 200]`)}}
	rd := &Renderer{Store: store, Tolerance: 0.0002}

	data, err := rd.Render(context.Background(), "wards", "", Params{Size: 256, SRS: SRSWebMercator})
	require.NoError(t, err)

	w, h, alphaAt := decodePNG(t, data)
	assert.Equal(t, 256, w)
	assert.Equal(t, 256, h)
	assert.NotZero(t, alphaAt(128, 128))
	// A world-spanning tile at zoom 0 is far coarser than the import
	// tolerance, so the renderer must have asked for simple shapes.
	assert.True(t, store.lastSimplified)
}

func TestRender_StripedFill(t *testing.T) {
	store := &mockTileStore{boundaries: []TileBoundary{
		worldBoundary("World", `{"color1": [255, 0, 0], "color2": [0, 0, 255]}`),
	}}
	rd := &Renderer{Store: store, Tolerance: 0.0002}

	data, err := rd.Render(context.Background(), "wards", "", Params{Size: 256, SRS: SRSWebMercator})
	require.NoError(t, err)

	_, _, alphaAt := decodePNG(t, data)
	assert.NotZero(t, alphaAt(128, 128))
}

func TestRender_InvalidColorStillRendersOutline(t *testing.T) {
	store := &mockTileStore{boundaries: []TileBoundary{worldBoundary("World", `"nonsense"`)}}
	rd := &Renderer{Store: store, Tolerance: 0.0002}

	data, err := rd.Render(context.Background(), "wards", "", Params{Size: 256, SRS: SRSWebMercator})
	require.NoError(t, err)

	w, _, _ := decodePNG(t, data)
	// The fill is skipped but the tile still renders full size with its
	// outline pass.
	assert.Equal(t, 256, w)
}

func TestRender_SubPixelShapeSkipped(t *testing.T) {
	tiny := TileBoundary{
		Name:  "Speck",
		Color: boundaries.ColorSpec(`[0, 255, 0]`),
		Shape: orb.MultiPolygon{
			{{{0, 0}, {1e-7, 0}, {1e-7, 1e-7}, {0, 1e-7}, {0, 0}}},
		},
	}
	rd := &Renderer{Store: &mockTileStore{boundaries: []TileBoundary{tiny}}, Tolerance: 0.0002}

	data, err := rd.Render(context.Background(), "wards", "", Params{Size: 256, SRS: SRSWebMercator})
	require.NoError(t, err)

	w, h, _ := decodePNG(t, data)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestRender_WGS84Output(t *testing.T) {
	store := &mockTileStore{boundaries: []TileBoundary{worldBoundary("World", `[0, 0, 255]`)}}
	rd := &Renderer{Store: store, Tolerance: 0.0002}

	data, err := rd.Render(context.Background(), "wards", "", Params{Size: 512, SRS: SRSWGS84})
	require.NoError(t, err)

	w, h, alphaAt := decodePNG(t, data)
	assert.Equal(t, 512, w)
	assert.Equal(t, 512, h)
	assert.NotZero(t, alphaAt(256, 256))
}

func TestLabelFits(t *testing.T) {
	const size = 256.0

	// Comfortably centred.
	assert.True(t, labelFits(128, 128, 40, 12, size))

	// Pushed past each edge in turn.
	assert.False(t, labelFits(10, 128, 40, 12, size))  // left
	assert.False(t, labelFits(250, 128, 40, 12, size)) // right
	assert.False(t, labelFits(128, 10, 40, 12, size))  // top
	assert.False(t, labelFits(128, 252, 40, 12, size)) // bottom
}

func TestLabelFits_PlateStaysInsideTile(t *testing.T) {
	const size = 256.0
	for px := 0.0; px <= size; px += 16 {
		for py := 0.0; py <= size; py += 16 {
			if !labelFits(px, py, 60, 14, size) {
				continue
			}
			// Shadow rectangle is the widest thing drawn.
			assert.GreaterOrEqual(t, px-60/2-4, 0.0)
			assert.GreaterOrEqual(t, py-14-4, 0.0)
			assert.LessOrEqual(t, px+60/2+7, size)
			assert.LessOrEqual(t, py+6, size)
		}
	}
}

func TestTransparentPNG(t *testing.T) {
	data, err := TransparentPNG()
	require.NoError(t, err)

	w, h, alphaAt := decodePNG(t, data)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.Zero(t, alphaAt(0, 0))
}
