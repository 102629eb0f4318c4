package tiles

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler(store Store) http.Handler {
	h := &Handler{
		Renderer:    &Renderer{Store: store, Tolerance: 0.0002},
		CacheMaxAge: 259200,
	}
	return h.Routes()
}

func getTile(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTile_InvalidParams(t *testing.T) {
	h := testHandler(&mockTileStore{})

	for _, url := range []string{
		"/wards?size=300",
		"/wards?size=abc",
		"/wards?srs=9999",
		"/wards?srs=mercator",
		"/wards?tile_x=abc",
		"/wards?tile_y=1.5",
		"/wards?tile_zoom=deep",
		"/wards?tile_zoom=-1",
	} {
		assert.Equalf(t, http.StatusNotFound, getTile(t, h, url).Code, "url %s", url)
	}
}

func TestTile_EmptyTile(t *testing.T) {
	h := testHandler(&mockTileStore{})

	rec := getTile(t, h, "/wards?size=256&srs=3857&tile_x=0&tile_y=0&tile_zoom=0")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=259200")
	assert.NotEmpty(t, rec.Header().Get("Content-Length"))

	w, hh, _ := decodePNG(t, rec.Body.Bytes())
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, hh)
}

func TestTile_Defaults(t *testing.T) {
	store := &mockTileStore{boundaries: []TileBoundary{worldBoundary("World", `[255, 0, 0]`)}}
	h := testHandler(store)

	rec := getTile(t, h, "/wards")
	require.Equal(t, http.StatusOK, rec.Code)

	w, hh, _ := decodePNG(t, rec.Body.Bytes())
	assert.Equal(t, 256, w)
	assert.Equal(t, 256, hh)
	assert.Contains(t, rec.Header().Get("Server-Timing"), "render")
}

func TestTile_SingleBoundaryRoute(t *testing.T) {
	store := &mockTileStore{boundaries: []TileBoundary{worldBoundary("World", `[255, 0, 0]`)}}
	h := testHandler(store)

	rec := getTile(t, h, "/wards/ward-1?size=512")
	require.Equal(t, http.StatusOK, rec.Code)

	w, _, _ := decodePNG(t, rec.Body.Bytes())
	assert.Equal(t, 512, w)
}
