package tiles

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fagan2888/represent-boundaries/internal/boundaries"
)

// Handler serves PNG tiles for a boundary set, or a single boundary
// within one.
type Handler struct {
	Renderer *Renderer

	// CacheMaxAge is the Cache-Control max-age in seconds. Tiles carry no
	// invalidation beyond this header.
	CacheMaxAge int
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/{setSlug}", h.Tile)
	r.Get("/{setSlug}/{slug}", h.Tile)

	return r
}

// intParam parses an integer query parameter with a default for the
// empty value. Anything non-numeric is a client error.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (h *Handler) Tile(w http.ResponseWriter, r *http.Request) {
	setSlug := boundaries.Slugify(chi.URLParam(r, "setSlug"))
	slug := boundaries.Slugify(chi.URLParam(r, "slug"))

	size, err := intParam(r, "size", 256)
	if err != nil || !AllowedSize(size) {
		http.Error(w, "Invalid parameter.", http.StatusNotFound)
		return
	}
	srs, err := intParam(r, "srs", SRSWebMercator)
	if err != nil || !AllowedSRS(srs) {
		http.Error(w, "Invalid parameter.", http.StatusNotFound)
		return
	}

	p := Params{Size: size, SRS: srs}
	for _, q := range []struct {
		name string
		dst  *int
	}{
		{"tile_x", &p.X},
		{"tile_y", &p.Y},
		{"tile_zoom", &p.Zoom},
	} {
		*q.dst, err = intParam(r, q.name, 0)
		if err != nil {
			http.Error(w, "Invalid parameter.", http.StatusNotFound)
			return
		}
	}
	if p.Zoom < 0 || p.Zoom > 30 {
		http.Error(w, "Invalid parameter.", http.StatusNotFound)
		return
	}

	t0 := time.Now()
	png, err := h.Renderer.Render(r.Context(), setSlug, slug, p)
	if err != nil {
		log.Printf("[tiles] %s/%s z=%d x=%d y=%d: %v", setSlug, slug, p.Zoom, p.X, p.Y, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	addServerTiming(w, [2]string{"render", fmt.Sprintf("%.1f", float64(time.Since(t0).Microseconds())/1000)})
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", h.CacheMaxAge))
	_, _ = w.Write(png)
}

func addServerTiming(w http.ResponseWriter, kv ...[2]string) {
	if len(kv) == 0 {
		return
	}
	val := ""
	for i, p := range kv {
		if i > 0 {
			val += ", "
		}
		val += fmt.Sprintf("%s;dur=%s", p[0], p[1])
	}
	w.Header().Add("Server-Timing", val)
}
