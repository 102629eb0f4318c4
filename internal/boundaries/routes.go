package boundaries

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetRoutes serves /boundary-sets.
func (a *API) SetRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", a.SetList)
	r.Get("/{setSlug}", a.SetDetail)

	return r
}

// BoundaryRoutes serves /boundaries. The geo-field segments are
// registered literally so chi resolves them ahead of the slug params.
func (a *API) BoundaryRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", a.BoundaryList)
	for _, f := range ListGeoFields {
		r.With(geoField(f)).Get("/"+f, a.GeoList)
	}

	r.Get("/{setSlug}", a.BoundaryList)
	for _, f := range ListGeoFields {
		r.With(geoField(f)).Get("/{setSlug}/"+f, a.GeoList)
	}

	r.Get("/{setSlug}/{slug}", a.BoundaryDetail)
	r.Get("/{setSlug}/{slug}/{geoField}", a.GeoDetail)

	return r
}

// geoField injects a literal geo field name as if it were a URL param,
// so GeoList reads it uniformly.
func geoField(field string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rctx := chi.RouteContext(r.Context())
			rctx.URLParams.Add("geoField", field)
			next.ServeHTTP(w, r)
		})
	}
}
