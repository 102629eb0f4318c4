package boundaries

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

// API serves the boundary-set and boundary resources.
type API struct {
	Store    Store
	Settings Settings
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type listMeta struct {
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	TotalCount int64   `json:"total_count"`
	Next       *string `json:"next"`
	Previous   *string `json:"previous"`
}

// pageMeta builds the pagination envelope, with next/previous URLs that
// preserve the request's other query parameters.
func pageMeta(r *http.Request, limit, offset int, total int64) listMeta {
	m := listMeta{Limit: limit, Offset: offset, TotalCount: total}

	pageURL := func(off int) *string {
		q := r.URL.Query()
		q.Set("limit", strconv.Itoa(limit))
		q.Set("offset", strconv.Itoa(off))
		u := r.URL.Path + "?" + q.Encode()
		return &u
	}

	if int64(offset+limit) < total {
		m.Next = pageURL(offset + limit)
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		m.Previous = pageURL(prev)
	}
	return m
}

func parsePage(r *http.Request) (limit, offset int, err error) {
	limit, offset = defaultLimit, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", v)
		}
		if limit > maxLimit {
			limit = maxLimit
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", v)
		}
	}
	return limit, offset, nil
}

// parseRef parses an "intersects" / "touches" style "<set>/<slug>" value.
func parseRef(v string) (*BoundaryRef, bool) {
	parts := strings.Split(v, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, false
	}
	return &BoundaryRef{Set: Slugify(parts[0]), Slug: Slugify(parts[1])}, true
}

func (a *API) SetList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := SetListParams{
		Limit:  limit,
		Offset: offset,
		Name:   r.URL.Query().Get("name"),
		Domain: r.URL.Query().Get("domain"),
	}
	sets, total, err := a.Store.BoundarySets(r.Context(), p)
	if err != nil {
		log.Printf("[boundaries] set list: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if sets == nil {
		sets = []BoundarySet{}
	}

	writeJSON(w, map[string]any{
		"meta":    pageMeta(r, limit, offset, total),
		"objects": sets,
	})
}

func (a *API) SetDetail(w http.ResponseWriter, r *http.Request) {
	slug := Slugify(chi.URLParam(r, "setSlug"))

	set, err := a.Store.BoundarySet(r.Context(), slug)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("[boundaries] set detail %s: %v", slug, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	count, err := a.Store.BoundaryCount(r.Context(), slug)
	if err != nil {
		log.Printf("[boundaries] set count %s: %v", slug, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		BoundarySet
		Count         int64  `json:"count"`
		BoundariesURL string `json:"boundaries_url"`
	}{*set, count, "/boundaries/" + set.Slug},
	)
}

// listParams assembles ListParams from the request. A false second return
// means the response has already been written (404 on a bad reference).
func (a *API) listParams(w http.ResponseWriter, r *http.Request, setSlug string) (ListParams, bool) {
	limit, offset, err := parsePage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return ListParams{}, false
	}

	p := ListParams{
		Limit:      limit,
		Offset:     offset,
		SetSlug:    setSlug,
		Name:       r.URL.Query().Get("name"),
		ExternalID: r.URL.Query().Get("external_id"),
	}

	if v := r.URL.Query().Get("sets"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = Slugify(s); s != "" {
				p.Sets = append(p.Sets, s)
			}
		}
	}

	for param, dst := range map[string]**BoundaryRef{
		"intersects": &p.Intersects,
		"touches":    &p.Touches,
	} {
		v := r.URL.Query().Get(param)
		if v == "" {
			continue
		}
		ref, ok := parseRef(v)
		if !ok {
			http.NotFound(w, r)
			return ListParams{}, false
		}
		exists, err := a.Store.BoundaryExists(r.Context(), ref.Set, ref.Slug)
		if err != nil {
			log.Printf("[boundaries] %s ref %s/%s: %v", param, ref.Set, ref.Slug, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return ListParams{}, false
		}
		if !exists {
			http.NotFound(w, r)
			return ListParams{}, false
		}
		*dst = ref
	}

	return p, true
}

// requireSet 404s (and returns false) when setSlug is non-empty and no
// such boundary set exists.
func (a *API) requireSet(w http.ResponseWriter, r *http.Request, setSlug string) bool {
	if setSlug == "" {
		return true
	}
	exists, err := a.Store.BoundarySetExists(r.Context(), setSlug)
	if err != nil {
		log.Printf("[boundaries] set exists %s: %v", setSlug, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return false
	}
	if !exists {
		http.NotFound(w, r)
		return false
	}
	return true
}

func (a *API) BoundaryList(w http.ResponseWriter, r *http.Request) {
	setSlug := Slugify(chi.URLParam(r, "setSlug"))
	if !a.requireSet(w, r, setSlug) {
		return
	}

	p, ok := a.listParams(w, r, setSlug)
	if !ok {
		return
	}

	bs, total, err := a.Store.Boundaries(r.Context(), p)
	if err != nil {
		log.Printf("[boundaries] list: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if bs == nil {
		bs = []Boundary{}
	}

	resp := map[string]any{
		"meta":    pageMeta(r, p.Limit, p.Offset, total),
		"objects": bs,
	}

	// Advertise the geo variants only for result sets small enough to
	// serialize.
	if total > 0 && total <= int64(a.Settings.MaxGeoListResults) {
		geoURL := func(field string) string {
			u := url.URL{Path: strings.TrimRight(r.URL.Path, "/") + "/" + field, RawQuery: r.URL.RawQuery}
			return u.String()
		}
		resp["shapes_url"] = geoURL(GeoFieldShape)
		resp["simple_shapes_url"] = geoURL(GeoFieldSimpleShape)
		resp["centroids_url"] = geoURL(GeoFieldCentroid)
	}

	writeJSON(w, resp)
}

// GeoList serves a page of boundaries as a GeoJSON FeatureCollection of
// the requested geometry field.
func (a *API) GeoList(w http.ResponseWriter, r *http.Request) {
	setSlug := Slugify(chi.URLParam(r, "setSlug"))
	if !a.requireSet(w, r, setSlug) {
		return
	}

	field := chi.URLParam(r, "geoField")
	if !IsListGeoField(field) {
		http.NotFound(w, r)
		return
	}

	p, ok := a.listParams(w, r, setSlug)
	if !ok {
		return
	}
	p.GeoField = field

	bs, total, err := a.Store.Boundaries(r.Context(), p)
	if err != nil {
		log.Printf("[boundaries] geo list: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if total > int64(a.Settings.MaxGeoListResults) {
		http.Error(w, "Too many boundaries for a spatial list; filter the query", http.StatusForbidden)
		return
	}

	fc := geojson.NewFeatureCollection()
	for i := range bs {
		var g orb.Geometry
		switch field {
		case GeoFieldShape:
			g = bs[i].Shape.MultiPolygon
		case GeoFieldSimpleShape:
			g = bs[i].SimpleShape.MultiPolygon
		case GeoFieldCentroid:
			g = bs[i].Centroid.Point
		}
		f := geojson.NewFeature(g)
		f.Properties["name"] = bs[i].Name
		f.Properties["slug"] = bs[i].Slug
		f.Properties["external_id"] = bs[i].ExternalID
		f.Properties["boundary_set"] = bs[i].SetSlug
		fc.Append(f)
	}

	writeJSON(w, fc)
}

func (a *API) BoundaryDetail(w http.ResponseWriter, r *http.Request) {
	setSlug := Slugify(chi.URLParam(r, "setSlug"))
	slug := Slugify(chi.URLParam(r, "slug"))

	b, err := a.Store.Boundary(r.Context(), setSlug, slug, false)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("[boundaries] detail %s/%s: %v", setSlug, slug, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	base := "/boundaries/" + b.SetSlug + "/" + b.Slug + "/"
	writeJSON(w, struct {
		Boundary
		ShapeURL       string `json:"shape_url"`
		SimpleShapeURL string `json:"simple_shape_url"`
		CentroidURL    string `json:"centroid_url"`
		ExtentURL      string `json:"extent_url"`
	}{*b, base + GeoFieldShape, base + GeoFieldSimpleShape, base + GeoFieldCentroid, base + GeoFieldExtent})
}

// GeoDetail serves a single boundary's shape, simple_shape, centroid or
// extent as raw GeoJSON (extent as a bare [xmin,ymin,xmax,ymax] array).
func (a *API) GeoDetail(w http.ResponseWriter, r *http.Request) {
	setSlug := Slugify(chi.URLParam(r, "setSlug"))
	slug := Slugify(chi.URLParam(r, "slug"))
	field := chi.URLParam(r, "geoField")

	switch field {
	case GeoFieldShape, GeoFieldSimpleShape, GeoFieldCentroid, GeoFieldExtent:
	default:
		http.NotFound(w, r)
		return
	}

	b, err := a.Store.Boundary(r.Context(), setSlug, slug, true)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Printf("[boundaries] geo detail %s/%s/%s: %v", setSlug, slug, field, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch field {
	case GeoFieldShape:
		writeJSON(w, geojson.NewGeometry(b.Shape.MultiPolygon))
	case GeoFieldSimpleShape:
		writeJSON(w, geojson.NewGeometry(b.SimpleShape.MultiPolygon))
	case GeoFieldCentroid:
		writeJSON(w, geojson.NewGeometry(b.Centroid.Point))
	case GeoFieldExtent:
		writeJSON(w, b.Extent)
	}
}
