package boundaries

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested set or boundary does not exist.
var ErrNotFound = errors.New("not found")

// BoundaryRef identifies a boundary as "<set-slug>/<slug>", the form used
// by the intersects/touches filter parameters.
type BoundaryRef struct {
	Set  string
	Slug string
}

// SetListParams filter the boundary-set list.
type SetListParams struct {
	Limit  int
	Offset int
	Name   string
	Domain string
}

// ListParams filter the boundary list.
type ListParams struct {
	Limit  int
	Offset int

	SetSlug    string // restrict to one set; "" means all sets
	Name       string
	ExternalID string
	Sets       []string // sets=<csv of set slugs>

	Intersects *BoundaryRef
	Touches    *BoundaryRef

	// GeoField, when non-empty, loads that geometry column on each result
	// (shape, simple_shape or centroid). The plain list loads none.
	GeoField string
}

// Store is the read-side persistence interface for the HTTP API.
type Store interface {
	BoundarySets(ctx context.Context, p SetListParams) ([]BoundarySet, int64, error)
	BoundarySet(ctx context.Context, slug string) (*BoundarySet, error)
	BoundarySetExists(ctx context.Context, slug string) (bool, error)
	BoundaryCount(ctx context.Context, setSlug string) (int64, error)

	Boundaries(ctx context.Context, p ListParams) ([]Boundary, int64, error)
	Boundary(ctx context.Context, setSlug, slug string, withGeometry bool) (*Boundary, error)
	BoundaryExists(ctx context.Context, setSlug, slug string) (bool, error)
}

// PGStore implements Store over the PostGIS schema. Spatial predicates
// run in the database; geometries travel as EWKB.
type PGStore struct {
	db *gorm.DB
}

func NewPGStore(db *gorm.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) BoundarySets(ctx context.Context, p SetListParams) ([]BoundarySet, int64, error) {
	q := s.db.WithContext(ctx).Model(&BoundarySet{})
	if p.Name != "" {
		q = q.Where("name = ?", p.Name)
	}
	if p.Domain != "" {
		q = q.Where("domain = ?", p.Domain)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sets []BoundarySet
	err := q.Order("slug").Limit(p.Limit).Offset(p.Offset).Find(&sets).Error
	return sets, total, err
}

func (s *PGStore) BoundarySet(ctx context.Context, slug string) (*BoundarySet, error) {
	var set BoundarySet
	err := s.db.WithContext(ctx).First(&set, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *PGStore) BoundarySetExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&BoundarySet{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (s *PGStore) BoundaryCount(ctx context.Context, setSlug string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Boundary{}).Where("set_slug = ?", setSlug).Count(&n).Error
	return n, err
}

// listColumns are the non-geometry columns every boundary query selects.
var listColumns = []string{"id", "set_slug", "slug", "external_id", "name", "metadata", "extent", "color"}

func (s *PGStore) Boundaries(ctx context.Context, p ListParams) ([]Boundary, int64, error) {
	q := s.db.WithContext(ctx).Model(&Boundary{})

	if p.SetSlug != "" {
		q = q.Where("set_slug = ?", p.SetSlug)
	}
	if p.Name != "" {
		q = q.Where("name = ?", p.Name)
	}
	if p.ExternalID != "" {
		q = q.Where("external_id = ?", p.ExternalID)
	}
	if len(p.Sets) > 0 {
		q = q.Where("set_slug = ANY(?)", pq.Array(p.Sets))
	}
	if r := p.Intersects; r != nil {
		// Both predicates are needed: covered-by alone misses partial
		// overlaps, overlaps alone misses containment.
		q = q.Where(`EXISTS (
			SELECT 1 FROM boundaries.boundaries r
			WHERE r.set_slug = ? AND r.slug = ?
			  AND (ST_Covers(boundaries.shape, r.shape) OR ST_Overlaps(boundaries.shape, r.shape))
		)`, r.Set, r.Slug)
	}
	if r := p.Touches; r != nil {
		q = q.Where(`EXISTS (
			SELECT 1 FROM boundaries.boundaries r
			WHERE r.set_slug = ? AND r.slug = ?
			  AND ST_Touches(boundaries.shape, r.shape)
		)`, r.Set, r.Slug)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	cols := listColumns
	if p.GeoField != "" {
		cols = append(append([]string{}, listColumns...), p.GeoField)
	}

	var bs []Boundary
	err := q.Select(cols).Order("set_slug, slug").Limit(p.Limit).Offset(p.Offset).Find(&bs).Error
	return bs, total, err
}

func (s *PGStore) Boundary(ctx context.Context, setSlug, slug string, withGeometry bool) (*Boundary, error) {
	q := s.db.WithContext(ctx).Model(&Boundary{})
	if !withGeometry {
		q = q.Select(listColumns)
	}

	var b Boundary
	err := q.First(&b, "set_slug = ? AND slug = ?", setSlug, slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PGStore) BoundaryExists(ctx context.Context, setSlug, slug string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Boundary{}).
		Where("set_slug = ? AND slug = ?", setSlug, slug).Count(&n).Error
	return n > 0, err
}
