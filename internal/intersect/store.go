package intersect

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// PGStore answers the report's queries from PostGIS. Areas are planar,
// in the square units of the storage SRS.
type PGStore struct {
	db *gorm.DB
}

func NewPGStore(db *gorm.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) SetExists(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Table("boundaries.boundary_sets").
		Where("slug = ?", slug).
		Count(&n).Error
	return n > 0, err
}

func (s *PGStore) BoundarySlugs(ctx context.Context, setSlug string) ([]string, error) {
	var slugs []string
	err := s.db.WithContext(ctx).
		Table("boundaries.boundaries").
		Where("set_slug = ?", setSlug).
		Order("slug").
		Pluck("slug", &slugs).Error
	return slugs, err
}

const infoColumns = `
	slug,
	external_id,
	name,
	metadata,
	ST_Area(shape) AS area,
	ST_X(centroid) AS cx,
	ST_Y(centroid) AS cy,
	ST_XMin(shape) AS x1, ST_YMin(shape) AS y1,
	ST_XMax(shape) AS x2, ST_YMax(shape) AS y2
`

func (s *PGStore) Boundary(ctx context.Context, setSlug, slug string) (*BoundaryInfo, error) {
	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT `+infoColumns+`
		FROM boundaries.boundaries
		WHERE set_slug = ? AND slug = ?
	`, setSlug, slug).Rows()
	if err != nil {
		return nil, fmt.Errorf("boundary query failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("boundary %s/%s not found", setSlug, slug)
	}
	info, err := scanInfo(rows)
	if err != nil {
		return nil, err
	}
	return info, rows.Err()
}

func (s *PGStore) Intersecting(ctx context.Context, setSlug, slug, otherSet string) ([]BoundaryInfo, error) {
	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT `+infoColumns+`
		FROM boundaries.boundaries
		WHERE set_slug = ?
		  AND ST_Intersects(shape, (
			SELECT shape FROM boundaries.boundaries WHERE set_slug = ? AND slug = ?
		  ))
		ORDER BY slug
	`, otherSet, setSlug, slug).Rows()
	if err != nil {
		return nil, fmt.Errorf("intersecting query failed: %w", err)
	}
	defer rows.Close()

	var out []BoundaryInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *info)
	}
	return out, rows.Err()
}

func (s *PGStore) IntersectionArea(ctx context.Context, aSet, aSlug, bSet, bSlug string) (float64, error) {
	var area float64
	err := s.db.WithContext(ctx).Raw(`
		SELECT ST_Area(ST_Intersection(a.shape, b.shape))
		FROM boundaries.boundaries a, boundaries.boundaries b
		WHERE a.set_slug = ? AND a.slug = ?
		  AND b.set_slug = ? AND b.slug = ?
	`, aSet, aSlug, bSet, bSlug).Scan(&area).Error
	if err != nil {
		return 0, fmt.Errorf("intersection failed: %w", err)
	}
	return area, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInfo(rows rowScanner) (*BoundaryInfo, error) {
	var (
		info BoundaryInfo
		meta []byte
	)
	if err := rows.Scan(
		&info.Slug, &info.ExternalID, &info.Name, &meta,
		&info.Area,
		&info.Centroid[0], &info.Centroid[1],
		&info.Extent[0], &info.Extent[1], &info.Extent[2], &info.Extent[3],
	); err != nil {
		return nil, fmt.Errorf("scan boundary info: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &info.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", info.Slug, err)
		}
	}
	return &info, nil
}
