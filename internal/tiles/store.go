package tiles

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"gorm.io/gorm"

	"github.com/fagan2888/represent-boundaries/internal/boundaries"
)

// TileBoundary is the slice of a boundary a tile render needs.
type TileBoundary struct {
	Name       string
	LabelPoint *orb.Point
	Color      boundaries.ColorSpec
	Shape      orb.MultiPolygon
}

// Store fetches the boundaries whose shape intersects a tile's bounding
// box, already reduced to the columns the renderer reads.
type Store interface {
	// TileBoundaries returns boundaries of the set intersecting bbox (in
	// the database SRS). boundarySlug, when non-empty, restricts to one
	// boundary. simplified selects the pre-simplified geometry column.
	TileBoundaries(ctx context.Context, setSlug, boundarySlug string, bbox orb.Bound, simplified bool) ([]TileBoundary, error)
}

// PGStore runs the bbox query in PostGIS.
type PGStore struct {
	db *gorm.DB
}

func NewPGStore(db *gorm.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) TileBoundaries(ctx context.Context, setSlug, boundarySlug string, bbox orb.Bound, simplified bool) ([]TileBoundary, error) {
	col := "shape"
	if simplified {
		col = "simple_shape"
	}

	query := fmt.Sprintf(`
		SELECT name, label_point, color, %s
		FROM boundaries.boundaries
		WHERE set_slug = ?
		  AND ST_Intersects(shape, ST_MakeEnvelope(?, ?, ?, ?, %d))
	`, col, boundaries.SRID)
	args := []interface{}{setSlug, bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1]}
	if boundarySlug != "" {
		query += " AND slug = ?"
		args = append(args, boundarySlug)
	}
	query += " ORDER BY slug"

	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("tile boundary query failed: %w", err)
	}
	defer rows.Close()

	var out []TileBoundary
	for rows.Next() {
		var (
			tb    TileBoundary
			label boundaries.Point
			shape boundaries.MultiPolygon
		)
		if err := rows.Scan(&tb.Name, &label, &tb.Color, &shape); err != nil {
			return nil, fmt.Errorf("scan tile boundary: %w", err)
		}
		if label.Valid {
			p := label.Point
			tb.LabelPoint = &p
		}
		tb.Shape = shape.MultiPolygon
		out = append(out, tb)
	}
	return out, rows.Err()
}
