package boundaries

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
)

// SRID is the spatial reference of every stored geometry column.
// Shapes are imported in WGS84 and never reprojected in place.
const SRID = 4326

// MultiPolygon is an orb.MultiPolygon that scans/values as PostGIS EWKB.
type MultiPolygon struct {
	orb.MultiPolygon
}

func (m *MultiPolygon) Scan(src interface{}) error {
	if src == nil {
		m.MultiPolygon = nil
		return nil
	}
	return ewkb.Scanner(&m.MultiPolygon).Scan(src)
}

func (m MultiPolygon) Value() (driver.Value, error) {
	return ewkb.Value(m.MultiPolygon, SRID).Value()
}

func (MultiPolygon) GormDataType() string {
	return fmt.Sprintf("geometry(MultiPolygon,%d)", SRID)
}

// Point is a nullable PostGIS point column (label_point may be NULL).
type Point struct {
	orb.Point
	Valid bool
}

func (p *Point) Scan(src interface{}) error {
	if src == nil {
		p.Valid = false
		return nil
	}
	if err := ewkb.Scanner(&p.Point).Scan(src); err != nil {
		return err
	}
	p.Valid = true
	return nil
}

func (p Point) Value() (driver.Value, error) {
	if !p.Valid {
		return nil, nil
	}
	return ewkb.Value(p.Point, SRID).Value()
}

func (Point) GormDataType() string {
	return fmt.Sprintf("geometry(Point,%d)", SRID)
}

// Extent is a [xmin, ymin, xmax, ymax] bounding box stored as JSONB.
type Extent [4]float64

func (e *Extent) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok {
		if s, ok := src.(string); ok {
			b = []byte(s)
		} else {
			return fmt.Errorf("extent: cannot scan %T", src)
		}
	}
	return json.Unmarshal(b, e)
}

func (e Extent) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (Extent) GormDataType() string { return "jsonb" }

// Bound converts the extent to an orb.Bound.
func (e Extent) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e[0], e[1]},
		Max: orb.Point{e[2], e[3]},
	}
}

// Metadata holds the raw shapefile attributes captured at import time.
type Metadata map[string]interface{}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		if s, ok := src.(string); ok {
			b = []byte(s)
		} else {
			return fmt.Errorf("metadata: cannot scan %T", src)
		}
	}
	return json.Unmarshal(b, m)
}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (Metadata) GormDataType() string { return "jsonb" }
