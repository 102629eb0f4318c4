package boundaries

import (
	"time"

	"github.com/google/uuid"
)

// BoundarySet is a named collection of boundaries from a single
// authority, e.g. "federal-electoral-districts".
type BoundarySet struct {
	Slug         string    `json:"slug" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"index"`
	SingularName string    `json:"singular_name"`
	Authority    string    `json:"authority"`
	Domain       string    `json:"domain" gorm:"index"`
	SourceURL    string    `json:"source_url"`
	LicenceURL   string    `json:"licence_url"`
	LastUpdated  time.Time `json:"last_updated"`
	Notes        string    `json:"notes"`
}

func (BoundarySet) TableName() string { return "boundaries.boundary_sets" }

// Boundary is a single region's polygon plus its import metadata.
// Geometry columns are written only by the importer and treated as
// immutable afterwards.
type Boundary struct {
	ID         uuid.UUID `json:"-" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	SetSlug    string    `json:"set_slug" gorm:"column:set_slug;uniqueIndex:boundaries_set_slug_slug"`
	Slug       string    `json:"slug" gorm:"uniqueIndex:boundaries_set_slug_slug"`
	ExternalID string    `json:"external_id" gorm:"index"`
	Name       string    `json:"name" gorm:"index"`
	Metadata   Metadata  `json:"metadata,omitempty" gorm:"type:jsonb"`

	Shape       MultiPolygon `json:"-"`
	SimpleShape MultiPolygon `json:"-"`
	Centroid    Point        `json:"-"`
	Extent      Extent       `json:"extent" gorm:"type:jsonb"`
	LabelPoint  Point        `json:"-"`
	Color       ColorSpec    `json:"color,omitempty" gorm:"type:jsonb"`
}

func (Boundary) TableName() string { return "boundaries.boundaries" }

// Geometry field names a client may request on the geo endpoints.
const (
	GeoFieldShape       = "shape"
	GeoFieldSimpleShape = "simple_shape"
	GeoFieldCentroid    = "centroid"
	GeoFieldExtent      = "extent"
)

// ListGeoFields are the fields servable as feature collections on list
// endpoints. Extent is only available on the per-boundary endpoint.
var ListGeoFields = []string{GeoFieldShape, GeoFieldSimpleShape, GeoFieldCentroid}

// IsListGeoField reports whether f is one of ListGeoFields.
func IsListGeoField(f string) bool {
	for _, g := range ListGeoFields {
		if f == g {
			return true
		}
	}
	return false
}
