package boundaries

import (
	"log"

	"github.com/fagan2888/represent-boundaries/internal/db"
)

// Init ensures the boundaries schema, the PostGIS and uuid extensions,
// the tables, and the spatial indexes exist.
func Init() {
	if err := db.EnsureSchema(db.DB, "boundaries"); err != nil {
		log.Fatal("Failed to ensure schema boundaries: ", err)
	}

	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS postgis`).Error; err != nil {
		log.Fatal("Failed to enable postgis extension: ", err)
	}
	if err := db.DB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		log.Fatal("Failed to enable uuid-ossp extension: ", err)
	}

	if err := db.DB.AutoMigrate(
		&BoundarySet{},
		&Boundary{},
	); err != nil {
		log.Fatal("Failed to auto-migrate tables: ", err)
	}

	// GiST indexes for the bbox and predicate queries. AutoMigrate only
	// builds btree indexes, which are useless for geometry columns.
	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS boundaries_shape_gist ON boundaries.boundaries USING GIST (shape)`,
		`CREATE INDEX IF NOT EXISTS boundaries_simple_shape_gist ON boundaries.boundaries USING GIST (simple_shape)`,
	} {
		if err := db.DB.Exec(stmt).Error; err != nil {
			log.Fatal("Failed to create spatial index: ", err)
		}
	}
}
