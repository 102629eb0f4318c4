// Package intersect computes pairwise overlap reports between two
// boundary sets. The spatial predicate and intersection area run in
// PostGIS; this package owns iteration order, noise filtering and
// output formatting.
package intersect

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// minOverlapRatio filters overlaps below 0.1% of either shape's area.
// Smaller overlaps are almost always shared-border noise from imprecise
// digitization, not true overlaps.
const minOverlapRatio = 0.001

// BoundaryInfo is the per-boundary data a report record carries.
type BoundaryInfo struct {
	Slug       string
	ExternalID string
	Name       string
	Area       float64
	Centroid   [2]float64
	Extent     [4]float64
	Metadata   map[string]interface{}
}

// Store is the data access the report needs. Implementations delegate
// the geometric work to the spatial database.
type Store interface {
	SetExists(ctx context.Context, slug string) (bool, error)

	// BoundarySlugs returns the slugs of a set's boundaries.
	BoundarySlugs(ctx context.Context, setSlug string) ([]string, error)

	// Boundary returns one boundary with its area precomputed.
	Boundary(ctx context.Context, setSlug, slug string) (*BoundaryInfo, error)

	// Intersecting returns the boundaries of otherSet whose shape
	// intersects boundary (setSlug, slug), slug-ordered.
	Intersecting(ctx context.Context, setSlug, slug, otherSet string) ([]BoundaryInfo, error)

	// IntersectionArea returns the area of the two shapes' intersection;
	// 0 means the intersection is empty. Errors are per-pair (malformed
	// geometry) and the caller skips the pair.
	IntersectionArea(ctx context.Context, aSet, aSlug, bSet, bSlug string) (float64, error)
}

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Options control the report output.
type Options struct {
	Format          string
	IncludeMetadata bool
}

// Run writes the overlap report for the two sets to out. Per-pair
// intersection failures go to errw and never abort the run.
func Run(ctx context.Context, store Store, setA, setB string, opts Options, out, errw io.Writer) error {
	if opts.Format != FormatCSV && opts.Format != FormatJSON {
		return fmt.Errorf("unknown format %q (choose csv or json)", opts.Format)
	}
	if setA == setB {
		return fmt.Errorf("boundary sets must differ, got %q twice", setA)
	}
	for _, slug := range []string{setA, setB} {
		ok, err := store.SetExists(ctx, slug)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("boundary set %q not found", slug)
		}
	}

	var (
		cw      *csv.Writer
		records []map[string]interface{}
	)
	if opts.Format == FormatCSV {
		cw = csv.NewWriter(out)
		if err := cw.Write([]string{setA, "area_1", setB, "area_2", "area_intersection", "pct_of_1", "pct_of_2"}); err != nil {
			return err
		}
	}

	slugs, err := store.BoundarySlugs(ctx, setA)
	if err != nil {
		return err
	}
	sort.Strings(slugs)

	for _, aSlug := range slugs {
		a, err := store.Boundary(ctx, setA, aSlug)
		if err != nil {
			return err
		}

		bs, err := store.Intersecting(ctx, setA, aSlug, setB)
		if err != nil {
			return err
		}

		for _, b := range bs {
			area, err := store.IntersectionArea(ctx, setA, aSlug, setB, b.Slug)
			if err != nil {
				fmt.Fprintf(errw, "%s/%s: %v\n", aSlug, b.Slug, err)
				continue
			}
			if area == 0 {
				continue
			}

			ratioA := area / a.Area
			ratioB := area / b.Area
			if ratioA < minOverlapRatio || ratioB < minOverlapRatio {
				continue
			}

			if opts.Format == FormatCSV {
				if err := cw.Write([]string{
					aSlug, formatFloat(a.Area),
					b.Slug, formatFloat(b.Area),
					formatFloat(area), formatFloat(ratioA), formatFloat(ratioB),
				}); err != nil {
					return err
				}
				continue
			}

			records = append(records, map[string]interface{}{
				"area": area,
				setA:   sideRecord(a, ratioA, opts.IncludeMetadata),
				setB:   sideRecord(&b, ratioB, opts.IncludeMetadata),
			})
		}
	}

	if opts.Format == FormatCSV {
		cw.Flush()
		return cw.Error()
	}

	if records == nil {
		records = []map[string]interface{}{}
	}
	enc, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(enc))
	return err
}

func sideRecord(b *BoundaryInfo, ratio float64, withMetadata bool) map[string]interface{} {
	rec := map[string]interface{}{
		"id":       b.ExternalID,
		"name":     b.Name,
		"slug":     b.Slug,
		"centroid": b.Centroid,
		"extent":   b.Extent,
		"area":     b.Area,
		"ratio":    ratio,
	}
	if withMetadata {
		rec["metadata"] = b.Metadata
	}
	return rec
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
