package intersect

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore serves canned boundaries and intersection areas so the
// report logic can run without PostGIS.
type fakeStore struct {
	sets         map[string][]BoundaryInfo
	intersecting map[string][]string       // "set/slug" -> other-set slugs
	areas        map[string]float64        // "aSlug|bSlug" -> intersection area
	errs         map[string]error          // "aSlug|bSlug" -> per-pair failure
}

func (f *fakeStore) SetExists(_ context.Context, slug string) (bool, error) {
	_, ok := f.sets[slug]
	return ok, nil
}

func (f *fakeStore) BoundarySlugs(_ context.Context, setSlug string) ([]string, error) {
	var slugs []string
	for _, b := range f.sets[setSlug] {
		slugs = append(slugs, b.Slug)
	}
	return slugs, nil
}

func (f *fakeStore) Boundary(_ context.Context, setSlug, slug string) (*BoundaryInfo, error) {
	for i, b := range f.sets[setSlug] {
		if b.Slug == slug {
			return &f.sets[setSlug][i], nil
		}
	}
	return nil, fmt.Errorf("no boundary %s/%s", setSlug, slug)
}

func (f *fakeStore) Intersecting(_ context.Context, setSlug, slug, otherSet string) ([]BoundaryInfo, error) {
	var out []BoundaryInfo
	for _, other := range f.intersecting[setSlug+"/"+slug] {
		b, err := f.Boundary(context.Background(), otherSet, other)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeStore) IntersectionArea(_ context.Context, _, aSlug, _, bSlug string) (float64, error) {
	key := aSlug + "|" + bSlug
	if err := f.errs[key]; err != nil {
		return 0, err
	}
	return f.areas[key], nil
}

// fixtureStore builds two sets of unit squares: a1 half-overlaps b1,
// barely grazes b2 (below the noise threshold), hits a broken geometry
// in b3, and shares only a border with b4. a2 overlaps nothing.
func fixtureStore() *fakeStore {
	info := func(slug, id string) BoundaryInfo {
		return BoundaryInfo{
			Slug:       slug,
			ExternalID: id,
			Name:       "Boundary " + slug,
			Area:       1,
			Centroid:   [2]float64{0.5, 0.5},
			Extent:     [4]float64{0, 0, 1, 1},
			Metadata:   map[string]interface{}{"id": id},
		}
	}
	return &fakeStore{
		sets: map[string][]BoundaryInfo{
			// Deliberately unsorted: the report must order by slug.
			"wards": {info("a2", "102"), info("a1", "101")},
			"zones": {info("b1", "201"), info("b2", "202"), info("b3", "203"), info("b4", "204")},
		},
		intersecting: map[string][]string{
			"wards/a1": {"b1", "b2", "b3", "b4"},
		},
		areas: map[string]float64{
			"a1|b1": 0.5,
			"a1|b2": 0.0005,
			"a1|b4": 0,
		},
		errs: map[string]error{
			"a1|b3": errors.New("TopologyException"),
		},
	}
}

func TestRun_CSV(t *testing.T) {
	var out, errw bytes.Buffer
	err := Run(context.Background(), fixtureStore(), "wards", "zones",
		Options{Format: FormatCSV}, &out, &errw)
	require.NoError(t, err)

	rows, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"wards", "area_1", "zones", "area_2", "area_intersection", "pct_of_1", "pct_of_2"}, rows[0])
	// b2 is below the noise threshold, b3 errored, b4 has zero area:
	// only the genuine half-overlap survives.
	assert.Equal(t, []string{"a1", "1", "b1", "1", "0.5", "0.5", "0.5"}, rows[1])
}

func TestRun_JSON(t *testing.T) {
	var out, errw bytes.Buffer
	err := Run(context.Background(), fixtureStore(), "wards", "zones",
		Options{Format: FormatJSON}, &out, &errw)
	require.NoError(t, err)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, 0.5, rec["area"])

	side := rec["wards"].(map[string]interface{})
	assert.Equal(t, "a1", side["slug"])
	assert.Equal(t, "101", side["id"])
	assert.Equal(t, 0.5, side["ratio"])
	assert.NotContains(t, side, "metadata")

	other := rec["zones"].(map[string]interface{})
	assert.Equal(t, "b1", other["slug"])
}

func TestRun_JSONWithMetadata(t *testing.T) {
	var out, errw bytes.Buffer
	err := Run(context.Background(), fixtureStore(), "wards", "zones",
		Options{Format: FormatJSON, IncludeMetadata: true}, &out, &errw)
	require.NoError(t, err)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 1)

	side := records[0]["wards"].(map[string]interface{})
	meta := side["metadata"].(map[string]interface{})
	assert.Equal(t, "101", meta["id"])
}

func TestRun_JSONEmpty(t *testing.T) {
	store := fixtureStore()
	store.intersecting = nil

	var out, errw bytes.Buffer
	err := Run(context.Background(), store, "wards", "zones",
		Options{Format: FormatJSON}, &out, &errw)
	require.NoError(t, err)

	assert.Equal(t, "[]\n", out.String())
}

func TestRun_PairErrorSkipped(t *testing.T) {
	var out, errw bytes.Buffer
	err := Run(context.Background(), fixtureStore(), "wards", "zones",
		Options{Format: FormatCSV}, &out, &errw)
	require.NoError(t, err)

	assert.Contains(t, errw.String(), "a1/b3: TopologyException")
	// The failing pair never reaches the output.
	assert.NotContains(t, out.String(), "b3")
}

func TestRun_Validation(t *testing.T) {
	store := fixtureStore()
	var out, errw bytes.Buffer

	err := Run(context.Background(), store, "wards", "zones",
		Options{Format: "xml"}, &out, &errw)
	assert.ErrorContains(t, err, "unknown format")

	err = Run(context.Background(), store, "wards", "wards",
		Options{Format: FormatCSV}, &out, &errw)
	assert.ErrorContains(t, err, "must differ")

	err = Run(context.Background(), store, "wards", "nope",
		Options{Format: FormatCSV}, &out, &errw)
	assert.ErrorContains(t, err, "not found")
}
