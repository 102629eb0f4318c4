package boundaries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorSpec_SolidRGB(t *testing.T) {
	fill, ok := ColorSpec(`[200, 100, 50]`).Fill()
	require.True(t, ok)
	require.NotNil(t, fill.Solid)
	assert.Nil(t, fill.Stripe)

	assert.Equal(t, 200.0, fill.Solid.R)
	assert.Equal(t, 100.0, fill.Solid.G)
	assert.Equal(t, 50.0, fill.Solid.B)
	// A three-tuple gets the default alpha.
	assert.Equal(t, 60.0, fill.Solid.A)
}

func TestColorSpec_SolidRGBA(t *testing.T) {
	fill, ok := ColorSpec(`[200, 100, 50, 255]`).Fill()
	require.True(t, ok)
	require.NotNil(t, fill.Solid)
	assert.Equal(t, 255.0, fill.Solid.A)
}

func TestColorSpec_Striped(t *testing.T) {
	fill, ok := ColorSpec(`{"color1": [255, 0, 0], "color2": [0, 0, 255]}`).Fill()
	require.True(t, ok)
	require.NotNil(t, fill.Stripe)
	assert.Nil(t, fill.Solid)

	assert.Equal(t, 255.0, fill.Stripe.Color1.R)
	assert.Equal(t, 255.0, fill.Stripe.Color2.B)
}

func TestColorSpec_Invalid(t *testing.T) {
	for _, spec := range []string{
		``,                       // empty
		`null`,                   // JSON null decodes as an empty tuple
		`[1, 2]`,                 // too short
		`[1, 2, 3, 4, 5]`,        // too long
		`{"color1": [255,0,0]}`,  // missing color2
		`{"color1": [1,2]}`,      // short component list
		`"red"`,                  // wrong shape entirely
		`(255, 0, 0)`,            // tuple syntax, not JSON
	} {
		_, ok := ColorSpec(spec).Fill()
		assert.Falsef(t, ok, "spec %q should be invalid", spec)
	}
}
