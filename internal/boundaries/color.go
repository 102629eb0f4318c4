package boundaries

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ColorSpec is the raw JSON colour stored per boundary. Two encodings are
// accepted:
//
//	[r, g, b]            solid fill, default alpha 60
//	[r, g, b, a]         solid fill with explicit alpha
//	{"color1": [r,g,b],
//	 "color2": [r,g,b]}  striped fill of color1 with stripes of color2
//
// Components are in the range 0-255. Anything else is an invalid spec and
// the tile renderer skips the fill for that boundary.
type ColorSpec []byte

func (c *ColorSpec) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = nil
	case []byte:
		*c = append((*c)[:0], v...)
	case string:
		*c = []byte(v)
	default:
		return fmt.Errorf("color: cannot scan %T", src)
	}
	return nil
}

func (c ColorSpec) Value() (driver.Value, error) {
	if len(c) == 0 {
		return nil, nil
	}
	return []byte(c), nil
}

func (ColorSpec) GormDataType() string { return "jsonb" }

func (c ColorSpec) MarshalJSON() ([]byte, error) {
	if len(c) == 0 {
		return []byte("null"), nil
	}
	return c, nil
}

func (c *ColorSpec) UnmarshalJSON(b []byte) error {
	*c = append((*c)[:0], b...)
	return nil
}

// RGBA is a colour with 0-255 components.
type RGBA struct {
	R, G, B, A float64
}

// Fill is a parsed ColorSpec ready for drawing.
type Fill struct {
	Solid  *RGBA
	Stripe *StripeFill
}

// StripeFill is a two-colour striped pattern: a base of Color1 with
// narrower stripes of Color2.
type StripeFill struct {
	Color1 RGBA
	Color2 RGBA
}

// Fill parses the colour spec. ok is false when the spec is empty,
// malformed JSON, or an unknown shape.
func (c ColorSpec) Fill() (Fill, bool) {
	if len(c) == 0 {
		return Fill{}, false
	}

	var tuple []float64
	if err := json.Unmarshal(c, &tuple); err == nil {
		switch len(tuple) {
		case 3:
			return Fill{Solid: &RGBA{tuple[0], tuple[1], tuple[2], 60}}, true
		case 4:
			return Fill{Solid: &RGBA{tuple[0], tuple[1], tuple[2], tuple[3]}}, true
		default:
			return Fill{}, false
		}
	}

	var striped struct {
		Color1 []float64 `json:"color1"`
		Color2 []float64 `json:"color2"`
	}
	if err := json.Unmarshal(c, &striped); err != nil {
		return Fill{}, false
	}
	if len(striped.Color1) != 3 || len(striped.Color2) != 3 {
		return Fill{}, false
	}
	return Fill{Stripe: &StripeFill{
		Color1: RGBA{striped.Color1[0], striped.Color1[1], striped.Color1[2], 255},
		Color2: RGBA{striped.Color2[0], striped.Color2[1], striped.Color2[2], 255},
	}}, true
}
