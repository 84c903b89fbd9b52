package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a JSON color written as "#RRGGBB" or "#RRGGBBAA".
type Color color.RGBA

// ParseColor reads "#RRGGBB" or "#RRGGBBAA". The result is alpha
// premultiplied, as color.RGBA requires.
func ParseColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	a := uint64(0xff)
	if len(h) == 8 {
		a = v & 0xff
		v >>= 8
	}
	pm := func(c uint64) uint8 { return uint8(c * a / 0xff) }
	return color.RGBA{R: pm(v >> 16 & 0xff), G: pm(v >> 8 & 0xff), B: pm(v & 0xff), A: uint8(a)}, nil
}

func (c Color) Value() color.RGBA { return color.RGBA(c) }

func (c *Color) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	rgba, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = Color(rgba)
	return nil
}

func (c Color) MarshalJSON() ([]byte, error) {
	if c.A == 0xff {
		return json.Marshal(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
	}
	un := func(v uint8) uint8 {
		if c.A == 0 {
			return 0
		}
		return uint8(uint32(v) * 0xff / uint32(c.A))
	}
	return json.Marshal(fmt.Sprintf("#%02x%02x%02x%02x", un(c.R), un(c.G), un(c.B), c.A))
}
