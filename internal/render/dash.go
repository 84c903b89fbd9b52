package render

import (
	"math"

	"geomap/internal/carto"
)

// dashPattern returns the on/off lengths for style at the given pen width.
// Solid and none give nil.
func dashPattern(style carto.LineStyle, width float64) []float64 {
	w := math.Max(width, 1)
	switch style {
	case carto.LineDashed:
		return []float64{3 * w, w}
	case carto.LineDotted:
		return []float64{w, w}
	}
	return nil
}

// dashAt locates distance d along a pattern of length total: the index of
// the element it falls in and how much of that element is left.
func dashAt(pattern []float64, total, d float64) (int, float64) {
	d = math.Mod(d, total)
	for i, l := range pattern {
		if d < l {
			return i, l - d
		}
		d -= l
	}
	return 0, pattern[0]
}

// splitDashes cuts a polyline into the runs that are "on" under pattern,
// keeping only what lies inside box. The phase carries over from one
// segment to the next so the pattern flows around corners; across clipped
// stretches it is recomputed from the distance walked. A nil or all-zero
// pattern draws solid.
func splitDashes(pts []Vec, pattern []float64, box clipBox) [][]Vec {
	if len(pts) < 2 {
		return nil
	}
	total := 0.0
	for _, d := range pattern {
		total += d
	}
	dashed := len(pattern) > 0 && total > 0
	if dashed && len(pattern)%2 == 1 {
		// even index is always "on"
		pattern = append(append([]float64(nil), pattern...), pattern...)
		total *= 2
	}

	var runs [][]Vec
	var cur []Vec
	flush := func() {
		if len(cur) > 1 {
			runs = append(runs, cur)
		}
		cur = nil
	}

	idx, remain := 0, 0.0
	if dashed {
		idx, remain = dashAt(pattern, total, 0)
	}
	synced := true
	dist := 0.0
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		segLen := math.Hypot(dx, dy)
		if dashed && segLen == 0 {
			continue
		}
		t0, t1, ok := box.clip(a, b)
		if !ok {
			flush()
			dist += segLen
			synced = false
			continue
		}
		if t0 > 0 {
			flush()
		}

		if !dashed {
			if len(cur) == 0 {
				cur = append(cur, lerp(a, b, t0))
			}
			cur = append(cur, lerp(a, b, t1))
		} else {
			ux, uy := dx/segLen, dy/segLen
			along := func(s float64) Vec {
				if s >= segLen {
					return b
				}
				return Vec{a.X + ux*s, a.Y + uy*s}
			}
			pos, end := t0*segLen, t1*segLen
			if t1 == 1 {
				end = segLen
			}
			if t0 > 0 || !synced {
				idx, remain = dashAt(pattern, total, dist+pos)
			}
			for pos < end {
				step := math.Min(remain, end-pos)
				if idx%2 == 0 && step > 0 {
					if len(cur) == 0 {
						cur = append(cur, along(pos))
					}
					cur = append(cur, along(pos+step))
				}
				pos += step
				remain -= step
				if remain <= 0 {
					if idx%2 == 0 {
						flush()
					}
					idx = (idx + 1) % len(pattern)
					remain = pattern[idx]
				}
			}
		}

		synced = t1 == 1
		if !synced {
			flush()
		}
		dist += segLen
	}
	flush()
	return runs
}

func lerp(a, b Vec, t float64) Vec {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return Vec{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}
