package shapefile

import "fmt"

// Range is a half-open interval [Start, End) of point indexes.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int { return r.End - r.Start }

// SplitParts assigns pointCount points to len(starts) parts. The point index
// is walked once; a new part opens whenever the index reaches the next start,
// and the last part takes every remaining point. The first start is not
// consulted: part 0 always begins at index 0. Repeated starts give empty
// parts, so exactly len(starts) ranges come back.
func SplitParts(pointCount int, starts []uint32) ([]Range, error) {
	if pointCount < 0 {
		return nil, fmt.Errorf("negative point count %d", pointCount)
	}
	if len(starts) == 0 {
		if pointCount > 0 {
			return nil, fmt.Errorf("%d points declared with no parts", pointCount)
		}
		return nil, nil
	}
	for i, s := range starts {
		if int64(s) > int64(pointCount) {
			return nil, fmt.Errorf("part %d starts at %d beyond %d points", i, s, pointCount)
		}
		if i > 0 && s < starts[i-1] {
			return nil, fmt.Errorf("part %d starts at %d before part %d at %d", i, s, i-1, starts[i-1])
		}
	}

	ranges := make([]Range, 0, len(starts))
	cur := Range{}
	next := 1
	for i := 0; i < pointCount; i++ {
		for next < len(starts) && int(starts[next]) == i {
			cur.End = i
			ranges = append(ranges, cur)
			cur = Range{Start: i}
			next++
		}
	}
	// starts equal to pointCount open empty trailing parts
	for ; next < len(starts); next++ {
		cur.End = pointCount
		ranges = append(ranges, cur)
		cur = Range{Start: pointCount}
	}
	cur.End = pointCount
	return append(ranges, cur), nil
}
