// Package source loads vector files into queryable feature sources.
package source

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"geomap/internal/geom"
)

// Memory is an in-memory feature source of a single kind, indexed with an
// R-tree. Query results keep the order in which features were added.
type Memory struct {
	kind     geom.Kind
	features []geom.Feature
	bounds   []geom.Rectangle
	tree     *rtreego.Rtree
	extents  geom.Rectangle
}

type indexedFeature struct {
	idx  int
	rect rtreego.Rect
}

func (f *indexedFeature) Bounds() rtreego.Rect { return f.rect }

// NewMemory indexes features. Null features are dropped; any other kind
// that differs from kind is an error.
func NewMemory(kind geom.Kind, features []geom.Feature) (*Memory, error) {
	m := &Memory{kind: kind}
	var objs []rtreego.Spatial
	for i, f := range features {
		if f.Kind == geom.KindNull {
			continue
		}
		if f.Kind != kind {
			return nil, fmt.Errorf("source: feature %d is %s in a %s source", i, f.Kind, kind)
		}
		b, ok := f.Bounds()
		if !ok {
			continue
		}
		if len(m.features) == 0 {
			m.extents = b
		} else {
			m.extents = m.extents.Union(b)
		}
		objs = append(objs, &indexedFeature{idx: len(m.features), rect: paddedRect(b)})
		m.features = append(m.features, f)
		m.bounds = append(m.bounds, b)
	}
	m.tree = rtreego.NewTree(2, 25, 50, objs...)
	return m, nil
}

// paddedRect widens r slightly on every side. The R-tree rejects zero-size
// rectangles and treats touching ones as disjoint; results are filtered
// against the exact bounds afterwards.
func paddedRect(r geom.Rectangle) rtreego.Rect {
	pad := func(v float64) float64 { return math.Max(math.Abs(v), 1) * 1e-9 }
	px, py := pad(math.Max(math.Abs(r.Min.X), math.Abs(r.Max.X))), pad(math.Max(math.Abs(r.Min.Y), math.Abs(r.Max.Y)))
	point := rtreego.Point{r.Min.X - px, r.Min.Y - py}
	rect, _ := rtreego.NewRect(point, []float64{r.Width() + 2*px, r.Height() + 2*py})
	return rect
}

func (m *Memory) Kind() geom.Kind { return m.kind }

// GetFeatures returns the features whose bounds intersect r, boundary
// included.
func (m *Memory) GetFeatures(r geom.Rectangle) ([]geom.Feature, error) {
	if len(m.features) == 0 {
		return nil, nil
	}
	hits := m.tree.SearchIntersect(paddedRect(r))
	idx := make([]int, 0, len(hits))
	for _, h := range hits {
		i := h.(*indexedFeature).idx
		if m.bounds[i].Intersects(r) {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	out := make([]geom.Feature, len(idx))
	for j, i := range idx {
		out[j] = m.features[i]
	}
	return out, nil
}

// Nearest returns the feature whose bounds are closest to p.
func (m *Memory) Nearest(p geom.Point) (geom.Feature, bool) {
	if len(m.features) == 0 {
		return geom.Feature{}, false
	}
	s := m.tree.NearestNeighbor(rtreego.Point{p.X, p.Y})
	if s == nil {
		return geom.Feature{}, false
	}
	return m.features[s.(*indexedFeature).idx], true
}

// Features returns every feature in insertion order.
func (m *Memory) Features() []geom.Feature { return m.features }

func (m *Memory) Len() int { return len(m.features) }

// Extents returns the union of all feature bounds.
func (m *Memory) Extents() (geom.Rectangle, bool) {
	return m.extents, len(m.features) > 0
}
