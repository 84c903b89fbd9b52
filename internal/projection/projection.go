// Package projection resolves projection identifiers into handles and
// transforms points between them.
package projection

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ctessum/geom/proj"

	"geomap/internal/geom"
)

var (
	ErrUnknown = errors.New("unknown projection")
	ErrClosed  = errors.New("projection handle closed")
	ErrForeign = errors.New("handle from another service")
)

// ProjectionError reports a projection that cannot be resolved or used.
type ProjectionError struct {
	ID  string
	Op  string
	Err error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("projection %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *ProjectionError) Unwrap() error { return e.Err }

// Service resolves identifiers. An empty identifier means no reprojection
// and is never passed to Resolve.
type Service interface {
	Resolve(id string) (Handle, error)
}

// Handle is a resolved projection. It must be closed once the caller is
// done with it.
type Handle interface {
	ID() string
	Transform(to Handle, p geom.Point) (geom.Point, error)
	Close() error
}

const (
	wgs84       = "+proj=longlat +datum=WGS84 +no_defs"
	webMercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs"
)

// Registry is a Service over proj4 and WKT definitions. Parsed definitions
// and transformers are cached; Open counts the handles not yet closed.
type Registry struct {
	mu         sync.Mutex
	aliases    map[string]string
	srs        map[string]*proj.SR
	transforms map[[2]string]proj.Transformer
	open       int
}

// NewRegistry returns a registry that knows EPSG:4326 and EPSG:3857 by
// name and accepts any proj4 string or WKT definition.
func NewRegistry() *Registry {
	r := &Registry{
		aliases:    make(map[string]string),
		srs:        make(map[string]*proj.SR),
		transforms: make(map[[2]string]proj.Transformer),
	}
	for _, name := range []string{"EPSG:4326", "CRS84", "WGS84"} {
		r.aliases[name] = wgs84
	}
	for _, name := range []string{"EPSG:3857", "EPSG:900913", "EPSG:102100"} {
		r.aliases[name] = webMercator
	}
	return r
}

// Register adds a named definition.
func (r *Registry) Register(name, def string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[strings.ToUpper(name)] = def
}

// Open returns the number of live handles.
func (r *Registry) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

func (r *Registry) Resolve(id string) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sr, err := r.parse(id)
	if err != nil {
		return nil, &ProjectionError{ID: id, Op: "resolve", Err: err}
	}
	r.open++
	return &handle{reg: r, id: id, sr: sr}, nil
}

func (r *Registry) parse(id string) (*proj.SR, error) {
	if sr, ok := r.srs[id]; ok {
		return sr, nil
	}
	def := strings.TrimSpace(id)
	if a, ok := r.aliases[strings.ToUpper(def)]; ok {
		def = a
	} else if !isDefinition(def) {
		return nil, ErrUnknown
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, err
	}
	r.srs[id] = sr
	return sr, nil
}

func isDefinition(s string) bool {
	if strings.HasPrefix(s, "+") {
		return true
	}
	for _, p := range []string{"PROJCS[", "GEOGCS[", "GEOCCS["} {
		if strings.HasPrefix(strings.ToUpper(s), p) {
			return true
		}
	}
	return false
}

func (r *Registry) transformer(from, to *handle) (proj.Transformer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{from.id, to.id}
	if t, ok := r.transforms[key]; ok {
		return t, nil
	}
	t, err := from.sr.NewTransform(to.sr)
	if err != nil {
		return nil, err
	}
	r.transforms[key] = t
	return t, nil
}

type handle struct {
	reg    *Registry
	id     string
	sr     *proj.SR
	mu     sync.Mutex
	closed bool
}

func (h *handle) ID() string { return h.id }

func (h *handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Transform reprojects p from h to to. Z, M and ID are carried through.
func (h *handle) Transform(to Handle, p geom.Point) (geom.Point, error) {
	op := h.id + " -> " + to.ID()
	dst, ok := to.(*handle)
	if !ok || dst.reg != h.reg {
		return p, &ProjectionError{ID: op, Op: "transform", Err: ErrForeign}
	}
	if h.isClosed() || dst.isClosed() {
		return p, &ProjectionError{ID: op, Op: "transform", Err: ErrClosed}
	}
	if h.id == dst.id {
		return p, nil
	}
	t, err := h.reg.transformer(h, dst)
	if err != nil {
		return p, &ProjectionError{ID: op, Op: "transform", Err: err}
	}
	x, y, err := t(p.X, p.Y)
	if err != nil {
		return p, &ProjectionError{ID: op, Op: "transform", Err: err}
	}
	p.X, p.Y = x, y
	return p, nil
}

// Close releases the handle. Closing twice is a no-op.
func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.reg.mu.Lock()
	h.reg.open--
	h.reg.mu.Unlock()
	return nil
}

// TransformRect transforms the corners of r from one projection to the
// other and returns the rectangle spanning them.
func TransformRect(from, to Handle, r geom.Rectangle) (geom.Rectangle, error) {
	corners := []geom.Point{r.Min, geom.XY(r.Min.X, r.Max.Y), r.Max, geom.XY(r.Max.X, r.Min.Y)}
	var out geom.Rectangle
	for i, c := range corners {
		p, err := from.Transform(to, c)
		if err != nil {
			return geom.Rectangle{}, err
		}
		pr := geom.NewRectangle(p, p)
		if i == 0 {
			out = pr
		} else {
			out = out.Union(pr)
		}
	}
	return out, nil
}

// Reproject resolves both identifiers on svc, runs TransformRect and
// releases the handles.
func Reproject(svc Service, from, to string, r geom.Rectangle) (geom.Rectangle, error) {
	src, err := svc.Resolve(from)
	if err != nil {
		return r, err
	}
	defer src.Close()
	dst, err := svc.Resolve(to)
	if err != nil {
		return r, err
	}
	defer dst.Close()
	return TransformRect(src, dst, r)
}
