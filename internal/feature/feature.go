package feature

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/geoedit/internal/geom"
)

// Kind identifies the geometry variant of a feature.
type Kind int

// Geometry kinds.
const (
	// KindPoint is a single world position.
	KindPoint Kind = iota

	// KindPolyline is an open sequence of two or more positions.
	KindPolyline

	// KindPolygon is a closed ring of three or more positions. The
	// closing edge back to the first vertex is implicit; the ring never
	// stores a duplicated closing point.
	KindPolygon
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindPolyline:
		return "polyline"
	case KindPolygon:
		return "polygon"
	default:
		return "unknown"
	}
}

// Meta carries descriptive metadata for a feature.
type Meta struct {
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Feature is one editable geometry object.
type Feature struct {
	ID     string
	Kind   Kind
	Points []geom.World
	Props  map[string]string
	Meta   Meta
}

// New creates a feature with a generated id and creation timestamps.
// The points slice is copied.
func New(kind Kind, points []geom.World) *Feature {
	now := time.Now()
	f := &Feature{
		ID:     uuid.New().String(),
		Kind:   kind,
		Points: make([]geom.World, len(points)),
		Meta:   Meta{CreatedAt: now, UpdatedAt: now},
	}
	copy(f.Points, points)
	return f
}

// Clone returns a deep copy of f.
func (f *Feature) Clone() *Feature {
	c := *f
	c.Points = make([]geom.World, len(f.Points))
	copy(c.Points, f.Points)
	if f.Props != nil {
		c.Props = make(map[string]string, len(f.Props))
		for k, v := range f.Props {
			c.Props[k] = v
		}
	}
	return &c
}

// VertexCount returns the number of stored vertices.
func (f *Feature) VertexCount() int {
	return len(f.Points)
}

// EdgeCount returns the number of edges: n-1 for polylines, n for polygons
// (the ring wraps), and 0 for points.
func (f *Feature) EdgeCount() int {
	switch f.Kind {
	case KindPoint:
		return 0
	case KindPolyline:
		if len(f.Points) < 2 {
			return 0
		}
		return len(f.Points) - 1
	case KindPolygon:
		if len(f.Points) < 3 {
			return 0
		}
		return len(f.Points)
	default:
		return 0
	}
}

// Edge returns the endpoints of edge i. For polygons the last edge wraps
// back to vertex 0. Edge indices outside [0, EdgeCount) return zero
// values.
func (f *Feature) Edge(i int) (a, b geom.World) {
	if i < 0 || i >= f.EdgeCount() {
		return geom.World{}, geom.World{}
	}
	a = f.Points[i]
	b = f.Points[(i+1)%len(f.Points)]
	return a, b
}

// EdgeEndIndex returns the vertex index of edge i's second endpoint,
// accounting for polygon wrap-around.
func (f *Feature) EdgeEndIndex(i int) int {
	return (i + 1) % len(f.Points)
}
