package spatial

import (
	"math"

	"github.com/dshills/geoedit/internal/feature"
	"github.com/dshills/geoedit/internal/geom"
)

// DefaultCellSize is the grid cell edge length in world units (meters).
const DefaultCellSize = 50.0

// minQueryRadius is the clamp applied to non-positive query radii.
const minQueryRadius = 1e-6

// edgeRadiusFactor loosens the edge pre-filter. Edge candidates are kept
// by endpoint/midpoint distance only; the true segment distance is
// computed later by the caller, so the cutoff must not under-collect.
const edgeRadiusFactor = 1.75

// IndexedVertex is one feature vertex recorded in the index.
type IndexedVertex struct {
	FeatureID string
	Index     int
	Position  geom.World
}

// IndexedEdge is one feature edge recorded in the index. Start and End
// are vertex indices; for polygons the last edge wraps (End 0).
type IndexedEdge struct {
	FeatureID string
	Start     int
	End       int
	A         geom.World
	B         geom.World
}

// cellKey addresses one grid cell.
type cellKey struct {
	x, y, z int32
}

// cell holds the entries whose representative point hashes to it.
type cell struct {
	vertices []IndexedVertex
	edges    []IndexedEdge
}

// Stats reports index occupancy.
type Stats struct {
	Features int
	Vertices int
	Edges    int
	Cells    int
}

// Index is a uniform hash grid over feature vertices and edges. It is not
// safe for concurrent use.
type Index struct {
	cellSize float64
	cells    map[cellKey]*cell

	// occupied records, per feature id, the cells holding entries for it
	// so removal never leaves stale entries behind.
	occupied map[string][]cellKey

	store *feature.Store
	sub   feature.Subscription
}

// NewIndex creates an empty index. Non-positive cell sizes fall back to
// DefaultCellSize.
func NewIndex(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Index{
		cellSize: cellSize,
		cells:    make(map[cellKey]*cell),
		occupied: make(map[string][]cellKey),
	}
}

// CellSize returns the configured cell edge length.
func (i *Index) CellSize() float64 {
	return i.cellSize
}

// AttachStore loads the store's current contents and subscribes to its
// change events. Preview events are ignored: the index tracks committed
// geometry only.
func (i *Index) AttachStore(s *feature.Store) {
	i.Detach()
	i.store = s
	for _, f := range s.All() {
		i.Upsert(f)
	}
	i.sub = s.Subscribe(func(e feature.Event) {
		switch e.Kind {
		case feature.EventUpsert:
			i.Upsert(e.Feature)
		case feature.EventRemove:
			i.Remove(e.FeatureID)
		case feature.EventClear:
			i.Clear()
		case feature.EventPreview:
			// Uncommitted; the committed entries stay authoritative.
		}
	})
}

// Detach unsubscribes from the attached store, if any. The indexed
// entries are kept.
func (i *Index) Detach() {
	if i.store != nil {
		i.store.Unsubscribe(i.sub)
		i.store = nil
	}
}

// Upsert replaces all entries for the feature with freshly computed ones.
func (i *Index) Upsert(f *feature.Feature) {
	if f == nil || f.ID == "" {
		return
	}
	i.Remove(f.ID)

	seen := make(map[cellKey]bool)
	record := func(k cellKey) {
		if !seen[k] {
			seen[k] = true
			i.occupied[f.ID] = append(i.occupied[f.ID], k)
		}
	}

	for idx, p := range f.Points {
		k := i.key(p)
		c := i.cell(k)
		c.vertices = append(c.vertices, IndexedVertex{FeatureID: f.ID, Index: idx, Position: p})
		record(k)
	}

	for e := 0; e < f.EdgeCount(); e++ {
		a, b := f.Edge(e)
		k := i.key(geom.Midpoint(a, b))
		c := i.cell(k)
		c.edges = append(c.edges, IndexedEdge{
			FeatureID: f.ID,
			Start:     e,
			End:       f.EdgeEndIndex(e),
			A:         a,
			B:         b,
		})
		record(k)
	}
}

// Remove deletes all entries recorded for the feature id.
func (i *Index) Remove(id string) {
	keys, ok := i.occupied[id]
	if !ok {
		return
	}
	delete(i.occupied, id)

	for _, k := range keys {
		c, ok := i.cells[k]
		if !ok {
			continue
		}
		c.vertices = filterVertices(c.vertices, id)
		c.edges = filterEdges(c.edges, id)
		if len(c.vertices) == 0 && len(c.edges) == 0 {
			delete(i.cells, k)
		}
	}
}

// Clear drops every entry.
func (i *Index) Clear() {
	i.cells = make(map[cellKey]*cell)
	i.occupied = make(map[string][]cellKey)
}

// Query returns the vertices and edges near p. Vertices are filtered by
// exact Euclidean distance against radius; edges by endpoint/midpoint
// distance against a looser cutoff (see edgeRadiusFactor). Non-positive
// radii are clamped to a small epsilon. An empty index returns empty
// results.
func (i *Index) Query(p geom.World, radius float64) ([]IndexedVertex, []IndexedEdge) {
	if radius <= 0 {
		radius = minQueryRadius
	}

	var vertices []IndexedVertex
	var edges []IndexedEdge
	collect := func(c *cell) {
		for _, v := range c.vertices {
			if v.Position.Distance(p) <= radius {
				vertices = append(vertices, v)
			}
		}
		edgeCutoff := radius * edgeRadiusFactor
		for _, e := range c.edges {
			if edgeNear(e, p, edgeCutoff) {
				edges = append(edges, e)
			}
		}
	}

	rings := int(math.Ceil(radius / i.cellSize))
	span := 2*rings + 1

	// A wide radius over small cells can address far more cells than are
	// occupied; scanning the occupied set directly is cheaper then.
	if span*span*span > len(i.cells) {
		for _, c := range i.cells {
			collect(c)
		}
		return vertices, edges
	}

	center := i.key(p)
	for dx := -rings; dx <= rings; dx++ {
		for dy := -rings; dy <= rings; dy++ {
			for dz := -rings; dz <= rings; dz++ {
				k := cellKey{
					x: center.x + int32(dx),
					y: center.y + int32(dy),
					z: center.z + int32(dz),
				}
				if c, ok := i.cells[k]; ok {
					collect(c)
				}
			}
		}
	}
	return vertices, edges
}

// Stats returns occupancy counters.
func (i *Index) Stats() Stats {
	s := Stats{Features: len(i.occupied), Cells: len(i.cells)}
	for _, c := range i.cells {
		s.Vertices += len(c.vertices)
		s.Edges += len(c.edges)
	}
	return s
}

// key hashes a world position to its cell.
func (i *Index) key(p geom.World) cellKey {
	return cellKey{
		x: int32(math.Floor(p.X / i.cellSize)),
		y: int32(math.Floor(p.Y / i.cellSize)),
		z: int32(math.Floor(p.Z / i.cellSize)),
	}
}

// cell returns the cell for k, creating it if needed.
func (i *Index) cell(k cellKey) *cell {
	c, ok := i.cells[k]
	if !ok {
		c = &cell{}
		i.cells[k] = c
	}
	return c
}

// edgeNear is the cheap edge pre-filter: distance from p to either
// endpoint or the midpoint within cutoff.
func edgeNear(e IndexedEdge, p geom.World, cutoff float64) bool {
	return e.A.Distance(p) <= cutoff ||
		e.B.Distance(p) <= cutoff ||
		geom.Midpoint(e.A, e.B).Distance(p) <= cutoff
}

func filterVertices(in []IndexedVertex, id string) []IndexedVertex {
	out := in[:0]
	for _, v := range in {
		if v.FeatureID != id {
			out = append(out, v)
		}
	}
	return out
}

func filterEdges(in []IndexedEdge, id string) []IndexedEdge {
	out := in[:0]
	for _, e := range in {
		if e.FeatureID != id {
			out = append(out, e)
		}
	}
	return out
}
