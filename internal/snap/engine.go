package snap

import (
	"sort"
	"sync"

	"github.com/dshills/geoedit/internal/feature"
	"github.com/dshills/geoedit/internal/geom"
	"github.com/dshills/geoedit/internal/spatial"
	"github.com/dshills/geoedit/internal/view"
)

// ExcludeAll marks a Request as excluding every vertex and edge of the
// excluded feature (translate drags).
const ExcludeAll = -1

// bruteEdgeFactor mirrors the spatial index's loose edge pre-filter for
// the brute-force path.
const bruteEdgeFactor = 1.75

// Request describes one snap query.
type Request struct {
	// Raw is the unsnapped world candidate at the cursor.
	Raw geom.World

	// Cursor is the pointer position in pixels.
	Cursor geom.Screen

	// ExcludeFeature names the feature being edited; its candidates are
	// filtered per ExcludeVertex. Empty means no exclusion.
	ExcludeFeature string

	// ExcludeVertex is the vertex index being dragged. ExcludeAll (-1)
	// excludes the whole feature; otherwise only that vertex and the
	// edges it moves with are excluded, so other vertices and edges of
	// the same feature remain valid snap targets.
	ExcludeVertex int
}

// Engine resolves snap queries against a feature store, an optional
// spatial index, and a projection.
type Engine struct {
	store *feature.Store
	view  view.View
	index *spatial.Index

	mu   sync.RWMutex
	opts Options
}

// NewEngine creates an engine over the given store and view. Without an
// index it falls back to scanning the store.
func NewEngine(store *feature.Store, v view.View, opts Options) *Engine {
	return &Engine{
		store: store,
		view:  v,
		opts:  opts.normalized(),
	}
}

// SetIndex attaches a spatial index for nearby-geometry queries.
func (e *Engine) SetIndex(idx *spatial.Index) {
	e.index = idx
}

// SetOptions replaces the configuration. Safe to call between queries
// from another goroutine (e.g. a config reload).
func (e *Engine) SetOptions(opts Options) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts.normalized()
}

// Options returns the current configuration.
func (e *Engine) Options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts
}

// Resolve returns the single best snap candidate for the request, or
// ok=false when nothing is within threshold. It never fails; projection
// misses simply drop the affected candidates.
func (e *Engine) Resolve(req Request) (Candidate, bool) {
	opts := e.Options()
	var candidates []Candidate

	if opts.GeometrySource && (opts.EnableVertex || opts.EnableMidpoint || opts.EnableEdge) {
		radius := opts.ThresholdPx * e.view.MetersPerPixel(req.Raw)
		vertices, edges := e.nearby(req.Raw, radius)

		if opts.EnableVertex {
			for _, v := range vertices {
				if excludesVertex(req, v.FeatureID, v.Index) {
					continue
				}
				s, ok := e.view.WorldToScreen(v.Position)
				if !ok {
					continue
				}
				d := s.Distance(req.Cursor)
				if d <= opts.ThresholdPx {
					candidates = append(candidates, Candidate{
						Type:        TypeVertex,
						Position:    v.Position,
						DistancePx:  d,
						Priority:    opts.Priority[TypeVertex],
						FeatureID:   v.FeatureID,
						VertexIndex: v.Index,
					})
				}
			}
		}

		if opts.EnableMidpoint || opts.EnableEdge {
			for _, ed := range edges {
				if excludesEdge(req, ed) {
					continue
				}
				if opts.EnableMidpoint {
					if c, ok := e.midpointCandidate(req, ed, opts); ok {
						candidates = append(candidates, c)
					}
				}
				if opts.EnableEdge {
					if c, ok := e.edgeCandidate(req, ed, opts); ok {
						candidates = append(candidates, c)
					}
				}
			}
		}
	}

	if opts.GridSource && opts.EnableGrid {
		if c, ok := e.gridCandidate(req, opts); ok {
			candidates = append(candidates, c)
		}
	}

	return resolveBest(candidates)
}

// midpointCandidate screen-tests the edge midpoint.
func (e *Engine) midpointCandidate(req Request, ed spatial.IndexedEdge, opts Options) (Candidate, bool) {
	mid := geom.Midpoint(ed.A, ed.B)
	s, ok := e.view.WorldToScreen(mid)
	if !ok {
		return Candidate{}, false
	}
	d := s.Distance(req.Cursor)
	if d > opts.ThresholdPx {
		return Candidate{}, false
	}
	return Candidate{
		Type:        TypeMidpoint,
		Position:    mid,
		DistancePx:  d,
		Priority:    opts.Priority[TypeMidpoint],
		FeatureID:   ed.FeatureID,
		VertexIndex: ed.Start,
	}, true
}

// edgeCandidate tests the cursor against the screen-projected segment;
// the snap position is the 3D closest point on the world segment, not a
// screen-space approximation.
func (e *Engine) edgeCandidate(req Request, ed spatial.IndexedEdge, opts Options) (Candidate, bool) {
	sa, okA := e.view.WorldToScreen(ed.A)
	sb, okB := e.view.WorldToScreen(ed.B)
	if !okA || !okB {
		return Candidate{}, false
	}
	d := geom.DistanceToSegment2D(req.Cursor, sa, sb)
	if d > opts.ThresholdPx {
		return Candidate{}, false
	}
	return Candidate{
		Type:        TypeEdge,
		Position:    geom.ClosestPointOnSegment3D(req.Raw, ed.A, ed.B),
		DistancePx:  d,
		Priority:    opts.Priority[TypeEdge],
		FeatureID:   ed.FeatureID,
		VertexIndex: ed.Start,
	}, true
}

// gridCandidate snaps the raw position to the coordinate grid and
// screen-tests the result.
func (e *Engine) gridCandidate(req Request, opts Options) (Candidate, bool) {
	gp := geom.SnapToGrid(req.Raw, opts.GridCellMeters)
	s, ok := e.view.WorldToScreen(gp)
	if !ok {
		return Candidate{}, false
	}
	d := s.Distance(req.Cursor)
	if d > opts.ThresholdPx {
		return Candidate{}, false
	}
	return Candidate{
		Type:        TypeGrid,
		Position:    gp,
		DistancePx:  d,
		Priority:    opts.Priority[TypeGrid],
		VertexIndex: -1,
	}, true
}

// nearby returns candidate geometry within radius of p, from the index
// when attached, otherwise by scanning the store.
func (e *Engine) nearby(p geom.World, radius float64) ([]spatial.IndexedVertex, []spatial.IndexedEdge) {
	if e.index != nil {
		return e.index.Query(p, radius)
	}

	var vertices []spatial.IndexedVertex
	var edges []spatial.IndexedEdge
	edgeCutoff := radius * bruteEdgeFactor
	for _, f := range e.store.All() {
		for i, pos := range f.Points {
			if pos.Distance(p) <= radius {
				vertices = append(vertices, spatial.IndexedVertex{FeatureID: f.ID, Index: i, Position: pos})
			}
		}
		for i := 0; i < f.EdgeCount(); i++ {
			a, b := f.Edge(i)
			if a.Distance(p) <= edgeCutoff || b.Distance(p) <= edgeCutoff ||
				geom.Midpoint(a, b).Distance(p) <= edgeCutoff {
				edges = append(edges, spatial.IndexedEdge{
					FeatureID: f.ID,
					Start:     i,
					End:       f.EdgeEndIndex(i),
					A:         a,
					B:         b,
				})
			}
		}
	}
	return vertices, edges
}

// excludesVertex applies the exclusion rule to a vertex candidate.
func excludesVertex(req Request, id string, index int) bool {
	if req.ExcludeFeature == "" || req.ExcludeFeature != id {
		return false
	}
	return req.ExcludeVertex == ExcludeAll || req.ExcludeVertex == index
}

// excludesEdge applies the exclusion rule to an edge candidate. A vertex
// drag excludes the two edges that move with the dragged vertex.
func excludesEdge(req Request, ed spatial.IndexedEdge) bool {
	if req.ExcludeFeature == "" || req.ExcludeFeature != ed.FeatureID {
		return false
	}
	if req.ExcludeVertex == ExcludeAll {
		return true
	}
	return ed.Start == req.ExcludeVertex || ed.End == req.ExcludeVertex
}

// resolveBest picks the winner: ascending pixel distance, with priority
// deciding among candidates within the sub-pixel tie window of the
// closest.
func resolveBest(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DistancePx < candidates[j].DistancePx
	})

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.DistancePx-candidates[0].DistancePx >= tieTolerancePx {
			break
		}
		if c.Priority > best.Priority {
			best = c
		}
	}
	return best, true
}
