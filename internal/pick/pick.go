// Package pick resolves a screen cursor to the feature geometry under it.
//
// Picking is a host concern: the engine never decides what the pointer is
// over, it is told. Picker is the reference implementation backed by the
// feature store and a view projection.
package pick

import (
	"github.com/dshills/geoedit/internal/feature"
	"github.com/dshills/geoedit/internal/geom"
	"github.com/dshills/geoedit/internal/view"
)

// HitKind identifies what the cursor resolved to.
type HitKind int

// Hit kinds, in increasing specificity.
const (
	// HitNone means nothing pickable is under the cursor.
	HitNone HitKind = iota

	// HitBody means the cursor is over a feature's edge or point body.
	HitBody

	// HitHandle means the cursor is over a specific vertex handle.
	HitHandle
)

// String returns the hit kind name.
func (k HitKind) String() string {
	switch k {
	case HitNone:
		return "none"
	case HitBody:
		return "body"
	case HitHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// Hit is a tagged pick result. Vertex is meaningful only for HitHandle.
type Hit struct {
	Kind      HitKind
	FeatureID string
	Vertex    int
}

// Default pick radii in pixels.
const (
	DefaultHandleRadiusPx = 8.0
	DefaultBodyRadiusPx   = 6.0
)

// Picker resolves cursor positions against the store through a view.
type Picker struct {
	store *feature.Store
	view  view.View

	handlePx float64
	bodyPx   float64
}

// NewPicker creates a picker with the default pick radii.
func NewPicker(store *feature.Store, v view.View) *Picker {
	return &Picker{
		store:    store,
		view:     v,
		handlePx: DefaultHandleRadiusPx,
		bodyPx:   DefaultBodyRadiusPx,
	}
}

// SetRadii overrides the handle and body pick radii. Non-positive values
// keep the current setting.
func (p *Picker) SetRadii(handlePx, bodyPx float64) {
	if handlePx > 0 {
		p.handlePx = handlePx
	}
	if bodyPx > 0 {
		p.bodyPx = bodyPx
	}
}

// Pick resolves the cursor to a hit. The selected feature's vertex handles
// win over everything, then the selected feature's body, then the bodies of
// the remaining features in id order. Handles are only pickable on the
// selected feature.
func (p *Picker) Pick(cursor geom.Screen, selected string) Hit {
	if sel, ok := p.store.Get(selected); ok {
		if idx, hit := p.closestHandle(sel, cursor); hit {
			return Hit{Kind: HitHandle, FeatureID: sel.ID, Vertex: idx}
		}
		if p.bodyHit(sel, cursor) {
			return Hit{Kind: HitBody, FeatureID: sel.ID}
		}
	}

	for _, f := range p.store.All() {
		if f.ID == selected {
			continue
		}
		if p.bodyHit(f, cursor) {
			return Hit{Kind: HitBody, FeatureID: f.ID}
		}
	}
	return Hit{Kind: HitNone}
}

// closestHandle returns the nearest projectable vertex within the handle
// radius.
func (p *Picker) closestHandle(f *feature.Feature, cursor geom.Screen) (int, bool) {
	best := -1
	bestDist := p.handlePx
	for i, pt := range f.Points {
		s, ok := p.view.WorldToScreen(pt)
		if !ok {
			continue
		}
		if d := cursor.Distance(s); d <= bestDist {
			bestDist = d
			best = i
		}
	}
	return best, best >= 0
}

// bodyHit reports whether the cursor is within the body radius of the
// feature. Points have no edges; their body is the vertex itself.
func (p *Picker) bodyHit(f *feature.Feature, cursor geom.Screen) bool {
	if f.Kind == feature.KindPoint {
		if len(f.Points) == 0 {
			return false
		}
		s, ok := p.view.WorldToScreen(f.Points[0])
		return ok && cursor.Distance(s) <= p.bodyPx
	}

	for e := 0; e < f.EdgeCount(); e++ {
		a, b := f.Edge(e)
		sa, okA := p.view.WorldToScreen(a)
		sb, okB := p.view.WorldToScreen(b)
		if !okA || !okB {
			continue
		}
		if geom.DistanceToSegment2D(cursor, sa, sb) <= p.bodyPx {
			return true
		}
	}
	return false
}
