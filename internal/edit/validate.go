package edit

import (
	"errors"
	"fmt"

	"github.com/dshills/geoedit/internal/feature"
	"github.com/dshills/geoedit/internal/geom"
)

// Validation errors. A commit that would violate a geometry invariant is
// rejected with one of these (possibly wrapped with detail).
var (
	ErrNonFinite        = errors.New("geometry has non-finite coordinates")
	ErrTooFewVertices   = errors.New("too few vertices")
	ErrDuplicateVertex  = errors.New("consecutive duplicate vertices")
	ErrSelfIntersection = errors.New("polygon edges self-intersect")
)

// Validate checks a feature against the commit invariants: finite
// coordinates for every kind; at least 2 distinct points for polylines;
// at least 3 points, no consecutive duplicates (including the implicit
// closing edge), and no self-intersection for polygons.
//
// Consecutive coincident vertices are rejected rather than deduplicated;
// a commit never produces a zero-length edge.
func Validate(f *feature.Feature) error {
	for _, p := range f.Points {
		if !p.IsFinite() {
			return ErrNonFinite
		}
	}

	switch f.Kind {
	case feature.KindPoint:
		if len(f.Points) != 1 {
			return fmt.Errorf("point requires exactly 1 vertex, has %d: %w", len(f.Points), ErrTooFewVertices)
		}
		return nil

	case feature.KindPolyline:
		if len(f.Points) < 2 {
			return fmt.Errorf("polyline requires at least 2 vertices, has %d: %w", len(f.Points), ErrTooFewVertices)
		}
		return checkDuplicates(f.Points, false)

	case feature.KindPolygon:
		if len(f.Points) < 3 {
			return fmt.Errorf("polygon requires at least 3 vertices, has %d: %w", len(f.Points), ErrTooFewVertices)
		}
		if err := checkDuplicates(f.Points, true); err != nil {
			return err
		}
		if selfIntersects(f.Points) {
			return ErrSelfIntersection
		}
		return nil

	default:
		return fmt.Errorf("unknown geometry kind %d", f.Kind)
	}
}

// checkDuplicates rejects consecutive epsilon-equal points. For rings the
// implicit closing edge (last back to first) is checked too.
func checkDuplicates(points []geom.World, ring bool) error {
	for i := 1; i < len(points); i++ {
		if points[i].ApproxEqual(points[i-1]) {
			return fmt.Errorf("vertices %d and %d coincide: %w", i-1, i, ErrDuplicateVertex)
		}
	}
	if ring && len(points) > 1 && points[0].ApproxEqual(points[len(points)-1]) {
		return fmt.Errorf("ring start and end coincide: %w", ErrDuplicateVertex)
	}
	return nil
}

// selfIntersects tests every non-adjacent edge pair of the ring in
// geodetic (lng, lat) space.
func selfIntersects(points []geom.World) bool {
	n := len(points)
	flat := make([]geom.Screen, n)
	for i, p := range points {
		ll, _ := p.LatLng()
		flat[i] = geom.Screen{X: ll.Lng.Degrees(), Y: ll.Lat.Degrees()}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Adjacent edges share a vertex; skip them.
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if geom.SegmentsIntersect2D(flat[i], flat[(i+1)%n], flat[j], flat[(j+1)%n]) {
				return true
			}
		}
	}
	return false
}
