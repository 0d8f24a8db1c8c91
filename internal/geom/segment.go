package geom

// DistanceToSegment2D returns the screen-space distance from p to the
// segment a-b, clamped to the endpoints when the perpendicular projection
// falls outside the segment. A zero-length segment yields the distance
// to a.
func DistanceToSegment2D(p, a, b Screen) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	len2 := dx*dx + dy*dy
	if len2 == 0 {
		return p.Distance(a)
	}

	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / len2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return p.Distance(Screen{X: a.X + t*dx, Y: a.Y + t*dy})
}

// ClosestPointOnSegment3D returns the point on the world-space segment a-b
// closest to p, clamped to the endpoints. A zero-length segment yields a.
func ClosestPointOnSegment3D(p, a, b World) World {
	ab := b.Sub(a)
	len2 := ab.Dot(ab)
	if len2 == 0 {
		return a
	}

	t := p.Sub(a).Dot(ab) / len2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return a.Add(ab.Scale(t))
}

// SegmentsIntersect2D reports whether the segments a1-a2 and b1-b2 cross,
// including the collinear-overlap case. Segments that merely share an
// endpoint are considered intersecting; callers that allow shared
// endpoints (e.g. adjacent polygon edges) must skip those pairs.
func SegmentsIntersect2D(a1, a2, b1, b2 Screen) bool {
	d1 := orient2D(b1, b2, a1)
	d2 := orient2D(b1, b2, a2)
	d3 := orient2D(a1, a2, b1)
	d4 := orient2D(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	if d1 == 0 && onSegment2D(b1, b2, a1) {
		return true
	}
	if d2 == 0 && onSegment2D(b1, b2, a2) {
		return true
	}
	if d3 == 0 && onSegment2D(a1, a2, b1) {
		return true
	}
	if d4 == 0 && onSegment2D(a1, a2, b2) {
		return true
	}

	return false
}

// orient2D returns the signed area of the triangle a,b,c. Positive means
// c lies to the left of a-b.
func orient2D(a, b, c Screen) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment2D reports whether p, already known to be collinear with a-b,
// lies within the segment's bounding box.
func onSegment2D(a, b, p Screen) bool {
	return min2(a.X, b.X) <= p.X && p.X <= max2(a.X, b.X) &&
		min2(a.Y, b.Y) <= p.Y && p.Y <= max2(a.Y, b.Y)
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
