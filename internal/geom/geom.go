package geom

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean earth radius used for spherical
// approximations.
const EarthRadiusMeters = 6371008.8

// Epsilon is the tolerance, in meters, below which two world coordinates
// are considered equal.
const Epsilon = 1e-6

// World is a position in earth-centered, earth-fixed meters.
type World r3.Vector

// Add returns w + o.
func (w World) Add(o World) World {
	return World(r3.Vector(w).Add(r3.Vector(o)))
}

// Sub returns w - o.
func (w World) Sub(o World) World {
	return World(r3.Vector(w).Sub(r3.Vector(o)))
}

// Scale returns w scaled by m.
func (w World) Scale(m float64) World {
	return World(r3.Vector(w).Mul(m))
}

// Dot returns the dot product of w and o.
func (w World) Dot(o World) float64 {
	return r3.Vector(w).Dot(r3.Vector(o))
}

// Norm returns the length of w.
func (w World) Norm() float64 {
	return r3.Vector(w).Norm()
}

// Distance returns the Euclidean distance between w and o.
func (w World) Distance(o World) float64 {
	return w.Sub(o).Norm()
}

// ApproxEqual reports whether w and o are within Epsilon of each other
// on every axis.
func (w World) ApproxEqual(o World) bool {
	return math.Abs(w.X-o.X) <= Epsilon &&
		math.Abs(w.Y-o.Y) <= Epsilon &&
		math.Abs(w.Z-o.Z) <= Epsilon
}

// IsFinite reports whether all coordinates of w are finite numbers.
func (w World) IsFinite() bool {
	return !math.IsNaN(w.X) && !math.IsInf(w.X, 0) &&
		!math.IsNaN(w.Y) && !math.IsInf(w.Y, 0) &&
		!math.IsNaN(w.Z) && !math.IsInf(w.Z, 0)
}

// LatLng returns the geodetic coordinates of w together with its distance
// from the earth center. A zero vector yields a zero LatLng and radius 0.
func (w World) LatLng() (s2.LatLng, float64) {
	v := r3.Vector(w)
	r := v.Norm()
	if r == 0 {
		return s2.LatLng{}, 0
	}
	return s2.LatLngFromPoint(s2.Point{Vector: v.Mul(1 / r)}), r
}

// FromLatLng converts geodetic coordinates at the given radius from the
// earth center into a world position.
func FromLatLng(ll s2.LatLng, radius float64) World {
	return World(s2.PointFromLatLng(ll).Mul(radius))
}

// FromLatLngDegrees converts latitude/longitude in degrees on the mean
// earth sphere into a world position.
func FromLatLngDegrees(lat, lng float64) World {
	return FromLatLng(s2.LatLngFromDegrees(lat, lng), EarthRadiusMeters)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b World) World {
	return a.Add(b).Scale(0.5)
}

// Screen is a position in pixels.
type Screen struct {
	X float64
	Y float64
}

// Sub returns s - o.
func (s Screen) Sub(o Screen) Screen {
	return Screen{X: s.X - o.X, Y: s.Y - o.Y}
}

// Distance returns the Euclidean distance between s and o.
func (s Screen) Distance(o Screen) float64 {
	return math.Hypot(s.X-o.X, s.Y-o.Y)
}
