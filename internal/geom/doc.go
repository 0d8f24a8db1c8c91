// Package geom provides the world-space and screen-space math used by the
// edit engine: vector types, segment distance and projection, and geodetic
// grid snapping.
//
// World positions are earth-centered, earth-fixed coordinates in meters.
// Screen positions are pixels. All functions are pure; degenerate inputs
// (zero-length segments, zero vectors) degrade to a sensible point rather
// than failing.
package geom
