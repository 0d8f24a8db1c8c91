// Package view defines the projection contract the edit engine consumes
// and a flat equirectangular reference implementation.
package view

import "github.com/dshills/geoedit/internal/geom"

// View converts between world and screen coordinates. Implementations
// report ok=false when a position cannot be projected (for example a
// point behind the camera); callers treat that as "unavailable," never as
// an error.
type View interface {
	// WorldToScreen projects a world position to pixels.
	WorldToScreen(p geom.World) (geom.Screen, bool)

	// ScreenToWorld casts a pixel position back onto the world surface.
	ScreenToWorld(s geom.Screen) (geom.World, bool)

	// MetersPerPixel returns the world length covered by one pixel at
	// the given position.
	MetersPerPixel(p geom.World) float64
}
