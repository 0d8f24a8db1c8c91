package view

import (
	"github.com/dshills/geoedit/internal/geom"
)

// Flat is an equirectangular projection: longitude and latitude map
// linearly to pixels around a center point. It serves tests and the
// terminal demo; production viewers plug in their own View.
type Flat struct {
	// CenterLat and CenterLng are the geodetic center of the viewport,
	// in degrees.
	CenterLat float64
	CenterLng float64

	// PixelsPerDegree is the zoom: how many pixels one degree spans.
	PixelsPerDegree float64

	// Width and Height are the viewport size in pixels.
	Width  float64
	Height float64
}

// NewFlat creates a flat projection centered on lat/lng degrees.
func NewFlat(centerLat, centerLng, pixelsPerDegree, width, height float64) *Flat {
	if pixelsPerDegree <= 0 {
		pixelsPerDegree = 1
	}
	return &Flat{
		CenterLat:       centerLat,
		CenterLng:       centerLng,
		PixelsPerDegree: pixelsPerDegree,
		Width:           width,
		Height:          height,
	}
}

// WorldToScreen projects a world position. Only non-finite or
// zero-radius positions are unavailable; points outside the viewport
// still project (snapping near the viewport edge needs them).
func (f *Flat) WorldToScreen(p geom.World) (geom.Screen, bool) {
	if !p.IsFinite() {
		return geom.Screen{}, false
	}
	ll, radius := p.LatLng()
	if radius == 0 {
		return geom.Screen{}, false
	}
	return geom.Screen{
		X: (ll.Lng.Degrees()-f.CenterLng)*f.PixelsPerDegree + f.Width/2,
		Y: (f.CenterLat-ll.Lat.Degrees())*f.PixelsPerDegree + f.Height/2,
	}, true
}

// ScreenToWorld casts a pixel position onto the mean earth sphere.
// Positions mapping beyond the poles are unavailable.
func (f *Flat) ScreenToWorld(s geom.Screen) (geom.World, bool) {
	lat := f.CenterLat - (s.Y-f.Height/2)/f.PixelsPerDegree
	lng := f.CenterLng + (s.X-f.Width/2)/f.PixelsPerDegree
	if lat < -90 || lat > 90 {
		return geom.World{}, false
	}
	return geom.FromLatLngDegrees(lat, lng), true
}

// MetersPerPixel returns the latitude scale of the projection. The
// longitude scale shrinks toward the poles; using the latitude scale
// keeps snap radii conservative (never under-covering).
func (f *Flat) MetersPerPixel(geom.World) float64 {
	return geom.MetersPerDegree / f.PixelsPerDegree
}
