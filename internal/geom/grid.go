package geom

import (
	"math"

	"github.com/golang/geo/s2"
)

// MetersPerDegree is the length of one degree of latitude on the mean
// earth sphere.
const MetersPerDegree = EarthRadiusMeters * math.Pi / 180

// minGridCosLat bounds the longitude scale near the poles, where the
// meters-per-degree of longitude collapses to zero.
const minGridCosLat = 0.01

// SnapToGrid rounds p to the nearest intersection of a geodetic grid with
// cells approximately cellMeters on a side. The longitude step is scaled
// by the cosine of the point's latitude, so cells are only approximately
// square in physical units. The point's distance from the earth center is
// preserved. Non-positive cell sizes return p unchanged.
func SnapToGrid(p World, cellMeters float64) World {
	if cellMeters <= 0 || !p.IsFinite() {
		return p
	}

	ll, radius := p.LatLng()
	if radius == 0 {
		return p
	}

	latStep := cellMeters / MetersPerDegree
	lat := math.Round(ll.Lat.Degrees()/latStep) * latStep

	// The longitude scale comes from the snapped latitude so repeated
	// snaps land on the same grid row and column.
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < minGridCosLat {
		cosLat = minGridCosLat
	}
	lngStep := cellMeters / (MetersPerDegree * cosLat)
	lng := math.Round(ll.Lng.Degrees()/lngStep) * lngStep

	return FromLatLng(s2.LatLngFromDegrees(lat, lng), radius)
}
