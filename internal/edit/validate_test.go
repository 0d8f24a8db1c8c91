package edit

import (
	"errors"
	"math"
	"testing"

	"github.com/dshills/geoedit/internal/feature"
	"github.com/dshills/geoedit/internal/geom"
)

func ll(lat, lng float64) geom.World {
	return geom.FromLatLngDegrees(lat, lng)
}

func TestValidatePoint(t *testing.T) {
	ok := &feature.Feature{ID: "p", Kind: feature.KindPoint, Points: []geom.World{ll(1, 2)}}
	if err := Validate(ok); err != nil {
		t.Errorf("valid point rejected: %v", err)
	}

	empty := &feature.Feature{ID: "p", Kind: feature.KindPoint}
	if err := Validate(empty); !errors.Is(err, ErrTooFewVertices) {
		t.Errorf("empty point = %v, want ErrTooFewVertices", err)
	}

	nan := &feature.Feature{ID: "p", Kind: feature.KindPoint, Points: []geom.World{{X: math.NaN()}}}
	if err := Validate(nan); !errors.Is(err, ErrNonFinite) {
		t.Errorf("NaN point = %v, want ErrNonFinite", err)
	}
}

func TestValidatePolyline(t *testing.T) {
	ok := &feature.Feature{ID: "l", Kind: feature.KindPolyline, Points: []geom.World{ll(0, 0), ll(0, 1), ll(1, 1)}}
	if err := Validate(ok); err != nil {
		t.Errorf("valid polyline rejected: %v", err)
	}

	short := &feature.Feature{ID: "l", Kind: feature.KindPolyline, Points: []geom.World{ll(0, 0)}}
	if err := Validate(short); !errors.Is(err, ErrTooFewVertices) {
		t.Errorf("short polyline = %v, want ErrTooFewVertices", err)
	}

	dup := &feature.Feature{ID: "l", Kind: feature.KindPolyline, Points: []geom.World{ll(0, 0), ll(0, 0), ll(1, 1)}}
	if err := Validate(dup); !errors.Is(err, ErrDuplicateVertex) {
		t.Errorf("duplicate polyline = %v, want ErrDuplicateVertex", err)
	}

	// Open line: first == last is legal for polylines.
	loop := &feature.Feature{ID: "l", Kind: feature.KindPolyline, Points: []geom.World{ll(0, 0), ll(0, 1), ll(0, 0)}}
	if err := Validate(loop); err != nil {
		t.Errorf("closed polyline rejected: %v", err)
	}
}

func TestValidatePolygon(t *testing.T) {
	square := &feature.Feature{ID: "g", Kind: feature.KindPolygon,
		Points: []geom.World{ll(0, 0), ll(0, 10), ll(10, 10), ll(10, 0)}}
	if err := Validate(square); err != nil {
		t.Errorf("valid polygon rejected: %v", err)
	}

	short := &feature.Feature{ID: "g", Kind: feature.KindPolygon, Points: []geom.World{ll(0, 0), ll(0, 1)}}
	if err := Validate(short); !errors.Is(err, ErrTooFewVertices) {
		t.Errorf("short polygon = %v, want ErrTooFewVertices", err)
	}

	// The implicit closing edge makes first == last a duplicate.
	ringDup := &feature.Feature{ID: "g", Kind: feature.KindPolygon,
		Points: []geom.World{ll(0, 0), ll(0, 10), ll(10, 10), ll(0, 0)}}
	if err := Validate(ringDup); !errors.Is(err, ErrDuplicateVertex) {
		t.Errorf("ring wrap duplicate = %v, want ErrDuplicateVertex", err)
	}

	bowtie := &feature.Feature{ID: "g", Kind: feature.KindPolygon,
		Points: []geom.World{ll(0, 0), ll(10, 10), ll(0, 10), ll(10, 0)}}
	if err := Validate(bowtie); !errors.Is(err, ErrSelfIntersection) {
		t.Errorf("bowtie = %v, want ErrSelfIntersection", err)
	}
}

func TestValidateZeroLengthEdgePolicy(t *testing.T) {
	// Two coincident consecutive vertices are rejected, never
	// auto-deduplicated.
	f := &feature.Feature{ID: "g", Kind: feature.KindPolygon,
		Points: []geom.World{ll(0, 0), ll(0, 10), ll(0, 10), ll(10, 10), ll(10, 0)}}
	if err := Validate(f); !errors.Is(err, ErrDuplicateVertex) {
		t.Errorf("zero-length edge = %v, want ErrDuplicateVertex", err)
	}
}
