// Package spatial provides a uniform hash-grid index over committed
// feature geometry.
//
// The index buckets vertices and edges by the grid cell their
// representative point falls in (the vertex position, or the edge
// midpoint) and answers radius queries in better than linear time for the
// common case. It stays consistent with the feature store by subscribing
// to its change events; updates complete synchronously inside the
// triggering store call.
package spatial
