// Package feature defines the editable geometry model and the authoritative
// in-memory store.
//
// A Feature is a point, polyline, or polygon identified by a string id.
// The Store owns committed geometry and notifies subscribers synchronously
// on every change, so downstream structures (such as the spatial index)
// are consistent before the mutating call returns.
package feature
