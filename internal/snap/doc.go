// Package snap resolves a raw cursor position into at most one snapped
// world position.
//
// The engine collects candidates from nearby committed geometry
// (vertices, edge midpoints, edges) and from an optional coordinate grid,
// screen-tests each against a pixel threshold, and picks the winner by
// ascending pixel distance with a priority tie-break for near-equal
// distances. A query that finds nothing is not an error; the caller falls
// back to the raw position.
package snap
