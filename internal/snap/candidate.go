package snap

import "github.com/dshills/geoedit/internal/geom"

// CandidateType identifies the source of a snap candidate.
type CandidateType int

// Candidate types, in default priority order (highest first).
const (
	TypeVertex CandidateType = iota
	TypeMidpoint
	TypeEdge
	TypeGrid
)

// String returns the candidate type name.
func (t CandidateType) String() string {
	switch t {
	case TypeVertex:
		return "vertex"
	case TypeMidpoint:
		return "midpoint"
	case TypeEdge:
		return "edge"
	case TypeGrid:
		return "grid"
	default:
		return "unknown"
	}
}

// Candidate is one possible replacement for the cursor's raw position.
// Candidates are ephemeral: recomputed on every query, never stored.
type Candidate struct {
	Type       CandidateType
	Position   geom.World
	DistancePx float64
	Priority   int

	// FeatureID and VertexIndex locate the source geometry. For edge and
	// midpoint candidates VertexIndex is the edge's start vertex; for
	// grid candidates FeatureID is empty and VertexIndex is -1.
	FeatureID   string
	VertexIndex int
}
