package snap

// Threshold clamp bounds, in pixels.
const (
	MinThresholdPx = 1.0
	MaxThresholdPx = 64.0
)

// DefaultGridCellMeters is the grid spacing used when none is configured.
const DefaultGridCellMeters = 1000.0

// tieTolerancePx is the sub-pixel window within which candidate distances
// are considered equal and priority decides instead.
const tieTolerancePx = 0.75

// Options configures the snapping engine. Options are hot-swappable via
// Engine.SetOptions.
type Options struct {
	// ThresholdPx is the screen-space snap radius, clamped to
	// [MinThresholdPx, MaxThresholdPx].
	ThresholdPx float64

	// Per-type toggles.
	EnableVertex   bool
	EnableMidpoint bool
	EnableEdge     bool
	EnableGrid     bool

	// Source toggles: existing geometry and the coordinate grid.
	GeometrySource bool
	GridSource     bool

	// Priority weights per type; higher wins distance ties. Missing
	// entries take the defaults.
	Priority map[CandidateType]int

	// GridCellMeters is the grid spacing for grid candidates.
	GridCellMeters float64
}

// DefaultOptions returns the stock configuration: vertex, midpoint, and
// edge snapping against existing geometry; grid snapping off.
func DefaultOptions() Options {
	return Options{
		ThresholdPx:    12,
		EnableVertex:   true,
		EnableMidpoint: true,
		EnableEdge:     true,
		EnableGrid:     false,
		GeometrySource: true,
		GridSource:     false,
		Priority:       defaultPriority(),
		GridCellMeters: DefaultGridCellMeters,
	}
}

func defaultPriority() map[CandidateType]int {
	return map[CandidateType]int{
		TypeVertex:   4,
		TypeMidpoint: 3,
		TypeEdge:     2,
		TypeGrid:     1,
	}
}

// normalized returns a copy of o with the threshold clamped, missing
// priorities filled in, and the grid spacing defaulted.
func (o Options) normalized() Options {
	if o.ThresholdPx < MinThresholdPx {
		o.ThresholdPx = MinThresholdPx
	} else if o.ThresholdPx > MaxThresholdPx {
		o.ThresholdPx = MaxThresholdPx
	}

	prio := defaultPriority()
	for t, p := range o.Priority {
		prio[t] = p
	}
	o.Priority = prio

	if o.GridCellMeters <= 0 {
		o.GridCellMeters = DefaultGridCellMeters
	}
	return o
}
