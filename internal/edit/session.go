package edit

import (
	"errors"
	"fmt"

	"github.com/dshills/geoedit/internal/feature"
	"github.com/dshills/geoedit/internal/geom"
	"github.com/dshills/geoedit/internal/history"
	"github.com/dshills/geoedit/internal/rules"
	"github.com/dshills/geoedit/internal/snap"
	"github.com/dshills/geoedit/internal/view"
)

// Common errors for session operations.
var (
	ErrTransactionActive = errors.New("a transaction is already active")
	ErrNoTransaction     = errors.New("no active transaction")
	ErrUnknownFeature    = errors.New("unknown feature")
	ErrVertexOutOfRange  = errors.New("vertex index out of range")
	ErrNoEdgeNearby      = errors.New("no edge within threshold")
)

// State is the session's transaction state.
type State int

// Session states. No state exists outside these three.
const (
	StateIdle State = iota
	StateVertexDrag
	StateTranslateDrag
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateVertexDrag:
		return "vertexDrag"
	case StateTranslateDrag:
		return "translateDrag"
	default:
		return "unknown"
	}
}

// Guard is notified when a drag begins and ends, so the host can suspend
// camera/viewport interaction for the duration.
type Guard interface {
	Suspend()
	Resume()
}

// NoticeFunc receives human-readable rejection reasons. How or whether
// they are displayed is up to the host.
type NoticeFunc func(reason string)

// insertThresholdFactor loosens the pixel threshold for vertex insertion
// relative to the snap threshold.
const insertThresholdFactor = 1.5

// Session is the edit transaction manager. At most one transaction is
// open at a time; a second drag-begin while one is active is a guarded
// no-op. Not safe for concurrent use.
type Session struct {
	store   *feature.Store
	snapper *snap.Engine
	stack   *history.Stack
	view    view.View

	rules  *rules.Set
	guard  Guard
	notice NoticeFunc

	state       State
	ownerID     string
	vertexIndex int
	before      *feature.Feature
	preview     *feature.Feature
	anchor      geom.World
}

// NewSession creates an idle session over the given collaborators.
func NewSession(store *feature.Store, snapper *snap.Engine, stack *history.Stack, v view.View) *Session {
	return &Session{
		store:       store,
		snapper:     snapper,
		stack:       stack,
		view:        v,
		vertexIndex: snap.ExcludeAll,
	}
}

// SetGuard installs the camera-suspend collaborator.
func (s *Session) SetGuard(g Guard) {
	s.guard = g
}

// SetNotice installs the rejection-reason sink.
func (s *Session) SetNotice(fn NoticeFunc) {
	s.notice = fn
}

// SetRules installs scripted validation run after the built-in checks.
func (s *Session) SetRules(r *rules.Set) {
	s.rules = r
}

// State returns the current transaction state.
func (s *Session) State() State {
	return s.state
}

// Active reports whether a transaction is open.
func (s *Session) Active() bool {
	return s.state != StateIdle
}

// Owner returns the id and dragged vertex index of the open transaction.
// The index is snap.ExcludeAll for translate drags.
func (s *Session) Owner() (string, int) {
	return s.ownerID, s.vertexIndex
}

// BeginVertexDrag opens a vertex-drag transaction for feature id at the
// given vertex. The feature's current geometry is snapshotted; nothing is
// mutated yet.
func (s *Session) BeginVertexDrag(id string, index int) error {
	if s.state != StateIdle {
		return ErrTransactionActive
	}
	f, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, id)
	}
	if index < 0 || index >= len(f.Points) {
		return fmt.Errorf("%w: %d of %d", ErrVertexOutOfRange, index, len(f.Points))
	}

	s.before = f.Clone()
	s.preview = f.Clone()
	s.ownerID = id
	s.vertexIndex = index
	s.enter(StateVertexDrag)
	return nil
}

// BeginTranslate opens a translate-drag transaction for feature id with
// the given anchor world position.
func (s *Session) BeginTranslate(id string, anchor geom.World) error {
	if s.state != StateIdle {
		return ErrTransactionActive
	}
	f, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, id)
	}

	s.before = f.Clone()
	s.preview = f.Clone()
	s.ownerID = id
	s.vertexIndex = snap.ExcludeAll
	s.anchor = anchor
	s.enter(StateTranslateDrag)
	return nil
}

// Update applies one pointer-move to the open transaction: the raw world
// candidate is snapped (excluding the dragged geometry) and the result is
// written into the store as a live preview. It returns the world position
// actually applied.
func (s *Session) Update(raw geom.World, cursor geom.Screen) (geom.World, error) {
	if s.state == StateIdle {
		return geom.World{}, ErrNoTransaction
	}

	applied := raw
	if s.snapper != nil {
		req := snap.Request{
			Raw:            raw,
			Cursor:         cursor,
			ExcludeFeature: s.ownerID,
			ExcludeVertex:  s.vertexIndex,
		}
		if c, ok := s.snapper.Resolve(req); ok {
			applied = c.Position
		}
	}

	switch s.state {
	case StateVertexDrag:
		s.preview.Points[s.vertexIndex] = applied
	case StateTranslateDrag:
		delta := applied.Sub(s.anchor)
		for i, p := range s.before.Points {
			s.preview.Points[i] = p.Add(delta)
		}
	}

	if err := s.store.UpsertSilent(s.preview); err != nil {
		return geom.World{}, err
	}
	return applied, nil
}

// Commit closes the open transaction: the last preview geometry becomes
// the after state. On validation failure the store is rolled back to the
// before snapshot, the notice sink is informed, and no command is pushed.
// On success exactly one command capturing (before, after) is pushed onto
// the undo stack. Commit with no open transaction is a defensive no-op.
func (s *Session) Commit() error {
	if s.state == StateIdle {
		return ErrNoTransaction
	}

	after := s.preview.Clone()
	desc := "move vertex"
	if s.state == StateTranslateDrag {
		desc = "translate feature"
	}
	before := s.before

	if err := s.validate(after); err != nil {
		s.rollback()
		s.leave()
		s.notify(err)
		return err
	}

	s.leave()
	if err := s.stack.Push(newEditCommand(before, after, desc)); err != nil {
		return err
	}
	return nil
}

// Cancel abandons the open transaction and restores the before snapshot.
// Cancelling while idle is a no-op.
func (s *Session) Cancel() error {
	if s.state == StateIdle {
		return nil
	}
	s.rollback()
	s.leave()
	return nil
}

// InsertVertex inserts a new vertex on the feature edge closest to the
// cursor, within a loosened pixel threshold. A one-shot transaction: one
// command on success, a reported rejection and no change otherwise.
func (s *Session) InsertVertex(id string, raw geom.World, cursor geom.Screen) error {
	if s.state != StateIdle {
		return ErrTransactionActive
	}
	f, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, id)
	}

	threshold := snap.DefaultOptions().ThresholdPx
	if s.snapper != nil {
		threshold = s.snapper.Options().ThresholdPx
	}
	threshold *= insertThresholdFactor

	bestEdge := -1
	bestDist := threshold
	for e := 0; e < f.EdgeCount(); e++ {
		a, b := f.Edge(e)
		sa, okA := s.view.WorldToScreen(a)
		sb, okB := s.view.WorldToScreen(b)
		if !okA || !okB {
			continue
		}
		if d := geom.DistanceToSegment2D(cursor, sa, sb); d <= bestDist {
			bestDist = d
			bestEdge = e
		}
	}
	if bestEdge < 0 {
		err := ErrNoEdgeNearby
		s.notify(err)
		return err
	}

	a, b := f.Edge(bestEdge)
	pos := geom.ClosestPointOnSegment3D(raw, a, b)

	after := f.Clone()
	at := bestEdge + 1
	after.Points = append(after.Points, geom.World{})
	copy(after.Points[at+1:], after.Points[at:])
	after.Points[at] = pos

	if err := s.validate(after); err != nil {
		s.notify(err)
		return err
	}
	return s.stack.Push(newEditCommand(f, after, "insert vertex"))
}

// DeleteVertex removes a vertex, enforcing the minimum vertex count for
// the feature kind. A one-shot transaction like InsertVertex.
func (s *Session) DeleteVertex(id string, index int) error {
	if s.state != StateIdle {
		return ErrTransactionActive
	}
	f, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, id)
	}
	if index < 0 || index >= len(f.Points) {
		return fmt.Errorf("%w: %d of %d", ErrVertexOutOfRange, index, len(f.Points))
	}

	after := f.Clone()
	after.Points = append(after.Points[:index], after.Points[index+1:]...)

	if err := s.validate(after); err != nil {
		s.notify(err)
		return err
	}
	return s.stack.Push(newEditCommand(f, after, "delete vertex"))
}

// validate runs the built-in invariants, then any scripted rules.
func (s *Session) validate(f *feature.Feature) error {
	if err := Validate(f); err != nil {
		return err
	}
	if s.rules != nil {
		return s.rules.Validate(f)
	}
	return nil
}

// rollback restores the before snapshot as a preview write; the committed
// state never changed, so derived indexes are already consistent.
func (s *Session) rollback() {
	if s.before != nil {
		_ = s.store.UpsertSilent(s.before)
	}
}

// enter transitions into a drag state and suspends the camera guard.
func (s *Session) enter(st State) {
	s.state = st
	if s.guard != nil {
		s.guard.Suspend()
	}
}

// leave returns to idle, releasing the transaction and the camera guard.
func (s *Session) leave() {
	if s.guard != nil {
		s.guard.Resume()
	}
	s.state = StateIdle
	s.ownerID = ""
	s.vertexIndex = snap.ExcludeAll
	s.before = nil
	s.preview = nil
	s.anchor = geom.World{}
}

// notify reports a rejection reason to the notice sink, if any.
func (s *Session) notify(err error) {
	if s.notice != nil && err != nil {
		s.notice(err.Error())
	}
}
