package edit

import (
	"errors"
	"strings"
	"testing"

	"github.com/dshills/geoedit/internal/feature"
	"github.com/dshills/geoedit/internal/geom"
	"github.com/dshills/geoedit/internal/history"
	"github.com/dshills/geoedit/internal/rules"
	"github.com/dshills/geoedit/internal/snap"
	"github.com/dshills/geoedit/internal/view"
)

// testView maps screen X to longitude degrees and screen Y to negative
// latitude degrees.
func testView() view.View {
	return view.NewFlat(0, 0, 1, 0, 0)
}

// specSquare is a 10x10 degree polygon: vertex 0 at (lat 0, lng 0),
// vertex 1 at (lat 0, lng 10), vertex 2 at (lat 10, lng 10), vertex 3 at
// (lat 10, lng 0).
func specSquare(id string) *feature.Feature {
	return &feature.Feature{
		ID:     id,
		Kind:   feature.KindPolygon,
		Points: []geom.World{ll(0, 0), ll(0, 10), ll(10, 10), ll(10, 0)},
	}
}

type fixture struct {
	store   *feature.Store
	stack   *history.Stack
	session *Session
	notices []string
}

func newFixture(t *testing.T, features ...*feature.Feature) *fixture {
	t.Helper()
	fx := &fixture{store: feature.NewStore()}
	for _, f := range features {
		if err := fx.store.Upsert(f); err != nil {
			t.Fatal(err)
		}
	}
	v := testView()
	snapper := snap.NewEngine(fx.store, v, snap.DefaultOptions())
	fx.stack = history.NewStack(fx.store, 0)
	fx.session = NewSession(fx.store, snapper, fx.stack, v)
	fx.session.SetNotice(func(reason string) { fx.notices = append(fx.notices, reason) })
	return fx
}

// pointerAt returns the raw world position and cursor pixels for a
// lat/lng target.
func pointerAt(t *testing.T, lat, lng float64) (geom.World, geom.Screen) {
	t.Helper()
	v := testView()
	cursor, _ := v.WorldToScreen(geom.FromLatLngDegrees(lat, lng))
	raw, ok := v.ScreenToWorld(cursor)
	if !ok {
		t.Fatalf("pointer %g/%g did not cast", lat, lng)
	}
	return raw, cursor
}

func samePoints(a, b *feature.Feature) bool {
	if len(a.Points) != len(b.Points) {
		return false
	}
	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			return false
		}
	}
	return true
}

func TestDragSnapsToSiblingVertexAndCommitRejectsDuplicate(t *testing.T) {
	sq := specSquare("sq")
	fx := newFixture(t, sq)

	if err := fx.session.BeginVertexDrag("sq", 0); err != nil {
		t.Fatal(err)
	}

	// Drag vertex 0 toward vertex 1 at (0,10), inside the 12px threshold.
	raw, cursor := pointerAt(t, 0, 9.5)
	applied, err := fx.session.Update(raw, cursor)
	if err != nil {
		t.Fatal(err)
	}
	if !applied.ApproxEqual(ll(0, 10)) {
		t.Fatalf("drag did not snap to sibling vertex: %+v", applied)
	}

	// The live preview is observable in the store.
	live, _ := fx.store.Get("sq")
	if !live.Points[0].ApproxEqual(ll(0, 10)) {
		t.Error("preview not written to store")
	}

	// Committing a zero-length edge violates the duplicate-vertex rule:
	// rollback, notice, no command.
	err = fx.session.Commit()
	if !errors.Is(err, ErrDuplicateVertex) {
		t.Fatalf("Commit() = %v, want ErrDuplicateVertex", err)
	}
	restored, _ := fx.store.Get("sq")
	if !samePoints(restored, sq) {
		t.Error("store not rolled back to pre-drag snapshot")
	}
	if fx.stack.UndoCount() != 0 {
		t.Error("rejected commit must not push a command")
	}
	if len(fx.notices) != 1 || !strings.Contains(fx.notices[0], "coincide") {
		t.Errorf("notice = %v", fx.notices)
	}
	if fx.session.State() != StateIdle {
		t.Errorf("state = %v, want idle", fx.session.State())
	}
}

func TestVertexDragCommitUndoRedo(t *testing.T) {
	sq := specSquare("sq")
	fx := newFixture(t, sq)

	if err := fx.session.BeginVertexDrag("sq", 0); err != nil {
		t.Fatal(err)
	}
	raw, cursor := pointerAt(t, -3, -3) // free space, nothing to snap to
	applied, err := fx.session.Update(raw, cursor)
	if err != nil {
		t.Fatal(err)
	}
	if !applied.ApproxEqual(raw) {
		t.Fatalf("no snap expected, applied = %+v", applied)
	}

	if err := fx.session.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if fx.stack.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", fx.stack.UndoCount())
	}

	after, _ := fx.store.Get("sq")
	if !after.Points[0].ApproxEqual(raw) {
		t.Error("committed geometry missing the drag")
	}

	if err := fx.stack.Undo(); err != nil {
		t.Fatal(err)
	}
	restored, _ := fx.store.Get("sq")
	if !samePoints(restored, sq) {
		t.Error("undo did not restore the pre-drag snapshot exactly")
	}

	if err := fx.stack.Redo(); err != nil {
		t.Fatal(err)
	}
	redone, _ := fx.store.Get("sq")
	if !redone.Points[0].ApproxEqual(raw) {
		t.Error("redo did not restore the committed geometry")
	}
}

func TestTranslateDragShiftsEveryVertex(t *testing.T) {
	sq := specSquare("sq")
	fx := newFixture(t, sq)

	anchor := ll(5, 5)
	if err := fx.session.BeginTranslate("sq", anchor); err != nil {
		t.Fatal(err)
	}

	raw, cursor := pointerAt(t, 6, 7)
	applied, err := fx.session.Update(raw, cursor)
	if err != nil {
		t.Fatal(err)
	}
	delta := applied.Sub(anchor)

	live, _ := fx.store.Get("sq")
	for i := range sq.Points {
		want := sq.Points[i].Add(delta)
		if !live.Points[i].ApproxEqual(want) {
			t.Errorf("vertex %d = %+v, want %+v", i, live.Points[i], want)
		}
	}

	if err := fx.session.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if err := fx.stack.Undo(); err != nil {
		t.Fatal(err)
	}
	restored, _ := fx.store.Get("sq")
	if !samePoints(restored, sq) {
		t.Error("undo did not restore the original position")
	}
}

func TestReentrantBeginIsGuarded(t *testing.T) {
	fx := newFixture(t, specSquare("sq"))

	if err := fx.session.BeginVertexDrag("sq", 0); err != nil {
		t.Fatal(err)
	}
	if err := fx.session.BeginVertexDrag("sq", 1); !errors.Is(err, ErrTransactionActive) {
		t.Errorf("second begin = %v, want ErrTransactionActive", err)
	}
	if err := fx.session.BeginTranslate("sq", ll(0, 0)); !errors.Is(err, ErrTransactionActive) {
		t.Errorf("translate during drag = %v, want ErrTransactionActive", err)
	}
	if fx.session.State() != StateVertexDrag {
		t.Errorf("state corrupted: %v", fx.session.State())
	}
}

func TestBeginErrors(t *testing.T) {
	fx := newFixture(t, specSquare("sq"))

	if err := fx.session.BeginVertexDrag("nope", 0); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("unknown feature = %v", err)
	}
	if err := fx.session.BeginVertexDrag("sq", 9); !errors.Is(err, ErrVertexOutOfRange) {
		t.Errorf("bad index = %v", err)
	}
	if err := fx.session.BeginTranslate("nope", ll(0, 0)); !errors.Is(err, ErrUnknownFeature) {
		t.Errorf("unknown feature (translate) = %v", err)
	}
}

func TestCancelRestoresSnapshot(t *testing.T) {
	sq := specSquare("sq")
	fx := newFixture(t, sq)

	if err := fx.session.BeginVertexDrag("sq", 0); err != nil {
		t.Fatal(err)
	}
	raw, cursor := pointerAt(t, -5, -5)
	if _, err := fx.session.Update(raw, cursor); err != nil {
		t.Fatal(err)
	}

	if err := fx.session.Cancel(); err != nil {
		t.Fatal(err)
	}
	restored, _ := fx.store.Get("sq")
	if !samePoints(restored, sq) {
		t.Error("cancel did not restore the snapshot")
	}
	if fx.stack.UndoCount() != 0 {
		t.Error("cancel must not push a command")
	}
	if fx.session.Active() {
		t.Error("session still active after cancel")
	}

	// Cancelling while idle is a no-op.
	if err := fx.session.Cancel(); err != nil {
		t.Errorf("idle cancel = %v, want nil", err)
	}
}

func TestIdleCommitAndUpdateAreNoOps(t *testing.T) {
	fx := newFixture(t, specSquare("sq"))

	if err := fx.session.Commit(); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("idle Commit() = %v, want ErrNoTransaction", err)
	}
	raw, cursor := pointerAt(t, 1, 1)
	if _, err := fx.session.Update(raw, cursor); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("idle Update() = %v, want ErrNoTransaction", err)
	}
}

type countingGuard struct {
	suspends int
	resumes  int
}

func (g *countingGuard) Suspend() { g.suspends++ }
func (g *countingGuard) Resume()  { g.resumes++ }

func TestGuardSuspendedForDragDuration(t *testing.T) {
	fx := newFixture(t, specSquare("sq"))
	guard := &countingGuard{}
	fx.session.SetGuard(guard)

	if err := fx.session.BeginVertexDrag("sq", 0); err != nil {
		t.Fatal(err)
	}
	if guard.suspends != 1 || guard.resumes != 0 {
		t.Errorf("after begin: %+v", guard)
	}
	raw, cursor := pointerAt(t, -2, -2)
	if _, err := fx.session.Update(raw, cursor); err != nil {
		t.Fatal(err)
	}
	if err := fx.session.Commit(); err != nil {
		t.Fatal(err)
	}
	if guard.suspends != 1 || guard.resumes != 1 {
		t.Errorf("after commit: %+v", guard)
	}

	if err := fx.session.BeginTranslate("sq", ll(0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := fx.session.Cancel(); err != nil {
		t.Fatal(err)
	}
	if guard.suspends != 2 || guard.resumes != 2 {
		t.Errorf("after cancel: %+v", guard)
	}
}

func TestDragWritesArePreviewsCommitIsUpsert(t *testing.T) {
	fx := newFixture(t, specSquare("sq"))

	var kinds []feature.EventKind
	fx.store.Subscribe(func(e feature.Event) { kinds = append(kinds, e.Kind) })

	if err := fx.session.BeginVertexDrag("sq", 0); err != nil {
		t.Fatal(err)
	}
	raw, cursor := pointerAt(t, -2, -2)
	if _, err := fx.session.Update(raw, cursor); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.session.Update(raw, cursor); err != nil {
		t.Fatal(err)
	}
	if err := fx.session.Commit(); err != nil {
		t.Fatal(err)
	}

	want := []feature.EventKind{feature.EventPreview, feature.EventPreview, feature.EventUpsert}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestInsertVertex(t *testing.T) {
	sq := specSquare("sq")
	fx := newFixture(t, sq)

	// Near the middle of the bottom edge (vertices 0-1).
	raw, cursor := pointerAt(t, 0.5, 5)
	if err := fx.session.InsertVertex("sq", raw, cursor); err != nil {
		t.Fatalf("InsertVertex() error: %v", err)
	}

	got, _ := fx.store.Get("sq")
	if got.VertexCount() != 5 {
		t.Fatalf("VertexCount() = %d, want 5", got.VertexCount())
	}
	want := geom.ClosestPointOnSegment3D(raw, sq.Points[0], sq.Points[1])
	if got.Points[1].Distance(want) > 1e-6 {
		t.Errorf("inserted vertex off edge projection by %g m", got.Points[1].Distance(want))
	}
	if fx.stack.UndoCount() != 1 {
		t.Errorf("UndoCount() = %d, want 1", fx.stack.UndoCount())
	}

	if err := fx.stack.Undo(); err != nil {
		t.Fatal(err)
	}
	restored, _ := fx.store.Get("sq")
	if restored.VertexCount() != 4 {
		t.Error("undo did not remove the inserted vertex")
	}
}

func TestInsertVertexRejectsWhenNoEdgeNearby(t *testing.T) {
	fx := newFixture(t, specSquare("sq"))

	raw, cursor := pointerAt(t, 40, 40)
	err := fx.session.InsertVertex("sq", raw, cursor)
	if !errors.Is(err, ErrNoEdgeNearby) {
		t.Fatalf("InsertVertex() = %v, want ErrNoEdgeNearby", err)
	}
	if len(fx.notices) != 1 {
		t.Error("rejection not reported to notice sink")
	}
	if fx.stack.UndoCount() != 0 {
		t.Error("rejected insert must not push a command")
	}
}

func TestDeleteVertexEnforcesMinimum(t *testing.T) {
	tri := &feature.Feature{ID: "tri", Kind: feature.KindPolygon,
		Points: []geom.World{ll(0, 0), ll(0, 5), ll(5, 5)}}
	sq := specSquare("sq")
	line := &feature.Feature{ID: "line", Kind: feature.KindPolyline,
		Points: []geom.World{ll(0, 0), ll(0, 5)}}
	fx := newFixture(t, tri, sq, line)

	// A triangle cannot lose a vertex.
	err := fx.session.DeleteVertex("tri", 0)
	if !errors.Is(err, ErrTooFewVertices) {
		t.Fatalf("DeleteVertex(tri) = %v, want ErrTooFewVertices", err)
	}
	got, _ := fx.store.Get("tri")
	if got.VertexCount() != 3 {
		t.Error("rejected delete mutated the triangle")
	}
	if fx.stack.UndoCount() != 0 {
		t.Error("rejected delete pushed a command")
	}

	// A two-point polyline cannot lose one either.
	if err := fx.session.DeleteVertex("line", 1); !errors.Is(err, ErrTooFewVertices) {
		t.Errorf("DeleteVertex(line) = %v, want ErrTooFewVertices", err)
	}

	// A square can.
	if err := fx.session.DeleteVertex("sq", 0); err != nil {
		t.Fatalf("DeleteVertex(sq) error: %v", err)
	}
	got, _ = fx.store.Get("sq")
	if got.VertexCount() != 3 {
		t.Errorf("VertexCount() = %d, want 3", got.VertexCount())
	}
	if fx.stack.UndoCount() != 1 {
		t.Error("successful delete should push exactly one command")
	}
}

func TestScriptedRuleRejectsCommit(t *testing.T) {
	sq := specSquare("sq")
	fx := newFixture(t, sq)

	set := rules.NewSet()
	defer set.Close()
	err := set.Add("locked", `
		function validate(feature)
			return false, "layer is locked"
		end
	`)
	if err != nil {
		t.Fatal(err)
	}
	fx.session.SetRules(set)

	if err := fx.session.BeginVertexDrag("sq", 0); err != nil {
		t.Fatal(err)
	}
	raw, cursor := pointerAt(t, -2, -2)
	if _, err := fx.session.Update(raw, cursor); err != nil {
		t.Fatal(err)
	}

	err = fx.session.Commit()
	var v *rules.Violation
	if !errors.As(err, &v) {
		t.Fatalf("Commit() = %v, want rules.Violation", err)
	}
	restored, _ := fx.store.Get("sq")
	if !samePoints(restored, sq) {
		t.Error("rule rejection did not roll back")
	}
	if fx.stack.UndoCount() != 0 {
		t.Error("rule rejection pushed a command")
	}
	if len(fx.notices) == 0 || !strings.Contains(fx.notices[0], "locked") {
		t.Errorf("notices = %v", fx.notices)
	}
}
