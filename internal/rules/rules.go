// Package rules provides optional Lua-scripted commit validation.
//
// A rule script defines a function
//
//	function validate(feature)
//	  return ok, reason
//	end
//
// which receives the candidate geometry as a plain table and returns
// whether the commit is acceptable, plus a human-readable reason when it
// is not. Scripts run in a restricted Lua state with only the base,
// table, string, and math libraries; script errors fail the commit.
package rules

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/geoedit/internal/feature"
)

// Common errors for rule management.
var (
	ErrNoValidateFunc = errors.New("script does not define validate(feature)")
	ErrClosed         = errors.New("rule set is closed")
)

// Violation reports a rule rejecting a commit.
type Violation struct {
	Rule   string
	Reason string
}

// Error returns the violation text.
func (v *Violation) Error() string {
	return fmt.Sprintf("rule %s: %s", v.Rule, v.Reason)
}

// script is one compiled rule with its own Lua state.
type script struct {
	name string
	L    *lua.LState
}

// Set holds registered validation rules. It is not safe for concurrent
// use; the edit session calls it from its single event-loop goroutine.
type Set struct {
	scripts []*script
	closed  bool
}

// NewSet creates an empty rule set.
func NewSet() *Set {
	return &Set{}
}

// Add compiles and registers a rule script under the given name.
func (s *Set) Add(name, source string) error {
	if s.closed {
		return ErrClosed
	}

	L, err := newSandboxedState()
	if err != nil {
		return err
	}
	if err := L.DoString(source); err != nil {
		L.Close()
		return fmt.Errorf("rule %s: %w", name, err)
	}
	if L.GetGlobal("validate").Type() != lua.LTFunction {
		L.Close()
		return fmt.Errorf("rule %s: %w", name, ErrNoValidateFunc)
	}

	s.scripts = append(s.scripts, &script{name: name, L: L})
	return nil
}

// Len returns the number of registered rules.
func (s *Set) Len() int {
	return len(s.scripts)
}

// Validate runs every rule against the feature. The first rejection or
// script error stops evaluation; a script error fails closed.
func (s *Set) Validate(f *feature.Feature) error {
	if s.closed {
		return ErrClosed
	}

	for _, sc := range s.scripts {
		if err := sc.run(f); err != nil {
			return err
		}
	}
	return nil
}

// Close releases all Lua states. The set is unusable afterwards.
func (s *Set) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, sc := range s.scripts {
		sc.L.Close()
	}
	s.scripts = nil
}

// run invokes one rule's validate function.
func (sc *script) run(f *feature.Feature) error {
	L := sc.L
	if err := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("validate"),
		NRet:    2,
		Protect: true,
	}, featureTable(L, f)); err != nil {
		return &Violation{Rule: sc.name, Reason: fmt.Sprintf("script error: %v", err)}
	}

	reason := L.Get(-1)
	ok := L.Get(-2)
	L.Pop(2)

	if lua.LVAsBool(ok) {
		return nil
	}
	text := lua.LVAsString(reason)
	if text == "" {
		text = "rejected"
	}
	return &Violation{Rule: sc.name, Reason: text}
}

// newSandboxedState creates a Lua state with only safe libraries and no
// file or code loaders, following the plugin sandbox approach.
func newSandboxedState() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("opening lua lib %s: %w", lib.name, err)
		}
	}

	// Remove functions that could load arbitrary code.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	return L, nil
}

// featureTable converts a feature into the table handed to scripts:
// { id, kind, points = { {x, y, z, lat, lng}, ... } }.
func featureTable(L *lua.LState, f *feature.Feature) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(f.ID))
	t.RawSetString("kind", lua.LString(f.Kind.String()))

	points := L.NewTable()
	for _, p := range f.Points {
		pt := L.NewTable()
		pt.RawSetString("x", lua.LNumber(p.X))
		pt.RawSetString("y", lua.LNumber(p.Y))
		pt.RawSetString("z", lua.LNumber(p.Z))
		ll, _ := p.LatLng()
		pt.RawSetString("lat", lua.LNumber(ll.Lat.Degrees()))
		pt.RawSetString("lng", lua.LNumber(ll.Lng.Degrees()))
		points.Append(pt)
	}
	t.RawSetString("points", points)
	return t
}
