// Package main is a terminal demo of the geoedit engine: pick, drag,
// snap, commit, and undo features on an equirectangular map.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/geoedit/internal/config"
	"github.com/dshills/geoedit/internal/edit"
	"github.com/dshills/geoedit/internal/feature"
	"github.com/dshills/geoedit/internal/geom"
	"github.com/dshills/geoedit/internal/history"
	"github.com/dshills/geoedit/internal/pick"
	"github.com/dshills/geoedit/internal/rules"
	"github.com/dshills/geoedit/internal/snap"
	"github.com/dshills/geoedit/internal/spatial"
	"github.com/dshills/geoedit/internal/view"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath, rulePath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to init screen: %v\n", err)
		return 1
	}
	defer screen.Fini()
	screen.EnableMouse()

	app, err := newDemo(screen, cfg, rulePath)
	if err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer app.close()

	// Hot-reload snapping options while the demo runs.
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, func(cfg *config.Config, err error) {
			if err != nil {
				log.Printf("config reload: %v", err)
				return
			}
			app.snapper.SetOptions(cfg.SnapOptions())
		})
		if err == nil {
			defer watcher.Close()
		}
	}

	app.loop()
	return 0
}

func parseFlags() (configPath, rulePath string) {
	var showVersion bool

	flag.StringVar(&configPath, "config", "geoedit.toml", "Path to configuration file")
	flag.StringVar(&configPath, "c", "geoedit.toml", "Path to configuration file (shorthand)")
	flag.StringVar(&rulePath, "rules", "", "Path to a Lua validation rule script")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Geoedit - snapping geometry editor demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: geoedit [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys:\n")
		fmt.Fprintf(os.Stderr, "  click+drag  move a vertex handle or translate a feature body\n")
		fmt.Fprintf(os.Stderr, "  i           insert a vertex on the edge under the cursor\n")
		fmt.Fprintf(os.Stderr, "  x           delete the vertex under the cursor\n")
		fmt.Fprintf(os.Stderr, "  u / r       undo / redo\n")
		fmt.Fprintf(os.Stderr, "  g           toggle grid snapping\n")
		fmt.Fprintf(os.Stderr, "  Esc         cancel the active drag\n")
		fmt.Fprintf(os.Stderr, "  q           quit\n")
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("geoedit %s (%s)\n", version, commit)
		os.Exit(0)
	}
	return configPath, rulePath
}

// cameraLock is the demo's drag guard: while a drag transaction is open
// the map must not pan underneath it.
type cameraLock struct {
	locked bool
}

func (c *cameraLock) Suspend() { c.locked = true }
func (c *cameraLock) Resume()  { c.locked = false }

type demo struct {
	screen tcell.Screen

	store   *feature.Store
	index   *spatial.Index
	snapper *snap.Engine
	stack   *history.Stack
	session *edit.Session
	picker  *pick.Picker
	rules   *rules.Set
	camera  *cameraLock

	view *view.Flat

	selected string
	status   string
	cursor   geom.Screen
	snapMark *geom.World
}

func newDemo(screen tcell.Screen, cfg *config.Config, rulePath string) (*demo, error) {
	w, h := screen.Size()

	d := &demo{
		screen: screen,
		store:  feature.NewStore(),
		camera: &cameraLock{},
		view:   view.NewFlat(0, 0, 2, float64(w), float64(h)),
		status: "ready",
	}

	d.index = spatial.NewIndex(cfg.Index.CellSize)
	d.index.AttachStore(d.store)

	d.snapper = snap.NewEngine(d.store, d.view, cfg.SnapOptions())
	d.snapper.SetIndex(d.index)

	d.stack = history.NewStack(d.store, cfg.History.MaxEntries)
	d.session = edit.NewSession(d.store, d.snapper, d.stack, d.view)
	d.session.SetGuard(d.camera)
	d.session.SetNotice(func(reason string) { d.status = "rejected: " + reason })
	d.picker = pick.NewPicker(d.store, d.view)

	if rulePath != "" {
		source, err := os.ReadFile(rulePath)
		if err != nil {
			return nil, fmt.Errorf("reading rule script: %w", err)
		}
		d.rules = rules.NewSet()
		if err := d.rules.Add(rulePath, string(source)); err != nil {
			d.rules.Close()
			return nil, err
		}
		d.session.SetRules(d.rules)
	}

	if err := d.seed(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *demo) close() {
	if d.rules != nil {
		d.rules.Close()
	}
	d.index.Detach()
}

// seed populates a few features to edit.
func (d *demo) seed() error {
	ll := geom.FromLatLngDegrees
	seeds := []*feature.Feature{
		feature.New(feature.KindPolygon, []geom.World{
			ll(-5, -20), ll(-5, -5), ll(8, -5), ll(8, -20),
		}),
		feature.New(feature.KindPolyline, []geom.World{
			ll(-10, 2), ll(-2, 8), ll(4, 6), ll(10, 14),
		}),
		feature.New(feature.KindPoint, []geom.World{ll(12, -12)}),
	}
	for _, f := range seeds {
		if err := d.store.Upsert(f); err != nil {
			return err
		}
	}
	return nil
}

func (d *demo) loop() {
	for {
		d.draw()
		switch ev := d.screen.PollEvent().(type) {
		case *tcell.EventResize:
			w, h := d.screen.Size()
			d.view.Width, d.view.Height = float64(w), float64(h)
			d.screen.Sync()

		case *tcell.EventKey:
			if !d.handleKey(ev) {
				return
			}

		case *tcell.EventMouse:
			d.handleMouse(ev)
		}
	}
}

func (d *demo) handleKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyEscape:
		if err := d.session.Cancel(); err == nil && d.session.State() == edit.StateIdle {
			d.status = "cancelled"
		}

	case ev.Rune() == 'q', ev.Key() == tcell.KeyCtrlC:
		return false

	case ev.Rune() == 'u':
		if err := d.stack.Undo(); err != nil {
			d.status = err.Error()
		} else {
			d.status = "undone"
		}

	case ev.Rune() == 'r':
		if err := d.stack.Redo(); err != nil {
			d.status = err.Error()
		} else {
			d.status = "redone"
		}

	case ev.Rune() == 'g':
		opts := d.snapper.Options()
		opts.EnableGrid = !opts.EnableGrid
		opts.GridSource = opts.EnableGrid
		d.snapper.SetOptions(opts)
		if opts.EnableGrid {
			d.status = "grid snapping on"
		} else {
			d.status = "grid snapping off"
		}

	case ev.Rune() == 'i':
		d.insertAtCursor()

	case ev.Rune() == 'x':
		d.deleteAtCursor()
	}
	return true
}

func (d *demo) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	d.cursor = geom.Screen{X: float64(x), Y: float64(y)}

	switch {
	case ev.Buttons()&tcell.Button1 != 0 && !d.session.Active():
		d.press()

	case ev.Buttons()&tcell.Button1 != 0 && d.session.Active():
		d.drag()

	case ev.Buttons() == tcell.ButtonNone && d.session.Active():
		d.release()
	}
}

// press starts a drag transaction from whatever is under the cursor.
func (d *demo) press() {
	hit := d.picker.Pick(d.cursor, d.selected)
	switch hit.Kind {
	case pick.HitHandle:
		if err := d.session.BeginVertexDrag(hit.FeatureID, hit.Vertex); err != nil {
			d.status = err.Error()
			return
		}
		d.status = fmt.Sprintf("dragging vertex %d", hit.Vertex)

	case pick.HitBody:
		if hit.FeatureID != d.selected {
			d.selected = hit.FeatureID
			d.status = "selected " + shortID(hit.FeatureID)
			return
		}
		anchor, ok := d.view.ScreenToWorld(d.cursor)
		if !ok {
			return
		}
		if err := d.session.BeginTranslate(hit.FeatureID, anchor); err != nil {
			d.status = err.Error()
			return
		}
		d.status = "translating " + shortID(hit.FeatureID)

	case pick.HitNone:
		d.selected = ""
		d.status = "ready"
	}
}

func (d *demo) drag() {
	raw, ok := d.view.ScreenToWorld(d.cursor)
	if !ok {
		return
	}
	applied, err := d.session.Update(raw, d.cursor)
	if err != nil {
		d.status = err.Error()
		return
	}
	d.snapMark = nil
	if !applied.ApproxEqual(raw) {
		d.snapMark = &applied
	}
}

func (d *demo) release() {
	if err := d.session.Commit(); err == nil {
		d.status = "committed"
	}
	d.snapMark = nil
}

func (d *demo) insertAtCursor() {
	if d.selected == "" {
		d.status = "select a feature first"
		return
	}
	raw, ok := d.view.ScreenToWorld(d.cursor)
	if !ok {
		return
	}
	if err := d.session.InsertVertex(d.selected, raw, d.cursor); err == nil {
		d.status = "vertex inserted"
	}
}

func (d *demo) deleteAtCursor() {
	if d.selected == "" {
		d.status = "select a feature first"
		return
	}
	hit := d.picker.Pick(d.cursor, d.selected)
	if hit.Kind != pick.HitHandle || hit.FeatureID != d.selected {
		d.status = "no vertex under cursor"
		return
	}
	if err := d.session.DeleteVertex(d.selected, hit.Vertex); err == nil {
		d.status = "vertex deleted"
	}
}

var (
	styleDefault  = tcell.StyleDefault
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHandle   = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleSnap     = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleStatus   = tcell.StyleDefault.Reverse(true)
)

func (d *demo) draw() {
	d.screen.Clear()

	for _, f := range d.store.All() {
		d.drawFeature(f)
	}
	if d.snapMark != nil {
		if s, ok := d.view.WorldToScreen(*d.snapMark); ok {
			d.screen.SetContent(int(s.X), int(s.Y), '+', nil, styleSnap)
		}
	}
	d.drawStatus()
	d.screen.Show()
}

func (d *demo) drawFeature(f *feature.Feature) {
	style := styleDefault
	if f.ID == d.selected {
		style = styleSelected
	}

	for e := 0; e < f.EdgeCount(); e++ {
		a, b := f.Edge(e)
		sa, okA := d.view.WorldToScreen(a)
		sb, okB := d.view.WorldToScreen(b)
		if !okA || !okB {
			continue
		}
		drawLine(d.screen, int(sa.X), int(sa.Y), int(sb.X), int(sb.Y), style)
	}

	for _, p := range f.Points {
		s, ok := d.view.WorldToScreen(p)
		if !ok {
			continue
		}
		mark := 'o'
		vstyle := style
		if f.ID == d.selected {
			mark = '@'
			vstyle = styleHandle
		}
		d.screen.SetContent(int(s.X), int(s.Y), mark, nil, vstyle)
	}
}

func (d *demo) drawStatus() {
	w, h := d.screen.Size()
	line := fmt.Sprintf(" %s | state:%s undo:%d redo:%d | q quit, u/r undo/redo, g grid, i/x insert/delete",
		d.status, d.session.State(), d.stack.UndoCount(), d.stack.RedoCount())
	for x := 0; x < w; x++ {
		ch := ' '
		if x < len(line) {
			ch = rune(line[x])
		}
		d.screen.SetContent(x, h-1, ch, nil, styleStatus)
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm.
func drawLine(s tcell.Screen, x0, y0, x1, y1 int, style tcell.Style) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		s.SetContent(x0, y0, '.', nil, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
