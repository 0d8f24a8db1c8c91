// Package config loads and watches the editor's TOML configuration.
//
// Configuration is optional: a missing file yields the defaults and no
// error. The Watcher re-loads the file on change so snapping options can
// be swapped at runtime without restarting.
package config

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/dshills/geoedit/internal/snap"
	"github.com/dshills/geoedit/internal/spatial"
)

// Config is the root configuration document.
type Config struct {
	Snap    SnapConfig    `toml:"snap"`
	Index   IndexConfig   `toml:"index"`
	History HistoryConfig `toml:"history"`
	Grid    GridConfig    `toml:"grid"`
}

// SnapConfig mirrors snap.Options in file form.
type SnapConfig struct {
	// ThresholdPx is the snap radius in pixels, clamped on use.
	ThresholdPx float64 `toml:"threshold_px"`

	Vertex   bool `toml:"vertex"`
	Midpoint bool `toml:"midpoint"`
	Edge     bool `toml:"edge"`
	Grid     bool `toml:"grid"`

	// PriorityVertex and friends weight tie-breaking; zero means default.
	PriorityVertex   int `toml:"priority_vertex"`
	PriorityMidpoint int `toml:"priority_midpoint"`
	PriorityEdge     int `toml:"priority_edge"`
	PriorityGrid     int `toml:"priority_grid"`
}

// IndexConfig configures the spatial index.
type IndexConfig struct {
	// CellSize is the hash-grid cell size in meters.
	CellSize float64 `toml:"cell_size"`
}

// HistoryConfig configures the undo stack.
type HistoryConfig struct {
	// MaxEntries bounds the undo depth; zero means the default.
	MaxEntries int `toml:"max_entries"`
}

// GridConfig configures coordinate-grid snapping.
type GridConfig struct {
	// CellMeters is the grid spacing along meridians.
	CellMeters float64 `toml:"cell_meters"`
}

// Default returns the stock configuration, matching snap.DefaultOptions.
func Default() *Config {
	return &Config{
		Snap: SnapConfig{
			ThresholdPx: 12,
			Vertex:      true,
			Midpoint:    true,
			Edge:        true,
			Grid:        false,
		},
		Index:   IndexConfig{CellSize: spatial.DefaultCellSize},
		History: HistoryConfig{MaxEntries: 1000},
		Grid:    GridConfig{CellMeters: snap.DefaultGridCellMeters},
	}
}

// Load reads a TOML config file. A missing file is not an error: the
// defaults are returned. Values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// SnapOptions converts the file form into engine options. Out-of-range
// values are clamped by the engine on apply.
func (c *Config) SnapOptions() snap.Options {
	opts := snap.DefaultOptions()
	opts.ThresholdPx = c.Snap.ThresholdPx
	opts.EnableVertex = c.Snap.Vertex
	opts.EnableMidpoint = c.Snap.Midpoint
	opts.EnableEdge = c.Snap.Edge
	opts.EnableGrid = c.Snap.Grid
	opts.GridSource = c.Snap.Grid
	opts.GridCellMeters = c.Grid.CellMeters

	if c.Snap.PriorityVertex > 0 {
		opts.Priority[snap.TypeVertex] = c.Snap.PriorityVertex
	}
	if c.Snap.PriorityMidpoint > 0 {
		opts.Priority[snap.TypeMidpoint] = c.Snap.PriorityMidpoint
	}
	if c.Snap.PriorityEdge > 0 {
		opts.Priority[snap.TypeEdge] = c.Snap.PriorityEdge
	}
	if c.Snap.PriorityGrid > 0 {
		opts.Priority[snap.TypeGrid] = c.Snap.PriorityGrid
	}
	return opts
}
