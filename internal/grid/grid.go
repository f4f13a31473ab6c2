// Package grid provides the rectangular world the simulation runs on.
// A Grid is an immutable value describing dimensions and edge topology;
// agent positions are plain coordinates validated against it.
package grid

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// Topology controls what happens at the edges of the world.
type Topology uint8

const (
	// Torus wraps both axes, so the world has no edges.
	Torus Topology = iota
	// Bounded clips at the edges; out-of-range cells do not exist.
	Bounded
)

// ParseTopology maps a config string to a Topology. An empty string
// selects Torus, the default.
func ParseTopology(s string) (Topology, error) {
	switch s {
	case "", "torus":
		return Torus, nil
	case "bounded":
		return Bounded, nil
	default:
		return Torus, fmt.Errorf("grid: unknown topology %q", s)
	}
}

// String returns the config-file name of the topology.
func (t Topology) String() string {
	if t == Bounded {
		return "bounded"
	}
	return "torus"
}

// MarshalJSON emits the topology by name so exported results read the
// same way config files do.
func (t Topology) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Position is a cell coordinate. Multiple agents may share a cell.
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Grid is the world rectangle. The zero value is unusable; construct
// with New so dimensions are checked once, up front.
type Grid struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Topology Topology `json:"topology"`
}

// New validates dimensions and returns the grid. Non-positive
// dimensions are a configuration error, reported before any tick runs.
func New(width, height int, t Topology) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("grid: dimensions must be positive, got %dx%d", width, height)
	}
	return Grid{Width: width, Height: height, Topology: t}, nil
}

// Contains reports whether p lies inside the rectangle as-is, before
// any topology resolution.
func (g Grid) Contains(p Position) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Resolve maps p onto the grid. On a torus the coordinates wrap; on a
// bounded grid the second result reports whether the cell exists.
func (g Grid) Resolve(p Position) (Position, bool) {
	if g.Topology == Torus {
		return Position{X: wrap(p.X, g.Width), Y: wrap(p.Y, g.Height)}, true
	}
	return p, g.Contains(p)
}

// wrap maps v into [0, n) and handles negative coordinates.
func wrap(v, n int) int {
	return ((v % n) + n) % n
}

// Neighbors returns the Moore neighborhood of p at the given radius:
// every distinct cell reachable by a non-zero offset within Chebyshev
// distance radius. Wrapped duplicates on small tori are removed, so
// the result is a set. Order is fixed (window scan, first occurrence).
func (g Grid) Neighbors(p Position, radius int) []Position {
	if radius < 1 {
		return nil
	}
	out := make([]Position, 0, (2*radius+1)*(2*radius+1)-1)
	seen := make(map[Position]struct{}, cap(out))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			cand, ok := g.Resolve(Position{X: p.X + dx, Y: p.Y + dy})
			if !ok {
				continue
			}
			if _, dup := seen[cand]; dup {
				continue
			}
			seen[cand] = struct{}{}
			out = append(out, cand)
		}
	}
	return out
}

// Adjacent returns the 8-connected neighbor set of p.
func (g Grid) Adjacent(p Position) []Position {
	return g.Neighbors(p, 1)
}

// RandomAdjacent picks uniformly among the adjacent cells of p using
// the supplied stream. When no adjacent cell exists (a 1x1 bounded
// world) it returns p unchanged.
func (g Grid) RandomAdjacent(p Position, rng *rand.Rand) Position {
	cands := g.Adjacent(p)
	if len(cands) == 0 {
		return p
	}
	return cands[rng.Intn(len(cands))]
}

// DistSq returns the squared Euclidean distance between a and b. On a
// torus each axis takes the shorter way around.
func (g Grid) DistSq(a, b Position) int {
	dx := axisDelta(a.X, b.X, g.Width, g.Topology)
	dy := axisDelta(a.Y, b.Y, g.Height, g.Topology)
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between a and b, torus-aware.
func (g Grid) Distance(a, b Position) float64 {
	return math.Sqrt(float64(g.DistSq(a, b)))
}

func axisDelta(a, b, size int, t Topology) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if t == Torus && size-d < d {
		d = size - d
	}
	return d
}

// RandomPosition returns a uniform random cell.
func (g Grid) RandomPosition(rng *rand.Rand) Position {
	return Position{X: rng.Intn(g.Width), Y: rng.Intn(g.Height)}
}

// Center returns the center cell, rounding down on even dimensions.
func (g Grid) Center() Position {
	return Position{X: g.Width / 2, Y: g.Height / 2}
}
