package mapgen

import (
	"errors"
	"math/rand"

	"github.com/mitchelldurbincs/tacticsai/internal/game/core"
)

// ErrNoPath is returned when no attempt produced a board on which the two
// flags are connected.
var ErrNoPath = errors.New("mapgen: no connected layout found")

// MapConfig holds configuration for map generation
type MapConfig struct {
	// NumVeins is how many obstacle veins are drawn on P1's half before the
	// layout is mirrored onto P2's half.
	NumVeins      int
	MinVeinLength int
	MaxVeinLength int
	// SpawnMargin keeps this many columns next to each back edge clear.
	SpawnMargin int
	MaxAttempts int
}

// DefaultMapConfig returns a sensible default configuration
func DefaultMapConfig() MapConfig {
	return MapConfig{
		NumVeins:      3,
		MinVeinLength: 2,
		MaxVeinLength: 4,
		SpawnMargin:   4,
		MaxAttempts:   20,
	}
}

// ConfigForDensity scales the vein count to density, the share of the
// open middle band that may turn into obstacles.
func ConfigForDensity(density float64) MapConfig {
	cfg := DefaultMapConfig()
	if density <= 0 {
		cfg.NumVeins = 0
		return cfg
	}
	open := core.Rows * (core.Cols - 2*cfg.SpawnMargin) / 2
	avg := (cfg.MinVeinLength + cfg.MaxVeinLength) / 2
	cfg.NumVeins = max(1, int(density*float64(open))/avg)
	return cfg
}

// Generator handles map generation with deterministic RNG
type Generator struct {
	config MapConfig
	rng    *rand.Rand
}

// NewGenerator creates a new map generator
func NewGenerator(config MapConfig, rng *rand.Rand) *Generator {
	return &Generator{
		config: config,
		rng:    rng,
	}
}

// GenerateGrid draws a point-symmetric obstacle layout and retries until
// the two flags are connected.
func (g *Generator) GenerateGrid() (core.Grid, error) {
	attempts := max(1, g.config.MaxAttempts)
	for i := 0; i < attempts; i++ {
		var grid core.Grid
		g.placeVeins(&grid)
		if Connected(&grid, core.FlagStart(core.P1), core.FlagStart(core.P2)) {
			return grid, nil
		}
	}
	return core.Grid{}, ErrNoPath
}

func (g *Generator) placeVeins(grid *core.Grid) {
	lo := g.config.SpawnMargin
	hi := core.MidColumn - 1
	if hi < lo {
		return
	}
	dirs := []core.Coordinate{{R: 1}, {R: -1}, {C: 1}, {C: -1}}

	for v := 0; v < g.config.NumVeins; v++ {
		length := g.config.MinVeinLength
		if span := g.config.MaxVeinLength - g.config.MinVeinLength; span > 0 {
			length += g.rng.Intn(span + 1)
		}
		pos := core.Coordinate{R: g.rng.Intn(core.Rows), C: lo + g.rng.Intn(hi-lo+1)}
		for step := 0; step < length; step++ {
			if pos.C < lo || pos.C > hi || !pos.InBounds() {
				break
			}
			grid.SetObstacle(pos, true)
			grid.SetObstacle(Mirror(pos), true)
			pos = pos.Add(dirs[g.rng.Intn(len(dirs))])
		}
	}
}

// Mirror reflects c through the board center, mapping one side's half onto
// the other's.
func Mirror(c core.Coordinate) core.Coordinate {
	return core.Coordinate{R: core.Rows - 1 - c.R, C: core.Cols - 1 - c.C}
}

// Connected runs a breadth-first search over open cells from a to b.
func Connected(grid *core.Grid, a, b core.Coordinate) bool {
	if grid.IsObstacle(a) || grid.IsObstacle(b) {
		return false
	}
	var seen [core.Rows][core.Cols]bool
	queue := []core.Coordinate{a}
	seen[a.R][a.C] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == b {
			return true
		}
		for _, n := range cur.ValidNeighbors() {
			if seen[n.R][n.C] || grid.IsObstacle(n) {
				continue
			}
			seen[n.R][n.C] = true
			queue = append(queue, n)
		}
	}
	return false
}

// CountObstacles returns the number of blocked cells.
func CountObstacles(grid *core.Grid) int {
	return grid.ObstaclesInColumns(0, core.Cols-1)
}
