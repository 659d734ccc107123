package core

import "fmt"

// Coordinate is a cell position on the grid, row first.
type Coordinate struct {
	R, C int
}

// NewCoordinate creates a new coordinate with the given row and column
func NewCoordinate(r, c int) Coordinate {
	return Coordinate{R: r, C: c}
}

// FromIndex creates a coordinate from a row-major grid index
func FromIndex(idx int) Coordinate {
	return Coordinate{R: idx / Cols, C: idx % Cols}
}

// ToIndex converts the coordinate to a row-major grid index
func (c Coordinate) ToIndex() int {
	return c.R*Cols + c.C
}

// InBounds checks if the coordinate lies on the grid
func (c Coordinate) InBounds() bool {
	return c.R >= 0 && c.R < Rows && c.C >= 0 && c.C < Cols
}

// Manhattan returns the taxicab distance to another coordinate
func (c Coordinate) Manhattan(other Coordinate) int {
	return abs(c.R-other.R) + abs(c.C-other.C)
}

// Chebyshev returns the king-move distance to another coordinate
func (c Coordinate) Chebyshev(other Coordinate) int {
	dr, dc := abs(c.R-other.R), abs(c.C-other.C)
	if dr > dc {
		return dr
	}
	return dc
}

// IsAdjacentTo checks if this coordinate is orthogonally adjacent to another
func (c Coordinate) IsAdjacentTo(other Coordinate) bool {
	return c.Manhattan(other) == 1
}

// SharesLine reports whether both coordinates sit on the same row or column.
func (c Coordinate) SharesLine(other Coordinate) bool {
	return c.R == other.R || c.C == other.C
}

// Neighbors returns the four orthogonal neighbors of this coordinate
func (c Coordinate) Neighbors() []Coordinate {
	return []Coordinate{
		{R: c.R - 1, C: c.C}, // North
		{R: c.R, C: c.C + 1}, // East
		{R: c.R + 1, C: c.C}, // South
		{R: c.R, C: c.C - 1}, // West
	}
}

// ValidNeighbors returns only the neighbors that are on the grid
func (c Coordinate) ValidNeighbors() []Coordinate {
	valid := make([]Coordinate, 0, 4)
	for _, n := range c.Neighbors() {
		if n.InBounds() {
			valid = append(valid, n)
		}
	}
	return valid
}

// Within returns every in-bounds coordinate at Manhattan distance 1..radius.
func (c Coordinate) Within(radius int) []Coordinate {
	out := make([]Coordinate, 0, 2*radius*(radius+1))
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			if dr == 0 && dc == 0 || abs(dr)+abs(dc) > radius {
				continue
			}
			n := Coordinate{R: c.R + dr, C: c.C + dc}
			if n.InBounds() {
				out = append(out, n)
			}
		}
	}
	return out
}

// Add returns the sum of this coordinate and another
func (c Coordinate) Add(other Coordinate) Coordinate {
	return Coordinate{R: c.R + other.R, C: c.C + other.C}
}

// Key is the "r,c" form used for hotspot bookkeeping and wire payloads.
func (c Coordinate) Key() string {
	return fmt.Sprintf("%d,%d", c.R, c.C)
}

// String returns a string representation of the coordinate
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.R, c.C)
}

// Direction represents a cardinal direction
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// DirectionVectors provides coordinate offsets for each direction
var DirectionVectors = map[Direction]Coordinate{
	North: {R: -1, C: 0},
	East:  {R: 0, C: 1},
	South: {R: 1, C: 0},
	West:  {R: 0, C: -1},
}

// Move returns a new coordinate moved one step in the given direction
func (c Coordinate) Move(direction Direction) Coordinate {
	if offset, ok := DirectionVectors[direction]; ok {
		return c.Add(offset)
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
