package core

// Cell is a single grid square.
type Cell struct {
	Obstacle bool
	// SmokeTurns counts down the rounds a smoke cloud still covers the cell.
	SmokeTurns int
}

// Grid is fixed size so that copying a GameState copies the terrain too.
type Grid struct {
	Cells [Rows][Cols]Cell
}

func (g *Grid) At(c Coordinate) *Cell {
	if !c.InBounds() {
		return nil
	}
	return &g.Cells[c.R][c.C]
}

// IsObstacle treats out-of-bounds coordinates as blocked.
func (g *Grid) IsObstacle(c Coordinate) bool {
	cell := g.At(c)
	return cell == nil || cell.Obstacle
}

func (g *Grid) SetObstacle(c Coordinate, obstacle bool) {
	if cell := g.At(c); cell != nil {
		cell.Obstacle = obstacle
	}
}

// ObstaclesInColumns counts obstacles across all rows in columns [from, to].
func (g *Grid) ObstaclesInColumns(from, to int) int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := from; c <= to; c++ {
			if c >= 0 && c < Cols && g.Cells[r][c].Obstacle {
				n++
			}
		}
	}
	return n
}

func (g *Grid) IsSmoked(c Coordinate) bool {
	cell := g.At(c)
	return cell != nil && cell.SmokeTurns > 0
}
