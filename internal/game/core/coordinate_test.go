package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCoordinate(t *testing.T) {
	c := NewCoordinate(3, 5)
	assert.Equal(t, 3, c.R)
	assert.Equal(t, 5, c.C)
}

func TestCoordinate_IndexRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		index int
	}{
		{"TopLeft", Coordinate{0, 0}, 0},
		{"EndOfFirstRow", Coordinate{0, Cols - 1}, Cols - 1},
		{"SecondRow", Coordinate{1, 0}, Cols},
		{"BottomRight", Coordinate{Rows - 1, Cols - 1}, Rows*Cols - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.index, tt.coord.ToIndex())
			assert.Equal(t, tt.coord, FromIndex(tt.index))
		})
	}
}

func TestCoordinate_InBounds(t *testing.T) {
	assert.True(t, Coordinate{0, 0}.InBounds())
	assert.True(t, Coordinate{Rows - 1, Cols - 1}.InBounds())
	assert.False(t, Coordinate{-1, 0}.InBounds())
	assert.False(t, Coordinate{0, Cols}.InBounds())
	assert.False(t, Coordinate{Rows, 3}.InBounds())
}

func TestCoordinate_Distances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Coordinate
		manhattan int
		chebyshev int
	}{
		{"Same", Coordinate{2, 2}, Coordinate{2, 2}, 0, 0},
		{"Orthogonal", Coordinate{2, 2}, Coordinate{2, 5}, 3, 3},
		{"Diagonal", Coordinate{1, 1}, Coordinate{2, 2}, 2, 1},
		{"Mixed", Coordinate{0, 0}, Coordinate{3, 7}, 10, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.manhattan, tt.a.Manhattan(tt.b))
			assert.Equal(t, tt.manhattan, tt.b.Manhattan(tt.a))
			assert.Equal(t, tt.chebyshev, tt.a.Chebyshev(tt.b))
		})
	}
}

func TestCoordinate_ValidNeighbors(t *testing.T) {
	assert.Len(t, Coordinate{3, 10}.ValidNeighbors(), 4)
	assert.ElementsMatch(t, []Coordinate{{0, 1}, {1, 0}}, Coordinate{0, 0}.ValidNeighbors())
}

func TestCoordinate_Within(t *testing.T) {
	cells := Coordinate{3, 10}.Within(2)
	assert.Len(t, cells, 12)
	for _, c := range cells {
		d := c.Manhattan(Coordinate{3, 10})
		assert.True(t, d >= 1 && d <= 2)
	}

	corner := Coordinate{0, 0}.Within(1)
	assert.ElementsMatch(t, []Coordinate{{0, 1}, {1, 0}}, corner)
}

func TestCoordinate_Move(t *testing.T) {
	c := Coordinate{3, 3}
	assert.Equal(t, Coordinate{2, 3}, c.Move(North))
	assert.Equal(t, Coordinate{3, 4}, c.Move(East))
	assert.Equal(t, Coordinate{4, 3}, c.Move(South))
	assert.Equal(t, Coordinate{3, 2}, c.Move(West))
	assert.Equal(t, c, c.Move(Direction(9)))
}

func TestCoordinate_Strings(t *testing.T) {
	assert.Equal(t, "(3,4)", Coordinate{3, 4}.String())
	assert.Equal(t, "3,4", Coordinate{3, 4}.Key())
}
