// Package spatial implements the uniform bucket grid used for neighbor
// queries. Buckets hold agent indices, never pointers.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultCellSize = 0.2
	DefaultCells    = 50
	// DefaultOffset shifts world coordinates so the container sits inside
	// the non-negative cell range.
	DefaultOffset = 5.0
)

// Grid is a dense 3D grid of index buckets. index = x + y*W + z*W*H.
type Grid struct {
	CellSize float64
	Offset   float64
	Width    int
	Height   int
	Depth    int
	cells    [][]int
}

// NewGrid creates an empty grid of width*height*depth cells.
func NewGrid(cellSize, offset float64, width, height, depth int) *Grid {
	return &Grid{
		CellSize: cellSize,
		Offset:   offset,
		Width:    width,
		Height:   height,
		Depth:    depth,
		cells:    make([][]int, width*height*depth),
	}
}

// NewDefaultGrid covers [-5, 5) on each axis with 0.2 cells.
func NewDefaultGrid() *Grid {
	return NewGrid(DefaultCellSize, DefaultOffset, DefaultCells, DefaultCells, DefaultCells)
}

// Clear empties every bucket, keeping capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert places id in the bucket containing pos.
// Returns false if pos lies outside the grid.
func (g *Grid) Insert(id int, pos r3.Vec) bool {
	x, y, z := g.CellOf(pos)
	idx := g.index(x, y, z)
	if idx < 0 {
		return false
	}
	g.cells[idx] = append(g.cells[idx], id)
	return true
}

// Rebuild clears the grid and inserts n positions. It returns the number
// of positions that fell outside the grid.
func (g *Grid) Rebuild(n int, pos func(i int) r3.Vec) int {
	g.Clear()
	dropped := 0
	for i := 0; i < n; i++ {
		if !g.Insert(i, pos(i)) {
			dropped++
		}
	}
	return dropped
}

// ForEachNeighbor calls visit for every index in the 3x3x3 block of cells
// centered on pos's cell, including pos's own cell. Out-of-range cells are
// skipped. Safe for concurrent use while no Insert or Clear runs.
func (g *Grid) ForEachNeighbor(pos r3.Vec, visit func(id int)) {
	cx, cy, cz := g.CellOf(pos)
	for z := cz - 1; z <= cz+1; z++ {
		for y := cy - 1; y <= cy+1; y++ {
			for x := cx - 1; x <= cx+1; x++ {
				idx := g.index(x, y, z)
				if idx < 0 {
					continue
				}
				for _, id := range g.cells[idx] {
					visit(id)
				}
			}
		}
	}
}

// CellOf returns the integer cell coordinates of pos (possibly out of range).
func (g *Grid) CellOf(pos r3.Vec) (x, y, z int) {
	return g.axis(pos.X), g.axis(pos.Y), g.axis(pos.Z)
}

// Len returns the number of indices currently stored.
func (g *Grid) Len() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}

func (g *Grid) axis(v float64) int {
	f := math.Floor((v + g.Offset) / g.CellSize)
	// keep NaN and huge values out of int conversion
	if !(f > -1) {
		return -1
	}
	if f > float64(math.MaxInt32) {
		return math.MaxInt32
	}
	return int(f)
}

func (g *Grid) index(x, y, z int) int {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height || z < 0 || z >= g.Depth {
		return -1
	}
	return x + y*g.Width + z*g.Width*g.Height
}
