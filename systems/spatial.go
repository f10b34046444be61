package systems

// SpatialGrid is a uniform-grid PairScanner. The cell size is at least the
// largest particle diameter, so overlapping particles always sit in the
// same or adjacent cells. Cell membership is refreshed after every visit,
// which keeps the pair sequence identical to NaiveScanner even when a
// resolution pushes a particle into a new cell.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int // flat grid of collider indices
	cellOf   []int   // collider index -> cell index
}

// NewSpatialGrid creates a spatial grid covering the given container.
// cellSize is raised to 2*maxRadius if smaller.
func NewSpatialGrid(width, height, cellSize, maxRadius float64) *SpatialGrid {
	if cellSize < 2*maxRadius {
		cellSize = 2 * maxRadius
	}
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// CellSize returns the effective cell size.
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

// Clear removes all entries from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.cellOf = g.cellOf[:0]
}

// Scan implements PairScanner.
func (g *SpatialGrid) Scan(cs []Collider, visit func(i, j int)) {
	g.Clear()
	for i := range cs {
		idx := g.cellIndex(cs[i].Pos.X, cs[i].Pos.Y)
		g.cellOf = append(g.cellOf, idx)
		g.cells[idx] = append(g.cells[idx], i)
	}

	for i := range cs {
		last := i
		for !cs[i].Consumed {
			j := g.nextCandidate(cs, i, last)
			if j < 0 {
				break
			}
			last = j
			visit(i, j)
			g.relocate(cs, i)
			g.relocate(cs, j)
		}
	}
}

// nextCandidate returns the smallest live collider index greater than after
// in the 3x3 block of cells around cs[i], or -1.
func (g *SpatialGrid) nextCandidate(cs []Collider, i, after int) int {
	best := -1
	cell := g.cellOf[i]
	col, row := cell%g.cols, cell/g.cols
	for dr := -1; dr <= 1; dr++ {
		r := row + dr
		if r < 0 || r >= g.rows {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			c := col + dc
			if c < 0 || c >= g.cols {
				continue
			}
			for _, j := range g.cells[r*g.cols+c] {
				if j <= after || cs[j].Consumed {
					continue
				}
				if best < 0 || j < best {
					best = j
				}
			}
		}
	}
	return best
}

// relocate moves collider i to the cell matching its current position.
func (g *SpatialGrid) relocate(cs []Collider, i int) {
	idx := g.cellIndex(cs[i].Pos.X, cs[i].Pos.Y)
	old := g.cellOf[i]
	if idx == old {
		return
	}
	list := g.cells[old]
	for k, v := range list {
		if v == i {
			g.cells[old] = append(list[:k], list[k+1:]...)
			break
		}
	}
	g.cells[idx] = append(g.cells[idx], i)
	g.cellOf[i] = idx
}

// cellIndex returns the flat index for a container position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}
