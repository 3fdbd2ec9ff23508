package aspen

import "math"

// Tile is a textured quad with no position of its own. The caller supplies
// the top-left corner when drawing, so one Tile can stamp a whole map.
type Tile struct {
	Appearance
	Visible bool
}

// NewTile returns a visible tile with no texture and full opacity.
func NewTile() *Tile {
	return &Tile{Appearance: newAppearance(), Visible: true}
}

// TileMap draws a grid of tile indices with a shared tile set. Index -1 is an
// empty cell.
type TileMap struct {
	Tiles            []*Tile
	Cols, Rows       int
	TileW, TileH     float32
	OriginX, OriginY float32
	Cells            []int
}

// NewTileMap creates an empty map of cols×rows cells.
func NewTileMap(cols, rows int, tileW, tileH float32, tiles []*Tile) *TileMap {
	cells := make([]int, cols*rows)
	for i := range cells {
		cells[i] = -1
	}
	return &TileMap{Tiles: tiles, Cols: cols, Rows: rows, TileW: tileW, TileH: tileH, Cells: cells}
}

// Set places tile index idx at (col, row). Out of range cells are ignored.
func (m *TileMap) Set(col, row, idx int) {
	if col < 0 || row < 0 || col >= m.Cols || row >= m.Rows {
		return
	}
	m.Cells[row*m.Cols+col] = idx
}

// At returns the tile index at (col, row), or -1.
func (m *TileMap) At(col, row int) int {
	if col < 0 || row < 0 || col >= m.Cols || row >= m.Rows {
		return -1
	}
	return m.Cells[row*m.Cols+col]
}

// visibleRange returns the cell range overlapping view, clamped to the map.
func (m *TileMap) visibleRange(view CameraView) (c0, r0, c1, r1 int) {
	if m.TileW <= 0 || m.TileH <= 0 {
		return 0, 0, 0, 0
	}
	c0 = max(0, cell(view.MinX-m.OriginX, m.TileW))
	r0 = max(0, cell(view.MinY-m.OriginY, m.TileH))
	c1 = min(m.Cols, cell(view.MaxX-m.OriginX, m.TileW)+1)
	r1 = min(m.Rows, cell(view.MaxY-m.OriginY, m.TileH)+1)
	return c0, r0, c1, r1
}

// cell floors d/size so offsets left of or above the origin land on
// negative cells.
func cell(d, size float32) int {
	return int(math.Floor(float64(d / size)))
}
