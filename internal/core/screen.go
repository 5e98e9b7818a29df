package core

import (
	"strings"
)

// Cell is a single screen cell code. Games use ASCII codes.
type Cell = int32

// Screen is a fixed-size 2D grid of cell codes.
// It is the observable part of a game's state: agents read it as input,
// observers copy it into replay scenes, and the platform renders it.
//
// Screen does not bounds-check on behalf of game logic. Coordinates are
// validated by the owning game; out-of-range access panics like any slice.
type Screen struct {
	width  int
	height int
	cells  []Cell // row-major, len == width*height
}

// NewScreen creates a zeroed screen buffer with the given dimensions.
func NewScreen(width, height int) *Screen {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Screen{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}
}

// ScreenFromCells builds a screen from a row-major cell slice.
// The slice is copied. Returns nil if the length does not match.
func ScreenFromCells(width, height int, cells []Cell) *Screen {
	if width < 0 || height < 0 || len(cells) != width*height {
		return nil
	}
	s := NewScreen(width, height)
	copy(s.cells, cells)
	return s
}

// Width returns the screen width in cells.
func (s *Screen) Width() int {
	return s.width
}

// Height returns the screen height in cells.
func (s *Screen) Height() int {
	return s.height
}

// Fill sets every cell to c.
func (s *Screen) Fill(c Cell) {
	for i := range s.cells {
		s.cells[i] = c
	}
}

// Set places a cell code at (x, y).
func (s *Screen) Set(x, y int, c Cell) {
	s.cells[y*s.width+x] = c
}

// Get returns the cell code at (x, y).
func (s *Screen) Get(x, y int) Cell {
	return s.cells[y*s.width+x]
}

// InBounds reports whether (x, y) addresses a cell of this screen.
func (s *Screen) InBounds(x, y int) bool {
	return x >= 0 && x < s.width && y >= 0 && y < s.height
}

// SetRow overwrites row y with the given cells.
// Extra cells are ignored; a short slice leaves the tail untouched.
func (s *Screen) SetRow(y int, row []Cell) {
	copy(s.cells[y*s.width:(y+1)*s.width], row)
}

// ScrollX circularly shifts every row by shift columns.
// Positive values move content to the right, negative to the left;
// cells pushed off one edge re-enter on the other.
func (s *Screen) ScrollX(shift int) {
	if s.width == 0 {
		return
	}
	k := mod(shift, s.width)
	if k == 0 {
		return
	}
	tmp := make([]Cell, s.width)
	for y := 0; y < s.height; y++ {
		row := s.cells[y*s.width : (y+1)*s.width]
		for x, c := range row {
			tmp[(x+k)%s.width] = c
		}
		copy(row, tmp)
	}
}

// ScrollY circularly shifts every column by shift rows.
// Positive values move content down, negative up.
func (s *Screen) ScrollY(shift int) {
	if s.height == 0 {
		return
	}
	k := mod(shift, s.height)
	if k == 0 {
		return
	}
	next := make([]Cell, len(s.cells))
	for y := 0; y < s.height; y++ {
		ny := (y + k) % s.height
		copy(next[ny*s.width:(ny+1)*s.width], s.cells[y*s.width:(y+1)*s.width])
	}
	s.cells = next
}

// Clone returns an independent copy of the screen.
func (s *Screen) Clone() *Screen {
	c := &Screen{width: s.width, height: s.height, cells: make([]Cell, len(s.cells))}
	copy(c.cells, s.cells)
	return c
}

// Cells returns a row-major copy of the cell data.
func (s *Screen) Cells() []Cell {
	out := make([]Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// Equal reports whether both screens have the same size and content.
func (s *Screen) Equal(other *Screen) bool {
	if other == nil || s.width != other.width || s.height != other.height {
		return false
	}
	for i := range s.cells {
		if s.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Float32 returns the cells as float32 values for model input.
func (s *Screen) Float32() []float32 {
	out := make([]float32, len(s.cells))
	for i, c := range s.cells {
		out[i] = float32(c)
	}
	return out
}

// Row renders row y as a string. Non-printable codes render as spaces.
func (s *Screen) Row(y int) string {
	if y < 0 || y >= s.height {
		return strings.Repeat(" ", s.width)
	}
	return RowString(s.cells[y*s.width : (y+1)*s.width])
}

// String converts the screen buffer to a newline-separated string.
func (s *Screen) String() string {
	var sb strings.Builder
	sb.Grow(s.width*s.height + s.height)

	for y := 0; y < s.height; y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}
		sb.WriteString(s.Row(y))
	}
	return sb.String()
}

// RowString converts a row of cell codes to text.
func RowString(row []Cell) string {
	var sb strings.Builder
	sb.Grow(len(row))
	for _, c := range row {
		sb.WriteRune(CellRune(c))
	}
	return sb.String()
}

// CellRune maps a cell code to a printable rune.
func CellRune(c Cell) rune {
	if c < ' ' || c == 0x7f {
		return ' '
	}
	return rune(c)
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
