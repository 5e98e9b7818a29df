package core

// Color represents a foreground color for a screen cell.
// Uses ANSI 256-color codes for terminal compatibility.
type Color uint8

// Predefined colors for game elements.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorGray
)

// Palette maps cell codes to display colors. Codes not present use ColorDefault.
type Palette map[Cell]Color

// ColorOf returns the color for a cell code.
func (p Palette) ColorOf(c Cell) Color {
	if p == nil {
		return ColorDefault
	}
	return p[c]
}
