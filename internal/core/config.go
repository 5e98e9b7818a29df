package core

// RuntimeConfig contains configuration passed to games at initialization.
type RuntimeConfig struct {
	Width  int   // Screen width in cells
	Height int   // Screen height in cells
	Seed   int64 // RNG seed for deterministic episodes (0 = time based)
}

// Default screen size shared by the ASCII games.
const (
	DefaultWidth  = 40
	DefaultHeight = 24
)

// DefaultConfig returns a RuntimeConfig with the standard 40x24 grid.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Seed:   0, // 0 means use current time in platform layer
	}
}
