package agent

import "github.com/vovakirdan/asciigym/internal/core"

// keyActions maps key names, as reported by the terminal layer, to actions.
var keyActions = map[string]core.Action{
	"j":     core.ActionLeft,
	"l":     core.ActionRight,
	"i":     core.ActionUp,
	"k":     core.ActionDown,
	"m":     core.ActionDown,
	"x":     core.ActionButtonA,
	" ":     core.ActionButtonA,
	"space": core.ActionButtonA,
	"z":     core.ActionButtonB,
	"left":  core.ActionLeft,
	"right": core.ActionRight,
	"up":    core.ActionUp,
	"down":  core.ActionDown,
}

// KeyAction returns the action bound to key.
func KeyAction(key string) (core.Action, bool) {
	a, ok := keyActions[key]
	return a, ok
}

// KeyHelp lists the bindings for display.
func KeyHelp() []string {
	return []string{
		"j/←: LEFT  l/→: RIGHT  i/↑: UP  k/m/↓: DOWN",
		"x/space: A  z: B",
	}
}
