package replay

import (
	"fmt"
	"maps"

	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/engine"
)

// DefaultMaxScenes caps the scenes kept for one episode.
const DefaultMaxScenes = 10000

// Scene is one recorded turn.
type Scene struct {
	Screen []core.Cell
	Turn   engine.TurnRecord
	Player map[string]string // Agent diagnostics, may be nil
}

// Record is a replayable episode.
// A Record published by the Recorder is never mutated afterwards.
type Record struct {
	Width     int
	Height    int
	Meta      engine.MetaInfo
	Info      []string
	Scenes    []Scene
	Truncated bool // Scene cap was reached; later turns were not kept
}

// NewRecord creates an empty record for a width x height screen.
func NewRecord(width, height int, meta engine.MetaInfo, info []string) *Record {
	return &Record{
		Width:  width,
		Height: height,
		Meta:   meta,
		Info:   append([]string(nil), info...),
	}
}

// Len returns the number of recorded scenes.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Scenes)
}

// EpisodeID identifies the episode by start time and play id.
func (r *Record) EpisodeID() string {
	return fmt.Sprintf("%s-%d", r.Meta.StartedAt.UTC().Format("20060102T150405.000"), r.Meta.PlayID)
}

// TotalReward returns the total reward at the last recorded scene.
func (r *Record) TotalReward() float64 {
	if r.Len() == 0 {
		return 0
	}
	return r.Scenes[len(r.Scenes)-1].Turn.TotalReward
}

// Screen rebuilds the grid of scene i.
func (r *Record) Screen(i int) *core.Screen {
	if i < 0 || i >= r.Len() {
		return nil
	}
	return core.ScreenFromCells(r.Width, r.Height, r.Scenes[i].Screen)
}

// withScene returns a new record sharing r's scenes plus sc.
// r itself is left untouched; readers holding r keep a consistent view
// because appends only ever write past r's length.
func (r *Record) withScene(sc Scene) *Record {
	next := *r
	next.Scenes = append(r.Scenes, sc)
	return &next
}

// truncated returns a copy of r marked as cut at the scene cap.
func (r *Record) truncated() *Record {
	next := *r
	next.Truncated = true
	return &next
}

// newScene snapshots the game's current turn.
func newScene(g *engine.Game) Scene {
	sc := Scene{Turn: g.TurnRecord()}
	if s := g.Screen(); s != nil {
		sc.Screen = s.Cells()
	}
	if info := g.TurnInfo(); info != nil {
		sc.Player = maps.Clone(info)
	}
	return sc
}
