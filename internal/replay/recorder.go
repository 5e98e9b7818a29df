package replay

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/asciigym/internal/engine"
)

// Repository persists high-score episodes.
type Repository interface {
	SaveEpisode(agent, episodeID string, rec *Record) error
	LoadAllEpisodes(agent string) ([]*Record, error)
}

// Source supplies records to the replay server.
type Source interface {
	Current() *Record
	Last() *Record
	HighScores() ([]*Record, error)
}

// Recorder is an engine observer that keeps the episode being played and
// the last completed one, and stores episodes that beat the high score.
//
// Observer callbacks run on the engine goroutine; Current, Last and
// HighScores may be called from any goroutine.
type Recorder struct {
	maxScenes int
	repo      Repository
	logger    *log.Logger

	current atomic.Pointer[Record]
	last    atomic.Pointer[Record]
	agent   atomic.Pointer[string]

	// Engine goroutine only.
	flushed bool
	saves   int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithMaxScenes sets the scene cap. n <= 0 keeps the default.
func WithMaxScenes(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.maxScenes = n
		}
	}
}

// WithRepository enables high-score persistence.
func WithRepository(repo Repository) RecorderOption {
	return func(r *Recorder) {
		r.repo = repo
	}
}

// WithAgentName sets the agent whose high scores are served before the
// first episode starts.
func WithAgentName(name string) RecorderOption {
	return func(r *Recorder) {
		r.agent.Store(&name)
	}
}

// WithRecorderLogger sets the recorder logger.
func WithRecorderLogger(l *log.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRecorder creates a recorder with the default scene cap.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		maxScenes: DefaultMaxScenes,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "replay",
		}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnGameStart opens a new record for the episode.
func (r *Recorder) OnGameStart(g *engine.Game) {
	w, h := g.Config().Width, g.Config().Height
	if s := g.Screen(); s != nil {
		w, h = s.Width(), s.Height()
	}
	name := g.AgentName()
	r.agent.Store(&name)
	r.flushed = false
	r.current.Store(NewRecord(w, h, g.MetaInfo(), g.Info()))
}

// OnUpdate appends the turn, or flushes the record once the cap is hit.
// Turns after the flush are dropped.
func (r *Recorder) OnUpdate(g *engine.Game) {
	if r.flushed {
		return
	}
	cur := r.current.Load()
	if cur == nil {
		return
	}
	if cur.Len() >= r.maxScenes {
		t := cur.truncated()
		r.current.Store(t)
		r.last.Store(t)
		r.flushed = true
		r.logger.Warn("scene cap reached, later turns are not recorded",
			"play_id", g.PlayID(),
			"max_scenes", r.maxScenes,
		)
		return
	}
	r.current.Store(cur.withScene(newScene(g)))
}

// OnGameOver publishes the record as last completed and stores it when
// the episode beat the high score. The engine raises its high score only
// after observers run, so g.HighScore is still the previous best here.
func (r *Recorder) OnGameOver(g *engine.Game) {
	cur := r.current.Load()
	if cur == nil {
		return
	}
	r.last.Store(cur)

	if r.repo == nil || g.TotalReward() <= g.HighScore() {
		return
	}
	r.saves++
	if err := r.repo.SaveEpisode(g.AgentName(), cur.EpisodeID(), cur); err != nil {
		r.logger.Error("cannot save high-score episode",
			"agent", g.AgentName(),
			"play_id", g.PlayID(),
			"error", err,
		)
		return
	}
	r.logger.Info("high score episode saved",
		"agent", g.AgentName(),
		"play_id", g.PlayID(),
		"total_reward", g.TotalReward(),
	)
}

// Current returns the record of the episode in progress, or nil.
func (r *Recorder) Current() *Record {
	return r.current.Load()
}

// Last returns the last completed record, or nil.
func (r *Recorder) Last() *Record {
	return r.last.Load()
}

// HighScores loads the stored episodes of the current agent.
func (r *Recorder) HighScores() ([]*Record, error) {
	if r.repo == nil {
		return nil, nil
	}
	name := r.agent.Load()
	if name == nil {
		return nil, nil
	}
	return r.repo.LoadAllEpisodes(*name)
}

// SaveAttempts returns how many high-score saves were attempted.
func (r *Recorder) SaveAttempts() int {
	return r.saves
}
