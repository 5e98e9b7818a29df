// Package replay records episodes as they are played and serves them to
// viewers over a small TCP protocol: the viewer sends a mode token, the
// server answers with one versioned frame and closes the connection.
package replay

import "strings"

// Mode selects which record(s) a viewer asks for.
type Mode int

const (
	// ModeLastCompleted requests the most recently finished episode.
	ModeLastCompleted Mode = iota
	// ModeCurrent requests the episode being played right now.
	ModeCurrent
	// ModeHighScores requests every stored high-score episode.
	ModeHighScores
)

// Wire tokens.
const (
	TokenLast       = "LAST"
	TokenCurrent    = "CURRENT"
	TokenHighScores = "HIGHSCORES"
)

var modeTokens = map[string]Mode{
	TokenLast:             ModeLastCompleted,
	"LAST_COMPLETED":      ModeLastCompleted,
	TokenCurrent:          ModeCurrent,
	"CURRENT_IN_PROGRESS": ModeCurrent,
	TokenHighScores:       ModeHighScores,
	"ALL_HIGH_SCORES":     ModeHighScores,
}

// Token returns the wire token for m.
func (m Mode) Token() string {
	switch m {
	case ModeCurrent:
		return TokenCurrent
	case ModeHighScores:
		return TokenHighScores
	default:
		return TokenLast
	}
}

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeCurrent:
		return "current"
	case ModeHighScores:
		return "high scores"
	default:
		return "last completed"
	}
}

// LookupMode resolves a token case-insensitively.
func LookupMode(token string) (Mode, bool) {
	m, ok := modeTokens[strings.ToUpper(strings.TrimSpace(token))]
	return m, ok
}

// ParseMode resolves a token, falling back to ModeLastCompleted for
// empty or unknown tokens so old viewers that send nothing still work.
func ParseMode(token string) Mode {
	if m, ok := LookupMode(token); ok {
		return m
	}
	return ModeLastCompleted
}
