// Package config provides YAML-based harness configuration with
// environment variable overrides for the replay endpoints.
package config

import "time"

// Config contains all harness configuration.
type Config struct {
	Replay  ReplayConfig  `yaml:"replay"`
	Play    PlayConfig    `yaml:"play"`
	Storage StorageConfig `yaml:"storage"`
	Games   GamesConfig   `yaml:"games"`
}

// ReplayConfig configures the replay server, client and recorder.
type ReplayConfig struct {
	Host           string `yaml:"host" env:"GAME_SERVER_HOST"`   // Server bind host
	Port           int    `yaml:"port" env:"GAME_SERVER_PORT"`   // Server bind port
	ClientHost     string `yaml:"client_host" env:"REPLAY_HOST"` // Host the viewer connects to
	ClientPort     int    `yaml:"client_port" env:"REPLAY_PORT"` // Port the viewer connects to
	MaxScenes      int    `yaml:"max_scenes"`                    // Snapshot cap per episode
	TurnIntervalMS int    `yaml:"turn_interval_ms"`              // Playback time per recorded turn
	BackoffMS      int    `yaml:"backoff_ms"`                    // Wait after an empty poll
}

// PlayConfig configures interactive and training runs.
type PlayConfig struct {
	TurnIntervalMS int `yaml:"turn_interval_ms"` // Human turn length
	MaxTurns       int `yaml:"max_turns"`        // 0 = unlimited
}

// StorageConfig configures the episode repository.
type StorageConfig struct {
	DBPath string `yaml:"db_path" env:"ASCIIGYM_DB"`
}

// GamesConfig holds per-game tuning.
type GamesConfig struct {
	Jump     JumpConfig     `yaml:"jump"`
	Treasure TreasureConfig `yaml:"treasure"`
}

// JumpConfig tunes the side-scrolling jump game.
type JumpConfig struct {
	SpaceRate        float64 `yaml:"space_rate"`         // Gap probability for new ground cells
	InitialSpaceRate float64 `yaml:"initial_space_rate"` // Gap probability for the starting course
	InitialPower     int     `yaml:"initial_power"`
	PowerMax         int     `yaml:"power_max"`
	StepReward       float64 `yaml:"step_reward"`
	FallPenalty      float64 `yaml:"fall_penalty"`
}

// TreasureConfig tunes the treasure hunt game.
type TreasureConfig struct {
	TreasureLife     int     `yaml:"treasure_life"`     // Turns a treasure stays on the board
	PopSpan          int     `yaml:"pop_span"`          // Turns between new treasures
	InitialTreasures int     `yaml:"initial_treasures"`
	TreasureReward   float64 `yaml:"treasure_reward"`
	KeyPenalty       float64 `yaml:"key_penalty"`   // Penalty for a non-effective action
	CaughtPenalty    float64 `yaml:"caught_penalty"`
	ChaserPeriod     int     `yaml:"chaser_period"` // Turns between X enemy moves
	WalkerPeriod     int     `yaml:"walker_period"` // Turns between Y enemy moves
}

// Addr returns the server listen address.
func (r ReplayConfig) Addr() string {
	return joinHostPort(r.Host, r.Port)
}

// ClientAddr returns the address the replay viewer dials.
func (r ReplayConfig) ClientAddr() string {
	return joinHostPort(r.ClientHost, r.ClientPort)
}

// TurnInterval returns the playback duration of one recorded turn.
func (r ReplayConfig) TurnInterval() time.Duration {
	return time.Duration(r.TurnIntervalMS) * time.Millisecond
}

// Backoff returns the wait after a poll returned nothing.
func (r ReplayConfig) Backoff() time.Duration {
	return time.Duration(r.BackoffMS) * time.Millisecond
}

// TurnInterval returns the length of one human-paced turn.
func (p PlayConfig) TurnInterval() time.Duration {
	return time.Duration(p.TurnIntervalMS) * time.Millisecond
}
