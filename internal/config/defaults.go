package config

import (
	_ "embed"
	"net"
	"strconv"
)

//go:embed defaults/asciigym.yaml
var defaultYAML []byte

// Default replay endpoint values.
const (
	DefaultHost      = "0.0.0.0"
	DefaultPort      = 7000
	DefaultMaxScenes = 10000
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Replay: ReplayConfig{
			Host:           DefaultHost,
			Port:           DefaultPort,
			ClientHost:     "localhost",
			ClientPort:     DefaultPort,
			MaxScenes:      DefaultMaxScenes,
			TurnIntervalMS: 50,
			BackoffMS:      1000,
		},
		Play: PlayConfig{
			TurnIntervalMS: 100,
			MaxTurns:       0,
		},
		Storage: StorageConfig{
			DBPath: "~/.asciigym/episodes.db",
		},
		Games: GamesConfig{
			Jump:     DefaultJumpConfig(),
			Treasure: DefaultTreasureConfig(),
		},
	}
}

// DefaultJumpConfig returns the default jump game tuning.
func DefaultJumpConfig() JumpConfig {
	return JumpConfig{
		SpaceRate:        0.2,
		InitialSpaceRate: 0.05,
		InitialPower:     3,
		PowerMax:         8,
		StepReward:       0.05,
		FallPenalty:      -1,
	}
}

// DefaultTreasureConfig returns the default treasure game tuning.
func DefaultTreasureConfig() TreasureConfig {
	return TreasureConfig{
		TreasureLife:     40,
		PopSpan:          8,
		InitialTreasures: 5,
		TreasureReward:   0.5,
		KeyPenalty:       -0.1,
		CaughtPenalty:    -1,
		ChaserPeriod:     4,
		WalkerPeriod:     3,
	}
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
