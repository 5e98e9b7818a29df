// asciigym runs turn-based ASCII games for agents and replays what they did.
//
// Usage:
//
//	asciigym list                - List available games
//	asciigym play <game>         - Play a game from the keyboard
//	asciigym train <game>        - Run a random agent and serve its replays
//	asciigym replay              - Watch episodes from a replay server
//	asciigym spectate            - Serve the replay viewer over SSH
//	asciigym episodes [agent]    - List stored high-score episodes
//	asciigym scores <game>       - Show episode rewards for a game
//
// Global flags:
//
//	--config <path>     - Harness config YAML
//	--seed <value>      - RNG seed for reproducible episodes
//	--db <path>         - Episode database (default: ~/.asciigym/episodes.db)
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/asciigym/internal/config"
	"github.com/vovakirdan/asciigym/internal/core"
	"github.com/vovakirdan/asciigym/internal/games/jump"
	"github.com/vovakirdan/asciigym/internal/games/treasure"
	"github.com/vovakirdan/asciigym/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagSeed     int64
	flagDBPath   string
	flagLogLevel string

	// appConfig is loaded before any subcommand runs.
	appConfig = config.Default()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "asciigym",
	Short: "ASCII Gym - turn-based games for reinforcement learning agents",
	Long: `ASCII Gym runs small turn-based games on a character grid, records
every episode and serves the recordings to replay viewers.

Available commands:
  list      - Show all available games
  play      - Play a game yourself
  train     - Run a random agent for a number of episodes
  replay    - Watch recorded episodes
  spectate  - Serve the replay viewer over SSH
  episodes  - List stored high-score episodes
  scores    - View episode rewards

Examples:
  asciigym list
  asciigym play jump
  asciigym train treasure --episodes 100
  asciigym replay --mode CURRENT
  asciigym scores jump`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to harness config YAML")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to episode database (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(spectateCmd)
	rootCmd.AddCommand(episodesCmd)
	rootCmd.AddCommand(scoresCmd)
}

// loadConfig reads the harness config and hands game tuning to the games.
func loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	appConfig = cfg

	jump.SetConfig(cfg.Games.Jump)
	treasure.SetConfig(cfg.Games.Treasure)
	return nil
}

// newLogger returns a stderr logger honouring --log-level.
func newLogger(prefix string) *log.Logger {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
}

// runtimeConfig returns the grid size and seed for new games.
func runtimeConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	cfg.Seed = flagSeed
	return cfg
}

// openStore opens the configured episode database.
func openStore() (*storage.Store, error) {
	store, err := storage.Open(appConfig.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("could not open episode database: %w", err)
	}
	return store, nil
}
