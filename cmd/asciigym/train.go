package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/asciigym/internal/agent"
	"github.com/vovakirdan/asciigym/internal/engine"
	"github.com/vovakirdan/asciigym/internal/registry"
	"github.com/vovakirdan/asciigym/internal/replay"
)

var (
	flagEpisodes   int
	flagMaxTurns   int
	flagStickiness float64
	flagAgentName  string
	flagTrainServe bool
)

var trainCmd = &cobra.Command{
	Use:   "train <game>",
	Short: "Run a random agent and record its episodes",
	Long: `Run episodes of the specified game with the random baseline agent.

Every episode's reward is stored, episodes that beat the high score are
saved with all their scenes, and the replay server lets viewers watch
the run while it happens.

Examples:
  asciigym train jump --episodes 100
  asciigym train treasure --episodes 0 --stickiness 0.8
  asciigym train jump --max-turns 500 --no-serve`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().IntVar(&flagEpisodes, "episodes", 10, "Episodes to run (0 = until interrupted)")
	trainCmd.Flags().IntVar(&flagMaxTurns, "max-turns", 0, "Turn limit per episode (0 = config value)")
	trainCmd.Flags().Float64Var(&flagStickiness, "stickiness", 0, "Probability of repeating the previous action")
	trainCmd.Flags().StringVar(&flagAgentName, "agent", "random", "Agent name used for stored episodes")
	trainCmd.Flags().BoolVar(&flagTrainServe, "serve", true, "Serve recordings on the replay port")
}

func runTrain(cmd *cobra.Command, args []string) error {
	gameID := args[0]
	if !registry.Exists(gameID) {
		return fmt.Errorf("unknown game %q, run 'asciigym list' to see available games", gameID)
	}

	rules, err := registry.Create(gameID)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	logger := newLogger("train")
	rcfg := runtimeConfig()
	bot := agent.NewRandom(rules, rcfg.Seed,
		agent.WithName(flagAgentName),
		agent.WithStickiness(flagStickiness),
	)
	recorder := replay.NewRecorder(
		replay.WithMaxScenes(appConfig.Replay.MaxScenes),
		replay.WithRepository(store),
		replay.WithAgentName(flagAgentName),
		replay.WithRecorderLogger(newLogger("recorder")),
	)

	maxTurns := appConfig.Play.MaxTurns
	if flagMaxTurns > 0 {
		maxTurns = flagMaxTurns
	}
	g := engine.NewGame(rules, bot,
		engine.WithConfig(rcfg),
		engine.WithMaxTurns(maxTurns),
		engine.WithLogger(newLogger("engine")),
	)
	g.AddObserver(recorder)

	ctx := cmd.Context()
	if flagTrainServe {
		srv := replay.NewServer(appConfig.Replay.Addr(), recorder,
			replay.WithServerLogger(newLogger("replay")))
		srv.RunInBackground(ctx)
	}

	// Every episode's reward goes to the scores table.
	g.AddObserver(&engine.ObserverFuncs{
		GameOver: func(g *engine.Game) {
			if _, saveErr := store.SaveScore(gameID, g.AgentName(), g.TotalReward()); saveErr != nil {
				logger.Warn("could not save score", "err", saveErr)
			}
		},
	})

	logger.Info("training started",
		"game", gameID,
		"agent", g.AgentName(),
		"run", g.RunID(),
		"episodes", flagEpisodes,
	)

	played := 0
	for flagEpisodes <= 0 || played < flagEpisodes {
		if ctx.Err() != nil {
			break
		}
		reward := g.Play()
		played++
		logger.Info("episode finished",
			"play", g.PlayID(),
			"turns", g.Turn(),
			"reward", fmt.Sprintf("%.2f", reward),
			"high", fmt.Sprintf("%.2f", g.HighScore()),
			"invalid", g.InvalidActions(),
		)
	}

	stats, err := store.GetGameStats(gameID)
	if err != nil {
		return err
	}
	logger.Info("training finished",
		"played", played,
		"saved", recorder.SaveAttempts(),
		"episodes_total", stats.Episodes,
		"best", fmt.Sprintf("%.2f", stats.HighScore),
	)
	return nil
}
