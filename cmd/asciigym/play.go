package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/asciigym/internal/agent"
	"github.com/vovakirdan/asciigym/internal/engine"
	"github.com/vovakirdan/asciigym/internal/platform/tui"
	"github.com/vovakirdan/asciigym/internal/registry"
	"github.com/vovakirdan/asciigym/internal/replay"
)

var (
	flagPlayServe   bool
	flagPlayNoStore bool
)

var playCmd = &cobra.Command{
	Use:   "play <game>",
	Short: "Play a game from the keyboard",
	Long: `Play the specified game yourself. Each turn lasts the configured
turn interval; the last key pressed during a turn is the action.

Controls:
  j/Left    - Left
  l/Right   - Right
  i/Up      - Up
  k/m/Down  - Down
  x/Space   - Button A
  z         - Button B
  Ctrl+S    - Save a screenshot
  q/Ctrl+C  - Quit

Episodes are recorded like any agent's, so a second terminal can watch
them with 'asciigym replay --mode CURRENT'.

Examples:
  asciigym play jump
  asciigym play treasure --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagPlayServe, "serve", true, "Serve recordings on the replay port while playing")
	playCmd.Flags().BoolVar(&flagPlayNoStore, "no-store", false, "Do not save high-score episodes")
}

func runPlay(cmd *cobra.Command, args []string) error {
	gameID := args[0]
	if !registry.Exists(gameID) {
		return fmt.Errorf("unknown game %q, run 'asciigym list' to see available games", gameID)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("play needs an interactive terminal")
	}

	rules, err := registry.Create(gameID)
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	quiet := log.New(io.Discard)

	human := agent.NewHuman(appConfig.Play.TurnInterval())
	recOpts := []replay.RecorderOption{
		replay.WithMaxScenes(appConfig.Replay.MaxScenes),
		replay.WithRecorderLogger(quiet),
		replay.WithAgentName(human.Name()),
	}
	if !flagPlayNoStore {
		store, storeErr := openStore()
		if storeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", storeErr)
			// Continue without storage - game still works
		} else {
			defer store.Close()
			recOpts = append(recOpts, replay.WithRepository(store))
		}
	}
	recorder := replay.NewRecorder(recOpts...)

	g := engine.NewGame(rules, human,
		engine.WithConfig(runtimeConfig()),
		engine.WithMaxTurns(appConfig.Play.MaxTurns),
		engine.WithLogger(quiet),
	)
	g.AddObserver(recorder)

	if flagPlayServe {
		srv := replay.NewServer(appConfig.Replay.Addr(), recorder, replay.WithServerLogger(quiet))
		srv.RunInBackground(cmd.Context())
	}

	return tui.RunPlay(cmd.Context(), g, human)
}
