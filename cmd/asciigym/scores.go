package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/asciigym/internal/platform/tui"
	"github.com/vovakirdan/asciigym/internal/registry"
	"github.com/vovakirdan/asciigym/internal/storage"
)

var (
	flagScoresTUI   bool
	flagScoresClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores <game>",
	Short: "Show episode rewards for a game",
	Long: `Display the top 10 episode rewards for the specified game, with
totals across every recorded episode. --tui opens the interactive
scoreboard instead, --clear deletes the game's rewards.

Saved high-score episodes are not touched by --clear.

Examples:
  asciigym scores jump
  asciigym scores treasure --tui
  asciigym scores jump --clear`,
	Args: cobra.ExactArgs(1),
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().BoolVar(&flagScoresTUI, "tui", false, "Open the interactive scoreboard")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete all recorded rewards for the game")
}

func runScores(_ *cobra.Command, args []string) error {
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

	switch {
	case flagScoresClear:
		if err := store.ClearScores(gameID); err != nil {
			return err
		}
		fmt.Printf("Cleared rewards for %s.\n", rules.Title())
		return nil
	case flagScoresTUI:
		width, height, sizeErr := term.GetSize(int(os.Stdout.Fd()))
		if sizeErr != nil {
			return fmt.Errorf("scoreboard needs an interactive terminal: %w", sizeErr)
		}
		return tui.RunScoreboard(store, width, height)
	}
	return printScores(os.Stdout, store, gameID, rules.Title())
}

// printScores writes the top rewards and totals for gameID.
func printScores(w io.Writer, store *storage.Store, gameID, title string) error {
	scores, err := store.TopScores(gameID, 10)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Episode Rewards - %s\n\n", title)
	if len(scores) == 0 {
		fmt.Fprintln(w, "No episodes recorded yet.")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Run 'asciigym train %s' to record some.\n", gameID)
		return nil
	}

	fmt.Fprintf(w, "  %-4s  %-10s  %-10s  %s\n", "Rank", "Reward", "Agent", "Date")
	fmt.Fprintf(w, "  %-4s  %-10s  %-10s  %s\n", "----", "------", "-----", "----")
	for i, entry := range scores {
		fmt.Fprintf(w, "  %-4d  %-10.2f  %-10s  %s\n", i+1, entry.Score, entry.Agent, entry.CreatedAt.Format("2006-01-02 15:04"))
	}

	fmt.Fprintln(w)
	highScore, err := store.HighScore(gameID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Best: %.2f", highScore)
	if stats, statsErr := store.GetGameStats(gameID); statsErr == nil {
		fmt.Fprintf(w, "  Average: %.2f  Episodes: %d", stats.AvgScore, stats.Episodes)
	}
	fmt.Fprintln(w)
	return nil
}
