package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagEpisodesLimit int

var episodesCmd = &cobra.Command{
	Use:   "episodes [agent]",
	Short: "List stored high-score episodes",
	Long: `List the high-score episodes saved in the episode database, best
first. Without an agent name, episodes of every agent are listed.

Examples:
  asciigym episodes
  asciigym episodes random --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEpisodes,
}

func init() {
	episodesCmd.Flags().IntVar(&flagEpisodesLimit, "limit", 20, "Maximum episodes to list")
}

func runEpisodes(_ *cobra.Command, args []string) error {
	agentName := ""
	if len(args) == 1 {
		agentName = args[0]
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.ListEpisodes(agentName, flagEpisodesLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No episodes stored yet.")
		fmt.Println()
		fmt.Println("Run 'asciigym train <game>' to record some.")
		return nil
	}

	fmt.Printf("  %-10s  %-10s  %-8s  %-6s  %-10s  %s\n", "Agent", "Game", "Reward", "Scenes", "Saved", "Episode")
	fmt.Printf("  %-10s  %-10s  %-8s  %-6s  %-10s  %s\n", "-----", "----", "------", "------", "-----", "-------")
	for _, e := range entries {
		scenes := fmt.Sprintf("%d", e.Scenes)
		if e.Truncated {
			scenes += "+"
		}
		fmt.Printf("  %-10s  %-10s  %-8.2f  %-6s  %-10s  %s\n",
			e.Agent, e.GameID, e.TotalReward, scenes, e.CreatedAt.Format("2006-01-02"), e.EpisodeID)
	}
	return nil
}
