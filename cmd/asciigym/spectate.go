package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/asciigym/internal/platform/tui"
	"github.com/vovakirdan/asciigym/internal/replay"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagSpecMode    string
)

var spectateCmd = &cobra.Command{
	Use:   "spectate",
	Short: "Serve the replay viewer over SSH",
	Long: `Start an SSH server where every connection gets its own replay
viewer polling the configured replay server.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.asciigym/host_key

Examples:
  asciigym spectate                       # Listen on :23234
  asciigym spectate --ssh :2222 --mode CURRENT

Users can connect with:
  ssh localhost -p 23234`,
	RunE: runSpectate,
}

func init() {
	spectateCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	spectateCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	spectateCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	spectateCmd.Flags().StringVar(&flagSpecMode, "mode", "LAST", "Initial replay mode for new sessions")
}

func runSpectate(cmd *cobra.Command, _ []string) error {
	mode, ok := replay.LookupMode(flagSpecMode)
	if !ok {
		return fmt.Errorf("unknown replay mode %q", flagSpecMode)
	}

	cfg := tui.DefaultSpectatorConfig()
	cfg.Address = flagSSHAddr
	cfg.HostKeyPath = flagHostKey
	cfg.ReplayAddr = appConfig.Replay.ClientAddr()
	cfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	cfg.Viewer = tui.ViewerConfig{
		Mode:         mode,
		TurnInterval: appConfig.Replay.TurnInterval(),
		Backoff:      appConfig.Replay.Backoff(),
	}

	server, err := tui.NewSpectatorServer(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Starting spectator SSH server on %s\n", cfg.Address)
	fmt.Printf("Replaying from %s\n", cfg.ReplayAddr)
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe(cmd.Context())
}
