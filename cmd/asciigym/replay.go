package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/asciigym/internal/platform/tui"
	"github.com/vovakirdan/asciigym/internal/replay"
)

var (
	flagReplayMode string
	flagReplayHost string
	flagReplayPort int
	flagReplayDump bool
	flagReplayOnce bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Watch episodes from a replay server",
	Long: `Connect to a replay server and play back what it sends.

Modes:
  LAST        - The last completed episode (default)
  CURRENT     - The episode being played right now
  HIGHSCORES  - Every stored high-score episode of the agent

Keys in the viewer:
  1/l  Last   2/c  Current   3/h  High scores
  p    Pause  n    Skip      q    Quit

Without a terminal, or with --dump, scenes are printed as plain text.

Examples:
  asciigym replay
  asciigym replay --mode CURRENT
  asciigym replay --host gpu-box --port 7000
  asciigym replay --mode HIGHSCORES --dump --once`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&flagReplayMode, "mode", "LAST", "Request mode: LAST, CURRENT or HIGHSCORES")
	replayCmd.Flags().StringVar(&flagReplayHost, "host", "", "Replay server host (default from config)")
	replayCmd.Flags().IntVar(&flagReplayPort, "port", 0, "Replay server port (default from config)")
	replayCmd.Flags().BoolVar(&flagReplayDump, "dump", false, "Print scenes as plain text")
	replayCmd.Flags().BoolVar(&flagReplayOnce, "once", false, "Exit after one poll (plain text only)")
}

func runReplay(cmd *cobra.Command, _ []string) error {
	mode, ok := replay.LookupMode(flagReplayMode)
	if !ok {
		return fmt.Errorf("unknown replay mode %q", flagReplayMode)
	}

	rc := appConfig.Replay
	if flagReplayHost != "" {
		rc.ClientHost = flagReplayHost
	}
	if flagReplayPort > 0 {
		rc.ClientPort = flagReplayPort
	}
	client := replay.NewClient(rc.ClientAddr())

	ctx := cmd.Context()
	if flagReplayDump || !term.IsTerminal(int(os.Stdout.Fd())) {
		return dumpReplays(ctx, client, mode, rc.TurnInterval(), rc.Backoff())
	}
	return tui.RunViewer(ctx, client, tui.ViewerConfig{
		Mode:         mode,
		TurnInterval: rc.TurnInterval(),
		Backoff:      rc.Backoff(),
	})
}

// dumper prints replays as plain text.
type dumper struct {
	client  *replay.Client
	mode    replay.Mode
	pacer   *replay.Pacer
	backoff time.Duration
	out     io.Writer
	logger  *log.Logger
}

// dumpReplays polls and prints scenes until ctx is cancelled, or after one
// poll with --once.
func dumpReplays(ctx context.Context, client *replay.Client, mode replay.Mode, interval, backoff time.Duration) error {
	if flagReplayOnce {
		interval = time.Nanosecond
	}
	d := &dumper{
		client:  client,
		mode:    mode,
		pacer:   replay.NewPacer(interval),
		backoff: backoff,
		out:     os.Stdout,
		logger:  newLogger("replay"),
	}
	if flagReplayOnce {
		_, err := d.poll(ctx)
		return ignoreDone(err)
	}
	return d.run(ctx)
}

// run polls until ctx is done. A poll that played something is followed by
// the next poll right away; empty or failed polls wait out the backoff.
func (d *dumper) run(ctx context.Context) error {
	for {
		played, err := d.poll(ctx)
		if err != nil {
			return ignoreDone(err)
		}
		if played {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(d.backoff):
		}
	}
}

// poll fetches once and plays what came back. Missing data, unreadable
// frames and unreachable servers are logged and reported as nothing played.
func (d *dumper) poll(ctx context.Context) (played bool, err error) {
	recs, err := d.client.Poll(ctx, d.mode)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, replay.ErrNoRecord):
		d.logger.Info("nothing recorded yet", "mode", d.mode)
		return false, nil
	case errors.Is(err, replay.ErrBadFrame):
		d.logger.Warn("unreadable replay data", "addr", d.client.Addr(), "err", err)
		return false, nil
	case isConnError(err):
		d.logger.Warn("replay server unreachable", "addr", d.client.Addr(), "err", err)
		return false, nil
	default:
		return false, err
	}

	for _, rec := range recs {
		if rec.Len() == 0 {
			continue
		}
		if err := d.pacer.Play(ctx, rec, d.printScene(rec)); err != nil {
			return played, err
		}
		played = true
	}
	if !played {
		d.logger.Info("episode has no scenes yet", "mode", d.mode)
	}
	return played, nil
}

func (d *dumper) printScene(rec *replay.Record) func(i int, sc replay.Scene) error {
	return func(i int, sc replay.Scene) error {
		s := rec.Screen(i)
		if s == nil {
			return fmt.Errorf("scene %d does not match the %dx%d grid", i, rec.Width, rec.Height)
		}
		fmt.Fprintf(d.out, "--- play %d  turn %d  reward %s  total %s\n",
			rec.Meta.PlayID,
			sc.Turn.Turn,
			strconv.FormatFloat(sc.Turn.LastReward, 'g', -1, 64),
			strconv.FormatFloat(sc.Turn.TotalReward, 'g', -1, 64),
		)
		fmt.Fprintln(d.out, s.String())
		if i == rec.Len()-1 && rec.Truncated {
			fmt.Fprintln(d.out, "(truncated at scene cap)")
		}
		return nil
	}
}

func isConnError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// ignoreDone drops the error of a context that ended the run.
func ignoreDone(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
