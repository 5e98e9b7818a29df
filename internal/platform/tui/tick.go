// Package tui provides the Bubble Tea front ends of the harness: the
// replay viewer, human debug play and the SSH spectator server.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg advances replay playback by one scene.
type TickMsg time.Time

// retryMsg triggers a new poll after a backoff.
type retryMsg struct{}

// tickCmd returns a Bubble Tea command that sends one TickMsg after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// retryCmd waits out backoff before polling again.
func retryCmd(backoff time.Duration) tea.Cmd {
	return tea.Tick(backoff, func(time.Time) tea.Msg {
		return retryMsg{}
	})
}
