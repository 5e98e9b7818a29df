package replay

import (
	"context"
	"time"
)

// DefaultTurnInterval is the playback time of one recorded turn.
const DefaultTurnInterval = 50 * time.Millisecond

// Pacer plays scenes back at a fixed wall-clock cadence, independent of
// how fast the episode was originally played.
type Pacer struct {
	interval time.Duration
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer. interval <= 0 uses DefaultTurnInterval.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		interval = DefaultTurnInterval
	}
	return &Pacer{interval: interval, now: time.Now, sleep: sleepCtx}
}

// Interval returns the time budget of one scene.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Remaining returns what is left of a scene's budget that began at
// start. Never negative.
func (p *Pacer) Remaining(start time.Time) time.Duration {
	left := p.interval - p.now().Sub(start)
	if left < 0 {
		return 0
	}
	return left
}

// Play renders every scene of rec in order, sleeping out the rest of each
// interval. It stops at the first render error or when ctx is done.
func (p *Pacer) Play(ctx context.Context, rec *Record, render func(i int, sc Scene) error) error {
	for i, sc := range rec.Scenes {
		start := p.now()
		if err := render(i, sc); err != nil {
			return err
		}
		if left := p.Remaining(start); left > 0 {
			if err := p.sleep(ctx, left); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
