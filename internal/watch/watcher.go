package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// Options tunes a watch session.
type Options struct {
	Timeout    time.Duration // 0 means watch until interrupted
	Debounce   time.Duration // quiet period before a change is considered settled
	MaxRetries int           // consecutive event stream failures before giving up
	RetryDelay time.Duration // pause between reconnect attempts
}

// Watcher drives a capture session: an initial snapshot, then one snapshot
// per settled UI change. Platforms with an accessibility event stream get
// event-driven capture; the rest fall back to polling.
type Watcher struct {
	src   Source
	cap   *Capturer
	note  Notifier
	opts  Options
	clock clock.Clock

	// spawn is swapped out in tests.
	spawn func(argv []string) (eventStream, error)
}

// NewWatcher wires a watcher over a prepared capturer.
func NewWatcher(src Source, cap *Capturer, note Notifier, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	return &Watcher{
		src:   src,
		cap:   cap,
		note:  note,
		opts:  opts,
		clock: clock.New(),
		spawn: startProcEvents,
	}
}

// Run blocks until the deadline passes, the context is canceled, or the
// event stream exhausts its reconnect budget.
func (w *Watcher) Run(ctx context.Context) error {
	num := 1
	if _, err := w.cap.Capture(ctx, TriggerInitial, num); err != nil {
		return err
	}

	var deadline time.Time
	if w.opts.Timeout > 0 {
		deadline = w.clock.Now().Add(w.opts.Timeout)
	}

	if argv, ok := w.src.EventStream(); ok {
		return w.runEvents(ctx, argv, deadline, num)
	}
	return w.runPoll(ctx, deadline, num)
}

// runPoll snapshots on a fixed interval. The interval floors at two seconds
// so a short debounce does not hammer the device with dumps.
func (w *Watcher) runPoll(ctx context.Context, deadline time.Time, num int) error {
	interval := w.opts.Debounce
	if interval < 2*time.Second {
		interval = 2 * time.Second
	}
	w.note.Statusf("poll mode (every %s)", interval)

	ticker := w.clock.Ticker(interval)
	defer ticker.Stop()

	var deadlineC <-chan time.Time
	if !deadline.IsZero() {
		timer := w.clock.Timer(deadline.Sub(w.clock.Now()))
		defer timer.Stop()
		deadlineC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadlineC:
			w.note.Statusf("timeout reached")
			return nil
		case <-ticker.C:
			num++
			if _, err := w.cap.Capture(ctx, TriggerPoll, num); err != nil {
				return err
			}
		}
	}
}

// runEvents supervises the event subprocess. A settled event (debounce
// elapsed since the last change) stops the stream, snapshots, and
// reconnects. Stream failures reconnect too, up to MaxRetries in a row.
func (w *Watcher) runEvents(ctx context.Context, argv []string, deadline time.Time, num int) error {
	retries := 0

	for retries < w.opts.MaxRetries {
		if w.pastDeadline(deadline) {
			w.note.Statusf("timeout reached")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		stream, err := w.spawn(argv)
		if err != nil {
			w.note.Warnf("failed to start events: %v", err)
			retries++
			if retries < w.opts.MaxRetries {
				if err := w.sleep(ctx, w.opts.RetryDelay); err != nil {
					return err
				}
			}
			continue
		}

		w.note.Statusf("events connected")
		retries = 0

		snapshotted, err := w.superviseStream(ctx, stream, deadline, &num)
		stream.Stop()
		if err != nil {
			return err
		}
		if w.pastDeadline(deadline) {
			w.note.Statusf("timeout reached")
			return nil
		}
		if !snapshotted {
			retries++
			if retries < w.opts.MaxRetries {
				w.note.Statusf("reconnecting (%d/%d)...", retries, w.opts.MaxRetries)
				if err := w.sleep(ctx, w.opts.RetryDelay); err != nil {
					return err
				}
			}
		}
	}

	return fmt.Errorf("event stream failed %d times in a row", w.opts.MaxRetries)
}

// superviseStream watches one stream incarnation until an event settles (it
// snapshots and returns true), the stream dies (returns false), or the
// deadline or context ends the session.
func (w *Watcher) superviseStream(ctx context.Context, stream eventStream, deadline time.Time, num *int) (bool, error) {
	for stream.Alive() {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if w.pastDeadline(deadline) {
			return false, nil
		}

		if evt, at, ok := stream.Last(); ok && w.clock.Now().Sub(at) >= w.opts.Debounce {
			stream.Clear()
			stream.Stop()
			*num++
			if _, err := w.cap.Capture(ctx, evt, *num); err != nil {
				return false, err
			}
			return true, nil
		}

		if err := w.sleep(ctx, 100*time.Millisecond); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (w *Watcher) pastDeadline(deadline time.Time) bool {
	return !deadline.IsZero() && !w.clock.Now().Before(deadline)
}

// sleep waits on the injected clock but aborts on context cancellation.
func (w *Watcher) sleep(ctx context.Context, d time.Duration) error {
	t := w.clock.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
