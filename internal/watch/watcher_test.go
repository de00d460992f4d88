package watch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream is a scriptable event stream incarnation.
type fakeStream struct {
	mu    sync.Mutex
	evt   string
	at    time.Time
	alive bool
}

func newFakeStream(evt string) *fakeStream {
	s := &fakeStream{alive: true}
	if evt != "" {
		s.evt = evt
		s.at = time.Now()
	}
	return s
}

func (s *fakeStream) Last() (string, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evt, s.at, s.evt != ""
}

func (s *fakeStream) Clear() {
	s.mu.Lock()
	s.evt = ""
	s.mu.Unlock()
}

func (s *fakeStream) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *fakeStream) Stop() {
	s.mu.Lock()
	s.alive = false
	s.mu.Unlock()
}

// scriptedSpawn returns streams (or errors) in sequence; exhausted scripts
// repeat the last step.
type scriptedSpawn struct {
	mu    sync.Mutex
	steps []func() (eventStream, error)
	calls int
}

func (s *scriptedSpawn) next(argv []string) (eventStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i]()
}

func failSpawn() (eventStream, error)       { return nil, fmt.Errorf("spawn refused") }
func deadSpawn() (eventStream, error)       { s := newFakeStream(""); s.alive = false; return s, nil }
func idleSpawn() (eventStream, error)       { return newFakeStream(""), nil }
func eventSpawn(evt string) func() (eventStream, error) {
	return func() (eventStream, error) { return newFakeStream(evt), nil }
}

func newTestWatcher(t *testing.T, src *fakeSource, note *fakeNotifier, opts Options, spawn *scriptedSpawn) *Watcher {
	t.Helper()
	cap := NewCapturer(src, nil, t.TempDir(), note)
	w := NewWatcher(src, cap, note, opts)
	if spawn != nil {
		w.spawn = spawn.next
	}
	return w
}

func TestWatcherEventMode(t *testing.T) {
	argv := []string{"fake-events"}

	t.Run("settled event triggers a snapshot", func(t *testing.T) {
		src := &fakeSource{trees: []string{"Screen A", "Screen B"}, eventsArgv: argv}
		note := &fakeNotifier{}
		spawn := &scriptedSpawn{steps: []func() (eventStream, error){
			eventSpawn(EventWindowContent),
			idleSpawn,
		}}
		w := newTestWatcher(t, src, note, Options{
			Timeout:    400 * time.Millisecond,
			Debounce:   20 * time.Millisecond,
			RetryDelay: 10 * time.Millisecond,
		}, spawn)

		require.NoError(t, w.Run(context.Background()))

		require.Equal(t, 2, note.snapshotCount())
		assert.Equal(t, TriggerInitial, note.snapshots[0].EventType)
		assert.Equal(t, EventWindowContent, note.snapshots[1].EventType)
		assert.Equal(t, 2, note.snapshots[1].Snapshot)
		assert.Contains(t, note.statuses, "timeout reached")
	})

	t.Run("spawn failures exhaust the retry budget", func(t *testing.T) {
		src := &fakeSource{trees: []string{"Screen A"}, eventsArgv: argv}
		note := &fakeNotifier{}
		spawn := &scriptedSpawn{steps: []func() (eventStream, error){failSpawn}}
		w := newTestWatcher(t, src, note, Options{
			Debounce:   20 * time.Millisecond,
			RetryDelay: 5 * time.Millisecond,
		}, spawn)

		err := w.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "3 times")
		assert.Equal(t, 3, spawn.calls)
		// The initial snapshot still happened.
		assert.Equal(t, 1, note.snapshotCount())
	})

	t.Run("dead streams reconnect then give up", func(t *testing.T) {
		src := &fakeSource{trees: []string{"Screen A"}, eventsArgv: argv}
		note := &fakeNotifier{}
		spawn := &scriptedSpawn{steps: []func() (eventStream, error){deadSpawn}}
		w := newTestWatcher(t, src, note, Options{
			Debounce:   20 * time.Millisecond,
			RetryDelay: 5 * time.Millisecond,
		}, spawn)

		err := w.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, note.statuses, "reconnecting (1/3)...")
		assert.Contains(t, note.statuses, "reconnecting (2/3)...")
	})

	t.Run("successful connection resets the retry count", func(t *testing.T) {
		src := &fakeSource{trees: []string{"A", "B", "C"}, eventsArgv: argv}
		note := &fakeNotifier{}
		spawn := &scriptedSpawn{steps: []func() (eventStream, error){
			failSpawn,
			failSpawn,
			eventSpawn(EventWindowState),
			deadSpawn,
		}}
		w := newTestWatcher(t, src, note, Options{
			Debounce:   10 * time.Millisecond,
			RetryDelay: 5 * time.Millisecond,
		}, spawn)

		err := w.Run(context.Background())
		require.Error(t, err)
		// Two failures, one success (reset), then three dead streams.
		assert.Equal(t, 6, spawn.calls)
		assert.Equal(t, 2, note.snapshotCount())
	})

	t.Run("context cancellation stops the session", func(t *testing.T) {
		src := &fakeSource{trees: []string{"Screen A"}, eventsArgv: argv}
		note := &fakeNotifier{}
		spawn := &scriptedSpawn{steps: []func() (eventStream, error){idleSpawn}}
		w := newTestWatcher(t, src, note, Options{
			Debounce:   20 * time.Millisecond,
			RetryDelay: 5 * time.Millisecond,
		}, spawn)

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- w.Run(ctx) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("watcher did not stop on cancellation")
		}
	})
}

func TestWatcherPollMode(t *testing.T) {
	t.Run("deadline ends the session cleanly", func(t *testing.T) {
		src := &fakeSource{trees: []string{"Screen A"}}
		note := &fakeNotifier{}
		w := newTestWatcher(t, src, note, Options{
			Timeout:  50 * time.Millisecond,
			Debounce: 20 * time.Millisecond,
		}, nil)

		require.NoError(t, w.Run(context.Background()))
		assert.Equal(t, 1, note.snapshotCount())
		assert.Contains(t, note.statuses, "timeout reached")
	})

	t.Run("interval floors at two seconds", func(t *testing.T) {
		src := &fakeSource{trees: []string{"Screen A"}}
		note := &fakeNotifier{}
		w := newTestWatcher(t, src, note, Options{
			Timeout:  30 * time.Millisecond,
			Debounce: 10 * time.Millisecond,
		}, nil)

		require.NoError(t, w.Run(context.Background()))
		assert.Contains(t, note.statuses, "poll mode (every 2s)")
	})
}
