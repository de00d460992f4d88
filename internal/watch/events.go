package watch

import (
	"bufio"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Triggers recorded in the manifest. INITIAL and POLL are synthetic; the
// TYPE_* values come straight off the accessibility event stream.
const (
	TriggerInitial     = "INITIAL"
	TriggerPoll        = "POLL"
	EventWindowState   = "TYPE_WINDOW_STATE_CHANGED"
	EventWindowContent = "TYPE_WINDOW_CONTENT_CHANGED"
)

// ParseEventLine extracts the interesting event type from one raw line of the
// event stream. Lines carrying other event types are ignored.
func ParseEventLine(line string) (string, bool) {
	for _, evt := range []string{EventWindowState, EventWindowContent} {
		if strings.Contains(line, evt) {
			return evt, true
		}
	}
	return "", false
}

// eventStream is a running source of UI change notifications. The watcher
// polls Last for the most recent pending event and its arrival time.
type eventStream interface {
	Last() (evt string, at time.Time, ok bool)
	Clear()
	Alive() bool
	Stop()
}

// procEventStream tails an event subprocess (uiautomator events) and records
// the latest interesting event under a mutex.
type procEventStream struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu    sync.Mutex
	evt   string
	at    time.Time
	alive bool
}

// startProcEvents spawns the event subprocess and its reader goroutine.
func startProcEvents(argv []string) (eventStream, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.WaitDelay = 2 * time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	s := &procEventStream{cmd: cmd, done: make(chan struct{}), alive: true}
	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
		for scanner.Scan() {
			if evt, ok := ParseEventLine(scanner.Text()); ok {
				s.mu.Lock()
				s.evt = evt
				s.at = time.Now()
				s.mu.Unlock()
			}
		}
		_ = cmd.Wait()
		s.mu.Lock()
		s.alive = false
		s.mu.Unlock()
		close(s.done)
	}()
	return s, nil
}

func (s *procEventStream) Last() (string, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evt, s.at, s.evt != ""
}

func (s *procEventStream) Clear() {
	s.mu.Lock()
	s.evt = ""
	s.mu.Unlock()
}

func (s *procEventStream) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Stop terminates the subprocess, escalating to SIGKILL when it ignores the
// polite signal.
func (s *procEventStream) Stop() {
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Signal(syscall.SIGTERM)
	}
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		<-s.done
	}
}
