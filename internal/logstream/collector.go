package logstream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/devtether/tether/internal/domain"
)

// Options configures a Collector for one platform's log stream.
type Options struct {
	Command      []string      // argv of the streaming subprocess
	Prestart     [][]string    // run-to-completion commands before the stream (e.g. adb logcat -c)
	SkipPrefixes []string      // stream-startup banner lines to discard
	Rules        Rules         // interest and severity patterns
	AppID        string        // optional app-identifier substring match
	MaxLines     int           // buffer capacity (default 200)
	StopGrace    time.Duration // terminate-to-kill escalation window
}

// Collector tails a platform log stream in the background, classifying and
// buffering matching lines. Log collection is best-effort enrichment: spawn
// failures leave the collector not-started and Start may be retried.
type Collector struct {
	opts Options
	buf  *RingBuffer

	mu  sync.Mutex
	cmd *exec.Cmd
	wg  sync.WaitGroup
}

// NewCollector creates a collector; it does not spawn anything until Start.
func NewCollector(opts Options) *Collector {
	if opts.StopGrace <= 0 {
		opts.StopGrace = 2 * time.Second
	}
	return &Collector{
		opts: opts,
		buf:  NewRingBuffer(opts.MaxLines),
	}
}

// Start launches the log subprocess and a concurrent reader. It is
// idempotent: calling it while the stream is running is a no-op. Prestart
// commands (buffer clearing) run first so the stream begins without backlog.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd != nil {
		return nil
	}
	if len(c.opts.Command) == 0 {
		return fmt.Errorf("no log stream command configured")
	}

	for _, argv := range c.opts.Prestart {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		_ = exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
		cancel()
	}

	cmd := exec.Command(c.opts.Command[0], c.opts.Command[1:]...)
	// Close the pipe shortly after process exit even if a grandchild still
	// holds the write end, so the reader cannot block Stop forever.
	cmd.WaitDelay = c.opts.StopGrace
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("log stream pipe: %w", err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("log stream start: %w", err)
	}
	c.cmd = cmd

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consume(stdout)
		_ = cmd.Wait()
	}()

	return nil
}

// consume reads stream output line by line until EOF, buffering matching
// lines with a severity and capture timestamp.
func (c *Collector) consume(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		if c.skipBanner(line) {
			continue
		}
		if !c.opts.Rules.Matches(line, c.opts.AppID) {
			continue
		}
		c.buf.Push(domain.LogEntry{
			Line:      line,
			Timestamp: time.Now(),
			Severity:  c.opts.Rules.Classify(line),
		})
	}
}

func (c *Collector) skipBanner(line string) bool {
	for _, prefix := range c.opts.SkipPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Drain atomically returns and clears the buffered entries.
func (c *Collector) Drain() []domain.LogEntry {
	return c.buf.Drain()
}

// Recent returns the last n entries without clearing.
func (c *Collector) Recent(n int) []domain.LogEntry {
	return c.buf.GetLast(n)
}

// Running reports whether the stream subprocess is active.
func (c *Collector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cmd != nil
}

// Stop terminates the subprocess, escalating from SIGTERM to SIGKILL after
// the grace period. Safe to call when never started, and Start may be used
// again afterwards.
func (c *Collector) Stop() {
	c.mu.Lock()
	cmd := c.cmd
	c.cmd = nil
	c.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(c.opts.StopGrace):
		_ = cmd.Process.Kill()
		<-done
	}
}
