package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"chessmatch/internal/core"
)

const (
	lineBuffer = 64

	// waitDelay bounds how long Wait blocks on stdout after the process exits
	waitDelay = time.Second
)

// shutdownGrace is how long a process gets to honour "quit" before it is killed
var shutdownGrace = 250 * time.Millisecond

// Handle owns exactly one engine subprocess for a single move request
type Handle struct {
	path    string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan string
	stop    chan struct{}
	exited  chan struct{}
	started time.Time

	mu      sync.Mutex
	replies []string
	closed  bool
}

// Start spawns the engine and begins reading its stdout line by line
func Start(path string, args ...string) (*Handle, error) {
	cmd := exec.Command(path, args...)
	cmd.WaitDelay = waitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine %s: %w", path, err)
	}

	h := &Handle{
		path:    path,
		cmd:     cmd,
		stdin:   stdin,
		lines:   make(chan string, lineBuffer),
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
		started: time.Now(),
	}

	go h.readLoop(stdout)
	go func() {
		cmd.Wait()
		close(h.exited)
	}()

	return h, nil
}

func (h *Handle) readLoop(stdout io.Reader) {
	defer close(h.lines)

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		h.mu.Lock()
		h.replies = append(h.replies, line)
		h.mu.Unlock()

		select {
		case h.lines <- line:
		case <-h.stop:
			return
		}
	}
}

// Send writes each command on its own line
func (h *Handle) Send(cmds ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return fmt.Errorf("engine %s: send after close", h.path)
	}
	for _, c := range cmds {
		if _, err := fmt.Fprintln(h.stdin, c); err != nil {
			return fmt.Errorf("engine %s: write %q: %w: %w", h.path, c, core.ErrEngineExited, err)
		}
	}
	return nil
}

// Await returns the first line accepted by match. It gives up when the
// deadline passes, when ctx is cancelled or when the engine closes stdout.
func (h *Handle) Await(ctx context.Context, deadline time.Time, match func(fields []string) bool) (string, error) {
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	for {
		select {
		case line, ok := <-h.lines:
			if !ok {
				return "", fmt.Errorf("engine %s: %w", h.path, core.ErrEngineExited)
			}
			if match(strings.Fields(line)) {
				return line, nil
			}
		case <-timer.C:
			return "", fmt.Errorf("engine %s after %s: %w", h.path, time.Since(h.started).Round(time.Millisecond), core.ErrEngineTimeout)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Replies returns every line read so far
func (h *Handle) Replies() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.replies...)
}

// LastReply returns the most recent line, or "" if the engine said nothing
func (h *Handle) LastReply() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.replies) == 0 {
		return ""
	}
	return h.replies[len(h.replies)-1]
}

// Close asks the engine to quit, kills it if it does not, and reaps it.
// Safe to call more than once.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	fmt.Fprintln(h.stdin, "quit")
	h.stdin.Close()
	h.mu.Unlock()

	close(h.stop)

	var err error
	select {
	case <-h.exited:
	case <-time.After(shutdownGrace):
		if err = h.cmd.Process.Kill(); errors.Is(err, os.ErrProcessDone) {
			err = nil
		}
		<-h.exited
	}
	return err
}
