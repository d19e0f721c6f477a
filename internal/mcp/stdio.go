package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"scout/internal/async"
	"scout/internal/logging"
)

// stdioTransport runs an MCP server as a child process and frames messages
// as newline-delimited JSON on its stdin/stdout.
type stdioTransport struct {
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	messages chan []byte
	logger   logging.Logger

	mu     sync.Mutex
	closed bool
}

func startStdio(ctx context.Context, command string, args []string, env map[string]string) (Transport, error) {
	resolved, err := resolveExecutable(command)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, resolved, args...)
	if len(env) > 0 {
		cmd.Env = make([]string, 0, len(env))
		for k, v := range env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", command, err)
	}

	t := &stdioTransport{
		cmd:      cmd,
		stdin:    stdin,
		messages: make(chan []byte, 16),
		logger:   logging.NewComponentLogger(fmt.Sprintf("mcp-stdio[%s]", command)),
	}
	t.logger.Info("started MCP server pid=%d", cmd.Process.Pid)

	async.Go(t.logger, "mcp-stdio-read", func() { t.readLoop(stdout) })
	async.Go(t.logger, "mcp-stdio-stderr", func() { t.drainStderr(stderr) })
	async.Go(t.logger, "mcp-stdio-wait", func() {
		if err := cmd.Wait(); err != nil {
			t.logger.Debug("server process exited: %v", err)
		}
	})
	return t, nil
}

func resolveExecutable(command string) (string, error) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return "", fmt.Errorf("command is required")
	}
	if strings.Contains(trimmed, "\x00") {
		return "", fmt.Errorf("command contains invalid characters")
	}
	resolved, err := exec.LookPath(trimmed)
	if err != nil {
		return "", fmt.Errorf("command not found: %w", err)
	}
	return resolved, nil
}

func (t *stdioTransport) Send(_ context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("transport closed")
	}
	if _, err := t.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write to server stdin: %w", err)
	}
	return nil
}

func (t *stdioTransport) Messages() <-chan []byte {
	return t.messages
}

func (t *stdioTransport) readLoop(stdout io.Reader) {
	defer close(t.messages)

	scanner := bufio.NewScanner(stdout)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		t.messages <- line
	}
	if err := scanner.Err(); err != nil {
		t.logger.Debug("read loop ended: %v", err)
	}
}

func (t *stdioTransport) drainStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		t.logger.Debug("[stderr] %s", scanner.Text())
	}
}

// Close signals shutdown by closing stdin and kills the process if it does
// not exit on its own.
func (t *stdioTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	_ = t.stdin.Close()
	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	return nil
}
