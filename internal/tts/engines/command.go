package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"

	"github.com/dgnsrekt/epub2tts/internal/tts"
)

// DefaultTimeout bounds a single subprocess synthesis call.
const DefaultTimeout = 2 * time.Minute

// maxOutputSize guards against runaway subprocess output.
const maxOutputSize = 256 << 20

// command is a parsed command line.
type command struct {
	path string
	args []string
	env  []string
}

func parseCommand(line string, env []string) (command, error) {
	p := shellwords.NewParser()
	p.ParseEnv = true
	words, err := p.Parse(line)
	if err != nil {
		return command{}, tts.NewTTSError(tts.ErrorCodeInvalidInput, "cannot parse command", err).
			WithContext("command", line)
	}
	if len(words) == 0 {
		return command{}, tts.NewTTSError(tts.ErrorCodeInvalidInput, "empty command", nil)
	}
	return command{path: words[0], args: words[1:], env: env}, nil
}

// lookPath reports whether the command's binary can be executed.
func (c command) lookPath() error {
	if _, err := exec.LookPath(c.path); err != nil {
		return tts.NewTTSError(tts.ErrorCodeEngineUnavailable, c.path+" not found", err)
	}
	return nil
}

// run executes the command with stdin pre-configured, so the child never
// races the parent for its input. stdout is returned in full.
func (c command) run(ctx context.Context, timeout time.Duration, stdin io.Reader, extra ...string) ([]byte, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.path, append(append([]string{}, c.args...), extra...)...)
	cmd.Stdin = stdin
	cmd.Env = append(os.Environ(), c.env...)
	// Try graceful shutdown first
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 500 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, n: maxOutputSize}
	cmd.Stderr = &limitedWriter{w: &stderr, n: 64 << 10}

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, tts.NewTTSError(tts.ErrorCodeEngineTimeout,
				fmt.Sprintf("synthesis timeout after %s", timeout), ctx.Err())
		case ctx.Err() != nil:
			return nil, tts.NewTTSError(tts.ErrorCodeCanceled, "synthesis canceled", ctx.Err())
		case errors.Is(err, exec.ErrNotFound):
			return nil, tts.NewTTSError(tts.ErrorCodeEngineUnavailable, c.path+" not found", err)
		}
		return nil, tts.NewTTSError(tts.ErrorCodeEngineFailure, filepath.Base(c.path)+" failed", err).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

type limitedWriter struct {
	w io.Writer
	n int64
}

var errOutputTooLarge = errors.New("output too large")

func (l *limitedWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > l.n {
		return 0, errOutputTooLarge
	}
	l.n -= int64(len(p))
	return l.w.Write(p)
}
