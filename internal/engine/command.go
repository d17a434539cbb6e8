package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Command runs an external drawing program such as sbot.
type Command struct {
	path    string
	args    []string
	timeout time.Duration
}

// NewCommand returns an engine running path with args. Each arg may hold
// the placeholders {output}, {script}, {code}, {width}, {height} and
// {format}.
func NewCommand(path string, args []string, timeout time.Duration) *Command {
	return &Command{path: path, args: args, timeout: timeout}
}

// Name implements Engine and returns the executable, so that separate
// commands are tracked separately.
func (c *Command) Name() string { return c.path }

// Render writes the script to a temporary file and runs the program.
func (c *Command) Render(ctx context.Context, job *Job, dst string) error {
	if _, err := exec.LookPath(c.path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, c.path, err)
	}

	script, err := os.CreateTemp("", "sketchdoc-*.bot")
	if err != nil {
		return fmt.Errorf("creating script file: %w", err)
	}
	defer os.Remove(script.Name())

	if _, err := script.WriteString(job.Script); err != nil {
		_ = script.Close()
		return fmt.Errorf("writing script file: %w", err)
	}
	if err := script.Close(); err != nil {
		return fmt.Errorf("writing script file: %w", err)
	}

	replacer := strings.NewReplacer(
		"{output}", dst,
		"{script}", script.Name(),
		"{code}", job.Script,
		"{width}", strconv.Itoa(job.Width),
		"{height}", strconv.Itoa(job.Height),
		"{format}", job.Format,
	)
	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = replacer.Replace(a)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Dir = job.Dir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, c.path, err)
		}
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %s", c.path, c.timeout)
		}
		return fmt.Errorf("%s failed: %w\nstderr: %s\nstdout: %s",
			c.path, err, strings.TrimSpace(stderr.String()), strings.TrimSpace(stdout.String()))
	}

	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		return fmt.Errorf("%s did not produce an output file", c.path)
	}
	return nil
}
