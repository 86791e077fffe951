// Package advisor asks an external text-generating process for a one-line
// verdict per candidate and merges the reply into the scan outcome.
package advisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// PromptPlaceholder in Args is replaced by the composed prompt. When no arg
// carries it the prompt is written to the process stdin instead.
const PromptPlaceholder = "{prompt}"

// DefaultArgs invokes the advisor CLI in print mode with web tools enabled.
var DefaultArgs = []string{"-p", PromptPlaceholder, "--model", "sonnet", "--allowedTools", "mcp__fetch__fetch,WebSearch"}

// FailureKind classifies why an advisor request produced no reply.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNotFound
	FailureTimeout
	FailureExit
	FailureOther
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "ok"
	case FailureNotFound:
		return "not_found"
	case FailureTimeout:
		return "timeout"
	case FailureExit:
		return "exit"
	default:
		return "other"
	}
}

// Error is returned by Client implementations for every failed request.
type Error struct {
	Kind    FailureKind
	Command string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("advisor %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("advisor %s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// Placeholder is the per-ticker note recorded when the request failed.
func (e *Error) Placeholder() string {
	switch e.Kind {
	case FailureNotFound:
		name := filepath.Base(e.Command)
		if name == "" || name == "." {
			name = "advisor"
		}
		return name + " CLI not found"
	case FailureTimeout:
		return "AI request timed out"
	case FailureExit:
		return "CLI error: " + truncate(strings.TrimSpace(e.Detail), 40)
	default:
		detail := e.Detail
		if detail == "" && e.Err != nil {
			detail = e.Err.Error()
		}
		return "AI error: " + truncate(detail, 40)
	}
}

// Client sends one prompt and returns the raw reply.
type Client interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// CLIClient runs a local command per request.
type CLIClient struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// NewCLIClient creates a CLIClient. A zero timeout means 180 seconds.
func NewCLIClient(command string, args []string, timeout time.Duration) *CLIClient {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &CLIClient{Command: command, Args: args, Timeout: timeout}
}

// Ask runs the command once. It never retries.
func (c *CLIClient) Ask(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	args, substituted := expandArgs(c.Args, prompt)
	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.WaitDelay = time.Second
	if !substituted {
		cmd.Stdin = strings.NewReader(prompt)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return "", &Error{Kind: FailureNotFound, Command: c.Command, Err: err}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "", &Error{Kind: FailureTimeout, Command: c.Command, Err: ctx.Err()}
	case errors.As(err, &exitErr):
		return "", &Error{Kind: FailureExit, Command: c.Command, Detail: stderr.String(), Err: err}
	default:
		return "", &Error{Kind: FailureOther, Command: c.Command, Err: err}
	}
}

func expandArgs(args []string, prompt string) ([]string, bool) {
	out := make([]string, len(args))
	substituted := false
	for i, a := range args {
		if strings.Contains(a, PromptPlaceholder) {
			a = strings.ReplaceAll(a, PromptPlaceholder, prompt)
			substituted = true
		}
		out[i] = a
	}
	return out, substituted
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
