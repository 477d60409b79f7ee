// Package command runs short-lived helper processes that exchange data over
// stdin and stdout (piper, external dialogue brains).
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// maxStderr bounds how much stderr is quoted in returned errors.
const maxStderr = 512

// waitDelay bounds how long Output waits for orphaned pipes after cancellation.
const waitDelay = 500 * time.Millisecond

// Spec describes one invocation.
type Spec struct {
	Argv []string
	// Env entries are appended to the current environment.
	Env   []string
	Input []byte
}

// Output runs spec and returns its stdout. A non-zero exit includes a tail of stderr.
func Output(ctx context.Context, spec Spec) ([]byte, error) {
	if len(spec.Argv) == 0 {
		return nil, errors.New("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, spec.Argv[0], spec.Argv[1:]...)
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	if spec.Input != nil {
		cmd.Stdin = bytes.NewReader(spec.Input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("run %s: %w", spec.Argv[0], ctxErr)
		}
		if tail := stderrTail(stderr.String()); tail != "" {
			return nil, fmt.Errorf("run %s: %w: %s", spec.Argv[0], err, tail)
		}
		return nil, fmt.Errorf("run %s: %w", spec.Argv[0], err)
	}
	return stdout.Bytes(), nil
}

// LookPath reports whether argv[0] resolves to an executable.
func LookPath(argv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("command argv cannot be empty")
	}
	return exec.LookPath(argv[0])
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = "…" + s[len(s)-maxStderr:]
	}
	return s
}
