package device

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// CmdResult is the outcome of one finished subprocess. Code is -1 when the
// command could not run at all (missing binary, timeout).
type CmdResult struct {
	Code   int
	Stdout string
	Stderr string
}

// OK reports a zero exit.
func (r CmdResult) OK() bool {
	return r.Code == 0
}

// Run executes argv to completion with a timeout. Failures to launch are
// folded into the result rather than returned: callers treat tool errors
// and tool absence the same way.
func Run(ctx context.Context, timeout time.Duration, argv ...string) CmdResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CmdResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	switch {
	case err == nil:
		result.Code = 0
	case ctx.Err() == context.DeadlineExceeded:
		result.Code = -1
		result.Stderr = "timeout after " + timeout.String()
	case cmd.ProcessState != nil:
		result.Code = cmd.ProcessState.ExitCode()
	default:
		result.Code = -1
		result.Stderr = err.Error()
	}
	return result
}

// RunBytes executes argv and returns raw stdout, for binary payloads
// (screenshots over exec-out).
func RunBytes(ctx context.Context, timeout time.Duration, argv ...string) ([]byte, int) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		code := -1
		if cmd.ProcessState != nil && ctx.Err() == nil {
			code = cmd.ProcessState.ExitCode()
		}
		return stdout.Bytes(), code
	}
	return stdout.Bytes(), 0
}
