// SPDX-License-Identifier: Apache-2.0

// Package runner executes single external commands and records each one
// as an outcome.Step. Everything the orchestrator launches goes through
// a Runner, which is also the seam tests use to script git behavior.
package runner

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/gitshlc/gitshlc/internal/core/outcome"
)

// Runner runs one program invocation and reports it as a Step. The dir
// argument is a trace label and, for local execution, the working
// directory of the process; it may be empty.
type Runner interface {
	Run(ctx context.Context, dir, program string, args ...string) outcome.Step
}

// LocalRunner runs commands on the local machine. Stdin is bound to an
// empty source and GIT_TERMINAL_PROMPT is forced off so an auth failure
// surfaces as a failed step instead of a hung prompt.
type LocalRunner struct{}

func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

func (r *LocalRunner) Run(ctx context.Context, dir, program string, args ...string) outcome.Step {
	cmdText := outcome.CommandText(program, args)

	cmd := exec.CommandContext(ctx, program, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Stdin = strings.NewReader("")
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	step := outcome.Step{
		Cmd:    cmdText,
		Cwd:    dir,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch e := err.(type) {
	case nil:
		step.OK = true
		step.ExitCode = 0
	case *exec.ExitError:
		step.ExitCode = e.ExitCode()
		if step.ExitCode < 0 {
			// Killed by a signal; no usable status.
			step.ExitCode = outcome.LaunchFailureExitCode
		}
	default:
		// The process never started.
		step.ExitCode = outcome.LaunchFailureExitCode
		if step.Stderr == "" {
			step.Stderr = err.Error()
		}
	}

	return step
}
