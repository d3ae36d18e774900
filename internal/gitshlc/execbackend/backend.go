// SPDX-License-Identifier: Apache-2.0

// Package execbackend abstracts where git runs. The orchestrator
// sequences logical git invocations against the Backend interface; the
// local variant hands them to git -C, the ssh variant flattens them
// into a quoted shell line and ships it through the ssh transport.
package execbackend

import (
	"context"
	"strconv"
	"strings"

	"github.com/gitshlc/gitshlc/internal/core/outcome"
	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/shellquote"
)

// Backend runs git commands against one working tree.
type Backend interface {
	// Mode is "local" or "ssh", echoed into the outcome.
	Mode() string

	// Git runs one git invocation and records it as a step.
	Git(ctx context.Context, args ...string) outcome.Step

	// MergeSourceRef maps a source branch name to the ref merged into
	// the target. The ssh variant merges the origin-tracking ref.
	MergeSourceRef(from string) string

	// DetachedFallback reports whether branch detection should retry
	// with rev-parse when the symbolic ref is unavailable.
	DetachedFallback() bool
}

// LocalBackend runs git against a working tree on this machine.
type LocalBackend struct {
	run      runner.Runner
	gitPath  string
	repoPath string
}

func NewLocalBackend(run runner.Runner, gitPath, repoPath string) *LocalBackend {
	return &LocalBackend{run: run, gitPath: gitPath, repoPath: repoPath}
}

func (b *LocalBackend) Mode() string { return request.ModeLocal }

func (b *LocalBackend) Git(ctx context.Context, args ...string) outcome.Step {
	full := append([]string{"-C", b.repoPath}, args...)
	return b.run.Run(ctx, "", b.gitPath, full...)
}

func (b *LocalBackend) MergeSourceRef(from string) string { return from }

func (b *LocalBackend) DetachedFallback() bool { return false }

// SSHBackend runs git inside a remote working tree over ssh.
type SSHBackend struct {
	run        runner.Runner
	sshPath    string
	cfg        request.SSHConfig
	remotePath string
}

func NewSSHBackend(run runner.Runner, sshPath string, cfg request.SSHConfig, remotePath string) *SSHBackend {
	return &SSHBackend{run: run, sshPath: sshPath, cfg: cfg, remotePath: remotePath}
}

func (b *SSHBackend) Mode() string { return request.ModeSSH }

func (b *SSHBackend) Git(ctx context.Context, args ...string) outcome.Step {
	remoteCmd := "cd " + shellquote.Quote(b.remotePath) + " && git " + shellquote.QuoteAll(args...)
	return b.Exec(ctx, remoteCmd)
}

// Exec ships an arbitrary shell line through the transport. The
// connectivity probe and remote discovery build their own lines.
func (b *SSHBackend) Exec(ctx context.Context, remoteCmd string) outcome.Step {
	return b.run.Run(ctx, "", b.sshPath, SSHArgs(b.cfg, remoteCmd)...)
}

func (b *SSHBackend) MergeSourceRef(from string) string { return "origin/" + from }

func (b *SSHBackend) DetachedFallback() bool { return true }

// SSHArgs builds the transport argv for one remote command: forced
// batch authentication, a short connection timeout, exactly one
// attempt, the configured port, and an optional identity file.
func SSHArgs(cfg request.SSHConfig, remoteCmd string) []string {
	args := []string{
		"-p", strconv.Itoa(cfg.EffectivePort()),
		"-o", "BatchMode=yes",
		"-o", "ConnectTimeout=5",
		"-o", "ConnectionAttempts=1",
	}
	if key := strings.TrimSpace(cfg.KeyPath); key != "" {
		args = append(args, "-i", key)
	}
	args = append(args, cfg.User+"@"+cfg.Host, "--", remoteCmd)
	return args
}
