// SPDX-License-Identifier: Apache-2.0

// Package connect implements the environment checks that run before
// any action: local tool preflight and the two-phase ssh connectivity
// probe (transport liveness, then remote git discovery).
package connect

import (
	"context"
	"runtime"
	"strings"

	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/gitshlc/execbackend"
	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/shellquote"
	"github.com/gitshlc/gitshlc/internal/gitshlc/toolpath"
)

// SSHOKSentinel is the liveness marker the remote shell must echo back.
const SSHOKSentinel = "GITSHLC_SSH_OK"

// ToolCheck reports whether one tool is usable.
type ToolCheck struct {
	Found   bool   `json:"found" yaml:"found"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	OK      bool   `json:"ok" yaml:"ok"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// PreflightResult reports the host platform and both local tools.
type PreflightResult struct {
	Platform string    `json:"platform" yaml:"platform"`
	Git      ToolCheck `json:"git" yaml:"git"`
	SSH      ToolCheck `json:"ssh" yaml:"ssh"`
}

// ConnectResult is the outcome of the two-phase ssh handshake. OK is
// true only when the transport responded and a working git was found
// on the remote side.
type ConnectResult struct {
	OK        bool      `json:"ok" yaml:"ok"`
	SSHOK     bool      `json:"sshOk" yaml:"sshOk"`
	Stderr    string    `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	RemoteGit ToolCheck `json:"remoteGit" yaml:"remoteGit"`
}

// Checker runs preflight and connectivity probes.
type Checker struct {
	run   runner.Runner
	tools toolpath.Resolver
}

func New(run runner.Runner, tools toolpath.Resolver) *Checker {
	return &Checker{run: run, tools: tools}
}

// Preflight resolves git and ssh and queries their versions. ssh -V
// prints its version to stderr, so either stream counts.
func (c *Checker) Preflight(ctx context.Context, gitHint, sshHint string) PreflightResult {
	return PreflightResult{
		Platform: runtime.GOOS,
		Git:      c.checkTool(ctx, gitHint, c.tools.ResolveGit, "--version"),
		SSH:      c.checkTool(ctx, sshHint, c.tools.ResolveSSH, "-V"),
	}
}

func (c *Checker) checkTool(ctx context.Context, hint string, resolve func(string) (string, bool), versionArg string) ToolCheck {
	path, found := resolve(hint)
	if !found {
		return ToolCheck{Error: "not found"}
	}

	step := c.run.Run(ctx, "", path, versionArg)

	version := strings.TrimSpace(step.Stdout)
	if version == "" {
		version = strings.TrimSpace(step.Stderr)
	}

	check := ToolCheck{Found: true, Path: path, Version: version, OK: step.OK}
	if !step.OK {
		check.Error = strings.TrimSpace(step.Stderr)
		if check.Error == "" {
			check.Error = strings.TrimSpace(step.Stdout)
		}
		if check.Error == "" {
			check.Error = "command failed"
		}
	}
	return check
}

// remoteGitScript searches command resolution first, then conventional
// install paths. Non-interactive shells often come up with a thin PATH.
const remoteGitScript = "if command -v git >/dev/null 2>&1; then command -v git; " +
	"elif [ -x /usr/bin/git ]; then echo /usr/bin/git; " +
	"elif [ -x /usr/local/bin/git ]; then echo /usr/local/bin/git; " +
	"elif [ -x /bin/git ]; then echo /bin/git; " +
	"else echo; fi"

// Connect runs the two-phase handshake against the remote host.
func (c *Checker) Connect(ctx context.Context, sshHint string, cfg request.SSHConfig) ConnectResult {
	notChecked := ToolCheck{Error: "remote git not checked"}

	sshPath, found := c.tools.ResolveSSH(sshHint)
	if !found {
		return ConnectResult{Stderr: "ssh not found; run preflight and set sshPath if needed", RemoteGit: notChecked}
	}
	if cfg.Host == "" || cfg.User == "" {
		return ConnectResult{Stderr: "host/user is required", RemoteGit: notChecked}
	}

	sshRun := func(remoteCmd string) (step stepResult) {
		s := c.run.Run(ctx, "", sshPath, execbackend.SSHArgs(cfg, remoteCmd)...)
		return stepResult{ok: s.OK, stdout: s.Stdout, stderr: s.Stderr}
	}

	// Phase 1: liveness. The sentinel must actually come back; a shell
	// that connects but swallows output is not usable.
	ping := sshRun("echo " + SSHOKSentinel)
	sshOK := ping.ok && strings.Contains(ping.stdout, SSHOKSentinel)
	if !sshOK {
		msg := strings.TrimSpace(ping.stderr)
		if msg == "" {
			msg = strings.TrimSpace(ping.stdout)
		}
		return ConnectResult{Stderr: msg, RemoteGit: notChecked}
	}

	// Phase 2: remote git discovery.
	remoteGit := c.detectRemoteGit(sshRun)

	result := ConnectResult{
		OK:        remoteGit.OK,
		SSHOK:     true,
		RemoteGit: remoteGit,
	}
	if !result.OK {
		result.Stderr = remoteGit.Error
	}
	return result
}

type stepResult struct {
	ok     bool
	stdout string
	stderr string
}

func (c *Checker) detectRemoteGit(sshRun func(string) stepResult) ToolCheck {
	find := sshRun("sh -c " + shellquote.Quote(remoteGitScript))
	if !find.ok {
		msg := strings.TrimSpace(find.stderr)
		if msg == "" {
			msg = strings.TrimSpace(find.stdout)
		}
		return ToolCheck{Error: msg}
	}

	path := strings.TrimSpace(firstLine(find.stdout))
	if path == "" {
		return ToolCheck{Error: "git not found on remote (PATH or standard locations)"}
	}

	ver := sshRun(shellquote.Quote(path) + " --version")
	if !ver.ok {
		msg := strings.TrimSpace(ver.stderr)
		if msg == "" {
			msg = strings.TrimSpace(ver.stdout)
		}
		return ToolCheck{Found: true, Path: path, Error: msg}
	}

	return ToolCheck{
		Found:   true,
		Path:    path,
		Version: strings.TrimSpace(ver.stdout),
		OK:      true,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
