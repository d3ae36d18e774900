// SPDX-License-Identifier: Apache-2.0

// Package initrepo performs first-time repository setup. The flow is
// idempotent: rerunning against an initialized directory reports
// success with an informational "already initialized" payload.
package initrepo

import (
	"context"
	"os"
	"strings"

	"github.com/gitshlc/gitshlc/internal/core/logging"
	"github.com/gitshlc/gitshlc/internal/core/outcome"
	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/gitshlc/orchestrator"
	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/toolpath"
)

// Initializer sets up local repositories.
type Initializer struct {
	run   runner.Runner
	tools toolpath.Resolver
}

func New(run runner.Runner, tools toolpath.Resolver) *Initializer {
	return &Initializer{run: run, tools: tools}
}

// Init creates the directory if needed, initializes a repository in
// it, points HEAD at the requested default branch, and wires the
// origin remote when a URL is supplied. The outcome always uses mode
// "local", action "init", envKey "init".
func (i *Initializer) Init(ctx context.Context, req *request.InitRequest) outcome.ActionOutcome {
	log := logging.WithComponent("initrepo")

	succeed := func(steps []outcome.Step, err *outcome.ActionError) outcome.ActionOutcome {
		return outcome.ActionOutcome{
			OK:     true,
			Mode:   request.ModeLocal,
			Action: request.ActionInit,
			EnvKey: "init",
			Steps:  steps,
			Error:  err,
		}
	}
	fail := func(spec outcome.ErrorSpec, steps []outcome.Step, detail string) outcome.ActionOutcome {
		log.Warn("init failed", "code", spec.Code, "detail", detail)
		return spec.Fail(request.ModeLocal, request.ActionInit, "init", steps, detail)
	}

	var steps []outcome.Step

	gitPath, found := i.tools.ResolveGit(req.GitPath)
	if !found {
		return fail(outcome.ErrGitNotFound, steps, "")
	}

	dir := strings.TrimSpace(req.LocalPath)
	if dir == "" {
		return fail(outcome.ErrInitPathRequired, steps, "")
	}

	// Directory creation is recorded as a synthetic step so the trace
	// mirrors what actually happened.
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		mkdirCmd := "mkdir -p " + dir
		if err := os.MkdirAll(dir, 0755); err != nil {
			steps = append(steps, outcome.LaunchFailure(mkdirCmd, "", err.Error()))
			return fail(outcome.ErrInitMkdirFailed, steps, err.Error())
		}
		steps = append(steps, outcome.SyntheticStep(mkdirCmd, ""))
	}

	if orchestrator.IsGitDir(dir) {
		steps = append(steps, outcome.SyntheticStep("[skip] already initialized: "+dir, dir))
		log.Info("already initialized", "path", dir)
		return succeed(steps, outcome.InfoAlreadyInitialized.Err(""))
	}

	steps = append(steps, i.run.Run(ctx, dir, gitPath, "init"))

	// symbolic-ref avoids depending on a git version's branch-naming flags.
	branch := strings.TrimSpace(req.DefaultBranch)
	if branch == "" {
		branch = "main"
	}
	steps = append(steps, i.run.Run(ctx, dir, gitPath, "symbolic-ref", "HEAD", "refs/heads/"+branch))

	if url := strings.TrimSpace(req.RepoURL); url != "" {
		remotes := i.run.Run(ctx, dir, gitPath, "remote")
		steps = append(steps, remotes)

		if remotes.OK && hasOrigin(remotes.Stdout) {
			steps = append(steps, i.run.Run(ctx, dir, gitPath, "remote", "set-url", "origin", url))
		} else {
			steps = append(steps, i.run.Run(ctx, dir, gitPath, "remote", "add", "origin", url))
		}
	}

	if !outcome.AllOK(steps) {
		detail := ""
		if failed, found := outcome.FirstFailed(steps); found {
			detail = failed.Stderr
		}
		return fail(outcome.ErrInitFailed, steps, detail)
	}
	log.Info("repository initialized", "path", dir, "branch", branch)
	return succeed(steps, nil)
}

func hasOrigin(remoteList string) bool {
	for _, line := range strings.Split(remoteList, "\n") {
		if strings.TrimSpace(line) == "origin" {
			return true
		}
	}
	return false
}
