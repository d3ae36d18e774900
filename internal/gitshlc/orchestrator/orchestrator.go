// SPDX-License-Identifier: Apache-2.0

// Package orchestrator sequences git workflow actions. Given a request
// it validates the target, probes repository state, applies the
// dirty-tree and unborn-repository preconditions, then drives the
// action's command tail against the mode's backend. Every executed
// command lands in the ordered step trace of the returned outcome.
package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gitshlc/gitshlc/internal/core/logging"
	"github.com/gitshlc/gitshlc/internal/core/outcome"
	"github.com/gitshlc/gitshlc/internal/core/policy"
	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/gitshlc/execbackend"
	"github.com/gitshlc/gitshlc/internal/gitshlc/probe"
	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/toolpath"
)

// Orchestrator runs workflow actions. It holds no per-run state;
// concurrent runs against different working trees are safe, runs
// against the same tree must be serialized by the caller.
type Orchestrator struct {
	run    runner.Runner
	tools  toolpath.Resolver
	guards *policy.GuardEvaluator
	log    *slog.Logger
}

// New builds an orchestrator. The guard evaluator is optional; without
// one, requests carrying a guard expression fail validation.
func New(run runner.Runner, tools toolpath.Resolver, guards *policy.GuardEvaluator) *Orchestrator {
	return &Orchestrator{
		run:    run,
		tools:  tools,
		guards: guards,
		log:    logging.WithComponent("orchestrator"),
	}
}

// RunAction executes one workflow action and returns its outcome. All
// failures are reported as data in the outcome; the error taxonomy is
// stable across modes.
func (o *Orchestrator) RunAction(ctx context.Context, req *request.RunActionRequest) outcome.ActionOutcome {
	runID := uuid.NewString()
	log := o.log.With("runId", runID, "action", req.Action, "mode", req.Mode)
	log.Info("action started", "branch", req.Branch)

	out := o.runAction(ctx, log, req)

	log.Info("action finished", "ok", out.OK, "steps", len(out.Steps))
	return out
}

func (o *Orchestrator) runAction(ctx context.Context, log *slog.Logger, req *request.RunActionRequest) outcome.ActionOutcome {
	fail := func(spec outcome.ErrorSpec, steps []outcome.Step, detail string) outcome.ActionOutcome {
		log.Warn("action failed", "code", spec.Code, "detail", detail)
		return spec.Fail(req.Mode, req.Action, req.EnvKey, steps, detail)
	}

	var steps []outcome.Step

	// Validate.
	switch req.Action {
	case request.ActionPull, request.ActionPush, request.ActionMerge:
	default:
		return fail(outcome.ErrUnknownAction, steps, req.Action)
	}
	if req.Action == request.ActionMerge && req.MergeFromBranch == "" {
		return fail(outcome.ErrMergeFromRequired, steps, "")
	}

	backend, failOut, ok := o.buildBackend(req, fail)
	if !ok {
		return failOut
	}

	// DetectBranch. Nothing downstream can be sequenced without it.
	currentBranch, branchSteps, ok := probe.CurrentBranch(ctx, backend)
	steps = append(steps, branchSteps...)
	if !ok {
		spec := outcome.ErrBranchDetect
		if backend.Mode() == request.ModeSSH {
			spec = outcome.ErrRemoteExecFailed
		}
		return fail(spec, steps, lastStderr(branchSteps))
	}

	// DetectHeadExists. Non-fatal; flags the unborn-repository case.
	hasCommits, headStep := probe.HeadExists(ctx, backend)
	steps = append(steps, headStep)

	// CheckClean.
	clean, statusStep, ok := probe.IsClean(ctx, backend)
	steps = append(steps, statusStep)
	if !ok {
		spec := outcome.ErrStatusQuery
		if backend.Mode() == request.ModeSSH {
			spec = outcome.ErrRemoteExecFailed
		}
		return fail(spec, steps, statusStep.Stderr)
	}

	// Guard. Evaluated on probed state, before any mutating step.
	if req.Guard != "" {
		if o.guards == nil {
			return fail(outcome.ErrGuardRejected, steps, "no guard evaluator configured")
		}
		allowed, err := o.guards.Evaluate(req.Guard, policy.GuardInput{
			Action:       req.Action,
			Mode:         req.Mode,
			Branch:       currentBranch,
			TargetBranch: req.Branch,
			Clean:        clean,
			HasCommits:   hasCommits,
		})
		if err != nil {
			return fail(outcome.ErrGuardRejected, steps, err.Error())
		}
		if !allowed {
			return fail(outcome.ErrGuardRejected, steps, req.Guard)
		}
		log.Debug("guard passed", "expression", req.Guard)
	}

	// Dirty handling.
	if req.Action != request.ActionPush && !clean {
		stash := probe.ApplyStashLeniency(backend.Git(ctx, "stash", "--include-untracked"))
		steps = append(steps, stash)
	}

	if req.Action == request.ActionPush && !clean {
		if currentBranch != req.Branch {
			detail := "current_branch=" + currentBranch + " target_branch=" + req.Branch
			return fail(outcome.ErrDirtyWrongBranch, steps, detail)
		}
		if req.CommitMessage == "" {
			return fail(outcome.ErrCommitMsgRequired, steps, "")
		}

		add := backend.Git(ctx, "add", "-A")
		steps = append(steps, add)
		if !add.OK {
			return fail(outcome.ErrAddFailed, steps, add.Stderr)
		}

		commit := backend.Git(ctx, "commit", "-m", req.CommitMessage)
		steps = append(steps, commit)
		if !commit.OK {
			return fail(outcome.ErrCommitFailed, steps, commit.Stderr)
		}
		hasCommits = true
	}

	// Unborn repository: a push needs a commit before a refspec exists.
	if req.Action == request.ActionPush && !hasCommits {
		if req.CommitMessage == "" {
			return fail(outcome.ErrEmptyMsgRequired, steps, "")
		}
		empty := backend.Git(ctx, "commit", "--allow-empty", "-m", req.CommitMessage)
		steps = append(steps, empty)
		if !empty.OK {
			return fail(outcome.ErrEmptyCommitFailed, steps, empty.Stderr)
		}
	}

	// Unconditional tail. A failed fetch or checkout is recorded but
	// never stops the later steps; the aggregate flag reports it.
	steps = append(steps, backend.Git(ctx, "fetch", "origin"))
	steps = append(steps, backend.Git(ctx, "checkout", req.Branch))

	switch req.Action {
	case request.ActionPull:
		steps = append(steps, backend.Git(ctx, "pull", "--ff-only", "origin", req.Branch))
	case request.ActionPush:
		steps = append(steps, backend.Git(ctx, "push", "origin", req.Branch))
	case request.ActionMerge:
		steps = append(steps, backend.Git(ctx, "fetch", "origin", req.MergeFromBranch))
		steps = append(steps, backend.Git(ctx, "merge", "--no-ff", backend.MergeSourceRef(req.MergeFromBranch)))
		steps = append(steps, backend.Git(ctx, "push", "origin", req.Branch))
	}

	out := outcome.ActionOutcome{
		OK:     outcome.AllOK(steps),
		Mode:   req.Mode,
		Action: req.Action,
		EnvKey: req.EnvKey,
		Steps:  steps,
	}
	if !out.OK {
		spec := outcome.ErrGitCommandFailed
		if backend.Mode() == request.ModeSSH {
			spec = outcome.ErrRemoteCommandFailed
		}
		detail := ""
		if failed, found := outcome.FirstFailed(steps); found {
			detail = failed.Stderr
			if detail == "" {
				detail = failed.Stdout
			}
		}
		out.Error = spec.Err(detail)
	}
	return out
}

// buildBackend validates mode-specific request fields and constructs
// the matching backend.
func (o *Orchestrator) buildBackend(req *request.RunActionRequest, fail func(outcome.ErrorSpec, []outcome.Step, string) outcome.ActionOutcome) (execbackend.Backend, outcome.ActionOutcome, bool) {
	switch req.Mode {
	case request.ModeLocal:
		gitPath, found := o.tools.ResolveGit(req.GitPath)
		if !found {
			return nil, fail(outcome.ErrGitNotFound, nil, ""), false
		}
		if req.LocalPath == "" {
			return nil, fail(outcome.ErrLocalPathMissing, nil, ""), false
		}
		info, err := os.Stat(req.LocalPath)
		if err != nil || !info.IsDir() {
			return nil, fail(outcome.ErrLocalPathInvalid, nil, req.LocalPath), false
		}
		if !IsGitDir(req.LocalPath) {
			return nil, fail(outcome.ErrNotARepository, nil, req.LocalPath), false
		}
		return execbackend.NewLocalBackend(o.run, gitPath, req.LocalPath), outcome.ActionOutcome{}, true

	case request.ModeSSH:
		sshPath, found := o.tools.ResolveSSH(req.SSHPath)
		if !found {
			return nil, fail(outcome.ErrSSHNotFound, nil, ""), false
		}
		if req.SSH.Host == "" || req.SSH.User == "" {
			return nil, fail(outcome.ErrSSHTargetRequired, nil, ""), false
		}
		if req.RemotePath == "" {
			return nil, fail(outcome.ErrRemotePathMissing, nil, ""), false
		}
		return execbackend.NewSSHBackend(o.run, sshPath, req.SSH, req.RemotePath), outcome.ActionOutcome{}, true

	default:
		return nil, fail(outcome.ErrUnknownMode, nil, req.Mode), false
	}
}

// IsGitDir reports whether path carries a git metadata marker. A .git
// directory or file both count (worktrees and submodules use a file).
func IsGitDir(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

func lastStderr(steps []outcome.Step) string {
	if len(steps) == 0 {
		return ""
	}
	return steps[len(steps)-1].Stderr
}
