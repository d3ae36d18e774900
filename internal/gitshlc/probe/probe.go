// SPDX-License-Identifier: Apache-2.0

// Package probe implements the read-only git queries the orchestrator
// runs before it mutates anything: current branch, HEAD existence, and
// working tree cleanliness. Each probe returns its recorded step(s) so
// the trace stays complete even when a probe fails.
package probe

import (
	"context"
	"strings"

	"github.com/gitshlc/gitshlc/internal/core/outcome"
	"github.com/gitshlc/gitshlc/internal/gitshlc/execbackend"
)

// CurrentBranch returns the current branch name. The primary query is
// the short symbolic ref of HEAD, which works even on an unborn branch.
// Backends with a detached fallback retry with rev-parse when the
// symbolic form is unavailable (detached HEAD); the retry is recorded
// as its own step.
func CurrentBranch(ctx context.Context, b execbackend.Backend) (string, []outcome.Step, bool) {
	step := b.Git(ctx, "symbolic-ref", "--short", "HEAD")
	steps := []outcome.Step{step}
	if step.OK {
		return strings.TrimSpace(step.Stdout), steps, true
	}

	if b.DetachedFallback() {
		retry := b.Git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
		steps = append(steps, retry)
		if retry.OK {
			return strings.TrimSpace(retry.Stdout), steps, true
		}
	}

	return "", steps, false
}

// HeadExists reports whether HEAD resolves to a commit. False on a
// commit-less repository; never fatal by itself.
func HeadExists(ctx context.Context, b execbackend.Backend) (bool, outcome.Step) {
	step := b.Git(ctx, "rev-parse", "--verify", "HEAD")
	return step.OK, step
}

// IsClean reports whether the working tree has no pending changes.
// Submodules are ignored to avoid false positives from nested repos.
// The second return is false when the status query itself failed.
func IsClean(ctx context.Context, b execbackend.Backend) (clean bool, step outcome.Step, ok bool) {
	step = b.Git(ctx, "status", "--porcelain", "--ignore-submodules")
	if !step.OK {
		return false, step, false
	}
	return strings.TrimSpace(step.Stdout) == "", step, true
}

// stashSavedMarker is the stdout fragment git prints when a stash
// actually saved something.
const stashSavedMarker = "Saved working directory"

// ApplyStashLeniency marks a stash step OK when its output shows the
// stash was saved, even if the exit status was non-zero. Permission
// errors on untracked noise files otherwise fail runs whose stash did
// exactly what was asked.
func ApplyStashLeniency(step outcome.Step) outcome.Step {
	if !step.OK && strings.Contains(step.Stdout, stashSavedMarker) {
		step.OK = true
	}
	return step
}
