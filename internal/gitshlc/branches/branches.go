// SPDX-License-Identifier: Apache-2.0

// Package branches lists the branch heads of a remote repository.
package branches

import (
	"context"
	"sort"
	"strings"

	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/toolpath"
)

// BranchList is the caller-facing result of one listing.
type BranchList struct {
	OK       bool     `json:"ok" yaml:"ok"`
	Branches []string `json:"branches" yaml:"branches"`
	Stderr   string   `json:"stderr,omitempty" yaml:"stderr,omitempty"`
}

// Lister queries remote branch heads.
type Lister struct {
	run   runner.Runner
	tools toolpath.Resolver
}

func New(run runner.Runner, tools toolpath.Resolver) *Lister {
	return &Lister{run: run, tools: tools}
}

// List returns the branch names of repoURL via ls-remote: only
// refs/heads entries count, sorted with duplicates collapsed.
func (l *Lister) List(ctx context.Context, repoURL, gitHint string) BranchList {
	gitPath, found := l.tools.ResolveGit(gitHint)
	if !found {
		return BranchList{Branches: []string{}, Stderr: "git not found"}
	}

	step := l.run.Run(ctx, "", gitPath, "ls-remote", "--heads", repoURL)
	if !step.OK {
		msg := strings.TrimSpace(step.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(step.Stdout)
		}
		return BranchList{Branches: []string{}, Stderr: msg}
	}

	return BranchList{OK: true, Branches: ParseHeads(step.Stdout)}
}

// ParseHeads extracts branch names from ls-remote --heads output.
// Each line is "<sha>\trefs/heads/<branch>"; anything else is skipped.
func ParseHeads(output string) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, line := range strings.Split(output, "\n") {
		_, ref, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		name, ok := strings.CutPrefix(ref, "refs/heads/")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
