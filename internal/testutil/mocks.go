// SPDX-License-Identifier: Apache-2.0

// Package testutil holds shared test doubles. The central one is
// RunnerMock, a scripted runner.Runner: tests register match rules for
// expected commands and the mock replays canned steps, recording every
// call for later assertions.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/gitshlc/gitshlc/internal/core/outcome"
)

// StepResponse is the canned result a matched rule replays.
type StepResponse struct {
	OK       bool
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandMatcher decides whether a rule applies to an invocation.
type CommandMatcher func(dir, program string, args []string) bool

// MockRule pairs a matcher with its response. Rules are tried in
// registration order; the first match wins.
type MockRule struct {
	Match    CommandMatcher
	Response StepResponse
}

// MockCall records one invocation for verification.
type MockCall struct {
	Dir     string
	Program string
	Args    []string
}

// CmdText renders the call the way a Step's Cmd field would.
func (c MockCall) CmdText() string {
	return outcome.CommandText(c.Program, c.Args)
}

// RunnerMock is a scripted runner.Runner implementation. Unmatched
// commands succeed with empty output, so tests only script the
// commands whose results matter.
type RunnerMock struct {
	mu    sync.Mutex
	rules []MockRule
	calls []MockCall
}

func NewRunnerMock() *RunnerMock {
	return &RunnerMock{}
}

// AddRule registers a matcher with its canned response.
func (m *RunnerMock) AddRule(match CommandMatcher, response StepResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, MockRule{Match: match, Response: response})
}

// OnArgsPrefix matches any invocation whose argument list starts with
// the given prefix, regardless of program or directory. This covers
// the common case of scripting "the fetch step" or "the status step".
func (m *RunnerMock) OnArgsPrefix(response StepResponse, prefix ...string) {
	m.AddRule(func(dir, program string, args []string) bool {
		return hasPrefix(args, prefix)
	}, response)
}

// OnArgsContain matches any invocation whose rendered command text
// contains the given substring.
func (m *RunnerMock) OnArgsContain(substring string, response StepResponse) {
	m.AddRule(func(dir, program string, args []string) bool {
		return strings.Contains(outcome.CommandText(program, args), substring)
	}, response)
}

// Run implements runner.Runner.
func (m *RunnerMock) Run(ctx context.Context, dir, program string, args ...string) outcome.Step {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Dir: dir, Program: program, Args: args})
	rules := m.rules
	m.mu.Unlock()

	step := outcome.Step{
		Cmd: outcome.CommandText(program, args),
		Cwd: dir,
	}

	for _, rule := range rules {
		if rule.Match(dir, program, args) {
			step.OK = rule.Response.OK
			step.ExitCode = rule.Response.ExitCode
			step.Stdout = rule.Response.Stdout
			step.Stderr = rule.Response.Stderr
			return step
		}
	}

	// Default: empty success.
	step.OK = true
	return step
}

// Calls returns all recorded invocations.
func (m *RunnerMock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// CmdTexts returns the rendered command text of every recorded call,
// in invocation order.
func (m *RunnerMock) CmdTexts() []string {
	calls := m.Calls()
	texts := make([]string, len(calls))
	for i, c := range calls {
		texts[i] = c.CmdText()
	}
	return texts
}

func hasPrefix(args, prefix []string) bool {
	if len(args) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if args[i] != p {
			return false
		}
	}
	return true
}
