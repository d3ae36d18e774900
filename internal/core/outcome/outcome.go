// SPDX-License-Identifier: Apache-2.0

// Package outcome defines the wire-level result model shared by the action
// orchestrator, the repository initializer, and the connectivity probes: an
// ordered trace of executed Steps plus a single classified ActionError.
package outcome

import (
	"fmt"
	"strings"
)

// Severity classifies how actionable an ActionError is for the caller.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
	SeverityFatal Severity = "FATAL"
)

// LaunchFailureExitCode is the sentinel exit code recorded when a process
// could not be started or its status could not be obtained.
const LaunchFailureExitCode = -1

// Step is the result of one executed external command. Steps are immutable
// once produced; they are appended to an ordered trace and never reordered.
type Step struct {
	Cmd      string `json:"cmd" yaml:"cmd"`
	Cwd      string `json:"cwd,omitempty" yaml:"cwd,omitempty"`
	OK       bool   `json:"ok" yaml:"ok"`
	ExitCode int    `json:"exitCode" yaml:"exitCode"`
	Stdout   string `json:"stdout" yaml:"stdout"`
	Stderr   string `json:"stderr" yaml:"stderr"`
}

// SyntheticStep records an operation that was performed (or skipped) without
// launching a process, so the trace stays complete for the caller.
func SyntheticStep(cmd, cwd string) Step {
	return Step{Cmd: cmd, Cwd: cwd, OK: true, ExitCode: 0}
}

// LaunchFailure records a command that never started.
func LaunchFailure(cmd, cwd, stderr string) Step {
	return Step{Cmd: cmd, Cwd: cwd, OK: false, ExitCode: LaunchFailureExitCode, Stderr: stderr}
}

// ActionError carries a stable code, a severity, and optional free-text
// detail (commonly a captured stderr or a path).
type ActionError struct {
	Code     string   `json:"code" yaml:"code"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
	Detail   string   `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ActionOutcome is the aggregate result of one orchestration run.
type ActionOutcome struct {
	OK     bool         `json:"ok" yaml:"ok"`
	Mode   string       `json:"mode" yaml:"mode"`
	Action string       `json:"action" yaml:"action"`
	EnvKey string       `json:"envKey" yaml:"envKey"`
	Steps  []Step       `json:"steps" yaml:"steps"`
	Error  *ActionError `json:"error,omitempty" yaml:"error,omitempty"`
}

// AllOK reports whether every step in the trace succeeded.
func AllOK(steps []Step) bool {
	for _, s := range steps {
		if !s.OK {
			return false
		}
	}
	return true
}

// FirstFailed returns the first failed step of a trace, if any. The
// orchestrator attaches only a generic failure code; callers that want the
// detailed cause scan the trace with this.
func FirstFailed(steps []Step) (Step, bool) {
	for _, s := range steps {
		if !s.OK {
			return s, true
		}
	}
	return Step{}, false
}

// CommandText renders a program and its arguments exactly as they appear in a
// Step's Cmd field.
func CommandText(program string, args []string) string {
	if len(args) == 0 {
		return program
	}
	return fmt.Sprintf("%s %s", program, strings.Join(args, " "))
}
