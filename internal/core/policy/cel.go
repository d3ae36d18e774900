// SPDX-License-Identifier: Apache-2.0

// Package policy evaluates optional guard expressions attached to run-action
// requests. A guard is a CEL expression over the probe results; it runs after
// the read-only probes and before the first mutating step, so a front-end can
// enforce rules like "never push a dirty tree outside main" without teaching
// the orchestrator about them.
package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// GuardInput is the variable set a guard expression may reference.
type GuardInput struct {
	Action       string
	Mode         string
	Branch       string
	TargetBranch string
	Clean        bool
	HasCommits   bool
}

// GuardEvaluator handles evaluation of CEL guard expressions
type GuardEvaluator struct {
	env *cel.Env
}

// NewGuardEvaluator creates a new guard evaluator
func NewGuardEvaluator() (*GuardEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("action", cel.StringType),
		cel.Variable("mode", cel.StringType),
		cel.Variable("branch", cel.StringType),
		cel.Variable("targetBranch", cel.StringType),
		cel.Variable("clean", cel.BoolType),
		cel.Variable("hasCommits", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}

	return &GuardEvaluator{env: env}, nil
}

// Evaluate evaluates a guard expression against the probe results. It returns
// false (with an error) when the expression does not parse, does not
// type-check, or does not yield a boolean.
func (e *GuardEvaluator) Evaluate(expression string, input GuardInput) (bool, error) {
	// Parse the expression
	ast, issues := e.env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("error parsing expression: %w", issues.Err())
	}

	// Type-check the expression
	checked, issues := e.env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("error type-checking expression: %w", issues.Err())
	}

	// Compile the expression
	program, err := e.env.Program(checked)
	if err != nil {
		return false, fmt.Errorf("error compiling expression: %w", err)
	}

	vars := map[string]interface{}{
		"action":       input.Action,
		"mode":         input.Mode,
		"branch":       input.Branch,
		"targetBranch": input.TargetBranch,
		"clean":        input.Clean,
		"hasCommits":   input.HasCommits,
	}

	// Evaluate the expression
	result, _, err := program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("error evaluating expression: %w", err)
	}

	// Convert result to boolean
	if result.Type() != types.BoolType {
		return false, fmt.Errorf("expression did not evaluate to a boolean")
	}

	return result.Value().(bool), nil
}
