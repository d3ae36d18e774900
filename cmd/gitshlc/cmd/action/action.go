// SPDX-License-Identifier: Apache-2.0

package action

import (
	"fmt"
	"os"

	"github.com/gitshlc/gitshlc/internal/core/config"
	"github.com/gitshlc/gitshlc/internal/core/format"
	"github.com/gitshlc/gitshlc/internal/core/policy"
	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/core/schema"
	"github.com/gitshlc/gitshlc/internal/gitshlc/orchestrator"
	"github.com/gitshlc/gitshlc/internal/gitshlc/pathnorm"
	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/toolpath"
	"github.com/spf13/cobra"
)

// NewActionCmd creates the action command group
func NewActionCmd() *cobra.Command {
	actionCmd := &cobra.Command{
		Use:   "action",
		Short: "Run git workflow actions",
		Long:  `Run git workflow actions (pull, push, merge) from a request file`,
	}

	actionCmd.AddCommand(newActionRunCmd())

	return actionCmd
}

// newActionRunCmd creates a 'run' subcommand
func newActionRunCmd() *cobra.Command {
	var presetFlag string

	runCmd := &cobra.Command{
		Use:   "run [request-file]",
		Short: "Run an action from a request file",
		Long: `Run a git workflow action described by a YAML or JSON request file.
The request names the mode (local or ssh), the action (pull, push, merge),
the target branch and the working tree. The full step trace is written to
stdout as a result document; the exit code is non-zero when the run failed.

Example request:

  mode: local
  action: pull
  envKey: staging
  branch: main
  localPath: /home/me/work/app`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			requestFile := args[0]

			// Validate the raw document before binding it, so a malformed
			// file gets field-level diagnostics instead of a zero-valued run.
			doc, err := format.ParseFileAsMap(requestFile)
			if err != nil {
				return fmt.Errorf("error parsing request file: %w", err)
			}
			if err := schema.ValidateRunAction(doc); err != nil {
				return err
			}

			req, err := request.LoadRunAction(requestFile)
			if err != nil {
				return fmt.Errorf("error loading request file: %w", err)
			}

			cfg, err := config.LoadConfig("")
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}

			// Flags win over the request file, the request file wins over
			// configured defaults.
			if gitPath, _ := cmd.Flags().GetString("git-path"); gitPath != "" {
				req.GitPath = gitPath
			}
			if sshPath, _ := cmd.Flags().GetString("ssh-path"); sshPath != "" {
				req.SSHPath = sshPath
			}
			cfg.ApplyDefaults(req)

			if presetFlag != "" && req.SSH.Host == "" {
				preset, err := cfg.ResolvePreset(presetFlag)
				if err != nil {
					return err
				}
				req.SSH = preset
			}

			// Paths come from a human-edited file; normalize them the same
			// way the desktop front-end did before handing them over.
			req.LocalPath = pathnorm.Normalize(req.LocalPath)
			if req.SSH.KeyPath != "" {
				req.SSH.KeyPath = pathnorm.Normalize(req.SSH.KeyPath)
			}

			guards, err := policy.NewGuardEvaluator()
			if err != nil {
				return fmt.Errorf("error creating guard evaluator: %w", err)
			}

			orch := orchestrator.New(runner.NewLocalRunner(), toolpath.NewSystemResolver(), guards)
			out := orch.RunAction(cmd.Context(), req)

			if err := format.WriteTo(os.Stdout, out, outputFormat(cmd, cfg)); err != nil {
				return fmt.Errorf("error writing result: %w", err)
			}

			if !out.OK {
				if out.Error != nil {
					return fmt.Errorf("%s: %s", out.Error.Code, out.Error.Message)
				}
				return fmt.Errorf("action %q failed", req.Action)
			}
			return nil
		},
	}

	runCmd.Flags().StringVar(&presetFlag, "preset", "", "named ssh preset from the config file (used when the request has no ssh host)")

	return runCmd
}

// outputFormat picks the result format: flag, then config, then json.
func outputFormat(cmd *cobra.Command, cfg *config.Config) string {
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		return v
	}
	if cfg != nil && cfg.Output != "" {
		return cfg.Output
	}
	return "json"
}
