// SPDX-License-Identifier: Apache-2.0

package preflight

import (
	"fmt"
	"os"

	"github.com/gitshlc/gitshlc/internal/core/config"
	"github.com/gitshlc/gitshlc/internal/core/format"
	"github.com/gitshlc/gitshlc/internal/gitshlc/connect"
	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/toolpath"
	"github.com/spf13/cobra"
)

// NewPreflightCmd creates the preflight command
func NewPreflightCmd() *cobra.Command {
	preflightCmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check local git and ssh tooling",
		Long: `Resolve the local git and ssh executables and report their paths and
versions. Useful to diagnose a machine before pointing requests at it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig("")
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}

			gitPath, _ := cmd.Flags().GetString("git-path")
			if gitPath == "" {
				gitPath = cfg.GitPath
			}
			sshPath, _ := cmd.Flags().GetString("ssh-path")
			if sshPath == "" {
				sshPath = cfg.SSHPath
			}

			checker := connect.New(runner.NewLocalRunner(), toolpath.NewSystemResolver())
			result := checker.Preflight(cmd.Context(), gitPath, sshPath)

			outputFormat, _ := cmd.Flags().GetString("output")
			if outputFormat == "" {
				outputFormat = cfg.Output
			}
			if err := format.WriteTo(os.Stdout, result, outputFormat); err != nil {
				return fmt.Errorf("error writing result: %w", err)
			}
			return nil
		},
	}

	return preflightCmd
}
