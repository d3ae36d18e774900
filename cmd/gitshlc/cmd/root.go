// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/gitshlc/gitshlc/cmd/gitshlc/cmd/action"
	"github.com/gitshlc/gitshlc/cmd/gitshlc/cmd/preflight"
	"github.com/gitshlc/gitshlc/cmd/gitshlc/cmd/repo"
	sshcmd "github.com/gitshlc/gitshlc/cmd/gitshlc/cmd/ssh"
	"github.com/gitshlc/gitshlc/internal/core/config"
	"github.com/gitshlc/gitshlc/internal/core/logging"
	"github.com/gitshlc/gitshlc/internal/version"

	"github.com/spf13/cobra"
)

var (
	// Tool path hints, overriding config and PATH lookup
	gitPathFlag string
	sshPathFlag string

	// Output format for result documents
	outputFlag string

	// Verbose logging
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "gitshlc",
	Short: "Git workflow runner for local and ssh working trees",
	Long: `Gitshlc runs fixed git workflows (pull, push, merge, init) against a
local working tree or a remote one reached over ssh. Every run produces an
ordered trace of the executed commands plus a stable error code, so a caller
can tell exactly which step failed and why.`,
	Version:      fmt.Sprintf("%s (commit: %s)", version.Version, version.Commit),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error loading configuration: %v\n", err)
			cfg = config.NewDefaultConfig()
		}

		if err := logging.Init(cfg.LogLevel); err != nil {
			return fmt.Errorf("error configuring logging: %w", err)
		}
		if verboseFlag {
			logging.SetVerbose(true)
		}

		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(action.NewActionCmd())
	rootCmd.AddCommand(repo.NewRepoCmd())
	rootCmd.AddCommand(sshcmd.NewSSHCmd())
	rootCmd.AddCommand(preflight.NewPreflightCmd())

	rootCmd.PersistentFlags().StringVar(&gitPathFlag, "git-path", "", "path or name of the git executable (default: config, then PATH)")
	rootCmd.PersistentFlags().StringVar(&sshPathFlag, "ssh-path", "", "path or name of the ssh executable (default: config, then PATH)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output format for result documents (json or yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging on stderr")
}
