// SPDX-License-Identifier: Apache-2.0

package repo

import (
	"fmt"
	"os"

	"github.com/gitshlc/gitshlc/internal/core/config"
	"github.com/gitshlc/gitshlc/internal/core/format"
	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/gitshlc/branches"
	"github.com/gitshlc/gitshlc/internal/gitshlc/discover"
	"github.com/gitshlc/gitshlc/internal/gitshlc/initrepo"
	"github.com/gitshlc/gitshlc/internal/gitshlc/pathnorm"
	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/toolpath"
	"github.com/spf13/cobra"
)

// NewRepoCmd creates the repo command group
func NewRepoCmd() *cobra.Command {
	repoCmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage local repositories",
		Long:  `Initialize, inspect and discover local git repositories`,
	}

	repoCmd.AddCommand(newRepoInitCmd())
	repoCmd.AddCommand(newRepoBranchesCmd())
	repoCmd.AddCommand(newRepoDetectCmd())

	return repoCmd
}

// newRepoInitCmd creates an 'init' subcommand
func newRepoInitCmd() *cobra.Command {
	var repoURL string
	var defaultBranch string

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize a local repository",
		Long: `Initialize a git repository at the given path. The directory is
created when missing; a directory that already holds a repository is left
untouched. With --repo-url the origin remote is added, or its URL updated
when origin already exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig("")
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}

			branch := defaultBranch
			if branch == "" {
				branch = cfg.DefaultBranch
			}

			req := &request.InitRequest{
				GitPath:       gitHint(cmd, cfg),
				LocalPath:     pathnorm.Normalize(args[0]),
				RepoURL:       repoURL,
				DefaultBranch: branch,
			}

			init := initrepo.New(runner.NewLocalRunner(), toolpath.NewSystemResolver())
			out := init.Init(cmd.Context(), req)

			if err := format.WriteTo(os.Stdout, out, outputFormat(cmd, cfg)); err != nil {
				return fmt.Errorf("error writing result: %w", err)
			}

			if !out.OK {
				if out.Error != nil {
					return fmt.Errorf("%s: %s", out.Error.Code, out.Error.Message)
				}
				return fmt.Errorf("init failed")
			}
			return nil
		},
	}

	initCmd.Flags().StringVar(&repoURL, "repo-url", "", "origin remote URL to wire up")
	initCmd.Flags().StringVar(&defaultBranch, "default-branch", "", "initial branch name (default: configured default branch)")

	return initCmd
}

// newRepoBranchesCmd creates a 'branches' subcommand
func newRepoBranchesCmd() *cobra.Command {
	branchesCmd := &cobra.Command{
		Use:   "branches [repo-url-or-path]",
		Short: "List branch heads of a repository",
		Long:  `List the branch heads of a repository URL or local path via git ls-remote`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig("")
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}

			lister := branches.New(runner.NewLocalRunner(), toolpath.NewSystemResolver())
			list := lister.List(cmd.Context(), args[0], gitHint(cmd, cfg))

			if err := format.WriteTo(os.Stdout, list, outputFormat(cmd, cfg)); err != nil {
				return fmt.Errorf("error writing result: %w", err)
			}

			if !list.OK {
				return fmt.Errorf("branch listing failed: %s", list.Stderr)
			}
			return nil
		},
	}

	return branchesCmd
}

// newRepoDetectCmd creates a 'detect' subcommand
func newRepoDetectCmd() *cobra.Command {
	var rootPath string
	var maxDepth int

	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: "Discover git repositories under a directory",
		Long: `Walk a directory tree and list the git repositories found in it,
together with their origin remote URLs. Common dependency and build
directories are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig("")
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}

			root := rootPath
			if root == "" {
				root = pathnorm.DefaultRoot()
			}

			d := discover.New(runner.NewLocalRunner(), toolpath.NewSystemResolver())
			repos, err := d.Local(cmd.Context(), root, maxDepth, gitHint(cmd, cfg))
			if err != nil {
				return err
			}

			if err := format.WriteTo(os.Stdout, repos, outputFormat(cmd, cfg)); err != nil {
				return fmt.Errorf("error writing result: %w", err)
			}
			return nil
		},
	}

	detectCmd.Flags().StringVar(&rootPath, "root", "", "directory to search (default: home directory)")
	detectCmd.Flags().IntVar(&maxDepth, "max-depth", 5, "maximum directory depth to descend")

	return detectCmd
}

// gitHint picks the git path hint: flag, then config, then PATH lookup.
func gitHint(cmd *cobra.Command, cfg *config.Config) string {
	if v, _ := cmd.Flags().GetString("git-path"); v != "" {
		return v
	}
	return cfg.GitPath
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
