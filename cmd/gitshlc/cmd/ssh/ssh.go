// SPDX-License-Identifier: Apache-2.0

package ssh

import (
	"fmt"
	"os"

	"github.com/gitshlc/gitshlc/internal/core/config"
	"github.com/gitshlc/gitshlc/internal/core/format"
	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/gitshlc/connect"
	"github.com/gitshlc/gitshlc/internal/gitshlc/discover"
	"github.com/gitshlc/gitshlc/internal/gitshlc/pathnorm"
	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/toolpath"
	"github.com/spf13/cobra"
)

// connFlags are the ssh connection flags shared by the subcommands.
type connFlags struct {
	host   string
	user   string
	port   int
	key    string
	preset string
}

func (f *connFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.host, "host", "", "remote host name or address")
	cmd.Flags().StringVar(&f.user, "user", "", "remote user name")
	cmd.Flags().IntVar(&f.port, "port", 0, "ssh port (default 22)")
	cmd.Flags().StringVar(&f.key, "key", "", "identity file path")
	cmd.Flags().StringVar(&f.preset, "preset", "", "named ssh preset from the config file")
}

// resolve builds the ssh target from a preset and/or the individual flags.
// Individual flags override the preset's fields.
func (f *connFlags) resolve(cfg *config.Config) (request.SSHConfig, error) {
	target := request.SSHConfig{}
	if f.preset != "" {
		preset, err := cfg.ResolvePreset(f.preset)
		if err != nil {
			return request.SSHConfig{}, err
		}
		target = preset
	}
	if f.host != "" {
		target.Host = f.host
	}
	if f.user != "" {
		target.User = f.user
	}
	if f.port != 0 {
		target.Port = f.port
	}
	if f.key != "" {
		target.KeyPath = pathnorm.Normalize(f.key)
	}
	return target, nil
}

// NewSSHCmd creates the ssh command group
func NewSSHCmd() *cobra.Command {
	sshCmd := &cobra.Command{
		Use:   "ssh",
		Short: "Probe remote hosts over ssh",
		Long:  `Check ssh connectivity and discover repositories on remote hosts`,
	}

	sshCmd.AddCommand(newSSHConnectCmd())
	sshCmd.AddCommand(newSSHDetectCmd())

	return sshCmd
}

// newSSHConnectCmd creates a 'connect' subcommand
func newSSHConnectCmd() *cobra.Command {
	var flags connFlags

	connectCmd := &cobra.Command{
		Use:   "connect",
		Short: "Check ssh connectivity and remote git",
		Long: `Open a non-interactive ssh session to the host, verify that commands
can be executed on it, and locate a usable git binary on the remote side.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig("")
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}

			target, err := flags.resolve(cfg)
			if err != nil {
				return err
			}

			checker := connect.New(runner.NewLocalRunner(), toolpath.NewSystemResolver())
			result := checker.Connect(cmd.Context(), sshHint(cmd, cfg), target)

			if err := format.WriteTo(os.Stdout, result, outputFormat(cmd, cfg)); err != nil {
				return fmt.Errorf("error writing result: %w", err)
			}

			if !result.OK {
				return fmt.Errorf("ssh connection check failed: %s", result.Stderr)
			}
			return nil
		},
	}

	flags.register(connectCmd)

	return connectCmd
}

// newSSHDetectCmd creates a 'detect' subcommand
func newSSHDetectCmd() *cobra.Command {
	var flags connFlags
	var rootPath string
	var maxDepth int
	var maxRepos int

	detectCmd := &cobra.Command{
		Use:   "detect",
		Short: "Discover git repositories on a remote host",
		Long: `Run a bounded find over ssh and list the git repositories under the
remote root, together with their origin remote URLs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig("")
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}

			target, err := flags.resolve(cfg)
			if err != nil {
				return err
			}

			d := discover.New(runner.NewLocalRunner(), toolpath.NewSystemResolver())
			repos, err := d.Remote(cmd.Context(), sshHint(cmd, cfg), target, rootPath, maxDepth, maxRepos)
			if err != nil {
				return err
			}

			if err := format.WriteTo(os.Stdout, repos, outputFormat(cmd, cfg)); err != nil {
				return fmt.Errorf("error writing result: %w", err)
			}
			return nil
		},
	}

	flags.register(detectCmd)
	detectCmd.Flags().StringVar(&rootPath, "root", "~", "remote directory to search")
	detectCmd.Flags().IntVar(&maxDepth, "max-depth", 3, "maximum remote directory depth")
	detectCmd.Flags().IntVar(&maxRepos, "max-repos", 500, "maximum number of repositories to report")

	return detectCmd
}

// sshHint picks the ssh path hint: flag, then config, then PATH lookup.
func sshHint(cmd *cobra.Command, cfg *config.Config) string {
	if v, _ := cmd.Flags().GetString("ssh-path"); v != "" {
		return v
	}
	return cfg.SSHPath
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
