// SPDX-License-Identifier: Apache-2.0

package connect

import (
	"context"
	"runtime"
	"testing"

	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	gitPath string
	gitOK   bool
	sshPath string
	sshOK   bool
}

func (s stubResolver) ResolveGit(hint string) (string, bool) { return s.gitPath, s.gitOK }
func (s stubResolver) ResolveSSH(hint string) (string, bool) { return s.sshPath, s.sshOK }

var bothFound = stubResolver{gitPath: "/usr/bin/git", gitOK: true, sshPath: "/usr/bin/ssh", sshOK: true}

var sshCfg = request.SSHConfig{Host: "host", User: "deploy"}

func TestPreflight(t *testing.T) {
	t.Run("both tools usable", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("--version", testutil.StepResponse{OK: true, Stdout: "git version 2.44.0\n"})
		// ssh -V reports on stderr.
		mock.OnArgsContain("-V", testutil.StepResponse{OK: true, Stderr: "OpenSSH_9.6p1\n"})
		c := New(mock, bothFound)

		result := c.Preflight(context.Background(), "", "")

		assert.Equal(t, runtime.GOOS, result.Platform)
		assert.True(t, result.Git.OK)
		assert.Equal(t, "git version 2.44.0", result.Git.Version)
		assert.True(t, result.SSH.OK)
		assert.Equal(t, "OpenSSH_9.6p1", result.SSH.Version, "version may arrive on stderr")
	})

	t.Run("missing tool", func(t *testing.T) {
		c := New(testutil.NewRunnerMock(), stubResolver{sshPath: "/usr/bin/ssh", sshOK: true})
		result := c.Preflight(context.Background(), "", "")

		assert.False(t, result.Git.Found)
		assert.False(t, result.Git.OK)
		assert.Equal(t, "not found", result.Git.Error)
	})

	t.Run("version query failure", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("--version", testutil.StepResponse{ExitCode: 127, Stderr: "cannot execute binary file"})
		mock.OnArgsContain("-V", testutil.StepResponse{OK: true, Stderr: "OpenSSH_9.6p1\n"})
		c := New(mock, bothFound)

		result := c.Preflight(context.Background(), "", "")
		assert.True(t, result.Git.Found)
		assert.False(t, result.Git.OK)
		assert.Equal(t, "cannot execute binary file", result.Git.Error)
	})
}

func TestConnect_SSHNotFound(t *testing.T) {
	c := New(testutil.NewRunnerMock(), stubResolver{})
	result := c.Connect(context.Background(), "", sshCfg)

	assert.False(t, result.OK)
	assert.False(t, result.SSHOK)
	assert.Contains(t, result.Stderr, "ssh not found")
}

func TestConnect_HostUserRequired(t *testing.T) {
	c := New(testutil.NewRunnerMock(), bothFound)
	result := c.Connect(context.Background(), "", request.SSHConfig{Host: "host"})

	assert.False(t, result.OK)
	assert.Equal(t, "host/user is required", result.Stderr)
}

func TestConnect_LivenessFailure(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("echo GITSHLC_SSH_OK", testutil.StepResponse{ExitCode: 255, Stderr: "Connection refused"})
		c := New(mock, bothFound)

		result := c.Connect(context.Background(), "", sshCfg)

		assert.False(t, result.OK)
		assert.False(t, result.SSHOK)
		assert.Equal(t, "Connection refused", result.Stderr)
		assert.Equal(t, "remote git not checked", result.RemoteGit.Error)
		require.Len(t, mock.Calls(), 1, "stops after phase 1")
	})

	t.Run("sentinel missing from output", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("echo GITSHLC_SSH_OK", testutil.StepResponse{OK: true, Stdout: "motd banner only\n"})
		c := New(mock, bothFound)

		result := c.Connect(context.Background(), "", sshCfg)
		assert.False(t, result.SSHOK, "exec success without the sentinel is not liveness")
	})
}

func TestConnect_RemoteGitDiscovery(t *testing.T) {
	t.Run("found and working", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("echo GITSHLC_SSH_OK", testutil.StepResponse{OK: true, Stdout: "GITSHLC_SSH_OK\n"})
		mock.OnArgsContain("command -v git", testutil.StepResponse{OK: true, Stdout: "/usr/bin/git\n"})
		mock.OnArgsContain("--version", testutil.StepResponse{OK: true, Stdout: "git version 2.39.5\n"})
		c := New(mock, bothFound)

		result := c.Connect(context.Background(), "", sshCfg)

		assert.True(t, result.OK)
		assert.True(t, result.SSHOK)
		assert.True(t, result.RemoteGit.OK)
		assert.Equal(t, "/usr/bin/git", result.RemoteGit.Path)
		assert.Equal(t, "git version 2.39.5", result.RemoteGit.Version)
		assert.Empty(t, result.Stderr)
	})

	t.Run("not found on remote", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("echo GITSHLC_SSH_OK", testutil.StepResponse{OK: true, Stdout: "GITSHLC_SSH_OK\n"})
		// The discovery script succeeded but resolved nothing.
		mock.OnArgsContain("command -v git", testutil.StepResponse{OK: true, Stdout: "\n"})
		c := New(mock, bothFound)

		result := c.Connect(context.Background(), "", sshCfg)

		assert.False(t, result.OK)
		assert.True(t, result.SSHOK)
		assert.False(t, result.RemoteGit.Found)
		assert.Contains(t, result.Stderr, "git not found on remote")
	})

	t.Run("found but broken", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("echo GITSHLC_SSH_OK", testutil.StepResponse{OK: true, Stdout: "GITSHLC_SSH_OK\n"})
		mock.OnArgsContain("command -v git", testutil.StepResponse{OK: true, Stdout: "/usr/bin/git\n"})
		mock.OnArgsContain("--version", testutil.StepResponse{ExitCode: 126, Stderr: "Permission denied"})
		c := New(mock, bothFound)

		result := c.Connect(context.Background(), "", sshCfg)

		assert.False(t, result.OK)
		assert.True(t, result.RemoteGit.Found)
		assert.Equal(t, "/usr/bin/git", result.RemoteGit.Path)
		assert.Equal(t, "Permission denied", result.RemoteGit.Error)
	})
}

func TestConnect_TransportArgs(t *testing.T) {
	mock := testutil.NewRunnerMock()
	mock.OnArgsContain("echo GITSHLC_SSH_OK", testutil.StepResponse{OK: true, Stdout: "GITSHLC_SSH_OK\n"})
	c := New(mock, bothFound)

	cfg := request.SSHConfig{Host: "h", User: "u", Port: 2200, KeyPath: "/k"}
	c.Connect(context.Background(), "", cfg)

	calls := mock.Calls()
	require.NotEmpty(t, calls)
	args := calls[0].Args
	assert.Contains(t, args, "BatchMode=yes")
	assert.Contains(t, args, "2200")
	assert.Contains(t, args, "/k")
	assert.Contains(t, args, "u@h")
}
