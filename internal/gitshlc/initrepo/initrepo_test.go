// SPDX-License-Identifier: Apache-2.0

package initrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gitshlc/gitshlc/internal/core/outcome"
	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	gitPath string
	gitOK   bool
}

func (s stubResolver) ResolveGit(hint string) (string, bool) { return s.gitPath, s.gitOK }
func (s stubResolver) ResolveSSH(hint string) (string, bool) { return "", false }

var gitFound = stubResolver{gitPath: "/usr/bin/git", gitOK: true}

func TestInit_GitNotFound(t *testing.T) {
	i := New(testutil.NewRunnerMock(), stubResolver{})
	out := i.Init(context.Background(), &request.InitRequest{LocalPath: t.TempDir()})

	assert.False(t, out.OK)
	require.NotNil(t, out.Error)
	assert.Equal(t, "GIT-0001", out.Error.Code)
	assert.Equal(t, outcome.SeverityFatal, out.Error.Severity)
}

func TestInit_PathRequired(t *testing.T) {
	i := New(testutil.NewRunnerMock(), gitFound)
	out := i.Init(context.Background(), &request.InitRequest{LocalPath: "  "})

	assert.False(t, out.OK)
	require.NotNil(t, out.Error)
	assert.Equal(t, "GIT-0401", out.Error.Code)
}

func TestInit_FreshRepository(t *testing.T) {
	mock := testutil.NewRunnerMock()
	i := New(mock, gitFound)

	dir := filepath.Join(t.TempDir(), "new", "repo")
	out := i.Init(context.Background(), &request.InitRequest{LocalPath: dir, DefaultBranch: "develop"})

	assert.True(t, out.OK)
	assert.Nil(t, out.Error)
	assert.Equal(t, request.ModeLocal, out.Mode)
	assert.Equal(t, request.ActionInit, out.Action)
	assert.Equal(t, "init", out.EnvKey)

	assert.DirExists(t, dir)
	require.Len(t, out.Steps, 3)
	assert.Equal(t, "mkdir -p "+dir, out.Steps[0].Cmd)

	texts := mock.CmdTexts()
	require.Len(t, texts, 2)
	assert.Equal(t, "/usr/bin/git init", texts[0])
	assert.Equal(t, "/usr/bin/git symbolic-ref HEAD refs/heads/develop", texts[1])
	assert.Equal(t, dir, mock.Calls()[0].Dir)
}

func TestInit_DefaultBranchFallsBackToMain(t *testing.T) {
	mock := testutil.NewRunnerMock()
	i := New(mock, gitFound)

	out := i.Init(context.Background(), &request.InitRequest{LocalPath: t.TempDir()})
	assert.True(t, out.OK)
	assert.Contains(t, mock.CmdTexts()[1], "refs/heads/main")
}

func TestInit_AlreadyInitialized(t *testing.T) {
	mock := testutil.NewRunnerMock()
	i := New(mock, gitFound)

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))

	out := i.Init(context.Background(), &request.InitRequest{LocalPath: dir})

	assert.True(t, out.OK, "rerunning init is not an error")
	require.NotNil(t, out.Error)
	assert.Equal(t, "GIT-0403", out.Error.Code)
	assert.Equal(t, outcome.SeverityInfo, out.Error.Severity)

	require.Len(t, out.Steps, 1)
	assert.Equal(t, "[skip] already initialized: "+dir, out.Steps[0].Cmd)
	assert.Empty(t, mock.Calls(), "no git command runs")
}

func TestInit_RemoteWiring(t *testing.T) {
	t.Run("adds origin when absent", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsPrefix(testutil.StepResponse{OK: true, Stdout: ""}, "remote")
		i := New(mock, gitFound)

		out := i.Init(context.Background(), &request.InitRequest{
			LocalPath: t.TempDir(),
			RepoURL:   "git@example.com:team/app.git",
		})

		assert.True(t, out.OK)
		texts := mock.CmdTexts()
		require.Len(t, texts, 4)
		assert.Equal(t, "/usr/bin/git remote", texts[2])
		assert.Equal(t, "/usr/bin/git remote add origin git@example.com:team/app.git", texts[3])
	})

	t.Run("repoints existing origin", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsPrefix(testutil.StepResponse{OK: true, Stdout: "origin\nupstream\n"}, "remote")
		i := New(mock, gitFound)

		out := i.Init(context.Background(), &request.InitRequest{
			LocalPath: t.TempDir(),
			RepoURL:   "git@example.com:team/app.git",
		})

		assert.True(t, out.OK)
		texts := mock.CmdTexts()
		require.Len(t, texts, 4)
		assert.Equal(t, "/usr/bin/git remote set-url origin git@example.com:team/app.git", texts[3])
	})
}

func TestInit_AggregateFailure(t *testing.T) {
	mock := testutil.NewRunnerMock()
	mock.OnArgsPrefix(testutil.StepResponse{ExitCode: 1, Stderr: "permission denied"}, "init")
	i := New(mock, gitFound)

	out := i.Init(context.Background(), &request.InitRequest{LocalPath: t.TempDir()})

	assert.False(t, out.OK)
	require.NotNil(t, out.Error)
	assert.Equal(t, "GIT-0499", out.Error.Code)
	assert.Equal(t, "permission denied", out.Error.Detail)
	assert.Len(t, out.Steps, 2, "the failed init and the symbolic-ref both stay in the trace")
}
