// SPDX-License-Identifier: Apache-2.0

package discover

import (
	"context"
	"os"
	"path/filepath"
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

func mkRepo(t *testing.T, root string, rel ...string) string {
	t.Helper()
	dir := filepath.Join(append([]string{root}, rel...)...)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0755))
	return dir
}

func TestLocal(t *testing.T) {
	t.Run("finds nested repositories", func(t *testing.T) {
		root := t.TempDir()
		repoA := mkRepo(t, root, "work", "app")
		repoB := mkRepo(t, root, "lib")
		require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "deeper"), 0755))

		d := New(testutil.NewRunnerMock(), bothFound)
		repos, err := d.Local(context.Background(), root, 10, "")
		require.NoError(t, err)

		require.Len(t, repos, 2)
		assert.Equal(t, repoB, repos[0].Path)
		assert.Equal(t, "lib", repos[0].Name)
		assert.Equal(t, repoA, repos[1].Path)
		assert.Equal(t, "app", repos[1].Name)
	})

	t.Run("root itself is a repository", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
		mkRepo(t, root, "nested")

		d := New(testutil.NewRunnerMock(), bothFound)
		repos, err := d.Local(context.Background(), root, 10, "")
		require.NoError(t, err)

		require.Len(t, repos, 1, "the walk stops at the root repo")
		assert.Equal(t, root, repos[0].Path)
	})

	t.Run("noise directories are skipped", func(t *testing.T) {
		root := t.TempDir()
		mkRepo(t, root, "node_modules", "dep")
		mkRepo(t, root, ".venv", "pkg")
		keep := mkRepo(t, root, "src")

		d := New(testutil.NewRunnerMock(), bothFound)
		repos, err := d.Local(context.Background(), root, 10, "")
		require.NoError(t, err)

		require.Len(t, repos, 1)
		assert.Equal(t, keep, repos[0].Path)
	})

	t.Run("depth limit", func(t *testing.T) {
		root := t.TempDir()
		mkRepo(t, root, "a", "b", "c", "deep")
		nested := mkRepo(t, root, "work", "app")
		shallow := mkRepo(t, root, "top")

		d := New(testutil.NewRunnerMock(), bothFound)
		repos, err := d.Local(context.Background(), root, 1, "")
		require.NoError(t, err)

		require.Len(t, repos, 2, "three levels down is out of reach at depth 1")
		assert.Equal(t, shallow, repos[0].Path)
		assert.Equal(t, nested, repos[1].Path)
	})

	t.Run("origin url reported when git resolves", func(t *testing.T) {
		root := t.TempDir()
		mkRepo(t, root, "app")

		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("remote get-url origin", testutil.StepResponse{OK: true, Stdout: "git@example.com:team/app.git\n"})
		d := New(mock, bothFound)

		repos, err := d.Local(context.Background(), root, 5, "")
		require.NoError(t, err)
		require.Len(t, repos, 1)
		assert.Equal(t, "git@example.com:team/app.git", repos[0].OriginURL)
	})

	t.Run("no git still lists repos", func(t *testing.T) {
		root := t.TempDir()
		mkRepo(t, root, "app")

		mock := testutil.NewRunnerMock()
		d := New(mock, stubResolver{})

		repos, err := d.Local(context.Background(), root, 5, "")
		require.NoError(t, err)
		require.Len(t, repos, 1)
		assert.Empty(t, repos[0].OriginURL)
		assert.Empty(t, mock.Calls())
	})

	t.Run("invalid root", func(t *testing.T) {
		d := New(testutil.NewRunnerMock(), bothFound)

		_, err := d.Local(context.Background(), "   ", 5, "")
		assert.Error(t, err)

		_, err = d.Local(context.Background(), "/nonexistent/root", 5, "")
		assert.Error(t, err)
	})
}

func TestRemote(t *testing.T) {
	cfg := request.SSHConfig{Host: "host", User: "deploy"}

	t.Run("parses TSV results", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("find ", testutil.StepResponse{OK: true, Stdout: "" +
			"/home/deploy/app\tgit@example.com:team/app.git\tapp\n" +
			"/home/deploy/lib\t\tlib\n" +
			"/home/deploy/app\tgit@example.com:team/app.git\tapp\n"})
		d := New(mock, bothFound)

		repos, err := d.Remote(context.Background(), "", cfg, "", 5, 100)
		require.NoError(t, err)

		require.Len(t, repos, 2, "duplicate paths collapse")
		assert.Equal(t, "/home/deploy/app", repos[0].Path)
		assert.Equal(t, "git@example.com:team/app.git", repos[0].OriginURL)
		assert.Equal(t, "app", repos[0].Name)
		assert.Empty(t, repos[1].OriginURL)
	})

	t.Run("script runs through the transport", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		d := New(mock, bothFound)

		_, err := d.Remote(context.Background(), "", cfg, "/srv", 5, 100)
		require.NoError(t, err)

		calls := mock.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "/usr/bin/ssh", calls[0].Program)
		assert.Contains(t, calls[0].Args, "BatchMode=yes")

		script := calls[0].Args[len(calls[0].Args)-1]
		assert.Contains(t, script, "ROOT=/srv")
		assert.Contains(t, script, "MAXD=5")
		assert.Contains(t, script, "MAXR=100")
	})

	t.Run("tilde root falls through to the remote home", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		d := New(mock, bothFound)

		_, err := d.Remote(context.Background(), "", cfg, "~", 5, 100)
		require.NoError(t, err)

		script := mock.Calls()[0].Args[len(mock.Calls()[0].Args)-1]
		// The transported argument is sh -c '<script>' with the inner
		// script's quotes rewritten as '\'' by the outer quoting layer,
		// so the inner ROOT='' appears in escaped form.
		assert.Contains(t, script, `ROOT='\'''\'';`, "bare tilde uses the script's $HOME default")
		assert.NotContains(t, script, "'~'", "a quoted tilde would make find search a literal ~ directory")
	})

	t.Run("tilde prefix expands against the remote home", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		d := New(mock, bothFound)

		_, err := d.Remote(context.Background(), "", cfg, "~/work dir", 5, 100)
		require.NoError(t, err)

		script := mock.Calls()[0].Args[len(mock.Calls()[0].Args)-1]
		// Escaped form of the inner ROOT="$HOME"/'work dir' after the
		// outer quoting layer rewrites embedded single quotes.
		assert.Contains(t, script, `ROOT="$HOME"/'\''work dir'\'';`)
	})

	t.Run("clamps depth and volume", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		d := New(mock, bothFound)

		_, err := d.Remote(context.Background(), "", cfg, "", 999, 999999)
		require.NoError(t, err)

		script := mock.Calls()[0].Args[len(mock.Calls()[0].Args)-1]
		assert.Contains(t, script, "MAXD=30")
		assert.Contains(t, script, "MAXR=5000")
	})

	t.Run("failure surfaces stderr", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("find ", testutil.StepResponse{ExitCode: 5, Stderr: "git not found on remote"})
		d := New(mock, bothFound)

		_, err := d.Remote(context.Background(), "", cfg, "", 5, 100)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "git not found on remote")
		assert.Contains(t, err.Error(), "exit=5")
	})

	t.Run("validation", func(t *testing.T) {
		d := New(testutil.NewRunnerMock(), stubResolver{})
		_, err := d.Remote(context.Background(), "", cfg, "", 5, 100)
		assert.ErrorContains(t, err, "ssh not found")

		d = New(testutil.NewRunnerMock(), bothFound)
		_, err = d.Remote(context.Background(), "", request.SSHConfig{}, "", 5, 100)
		assert.ErrorContains(t, err, "host/user")
	})
}

func TestParseTSV(t *testing.T) {
	t.Run("malformed lines skipped", func(t *testing.T) {
		repos := ParseTSV("\n\t\t\n/srv/app\tx\tapp\n")
		require.Len(t, repos, 1)
		assert.Equal(t, "/srv/app", repos[0].Path)
	})

	t.Run("path-only lines kept", func(t *testing.T) {
		repos := ParseTSV("/srv/app")
		require.Len(t, repos, 1)
		assert.Empty(t, repos[0].Name)
	})
}
