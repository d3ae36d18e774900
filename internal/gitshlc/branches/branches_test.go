// SPDX-License-Identifier: Apache-2.0

package branches

import (
	"context"
	"testing"

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

func TestList(t *testing.T) {
	t.Run("git not found", func(t *testing.T) {
		l := New(testutil.NewRunnerMock(), stubResolver{})
		result := l.List(context.Background(), "git@example.com:team/app.git", "")

		assert.False(t, result.OK)
		assert.Empty(t, result.Branches)
		assert.Equal(t, "git not found", result.Stderr)
	})

	t.Run("successful listing", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("ls-remote --heads", testutil.StepResponse{OK: true, Stdout: "" +
			"aaa111\trefs/heads/main\n" +
			"bbb222\trefs/heads/feature/login\n" +
			"ccc333\trefs/heads/develop\n"})
		l := New(mock, stubResolver{gitPath: "/usr/bin/git", gitOK: true})

		result := l.List(context.Background(), "git@example.com:team/app.git", "")

		assert.True(t, result.OK)
		assert.Equal(t, []string{"develop", "feature/login", "main"}, result.Branches)

		calls := mock.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"ls-remote", "--heads", "git@example.com:team/app.git"}, calls[0].Args)
	})

	t.Run("command failure carries stderr", func(t *testing.T) {
		mock := testutil.NewRunnerMock()
		mock.OnArgsContain("ls-remote", testutil.StepResponse{ExitCode: 128, Stderr: "fatal: repository not found"})
		l := New(mock, stubResolver{gitPath: "/usr/bin/git", gitOK: true})

		result := l.List(context.Background(), "git@example.com:team/gone.git", "")
		assert.False(t, result.OK)
		assert.Equal(t, "fatal: repository not found", result.Stderr)
	})
}

func TestParseHeads(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []string
	}{
		{
			name:     "plain heads",
			output:   "a\trefs/heads/main\nb\trefs/heads/dev\n",
			expected: []string{"dev", "main"},
		},
		{
			name:     "non-head refs skipped",
			output:   "a\trefs/heads/main\nb\trefs/tags/v1.0\nc\trefs/pull/7/head\n",
			expected: []string{"main"},
		},
		{
			name:     "duplicates collapsed",
			output:   "a\trefs/heads/main\nb\trefs/heads/main\n",
			expected: []string{"main"},
		},
		{
			name:     "lines without a tab skipped",
			output:   "warning: redirecting\na\trefs/heads/main\n",
			expected: []string{"main"},
		},
		{
			name:     "empty output",
			output:   "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseHeads(tt.output))
		})
	}
}
