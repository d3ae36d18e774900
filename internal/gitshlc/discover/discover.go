// SPDX-License-Identifier: Apache-2.0

// Package discover finds candidate git repositories, either by walking
// a local directory tree or by running a find script on a remote host
// over the ssh transport.
package discover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/gitshlc/gitshlc/internal/core/request"
	"github.com/gitshlc/gitshlc/internal/gitshlc/execbackend"
	"github.com/gitshlc/gitshlc/internal/gitshlc/orchestrator"
	"github.com/gitshlc/gitshlc/internal/gitshlc/pathnorm"
	"github.com/gitshlc/gitshlc/internal/gitshlc/runner"
	"github.com/gitshlc/gitshlc/internal/gitshlc/shellquote"
	"github.com/gitshlc/gitshlc/internal/gitshlc/toolpath"
)

// Depth and volume clamps. Local walks tolerate deeper trees than a
// remote find, which runs on someone else's machine.
const (
	MaxLocalDepth  = 50
	MaxRemoteDepth = 30
	MaxRemoteRepos = 5000
)

// Repo is one discovered repository.
type Repo struct {
	Path      string `json:"path" yaml:"path"`
	OriginURL string `json:"originUrl,omitempty" yaml:"originUrl,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Discoverer finds repositories locally and remotely.
type Discoverer struct {
	run   runner.Runner
	tools toolpath.Resolver
}

func New(run runner.Runner, tools toolpath.Resolver) *Discoverer {
	return &Discoverer{run: run, tools: tools}
}

// noise directories never worth descending into
var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"target":       {},
	"dist":         {},
	"build":        {},
	".venv":        {},
	".idea":        {},
	".vscode":      {},
}

// Local walks rootPath for repositories. The root itself counts; when
// it is one, the walk stops there. Origin URLs are reported when git
// resolves, otherwise repos are listed without them.
func (d *Discoverer) Local(ctx context.Context, rootPath string, maxDepth int, gitHint string) ([]Repo, error) {
	root := strings.TrimSpace(pathnorm.Normalize(rootPath))
	if root == "" {
		return nil, fmt.Errorf("root path is empty")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", root)
	}

	depth := clamp(maxDepth, 1, MaxLocalDepth)
	gitPath, gitFound := d.tools.ResolveGit(gitHint)

	var found []string
	if orchestrator.IsGitDir(root) {
		found = append(found, root)
	} else {
		d.walk(root, 0, depth, &found)
	}
	sort.Strings(found)

	repos := make([]Repo, 0, len(found))
	for _, dir := range found {
		repo := Repo{Path: dir, Name: filepath.Base(dir)}
		if gitFound {
			repo.OriginURL = d.originURL(ctx, gitPath, dir)
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

func (d *Discoverer) walk(dir string, depth, maxDepth int, out *[]string) {
	if depth > maxDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, skip := skipDirs[entry.Name()]; skip {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if orchestrator.IsGitDir(path) {
			*out = append(*out, path)
			continue
		}
		d.walk(path, depth+1, maxDepth, out)
	}
}

func (d *Discoverer) originURL(ctx context.Context, gitPath, repoDir string) string {
	step := d.run.Run(ctx, "", gitPath, "-C", repoDir, "remote", "get-url", "origin")
	if !step.OK {
		return ""
	}
	return strings.TrimSpace(step.Stdout)
}

// remoteScriptTmpl enumerates .git directories under a root and emits
// one TSV line per repository: path, origin URL, basename. Parameters
// are shell-quoted before rendering.
var remoteScriptTmpl = template.Must(template.New("detect").Parse(`
ROOT={{.Root}};
MAXD={{.MaxDepth}};
MAXR={{.MaxRepos}};

if [ -z "$ROOT" ]; then
  ROOT="$HOME";
fi

if ! command -v find >/dev/null 2>&1; then
  echo "find not found" >&2
  exit 4
fi

GIT_BIN=""
if command -v git >/dev/null 2>&1; then
  GIT_BIN="$(command -v git)"
fi

if [ -z "$GIT_BIN" ]; then
  echo "git not found on remote" >&2
  exit 5
fi

count=0
find "$ROOT" -maxdepth "$MAXD" -type d -name .git 2>/dev/null | while IFS= read -r g; do
  repo="${g%/.git}"
  name="$(basename "$repo")"
  origin="$("$GIT_BIN" -C "$repo" remote get-url origin 2>/dev/null || true)"
  printf '%s\t%s\t%s\n' "$repo" "$origin" "$name"
  count=$((count+1))
  if [ "$count" -ge "$MAXR" ]; then
    break
  fi
done
`))

// Remote runs the find script on the remote host. An empty rootPath
// resolves to the remote $HOME. Results are deduplicated by path.
func (d *Discoverer) Remote(ctx context.Context, sshHint string, cfg request.SSHConfig, rootPath string, maxDepth, maxRepos int) ([]Repo, error) {
	sshPath, found := d.tools.ResolveSSH(sshHint)
	if !found {
		return nil, fmt.Errorf("ssh not found; run preflight and set sshPath if needed")
	}
	if cfg.Host == "" || cfg.User == "" {
		return nil, fmt.Errorf("ssh host/user is required")
	}

	var script strings.Builder
	err := remoteScriptTmpl.Execute(&script, map[string]any{
		"Root":     remoteRootExpr(rootPath),
		"MaxDepth": clamp(maxDepth, 1, MaxRemoteDepth),
		"MaxRepos": clamp(maxRepos, 1, MaxRemoteRepos),
	})
	if err != nil {
		return nil, fmt.Errorf("error rendering detect script: %w", err)
	}

	remoteCmd := "sh -c " + shellquote.Quote(script.String())
	step := d.run.Run(ctx, "", sshPath, execbackend.SSHArgs(cfg, remoteCmd)...)
	if !step.OK {
		return nil, fmt.Errorf("remote detect failed: exit=%d stderr=%s", step.ExitCode, step.Stderr)
	}

	return ParseTSV(step.Stdout), nil
}

// remoteRootExpr renders the root as a shell expression for the detect
// script. Tilde is caller shorthand for the remote home directory and must
// not be quoted, or find would search a literal "~" path: a bare ~ (like an
// empty root) falls through to the script's $HOME default, and a ~/ prefix
// expands against the remote $HOME.
func remoteRootExpr(rootPath string) string {
	root := strings.TrimSpace(rootPath)
	if root == "~" {
		root = ""
	}
	if rest, ok := strings.CutPrefix(root, "~/"); ok {
		return `"$HOME"/` + shellquote.Quote(rest)
	}
	return shellquote.Quote(root)
}

// ParseTSV turns the remote script's TSV output into repos, skipping
// malformed lines and collapsing duplicate paths.
func ParseTSV(output string) []Repo {
	seen := make(map[string]struct{})
	repos := []Repo{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "\t", 3)
		path := strings.TrimSpace(parts[0])
		if path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}

		repo := Repo{Path: path}
		if len(parts) > 1 {
			repo.OriginURL = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			repo.Name = strings.TrimSpace(parts[2])
		}
		repos = append(repos, repo)
	}
	return repos
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
