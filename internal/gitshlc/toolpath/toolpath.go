// SPDX-License-Identifier: Apache-2.0

// Package toolpath resolves the git and ssh executables the rest of
// the system runs. Resolution order: an explicit hint (a concrete
// file, a directory containing the tool, or a bare name looked up on
// PATH), then conventional install locations, then PATH.
package toolpath

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Resolver resolves tool names to executable paths. Tests inject a
// stub so no real git or ssh install is needed.
type Resolver interface {
	ResolveGit(hint string) (string, bool)
	ResolveSSH(hint string) (string, bool)
}

// SystemResolver resolves against the real filesystem and PATH.
type SystemResolver struct{}

func NewSystemResolver() *SystemResolver {
	return &SystemResolver{}
}

// ResolveGit returns the path to the git executable, preferring the hint.
func (r *SystemResolver) ResolveGit(hint string) (string, bool) {
	return resolve(hint, "git", gitKnownPaths())
}

// ResolveSSH returns the path to the ssh executable, preferring the hint.
func (r *SystemResolver) ResolveSSH(hint string) (string, bool) {
	return resolve(hint, "ssh", sshKnownPaths())
}

func resolve(hint, baseName string, knownPaths []string) (string, bool) {
	if trimmed := strings.TrimSpace(hint); trimmed != "" {
		if looksLikePath(trimmed) {
			if p, ok := resolvePathHint(trimmed, baseName); ok {
				return p, true
			}
		} else if p, err := exec.LookPath(trimmed); err == nil {
			return p, true
		}
		// A hint that resolves to nothing falls through to the defaults.
	}

	for _, kp := range knownPaths {
		if isFile(kp) {
			return kp, true
		}
	}

	if p, err := exec.LookPath(baseName); err == nil {
		return p, true
	}
	return "", false
}

// resolvePathHint handles a hint that names a file or a directory.
func resolvePathHint(hint, baseName string) (string, bool) {
	if isFile(hint) {
		return hint, true
	}
	if info, err := os.Stat(hint); err == nil && info.IsDir() {
		candidate := filepath.Join(hint, baseName)
		if isFile(candidate) {
			return candidate, true
		}
		if runtime.GOOS == "windows" {
			candidate = filepath.Join(hint, baseName+".exe")
			if isFile(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func looksLikePath(s string) bool {
	return strings.ContainsAny(s, `/\:`)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func gitKnownPaths() []string {
	if runtime.GOOS != "windows" {
		return nil
	}
	return []string{
		`C:\Program Files\Git\cmd\git.exe`,
		`C:\Program Files\Git\bin\git.exe`,
		`C:\Program Files (x86)\Git\cmd\git.exe`,
		`C:\Program Files (x86)\Git\bin\git.exe`,
	}
}

func sshKnownPaths() []string {
	if runtime.GOOS != "windows" {
		return nil
	}
	return []string{
		`C:\Windows\System32\OpenSSH\ssh.exe`,
	}
}
