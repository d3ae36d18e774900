// SPDX-License-Identifier: Apache-2.0

// Package pathnorm cleans up user-supplied paths before they enter a
// request: drag-and-drop and copy-paste tend to leave wrapping quotes
// and unexpanded tildes behind.
package pathnorm

import (
	"os"
	"strings"
)

// StripWrappingQuotes removes one layer of matching single or double
// quotes around s, trimming whitespace on both sides of the operation.
func StripWrappingQuotes(s string) string {
	t := strings.TrimSpace(s)
	if len(t) >= 2 {
		first, last := t[0], t[len(t)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return strings.TrimSpace(t[1 : len(t)-1])
		}
	}
	return t
}

// ExpandTilde replaces a leading ~ with the user's home directory.
// HOME wins over USERPROFILE; if neither is set the path is returned
// unchanged. The separator after the tilde is preserved.
func ExpandTilde(s string) string {
	t := strings.TrimSpace(s)
	if t != "~" && !strings.HasPrefix(t, "~/") && !strings.HasPrefix(t, `~\`) {
		return t
	}

	for _, env := range []string{"HOME", "USERPROFILE"} {
		home := os.Getenv(env)
		if home == "" {
			continue
		}
		if t == "~" {
			return home
		}
		return home + t[1:]
	}
	return t
}

// Normalize applies quote stripping then tilde expansion.
func Normalize(s string) string {
	return ExpandTilde(StripWrappingQuotes(s))
}

// DefaultRoot picks a sensible starting directory for repository
// discovery: USERPROFILE, then HOME, then the current directory.
func DefaultRoot() string {
	for _, env := range []string{"USERPROFILE", "HOME"} {
		if v := os.Getenv(env); v != "" {
			if info, err := os.Stat(v); err == nil && info.IsDir() {
				return v
			}
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return ""
}
