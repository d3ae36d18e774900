// SPDX-License-Identifier: Apache-2.0

// Package shellquote escapes strings for a POSIX shell. The remote
// backend flattens git invocations into a single sh command line, so
// every argument that reaches it has to survive one round of shell
// word splitting intact.
package shellquote

import "strings"

// Characters that never need quoting in a POSIX shell word.
const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_@%+=:,./-"

// Quote returns s escaped so that a POSIX shell parses it as a single
// word equal to s. Safe tokens pass through untouched; everything else
// is wrapped in single quotes with embedded quotes rewritten as '\''.
// The empty string becomes ''.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if isSafe(s) {
		return s
	}
	// ' -> '\'' (close quoting, escaped quote, reopen quoting)
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteAll quotes each argument and joins them with single spaces.
func QuoteAll(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}

func isSafe(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune(safeChars, r) {
			return false
		}
	}
	return true
}
