// SPDX-License-Identifier: Apache-2.0

// Package version holds build metadata injected at link time via
// -ldflags "-X github.com/gitshlc/gitshlc/internal/version.Version=...".
package version

var (
	// Version is the semantic version of the build.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "unknown"
)
