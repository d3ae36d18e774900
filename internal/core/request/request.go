// SPDX-License-Identifier: Apache-2.0

// Package request defines the caller-facing request documents. A request is
// owned by a single run and never persisted; the only durable state is the
// git repository the executed steps mutate.
package request

import (
	"strings"

	"github.com/gitshlc/gitshlc/internal/core/format"
)

// Execution modes and actions accepted by the orchestrator.
const (
	ModeLocal = "local"
	ModeSSH   = "ssh"

	ActionPull  = "pull"
	ActionPush  = "push"
	ActionMerge = "merge"
	ActionInit  = "init"
)

// DefaultSSHPort is used when a request leaves the port unset.
const DefaultSSHPort = 22

// SSHConfig describes the remote transport target for ssh-mode requests.
type SSHConfig struct {
	Host    string `json:"host" yaml:"host"`
	User    string `json:"user" yaml:"user"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
	KeyPath string `json:"keyPath,omitempty" yaml:"keyPath,omitempty"`
}

// EffectivePort returns the configured port or the ssh default.
func (c SSHConfig) EffectivePort() int {
	if c.Port <= 0 {
		return DefaultSSHPort
	}
	return c.Port
}

// RunActionRequest is one orchestration request. GitPath and SSHPath are
// resolution hints; empty means auto-resolve. Guard is an optional CEL
// expression evaluated against the probe results before any mutating step.
type RunActionRequest struct {
	Mode            string    `json:"mode" yaml:"mode"`
	EnvKey          string    `json:"envKey" yaml:"envKey"`
	Action          string    `json:"action" yaml:"action"`
	LocalPath       string    `json:"localPath,omitempty" yaml:"localPath,omitempty"`
	RemotePath      string    `json:"remotePath,omitempty" yaml:"remotePath,omitempty"`
	Branch          string    `json:"branch" yaml:"branch"`
	GitPath         string    `json:"gitPath,omitempty" yaml:"gitPath,omitempty"`
	SSHPath         string    `json:"sshPath,omitempty" yaml:"sshPath,omitempty"`
	SSH             SSHConfig `json:"ssh,omitempty" yaml:"ssh,omitempty"`
	MergeFromBranch string    `json:"mergeFromBranch,omitempty" yaml:"mergeFromBranch,omitempty"`
	CommitMessage   string    `json:"commitMessage,omitempty" yaml:"commitMessage,omitempty"`
	Guard           string    `json:"guard,omitempty" yaml:"guard,omitempty"`
}

// InitRequest is a first-time repository setup request.
type InitRequest struct {
	GitPath       string `json:"gitPath,omitempty" yaml:"gitPath,omitempty"`
	LocalPath     string `json:"localPath" yaml:"localPath"`
	RepoURL       string `json:"repoUrl,omitempty" yaml:"repoUrl,omitempty"`
	DefaultBranch string `json:"defaultBranch,omitempty" yaml:"defaultBranch,omitempty"`
}

// LoadRunAction reads a run-action request from a YAML or JSON file.
func LoadRunAction(path string) (*RunActionRequest, error) {
	req := &RunActionRequest{}
	if err := format.ParseFile(path, req); err != nil {
		return nil, err
	}
	normalize(req)
	return req, nil
}

// normalize trims the fields that are compared or embedded into command
// lines. Quote stripping and tilde expansion are the CLI's job, not ours.
func normalize(req *RunActionRequest) {
	req.Mode = strings.TrimSpace(req.Mode)
	req.Action = strings.TrimSpace(req.Action)
	req.LocalPath = strings.TrimSpace(req.LocalPath)
	req.RemotePath = strings.TrimSpace(req.RemotePath)
	req.Branch = strings.TrimSpace(req.Branch)
	req.MergeFromBranch = strings.TrimSpace(req.MergeFromBranch)
	req.CommitMessage = strings.TrimSpace(req.CommitMessage)
	req.SSH.Host = strings.TrimSpace(req.SSH.Host)
	req.SSH.User = strings.TrimSpace(req.SSH.User)
	req.SSH.KeyPath = strings.TrimSpace(req.SSH.KeyPath)
}
