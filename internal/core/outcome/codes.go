// SPDX-License-Identifier: Apache-2.0

package outcome

// ErrorSpec is one entry of the error taxonomy: a stable code with its
// severity and default message. Errors are built from these specs at the
// point of failure so the step trace collected so far is always preserved.
type ErrorSpec struct {
	Code     string
	Severity Severity
	Message  string
}

// Configuration-category failures. These short-circuit during validation,
// before any command runs.
var (
	ErrUnknownAction     = ErrorSpec{"CFG-0001", SeverityError, "unknown action (expected pull|push|merge)"}
	ErrUnknownMode       = ErrorSpec{"CFG-0002", SeverityError, "unknown mode (expected local|ssh)"}
	ErrMergeFromRequired = ErrorSpec{"CFG-0003", SeverityError, "mergeFromBranch is required for merge"}
	ErrGuardRejected     = ErrorSpec{"CFG-0005", SeverityError, "guard expression rejected the run"}
	ErrSSHTargetRequired = ErrorSpec{"CFG-0302", SeverityError, "ssh host/user is required"}
	ErrRemotePathMissing = ErrorSpec{"CFG-0303", SeverityError, "remotePath is required"}
)

// Local filesystem validation failures.
var (
	ErrLocalPathMissing = ErrorSpec{"FS-0100", SeverityError, "localPath is required"}
	ErrLocalPathInvalid = ErrorSpec{"FS-0101", SeverityError, "localPath does not exist or is not a directory"}
	ErrNotARepository   = ErrorSpec{"FS-0102", SeverityError, "localPath is not a git repository"}
)

// Executable resolution failures. FATAL: unrecoverable without external
// reconfiguration (install the tool or set an explicit path).
var (
	ErrGitNotFound = ErrorSpec{"GIT-0001", SeverityFatal, "git not found; run preflight and set gitPath if needed"}
	ErrSSHNotFound = ErrorSpec{"SSH-0001", SeverityFatal, "ssh not found; run preflight and set sshPath if needed"}
)

// Run-time precondition and execution failures for local-mode actions.
var (
	ErrBranchDetect      = ErrorSpec{"GIT-0100", SeverityError, "failed to get current branch"}
	ErrStatusQuery       = ErrorSpec{"GIT-0101", SeverityError, "git status failed"}
	ErrDirtyWrongBranch  = ErrorSpec{"GIT-0103", SeverityError, "working tree is dirty on a different branch"}
	ErrCommitMsgRequired = ErrorSpec{"GIT-0104", SeverityError, "push requires commitMessage when working tree is dirty"}
	ErrAddFailed         = ErrorSpec{"GIT-0105", SeverityError, "git add failed"}
	ErrCommitFailed      = ErrorSpec{"GIT-0106", SeverityError, "git commit failed"}
	ErrEmptyMsgRequired  = ErrorSpec{"GIT-0107", SeverityError, "push requires commitMessage when repository has no commits"}
	ErrEmptyCommitFailed = ErrorSpec{"GIT-0108", SeverityError, "git commit --allow-empty failed"}
	ErrGitCommandFailed  = ErrorSpec{"GIT-0002", SeverityError, "git command failed (see steps)"}
)

// SSH-mode counterparts. Remote execution failures share one code because the
// transport flattens every git invocation into a single remote command.
var (
	ErrRemoteCommandFailed = ErrorSpec{"SSH-0200", SeverityError, "remote command failed (see steps)"}
	ErrRemoteExecFailed    = ErrorSpec{"SSH-0201", SeverityError, "remote git command failed"}
)

// Repository initializer codes.
var (
	ErrInitPathRequired    = ErrorSpec{"GIT-0401", SeverityError, "localPath is required"}
	ErrInitMkdirFailed     = ErrorSpec{"GIT-0402", SeverityError, "failed to create directory"}
	InfoAlreadyInitialized = ErrorSpec{"GIT-0403", SeverityInfo, ".git already exists (already initialized)"}
	ErrInitFailed          = ErrorSpec{"GIT-0499", SeverityError, "init failed (see steps)"}
)

// Err builds an ActionError from a spec with optional free-text detail.
func (s ErrorSpec) Err(detail string) *ActionError {
	return &ActionError{Code: s.Code, Severity: s.Severity, Message: s.Message, Detail: detail}
}

// Fail builds a failing outcome from a spec, keeping the trace collected so far.
// A nil trace becomes an empty slice so the steps field always serializes as a
// list, validation-phase failures included.
func (s ErrorSpec) Fail(mode, action, envKey string, steps []Step, detail string) ActionOutcome {
	if steps == nil {
		steps = []Step{}
	}
	return ActionOutcome{
		OK:     false,
		Mode:   mode,
		Action: action,
		EnvKey: envKey,
		Steps:  steps,
		Error:  s.Err(detail),
	}
}
