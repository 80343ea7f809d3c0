package ssh

import "context"

// Executor abstracts remote command execution for testability.
// Implementations run a single command or a multi-line script on one
// remote host and report output plus exit status.
type Executor interface {
	Exec(ctx context.Context, command string) (*ExecResult, error)
	ExecScript(ctx context.Context, script string) (*ExecResult, error)
	Close() error
}
