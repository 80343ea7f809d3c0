package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ExecResult holds the result of a command execution
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns trimmed stdout, falling back to stderr when empty.
// Useful for surfacing whatever the remote tool said on failure.
func (r *ExecResult) Output() string {
	out := strings.TrimSpace(r.Stdout)
	if out == "" {
		out = strings.TrimSpace(r.Stderr)
	}
	return out
}

// Exec executes a command on the remote host. A non-zero remote exit
// status is reported through ExitCode, not as an error; errors mean
// the command could not be run at all.
func (c *Client) Exec(ctx context.Context, command string) (*ExecResult, error) {
	return c.run(ctx, command, "")
}

// ExecScript executes a multi-line script on the remote host. The
// script is fed to the remote shell on stdin so embedded quoting
// survives intact, and stops at the first failing line.
func (c *Client) ExecScript(ctx context.Context, script string) (*ExecResult, error) {
	return c.run(ctx, "/bin/sh -se", "set -e\n"+script+"\n")
}

func (c *Client) run(ctx context.Context, command, stdin string) (*ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := c.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != "" {
		session.Stdin = strings.NewReader(stdin)
	}

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		// Closing the session tears down the remote command.
		_ = session.Close()
		<-done
		return nil, ctx.Err()
	case err = <-done:
	}

	result := &ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
		} else {
			return result, fmt.Errorf("failed to execute command: %w", err)
		}
	}

	return result, nil
}
