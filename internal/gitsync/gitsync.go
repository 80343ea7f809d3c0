// Package gitsync maintains the local working copy of the repository
// being deployed. It shells out to the git binary; clone output and
// errors pass a redactor so the access token never reaches a log sink.
package gitsync

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shipway/shipway/internal/config"
	"github.com/shipway/shipway/internal/security"
)

// runGit executes git with the given working directory and returns
// combined output. Swappable in tests.
type runGit func(ctx context.Context, dir string, args ...string) ([]byte, error)

// Synchronizer produces a local working copy of the requested branch
// at head, under a per-project scratch directory reused across runs.
type Synchronizer struct {
	cfg      *config.DeploymentConfig
	redactor *security.Redactor
	root     string
	run      runGit
}

// New creates a synchronizer rooted at the user cache directory.
func New(cfg *config.DeploymentConfig, redactor *security.Redactor) (*Synchronizer, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return &Synchronizer{
		cfg:      cfg,
		redactor: redactor,
		root:     filepath.Join(cacheDir, "shipway", "sources"),
		run:      execGit,
	}, nil
}

// WorkDir returns the local working copy path for the project.
func (s *Synchronizer) WorkDir() string {
	return filepath.Join(s.root, s.cfg.Project)
}

// Sync clones the repository on first use, or brings an existing
// working copy to the head of the requested branch in place.
// Updates are fast-forward only; a diverged copy is a fatal error
// surfacing git's own message.
func (s *Synchronizer) Sync(ctx context.Context) (string, error) {
	workDir := s.WorkDir()

	if _, err := os.Stat(filepath.Join(workDir, ".git")); err == nil {
		if err := s.update(ctx, workDir); err != nil {
			return "", err
		}
		return workDir, nil
	}

	if err := s.clone(ctx, workDir); err != nil {
		return "", err
	}
	return workDir, nil
}

func (s *Synchronizer) clone(ctx context.Context, workDir string) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create scratch root: %w", err)
	}

	out, err := s.run(ctx, s.root, "clone", "--branch", s.cfg.Branch, s.cfg.CloneURL(), workDir)
	if err != nil {
		return s.gitError("clone", out, err)
	}
	return nil
}

func (s *Synchronizer) update(ctx context.Context, workDir string) error {
	steps := [][]string{
		{"fetch", "origin"},
		{"checkout", s.cfg.Branch},
		{"pull", "--ff-only", "origin", s.cfg.Branch},
	}

	for _, args := range steps {
		out, err := s.run(ctx, workDir, args...)
		if err != nil {
			return s.gitError("git "+args[0], out, err)
		}
	}
	return nil
}

func (s *Synchronizer) gitError(op string, out []byte, err error) error {
	detail := s.redactor.Redact(string(out))
	return fmt.Errorf("%s failed: %s: %s", op, s.redactor.RedactError(err), detail)
}

func execGit(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	// The tokenized URL is passed on the command line only; keep git
	// from prompting interactively when the token is wrong.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	return cmd.CombinedOutput()
}
