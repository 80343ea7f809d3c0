package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/shipway/shipway/internal/config"
	"github.com/shipway/shipway/internal/ssh"
)

// RemoteState is the narrow capability for the per-project state that
// lives only on the remote host: the project directory, the container
// (or compose group) named after the project, and its image tag. All
// removal operations follow an absent-is-success contract so a
// half-deployed or already-clean host never fails a run.
type RemoteState struct {
	exec ssh.Executor
	cfg  *config.DeploymentConfig
}

// NewRemoteState creates the capability over an authenticated channel.
func NewRemoteState(exec ssh.Executor, cfg *config.DeploymentConfig) *RemoteState {
	return &RemoteState{exec: exec, cfg: cfg}
}

// ContainerRunning reports whether the project container is in the
// running set.
func (s *RemoteState) ContainerRunning(ctx context.Context) (bool, error) {
	cmd := fmt.Sprintf("docker ps --filter name=^%s$ --format '{{.Names}}'", s.cfg.ContainerName())
	result, err := s.exec.Exec(ctx, cmd)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(result.Stdout) != "", nil
}

// ComposeRunning reports whether any compose service of the project is
// running.
func (s *RemoteState) ComposeRunning(ctx context.Context) (bool, error) {
	cmd := fmt.Sprintf(`cd "%s" && docker compose ps -q --status running`, s.cfg.RemoteDir())
	result, err := s.exec.Exec(ctx, cmd)
	if err != nil {
		return false, err
	}
	if result.ExitCode != 0 {
		return false, nil
	}
	return strings.TrimSpace(result.Stdout) != "", nil
}

// HasComposeFile reports whether the remote project directory holds a
// compose definition.
func (s *RemoteState) HasComposeFile(ctx context.Context) (bool, error) {
	cmd := fmt.Sprintf(
		`cd "%s" 2>/dev/null && ls docker-compose.yml docker-compose.yaml compose.yml compose.yaml 2>/dev/null`,
		s.cfg.RemoteDir())
	result, err := s.exec.Exec(ctx, cmd)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(result.Stdout) != "", nil
}

// NeutralizeContainer stops and removes the project container.
// Tolerates a missing container.
func (s *RemoteState) NeutralizeContainer(ctx context.Context) error {
	cmd := fmt.Sprintf("docker rm -f %s 2>/dev/null || true", s.cfg.ContainerName())
	_, err := s.exec.Exec(ctx, cmd)
	return err
}

// NeutralizeCompose brings down the project's compose group.
// Tolerates a missing definition or stack.
func (s *RemoteState) NeutralizeCompose(ctx context.Context) error {
	cmd := fmt.Sprintf(`cd "%s" 2>/dev/null && docker compose down --remove-orphans 2>/dev/null || true`,
		s.cfg.RemoteDir())
	_, err := s.exec.Exec(ctx, cmd)
	return err
}

// NeutralizeImage removes the project's tagged image.
// Tolerates a missing image.
func (s *RemoteState) NeutralizeImage(ctx context.Context) error {
	cmd := fmt.Sprintf("docker rmi %s 2>/dev/null || true", s.cfg.ImageTag())
	_, err := s.exec.Exec(ctx, cmd)
	return err
}

// RemoveProjectDir recursively deletes the remote project directory.
func (s *RemoteState) RemoveProjectDir(ctx context.Context) error {
	result, err := s.exec.Exec(ctx, fmt.Sprintf(`rm -rf "%s"`, s.cfg.RemoteDir()))
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to remove project directory (exit %d): %s", result.ExitCode, result.Output())
	}
	return nil
}

// ContainerLogs fetches the tail of the project container's logs,
// surfaced to the operator when the container fails to reach running.
func (s *RemoteState) ContainerLogs(ctx context.Context, lines int) (string, error) {
	cmd := fmt.Sprintf("docker logs %s --tail %d 2>&1", s.cfg.ContainerName(), lines)
	result, err := s.exec.Exec(ctx, cmd)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// ComposeLogs fetches the tail of the compose group's logs.
func (s *RemoteState) ComposeLogs(ctx context.Context, lines int) (string, error) {
	cmd := fmt.Sprintf(`cd "%s" && docker compose logs --tail %d 2>&1`, s.cfg.RemoteDir(), lines)
	result, err := s.exec.Exec(ctx, cmd)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}
