package deploy

import (
	"context"
	"fmt"

	"github.com/shipway/shipway/internal/config"
	"github.com/shipway/shipway/internal/nginx"
	"github.com/shipway/shipway/internal/ssh"
)

// ConfigureProxy installs the project's site definition, enables it,
// and reloads nginx. The reload is gated on a passing syntax check so
// a bad definition never takes down sites that currently work.
func ConfigureProxy(ctx context.Context, exec ssh.Executor, cfg *config.DeploymentConfig) error {
	content, err := nginx.GenerateSiteConfig(nginx.SiteConfig{Project: cfg.Project, Port: cfg.Port})
	if err != nil {
		return fmt.Errorf("failed to render site definition: %w", err)
	}

	for _, cmd := range nginx.InstallCommands(cfg.Project, content) {
		result, err := exec.Exec(ctx, cmd)
		if err != nil {
			return fmt.Errorf("failed to install site definition: %w", err)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("failed to install site definition (exit %d): %s", result.ExitCode, result.Output())
		}
	}

	return reloadGated(ctx, exec)
}

// RemoveProxy deletes the project's site definition and its enabled
// symlink, then reloads nginx through the same syntax gate. Both
// removals tolerate targets that are already gone.
func RemoveProxy(ctx context.Context, exec ssh.Executor, cfg *config.DeploymentConfig) error {
	for _, cmd := range nginx.RemoveCommands(cfg.Project) {
		result, err := exec.Exec(ctx, cmd)
		if err != nil {
			return fmt.Errorf("failed to remove site definition: %w", err)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("failed to remove site definition (exit %d): %s", result.ExitCode, result.Output())
		}
	}

	return reloadGated(ctx, exec)
}

// reloadGated reloads nginx only after `nginx -t` passes. A failing
// check aborts without reloading.
func reloadGated(ctx context.Context, exec ssh.Executor) error {
	result, err := exec.Exec(ctx, nginx.TestCommand())
	if err != nil {
		return fmt.Errorf("nginx syntax check failed: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("nginx rejected the configuration, reload skipped: %s", result.Output())
	}

	result, err = exec.Exec(ctx, nginx.ReloadCommand())
	if err != nil {
		return fmt.Errorf("nginx reload failed: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("nginx reload failed (exit %d): %s", result.ExitCode, result.Output())
	}
	return nil
}
