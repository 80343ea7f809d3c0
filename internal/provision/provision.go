// Package provision makes a remote host ready for container
// deployments: package index, prerequisite tools, the nginx daemon,
// the Docker engine with its compose plugin, group membership, and
// service enablement. Every step is idempotent so re-running against
// an already-provisioned host is a no-op apart from apt refreshing.
package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/shipway/shipway/internal/ssh"
)

// prerequisitePackages are always installed alongside nginx. apt skips
// the ones already present.
var prerequisitePackages = []string{"curl", "ca-certificates", "git", "rsync", "gnupg"}

// Report holds the installed tool versions, shown as confirmation.
type Report struct {
	DockerVersion  string
	ComposeVersion string
	NginxVersion   string
}

// Provisioner prepares one remote host over the authenticated channel.
type Provisioner struct {
	exec      ssh.Executor
	user      string
	onMessage func(string)
}

// New creates a provisioner for the given remote user.
func New(exec ssh.Executor, user string) *Provisioner {
	return &Provisioner{exec: exec, user: user}
}

// OnMessage sets a callback for progress messages.
func (p *Provisioner) OnMessage(fn func(string)) {
	p.onMessage = fn
}

func (p *Provisioner) message(msg string) {
	if p.onMessage != nil {
		p.onMessage(msg)
	}
}

// Ensure runs all provisioning steps in order. Any failing install
// step is fatal and aborts the whole run.
func (p *Provisioner) Ensure(ctx context.Context) (*Report, error) {
	p.message("Refreshing package index and installing prerequisites...")
	if err := p.installBasePackages(ctx); err != nil {
		return nil, err
	}

	p.message("Checking container runtime...")
	if err := p.ensureDocker(ctx); err != nil {
		return nil, err
	}

	p.message("Checking compose plugin...")
	if err := p.ensureCompose(ctx); err != nil {
		return nil, err
	}

	p.message("Checking docker group membership...")
	if err := p.ensureDockerGroup(ctx); err != nil {
		return nil, err
	}

	p.message("Enabling services...")
	if err := p.enableServices(ctx); err != nil {
		return nil, err
	}

	return p.report(ctx)
}

func (p *Provisioner) installBasePackages(ctx context.Context) error {
	script := strings.Join([]string{
		"sudo apt-get update -qq",
		fmt.Sprintf("sudo DEBIAN_FRONTEND=noninteractive apt-get install -y -qq %s nginx",
			strings.Join(prerequisitePackages, " ")),
	}, "\n")

	result, err := p.exec.ExecScript(ctx, script)
	if err != nil {
		return fmt.Errorf("failed to install base packages: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("base package installation failed (exit %d): %s", result.ExitCode, result.Output())
	}
	return nil
}

// ensureDocker installs the Docker engine only when the version probe
// fails; an existing installation is never touched.
func (p *Provisioner) ensureDocker(ctx context.Context) error {
	probe, err := p.exec.Exec(ctx, "docker --version")
	if err != nil {
		return fmt.Errorf("docker version probe failed: %w", err)
	}
	if probe.ExitCode == 0 {
		p.message("Docker already installed: " + probe.Output())
		return nil
	}

	p.message("Installing Docker...")
	result, err := p.exec.Exec(ctx, "curl -fsSL https://get.docker.com | sudo sh")
	if err != nil {
		return fmt.Errorf("docker installation failed: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("docker installation failed (exit %d): %s", result.ExitCode, result.Output())
	}
	return nil
}

func (p *Provisioner) ensureCompose(ctx context.Context) error {
	probe, err := p.exec.Exec(ctx, "docker compose version")
	if err != nil {
		return fmt.Errorf("compose version probe failed: %w", err)
	}
	if probe.ExitCode == 0 {
		p.message("Compose plugin already installed: " + probe.Output())
		return nil
	}

	p.message("Installing compose plugin...")
	result, err := p.exec.Exec(ctx,
		"sudo DEBIAN_FRONTEND=noninteractive apt-get install -y -qq docker-compose-plugin")
	if err != nil {
		return fmt.Errorf("compose plugin installation failed: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("compose plugin installation failed (exit %d): %s", result.ExitCode, result.Output())
	}
	return nil
}

// ensureDockerGroup adds the remote user to the docker group only when
// absent. The membership takes effect on the next login; deployment
// commands in the same run use sudo-less docker where the daemon
// socket already permits it, so this is not a blocker.
func (p *Provisioner) ensureDockerGroup(ctx context.Context) error {
	groups, err := p.exec.Exec(ctx, "id -nG")
	if err != nil {
		return fmt.Errorf("group membership probe failed: %w", err)
	}

	for _, group := range strings.Fields(groups.Stdout) {
		if group == "docker" {
			return nil
		}
	}

	p.message(fmt.Sprintf("Adding %s to the docker group...", p.user))
	result, err := p.exec.Exec(ctx, fmt.Sprintf("sudo usermod -aG docker %s", p.user))
	if err != nil {
		return fmt.Errorf("failed to add user to docker group: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to add user to docker group (exit %d): %s", result.ExitCode, result.Output())
	}
	return nil
}

func (p *Provisioner) enableServices(ctx context.Context) error {
	for _, service := range []string{"docker", "nginx"} {
		result, err := p.exec.Exec(ctx, fmt.Sprintf("sudo systemctl enable --now %s", service))
		if err != nil {
			return fmt.Errorf("failed to enable %s: %w", service, err)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("failed to enable %s (exit %d): %s", service, result.ExitCode, result.Output())
		}
	}
	return nil
}

// report collects installed tool versions. nginx prints its version on
// stderr, which Output() falls back to.
func (p *Provisioner) report(ctx context.Context) (*Report, error) {
	report := &Report{}

	probes := []struct {
		command string
		target  *string
	}{
		{"docker --version", &report.DockerVersion},
		{"docker compose version", &report.ComposeVersion},
		{"nginx -v", &report.NginxVersion},
	}

	for _, probe := range probes {
		result, err := p.exec.Exec(ctx, probe.command)
		if err != nil {
			return nil, fmt.Errorf("version probe %q failed: %w", probe.command, err)
		}
		if result.ExitCode != 0 {
			return nil, fmt.Errorf("version probe %q failed (exit %d): %s",
				probe.command, result.ExitCode, result.Output())
		}
		*probe.target = result.Output()
	}

	return report, nil
}
