package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shipway/shipway/internal/config"
	"github.com/shipway/shipway/internal/scanner"
	"github.com/shipway/shipway/internal/ssh"
)

// checkTimeout bounds the whole validation sequence. The checks are
// all quick probes; anything slower means the host is in trouble.
const checkTimeout = 30 * time.Second

// Validator confirms a finished deployment actually serves. Service
// and container checks are fatal; the HTTP probes are advisory because
// an application may legitimately need longer than the settle wait to
// answer requests.
type Validator struct {
	exec  ssh.Executor
	cfg   *config.DeploymentConfig
	state *RemoteState
}

// NewValidator creates a validator over the authenticated channel.
func NewValidator(exec ssh.Executor, cfg *config.DeploymentConfig) *Validator {
	return &Validator{exec: exec, cfg: cfg, state: NewRemoteState(exec, cfg)}
}

// Validate runs the check sequence. It returns advisory warnings and a
// fatal error; warnings may be non-empty even when err is nil.
func (v *Validator) Validate(ctx context.Context, def *scanner.ScanResult) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := v.serviceActive(ctx, "docker"); err != nil {
		return nil, err
	}

	if err := v.containerUp(ctx, def); err != nil {
		return nil, err
	}

	if err := v.serviceActive(ctx, "nginx"); err != nil {
		return nil, err
	}

	var warnings []string
	if warn := v.probeApplication(ctx); warn != "" {
		warnings = append(warnings, warn)
	}
	if warn := v.probeProxy(ctx); warn != "" {
		warnings = append(warnings, warn)
	}
	return warnings, nil
}

func (v *Validator) serviceActive(ctx context.Context, service string) error {
	result, err := v.exec.Exec(ctx, fmt.Sprintf("systemctl is-active %s", service))
	if err != nil {
		return fmt.Errorf("failed to check %s service: %w", service, err)
	}
	if result.ExitCode != 0 || strings.TrimSpace(result.Stdout) != "active" {
		return fmt.Errorf("%s service is not active: %s", service, result.Output())
	}
	return nil
}

func (v *Validator) containerUp(ctx context.Context, def *scanner.ScanResult) error {
	var running bool
	var err error
	if def.Kind() == scanner.DefinitionCompose {
		running, err = v.state.ComposeRunning(ctx)
	} else {
		running, err = v.state.ContainerRunning(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to check container state: %w", err)
	}
	if !running {
		return fmt.Errorf("container %s is not running", v.cfg.ContainerName())
	}
	return nil
}

// probeApplication hits the application port directly on the remote
// loopback. Failure is advisory: the app may still be warming up.
func (v *Validator) probeApplication(ctx context.Context) string {
	cmd := fmt.Sprintf("curl -sf -o /dev/null --max-time 5 http://localhost:%d", v.cfg.Port)
	result, err := v.exec.Exec(ctx, cmd)
	if err != nil {
		return fmt.Sprintf("could not probe application port %d: %v", v.cfg.Port, err)
	}
	if result.ExitCode != 0 {
		return fmt.Sprintf("application did not answer on port %d yet; it may still be starting", v.cfg.Port)
	}
	return ""
}

// probeProxy checks that nginx forwards port 80 to the application. A
// 502 here usually means the app is not up yet, so it stays advisory.
func (v *Validator) probeProxy(ctx context.Context) string {
	cmd := `curl -s -o /dev/null --max-time 5 -w '%{http_code}' http://localhost:80`
	result, err := v.exec.Exec(ctx, cmd)
	if err != nil {
		return fmt.Sprintf("could not probe the reverse proxy: %v", err)
	}

	code := strings.TrimSpace(result.Stdout)
	if result.ExitCode != 0 || code == "" || code == "000" {
		return "reverse proxy did not answer on port 80"
	}
	if strings.HasPrefix(code, "5") {
		return fmt.Sprintf("reverse proxy answered %s on port 80; the application may still be starting", code)
	}
	return ""
}
