package deploy

import (
	"context"
	"fmt"

	"github.com/shipway/shipway/internal/config"
	"github.com/shipway/shipway/internal/ssh"
)

// Teardown removes every remote trace of a project: containers,
// compose group, image, project directory and the nginx site. Each
// removal tolerates an already-absent target so a partial earlier
// teardown can be re-run to completion.
type Teardown struct {
	exec      ssh.Executor
	cfg       *config.DeploymentConfig
	state     *RemoteState
	onMessage func(string)
}

// NewTeardown creates a teardown over the authenticated channel.
func NewTeardown(exec ssh.Executor, cfg *config.DeploymentConfig) *Teardown {
	return &Teardown{exec: exec, cfg: cfg, state: NewRemoteState(exec, cfg)}
}

// OnMessage sets a callback for progress messages.
func (t *Teardown) OnMessage(fn func(string)) {
	t.onMessage = fn
}

func (t *Teardown) message(msg string) {
	if t.onMessage != nil {
		t.onMessage(msg)
	}
}

// Run executes the removal sequence.
func (t *Teardown) Run(ctx context.Context) error {
	t.message("Stopping and removing containers...")
	if err := t.state.NeutralizeContainer(ctx); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}

	hasCompose, err := t.state.HasComposeFile(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect project directory: %w", err)
	}
	if hasCompose {
		t.message("Bringing down compose services...")
		if err := t.state.NeutralizeCompose(ctx); err != nil {
			return fmt.Errorf("failed to bring down compose services: %w", err)
		}
	}

	t.message("Removing image...")
	if err := t.state.NeutralizeImage(ctx); err != nil {
		return fmt.Errorf("failed to remove image: %w", err)
	}

	t.message("Removing project directory...")
	if err := t.state.RemoveProjectDir(ctx); err != nil {
		return err
	}

	t.message("Removing reverse proxy site...")
	if err := RemoveProxy(ctx, t.exec, t.cfg); err != nil {
		return err
	}

	return nil
}
