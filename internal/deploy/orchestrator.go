// Package deploy drives the remote side of a run: source transfer,
// container lifecycle, reverse proxy wiring, validation and teardown.
package deploy

import (
	"context"
	"fmt"

	"github.com/shipway/shipway/internal/config"
	"github.com/shipway/shipway/internal/gitsync"
	"github.com/shipway/shipway/internal/logging"
	"github.com/shipway/shipway/internal/provision"
	"github.com/shipway/shipway/internal/scanner"
	"github.com/shipway/shipway/internal/security"
	"github.com/shipway/shipway/internal/ssh"
)

// StepStatus classifies how a pipeline step ended.
type StepStatus string

const (
	StepOK     StepStatus = "ok"
	StepWarn   StepStatus = "warn"
	StepFailed StepStatus = "failed"
)

// StepOutcome records one pipeline step for the final summary.
type StepOutcome struct {
	Name   string
	Status StepStatus
	Detail string
}

// Result is what a finished (or aborted) run produced.
type Result struct {
	Outcomes  []StepOutcome
	Warnings  []string
	Provision *provision.Report
}

// Orchestrator runs the deployment pipeline in fixed order. The first
// fatal step failure aborts the run; advisory warnings are collected
// and the run still counts as a success.
type Orchestrator struct {
	cfg       *config.DeploymentConfig
	log       *logging.RunLogger
	onMessage func(string)

	// Pipeline steps, swappable in tests.
	syncSource     func(ctx context.Context) (string, error)
	scanSource     func(dir string) (*scanner.ScanResult, error)
	provisionHost  func(ctx context.Context) (*provision.Report, error)
	deployProject  func(ctx context.Context, workDir string, def *scanner.ScanResult) error
	configureProxy func(ctx context.Context) error
	validateRun    func(ctx context.Context, def *scanner.ScanResult) ([]string, error)
}

// NewOrchestrator wires the pipeline over an authenticated channel.
// The client may be nil in tests; it only backs the archive-transfer
// fallback.
func NewOrchestrator(executor ssh.Executor, client *ssh.Client, cfg *config.DeploymentConfig,
	log *logging.RunLogger, redactor *security.Redactor) (*Orchestrator, error) {

	sync, err := gitsync.New(cfg, redactor)
	if err != nil {
		return nil, err
	}

	deployer := NewDeployer(executor, client, cfg)
	provisioner := provision.New(executor, cfg.User)
	validator := NewValidator(executor, cfg)

	o := &Orchestrator{
		cfg:            cfg,
		log:            log,
		syncSource:     sync.Sync,
		scanSource:     scanner.Verify,
		provisionHost:  provisioner.Ensure,
		deployProject:  deployer.Deploy,
		configureProxy: func(ctx context.Context) error { return ConfigureProxy(ctx, executor, cfg) },
		validateRun:    validator.Validate,
	}

	deployer.OnMessage(o.message)
	provisioner.OnMessage(o.message)
	return o, nil
}

// OnMessage sets a callback for progress messages, forwarded from the
// underlying steps as well.
func (o *Orchestrator) OnMessage(fn func(string)) {
	o.onMessage = fn
}

func (o *Orchestrator) message(msg string) {
	if o.onMessage != nil {
		o.onMessage(msg)
	}
	if o.log != nil {
		o.log.Infof("%s", msg)
	}
}

// Run executes the full pipeline. The returned result carries the
// per-step outcomes even when the run aborted early.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	var workDir string
	var def *scanner.ScanResult

	steps := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"sync-source", func(ctx context.Context) error {
			dir, err := o.syncSource(ctx)
			workDir = dir
			return err
		}},
		{"scan-definition", func(ctx context.Context) error {
			found, err := o.scanSource(workDir)
			def = found
			return err
		}},
		{"provision", func(ctx context.Context) error {
			report, err := o.provisionHost(ctx)
			result.Provision = report
			return err
		}},
		{"deploy", func(ctx context.Context) error {
			return o.deployProject(ctx, workDir, def)
		}},
		{"configure-proxy", o.configureProxy},
		{"validate", func(ctx context.Context) error {
			warnings, err := o.validateRun(ctx, def)
			result.Warnings = warnings
			return err
		}},
	}

	for _, step := range steps {
		o.message(fmt.Sprintf("Step %s...", step.name))
		if err := step.fn(ctx); err != nil {
			result.Outcomes = append(result.Outcomes, StepOutcome{
				Name: step.name, Status: StepFailed, Detail: err.Error(),
			})
			if o.log != nil {
				o.log.StepFailed(step.name, err)
			}
			return result, fmt.Errorf("step %s: %w", step.name, err)
		}
		result.Outcomes = append(result.Outcomes, StepOutcome{Name: step.name, Status: StepOK})
		if o.log != nil {
			o.log.Successf("step %s completed", step.name)
		}
	}

	// Advisory warnings downgrade the validate outcome without failing
	// the run.
	for _, warning := range result.Warnings {
		if o.log != nil {
			o.log.Warnf("%s", warning)
		}
	}
	if len(result.Warnings) > 0 {
		last := &result.Outcomes[len(result.Outcomes)-1]
		last.Status = StepWarn
		last.Detail = fmt.Sprintf("%d advisory warning(s)", len(result.Warnings))
	}

	return result, nil
}
