package deploy

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shipway/shipway/internal/provision"
	"github.com/shipway/shipway/internal/scanner"
)

// stubOrchestrator wires a pipeline where every step records its name
// and succeeds, unless failAt matches.
func stubOrchestrator(calls *[]string, failAt string) *Orchestrator {
	step := func(name string) error {
		*calls = append(*calls, name)
		if name == failAt {
			return fmt.Errorf("%s exploded", name)
		}
		return nil
	}

	return &Orchestrator{
		cfg: testConfig(),
		syncSource: func(ctx context.Context) (string, error) {
			return "/tmp/work", step("sync-source")
		},
		scanSource: func(dir string) (*scanner.ScanResult, error) {
			return &scanner.ScanResult{HasDockerfile: true}, step("scan-definition")
		},
		provisionHost: func(ctx context.Context) (*provision.Report, error) {
			return &provision.Report{DockerVersion: "27.0.1"}, step("provision")
		},
		deployProject: func(ctx context.Context, workDir string, def *scanner.ScanResult) error {
			return step("deploy")
		},
		configureProxy: func(ctx context.Context) error {
			return step("configure-proxy")
		},
		validateRun: func(ctx context.Context, def *scanner.ScanResult) ([]string, error) {
			return nil, step("validate")
		},
	}
}

var pipelineOrder = []string{
	"sync-source", "scan-definition", "provision", "deploy", "configure-proxy", "validate",
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	var calls []string
	o := stubOrchestrator(&calls, "")

	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(calls) != len(pipelineOrder) {
		t.Fatalf("pipeline ran %v, want %v", calls, pipelineOrder)
	}
	for i, name := range pipelineOrder {
		if calls[i] != name {
			t.Errorf("step %d = %q, want %q", i, calls[i], name)
		}
	}

	for _, outcome := range result.Outcomes {
		if outcome.Status != StepOK {
			t.Errorf("step %s status = %q, want ok", outcome.Name, outcome.Status)
		}
	}
	if result.Provision == nil || result.Provision.DockerVersion != "27.0.1" {
		t.Errorf("provision report not carried into the result")
	}
}

func TestRunAbortsOnFirstFatalStep(t *testing.T) {
	var calls []string
	o := stubOrchestrator(&calls, "provision")

	result, err := o.Run(context.Background())
	if err == nil {
		t.Fatalf("Run() should fail when a step fails")
	}
	if !strings.Contains(err.Error(), "step provision") {
		t.Errorf("error does not name the failed step: %v", err)
	}

	for _, name := range calls {
		if name == "deploy" || name == "configure-proxy" || name == "validate" {
			t.Errorf("step %s ran after the fatal failure", name)
		}
	}

	last := result.Outcomes[len(result.Outcomes)-1]
	if last.Name != "provision" || last.Status != StepFailed {
		t.Errorf("last outcome = %+v, want failed provision", last)
	}
}

func TestRunCollectsAdvisoryWarnings(t *testing.T) {
	var calls []string
	o := stubOrchestrator(&calls, "")
	o.validateRun = func(ctx context.Context, def *scanner.ScanResult) ([]string, error) {
		calls = append(calls, "validate")
		return []string{"application did not answer on port 8080 yet"}, nil
	}

	result, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, advisory warnings must not fail the run", err)
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("Warnings = %v", result.Warnings)
	}
	last := result.Outcomes[len(result.Outcomes)-1]
	if last.Status != StepWarn {
		t.Errorf("validate outcome status = %q, want warn", last.Status)
	}
}

func TestRunScanGateBlocksTransfer(t *testing.T) {
	var calls []string
	o := stubOrchestrator(&calls, "")
	o.scanSource = func(dir string) (*scanner.ScanResult, error) {
		calls = append(calls, "scan-definition")
		return nil, fmt.Errorf("no Dockerfile or compose file found at %s: nothing to deploy", dir)
	}

	_, err := o.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "nothing to deploy") {
		t.Fatalf("Run() error = %v", err)
	}
	for _, name := range calls {
		if name == "deploy" {
			t.Errorf("deploy ran without a deployable definition")
		}
	}
}
