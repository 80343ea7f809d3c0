package deploy

import (
	"context"
	"strings"
	"testing"

	"github.com/shipway/shipway/internal/scanner"
	"github.com/shipway/shipway/internal/ssh"
)

func validatorMock(responses map[string]*ssh.ExecResult) *ssh.MockExecutor {
	mock := &ssh.MockExecutor{}
	mock.ExecFunc = func(ctx context.Context, command string) (*ssh.ExecResult, error) {
		for fragment, result := range responses {
			if strings.Contains(command, fragment) {
				return result, nil
			}
		}
		return &ssh.ExecResult{}, nil
	}
	return mock
}

func healthyResponses() map[string]*ssh.ExecResult {
	return map[string]*ssh.ExecResult{
		"systemctl is-active docker": {Stdout: "active\n"},
		"systemctl is-active nginx":  {Stdout: "active\n"},
		"docker ps":                  {Stdout: "widget_app\n"},
		"http_code":                  {Stdout: "200"},
	}
}

func TestValidateHealthyDeployment(t *testing.T) {
	mock := validatorMock(healthyResponses())
	v := NewValidator(mock, testConfig())

	warnings, err := v.Validate(context.Background(), &scanner.ScanResult{HasDockerfile: true})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Validate() warnings = %v, want none", warnings)
	}
}

func TestValidateFatalChecks(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]*ssh.ExecResult
		wantErr  string
	}{
		{
			name:     "docker service down",
			override: map[string]*ssh.ExecResult{"systemctl is-active docker": {ExitCode: 3, Stdout: "inactive\n"}},
			wantErr:  "docker service is not active",
		},
		{
			name:     "container not running",
			override: map[string]*ssh.ExecResult{"docker ps": {}},
			wantErr:  "widget_app is not running",
		},
		{
			name:     "nginx service down",
			override: map[string]*ssh.ExecResult{"systemctl is-active nginx": {ExitCode: 3, Stdout: "failed\n"}},
			wantErr:  "nginx service is not active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := healthyResponses()
			for fragment, result := range tt.override {
				responses[fragment] = result
			}
			v := NewValidator(validatorMock(responses), testConfig())

			_, err := v.Validate(context.Background(), &scanner.ScanResult{HasDockerfile: true})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateHTTPProbesAreAdvisory(t *testing.T) {
	responses := healthyResponses()
	responses["curl -sf"] = &ssh.ExecResult{ExitCode: 7}
	responses["http_code"] = &ssh.ExecResult{Stdout: "502"}
	v := NewValidator(validatorMock(responses), testConfig())

	warnings, err := v.Validate(context.Background(), &scanner.ScanResult{HasDockerfile: true})
	if err != nil {
		t.Fatalf("Validate() error = %v, HTTP probe failures must not be fatal", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("Validate() warnings = %v, want one per failed probe", warnings)
	}
	if !strings.Contains(warnings[0], "port 8080") {
		t.Errorf("application probe warning = %q", warnings[0])
	}
	if !strings.Contains(warnings[1], "502") {
		t.Errorf("proxy probe warning = %q", warnings[1])
	}
}

func TestValidateChecksComposeGroupWhenComposeDeployed(t *testing.T) {
	responses := healthyResponses()
	responses["compose ps"] = &ssh.ExecResult{Stdout: "abc123\n"}
	delete(responses, "docker ps")
	mock := validatorMock(responses)
	v := NewValidator(mock, testConfig())

	_, err := v.Validate(context.Background(), &scanner.ScanResult{ComposeFile: "compose.yaml"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if indexOf(mock.Commands, "docker compose ps -q --status running") < 0 {
		t.Errorf("compose state never checked: %v", mock.Commands)
	}
}
