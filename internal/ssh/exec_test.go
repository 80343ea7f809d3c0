package ssh

import (
	"context"
	"strings"
	"testing"
)

func TestExecResultOutput(t *testing.T) {
	tests := []struct {
		name   string
		result ExecResult
		want   string
	}{
		{
			name:   "stdout preferred",
			result: ExecResult{Stdout: "ok\n", Stderr: "noise"},
			want:   "ok",
		},
		{
			name:   "stderr fallback",
			result: ExecResult{Stderr: "permission denied\n"},
			want:   "permission denied",
		},
		{
			name:   "both empty",
			result: ExecResult{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Output(); got != tt.want {
				t.Errorf("Output() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMockExecutorRecordsCommands(t *testing.T) {
	mock := &MockExecutor{}
	ctx := context.Background()

	if _, err := mock.Exec(ctx, "docker ps"); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if _, err := mock.ExecScript(ctx, "apt-get update\napt-get install nginx"); err != nil {
		t.Fatalf("ExecScript() error = %v", err)
	}

	if len(mock.Commands) != 2 {
		t.Fatalf("recorded %d commands, want 2", len(mock.Commands))
	}
	if mock.Commands[0] != "docker ps" {
		t.Errorf("Commands[0] = %q", mock.Commands[0])
	}
	if !strings.Contains(mock.Commands[1], "apt-get install nginx") {
		t.Errorf("Commands[1] = %q", mock.Commands[1])
	}
}

func TestMockExecutorDelegatesToExecFunc(t *testing.T) {
	mock := &MockExecutor{
		ExecFunc: func(ctx context.Context, command string) (*ExecResult, error) {
			if strings.Contains(command, "docker --version") {
				return &ExecResult{Stdout: "Docker version 27.0.1"}, nil
			}
			return &ExecResult{ExitCode: 127}, nil
		},
	}
	ctx := context.Background()

	result, err := mock.Exec(ctx, "docker --version")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if result.Stdout != "Docker version 27.0.1" {
		t.Errorf("Stdout = %q", result.Stdout)
	}

	result, _ = mock.Exec(ctx, "something-else")
	if result.ExitCode != 127 {
		t.Errorf("ExitCode = %d, want 127", result.ExitCode)
	}

	// ExecScript falls back to ExecFunc when no ExecScriptFunc is set
	result, _ = mock.ExecScript(ctx, "docker --version")
	if result.Stdout != "Docker version 27.0.1" {
		t.Errorf("ExecScript fallback Stdout = %q", result.Stdout)
	}
}

func TestClientExecCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("10.0.0.5", "deploy", 22, "")
	if _, err := c.Exec(ctx, "true"); err == nil {
		t.Errorf("Exec() with cancelled context should fail before dialing")
	}
}
