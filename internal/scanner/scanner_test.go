package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func TestScan(t *testing.T) {
	tests := []struct {
		name        string
		files       []string
		wantKind    Definition
		wantCompose string
	}{
		{
			name:     "dockerfile only",
			files:    []string{"Dockerfile"},
			wantKind: DefinitionDockerfile,
		},
		{
			name:        "compose only",
			files:       []string{"docker-compose.yml"},
			wantKind:    DefinitionCompose,
			wantCompose: "docker-compose.yml",
		},
		{
			name:        "compose preferred over dockerfile",
			files:       []string{"Dockerfile", "docker-compose.yaml"},
			wantKind:    DefinitionCompose,
			wantCompose: "docker-compose.yaml",
		},
		{
			name:        "modern compose name",
			files:       []string{"compose.yaml"},
			wantKind:    DefinitionCompose,
			wantCompose: "compose.yaml",
		},
		{
			name:     "nothing deployable",
			files:    []string{"README.md", "main.go"},
			wantKind: DefinitionNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files...)

			result, err := Scan(dir)
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}
			if result.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", result.Kind(), tt.wantKind)
			}
			if result.ComposeFile != tt.wantCompose {
				t.Errorf("ComposeFile = %q, want %q", result.ComposeFile, tt.wantCompose)
			}
		})
	}
}

func TestScanMissingDirectory(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("Scan() accepted a missing directory")
	}
}

func TestVerifyRejectsUndeployableTree(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "README.md")

	if _, err := Verify(dir); err == nil {
		t.Errorf("Verify() accepted a tree with no deployable definition")
	}
}

func TestVerifyAcceptsDockerfile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "Dockerfile")

	result, err := Verify(dir)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Kind() != DefinitionDockerfile {
		t.Errorf("Kind() = %v, want DefinitionDockerfile", result.Kind())
	}
}
