// Package scanner inspects a synchronized source tree for a deployable
// definition before anything is transferred to the remote host.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
)

// composeFileNames are the accepted compose definition filenames, in
// preference order.
var composeFileNames = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// Definition is the kind of deployable definition found at the source root.
type Definition int

const (
	DefinitionNone Definition = iota
	DefinitionDockerfile
	DefinitionCompose
)

func (d Definition) String() string {
	switch d {
	case DefinitionDockerfile:
		return "Dockerfile"
	case DefinitionCompose:
		return "compose"
	default:
		return "none"
	}
}

// ScanResult holds what was found at the source root.
type ScanResult struct {
	HasDockerfile bool
	// ComposeFile is the compose filename found, empty when absent.
	ComposeFile string
}

// Kind returns the definition to deploy with. Compose wins when both
// are present, since the compose file typically references the
// Dockerfile itself.
func (r *ScanResult) Kind() Definition {
	switch {
	case r.ComposeFile != "":
		return DefinitionCompose
	case r.HasDockerfile:
		return DefinitionDockerfile
	default:
		return DefinitionNone
	}
}

// Scan inspects the source root for deployable definitions.
func Scan(dir string) (*ScanResult, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("source directory not accessible: %w", err)
	}

	result := &ScanResult{}

	if info, err := os.Stat(filepath.Join(dir, "Dockerfile")); err == nil && !info.IsDir() {
		result.HasDockerfile = true
	}

	for _, name := range composeFileNames {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			result.ComposeFile = name
			break
		}
	}

	return result, nil
}

// Verify returns an error when no deployable definition exists. This
// is the gate that must fire before any remote transfer.
func Verify(dir string) (*ScanResult, error) {
	result, err := Scan(dir)
	if err != nil {
		return nil, err
	}
	if result.Kind() == DefinitionNone {
		return nil, fmt.Errorf("no Dockerfile or compose file found at %s: nothing to deploy", dir)
	}
	return result, nil
}
