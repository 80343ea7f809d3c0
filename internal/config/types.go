package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/shipway/shipway/internal/security"
)

// DeploymentConfig holds the operator-supplied parameters for one run.
// It is built once by the input collector and never mutated afterwards.
type DeploymentConfig struct {
	RepoURL string
	// Token is the repository access credential. It is woven into the
	// clone URL transiently and must never be persisted or logged.
	Token   string
	Branch  string
	Host    string
	User    string
	KeyPath string
	Port    int
	// Project is derived from RepoURL: last path segment, .git suffix
	// stripped, lower-cased.
	Project string
}

// Finalize derives the project identifier and validates the whole
// config. It must be called after collection and before any use.
func (c *DeploymentConfig) Finalize() error {
	project, err := ProjectFromRepoURL(c.RepoURL)
	if err != nil {
		return err
	}
	c.Project = project

	if errs := c.Validate(); errs.HasErrors() {
		return errs
	}
	return nil
}

// Validate checks every invariant of a finalized config.
func (c *DeploymentConfig) Validate() ValidationErrors {
	var errors ValidationErrors

	if err := ValidateRepoURL(c.RepoURL); err != nil {
		errors = append(errors, ValidationError{Field: "repository", Message: err.Error()})
	}
	if err := security.ValidateBranchName(c.Branch); err != nil {
		errors = append(errors, ValidationError{Field: "branch", Message: err.Error()})
	}
	if err := ValidateAddress(c.Host); err != nil {
		errors = append(errors, ValidationError{Field: "host", Message: err.Error()})
	}
	if err := security.ValidateUnixUser(c.User); err != nil {
		errors = append(errors, ValidationError{Field: "user", Message: err.Error()})
	}
	if err := ValidatePort(c.Port); err != nil {
		errors = append(errors, ValidationError{Field: "port", Message: err.Error()})
	}
	if err := security.ValidateProjectName(c.Project); err != nil {
		errors = append(errors, ValidationError{Field: "project", Message: err.Error()})
	}

	return errors
}

// ContainerName returns the name of the application container.
func (c *DeploymentConfig) ContainerName() string {
	return c.Project + "_app"
}

// ImageTag returns the image tag for single-Dockerfile builds.
func (c *DeploymentConfig) ImageTag() string {
	return c.Project + ":latest"
}

// RemoteDir returns the per-project directory on the remote host.
// $HOME is expanded by the remote shell.
func (c *DeploymentConfig) RemoteDir() string {
	return "$HOME/deployments/" + c.Project
}

// CloneURL returns the repository URL with the access token woven in.
// The result is transient and must never reach a log sink unredacted.
func (c *DeploymentConfig) CloneURL() string {
	if c.Token == "" {
		return c.RepoURL
	}
	u, err := url.Parse(c.RepoURL)
	if err != nil {
		return c.RepoURL
	}
	u.User = url.User(c.Token)
	return u.String()
}

// ProjectFromRepoURL derives the project identifier from a repository
// URL: last path segment, .git suffix stripped, lower-cased.
func ProjectFromRepoURL(repoURL string) (string, error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL: %w", err)
	}

	segment := path.Base(strings.TrimSuffix(u.Path, "/"))
	segment = strings.TrimSuffix(segment, ".git")
	segment = strings.ToLower(segment)

	if segment == "" || segment == "." || segment == "/" {
		return "", fmt.Errorf("cannot derive a project name from %q", repoURL)
	}

	if err := security.ValidateProjectName(segment); err != nil {
		return "", fmt.Errorf("derived project name %q is not usable: %w", segment, err)
	}

	return segment, nil
}
