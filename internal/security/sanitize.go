package security

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// projectNameRegex validates project identifiers (DNS-compatible)
	// Allows: lowercase letters, numbers, hyphens and underscores (not at start/end)
	// Length: 1-63 characters
	projectNameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9_-]{0,61}[a-z0-9])?$`)

	// unixUserRegex validates Unix usernames
	// Standard POSIX username rules
	// Length: 1-32 characters
	unixUserRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

	// branchRegex validates git branch names
	// Allows: letters, numbers, dots, underscores, hyphens, slashes (no ..)
	branchRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]{0,254}$`)
)

// ValidateProjectName validates a derived project identifier.
// Project identifiers must be DNS-compatible because they name Docker
// containers, image tags and nginx site files.
func ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("project name too long (max 63 characters)")
	}
	if !projectNameRegex.MatchString(name) {
		return fmt.Errorf("project name must contain only lowercase letters, numbers, hyphens and underscores (not at start/end)")
	}
	return nil
}

// ValidateUnixUser validates a Unix username
func ValidateUnixUser(user string) error {
	if user == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if len(user) > 32 {
		return fmt.Errorf("username too long (max 32 characters)")
	}
	if !unixUserRegex.MatchString(user) {
		return fmt.Errorf("username must start with a lowercase letter or underscore, followed by lowercase letters, numbers, underscores, or hyphens")
	}
	return nil
}

// ValidateBranchName validates a git branch name
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch name cannot contain '..'")
	}
	if !branchRegex.MatchString(branch) {
		return fmt.Errorf("branch name contains invalid characters")
	}
	return nil
}

// ShellEscape escapes a string for safe use in shell commands by wrapping it
// in single quotes and escaping any internal single quotes using the POSIX
// pattern: ' → '\''
func ShellEscape(s string) string {
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// Redactor masks secret values in strings before they reach any log sink.
type Redactor struct {
	secrets []string
}

// NewRedactor creates a redactor for the given secret values.
// Empty secrets are ignored so a blank token never masks everything.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		if s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// Redact replaces every occurrence of a registered secret with "****".
func (r *Redactor) Redact(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, "****")
	}
	return s
}

// RedactError redacts secrets from an error message, preserving nil.
func (r *Redactor) RedactError(err error) error {
	if err == nil {
		return nil
	}
	redacted := r.Redact(err.Error())
	if redacted == err.Error() {
		return err
	}
	return fmt.Errorf("%s", redacted)
}
