package config

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors holds multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

var (
	// dottedQuadRegex matches anything shaped like an IPv4 literal.
	// Shape-matched input is then validated octet by octet so that
	// 999.1.1.1 is rejected instead of falling through as a hostname.
	dottedQuadRegex = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

	// hostnameRegex validates RFC 1123 hostnames
	hostnameRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
)

// ValidateRepoURL checks that a repository URL uses an HTTP(S) scheme
// and has a non-empty path.
func ValidateRepoURL(repoURL string) error {
	if repoURL == "" {
		return fmt.Errorf("repository URL is required")
	}
	if !strings.HasPrefix(repoURL, "http://") && !strings.HasPrefix(repoURL, "https://") {
		return fmt.Errorf("repository URL must start with http:// or https://")
	}
	return nil
}

// ValidateAddress checks that a host address is a valid IPv4 literal,
// hostname, or IPv6 literal. Anything shaped like a dotted quad is held
// to strict IPv4 rules.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("host address is required")
	}

	if dottedQuadRegex.MatchString(addr) {
		for _, octet := range strings.Split(addr, ".") {
			n, err := strconv.Atoi(octet)
			if err != nil || n < 0 || n > 255 {
				return fmt.Errorf("invalid IPv4 address: octet %q out of range", octet)
			}
		}
		return nil
	}

	// IPv6 literal
	if ip := net.ParseIP(addr); ip != nil {
		return nil
	}

	if len(addr) > 253 || !hostnameRegex.MatchString(addr) {
		return fmt.Errorf("not a valid IP address or hostname: %s", addr)
	}
	return nil
}

// ValidatePort checks that a port is in [1,65535].
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// ParsePort parses and validates a port string from operator input.
func ParsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("port must be a number")
	}
	if err := ValidatePort(port); err != nil {
		return 0, err
	}
	return port, nil
}
