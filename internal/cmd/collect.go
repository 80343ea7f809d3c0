package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shipway/shipway/internal/config"
	"github.com/shipway/shipway/internal/security"
	"github.com/shipway/shipway/internal/ssh"
)

// ErrAborted is returned when the operator declines the confirmation.
var ErrAborted = errors.New("aborted by operator")

// Collector gathers and validates the deployment parameters. Each
// value comes from a flag when given, otherwise from an interactive
// prompt defaulting to the answers saved on the last confirmed run.
// Invalid interactive input re-prompts instead of aborting.
type Collector struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	assumeYes   bool

	flags     config.SavedAnswers
	flagToken string
	saved     *config.SavedAnswers

	readSecret func(label string) (string, error)
	ensureKey  func(path string) (string, bool, error)
}

// NewCollector builds a collector over the real terminal, seeded with
// flag values and the previously saved answers.
func NewCollector(flags config.SavedAnswers, flagToken string) *Collector {
	saved, err := config.LoadSavedAnswers()
	if err != nil {
		// Unreadable saved answers only lose the defaults.
		saved = &config.SavedAnswers{}
	}

	return &Collector{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: IsInteractive(),
		assumeYes:   IsYesMode(),
		flags:       flags,
		flagToken:   flagToken,
		saved:       saved,
		readSecret:  readSecret,
		ensureKey:   ssh.EnsureKeyFile,
	}
}

// Collect runs the full collection sequence and returns a finalized,
// validated config. The summary confirmation is skipped in yes mode.
func (c *Collector) Collect() (*config.DeploymentConfig, error) {
	cfg := &config.DeploymentConfig{}
	var err error

	cfg.RepoURL, err = c.field("Repository URL", c.flags.RepoURL, c.saved.RepoURL, config.ValidateRepoURL)
	if err != nil {
		return nil, err
	}

	cfg.Branch, err = c.field("Branch", c.flags.Branch, valueOr(c.saved.Branch, "main"), security.ValidateBranchName)
	if err != nil {
		return nil, err
	}

	cfg.Host, err = c.field("Server address", c.flags.Host, c.saved.Host, config.ValidateAddress)
	if err != nil {
		return nil, err
	}

	cfg.User, err = c.field("SSH user", c.flags.User, c.saved.User, security.ValidateUnixUser)
	if err != nil {
		return nil, err
	}

	cfg.KeyPath, err = c.collectKeyPath()
	if err != nil {
		return nil, err
	}

	cfg.Port, err = c.collectPort()
	if err != nil {
		return nil, err
	}

	cfg.Token = c.collectToken()

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	if err := c.confirm(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CollectTarget gathers only what teardown needs: the repository (for
// the project identity) and the SSH target. Branch and port get
// placeholder values to satisfy validation; neither plays a role in
// removal. The same summary confirmation applies; destruction adds
// its own stricter gate on top.
func (c *Collector) CollectTarget() (*config.DeploymentConfig, error) {
	cfg := &config.DeploymentConfig{Branch: "main", Port: 80}
	var err error

	cfg.RepoURL, err = c.field("Repository URL", c.flags.RepoURL, c.saved.RepoURL, config.ValidateRepoURL)
	if err != nil {
		return nil, err
	}

	cfg.Host, err = c.field("Server address", c.flags.Host, c.saved.Host, config.ValidateAddress)
	if err != nil {
		return nil, err
	}

	cfg.User, err = c.field("SSH user", c.flags.User, c.saved.User, security.ValidateUnixUser)
	if err != nil {
		return nil, err
	}

	cfg.KeyPath, err = c.collectKeyPath()
	if err != nil {
		return nil, err
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	fmt.Fprintf(c.out, "\nTeardown target:\n")
	fmt.Fprintf(c.out, "  Project:     %s\n", cfg.Project)
	fmt.Fprintf(c.out, "  Host:        %s@%s\n\n", cfg.User, cfg.Host)

	if c.assumeYes {
		return cfg, nil
	}
	answer, err := c.promptLine("Continue? (y/N)", "")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return cfg, nil
	default:
		return nil, ErrAborted
	}
}

// field resolves one parameter: flag wins, then prompt with the saved
// answer as default. Non-interactive runs must resolve from flag or
// default alone.
func (c *Collector) field(label, flagValue, defaultValue string, validate func(string) error) (string, error) {
	if flagValue != "" {
		if err := validate(flagValue); err != nil {
			return "", fmt.Errorf("invalid %s: %w", strings.ToLower(label), err)
		}
		return flagValue, nil
	}

	if !c.interactive {
		if defaultValue == "" {
			return "", fmt.Errorf("%s is required (no flag given and no saved answer)", label)
		}
		if err := validate(defaultValue); err != nil {
			return "", fmt.Errorf("saved %s is no longer valid: %w", label, err)
		}
		return defaultValue, nil
	}

	for {
		value, err := c.promptLine(label, defaultValue)
		if err != nil {
			return "", err
		}
		if err := validate(value); err != nil {
			fmt.Fprintf(c.out, "  ✗ %v\n", err)
			continue
		}
		return value, nil
	}
}

func (c *Collector) promptLine(label, defaultValue string) (string, error) {
	if defaultValue != "" {
		fmt.Fprintf(c.out, "? %s [%s]: ", label, defaultValue)
	} else {
		fmt.Fprintf(c.out, "? %s: ", label)
	}

	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("input closed: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue, nil
	}
	return line, nil
}

// collectKeyPath resolves the SSH key. An empty path is acceptable
// when the key comes from the environment; otherwise the file must
// exist, and too-broad permissions are narrowed to 0600.
func (c *Collector) collectKeyPath() (string, error) {
	validate := func(path string) error {
		if path == "" {
			if os.Getenv("SHIPWAY_SSH_KEY") != "" {
				return nil
			}
			return fmt.Errorf("an SSH key path is required (or set SHIPWAY_SSH_KEY)")
		}
		_, _, err := c.ensureKey(path)
		return err
	}

	path, err := c.field("SSH key path", c.flags.KeyPath, valueOr(c.saved.KeyPath, "~/.ssh/id_ed25519"), validate)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", nil
	}

	expanded, narrowed, err := c.ensureKey(path)
	if err != nil {
		return "", err
	}
	if narrowed {
		fmt.Fprintf(c.out, "  ✗ key permissions were too broad, narrowed to 0600\n")
	}
	return expanded, nil
}

func (c *Collector) collectPort() (int, error) {
	if c.flags.Port != 0 {
		if err := config.ValidatePort(c.flags.Port); err != nil {
			return 0, fmt.Errorf("invalid --port value: %w", err)
		}
		return c.flags.Port, nil
	}

	defaultValue := ""
	if c.saved.Port != 0 {
		defaultValue = fmt.Sprintf("%d", c.saved.Port)
	}

	raw, err := c.field("Application port", "", defaultValue, func(s string) error {
		_, err := config.ParsePort(s)
		return err
	})
	if err != nil {
		return 0, err
	}
	return config.ParsePort(raw)
}

// collectToken resolves the repository access token: flag, then
// environment, then a hidden prompt. An empty token means a public
// repository.
func (c *Collector) collectToken() string {
	if c.flagToken != "" {
		return c.flagToken
	}
	if token := os.Getenv("SHIPWAY_TOKEN"); token != "" {
		return token
	}
	if !c.interactive {
		return ""
	}

	token, err := c.readSecret("Access token (empty for public repositories)")
	if err != nil {
		return ""
	}
	return token
}

// confirm shows the summary and asks to proceed. The token is never
// echoed.
func (c *Collector) confirm(cfg *config.DeploymentConfig) error {
	tokenState := "(none, public repository)"
	if cfg.Token != "" {
		tokenState = "(provided)"
	}

	fmt.Fprintf(c.out, "\nDeployment summary:\n")
	fmt.Fprintf(c.out, "  Repository:  %s\n", cfg.RepoURL)
	fmt.Fprintf(c.out, "  Branch:      %s\n", cfg.Branch)
	fmt.Fprintf(c.out, "  Project:     %s\n", cfg.Project)
	fmt.Fprintf(c.out, "  Target:      %s@%s\n", cfg.User, cfg.Host)
	fmt.Fprintf(c.out, "  Port:        %d\n", cfg.Port)
	fmt.Fprintf(c.out, "  SSH key:     %s\n", valueOr(cfg.KeyPath, "(from environment)"))
	fmt.Fprintf(c.out, "  Token:       %s\n\n", tokenState)

	if c.assumeYes {
		return nil
	}

	answer, err := c.promptLine("Proceed with deployment? (y/N)", "")
	if err != nil {
		return err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return nil
	default:
		return ErrAborted
	}
}

// ConfirmDestruction requires the operator to type exactly "yes"
// before anything is removed. Yes mode skips the gate for CI/CD.
func (c *Collector) ConfirmDestruction(project string) error {
	if c.assumeYes {
		return nil
	}

	fmt.Fprintf(c.out, "\nThis removes all containers, images, files and the nginx site of %q on the remote host.\n", project)
	answer, err := c.promptLine(`Type "yes" to confirm`, "")
	if err != nil {
		return err
	}
	if answer != "yes" {
		return ErrAborted
	}
	return nil
}

func valueOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
