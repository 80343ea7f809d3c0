package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDirName is the configuration directory name
	ConfigDirName = "shipway"
	// AnswersFileName is the saved-answers filename
	AnswersFileName = "config.yaml"
)

// SavedAnswers holds the non-secret fields of the last confirmed
// collection, offered as prompt defaults on the next run. The access
// token is deliberately absent.
type SavedAnswers struct {
	RepoURL string `yaml:"repository,omitempty"`
	Branch  string `yaml:"branch,omitempty"`
	Host    string `yaml:"host,omitempty"`
	User    string `yaml:"user,omitempty"`
	KeyPath string `yaml:"key_path,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// AnswersPath returns the path to the saved-answers file.
func AnswersPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, ConfigDirName, AnswersFileName), nil
}

// LoadSavedAnswers loads previously saved answers. A missing file
// yields empty answers, not an error.
func LoadSavedAnswers() (*SavedAnswers, error) {
	path, err := AnswersPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SavedAnswers{}, nil
		}
		return nil, fmt.Errorf("failed to read saved answers: %w", err)
	}

	var answers SavedAnswers
	if err := yaml.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("failed to parse saved answers: %w", err)
	}

	return &answers, nil
}

// SaveAnswers persists the non-secret fields of a confirmed config.
func SaveAnswers(cfg *DeploymentConfig) error {
	path, err := AnswersPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	answers := SavedAnswers{
		RepoURL: cfg.RepoURL,
		Branch:  cfg.Branch,
		Host:    cfg.Host,
		User:    cfg.User,
		KeyPath: cfg.KeyPath,
		Port:    cfg.Port,
	}

	data, err := yaml.Marshal(&answers)
	if err != nil {
		return fmt.Errorf("failed to marshal saved answers: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write saved answers: %w", err)
	}

	return nil
}
