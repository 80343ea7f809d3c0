package ssh

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExpandKeyPath expands a leading ~ in a key path.
func ExpandKeyPath(keyPath string) (string, error) {
	if keyPath == "" {
		return "", fmt.Errorf("no SSH key configured (set SHIPWAY_SSH_KEY for CI)")
	}
	if len(keyPath) >= 2 && keyPath[:2] == "~/" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		keyPath = filepath.Join(homeDir, keyPath[2:])
	}
	return keyPath, nil
}

// EnsureKeyFile checks that the key file exists and narrows its
// permission bits to owner read/write when they are broader. It
// returns the expanded path and whether permissions were changed.
func EnsureKeyFile(keyPath string) (string, bool, error) {
	path, err := ExpandKeyPath(keyPath)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, fmt.Errorf("key file not found: %s", path)
		}
		return "", false, fmt.Errorf("cannot access key file: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("key path is a directory: %s", path)
	}

	// Group/other bits set: the SSH daemon would refuse the key anyway.
	if info.Mode().Perm()&0o077 != 0 {
		if err := os.Chmod(path, 0o600); err != nil {
			return "", false, fmt.Errorf("failed to narrow key permissions: %w", err)
		}
		return path, true, nil
	}

	return path, false, nil
}
