package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	verbose bool
	yesFlag bool // CI/CD: skip confirmations
)

var rootCmd = &cobra.Command{
	Use:   "shipway",
	Short: "Deploy containerized applications to a single host",
	Long: `Shipway deploys a containerized application from a git repository
to a single remote host over SSH. It provisions the host (Docker,
compose plugin, nginx), syncs the source, builds and starts the
containers, and wires an nginx reverse proxy in front.

Quick start:
  shipway deploy             # Interactive deployment
  shipway teardown           # Remove a deployed project

CI/CD Environment Variables:
  SHIPWAY_TOKEN               Repository access token
  SHIPWAY_SSH_KEY             SSH private key content
  SHIPWAY_KNOWN_HOSTS         SSH known_hosts content
  SHIPWAY_SKIP_HOST_KEY_CHECK Skip host key verification (true/false)`,
	Version: Version,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed logs")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmations (CI/CD mode)")

	rootCmd.SetVersionTemplate(`Shipway {{.Version}}
`)
}

// IsVerbose returns true if verbose mode is enabled
func IsVerbose() bool {
	return verbose
}

// IsYesMode returns true if --yes flag is set (CI/CD mode)
func IsYesMode() bool {
	return yesFlag
}

// PrintError prints a formatted error message
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "❌ "+msg+"\n", args...)
}

// PrintSuccess prints a success message
func PrintSuccess(msg string, args ...interface{}) {
	fmt.Printf("✅ "+msg+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(msg string, args ...interface{}) {
	fmt.Printf("ℹ️  "+msg+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	fmt.Printf("⚠️  "+msg+"\n", args...)
}
