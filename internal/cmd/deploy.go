package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/shipway/shipway/internal/config"
	"github.com/shipway/shipway/internal/deploy"
	"github.com/shipway/shipway/internal/logging"
	"github.com/shipway/shipway/internal/security"
	"github.com/shipway/shipway/internal/ssh"
)

var (
	deployFlags config.SavedAnswers
	deployToken string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the application to the remote host",
	Long: `Collects the deployment parameters, synchronizes the repository,
provisions the host, builds and starts the containers, wires the
nginx reverse proxy and validates the result.

Parameters not given as flags are prompted for interactively,
defaulting to the answers of the last confirmed run.`,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringVar(&deployFlags.RepoURL, "repo", "", "Repository URL (http or https)")
	deployCmd.Flags().StringVar(&deployFlags.Branch, "branch", "", "Branch to deploy (default: main)")
	deployCmd.Flags().StringVar(&deployFlags.Host, "host", "", "Remote host address")
	deployCmd.Flags().StringVar(&deployFlags.User, "user", "", "SSH user")
	deployCmd.Flags().StringVar(&deployFlags.KeyPath, "key", "", "SSH private key path")
	deployCmd.Flags().IntVar(&deployFlags.Port, "port", 0, "Application port")
	deployCmd.Flags().StringVar(&deployToken, "token", "", "Repository access token (or SHIPWAY_TOKEN)")
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	start := time.Now()

	collector := NewCollector(deployFlags, deployToken)
	cfg, err := collector.Collect()
	if err != nil {
		if errors.Is(err, ErrAborted) {
			PrintInfo("Deployment cancelled")
			return nil
		}
		return err
	}

	// Only confirmed, validated answers are saved. Best effort: a
	// read-only config dir must not block the run.
	if err := config.SaveAnswers(cfg); err != nil {
		PrintWarning("Could not save answers for next run: %v", err)
	}

	redactor := security.NewRedactor(cfg.Token)
	log, err := logging.New(logging.DefaultPath(start), redactor)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Infof("deploying %s (branch %s) to %s@%s", cfg.Project, cfg.Branch, cfg.User, cfg.Host)

	PrintInfo("Connecting to %s@%s...", cfg.User, cfg.Host)
	client := ssh.NewClient(cfg.Host, cfg.User, 22, cfg.KeyPath)
	if err := client.Connect(); err != nil {
		log.StepFailed("connect", err)
		PrintError("Connection failed: %v", err)
		PrintInfo("Full log: %s", log.Path())
		return err
	}
	defer client.Close()

	orch, err := deploy.NewOrchestrator(client, client, cfg, log, redactor)
	if err != nil {
		return err
	}
	orch.OnMessage(func(msg string) {
		if IsVerbose() {
			PrintInfo("%s", msg)
		}
	})

	result, err := orch.Run(cmd.Context())
	if err != nil {
		last := result.Outcomes[len(result.Outcomes)-1]
		PrintError("Deployment failed at step %s: %s", last.Name, last.Detail)
		PrintInfo("Full log: %s", log.Path())
		return err
	}

	for _, warning := range result.Warnings {
		PrintWarning("%s", warning)
	}

	if result.Provision != nil && IsVerbose() {
		PrintInfo("Docker:  %s", result.Provision.DockerVersion)
		PrintInfo("Compose: %s", result.Provision.ComposeVersion)
		PrintInfo("Nginx:   %s", result.Provision.NginxVersion)
	}

	log.Successf("deployment of %s completed", cfg.Project)
	PrintSuccess("%s deployed: http://%s/ (container %s on port %d)",
		cfg.Project, cfg.Host, cfg.ContainerName(), cfg.Port)
	PrintInfo("Full log: %s", log.Path())
	return nil
}
