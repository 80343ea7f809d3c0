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

var teardownFlags config.SavedAnswers

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Remove a deployed project from the remote host",
	Long: `Removes everything a deployment created on the remote host: the
containers, the image, the project directory and the nginx site.
Already-absent pieces are skipped, so a partial teardown can be
re-run to completion.

Destruction must be confirmed by typing "yes" (skipped with --yes).`,
	RunE: runTeardown,
}

func init() {
	teardownCmd.Flags().StringVar(&teardownFlags.RepoURL, "repo", "", "Repository URL the project was deployed from")
	teardownCmd.Flags().StringVar(&teardownFlags.Host, "host", "", "Remote host address")
	teardownCmd.Flags().StringVar(&teardownFlags.User, "user", "", "SSH user")
	teardownCmd.Flags().StringVar(&teardownFlags.KeyPath, "key", "", "SSH private key path")
	rootCmd.AddCommand(teardownCmd)
}

func runTeardown(cmd *cobra.Command, args []string) error {
	start := time.Now()

	collector := NewCollector(teardownFlags, "")
	cfg, err := collector.CollectTarget()
	if err != nil {
		if errors.Is(err, ErrAborted) {
			PrintInfo("Teardown cancelled")
			return nil
		}
		return err
	}

	if err := collector.ConfirmDestruction(cfg.Project); err != nil {
		if errors.Is(err, ErrAborted) {
			PrintInfo("Teardown cancelled")
			return nil
		}
		return err
	}

	redactor := security.NewRedactor(cfg.Token)
	log, err := logging.New(logging.DefaultPath(start), redactor)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Infof("tearing down %s on %s@%s", cfg.Project, cfg.User, cfg.Host)

	PrintInfo("Connecting to %s@%s...", cfg.User, cfg.Host)
	client := ssh.NewClient(cfg.Host, cfg.User, 22, cfg.KeyPath)
	if err := client.Connect(); err != nil {
		log.StepFailed("connect", err)
		PrintError("Connection failed: %v", err)
		return err
	}
	defer client.Close()

	teardown := deploy.NewTeardown(client, cfg)
	teardown.OnMessage(func(msg string) {
		log.Infof("%s", msg)
		if IsVerbose() {
			PrintInfo("%s", msg)
		}
	})

	if err := teardown.Run(cmd.Context()); err != nil {
		log.StepFailed("teardown", err)
		PrintError("Teardown failed: %v", err)
		PrintInfo("Full log: %s", log.Path())
		return err
	}

	log.Successf("teardown of %s completed", cfg.Project)
	PrintSuccess("%s removed from %s", cfg.Project, cfg.Host)
	return nil
}
