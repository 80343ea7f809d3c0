package deploy

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shipway/shipway/internal/config"
	"github.com/shipway/shipway/internal/scanner"
	"github.com/shipway/shipway/internal/security"
	"github.com/shipway/shipway/internal/ssh"
)

// SettleInterval is the fixed wait after starting containers before
// checking whether they are running, absorbing startup latency.
const SettleInterval = 10 * time.Second

// transferExcludes are never mirrored to the remote host: version
// control metadata, dependency caches, and local environment overrides.
var transferExcludes = []string{".git", "node_modules", "vendor", ".env.local"}

// Deployer transfers the synchronized source tree and (re)starts the
// application containers on the remote host.
type Deployer struct {
	exec      ssh.Executor
	cfg       *config.DeploymentConfig
	state     *RemoteState
	settle    time.Duration
	onMessage func(string)

	// Local tool execution, swappable in tests.
	runLocal func(ctx context.Context, name string, args ...string) ([]byte, error)
	lookPath func(name string) (string, error)
	upload   func(localPath, remotePath string) error
}

// NewDeployer creates a deployer. The client is used for the SFTP
// archive fallback when rsync is not available locally.
func NewDeployer(executor ssh.Executor, client *ssh.Client, cfg *config.DeploymentConfig) *Deployer {
	d := &Deployer{
		exec:     executor,
		cfg:      cfg,
		state:    NewRemoteState(executor, cfg),
		settle:   SettleInterval,
		runLocal: runLocalCommand,
		lookPath: exec.LookPath,
	}
	if client != nil {
		d.upload = client.UploadFile
	}
	return d
}

// OnMessage sets a callback for progress messages.
func (d *Deployer) OnMessage(fn func(string)) {
	d.onMessage = fn
}

func (d *Deployer) message(msg string) {
	if d.onMessage != nil {
		d.onMessage(msg)
	}
}

// Deploy mirrors the source tree to the remote project directory,
// neutralizes any prior instance of the project, builds and starts the
// new one, and confirms it reaches the running state.
func (d *Deployer) Deploy(ctx context.Context, workDir string, def *scanner.ScanResult) error {
	d.message("Transferring source tree...")
	if err := d.Transfer(ctx, workDir); err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}

	d.message("Removing prior instance...")
	if err := d.neutralize(ctx); err != nil {
		return fmt.Errorf("failed to neutralize prior instance: %w", err)
	}

	d.message("Building and starting containers...")
	if err := d.start(ctx, def); err != nil {
		return err
	}

	d.message(fmt.Sprintf("Waiting %s for containers to settle...", d.settle))
	time.Sleep(d.settle)

	return d.confirmRunning(ctx, def)
}

// Transfer mirrors the working copy into the remote project directory,
// preferring an incremental rsync and falling back to an archive
// upload over SFTP when rsync is not installed locally.
func (d *Deployer) Transfer(ctx context.Context, workDir string) error {
	mkdir := fmt.Sprintf(`mkdir -p "%s"`, d.cfg.RemoteDir())
	if result, err := d.exec.Exec(ctx, mkdir); err != nil {
		return err
	} else if result.ExitCode != 0 {
		return fmt.Errorf("failed to create remote directory: %s", result.Output())
	}

	if _, err := d.lookPath("rsync"); err == nil {
		return d.transferRsync(ctx, workDir)
	}

	d.message("rsync not available locally, using archive transfer...")
	return d.transferArchive(ctx, workDir)
}

func (d *Deployer) transferRsync(ctx context.Context, workDir string) error {
	args := []string{"-az", "--delete"}
	for _, exclude := range transferExcludes {
		args = append(args, "--exclude", exclude)
	}

	sshCmd := fmt.Sprintf("ssh -p %d -o StrictHostKeyChecking=accept-new", d.sshPort())
	if d.cfg.KeyPath != "" {
		sshCmd += " -i " + security.ShellEscape(d.cfg.KeyPath)
	}
	args = append(args, "-e", sshCmd)

	// Destination is relative to the remote user's home.
	args = append(args,
		workDir+"/",
		fmt.Sprintf("%s@%s:deployments/%s/", d.cfg.User, d.cfg.Host, d.cfg.Project),
	)

	if out, err := d.runLocal(ctx, "rsync", args...); err != nil {
		return fmt.Errorf("rsync failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *Deployer) transferArchive(ctx context.Context, workDir string) error {
	if d.upload == nil {
		return fmt.Errorf("no upload channel available for archive transfer")
	}

	archivePath, err := createArchive(workDir)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(archivePath)

	remoteArchive := fmt.Sprintf("/tmp/%s-src.tar.gz", d.cfg.Project)
	if err := d.upload(archivePath, remoteArchive); err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	script := strings.Join([]string{
		fmt.Sprintf(`rm -rf "%s"`, d.cfg.RemoteDir()),
		fmt.Sprintf(`mkdir -p "%s"`, d.cfg.RemoteDir()),
		fmt.Sprintf(`tar -xzf %s -C "%s"`, remoteArchive, d.cfg.RemoteDir()),
		fmt.Sprintf("rm -f %s", remoteArchive),
	}, "\n")

	result, err := d.exec.ExecScript(ctx, script)
	if err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to extract archive (exit %d): %s", result.ExitCode, result.Output())
	}
	return nil
}

// neutralize removes any prior same-named container, compose group and
// image. All three tolerate "nothing to remove".
func (d *Deployer) neutralize(ctx context.Context) error {
	if err := d.state.NeutralizeContainer(ctx); err != nil {
		return err
	}
	if err := d.state.NeutralizeCompose(ctx); err != nil {
		return err
	}
	return d.state.NeutralizeImage(ctx)
}

func (d *Deployer) start(ctx context.Context, def *scanner.ScanResult) error {
	switch def.Kind() {
	case scanner.DefinitionCompose:
		cmd := fmt.Sprintf(`cd "%s" && docker compose up -d --build`, d.cfg.RemoteDir())
		result, err := d.exec.Exec(ctx, cmd)
		if err != nil {
			return fmt.Errorf("compose up failed: %w", err)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("compose up failed (exit %d): %s", result.ExitCode, result.Output())
		}
		return nil

	case scanner.DefinitionDockerfile:
		build := fmt.Sprintf(`cd "%s" && docker build -t %s .`, d.cfg.RemoteDir(), d.cfg.ImageTag())
		result, err := d.exec.Exec(ctx, build)
		if err != nil {
			return fmt.Errorf("image build failed: %w", err)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("image build failed (exit %d): %s", result.ExitCode, result.Output())
		}

		run := fmt.Sprintf("docker run -d --name %s -p %d:%d --restart unless-stopped %s",
			d.cfg.ContainerName(), d.cfg.Port, d.cfg.Port, d.cfg.ImageTag())
		result, err = d.exec.Exec(ctx, run)
		if err != nil {
			return fmt.Errorf("container start failed: %w", err)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("container start failed (exit %d): %s", result.ExitCode, result.Output())
		}
		return nil

	default:
		return fmt.Errorf("no deployable definition")
	}
}

func (d *Deployer) confirmRunning(ctx context.Context, def *scanner.ScanResult) error {
	var running bool
	var err error
	if def.Kind() == scanner.DefinitionCompose {
		running, err = d.state.ComposeRunning(ctx)
	} else {
		running, err = d.state.ContainerRunning(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to check container state: %w", err)
	}
	if running {
		return nil
	}

	var logs string
	if def.Kind() == scanner.DefinitionCompose {
		logs, _ = d.state.ComposeLogs(ctx, 50)
	} else {
		logs, _ = d.state.ContainerLogs(ctx, 50)
	}

	return fmt.Errorf("container not running after settle interval; recent logs:\n%s", logs)
}

func (d *Deployer) sshPort() int {
	// Application port and SSH port are independent; SSH always uses 22
	// unless the client was configured otherwise.
	return 22
}

func runLocalCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// createArchive writes a tar.gz of the working copy to a temp file,
// applying the same exclusions as the incremental transfer.
func createArchive(workDir string) (string, error) {
	tmp, err := os.CreateTemp("", "shipway-src-*.tar.gz")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	gz := gzip.NewWriter(tmp)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(workDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == workDir {
			return nil
		}

		for _, exclude := range transferExcludes {
			if entry.Name() == exclude {
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		rel, err := filepath.Rel(workDir, path)
		if err != nil {
			return err
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			if _, err := io.Copy(tw, file); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	if err := tw.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := gz.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}
