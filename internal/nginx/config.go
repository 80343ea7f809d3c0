// Package nginx renders and installs the reverse-proxy site
// configuration for a deployed project.
package nginx

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"text/template"
)

const (
	// SitesAvailableDir is nginx's site-definitions location
	SitesAvailableDir = "/etc/nginx/sites-available"
	// SitesEnabledDir is the activation symlink set
	SitesEnabledDir = "/etc/nginx/sites-enabled"
)

// siteTemplate is the site config contract: port-80 catch-all server
// proxying to the app container, with WebSocket upgrade support and
// forwarding headers. The field values are fixed; only the upstream
// port varies per deployment.
const siteTemplate = `server {
    listen 80;
    server_name _;

    client_max_body_size 50M;

    location / {
        proxy_pass http://localhost:{{ .Port }};
        proxy_http_version 1.1;
        proxy_set_header Upgrade $http_upgrade;
        proxy_set_header Connection 'upgrade';
        proxy_set_header Host $host;
        proxy_set_header X-Real-IP $remote_addr;
        proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;
        proxy_set_header X-Forwarded-Proto $scheme;
        proxy_cache_bypass $http_upgrade;
        proxy_read_timeout 300s;
        proxy_connect_timeout 75s;
    }
}
`

// SiteConfig holds the per-project values of the site template.
type SiteConfig struct {
	Project string
	Port    int
}

// GenerateSiteConfig renders the nginx site configuration.
func GenerateSiteConfig(site SiteConfig) (string, error) {
	t, err := template.New("site").Parse(siteTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, site); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// SitePath returns the site-definition file path for a project.
func SitePath(project string) string {
	return SitesAvailableDir + "/" + project
}

// EnabledPath returns the activation symlink path for a project.
func EnabledPath(project string) string {
	return SitesEnabledDir + "/" + project
}

// InstallCommands returns the remote commands that write the site
// definition, (re)create the enabled symlink, and drop the default
// catch-all site that would shadow it. The content travels base64
// encoded so shell metacharacters in the config cannot break out.
func InstallCommands(project, configContent string) []string {
	encoded := base64.StdEncoding.EncodeToString([]byte(configContent))
	return []string{
		fmt.Sprintf("echo '%s' | base64 -d | sudo tee %s > /dev/null", encoded, SitePath(project)),
		fmt.Sprintf("sudo ln -sfn %s %s", SitePath(project), EnabledPath(project)),
		fmt.Sprintf("sudo rm -f %s/default", SitesEnabledDir),
	}
}

// RemoveCommands returns the remote commands that delete both the site
// definition and its enabled symlink. Both tolerate absence.
func RemoveCommands(project string) []string {
	return []string{
		fmt.Sprintf("sudo rm -f %s", EnabledPath(project)),
		fmt.Sprintf("sudo rm -f %s", SitePath(project)),
	}
}

// TestCommand returns the configuration syntax check command. The
// daemon must not be reloaded unless this passes.
func TestCommand() string {
	return "sudo nginx -t"
}

// ReloadCommand returns the daemon reload command.
func ReloadCommand() string {
	return "sudo systemctl reload nginx"
}
