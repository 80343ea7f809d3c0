package nginx

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerateSiteConfig(t *testing.T) {
	content, err := GenerateSiteConfig(SiteConfig{Project: "widget", Port: 8080})
	if err != nil {
		t.Fatalf("GenerateSiteConfig() error = %v", err)
	}

	// The site-definition contract: these lines must be reproduced
	// exactly for compatibility.
	wantLines := []string{
		"listen 80;",
		"server_name _;",
		"client_max_body_size 50M;",
		"proxy_pass http://localhost:8080;",
		"proxy_http_version 1.1;",
		"proxy_set_header Upgrade $http_upgrade;",
		"proxy_set_header Connection 'upgrade';",
		"proxy_set_header Host $host;",
		"proxy_set_header X-Real-IP $remote_addr;",
		"proxy_set_header X-Forwarded-For $proxy_add_x_forwarded_for;",
		"proxy_set_header X-Forwarded-Proto $scheme;",
		"proxy_cache_bypass $http_upgrade;",
		"proxy_read_timeout 300s;",
		"proxy_connect_timeout 75s;",
	}
	for _, line := range wantLines {
		if !strings.Contains(content, line) {
			t.Errorf("site config missing %q:\n%s", line, content)
		}
	}
}

func TestInstallCommands(t *testing.T) {
	content := "server { listen 80; }"
	commands := InstallCommands("widget", content)

	if len(commands) != 3 {
		t.Fatalf("InstallCommands returned %d commands, want 3", len(commands))
	}

	// Write goes through base64 so config content cannot break out of
	// the shell command.
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	if !strings.Contains(commands[0], encoded) {
		t.Errorf("write command missing encoded content: %s", commands[0])
	}
	if !strings.Contains(commands[0], "/etc/nginx/sites-available/widget") {
		t.Errorf("write command targets wrong path: %s", commands[0])
	}

	if !strings.Contains(commands[1], "ln -sfn") ||
		!strings.Contains(commands[1], "/etc/nginx/sites-enabled/widget") {
		t.Errorf("enable command should force-relink the site: %s", commands[1])
	}

	if !strings.Contains(commands[2], "rm -f /etc/nginx/sites-enabled/default") {
		t.Errorf("default site is not removed: %s", commands[2])
	}
}

func TestRemoveCommands(t *testing.T) {
	commands := RemoveCommands("widget")

	if len(commands) != 2 {
		t.Fatalf("RemoveCommands returned %d commands, want 2", len(commands))
	}
	for _, cmd := range commands {
		if !strings.Contains(cmd, "rm -f") {
			t.Errorf("removal must tolerate a missing target: %s", cmd)
		}
	}
	if !strings.Contains(commands[0], "sites-enabled/widget") {
		t.Errorf("enabled symlink not removed first: %s", commands[0])
	}
	if !strings.Contains(commands[1], "sites-available/widget") {
		t.Errorf("site definition not removed: %s", commands[1])
	}
}

func TestSyntaxGateCommands(t *testing.T) {
	if got := TestCommand(); got != "sudo nginx -t" {
		t.Errorf("TestCommand() = %q", got)
	}
	if got := ReloadCommand(); got != "sudo systemctl reload nginx" {
		t.Errorf("ReloadCommand() = %q", got)
	}
}
