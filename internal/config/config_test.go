package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"
  log_level: debug

signup:
  base_url: "https://lists.example.org/"
  validity_seconds: 86400
  throttle_seconds: 30
  list_path: "/var/lib/signup/list.csv"
  download_password: "hunter2"

mail:
  endpoint: "https://mail.example.net/v1/send"
  api_key: "test-key"
  timeout_seconds: 10
  from_email: "list@example.org"
  from_name: "The List"
  subject: "Confirm"
  text_template: "go to {{ link }}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Server.LogLevel)

	assert.Equal(t, "https://lists.example.org/", cfg.Signup.BaseURL)
	assert.Equal(t, 86400, cfg.Signup.ValiditySeconds)
	assert.Equal(t, 30, cfg.Signup.ThrottleSeconds)
	assert.Equal(t, "/var/lib/signup/list.csv", cfg.Signup.ListPath)
	assert.Equal(t, "hunter2", cfg.Signup.DownloadPassword)

	assert.Equal(t, "https://mail.example.net/v1/send", cfg.Mail.Endpoint)
	assert.Equal(t, 10, cfg.Mail.TimeoutSeconds)
	assert.Equal(t, "go to {{ link }}", cfg.Mail.TextTemplate)

	require.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "signup:\n  base_url: https://x.example/\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 60, cfg.Signup.ThrottleSeconds)
	assert.Equal(t, 0, cfg.Signup.ValiditySeconds) // links never expire by default
	assert.Equal(t, "data/list.csv", cfg.Signup.ListPath)
	assert.Equal(t, 30, cfg.Mail.TimeoutSeconds)
	assert.Contains(t, cfg.Mail.TextTemplate, "{{ link }}")
	assert.Contains(t, cfg.Mail.HTMLTemplate, "{{ link }}")
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "signup:\n  base_url: https://x.example/\nmail:\n  api_key: from-file\n")

	t.Setenv("MAIL_API_KEY", "from-env")
	t.Setenv("SIGNUP_DOWNLOAD_PASSWORD", "s3cret")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Mail.APIKey)
	assert.Equal(t, "s3cret", cfg.Signup.DownloadPassword)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 1\n"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.Signup.BaseURL = "https://x.example/"
	assert.Error(t, cfg.Validate())

	cfg.Mail.Endpoint = "https://mail.example.net/send"
	assert.Error(t, cfg.Validate())

	cfg.Mail.FromEmail = "list@example.org"
	assert.NoError(t, cfg.Validate())
}
