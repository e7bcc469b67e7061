package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every env var the loader reads so tests see defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"LISTEN", "PORT", "PROVIDER",
		"SLACK_SIGNING_SECRET", "SLACK_BOT_TOKEN",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM",
		"GMAIL_USER", "GMAIL_PASS",
		"SES_REGION", "SES_ACCESS_KEY_ID", "SES_SECRET_ACCESS_KEY", "SES_SENDER",
		"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE", "LOG_LEVEL",
	}
	for _, env := range envVars {
		t.Setenv(env, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Listen != ":5000" {
		t.Errorf("Server.Listen: got %q, want %q", cfg.Server.Listen, ":5000")
	}
	if cfg.SMTP.Host != "smtp.gmail.com" {
		t.Errorf("SMTP.Host: got %q, want %q", cfg.SMTP.Host, "smtp.gmail.com")
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("SMTP.Port: got %d, want 587", cfg.SMTP.Port)
	}
	if cfg.Provider != "" {
		t.Errorf("Provider: got %q, want empty", cfg.Provider)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.TLS.Enabled {
		t.Error("TLS.Enabled: got true, want false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("SLACK_SIGNING_SECRET", "secret")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-token")
	t.Setenv("PROVIDER", "SES")
	t.Setenv("SES_REGION", "us-east-1")
	t.Setenv("SES_SENDER", "bot@example.com")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Listen != ":8080" {
		t.Errorf("Server.Listen: got %q, want %q", cfg.Server.Listen, ":8080")
	}
	if cfg.Slack.SigningSecret != "secret" {
		t.Errorf("Slack.SigningSecret: got %q, want %q", cfg.Slack.SigningSecret, "secret")
	}
	if cfg.Provider != "ses" {
		t.Errorf("Provider: got %q, want %q (lowercased)", cfg.Provider, "ses")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q (lowercased)", cfg.Logging.Level, "debug")
	}
}

func TestLoad_GmailAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("GMAIL_USER", "legacy@gmail.com")
	t.Setenv("GMAIL_PASS", "app-password")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTP.Username != "legacy@gmail.com" {
		t.Errorf("SMTP.Username: got %q, want %q", cfg.SMTP.Username, "legacy@gmail.com")
	}
	if cfg.SMTP.Password != "app-password" {
		t.Errorf("SMTP.Password: got %q, want %q", cfg.SMTP.Password, "app-password")
	}

	// SMTP_* names win over the aliases.
	t.Setenv("SMTP_USERNAME", "new@example.com")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SMTP.Username != "new@example.com" {
		t.Errorf("SMTP.Username: got %q, want %q", cfg.SMTP.Username, "new@example.com")
	}
}

func TestLoadFromFile_YAMLBaseLayer(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  listen: ":9000"
slack:
  signing_secret: file-secret
  bot_token: file-token
provider: smtp
smtp:
  host: relay.example.com
  port: 2525
  username: relay-user
  password: relay-pass
  from: onboarding@example.com
logging:
  level: warn
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Listen != ":9000" {
		t.Errorf("Server.Listen: got %q, want %q", cfg.Server.Listen, ":9000")
	}
	if cfg.SMTP.Host != "relay.example.com" {
		t.Errorf("SMTP.Host: got %q, want %q", cfg.SMTP.Host, "relay.example.com")
	}
	if cfg.SMTP.Port != 2525 {
		t.Errorf("SMTP.Port: got %d, want 2525", cfg.SMTP.Port)
	}
	if cfg.FromAddress() != "onboarding@example.com" {
		t.Errorf("FromAddress(): got %q, want %q", cfg.FromAddress(), "onboarding@example.com")
	}

	// Env still overrides the file.
	t.Setenv("SMTP_HOST", "env.example.com")
	cfg, err = LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SMTP.Host != "env.example.com" {
		t.Errorf("SMTP.Host: got %q, want %q", cfg.SMTP.Host, "env.example.com")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	cases := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name: "complete smtp config",
			mutate: func(cfg *Config) {
				cfg.Slack.SigningSecret = "s"
				cfg.Slack.BotToken = "t"
				cfg.SMTP.Username = "u"
				cfg.SMTP.Password = "p"
			},
		},
		{
			name: "complete ses config",
			mutate: func(cfg *Config) {
				cfg.Slack.SigningSecret = "s"
				cfg.Slack.BotToken = "t"
				cfg.Provider = "ses"
				cfg.SES.Region = "us-east-1"
				cfg.SES.Sender = "bot@example.com"
			},
		},
		{
			name: "stdout needs only slack credentials",
			mutate: func(cfg *Config) {
				cfg.Slack.SigningSecret = "s"
				cfg.Slack.BotToken = "t"
				cfg.Provider = "stdout"
			},
		},
		{
			name: "auto-detect accepts ses-only config",
			mutate: func(cfg *Config) {
				cfg.Slack.SigningSecret = "s"
				cfg.Slack.BotToken = "t"
				cfg.SES.Region = "us-east-1"
				cfg.SES.Sender = "bot@example.com"
			},
		},
		{
			name: "missing signing secret",
			mutate: func(cfg *Config) {
				cfg.Slack.BotToken = "t"
				cfg.SMTP.Username = "u"
				cfg.SMTP.Password = "p"
			},
			wantErr: true,
		},
		{
			name: "missing smtp credentials",
			mutate: func(cfg *Config) {
				cfg.Slack.SigningSecret = "s"
				cfg.Slack.BotToken = "t"
			},
			wantErr: true,
		},
		{
			name: "ses without region",
			mutate: func(cfg *Config) {
				cfg.Slack.SigningSecret = "s"
				cfg.Slack.BotToken = "t"
				cfg.Provider = "ses"
				cfg.SES.Sender = "bot@example.com"
			},
			wantErr: true,
		},
		{
			name: "unknown provider",
			mutate: func(cfg *Config) {
				cfg.Slack.SigningSecret = "s"
				cfg.Slack.BotToken = "t"
				cfg.Provider = "carrier-pigeon"
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFromAddress(t *testing.T) {
	clearEnv(t)

	cfg := &Config{}
	cfg.applyDefaults()
	cfg.SMTP.Username = "user@gmail.com"

	if got := cfg.FromAddress(); got != "user@gmail.com" {
		t.Errorf("FromAddress(): got %q, want username fallback %q", got, "user@gmail.com")
	}

	cfg.SMTP.From = "noreply@example.com"
	if got := cfg.FromAddress(); got != "noreply@example.com" {
		t.Errorf("FromAddress(): got %q, want %q", got, "noreply@example.com")
	}

	cfg.Provider = "ses"
	cfg.SES.Sender = "ses-sender@example.com"
	if got := cfg.FromAddress(); got != "ses-sender@example.com" {
		t.Errorf("FromAddress(): got %q, want %q", got, "ses-sender@example.com")
	}
}
