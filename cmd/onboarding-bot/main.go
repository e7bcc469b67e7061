// Package main is the entry point for the onboarding bot webhook server.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/prateekraj3711-alt/onboarding-bot/internal/config"
	"github.com/prateekraj3711-alt/onboarding-bot/internal/mailer"
	"github.com/prateekraj3711-alt/onboarding-bot/internal/provider"
	"github.com/prateekraj3711-alt/onboarding-bot/internal/provider/ses"
	"github.com/prateekraj3711-alt/onboarding-bot/internal/provider/smtprelay"
	"github.com/prateekraj3711-alt/onboarding-bot/internal/provider/stdout"
	"github.com/prateekraj3711-alt/onboarding-bot/internal/server"
	"github.com/prateekraj3711-alt/onboarding-bot/internal/slack"
	webtls "github.com/prateekraj3711-alt/onboarding-bot/internal/tls"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Missing credentials are fatal before serving any traffic.
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	tlsConfig, err := loadTLS(cfg)
	if err != nil {
		slog.Error("failed to setup TLS", "error", err)
		os.Exit(1)
	}

	// Select email delivery provider
	prov := selectProvider(cfg)

	dispatcher := mailer.New(cfg.FromAddress(), prov)
	notifier := slack.NewClient(cfg.Slack.BotToken)

	srv := server.New(server.Config{
		ListenAddr:    cfg.Server.Listen,
		SigningSecret: cfg.Slack.SigningSecret,
		Dispatcher:    dispatcher,
		Notifier:      notifier,
		TLSConfig:     tlsConfig,
	})

	slog.Info("starting onboarding-bot",
		"listen", cfg.Server.Listen,
		"provider", prov.Name(),
		"from", cfg.FromAddress(),
		"tls_enabled", tlsConfig != nil,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Start the server (blocks until context is cancelled)
	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	if closer, ok := prov.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("failed to close relay connection", "error", err)
		}
	}

	slog.Info("onboarding-bot stopped")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// loadTLS returns a listener TLS config when HTTPS is enabled, nil otherwise.
// Most deployments terminate TLS at the platform and run plain HTTP here.
func loadTLS(cfg *config.Config) (*tls.Config, error) {
	if !cfg.TLS.Enabled {
		return nil, nil
	}
	return webtls.LoadOrGenerateTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the email delivery backend based on configuration.
// An explicit PROVIDER setting takes precedence; otherwise the SMTP relay
// is used when credentials exist, falling back to SES.
func selectProvider(cfg *config.Config) provider.Provider {
	switch cfg.Provider {
	case "smtp":
		slog.Info("using SMTP relay provider",
			"host", cfg.SMTP.Host,
			"port", cfg.SMTP.Port,
			"username", cfg.SMTP.Username,
		)
		return smtprelay.New(smtprelay.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})

	case "ses":
		slog.Info("using AWS SES provider",
			"region", cfg.SES.Region,
			"sender", cfg.SES.Sender,
		)
		p, err := ses.New(context.Background(), ses.Config{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		})
		if err != nil {
			slog.Error("failed to create SES provider", "error", err)
			os.Exit(1)
		}
		return p

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New()

	case "":
		// Auto-detection fallback; Validate already guaranteed that at
		// least one backend is configured.
		if cfg.SMTPConfigured() {
			slog.Info("using SMTP relay provider (auto-detected)",
				"host", cfg.SMTP.Host,
				"username", cfg.SMTP.Username,
			)
			return smtprelay.New(smtprelay.Config{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: cfg.SMTP.Password,
			})
		}
		if cfg.SESConfigured() {
			slog.Info("using AWS SES provider (auto-detected)",
				"region", cfg.SES.Region,
				"sender", cfg.SES.Sender,
			)
			p, err := ses.New(context.Background(), ses.Config{
				Region:          cfg.SES.Region,
				AccessKeyID:     cfg.SES.AccessKeyID,
				SecretAccessKey: cfg.SES.SecretAccessKey,
			})
			if err != nil {
				slog.Error("failed to create SES provider", "error", err)
				os.Exit(1)
			}
			return p
		}
		slog.Error("no delivery backend configured")
		os.Exit(1)
		return nil

	default:
		slog.Error("unknown provider", "provider", cfg.Provider)
		os.Exit(1)
		return nil
	}
}
