package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ignite/signup-service/internal/api"
	"github.com/ignite/signup-service/internal/config"
	"github.com/ignite/signup-service/internal/directory"
	"github.com/ignite/signup-service/internal/liststore"
	"github.com/ignite/signup-service/internal/mailer"
	"github.com/ignite/signup-service/internal/metrics"
	"github.com/ignite/signup-service/internal/pkg/logger"
	"github.com/ignite/signup-service/internal/ratelimit"
	"github.com/ignite/signup-service/internal/signer"
	"github.com/ignite/signup-service/internal/signup"
)

func main() {
	configPath := pflag.String("config", "config/config.yaml", "path to the configuration file")
	listen := pflag.String("listen", "", "listen address override (host:port)")
	pflag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Server.LogLevel))

	// The signing key lives exactly as long as this process. Links issued
	// before a restart stop working; that is the accepted tradeoff for
	// never having to store key material.
	signingKey, err := signer.New()
	if err != nil {
		logger.Error("failed to generate signing key", "error", err)
		os.Exit(1)
	}
	logger.Info("ephemeral signing key generated, links from previous runs are now invalid")

	dir := directory.New()
	if err := os.MkdirAll(filepath.Dir(cfg.Signup.ListPath), 0o755); err != nil {
		logger.Error("failed to create list directory", "path", cfg.Signup.ListPath, "error", err)
		os.Exit(1)
	}
	store := liststore.New(cfg.Signup.ListPath)
	if err := store.Load(dir); err != nil {
		logger.Error("failed to load subscriber list", "path", cfg.Signup.ListPath, "error", err)
		os.Exit(1)
	}

	templates, err := mailer.NewTemplates(cfg.Mail.Subject, cfg.Mail.TextTemplate, cfg.Mail.HTMLTemplate)
	if err != nil {
		logger.Error("failed to parse mail templates", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(cfg.Signup.Throttle())

	requests := &signup.RequestProcessor{
		Signer:    signingKey,
		Limiter:   limiter,
		Directory: dir,
		Sender:    mailer.NewClient(cfg.Mail.Endpoint, cfg.Mail.APIKey, cfg.Mail.Timeout()),
		Templates: templates,
		BaseURL:   cfg.Signup.BaseURL,
		Validity:  cfg.Signup.Validity(),
		FromEmail: cfg.Mail.FromEmail,
		FromName:  cfg.Mail.FromName,
	}
	verifier := &signup.VerifyProcessor{
		PublicKey: signingKey.PublicKey(),
		Directory: dir,
		Store:     store,
	}

	m := metrics.New(func() float64 { return float64(dir.Len()) })
	handlers := api.NewHandlers(requests, verifier, dir, store, m, cfg.Signup.DownloadPassword)
	server := api.NewServer(cfg.Server, handlers)

	// Background sweep of expired throttle records, tied to the server's
	// lifetime.
	ctx, cancel := context.WithCancel(context.Background())
	go limiter.Run(ctx)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	addr := *listen
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	}
	go func() {
		logger.Info("server listening", "addr", addr, "subscribers", dir.Len())
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
