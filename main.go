package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"pixoform/api/pkg/clients/email"
	"pixoform/api/pkg/config"
	"pixoform/api/pkg/db"
	"pixoform/api/pkg/logger"
	"pixoform/api/services/notifier"
	"pixoform/api/services/storage"
	"pixoform/api/services/submission"
	"pixoform/api/services/web"
)

const serviceName = "pixoform-api"

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	var logOut io.Writer = os.Stdout
	if cfg.Log.File != "" {
		w, closer, err := logger.OpenFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer closer.Close()
		logOut = w
	}
	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Env, serviceName),
		logger.WithOutput(logOut),
	}
	if level, ok := logger.ParseLevel(cfg.Log.Level); ok {
		logOpts = append(logOpts, logger.WithLevel(level))
	}
	slog.SetDefault(logger.New(logOpts...))
	slog.Info("Pixoform startup", "mailTransport", cfg.Mail.Transport)

	dbCfg := db.DefaultConfig(cfg.DB.URL)
	dbCfg.MaxConns = cfg.DB.MaxConns
	dbCfg.MinConns = cfg.DB.MinConns
	dbCfg.ConnectTimeout = cfg.DB.ConnectTimeout
	dbCfg.PingAttempts = cfg.DB.PingAttempts
	dbCfg.ApplicationName = serviceName
	pool, err := db.Connect(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	store, err := storage.NewInstance(pool)
	if err != nil {
		return fmt.Errorf("create store instance: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	slog.Info("Database initialized successfully")

	emailClient, err := newEmailClient(ctx, cfg.Mail)
	if err != nil {
		return fmt.Errorf("create email client: %w", err)
	}

	notifierService, err := notifier.New(emailClient, notifier.Config{
		From:            cfg.Mail.Address,
		FromName:        cfg.Mail.FromName,
		InternalAddress: cfg.Mail.AlertRecipient(),
	})
	if err != nil {
		return err
	}

	pipeline, err := submission.New(store, notifierService)
	if err != nil {
		return err
	}

	webService, err := web.NewService(pipeline, store, notifierService, web.Config{
		Production:         cfg.IsProduction(),
		AdminToken:         cfg.Admin.Token,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	if err != nil {
		return err
	}
	if cfg.Admin.Token == "" {
		slog.Warn("ADMIN_TOKEN is not set, /api/submissions will reject every request")
	}

	// setup router
	mainRouter := mux.NewRouter()
	webService.LoadRoutes(mainRouter)

	handler := web.AccessLog(webService.Handler(mainRouter))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Covers both synchronous SMTP sends on /submit-form.
		WriteTimeout: 2*cfg.Mail.SMTPTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("Could not stop server gracefully", "error", err)
			srv.Close()
		}
	}
	return nil
}

// newEmailClient picks the transport named by MAIL_TRANSPORT.
func newEmailClient(ctx context.Context, m config.Mail) (email.Client, error) {
	switch m.Transport {
	case config.TransportSMTP:
		return email.NewSMTPClient(email.SMTPConfig{
			Host:     m.SMTPServer,
			Port:     m.SMTPPort,
			Username: m.Address,
			Password: m.Password,
			Timeout:  m.SMTPTimeout,
		}), nil
	case config.TransportSES:
		client, err := email.NewSESClient(ctx, email.SESConfig{
			Region:          m.AWSRegion,
			AccessKeyID:     m.AWSAccessKeyID,
			SecretAccessKey: m.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.TransportStub:
		return email.NewStubClient(m.Address), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", m.Transport)
	}
}
