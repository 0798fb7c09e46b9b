package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"
	"github.com/tendant/simple-confirm/pkg/config"
	"github.com/tendant/simple-confirm/pkg/confirmation"
	confirmationapi "github.com/tendant/simple-confirm/pkg/confirmation/api"
	"github.com/tendant/simple-confirm/pkg/notification"
)

type Config struct {
	AppConfig          app.AppConfig
	DatabaseConfig     config.DatabaseConfig
	EmailConfig        config.EmailConfig
	JwtConfig          config.JwtConfig
	ConfirmationConfig config.ConfirmationConfig
}

func main() {
	// Load .env file using godotenv, real env wins
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg := Config{}
	cleanenv.ReadEnv(&cfg)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	repo, err := newAccountRepository(cfg)
	if err != nil {
		slog.Error("Failed creating account repository", "persistence", cfg.ConfirmationConfig.Persistence, "err", err)
		os.Exit(-1)
	}

	notificationManager, err := notification.NewNotificationManagerWithOptions(
		cfg.ConfirmationConfig.BaseUrl,
		notification.WithSMTP(cfg.EmailConfig.ToSMTPConfig()),
		notification.WithDefaultTemplates(),
	)
	if err != nil {
		slog.Error("Failed initializing notification manager", "err", err)
		os.Exit(-1)
	}

	confirmationService := confirmation.NewConfirmationService(
		repo,
		notificationManager,
		cfg.ConfirmationConfig.BaseUrl,
		confirmation.WithTokenExpiry(cfg.ConfirmationConfig.TokenExpiry),
		confirmation.WithResendInterval(cfg.ConfirmationConfig.ResendInterval),
	)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JwtConfig.JwtSecret), nil)

	handle := confirmationapi.NewHandler(confirmationService)
	server.R.Mount("/confirmation", confirmationapi.Routes(handle, tokenAuth))

	slog.Info("Confirmation service configured",
		"persistence", cfg.ConfirmationConfig.Persistence,
		"base_url", cfg.ConfirmationConfig.BaseUrl,
		"token_expiry", cfg.ConfirmationConfig.TokenExpiry,
		"resend_interval", cfg.ConfirmationConfig.ResendInterval,
	)

	server.Run()
}

func newAccountRepository(cfg Config) (confirmation.AccountRepository, error) {
	repoConfig := confirmation.RepositoryConfig{
		DataDir: cfg.ConfirmationConfig.DataDir,
	}

	if cfg.ConfirmationConfig.Persistence == "postgres" || cfg.ConfirmationConfig.Persistence == "postgresql" {
		dbConfig := cfg.DatabaseConfig.ToDbConfig()
		pool, err := dbutils.NewDbPool(context.Background(), dbConfig)
		if err != nil {
			slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
			return nil, err
		}
		repoConfig.Pool = pool
	}

	return confirmation.NewAccountRepository(cfg.ConfirmationConfig.Persistence, repoConfig)
}
