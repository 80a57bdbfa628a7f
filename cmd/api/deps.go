package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/mail"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
)

// openAccountStore connects the configured driver and returns its repository
// plus a cleanup func that is always safe to call.
func openAccountStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.AccountRepository, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		m, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, func() {}, err
		}
		closeFn := func() { m.Close(context.Background()) }
		if err := repository.EnsureAccountIndexes(ctx, m.Collection()); err != nil {
			closeFn()
			return nil, func() {}, err
		}
		return repository.NewMongoAccountRepository(m.Collection()), closeFn, nil

	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, func() {}, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, func() {}, err
			}
		}
		return repository.NewPostgresAccountRepository(pg.Pool), pg.Close, nil

	case config.StoreMemory:
		logger.Warn("using in-memory account store; data is lost on restart")
		return repository.NewMemoryAccountRepository(), func() {}, nil

	default:
		return nil, func() {}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newMailer returns the SMTP sender, or a sender that always fails when no
// relay is configured so forgot-password answers with a clean 500.
func newMailer(cfg config.MailConfig, logger *zap.Logger) mail.Sender {
	if cfg.Host == "" {
		logger.Warn("EMAIL_HOST not set; password reset emails cannot be sent")
		return mail.NewDisabledSender("smtp relay not configured")
	}
	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		FromName: cfg.FromName,
		UseTLS:   cfg.UseTLS,
	})
	if err != nil {
		logger.Warn("invalid smtp configuration; password reset emails cannot be sent", zap.Error(err))
		return mail.NewDisabledSender(err.Error())
	}
	return sender
}
