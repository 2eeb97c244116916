package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/hms-console/internal/backend"
	"github.com/ashureev/hms-console/internal/config"
	"github.com/ashureev/hms-console/internal/fetch"
	"github.com/ashureev/hms-console/internal/notify"
	"github.com/ashureev/hms-console/internal/session"
	"github.com/ashureev/hms-console/internal/store"
	"github.com/ashureev/hms-console/internal/views"
)

// app holds the dependencies shared by every command.
type app struct {
	logger   *slog.Logger
	client   *backend.Client
	reporter *fetch.LogReporter
	fetcher  *fetch.Fetcher
	gate     *session.Gate
	resolver *session.Resolver
	journal  store.Repository
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	client, err := backend.NewClient(backend.ClientConfig{
		BaseURL:        cfg.Backend.BaseURL,
		CookieName:     cfg.Backend.CookieName,
		SessionToken:   cfg.Backend.SessionToken,
		RequestTimeout: cfg.Backend.RequestTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	journal, err := store.NewSQLite(cfg.AuditDBPath)
	if err != nil {
		return nil, fmt.Errorf("open audit journal: %w", err)
	}
	if err := journal.Ping(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("audit journal health check: %w", err), journal.Close())
	}

	reporter := fetch.NewLogReporter(logger)
	resolver := session.NewResolver(client, logger)

	return &app{
		logger:   logger,
		client:   client,
		reporter: reporter,
		fetcher:  fetch.New(client, reporter),
		gate:     session.NewGate(resolver.Resolve(ctx)),
		resolver: resolver,
		journal:  journal,
	}, nil
}

func (a *app) registry(notifier notify.Notifier, onPatched func(context.Context, string, views.View)) *views.Registry {
	return views.NewRegistry(views.Deps{
		Gate:      a.gate,
		Fetcher:   a.fetcher,
		Putter:    a.client,
		Notifier:  notifier,
		Journal:   a.journal,
		OnPatched: onPatched,
		Logger:    a.logger,
	})
}

func (a *app) Close() error {
	return a.journal.Close()
}
