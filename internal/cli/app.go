package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/trekkers/tour-client/internal/core/ports"
	"github.com/trekkers/tour-client/internal/core/service"
	"github.com/trekkers/tour-client/internal/infrastructure/credstore"
	"github.com/trekkers/tour-client/internal/infrastructure/db/redis"
	"github.com/trekkers/tour-client/internal/infrastructure/gateway"
	"github.com/trekkers/tour-client/internal/pkg/config"
	"github.com/trekkers/tour-client/pkg/logger"
)

// app is one wired client: a credential store, the gateway over it and the
// services on top.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	creds   ports.CredentialStore
	session *service.SessionService
	toggles *service.ToggleService
	tours   *gateway.ToursAPI

	closers []func() error
}

func (o *options) newApp(ctx context.Context) (*app, error) {
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	log := logger.Component("cli")

	a := &app{cfg: cfg, log: log}
	a.creds, err = a.openCredentials(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	gw := gateway.New(gateway.Config{BaseURL: cfg.APIURL, Timeout: cfg.Timeout}, a.creds, logger.Component("gateway"))
	a.session = service.NewSessionService(gateway.NewUsersAPI(gw), a.creds, logger.Component("session"))
	gw.SetAuthFailureHandler(a.session)
	a.tours = gateway.NewToursAPI(gw)
	a.toggles = service.NewToggleService(a.tours, a.session, logger.Component("toggle"))
	a.closers = append(a.closers, func() error { a.toggles.Close(); return nil })
	return a, nil
}

func (a *app) openCredentials(ctx context.Context) (ports.CredentialStore, error) {
	switch a.cfg.Credentials.Backend {
	case config.BackendMemory:
		return credstore.NewMemory(""), nil
	case config.BackendFile:
		path, err := a.cfg.Credentials.TokenPath()
		if err != nil {
			return nil, err
		}
		return credstore.OpenFile(path)
	case config.BackendRedis:
		client, err := redis.Connect(ctx, redis.Config{Addr: a.cfg.Redis.Addr, DB: a.cfg.Redis.DB, Timeout: 5 * time.Second})
		if err != nil {
			return nil, err
		}
		store, err := redis.NewCredentialStore(ctx, client, a.cfg.RedisKey(), logger.Component("redis"))
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q", a.cfg.Credentials.Backend)
	}
}

// Close releases what newApp opened, most recent first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("shutdown")
		}
	}
	a.closers = nil
}

// bootstrap resolves the stored credential before a command runs.
func (a *app) bootstrap(ctx context.Context) error {
	if err := a.session.Bootstrap(ctx); err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	return nil
}
