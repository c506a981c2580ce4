package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/internmatch-client/adapters/backend"
	"github.com/khoahotran/internmatch-client/adapters/event"
	"github.com/khoahotran/internmatch-client/adapters/media_storage"
	"github.com/khoahotran/internmatch-client/adapters/persistence"
	"github.com/khoahotran/internmatch-client/internal/application/service"
	authUC "github.com/khoahotran/internmatch-client/internal/application/usecase/auth"
	profileUC "github.com/khoahotran/internmatch-client/internal/application/usecase/profile"
	"github.com/khoahotran/internmatch-client/internal/config"
	"github.com/khoahotran/internmatch-client/internal/domain/asset"
	"github.com/khoahotran/internmatch-client/internal/domain/session"
	"github.com/khoahotran/internmatch-client/pkg/logger"
	"github.com/khoahotran/internmatch-client/pkg/tracing"
)

// app holds everything a command needs. It is built once per invocation.
type app struct {
	cfg    config.Config
	logger logger.Logger

	authUC    *authUC.AuthUseCase
	profileUC *profileUC.ProfileUseCase

	closers []func()
}

func newApp(ctx context.Context, cfg config.Config, log logger.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: log}

	tp, err := tracing.NewTracerProvider(cfg, log, cfg.App.Name)
	if err != nil {
		log.Warn("Tracing unavailable", zap.Error(err))
	} else if tp != nil {
		a.onClose(func() { shutdownTracer(tp, log) })
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = persistence.NewRedisClient(ctx, cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.onClose(func() { _ = rdb.Close() })
	}

	tokens, err := newTokenStore(cfg, rdb)
	if err != nil {
		a.Close()
		return nil, err
	}

	var cache service.ExistenceCache
	if rdb != nil {
		cache = persistence.NewRedisExistenceCache(rdb, cfg.Session.KeyPrefix, cfg.Redis.CacheTTL)
	} else {
		cache = persistence.NewMemoryExistenceCache(cfg.Redis.CacheTTL)
	}

	var events service.EventPublisher = event.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := event.NewKafkaProducerClient(cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.onClose(producer.Close)
		events = producer
	}

	var previewer asset.Previewer = media_storage.NewMemoryPreviewer()
	if cfg.Cloudinary.CloudName != "" {
		cld, err := media_storage.NewCloudinaryPreviewer(cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		previewer = cld
	}

	client := backend.NewClient(cfg, log)
	a.authUC = authUC.NewAuthUseCase(client, tokens, log)
	a.profileUC = profileUC.NewProfileUseCase(
		client,
		cache,
		events,
		tokens,
		previewer,
		asset.Options{
			DefaultProfilePicture: cfg.Assets.DefaultProfilePicture,
			DefaultCoverPhoto:     cfg.Assets.DefaultCoverPhoto,
			MaxBytes:              cfg.Assets.MaxBytes,
		},
		log,
	)
	return a, nil
}

func newTokenStore(cfg config.Config, rdb *redis.Client) (service.TokenStore, error) {
	switch cfg.Session.Store {
	case "", "file":
		return persistence.NewFileTokenStore(cfg.Session.File), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("session.store is redis but redis.addr is empty")
		}
		return persistence.NewRedisTokenStore(rdb, cfg.Session.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

func shutdownTracer(tp *sdktrace.TracerProvider, log logger.Logger) {
	if err := tp.Shutdown(context.Background()); err != nil {
		log.Warn("Tracer shutdown failed", zap.Error(err))
	}
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close runs the registered closers in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// session restores the stored session or fails with an auth error.
func (a *app) session(ctx context.Context) (*session.Session, error) {
	out, err := a.authUC.ExecuteRestoreSession(ctx)
	if err != nil {
		return nil, err
	}
	return out.Session, nil
}
