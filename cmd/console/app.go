package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/workforce-console/internal/analytics"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/console/server"
	"github.com/xela07ax/workforce-console/internal/console/service"
	"github.com/xela07ax/workforce-console/internal/flags"
	"github.com/xela07ax/workforce-console/internal/infra"
	"github.com/xela07ax/workforce-console/internal/infra/auth"
	"github.com/xela07ax/workforce-console/internal/repository/memory"
	"github.com/xela07ax/workforce-console/internal/repository/postgres"
	"go.uber.org/zap"
)

// backend - всё, что консоль читает и пишет. Реализуют memory.Store и postgres.Repo.
type backend interface {
	server.Pinger
	flags.TenantStore
	analytics.Source
	audit.Storage
	service.AuthProvider
	service.RoleRepository
	service.TenantRepository
	service.EmployeeRepository
	service.RuleRepository
	service.WorkforceRepository
}

// app - общие ресурсы для всех подкоманд.
type app struct {
	cfg     *infra.Config
	logger  *zap.Logger
	reg     *prometheus.Registry
	metrics *infra.Metrics
	store   backend
	rdb     *redis.Client // nil - Redis не настроен или недоступен

	closers []func() error
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := infra.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &app{
		cfg:     cfg,
		logger:  logger,
		reg:     reg,
		metrics: infra.NewMetrics(reg),
	}

	if err := a.openStorage(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.connectRedis(ctx)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case "postgres":
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		db, err := postgres.Open(pingCtx, a.cfg.Database)
		if err != nil {
			return fmt.Errorf("database unreachable: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.store = postgres.NewRepo(db)
	default:
		store, err := memory.New()
		if err != nil {
			return err
		}
		a.store = store
		a.logger.Warn("running on built-in demo fixtures, data is not persisted")
	}
	a.logger.Info("storage ready", zap.String("driver", a.cfg.Storage.Driver))
	return nil
}

// connectRedis: без Redis консоль работает в одиночном режиме (локальный кэш, без Pub/Sub).
func (a *app) connectRedis(ctx context.Context) {
	if a.cfg.Redis.Addr == "" {
		return
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		a.logger.Warn("redis unavailable, running single-instance", zap.String("addr", a.cfg.Redis.Addr), zap.Error(err))
		rdb.Close()
		return
	}
	a.rdb = rdb
	a.closers = append(a.closers, rdb.Close)
}

// aggregator собирает цепочку источник -> надежность -> кэш.
func (a *app) aggregator() *analytics.Aggregator {
	ac := a.cfg.Analytics
	source := analytics.NewReliableSource(a.store, ac, a.metrics, a.logger)
	cache := analytics.NewTieredCache(a.rdb, ac.CacheSize, ac.CacheTTL, a.metrics, a.logger)
	return analytics.NewAggregator(source, cache, ac.SourceTimeout, a.metrics, a.logger)
}

// signingKeys читает RSA-пару из конфига. В демо-режиме без ключей генерируется временная пара.
func (a *app) signingKeys() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	if len(a.cfg.Auth.PrivateKey) == 0 && a.cfg.Storage.Driver == "fixtures" {
		a.logger.Warn("no signing key configured, generating an ephemeral one")
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, nil, err
		}
		return key, &key.PublicKey, nil
	}

	priv, err := auth.ParseRSAPrivateKey(a.cfg.Auth.PrivateKey)
	if err != nil {
		return nil, nil, err
	}
	// Публичный ключ можно не задавать: он выводится из приватного
	if len(a.cfg.Auth.PublicKey) == 0 {
		return priv, &priv.PublicKey, nil
	}
	pub, err := auth.ParseRSAPublicKey(a.cfg.Auth.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close resource", zap.Error(err))
		}
	}
	a.logger.Sync()
}
