package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/xela07ax/workforce-console/internal/analytics"
	"github.com/xela07ax/workforce-console/internal/audit"
	"github.com/xela07ax/workforce-console/internal/console/handler"
	"github.com/xela07ax/workforce-console/internal/console/server"
	"github.com/xela07ax/workforce-console/internal/console/service"
	"github.com/xela07ax/workforce-console/internal/flags"
	"github.com/xela07ax/workforce-console/internal/infra/auth"
	"github.com/xela07ax/workforce-console/internal/risk"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *cfgPath)
		},
	}
}

// serve живет до отмены ctx (SIGINT/SIGTERM из main), затем останавливает слушателей и серверы.
func serve(ctx context.Context, cfgPath string) error {
	a, err := newApp(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	// 1. Control plane: журнал действий и фич-флаги
	trail := audit.NewTrail(a.store, a.cfg.Audit, a.metrics, logger)
	trail.Start()
	defer trail.Stop()

	flagCache := flags.NewCache(a.store, a.rdb, logger)
	if err := flagCache.Sync(ctx); err != nil {
		return err
	}
	go flagCache.Listen(ctx)

	// 2. Аналитика + прогрев кэша по расписанию
	agg := a.aggregator()
	if spec := a.cfg.Analytics.WarmupSchedule; spec != "" {
		warmer := analytics.NewWarmer(agg, a.store, a.rdb, logger)
		c, err := warmer.Schedule(ctx, spec, a.cfg.Analytics.SourceTimeout*10)
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	// 3. Сервисы и обработчики
	priv, pub, err := a.signingKeys()
	if err != nil {
		return fmt.Errorf("signing keys: %w", err)
	}
	h := server.Handlers{
		Auth:       handler.NewAuthHandler(service.NewAuthService(a.store, priv, a.cfg.Auth), logger),
		Tenant:     handler.NewTenantHandler(service.NewTenantService(a.store, flagCache, a.rdb, trail, logger), logger),
		Analytics:  handler.NewAnalyticsHandler(service.NewAnalyticsService(agg, flagCache, trail), logger),
		Roles:      handler.NewRoleHandler(service.NewRoleService(a.store, risk.NewAnalyzer(logger), trail, logger), logger),
		Employees:  handler.NewEmployeeHandler(service.NewEmployeeService(a.store, trail, logger), logger),
		Automation: handler.NewAutomationHandler(service.NewAutomationService(a.store, a.rdb, trail, logger), logger),
		Workforce:  handler.NewWorkforceHandler(service.NewWorkforceService(a.store, trail, logger), logger),
	}
	validator := auth.NewBaseValidator(pub, a.cfg.Auth.Issuer)
	api := server.NewConsoleServer(logger, a.metrics, a.reg, validator, a.store, h)

	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	// 4. gRPC health для оркестратора
	grpcSrv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("console API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.GRPCHealthPort)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		logger.Info("grpc health started", zap.String("addr", addr))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})

	// 5. Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("console stopping...")
		hs.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		grpcSrv.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("console exited properly")
	return nil
}
