package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	courseapp "github.com/albi2/CourseAppApi"
	"github.com/albi2/CourseAppApi/httpapi"
	"github.com/albi2/CourseAppApi/internal/config"
	"github.com/albi2/CourseAppApi/internal/logging"
	otelexport "github.com/albi2/CourseAppApi/metrics/export/otel"
	promexport "github.com/albi2/CourseAppApi/metrics/export/prometheus"
	"github.com/albi2/CourseAppApi/middleware"
	"github.com/albi2/CourseAppApi/store/mongostore"
	"github.com/albi2/CourseAppApi/store/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type serveOptions struct {
	configPath   string
	otelInterval time.Duration
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a config file (yaml, json or toml)")
	cmd.Flags().DurationVar(&opts.otelInterval, "otel-log-interval", 0, "log an OpenTelemetry metrics summary at this interval; 0 disables")
	return cmd
}

// backend bundles the selected store with its lifecycle hooks.
type backend struct {
	users   courseapp.UserStore
	courses courseapp.CourseStore
	health  func(context.Context) error
	close   func(context.Context) error
}

func openBackend(ctx context.Context, cfg config.Store) (*backend, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := redisstore.New(client, cfg.RedisPrefix)
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		return &backend{
			users:   store,
			courses: store,
			health:  store.Ping,
			close:   func(context.Context) error { return client.Close() },
		}, nil
	case config.DriverMongo:
		store, err := mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return &backend{
			users:   store,
			courses: store,
			health:  store.Ping,
			close:   store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func runServe(ctx context.Context, opts *serveOptions) error {
	appCfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: appCfg.Log.Level, Format: appCfg.Log.Format})
	if err != nil {
		return err
	}

	be, err := openBackend(ctx, appCfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", appCfg.Store.Driver, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), appCfg.Server.ShutdownTimeout)
		defer cancel()
		if err := be.close(closeCtx); err != nil {
			logger.WithError(err).Warn("store close failed")
		}
	}()

	engine, err := courseapp.New().
		WithConfig(appCfg.EngineConfig()).
		WithUserStore(be.users).
		WithCourseStore(be.courses).
		WithAuditSink(courseapp.NewLogrusSink(logger.WithField("component", "audit"))).
		WithLogger(logger.WithField("component", "engine")).
		Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	srvCfg := httpapi.Config{
		CORS:   middleware.CORSConfig{AllowedOrigins: appCfg.Server.CORSOrigins},
		Health: be.health,
	}
	if appCfg.Server.MetricsEnabled {
		srvCfg.MetricsHandler = promexport.NewPrometheusExporter(engine).Handler()
	}

	if opts.otelInterval > 0 {
		stopOTel, err := startOTelSummary(ctx, engine, logger, opts.otelInterval)
		if err != nil {
			return err
		}
		defer stopOTel()
	}

	httpServer := &http.Server{
		Addr:              appCfg.Server.Addr,
		Handler:           httpapi.New(engine, logger, srvCfg).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":  appCfg.Server.Addr,
			"store": appCfg.Store.Driver,
		}).Info("courseappd listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// startOTelSummary registers the OTel exporter on a manual-reader MeterProvider and
// logs non-zero counters every interval.
func startOTelSummary(ctx context.Context, engine *courseapp.Engine, logger logrus.FieldLogger, interval time.Duration) (func(), error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	exp, err := otelexport.NewOTelExporter(provider.Meter("courseappd"), engine)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, fmt.Errorf("otel exporter: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				fields, err := collectCounters(loopCtx, reader)
				if err != nil {
					logger.WithError(err).Warn("otel collect failed")
					continue
				}
				logger.WithFields(fields).Info("metrics summary")
			}
		}
	}()

	return func() {
		cancel()
		<-done
		_ = exp.Close()
		_ = provider.Shutdown(context.Background())
	}, nil
}
