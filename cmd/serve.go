package main

import (
	"context"
	"errors"
	"lending/internal/api"
	"lending/internal/api/handler/v1handler"
	"lending/internal/application"
	"lending/internal/config"
	"lending/internal/extraction"
	"lending/internal/ledger"
	"lending/internal/status"
	"lending/internal/underwriting"
	"lending/internal/worker"
	"lending/pkg/logger"
	"lending/pkg/metrics"
	"lending/pkg/storage"
	"lending/pkg/storage/memory"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context,
	cfg *config.Config,
	deps v1handler.Deps,
	provider metric.MeterProvider) func(ctx context.Context) {
	server, err := api.NewServer(api.Deps{Deps: deps, MeterProvider: provider}, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func newEngine(cfg *config.Config) underwriting.Engine {
	var inner underwriting.Engine = underwriting.NewSimulatedEngine(cfg.Underwriting.Latency)
	if cfg.Underwriting.Endpoint != "" {
		inner = underwriting.NewRemoteEngine(&http.Client{
			Timeout: cfg.Underwriting.Timeout,
		}, cfg.Underwriting.Endpoint, cfg.Underwriting.Token)
	}

	return underwriting.NewResilientEngine(inner, underwriting.NewResilienceOptions(cfg))
}

// setupPipeline creates the configured storage backend together with the
// application service and the background workers draining its jobs.
func setupPipeline(ctx context.Context,
	cfg *config.Config,
	pipeline *metrics.Pipeline) (storage.Storage, application.Service, func(ctx context.Context)) {
	engine := newEngine(cfg)
	options := application.NewOptions(cfg)

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		strg := memory.New(memory.Options{Shards: cfg.Storage.Shards})
		svc := application.New(strg, engine, pipeline, options)
		// jobs outlive the signal context so shutdown can drain them
		pool := worker.NewPool(context.WithoutCancel(ctx), svc, worker.NewOptions(cfg))
		strg.SetDispatcher(pool)

		return strg, svc, func(ctx context.Context) {
			logger.Info(ctx, "draining worker pool...")
			if err := pool.Shutdown(ctx); err != nil {
				logger.Error(ctx, "could not drain worker pool", zap.Error(err))
			}
			_ = strg.Close()
		}
	case config.StorageDriverPostgres:
		strg, closeStrg := getPostgres(ctx, cfg)
		svc := application.New(strg, engine, pipeline, options)
		riverClient, err := worker.Start(context.WithoutCancel(ctx), strg.Pool, svc, worker.NewOptions(cfg))
		if err != nil {
			logger.Fatal(ctx, "could not start river workers", zap.Error(err))
		}

		return strg, svc, func(ctx context.Context) {
			logger.Info(ctx, "stopping river workers...")
			if err := riverClient.Stop(ctx); err != nil {
				logger.Error(ctx, "could not stop river workers", zap.Error(err))
			}
			closeStrg()
		}
	default:
		logger.Fatal(ctx, "unknown storage driver", zap.String("driver", cfg.Storage.Driver))

		return nil, nil, nil
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server and background underwriting workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Environment == logger.ProductionEnvironment {
				gin.SetMode(gin.ReleaseMode)
			}

			provider, err := metrics.NewMeterProvider(prometheus.DefaultRegisterer)
			if err != nil {
				logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
			}
			otel.SetMeterProvider(provider)
			pipeline, err := metrics.NewPipeline(provider)
			if err != nil {
				logger.Fatal(ctx, "could not create pipeline metrics", zap.Error(err))
			}

			strg, svc, stopPipeline := setupPipeline(ctx, cfg, pipeline)

			classifier, err := extraction.NewClassifier(cfg.Extraction.Classifier)
			if err != nil {
				logger.Fatal(ctx, "could not create document classifier", zap.Error(err))
			}

			stopWebserver := setupServer(ctx, cfg, v1handler.Deps{
				Extractor:    extraction.New(strg, classifier, pipeline, extraction.NewOptions(cfg)),
				Applications: svc,
				Status:       status.New(strg),
				Ledger:       ledger.New(strg),

				MaxUploadBytes: cfg.Extraction.MaxBytes,
			}, provider)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			stopPipeline(shutdownCtx)
			if err := provider.Shutdown(shutdownCtx); err != nil {
				logger.Warn(shutdownCtx, "could not stop meter provider", zap.Error(err))
			}
		},
	}

	return cmd
}
