package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "github.com/adamanr/worklog_service/internal/api/grpc"
	httpapi "github.com/adamanr/worklog_service/internal/api/http"
	"github.com/adamanr/worklog_service/internal/config"
	"github.com/adamanr/worklog_service/internal/controllers"
	"github.com/adamanr/worklog_service/internal/database"
	"github.com/adamanr/worklog_service/internal/metrics"
	"github.com/adamanr/worklog_service/internal/store"
	"github.com/adamanr/worklog_service/internal/store/postgres"
	logging "github.com/adamanr/worklog_service/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or configs/config.toml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.GetConfig(config.Path(*configPath), bootLogger)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := logging.SetupLogger(cfg.Server.LogFile, logging.ParseLevel(cfg.Server.LogLevel))
	if err != nil {
		log.Fatal("Failed to setup logger:", err)
	}
	slog.SetDefault(logger)

	// Salaries travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	rdb, err := database.NewRedisConn(ctx, cfg, logger)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", slog.String("driver", cfg.Database.Driver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := &controllers.Dependens{
		Store:   st,
		Redis:   rdb,
		Logger:  logger,
		Config:  cfg,
		Metrics: m,
	}

	httpServer := httpapi.NewServer(deps)
	if err := httpServer.Controllers.AuthController.Bootstrap(ctx); err != nil {
		logger.Error("Failed to bootstrap admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	s := &http.Server{
		Handler:           httpapi.NewRouter(httpServer, m, reg, logger),
		Addr:              cfg.Server.Host,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server is starting", slog.String("address", cfg.Server.Host))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	if cfg.Server.GRPCHost != "" {
		grpcServer := grpcapi.NewGRPCServer(grpcapi.NewServer(deps))
		g.Go(func() error {
			logger.Info("gRPC server is starting", slog.String("address", cfg.Server.GRPCHost))
			return grpcapi.Run(gctx, grpcServer, cfg.Server.GRPCHost)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Server stopped")
}

// openStore picks the backend named by database.driver.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.Database.Driver {
	case "postgres":
		migrator, err := database.NewMigrator(cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			return nil, nil, err
		}
		if err := migrator.Close(); err != nil {
			logger.Warn("Error closing migrator", slog.String("error", err.Error()))
		}

		pool, err := database.NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}

		pg := postgres.New(pool, cfg.Database.QueryTimeout)
		return pg, pool.Close, nil
	default:
		p, err := store.NewPersistence(cfg.Database.DataDir)
		if err != nil {
			return nil, nil, err
		}

		mem, err := store.LoadMemory(p)
		if err != nil {
			return nil, nil, err
		}

		logger.Info("Using file-backed memory store", slog.String("data_dir", cfg.Database.DataDir))
		return mem, func() {}, nil
	}
}
