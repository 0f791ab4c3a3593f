package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	kafka_impl "rentspace/internal/broker/kafka"
	"rentspace/internal/config"
	"rentspace/internal/dedup"
	property_h "rentspace/internal/http-server/handler/property"
	"rentspace/internal/http-server/router"
	minio_repo "rentspace/internal/repository/property/cloud/minio"
	postgres_repo "rentspace/internal/repository/property/db/postgres"
	"rentspace/internal/scanner"
	"rentspace/internal/subject"
	"rentspace/internal/usecase/pipeline"
	property_uc "rentspace/internal/usecase/property"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	redis    *redis.Client
	producer *kafka_impl.ProducerClient
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	fileRepo, err := minio_repo.NewFileRepository(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	propertyRepo := postgres_repo.NewPropertiesRepository(db, retries)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	dedupStore := dedup.NewRedisStore(redisClient, dedup.DefaultTTL)

	mediaPipeline := pipeline.New(
		buildScanner(cfg, logger),
		dedupStore,
		buildLocator(cfg, logger),
		pipelineOptions(cfg),
		logger,
	)

	producer := kafka_impl.NewProducerClient(cfg.Kafka.Brokers, cfg.Kafka.ReprocessTopic)
	publisher := kafka_impl.NewReprocessPublisher(producer, retries)

	propertyUsecase := property_uc.NewPropertyUsecase(propertyRepo, fileRepo, mediaPipeline, publisher, logger)

	propertyHandler := property_h.NewPropertyHandler(propertyUsecase, logger)

	h := &router.Handler{
		PropertyHandler: propertyHandler,
	}

	mux := router.SetupRouter(h, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		db:       db,
		redis:    redisClient,
		producer: producer,
	}, nil
}

func buildScanner(cfg *config.Config, logger *zlog.Zerolog) scanner.Scanner {
	var external scanner.Scanner
	if cfg.Clamav.Addr != "" {
		external = scanner.NewClamdScanner(cfg.Clamav.Addr)
	} else {
		logger.Warn().Msg("Clamav disabled, using heuristic scan only")
	}
	return scanner.NewTieredScanner(external, logger)
}

func buildLocator(cfg *config.Config, logger *zlog.Zerolog) subject.Locator {
	if cfg.Pipeline.CascadePath == "" {
		logger.Warn().Msg("No cascade file configured, subject crop will pass images through")
		return subject.NopLocator{}
	}

	locator, err := subject.NewPigoLocator(cfg.Pipeline.CascadePath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Pipeline.CascadePath).Msg("Failed to load cascade file")
		return subject.NopLocator{}
	}
	return locator
}

func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		MaxWidth:         cfg.Pipeline.MaxWidth,
		MaxHeight:        cfg.Pipeline.MaxHeight,
		MobileWidth:      cfg.Pipeline.MobileWidth,
		MobileHeight:     cfg.Pipeline.MobileHeight,
		JPEGQuality:      cfg.Pipeline.JPEGQuality,
		MobileQuality:    cfg.Pipeline.MobileQuality,
		WebPQuality:      cfg.Pipeline.WebPQuality,
		MaxFileSizeMB:    cfg.Pipeline.MaxFileSizeMB,
		EnhanceSharpness: cfg.Pipeline.EnhanceSharpness,
		UseSubjectCrop:   cfg.Pipeline.UseSubjectCrop,
		UseUpscale:       cfg.Pipeline.UseUpscale,
	}
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.db != nil && a.db.Master != nil {
			a.db.Master.Close()
		}

		if a.redis != nil {
			a.redis.Close()
		}

		if a.producer != nil {
			a.producer.Close()
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
