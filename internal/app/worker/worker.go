package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"rentspace/internal/broker"
	kafka_impl "rentspace/internal/broker/kafka"
	"rentspace/internal/config"
	"rentspace/internal/dedup"
	"rentspace/internal/domain"
	minio_repo "rentspace/internal/repository/property/cloud/minio"
	postgres_repo "rentspace/internal/repository/property/db/postgres"
	"rentspace/internal/scanner"
	"rentspace/internal/subject"
	"rentspace/internal/usecase/pipeline"
)

// Worker consumes reprocess tasks, re-runs the media pipeline over the
// stored originals and publishes a result per task. Dedup is skipped since
// the content is already registered by the original upload.
type Worker struct {
	cfg          *config.Config
	logger       *zlog.Zerolog
	db           *dbpg.DB
	consumer     broker.Consumer
	producer     broker.Producer
	fileRepo     *minio_repo.FileRepository
	propertyRepo *postgres_repo.PropertiesRepository
	pipeline     *pipeline.Pipeline
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
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

	propertyRepo := postgres_repo.NewPropertiesRepository(db, cfg.DefaultRetryStrategy())

	consumer := kafka_impl.NewConsumerClient(cfg.Kafka.Brokers, cfg.Kafka.ReprocessTopic, cfg.Kafka.GroupID)
	producer := kafka_impl.NewProducerClient(cfg.Kafka.Brokers, cfg.Kafka.ResultsTopic)

	opts := workerPipelineOptions(cfg)
	mediaPipeline := pipeline.New(
		buildScanner(cfg, logger),
		dedup.NopStore{},
		buildLocator(cfg, logger),
		opts,
		logger,
	)

	return &Worker{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		consumer:     consumer,
		producer:     producer,
		fileRepo:     fileRepo,
		propertyRepo: propertyRepo,
		pipeline:     mediaPipeline,
	}, nil
}

func workerPipelineOptions(cfg *config.Config) pipeline.Options {
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
		SkipDedup:        true,
	}
}

func buildScanner(cfg *config.Config, logger *zlog.Zerolog) scanner.Scanner {
	var external scanner.Scanner
	if cfg.Clamav.Addr != "" {
		external = scanner.NewClamdScanner(cfg.Clamav.Addr)
	}
	return scanner.NewTieredScanner(external, logger)
}

func buildLocator(cfg *config.Config, logger *zlog.Zerolog) subject.Locator {
	if cfg.Pipeline.CascadePath == "" {
		return subject.NopLocator{}
	}

	locator, err := subject.NewPigoLocator(cfg.Pipeline.CascadePath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Pipeline.CascadePath).Msg("Failed to load cascade file")
		return subject.NopLocator{}
	}
	return locator
}

func (w *Worker) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages := make(chan kafka.Message, w.cfg.Worker.Concurrency)

	go w.consumer.StartConsuming(ctx, messages, w.cfg.DefaultRetryStrategy())

	for i := 0; i < w.cfg.Worker.Concurrency; i++ {
		go w.worker(ctx, i, messages)
	}

	w.logger.Info().Int("concurrency", w.cfg.Worker.Concurrency).Msg("Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	w.logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	cancel()

	w.consumer.Close()
	w.producer.Close()
	if w.db != nil && w.db.Master != nil {
		w.db.Master.Close()
	}

	return nil
}

func (w *Worker) worker(ctx context.Context, id int, messages <-chan kafka.Message) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Int("worker_id", id).Msg("Worker stopped")
			return
		case msg := <-messages:
			w.safeProcessMessage(ctx, id, msg)
		}
	}
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg kafka.Message) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Interface("panic", r).
				Int("worker_id", workerID).
				Msg("Panic while processing task")
		}
	}()
	w.processMessage(ctx, workerID, msg)
}

func (w *Worker) processMessage(ctx context.Context, workerID int, msg kafka.Message) {
	var task domain.ReprocessTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.logger.Error().Err(err).Int("worker_id", workerID).Msg("Failed to unmarshal task")
		return
	}

	w.logger.Info().
		Int("worker_id", workerID).
		Str("task_id", task.ID).
		Str("photo_id", task.PhotoID).
		Msg("Processing task")

	if err := w.reprocess(ctx, &task); err != nil {
		w.logger.Error().Err(err).Str("photo_id", task.PhotoID).Msg("Reprocessing failed")
		if statusErr := w.propertyRepo.UpdatePhotoStatus(ctx, task.PhotoID, domain.PhotoStatusFailed); statusErr != nil {
			w.logger.Error().Err(statusErr).Str("photo_id", task.PhotoID).Msg("Failed to update photo status")
		}
		w.sendResult(ctx, &task, string(domain.PhotoStatusFailed), err.Error())
	} else {
		w.sendResult(ctx, &task, string(domain.PhotoStatusReady), "")
	}

	if err := w.consumer.Commit(ctx, msg); err != nil {
		w.logger.Error().Err(err).Str("photo_id", task.PhotoID).Msg("Failed to commit message")
	}
}

func (w *Worker) reprocess(ctx context.Context, task *domain.ReprocessTask) error {
	reader, err := w.fileRepo.GetObject(ctx, task.OriginalPath)
	if err != nil {
		return fmt.Errorf("failed to get original: %w", err)
	}

	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return fmt.Errorf("failed to read original: %w", err)
	}

	result, err := w.pipeline.Process(ctx, domain.InputAsset{
		Reader:   bytes.NewReader(data),
		Filename: task.Filename,
		Size:     int64(len(data)),
	})
	if err != nil {
		return err
	}
	if result.Outcome != domain.OutcomeProcessed {
		return fmt.Errorf("pipeline rejected stored original: %s", result.Reason)
	}

	photo, err := w.propertyRepo.GetPhotoByID(ctx, task.PhotoID)
	if err != nil {
		return fmt.Errorf("failed to get photo: %w", err)
	}

	photo.DesktopPath = variantPath(task.PropertyID, task.PhotoID, result.Desktop.Name)
	photo.MobilePath = variantPath(task.PropertyID, task.PhotoID, result.Mobile.Name)
	photo.WebPPath = variantPath(task.PropertyID, task.PhotoID, result.WebP.Name)
	photo.Warning = result.Warning
	photo.Status = domain.PhotoStatusReady

	variants := []struct {
		path  string
		asset *domain.EncodedAsset
	}{
		{photo.DesktopPath, result.Desktop},
		{photo.MobilePath, result.Mobile},
		{photo.WebPPath, result.WebP},
	}
	for _, v := range variants {
		if err := w.fileRepo.SaveAsset(ctx, v.path, v.asset.Data, v.asset.ContentType); err != nil {
			return fmt.Errorf("failed to save variant: %w", err)
		}
	}

	if err := w.propertyRepo.UpdatePhotoVariants(ctx, photo); err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}

	return nil
}

func (w *Worker) sendResult(ctx context.Context, task *domain.ReprocessTask, status, errorMsg string) {
	result := domain.ReprocessResult{
		TaskID:  task.ID,
		PhotoID: task.PhotoID,
		Status:  status,
		Error:   errorMsg,
	}

	payload, err := json.Marshal(result)
	if err != nil {
		w.logger.Error().Err(err).Str("photo_id", task.PhotoID).Msg("Failed to marshal result")
		return
	}

	if err := w.producer.Send(ctx, w.cfg.DefaultRetryStrategy(), []byte(task.PhotoID), payload); err != nil {
		w.logger.Error().Err(err).Str("photo_id", task.PhotoID).Msg("Failed to send result")
	}
}

func variantPath(propertyID, photoID, name string) string {
	return domain.PathPrefixPhotos + propertyID + "/" + photoID + "/" + name
}
