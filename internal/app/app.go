package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vitrina-app/media-service/config"
	"github.com/vitrina-app/media-service/internal/controller/restapi"
	"github.com/vitrina-app/media-service/internal/controller/worker/outbox"
	infrakafka "github.com/vitrina-app/media-service/internal/infrastructure/kafka"
	"github.com/vitrina-app/media-service/internal/infrastructure/processor"
	"github.com/vitrina-app/media-service/internal/infrastructure/validate"
	"github.com/vitrina-app/media-service/internal/repo/persistent"
	"github.com/vitrina-app/media-service/internal/usecase/media"
	"github.com/vitrina-app/media-service/pkg/httpserver"
	"github.com/vitrina-app/media-service/pkg/kafka/producer"
	"github.com/vitrina-app/media-service/pkg/logger"
	"github.com/vitrina-app/media-service/pkg/postgres"
	"github.com/vitrina-app/media-service/pkg/s3client"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	usageRelations, err := persistent.ParseUsageRelations(cfg.Media.UsageRelations)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - persistent.ParseUsageRelations: %w", err))
	}

	// Use-Case

	mediaUseCase := media.New(
		persistent.NewBlobRepo(s3c, cfg.S3.Bucket),
		persistent.NewAssetRepo(pg, usageRelations),
		persistent.NewOutboxRepo(pg),
		pg,
		validate.New(cfg.Media.MaxImageBytes, cfg.Media.MaxVideoBytes),
		processor.New(
			cfg.Media.TargetWidths,
			cfg.Media.WebPQuality,
			cfg.Media.JPEGQuality,
			cfg.Media.BrandPalette,
			cfg.Media.BrandMaxDistance,
		),
		cfg.S3.Bucket,
		cfg.Media.PresignTTL,
		cfg.Media.UploadWorkers,
		l,
	)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(
		mediaUseCase,
		infrakafka.NewEventProducer(kafkaProducer, cfg.Kafka.Topic),
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.CleanupInterval,
		cfg.OutboxRelay.MarkFailedInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
		cfg.OutboxRelay.BatchSize,
		cfg.OutboxRelay.MaxRetries,
	)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewRouter(httpServer.App, cfg, mediaUseCase, l)

	// Start Components
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - outboxRelayWorker.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer orlShutdownCancel()
	err = outboxRelayWorker.Shutdown(orlShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - outboxRelayWorker.Shutdown: %w", err))
	}
}
