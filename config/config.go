package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP        HTTP
		Log         Log
		PG          PG
		S3          S3
		Media       Media
		Kafka       Kafka
		OutboxRelay OutboxRelay
		Swagger     Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT,required"`
		AccessKey      string        `env:"S3_ACCESS_KEY,required"`
		SecretKey      string        `env:"S3_SECRET_KEY,required"`
		Bucket         string        `env:"S3_BUCKET,required"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Media struct {
		MaxImageBytes int64 `env:"MEDIA_MAX_IMAGE_BYTES" envDefault:"10485760"`
		MaxVideoBytes int64 `env:"MEDIA_MAX_VIDEO_BYTES" envDefault:"104857600"`

		PresignTTL      time.Duration `env:"MEDIA_PRESIGN_TTL" envDefault:"600s"`
		CompleteTimeout time.Duration `env:"MEDIA_COMPLETE_TIMEOUT" envDefault:"60s"`
		UploadWorkers   int           `env:"MEDIA_UPLOAD_WORKERS" envDefault:"4"`

		TargetWidths []int `env:"MEDIA_TARGET_WIDTHS" envDefault:"320,640,1280,1920"`
		WebPQuality  int   `env:"MEDIA_WEBP_QUALITY" envDefault:"72"`
		JPEGQuality  int   `env:"MEDIA_JPEG_QUALITY" envDefault:"85"`

		// Brand advisory is informational only; empty palette disables it.
		BrandPalette     []string `env:"MEDIA_BRAND_PALETTE" envDefault:""`
		BrandMaxDistance float64  `env:"MEDIA_BRAND_MAX_DISTANCE" envDefault:"120"`

		// table:column pairs that may reference an asset id.
		UsageRelations []string `env:"MEDIA_USAGE_RELATIONS" envDefault:"products:cover_asset_id,product_gallery:asset_id"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS,required"`
		Topic   string   `env:"KAFKA_TOPIC,required"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"2s"`
		MarkFailedInterval  time.Duration `env:"OUTBOX_RELAY_MARK_FAILED_INTERVAL" envDefault:"2m"`
		CleanupInterval     time.Duration `env:"OUTBOX_RELAY_CLEANUP_INTERVAL" envDefault:"24h"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
		MaxRetries          int           `env:"OUTBOX_RELAY_MAX_RETRIES" envDefault:"3"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
