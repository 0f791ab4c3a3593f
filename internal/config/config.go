package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/wb-go/wbf/retry"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Minio    MinioConfig    `yaml:"minio"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Clamav   ClamavConfig   `yaml:"clamav"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type DBConfig struct {
	Host            string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            string        `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"rentspace"`
	Password        string        `yaml:"password" env:"DB_PASSWORD" env-default:"rentspace"`
	Name            string        `yaml:"name" env:"DB_NAME" env-default:"rentspace"`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY" env-default:"minioadmin"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY" env-default:"minioadmin"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"listings"`
	UseSSL    bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type KafkaConfig struct {
	Brokers        []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	ReprocessTopic string   `yaml:"reprocess_topic" env:"KAFKA_REPROCESS_TOPIC" env-default:"photo-reprocess"`
	ResultsTopic   string   `yaml:"results_topic" env:"KAFKA_RESULTS_TOPIC" env-default:"photo-reprocessed"`
	GroupID        string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"rentspace-media-group"`
}

// ClamavConfig points at the clamd daemon. An empty address disables the
// external tier and leaves only the heuristic scan.
type ClamavConfig struct {
	Addr string `yaml:"addr" env:"CLAMAV_ADDR" env-default:"tcp://localhost:3310"`
}

type PipelineConfig struct {
	MaxWidth         int    `yaml:"max_width" env:"PIPELINE_MAX_WIDTH" env-default:"1200"`
	MaxHeight        int    `yaml:"max_height" env:"PIPELINE_MAX_HEIGHT" env-default:"1200"`
	MobileWidth      int    `yaml:"mobile_width" env:"PIPELINE_MOBILE_WIDTH" env-default:"720"`
	MobileHeight     int    `yaml:"mobile_height" env:"PIPELINE_MOBILE_HEIGHT" env-default:"720"`
	JPEGQuality      int    `yaml:"jpeg_quality" env:"PIPELINE_JPEG_QUALITY" env-default:"85"`
	MobileQuality    int    `yaml:"mobile_quality" env:"PIPELINE_MOBILE_QUALITY" env-default:"65"`
	WebPQuality      int    `yaml:"webp_quality" env:"PIPELINE_WEBP_QUALITY" env-default:"70"`
	MaxFileSizeMB    int    `yaml:"max_file_size_mb" env:"PIPELINE_MAX_FILE_SIZE_MB" env-default:"8"`
	EnhanceSharpness bool   `yaml:"enhance_sharpness" env:"PIPELINE_ENHANCE_SHARPNESS" env-default:"true"`
	UseSubjectCrop   bool   `yaml:"use_subject_crop" env:"PIPELINE_USE_SUBJECT_CROP" env-default:"true"`
	UseUpscale       bool   `yaml:"use_upscale" env:"PIPELINE_USE_UPSCALE" env-default:"true"`
	CascadePath      string `yaml:"cascade_path" env:"PIPELINE_CASCADE_PATH" env-default:""`
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency" env:"WORKER_CONCURRENCY" env-default:"4"`
}

// MustLoad reads CONFIG_PATH as yaml when set, environment otherwise.
func MustLoad() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}
	return cfg, nil
}

func (c *Config) DBDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) DefaultRetryStrategy() retry.Strategy {
	return retry.Strategy{
		Attempts: 3,
		Delay:    500 * time.Millisecond,
		Backoff:  2,
	}
}
