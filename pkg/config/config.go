package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Supabase  SupabaseConfig
	Sentiment SentimentConfig
	Media     MediaConfig
	Redis     RedisConfig
	PubSub    PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Supabase.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZAMY_APP_ENV" default:"dev"`
	Port         string `envconfig:"ZAMY_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"ZAMY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZAMY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// SupabaseConfig addresses the remote relational store (PostgREST dialect) and
// the object store sitting next to it.
type SupabaseConfig struct {
	RESTURL    string `envconfig:"ZAMY_SUPABASE_REST_URL" required:"true"`
	StorageURL string `envconfig:"ZAMY_SUPABASE_STORAGE_URL" required:"true"`
	AnonKey    string `envconfig:"ZAMY_SUPABASE_ANON_KEY" required:"true"`
	PublicBase string `envconfig:"ZAMY_SUPABASE_PUBLIC_BASE" required:"true"`

	ReviewsTable      string `envconfig:"ZAMY_SUPABASE_REVIEWS_TABLE" default:"reviews"`
	ReviewImagesTable string `envconfig:"ZAMY_SUPABASE_REVIEW_IMAGES_TABLE" default:"review_images"`
	ReviewImageBucket string `envconfig:"ZAMY_SUPABASE_REVIEW_IMAGE_BUCKET" default:"review-images"`

	RequestTimeout time.Duration `envconfig:"ZAMY_SUPABASE_REQUEST_TIMEOUT" default:"30s"`
	UploadTimeout  time.Duration `envconfig:"ZAMY_SUPABASE_UPLOAD_TIMEOUT" default:"60s"`
}

func (s SupabaseConfig) validate() error {
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("supabase request timeout must be positive")
	}
	if s.UploadTimeout <= 0 {
		return fmt.Errorf("supabase upload timeout must be positive")
	}
	return nil
}

// SentimentConfig drives the external classifier adapter.
type SentimentConfig struct {
	// ScriptPath pins the predict script; when empty the adapter searches the
	// usual checkout locations.
	ScriptPath   string        `envconfig:"ZAMY_SENTIMENT_SCRIPT_PATH"`
	Interpreters []string      `envconfig:"ZAMY_SENTIMENT_INTERPRETERS" default:"python3,python"`
	Timeout      time.Duration `envconfig:"ZAMY_SENTIMENT_TIMEOUT" default:"30s"`
}

type MediaConfig struct {
	ImageFetchTimeout time.Duration `envconfig:"ZAMY_IMAGE_FETCH_TIMEOUT" default:"60s"`
	MaxMultipartMB    int64         `envconfig:"ZAMY_MAX_MULTIPART_MB" default:"32"`
}

// RedisConfig is optional; an empty URL disables the idempotency layer.
type RedisConfig struct {
	URL          string        `envconfig:"ZAMY_REDIS_URL"`
	Password     string        `envconfig:"ZAMY_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZAMY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZAMY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZAMY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZAMY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZAMY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZAMY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

// PubSubConfig is optional; review-created events are published only when both
// fields are set.
type PubSubConfig struct {
	ProjectID         string        `envconfig:"ZAMY_GCP_PROJECT_ID"`
	ReviewEventsTopic string        `envconfig:"ZAMY_PUBSUB_REVIEW_EVENTS_TOPIC"`
	PublishTimeout    time.Duration `envconfig:"ZAMY_PUBSUB_PUBLISH_TIMEOUT" default:"10s"`
}

func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.ProjectID) != "" && strings.TrimSpace(p.ReviewEventsTopic) != ""
}
