package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config represents the application configuration structure.
// It contains settings for the environment, HTTP server, storage, the
// document and underwriting services, the background pipeline and graceful
// shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's default log level (debug, info, warn, error). Optional.
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// AllowedOrigins lists the browser origins allowed by CORS. Empty allows any origin without credentials
		AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" env-separator:"," yaml:"allowedOrigins"`
	} `yaml:"http"`

	// JWT holds the keys of the identity service
	JWT struct {
		// PublicKey is the PEM encoded RSA key used to verify bearer tokens
		PublicKey string `env:"JWT_PUBLIC_KEY" yaml:"publicKey"`
		// PrivateKey is the PEM encoded RSA key used by the jwt command to mint tokens
		PrivateKey string `env:"JWT_PRIVATE_KEY" yaml:"privateKey"`
	} `yaml:"jwt"`

	// Storage selects the persistence backend
	Storage struct {
		// Driver is either "memory" or "postgres"
		Driver string `env:"STORAGE_DRIVER" env-default:"memory" yaml:"driver"`
		// Shards is the number of lock partitions of the memory backend
		Shards int `env:"STORAGE_SHARDS" env-default:"32" yaml:"shards"`
	} `yaml:"storage"`

	// Database contains all database connection related configurations
	Database struct {
		// Username for database authentication
		Username string `env:"DATABASE_USERNAME" env-default:"myuser" yaml:"username"`
		// Password for database authentication
		Password string `env:"DATABASE_PASSWORD" env-default:"mypassword" yaml:"password"`
		// Host is the database server hostname or IP address
		Host string `env:"DATABASE_HOST" env-default:"localhost" yaml:"host"`
		// Port is the database server port number
		Port int `env:"DATABASE_PORT" env-default:"5432" yaml:"port"`
		// SslMode defines the SSL mode for the database connection
		SslMode string `env:"DATABASE_SSL_MODE" env-default:"disable" yaml:"sslMode"`
		// DatabaseName is the name of the database to connect to
		DatabaseName string `env:"DATABASE_NAME" env-default:"lending" yaml:"name"`
		// MaxOpenConnections limits the number of open connections to the database
		MaxOpenConnections int `env:"DATABASE_MAX_OPEN_CONNECTIONS" env-default:"10" yaml:"maxOpenConnections"`
		// MaxIdleConnections limits the number of connections in the idle connection pool
		MaxIdleConnections int `env:"DATABASE_MAX_IDLE_CONNECTIONS" env-default:"8" yaml:"maxIdleConnections"`
		// ConnMaxLifetime is the maximum amount of time a connection may be reused
		ConnMaxLifetime time.Duration `env:"DATABASE_CONNECTION_MAX_LIFETIME" env-default:"3m" yaml:"connMaxLifetime"`
		// ConnMaxIdleTime is the maximum amount of time a connection may be idle
		ConnMaxIdleTime time.Duration `env:"DATABASE_CONNECTION_MAX_IDLE_TIME" env-default:"3m" yaml:"connMaxIdleTime"`
	} `yaml:"database"`

	// Extraction configures document uploads
	Extraction struct {
		// AllowedMimeTypes lists the accepted upload media types
		AllowedMimeTypes []string `env:"EXTRACTION_ALLOWED_MIME_TYPES" env-default:"image/jpeg,image/png,application/pdf" env-separator:"," yaml:"allowedMimeTypes"` //nolint: lll
		// MaxBytes is the largest accepted upload
		MaxBytes int64 `env:"EXTRACTION_MAX_BYTES" env-default:"5242880" yaml:"maxBytes"`
		// ReviewProbability is the share of extractions flagged for manual review
		ReviewProbability float64 `env:"EXTRACTION_REVIEW_PROBABILITY" env-default:"0.1" yaml:"reviewProbability"`
		// Classifier is either "filename" or "pdf"
		Classifier string `env:"EXTRACTION_CLASSIFIER" env-default:"pdf" yaml:"classifier"`
	} `yaml:"extraction"`

	// Underwriting configures the scoring engine
	Underwriting struct {
		// Latency is the simulated duration of one underwriting run
		Latency time.Duration `env:"UNDERWRITING_LATENCY" env-default:"2s" yaml:"latency"`
		// Endpoint is the URL of a remote scoring service. The simulated engine is used when empty
		Endpoint string `env:"UNDERWRITING_ENDPOINT" yaml:"endpoint"`
		// Token is sent as Api-Key to the remote scoring service
		Token string `env:"UNDERWRITING_TOKEN" yaml:"token"`
		// Timeout bounds a single request to the remote scoring service
		Timeout time.Duration `env:"UNDERWRITING_TIMEOUT" env-default:"10s" yaml:"timeout"`
		// MaxAttempts is the number of tries per run for transient faults
		MaxAttempts int `env:"UNDERWRITING_MAX_ATTEMPTS" env-default:"3" yaml:"maxAttempts"`
		// InitialBackoff is the wait before the first retry
		InitialBackoff time.Duration `env:"UNDERWRITING_INITIAL_BACKOFF" env-default:"200ms" yaml:"initialBackoff"`
		// MaxBackoff caps the wait between retries
		MaxBackoff time.Duration `env:"UNDERWRITING_MAX_BACKOFF" env-default:"2s" yaml:"maxBackoff"`
		// BreakerEnabled turns the circuit breaker on
		BreakerEnabled bool `env:"UNDERWRITING_BREAKER_ENABLED" env-default:"true" yaml:"breakerEnabled"`
		// BreakerFailureRatio is the failure ratio that opens the breaker
		BreakerFailureRatio float64 `env:"UNDERWRITING_BREAKER_FAILURE_RATIO" env-default:"0.5" yaml:"breakerFailureRatio"`
		// BreakerOpenTimeout is how long the breaker stays open
		BreakerOpenTimeout time.Duration `env:"UNDERWRITING_BREAKER_OPEN_TIMEOUT" env-default:"30s" yaml:"breakerOpenTimeout"`
	} `yaml:"underwriting"`

	// Pipeline configures the background underwriting jobs
	Pipeline struct {
		// Workers is the number of jobs processed concurrently
		Workers int `env:"PIPELINE_WORKERS" env-default:"16" yaml:"workers"`
		// RatePerSecond limits how many jobs start per second; 0 disables the limit
		RatePerSecond float64 `env:"PIPELINE_RATE_PER_SECOND" env-default:"0" yaml:"ratePerSecond"`
		// UnderwritingTimeout bounds one underwriting run; exceeding it errors the application
		UnderwritingTimeout time.Duration `env:"PIPELINE_UNDERWRITING_TIMEOUT" env-default:"30s" yaml:"underwritingTimeout"`
		// MaxAttempts is the number of job deliveries River makes before giving up
		MaxAttempts int `env:"PIPELINE_MAX_ATTEMPTS" env-default:"3" yaml:"maxAttempts"`
	} `yaml:"pipeline"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}

// LoadEnv returns a Config filled from the environment and defaults only.
func LoadEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("could not read config from environment: %w", err)
	}

	return &cfg, nil
}
