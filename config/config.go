package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction = "production"
	EnvDev        = "dev"
)

// Storage backend identifiers.
const (
	StorageS3          = "s3"
	StorageMinio       = "minio"
	StorageGCS         = "gcs"
	StoragePlaceholder = "placeholder"
)

// MQ backend identifiers.
const (
	MQNone     = "none"
	MQRabbitMQ = "rabbitmq"
	MQPubSub   = "pubsub"
)

type Config struct {
	ServerPort int
	Env        string
	StaticDir  string
	Database   DatabaseConfig
	JWT        JWTConfig
	Storage    StorageConfig
	MQ         MQConfig
	Log        LogConfig
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type JWTConfig struct {
	Secret string
	// TTL of issued tokens. Zero issues tokens without an expiry.
	TTL time.Duration
}

type StorageConfig struct {
	// Kind forces a backend. Empty selects one from the credentials present.
	Kind               string
	AWS                AWSConfig
	Minio              MinioConfig
	GCS                GCSConfig
	PlaceholderBaseURL string
}

type AWSConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MQConfig struct {
	Kind         string
	LectureTopic string
	RabbitMQ     RabbitMQConfig
	PubSub       PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == EnvDev {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "lecturehub"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "lecturehub"),
		UseSSL:   getEnvBool("DB_SSL", false),
	}

	storageConfig := StorageConfig{
		Kind: strings.ToLower(getEnv("STORAGE_BACKEND", "")),
		AWS: AWSConfig{
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Region:          getEnv("AWS_REGION", ""),
			Bucket:          getEnv("AWS_BUCKET_NAME", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
		PlaceholderBaseURL: getEnv("PLACEHOLDER_BASE_URL", "http://localhost:5001"),
	}

	mqConfig := MQConfig{
		Kind:         strings.ToLower(getEnv("MQ_BACKEND", MQNone)),
		LectureTopic: getEnv("MQ_LECTURE_TOPIC", "lecture-events"),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}

	return Config{
		ServerPort: getEnvInt("PORT", 5001),
		Env:        getEnv("ENV", EnvDev),
		StaticDir:  getEnv("STATIC_DIR", "frontend/dist"),
		Database:   dbConfig,
		JWT: JWTConfig{
			Secret: strings.TrimSpace(getEnv("JWT_SECRET", "")),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Storage: storageConfig,
		MQ:      mqConfig,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// IsProduction reports whether error details must be hidden from clients.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Backend resolves which object storage backend is active.
func (s StorageConfig) Backend() string {
	switch s.Kind {
	case StorageS3, StorageMinio, StorageGCS, StoragePlaceholder:
		return s.Kind
	}
	if s.AWS.Configured() {
		return StorageS3
	}
	return StoragePlaceholder
}

// Configured reports whether credentials, region and bucket are all present.
func (a AWSConfig) Configured() bool {
	return strings.TrimSpace(a.AccessKeyID) != "" &&
		strings.TrimSpace(a.SecretAccessKey) != "" &&
		strings.TrimSpace(a.Region) != "" &&
		strings.TrimSpace(a.Bucket) != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		valueStr = strings.TrimSpace(valueStr)
		if valueStr == "0" {
			return 0
		}
		value, err := time.ParseDuration(valueStr)
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}
