package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selector values for storage and events.
const (
	BackendNone     = "none"
	BackendMinio    = "minio"
	BackendGCS      = "gcs"
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
)

type Config struct {
	ServerPort int
	JWTSecret  string
	Database   DatabaseConfig
	Remote     RemoteConfig
	Session    SessionConfig
	Sync       SyncConfig
	Seed       SeedConfig
	Storage    StorageConfig
	Events     EventsConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// RemoteConfig points at the hosted backend that owns the defect dictionary.
type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Configured reports whether the remote defect source is usable.
func (r RemoteConfig) Configured() bool {
	return strings.TrimSpace(r.BaseURL) != "" && strings.TrimSpace(r.APIKey) != ""
}

type SessionConfig struct {
	TTL          time.Duration
	SecureCookie bool
}

type SyncConfig struct {
	// Interval between background defect code syncs. Zero disables the loop.
	Interval time.Duration
}

// SeedConfig holds the bootstrap admin credentials.
type SeedConfig struct {
	AdminUsername string
	AdminPassword string
}

type StorageConfig struct {
	Backend  string
	LocalDir string
	Minio    MinioConfig
	GCS      GCSConfig
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

type EventsConfig struct {
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "floorreports"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "floorreports_db"),
		UseSSL:   getEnvBool("DB_SSL", false),
	}

	remoteConfig := RemoteConfig{
		BaseURL: getEnv("SUPABASE_URL", ""),
		APIKey:  getEnv("SUPABASE_KEY", ""),
		Timeout: time.Duration(getEnvInt("SUPABASE_TIMEOUT", 10)) * time.Second,
	}

	storageConfig := StorageConfig{
		Backend:  getEnv("STORAGE_BACKEND", BackendNone),
		LocalDir: getEnv("REPORTS_OUT_DIR", "reports/out"),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "floor-reports"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	eventsConfig := EventsConfig{
		Backend: getEnv("EVENTS_BACKEND", BackendNone),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 0),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		Database:   dbConfig,
		Remote:     remoteConfig,
		Session: SessionConfig{
			TTL:          time.Duration(getEnvInt("SESSION_TTL_HOURS", 12)) * time.Hour,
			SecureCookie: getEnvBool("SESSION_SECURE_COOKIE", false),
		},
		Sync: SyncConfig{
			Interval: time.Duration(getEnvInt("SYNC_INTERVAL_MINUTES", 60)) * time.Minute,
		},
		Seed: SeedConfig{
			AdminUsername: getEnv("ADMIN_USERNAME", "2276"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "2278!"),
		},
		Storage: storageConfig,
		Events:  eventsConfig,
	}
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
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(valueStr)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}
