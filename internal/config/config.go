package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

type SenderConfig struct {
	URL   string
	Token string
}

type EngineConfig struct {
	StepTimeout     time.Duration
	ScheduleEnabled bool
	RunHour         int
}

type AppConfig struct {
	Port string

	Postgres PostgresConfig
	Redis    RedisConfig
	S3       S3Config

	Email    SenderConfig
	SMS      SenderConfig
	WhatsApp SenderConfig

	Engine EngineConfig

	ReportDir         string
	FilesPublicPrefix string
	ExternalURL       string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func Load() AppConfig {
	return AppConfig{
		Port: getenv("APP_PORT", "8020"),
		Postgres: PostgresConfig{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     mustAtoi(getenv("PG_PORT", "5432")),
			User:     getenv("PG_USER", "root"),
			Password: getenv("PG_PASSWORD", "hello-world"),
			DBName:   getenv("PG_DB", "collector"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", "hello-world"),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "collector_engine_"),
		},
		S3: S3Config{
			Enabled:         mustBool(getenv("S3_ENABLED", "false")),
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "reports"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", ""),
		},
		Email: SenderConfig{
			URL:   getenv("EMAIL_GATEWAY_URL", "http://127.0.0.1:8025/send"),
			Token: getenv("EMAIL_GATEWAY_TOKEN", ""),
		},
		SMS: SenderConfig{
			URL:   getenv("SMS_GATEWAY_URL", "http://127.0.0.1:8026/send"),
			Token: getenv("SMS_GATEWAY_TOKEN", ""),
		},
		WhatsApp: SenderConfig{
			URL:   getenv("WHATSAPP_GATEWAY_URL", "http://127.0.0.1:8027/send"),
			Token: getenv("WHATSAPP_GATEWAY_TOKEN", ""),
		},
		Engine: EngineConfig{
			StepTimeout:     time.Duration(mustAtoi(getenv("ENGINE_STEP_TIMEOUT", "10"))) * time.Second,
			ScheduleEnabled: mustBool(getenv("ENGINE_SCHEDULE_ENABLED", "true")),
			RunHour:         mustAtoi(getenv("ENGINE_RUN_HOUR", "9")),
		},
		ReportDir:         getenv("REPORT_DIR", "./reports"),
		FilesPublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
		ExternalURL:       getenv("EXTERNAL_URL", ""),
	}
}
