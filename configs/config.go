package config

import (
	"os"
	"time"
)

type Config struct {
	PostgresURI       string
	RedisURI          string
	ServerAddr        string
	SecretKey         string
	EncryptionKey     string
	CookieName        string
	MastodonServer    string
	WorkerConcurrency int
	PublishTimeout    time.Duration
	RequeueInterval   string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:       getEnv("POSTGRES_URI", ""),
		RedisURI:          getEnv("REDIS_URI", "localhost:6379"),
		ServerAddr:        getEnv("SERVER_ADDR", ":3000"),
		SecretKey:         getEnv("SECRET_KEY", ""),
		EncryptionKey:     getEnv("ENCRYPTION_KEY", ""),
		CookieName:        getEnv("COOKIE_NAME", "postline_session"),
		MastodonServer:    getEnv("MASTODON_SERVER", "https://mastodon.social"),
		WorkerConcurrency: 10,
		PublishTimeout:    getEnvDuration("PUBLISH_TIMEOUT", 30*time.Second),
		RequeueInterval:   getEnv("REQUEUE_INTERVAL", "@every 00h05m00s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
