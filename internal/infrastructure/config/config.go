package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo      MongoConfig
	Redis      RedisConfig
	SMS        SMSConfig
	Storage    StorageConfig
	Inspection InspectionConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=phonely"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SMSConfig struct {
	// GatewayURL empty selects the logging sender (development).
	GatewayURL string `env:"SMS_GATEWAY_URL"`
	APIKey     string `env:"SMS_API_KEY"`
	SenderID   string `env:"SMS_SENDER_ID, default=Phonely"`
}

type StorageConfig struct {
	// Dir is where uploaded listing images land on disk.
	Dir     string `env:"IMAGE_DIR, default=./data/images"`
	BaseURL string `env:"IMAGE_BASE_URL, default=/static/images"`
}

type InspectionConfig struct {
	// URL empty disables the AI inspection integration.
	URL    string `env:"INSPECTION_URL"`
	APIKey string `env:"INSPECTION_API_KEY"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
