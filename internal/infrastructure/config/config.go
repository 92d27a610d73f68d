package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// SignupCredit is the one-time token grant for new registrations.
	SignupCredit int `env:"SIGNUP_CREDIT, default=1"`
	// CompletionWorkers is the number of payment-completion workers.
	CompletionWorkers int `env:"COMPLETION_WORKERS, default=4"`

	Mongo    MongoConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Payments PaymentsConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=gradeidea"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type LLMConfig struct {
	BaseURL    string `env:"LLM_BASE_URL, default=https://openrouter.ai/api/v1"`
	APIKey     string `env:"LLM_API_KEY"`
	Model      string `env:"LLM_MODEL,    default=openai/gpt-4o-mini"`
	TimeoutSec int    `env:"LLM_TIMEOUT,  default=60"`
	MaxRetries int    `env:"LLM_RETRIES,  default=2"`
}

func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

type PaymentsConfig struct {
	BaseURL       string `env:"PAYMENTS_BASE_URL"`
	APIKey        string `env:"PAYMENTS_API_KEY"`
	WebhookSecret string `env:"PAYMENTS_WEBHOOK_SECRET"`
	SuccessURL    string `env:"PAYMENTS_SUCCESS_URL, default=https://gradeidea.app/roast/done"`
	CancelURL     string `env:"PAYMENTS_CANCEL_URL,  default=https://gradeidea.app/roast/cancelled"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
