package config

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	FanoutLocal    = "local"
	FanoutPostgres = "postgres"
)

type Config struct {
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN,required"`
	TelegramPollTimeout int    `env:"TELEGRAM_POLL_TIMEOUT,default=60"`

	DBHost            string        `env:"DB_HOST,required"`
	DBPort            int           `env:"DB_PORT,default=5432"`
	DBUser            string        `env:"DB_USER,required"`
	DBPassword        string        `env:"DB_PASSWORD,required"`
	DBName            string        `env:"DB_NAME,required"`
	DBSSLMode         string        `env:"DB_SSLMODE,default=disable"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`

	QuoteBaseURL     string        `env:"QUOTE_BASE_URL,default=http://localhost:8081"`
	QuoteTimeout     time.Duration `env:"QUOTE_TIMEOUT,default=8s"`
	QuoteConcurrency int           `env:"QUOTE_CONCURRENCY,default=8"`

	PollInterval  time.Duration `env:"POLL_INTERVAL,default=30s"`
	TriggerPolicy string        `env:"TRIGGER_POLICY,default=continuous"`

	NotificationStore string `env:"NOTIFICATION_STORE,default=postgres"`
	NotificationIcon  string `env:"NOTIFICATION_ICON,default=🔔"`
	MongoURI          string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDB           string `env:"MONGO_DB,default=pricewatch"`
	InAppFanout       string `env:"INAPP_FANOUT,default=local"`
	FanoutChannel     string `env:"FANOUT_CHANNEL,default=pricewatch_notifications"`

	HTTPAddr   string        `env:"HTTP_ADDR,default=:8080"`
	JWTSecret  string        `env:"JWT_SECRET,required"`
	JWTTTL     time.Duration `env:"JWT_TTL,default=24h"`
	AdminToken string        `env:"ADMIN_TOKEN"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads an optional .env file (ENV_FILE, default ".env") and then the
// process environment. Variables already set in the environment win.
func Load(ctx context.Context) (Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
