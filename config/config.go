package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"room-service/poller"
)

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	DB     DatabaseConfig
	Push   PushConfig
	Poll   PollConfig
	Auth   AuthConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	LogLevel    string
	CorsOrigins []string
	// orders per second per client IP on POST /api/orders
	OrderRate  float64
	OrderBurst int
	UploadDir  string
}

type StoreConfig struct {
	Driver       string // memory | mysql
	SnapshotPath string
	Timeout      time.Duration
	SeedMenu     bool
}

// DatabaseConfig holds the MySQL settings used when STORE_DRIVER=mysql. URL
// (MYSQL_URL, then DATABASE_URL) wins over the individual parts.
type DatabaseConfig struct {
	URL  string
	User string
	Pass string
	Host string
	Port string
	Name string
}

type PushConfig struct {
	Driver       string // none | redis | kafka
	RedisAddr    string
	RedisPass    string
	KafkaBrokers []string
	TopicPrefix  string
}

type PollConfig struct {
	Interval time.Duration
}

type AuthConfig struct {
	StaffUsername     string
	StaffPassword     string
	StaffPasswordHash string
	JWTSecret         string
	TokenTTL          time.Duration
}

func (c Config) PushEnabled() bool {
	return c.Push.Driver == "redis" || c.Push.Driver == "kafka"
}

func (c Config) Production() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("ORDER_RATE", 1.0)
	v.SetDefault("ORDER_BURST", 3)
	v.SetDefault("UPLOAD_DIR", "uploads")

	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("STORE_SNAPSHOT", "data/room-service.json")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("SEED_MENU", true)

	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASS", "")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_NAME", "room_service")

	v.SetDefault("PUSH_DRIVER", "none")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("PUSH_TOPIC_PREFIX", "room-service")

	v.SetDefault("POLL_INTERVAL", "0s")

	v.SetDefault("STAFF_USERNAME", "manager")
	v.SetDefault("STAFF_PASSWORD", "")
	v.SetDefault("STAFF_PASSWORD_HASH", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "12h")
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Load reads .env (optional) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return v
}

// FromViper maps settings onto Config.
func FromViper(v *viper.Viper) Config {
	cfg := Config{
		Server: ServerConfig{
			Port:        v.GetString("PORT"),
			Env:         v.GetString("APP_ENV"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			CorsOrigins: splitList(v.GetString("CORS_ORIGINS")),
			OrderRate:   v.GetFloat64("ORDER_RATE"),
			OrderBurst:  v.GetInt("ORDER_BURST"),
			UploadDir:   v.GetString("UPLOAD_DIR"),
		},
		Store: StoreConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
			SnapshotPath: v.GetString("STORE_SNAPSHOT"),
			Timeout:      v.GetDuration("STORE_TIMEOUT"),
			SeedMenu:     v.GetBool("SEED_MENU"),
		},
		DB: DatabaseConfig{
			URL:  firstNonEmpty(v.GetString("MYSQL_URL"), v.GetString("DATABASE_URL")),
			User: strings.TrimSpace(v.GetString("DB_USER")),
			Pass: v.GetString("DB_PASS"),
			Host: strings.TrimSpace(v.GetString("DB_HOST")),
			Port: strings.TrimSpace(v.GetString("DB_PORT")),
			Name: strings.TrimSpace(v.GetString("DB_NAME")),
		},
		Push: PushConfig{
			Driver:       strings.ToLower(strings.TrimSpace(v.GetString("PUSH_DRIVER"))),
			RedisAddr:    v.GetString("REDIS_ADDR"),
			RedisPass:    v.GetString("REDIS_PASSWORD"),
			KafkaBrokers: splitList(v.GetString("KAFKA_BROKERS")),
			TopicPrefix:  v.GetString("PUSH_TOPIC_PREFIX"),
		},
		Poll: PollConfig{
			Interval: v.GetDuration("POLL_INTERVAL"),
		},
		Auth: AuthConfig{
			StaffUsername:     v.GetString("STAFF_USERNAME"),
			StaffPassword:     v.GetString("STAFF_PASSWORD"),
			StaffPasswordHash: v.GetString("STAFF_PASSWORD_HASH"),
			JWTSecret:         v.GetString("JWT_SECRET"),
			TokenTTL:          v.GetDuration("TOKEN_TTL"),
		},
	}
	if len(cfg.Server.CorsOrigins) == 0 {
		cfg.Server.CorsOrigins = []string{"*"}
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = poller.DefaultInterval(cfg.PushEnabled())
	}
	return cfg
}
