package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	awspkg "menu-service/pkg/aws"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port        string
	Env         string
	ServiceName string

	UpstreamURL         string
	UpstreamFallbackURL string
	UpstreamTimeout     time.Duration

	CatalogCache    string // "memory" or "redis"
	CatalogCacheTTL time.Duration

	CartStore string // "memory" or "redis"
	CartTTL   time.Duration
	RedisURL  string

	KafkaBrokers string
	KafkaTopic   string
	SNSTopicArn  string

	MessagingScheme string
	Currency        string
	DefaultLang     string
	Timezone        string

	AllowedOrigins     string
	RateLimitPerMinute int
	RateLimitBurst     int
	CookieSecure       bool
	AdminToken         string

	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string

	UseSecrets bool
	SecretName string
}

// Load reads configuration from the environment, after loading a .env file
// when one exists. With AWS_USE_SECRETS=true, values from the Secrets
// Manager JSON secret override the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Info("no .env file found, using environment variables")
	}

	cfg := FromEnv()

	if cfg.UseSecrets {
		if err := overrideFromSecrets(&cfg); err != nil {
			zap.L().Warn("secrets override failed, keeping environment values", zap.Error(err))
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables and defaults only.
func FromEnv() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("APP_ENV", "development"),
		ServiceName: getEnv("SERVICE_NAME", "menu-service"),

		UpstreamURL:         getEnv("MENU_API_URL", ""),
		UpstreamFallbackURL: getEnv("MENU_API_FALLBACK_URL", ""),
		UpstreamTimeout:     getDuration("MENU_API_TIMEOUT", 20*time.Second),

		CatalogCache:    strings.ToLower(getEnv("CATALOG_CACHE", "memory")),
		CatalogCacheTTL: getDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		CartStore: strings.ToLower(getEnv("CART_STORE", "memory")),
		CartTTL:   getDuration("CART_TTL", 24*time.Hour),
		RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379"),

		KafkaBrokers: getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "cart.checkout"),
		SNSTopicArn:  getEnv("CHECKOUT_SNS_TOPIC_ARN", ""),

		MessagingScheme: getEnv("MESSAGING_SCHEME", "https://wa.me"),
		Currency:        getEnv("CURRENCY_LABEL", "ل.س"),
		DefaultLang:     getEnv("DEFAULT_LANG", "ar"),
		Timezone:        getEnv("CHECKOUT_TIMEZONE", "Asia/Damascus"),

		AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "http://localhost:4200"),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 40),
		CookieSecure:       getBool("COOKIE_SECURE", false),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),

		CloudWatchEnabled:   getBool("CLOUDWATCH_ENABLED", false),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "MenuService"),
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/menu-service"),

		UseSecrets: getBool("AWS_USE_SECRETS", false),
		SecretName: getEnv("AWS_SECRET_NAME", "menu-service/config"),
	}
}

// Validate reports configuration the service cannot start with.
func (c Config) Validate() error {
	if c.UpstreamURL == "" {
		return fmt.Errorf("MENU_API_URL is required")
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("MENU_API_TIMEOUT must be positive")
	}
	for name, v := range map[string]string{"CATALOG_CACHE": c.CatalogCache, "CART_STORE": c.CartStore} {
		if v != "memory" && v != "redis" {
			return fmt.Errorf("%s must be memory or redis, got %q", name, v)
		}
	}
	if c.RateLimitPerMinute <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("CHECKOUT_TIMEZONE: %w", err)
	}
	return nil
}

// Location is the zone checkout timestamps are printed in.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// NeedsRedis reports whether any component is configured to use Redis.
func (c Config) NeedsRedis() bool {
	return c.CartStore == "redis" || c.CatalogCache == "redis"
}

// Brokers splits KAFKA_BROKERS; empty means Kafka publishing is off.
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func overrideFromSecrets(cfg *Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		return err
	}
	values, err := awspkg.GetSecretMap(ctx, awspkg.NewSecretsClient(awsCfg), cfg.SecretName)
	if err != nil {
		return err
	}
	ApplySecrets(cfg, values)
	return nil
}

// ApplySecrets overrides connection settings with non-empty secret values.
func ApplySecrets(cfg *Config, values map[string]string) {
	targets := map[string]*string{
		"MENU_API_URL":           &cfg.UpstreamURL,
		"MENU_API_FALLBACK_URL":  &cfg.UpstreamFallbackURL,
		"REDIS_URL":              &cfg.RedisURL,
		"KAFKA_BROKERS":          &cfg.KafkaBrokers,
		"CHECKOUT_SNS_TOPIC_ARN": &cfg.SNSTopicArn,
		"ADMIN_TOKEN":            &cfg.AdminToken,
	}
	for key, dst := range targets {
		if v, ok := values[key]; ok && v != "" {
			*dst = v
		}
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultVal
}
