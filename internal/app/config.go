package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/storage/s3"
)

const defaultAddr = "0.0.0.0:8080"

// Cart snapshot backends.
const (
	CartBackendRedis = "redis"
	CartBackendFile  = "file"
	CartBackendNone  = "none"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string   `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string   `usage:"PostgreSQL connection URL (STOREFRONT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL     string   `usage:"Redis URL for cart snapshots (STOREFRONT_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	ImageBaseURL string   `default:"" usage:"Base URL for bundled product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	JWTSecret    string   `usage:"HMAC secret used to verify bearer tokens (STOREFRONT_JWT_SECRET)" flag:"jwt-secret"`
	AdminEmails  []string `usage:"Emails granted the admin role on first sign-in" flag:"admin-emails"`
	TaxRate      string   `default:"0.18" usage:"Tax rate applied to order subtotals" flag:"tax-rate"`
	Cart         CartConfig
	S3           s3.Config
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CartConfig controls cart sessions and their snapshots.
type CartConfig struct {
	Backend       string        `default:"redis" usage:"Cart snapshot backend: redis, file or none"`
	Dir           string        `default:"./data/carts" usage:"Snapshot directory for the file backend"`
	SnapshotTTL   time.Duration `default:"720h" usage:"Redis snapshot lifetime" flag:"cart-snapshot-ttl"`
	IdleTTL       time.Duration `default:"30m" usage:"Drop idle carts from memory after this long" flag:"cart-idle-ttl"`
	CookieSecure  bool          `default:"false" usage:"Mark the cart cookie Secure" flag:"cart-cookie-secure"`
	MaxUploadSize int64         `default:"20971520" usage:"Maximum media upload size in bytes" flag:"max-upload-size"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cart cookie, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set STOREFRONT_DATABASE_URL or DATABASE_URL")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt secret must be at least 32 bytes: set STOREFRONT_JWT_SECRET")
	}
	switch c.Cart.Backend {
	case CartBackendRedis:
		if c.RedisURL == "" {
			return errors.New("redis URL is required for the redis cart backend: set STOREFRONT_REDIS_URL or REDIS_URL")
		}
	case CartBackendFile:
		if c.Cart.Dir == "" {
			return errors.New("cart directory is required for the file cart backend")
		}
	case CartBackendNone:
	default:
		return errors.Errorf("unknown cart backend %q", c.Cart.Backend)
	}
	if _, err := c.Tax(); err != nil {
		return err
	}
	return nil
}

// Tax parses TaxRate.
func (c *Config) Tax() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse tax rate %q", c.TaxRate)
	}
	if rate.IsNegative() {
		return decimal.Zero, errors.Errorf("tax rate %s must not be negative", rate)
	}
	return rate, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STOREFRONT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
