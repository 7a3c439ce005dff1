package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultAdminCode is the development fallback for ADMIN_SECURITY_CODE.
const DefaultAdminCode = "TITAN2024"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

type Config struct {
	Env      string `envconfig:"APP_ENV"   default:"development"`
	Port     string `envconfig:"PORT"      default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	AdminCode        string        `envconfig:"ADMIN_SECURITY_CODE"`
	AdminCodeHash    string        `envconfig:"ADMIN_SECURITY_CODE_HASH"`
	AdminTokenSecret string        `envconfig:"ADMIN_TOKEN_SECRET"`
	AdminTokenTTL    time.Duration `envconfig:"ADMIN_TOKEN_TTL"    default:"8h"`
	AdminVerifyLimit int           `envconfig:"ADMIN_VERIFY_LIMIT" default:"5"`

	StoreDriver  string `envconfig:"STORE_DRIVER"  default:"file"`
	ProductsFile string `envconfig:"PRODUCTS_FILE" default:"data/products.json"`
	BoltPath     string `envconfig:"BOLT_PATH"     default:"data/catalog.db"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	PublicBaseURL  string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	WhatsAppNumber string `envconfig:"WHATSAPP_NUMBER" default:"918380889935"`
	CallNumber     string `envconfig:"CALL_NUMBER"     default:"918380889935"`

	MetricsToken string `envconfig:"METRICS_TOKEN"`

	// TrustProxy keys rate limits on X-Forwarded-For. Enable only behind a proxy that sets it.
	TrustProxy bool `envconfig:"TRUST_PROXY" default:"false"`
}

var (
	ErrDefaultAdminCode = errors.New("ADMIN_SECURITY_CODE must be set to a non-default value in production")
	ErrUnknownDriver    = errors.New("unknown STORE_DRIVER")
	ErrMissingDSN       = errors.New("DATABASE_URL is required for the postgres driver")
)

// Load reads an optional .env file and then the process environment.
// Values already present in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) normalize() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")

	if c.AdminCode == "" && c.AdminCodeHash == "" {
		c.AdminCode = DefaultAdminCode
	}
	if c.Env == EnvProduction && c.UsingDefaultAdminCode() {
		return ErrDefaultAdminCode
	}

	switch c.StoreDriver {
	case DriverFile, DriverMemory, DriverBolt:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.StoreDriver)
	}

	if c.AdminVerifyLimit <= 0 {
		c.AdminVerifyLimit = 5
	}
	return nil
}

// UsingDefaultAdminCode reports whether the source-controlled fallback is active.
func (c *Config) UsingDefaultAdminCode() bool {
	return c.AdminCodeHash == "" && c.AdminCode == DefaultAdminCode
}
