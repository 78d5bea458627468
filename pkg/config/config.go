package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	Pricing      PricingConfig
	Session      SessionConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Retention    RetentionConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Pricing.Validate(); err != nil {
		return nil, fmt.Errorf("pricing config: %w", err)
	}
	if err := cfg.ensureStorage(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FOODCART_APP_ENV" required:"true"`
	Port         string `envconfig:"FOODCART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FOODCART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FOODCART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FOODCART_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"FOODCART_CORS_ORIGINS" default:"http://localhost:3000"`

	// TrustProxy takes the client address from forwarding headers. Enable only
	// behind a proxy that overwrites them.
	TrustProxy bool `envconfig:"FOODCART_TRUST_PROXY" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// PricingConfig holds the checkout business rules as decimal currency strings.
type PricingConfig struct {
	FreeDeliveryThreshold string `envconfig:"FOODCART_PRICING_FREE_DELIVERY_THRESHOLD" default:"25.00"`
	BaseDeliveryFee       string `envconfig:"FOODCART_PRICING_BASE_DELIVERY_FEE" default:"3.99"`
	TaxRate               string `envconfig:"FOODCART_PRICING_TAX_RATE" default:"0.08875"`
	Currency              string `envconfig:"FOODCART_PRICING_CURRENCY" default:"USD"`
}

// Validate reports every malformed pricing value at once.
func (p PricingConfig) Validate() error {
	var errs error
	errs = multierr.Append(errs, nonNegativeAmount("free delivery threshold", p.FreeDeliveryThreshold))
	errs = multierr.Append(errs, nonNegativeAmount("base delivery fee", p.BaseDeliveryFee))

	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	switch {
	case err != nil:
		errs = multierr.Append(errs, fmt.Errorf("tax rate %q: %w", p.TaxRate, err))
	case rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)):
		errs = multierr.Append(errs, fmt.Errorf("tax rate %s must be within [0, 1)", rate))
	}

	if strings.TrimSpace(p.Currency) == "" {
		errs = multierr.Append(errs, errors.New("currency is required"))
	}
	return errs
}

func nonNegativeAmount(name, raw string) error {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s %q: %w", name, raw, err)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%s %s must be non-negative", name, amount)
	}
	return nil
}

type SessionConfig struct {
	IdleTTL       time.Duration `envconfig:"FOODCART_SESSION_IDLE_TTL" default:"2h"`
	SweepInterval time.Duration `envconfig:"FOODCART_SESSION_SWEEP_INTERVAL" default:"10m"`
	SnapshotTTL   time.Duration `envconfig:"FOODCART_SESSION_SNAPSHOT_TTL" default:"72h"`
}

type DBConfig struct {
	DSN    string `envconfig:"FOODCART_DB_DSN"`
	Driver string `envconfig:"FOODCART_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"FOODCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODCART_REDIS_URL"`
	Address      string        `envconfig:"FOODCART_REDIS_ADDR"`
	Password     string        `envconfig:"FOODCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a redis endpoint was supplied.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite    bool `envconfig:"FOODCART_USE_SQLITE" default:"false"`
	PersistCarts bool `envconfig:"FOODCART_PERSIST_CARTS" default:"false"`
	AutoMigrate  bool `envconfig:"FOODCART_AUTO_MIGRATE" default:"false"`
}

type RetentionConfig struct {
	OrderRetention time.Duration `envconfig:"FOODCART_ORDER_RETENTION" default:"2160h"`
	Interval       time.Duration `envconfig:"FOODCART_RETENTION_INTERVAL" default:"24h"`
	LockTTL        time.Duration `envconfig:"FOODCART_RETENTION_LOCK_TTL" default:"1h"`
}

// RateLimitConfig bounds cart mutations per session. Enforced only when redis is configured.
type RateLimitConfig struct {
	CartMutations int64         `envconfig:"FOODCART_RATE_LIMIT_CART_MUTATIONS" default:"120"`
	Window        time.Duration `envconfig:"FOODCART_RATE_LIMIT_WINDOW" default:"1m"`
}

func (c *Config) ensureStorage() error {
	if c.FeatureFlags.PersistCarts && !c.Redis.Configured() {
		return fmt.Errorf("%s or %s is required when %s is set", EnvRedisURL, EnvRedisAddr, EnvPersistCarts)
	}
	if c.FeatureFlags.UseSQLite {
		c.DB.Driver = "sqlite"
		if c.DB.DSN == "" {
			c.DB.DSN = "file:foodcart.db?cache=shared"
		}
		return nil
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("%s is required unless %s is set", EnvDBDSN, EnvUseSQLite)
	}
	return nil
}
