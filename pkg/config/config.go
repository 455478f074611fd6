package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Checkout     CheckoutConfig
	Eventing     EventingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROCURECART_APP_ENV" required:"true"`
	Port         string `envconfig:"PROCURECART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROCURECART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROCURECART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PROCURECART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PROCURECART_DB_DSN"`
	Driver string `envconfig:"PROCURECART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROCURECART_DB_HOST"`
	LegacyPort     int    `envconfig:"PROCURECART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROCURECART_DB_USER"`
	LegacyPassword string `envconfig:"PROCURECART_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROCURECART_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROCURECART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROCURECART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROCURECART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROCURECART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROCURECART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROCURECART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PROCURECART_REDIS_ADDR"`
	Password     string        `envconfig:"PROCURECART_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROCURECART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROCURECART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROCURECART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROCURECART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROCURECART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROCURECART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PROCURECART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PROCURECART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PROCURECART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PROCURECART_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"PROCURECART_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"PROCURECART_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

// CheckoutConfig points at the external checkout engine that owns live carts.
type CheckoutConfig struct {
	BaseURL  string        `envconfig:"PROCURECART_CHECKOUT_BASE_URL" required:"true"`
	AppToken string        `envconfig:"PROCURECART_CHECKOUT_APP_TOKEN" required:"true"`
	Timeout  time.Duration `envconfig:"PROCURECART_CHECKOUT_TIMEOUT" default:"15s"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"PROCURECART_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PROCURECART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PROCURECART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
