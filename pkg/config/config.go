package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	HTTP         HTTPConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Fees         FeesConfig
	Lifecycle    LifecycleConfig
	Partners     PartnersConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Fees.Validate(); err != nil {
		return nil, err
	}
	if cfg.Lifecycle.MaxDeliveryAttempts < 1 {
		return nil, fmt.Errorf("%s must be at least 1", EnvLifecycleMaxAttempts)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LAUNDRY_APP_ENV" required:"true"`
	Port         string `envconfig:"LAUNDRY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LAUNDRY_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LAUNDRY_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"LAUNDRY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// ServiceConfig.MetricsAddr exposes /metrics from background processes.
// Empty disables it.
type ServiceConfig struct {
	Kind        string `envconfig:"LAUNDRY_SERVICE_KIND" default:"api"`
	MetricsAddr string `envconfig:"LAUNDRY_METRICS_ADDR"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	DSN    string `envconfig:"LAUNDRY_DB_DSN"`
	Driver string `envconfig:"LAUNDRY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LAUNDRY_DB_HOST"`
	LegacyPort     int    `envconfig:"LAUNDRY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LAUNDRY_DB_USER"`
	LegacyPassword string `envconfig:"LAUNDRY_DB_PASSWORD"`
	LegacyName     string `envconfig:"LAUNDRY_DB_NAME"`
	LegacySSLMode  string `envconfig:"LAUNDRY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LAUNDRY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LAUNDRY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LAUNDRY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LAUNDRY_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"LAUNDRY_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

// HTTPConfig shapes the public API surface. A zero RateLimit disables
// throttling of mutating requests.
type HTTPConfig struct {
	AllowedOrigins  []string      `envconfig:"LAUNDRY_HTTP_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	RateLimit       int           `envconfig:"LAUNDRY_HTTP_RATE_LIMIT" default:"60"`
	RateLimitWindow time.Duration `envconfig:"LAUNDRY_HTTP_RATE_LIMIT_WINDOW" default:"1m"`
	ShutdownTimeout time.Duration `envconfig:"LAUNDRY_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LAUNDRY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LAUNDRY_REDIS_ADDR"`
	Password     string        `envconfig:"LAUNDRY_REDIS_PASSWORD"`
	DB           int           `envconfig:"LAUNDRY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LAUNDRY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LAUNDRY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LAUNDRY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LAUNDRY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LAUNDRY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LAUNDRY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LAUNDRY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LAUNDRY_JWT_EXPIRATION_MINUTES" required:"true"`
}

func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LAUNDRY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LAUNDRY_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"LAUNDRY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	HTTPIdempotencyTTL   time.Duration `envconfig:"LAUNDRY_HTTP_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LAUNDRY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"LAUNDRY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LAUNDRY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic              string `envconfig:"LAUNDRY_PUBSUB_ORDERS_TOPIC" default:"laundry-order-events"`
	WalletTopic              string `envconfig:"LAUNDRY_PUBSUB_WALLET_TOPIC" default:"laundry-wallet-events"`
	PartnerStatsSubscription string `envconfig:"LAUNDRY_PUBSUB_PARTNER_STATS_SUBSCRIPTION" default:"laundry-partner-stats"`

	// EmulatorHost points the client at a local Pub/Sub emulator without credentials.
	EmulatorHost string `envconfig:"LAUNDRY_PUBSUB_EMULATOR_HOST"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LAUNDRY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LAUNDRY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LAUNDRY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// FeesConfig seeds the order charge settings row when none exists yet.
// Amounts are whole rupees.
type FeesConfig struct {
	CancellationPercentage decimal.Decimal `envconfig:"LAUNDRY_FEES_CANCELLATION_PERCENTAGE" default:"20"`
	CustomerUnavailable    int64           `envconfig:"LAUNDRY_FEES_CUSTOMER_UNAVAILABLE" default:"150"`
	IncorrectAddress       int64           `envconfig:"LAUNDRY_FEES_INCORRECT_ADDRESS" default:"150"`
	RefusalToAccept        int64           `envconfig:"LAUNDRY_FEES_REFUSAL_TO_ACCEPT" default:"150"`
	MinFailureFee          int64           `envconfig:"LAUNDRY_FEES_MIN_FAILURE_FEE" default:"100"`
	MaxFailureFee          int64           `envconfig:"LAUNDRY_FEES_MAX_FAILURE_FEE" default:"250"`
}

func (f FeesConfig) Validate() error {
	if f.CancellationPercentage.IsNegative() || f.CancellationPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%s must be between 0 and 100", EnvFeesCancellationPct)
	}
	if f.MinFailureFee < 0 || f.MaxFailureFee < f.MinFailureFee {
		return fmt.Errorf("%s must not exceed %s", EnvFeesMinFailureFee, EnvFeesMaxFailureFee)
	}
	return nil
}

type LifecycleConfig struct {
	MaxDeliveryAttempts int `envconfig:"LAUNDRY_MAX_DELIVERY_ATTEMPTS" default:"2"`
}

type PartnersConfig struct {
	PayoutPerDelivery int64 `envconfig:"LAUNDRY_PARTNER_PAYOUT_PER_DELIVERY" default:"40"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"LAUNDRY_CRON_INTERVAL" default:"1h"`
	OutboxRetention    time.Duration `envconfig:"LAUNDRY_CRON_OUTBOX_RETENTION" default:"720h"`
	DLQRetention       time.Duration `envconfig:"LAUNDRY_CRON_DLQ_RETENTION" default:"2160h"`
	RetentionEvery     time.Duration `envconfig:"LAUNDRY_CRON_RETENTION_EVERY" default:"24h"`
	StaleSettlementAge time.Duration `envconfig:"LAUNDRY_CRON_STALE_SETTLEMENT_AGE" default:"72h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:laundry.db?_foreign_keys=on"
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
