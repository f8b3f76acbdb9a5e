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
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"TRADEMASTER_APP_ENV" required:"true"`
	Port           string   `envconfig:"TRADEMASTER_APP_PORT" default:"8080"`
	LogLevel       string   `envconfig:"TRADEMASTER_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"TRADEMASTER_LOG_WARN_STACK" default:"false"`
	ReportTimezone string   `envconfig:"TRADEMASTER_REPORT_TIMEZONE" default:"UTC"`
	SeedOnStart    bool     `envconfig:"TRADEMASTER_SEED_ON_START" default:"false"`
	CORSOrigins    []string `envconfig:"TRADEMASTER_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the timezone used for calendar-day and hour bucketing in reports.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.ReportTimezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvReportTimezone, name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEMASTER_DB_DSN"`
	Driver string `envconfig:"TRADEMASTER_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TRADEMASTER_DB_HOST"`
	Port     int    `envconfig:"TRADEMASTER_DB_PORT" default:"5432"`
	User     string `envconfig:"TRADEMASTER_DB_USER"`
	Password string `envconfig:"TRADEMASTER_DB_PASSWORD"`
	Name     string `envconfig:"TRADEMASTER_DB_NAME"`
	SSLMode  string `envconfig:"TRADEMASTER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEMASTER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEMASTER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEMASTER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEMASTER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the embedded sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEMASTER_REDIS_URL"`
	Address      string        `envconfig:"TRADEMASTER_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"TRADEMASTER_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEMASTER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEMASTER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEMASTER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEMASTER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEMASTER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEMASTER_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"TRADEMASTER_REDIS_KEY_PREFIX" default:"tm"`
	CartTTL      time.Duration `envconfig:"TRADEMASTER_REDIS_CART_TTL" default:"24h"`
	IdemTTL      time.Duration `envconfig:"TRADEMASTER_REDIS_IDEMPOTENCY_TTL" default:"24h"`
}

type CheckoutConfig struct {
	StockPolicy          string `envconfig:"TRADEMASTER_CHECKOUT_STOCK_POLICY" default:"reject"`
	DefaultPaymentMethod string `envconfig:"TRADEMASTER_CHECKOUT_DEFAULT_PAYMENT_METHOD" default:"cash"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool   `envconfig:"TRADEMASTER_AUTO_MIGRATE" default:"false"`
	CartStore   string `envconfig:"TRADEMASTER_CART_STORE" default:"memory"`
}

// RedisCarts reports whether carts are kept in Redis instead of process memory.
func (f FeatureFlagsConfig) RedisCarts() bool {
	return strings.EqualFold(strings.TrimSpace(f.CartStore), CartStoreRedis)
}

type OutboxConfig struct {
	BatchSize      int    `envconfig:"TRADEMASTER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"TRADEMASTER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"TRADEMASTER_OUTBOX_MAX_ATTEMPTS" default:"10"`
	ChannelPrefix  string `envconfig:"TRADEMASTER_OUTBOX_CHANNEL_PREFIX" default:"trademaster.events"`
	RetentionDays  int    `envconfig:"TRADEMASTER_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval      time.Duration `envconfig:"TRADEMASTER_CRON_INTERVAL" default:"15m"`
	LockTTL       time.Duration `envconfig:"TRADEMASTER_CRON_LOCK_TTL" default:"10m"`
	AlertCooldown time.Duration `envconfig:"TRADEMASTER_CRON_ALERT_COOLDOWN" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
