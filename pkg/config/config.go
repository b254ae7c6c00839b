package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is empty because every field carries a fully-qualified
	// ARCHCOMP_* tag below.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "ARCHCOMP_APP_ENV"
	EnvDBDSN  = "ARCHCOMP_DB_DSN"
	EnvDBHost = "ARCHCOMP_DB_HOST"
	EnvDBUser = "ARCHCOMP_DB_USER"
	EnvDBName = "ARCHCOMP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	PayHere       PayHereConfig
	Cart          CartConfig
	Registration  RegistrationConfig
	Cron          CronConfig
	Webhook       WebhookConfig
	Notifications NotificationsConfig
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
	Env          string `envconfig:"ARCHCOMP_APP_ENV" required:"true"`
	Port         string `envconfig:"ARCHCOMP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ARCHCOMP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARCHCOMP_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"ARCHCOMP_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ARCHCOMP_DB_DSN"`
	Driver string `envconfig:"ARCHCOMP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ARCHCOMP_DB_HOST"`
	LegacyPort     int    `envconfig:"ARCHCOMP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ARCHCOMP_DB_USER"`
	LegacyPassword string `envconfig:"ARCHCOMP_DB_PASSWORD"`
	LegacyName     string `envconfig:"ARCHCOMP_DB_NAME"`
	LegacySSLMode  string `envconfig:"ARCHCOMP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ARCHCOMP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ARCHCOMP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ARCHCOMP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ARCHCOMP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ARCHCOMP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ARCHCOMP_REDIS_ADDR"`
	Password     string        `envconfig:"ARCHCOMP_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARCHCOMP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARCHCOMP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARCHCOMP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARCHCOMP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARCHCOMP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARCHCOMP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ARCHCOMP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ARCHCOMP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ARCHCOMP_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PayHereConfig carries the gateway credentials plus the URLs the hosted
// checkout page redirects the payer back to.
type PayHereConfig struct {
	MerchantID     string        `envconfig:"ARCHCOMP_PAYHERE_MERCHANT_ID" required:"true"`
	MerchantSecret string        `envconfig:"ARCHCOMP_PAYHERE_MERCHANT_SECRET" required:"true"`
	CheckoutURL    string        `envconfig:"ARCHCOMP_PAYHERE_CHECKOUT_URL" default:"https://sandbox.payhere.lk/pay/checkout"`
	APIBaseURL     string        `envconfig:"ARCHCOMP_PAYHERE_API_BASE_URL" default:"https://sandbox.payhere.lk"`
	AppID          string        `envconfig:"ARCHCOMP_PAYHERE_APP_ID"`
	AppSecret      string        `envconfig:"ARCHCOMP_PAYHERE_APP_SECRET"`
	ReturnURL      string        `envconfig:"ARCHCOMP_PAYHERE_RETURN_URL" required:"true"`
	CancelURL      string        `envconfig:"ARCHCOMP_PAYHERE_CANCEL_URL" required:"true"`
	NotifyURL      string        `envconfig:"ARCHCOMP_PAYHERE_NOTIFY_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"ARCHCOMP_PAYHERE_REQUEST_TIMEOUT" default:"15s"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"ARCHCOMP_CART_TTL" default:"48h"`
}

type RegistrationConfig struct {
	DisplayCodePrefix string `envconfig:"ARCHCOMP_DISPLAY_CODE_PREFIX" default:"ARCH"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"ARCHCOMP_CRON_INTERVAL" default:"15m"`
	LockTTL             time.Duration `envconfig:"ARCHCOMP_CRON_LOCK_TTL" default:"30m"`
	MetricsPort         string        `envconfig:"ARCHCOMP_CRON_METRICS_PORT" default:"9109"`
	PendingPaymentGrace time.Duration `envconfig:"ARCHCOMP_PENDING_PAYMENT_GRACE" default:"30m"`
}

type WebhookConfig struct {
	TxTimeout      time.Duration `envconfig:"ARCHCOMP_WEBHOOK_TX_TIMEOUT" default:"20s"`
	IdempotencyTTL time.Duration `envconfig:"ARCHCOMP_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type NotificationsConfig struct {
	FromEmail string `envconfig:"ARCHCOMP_NOTIFICATIONS_FROM_EMAIL" default:"no-reply@archcomp.lk"`
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
