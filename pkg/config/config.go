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
	Admin        AdminConfig
	Cart         CartConfig
	Catalog      CatalogConfig
	Checkout     CheckoutConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Worker       WorkerConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRIMEFIT_APP_ENV" required:"true"`
	Port         string `envconfig:"PRIMEFIT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PRIMEFIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRIMEFIT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"PRIMEFIT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type DBConfig struct {
	DSN        string `envconfig:"PRIMEFIT_DB_DSN"`
	SQLitePath string `envconfig:"PRIMEFIT_DB_SQLITE_PATH" default:"file:primefit.db?cache=shared"`

	LegacyHost     string `envconfig:"PRIMEFIT_DB_HOST"`
	LegacyPort     int    `envconfig:"PRIMEFIT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRIMEFIT_DB_USER"`
	LegacyPassword string `envconfig:"PRIMEFIT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRIMEFIT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRIMEFIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRIMEFIT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PRIMEFIT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PRIMEFIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRIMEFIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRIMEFIT_REDIS_URL"`
	Address      string        `envconfig:"PRIMEFIT_REDIS_ADDR"`
	Password     string        `envconfig:"PRIMEFIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRIMEFIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRIMEFIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRIMEFIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRIMEFIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRIMEFIT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"PRIMEFIT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// AdminConfig guards the admin routes. TrustedProxies lists the proxy IPs or
// CIDRs whose X-Forwarded-For is believed; empty keys the failure throttle on
// the connection address.
type AdminConfig struct {
	Password       string        `envconfig:"PRIMEFIT_ADMIN_PASSWORD" required:"true"`
	FailureWindow  time.Duration `envconfig:"PRIMEFIT_ADMIN_FAILURE_WINDOW" default:"5m"`
	FailureIPLimit int           `envconfig:"PRIMEFIT_ADMIN_FAILURE_IP_LIMIT" default:"10"`
	TrustedProxies string        `envconfig:"PRIMEFIT_ADMIN_TRUSTED_PROXIES"`
}

// ProxyList splits the comma separated trusted proxy list.
func (a AdminConfig) ProxyList() []string {
	proxies := []string{}
	for _, entry := range strings.Split(a.TrustedProxies, ",") {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			proxies = append(proxies, trimmed)
		}
	}
	return proxies
}

type CartConfig struct {
	SessionTTL    time.Duration `envconfig:"PRIMEFIT_CART_SESSION_TTL" default:"12h"`
	SweepInterval time.Duration `envconfig:"PRIMEFIT_CART_SWEEP_INTERVAL" default:"5m"`
	CookieName    string        `envconfig:"PRIMEFIT_CART_COOKIE_NAME" default:"pf_cart_session"`
	CookieSecure  bool          `envconfig:"PRIMEFIT_CART_COOKIE_SECURE" default:"true"`
}

type CatalogConfig struct {
	CacheTTL time.Duration `envconfig:"PRIMEFIT_CATALOG_CACHE_TTL" default:"2m"`
}

type CheckoutConfig struct {
	WhatsAppPhone string `envconfig:"PRIMEFIT_CHECKOUT_WHATSAPP_PHONE" default:"5598999614108"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PRIMEFIT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PRIMEFIT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PRIMEFIT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"PRIMEFIT_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"PRIMEFIT_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
	MaxUploadMB   int    `envconfig:"PRIMEFIT_GCS_MAX_UPLOAD_MB" default:"10"`
}

// Enabled reports whether uploads have a bucket to land in.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type PubSubConfig struct {
	CheckoutTopic        string `envconfig:"PRIMEFIT_PUBSUB_CHECKOUT_TOPIC"`
	CheckoutSubscription string `envconfig:"PRIMEFIT_PUBSUB_CHECKOUT_SUBSCRIPTION"`
}

// Enabled reports whether checkout events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.CheckoutTopic) != ""
}

type WorkerConfig struct {
	IdempotencyTTL         time.Duration `envconfig:"PRIMEFIT_WORKER_IDEMPOTENCY_TTL" default:"72h"`
	MaxOutstandingMessages int           `envconfig:"PRIMEFIT_WORKER_MAX_OUTSTANDING" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PRIMEFIT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PRIMEFIT_AUTO_MIGRATE" default:"false"`
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
