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
	FeatureFlags FeatureFlagsConfig
	Oracle       OracleConfig
	Churn        ChurnConfig
	Propensity   PropensityConfig
	Forecast     ForecastConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"HEALTHPULSE_APP_ENV" required:"true"`
	Port         string   `envconfig:"HEALTHPULSE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"HEALTHPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"HEALTHPULSE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"HEALTHPULSE_CORS_ORIGINS" default:"http://localhost:3000"`

	// BatchRateLimit caps batch scoring requests per client IP per window.
	// Zero disables the limit.
	BatchRateLimit  int           `envconfig:"HEALTHPULSE_BATCH_RATE_LIMIT" default:"30"`
	BatchRateWindow time.Duration `envconfig:"HEALTHPULSE_BATCH_RATE_WINDOW" default:"1m"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HEALTHPULSE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HEALTHPULSE_DB_DSN"`
	Driver string `envconfig:"HEALTHPULSE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"HEALTHPULSE_DB_HOST"`
	Port     int    `envconfig:"HEALTHPULSE_DB_PORT" default:"5432"`
	User     string `envconfig:"HEALTHPULSE_DB_USER"`
	Password string `envconfig:"HEALTHPULSE_DB_PASSWORD"`
	Name     string `envconfig:"HEALTHPULSE_DB_NAME"`
	SSLMode  string `envconfig:"HEALTHPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HEALTHPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HEALTHPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HEALTHPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HEALTHPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HEALTHPULSE_REDIS_URL"`
	Address      string        `envconfig:"HEALTHPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"HEALTHPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"HEALTHPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HEALTHPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HEALTHPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HEALTHPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HEALTHPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HEALTHPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint has been configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite        bool `envconfig:"HEALTHPULSE_USE_SQLITE" default:"false"`
	AutoMigrate      bool `envconfig:"HEALTHPULSE_AUTO_MIGRATE" default:"false"`
	OracleEnrichment bool `envconfig:"HEALTHPULSE_FEATURE_ORACLE_ENRICHMENT" default:"true"`
}

// OracleConfig configures the hosted text-generation provider used for
// narrative enrichment. An empty API key disables the oracle entirely.
type OracleConfig struct {
	APIKey          string        `envconfig:"HEALTHPULSE_ORACLE_API_KEY"`
	BaseURL         string        `envconfig:"HEALTHPULSE_ORACLE_BASE_URL" default:"https://api.anthropic.com/v1/"`
	Model           string        `envconfig:"HEALTHPULSE_ORACLE_MODEL" default:"claude-sonnet-4-5"`
	MaxTokens       int           `envconfig:"HEALTHPULSE_ORACLE_MAX_TOKENS" default:"1024"`
	Temperature     float32       `envconfig:"HEALTHPULSE_ORACLE_TEMPERATURE" default:"0.3"`
	RequestTimeout  time.Duration `envconfig:"HEALTHPULSE_ORACLE_REQUEST_TIMEOUT" default:"20s"`
	MaxAttempts     int           `envconfig:"HEALTHPULSE_ORACLE_MAX_ATTEMPTS" default:"3"`
	RatePerSecond   float64       `envconfig:"HEALTHPULSE_ORACLE_RATE_PER_SECOND" default:"2"`
	Burst           int           `envconfig:"HEALTHPULSE_ORACLE_BURST" default:"4"`
	BreakerFailures uint32        `envconfig:"HEALTHPULSE_ORACLE_BREAKER_FAILURES" default:"5"`
	BreakerTimeout  time.Duration `envconfig:"HEALTHPULSE_ORACLE_BREAKER_TIMEOUT" default:"60s"`
}

// Enabled reports whether oracle calls should be attempted.
func (o OracleConfig) Enabled() bool {
	return strings.TrimSpace(o.APIKey) != ""
}

// ChurnConfig carries the default churn thresholds. Every field can be
// overridden independently.
type ChurnConfig struct {
	InactiveDaysWarning  float64 `envconfig:"HEALTHPULSE_CHURN_INACTIVE_DAYS_WARNING" default:"14"`
	InactiveDaysCritical float64 `envconfig:"HEALTHPULSE_CHURN_INACTIVE_DAYS_CRITICAL" default:"30"`
	UsageDeclineWarning  float64 `envconfig:"HEALTHPULSE_CHURN_USAGE_DECLINE_WARNING" default:"20"`
	UsageDeclineCritical float64 `envconfig:"HEALTHPULSE_CHURN_USAGE_DECLINE_CRITICAL" default:"40"`
	TicketCountWarning   float64 `envconfig:"HEALTHPULSE_CHURN_TICKET_COUNT_WARNING" default:"5"`
	TicketCountCritical  float64 `envconfig:"HEALTHPULSE_CHURN_TICKET_COUNT_CRITICAL" default:"10"`
	HealthScoreWarning   float64 `envconfig:"HEALTHPULSE_CHURN_HEALTH_SCORE_WARNING" default:"60"`
	HealthScoreCritical  float64 `envconfig:"HEALTHPULSE_CHURN_HEALTH_SCORE_CRITICAL" default:"40"`
	NPSDetractor         float64 `envconfig:"HEALTHPULSE_CHURN_NPS_DETRACTOR" default:"6"`
	MediumRisk           float64 `envconfig:"HEALTHPULSE_CHURN_MEDIUM_RISK" default:"40"`
	HighRisk             float64 `envconfig:"HEALTHPULSE_CHURN_HIGH_RISK" default:"70"`
	CriticalRisk         float64 `envconfig:"HEALTHPULSE_CHURN_CRITICAL_RISK" default:"85"`
}

type PropensityConfig struct {
	CacheTTL    time.Duration `envconfig:"HEALTHPULSE_PROPENSITY_CACHE_TTL" default:"24h"`
	Concurrency int           `envconfig:"HEALTHPULSE_PROPENSITY_CONCURRENCY" default:"5"`
}

type ForecastConfig struct {
	DefaultPeriods int `envconfig:"HEALTHPULSE_FORECAST_DEFAULT_PERIODS" default:"6"`
	HistoryMonths  int `envconfig:"HEALTHPULSE_FORECAST_HISTORY_MONTHS" default:"24"`
	MaxPeriods     int `envconfig:"HEALTHPULSE_FORECAST_MAX_PERIODS" default:"24"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"HEALTHPULSE_CRON_INTERVAL" default:"24h"`
	// LockTTL overrides the cycle lock lifetime. Zero derives it from Interval.
	LockTTL time.Duration `envconfig:"HEALTHPULSE_CRON_LOCK_TTL"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"HEALTHPULSE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	PlaybookTopic string `envconfig:"HEALTHPULSE_PUBSUB_PLAYBOOK_TOPIC"`
}

// Enabled reports whether playbook events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.PlaybookTopic) != ""
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = DriverSQLite
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range splitDBEnvVars {
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
