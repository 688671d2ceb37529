package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is empty because every field names its variable in full.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "UPKEEP_DB_DSN"
	EnvDBHost = "UPKEEP_DB_HOST"
	EnvDBUser = "UPKEEP_DB_USER"
	EnvDBName = "UPKEEP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	OAuth        OAuthConfig
	Cron         CronConfig
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
	Env          string `envconfig:"UPKEEP_APP_ENV" required:"true"`
	Port         string `envconfig:"UPKEEP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"UPKEEP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"UPKEEP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"UPKEEP_DB_DSN"`
	Driver string `envconfig:"UPKEEP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"UPKEEP_DB_HOST"`
	LegacyPort     int    `envconfig:"UPKEEP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"UPKEEP_DB_USER"`
	LegacyPassword string `envconfig:"UPKEEP_DB_PASSWORD"`
	LegacyName     string `envconfig:"UPKEEP_DB_NAME"`
	LegacySSLMode  string `envconfig:"UPKEEP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"UPKEEP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"UPKEEP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"UPKEEP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"UPKEEP_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	ConnectAttempts int           `envconfig:"UPKEEP_DB_CONNECT_ATTEMPTS" default:"5"`
	ConnectBackoff  time.Duration `envconfig:"UPKEEP_DB_CONNECT_BACKOFF" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"UPKEEP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"UPKEEP_REDIS_ADDR"`
	Password     string        `envconfig:"UPKEEP_REDIS_PASSWORD"`
	DB           int           `envconfig:"UPKEEP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"UPKEEP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"UPKEEP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"UPKEEP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"UPKEEP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"UPKEEP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"UPKEEP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"UPKEEP_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"UPKEEP_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"UPKEEP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// OAuthConfig points at the identity provider's userinfo endpoint. The
// provider is a black box: any bearer token it accepts yields a principal.
type OAuthConfig struct {
	UserinfoURL string        `envconfig:"UPKEEP_OAUTH_USERINFO_URL" required:"true"`
	Timeout     time.Duration `envconfig:"UPKEEP_OAUTH_TIMEOUT" default:"10s"`
}

type CronConfig struct {
	Schedule       string        `envconfig:"UPKEEP_CRON_SCHEDULE" default:"0 3 * * *"`
	LockTTL        time.Duration `envconfig:"UPKEEP_CRON_LOCK_TTL" default:"1h"`
	MetricsPort    string        `envconfig:"UPKEEP_CRON_METRICS_PORT" default:"9091"`
	ReconcileLimit int           `envconfig:"UPKEEP_CRON_RECONCILE_LIMIT" default:"200"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"UPKEEP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"UPKEEP_AUTO_MIGRATE" default:"false"`
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
