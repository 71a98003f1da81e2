package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the reference backend configuration.
type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Wallet        WalletConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QKART_APP_ENV" required:"true"`
	Port         string `envconfig:"QKART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QKART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QKART_LOG_WARN_STACK" default:"false"`

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `envconfig:"QKART_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:8081"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QKART_DB_DSN"`
	Driver string `envconfig:"QKART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"QKART_DB_HOST"`
	Port     int    `envconfig:"QKART_DB_PORT" default:"5432"`
	User     string `envconfig:"QKART_DB_USER"`
	Password string `envconfig:"QKART_DB_PASSWORD"`
	Name     string `envconfig:"QKART_DB_NAME"`
	SSLMode  string `envconfig:"QKART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QKART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QKART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QKART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QKART_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn; 0 disables.
	SlowQueryThreshold time.Duration `envconfig:"QKART_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// IsSQLite reports whether the SQLite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"QKART_REDIS_URL"`
	Address      string        `envconfig:"QKART_REDIS_ADDR"`
	Password     string        `envconfig:"QKART_REDIS_PASSWORD"`
	DB           int           `envconfig:"QKART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QKART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QKART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QKART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QKART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QKART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"QKART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"QKART_JWT_ISSUER" default:"qkart"`
	ExpirationMinutes int    `envconfig:"QKART_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"QKART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"QKART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"QKART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"QKART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"QKART_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"QKART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit    int           `envconfig:"QKART_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"QKART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"QKART_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"QKART_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"QKART_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"QKART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"QKART_AUTO_MIGRATE" default:"false"`
	// RedisOptional lets a dev server boot without Redis; sessions and rate limits are then disabled.
	RedisOptional bool `envconfig:"QKART_REDIS_OPTIONAL" default:"false"`
}

type WalletConfig struct {
	// StartingBalance is credited to every newly registered user.
	StartingBalance int64 `envconfig:"QKART_WALLET_STARTING_BALANCE" default:"5000"`
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
