package config

const (
	EnvPrefix       = "QKART"
	ClientEnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	DefaultSQLiteDSN = "file:qkart.db?_foreign_keys=on"

	EnvAppEnv     = "QKART_APP_ENV"
	EnvPort       = "QKART_APP_PORT"
	EnvDBDSN      = "QKART_DB_DSN"
	EnvDBDriver   = "QKART_DB_DRIVER"
	EnvDBHost     = "QKART_DB_HOST"
	EnvDBUser     = "QKART_DB_USER"
	EnvDBName     = "QKART_DB_NAME"
	EnvUseSQLite  = "QKART_USE_SQLITE"
	EnvRedisURL   = "QKART_REDIS_URL"
	EnvJWTSecret  = "QKART_JWT_SECRET"
	EnvJWTIssuer  = "QKART_JWT_ISSUER"
	EnvJWTExpMins = "QKART_JWT_EXPIRATION_MINUTES"

	EnvStorefrontAPIURL      = "STOREFRONT_API_URL"
	EnvStorefrontTimeout     = "STOREFRONT_HTTP_TIMEOUT"
	EnvStorefrontSessionFile = "STOREFRONT_SESSION_FILE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
