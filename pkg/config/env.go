package config

const (
	EnvPrefix = "HEALTHPULSE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:healthpulse.db?cache=shared"

	EnvAppEnv   = "HEALTHPULSE_APP_ENV"
	EnvPort     = "HEALTHPULSE_APP_PORT"
	EnvLogLevel = "HEALTHPULSE_LOG_LEVEL"

	EnvDBDSN  = "HEALTHPULSE_DB_DSN"
	EnvDBHost = "HEALTHPULSE_DB_HOST"
	EnvDBUser = "HEALTHPULSE_DB_USER"
	EnvDBName = "HEALTHPULSE_DB_NAME"

	EnvRedisURL = "HEALTHPULSE_REDIS_URL"

	EnvOracleAPIKey = "HEALTHPULSE_ORACLE_API_KEY"
	EnvUseSQLite    = "HEALTHPULSE_USE_SQLITE"

	EnvChurnCriticalRisk = "HEALTHPULSE_CHURN_CRITICAL_RISK"
)

var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
