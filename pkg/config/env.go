package config

const (
	EnvPrefix = "trademaster"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:trademaster.db?cache=shared&_foreign_keys=on"

	CartStoreMemory = "memory"
	CartStoreRedis  = "redis"

	EnvAppEnv         = "TRADEMASTER_APP_ENV"
	EnvPort           = "TRADEMASTER_APP_PORT"
	EnvReportTimezone = "TRADEMASTER_REPORT_TIMEZONE"
	EnvDBDSN          = "TRADEMASTER_DB_DSN"
	EnvDBDriver       = "TRADEMASTER_DB_DRIVER"
	EnvDBHost         = "TRADEMASTER_DB_HOST"
	EnvDBUser         = "TRADEMASTER_DB_USER"
	EnvDBPassword     = "TRADEMASTER_DB_PASSWORD"
	EnvDBName         = "TRADEMASTER_DB_NAME"
	EnvRedisURL       = "TRADEMASTER_REDIS_URL"
	EnvStockPolicy    = "TRADEMASTER_CHECKOUT_STOCK_POLICY"
	EnvCartStore      = "TRADEMASTER_CART_STORE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
