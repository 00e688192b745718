package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverBadger = "badger"
	StorageDriverSQLite = "sqlite"
	StorageDriverRedis  = "redis"
	StorageDriverMemory = "memory"
)

const (
	EnvAppEnv             = "STOREFRONT_APP_ENV"
	EnvLogLevel           = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat          = "STOREFRONT_LOG_FORMAT"
	EnvAPIBaseURL         = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout         = "STOREFRONT_API_TIMEOUT"
	EnvStorageDriver      = "STOREFRONT_STORAGE_DRIVER"
	EnvStoragePath        = "STOREFRONT_STORAGE_PATH"
	EnvStorageDSN         = "STOREFRONT_STORAGE_DSN"
	EnvStoragePassphrase  = "STOREFRONT_STORAGE_PASSPHRASE"
	EnvRedisURL           = "STOREFRONT_REDIS_URL"
	EnvRedisAddr          = "STOREFRONT_REDIS_ADDR"
	EnvCatalogDebounce    = "STOREFRONT_CATALOG_SEARCH_DEBOUNCE"
	EnvCatalogPageSize    = "STOREFRONT_CATALOG_PAGE_SIZE"
	EnvEventsNATSURL      = "STOREFRONT_EVENTS_NATS_URL"
	EnvMetricsAddr        = "STOREFRONT_METRICS_ADDR"
)
