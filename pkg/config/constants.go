package config

const EnvPrefix = "FOODCART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "FOODCART_APP_ENV"

	EnvFreeDeliveryThreshold = "FOODCART_PRICING_FREE_DELIVERY_THRESHOLD"
	EnvBaseDeliveryFee       = "FOODCART_PRICING_BASE_DELIVERY_FEE"
	EnvTaxRate               = "FOODCART_PRICING_TAX_RATE"

	EnvDBDSN = "FOODCART_DB_DSN"

	EnvRedisURL  = "FOODCART_REDIS_URL"
	EnvRedisAddr = "FOODCART_REDIS_ADDR"

	EnvUseSQLite    = "FOODCART_USE_SQLITE"
	EnvPersistCarts = "FOODCART_PERSIST_CARTS"
)
