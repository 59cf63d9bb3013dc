package config

const EnvPrefix = "PRIMEFIT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv              = "PRIMEFIT_APP_ENV"
	EnvPort                = "PRIMEFIT_APP_PORT"
	EnvDBDSN               = "PRIMEFIT_DB_DSN"
	EnvDBHost              = "PRIMEFIT_DB_HOST"
	EnvDBUser              = "PRIMEFIT_DB_USER"
	EnvDBName              = "PRIMEFIT_DB_NAME"
	EnvRedisURL            = "PRIMEFIT_REDIS_URL"
	EnvAdminPassword       = "PRIMEFIT_ADMIN_PASSWORD"
	EnvAdminTrustedProxies = "PRIMEFIT_ADMIN_TRUSTED_PROXIES"
	EnvUseSQLite           = "PRIMEFIT_USE_SQLITE"
	EnvCartTTL             = "PRIMEFIT_CART_SESSION_TTL"
	EnvGCSBucket           = "PRIMEFIT_GCS_BUCKET_NAME"
	EnvCheckoutTopic       = "PRIMEFIT_PUBSUB_CHECKOUT_TOPIC"
	EnvCheckoutSub         = "PRIMEFIT_PUBSUB_CHECKOUT_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
