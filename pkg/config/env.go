package config

const EnvPrefix = "LAUNDRY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "LAUNDRY_APP_ENV"
	EnvPort     = "LAUNDRY_APP_PORT"
	EnvLogLevel = "LAUNDRY_LOG_LEVEL"

	EnvDBDSN    = "LAUNDRY_DB_DSN"
	EnvDBDriver = "LAUNDRY_DB_DRIVER"
	EnvDBHost   = "LAUNDRY_DB_HOST"
	EnvDBUser   = "LAUNDRY_DB_USER"
	EnvDBName   = "LAUNDRY_DB_NAME"

	EnvRedisURL = "LAUNDRY_REDIS_URL"

	EnvJWTSecret  = "LAUNDRY_JWT_SECRET"
	EnvJWTIssuer  = "LAUNDRY_JWT_ISSUER"
	EnvJWTExpMins = "LAUNDRY_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "LAUNDRY_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic      = "LAUNDRY_PUBSUB_ORDERS_TOPIC"
	EnvPubSubWalletTopic      = "LAUNDRY_PUBSUB_WALLET_TOPIC"
	EnvPubSubPartnerStatsSub  = "LAUNDRY_PUBSUB_PARTNER_STATS_SUBSCRIPTION"
	EnvFeesCancellationPct    = "LAUNDRY_FEES_CANCELLATION_PERCENTAGE"
	EnvFeesMinFailureFee      = "LAUNDRY_FEES_MIN_FAILURE_FEE"
	EnvFeesMaxFailureFee      = "LAUNDRY_FEES_MAX_FAILURE_FEE"
	EnvLifecycleMaxAttempts   = "LAUNDRY_MAX_DELIVERY_ATTEMPTS"
	EnvPartnerPayoutPerOrder  = "LAUNDRY_PARTNER_PAYOUT_PER_DELIVERY"
	EnvHTTPIdempotencyTTL     = "LAUNDRY_HTTP_IDEMPOTENCY_TTL"
	EnvCronStaleSettlementAge = "LAUNDRY_CRON_STALE_SETTLEMENT_AGE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
