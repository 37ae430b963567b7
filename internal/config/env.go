// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvDataDir         = "DATA_DIR"

	EnvGatewayBaseURL = "STUDIO_GATEWAY_URL"
	EnvGatewayTimeout = "STUDIO_GATEWAY_TIMEOUT"

	EnvDeployMode    = "DEPLOY_MODE"
	EnvMaxImageBytes = "MAX_IMAGE_BYTES"

	EnvSessionTTL   = "SESSION_TTL"
	EnvSessionSweep = "SESSION_SWEEP_INTERVAL"

	EnvUserRateLimitBurst  = "USER_RATE_LIMIT_BURST"
	EnvUserRateLimitRefill = "USER_RATE_LIMIT_REFILL_PER_SEC"
	EnvAutofixPerHour      = "AUTOFIX_PER_HOUR"

	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGeminiModel  = "GEMINI_MODEL"
	EnvGroqAPIKey   = "GROQ_API_KEY"
	EnvGroqModel    = "GROQ_MODEL"

	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"

	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"
	EnvSentryToken         = "SENTRY_TOKEN"
	EnvSentryHost          = "SENTRY_HOST"
	EnvEnvironment         = "ENVIRONMENT"

	EnvR2Endpoint    = "R2_ENDPOINT"
	EnvR2AccessKeyID = "R2_ACCESS_KEY_ID"
	EnvR2SecretKey   = "R2_SECRET_ACCESS_KEY"
	EnvR2Bucket      = "R2_BUCKET"
)
