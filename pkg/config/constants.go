package config

// EnvPrefix is passed to envconfig; individual fields carry the full
// REDEEMLY_ names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "REDEEMLY_DB_DSN"
	EnvDBHost = "REDEEMLY_DB_HOST"
	EnvDBUser = "REDEEMLY_DB_USER"
	EnvDBName = "REDEEMLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
