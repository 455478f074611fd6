package config

// EnvPrefix is passed to envconfig; field tags already carry the full
// PROCURECART_ names, so the prefix only covers untagged fields.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "PROCURECART_DB_DSN"
	EnvDBHost = "PROCURECART_DB_HOST"
	EnvDBUser = "PROCURECART_DB_USER"
	EnvDBName = "PROCURECART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
